// Match ties the world, the players and the turn simulator together and
// resolves one game turn per Step.
package engine

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/talgya/broadside/internal/decision"
	"github.com/talgya/broadside/internal/entity"
	"github.com/talgya/broadside/internal/hex"
	"github.com/talgya/broadside/internal/planner"
	"github.com/talgya/broadside/internal/protocol"
	"github.com/talgya/broadside/internal/sim"
	"github.com/talgya/broadside/internal/world"
)

// Player chooses commands for the units it controls. *decision.Captain
// satisfies it.
type Player interface {
	Decide(t protocol.Turn) []decision.Order
}

// Event is a notable occurrence during a turn.
type Event struct {
	Turn        int    `json:"turn" db:"turn"`
	UnitID      int    `json:"unit_id" db:"unit_id"`
	Description string `json:"description" db:"description"`
	Category    string `json:"category" db:"category"` // "pickup", "hazard", "projectile", "lost"
}

// MatchStats tracks aggregate match statistics.
type MatchStats struct {
	PickupsTaken   int `json:"pickups_taken"`
	HazardsHit     int `json:"hazards_hit"`
	HazardsLaid    int `json:"hazards_laid"`
	ProjectileHits int `json:"projectile_hits"`
	UnitsLost      int `json:"units_lost"`
	Expanded       int `json:"expanded"` // planner expansions spent by all players
}

// TurnReport describes one resolved turn.
type TurnReport struct {
	Turn   int
	Orders map[int][]decision.Order // by owner
	Events []Event
}

// Result is the outcome of a match.
type Result struct {
	Turns    int
	Winner   int         // owner id, or Draw
	Strength map[int]int // total resource per owner still afloat
	Stats    MatchStats
}

// Draw is the Winner of a match nobody won.
const Draw = -1

// Match holds the complete state of one local game.
type Match struct {
	World   *world.World
	Players map[int]Player

	// Autopilot resolves MOVE commands into actions.
	Autopilot planner.Planner

	Stats MatchStats
}

// NewMatch creates a Match over a generated world.
func NewMatch(w *world.World, players map[int]Player) *Match {
	return &Match{
		World:     w,
		Players:   players,
		Autopilot: planner.Planner{Limits: planner.Limits{MaxExpansions: 2000}},
	}
}

// Step advances the match by one turn.
func (m *Match) Step() TurnReport {
	w := m.World
	w.Turn++
	report := TurnReport{Turn: w.Turn, Orders: make(map[int][]decision.Order)}

	commands := make(map[int]protocol.Command, len(w.Units))
	for _, owner := range w.Owners() {
		player, ok := m.Players[owner]
		if !ok {
			continue
		}
		orders := player.Decide(w.Snapshot(owner))
		report.Orders[owner] = orders
		for _, o := range orders {
			commands[o.UnitID] = o.Command
			m.Stats.Expanded += o.Plan.Expanded
		}
	}

	// Actions are chosen on the state the players saw.
	actions := make([]sim.Action, len(w.Units))
	for i, u := range w.Units {
		actions[i] = m.action(u, commands[u.ID])
	}

	for i := range w.Units {
		u := &w.Units[i]
		u.Damage(entity.UpkeepCost)
		sim.ApplyAction(u, actions[i])
	}

	cells := sim.Environment{Units: w.Units, Hazards: w.Hazards, Pickups: w.Pickups}
	touchedPickups := map[int]bool{}
	touchedHazards := map[int]bool{}
	for i := range w.Units {
		u := &w.Units[i]
		from := u.Coord
		sim.Move(u, cells)
		for _, f := range sweep(from, u.Heading, u.Coord) {
			for _, p := range w.Pickups {
				if f.Contains(p.Coord) && !touchedPickups[p.ID] {
					touchedPickups[p.ID] = true
					report.event(u.ID, "pickup", fmt.Sprintf("unit %d took %d at %v", u.ID, p.Quantity, p.Coord))
				}
			}
			for _, h := range w.Hazards {
				if f.Contains(h.Coord) && !touchedHazards[h.ID] {
					touchedHazards[h.ID] = true
					report.event(u.ID, "hazard", fmt.Sprintf("unit %d hit a hazard at %v", u.ID, h.Coord))
				}
			}
		}
	}

	fleet := sim.Environment{Units: w.Units}
	for i := range w.Units {
		sim.Rotate(&w.Units[i], fleet)
	}

	w.Pickups = slices.DeleteFunc(w.Pickups, func(p entity.Pickup) bool { return touchedPickups[p.ID] })
	w.Hazards = slices.DeleteFunc(w.Hazards, func(h entity.Hazard) bool { return touchedHazards[h.ID] })
	m.Stats.PickupsTaken += len(touchedPickups)
	m.Stats.HazardsHit += len(touchedHazards)

	m.landProjectiles(&report)

	for i, u := range w.Units {
		if actions[i] != sim.Special {
			continue
		}
		cell := u.Footprint().Stern().Neighbor(hex.Opposite(u.Heading))
		if w.Free(cell) {
			w.AddHazard(cell)
			m.Stats.HazardsLaid++
		}
	}

	for _, u := range w.Units {
		if u.Destroyed() {
			report.event(u.ID, "lost", fmt.Sprintf("unit %d of owner %d sank at %v", u.ID, u.OwnerID, u.Coord))
			m.Stats.UnitsLost++
		}
	}
	w.Units = slices.DeleteFunc(w.Units, entity.Unit.Destroyed)

	for _, e := range report.Events {
		slog.Debug("match event", "turn", e.Turn, "category", e.Category, "description", e.Description)
	}
	return report
}

// action maps a command onto a simulator action. MOVE is flown by the
// autopilot; a unit without a command holds.
func (m *Match) action(u entity.Unit, cmd protocol.Command) sim.Action {
	if !cmd.Navigate {
		return cmd.Action
	}
	w := m.World
	env := sim.Environment{Units: w.Units, Hazards: w.Hazards, Pickups: w.Pickups, Projectiles: w.Projectiles}
	if a, ok := m.Autopilot.BestPath(u, cmd.Target, env).First(); ok {
		return a
	}
	return sim.Hold
}

// landProjectiles damages every unit under a projectile landing this turn
// and counts the others down.
func (m *Match) landProjectiles(report *TurnReport) {
	w := m.World
	kept := w.Projectiles[:0]
	for _, p := range w.Projectiles {
		if p.Remaining > 1 {
			kept = append(kept, entity.NewProjectile(p.ID, p.Coord, p.Countdown-1, p.OwnerID))
			continue
		}
		if p.Remaining < 1 {
			continue
		}
		for i := range w.Units {
			u := &w.Units[i]
			if dmg := p.DamageTo(u.Footprint()); dmg > 0 {
				u.Damage(dmg)
				m.Stats.ProjectileHits++
				report.event(u.ID, "projectile", fmt.Sprintf("unit %d took %d from unit %d's shot at %v", u.ID, dmg, p.OwnerID, p.Coord))
			}
		}
	}
	w.Projectiles = kept
}

// Finished reports whether fewer than two sides remain afloat.
func (m *Match) Finished() bool {
	return len(m.World.Owners()) < 2
}

// Result scores the match as it stands: the last side afloat wins, otherwise
// the side with the greater total resource.
func (m *Match) Result() Result {
	w := m.World
	res := Result{Turns: w.Turn, Winner: Draw, Strength: make(map[int]int), Stats: m.Stats}

	owners := w.Owners()
	for _, owner := range owners {
		res.Strength[owner] = w.Strength(owner)
	}
	switch len(owners) {
	case 0:
		return res
	case 1:
		res.Winner = owners[0]
		return res
	}

	best := -1
	for _, owner := range owners {
		switch s := res.Strength[owner]; {
		case s > best:
			best = s
			res.Winner = owner
		case s == best:
			res.Winner = Draw
		}
	}
	return res
}

func (r *TurnReport) event(unitID int, category, desc string) {
	r.Events = append(r.Events, Event{Turn: r.Turn, UnitID: unitID, Description: desc, Category: category})
}

// sweep returns the footprints a unit held after each committed sub-step
// of a move from one centre to another along heading.
func sweep(from hex.Coord, heading int, to hex.Coord) []entity.Footprint {
	var out []entity.Footprint
	for c, step := from, 0; c != to && step < entity.MaxSpeed; step++ {
		c = c.Neighbor(heading)
		out = append(out, entity.FootprintAt(c, heading))
	}
	return out
}
