// Package decision turns a parsed turn into one command per controlled unit.
// Each unit heads for the pickup with the best planned gain; when no pickup
// pays off it explores a ring of cells around itself.
package decision

import (
	"log/slog"
	"math"

	"github.com/talgya/broadside/internal/entity"
	"github.com/talgya/broadside/internal/hex"
	"github.com/talgya/broadside/internal/planner"
	"github.com/talgya/broadside/internal/protocol"
	"github.com/talgya/broadside/internal/sim"
)

// DefaultExploreRadius is the ring radius used when no pickup is worth it.
const DefaultExploreRadius = 3

// Order is the decision taken for one unit.
type Order struct {
	UnitID  int
	Target  hex.Coord
	Explore bool // target came from the exploration ring
	Plan    planner.Plan
	Command protocol.Command
}

// Captain decides for every controlled unit of a turn.
type Captain struct {
	Planner       planner.Planner
	ExploreRadius int
}

// NewCaptain returns a Captain searching under limits.
func NewCaptain(limits planner.Limits, exploreRadius int) *Captain {
	if exploreRadius <= 0 {
		exploreRadius = DefaultExploreRadius
	}
	return &Captain{Planner: planner.Planner{Limits: limits}, ExploreRadius: exploreRadius}
}

// Decide returns one order per controlled unit, in feed order.
func (c *Captain) Decide(t protocol.Turn) []Order {
	env := t.Environment()
	orders := make([]Order, 0, len(t.Controlled))
	for _, u := range t.Controlled {
		orders = append(orders, c.DecideFor(u, env))
	}
	return orders
}

// DecideFor picks a target and plan for u. env.Units may contain u.
func (c *Captain) DecideFor(u entity.Unit, env sim.Environment) Order {
	order := Order{UnitID: u.ID}
	bestGain := math.MinInt

	for _, p := range env.Pickups {
		plan := c.Planner.BestPath(u, p.Coord, env)
		if plan.Gain > bestGain {
			bestGain = plan.Gain
			order.Target = p.Coord
			order.Plan = plan
		}
	}

	if bestGain < 0 || len(order.Plan.Actions) == 0 {
		order = c.explore(u, env)
	}

	if a, ok := order.Plan.First(); ok {
		order.Command = protocol.ActionCommand(a)
	} else {
		order.Target = hex.Center
		order.Command = protocol.MoveCommand(hex.Center)
	}

	slog.Debug("unit decision",
		"unit", u.ID,
		"target", order.Target,
		"explore", order.Explore,
		"gain", order.Plan.Gain,
		"steps", len(order.Plan.Actions),
		"command", order.Command.String(),
	)
	return order
}

// explore plans toward every in-bounds cell of the ring around u and keeps
// the reachable plan with the best gain.
func (c *Captain) explore(u entity.Unit, env sim.Environment) Order {
	order := Order{UnitID: u.ID, Explore: true}
	bestGain := math.MinInt
	for _, cell := range hex.Ring(u.Coord, c.ExploreRadius) {
		plan := c.Planner.BestPath(u, cell, env)
		if len(plan.Actions) == 0 {
			continue
		}
		if plan.Gain > bestGain {
			bestGain = plan.Gain
			order.Target = cell
			order.Plan = plan
		}
	}
	return order
}

// Commands extracts the wire commands from orders.
func Commands(orders []Order) []protocol.Command {
	cmds := make([]protocol.Command, len(orders))
	for i, o := range orders {
		cmds[i] = o.Command
	}
	return cmds
}
