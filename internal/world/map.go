// Package world holds the full arena state advanced by the referee and the
// seeded generator that creates it.
package world

import (
	"fmt"
	"slices"

	"github.com/talgya/broadside/internal/entity"
	"github.com/talgya/broadside/internal/hex"
	"github.com/talgya/broadside/internal/protocol"
)

// World is the authoritative game state of a local match.
type World struct {
	Turn        int                 `msgpack:"turn"`
	Units       []entity.Unit       `msgpack:"units"`
	Pickups     []entity.Pickup     `msgpack:"pickups"`
	Hazards     []entity.Hazard     `msgpack:"hazards"`
	Projectiles []entity.Projectile `msgpack:"projectiles"` // Countdown as the feed would report it

	nextID int
}

// NewWorld returns an empty world.
func NewWorld() *World {
	return &World{}
}

// NextID allocates a fresh entity id.
func (w *World) NextID() int {
	id := w.nextID
	w.nextID++
	return id
}

// AddUnit places a unit, reserving its id.
func (w *World) AddUnit(u entity.Unit) {
	w.Units = append(w.Units, u)
	w.reserve(u.ID)
}

// AddPickup places a pickup with a fresh id.
func (w *World) AddPickup(c hex.Coord, quantity int) {
	w.Pickups = append(w.Pickups, entity.Pickup{Entity: entity.Entity{ID: w.NextID(), Coord: c}, Quantity: quantity})
}

// AddHazard places a hazard with a fresh id.
func (w *World) AddHazard(c hex.Coord) {
	w.Hazards = append(w.Hazards, entity.Hazard{Entity: entity.Entity{ID: w.NextID(), Coord: c}})
}

// AddProjectile places a projectile landing in countdown turns.
func (w *World) AddProjectile(c hex.Coord, countdown, ownerID int) {
	w.Projectiles = append(w.Projectiles, entity.NewProjectile(w.NextID(), c, countdown, ownerID))
}

func (w *World) reserve(id int) {
	if id >= w.nextID {
		w.nextID = id + 1
	}
}

// Owners returns the distinct owners with units still afloat, ascending.
func (w *World) Owners() []int {
	var owners []int
	for _, u := range w.Units {
		if !slices.Contains(owners, u.OwnerID) {
			owners = append(owners, u.OwnerID)
		}
	}
	slices.Sort(owners)
	return owners
}

// Fleet returns the units of one owner.
func (w *World) Fleet(owner int) []entity.Unit {
	var out []entity.Unit
	for _, u := range w.Units {
		if u.OwnerID == owner {
			out = append(out, u)
		}
	}
	return out
}

// Strength sums the resource of an owner's units.
func (w *World) Strength(owner int) int {
	total := 0
	for _, u := range w.Fleet(owner) {
		total += u.Resource
	}
	return total
}

// Free reports whether c is on the map and clear of units, pickups and
// hazards.
func (w *World) Free(c hex.Coord) bool {
	if !c.InsideMap() {
		return false
	}
	for _, u := range w.Units {
		if u.Covers(c) {
			return false
		}
	}
	for _, p := range w.Pickups {
		if p.Coord == c {
			return false
		}
	}
	for _, h := range w.Hazards {
		if h.Coord == c {
			return false
		}
	}
	return true
}

// Snapshot renders the world as the feed would show it to owner. Slices are
// copies; the caller may keep them across turns.
func (w *World) Snapshot(owner int) protocol.Turn {
	t := protocol.Turn{
		Pickups:     slices.Clone(w.Pickups),
		Hazards:     slices.Clone(w.Hazards),
		Projectiles: slices.Clone(w.Projectiles),
	}
	for _, u := range w.Units {
		if u.OwnerID == owner {
			t.Controlled = append(t.Controlled, u)
		} else {
			t.Hostile = append(t.Hostile, u)
		}
	}
	t.ControlledCount = len(t.Controlled)
	return t
}

// String returns a summary of the world.
func (w *World) String() string {
	return fmt.Sprintf("World(turn=%d, units=%d, pickups=%d, hazards=%d, projectiles=%d)",
		w.Turn, len(w.Units), len(w.Pickups), len(w.Hazards), len(w.Projectiles))
}
