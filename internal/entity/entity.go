// Package entity provides the positioned game objects of one turn: pickups,
// hazards, timed projectiles and the controllable units.
// All entities are plain values rebuilt from the feed every turn.
package entity

import (
	"golang.org/x/exp/constraints"

	"github.com/talgya/broadside/internal/hex"
)

// Game constants.
const (
	MaxSpeed    = 2
	MaxResource = 100

	HazardDamage     = 25
	NearHazardDamage = 10 // reserved; no rule applies it

	ProjectileHighDamage = 50 // direct hit on the centre cell
	ProjectileLowDamage  = 25 // hit on bow or stern

	UpkeepCost = 1 // resource lost every turn
)

// Entity is anything with an id and a cell. Ids are unique within a kind
// for one turn.
type Entity struct {
	ID    int       `json:"id" msgpack:"id"`
	Coord hex.Coord `json:"coord" msgpack:"coord"`
}

// Equal reports whether two entities are the same snapshot: same id at the
// same cell.
func (e Entity) Equal(o Entity) bool {
	return e.ID == o.ID && e.Coord == o.Coord
}

// Pickup is a resource cache. Touching it heals a unit by Quantity.
type Pickup struct {
	Entity
	Quantity int `json:"quantity" msgpack:"quantity"`
}

// Hazard is a static mine dealing HazardDamage on footprint overlap.
type Hazard struct {
	Entity
}

// Projectile is a cannonball in flight.
type Projectile struct {
	Entity
	Countdown int `json:"countdown" msgpack:"countdown"` // turns before impact, as read from the feed
	Remaining int `json:"remaining" msgpack:"remaining"` // value seen by the turn being resolved; lands at 1
	OwnerID   int `json:"owner_id" msgpack:"owner_id"`
}

// NewProjectile builds a projectile as seen by the next turn to resolve.
func NewProjectile(id int, c hex.Coord, countdown, ownerID int) Projectile {
	p := Projectile{Entity: Entity{ID: id, Coord: c}, Countdown: countdown, OwnerID: ownerID}
	return p.AtTurn(0)
}

// AtTurn returns a copy whose Remaining is the countdown as seen while
// resolving the turn that starts elapsed turns after the feed snapshot.
func (p Projectile) AtTurn(elapsed int) Projectile {
	p.Remaining = p.Countdown - elapsed - 1
	return p
}

// DamageTo returns what the projectile deals to a footprint when it lands:
// high on the centre cell, low on bow or stern, nothing elsewhere.
func (p Projectile) DamageTo(f Footprint) int {
	switch p.Coord {
	case f.Bow(), f.Stern():
		return ProjectileLowDamage
	case f.Center():
		return ProjectileHighDamage
	}
	return 0
}

func clamp[T constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
