package entity

import (
	"fmt"

	"github.com/talgya/broadside/internal/hex"
)

// NoHeading marks a Staged value with no rotation pending.
const NoHeading = -1

// Staged is the intent recorded during one simulated turn: where the unit is
// about to move and which way it is about to face. It is empty between turns.
type Staged struct {
	Heading  int       `json:"heading" msgpack:"heading"`
	Coord    hex.Coord `json:"coord" msgpack:"coord"`
	HasCoord bool      `json:"has_coord" msgpack:"has_coord"`
}

// Cleared returns an empty staging record.
func Cleared() Staged {
	return Staged{Heading: NoHeading}
}

// Unit is a controllable vessel. It covers three cells: its centre, the bow
// (neighbour along Heading) and the stern (neighbour opposite Heading).
type Unit struct {
	Entity
	OwnerID  int    `json:"owner_id" msgpack:"owner_id"`
	Resource int    `json:"resource" msgpack:"resource"` // 0..MaxResource
	Speed    int    `json:"speed" msgpack:"speed"`       // 0..MaxSpeed
	Heading  int    `json:"heading" msgpack:"heading"`   // 0..5
	Pending  Staged `json:"pending" msgpack:"pending"`
}

// NewUnit builds a unit with nothing staged.
func NewUnit(id int, c hex.Coord, ownerID, resource, speed, heading int) Unit {
	if heading < 0 || heading >= hex.Directions {
		panic(fmt.Sprintf("entity: unit %d heading %d out of range", id, heading))
	}
	return Unit{
		Entity:   Entity{ID: id, Coord: c},
		OwnerID:  ownerID,
		Resource: resource,
		Speed:    speed,
		Heading:  heading,
		Pending:  Cleared(),
	}
}

// Footprint is the bow, centre and stern cells, in that order.
type Footprint [3]hex.Coord

// Bow returns the forward cell.
func (f Footprint) Bow() hex.Coord { return f[0] }

// Center returns the middle cell.
func (f Footprint) Center() hex.Coord { return f[1] }

// Stern returns the rear cell.
func (f Footprint) Stern() hex.Coord { return f[2] }

// Contains reports whether c is one of the three cells.
func (f Footprint) Contains(c hex.Coord) bool {
	return f[0] == c || f[1] == c || f[2] == c
}

// Intersects reports whether the two footprints share a cell.
func (f Footprint) Intersects(o Footprint) bool {
	for _, c := range f {
		if o.Contains(c) {
			return true
		}
	}
	return false
}

// FootprintAt returns the cells a unit centred on c and facing heading covers.
func FootprintAt(c hex.Coord, heading int) Footprint {
	return Footprint{c.Neighbor(heading), c, c.Neighbor(hex.Opposite(heading))}
}

// Footprint returns the cells the unit occupies now.
func (u Unit) Footprint() Footprint {
	return FootprintAt(u.Coord, u.Heading)
}

// StagedFootprint returns the cells the unit would occupy after its staged
// move and rotation; unstaged parts fall back to the current values.
func (u Unit) StagedFootprint() Footprint {
	c := u.Coord
	if u.Pending.HasCoord {
		c = u.Pending.Coord
	}
	h := u.Heading
	if u.Pending.Heading != NoHeading {
		h = u.Pending.Heading
	}
	return FootprintAt(c, h)
}

// Covers reports whether the unit occupies c.
func (u Unit) Covers(c hex.Coord) bool {
	return u.Footprint().Contains(c)
}

// Overlaps reports whether two different units share a cell. A unit never
// overlaps itself.
func (u Unit) Overlaps(o Unit) bool {
	return u.ID != o.ID && u.Footprint().Intersects(o.Footprint())
}

// Blocks reports whether f, a prospective footprint of unit other, hits the
// current footprint of u.
func (u Unit) Blocks(other int, f Footprint) bool {
	return u.ID != other && f.Intersects(u.Footprint())
}

// Heal adds resource, capped at MaxResource.
func (u *Unit) Heal(n int) {
	u.Resource = clamp(u.Resource+n, 0, MaxResource)
}

// Damage removes resource, floored at zero.
func (u *Unit) Damage(n int) {
	u.Resource = clamp(u.Resource-n, 0, MaxResource)
}

// Destroyed reports whether the unit has run out of resource.
func (u Unit) Destroyed() bool {
	return u.Resource <= 0
}

// Signature is the search deduplication key of a unit state.
type Signature struct {
	ID      int
	Coord   hex.Coord
	Speed   int
	Heading int
}

// Signature returns the deduplication key for the unit's current state.
func (u Unit) Signature() Signature {
	return Signature{ID: u.ID, Coord: u.Coord, Speed: u.Speed, Heading: u.Heading}
}

func (u Unit) String() string {
	return fmt.Sprintf("Unit{id=%d owner=%d at=%v heading=%d speed=%d resource=%d}",
		u.ID, u.OwnerID, u.Coord, u.Heading, u.Speed, u.Resource)
}
