package sim

import (
	"github.com/talgya/broadside/internal/entity"
	"github.com/talgya/broadside/internal/hex"
)

// Environment is the read-only world a unit is simulated against. The
// simulator never writes to these slices. Units may include the simulated
// unit itself; entries with the same id are ignored.
type Environment struct {
	Units       []entity.Unit
	Hazards     []entity.Hazard
	Pickups     []entity.Pickup
	Projectiles []entity.Projectile
}

// Move translates u along its heading, one cell per point of speed.
// Each sub-step is cancelled, and speed forced to 0, if it would leave the map
// or bring the unit's footprint onto another unit's current footprint.
// Pickups and hazards are resolved after every sub-step.
func Move(u *entity.Unit, env Environment) {
	for step := 1; step <= entity.MaxSpeed; step++ {
		if step > u.Speed {
			break
		}

		u.Pending.Coord = u.Coord
		u.Pending.HasCoord = true

		next := u.Coord.Neighbor(u.Heading)
		if next.InsideMap() {
			u.Pending.Coord = next
		} else {
			u.Speed = 0
		}

		if blocked(u.ID, entity.FootprintAt(u.Pending.Coord, u.Heading), env.Units) {
			u.Pending.Coord = u.Coord
			u.Speed = 0
		}

		u.Coord = u.Pending.Coord
		u.Pending.Coord, u.Pending.HasCoord = hex.Coord{}, false
		resolveCells(u, env)
	}
}

// Rotate applies a staged heading change. The turn is cancelled, and speed
// forced to 0, if the rotated footprint would hit another unit. Projectiles
// landing this turn are then resolved and the staged heading is cleared.
// Without a staged heading Rotate does nothing.
func Rotate(u *entity.Unit, env Environment) {
	if u.Pending.Heading == entity.NoHeading {
		return
	}

	if blocked(u.ID, u.StagedFootprint(), env.Units) {
		u.Pending.Heading = u.Heading
		u.Speed = 0
	}

	u.Heading = u.Pending.Heading
	resolveProjectiles(u, env.Projectiles)
	u.Pending.Heading = entity.NoHeading
}

// Resolve runs a full turn for u: action, translation, then rotation.
func Resolve(u *entity.Unit, a Action, env Environment) {
	ApplyAction(u, a)
	Move(u, env)
	Rotate(u, env)
}

func blocked(id int, f entity.Footprint, units []entity.Unit) bool {
	for _, o := range units {
		if o.Blocks(id, f) {
			return true
		}
	}
	return false
}

// resolveCells heals from every pickup and damages from every hazard under
// the current footprint.
func resolveCells(u *entity.Unit, env Environment) {
	f := u.Footprint()
	for _, p := range env.Pickups {
		if f.Contains(p.Coord) {
			u.Heal(p.Quantity)
		}
	}
	for _, h := range env.Hazards {
		if f.Contains(h.Coord) {
			u.Damage(entity.HazardDamage)
		}
	}
}

func resolveProjectiles(u *entity.Unit, projectiles []entity.Projectile) {
	f := u.Footprint()
	for _, p := range projectiles {
		if p.Remaining == 1 {
			u.Damage(p.DamageTo(f))
		}
	}
}
