// Package sim resolves one game turn for a single unit: speed and heading
// changes, up to two translation sub-steps, rotation, collisions and damage.
// It only ever mutates the unit it is handed.
package sim

import (
	"fmt"

	"github.com/talgya/broadside/internal/entity"
	"github.com/talgya/broadside/internal/hex"
)

// Action is one of the commands a unit can take in a turn.
type Action uint8

// Order matters: the planner expands actions in this order and breaks
// priority ties by it.
const (
	Hold       Action = iota // keep course and speed
	Accelerate               // speed +1, capped at MaxSpeed
	Decelerate               // speed -1, floored at 0
	TurnLeft                 // heading +1 after translation
	TurnRight                // heading -1 after translation
	Special                  // no kinematic effect
)

// Actions lists every action in expansion order.
var Actions = [...]Action{Hold, Accelerate, Decelerate, TurnLeft, TurnRight, Special}

var actionNames = [...]string{"HOLD", "ACCELERATE", "DECELERATE", "TURN_LEFT", "TURN_RIGHT", "SPECIAL"}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("Action(%d)", a)
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	return int(a) < len(actionNames)
}

// ApplyAction records the action's effect on u. Speed changes immediately;
// turns are staged for Rotate. The unit does not move.
func ApplyAction(u *entity.Unit, a Action) {
	if !a.Valid() {
		panic(fmt.Sprintf("sim: unknown action %d", a))
	}
	switch a {
	case Accelerate:
		u.Speed = min(entity.MaxSpeed, u.Speed+1)
	case Decelerate:
		u.Speed = max(0, u.Speed-1)
	case TurnLeft:
		u.Pending.Heading = (u.Heading + 1) % hex.Directions
	case TurnRight:
		u.Pending.Heading = (u.Heading + hex.Directions - 1) % hex.Directions
	}
}
