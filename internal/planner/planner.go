// Package planner searches simulated futures of one unit for an action plan
// that reaches a target cell while keeping as much resource as possible.
//
// The search is best-first on (gain so far - distance to target). It is a
// greedy heuristic: plans are good, not guaranteed optimal.
package planner

import (
	"container/heap"
	"fmt"
	"log/slog"
	"slices"

	"github.com/talgya/broadside/internal/entity"
	"github.com/talgya/broadside/internal/hex"
	"github.com/talgya/broadside/internal/sim"
)

// Plan is the outcome of a search. An unreachable target yields the zero
// Plan: Gain 0, no actions, Reached false.
type Plan struct {
	Gain     int
	Actions  []sim.Action
	Reached  bool
	Expanded int // states popped from the frontier
}

// First returns the first action of the plan and whether there is one.
func (p Plan) First() (sim.Action, bool) {
	if len(p.Actions) == 0 {
		return sim.Hold, false
	}
	return p.Actions[0], true
}

// Limits bound the work of one search. Zero values mean unbounded.
type Limits struct {
	MaxExpansions int // stop after popping this many states
	MaxTurns      int // do not simulate beyond this many turns
}

// Planner runs searches under fixed limits.
type Planner struct {
	Limits Limits
}

// BestPath searches with no limits.
func BestPath(u entity.Unit, target hex.Coord, env sim.Environment) Plan {
	return Planner{}.BestPath(u, target, env)
}

// BestPath returns the plan that brings u's footprint onto target.
// env.Units holds the other units; an entry with u's id is ignored.
// Projectile countdowns in env are taken as read from the feed and advanced
// by the search depth.
func (p Planner) BestPath(u entity.Unit, target hex.Coord, env sim.Environment) Plan {
	if u.Destroyed() {
		panic(fmt.Sprintf("planner: unit %d is destroyed", u.ID))
	}

	gains := gainTable{u.Signature(): 0}
	root := &node{unit: u, priority: -u.Coord.Distance(target)}
	open := &frontier{root}
	seq := 1
	expanded := 0

	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		if cur.unit.Covers(target) {
			plan := reconstruct(cur)
			plan.Expanded = expanded
			return plan
		}
		if p.Limits.MaxExpansions > 0 && expanded >= p.Limits.MaxExpansions {
			slog.Debug("search budget exhausted", "unit", u.ID, "target", target, "expanded", expanded)
			break
		}
		expanded++
		if p.Limits.MaxTurns > 0 && cur.turns >= p.Limits.MaxTurns {
			continue
		}

		turnEnv := env
		turnEnv.Projectiles = projectilesAt(env.Projectiles, cur.turns)

		for _, a := range sim.Actions {
			next := cur.unit
			next.Damage(entity.UpkeepCost)
			sim.Resolve(&next, a, turnEnv)
			if next.Destroyed() {
				continue
			}

			gain := next.Resource - u.Resource
			if !gains.relax(next.Signature(), gain) {
				continue
			}
			heap.Push(open, &node{
				unit:     next,
				gain:     gain,
				priority: gain - next.Coord.Distance(target),
				turns:    cur.turns + 1,
				action:   a,
				parent:   cur,
				seq:      seq,
			})
			seq++
		}
	}

	return Plan{Expanded: expanded}
}

// projectilesAt returns copies of ps as seen by the turn starting after
// elapsed simulated turns.
func projectilesAt(ps []entity.Projectile, elapsed int) []entity.Projectile {
	if len(ps) == 0 {
		return nil
	}
	out := make([]entity.Projectile, len(ps))
	for i, pr := range ps {
		out[i] = pr.AtTurn(elapsed)
	}
	return out
}

func reconstruct(end *node) Plan {
	var actions []sim.Action
	for n := end; n.parent != nil; n = n.parent {
		actions = append(actions, n.action)
	}
	slices.Reverse(actions)
	return Plan{Gain: end.gain, Actions: actions, Reached: true}
}
