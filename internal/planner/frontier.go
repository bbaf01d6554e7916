package planner

import (
	"github.com/talgya/broadside/internal/entity"
	"github.com/talgya/broadside/internal/sim"
)

// node is one simulated state in the search tree.
type node struct {
	unit     entity.Unit
	gain     int // resource now minus resource at the root
	priority int
	turns    int
	action   sim.Action // action that produced this node; unused at the root
	parent   *node
	seq      int
}

// frontier is a max-heap on priority. Ties go to fewer elapsed turns, then to
// the earlier action in sim.Actions, then to insertion order.
type frontier []*node

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	a, b := f[i], f[j]
	if a.priority != b.priority {
		return a.priority > b.priority
	}
	if a.turns != b.turns {
		return a.turns < b.turns
	}
	if a.action != b.action {
		return a.action < b.action
	}
	return a.seq < b.seq
}

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) {
	*f = append(*f, x.(*node))
}

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*f = old[:n-1]
	return item
}

// gainTable records the best gain seen per state signature.
type gainTable map[entity.Signature]int

// relax stores gain for sig if it beats the recorded value and reports
// whether it did. Recorded values never decrease.
func (g gainTable) relax(sig entity.Signature, gain int) bool {
	if best, ok := g[sig]; ok && gain <= best {
		return false
	}
	g[sig] = gain
	return true
}
