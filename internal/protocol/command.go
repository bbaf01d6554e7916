package protocol

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/talgya/broadside/internal/hex"
	"github.com/talgya/broadside/internal/sim"
)

// Command is one line of output for one controlled unit: either an action
// or a navigate order toward a cell.
type Command struct {
	Action   sim.Action
	Navigate bool
	Target   hex.Coord
}

var verbs = map[sim.Action]string{
	sim.Hold:       "WAIT",
	sim.Accelerate: "FASTER",
	sim.Decelerate: "SLOWER",
	sim.TurnLeft:   "PORT",
	sim.TurnRight:  "STARBOARD",
	sim.Special:    "MINE",
}

// ActionCommand wraps an action.
func ActionCommand(a sim.Action) Command {
	return Command{Action: a}
}

// MoveCommand orders navigation toward c.
func MoveCommand(c hex.Coord) Command {
	return Command{Navigate: true, Target: c}
}

// String renders the wire form of the command.
func (c Command) String() string {
	if c.Navigate {
		return fmt.Sprintf("MOVE %d %d", c.Target.Col, c.Target.Row)
	}
	v, ok := verbs[c.Action]
	if !ok {
		panic(fmt.Sprintf("protocol: no verb for action %v", c.Action))
	}
	return v
}

// ParseCommand reads the wire form back.
func ParseCommand(s string) (Command, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("%w: empty command", ErrMalformed)
	}
	if fields[0] == "MOVE" {
		if len(fields) != 3 {
			return Command{}, fmt.Errorf("%w: %q", ErrMalformed, s)
		}
		col, err1 := strconv.Atoi(fields[1])
		row, err2 := strconv.Atoi(fields[2])
		if err1 != nil || err2 != nil {
			return Command{}, fmt.Errorf("%w: %q", ErrMalformed, s)
		}
		return MoveCommand(hex.Coord{Col: col, Row: row}), nil
	}
	if len(fields) != 1 {
		return Command{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	for a, v := range verbs {
		if v == fields[0] {
			return ActionCommand(a), nil
		}
	}
	return Command{}, fmt.Errorf("%w: unknown verb %q", ErrMalformed, fields[0])
}

// WriteCommands writes one command per line and flushes.
func WriteCommands(w io.Writer, cmds []Command) error {
	bw := bufio.NewWriter(w)
	for _, c := range cmds {
		if _, err := bw.WriteString(c.String() + "\n"); err != nil {
			return fmt.Errorf("write command: %w", err)
		}
	}
	return bw.Flush()
}
