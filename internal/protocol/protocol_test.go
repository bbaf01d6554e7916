package protocol

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/talgya/broadside/internal/hex"
	"github.com/talgya/broadside/internal/sim"
)

const sampleFeed = `2
7
0 SHIP 22 18 2 1 75 1
1 SHIP 21 16 0 1 11 0
2 SHIP 4 4 3 0 90 1
58 CANNONBALL 20 19 1 1 0 0
39 MINE 20 15 0 0 0 0
12 BARREL 10 10 17 0 0 0
77 KRAKEN 1 1 0 0 0 0
1
2
0 SHIP 3 3 0 2 40 1
1 SHIP 9 9 4 0 60 0
`

func TestReadTurn(t *testing.T) {
	r := NewReader(strings.NewReader(sampleFeed))

	turn, err := r.ReadTurn()
	if err != nil {
		t.Fatalf("ReadTurn: %v", err)
	}
	if turn.ControlledCount != 2 {
		t.Errorf("controlled count = %d, want 2", turn.ControlledCount)
	}
	if len(turn.Controlled) != 2 || len(turn.Hostile) != 1 {
		t.Fatalf("units = %d controlled / %d hostile, want 2/1", len(turn.Controlled), len(turn.Hostile))
	}
	u := turn.Controlled[0]
	if u.ID != 0 || u.Coord != (hex.Coord{Col: 22, Row: 18}) || u.Heading != 2 || u.Speed != 1 || u.Resource != 75 || u.OwnerID != 1 {
		t.Errorf("unexpected ship: %v", u)
	}
	if len(turn.Projectiles) != 1 {
		t.Fatalf("projectiles = %d, want 1", len(turn.Projectiles))
	}
	p := turn.Projectiles[0]
	if p.OwnerID != 1 || p.Countdown != 1 || p.Coord != (hex.Coord{Col: 20, Row: 19}) {
		t.Errorf("unexpected projectile: %+v", p)
	}
	if len(turn.Hazards) != 1 || turn.Hazards[0].ID != 39 {
		t.Errorf("hazards = %+v", turn.Hazards)
	}
	if len(turn.Pickups) != 1 || turn.Pickups[0].Quantity != 17 {
		t.Errorf("pickups = %+v", turn.Pickups)
	}
	if got := len(turn.Environment().Units); got != 3 {
		t.Errorf("environment has %d units, want 3", got)
	}

	turn, err = r.ReadTurn()
	if err != nil {
		t.Fatalf("second ReadTurn: %v", err)
	}
	if len(turn.Controlled) != 1 || turn.Controlled[0].Speed != 2 {
		t.Errorf("second turn controlled = %v", turn.Controlled)
	}

	if _, err := r.ReadTurn(); !errors.Is(err, io.EOF) {
		t.Errorf("third ReadTurn err = %v, want io.EOF", err)
	}
}

func TestReadTurnErrors(t *testing.T) {
	tests := []struct {
		name string
		feed string
		want error
	}{
		{"not a number", "1 x", ErrMalformed},
		{"bad column", "1 1\n0 SHIP a 1 0 0 50 1", ErrMalformed},
		{"bad heading", "1 1\n0 SHIP 1 1 7 0 50 1", ErrMalformed},
		{"truncated record", "1 1\n0 SHIP 1 1", io.ErrUnexpectedEOF},
		{"negative count", "1 -2", ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(strings.NewReader(tt.feed)).ReadTurn()
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCommandStrings(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{ActionCommand(sim.Hold), "WAIT"},
		{ActionCommand(sim.Accelerate), "FASTER"},
		{ActionCommand(sim.Decelerate), "SLOWER"},
		{ActionCommand(sim.TurnLeft), "PORT"},
		{ActionCommand(sim.TurnRight), "STARBOARD"},
		{ActionCommand(sim.Special), "MINE"},
		{MoveCommand(hex.Center), "MOVE 11 10"},
	}
	for _, tt := range tests {
		if got := tt.cmd.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
		back, err := ParseCommand(tt.want)
		if err != nil {
			t.Errorf("ParseCommand(%q): %v", tt.want, err)
			continue
		}
		if back != tt.cmd {
			t.Errorf("ParseCommand(%q) = %+v, want %+v", tt.want, back, tt.cmd)
		}
	}

	for _, bad := range []string{"", "FIRE", "MOVE 1", "MOVE a b", "WAIT now"} {
		if _, err := ParseCommand(bad); !errors.Is(err, ErrMalformed) {
			t.Errorf("ParseCommand(%q) err = %v, want ErrMalformed", bad, err)
		}
	}
}

func TestWriteCommands(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCommands(&buf, []Command{ActionCommand(sim.Accelerate), MoveCommand(hex.Coord{Col: 3, Row: 4})})
	if err != nil {
		t.Fatalf("WriteCommands: %v", err)
	}
	if got, want := buf.String(), "FASTER\nMOVE 3 4\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}
