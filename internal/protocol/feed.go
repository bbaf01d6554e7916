// Package protocol reads the per-turn entity feed and writes unit commands.
//
// A turn is "myUnitCount entityCount" followed by entityCount records of
// "id KIND col row arg1 arg2 arg3 arg4", all whitespace separated.
package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/talgya/broadside/internal/entity"
	"github.com/talgya/broadside/internal/hex"
	"github.com/talgya/broadside/internal/sim"
)

// ErrMalformed is returned, wrapped with position details, for feed input
// that cannot be parsed.
var ErrMalformed = errors.New("malformed feed")

// ControlledOwner is the owner value the feed uses for our own units.
const ControlledOwner = 1

// Feed record kinds.
const (
	KindShip       = "SHIP"
	KindBarrel     = "BARREL"
	KindMine       = "MINE"
	KindCannonball = "CANNONBALL"
)

// Turn is one parsed snapshot of the game.
type Turn struct {
	ControlledCount int                 `msgpack:"controlled_count"`
	Controlled      []entity.Unit       `msgpack:"controlled"`
	Hostile         []entity.Unit       `msgpack:"hostile"`
	Pickups         []entity.Pickup     `msgpack:"pickups"`
	Hazards         []entity.Hazard     `msgpack:"hazards"`
	Projectiles     []entity.Projectile `msgpack:"projectiles"`
}

// Units returns controlled and hostile units together, controlled first.
func (t Turn) Units() []entity.Unit {
	all := make([]entity.Unit, 0, len(t.Controlled)+len(t.Hostile))
	all = append(all, t.Controlled...)
	return append(all, t.Hostile...)
}

// Environment returns the simulator view of the turn.
func (t Turn) Environment() sim.Environment {
	return sim.Environment{
		Units:       t.Units(),
		Hazards:     t.Hazards,
		Pickups:     t.Pickups,
		Projectiles: t.Projectiles,
	}
}

// Reader parses turns from a stream.
type Reader struct {
	sc    *bufio.Scanner
	token int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	return &Reader{sc: sc}
}

// ReadTurn parses the next turn. It returns io.EOF when the stream ends
// cleanly between turns.
func (r *Reader) ReadTurn() (Turn, error) {
	var t Turn

	controlled, err := r.first()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return t, io.EOF
		}
		return t, err
	}
	count, err := r.mustInt("entity count")
	if err != nil {
		return t, err
	}
	if controlled < 0 || count < 0 {
		return t, fmt.Errorf("%w: negative counts %d %d", ErrMalformed, controlled, count)
	}
	t.ControlledCount = controlled

	for i := 0; i < count; i++ {
		if err := r.readEntity(&t); err != nil {
			return t, fmt.Errorf("entity %d of %d: %w", i+1, count, err)
		}
	}
	return t, nil
}

func (r *Reader) readEntity(t *Turn) error {
	id, err := r.mustInt("id")
	if err != nil {
		return err
	}
	kind, err := r.word("kind")
	if err != nil {
		return err
	}
	var v [6]int
	names := [6]string{"col", "row", "arg1", "arg2", "arg3", "arg4"}
	for i := range v {
		if v[i], err = r.mustInt(names[i]); err != nil {
			return err
		}
	}
	c := hex.Coord{Col: v[0], Row: v[1]}

	switch kind {
	case KindShip:
		heading, speed, resource, owner := v[2], v[3], v[4], v[5]
		if heading < 0 || heading >= hex.Directions {
			return fmt.Errorf("%w: ship %d heading %d", ErrMalformed, id, heading)
		}
		u := entity.NewUnit(id, c, owner, resource, speed, heading)
		if owner == ControlledOwner {
			t.Controlled = append(t.Controlled, u)
		} else {
			t.Hostile = append(t.Hostile, u)
		}
	case KindBarrel:
		t.Pickups = append(t.Pickups, entity.Pickup{Entity: entity.Entity{ID: id, Coord: c}, Quantity: v[2]})
	case KindMine:
		t.Hazards = append(t.Hazards, entity.Hazard{Entity: entity.Entity{ID: id, Coord: c}})
	case KindCannonball:
		t.Projectiles = append(t.Projectiles, entity.NewProjectile(id, c, v[3], v[2]))
	default:
		slog.Debug("skipping unknown entity kind", "id", id, "kind", kind)
	}
	return nil
}

func (r *Reader) word(what string) (string, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", fmt.Errorf("read %s: %w", what, err)
		}
		return "", fmt.Errorf("read %s: %w", what, io.ErrUnexpectedEOF)
	}
	r.token++
	return r.sc.Text(), nil
}

// first reads the first token of a turn, passing io.EOF through untouched.
func (r *Reader) first() (int, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return 0, err
		}
		return 0, io.EOF
	}
	r.token++
	return r.parse("unit count", r.sc.Text())
}

func (r *Reader) mustInt(what string) (int, error) {
	s, err := r.word(what)
	if err != nil {
		return 0, err
	}
	return r.parse(what, s)
}

func (r *Reader) parse(what, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: token %d (%s) %q is not an integer", ErrMalformed, r.token, what, s)
	}
	return n, nil
}
