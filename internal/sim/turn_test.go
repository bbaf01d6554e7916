package sim

import (
	"reflect"
	"testing"

	"github.com/talgya/broadside/internal/entity"
	"github.com/talgya/broadside/internal/hex"
)

func at(col, row int) hex.Coord { return hex.Coord{Col: col, Row: row} }

func TestApplyActionSpeed(t *testing.T) {
	tests := []struct {
		name      string
		speed     int
		action    Action
		wantSpeed int
	}{
		{"accelerate from 1", 1, Accelerate, 2},
		{"accelerate at cap", 2, Accelerate, 2},
		{"decelerate from 2", 2, Decelerate, 1},
		{"decelerate at floor", 0, Decelerate, 0},
		{"hold", 1, Hold, 1},
		{"special", 2, Special, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := entity.NewUnit(0, at(11, 10), 0, 50, tt.speed, 0)
			ApplyAction(&u, tt.action)
			if u.Speed != tt.wantSpeed {
				t.Errorf("speed = %d, want %d", u.Speed, tt.wantSpeed)
			}
			if u.Coord != at(11, 10) {
				t.Errorf("ApplyAction moved the unit to %v", u.Coord)
			}
			if u.Pending.Heading != entity.NoHeading {
				t.Errorf("unexpected staged heading %d", u.Pending.Heading)
			}
		})
	}
}

func TestActionValid(t *testing.T) {
	for _, a := range Actions {
		if !a.Valid() {
			t.Errorf("%v should be valid", a)
		}
	}
	if Action(len(Actions)).Valid() {
		t.Error("action past Special should be invalid")
	}
}

func TestApplyActionPanicsOnUnknown(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	u := entity.NewUnit(0, at(1, 1), 0, 50, 0, 0)
	ApplyAction(&u, Action(42))
}

func TestAccelerateThenMove(t *testing.T) {
	u := entity.NewUnit(0, at(11, 10), 0, 50, 1, 0)
	env := Environment{Units: []entity.Unit{u}}

	ApplyAction(&u, Accelerate)
	if u.Speed != 2 {
		t.Fatalf("speed = %d, want 2", u.Speed)
	}
	Move(&u, env)
	want := entity.NewUnit(0, at(13, 10), 0, 50, 2, 0)
	if !reflect.DeepEqual(u, want) {
		t.Fatalf("after move got %v, want %v", u, want)
	}
	Rotate(&u, env)
	if !reflect.DeepEqual(u, want) {
		t.Fatalf("rotate without a turn changed the unit: %v", u)
	}
}

func TestDecelerateThenMove(t *testing.T) {
	u := entity.NewUnit(0, at(11, 10), 0, 50, 2, 0)
	ApplyAction(&u, Decelerate)
	Move(&u, Environment{})
	Rotate(&u, Environment{})
	want := entity.NewUnit(0, at(12, 10), 0, 50, 1, 0)
	if !reflect.DeepEqual(u, want) {
		t.Fatalf("got %v, want %v", u, want)
	}
}

func TestTurns(t *testing.T) {
	tests := []struct {
		action      Action
		wantHeading int
	}{
		{TurnLeft, 1},
		{TurnRight, 5},
	}
	for _, tt := range tests {
		t.Run(tt.action.String(), func(t *testing.T) {
			u := entity.NewUnit(0, at(11, 10), 0, 50, 2, 0)
			ApplyAction(&u, tt.action)
			if u.Heading != 0 {
				t.Fatalf("heading changed before rotation: %d", u.Heading)
			}
			Move(&u, Environment{})
			Rotate(&u, Environment{})
			want := entity.NewUnit(0, at(13, 10), 0, 50, 2, tt.wantHeading)
			if !reflect.DeepEqual(u, want) {
				t.Fatalf("got %v, want %v", u, want)
			}
		})
	}
}

func TestMoveStopsAtMapEdge(t *testing.T) {
	u := entity.NewUnit(0, at(21, 5), 0, 50, 2, 0)
	Move(&u, Environment{})
	if u.Coord != at(22, 5) {
		t.Errorf("coord = %v, want (22,5)", u.Coord)
	}
	if u.Speed != 0 {
		t.Errorf("speed = %d, want 0 after hitting the edge", u.Speed)
	}
	if !u.Coord.InsideMap() {
		t.Errorf("unit left the map: %v", u.Coord)
	}
}

func TestMoveBlockedByUnit(t *testing.T) {
	other := entity.NewUnit(1, at(8, 10), 1, 50, 0, 0)

	u := entity.NewUnit(0, at(5, 10), 0, 50, 1, 0)
	Move(&u, Environment{Units: []entity.Unit{u, other}})
	if u.Coord != at(5, 10) || u.Speed != 0 {
		t.Errorf("blocked first step: got %v", u)
	}

	u = entity.NewUnit(0, at(4, 10), 0, 50, 2, 0)
	Move(&u, Environment{Units: []entity.Unit{other}})
	if u.Coord != at(5, 10) || u.Speed != 0 {
		t.Errorf("blocked second step: got %v", u)
	}
}

func TestMoveIgnoresSelfInUnitList(t *testing.T) {
	u := entity.NewUnit(0, at(5, 10), 0, 50, 1, 0)
	Move(&u, Environment{Units: []entity.Unit{u}})
	if u.Coord != at(6, 10) || u.Speed != 1 {
		t.Errorf("unit collided with itself: %v", u)
	}
}

func TestHazardDamageEverySubStep(t *testing.T) {
	hazard := entity.Hazard{Entity: entity.Entity{ID: 7, Coord: at(6, 10)}}

	u := entity.NewUnit(0, at(4, 10), 0, 60, 2, 0)
	Move(&u, Environment{Hazards: []entity.Hazard{hazard}})
	if u.Resource != 10 {
		t.Errorf("resource = %d, want 10 (hit on both sub-steps)", u.Resource)
	}

	u = entity.NewUnit(0, at(4, 10), 0, 30, 2, 0)
	Move(&u, Environment{Hazards: []entity.Hazard{hazard}})
	if u.Resource != 0 {
		t.Errorf("resource = %d, want 0", u.Resource)
	}
}

func TestPickupHealCapped(t *testing.T) {
	pickup := entity.Pickup{Entity: entity.Entity{ID: 3, Coord: at(7, 10)}, Quantity: 30}
	u := entity.NewUnit(0, at(5, 10), 0, 90, 1, 0)
	Move(&u, Environment{Pickups: []entity.Pickup{pickup}})
	if u.Resource != entity.MaxResource {
		t.Errorf("resource = %d, want %d", u.Resource, entity.MaxResource)
	}
}

func TestProjectileDamage(t *testing.T) {
	tests := []struct {
		name      string
		cell      hex.Coord
		remaining int
		action    Action
		want      int
	}{
		{"centre hit", at(5, 10), 1, TurnLeft, 50},
		{"bow hit", at(5, 9), 1, TurnLeft, 75},
		{"stern hit", at(4, 11), 1, TurnLeft, 75},
		{"not landing yet", at(5, 10), 2, TurnLeft, 100},
		{"no turn staged", at(5, 10), 1, Hold, 100},
		{"miss", at(9, 9), 1, TurnLeft, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := entity.Projectile{Entity: entity.Entity{ID: 9, Coord: tt.cell}, Countdown: tt.remaining + 1, Remaining: tt.remaining, OwnerID: 1}
			u := entity.NewUnit(0, at(5, 10), 0, 100, 0, 0)
			Resolve(&u, tt.action, Environment{Projectiles: []entity.Projectile{p}})
			if u.Resource != tt.want {
				t.Errorf("resource = %d, want %d", u.Resource, tt.want)
			}
		})
	}
}

func TestRotationBlocked(t *testing.T) {
	// Clear of the translated hull, but in the way of the rotated one.
	other := entity.NewUnit(1, at(6, 12), 1, 50, 0, 1)

	u := entity.NewUnit(0, at(5, 10), 0, 50, 1, 0)
	env := Environment{Units: []entity.Unit{other}}
	ApplyAction(&u, TurnRight)
	Move(&u, env)
	if u.Coord != at(6, 10) || u.Speed != 1 {
		t.Fatalf("translation should succeed: %v", u)
	}
	Rotate(&u, env)
	if u.Heading != 0 {
		t.Errorf("heading = %d, want rotation cancelled", u.Heading)
	}
	if u.Speed != 0 {
		t.Errorf("speed = %d, want 0 after cancelled rotation", u.Speed)
	}
	if u.Pending.Heading != entity.NoHeading {
		t.Errorf("staged heading not cleared: %d", u.Pending.Heading)
	}
}

func TestSimulatorLeavesEnvironmentAlone(t *testing.T) {
	env := Environment{
		Units:       []entity.Unit{entity.NewUnit(1, at(8, 10), 1, 50, 1, 3)},
		Hazards:     []entity.Hazard{{Entity: entity.Entity{ID: 2, Coord: at(6, 10)}}},
		Pickups:     []entity.Pickup{{Entity: entity.Entity{ID: 3, Coord: at(6, 9)}, Quantity: 20}},
		Projectiles: []entity.Projectile{entity.NewProjectile(4, at(6, 10), 2, 1)},
	}
	before := Environment{
		Units:       append([]entity.Unit(nil), env.Units...),
		Hazards:     append([]entity.Hazard(nil), env.Hazards...),
		Pickups:     append([]entity.Pickup(nil), env.Pickups...),
		Projectiles: append([]entity.Projectile(nil), env.Projectiles...),
	}

	u := entity.NewUnit(0, at(4, 10), 0, 80, 2, 0)
	Resolve(&u, TurnLeft, env)
	if !reflect.DeepEqual(env, before) {
		t.Error("simulator mutated its environment")
	}
}

func TestResolveDeterministic(t *testing.T) {
	env := Environment{
		Units:   []entity.Unit{entity.NewUnit(1, at(9, 9), 1, 50, 1, 3)},
		Hazards: []entity.Hazard{{Entity: entity.Entity{ID: 2, Coord: at(7, 10)}}},
	}
	for _, a := range Actions {
		first := entity.NewUnit(0, at(5, 10), 0, 70, 1, 0)
		second := first
		Resolve(&first, a, env)
		Resolve(&second, a, env)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("%v: %v != %v", a, first, second)
		}
	}
}
