package persistence

import (
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/talgya/broadside/internal/decision"
	"github.com/talgya/broadside/internal/engine"
	"github.com/talgya/broadside/internal/entity"
	"github.com/talgya/broadside/internal/hex"
	"github.com/talgya/broadside/internal/planner"
	"github.com/talgya/broadside/internal/protocol"
	"github.com/talgya/broadside/internal/sim"
)

func openTemp(t *testing.T) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, path
}

func sampleTurn() protocol.Turn {
	return protocol.Turn{
		ControlledCount: 1,
		Controlled:      []entity.Unit{entity.NewUnit(0, hex.Coord{Col: 5, Row: 5}, 1, 80, 1, 2)},
		Hostile:         []entity.Unit{entity.NewUnit(1, hex.Coord{Col: 15, Row: 9}, 0, 64, 2, 4)},
		Pickups:         []entity.Pickup{{Entity: entity.Entity{ID: 2, Coord: hex.Coord{Col: 8, Row: 8}}, Quantity: 17}},
		Hazards:         []entity.Hazard{{Entity: entity.Entity{ID: 3, Coord: hex.Coord{Col: 12, Row: 3}}}},
		Projectiles:     []entity.Projectile{entity.NewProjectile(4, hex.Coord{Col: 6, Row: 5}, 3, 1)},
	}
}

func TestTurnRoundTrip(t *testing.T) {
	db, _ := openTemp(t)
	id, err := db.BeginMatch(SourceBot, 0)
	if err != nil {
		t.Fatal(err)
	}

	want := sampleTurn()
	if err := db.SaveTurn(id, 1, want); err != nil {
		t.Fatalf("SaveTurn: %v", err)
	}
	got, err := db.LoadTurn(id, 1)
	if err != nil {
		t.Fatalf("LoadTurn: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("snapshot mismatch:\ngot  %+v\nwant %+v", got, want)
	}

	// Saving the same turn again replaces it.
	want.Pickups[0].Quantity = 20
	if err := db.SaveTurn(id, 1, want); err != nil {
		t.Fatal(err)
	}
	if got, _ := db.LoadTurn(id, 1); got.Pickups[0].Quantity != 20 {
		t.Errorf("replaced quantity = %d", got.Pickups[0].Quantity)
	}

	if _, err := db.LoadTurn(id, 2); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("missing turn error = %v, want sql.ErrNoRows", err)
	}
}

func TestDecisions(t *testing.T) {
	db, _ := openTemp(t)
	id, err := db.BeginMatch(SourceArena, 42)
	if err != nil {
		t.Fatal(err)
	}

	orders := []decision.Order{
		{
			UnitID:  4,
			Target:  hex.Coord{Col: 6, Row: 3},
			Plan:    planner.Plan{Gain: 17, Actions: []sim.Action{sim.Accelerate, sim.Hold}, Reached: true, Expanded: 31},
			Command: protocol.ActionCommand(sim.Accelerate),
		},
		{
			UnitID:  2,
			Target:  hex.Center,
			Explore: true,
			Command: protocol.MoveCommand(hex.Center),
		},
	}
	if err := db.SaveDecisions(id, 3, orders); err != nil {
		t.Fatalf("SaveDecisions: %v", err)
	}
	if err := db.SaveDecisions(id, 3, nil); err != nil {
		t.Fatalf("SaveDecisions(nil): %v", err)
	}

	got, err := db.Decisions(id, 3)
	if err != nil {
		t.Fatalf("Decisions: %v", err)
	}
	want := []DecisionRecord{
		{Turn: 3, UnitID: 4, TargetCol: 6, TargetRow: 3, Gain: 17, Steps: 2, Expanded: 31, Command: "FASTER"},
		{Turn: 3, UnitID: 2, TargetCol: 11, TargetRow: 10, Explore: true, Command: "MOVE 11 10"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("decisions:\ngot  %+v\nwant %+v", got, want)
	}

	if other, _ := db.Decisions(uuid.New(), 3); len(other) != 0 {
		t.Errorf("unrelated match returned %d decisions", len(other))
	}
}

func TestEvents(t *testing.T) {
	db, _ := openTemp(t)
	id, _ := db.BeginMatch(SourceArena, 1)

	events := []engine.Event{
		{Turn: 1, UnitID: 0, Description: "unit 0 took 12", Category: "pickup"},
		{Turn: 2, UnitID: 1, Description: "unit 1 sank", Category: "lost"},
	}
	if err := db.SaveEvents(id, events); err != nil {
		t.Fatalf("SaveEvents: %v", err)
	}

	got, err := db.RecentEvents(id, 1)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(got) != 1 || got[0] != events[1] {
		t.Errorf("recent events = %+v, want the last one", got)
	}
}

func TestMatches(t *testing.T) {
	db, path := openTemp(t)

	first, _ := db.BeginMatch(SourceArena, 7)
	second, _ := db.BeginMatch(SourceBot, 0)
	if first == second {
		t.Fatal("match ids collide")
	}
	draw := engine.Draw
	if err := db.FinishMatch(first, 120, &draw); err != nil {
		t.Fatalf("FinishMatch: %v", err)
	}
	if err := db.FinishMatch(uuid.New(), 1, nil); err == nil {
		t.Error("finishing an unknown match should fail")
	}
	db.Close()

	// Reopening keeps what was written.
	db, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	matches, err := db.RecentMatches(10)
	if err != nil {
		t.Fatalf("RecentMatches: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(matches))
	}
	byID := map[string]MatchRecord{}
	for _, m := range matches {
		byID[m.ID] = m
	}

	done := byID[first.String()]
	if done.Source != SourceArena || done.Seed != 7 || done.Turns != 120 || done.Winner == nil || *done.Winner != engine.Draw {
		t.Errorf("finished match = %+v", done)
	}
	if open := byID[second.String()]; open.Winner != nil || open.Turns != 0 {
		t.Errorf("open match = %+v", open)
	}
	if done.Started().IsZero() {
		t.Error("start time missing")
	}
}
