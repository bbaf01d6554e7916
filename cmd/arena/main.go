// Command arena plays a local self-play match: it generates an arena, lets
// one captain command each side, and journals every turn when configured.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/broadside/internal/api"
	"github.com/talgya/broadside/internal/config"
	"github.com/talgya/broadside/internal/decision"
	"github.com/talgya/broadside/internal/engine"
	"github.com/talgya/broadside/internal/persistence"
	"github.com/talgya/broadside/internal/planner"
	"github.com/talgya/broadside/internal/world"
)

// Searches stay bounded in self-play even when the bot runs unbounded.
const defaultArenaExpansions = 2000

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// ── Arena ─────────────────────────────────────────────────────────
	gen := world.DefaultGenConfig()
	gen.Seed = cfg.Seed
	if gen.Seed == 0 {
		gen.Seed = rand.Int63()
	}
	gen.UnitsPerPlayer = cfg.UnitsPerPlayer
	w := world.Generate(gen)
	slog.Info("arena generated",
		"seed", gen.Seed,
		"units", len(w.Units),
		"pickups", len(w.Pickups),
		"hazards", len(w.Hazards),
	)

	limits := planner.Limits{MaxExpansions: cfg.MaxExpansions, MaxTurns: cfg.MaxTurns}
	if limits.MaxExpansions == 0 {
		limits.MaxExpansions = defaultArenaExpansions
	}
	captain := decision.NewCaptain(limits, cfg.ExploreRadius)
	match := engine.NewMatch(w, map[int]engine.Player{
		world.OwnerLeft:  captain,
		world.OwnerRight: captain,
	})
	eng := engine.NewEngine(match, cfg.ArenaTurns)
	eng.Interval = time.Duration(cfg.TurnInterval) * time.Millisecond

	// ── Journal (optional) ────────────────────────────────────────────
	var db *persistence.DB
	var matchID uuid.UUID
	if cfg.JournalPath != "" {
		db, err = persistence.Open(cfg.JournalPath)
		if err != nil {
			slog.Error("failed to open journal", "path", cfg.JournalPath, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if matchID, err = db.BeginMatch(persistence.SourceArena, gen.Seed); err != nil {
			slog.Error("failed to begin match", "error", err)
			os.Exit(1)
		}
	}

	// ── Run until done, interrupted or stopped over HTTP ──────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var server *api.Server
	if cfg.APIPort > 0 {
		server = &api.Server{DB: db, Port: cfg.APIPort, AdminKey: cfg.AdminKey, Stop: stop}
		server.Publish(w, match.Stats, true)
		server.Start()
	}

	eng.OnTurn = func(r engine.TurnReport) {
		if server != nil {
			server.Publish(w, match.Stats, true)
		}
		if r.Turn%25 == 0 {
			slog.Info("turn",
				"turn", r.Turn,
				"left", w.Strength(world.OwnerLeft),
				"right", w.Strength(world.OwnerRight),
				"pickups", len(w.Pickups),
			)
		}
		if db == nil {
			return
		}
		if err := db.SaveTurn(matchID, r.Turn, w.Snapshot(world.OwnerLeft)); err != nil {
			slog.Warn("journal turn failed", "turn", r.Turn, "error", err)
		}
		for _, owner := range []int{world.OwnerLeft, world.OwnerRight} {
			if err := db.SaveDecisions(matchID, r.Turn, r.Orders[owner]); err != nil {
				slog.Warn("journal decisions failed", "turn", r.Turn, "owner", owner, "error", err)
			}
		}
		if err := db.SaveEvents(matchID, r.Events); err != nil {
			slog.Warn("journal events failed", "turn", r.Turn, "error", err)
		}
	}

	start := time.Now()
	res := eng.Run(ctx)
	if server != nil {
		server.Publish(w, match.Stats, false)
	}

	slog.Info("match summary",
		"turns", res.Turns,
		"winner", winnerName(res.Winner),
		"left", res.Strength[world.OwnerLeft],
		"right", res.Strength[world.OwnerRight],
		"pickups_taken", res.Stats.PickupsTaken,
		"hazards_hit", res.Stats.HazardsHit,
		"hazards_laid", res.Stats.HazardsLaid,
		"units_lost", res.Stats.UnitsLost,
		"expanded", humanize.Comma(int64(res.Stats.Expanded)),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	if db == nil {
		return
	}
	if err := db.FinishMatch(matchID, res.Turns, &res.Winner); err != nil {
		slog.Warn("journal finish failed", "error", err)
	}
	recent, err := db.RecentMatches(5)
	if err != nil {
		slog.Warn("failed to list matches", "error", err)
		return
	}
	for _, m := range recent {
		winner := "in progress"
		if m.Winner != nil {
			winner = winnerName(*m.Winner)
		}
		slog.Info("journaled match",
			"id", m.ID,
			"source", m.Source,
			"seed", m.Seed,
			"turns", m.Turns,
			"winner", winner,
			"started", humanize.Time(m.Started()),
		)
	}
}

func winnerName(owner int) string {
	switch owner {
	case world.OwnerLeft:
		return "left"
	case world.OwnerRight:
		return "right"
	}
	return "draw"
}
