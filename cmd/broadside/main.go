// Command broadside plays the hex-grid vehicle game. Each turn it reads the
// entity feed from stdin and answers with one command per controlled unit on
// stdout. Logs go to stderr.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/broadside/internal/config"
	"github.com/talgya/broadside/internal/decision"
	"github.com/talgya/broadside/internal/persistence"
	"github.com/talgya/broadside/internal/planner"
	"github.com/talgya/broadside/internal/protocol"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	captain := decision.NewCaptain(planner.Limits{
		MaxExpansions: cfg.MaxExpansions,
		MaxTurns:      cfg.MaxTurns,
	}, cfg.ExploreRadius)
	slog.Info("broadside ready",
		"max_expansions", cfg.MaxExpansions,
		"max_turns", cfg.MaxTurns,
		"explore_radius", captain.ExploreRadius,
	)

	// ── Journal (optional) ────────────────────────────────────────────
	var db *persistence.DB
	var matchID uuid.UUID
	if cfg.JournalPath != "" {
		db, err = persistence.Open(cfg.JournalPath)
		if err != nil {
			slog.Warn("journal disabled", "path", cfg.JournalPath, "error", err)
		} else if matchID, err = db.BeginMatch(persistence.SourceBot, 0); err != nil {
			slog.Warn("journal disabled", "error", err)
			db.Close()
			db = nil
		}
	}

	turns, err := run(captain, os.Stdin, os.Stdout, db, matchID)
	if db != nil {
		finishJournal(db, matchID, turns)
	}
	if err != nil {
		slog.Error("bot stopped", "turns", turns, "error", err)
		os.Exit(1)
	}
}

// run plays turns from in until the feed closes and returns how many were
// played. db may be nil.
func run(captain *decision.Captain, in io.Reader, out io.Writer, db *persistence.DB, matchID uuid.UUID) (int, error) {
	feed := protocol.NewReader(in)
	turns, expanded := 0, 0
	for {
		t, err := feed.ReadTurn()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return turns, fmt.Errorf("read turn %d: %w", turns+1, err)
		}
		turns++
		start := time.Now()

		orders := captain.Decide(t)
		if err := protocol.WriteCommands(out, decision.Commands(orders)); err != nil {
			return turns, fmt.Errorf("write commands for turn %d: %w", turns, err)
		}

		spent := 0
		for _, o := range orders {
			spent += o.Plan.Expanded
		}
		expanded += spent
		slog.Info("turn played",
			"turn", turns,
			"units", len(orders),
			"expanded", humanize.Comma(int64(spent)),
			"elapsed", time.Since(start).Round(time.Microsecond),
		)

		if db != nil {
			journalTurn(db, matchID, turns, t, orders)
		}
	}

	slog.Info("feed closed", "turns", turns, "expanded", humanize.Comma(int64(expanded)))
	return turns, nil
}

// journalTurn records a turn; failures are logged and never stop play.
func journalTurn(db *persistence.DB, matchID uuid.UUID, turn int, t protocol.Turn, orders []decision.Order) {
	if err := db.SaveTurn(matchID, turn, t); err != nil {
		slog.Warn("journal turn failed", "turn", turn, "error", err)
	}
	if err := db.SaveDecisions(matchID, turn, orders); err != nil {
		slog.Warn("journal decisions failed", "turn", turn, "error", err)
	}
}

// finishJournal marks the match over and closes the journal.
func finishJournal(db *persistence.DB, matchID uuid.UUID, turns int) {
	if err := db.FinishMatch(matchID, turns, nil); err != nil {
		slog.Warn("journal finish failed", "error", err)
	}
	if err := db.Close(); err != nil {
		slog.Warn("journal close failed", "error", err)
	}
}
