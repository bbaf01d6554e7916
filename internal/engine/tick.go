// Package engine referees local matches: it asks each side for commands and
// resolves every turn against the authoritative world.
package engine

import (
	"context"
	"log/slog"
	"time"
)

// DefaultMaxTurns caps a match when no limit is configured.
const DefaultMaxTurns = 200

// Engine drives a match forward.
type Engine struct {
	Match    *Match
	MaxTurns int           // Turn cap (0 = DefaultMaxTurns)
	Interval time.Duration // Pause between turns (0 = as fast as possible)
	Running  bool

	// OnTurn runs after every resolved turn.
	OnTurn func(report TurnReport)
}

// NewEngine creates an engine for m with default settings.
func NewEngine(m *Match, maxTurns int) *Engine {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Engine{Match: m, MaxTurns: maxTurns}
}

// Run plays the match until one side is left, the turn cap is reached, Stop
// is called or ctx is done.
func (e *Engine) Run(ctx context.Context) Result {
	e.Running = true
	w := e.Match.World
	slog.Info("match started", "turn", w.Turn, "units", len(w.Units), "max_turns", e.MaxTurns)

	for e.Running && !e.Match.Finished() && w.Turn < e.MaxTurns {
		if ctx.Err() != nil {
			break
		}
		start := time.Now()

		report := e.Match.Step()
		if e.OnTurn != nil {
			e.OnTurn(report)
		}

		if elapsed := time.Since(start); elapsed < e.Interval {
			select {
			case <-ctx.Done():
			case <-time.After(e.Interval - elapsed):
			}
		}
	}

	e.Running = false
	res := e.Match.Result()
	slog.Info("match finished", "turns", res.Turns, "winner", res.Winner, "strength", res.Strength)
	return res
}

// Stop halts the loop after the current turn.
func (e *Engine) Stop() {
	e.Running = false
}
