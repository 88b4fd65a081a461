// Package reconcile owns the merge algorithm between the locally persisted
// ER state and a transient remote snapshot. Exactly one canonical snapshot
// survives every reconciliation; the losing side only ever contributes
// metadata the winner is missing.
package reconcile

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/escapekit/escapekit/go/internal/dialogs"
	"github.com/escapekit/escapekit/go/internal/i18n"
	"github.com/escapekit/escapekit/go/internal/state"
)

// RestoreMode controls how a newer remote snapshot is adopted.
type RestoreMode string

const (
	// RestoreAuto adopts the newest snapshot silently.
	RestoreAuto RestoreMode = "AUTO"
	// RestoreAutoNotification adopts the newest snapshot and informs the user
	// after the fact.
	RestoreAutoNotification RestoreMode = "AUTO_NOTIFICATION"
	// RestoreRequestUser asks before adopting a newer remote snapshot;
	// declining keeps the local one.
	RestoreRequestUser RestoreMode = "REQUEST_USER"
	// RestoreNever keeps the local snapshot unconditionally; the remote one
	// is discarded unexamined.
	RestoreNever RestoreMode = "NEVER"
)

// Persister is the slice of the local store the engine needs.
type Persister interface {
	SaveSnapshot(*state.Snapshot) error
}

// Config holds reconciliation configuration.
type Config struct {
	Mode RestoreMode
	// AppPuzzleIDs restricts the newest-state comparison to the puzzles the
	// embedding app is responsible for. Empty means all puzzles count.
	AppPuzzleIDs []int
}

// DefaultConfig returns default reconciliation configuration.
func DefaultConfig() Config {
	return Config{Mode: RestoreRequestUser}
}

// Result is the outcome of one reconciliation.
type Result struct {
	// Winner is the canonical snapshot after the merge. Always valid.
	Winner *state.Snapshot
	// Restarted is set when the remote side reported a different room start
	// time, meaning the room was reset and prior progress no longer compares.
	Restarted bool
}

// Engine decides which of two possibly divergent snapshots is authoritative,
// merges metadata across, and persists the winner.
type Engine struct {
	cfg        Config
	store      Persister
	dialogs    dialogs.Gateway
	translator *i18n.Translator
}

// NewEngine creates a reconciliation engine.
func NewEngine(cfg Config, store Persister, dg dialogs.Gateway, tr *i18n.Translator) *Engine {
	if cfg.Mode == "" {
		cfg.Mode = DefaultConfig().Mode
	}
	if tr == nil {
		tr = i18n.New()
	}
	return &Engine{cfg: cfg, store: store, dialogs: dg, translator: tr}
}

// Reconcile merges local and remote and persists the winner. The remote
// snapshot is transient; callers must drop their reference after this call.
// Malformed snapshots never propagate: an invalid local side degrades to the
// empty default state, an invalid remote side loses unconditionally.
func (e *Engine) Reconcile(ctx context.Context, local, remote *state.Snapshot) (Result, error) {
	// Aliased arguments: clearing the transient remote must not destroy the
	// caller's only copy.
	if remote == local {
		remote = remote.Clone()
	}
	if !local.Valid() {
		local = state.Default()
	}

	if e.cfg.Mode == RestoreNever || !remote.Valid() {
		return e.finish(local.Clone(), remote, false)
	}

	// Restart detection: a changed start time means the room was reset by
	// staff. The remote snapshot replaces local verbatim, no merge.
	if restarted(local, remote) {
		log.Info().
			Float64("local_start", *local.StartTime).
			Float64("remote_start", *remote.StartTime).
			Msg("room restart detected, adopting remote state verbatim")
		return e.finish(remote.Clone(), remote, true)
	}

	remoteNewest := remote.NewerThan(local, e.cfg.AppPuzzleIDs)

	winner := local
	if remoteNewest {
		adopt, err := e.confirmAdoption(ctx)
		if err != nil {
			return Result{}, err
		}
		if adopt {
			winner = remote
		}
	}

	merged := winner.Clone()
	loser := local
	if winner == local {
		loser = remote
	}
	backfill(merged, loser)

	return e.finish(merged, remote, false)
}

// confirmAdoption applies the restore mode to a remote snapshot that won the
// newest-state comparison.
func (e *Engine) confirmAdoption(ctx context.Context) (bool, error) {
	switch e.cfg.Mode {
	case RestoreRequestUser:
		ok, err := e.dialogs.Confirm(ctx,
			e.translator.T("restore_title", nil),
			e.translator.T("restore_request_text", nil))
		if err != nil {
			return false, fmt.Errorf("restore prompt: %w", err)
		}
		return ok, nil
	case RestoreAutoNotification:
		if err := e.dialogs.Inform(ctx,
			e.translator.T("restore_title", nil),
			e.translator.T("restore_auto_text", nil)); err != nil {
			return false, fmt.Errorf("restore notice: %w", err)
		}
		return true, nil
	default: // RestoreAuto
		return true, nil
	}
}

func (e *Engine) finish(winner *state.Snapshot, remote *state.Snapshot, restartedFlag bool) (Result, error) {
	winner.Recompute()
	if err := e.store.SaveSnapshot(winner); err != nil {
		return Result{}, fmt.Errorf("persist reconciled state: %w", err)
	}
	// Clear the transient remote snapshot so stale references cannot be
	// reconciled twice.
	if remote != nil {
		*remote = state.Snapshot{}
	}
	log.Debug().
		Int("solved", len(winner.SolvedPuzzles)).
		Bool("restarted", restartedFlag).
		Msg("reconciled ER state persisted")
	return Result{Winner: winner, Restarted: restartedFlag}, nil
}

func restarted(local, remote *state.Snapshot) bool {
	return local.StartTime != nil && remote.StartTime != nil &&
		*local.StartTime != *remote.StartTime
}

// backfill copies metadata the winner is missing from the losing snapshot.
// A field already present on the winner is never overwritten.
func backfill(winner, loser *state.Snapshot) {
	if loser == nil {
		return
	}
	if winner.TotalPuzzles == nil && loser.TotalPuzzles != nil {
		v := *loser.TotalPuzzles
		winner.TotalPuzzles = &v
	}
	if winner.HintsAllowed == nil && loser.HintsAllowed != nil {
		v := *loser.HintsAllowed
		winner.HintsAllowed = &v
	}
	if winner.StartTime == nil && loser.StartTime != nil {
		v := *loser.StartTime
		winner.StartTime = &v
	}
	if winner.RemainingTime == nil && loser.RemainingTime != nil {
		v := *loser.RemainingTime
		winner.RemainingTime = &v
	}
	if winner.Duration == nil && loser.Duration != nil {
		v := *loser.Duration
		winner.Duration = &v
	}
	if winner.TeamID == nil && loser.TeamID != nil {
		v := *loser.TeamID
		winner.TeamID = &v
	}
	if winner.TeamMembers == nil && loser.TeamMembers != nil {
		winner.TeamMembers = append([]state.TeamMember(nil), loser.TeamMembers...)
	}
	if winner.Ranking == nil && loser.Ranking != nil {
		winner.Ranking = append([]state.TeamStanding(nil), loser.Ranking...)
	}

	// Per-puzzle details: any puzzle the winner already solved keeps the
	// richer metadata known to either side.
	for _, id := range winner.SolvedPuzzles {
		d, ok := loser.PuzzleDetails[id]
		if !ok {
			continue
		}
		if _, present := winner.PuzzleDetails[id]; present {
			continue
		}
		if winner.PuzzleDetails == nil {
			winner.PuzzleDetails = make(map[int]state.PuzzleDetail)
		}
		winner.PuzzleDetails[id] = d
	}
}
