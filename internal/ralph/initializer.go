package ralph

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/schmitthub/ralphloop/internal/logger"
)

// ErrNoGoal is returned by Start when the goal is empty or whitespace.
var ErrNoGoal = errors.New("no prompt provided")

// StartOptions configures a new loop.
type StartOptions struct {
	Goal              string
	MaxIterations     int
	CompletionPromise string
}

// StartResult describes the loop that Start created.
type StartResult struct {
	Session string
	Key     string
	Record  *Record

	// Reclaimed lists the sessions whose stale records were deleted.
	Reclaimed []string
	// Replaced is true when the session already owned a record.
	Replaced bool
}

// Initializer creates Loop State Records.
type Initializer struct {
	Store    Store
	Sessions Sessions
	History  *HistoryStore

	// Now and NewID default to time.Now and NewSessionID.
	Now   func() time.Time
	NewID func() string
}

// NormalizeGoal trims the trailing newlines a shell adds to piped input.
// The result is empty when the goal carries no text at all.
func NormalizeGoal(goal string) string {
	goal = strings.TrimRight(goal, "\r\n")
	if strings.TrimSpace(goal) == "" {
		return ""
	}
	return goal
}

// Start reclaims records of dead owners and writes a fresh record for the
// current session, replacing any record it already owned.
func (i *Initializer) Start(ctx context.Context, opts StartOptions) (*StartResult, error) {
	goal := NormalizeGoal(opts.Goal)
	if goal == "" {
		return nil, ErrNoGoal
	}
	if opts.MaxIterations == 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.CompletionPromise == "" {
		opts.CompletionPromise = DefaultCompletionPromise
	}
	if err := ValidateMaxIterations(opts.MaxIterations); err != nil {
		return nil, err
	}
	if err := ValidateCompletionPromise(opts.CompletionPromise); err != nil {
		return nil, err
	}

	session, err := i.Sessions.Current()
	if err != nil {
		return nil, err
	}

	now, newID := time.Now, NewSessionID
	if i.Now != nil {
		now = i.Now
	}
	if i.NewID != nil {
		newID = i.NewID
	}

	rec := &Record{
		Active:            true,
		Iteration:         1,
		MaxIterations:     opts.MaxIterations,
		CompletionPromise: opts.CompletionPromise,
		StartedAt:         now().UTC().Format(time.RFC3339),
		LoopID:            newID(),
		Goal:              goal,
	}
	res := &StartResult{Session: session, Key: RecordKey(session), Record: rec}

	err = withLock(ctx, i.Store, func() error {
		reclaimed, owned, err := reclaimLocked(ctx, i.Store, i.Sessions, i.History, session)
		res.Reclaimed, res.Replaced = reclaimed, owned
		if err != nil {
			return err
		}

		if err := SaveRecord(ctx, i.Store, session, rec); err != nil {
			return err
		}
		journal(ctx, i.History, entryFor(EventStarted, session, rec))
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("session", session).
		Str("loop_id", rec.LoopID).
		Int("max_iterations", rec.MaxIterations).
		Bool("replaced", res.Replaced).
		Msg("loop started")
	return res, nil
}
