package ralph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/schmitthub/ralphloop/internal/logger"
)

// Outcome is the Gatekeeper's verdict for one completed agent turn.
type Outcome int

const (
	// OutcomeNoLoop means the session has no active loop.
	OutcomeNoLoop Outcome = iota
	// OutcomeCorrupted means the record cannot be trusted and was left alone.
	OutcomeCorrupted
	// OutcomeTranscriptUnavailable means the turn could not be inspected;
	// the loop is stopped.
	OutcomeTranscriptUnavailable
	// OutcomeCompleted means the agent emitted the completion marker.
	OutcomeCompleted
	// OutcomeBudgetExhausted means the iteration budget is used up.
	OutcomeBudgetExhausted
	// OutcomeContinue means the goal is re-injected for another turn.
	OutcomeContinue
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoLoop:
		return "no_loop"
	case OutcomeCorrupted:
		return "corrupted"
	case OutcomeTranscriptUnavailable:
		return "transcript_unavailable"
	case OutcomeCompleted:
		return "completed"
	case OutcomeBudgetExhausted:
		return "budget_exhausted"
	case OutcomeContinue:
		return "continue"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Stops reports whether the outcome lets the agent stop.
func (o Outcome) Stops() bool {
	return o != OutcomeContinue
}

// ContinueOutput is the Stop hook response that blocks the agent from
// stopping and feeds it the goal again.
type ContinueOutput struct {
	Decision      string `json:"decision"`
	Reason        string `json:"reason"`
	SystemMessage string `json:"systemMessage"`
}

// Decision is the result of Evaluate.
type Decision struct {
	Outcome Outcome
	Session string

	// Record is the record as evaluated; for OutcomeContinue it carries the
	// incremented iteration. Nil for NoLoop and Corrupted.
	Record *Record

	// Message is a human-readable diagnostic; empty for NoLoop and Continue.
	Message string

	// Continuation is set only for OutcomeContinue.
	Continuation *ContinueOutput

	// Cause explains Corrupted and TranscriptUnavailable outcomes.
	Cause error
}

// Gatekeeper decides, after every agent turn, whether the loop continues.
type Gatekeeper struct {
	Store    Store
	Sessions Sessions
	History  *HistoryStore

	// ReadTranscript returns the last assistant text of a transcript file.
	// Defaults to ReadLastAssistantText.
	ReadTranscript func(path string) (string, error)
}

// Evaluate inspects the turn described by payload and applies the resulting
// state transition. Recognized outcomes are reported through the Decision;
// an error is returned only for unexpected storage failures.
func (g *Gatekeeper) Evaluate(ctx context.Context, payload []byte) (*Decision, error) {
	session, err := g.Sessions.Current()
	if err != nil {
		return nil, err
	}
	key := RecordKey(session)

	// Fast path: sessions without a loop never touch the lock.
	if _, err := g.Store.Get(ctx, key); errors.Is(err, ErrNotFound) {
		return &Decision{Outcome: OutcomeNoLoop, Session: session}, nil
	} else if err != nil {
		return nil, fmt.Errorf("reading loop state: %w", err)
	}

	var d *Decision
	err = withLock(ctx, g.Store, func() error {
		var err error
		d, err = g.evaluateLocked(ctx, session, key, payload)
		return err
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (g *Gatekeeper) evaluateLocked(ctx context.Context, session, key string, payload []byte) (*Decision, error) {
	data, err := g.Store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return &Decision{Outcome: OutcomeNoLoop, Session: session}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading loop state: %w", err)
	}

	rec, err := DecodeRecord(data)
	if err != nil {
		logger.Warn().Err(err).Str("session", session).Msg("loop state corrupted")
		e := entryFor(EventCorrupted, session, nil)
		e.Detail = err.Error()
		journal(ctx, g.History, e)
		return &Decision{
			Outcome: OutcomeCorrupted,
			Session: session,
			Message: fmt.Sprintf("Ralph loop: %s. Stopping; the state file %s was left untouched.", err, key),
			Cause:   err,
		}, nil
	}
	logger.SetContext(session, rec.LoopID)

	text, err := g.lastAssistantText(payload)
	if err != nil {
		logger.Warn().Err(err).Msg("transcript unavailable, stopping loop")
		if err := g.Store.Delete(ctx, key); err != nil {
			return nil, fmt.Errorf("removing loop state: %w", err)
		}
		e := entryFor(EventTranscriptUnavailable, session, rec)
		e.Detail = err.Error()
		journal(ctx, g.History, e)
		return &Decision{
			Outcome: OutcomeTranscriptUnavailable,
			Session: session,
			Record:  rec,
			Message: fmt.Sprintf("Ralph loop: transcript unavailable (%s). Loop stopped.", err),
			Cause:   err,
		}, nil
	}

	// Completion is checked before the budget so a marker on the last
	// allowed turn still counts as success.
	if strings.Contains(text, rec.Marker()) {
		return g.finish(ctx, session, key, rec, OutcomeCompleted, EventCompleted,
			fmt.Sprintf("Ralph loop: Detected %s", rec.Marker()))
	}
	if rec.Exhausted() {
		return g.finish(ctx, session, key, rec, OutcomeBudgetExhausted, EventBudgetExhausted,
			fmt.Sprintf("Ralph loop: Max iterations (%d) reached.", rec.MaxIterations))
	}

	rec.Iteration++
	if err := SaveRecord(ctx, g.Store, session, rec); err != nil {
		return nil, err
	}
	journal(ctx, g.History, entryFor(EventContinued, session, rec))
	logger.Info().Int("iteration", rec.Iteration).Int("max_iterations", rec.MaxIterations).Msg("loop continues")

	return &Decision{
		Outcome: OutcomeContinue,
		Session: session,
		Record:  rec,
		Continuation: &ContinueOutput{
			Decision:      "block",
			Reason:        rec.Goal,
			SystemMessage: SystemMessage(rec),
		},
	}, nil
}

func (g *Gatekeeper) finish(ctx context.Context, session, key string, rec *Record, outcome Outcome, event Event, msg string) (*Decision, error) {
	if err := g.Store.Delete(ctx, key); err != nil {
		return nil, fmt.Errorf("removing loop state: %w", err)
	}
	journal(ctx, g.History, entryFor(event, session, rec))
	logger.Info().Str("outcome", outcome.String()).Int("iteration", rec.Iteration).Msg("loop finished")
	return &Decision{Outcome: outcome, Session: session, Record: rec, Message: msg}, nil
}

func (g *Gatekeeper) lastAssistantText(payload []byte) (string, error) {
	in, err := ParseHookInput(payload)
	if err != nil {
		return "", err
	}
	logger.Debug().
		Str("hook_session_id", in.SessionID).
		Str("hook_event_name", in.HookEventName).
		Bool("stop_hook_active", in.StopHookActive).
		Str("cwd", in.CWD).
		Str("transcript_path", in.TranscriptPath).
		Msg("stop hook invoked")

	read := g.ReadTranscript
	if read == nil {
		read = ReadLastAssistantText
	}
	return read(in.Transcript())
}

// SystemMessage is the status line shown to the agent on continuation.
func SystemMessage(rec *Record) string {
	return fmt.Sprintf("Ralph iteration %d | To stop: output %s (only when the statement is completely and unequivocally true)",
		rec.Iteration, rec.Marker())
}
