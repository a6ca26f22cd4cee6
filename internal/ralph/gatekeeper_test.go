package ralph

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gatekeeperFixture struct {
	store      *MemoryStore
	gatekeeper *Gatekeeper
	dir        string
}

func newGatekeeperFixture(t *testing.T) *gatekeeperFixture {
	t.Helper()
	store := NewMemoryStore()
	return &gatekeeperFixture{
		store: store,
		gatekeeper: &Gatekeeper{
			Store:    store,
			Sessions: &StaticSessions{ID: "4242"},
			History:  NewHistoryStore(store),
		},
		dir: t.TempDir(),
	}
}

func (f *gatekeeperFixture) withRecord(t *testing.T, rec *Record) {
	t.Helper()
	require.NoError(t, SaveRecord(context.Background(), f.store, "4242", rec))
}

func (f *gatekeeperFixture) withRawRecord(t *testing.T, raw string) {
	t.Helper()
	require.NoError(t, f.store.Put(context.Background(), RecordKey("4242"), []byte(raw)))
}

// payload writes a transcript whose single assistant record says text.
func (f *gatekeeperFixture) payload(t *testing.T, text string) []byte {
	t.Helper()
	line, err := json.Marshal(map[string]any{
		"role": "assistant",
		"message": map[string]any{
			"content": []map[string]string{{"type": "text", "text": text}},
		},
	})
	require.NoError(t, err)
	path := filepath.Join(f.dir, "transcript.jsonl")
	require.NoError(t, os.WriteFile(path, append(line, '\n'), 0o644))

	payload, err := json.Marshal(HookInput{TranscriptPath: path, SessionID: "abc", HookEventName: "Stop"})
	require.NoError(t, err)
	return payload
}

func (f *gatekeeperFixture) events(t *testing.T) []Event {
	t.Helper()
	h, err := f.gatekeeper.History.Load(context.Background())
	require.NoError(t, err)
	var events []Event
	for _, e := range h.Entries {
		events = append(events, e.Event)
	}
	return events
}

func (f *gatekeeperFixture) recordExists(t *testing.T) bool {
	t.Helper()
	_, err := f.store.Get(context.Background(), RecordKey("4242"))
	if errors.Is(err, ErrNotFound) {
		return false
	}
	require.NoError(t, err)
	return true
}

func TestGatekeeper_NoLoop(t *testing.T) {
	f := newGatekeeperFixture(t)

	d, err := f.gatekeeper.Evaluate(context.Background(), []byte("not even json"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoLoop, d.Outcome)
	assert.Empty(t, d.Message)
	assert.Nil(t, d.Continuation)

	keys, err := f.store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, keys, "no side effects")
}

func TestGatekeeper_Continue(t *testing.T) {
	f := newGatekeeperFixture(t)
	f.withRecord(t, testRecord())

	d, err := f.gatekeeper.Evaluate(context.Background(), f.payload(t, "Working on it..."))
	require.NoError(t, err)
	assert.Equal(t, OutcomeContinue, d.Outcome)
	assert.False(t, d.Outcome.Stops())
	require.NotNil(t, d.Continuation)
	assert.Equal(t, "block", d.Continuation.Decision)
	assert.Equal(t, "Test prompt", d.Continuation.Reason)
	assert.Contains(t, d.Continuation.SystemMessage, "iteration 2")
	assert.Contains(t, d.Continuation.SystemMessage, "<promise>IMPLEMENTED</promise>")

	rec, err := LoadRecord(context.Background(), f.store, "4242")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Iteration)
	assert.Equal(t, testRecord().LoopID, rec.LoopID)
	assert.Equal(t, []Event{EventContinued}, f.events(t))
}

func TestGatekeeper_ContinueJSONShape(t *testing.T) {
	f := newGatekeeperFixture(t)
	f.withRecord(t, testRecord())

	d, err := f.gatekeeper.Evaluate(context.Background(), f.payload(t, "no marker"))
	require.NoError(t, err)

	out, err := json.Marshal(d.Continuation)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Equal(t, "block", m["decision"])
	assert.Equal(t, "Test prompt", m["reason"])
	assert.Contains(t, m["systemMessage"], "iteration 2")
}

func TestGatekeeper_IncrementsIteration(t *testing.T) {
	f := newGatekeeperFixture(t)
	rec := testRecord()
	rec.Iteration = 3
	f.withRecord(t, rec)

	_, err := f.gatekeeper.Evaluate(context.Background(), f.payload(t, "Working..."))
	require.NoError(t, err)

	data, err := f.store.Get(context.Background(), RecordKey("4242"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "iteration: 4")
}

func TestGatekeeper_Completed(t *testing.T) {
	f := newGatekeeperFixture(t)
	rec := testRecord()
	rec.CompletionPromise = "DONE"
	f.withRecord(t, rec)

	d, err := f.gatekeeper.Evaluate(context.Background(), f.payload(t, "All finished. <promise>DONE</promise>"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, d.Outcome)
	assert.True(t, d.Outcome.Stops())
	assert.Contains(t, d.Message, "Detected <promise>DONE</promise>")
	assert.Nil(t, d.Continuation)
	assert.False(t, f.recordExists(t))
	assert.Equal(t, []Event{EventCompleted}, f.events(t))
}

func TestGatekeeper_DifferentTokenDoesNotComplete(t *testing.T) {
	f := newGatekeeperFixture(t)
	rec := testRecord()
	rec.CompletionPromise = "DONE"
	f.withRecord(t, rec)

	for _, text := range []string{
		"<promise>NOT DONE</promise>",
		"<promise>done</promise>",
		"DONE",
		"<promise> DONE </promise>",
	} {
		d, err := f.gatekeeper.Evaluate(context.Background(), f.payload(t, text))
		require.NoError(t, err)
		assert.Equal(t, OutcomeContinue, d.Outcome, text)
	}
}

func TestGatekeeper_BudgetExhausted(t *testing.T) {
	f := newGatekeeperFixture(t)
	rec := testRecord()
	rec.Iteration = 10
	f.withRecord(t, rec)

	d, err := f.gatekeeper.Evaluate(context.Background(), f.payload(t, "still working"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeBudgetExhausted, d.Outcome)
	assert.Contains(t, d.Message, "Max iterations (10) reached")
	assert.False(t, f.recordExists(t))
	assert.Equal(t, []Event{EventBudgetExhausted}, f.events(t))
}

func TestGatekeeper_CompletionWinsOverBudget(t *testing.T) {
	f := newGatekeeperFixture(t)
	rec := testRecord()
	rec.Iteration = 10
	f.withRecord(t, rec)

	d, err := f.gatekeeper.Evaluate(context.Background(), f.payload(t, "<promise>IMPLEMENTED</promise>"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, d.Outcome)
	assert.False(t, f.recordExists(t))
}

func TestGatekeeper_SingleIterationBudget(t *testing.T) {
	f := newGatekeeperFixture(t)
	rec := testRecord()
	rec.MaxIterations = 1
	f.withRecord(t, rec)

	d, err := f.gatekeeper.Evaluate(context.Background(), f.payload(t, "first turn"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeBudgetExhausted, d.Outcome)
	assert.Contains(t, d.Message, "Max iterations (1) reached")
}

func TestGatekeeper_Corrupted(t *testing.T) {
	for name, raw := range map[string]string{
		"iteration":      "---\nactive: true\niteration: abc\nmax_iterations: 10\ncompletion_promise: \"X\"\n---\ngoal\n",
		"max_iterations": "---\nactive: true\niteration: 1\nmax_iterations: xyz\ncompletion_promise: \"X\"\n---\ngoal\n",
		"header":         "garbage without separators",
	} {
		t.Run(name, func(t *testing.T) {
			f := newGatekeeperFixture(t)
			f.withRawRecord(t, raw)

			d, err := f.gatekeeper.Evaluate(context.Background(), f.payload(t, "<promise>X</promise>"))
			require.NoError(t, err)
			assert.Equal(t, OutcomeCorrupted, d.Outcome)
			assert.Contains(t, d.Message, "corrupted")
			assert.True(t, errors.Is(d.Cause, ErrCorrupt))

			data, err := f.store.Get(context.Background(), RecordKey("4242"))
			require.NoError(t, err)
			assert.Equal(t, raw, string(data), "corrupted record is left untouched")
			assert.Equal(t, []Event{EventCorrupted}, f.events(t))
		})
	}
}

func TestGatekeeper_TranscriptUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		payload func(f *gatekeeperFixture, t *testing.T) []byte
	}{
		{
			name:    "payload not json",
			payload: func(*gatekeeperFixture, *testing.T) []byte { return []byte("{not json") },
		},
		{
			name:    "payload without transcript path",
			payload: func(*gatekeeperFixture, *testing.T) []byte { return []byte(`{"session_id":"abc"}`) },
		},
		{
			name: "transcript missing",
			payload: func(f *gatekeeperFixture, t *testing.T) []byte {
				return []byte(`{"transcript_path":"` + filepath.Join(f.dir, "missing.jsonl") + `"}`)
			},
		},
		{
			name: "no assistant record",
			payload: func(f *gatekeeperFixture, t *testing.T) []byte {
				path := filepath.Join(f.dir, "user-only.jsonl")
				require.NoError(t, os.WriteFile(path, []byte(`{"role":"user","message":{"content":"hi"}}`+"\n"), 0o644))
				return []byte(`{"transcript_path":"` + path + `"}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGatekeeperFixture(t)
			f.withRecord(t, testRecord())

			d, err := f.gatekeeper.Evaluate(context.Background(), tt.payload(f, t))
			require.NoError(t, err)
			assert.Equal(t, OutcomeTranscriptUnavailable, d.Outcome)
			assert.Contains(t, d.Message, "transcript unavailable")
			assert.Error(t, d.Cause)
			assert.False(t, f.recordExists(t), "an uninspectable loop is stopped")
			assert.Equal(t, []Event{EventTranscriptUnavailable}, f.events(t))
		})
	}
}

func TestGatekeeper_InjectedTranscriptReader(t *testing.T) {
	f := newGatekeeperFixture(t)
	f.withRecord(t, testRecord())
	var gotPath string
	f.gatekeeper.ReadTranscript = func(path string) (string, error) {
		gotPath = path
		return "<promise>IMPLEMENTED</promise>", nil
	}

	d, err := f.gatekeeper.Evaluate(context.Background(), []byte(`{"transcript_path":"t.jsonl","cwd":"/work"}`))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, d.Outcome)
	assert.Equal(t, filepath.Join("/work", "t.jsonl"), gotPath)
}

func TestGatekeeper_FullLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sessions := &StaticSessions{ID: "4242"}
	history := NewHistoryStore(store)
	ini := &Initializer{Store: store, Sessions: sessions, History: history}
	f := &gatekeeperFixture{
		store:      store,
		gatekeeper: &Gatekeeper{Store: store, Sessions: sessions, History: history},
		dir:        t.TempDir(),
	}

	_, err := ini.Start(ctx, StartOptions{Goal: "Build feature", MaxIterations: 5, CompletionPromise: "FINISHED"})
	require.NoError(t, err)

	for want := 2; want <= 3; want++ {
		d, err := f.gatekeeper.Evaluate(ctx, f.payload(t, "progress"))
		require.NoError(t, err)
		require.Equal(t, OutcomeContinue, d.Outcome)
		assert.Equal(t, want, d.Record.Iteration)
	}

	d, err := f.gatekeeper.Evaluate(ctx, f.payload(t, "<promise>FINISHED</promise>"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, d.Outcome)

	d, err = f.gatekeeper.Evaluate(ctx, f.payload(t, "anything"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoLoop, d.Outcome)

	assert.Equal(t, []Event{EventStarted, EventContinued, EventContinued, EventCompleted}, f.events(t))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "no_loop", OutcomeNoLoop.String())
	assert.Equal(t, "budget_exhausted", OutcomeBudgetExhausted.String())
	assert.Equal(t, "outcome(42)", Outcome(42).String())
}
