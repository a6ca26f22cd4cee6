package ralph

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastAssistantText(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		want       string
		wantErr    error
	}{
		{
			name:       "role at top level",
			transcript: `{"role":"assistant","message":{"content":[{"type":"text","text":"hello"}]}}`,
			want:       "hello",
		},
		{
			name:       "type at top level",
			transcript: `{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"typed"}]}}`,
			want:       "typed",
		},
		{
			name:       "role inside message",
			transcript: `{"message":{"role":"assistant","content":[{"type":"text","text":"nested"}]}}`,
			want:       "nested",
		},
		{
			name:       "string content",
			transcript: `{"role":"assistant","message":{"content":"plain string"}}`,
			want:       "plain string",
		},
		{
			name: "text blocks joined, other blocks ignored",
			transcript: `{"type":"assistant","message":{"content":[` +
				`{"type":"text","text":"first"},` +
				`{"type":"tool_use","id":"t1","name":"Bash","input":{}},` +
				`{"type":"text","text":"second"}]}}`,
			want: "first\nsecond",
		},
		{
			name: "last assistant wins",
			transcript: strings.Join([]string{
				`{"role":"assistant","message":{"content":[{"type":"text","text":"<promise>DONE</promise>"}]}}`,
				`{"role":"user","message":{"content":"keep going"}}`,
				`{"role":"assistant","message":{"content":[{"type":"text","text":"latest"}]}}`,
				`{"role":"user","message":{"content":[{"type":"tool_result","content":"ok"}]}}`,
			}, "\n"),
			want: "latest",
		},
		{
			name: "invalid lines skipped",
			transcript: strings.Join([]string{
				`{"role":"assistant","message":{"content":[{"type":"text","text":"good"}]}}`,
				`{truncated`,
				``,
				`"just a string"`,
			}, "\n") + "\n",
			want: "good",
		},
		{
			name:       "assistant without text",
			transcript: `{"role":"assistant","message":{"content":[{"type":"tool_use","id":"x"}]}}`,
			want:       "",
		},
		{
			name:       "no assistant",
			transcript: `{"role":"user","message":{"content":"hi"}}`,
			wantErr:    ErrNoAssistantMessage,
		},
		{
			name:       "empty transcript",
			transcript: "",
			wantErr:    ErrNoAssistantMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LastAssistantText(strings.NewReader(tt.transcript))
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLastAssistantText_LongLine(t *testing.T) {
	long := strings.Repeat("x", 1<<20)
	transcript := `{"role":"assistant","message":{"content":[{"type":"text","text":"` + long + ` <promise>OK</promise>"}]}}`

	got, err := LastAssistantText(strings.NewReader(transcript))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(got, "<promise>OK</promise>"))
}

func TestReadLastAssistantText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"role":"assistant","message":{"content":"x"}}`+"\n"), 0o644))

	got, err := ReadLastAssistantText(path)
	require.NoError(t, err)
	assert.Equal(t, "x", got)

	_, err = ReadLastAssistantText(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)
}

func TestParseHookInput(t *testing.T) {
	in, err := ParseHookInput([]byte(`{"transcript_path":"/tmp/t.jsonl","session_id":"s","stop_hook_active":true,"cwd":"/w","hook_event_name":"Stop","extra":1}`))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/t.jsonl", in.Transcript())
	assert.True(t, in.StopHookActive)
	assert.Equal(t, "Stop", in.HookEventName)

	_, err = ParseHookInput([]byte(`{}`))
	assert.Error(t, err)
	_, err = ParseHookInput([]byte(``))
	assert.Error(t, err)

	rel := &HookInput{TranscriptPath: "t.jsonl"}
	assert.Equal(t, "t.jsonl", rel.Transcript())
}
