package ralph

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
)

// HookInput is the JSON payload the agent runtime sends to a Stop hook.
type HookInput struct {
	TranscriptPath string `json:"transcript_path"`
	SessionID      string `json:"session_id"`
	StopHookActive bool   `json:"stop_hook_active"`
	CWD            string `json:"cwd"`
	HookEventName  string `json:"hook_event_name"`
}

// ParseHookInput decodes a Stop hook payload. transcript_path is required.
func ParseHookInput(data []byte) (*HookInput, error) {
	var in HookInput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parsing hook input: %w", err)
	}
	if in.TranscriptPath == "" {
		return nil, errors.New("hook input has no transcript_path")
	}
	return &in, nil
}

// Transcript returns the transcript path, resolved against the payload's
// working directory when it is relative.
func (in *HookInput) Transcript() string {
	if filepath.IsAbs(in.TranscriptPath) || in.CWD == "" {
		return in.TranscriptPath
	}
	return filepath.Join(in.CWD, in.TranscriptPath)
}
