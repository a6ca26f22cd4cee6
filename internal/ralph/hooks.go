package ralph

import (
	"encoding/json"
	"strings"
)

// Hook event names matching Claude Code settings.json.
const (
	EventNameStop = "Stop"
)

// Hook handler types matching Claude Code settings.json.
const (
	HandlerCommand = "command"
)

// HookHandler is a single hook action matching the Claude Code settings.json format.
type HookHandler struct {
	Type    string `json:"type"`
	Command string `json:"command,omitempty"`
	Timeout int    `json:"timeout,omitempty"`
}

// HookMatcherGroup is a matcher regex paired with one or more hook handlers.
type HookMatcherGroup struct {
	Matcher string        `json:"matcher,omitempty"`
	Hooks   []HookHandler `json:"hooks"`
}

// HookConfig maps event names to matcher groups.
// This is the value of the "hooks" key in Claude Code's settings.json.
type HookConfig map[string][]HookMatcherGroup

// StopHookCommand builds the command line the runtime runs after each turn.
// binary is the ralph-loop executable; extra args are appended shell-quoted.
func StopHookCommand(binary string, args ...string) string {
	parts := []string{shellQuote(binary), "stop-hook"}
	for _, a := range args {
		parts = append(parts, shellQuote(a))
	}
	return strings.Join(parts, " ")
}

// DefaultHooks registers command as the Stop hook.
// timeout is in seconds; zero leaves the runtime default.
func DefaultHooks(command string, timeout int) HookConfig {
	return HookConfig{
		EventNameStop: {
			{
				Hooks: []HookHandler{
					{
						Type:    HandlerCommand,
						Command: command,
						Timeout: timeout,
					},
				},
			},
		},
	}
}

// MarshalSettingsJSON serializes the hook config as a settings.json fragment
// with the "hooks" wrapper key: {"hooks": {...}}.
func (hc HookConfig) MarshalSettingsJSON() ([]byte, error) {
	wrapper := struct {
		Hooks HookConfig `json:"hooks"`
	}{
		Hooks: hc,
	}
	return json.MarshalIndent(wrapper, "", "  ")
}

// shellQuote wraps s in single quotes unless it is made only of characters
// the shell passes through unchanged.
func shellQuote(s string) string {
	if s != "" && strings.Trim(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_./=:@+") == "" {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
}
