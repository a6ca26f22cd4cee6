package ralph

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoAssistantMessage is returned when a transcript has no assistant record.
var ErrNoAssistantMessage = errors.New("no assistant message in transcript")

const (
	roleAssistant   = "assistant"
	contentTypeText = "text"
)

// TranscriptEntry is one JSONL record of an agent transcript. Only the
// fields needed to find assistant text are decoded.
type TranscriptEntry struct {
	Type    string             `json:"type"`
	Role    string             `json:"role"`
	Message *TranscriptMessage `json:"message"`
}

// IsAssistant reports whether the entry was produced by the agent.
func (e *TranscriptEntry) IsAssistant() bool {
	if e.Role == roleAssistant || e.Type == roleAssistant {
		return true
	}
	return e.Message != nil && e.Message.Role == roleAssistant
}

// TranscriptMessage is the message payload of a transcript entry.
// Content is either a plain string or an array of content blocks.
type TranscriptMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// ContentBlock is a single block of message content.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ExtractText returns the text blocks of the message joined by newlines.
func (m *TranscriptMessage) ExtractText() string {
	content := bytes.TrimSpace(m.Content)
	if len(content) == 0 {
		return ""
	}
	if content[0] == '"' {
		var s string
		if err := json.Unmarshal(content, &s); err != nil {
			return ""
		}
		return s
	}

	var blocks []ContentBlock
	if err := json.Unmarshal(content, &blocks); err != nil {
		return ""
	}
	var texts []string
	for _, block := range blocks {
		if block.Type == contentTypeText && block.Text != "" {
			texts = append(texts, block.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// LastAssistantText returns the text of the last assistant entry in a JSONL
// transcript. Lines that are not valid JSON are skipped.
func LastAssistantText(r io.Reader) (string, error) {
	br := bufio.NewReader(r)
	var (
		last  string
		found bool
	)
	for {
		line, readErr := br.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			var entry TranscriptEntry
			if err := json.Unmarshal(line, &entry); err == nil && entry.IsAssistant() {
				found = true
				last = ""
				if entry.Message != nil {
					last = entry.Message.ExtractText()
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", fmt.Errorf("reading transcript: %w", readErr)
		}
	}
	if !found {
		return "", ErrNoAssistantMessage
	}
	return last, nil
}

// ReadLastAssistantText opens path and calls LastAssistantText.
func ReadLastAssistantText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening transcript: %w", err)
	}
	defer f.Close()
	return LastAssistantText(f)
}
