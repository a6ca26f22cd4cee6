package ralph

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

const (
	// RecordPrefix starts every Loop State Record key.
	RecordPrefix = "ralph-loop."
	// RecordSuffix ends every Loop State Record key.
	RecordSuffix = ".local.md"

	separator = "---"
)

var (
	decimalPattern = regexp.MustCompile(`^[1-9][0-9]*$`)
	textFields     = []string{"completion_promise", "started_at", "loop_id"}
)

// ErrCorrupt matches every *CorruptError with errors.Is.
var ErrCorrupt = errors.New("ralph-loop state corrupted")

// CorruptError reports a Loop State Record that cannot be trusted.
// Records are never repaired or coerced; callers leave them in place.
type CorruptError struct {
	Field  string
	Value  string
	Reason string
}

func (e *CorruptError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("ralph-loop state corrupted: %s", e.Reason)
	}
	if e.Value == "" {
		return fmt.Sprintf("ralph-loop state corrupted: %s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("ralph-loop state corrupted: %s %q %s", e.Field, e.Value, e.Reason)
}

// Is reports ErrCorrupt as a match.
func (e *CorruptError) Is(target error) bool {
	return target == ErrCorrupt
}

// Record is the persisted state of one active loop.
type Record struct {
	Active            bool   `yaml:"active" json:"active"`
	Iteration         int    `yaml:"iteration" json:"iteration"`
	MaxIterations     int    `yaml:"max_iterations" json:"max_iterations"`
	CompletionPromise string `yaml:"completion_promise" json:"completion_promise"`
	StartedAt         string `yaml:"started_at" json:"started_at"`
	LoopID            string `yaml:"loop_id" json:"loop_id,omitempty"`

	// Goal is the record body, re-sent verbatim on every continuation.
	Goal string `yaml:"-" json:"goal"`
}

// Exhausted reports whether the iteration budget has been used up.
func (r *Record) Exhausted() bool {
	return r.Iteration >= r.MaxIterations
}

// Marker returns the completion marker the agent must emit.
func (r *Record) Marker() string {
	return PromiseMarker(r.CompletionPromise)
}

// PromiseMarker wraps token in <promise> tags.
func PromiseMarker(token string) string {
	return "<promise>" + token + "</promise>"
}

// RecordKey returns the storage key for the record owned by session.
func RecordKey(session string) string {
	return RecordPrefix + session + RecordSuffix
}

// ParseRecordKey extracts the owning session from a record key.
func ParseRecordKey(key string) (string, bool) {
	if !strings.HasPrefix(key, RecordPrefix) || !strings.HasSuffix(key, RecordSuffix) {
		return "", false
	}
	session := key[len(RecordPrefix) : len(key)-len(RecordSuffix)]
	if ValidateSessionID(session) != nil {
		return "", false
	}
	return session, true
}

// EncodeRecord renders r as a header block followed by the goal.
func EncodeRecord(r *Record) ([]byte, error) {
	header := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, value *yaml.Node) {
		header.Content = append(header.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			value,
		)
	}
	quoted := func(s string) *yaml.Node {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: yaml.DoubleQuotedStyle, Value: s}
	}

	add("active", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(r.Active)})
	add("iteration", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(r.Iteration)})
	add("max_iterations", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(r.MaxIterations)})
	add("completion_promise", quoted(r.CompletionPromise))
	add("started_at", quoted(r.StartedAt))
	if r.LoopID != "" {
		add("loop_id", quoted(r.LoopID))
	}

	out, err := yaml.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("encoding record header: %w", err)
	}

	var b strings.Builder
	b.WriteString(separator + "\n")
	b.Write(out)
	b.WriteString(separator + "\n")
	b.WriteString(r.Goal)
	b.WriteString("\n")
	return []byte(b.String()), nil
}

// DecodeRecord parses a record written by EncodeRecord or by hand.
// Any structural or type problem yields a *CorruptError.
func DecodeRecord(data []byte) (*Record, error) {
	header, body, err := splitRecord(string(data))
	if err != nil {
		return nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(header), &doc); err != nil {
		return nil, &CorruptError{Field: "header", Reason: err.Error()}
	}
	if len(doc.Content) == 0 {
		return nil, &CorruptError{Reason: "header block is empty"}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &CorruptError{Field: "header", Reason: "is not a key/value block"}
	}

	ints := make(map[string]*yaml.Node, 2)
	fields := make(map[string]any, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i].Value, root.Content[i+1]
		switch {
		case key == "iteration" || key == "max_iterations":
			ints[key] = value
		case slices.Contains(textFields, key) && value.Kind == yaml.ScalarNode:
			// Raw text, so dates and numbers stay exactly as written.
			if value.ShortTag() != "!!null" {
				fields[key] = value.Value
			}
		default:
			var v any
			if err := value.Decode(&v); err != nil {
				return nil, &CorruptError{Field: "header", Reason: err.Error()}
			}
			fields[key] = v
		}
	}

	rec := &Record{Goal: strings.TrimRight(body, "\n")}
	if rec.Iteration, err = positiveInt(ints, "iteration"); err != nil {
		return nil, err
	}
	if rec.MaxIterations, err = positiveInt(ints, "max_iterations"); err != nil {
		return nil, err
	}

	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:  "yaml",
		Result:   rec,
		Metadata: &md,
	})
	if err != nil {
		return nil, fmt.Errorf("building record decoder: %w", err)
	}
	if err := dec.Decode(fields); err != nil {
		return nil, &CorruptError{Field: "header", Reason: err.Error()}
	}

	if slices.Contains(md.Unset, "completion_promise") {
		return nil, &CorruptError{Field: "completion_promise", Reason: "is missing"}
	}
	if rec.CompletionPromise == "" {
		return nil, &CorruptError{Field: "completion_promise", Reason: "is empty"}
	}
	return rec, nil
}

// splitRecord separates the header block from the body. The body is every
// byte after the closing separator line, so separators inside the goal stay.
func splitRecord(text string) (header, body string, err error) {
	first, rest, more := strings.Cut(text, "\n")
	if strings.TrimRight(first, "\r") != separator || !more {
		return "", "", &CorruptError{Reason: "missing opening --- separator"}
	}

	var b strings.Builder
	for {
		line, after, more := strings.Cut(rest, "\n")
		if strings.TrimRight(line, "\r") == separator {
			return b.String(), after, nil
		}
		if !more {
			return "", "", &CorruptError{Reason: "missing closing --- separator"}
		}
		b.WriteString(line)
		b.WriteByte('\n')
		rest = after
	}
}

// positiveInt accepts only plain decimal literals. YAML would otherwise
// resolve forms like 010, 0x9, 1_0 or +3 to some other number.
func positiveInt(nodes map[string]*yaml.Node, key string) (int, error) {
	node, ok := nodes[key]
	if !ok {
		return 0, &CorruptError{Field: key, Reason: "is missing"}
	}
	bad := &CorruptError{Field: key, Value: node.Value, Reason: "is not a positive integer"}
	if node.Kind != yaml.ScalarNode || node.Style != 0 || !decimalPattern.MatchString(node.Value) {
		return 0, bad
	}
	n, err := strconv.Atoi(node.Value)
	if err != nil {
		return 0, bad
	}
	return n, nil
}
