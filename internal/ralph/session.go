package ralph

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"syscall"

	"github.com/google/uuid"
)

// SessionEnvVar names the environment variable carrying an explicit session.
const SessionEnvVar = "RALPH_LOOP_SESSION"

// NewSessionKeyword asks the initializer to mint a fresh session handle.
const NewSessionKeyword = "new"

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Sessions resolves the identity of the session that owns a loop and
// answers whether another session's owner still exists.
type Sessions interface {
	// Current returns the identity of the calling session.
	Current() (string, error)
	// Alive reports whether the owner of id is still running.
	// Implementations must return true when liveness cannot be tested.
	Alive(id string) bool
}

// ValidateSessionID checks that id is safe to embed in a storage key.
func ValidateSessionID(id string) error {
	if !sessionIDPattern.MatchString(id) {
		return fmt.Errorf("invalid session id %q: must match [A-Za-z0-9_-]+", id)
	}
	return nil
}

// NewSessionID returns a random session handle.
func NewSessionID() string {
	return uuid.NewString()
}

// ProcessSessions identifies sessions by the agent runtime's process id.
//
// The runtime launches both the initializer and the Stop hook as direct
// children, so the parent pid is shared by every invocation within one
// agent session. An explicit id overrides that for runtimes that spawn
// commands through intermediate shells.
type ProcessSessions struct {
	// Explicit, when set, is returned by Current instead of the parent pid.
	Explicit string

	getppid func() int
	probe   func(pid int) error
}

// NewProcessSessions returns a ProcessSessions using explicit, falling back
// to RALPH_LOOP_SESSION, falling back to the parent pid.
func NewProcessSessions(explicit string) *ProcessSessions {
	if explicit == "" {
		explicit = os.Getenv(SessionEnvVar)
	}
	return &ProcessSessions{
		Explicit: explicit,
		getppid:  os.Getppid,
		probe:    signalZero,
	}
}

// Current implements Sessions.
func (s *ProcessSessions) Current() (string, error) {
	if s.Explicit != "" {
		if err := ValidateSessionID(s.Explicit); err != nil {
			return "", err
		}
		return s.Explicit, nil
	}
	ppid := s.getppid()
	if ppid <= 0 {
		return "", fmt.Errorf("cannot determine owning session: parent pid is %d; set %s", ppid, SessionEnvVar)
	}
	return strconv.Itoa(ppid), nil
}

// Alive implements Sessions. Only numeric ids are probed; anything else is
// reported alive and therefore never reclaimed.
func (s *ProcessSessions) Alive(id string) bool {
	pid, err := strconv.Atoi(id)
	if err != nil || pid <= 0 {
		return true
	}
	err = s.probe(pid)
	// EPERM means the process exists but belongs to another user.
	return err == nil || errors.Is(err, syscall.EPERM)
}

func signalZero(pid int) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return process.Signal(syscall.Signal(0))
}

// StaticSessions is a fixed Sessions implementation for tests and embedding.
type StaticSessions struct {
	ID   string
	Dead map[string]bool
}

// Current implements Sessions.
func (s *StaticSessions) Current() (string, error) {
	if err := ValidateSessionID(s.ID); err != nil {
		return "", err
	}
	return s.ID, nil
}

// Alive implements Sessions.
func (s *StaticSessions) Alive(id string) bool {
	return !s.Dead[id]
}
