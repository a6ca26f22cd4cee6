package iostreams

import "github.com/rs/zerolog"

// Logger provides diagnostic file logging for the command layer.
// *zerolog.Logger and logger.Contextual both satisfy it.
// Tests use loggertest.New() or loggertest.NewNop().
type Logger interface {
	Debug() *zerolog.Event
	Info() *zerolog.Event
	Warn() *zerolog.Event
	Error() *zerolog.Event
}
