package notify

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogTransport writes messages to the log instead of sending them. Bodies
// are logged at debug level because they contain links with tokens.
type LogTransport struct {
	Logger *zerolog.Logger
}

// Send logs msg.
func (l LogTransport) Send(_ context.Context, msg Message) error {
	lg := l.Logger
	if lg == nil {
		lg = &log.Logger
	}
	lg.Info().
		Int("recipients", len(msg.To)).
		Str("subject", msg.Subject).
		Msg("email (log transport)")
	lg.Debug().
		Strs("to", msg.To).
		Str("body", msg.Text).
		Msg("email body")
	return nil
}
