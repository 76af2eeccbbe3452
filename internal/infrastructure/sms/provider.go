// Package sms abstracts the SMS gateway used to deliver verification codes.
package sms

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Provider sends one verification code to one phone.
type Provider interface {
	Send(ctx context.Context, phone int64, code string) error
}

// LogProvider writes the message to the log instead of a real gateway.
// Useful for development and tests; production wires an actual provider
// behind the same interface.
type LogProvider struct {
	log zerolog.Logger
}

func NewLogProvider(log zerolog.Logger) *LogProvider {
	return &LogProvider{log: log}
}

func (p *LogProvider) Send(_ context.Context, phone int64, code string) error {
	p.log.Info().
		Int64("phone", phone).
		Str("message", fmt.Sprintf("Verification code %s for phone %d", code, phone)).
		Msg("sms sent")
	return nil
}
