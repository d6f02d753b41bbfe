package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/roach88/fluxury/internal/dispatcher"
	"github.com/roach88/fluxury/internal/flux"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewFlux returns a Flux wired for reproducible tests: silent logger,
// broadcast IDs b-1, b-2, ... and a fresh logical clock. Extra options are
// applied last and may override these.
func NewFlux(t testing.TB, opts ...flux.Option) *flux.Flux {
	t.Helper()
	base := []flux.Option{
		flux.WithLogger(DiscardLogger()),
		flux.WithBroadcastIDs(NewSequentialIDGenerator("b")),
		flux.WithClock(dispatcher.NewClock()),
	}
	return flux.New(append(base, opts...)...)
}
