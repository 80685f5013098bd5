// Package logging carries the non-failure diagnostics the teacher's
// zero-dependency core had nowhere to put: dial retry, reconnect, and
// pub/sub background errors that aren't a failure of any one command.
// Mirrors go-redis/v9's internal.Logging + SetLogger shape (vendored
// reference: redis.go's "func SetLogger(logger internal.Logging)").
package logging

import (
	"context"

	"go.uber.org/zap"
)

// Logging is the minimal sink every package in this module logs through.
// Command results and errors are never logged-and-swallowed here — only
// background lifecycle events that have no single caller to return to.
type Logging interface {
	Printf(ctx context.Context, format string, args ...any)
}

type noop struct{}

func (noop) Printf(context.Context, string, ...any) {}

// Noop discards everything; it is the default until SetDefault is called.
var Noop Logging = noop{}

var current = Noop

// SetDefault overrides the package-level default logger, mirroring
// go-redis/v9's process-wide SetLogger.
func SetDefault(l Logging) {
	if l == nil {
		l = Noop
	}
	current = l
}

// Default returns the current process-wide logger.
func Default() Logging { return current }

// Zap adapts a *zap.SugaredLogger to Logging, the ambient choice in this
// module's lineage (thalesmacena-go-api wires zap at its edges the same
// way).
type Zap struct {
	S *zap.SugaredLogger
}

// NewZap builds a Zap adapter from a *zap.Logger.
func NewZap(l *zap.Logger) *Zap {
	return &Zap{S: l.Sugar()}
}

// Printf implements Logging.
func (z *Zap) Printf(_ context.Context, format string, args ...any) {
	z.S.Infof(format, args...)
}

var _ Logging = (*Zap)(nil)
