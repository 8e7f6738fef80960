package burrowdb

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// logger wraps a zerolog.Logger scoped to one DB instance (and, via
// withComponent, to one component within it). Keys and values are never
// logged; debug is used for lock-wait, transaction begin/commit and
// superblock-initialization events, info when a DB is opened, warn when
// a transaction aborts and error when releasing the write lock fails.
type logger struct {
	zl zerolog.Logger
}

// newLogger builds a logger writing JSON lines to w at the given level.
// A nil w defaults to os.Stderr.
func newLogger(w io.Writer, level zerolog.Level) logger {
	if w == nil {
		w = os.Stderr
	}
	return logger{zl: zerolog.New(w).With().Timestamp().Logger().Level(level)}
}

func defaultLogger() logger {
	return newLogger(os.Stderr, zerolog.InfoLevel)
}

// withComponent returns a child logger tagging every subsequent event
// with component, e.g. "storage" or "txn".
func (l logger) withComponent(component string) logger {
	return logger{zl: l.zl.With().Str("component", component).Logger()}
}

func (l logger) withTxn(txnID string) logger {
	return logger{zl: l.zl.With().Str("txn_id", txnID).Logger()}
}

func (l logger) debug(msg string) { l.zl.Debug().Msg(msg) }
func (l logger) info(msg string)  { l.zl.Info().Msg(msg) }
func (l logger) warn(msg string)  { l.zl.Warn().Msg(msg) }

func (l logger) errorErr(msg string, err error) {
	l.zl.Error().Err(err).Msg(msg)
}

func (l logger) debugDur(msg string, ms int64) {
	l.zl.Debug().Int64("duration_ms", ms).Msg(msg)
}
