package burrowdb

import "io"

// Options configures Open. The zero value is valid: it opens with a
// default stderr JSON logger, a fresh private metrics registry, and no
// tuning profile override.
type Options struct {
	// LogWriter is where the instance's logger writes JSON lines. Nil
	// defaults to os.Stderr.
	LogWriter io.Writer

	// TuningProfile overrides the built-in defaults for node pool sizing
	// and lock-wait log thresholds. A zero value uses defaultTuningProfile.
	TuningProfile TuningProfile

	pendingProfilePath string
}

// Option mutates Options during Open.
type Option func(*Options)

// WithLogWriter sets the destination for the instance's structured log.
func WithLogWriter(w io.Writer) Option {
	return func(o *Options) { o.LogWriter = w }
}

// WithTuningProfile overrides node pool sizing and lock-wait thresholds.
func WithTuningProfile(p TuningProfile) Option {
	return func(o *Options) { o.TuningProfile = p }
}

// WithTuningProfileFile loads a tuning profile from a YAML file at open
// time. Open returns the load error, if any, instead of applying a
// partial profile.
func WithTuningProfileFile(path string) Option {
	return func(o *Options) {
		o.pendingProfilePath = path
	}
}

func newOptions(opts ...Option) Options {
	o := Options{TuningProfile: defaultTuningProfile()}
	for _, apply := range opts {
		apply(&o)
	}
	if o.TuningProfile == (TuningProfile{}) {
		o.TuningProfile = defaultTuningProfile()
	}
	return o
}
