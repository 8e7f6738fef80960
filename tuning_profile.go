package burrowdb

import (
	"os"

	"gopkg.in/yaml.v3"
)

// TuningProfile holds the handful of operational knobs an implementer
// might want to adjust without touching code. It is not a general
// configuration mechanism: there is no CLI or environment-variable
// surface, only the Open options WithTuningProfile and
// WithTuningProfileFile (an optional YAML file loaded at Open time).
type TuningProfile struct {
	// NodePoolSize is the number of nodes the recycling pool is
	// pre-warmed with at Open time.
	NodePoolSize int `yaml:"node_pool_size"`

	// LockWaitLogThresholdMs is the minimum wait, in milliseconds, on the
	// advisory file lock before a debug event is logged.
	LockWaitLogThresholdMs int64 `yaml:"lock_wait_log_threshold_ms"`
}

func defaultTuningProfile() TuningProfile {
	return TuningProfile{
		NodePoolSize:           256,
		LockWaitLogThresholdMs: 50,
	}
}

// loadTuningProfile reads and parses a YAML tuning profile file. It
// unmarshals on top of defaultTuningProfile(), so fields absent from
// the file keep their default values.
func loadTuningProfile(path string) (TuningProfile, error) {
	p := defaultTuningProfile()

	data, err := os.ReadFile(path)
	if err != nil {
		return TuningProfile{}, ioErr("read tuning profile", err)
	}

	if err := yaml.Unmarshal(data, &p); err != nil {
		return TuningProfile{}, codecErr("parse tuning profile", err)
	}

	return p, nil
}
