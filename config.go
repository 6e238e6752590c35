package flowrelay

import "time"

// Config holds the timing knobs shared by the coordinator and the store
// backends. The defaults reproduce the behaviour of the legacy system; all
// values are per-deployment tunables.
type Config struct {
	// PollInterval is how long the drain loop idles when the event channel
	// is empty before re-reading the status record.
	PollInterval time.Duration

	// BusyTimeout is the short liveness window: a run stuck in WAITING or
	// INPUT_OVER without a status update for longer than this is treated as
	// worker saturation and forced to FAILED.
	BusyTimeout time.Duration

	// OrphanCeiling is the long staleness ceiling: a run whose status has
	// not been updated for longer than this is treated as orphaned,
	// forced to FAILED, and asked to stop.
	OrphanCeiling time.Duration

	// RunTTL is the time-to-live applied to the data, event, and input keys.
	// It should be the workflow execution timeout plus a grace period.
	RunTTL time.Duration

	// StatusRetention is the time-to-live of the status key. It is long so a
	// slow consumer can still observe a terminal state.
	StatusRetention time.Duration

	// StopRetention is the time-to-live of the stop flag.
	StopRetention time.Duration
}

// DefaultConfig returns a Config with the legacy defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval:    200 * time.Millisecond,
		BusyTimeout:     10 * time.Second,
		OrphanCeiling:   24 * time.Hour,
		RunTTL:          30*time.Minute + time.Minute,
		StatusRetention: 7 * 24 * time.Hour,
		StopRetention:   24 * time.Hour,
	}
}
