package testathletes

import "time"

// HTTP status code constants.
const (
	StatusOK                 = 200
	StatusAccepted           = 202
	StatusServiceUnavailable = 503
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	DrainPollInterval    = 500 * time.Millisecond
	DrainTimeout         = 2 * time.Minute
	SettleDelay          = 2 * time.Second
	ProgressInterval     = 1 * time.Second
	PercentageMultiplier = 100
)
