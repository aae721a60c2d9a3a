package cron

import "time"

// WatchJobState is the runtime state of a watch job.
type WatchJobState struct {
	NextRunAtMs int64   `json:"nextRunAtMs,omitempty"`
	LastRunAtMs int64   `json:"lastRunAtMs,omitempty"`
	LastStatus  string  `json:"lastStatus,omitempty"` // ok, low, error
	LastError   string  `json:"lastError,omitempty"`
	LastBalance float64 `json:"lastBalance,omitempty"`
}

// WatchJob checks the balance on Schedule and reports it against Threshold.
type WatchJob struct {
	ID          string        `json:"id"`
	Schedule    string        `json:"schedule"`
	Threshold   float64       `json:"threshold"`
	State       WatchJobState `json:"state"`
	CreatedAtMs int64         `json:"createdAtMs"`
}

// BalanceCheck is the result of one tick.
type BalanceCheck struct {
	JobID     string
	Balance   float64
	Threshold float64
	Low       bool
	Err       error
	CheckedAt time.Time
}
