// Package cron runs periodic background jobs, such as re-probing the fgbio
// toolkit so health and metrics reflect a toolkit that disappeared or was
// upgraded after startup.
package cron

import "context"

// Job defines a periodic background task.
type Job interface {
	// Name returns a unique identifier for this job (used for logging and dedup).
	Name() string

	// Schedule returns a 5-field cron expression ("*/5 * * * *") or a
	// descriptor ("@every 5m", "@hourly").
	Schedule() string

	// Run executes the job. Implementations should check ctx.Done() for
	// graceful cancellation.
	Run(ctx context.Context) error
}
