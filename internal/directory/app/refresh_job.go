package app

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/louisbranch/rolodex/internal/directory/settings"
	"github.com/louisbranch/rolodex/internal/directory/storage"
	"github.com/louisbranch/rolodex/internal/platform/schedule"
)

// RefreshJobName uniquely identifies the periodic agent refresh job.
const RefreshJobName = "directory.refresh-agents"

// DefaultRefreshInterval is the scheduled refresh cadence.
const DefaultRefreshInterval = 15 * time.Minute

// RefreshJob is the idempotent body of the scheduled agent refresh. Mode
// checks make disabled runs trivial successes; only an actual refresh
// failure requests a retry from the scheduler.
type RefreshJob struct {
	coordinator *Coordinator
	settings    settings.Store
	attempts    storage.RefreshLogStore
	trigger     string
	limit       int
}

// NewRefreshJob builds the job body. The attempt log may be nil, in which
// case outcomes are only logged.
func NewRefreshJob(coordinator *Coordinator, settingsStore settings.Store, attempts storage.RefreshLogStore) *RefreshJob {
	return &RefreshJob{
		coordinator: coordinator,
		settings:    settingsStore,
		attempts:    attempts,
		trigger:     storage.TriggerScheduled,
		limit:       DefaultRefreshLimit,
	}
}

// WithTrigger labels recorded attempts with a different trigger kind.
func (j *RefreshJob) WithTrigger(trigger string) *RefreshJob {
	copied := *j
	copied.trigger = trigger
	return &copied
}

// Run executes one refresh attempt.
func (j *RefreshJob) Run(ctx context.Context) schedule.Outcome {
	runID := uuid.NewString()

	auto, err := j.settings.AutoRefreshEnabled(ctx)
	if err != nil {
		j.record(ctx, runID, storage.OutcomeRetry, 0, err)
		return schedule.OutcomeRetry
	}
	if !auto {
		j.record(ctx, runID, storage.OutcomeSkipped, 0, nil)
		return schedule.OutcomeSuccess
	}

	offline, err := j.settings.OfflineOnly(ctx)
	if err != nil {
		j.record(ctx, runID, storage.OutcomeRetry, 0, err)
		return schedule.OutcomeRetry
	}
	if offline {
		j.record(ctx, runID, storage.OutcomeSkipped, 0, nil)
		return schedule.OutcomeSuccess
	}

	agents, err := j.coordinator.RefreshAgents(ctx, j.limit, 0)
	if err != nil {
		j.record(ctx, runID, storage.OutcomeRetry, 0, err)
		return schedule.OutcomeRetry
	}

	j.record(ctx, runID, storage.OutcomeSucceeded, len(agents), nil)
	return schedule.OutcomeSuccess
}

func (j *RefreshJob) record(ctx context.Context, runID, outcome string, count int, cause error) {
	lastError := ""
	if cause != nil {
		lastError = cause.Error()
		log.Printf("refresh %s (%s): %v", runID, outcome, cause)
	}
	if j.attempts == nil {
		return
	}
	if err := j.attempts.RecordRefreshAttempt(ctx, storage.RefreshAttempt{
		RunID:      runID,
		Trigger:    j.trigger,
		Outcome:    outcome,
		AgentCount: count,
		LastError:  lastError,
	}); err != nil {
		log.Printf("record refresh attempt %s: %v", runID, err)
	}
}
