package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"beacons-hub/cache"
	apierrors "beacons-hub/errors"
	"beacons-hub/jobdispatcher"
	"beacons-hub/logger"
	"beacons-hub/metrics"
	"beacons-hub/sequence"
	"beacons-hub/tasks"
)

// Orchestrator exit outcomes, as reported to metrics.
const (
	ExitSuccess      = "success"
	ExitSuperseded   = "superseded"
	ExitTimeout      = "timeout"
	ExitStatusError  = "status_error"
	ExitNotFound     = "not_found"
	ExitJobFailed    = "job_failed"
	ExitResultsError = "results_error"
	ExitNoSummaries  = "no_summaries"
)

// JobClient is the part of the dispatcher client the orchestrator polls.
type JobClient interface {
	Status(ctx context.Context, handle string) (jobdispatcher.Status, error)
	FetchResults(ctx context.Context, handle string) (*jobdispatcher.SearchResults, error)
}

// HitEnricher attaches summaries to records and reports how many got one.
type HitEnricher interface {
	Enrich(ctx context.Context, records map[string]sequence.HitRecord) int
}

type SearchSettings struct {
	MaxWait           time.Duration
	SleepTime         time.Duration
	IdentityThreshold float64
}

var _ TaskHandler = (*SequenceSearchHandler)(nil)

// SequenceSearchHandler follows one dispatcher job until it finishes, then
// materializes the filtered and enriched hits under the task's own ID.
//
// The task ID is the execution's handle. Before every step the handler checks
// that the handle cached for the sequence is still its own; a run that lost
// that race exits without touching the cache.
type SequenceSearchHandler struct {
	jobs     JobClient
	enricher HitEnricher
	store    *sequence.Store
	settings SearchSettings
	sleeper  Sleeper
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

func NewSequenceSearchHandler(
	jobs JobClient,
	enricher HitEnricher,
	store *sequence.Store,
	settings SearchSettings,
	m *metrics.Metrics,
	lg *logger.Logger,
) *SequenceSearchHandler {
	return &SequenceSearchHandler{
		jobs:     jobs,
		enricher: enricher,
		store:    store,
		settings: settings,
		sleeper:  realSleeper{},
		metrics:  m,
		logger:   lg,
	}
}

// WithSleeper replaces the poll interval wait.
func (h *SequenceSearchHandler) WithSleeper(s Sleeper) *SequenceSearchHandler {
	h.sleeper = s
	return h
}

// searchRun is the state of one execution.
type searchRun struct {
	taskID string
	jobID  string
	hash   string
	waited time.Duration
}

func (h *SequenceSearchHandler) Run(ctx context.Context, task *tasks.Task) error {
	var p tasks.SequenceSearchPayload
	if err := json.Unmarshal(task.Payload, &p); err != nil {
		return apierrors.NewValidationError("invalid sequence search payload", map[string]any{
			"task_id": task.ID,
			"error":   err.Error(),
		})
	}
	if p.JobID == "" || p.SequenceHash == "" {
		return apierrors.NewValidationError("sequence search payload requires job_id and sequence_hash", map[string]any{
			"task_id": task.ID,
		})
	}

	run := &searchRun{taskID: task.ID, jobID: p.JobID, hash: p.SequenceHash}

	h.logger.Job(run.hash, "following dispatcher job", map[string]any{
		"task_id": run.taskID,
		"job_id":  run.jobID,
	})

	summary, err := h.follow(ctx, run)
	if err != nil {
		return err
	}
	task.Result = summary
	return nil
}

func (h *SequenceSearchHandler) follow(ctx context.Context, run *searchRun) (string, error) {
	for {
		current, err := h.authoritative(ctx, run)
		if err != nil {
			return "", err
		}
		if !current {
			return h.exit(run, ExitSuperseded), nil
		}

		if run.waited > h.settings.MaxWait {
			h.cleanup(ctx, run)
			return h.exit(run, ExitTimeout), nil
		}

		status, err := h.jobs.Status(ctx, run.jobID)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			h.logger.Job(run.hash, "dispatcher status unavailable", map[string]any{
				"task_id": run.taskID,
				"job_id":  run.jobID,
				"error":   err.Error(),
			})
			h.cleanup(ctx, run)
			return h.exit(run, ExitStatusError), nil
		}

		switch status {
		case jobdispatcher.StatusRunning:
			if err := h.sleeper.Sleep(ctx, h.settings.SleepTime); err != nil {
				return "", err
			}
			run.waited += h.settings.SleepTime

		case jobdispatcher.StatusFinished:
			return h.complete(ctx, run)

		case jobdispatcher.StatusNotFound:
			h.cleanup(ctx, run)
			return h.exit(run, ExitNotFound), nil

		case jobdispatcher.StatusFailed:
			h.cleanup(ctx, run)
			return h.exit(run, ExitJobFailed), nil

		default:
			h.cleanup(ctx, run)
			return "", fmt.Errorf("unhandled dispatcher status %s", status)
		}
	}
}

func (h *SequenceSearchHandler) complete(ctx context.Context, run *searchRun) (string, error) {
	results, err := h.jobs.FetchResults(ctx, run.jobID)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		h.cleanup(ctx, run)
		h.exit(run, ExitResultsError)
		return "", fmt.Errorf("fetching results of job %s: %w", run.jobID, err)
	}

	records := sequence.NewHitRecords(sequence.FilterHits(results, h.settings.IdentityThreshold))
	enriched := h.enricher.Enrich(ctx, records)
	if err := ctx.Err(); err != nil {
		return "", err
	}

	current, err := h.authoritative(ctx, run)
	if err != nil {
		return "", err
	}
	if !current {
		return h.exit(run, ExitSuperseded), nil
	}

	if enriched == 0 {
		h.logger.Job(run.hash, "no hit could be enriched", map[string]any{
			"task_id": run.taskID,
			"hits":    len(records),
			"total":   len(results.Hits),
			"job_id":  run.jobID,
		})
		h.cleanup(ctx, run)
		return h.exit(run, ExitNoSummaries), nil
	}

	if err := h.store.SetResults(context.WithoutCancel(ctx), run.taskID, records); err != nil {
		return "", fmt.Errorf("storing results: %w", err)
	}

	h.logger.Job(run.hash, "search results stored", map[string]any{
		"task_id":  run.taskID,
		"hits":     len(records),
		"enriched": enriched,
		"waited":   run.waited.String(),
	})
	h.exit(run, ExitSuccess)

	return fmt.Sprintf("%d hits, %d with summary", len(records), enriched), nil
}

// authoritative reports whether the cached task handle of the sequence is
// still this execution's. A missing handle means the search was cleared.
func (h *SequenceSearchHandler) authoritative(ctx context.Context, run *searchRun) (bool, error) {
	handle, err := h.store.TaskHandle(ctx, run.hash)
	if errors.Is(err, cache.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading task handle: %w", err)
	}
	return handle == run.taskID, nil
}

// cleanup removes both handles of the sequence while they are still ours;
// losing that race leaves them to the newer execution.
func (h *SequenceSearchHandler) cleanup(ctx context.Context, run *searchRun) {
	if _, err := h.store.Release(context.WithoutCancel(ctx), run.hash, run.taskID); err != nil {
		h.logger.Job(run.hash, "failed to release search handles", map[string]any{
			"task_id": run.taskID,
			"error":   err.Error(),
		})
	}
}

func (h *SequenceSearchHandler) exit(run *searchRun, outcome string) string {
	h.metrics.ObserveOrchestratorExit(outcome)
	h.logger.Job(run.hash, "orchestrator finished", map[string]any{
		"task_id": run.taskID,
		"job_id":  run.jobID,
		"outcome": outcome,
		"waited":  run.waited.String(),
	})
	return outcome
}
