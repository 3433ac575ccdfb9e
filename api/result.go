package api

import (
	stderrors "errors"
	"net/http"

	"beacons-hub/cache"
	"beacons-hub/errors"
	"beacons-hub/logger"
	"beacons-hub/metrics"
	"beacons-hub/sequence"
	"beacons-hub/tasks"
	"beacons-hub/tasks/orchestrator"
)

// Result poll states, as reported to metrics.
const (
	pollNotFound   = "not_found"
	pollInProgress = "in_progress"
	pollEmpty      = "empty"
	pollDone       = "done"
	pollFailed     = "failed"
)

// NewSequenceResultHandler handles GET /sequence/result?job_id=<hash>. It
// only reads the orchestrator task's lifecycle and never calls the dispatcher.
func NewSequenceResultHandler(
	store *sequence.Store,
	orch orchestrator.Orchestrator,
	m *metrics.Metrics,
	lg *logger.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		hash := r.URL.Query().Get("job_id")
		if hash == "" {
			respondMessage(w, http.StatusBadRequest, MsgMissingJobID, lg)
			return
		}

		taskID, err := store.TaskHandle(ctx, hash)
		if stderrors.Is(err, cache.ErrNotFound) {
			// only a job handle can be left behind without a task handle
			if err := store.ClearJobHandle(ctx, hash); err != nil {
				lg.Job(hash, "failed to clear search state", map[string]any{"error": err.Error()})
			}
			m.ObserveResultPoll(pollNotFound)
			respondMessage(w, http.StatusBadRequest, MsgNoSearchFound, lg)
			return
		}
		if err != nil {
			lg.Job(hash, "cache lookup failed", map[string]any{"error": err.Error()})
			respondMessage(w, http.StatusServiceUnavailable, MsgCacheUnavailable, lg)
			return
		}

		status, err := orch.GetTaskStatus(ctx, taskID)
		if err != nil {
			apiErr, ok := errors.AsAPIError(err)
			if !ok || apiErr.Type != errors.NotFoundError {
				lg.Job(hash, "task lookup failed", map[string]any{
					"task_id": taskID,
					"error":   err.Error(),
				})
				respondMessage(w, http.StatusServiceUnavailable, MsgCacheUnavailable, lg)
				return
			}
			// lost task metadata is a failed search
			status = tasks.StatusFailure
		}

		switch status {
		case tasks.StatusPending, tasks.StatusStarted:
			m.ObserveResultPoll(pollInProgress)
			respondMessage(w, http.StatusAccepted, MsgSearchInProgress, lg)

		case tasks.StatusSuccess:
			records, err := store.Results(ctx, taskID)
			if err != nil && !stderrors.Is(err, cache.ErrNotFound) {
				lg.Job(hash, "results lookup failed", map[string]any{
					"task_id": taskID,
					"error":   err.Error(),
				})
				respondMessage(w, http.StatusServiceUnavailable, MsgCacheUnavailable, lg)
				return
			}
			if len(records) == 0 {
				m.ObserveResultPoll(pollEmpty)
				respondJSON(w, http.StatusNotFound, struct{}{}, lg)
				return
			}
			m.ObserveResultPoll(pollDone)
			respondJSON(w, http.StatusOK, sequence.Hits(records), lg)

		default:
			// a resubmission may have registered a newer task meanwhile
			if _, err := store.Release(ctx, hash, taskID); err != nil {
				lg.Job(hash, "failed to release search state", map[string]any{
					"task_id": taskID,
					"error":   err.Error(),
				})
			}
			m.ObserveResultPoll(pollFailed)
			lg.Job(hash, "search failed", map[string]any{"task_id": taskID})
			respondMessage(w, http.StatusBadRequest, MsgJobFailed, lg)
		}
	}
}
