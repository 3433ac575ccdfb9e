package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"

	"beacons-hub/cache"
	"beacons-hub/logger"
	"beacons-hub/metrics"
	"beacons-hub/sequence"
	"beacons-hub/tasks"
	"beacons-hub/tasks/orchestrator"

	"github.com/go-playground/validator/v10"
)

// User-facing messages of the sequence routes.
const (
	MsgSubmissionFailed = "Error in submitting the job, please retry!"
	MsgSchedulingFailed = "Error in scheduling the search, please retry!"
	MsgNoSearchFound    = "No search request found for this sequence"
	MsgSearchInProgress = "Search in progress, please try after sometime!"
	MsgJobFailed        = "Job failed, please resubmit the sequence!"
	MsgInvalidSequence  = "A protein sequence of at most 100000 residues is required"
	MsgMissingJobID     = "The job_id query parameter is required"
	MsgCacheUnavailable = "Search state is unavailable, please retry!"
)

const maxSearchBodySize = 256 * 1024

// JobSubmitter starts a dispatcher job for a sequence.
type JobSubmitter interface {
	Submit(ctx context.Context, sequence string) (string, error)
}

type SearchRequest struct {
	Sequence string `json:"sequence" validate:"required,max=100000"`
}

type SearchResponse struct {
	JobID string `json:"job_id"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewSequenceSearchHandler handles POST /sequence/search. Surrounding
// whitespace is not part of the sequence.
//
// A sequence already known by its hash answers 200 without contacting the
// dispatcher. Otherwise the job is submitted, the task handle is registered
// before the task is scheduled, and the answer is 202.
func NewSequenceSearchHandler(
	store *sequence.Store,
	jobs JobSubmitter,
	orch orchestrator.Orchestrator,
	m *metrics.Metrics,
	lg *logger.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		r.Body = http.MaxBytesReader(w, r.Body, maxSearchBodySize)

		var req SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondMessage(w, http.StatusBadRequest, MsgInvalidSequence, lg)
			return
		}
		req.Sequence = strings.TrimSpace(req.Sequence)
		if err := validate.Struct(req); err != nil {
			respondMessage(w, http.StatusBadRequest, MsgInvalidSequence, lg)
			return
		}

		hash := sequence.Hash(req.Sequence)

		_, err := store.JobHandle(ctx, hash)
		switch {
		case err == nil:
			m.ObserveSearch(metrics.SearchDuplicate)
			respondJSON(w, http.StatusOK, SearchResponse{JobID: hash}, lg)
			return
		case !stderrors.Is(err, cache.ErrNotFound):
			lg.Job(hash, "cache lookup failed", map[string]any{"error": err.Error()})
			respondMessage(w, http.StatusServiceUnavailable, MsgCacheUnavailable, lg)
			return
		}

		jobID, err := jobs.Submit(ctx, req.Sequence)
		if err != nil {
			m.ObserveSearch(metrics.SearchRejected)
			lg.Job(hash, "job submission failed", map[string]any{"error": err.Error()})
			respondMessage(w, http.StatusBadRequest, MsgSubmissionFailed, lg)
			return
		}

		if err := schedule(ctx, store, orch, hash, jobID); err != nil {
			lg.Job(hash, "scheduling search failed", map[string]any{
				"job_id": jobID,
				"error":  err.Error(),
			})
			if clearErr := store.Clear(context.WithoutCancel(ctx), hash); clearErr != nil {
				lg.Job(hash, "failed to clear search state", map[string]any{"error": clearErr.Error()})
			}
			respondMessage(w, http.StatusInternalServerError, MsgSchedulingFailed, lg)
			return
		}

		m.ObserveSearch(metrics.SearchNew)
		lg.Job(hash, "search submitted", map[string]any{"job_id": jobID})
		respondJSON(w, http.StatusAccepted, SearchResponse{JobID: hash}, lg)
	}
}

func schedule(ctx context.Context, store *sequence.Store, orch orchestrator.Orchestrator, hash, jobID string) error {
	if err := store.SetJobHandle(ctx, hash, jobID); err != nil {
		return err
	}

	payload, err := json.Marshal(tasks.SequenceSearchPayload{JobID: jobID, SequenceHash: hash})
	if err != nil {
		return err
	}
	task := tasks.NewTask(tasks.TypeSequenceSearch, payload)

	// registered first so the task never observes itself as superseded
	if err := store.SetTaskHandle(ctx, hash, task.ID); err != nil {
		return err
	}
	return orch.Submit(ctx, task)
}
