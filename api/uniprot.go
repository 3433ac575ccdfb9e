package api

import (
	"context"
	"net/http"
	"strings"

	"beacons-hub/errors"
	"beacons-hub/logger"
	"beacons-hub/summary"

	"github.com/go-chi/chi/v5"
)

// SummaryProvider merges provider summaries for one accession.
type SummaryProvider interface {
	Summary(ctx context.Context, accession string) *summary.Summary
}

// NewUniProtSummaryHandler handles GET /uniprot/summary/{qualifier}.json.
func NewUniProtSummaryHandler(provider SummaryProvider, lg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qualifier := strings.TrimSuffix(chi.URLParam(r, "qualifier"), ".json")
		if qualifier == "" {
			respondWithError(w, errors.NewValidationError("UniProt accession is required"), lg)
			return
		}

		s := provider.Summary(r.Context(), qualifier)
		if s == nil {
			respondJSON(w, http.StatusNotFound, struct{}{}, lg)
			return
		}
		respondJSON(w, http.StatusOK, s, lg)
	}
}
