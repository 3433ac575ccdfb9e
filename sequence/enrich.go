package sequence

import (
	"context"
	"sort"

	"beacons-hub/logger"
	"beacons-hub/summary"
)

const DefaultBatchSize = 10

// SummaryLookup resolves provider summaries for a batch of accessions.
type SummaryLookup interface {
	Summaries(ctx context.Context, accessions []string) map[string]*summary.Summary
}

// MetadataLookup resolves UniProt naming for a batch of accessions.
type MetadataLookup interface {
	Lookup(ctx context.Context, accessions []string) map[string]summary.Metadata
}

// Enricher attaches summaries and protein metadata to hit records.
type Enricher struct {
	summaries SummaryLookup
	metadata  MetadataLookup
	batchSize int
	logger    *logger.Logger
}

// NewEnricher builds an Enricher. metadata may be nil.
func NewEnricher(summaries SummaryLookup, metadata MetadataLookup, batchSize int, lg *logger.Logger) *Enricher {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &Enricher{
		summaries: summaries,
		metadata:  metadata,
		batchSize: batchSize,
		logger:    lg,
	}
}

// Enrich updates records in place and returns how many received a summary.
// Records left without a summary are kept.
func (e *Enricher) Enrich(ctx context.Context, records map[string]HitRecord) int {
	accessions := make([]string, 0, len(records))
	for acc := range records {
		accessions = append(accessions, acc)
	}
	sort.Strings(accessions)

	enriched := 0
	for start := 0; start < len(accessions); start += e.batchSize {
		if ctx.Err() != nil {
			break
		}

		end := min(start+e.batchSize, len(accessions))
		batch := accessions[start:end]

		summaries := e.summaries.Summaries(ctx, batch)
		var metadata map[string]summary.Metadata
		if e.metadata != nil {
			metadata = e.metadata.Lookup(ctx, batch)
		}

		for _, acc := range batch {
			rec := records[acc]
			if s, ok := summaries[acc]; ok && s != nil {
				rec.Summary = s
				enriched++
			}
			if md, ok := metadata[acc]; ok {
				rec.Title = md.ProteinName
				rec.CommonName = md.CommonName
			}
			records[acc] = rec
		}

		e.logger.Debug("enriched hit batch", map[string]any{
			"batch_start": start,
			"batch_size":  len(batch),
			"summaries":   len(summaries),
		})
	}

	return enriched
}
