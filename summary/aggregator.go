// Package summary merges per-provider model summaries for UniProt accessions
// and looks up protein metadata.
package summary

import (
	"context"
	"strings"

	"beacons-hub/fanout"
	"beacons-hub/logger"
	"beacons-hub/providers"
)

// Summary is the merged view of every provider that has models for an
// accession.
type Summary struct {
	UniprotEntry map[string]any   `json:"uniprot_entry" msgpack:"uniprot_entry"`
	Structures   []map[string]any `json:"structures" msgpack:"structures"`
}

type providerSummary struct {
	UniprotEntry map[string]any   `json:"uniprot_entry"`
	Structures   []map[string]any `json:"structures"`
}

// Aggregator fans summary requests out to every registered summary service.
type Aggregator struct {
	registry *providers.Registry
	fanout   *fanout.Client
	logger   *logger.Logger
}

func NewAggregator(registry *providers.Registry, fc *fanout.Client, lg *logger.Logger) *Aggregator {
	return &Aggregator{
		registry: registry,
		fanout:   fc,
		logger:   lg,
	}
}

// Summary returns the merged summary of accession, or nil when no provider
// returned any structure.
func (a *Aggregator) Summary(ctx context.Context, accession string) *Summary {
	return a.Summaries(ctx, []string{accession})[accession]
}

// Summaries resolves a batch of accessions with a single fan-out. Accessions
// with no usable provider response are absent from the result.
func (a *Aggregator) Summaries(ctx context.Context, accessions []string) map[string]*Summary {
	services := a.registry.Services(providers.ServiceSummary, "", "")

	var urls []string
	var owners []string
	for _, acc := range accessions {
		suffix := strings.ToUpper(acc) + ".json"
		for _, s := range services {
			u, err := a.registry.ServiceURL(s, suffix)
			if err != nil {
				a.logger.Warn("skipping summary service", map[string]any{
					"provider": s.Provider,
					"error":    err.Error(),
				})
				continue
			}
			urls = append(urls, u)
			owners = append(owners, acc)
		}
	}

	responses := a.fanout.GetAll(ctx, urls)

	out := make(map[string]*Summary)
	for i, resp := range responses {
		if !resp.OK() {
			continue
		}

		var ps providerSummary
		if err := resp.DecodeJSON(&ps); err != nil {
			a.logger.Debug("undecodable summary response", map[string]any{
				"url":   resp.URL,
				"error": err.Error(),
			})
			continue
		}
		if len(ps.Structures) == 0 {
			continue
		}

		acc := owners[i]
		merged, ok := out[acc]
		if !ok {
			merged = &Summary{UniprotEntry: ps.UniprotEntry}
			out[acc] = merged
		}
		if merged.UniprotEntry == nil {
			merged.UniprotEntry = ps.UniprotEntry
		}
		merged.Structures = append(merged.Structures, ps.Structures...)
	}

	return out
}
