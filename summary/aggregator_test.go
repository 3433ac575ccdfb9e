package summary_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"beacons-hub/fanout"
	"beacons-hub/logger"
	"beacons-hub/providers"
	"beacons-hub/summary"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newProviderServer serves /<provider>/uniprot/summary/<ACC>.json from bodies,
// keyed by "<provider>/<ACC>". Missing keys are 404.
func newProviderServer(t *testing.T, bodies map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		key := parts[0] + "/" + strings.TrimSuffix(parts[len(parts)-1], ".json")
		body, ok := bodies[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newRegistry(t *testing.T, base string) *providers.Registry {
	t.Helper()
	reg, err := providers.Parse([]byte(fmt.Sprintf(`{
	  "providers": [
	    {"providerId": "pdbe", "baseServiceUrl": "%[1]s/pdbe"},
	    {"providerId": "alphafold", "baseServiceUrl": "%[1]s/alphafold"}
	  ],
	  "services": [
	    {"provider": "pdbe", "serviceType": "summary", "accessPoint": "uniprot/summary/"},
	    {"provider": "alphafold", "serviceType": "summary", "accessPoint": "uniprot/summary/"}
	  ]
	}`, base)))
	require.NoError(t, err)
	return reg
}

func newAggregator(t *testing.T, bodies map[string]string) *summary.Aggregator {
	srv := newProviderServer(t, bodies)
	fc := fanout.New(logger.Discard(), fanout.WithTimeout(time.Second))
	return summary.NewAggregator(newRegistry(t, srv.URL), fc, logger.Discard())
}

func TestAggregator_MergesProviders(t *testing.T) {
	agg := newAggregator(t, map[string]string{
		"pdbe/P02144":      `{"uniprot_entry": {"ac": "P02144", "sequence_length": 154}, "structures": [{"summary": {"model_identifier": "1a6m"}}]}`,
		"alphafold/P02144": `{"uniprot_entry": {"ac": "P02144"}, "structures": [{"summary": {"model_identifier": "AF-P02144-F1"}}]}`,
	})

	got := agg.Summary(context.Background(), "p02144")

	require.NotNil(t, got)
	assert.Equal(t, "P02144", got.UniprotEntry["ac"])
	assert.Len(t, got.Structures, 2)
}

func TestAggregator_SkipsEmptyAndFailedProviders(t *testing.T) {
	agg := newAggregator(t, map[string]string{
		"pdbe/P02144":      `{"uniprot_entry": {"ac": "P02144"}, "structures": []}`,
		"alphafold/P02144": `not json`,
	})

	assert.Nil(t, agg.Summary(context.Background(), "P02144"))
}

func TestAggregator_Summaries_BatchCorrespondence(t *testing.T) {
	agg := newAggregator(t, map[string]string{
		"pdbe/P02144":      `{"uniprot_entry": {"ac": "P02144"}, "structures": [{"id": 1}]}`,
		"alphafold/P69905": `{"uniprot_entry": {"ac": "P69905"}, "structures": [{"id": 2}, {"id": 3}]}`,
	})

	got := agg.Summaries(context.Background(), []string{"P02144", "P69905", "Q00000"})

	require.Len(t, got, 2)
	assert.Equal(t, "P02144", got["P02144"].UniprotEntry["ac"])
	assert.Len(t, got["P02144"].Structures, 1)
	assert.Equal(t, "P69905", got["P69905"].UniprotEntry["ac"])
	assert.Len(t, got["P69905"].Structures, 2)
	assert.NotContains(t, got, "Q00000")
}
