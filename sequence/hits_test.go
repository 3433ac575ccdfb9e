package sequence

import (
	"testing"

	"beacons-hub/jobdispatcher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hit(acc string, identities ...float64) jobdispatcher.Hit {
	h := jobdispatcher.Hit{
		Accession:   acc,
		ID:          "SP:" + acc,
		Description: "protein " + acc,
		Length:      154,
		OrganismID:  "9606",
		Organism:    "Homo sapiens",
	}
	for i, id := range identities {
		h.HSPs = append(h.HSPs, jobdispatcher.HSP{Identity: id, BitScore: id + float64(i)})
	}
	return h
}

func sampleResults() *jobdispatcher.SearchResults {
	return &jobdispatcher.SearchResults{Hits: []jobdispatcher.Hit{
		hit("P1", 100),
		hit("P2", 96, 20),
		hit("P3", 92),
		hit("P4", 90),
		hit("P5", 89.9, 100),
		hit("P6"),
	}}
}

func accessions(hits []jobdispatcher.Hit) []string {
	var out []string
	for _, h := range hits {
		out = append(out, h.Accession)
	}
	return out
}

func TestFilterHits_FirstHSPIdentity(t *testing.T) {
	got := FilterHits(sampleResults(), 90)

	assert.Equal(t, []string{"P1", "P2", "P3", "P4"}, accessions(got))
	assert.Empty(t, FilterHits(nil, 90))
}

func TestFilterHits_ThresholdMonotonicity(t *testing.T) {
	results := sampleResults()

	prev := len(FilterHits(results, 0))
	for _, threshold := range []float64{50, 89.9, 90, 92, 95, 99, 100, 101} {
		n := len(FilterHits(results, threshold))
		assert.LessOrEqual(t, n, prev, "threshold %v", threshold)
		prev = n
	}
	assert.LessOrEqual(t, len(FilterHits(results, 95)), len(FilterHits(results, 90)))
}

func TestNewHitRecords(t *testing.T) {
	records := NewHitRecords(FilterHits(sampleResults(), 90))

	require.Len(t, records, 4)
	p2 := records["P2"]
	assert.Equal(t, "P2", p2.Accession)
	assert.Equal(t, "SP:P2", p2.ID)
	assert.Equal(t, "protein P2", p2.Description)
	assert.Equal(t, 154, p2.HitLength)
	assert.Equal(t, "9606", p2.OrganismID)
	assert.Equal(t, "Homo sapiens", p2.Organism)
	require.Len(t, p2.HSPs, 2)
	assert.Equal(t, 96.0, p2.HSPs[0].Identity)
	assert.Nil(t, p2.Summary)
}

func TestHits_Ordering(t *testing.T) {
	records := map[string]HitRecord{
		"B": {Accession: "B", HSPs: []HSP{{BitScore: 50}}},
		"A": {Accession: "A", HSPs: []HSP{{BitScore: 50}}},
		"C": {Accession: "C", HSPs: []HSP{{BitScore: 10}, {BitScore: 80}}},
		"D": {Accession: "D"},
	}

	var got []string
	for _, r := range Hits(records) {
		got = append(got, r.Accession)
	}

	assert.Equal(t, []string{"C", "A", "B", "D"}, got)
}
