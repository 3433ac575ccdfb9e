package sequence

import (
	"sort"

	"beacons-hub/jobdispatcher"
	"beacons-hub/summary"
)

const DefaultIdentityThreshold = 90

// HSP is one alignment segment of a hit.
type HSP struct {
	Score    float64 `json:"hsp_score" msgpack:"hsp_score"`
	BitScore float64 `json:"hsp_bit_score" msgpack:"hsp_bit_score"`
	AlignLen int     `json:"hsp_align_len" msgpack:"hsp_align_len"`
	Identity float64 `json:"hsp_identity" msgpack:"hsp_identity"`
	Positive float64 `json:"hsp_positive" msgpack:"hsp_positive"`
	QuerySeq string  `json:"hsp_qseq" msgpack:"hsp_qseq"`
	HitSeq   string  `json:"hsp_hseq" msgpack:"hsp_hseq"`
	MatchSeq string  `json:"hsp_mseq" msgpack:"hsp_mseq"`
	Expect   float64 `json:"hsp_expect" msgpack:"hsp_expect"`
}

// HitRecord is one search hit as returned to clients.
type HitRecord struct {
	Accession   string           `json:"accession" msgpack:"accession"`
	ID          string           `json:"id" msgpack:"id"`
	Description string           `json:"description" msgpack:"description"`
	HitLength   int              `json:"hit_length" msgpack:"hit_length"`
	HSPs        []HSP            `json:"hit_hsps" msgpack:"hit_hsps"`
	Summary     *summary.Summary `json:"summary" msgpack:"summary"`
	OrganismID  string           `json:"hit_uni_ox" msgpack:"hit_uni_ox"`
	Organism    string           `json:"hit_uni_os" msgpack:"hit_uni_os"`
	CommonName  string           `json:"hit_com_os" msgpack:"hit_com_os"`
	Title       string           `json:"title" msgpack:"title"`
}

func (r HitRecord) bestBitScore() float64 {
	var best float64
	for _, h := range r.HSPs {
		if h.BitScore > best {
			best = h.BitScore
		}
	}
	return best
}

// FilterHits keeps the hits whose first HSP identity is at least threshold.
// Hits without any HSP are dropped.
func FilterHits(results *jobdispatcher.SearchResults, threshold float64) []jobdispatcher.Hit {
	if results == nil {
		return nil
	}

	var out []jobdispatcher.Hit
	for _, hit := range results.Hits {
		if len(hit.HSPs) == 0 {
			continue
		}
		if hit.HSPs[0].Identity >= threshold {
			out = append(out, hit)
		}
	}
	return out
}

// NewHitRecords reshapes dispatcher hits into records keyed by accession.
// A later hit for the same accession replaces an earlier one.
func NewHitRecords(hits []jobdispatcher.Hit) map[string]HitRecord {
	records := make(map[string]HitRecord, len(hits))
	for _, hit := range hits {
		hsps := make([]HSP, 0, len(hit.HSPs))
		for _, h := range hit.HSPs {
			hsps = append(hsps, HSP{
				Score:    h.Score,
				BitScore: h.BitScore,
				AlignLen: h.AlignLen,
				Identity: h.Identity,
				Positive: h.Positive,
				QuerySeq: h.QuerySeq,
				HitSeq:   h.HitSeq,
				MatchSeq: h.MatchSeq,
				Expect:   h.Expect,
			})
		}

		records[hit.Accession] = HitRecord{
			Accession:   hit.Accession,
			ID:          hit.ID,
			Description: hit.Description,
			HitLength:   hit.Length,
			HSPs:        hsps,
			OrganismID:  string(hit.OrganismID),
			Organism:    hit.Organism,
		}
	}
	return records
}

// Hits flattens records into a slice ordered by best bit score, highest
// first, then by accession.
func Hits(records map[string]HitRecord) []HitRecord {
	out := make([]HitRecord, 0, len(records))
	for _, r := range records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		bi, bj := out[i].bestBitScore(), out[j].bestBitScore()
		if bi != bj {
			return bi > bj
		}
		return out[i].Accession < out[j].Accession
	})
	return out
}
