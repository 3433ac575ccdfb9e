package jobdispatcher

import (
	"bytes"
	"encoding/json"
)

// SearchResults is the JSON result document of a finished job.
type SearchResults struct {
	Program string `json:"program"`
	Version string `json:"version"`
	Hits    []Hit  `json:"hits"`
}

type Hit struct {
	Num         int        `json:"hit_num"`
	ID          string     `json:"hit_id"`
	Accession   string     `json:"hit_acc"`
	Description string     `json:"hit_desc"`
	Length      int        `json:"hit_len"`
	OrganismID  FlexString `json:"hit_uni_ox"`
	Organism    string     `json:"hit_uni_os"`
	HSPs        []HSP      `json:"hit_hsps"`
}

type HSP struct {
	Score    float64 `json:"hsp_score"`
	BitScore float64 `json:"hsp_bit_score"`
	AlignLen int     `json:"hsp_align_len"`
	Identity float64 `json:"hsp_identity"`
	Positive float64 `json:"hsp_positive"`
	QuerySeq string  `json:"hsp_qseq"`
	MatchSeq string  `json:"hsp_mseq"`
	HitSeq   string  `json:"hsp_hseq"`
	Expect   float64 `json:"hsp_expect"`
}

// FlexString accepts a JSON string or number; the dispatcher is not consistent
// about taxonomy identifiers.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(data)
	return nil
}
