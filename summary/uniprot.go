package summary

import (
	"context"
	"net/url"
	"strings"

	"beacons-hub/fanout"
	"beacons-hub/logger"

	"github.com/tidwall/gjson"
)

const DefaultUniProtURL = "https://www.ebi.ac.uk/proteins/api/proteins"

// Metadata is the protein and organism naming of one UniProt entry.
type Metadata struct {
	ProteinName    string `json:"title" msgpack:"title"`
	CommonName     string `json:"hit_com_os" msgpack:"hit_com_os"`
	ScientificName string `json:"scientific_name" msgpack:"scientific_name"`
}

// UniProtClient queries the EBI proteins API for entry metadata.
type UniProtClient struct {
	baseURL string
	fanout  *fanout.Client
	logger  *logger.Logger
}

func NewUniProtClient(baseURL string, fc *fanout.Client, lg *logger.Logger) *UniProtClient {
	if baseURL == "" {
		baseURL = DefaultUniProtURL
	}
	return &UniProtClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		fanout:  fc,
		logger:  lg,
	}
}

// Lookup fetches metadata for a batch of accessions in one request. Failures
// yield an empty map.
func (c *UniProtClient) Lookup(ctx context.Context, accessions []string) map[string]Metadata {
	out := make(map[string]Metadata)
	if len(accessions) == 0 {
		return out
	}

	q := url.Values{}
	q.Set("offset", "0")
	q.Set("size", "-1")
	q.Set("accession", strings.Join(accessions, ","))

	resp := c.fanout.GetAll(ctx, []string{c.baseURL + "?" + q.Encode()})[0]
	if !resp.OK() {
		c.logger.Warn("uniprot metadata lookup failed", map[string]any{
			"accessions": len(accessions),
		})
		return out
	}
	if !gjson.ValidBytes(resp.Body) {
		c.logger.Warn("uniprot metadata response is not valid JSON")
		return out
	}

	gjson.ParseBytes(resp.Body).ForEach(func(_, entry gjson.Result) bool {
		acc := entry.Get("accession").String()
		if acc == "" {
			return true
		}
		out[acc] = parseMetadata(entry)
		return true
	})

	return out
}

func parseMetadata(entry gjson.Result) Metadata {
	var md Metadata

	md.ProteinName = entry.Get("protein.recommendedName.fullName.value").String()
	if md.ProteinName == "" {
		md.ProteinName = entry.Get("protein.submittedName.0.fullName.value").String()
	}

	entry.Get("organism.names").ForEach(func(_, name gjson.Result) bool {
		switch name.Get("type").String() {
		case "common":
			md.CommonName = name.Get("value").String()
		case "scientific":
			md.ScientificName = name.Get("value").String()
		}
		return true
	})
	if md.CommonName == "" {
		md.CommonName = md.ScientificName
	}

	return md
}
