package jobdispatcher_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"beacons-hub/jobdispatcher"
	"beacons-hub/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsJSON = `{
  "program": "blastp",
  "hits": [
    {
      "hit_num": 1,
      "hit_id": "SP:MYG_HUMAN",
      "hit_acc": "P02144",
      "hit_desc": "Myoglobin",
      "hit_len": 154,
      "hit_uni_ox": "9606",
      "hit_uni_os": "Homo sapiens",
      "hit_hsps": [
        {"hsp_score": 190, "hsp_bit_score": 77.8, "hsp_align_len": 37, "hsp_identity": 100.0,
         "hsp_positive": 100.0, "hsp_qseq": "MVLS", "hsp_mseq": "MVLS", "hsp_hseq": "MVLS", "hsp_expect": 1e-17}
      ]
    },
    {
      "hit_num": 2,
      "hit_id": "SP:MYG_MOUSE",
      "hit_acc": "P04247",
      "hit_desc": "Myoglobin",
      "hit_len": 154,
      "hit_uni_ox": 10090,
      "hit_uni_os": "Mus musculus",
      "hit_hsps": []
    }
  ]
}`

func newTestClient(srv *httptest.Server) *jobdispatcher.Client {
	return jobdispatcher.NewClient(logger.Discard(),
		jobdispatcher.WithBaseURL(srv.URL+"/"),
		jobdispatcher.WithTimeout(200*time.Millisecond),
		jobdispatcher.WithRateLimit(100),
	)
}

func TestSubmit(t *testing.T) {
	var gotForm map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/run", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		fmt.Fprint(w, "ncbiblast-R20240101-000000-0001-1\n")
	}))
	defer srv.Close()

	handle, err := newTestClient(srv).Submit(context.Background(), "MVLSEGEWQLV")

	require.NoError(t, err)
	assert.Equal(t, "ncbiblast-R20240101-000000-0001-1", handle)
	assert.Equal(t, []string{"MVLSEGEWQLV"}, gotForm["sequence"])
	assert.Equal(t, []string{"blastp"}, gotForm["program"])
	assert.Equal(t, []string{"uniprotkb"}, gotForm["database"])
	assert.Equal(t, []string{jobdispatcher.DefaultEmail}, gotForm["email"])
}

func TestSubmit_Failures(t *testing.T) {
	testCases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"non 200", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}},
		{"empty body", func(w http.ResponseWriter, r *http.Request) {}},
		{"timeout", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(time.Second):
			case <-r.Context().Done():
			}
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			_, err := newTestClient(srv).Submit(context.Background(), "MVLS")
			assert.ErrorIs(t, err, jobdispatcher.ErrSubmissionFailed)
		})
	}
}

func TestStatus(t *testing.T) {
	testCases := []struct {
		body  string
		code  int
		want  jobdispatcher.Status
		errIs error
	}{
		{body: "RUNNING", code: 200, want: jobdispatcher.StatusRunning},
		{body: "QUEUED", code: 200, want: jobdispatcher.StatusRunning},
		{body: "FINISHED\n", code: 200, want: jobdispatcher.StatusFinished},
		{body: "NOT_FOUND", code: 200, want: jobdispatcher.StatusNotFound},
		{body: "FAILURE", code: 200, want: jobdispatcher.StatusFailed},
		{body: "<html>oops</html>", code: 200, errIs: jobdispatcher.ErrStatusUnavailable},
		{body: "", code: 500, errIs: jobdispatcher.ErrStatusUnavailable},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d %q", tc.code, tc.body), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/status/ncbiblast-1", r.URL.Path)
				w.WriteHeader(tc.code)
				fmt.Fprint(w, tc.body)
			}))
			defer srv.Close()

			got, err := newTestClient(srv).Status(context.Background(), "ncbiblast-1")
			if tc.errIs != nil {
				assert.ErrorIs(t, err, tc.errIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFetchResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/result/ncbiblast-1/json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, resultsJSON)
	}))
	defer srv.Close()

	client := newTestClient(srv)

	results, err := client.FetchResults(context.Background(), "ncbiblast-1")
	require.NoError(t, err)
	require.Len(t, results.Hits, 2)
	assert.Equal(t, "P02144", results.Hits[0].Accession)
	assert.Equal(t, jobdispatcher.FlexString("9606"), results.Hits[0].OrganismID)
	assert.Equal(t, jobdispatcher.FlexString("10090"), results.Hits[1].OrganismID)
	assert.Equal(t, 100.0, results.Hits[0].HSPs[0].Identity)

	_, err = client.FetchResults(context.Background(), "ncbiblast-2")
	assert.ErrorIs(t, err, jobdispatcher.ErrResultsUnavailable)
}

func TestParseStatus_StringRoundTrip(t *testing.T) {
	for _, s := range []jobdispatcher.Status{
		jobdispatcher.StatusRunning,
		jobdispatcher.StatusFinished,
		jobdispatcher.StatusNotFound,
	} {
		parsed, ok := jobdispatcher.ParseStatus(s.String())
		assert.True(t, ok)
		assert.Equal(t, s, parsed)
	}
}
