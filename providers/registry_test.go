package providers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gotest.tools/v3/assert"
)

const sampleRegistry = `{
  "providers": [
    {"providerId": "pdbe", "baseServiceUrl": "https://pdbe.example/api/"},
    {"providerId": "alphafold", "baseServiceUrl": "https://afdb.example/api"}
  ],
  "services": [
    {"provider": "pdbe", "serviceType": "summary", "accessPoint": "uniprot/summary/"},
    {"provider": "alphafold", "serviceType": "summary", "accessPoint": "/summary/"},
    {"provider": "pdbe", "serviceType": "health", "accessPoint": "health"}
  ]
}`

func TestParse_FiltersServices(t *testing.T) {
	reg, err := Parse([]byte(sampleRegistry))
	require.NoError(t, err)

	assert.Equal(t, 2, len(reg.Services(ServiceSummary, "", "")))
	assert.Equal(t, 1, len(reg.Services(ServiceSummary, "pdbe", "")))
	assert.Equal(t, 1, len(reg.Services(ServiceSummary, "", "pdbe")))
	assert.Equal(t, 3, len(reg.Services("", "", "")))
	assert.Equal(t, 0, len(reg.Services(ServiceUniProt, "", "")))
}

func TestServiceURL(t *testing.T) {
	reg, err := Parse([]byte(sampleRegistry))
	require.NoError(t, err)

	services := reg.Services(ServiceSummary, "", "")
	u, err := reg.ServiceURL(services[0], "P00520.json")
	require.NoError(t, err)
	assert.Equal(t, "https://pdbe.example/api/uniprot/summary/P00520.json", u)

	u, err = reg.ServiceURL(services[1], "P00520.json")
	require.NoError(t, err)
	assert.Equal(t, "https://afdb.example/api/summary/P00520.json", u)

	_, err = reg.ServiceURL(Service{Provider: "nobody"}, "")
	assert.ErrorContains(t, err, "unknown provider")
}

func TestParse_RejectsUnknownProvider(t *testing.T) {
	_, err := Parse([]byte(`{"providers": [], "services": [{"provider": "x", "serviceType": "summary"}]}`))
	assert.ErrorContains(t, err, "unknown provider")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleRegistry), 0o600))

	reg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, len(reg.ProviderIDs()))

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "reading registry")
}
