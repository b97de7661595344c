package flowchart

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sample(t *testing.T) *Flowchart {
	t.Helper()
	f := New(7, "Soft cheese")
	start, err := f.CreateNode(NodeStart, Position{X: 250}, DomainData{})
	require.NoError(t, err)
	cold, err := f.CreateNode(NodeColdStorage, Position{X: 250, Y: 120}, DomainData{
		StepNumber:  Int(1),
		Temperature: &TemperatureRange{Max: Float(4), Unit: "°C"},
		Hazards:     []Hazard{{ID: "h1", Type: HazardBiological, Likelihood: 2, Severity: 4, IsCCP: true}},
		CCP:         completeCCP(),
	})
	require.NoError(t, err)
	_, err = f.Connect(start.ID, cold.ID, "")
	require.NoError(t, err)
	return f
}

func TestExport_JSONImportRoundTrip(t *testing.T) {
	f := sample(t)
	var buf bytes.Buffer
	require.NoError(t, f.Export(&buf, FormatJSON))
	assert.Contains(t, buf.String(), `"productId": 7`)

	got, err := Import(&buf)
	require.NoError(t, err)
	assert.Equal(t, f.Nodes, got.Nodes)
	assert.Equal(t, f.Edges, got.Edges)
	assert.Equal(t, f.Metadata.CreatedAt.Unix(), got.Metadata.CreatedAt.Unix())

	n, err := got.CreateNode(NodeDispatch, Position{}, DomainData{})
	require.NoError(t, err)
	assert.Equal(t, "node_3", n.ID, "allocator reseeded on import")
}

func TestExport_YAMLUsesJSONNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sample(t).Export(&buf, FormatYAML))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "Soft cheese", doc["productName"])
	nodes := doc["nodes"].([]any)
	require.Len(t, nodes, 2)
	data := nodes[1].(map[string]any)["data"].(map[string]any)
	assert.Equal(t, "CCP-1", data["ccp"].(map[string]any)["number"])
	assert.Equal(t, "medium", data["hazards"].([]any)[0].(map[string]any)["riskLevel"])
}

func TestExport_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, sample(t).Export(&buf, "csv"))
	assert.Zero(t, buf.Len())
	assert.Equal(t, "application/yaml", FormatYAML.ContentType())
	assert.Equal(t, "application/json", ExportFormat("").ContentType())
}

func TestImport_RejectsBrokenDocuments(t *testing.T) {
	_, err := Import(strings.NewReader(`{"nodes":[{"id":"a","type":"WARP"}]}`))
	assert.ErrorIs(t, err, ErrUnknownNodeType)

	_, err = Import(strings.NewReader(`{"nodes":[{"id":"a","type":"START"}],"edges":[{"id":"e","source":"a","target":"b"}]}`))
	assert.ErrorIs(t, err, ErrDanglingEdge)

	_, err = Import(strings.NewReader(`{"nodes":[{"id":"a","type":"START"},{"id":"b","type":"MIXING"}],"edges":[{"id":"e","source":"b","target":"a"}]}`))
	assert.ErrorIs(t, err, ErrStructuralEdge)

	_, err = Import(strings.NewReader(`{"nodes":[{"id":"b","type":"MIXING"}],"edges":[{"id":"e","source":"b","target":"b"}]}`))
	assert.ErrorIs(t, err, ErrSelfLoop)

	_, err = Import(strings.NewReader(`{`))
	assert.Error(t, err)
}
