package helpers

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/evalpivot/engine"
)

// ============================================================================
// JSON HELPER TESTS
// ============================================================================

func TestParseJSONArray(t *testing.T) {
	docs, err := ParseJSON([]byte(`[{"model":"a","score":1},{"model":"b","score":2.5}]`))
	require.NoError(t, err)
	require.Len(t, docs, 2)

	flats := FlattenAll(docs)
	assert.Equal(t, "b", flats[1].Get("$.model").String())
	n, ok := flats[1].Get("$.score").Number()
	require.True(t, ok)
	assert.Equal(t, 2.5, n)
}

func TestParseJSONObject(t *testing.T) {
	docs, err := ParseJSON([]byte("{\n  \"model\": \"a\",\n  \"meta\": {\"run id\": 7}\n}\n"))
	require.NoError(t, err)
	require.Len(t, docs, 1)

	flat := FlattenAll(docs)[0]
	assert.Equal(t, "7", flat.Get("$.meta['run id']").String())
}

func TestParseJSONLines(t *testing.T) {
	data := []byte("{\"model\":\"a\"}\n\n{\"model\":\"b\"}\r\n{\"model\":\"c\"}\n")
	docs, err := ParseJSON(data)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "c", FlattenAll(docs)[2].Get("$.model").String())
}

func TestParseJSONEmpty(t *testing.T) {
	docs, err := ParseJSON([]byte("  \n"))
	require.NoError(t, err)
	assert.Empty(t, docs)

	docs, err = ParseJSON([]byte("[]"))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestParseJSONInvalid(t *testing.T) {
	_, err := ParseJSON([]byte(`[{"model":`))
	assert.Error(t, err)

	_, err = ParseJSON([]byte("{\"a\":1}\n\n{\"a\":2}\nnot json\n"))
	assert.ErrorContains(t, err, "line 4")

	_, err = ParseJSON([]byte("{\n  \"a\": \n}"))
	assert.ErrorContains(t, err, "invalid JSON or JSONL")
}

func TestLoadRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"model\":\"a\",\"ok\":true}\n{\"model\":\"b\",\"ok\":false}\n"), 0o644))

	flats, err := LoadRecords(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, flats, 2)
	assert.Equal(t, "false", flats[1].Get("$.ok").String())
}

func TestLoadRecordsMissingFile(t *testing.T) {
	_, err := LoadRecords(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

// ============================================================================
// CSV HELPER TESTS
// ============================================================================

func TestWriteTableCSV(t *testing.T) {
	docs, err := ParseJSON([]byte(`[
		{"region":"East","product":"Widget","amount":200},
		{"region":"West","product":"Gadget","amount":90},
		{"region":"East, North","product":"Gadget","amount":10}
	]`))
	require.NoError(t, err)

	res, err := engine.Execute(engine.Query{
		RowFields:    []string{"$.region"},
		ColumnFields: []string{"$.product"},
		ValueField:   "$.amount",
		Aggregation:  "sum",
	}, engine.NewSliceView(FlattenAll(docs)), engine.WithLogger(nil))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteTableCSV(&buf, res.TableData))
	assert.Equal(t,
		"Region,Gadget,Widget,Total\n"+
			"East,,200,200\n"+
			"\"East, North\",10,,10\n"+
			"West,90,,90\n"+
			"Total,100,200,300\n",
		buf.String())
}

func TestWriteTableCSVNil(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTableCSV(&buf, nil))
	assert.Empty(t, buf.String())
}
