package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/evalpivot/engine"
	"github.com/spektr-org/evalpivot/record"
)

// ============================================================================
// STORE TESTS
// ============================================================================

func run(model string, score float64) map[string]any {
	return map[string]any{"model": model, "score": score}
}

func TestIngestAndDedupe(t *testing.T) {
	s := New(WithLogger(nil))

	assert.Equal(t, 2, s.Ingest(run("a", 1), run("b", 2)))
	assert.Equal(t, 1, s.Ingest(run("a", 1), run("a", 3)), "exact duplicate dropped")
	assert.Equal(t, 3, s.Len())
}

func TestWithDuplicates(t *testing.T) {
	s := New(WithLogger(nil), WithDuplicates())
	assert.Equal(t, 2, s.Ingest(run("a", 1), run("a", 1)))
	assert.Equal(t, 2, s.Len())
}

func TestCapacityEvictsOldest(t *testing.T) {
	s := New(WithLogger(nil), WithCapacity(2))
	s.Ingest(run("a", 1), run("b", 2), run("c", 3))

	view := s.View()
	require.Equal(t, 2, view.Len())
	assert.Equal(t, "b", view.Value(0, "$.model").String())
	assert.Equal(t, "c", view.Value(1, "$.model").String())

	// The evicted record is no longer a duplicate.
	assert.Equal(t, 1, s.Ingest(run("a", 1)))
	assert.Equal(t, "c", s.View().Value(0, "$.model").String())
}

func TestViewIsSnapshot(t *testing.T) {
	s := New(WithLogger(nil))
	s.Ingest(run("a", 1))
	view := s.View()

	s.Ingest(run("b", 2))
	assert.Equal(t, 1, view.Len())
	assert.Equal(t, 2, s.View().Len())
}

func TestReset(t *testing.T) {
	s := New(WithLogger(nil))
	s.Ingest(run("a", 1))
	s.Reset()

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 1, s.Ingest(run("a", 1)))
}

func TestSubscribe(t *testing.T) {
	s := New(WithLogger(nil), WithCapacity(2))

	var changes []Change
	unsubscribe := s.Subscribe(func(c Change) {
		changes = append(changes, c)
		assert.Equal(t, c.Total, s.Len(), "store lock is released")
	})

	s.Ingest(run("a", 1), run("a", 1), run("b", 2), run("c", 3))
	s.Reset()
	unsubscribe()
	s.Ingest(run("d", 4))

	assert.Equal(t, []Change{
		{Added: 3, Dropped: 1, Evicted: 1, Total: 2},
		{Evicted: 2, Total: 0},
	}, changes)
}

func TestExecuteAndFields(t *testing.T) {
	s := New(WithLogger(nil))
	s.Ingest(run("a", 1), run("a", 2), run("b", 4))

	res, err := s.Execute(engine.Query{
		RowFields:   []string{"$.model"},
		ValueField:  "$.score",
		Aggregation: "sum",
	}, engine.WithLogger(nil))
	require.NoError(t, err)
	assert.Equal(t, 7.0, res.Pivot.GrandTotal)
	assert.Equal(t, 3.0, res.Pivot.RowTotals["a"])

	fields := s.Fields()
	assert.Equal(t, 3, fields.RecordCount)
	assert.Equal(t, []string{"$.model", "$.score"}, fields.Keys())
	assert.Equal(t, []string{"$.score"}, fields.NumericKeys())
}

func TestConcurrentIngest(t *testing.T) {
	s := New(WithLogger(nil))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.Ingest(run("m", float64(i*1000+j)))
				_ = s.View().Len()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 400, s.Len())
}

// ============================================================================
// FINGERPRINT TESTS
// ============================================================================

func TestFingerprint(t *testing.T) {
	a := record.Flatten(map[string]any{"x": 1, "y": "z"})
	b := record.Flatten(map[string]any{"y": "z", "x": 1})
	assert.Equal(t, Fingerprint(a), Fingerprint(b))

	c := record.Flatten(map[string]any{"x": "1", "y": "z"})
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c), "kind is part of the fingerprint")

	d := record.Flatten(map[string]any{"x": 1})
	assert.NotEqual(t, Fingerprint(a), Fingerprint(d))
}
