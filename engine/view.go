package engine

import (
	"sort"
	"sync"

	"github.com/spektr-org/evalpivot/record"
)

// ============================================================================
// RECORD VIEW — Zero-Copy Data Access Interface
// ============================================================================
// The engine never owns consumer data. It reads through this interface.
//
// Implementations:
//   SliceView      — wraps []record.Flat (flattened documents)
//   SubView        — filtered subset (indices into parent, zero-copy)
//   DomainView[T]  — reads typed structs via accessor functions
//
// Views are read-only. Callers must not mutate the backing slice while a
// computation is iterating it.
// ============================================================================

// RecordView provides indexed access to a dataset of flat records.
type RecordView interface {
	Len() int
	Record(index int) record.Flat
	Value(index int, key string) record.Value
	Keys() []string // path-keys seen across the dataset, sorted
}

// ============================================================================
// SLICE VIEW — wraps []record.Flat
// ============================================================================

// SliceView wraps a []record.Flat slice as a RecordView.
type SliceView struct {
	records  []record.Flat
	keys     []string
	keysOnce sync.Once
}

// NewSliceView creates a RecordView from flat records.
func NewSliceView(records []record.Flat) RecordView {
	return &SliceView{records: records}
}

func (v *SliceView) Len() int { return len(v.records) }

func (v *SliceView) Record(i int) record.Flat {
	if i < 0 || i >= len(v.records) {
		return nil
	}
	return v.records[i]
}

func (v *SliceView) Value(i int, key string) record.Value {
	if i < 0 || i >= len(v.records) {
		return record.Value{}
	}
	return v.records[i][key]
}

// Keys is computed lazily; most pivots never ask for it.
func (v *SliceView) Keys() []string {
	v.keysOnce.Do(func() { v.keys = collectKeys(v) })
	return v.keys
}

// ============================================================================
// SUB VIEW — filtered subset (zero-copy)
// ============================================================================

// SubView is a subset of a parent RecordView.
// Holds indices into the parent; no data is copied.
type SubView struct {
	parent  RecordView
	indices []int
}

func newSubView(parent RecordView, indices []int) RecordView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Record(i int) record.Flat {
	if i < 0 || i >= len(v.indices) {
		return nil
	}
	return v.parent.Record(v.indices[i])
}

func (v *SubView) Value(i int, key string) record.Value {
	if i < 0 || i >= len(v.indices) {
		return record.Value{}
	}
	return v.parent.Value(v.indices[i], key)
}

func (v *SubView) Keys() []string { return v.parent.Keys() }

// ============================================================================
// DOMAIN ADAPTER — Typed struct access without flattening
// ============================================================================
//
// Usage:
//
//	adapter := engine.NewDomainAdapter[Run]().
//	    Field("$.model", func(r Run) any { return r.Model }).
//	    Field("$.score", func(r Run) any { return r.Score })
//
//	view := adapter.Bind(runs)
//	result := engine.ComputePivotView(view, spec)
//
// ============================================================================

// DomainAdapter builds a RecordView from typed structs.
// Declare once, bind many times.
type DomainAdapter[T any] struct {
	order  []string
	fields map[string]func(T) any
}

// NewDomainAdapter creates a new adapter for type T.
func NewDomainAdapter[T any]() *DomainAdapter[T] {
	return &DomainAdapter[T]{fields: make(map[string]func(T) any)}
}

// Field registers an accessor under a path-key.
func (a *DomainAdapter[T]) Field(key string, fn func(T) any) *DomainAdapter[T] {
	if _, exists := a.fields[key]; !exists {
		a.order = append(a.order, key)
	}
	a.fields[key] = fn
	return a
}

// Bind creates a RecordView over data. Holds a reference, no copy.
func (a *DomainAdapter[T]) Bind(data []T) RecordView {
	keys := append([]string(nil), a.order...)
	sort.Strings(keys)
	return &DomainView[T]{data: data, fields: a.fields, keys: keys}
}

// DomainView reads typed struct fields via registered accessor functions.
type DomainView[T any] struct {
	data   []T
	fields map[string]func(T) any
	keys   []string
}

func (v *DomainView[T]) Len() int { return len(v.data) }

func (v *DomainView[T]) Record(i int) record.Flat {
	if i < 0 || i >= len(v.data) {
		return nil
	}
	out := make(record.Flat, len(v.fields))
	for key, fn := range v.fields {
		out[key] = record.Of(fn(v.data[i]))
	}
	return out
}

func (v *DomainView[T]) Value(i int, key string) record.Value {
	if i < 0 || i >= len(v.data) {
		return record.Value{}
	}
	if fn, ok := v.fields[key]; ok {
		return record.Of(fn(v.data[i]))
	}
	return record.Value{}
}

func (v *DomainView[T]) Keys() []string { return v.keys }

// ============================================================================
// HELPERS
// ============================================================================

// Records materializes a view into a slice. Flat records are shared, not
// copied.
func Records(view RecordView) []record.Flat {
	out := make([]record.Flat, view.Len())
	for i := range out {
		out[i] = view.Record(i)
	}
	return out
}

func collectKeys(view RecordView) []string {
	seen := make(map[string]bool)
	keys := []string{}
	for i := 0; i < view.Len(); i++ {
		for k := range view.Record(i) {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}
