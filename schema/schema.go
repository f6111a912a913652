package schema

// ============================================================================
// SCHEMA — Describes the fields present in a set of flat records
// ============================================================================
// Auto-discovered from a RecordView. The CLI and browser use it to list
// pivotable fields; the store exposes it for the current dataset.
// ============================================================================

// Kind is the dominant type of a field's values.
type Kind string

const (
	KindText   Kind = "text"
	KindNumber Kind = "number"
	KindDate   Kind = "date"
	KindBool   Kind = "bool"
	KindMixed  Kind = "mixed"
)

// Config describes every field seen in a dataset.
type Config struct {
	Fields      []FieldMeta `json:"fields" yaml:"fields"`
	RecordCount int         `json:"recordCount" yaml:"recordCount"`
}

// FieldMeta describes one path-key.
type FieldMeta struct {
	Key          string   `json:"key" yaml:"key"`
	DisplayName  string   `json:"displayName" yaml:"displayName"`
	Kind         Kind     `json:"kind" yaml:"kind"`
	SampleValues []string `json:"sampleValues" yaml:"sampleValues"`
	Distinct     int      `json:"distinct" yaml:"distinct"`
	Coverage     float64  `json:"coverage" yaml:"coverage"` // share of records with a non-null value
	Groupable    bool     `json:"groupable" yaml:"groupable"`
	Filterable   bool     `json:"filterable" yaml:"filterable"`

	CardinalityHint string `json:"cardinalityHint,omitempty" yaml:"cardinalityHint,omitempty"` // "low", "medium", "high"
}

// Keys returns all field keys in order.
func (c *Config) Keys() []string {
	keys := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		keys[i] = f.Key
	}
	return keys
}

// NumericKeys returns keys of fields usable as a pivot value field.
func (c *Config) NumericKeys() []string {
	var keys []string
	for _, f := range c.Fields {
		if f.Kind == KindNumber {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// GroupableKeys returns keys of fields suited to row or column grouping.
func (c *Config) GroupableKeys() []string {
	var keys []string
	for _, f := range c.Fields {
		if f.Groupable {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// Field finds a field by key.
func (c *Config) Field(key string) (FieldMeta, bool) {
	for _, f := range c.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldMeta{}, false
}
