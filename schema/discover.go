package schema

import (
	"sort"
	"strings"

	"github.com/spektr-org/evalpivot/engine"
	"github.com/spektr-org/evalpivot/record"
)

// ============================================================================
// AUTO-DISCOVERY — Heuristic Field Classification
// ============================================================================
// Inspects flat records and describes every path-key.
//
// Classification pipeline per field:
//   1. Sample values → detect kind (number, date, bool, text, mixed)
//   2. Distinct count + coverage → groupable or not
//   3. Cardinality hint (low / medium / high)
// ============================================================================

// DiscoverOptions controls discovery behavior.
type DiscoverOptions struct {
	SampleSize int // Max records to inspect (0 = all). Default: 1000
	MaxSamples int // Sample values kept per field. Default: 10
}

// DefaultDiscoverOptions returns sensible defaults.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{
		SampleSize: 1000,
		MaxSamples: 10,
	}
}

// Discover describes the fields of a view. Fields are sorted by key.
func Discover(view engine.RecordView, opts ...DiscoverOptions) *Config {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.MaxSamples <= 0 {
		opt.MaxSamples = 10
	}

	n := view.Len()
	if opt.SampleSize > 0 && opt.SampleSize < n {
		n = opt.SampleSize
	}

	keys := view.Keys()
	cfg := &Config{
		Fields:      make([]FieldMeta, 0, len(keys)),
		RecordCount: view.Len(),
	}
	for _, key := range keys {
		col := analyzeField(view, key, n)
		cfg.Fields = append(cfg.Fields, col.toFieldMeta(opt.MaxSamples))
	}
	sort.Slice(cfg.Fields, func(i, j int) bool { return cfg.Fields[i].Key < cfg.Fields[j].Key })
	return cfg
}

// ============================================================================
// FIELD ANALYSIS
// ============================================================================

type fieldAnalysis struct {
	key       string
	inspected int
	present   int
	unique    map[string]bool

	numbers int
	dates   int
	bools   int
	texts   int
}

func analyzeField(view engine.RecordView, key string, n int) fieldAnalysis {
	col := fieldAnalysis{key: key, inspected: n, unique: make(map[string]bool)}
	for i := 0; i < n; i++ {
		v := view.Value(i, key)
		if !v.IsDefined() || v.Kind() == record.Null {
			continue
		}
		col.present++
		col.unique[v.String()] = true

		switch v.Kind() {
		case record.Number:
			col.numbers++
		case record.Bool:
			col.bools++
		case record.Time:
			col.dates++
		default:
			s := strings.TrimSpace(v.String())
			if _, ok := record.ParseNumber(s); ok {
				col.numbers++
			} else if _, ok := record.ParseTime(s); ok {
				col.dates++
			} else {
				col.texts++
			}
		}
	}
	return col
}

// kind picks the first kind held by 80%+ of present values.
func (col *fieldAnalysis) kind() Kind {
	if col.present == 0 {
		return KindText
	}
	dominant := func(count int) bool { return count > 0 && count*5 >= col.present*4 }
	switch {
	case dominant(col.bools):
		return KindBool
	case dominant(col.dates):
		return KindDate
	case dominant(col.numbers):
		return KindNumber
	case dominant(col.texts):
		return KindText
	}
	return KindMixed
}

// groupable rules out identifier-like fields: unique per record, or very
// high-cardinality text.
func (col *fieldAnalysis) groupable(kind Kind) bool {
	distinct := len(col.unique)
	if col.present == 0 {
		return false
	}
	if distinct == col.present && col.present > 10 {
		return false
	}
	if kind == KindText && distinct > col.present/2 && distinct > 50 {
		return false
	}
	return true
}

func (col *fieldAnalysis) toFieldMeta(maxSamples int) FieldMeta {
	kind := col.kind()
	meta := FieldMeta{
		Key:          col.key,
		DisplayName:  DisplayName(col.key),
		Kind:         kind,
		SampleValues: collectSamples(col.unique, maxSamples),
		Distinct:     len(col.unique),
		Groupable:    col.groupable(kind),
		Filterable:   true,
	}
	if col.inspected > 0 {
		meta.Coverage = float64(col.present) / float64(col.inspected)
	}
	switch {
	case meta.Distinct <= 10:
		meta.CardinalityHint = "low"
	case meta.Distinct <= 100:
		meta.CardinalityHint = "medium"
	default:
		meta.CardinalityHint = "high"
	}
	return meta
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// DisplayName derives a human label from a path-key's last segment.
// "$.metadata.run_id" → "Run Id", "$.scores[2]" → "Scores [2]".
func DisplayName(key string) string {
	last := record.LastSegment(key)
	if strings.HasSuffix(key, "["+last+"]") {
		parent := strings.TrimSuffix(key, "["+last+"]")
		if parent == record.Root {
			return "[" + last + "]"
		}
		return DisplayName(parent) + " [" + last + "]"
	}
	return toDisplayName(last)
}

// toDisplayName cleans a segment for human display.
// "story_points" → "Story Points", "assignee" → "Assignee"
func toDisplayName(s string) string {
	if strings.Contains(s, " ") {
		return strings.TrimSpace(s)
	}

	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")

	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// collectSamples picks up to maxSamples representative values.
func collectSamples(uniqueSet map[string]bool, maxSamples int) []string {
	samples := make([]string, 0, len(uniqueSet))
	for v := range uniqueSet {
		samples = append(samples, v)
	}

	// Sort for deterministic output
	sort.Strings(samples)

	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}
