package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/evalpivot/engine"
)

// ============================================================================
// DASHBOARD CONFIG — Persisted pivot layout
// ============================================================================
// A dashboard is a data source plus one pivot Query and an output format,
// stored as YAML. URLs go through afs, so local paths, file://, mem:// and
// cloud buckets all work.
// ============================================================================

// Formats lists the supported output formats.
var Formats = []string{"table", "csv", "json", "chart"}

// Dashboard is one saved pivot view.
type Dashboard struct {
	Source   string       `yaml:"source,omitempty" json:"source,omitempty"`     // JSON / JSONL records URL
	Query    engine.Query `yaml:"query" json:"query"`
	Format   string       `yaml:"format,omitempty" json:"format,omitempty"`     // one of Formats
	Capacity int          `yaml:"capacity,omitempty" json:"capacity,omitempty"` // max records held, 0 = unbounded
}

// Default returns a count-only table over no source.
func Default() *Dashboard {
	return &Dashboard{
		Query: engine.Query{
			Aggregation: "count",
			Visualize:   "table",
		},
		Format: "table",
	}
}

// Load reads a dashboard from url. A missing file yields Default().
func Load(ctx context.Context, url string) (*Dashboard, error) {
	fs := afs.New()
	exists, err := fs.Exists(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", url, err)
	}
	if !exists {
		return Default(), nil
	}

	data, err := fs.DownloadWithURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", url, err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}
	return d, nil
}

// Parse decodes YAML over Default() and validates the result.
func Parse(data []byte) (*Dashboard, error) {
	d := Default()
	if err := yaml.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("invalid dashboard YAML: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Save validates d and writes it to url as YAML.
func Save(ctx context.Context, url string, d *Dashboard) error {
	if d == nil {
		return errors.New("nil dashboard")
	}
	if err := d.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode dashboard: %w", err)
	}
	fs := afs.New()
	if err := fs.Upload(ctx, url, os.FileMode(0o644), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", url, err)
	}
	return nil
}

// Validate checks the format, the aggregation name and every filter
// condition. custom names aggregations registered with engine.WithAggregator.
func (d *Dashboard) Validate(custom ...string) error {
	var errs []error

	if d.Format != "" && !slices.Contains(Formats, d.Format) {
		errs = append(errs, fmt.Errorf("unknown format %q (want one of %s)", d.Format, strings.Join(Formats, ", ")))
	}
	if d.Capacity < 0 {
		errs = append(errs, fmt.Errorf("capacity must not be negative, got %d", d.Capacity))
	}

	agg := strings.ToLower(strings.TrimSpace(d.Query.Aggregation))
	if _, err := engine.ParseAggregator(agg); err != nil && !slices.Contains(custom, agg) {
		errs = append(errs, err)
	}

	switch strings.ToLower(d.Query.Visualize) {
	case "", "table", "chart":
	default:
		errs = append(errs, fmt.Errorf("unknown visualization %q", d.Query.Visualize))
	}

	for gi, g := range d.Query.Filters {
		switch g.Logic {
		case "", engine.LogicAnd, engine.LogicOr:
		default:
			errs = append(errs, fmt.Errorf("filters[%d]: unknown logic %q", gi, g.Logic))
		}
		for ci, c := range g.Conditions {
			if !slices.Contains(engine.Operators, c.Operator) {
				errs = append(errs, fmt.Errorf("filters[%d].conditions[%d]: unknown operator %q", gi, ci, c.Operator))
			}
			switch c.Kind {
			case "", engine.KindText, engine.KindDate:
			default:
				errs = append(errs, fmt.Errorf("filters[%d].conditions[%d]: unknown kind %q", gi, ci, c.Kind))
			}
		}
	}

	return errors.Join(errs...)
}
