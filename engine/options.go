package engine

import (
	"io"
	"log"
	"strings"
)

// ============================================================================
// ENGINE OPTIONS — Functional options for ComputePivot() and Execute()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	LegacyColumns bool                  // bucket records whose column fields are undefined
	Aggregators   map[string]Aggregator // named custom aggregators for Execute
	Logger        *log.Logger
}

// WithLegacyColumns keeps records with undefined column-field values. They
// land in a column whose composite key contains "undefined". Row fields are
// always strict.
func WithLegacyColumns() Option {
	return func(c *config) {
		c.LegacyColumns = true
	}
}

// WithAggregator registers a custom aggregator that Query.Aggregation can
// name. Registered names shadow built-ins.
func WithAggregator(name string, fn AggregateFunc) Option {
	return func(c *config) {
		if c.Aggregators == nil {
			c.Aggregators = make(map[string]Aggregator)
		}
		c.Aggregators[strings.ToLower(name)] = Custom(name, fn)
	}
}

// WithLogger redirects executor logging. nil silences it.
func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		if l == nil {
			l = log.New(io.Discard, "", 0)
		}
		c.Logger = l
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Logger: log.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// resolveAggregator prefers registered customs over built-ins.
func (c *config) resolveAggregator(name string) (Aggregator, error) {
	if agg, ok := c.Aggregators[strings.ToLower(strings.TrimSpace(name))]; ok {
		return agg, nil
	}
	return ParseAggregator(name)
}
