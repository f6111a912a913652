package helpers

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ohler55/ojg/oj"
	"github.com/viant/afs"

	"github.com/spektr-org/evalpivot/record"
)

// ============================================================================
// JSON HELPER — Parses JSON / JSONL data into flat records
// ============================================================================
// Consumer reads the data from wherever it lives (file, gs://, s3://, mem://).
// LoadRecords does the read through afs; ParseJSON only sees bytes.
// ============================================================================

// ParseJSON parses a JSON array, a single JSON document, or JSONL (one
// document per line, blank lines skipped) into documents.
func ParseJSON(data []byte) ([]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []any{}, nil
	}

	if trimmed[0] == '[' {
		doc, err := oj.Parse(trimmed)
		if err != nil {
			return nil, fmt.Errorf("invalid JSON array: %w", err)
		}
		arr, _ := doc.([]any)
		return arr, nil
	}

	docs, lineErr := parseLines(trimmed)
	if lineErr == nil {
		return docs, nil
	}

	// A single document spread over several lines.
	doc, err := oj.Parse(trimmed)
	if err != nil {
		if len(docs) > 0 {
			return nil, fmt.Errorf("invalid JSONL: %w", lineErr)
		}
		return nil, fmt.Errorf("invalid JSON or JSONL: %w", err)
	}
	return []any{doc}, nil
}

// parseLines parses one document per non-blank line. On failure it also
// returns the documents parsed before the bad line.
func parseLines(data []byte) ([]any, error) {
	var docs []any
	for i, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		doc, err := oj.Parse(line)
		if err != nil {
			return docs, fmt.Errorf("line %d: %w", i+1, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// FlattenAll flattens every document at the root path.
func FlattenAll(docs []any) []record.Flat {
	out := make([]record.Flat, len(docs))
	for i, doc := range docs {
		out[i] = record.Flatten(doc)
	}
	return out
}

// LoadRecords downloads a JSON or JSONL file and flattens its documents.
func LoadRecords(ctx context.Context, url string) ([]record.Flat, error) {
	docs, err := LoadDocuments(ctx, url)
	if err != nil {
		return nil, err
	}
	return FlattenAll(docs), nil
}

// LoadDocuments downloads a JSON or JSONL file and parses it without
// flattening.
func LoadDocuments(ctx context.Context, url string) ([]any, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", url, err)
	}
	docs, err := ParseJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", url, err)
	}
	return docs, nil
}
