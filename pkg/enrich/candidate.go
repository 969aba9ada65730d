// Package enrich validates untrusted field proposals from an external
// enrichment lookup against a record. Candidates arrive as dynamically
// shaped JSON and are validated once at this boundary; nothing deeper in
// the pipeline trusts their shape.
package enrich

import (
	"context"
	"encoding/json"

	"github.com/refmend/refmend/pkg/bib"
)

// Candidate is an untrusted field-name to value map produced by an
// enrichment lookup. It may contain unknown keys, wrong types, or
// placeholder values; Reconcile filters all of that. The zero value means
// "nothing proposed" and is the required normalization of any upstream
// failure.
type Candidate struct {
	Fields map[string]any
}

// Empty reports whether the candidate proposes nothing.
func (c Candidate) Empty() bool {
	return len(c.Fields) == 0
}

// Parse builds a Candidate from a raw enrichment payload. Malformed input
// yields the empty candidate; this function never fails.
func Parse(data []byte) Candidate {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return Candidate{}
	}
	return Candidate{Fields: fields}
}

// Source produces a candidate for a record. Implementations must normalize
// failures and malformed payloads to the empty candidate before returning,
// preserving a best-effort, at-most-once enrichment contract with no
// partial-failure leakage. Callers bound waiting via ctx.
type Source interface {
	Lookup(ctx context.Context, rec bib.Record) Candidate
}
