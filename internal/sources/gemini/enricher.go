// Package gemini looks up missing bibliographic fields with the Gemini
// API. The model's reply is untrusted input: it is parsed into an
// enrich.Candidate and every failure mode (transport, API, malformed
// JSON) collapses to the empty candidate so the caller never has to
// distinguish "no answer" from "bad answer".
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/refmend/refmend/pkg/bib"
	"github.com/refmend/refmend/pkg/enrich"
	"github.com/refmend/refmend/pkg/errors"
	"github.com/refmend/refmend/pkg/logging"
	"github.com/refmend/refmend/pkg/schema"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// Enricher asks a Gemini model for values of a record's missing fields.
// It implements enrich.Source.
type Enricher struct {
	client *genai.Client
	model  string
	schema *schema.Table
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithModel overrides the model name.
func WithModel(model string) Option {
	return func(e *Enricher) {
		if model != "" {
			e.model = model
		}
	}
}

// WithSchemaTable sets the schema table used to decide which fields to
// ask about. Defaults to the built-in table.
func WithSchemaTable(table *schema.Table) Option {
	return func(e *Enricher) {
		if table != nil {
			e.schema = table
		}
	}
}

// NewEnricher creates an Enricher using the given API key.
func NewEnricher(ctx context.Context, apiKey string, opts ...Option) (*Enricher, error) {
	if apiKey == "" {
		return nil, errors.ErrAPIKeyRequired
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	e := &Enricher{
		client: client,
		model:  DefaultModel,
		schema: schema.NewTable(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Lookup asks the model for the record's missing fields. The returned
// candidate is empty when the record is already complete, the call
// fails, or the reply cannot be parsed.
func (e *Enricher) Lookup(ctx context.Context, rec bib.Record) enrich.Candidate {
	missing := e.missingFields(rec)
	if len(missing) == 0 {
		return enrich.Candidate{}
	}

	prompt := buildPrompt(rec, missing)

	resp, err := e.client.Models.GenerateContent(ctx, e.model, genai.Text(prompt), nil)
	if err != nil {
		logging.Warn().Err(err).Str("key", rec.Key).Msg("enrichment lookup failed")
		return enrich.Candidate{}
	}

	reply := stripFences(resp.Text())
	cand := enrich.Parse([]byte(reply))
	logging.Debug().Str("key", rec.Key).Int("proposed", len(cand.Fields)).Msg("enrichment reply parsed")
	return cand
}

func (e *Enricher) missingFields(rec bib.Record) []string {
	comp := e.schema.Check(rec)
	missing := make([]string, 0, len(comp.Required)+len(comp.Recommended))
	missing = append(missing, comp.Required...)
	missing = append(missing, comp.Recommended...)
	return missing
}

// buildPrompt describes the record by its known fields and asks for a
// bare JSON object keyed by the missing field names.
func buildPrompt(rec bib.Record, missing []string) string {
	var b strings.Builder
	b.WriteString("You are a bibliographic metadata assistant. Given the reference below, ")
	b.WriteString("supply values for the listed missing fields.\n\nReference:\n")

	if rec.Type != "" {
		fmt.Fprintf(&b, "  type: %s\n", rec.Type)
	}
	for _, field := range bib.FieldVocabulary {
		if field == bib.FieldCreators {
			if display := rec.CreatorsDisplay(); display != "" {
				fmt.Fprintf(&b, "  creators: %s\n", display)
			}
			continue
		}
		if value := rec.Field(field); value != "" {
			fmt.Fprintf(&b, "  %s: %s\n", field, value)
		}
	}

	fmt.Fprintf(&b, "\nMissing fields: %s\n\n", strings.Join(missing, ", "))
	b.WriteString("Reply with a single JSON object whose keys are exactly the missing field names. ")
	b.WriteString("Omit any field you are not certain about. For creators use an array of ")
	b.WriteString(`objects like {"creatorType":"author","firstName":"...","lastName":"..."}. `)
	b.WriteString("No prose, no markdown fences.")
	return b.String()
}

// stripFences removes a surrounding markdown code fence, which models add
// despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
