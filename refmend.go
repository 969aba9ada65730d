// Package refmend reconciles bibliographic metadata records: it detects
// near-duplicate records, evaluates per-type field completeness, filters
// untrusted enrichment proposals, and merges duplicate groups into a
// single master record.
//
// The package ties the core packages (dedupe, schema, enrich, merge)
// to a configured record source, enrichment source, and commit sink.
// Each core operation is also usable directly from its own package.
package refmend

import (
	"context"
	"fmt"

	"github.com/refmend/refmend/internal/store"
	"github.com/refmend/refmend/pkg/bib"
	"github.com/refmend/refmend/pkg/dedupe"
	"github.com/refmend/refmend/pkg/enrich"
	"github.com/refmend/refmend/pkg/errors"
	"github.com/refmend/refmend/pkg/logging"
	"github.com/refmend/refmend/pkg/merge"
	"github.com/refmend/refmend/pkg/schema"
)

// Refmend reconciles one record library.
type Refmend interface {
	// Records returns the current record snapshot, fetching from the
	// source when the cache is empty or refresh is requested.
	Records(ctx context.Context, refresh bool) ([]bib.Record, error)

	// Scan groups the snapshot into duplicate groups.
	Scan(ctx context.Context, refresh bool) ([]dedupe.Group, error)

	// Check evaluates completeness for every record in the snapshot.
	Check(ctx context.Context, refresh bool) ([]Report, error)

	// Enrich looks up and reconciles enrichment proposals for one record.
	Enrich(ctx context.Context, key string) (map[string]any, error)

	// BuildDraft resolves a duplicate group against the chosen master.
	BuildDraft(group dedupe.Group, masterIndex int, overrides map[string]string) (merge.Draft, error)

	// Commit applies a merge draft to the library.
	Commit(ctx context.Context, group dedupe.Group, masterIndex int, draft merge.Draft) (merge.CommitResult, error)

	// Close releases the snapshot cache.
	Close() error
}

// Report pairs a record with its completeness evaluation.
type Report struct {
	Record       bib.Record
	Completeness schema.Completeness
}

type refmend struct {
	config   *config
	source   bib.Source
	sink     bib.CommitSink
	enricher enrich.Source
	schemas  *schema.Table
	cache    *store.Store
}

// New creates a Refmend instance with the given options. A record source
// is required; the enrichment source and snapshot cache are optional.
func New(opts ...Option) (Refmend, error) {
	r := &refmend{config: defaultConfig()}

	if err := r.options(opts...); err != nil {
		return nil, fmt.Errorf("applying options: %w", err)
	}

	if r.source == nil {
		return nil, &errors.ConfigError{Component: "refmend", Message: "a record source is required"}
	}
	if r.schemas == nil {
		r.schemas = schema.NewTable()
	}

	if r.config.cachePath != "" {
		cache, err := store.Open(r.config.cachePath)
		if err != nil {
			return nil, err
		}
		r.cache = cache
	}

	return r, nil
}

func (r *refmend) Records(ctx context.Context, refresh bool) ([]bib.Record, error) {
	if !refresh && r.cache != nil {
		records, err := r.cache.Load(ctx)
		if err == nil {
			logging.Debug().Int("count", len(records)).Msg("using cached snapshot")
			return records, nil
		}
		if !errors.IsNotFound(err) {
			return nil, err
		}
	}

	records, err := r.source.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching records: %w", err)
	}

	if r.cache != nil {
		if err := r.cache.Save(ctx, records); err != nil {
			logging.Warn().Err(err).Msg("snapshot cache write failed")
		}
	}
	return records, nil
}

func (r *refmend) Scan(ctx context.Context, refresh bool) ([]dedupe.Group, error) {
	records, err := r.Records(ctx, refresh)
	if err != nil {
		return nil, err
	}

	groups := dedupe.Groups(records)
	logging.Info().Int("records", len(records)).Int("groups", len(groups)).Msg("duplicate scan complete")
	return groups, nil
}

func (r *refmend) Check(ctx context.Context, refresh bool) ([]Report, error) {
	records, err := r.Records(ctx, refresh)
	if err != nil {
		return nil, err
	}

	reports := make([]Report, 0, len(records))
	for _, rec := range records {
		reports = append(reports, Report{
			Record:       rec,
			Completeness: r.schemas.Check(rec),
		})
	}
	return reports, nil
}

func (r *refmend) Enrich(ctx context.Context, key string) (map[string]any, error) {
	if r.enricher == nil {
		return nil, &errors.ConfigError{Component: "refmend", Message: "no enrichment source configured"}
	}

	records, err := r.Records(ctx, false)
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		if rec.Key == key {
			cand := r.enricher.Lookup(ctx, rec)
			return enrich.Reconcile(rec, cand), nil
		}
	}
	return nil, &errors.NotFoundError{Resource: "record", Key: key}
}

func (r *refmend) BuildDraft(group dedupe.Group, masterIndex int, overrides map[string]string) (merge.Draft, error) {
	return merge.BuildDraft(group, masterIndex, overrides)
}

func (r *refmend) Commit(ctx context.Context, group dedupe.Group, masterIndex int, draft merge.Draft) (merge.CommitResult, error) {
	if r.sink == nil {
		return merge.CommitResult{}, &errors.ConfigError{Component: "refmend", Message: "no commit sink configured"}
	}
	return merge.NewCommitter(r.sink).Commit(ctx, group, masterIndex, draft)
}

func (r *refmend) Close() error {
	if r.cache != nil {
		return r.cache.Close()
	}
	return nil
}
