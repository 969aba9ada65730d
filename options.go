package refmend

import (
	"github.com/refmend/refmend/pkg/bib"
	"github.com/refmend/refmend/pkg/enrich"
	"github.com/refmend/refmend/pkg/schema"
)

// config holds the optional settings applied by New.
type config struct {
	cachePath string
}

func defaultConfig() *config {
	return &config{}
}

// Option is a function that configures a Refmend instance.
type Option func(*refmend) error

// options applies the given options in order.
func (r *refmend) options(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return err
		}
	}
	return nil
}

// WithSource configures the record source. Required.
func WithSource(source bib.Source) Option {
	return func(r *refmend) error {
		r.source = source
		return nil
	}
}

// WithCommitSink configures the commit sink for merge commits. Without
// one, Commit fails and everything else works read-only.
func WithCommitSink(sink bib.CommitSink) Option {
	return func(r *refmend) error {
		r.sink = sink
		return nil
	}
}

// WithLibrary configures a combined source and commit sink.
func WithLibrary(library bib.Library) Option {
	return func(r *refmend) error {
		r.source = library
		r.sink = library
		return nil
	}
}

// WithEnricher configures the enrichment source.
func WithEnricher(source enrich.Source) Option {
	return func(r *refmend) error {
		r.enricher = source
		return nil
	}
}

// WithSchemaTable overrides the built-in field schema table.
func WithSchemaTable(table *schema.Table) Option {
	return func(r *refmend) error {
		r.schemas = table
		return nil
	}
}

// WithCachePath enables the sqlite snapshot cache at path.
func WithCachePath(path string) Option {
	return func(r *refmend) error {
		r.config.cachePath = path
		return nil
	}
}
