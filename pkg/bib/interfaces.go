package bib

import "context"

// Source provides a read-only snapshot of bibliographic records. Fetching
// may be slow or fail; bounding how long to wait is the caller's
// responsibility via ctx.
type Source interface {
	// Items returns the current record snapshot.
	Items(ctx context.Context) ([]Record, error)
}

// CommitSink applies merge results back to the record store. Both
// operations are conditional on version: if the stored record's version no
// longer matches, the sink returns a *errors.VersionConflictError rather
// than applying the change, so only the calling layer decides whether to
// refetch-and-retry or abandon the merge.
type CommitSink interface {
	// UpdateRecord merges the given fields into the record's stored data
	// and replaces its creators and tags, returning the updated record
	// with its new version. Stored fields the update does not name
	// survive, matching PATCH semantics at the record source.
	UpdateRecord(ctx context.Context, key string, version int64, fields map[string]string, creators []Creator, tags []string) (Record, error)

	// DeleteRecord removes the record.
	DeleteRecord(ctx context.Context, key string, version int64) error
}

// Library combines snapshot reads with commit writes.
type Library interface {
	Source
	CommitSink
}
