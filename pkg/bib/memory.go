package bib

import (
	"context"
	"sync"

	"github.com/refmend/refmend/pkg/errors"
)

// MemoryLibrary is a thread-safe in-memory Library. It backs tests and dry
// runs, and enforces the same version-conflict contract as a real sink.
type MemoryLibrary struct {
	mu      sync.RWMutex
	records map[string]Record
	order   []string
}

// NewMemoryLibrary creates a MemoryLibrary seeded with the given records.
func NewMemoryLibrary(records ...Record) *MemoryLibrary {
	lib := &MemoryLibrary{
		records: make(map[string]Record, len(records)),
	}
	for _, rec := range records {
		if _, exists := lib.records[rec.Key]; !exists {
			lib.order = append(lib.order, rec.Key)
		}
		lib.records[rec.Key] = rec
	}
	return lib
}

// Items returns the current snapshot in insertion order.
func (l *MemoryLibrary) Items(_ context.Context) ([]Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Record, 0, len(l.order))
	for _, key := range l.order {
		if rec, ok := l.records[key]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Get returns a single record by key.
func (l *MemoryLibrary) Get(key string) (Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.records[key]
	if !ok {
		return Record{}, &errors.NotFoundError{Resource: "record", Key: key}
	}
	return rec, nil
}

// Len returns the number of stored records.
func (l *MemoryLibrary) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// UpdateRecord merges fields into the record, replaces its creators and
// tags, and bumps its version. Stored fields absent from the update
// survive, the same merge a PATCH against a real sink performs.
func (l *MemoryLibrary) UpdateRecord(_ context.Context, key string, version int64, fields map[string]string, creators []Creator, tags []string) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.records[key]
	if !ok {
		return Record{}, &errors.NotFoundError{Resource: "record", Key: key}
	}
	if current.Version != version {
		return Record{}, &errors.VersionConflictError{Key: key, Version: version}
	}

	updated := current
	updated.Version = version + 1
	updated.Fields = make(map[string]string, len(current.Fields)+len(fields))
	for k, v := range current.Fields {
		updated.Fields[k] = v
	}
	for k, v := range fields {
		updated.Fields[k] = v
	}
	updated.Creators = append([]Creator(nil), creators...)
	updated.Tags = append([]string(nil), tags...)

	l.records[key] = updated
	return updated, nil
}

// DeleteRecord removes the record when the version still matches.
func (l *MemoryLibrary) DeleteRecord(_ context.Context, key string, version int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.records[key]
	if !ok {
		return &errors.NotFoundError{Resource: "record", Key: key}
	}
	if current.Version != version {
		return &errors.VersionConflictError{Key: key, Version: version}
	}

	delete(l.records, key)
	return nil
}
