package merge

import (
	"context"

	"github.com/google/uuid"

	"github.com/refmend/refmend/pkg/bib"
	"github.com/refmend/refmend/pkg/dedupe"
	"github.com/refmend/refmend/pkg/errors"
	"github.com/refmend/refmend/pkg/logging"
)

// CommitFailure records a non-master member whose delete did not apply.
// The record remains in the store and will be re-detected as a duplicate
// of the updated master on the next scan.
type CommitFailure struct {
	Key string
	Err error
}

// CommitResult reports the outcome of committing a merge draft.
type CommitResult struct {
	SessionID string          // Correlates log lines for one commit
	Master    bib.Record      // Master as returned by the sink, new version included
	Deleted   []string        // Keys of removed duplicates
	Failed    []CommitFailure // Duplicates whose delete did not apply
}

// Clean reports whether every non-master member was deleted.
func (r CommitResult) Clean() bool {
	return len(r.Failed) == 0
}

// Committer applies merge drafts through a commit sink.
type Committer struct {
	sink bib.CommitSink
}

// NewCommitter creates a Committer writing to sink.
func NewCommitter(sink bib.CommitSink) *Committer {
	return &Committer{sink: sink}
}

// Commit updates the master record with the draft's fields, creators, and
// tags, then deletes every non-master member. A failed master update
// aborts the commit before any delete. Delete failures do not stop the
// remaining deletes; each is reported in the result, with version
// conflicts inspectable via errors.IsVersionConflict. Commits for
// different groups are independent and need no coordination.
func (c *Committer) Commit(ctx context.Context, group dedupe.Group, masterIndex int, draft Draft) (CommitResult, error) {
	if masterIndex < 0 || masterIndex >= group.Len() {
		return CommitResult{}, &errors.ValidationError{Field: "masterIndex", Message: "out of range"}
	}

	master := group.Records[masterIndex]
	result := CommitResult{SessionID: uuid.NewString()}

	log := logging.With().
		Str("session_id", result.SessionID).
		Str("master_key", master.Key).
		Logger()

	updated, err := c.sink.UpdateRecord(ctx, master.Key, master.Version, draft.Fields, draft.Creators, draft.Tags)
	if err != nil {
		log.Warn().Err(err).Msg("master update failed, leaving duplicates untouched")
		return result, err
	}
	result.Master = updated
	log.Info().Int64("version", updated.Version).Msg("master updated")

	for i, rec := range group.Records {
		if i == masterIndex {
			continue
		}
		if err := c.sink.DeleteRecord(ctx, rec.Key, rec.Version); err != nil {
			result.Failed = append(result.Failed, CommitFailure{Key: rec.Key, Err: err})
			log.Warn().Err(err).Str("key", rec.Key).Msg("duplicate delete failed, will be re-detected next scan")
			continue
		}
		result.Deleted = append(result.Deleted, rec.Key)
		log.Info().Str("key", rec.Key).Msg("duplicate deleted")
	}

	return result, nil
}
