// internal/store/store.go

// Package store defines the persistence contract for harvested entities.
// The dataset is append-only: every write is an insert-if-absent keyed by
// the source-assigned identifier, so re-running a harvest is idempotent.
package store

import (
	"context"

	"github-heat-harvester/internal/model"
)

// Store is the durable, deduplicating persistence boundary.
type Store interface {
	// SaveRepository inserts a repository if its identifier is absent.
	SaveRepository(ctx context.Context, repo model.Repository) error
	// SaveIssues inserts each issue whose identifier is absent.
	SaveIssues(ctx context.Context, issues []model.Issue) error
	// SaveComments inserts each comment whose identifier is absent.
	SaveComments(ctx context.Context, comments []model.Comment) error

	ListRepositories(ctx context.Context) ([]model.Repository, error)
	ListIssues(ctx context.Context) ([]model.Issue, error)
	ListIssuesByRepository(ctx context.Context, repoID int64) ([]model.Issue, error)
	// ListToxicComments returns toxic-flagged comments joined through their
	// issue to the commits endpoint of the owning repository.
	ListToxicComments(ctx context.Context) ([]model.ToxicComment, error)

	// SetCommentToxicity records the verdict of the external toxicity
	// classifier. It reports whether the comment existed.
	SetCommentToxicity(ctx context.Context, commentID int64, toxic bool) (bool, error)

	Close() error
}
