// internal/harvester/filter.go
package harvester

import (
	"database/sql"

	"github-heat-harvester/internal/model"
)

// tooHeatedReason is the lock reason GitHub records when maintainers lock a
// discussion for excessive heat.
const tooHeatedReason = "too heated"

// TooHeated reports whether an issue was closed and locked because its
// discussion got too heated.
func TooHeated(issue model.Issue) bool {
	return issue.Locked &&
		issue.ActiveLockReason == tooHeatedReason &&
		issue.State == "closed"
}

// StampRepository returns a transform that injects the parent repository
// identifier into an issue. Stamping runs before set insertion so that
// deduplication compares stamped values.
func StampRepository(repoID int64) func(model.Issue) model.Issue {
	return func(issue model.Issue) model.Issue {
		issue.RepositoryID = sql.NullInt64{Int64: repoID, Valid: true}
		return issue
	}
}

// StampIssue returns a transform that injects the parent issue identifier
// into a comment.
func StampIssue(issueID int64) func(model.Comment) model.Comment {
	return func(comment model.Comment) model.Comment {
		comment.IssueID = sql.NullInt64{Int64: issueID, Valid: true}
		return comment
	}
}
