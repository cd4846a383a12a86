// internal/model/models.go
package model

import "database/sql"

// Repository represents the metadata of a GitHub repository as returned by
// the public listing endpoint. Fields are kept comparable so whole entities
// can be deduplicated by value equality.
type Repository struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	ForksURL      string `json:"forks_url"`
	StargazersURL string `json:"stargazers_url"`
	CommitsURL    string `json:"commits_url"`
	IssuesURL     string `json:"issues_url"`
}

// Issue is a single issue from a repository's issue listing. RepositoryID is
// absent in the API payload and is stamped by the harvester before the issue
// is deduplicated or persisted.
type Issue struct {
	ID               int64         `json:"id"`
	Title            string        `json:"title"`
	CreatedAt        string        `json:"created_at"`
	RepositoryID     sql.NullInt64 `json:"-"`
	CommentsURL      string        `json:"comments_url"`
	Locked           bool          `json:"locked"`
	ActiveLockReason string        `json:"active_lock_reason"`
	State            string        `json:"state"`
}

// Comment is a single issue comment. IssueID is stamped by the harvester;
// IsToxic is set later by an external classification step.
type Comment struct {
	ID        int64         `json:"id"`
	Body      string        `json:"body"`
	CreatedAt string        `json:"created_at"`
	IssueID   sql.NullInt64 `json:"-"`
	IsToxic   bool          `json:"-"`
}

// CommitRef is the slice of a commit payload the aggregator cares about.
// Commits are never persisted, only counted within a time window.
type CommitRef struct {
	SHA string `json:"sha"`
}

// ToxicComment is a comment flagged toxic, joined through its issue to the
// commits endpoint of the owning repository.
type ToxicComment struct {
	CommentID  int64
	IssueID    int64
	CreatedAt  string
	CommitsURL string
}

// ActivityWindow is one row of the exported report: commit counts in the
// 30-day windows before and after the comment's creation time.
type ActivityWindow struct {
	CommentID     int64
	IssueID       int64
	CommitsBefore int
	CommitsAfter  int
}
