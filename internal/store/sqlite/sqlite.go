// internal/store/sqlite/sqlite.go

// Package sqlite implements store.Store on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github-heat-harvester/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New opens (creating if necessary) the database at path and applies any
// pending schema migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %s: %w", pragma, err)
		}
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return err
	}
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRepository inserts a repository, silently skipping identifiers that
// are already present.
func (s *Store) SaveRepository(ctx context.Context, repo model.Repository) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO repositories (id_repo, name, forks_url, stars_url, commits_url)
		VALUES (?, ?, ?, ?, ?)`,
		repo.ID, repo.Name, repo.ForksURL, repo.StargazersURL, repo.CommitsURL,
	)
	if err != nil {
		return fmt.Errorf("failed to store repository %d: %w", repo.ID, err)
	}
	return nil
}

// SaveIssues inserts issues one at a time; each insert is independently
// idempotent so a crash mid-batch never corrupts committed rows.
func (s *Store) SaveIssues(ctx context.Context, issues []model.Issue) error {
	for _, issue := range issues {
		_, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO issues (id_issue, id_repo, created_at, title, comments_url)
			VALUES (?, ?, ?, ?, ?)`,
			issue.ID, issue.RepositoryID, issue.CreatedAt, issue.Title, issue.CommentsURL,
		)
		if err != nil {
			return fmt.Errorf("failed to store issue %d: %w", issue.ID, err)
		}
	}
	return nil
}

// SaveComments inserts comments with the same per-row idempotency as issues.
func (s *Store) SaveComments(ctx context.Context, comments []model.Comment) error {
	for _, comment := range comments {
		_, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO comments (id_comment, id_issue, created_at, text, is_toxic)
			VALUES (?, ?, ?, ?, ?)`,
			comment.ID, comment.IssueID, comment.CreatedAt, comment.Body, comment.IsToxic,
		)
		if err != nil {
			return fmt.Errorf("failed to store comment %d: %w", comment.ID, err)
		}
	}
	return nil
}

// ListRepositories returns all harvested repositories. The issues endpoint
// template is not persisted, so it is absent from the returned values.
func (s *Store) ListRepositories(ctx context.Context) ([]model.Repository, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id_repo, name, forks_url, stars_url, commits_url FROM repositories
		ORDER BY id_repo`)
	if err != nil {
		return nil, fmt.Errorf("failed to query repositories: %w", err)
	}
	defer rows.Close()

	var repos []model.Repository
	for rows.Next() {
		var r model.Repository
		if err := rows.Scan(&r.ID, &r.Name, &r.ForksURL, &r.StargazersURL, &r.CommitsURL); err != nil {
			return nil, fmt.Errorf("failed to scan repository: %w", err)
		}
		repos = append(repos, r)
	}
	return repos, rows.Err()
}

// ListIssues returns all harvested issues.
func (s *Store) ListIssues(ctx context.Context) ([]model.Issue, error) {
	return s.queryIssues(ctx, `
		SELECT id_issue, id_repo, created_at, title, comments_url FROM issues
		ORDER BY id_issue`)
}

// ListIssuesByRepository returns the issues stamped with the given
// repository identifier.
func (s *Store) ListIssuesByRepository(ctx context.Context, repoID int64) ([]model.Issue, error) {
	return s.queryIssues(ctx, `
		SELECT id_issue, id_repo, created_at, title, comments_url FROM issues
		WHERE id_repo = ?
		ORDER BY id_issue`, repoID)
}

func (s *Store) queryIssues(ctx context.Context, query string, args ...any) ([]model.Issue, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %w", err)
	}
	defer rows.Close()

	var issues []model.Issue
	for rows.Next() {
		var issue model.Issue
		if err := rows.Scan(&issue.ID, &issue.RepositoryID, &issue.CreatedAt, &issue.Title, &issue.CommentsURL); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

// ListToxicComments joins toxic-flagged comments through their issue to the
// commits endpoint of the owning repository.
func (s *Store) ListToxicComments(ctx context.Context) ([]model.ToxicComment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id_comment, c.id_issue, c.created_at, r.commits_url
		FROM comments c
		JOIN issues i ON i.id_issue = c.id_issue
		JOIN repositories r ON r.id_repo = i.id_repo
		WHERE c.is_toxic = 1
		ORDER BY c.id_comment`)
	if err != nil {
		return nil, fmt.Errorf("failed to query toxic comments: %w", err)
	}
	defer rows.Close()

	var comments []model.ToxicComment
	for rows.Next() {
		var c model.ToxicComment
		if err := rows.Scan(&c.CommentID, &c.IssueID, &c.CreatedAt, &c.CommitsURL); err != nil {
			return nil, fmt.Errorf("failed to scan toxic comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// SetCommentToxicity records the external classifier's verdict for a comment.
func (s *Store) SetCommentToxicity(ctx context.Context, commentID int64, toxic bool) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE comments SET is_toxic = ? WHERE id_comment = ?`, toxic, commentID)
	if err != nil {
		return false, fmt.Errorf("failed to update comment %d: %w", commentID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
