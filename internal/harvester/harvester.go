// internal/harvester/harvester.go

// Package harvester orchestrates the three operating modes: discovering
// repositories with too-heated issues, enriching stored issues with their
// comments, and exporting commit-activity windows around toxic comments.
package harvester

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github-heat-harvester/internal/github"
	"github-heat-harvester/internal/model"
	"github-heat-harvester/internal/pagewalk"
	"github-heat-harvester/internal/report"
	"github-heat-harvester/internal/sampler"
	"github-heat-harvester/internal/store"
	"github-heat-harvester/internal/window"
)

// Harvester ties the sampler, the page-walking engine and the store into
// the operating modes. The mode is fixed for the process lifetime.
type Harvester struct {
	store      store.Store
	ghClient   *github.Client
	sampler    *sampler.Sampler
	windows    *window.Aggregator
	maxPages   int
	maxRetries int
	logger     *slog.Logger
}

// New creates a Harvester. maxPages caps every issue, comment and commit
// walk; the repository probe is always a single page. maxRetries bounds
// per-page retries (zero means the walker default).
func New(st store.Store, ghClient *github.Client, smp *sampler.Sampler, windows *window.Aggregator, maxPages, maxRetries int, logger *slog.Logger) *Harvester {
	return &Harvester{
		store:      st,
		ghClient:   ghClient,
		sampler:    smp,
		windows:    windows,
		maxPages:   maxPages,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Discover probes the repository listing at random offsets for the given
// number of iterations. A repository and its issues are persisted only when
// at least one issue survives the too-heated filter. Walk failures are
// logged and skip the affected repository or probe; persistence failures
// abort the run.
func (h *Harvester) Discover(ctx context.Context, iterations int) error {
	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		since := int64(h.sampler.Next())
		logger := h.logger.With("iteration", i+1, "since", since)
		logger.Info("Searching repositories")

		repos, err := h.probeRepositories(ctx, since)
		if err != nil {
			logger.Error("Repository probe failed, moving to next offset", "error", err)
			continue
		}

		for repo := range repos {
			issues, err := h.searchTooHeatedIssues(ctx, repo)
			if err != nil {
				logger.Error("Issue walk failed, skipping repository", "repo", repo.Name, "error", err)
				continue
			}
			if len(issues) == 0 {
				continue
			}

			logger.Info("Found too heated issues", "repo", repo.Name, "count", len(issues))
			if err := h.store.SaveRepository(ctx, repo); err != nil {
				return err
			}
			if err := h.store.SaveIssues(ctx, toSlice(issues)); err != nil {
				return err
			}
		}
	}
	return nil
}

// probeRepositories runs the single-page repository listing walk for one
// sampled offset.
func (h *Harvester) probeRepositories(ctx context.Context, since int64) (map[model.Repository]struct{}, error) {
	w := &pagewalk.Walker[model.Repository]{
		Fetch: func(ctx context.Context, _ int) ([]model.Repository, error) {
			return h.ghClient.ListRepositories(ctx, since)
		},
		MaxPages:   1,
		MaxRetries: h.maxRetries,
		Logger:     h.logger,
	}
	return w.Walk(ctx)
}

// searchTooHeatedIssues walks a repository's closed issues, stamps each with
// the repository identifier and keeps only the too-heated ones.
func (h *Harvester) searchTooHeatedIssues(ctx context.Context, repo model.Repository) (map[model.Issue]struct{}, error) {
	w := &pagewalk.Walker[model.Issue]{
		Fetch:      github.Pages[model.Issue](h.ghClient, github.StripTemplate(repo.IssuesURL), url.Values{"state": {"closed"}}),
		Transform:  StampRepository(repo.ID),
		Accept:     TooHeated,
		MaxPages:   h.maxPages,
		MaxRetries: h.maxRetries,
		Logger:     h.logger,
	}
	return w.Walk(ctx)
}

// EnrichComments walks the comments endpoint of every stored issue, stamps
// each comment with its issue identifier and persists the result per issue.
func (h *Harvester) EnrichComments(ctx context.Context) error {
	issues, err := h.store.ListIssues(ctx)
	if err != nil {
		return err
	}
	h.logger.Info("Retrieving comments for stored issues", "issues", len(issues))

	for _, issue := range issues {
		if err := ctx.Err(); err != nil {
			return err
		}
		logger := h.logger.With("issue_id", issue.ID)
		logger.Info("Retrieving comments")

		w := &pagewalk.Walker[model.Comment]{
			Fetch:      github.Pages[model.Comment](h.ghClient, github.StripTemplate(issue.CommentsURL), nil),
			Transform:  StampIssue(issue.ID),
			MaxPages:   h.maxPages,
			MaxRetries: h.maxRetries,
			Logger:     logger,
		}
		comments, err := w.Walk(ctx)
		if err != nil {
			logger.Error("Comment walk failed, skipping issue", "error", err)
			continue
		}

		if err := h.store.SaveComments(ctx, toSlice(comments)); err != nil {
			return err
		}
		logger.Info("Stored comments", "count", len(comments))
	}
	return nil
}

// ExportReport aggregates commit activity around every toxic comment and
// writes the CSV report to w.
func (h *Harvester) ExportReport(ctx context.Context, w io.Writer) error {
	comments, err := h.store.ListToxicComments(ctx)
	if err != nil {
		return err
	}
	h.logger.Info("Aggregating commit activity", "comments", len(comments))

	rw := report.NewWriter(w)
	for _, comment := range comments {
		if err := ctx.Err(); err != nil {
			return err
		}
		logger := h.logger.With("comment_id", comment.CommentID)

		anchor, err := time.Parse(time.RFC3339, comment.CreatedAt)
		if err != nil {
			logger.Warn("Skipping comment with unparseable timestamp", "created_at", comment.CreatedAt, "error", err)
			continue
		}

		before, after, err := h.windows.CommitActivity(ctx, comment.CommitsURL, anchor)
		if err != nil {
			logger.Error("Commit window walk failed, skipping comment", "error", err)
			continue
		}

		row := model.ActivityWindow{
			CommentID:     comment.CommentID,
			IssueID:       comment.IssueID,
			CommitsBefore: before,
			CommitsAfter:  after,
		}
		if err := rw.Write(row); err != nil {
			return fmt.Errorf("failed to write report row: %w", err)
		}
	}
	return rw.Flush()
}

func toSlice[T comparable](set map[T]struct{}) []T {
	out := make([]T, 0, len(set))
	for item := range set {
		out = append(out, item)
	}
	return out
}
