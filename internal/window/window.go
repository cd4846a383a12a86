// internal/window/window.go

// Package window derives commit-activity counts in symmetric time windows
// around an anchor timestamp.
package window

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github-heat-harvester/internal/github"
	"github-heat-harvester/internal/model"
	"github-heat-harvester/internal/pagewalk"
)

// windowDays is the half-width of the aggregation window, in calendar days.
const windowDays = 30

// Aggregator counts commits before and after an anchor timestamp by walking
// a repository's commit-listing endpoint twice with time bounds.
type Aggregator struct {
	client     *github.Client
	maxPages   int
	maxRetries int
	logger     *slog.Logger
}

// New creates an Aggregator. maxPages caps each of the two commit walks,
// maxRetries bounds per-page retries (zero means the walker default).
func New(client *github.Client, maxPages, maxRetries int, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		client:     client,
		maxPages:   maxPages,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Bounds computes the window edges: 30 calendar days on either side of the
// anchor (day arithmetic, not calendar-month).
func Bounds(anchor time.Time) (since, until time.Time) {
	return anchor.AddDate(0, 0, -windowDays), anchor.AddDate(0, 0, windowDays)
}

// CommitActivity counts commits in [since, anchor] and [anchor, until] for
// the repository owning the given commits endpoint template. Counts are
// accumulated across pages without deduplication.
func (a *Aggregator) CommitActivity(ctx context.Context, commitsURL string, anchor time.Time) (before, after int, err error) {
	since, until := Bounds(anchor)

	before, err = a.countCommits(ctx, commitsURL, since, anchor)
	if err != nil {
		return 0, 0, err
	}
	after, err = a.countCommits(ctx, commitsURL, anchor, until)
	if err != nil {
		return 0, 0, err
	}
	return before, after, nil
}

func (a *Aggregator) countCommits(ctx context.Context, commitsURL string, from, to time.Time) (int, error) {
	params := url.Values{
		"since": {from.Format(time.RFC3339)},
		"until": {to.Format(time.RFC3339)},
	}
	w := &pagewalk.Walker[model.CommitRef]{
		Fetch:      github.Pages[model.CommitRef](a.client, github.StripTemplate(commitsURL), params),
		MaxPages:   a.maxPages,
		MaxRetries: a.maxRetries,
		Logger:     a.logger,
	}
	return w.Count(ctx)
}
