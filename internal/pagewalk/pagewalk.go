// internal/pagewalk/pagewalk.go

// Package pagewalk implements a generic engine for draining paginated
// JSON-array endpoints. The same engine drives repository, issue, comment
// and commit walks; only the item type, the filter and the stamping step
// differ between resources.
package pagewalk

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	harvesterrors "github-heat-harvester/internal/errors"
)

const (
	// DefaultMaxPages caps a single walk. At 100 items per page this covers
	// collections of up to 5000 entries, which is plenty for issue and
	// comment listings.
	DefaultMaxPages = 50

	// DefaultMaxRetries bounds per-page retries before the walk fails with a
	// terminal error. The upstream source retried forever; a persistent
	// outage must surface instead of stalling the run.
	DefaultMaxRetries = 4
)

// FetchFunc retrieves and decodes one page of items. The page number is
// 1-based; URL construction is the fetcher's concern.
type FetchFunc[T any] func(ctx context.Context, page int) ([]T, error)

// Walker drains a paginated resource into a value-keyed set. The zero value
// is not usable; Fetch must be set.
type Walker[T comparable] struct {
	Fetch FetchFunc[T]

	// Transform stamps items (for example with a parent identifier) before
	// filtering and set insertion, so deduplication sees the stamped value.
	Transform func(T) T

	// Accept drops items that fail the resource's predicate. A nil Accept
	// keeps everything.
	Accept func(T) bool

	// MaxPages caps real page requests; DefaultMaxPages when zero.
	MaxPages int

	// MaxRetries bounds per-page retries under the default backoff policy;
	// DefaultMaxRetries when zero.
	MaxRetries int

	// Backoff supplies a fresh per-page retry policy, overriding MaxRetries.
	// Defaults to an exponential backoff capped at MaxRetries attempts.
	Backoff func() backoff.BackOff

	Logger *slog.Logger
}

// Walk requests successive pages until an empty page or the page ceiling is
// reached and returns the deduplicated set of accepted items. Items are
// transformed, then filtered, then merged with set semantics; ordering is
// not preserved.
func (w *Walker[T]) Walk(ctx context.Context) (map[T]struct{}, error) {
	out := make(map[T]struct{})
	err := w.walk(ctx, func(items []T) {
		for _, item := range items {
			if w.Transform != nil {
				item = w.Transform(item)
			}
			if w.Accept != nil && !w.Accept(item) {
				continue
			}
			out[item] = struct{}{}
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count behaves like Walk but only accumulates the number of items across
// pages, without deduplication. Transform and Accept are ignored.
func (w *Walker[T]) Count(ctx context.Context) (int, error) {
	var n int
	err := w.walk(ctx, func(items []T) {
		n += len(items)
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (w *Walker[T]) walk(ctx context.Context, visit func([]T)) error {
	maxPages := w.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	for page := 1; page <= maxPages; page++ {
		items, err := w.fetchPage(ctx, page)
		if err != nil {
			return err
		}
		// An empty page is the normal end-of-collection signal.
		if len(items) == 0 {
			return nil
		}
		visit(items)
	}
	return nil
}

// fetchPage retries a single page with backoff until it succeeds or the
// retry budget is exhausted, without ever advancing past a failing page.
func (w *Walker[T]) fetchPage(ctx context.Context, page int) ([]T, error) {
	policy := backoff.WithContext(w.newBackoff(), ctx)

	items, err := backoff.RetryNotifyWithData(func() ([]T, error) {
		return w.Fetch(ctx, page)
	}, policy, func(err error, next time.Duration) {
		w.logger().Warn("Page fetch failed, retrying", "page", page, "backoff", next.String(), "error", err)
	})
	if err != nil {
		return nil, &harvesterrors.ErrPageFailed{Page: page, Err: err}
	}
	return items, nil
}

func (w *Walker[T]) newBackoff() backoff.BackOff {
	if w.Backoff != nil {
		return w.Backoff()
	}
	maxRetries := uint64(w.MaxRetries)
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	}
	return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries)
}

func (w *Walker[T]) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
