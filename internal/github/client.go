// internal/github/client.go
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	harvesterrors "github-heat-harvester/internal/errors"
	"github-heat-harvester/internal/model"
)

const (
	// acceptHeader is the media type GitHub recommends for REST v3 payloads.
	acceptHeader = "application/vnd.github+json"

	// perPage is the page size requested from every listing endpoint.
	perPage = 100
)

// Client wraps an authenticated GitHub API client. The go-github client
// serves the typed repository-listing probe; raw endpoint templates stored
// alongside harvested entities are fetched through the same authenticated
// http.Client. All requests pass through a shared rate limiter, which keeps
// a minimum interval between consecutive requests to the API host.
type Client struct {
	gh        *github.Client
	http      *http.Client
	userAgent string
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// NewClient creates and configures a new Client instance. The provided token
// is used to create an authenticated http.Client; it is threaded in here
// once instead of being read from the environment at call sites.
func NewClient(token, userAgent string, limiter *rate.Limiter, logger *slog.Logger) *Client {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	return &Client{
		gh:        github.NewClient(tc),
		http:      tc,
		userAgent: userAgent,
		limiter:   limiter,
		logger:    logger,
	}
}

// ListRepositories fetches one batch of public repositories starting after
// the given identifier offset and translates them to our internal model.
func (c *Client) ListRepositories(ctx context.Context, since int64) ([]model.Repository, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	c.logger.Debug("Listing repositories", "since", since)
	repos, _, err := c.gh.Repositories.ListAll(ctx, &github.RepositoryListAllOptions{Since: since})
	if err != nil {
		return nil, err
	}

	out := make([]model.Repository, 0, len(repos))
	for _, r := range repos {
		out = append(out, toInternalRepository(r))
	}
	return out, nil
}

// Pages builds a page fetcher for a stored endpoint URL, suitable for
// driving a pagewalk.Walker. Extra query parameters (state filters, time
// bounds) are merged into every page URL.
func Pages[T any](c *Client, endpoint string, params url.Values) func(ctx context.Context, page int) ([]T, error) {
	return func(ctx context.Context, page int) ([]T, error) {
		pageURL, err := pageURL(endpoint, page, params)
		if err != nil {
			return nil, err
		}
		var items []T
		if err := c.getJSON(ctx, pageURL, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
}

// getJSON performs an authenticated GET and decodes the JSON array body.
// Decode failures are logged with payload context and wrapped in
// ErrMalformedPayload so callers can tell them from transport errors.
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("Fetching page", "url", rawURL)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Error("Failed to decode payload", "url", rawURL, "error", err, "payload", truncate(body, 256))
		return fmt.Errorf("%w: %v", harvesterrors.ErrMalformedPayload, err)
	}
	return nil
}

// OverrideBaseURL points the typed API client at a different host. Tests
// use this to stand in for the GitHub API with a local server.
func (c *Client) OverrideBaseURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSuffix(rawURL, "/") + "/")
	if err != nil {
		return err
	}
	c.gh.BaseURL = u
	return nil
}

// StripTemplate removes the URI-template suffix from a stored endpoint URL,
// e.g. ".../issues{/number}" or ".../commits{/sha}".
func StripTemplate(endpoint string) string {
	if i := strings.Index(endpoint, "{"); i >= 0 {
		return endpoint[:i]
	}
	return endpoint
}

func pageURL(endpoint string, page int, params url.Values) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	q := u.Query()
	for key, values := range params {
		for _, v := range values {
			q.Set(key, v)
		}
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// toInternalRepository translates a github.Repository object to our internal
// model.Repository.
func toInternalRepository(r *github.Repository) model.Repository {
	return model.Repository{
		ID:            r.GetID(),
		Name:          r.GetName(),
		ForksURL:      r.GetForksURL(),
		StargazersURL: r.GetStargazersURL(),
		CommitsURL:    r.GetCommitsURL(),
		IssuesURL:     r.GetIssuesURL(),
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
