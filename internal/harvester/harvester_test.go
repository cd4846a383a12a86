// internal/harvester/harvester_test.go
package harvester

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github-heat-harvester/internal/github"
	"github-heat-harvester/internal/model"
	"github-heat-harvester/internal/sampler"
	"github-heat-harvester/internal/store/sqlite"
	"github-heat-harvester/internal/window"
)

func newTestHarvester(t *testing.T, handler http.Handler) (*Harvester, *sqlite.Store, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	st, err := sqlite.New(filepath.Join(t.TempDir(), "harvest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ghClient := github.NewClient("", "heat-harvester-test", rate.NewLimiter(rate.Inf, 0), logger)
	require.NoError(t, ghClient.OverrideBaseURL(server.URL))

	smp := sampler.New(rand.NewPCG(1, 2))
	h := New(st, ghClient, smp, window.New(ghClient, 50, 0, logger), 50, 0, logger)
	return h, st, server
}

func TestHarvester_Discover(t *testing.T) {
	ctx := context.Background()

	var issuesURL string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repositories":
			fmt.Fprintf(w, `[{"id": 1, "name": "hot-repo",
				"forks_url": "https://example.com/forks",
				"stargazers_url": "https://example.com/stargazers",
				"commits_url": "https://example.com/commits{/sha}",
				"issues_url": %q}]`, issuesURL+"{/number}")
		case "/repos/hot-repo/issues":
			assert.Equal(t, "closed", r.URL.Query().Get("state"))
			if r.URL.Query().Get("page") == "1" {
				fmt.Fprintln(w, `[
					{"id": 10, "title": "flame war", "created_at": "2023-05-01T00:00:00Z",
					 "comments_url": "https://example.com/10/comments",
					 "locked": true, "active_lock_reason": "too heated", "state": "closed"},
					{"id": 11, "title": "calm bug report", "created_at": "2023-05-02T00:00:00Z",
					 "comments_url": "https://example.com/11/comments",
					 "locked": false, "active_lock_reason": null, "state": "closed"}
				]`)
				return
			}
			fmt.Fprintln(w, `[]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	h, st, server := newTestHarvester(t, handler)
	issuesURL = server.URL + "/repos/hot-repo/issues"

	require.NoError(t, h.Discover(ctx, 1))

	repos, err := st.ListRepositories(ctx)
	require.NoError(t, err)
	require.Len(t, repos, 1, "exactly one repository row")
	assert.Equal(t, int64(1), repos[0].ID)

	issues, err := st.ListIssues(ctx)
	require.NoError(t, err)
	require.Len(t, issues, 1, "exactly one issue row")
	assert.Equal(t, int64(10), issues[0].ID)
	assert.Equal(t, sql.NullInt64{Int64: 1, Valid: true}, issues[0].RepositoryID)
}

func TestHarvester_Discover_NoMatchingIssues(t *testing.T) {
	ctx := context.Background()

	var issuesURL string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repositories":
			fmt.Fprintf(w, `[{"id": 2, "name": "calm-repo", "issues_url": %q}]`, issuesURL+"{/number}")
		case "/repos/calm-repo/issues":
			fmt.Fprintln(w, `[]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	h, st, server := newTestHarvester(t, handler)
	issuesURL = server.URL + "/repos/calm-repo/issues"

	require.NoError(t, h.Discover(ctx, 1))

	repos, err := st.ListRepositories(ctx)
	require.NoError(t, err)
	assert.Empty(t, repos, "repositories without surviving issues are not persisted")
}

func TestHarvester_EnrichComments(t *testing.T) {
	ctx := context.Background()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/issues/10/comments" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.URL.Query().Get("page") {
		case "1":
			// The same comment appears on both pages; set semantics collapse it.
			fmt.Fprintln(w, `[
				{"id": 100, "body": "first", "created_at": "2023-05-10T00:00:00Z"},
				{"id": 101, "body": "second", "created_at": "2023-05-11T00:00:00Z"}
			]`)
		case "2":
			fmt.Fprintln(w, `[{"id": 101, "body": "second", "created_at": "2023-05-11T00:00:00Z"}]`)
		default:
			fmt.Fprintln(w, `[]`)
		}
	})
	h, st, server := newTestHarvester(t, handler)

	require.NoError(t, st.SaveRepository(ctx, model.Repository{ID: 1, Name: "hot-repo"}))
	require.NoError(t, st.SaveIssues(ctx, []model.Issue{{
		ID:           10,
		Title:        "flame war",
		CreatedAt:    "2023-05-01T00:00:00Z",
		RepositoryID: sql.NullInt64{Int64: 1, Valid: true},
		CommentsURL:  server.URL + "/issues/10/comments",
	}}))

	require.NoError(t, h.EnrichComments(ctx))

	// Both comments stored once each, stamped with the issue id. Flag one
	// toxic to observe them through the join.
	for _, id := range []int64{100, 101} {
		ok, err := st.SetCommentToxicity(ctx, id, true)
		require.NoError(t, err)
		assert.True(t, ok, "comment %d should have been stored", id)
	}
	toxic, err := st.ListToxicComments(ctx)
	require.NoError(t, err)
	assert.Len(t, toxic, 2)
	for _, c := range toxic {
		assert.Equal(t, int64(10), c.IssueID)
	}
}

func TestHarvester_ExportReport(t *testing.T) {
	ctx := context.Background()

	var commitsURL string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/hot-repo/commits" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		until := r.URL.Query().Get("until")
		page := r.URL.Query().Get("page")
		switch {
		case until == "2023-05-15T00:00:00Z" && page == "1":
			fmt.Fprintln(w, `[{"sha":"a"},{"sha":"b"},{"sha":"c"},{"sha":"d"}]`)
		case until == "2023-05-15T00:00:00Z" && page == "2":
			fmt.Fprintln(w, `[{"sha":"e"},{"sha":"f"},{"sha":"g"}]`)
		case until == "2023-06-14T00:00:00Z" && page == "1":
			fmt.Fprintln(w, `[{"sha":"h"},{"sha":"i"},{"sha":"j"}]`)
		default:
			fmt.Fprintln(w, `[]`)
		}
	})
	h, st, server := newTestHarvester(t, handler)
	commitsURL = server.URL + "/repos/hot-repo/commits{/sha}"

	require.NoError(t, st.SaveRepository(ctx, model.Repository{ID: 1, Name: "hot-repo", CommitsURL: commitsURL}))
	require.NoError(t, st.SaveIssues(ctx, []model.Issue{{
		ID: 10, Title: "flame war", CreatedAt: "2023-05-01T00:00:00Z",
		RepositoryID: sql.NullInt64{Int64: 1, Valid: true}, CommentsURL: "u",
	}}))
	require.NoError(t, st.SaveComments(ctx, []model.Comment{{
		ID: 100, Body: "toxic remark", CreatedAt: "2023-05-15T00:00:00Z",
		IssueID: sql.NullInt64{Int64: 10, Valid: true},
	}}))
	_, err := st.SetCommentToxicity(ctx, 100, true)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, h.ExportReport(ctx, &buf))

	assert.Equal(t,
		"id_comment,id_issue,commits_before,commits_after\n100,10,7,3\n",
		buf.String())
}
