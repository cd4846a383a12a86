// internal/api/handler.go
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github-heat-harvester/internal/store"
)

// Handler is the container for API dependencies.
type Handler struct {
	db     store.Store
	logger *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
// The API is the read surface over the harvested dataset, plus the write
// boundary the external toxicity classifier uses to flag comments.
func NewRouter(db store.Store, logger *slog.Logger) http.Handler {
	h := &Handler{
		db:     db,
		logger: logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// API Routes
	r.Get("/health", h.healthCheck)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/repositories", h.getRepositories)
		r.Get("/repositories/{id}/issues", h.getRepositoryIssues)
		r.Get("/comments/toxic", h.getToxicComments)
		r.Patch("/comments/{id}/toxicity", h.setCommentToxicity)
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// getRepositories handles the request to list harvested repositories.
// GET /v1/repositories
func (h *Handler) getRepositories(w http.ResponseWriter, r *http.Request) {
	repos, err := h.db.ListRepositories(r.Context())
	if err != nil {
		h.logger.Error("Failed to list repositories", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, repos)
}

// getRepositoryIssues handles the request for the too-heated issues of one
// repository.
// GET /v1/repositories/{id}/issues
func (h *Handler) getRepositoryIssues(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid repository id")
		return
	}

	issues, err := h.db.ListIssuesByRepository(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to list issues", "repo_id", id, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, issues)
}

// getToxicComments handles the request for comments flagged toxic.
// GET /v1/comments/toxic
func (h *Handler) getToxicComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.db.ListToxicComments(r.Context())
	if err != nil {
		h.logger.Error("Failed to list toxic comments", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, comments)
}

// setCommentToxicity records the external classifier's verdict.
// PATCH /v1/comments/{id}/toxicity
func (h *Handler) setCommentToxicity(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid comment id")
		return
	}

	var body struct {
		IsToxic *bool `json:"is_toxic"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.IsToxic == nil {
		respondWithError(w, http.StatusBadRequest, "Body must be a JSON object with an 'is_toxic' boolean")
		return
	}

	found, err := h.db.SetCommentToxicity(r.Context(), id, *body.IsToxic)
	if err != nil {
		h.logger.Error("Failed to update comment toxicity", "comment_id", id, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !found {
		respondWithError(w, http.StatusNotFound, "Comment not found")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"id_comment": id, "is_toxic": *body.IsToxic})
}

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, map[string]string{"error": message})
}
