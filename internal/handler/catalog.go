package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/bookreview/internal/apperror"
	"github.com/sakif/bookreview/internal/catalog"
	"github.com/sakif/bookreview/internal/model"
)

// Catalog is the read side of catalog.Store that the HTTP API exposes.
// The API never mutates the catalog: writes need the single shared session,
// which belongs to whoever is driving the CLI.
type Catalog interface {
	FindBooks(ctx context.Context, q catalog.BookQuery) ([]model.Book, error)
	BookDetail(ctx context.Context, id string, reviewSort catalog.ReviewSort) (*model.BookDetail, error)
	PopularBooks(ctx context.Context, limit int) ([]model.RankedBook, error)
	Genres(ctx context.Context) ([]string, error)
	RecentReviews(ctx context.Context, limit int) ([]model.ReviewView, error)
	OverallStats(ctx context.Context) (*model.OverallStats, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	UserStats(ctx context.Context, userID string) (*model.UserStats, error)
}

// CatalogHandler serves the JSON endpoints under /api.
type CatalogHandler struct {
	catalog Catalog
	logger  *slog.Logger
}

// NewCatalogHandler returns a handler reading from c.
func NewCatalogHandler(c Catalog, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: c, logger: logger}
}

// Mount registers the routes on r. chi matches static segments before
// parameters, so /books/popular never reaches the {id} route.
func (h *CatalogHandler) Mount(r chi.Router) {
	r.Get("/books", h.HandleListBooks)
	r.Get("/books/popular", h.HandlePopular)
	r.Get("/books/{id}", h.HandleBookDetail)
	r.Get("/genres", h.HandleGenres)
	r.Get("/reviews/recent", h.HandleRecent)
	r.Get("/stats", h.HandleOverallStats)
	r.Get("/users/{id}/stats", h.HandleUserStats)
}

// HandleListBooks searches, filters and sorts the catalog.
//
// HTTP: GET /api/books?q=sagan&genre=Science&sort=rating
func (h *CatalogHandler) HandleListBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	books, err := h.catalog.FindBooks(r.Context(), catalog.BookQuery{
		Query: q.Get("q"),
		Genre: q.Get("genre"),
		Sort:  catalog.BookSort(q.Get("sort")),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

// HandleBookDetail returns one book with its reviews and aggregates.
//
// HTTP: GET /api/books/{id}?sort=rating-high
func (h *CatalogHandler) HandleBookDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	detail, err := h.catalog.BookDetail(r.Context(), id, catalog.ReviewSort(r.URL.Query().Get("sort")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HTTP: GET /api/books/popular?limit=5
func (h *CatalogHandler) HandlePopular(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	books, err := h.catalog.PopularBooks(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

// HTTP: GET /api/genres
func (h *CatalogHandler) HandleGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.catalog.Genres(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, genres)
}

// HTTP: GET /api/reviews/recent?limit=10
func (h *CatalogHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	views, err := h.catalog.RecentReviews(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// HTTP: GET /api/stats
func (h *CatalogHandler) HandleOverallStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.catalog.OverallStats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// UserStatsResponse pairs a reader's public profile with their statistics.
// The stored user record carries the password representation, so it is
// never encoded directly.
type UserStatsResponse struct {
	User  model.Profile    `json:"user"`
	Stats *model.UserStats `json:"stats"`
}

// HTTP: GET /api/users/{id}/stats
func (h *CatalogHandler) HandleUserStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if strings.TrimSpace(id) == "" {
		h.fail(w, r, apperror.ValidationFailed("id", "user id is required"))
		return
	}

	user, err := h.catalog.GetUserByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	stats, err := h.catalog.UserStats(r.Context(), user.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UserStatsResponse{User: user.Profile(), Stats: stats})
}

// limitParam reads ?limit=. Absent means 0, which the store treats as its
// default.
func limitParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperror.ValidationFailed("limit", "limit must be a non-negative integer")
	}
	return n, nil
}

// fail logs unexpected errors before answering. Domain errors are the
// caller's problem and are not logged.
func (h *CatalogHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if status, _ := statusFor(err); status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	writeError(w, err)
}
