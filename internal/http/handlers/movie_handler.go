// Movie JSON API handlers.
//
// This file exposes REST endpoints mirroring the HTML workflow:
//   - GET    /movies                (list in display order, ETag support)
//   - GET    /movies/{id}           (single movie)
//   - POST   /movies                (add from catalog id, Idempotency-Key aware)
//   - PUT    /movies/{id}/rating    (rate and review)
//   - DELETE /movies/{id}           (delete, idempotent)
//   - GET    /catalog/search        (catalog title search)
//
// Handlers are transport-thin: they validate input, call the movie service,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-top-movies/internal/catalog"
	"github.com/tbourn/go-top-movies/internal/domain"
	"github.com/tbourn/go-top-movies/internal/http/middleware"
	"github.com/tbourn/go-top-movies/internal/utils"
)

// MovieService defines the workflow operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type MovieService interface {
	// Search queries the catalog by title without persisting anything.
	Search(ctx context.Context, query string) ([]catalog.SearchResult, error)
	// Select stores the catalog movie as a new unrated row.
	Select(ctx context.Context, catalogID int64) (*domain.Movie, error)
	// SelectIdempotent is Select deduplicated by an idempotency key.
	SelectIdempotent(ctx context.Context, scope, key string, catalogID int64) (*domain.Movie, bool, error)
	// Get returns a movie by id.
	Get(ctx context.Context, id uint) (*domain.Movie, error)
	// FindByTitle returns the first movie with the exact title.
	FindByTitle(ctx context.Context, title string) (*domain.Movie, error)
	// Rate sets rating and review.
	Rate(ctx context.Context, id uint, rating float64, review string) (*domain.Movie, error)
	// Delete removes a movie; missing ids are a no-op.
	Delete(ctx context.Context, id uint) error
	// Home recomputes rankings and returns movies by rating ascending.
	Home(ctx context.Context) ([]domain.Movie, error)
	// Stats returns the movie count and latest update time for ETags.
	Stats(ctx context.Context) (count int64, lastUpdated *time.Time, err error)
}

// Handlers groups the HTML pages and JSON endpoints. It depends on the
// abstract service interface to keep transport separate from the workflow.
type Handlers struct {
	svc MovieService
}

// New constructs a Handlers instance bound to the given service.
func New(svc MovieService) *Handlers {
	return &Handlers{svc: svc}
}

//
// DTOs
//

// CreateMovieRequest is the JSON payload for adding a movie from the catalog.
type CreateMovieRequest struct {
	// CatalogID is the catalog (TMDB) id picked from a search result.
	CatalogID int64 `json:"catalog_id" binding:"required,gt=0" example:"550"`
}

// RateMovieRequest is the JSON payload for rating a movie.
type RateMovieRequest struct {
	// Rating out of 10.
	Rating *float64 `json:"rating" binding:"required" example:"7.5"`
	// Review is optional free text.
	Review string `json:"review" binding:"max=1000" example:"My favourite character was the caller."`
}

// ListMoviesResponse wraps the movie list.
type ListMoviesResponse struct {
	Movies []domain.Movie `json:"movies"`
}

// SearchResponse wraps catalog search results.
type SearchResponse struct {
	Query   string                 `json:"query"`
	Results []catalog.SearchResult `json:"results"`
}

//
// Handlers
//

// ListMovies godoc
// @ID          listMovies
// @Summary     List movies
// @Description Recomputes rankings and returns all movies ordered by rating ascending. With `title`, returns only the first exact title match. Supports weak ETag via If-None-Match.
// @Tags        Movies
// @Produce     json
// @Param       title          query   string  false "Exact title filter"
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Success     200  {object}  handlers.ListMoviesResponse
// @Success     304  {string}  string "Not Modified"
// @Failure     404  {object}  handlers.ErrorResponse "No movie with that title"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /movies [get]
func (h *Handlers) ListMovies(c *gin.Context) {
	ctx := c.Request.Context()

	if title := strings.TrimSpace(c.Query("title")); title != "" {
		m, err := h.svc.FindByTitle(ctx, title)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, http.StatusOK, ListMoviesResponse{Movies: []domain.Movie{*m}})
		return
	}

	// ETag pre-check (best effort).
	if count, maxTS, err := h.svc.Stats(ctx); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixNano()
		}
		etag := fmt.Sprintf(`W/"movies:%d:%d"`, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	movies, err := h.svc.Home(ctx)
	if err != nil {
		failErr(c, err)
		return
	}
	if movies == nil {
		movies = []domain.Movie{}
	}
	ok(c, http.StatusOK, ListMoviesResponse{Movies: movies})
}

// GetMovie godoc
// @ID          getMovie
// @Summary     Get a movie
// @Tags        Movies
// @Produce     json
// @Param       id   path     int  true  "Movie ID"
// @Success     200  {object} domain.Movie
// @Failure     400  {object} handlers.ErrorResponse "Bad id"
// @Failure     404  {object} handlers.ErrorResponse "Movie not found"
// @Router      /movies/{id} [get]
func (h *Handlers) GetMovie(c *gin.Context) {
	id, valid := utils.ParseID(c.Param("id"))
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "movie id must be a positive integer")
		return
	}
	m, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

// CreateMovie godoc
// @ID          createMovie
// @Summary     Add a movie from the catalog
// @Description Fetches catalog details and stores an unrated movie. Repeating a request with the same Idempotency-Key returns the original movie with 200.
// @Tags        Movies
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string  false  "Idempotency key"
// @Param       body  body     handlers.CreateMovieRequest  true  "Catalog id"
// @Success     201   {object} domain.Movie
// @Success     200   {object} domain.Movie "Replayed"
// @Failure     400   {object} handlers.ErrorResponse "Bad request"
// @Failure     404   {object} handlers.ErrorResponse "Catalog record missing"
// @Failure     502   {object} handlers.ErrorResponse "Catalog unavailable"
// @Router      /movies [post]
func (h *Handlers) CreateMovie(c *gin.Context) {
	var req CreateMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "catalog_id must be a positive integer")
		return
	}

	key, _ := middleware.GetIdempotencyKey(c)
	m, replayed, err := h.svc.SelectIdempotent(c.Request.Context(), middleware.IdempotencyScope(c), key, req.CatalogID)
	if err != nil {
		failErr(c, err)
		return
	}
	if replayed {
		c.Header("Idempotent-Replay", "true")
		ok(c, http.StatusOK, m)
		return
	}
	c.Header("Location", fmt.Sprintf("%s/%d", c.FullPath(), m.ID))
	ok(c, http.StatusCreated, m)
}

// RateMovie godoc
// @ID          rateMovie
// @Summary     Rate a movie
// @Tags        Movies
// @Accept      json
// @Produce     json
// @Param       id    path     int  true  "Movie ID"
// @Param       body  body     handlers.RateMovieRequest  true  "Rating and review"
// @Success     200   {object} domain.Movie
// @Failure     400   {object} handlers.ErrorResponse "Bad request"
// @Failure     404   {object} handlers.ErrorResponse "Movie not found"
// @Failure     422   {object} handlers.ErrorResponse "Rating above 10"
// @Router      /movies/{id}/rating [put]
func (h *Handlers) RateMovie(c *gin.Context) {
	id, valid := utils.ParseID(c.Param("id"))
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "movie id must be a positive integer")
		return
	}
	var req RateMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Rating == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "rating must be a number")
		return
	}
	m, err := h.svc.Rate(c.Request.Context(), id, *req.Rating, req.Review)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

// DeleteMovie godoc
// @ID          deleteMovie
// @Summary     Delete a movie
// @Description Deleting a missing id succeeds.
// @Tags        Movies
// @Param       id   path     int  true  "Movie ID"
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad id"
// @Router      /movies/{id} [delete]
func (h *Handlers) DeleteMovie(c *gin.Context) {
	id, valid := utils.ParseID(c.Param("id"))
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "movie id must be a positive integer")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// SearchCatalog godoc
// @ID          searchCatalog
// @Summary     Search the movie catalog
// @Description Returns raw catalog matches; an unknown title yields an empty list.
// @Tags        Catalog
// @Produce     json
// @Param       query  query    string  true  "Title to search for"
// @Success     200    {object} handlers.SearchResponse
// @Failure     400    {object} handlers.ErrorResponse "Missing query"
// @Failure     502    {object} handlers.ErrorResponse "Catalog unavailable"
// @Router      /catalog/search [get]
func (h *Handlers) SearchCatalog(c *gin.Context) {
	q := c.Query("query")
	results, err := h.svc.Search(c.Request.Context(), q)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, SearchResponse{Query: strings.TrimSpace(q), Results: results})
}
