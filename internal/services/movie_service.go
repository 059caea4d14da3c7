// Package services – MovieService
//
// This file implements the MovieService, which drives a movie through its
// lifecycle: searched in the catalog, selected (stored unrated), rated, and
// deleted. It also owns the list read, which recomputes rankings for every
// stored movie before returning them in display order.
//
// Service-level errors (ErrMovieNotFound, ErrRatingTooHigh, ErrValidation,
// ErrCatalogUnavailable, ErrCatalogRecordMissing) are returned for predictable
// cases so handlers can map them to HTTP results consistently. Each is joined
// with the underlying cause, so errors.Is matches both.
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/tbourn/go-top-movies/internal/catalog"
	"github.com/tbourn/go-top-movies/internal/domain"
	"github.com/tbourn/go-top-movies/internal/observability"
	"github.com/tbourn/go-top-movies/internal/ranking"
	"github.com/tbourn/go-top-movies/internal/repo"
)

// MovieRepo defines the repository contract required by MovieService.
type MovieRepo interface {
	// InsertMovie stores a new row and returns its id.
	InsertMovie(ctx context.Context, db *gorm.DB, m *domain.Movie) (uint, error)

	// GetMovie fetches a movie by id.
	GetMovie(ctx context.Context, db *gorm.DB, id uint) (*domain.Movie, error)

	// DeleteMovie removes a movie by id.
	DeleteMovie(ctx context.Context, db *gorm.DB, id uint) error

	// FindFirstMovieByTitle returns the lowest-id movie with this title.
	FindFirstMovieByTitle(ctx context.Context, db *gorm.DB, title string) (*domain.Movie, error)

	// ListMovies returns every movie ordered by field and direction.
	ListMovies(ctx context.Context, db *gorm.DB, field, dir string) ([]domain.Movie, error)

	// UpdateMovie persists the mutable fields of an existing movie.
	UpdateMovie(ctx context.Context, db *gorm.DB, m *domain.Movie) error

	// SaveRankings persists computed ranks.
	SaveRankings(ctx context.Context, db *gorm.DB, assignments []ranking.Assignment) error
}

// Catalog is the external movie lookup consumed by MovieService.
type Catalog interface {
	Search(ctx context.Context, query string) ([]catalog.SearchResult, error)
	Details(ctx context.Context, catalogID int64) (*catalog.Details, error)
}

// MovieService coordinates the catalog and the record store.
type MovieService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the movie repository used by this service.
	Repo MovieRepo
	// Catalog resolves searches and details.
	Catalog Catalog

	// DescriptionMaxLen caps stored overviews by rune length.
	DescriptionMaxLen int
	// QueryMaxLen caps search queries by rune length.
	QueryMaxLen int
	// IdempotencyTTL is how long a creation key is remembered.
	IdempotencyTTL time.Duration
}

// NewMovieService constructs a MovieService with default limits.
func NewMovieService(db *gorm.DB, r MovieRepo, c Catalog) *MovieService {
	return &MovieService{
		DB:                db,
		Repo:              r,
		Catalog:           c,
		DescriptionMaxLen: 500,
		QueryMaxLen:       200,
		IdempotencyTTL:    24 * time.Hour,
	}
}

// Search queries the catalog by title. Nothing is persisted. An empty query
// is ErrValidation; zero matches is an empty slice.
func (s *MovieService) Search(ctx context.Context, query string) ([]catalog.SearchResult, error) {
	query = normalizeText(query)
	if query == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	query = clipRunes(query, s.QueryMaxLen)

	results, err := s.Catalog.Search(ctx, query)
	if err != nil {
		return nil, catalogErr(err)
	}
	if results == nil {
		results = []catalog.SearchResult{}
	}
	return results, nil
}

// Select fetches catalog details for catalogID and stores them as a new,
// unrated movie. The returned movie carries the id assigned by the store.
// If the catalog lookup fails, the store is left untouched.
func (s *MovieService) Select(ctx context.Context, catalogID int64) (_ *domain.Movie, err error) {
	ctx, span := observability.Start(ctx, "movies.select", attribute.Int64("catalog.id", catalogID))
	defer observability.End(span, &err)

	if catalogID <= 0 {
		return nil, fmt.Errorf("%w: catalog id must be positive", ErrValidation)
	}
	d, err := s.Catalog.Details(ctx, catalogID)
	if err != nil {
		return nil, catalogErr(err)
	}

	m := &domain.Movie{
		CatalogID:   d.CatalogID,
		Title:       normalizeText(d.Title),
		Year:        d.Year,
		Description: clipRunes(strings.TrimSpace(d.Overview), s.DescriptionMaxLen),
		ImgURL:      d.PosterURL,
	}
	if m.Title == "" {
		return nil, fmt.Errorf("%w: empty title", ErrCatalogRecordMissing)
	}

	id, err := s.Repo.InsertMovie(ctx, s.DB, m)
	if err != nil {
		return nil, err
	}
	m.ID = id
	moviesAdded.Inc()

	log.Ctx(ctx).Info().
		Uint("movie_id", id).
		Int64("catalog_id", d.CatalogID).
		Str("title", m.Title).
		Msg("movie added")
	return m, nil
}

// SelectIdempotent is Select keyed by (scope, key). A repeated key within
// IdempotencyTTL returns the originally created movie and replayed=true
// without contacting the catalog. An empty key behaves like Select.
func (s *MovieService) SelectIdempotent(ctx context.Context, scope, key string, catalogID int64) (m *domain.Movie, replayed bool, err error) {
	if strings.TrimSpace(key) == "" {
		m, err = s.Select(ctx, catalogID)
		return m, false, err
	}

	if m, ok := s.replay(ctx, scope, key); ok {
		return m, true, nil
	}

	m, err = s.Select(ctx, catalogID)
	if err != nil {
		return nil, false, err
	}

	_, err = repo.CreateIdempotency(ctx, s.DB, scope, key, m.ID, http.StatusCreated, s.IdempotencyTTL)
	if errors.Is(err, repo.ErrDuplicate) {
		// A concurrent request with the same key won; keep its row and drop ours.
		if prev, ok := s.replay(ctx, scope, key); ok && prev.ID != m.ID {
			_ = s.Repo.DeleteMovie(ctx, s.DB, m.ID)
			return prev, true, nil
		}
		return m, false, nil
	}
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("idempotency record not saved")
	}
	return m, false, nil
}

// Get returns the movie with the given id or ErrMovieNotFound.
func (s *MovieService) Get(ctx context.Context, id uint) (*domain.Movie, error) {
	m, err := s.Repo.GetMovie(ctx, s.DB, id)
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

// Stats reports the number of stored movies and the latest update time,
// enough to version the list for conditional requests.
func (s *MovieService) Stats(ctx context.Context) (count int64, lastUpdated *time.Time, err error) {
	return repo.MoviesStats(ctx, s.DB)
}

// FindByTitle returns the first stored movie with exactly this title.
func (s *MovieService) FindByTitle(ctx context.Context, title string) (*domain.Movie, error) {
	title = normalizeText(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	m, err := s.Repo.FindFirstMovieByTitle(ctx, s.DB, title)
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

// Rate sets the rating and review of an existing movie. Ratings above
// domain.MaxRating fail with ErrRatingTooHigh and leave the row unchanged.
// Other rows are never touched.
func (s *MovieService) Rate(ctx context.Context, id uint, rating float64, review string) (_ *domain.Movie, err error) {
	ctx, span := observability.Start(ctx, "movies.rate", attribute.Int("movie.id", int(id)))
	defer observability.End(span, &err)

	if math.IsNaN(rating) || math.IsInf(rating, 0) {
		return nil, fmt.Errorf("%w: rating must be a number", ErrValidation)
	}
	if rating > domain.MaxRating {
		return nil, ErrRatingTooHigh
	}

	var out *domain.Movie
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.Repo.GetMovie(ctx, tx, id)
		if err != nil {
			return notFound(err)
		}
		r := rating
		m.Rating = &r
		rv := strings.TrimSpace(review)
		m.Review = &rv
		if err := s.Repo.UpdateMovie(ctx, tx, m); err != nil {
			switch {
			case errors.Is(err, repo.ErrConstraint):
				return errors.Join(ErrRatingTooHigh, err)
			default:
				return notFound(err)
			}
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a movie. Deleting an id that does not exist is a no-op.
func (s *MovieService) Delete(ctx context.Context, id uint) error {
	err := s.Repo.DeleteMovie(ctx, s.DB, id)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	return nil
}

// Home recomputes and persists rankings for every stored movie, then returns
// all movies ordered by rating ascending with their fresh ranks attached.
func (s *MovieService) Home(ctx context.Context) (_ []domain.Movie, err error) {
	ctx, span := observability.Start(ctx, "movies.home")
	defer observability.End(span, &err)

	start := time.Now()
	byRank, err := s.Repo.ListMovies(ctx, s.DB, "rating", repo.Desc)
	if err != nil {
		return nil, err
	}
	assignments := ranking.Recompute(byRank)
	if err := s.Repo.SaveRankings(ctx, s.DB, assignments); err != nil {
		return nil, err
	}
	observeRanking(start, len(assignments))
	span.SetAttributes(attribute.Int("movies.count", len(assignments)))

	display, err := s.Repo.ListMovies(ctx, s.DB, "rating", repo.Asc)
	if err != nil {
		return nil, err
	}
	ranking.Apply(display, assignments)
	return display, nil
}

// replay looks up a live idempotency record and the movie it points at.
func (s *MovieService) replay(ctx context.Context, scope, key string) (*domain.Movie, bool) {
	rec, err := repo.GetIdempotency(ctx, s.DB, scope, key, time.Now().UTC())
	if err != nil || rec == nil {
		return nil, false
	}
	m, err := s.Repo.GetMovie(ctx, s.DB, rec.MovieID)
	if err != nil {
		return nil, false
	}
	return m, true
}

// catalogErr maps catalog errors onto service sentinels.
func catalogErr(err error) error {
	switch {
	case errors.Is(err, catalog.ErrRecordMissing):
		return errors.Join(ErrCatalogRecordMissing, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return errors.Join(ErrCatalogUnavailable, err)
	}
}

// notFound maps repository not-found onto ErrMovieNotFound.
func notFound(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return ErrMovieNotFound
	}
	return err
}

// clipRunes truncates s to max runes; max <= 0 disables clipping.
func clipRunes(s string, max int) string {
	if max > 0 && utf8.RuneCountInString(s) > max {
		return string([]rune(s)[:max])
	}
	return s
}

// normalizeText applies NFC, trims, and collapses runs of whitespace.
func normalizeText(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(norm.NFC.String(s)), " ")
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)
