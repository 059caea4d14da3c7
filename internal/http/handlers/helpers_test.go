package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-top-movies/internal/catalog"
	"github.com/tbourn/go-top-movies/internal/domain"
	"github.com/tbourn/go-top-movies/internal/http/middleware"
	"github.com/tbourn/go-top-movies/internal/http/web"
	"github.com/tbourn/go-top-movies/internal/services"
)

// fakeService is an in-memory MovieService. Errors set on the struct are
// returned by the matching method.
type fakeService struct {
	mu     sync.Mutex
	movies map[uint]*domain.Movie
	nextID uint
	keys   map[string]uint

	catalog map[int64]catalog.Details

	searchErr error
	selectErr error
	homeErr   error
	deleteErr error
	statsErr  error

	version time.Time // bumped by every write

	searched []string
	deleted  []uint
}

func newFakeService() *fakeService {
	return &fakeService{
		movies: map[uint]*domain.Movie{},
		keys:   map[string]uint{},
		catalog: map[int64]catalog.Details{
			550: {CatalogID: 550, Title: "Fight Club", Year: "1999", Overview: "An insomniac.", PosterURL: "https://image.tmdb.org/t/p/w500/fc.jpg"},
			603: {CatalogID: 603, Title: "The Matrix", Year: "1999", Overview: "Neo.", PosterURL: "https://image.tmdb.org/t/p/w500/m.jpg"},
		},
	}
}

func (f *fakeService) seed(title string, rating *float64) *domain.Movie {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	m := &domain.Movie{ID: f.nextID, Title: title, Year: "2000", Rating: rating}
	f.movies[m.ID] = m
	f.bump()
	return m
}

func (f *fakeService) Search(_ context.Context, query string) ([]catalog.SearchResult, error) {
	f.searched = append(f.searched, query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, services.ErrValidation
	}
	out := []catalog.SearchResult{}
	for id, d := range f.catalog {
		if strings.Contains(strings.ToLower(d.Title), q) {
			out = append(out, catalog.SearchResult{ID: id, Title: d.Title, ReleaseDate: d.Year + "-01-01"})
		}
	}
	return out, nil
}

func (f *fakeService) Select(_ context.Context, catalogID int64) (*domain.Movie, error) {
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	d, ok := f.catalog[catalogID]
	if !ok {
		return nil, services.ErrCatalogRecordMissing
	}
	m := f.seed(d.Title, nil)
	m.CatalogID = d.CatalogID
	m.Year = d.Year
	m.Description = d.Overview
	m.ImgURL = d.PosterURL
	return m, nil
}

func (f *fakeService) SelectIdempotent(ctx context.Context, scope, key string, catalogID int64) (*domain.Movie, bool, error) {
	if key != "" {
		if id, ok := f.keys[scope+"|"+key]; ok {
			return f.movies[id], true, nil
		}
	}
	m, err := f.Select(ctx, catalogID)
	if err != nil {
		return nil, false, err
	}
	if key != "" {
		f.keys[scope+"|"+key] = m.ID
	}
	return m, false, nil
}

func (f *fakeService) Get(_ context.Context, id uint) (*domain.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.movies[id]
	if !ok {
		return nil, services.ErrMovieNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeService) FindByTitle(_ context.Context, title string) (*domain.Movie, error) {
	for _, id := range f.ids() {
		if f.movies[id].Title == title {
			return f.movies[id], nil
		}
	}
	return nil, services.ErrMovieNotFound
}

func (f *fakeService) Rate(_ context.Context, id uint, rating float64, review string) (*domain.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.movies[id]
	if !ok {
		return nil, services.ErrMovieNotFound
	}
	if rating > domain.MaxRating {
		return nil, services.ErrRatingTooHigh
	}
	m.Rating = &rating
	m.Review = &review
	f.bump()
	return m, nil
}

func (f *fakeService) Delete(_ context.Context, id uint) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	delete(f.movies, id)
	f.bump()
	return nil
}

func (f *fakeService) Stats(_ context.Context) (int64, *time.Time, error) {
	if f.statsErr != nil {
		return 0, nil, f.statsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.movies) == 0 {
		return 0, nil, nil
	}
	v := f.version
	return int64(len(f.movies)), &v, nil
}

// bump advances the list version. Caller holds mu.
func (f *fakeService) bump() {
	if f.version.IsZero() {
		f.version = time.Unix(1_700_000_000, 0)
	}
	f.version = f.version.Add(time.Second)
}

func (f *fakeService) Home(_ context.Context) ([]domain.Movie, error) {
	if f.homeErr != nil {
		return nil, f.homeErr
	}
	var out []domain.Movie
	for _, id := range f.ids() {
		out = append(out, *f.movies[id])
	}
	return out, nil
}

func (f *fakeService) ids() []uint {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]uint, 0, len(f.movies))
	for id := range f.movies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func fptr(v float64) *float64 { return &v }

const testSecret = "handlers-test-secret"

// newTestRouter mounts the pages and API routes over svc the way the
// application router does, minus tracing and rate limiting.
func newTestRouter(t *testing.T, svc MovieService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	RegisterValidators()

	tmpl, err := web.Templates()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(middleware.RequestID())
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))

	h := New(svc)
	pages := r.Group("/", middleware.Sessions(middleware.SessionOptions{Secret: []byte(testSecret)}), middleware.VerifyCSRF())
	pages.GET("", h.Home)
	pages.GET("/delete/:id", h.Delete)
	pages.POST("/delete/:id", h.Delete)
	pages.GET("/add", h.Add)
	pages.POST("/add", h.Add)
	pages.GET("/select", h.Select)
	pages.POST("/select", h.Select)
	pages.GET("/update/:id", h.Update)
	pages.POST("/update/:id", h.Update)

	api := r.Group("/api/v1")
	api.GET("/movies", h.ListMovies)
	api.POST("/movies", h.CreateMovie)
	api.GET("/movies/:id", h.GetMovie)
	api.PUT("/movies/:id/rating", h.RateMovie)
	api.DELETE("/movies/:id", h.DeleteMovie)
	api.GET("/catalog/search", h.SearchCatalog)
	return r
}

// csrfCookie performs a GET to obtain a signed CSRF cookie and its token.
func csrfCookie(t *testing.T, r *gin.Engine) (*http.Cookie, string) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/add", nil))
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "tm_csrf" {
			token, ok := middleware.Unsign([]byte(testSecret), ck.Value)
			if !ok {
				t.Fatalf("csrf cookie does not verify")
			}
			return ck, token
		}
	}
	t.Fatalf("no csrf cookie issued")
	return nil, ""
}

// postForm submits form to path with a valid CSRF token.
func postForm(t *testing.T, r *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	ck, token := csrfCookie(t, r)
	form.Set(middleware.CSRFField, token)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(ck)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// flashOf decodes the flash cookie set on a response, or "".
func flashOf(t *testing.T, r *gin.Engine, w *httptest.ResponseRecorder) string {
	t.Helper()
	for _, ck := range w.Result().Cookies() {
		if ck.Name != "tm_flash" || ck.Value == "" {
			continue
		}
		// Read it back through a page render.
		req := httptest.NewRequest(http.MethodGet, "/add", nil)
		req.AddCookie(ck)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Body.String()
	}
	return ""
}
