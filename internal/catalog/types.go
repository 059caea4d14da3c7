package catalog

import "strings"

// SearchResult is one candidate returned by a title search. The raw catalog
// fields are kept so the selection view can show enough to pick from.
type SearchResult struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	ReleaseDate   string  `json:"release_date"`
	Overview      string  `json:"overview"`
	PosterPath    string  `json:"poster_path"`
	VoteAverage   float64 `json:"vote_average"`
}

// Year returns the four-digit year of the release date, or "".
func (r SearchResult) Year() string { return yearOf(r.ReleaseDate) }

// Details is the normalized detail record used to create a movie row.
type Details struct {
	CatalogID int64  `json:"catalog_id"`
	Title     string `json:"title"`
	Year      string `json:"year"`
	Overview  string `json:"overview"`
	PosterURL string `json:"poster_url"`
}

// searchResponse mirrors GET /search/movie.
type searchResponse struct {
	Page         int            `json:"page"`
	Results      []SearchResult `json:"results"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

// detailsResponse mirrors the subset of GET /movie/{id} that is consumed.
type detailsResponse struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	OriginalTitle string `json:"original_title"`
	Overview      string `json:"overview"`
	PosterPath    string `json:"poster_path"`
	ReleaseDate   string `json:"release_date"`
}

func yearOf(date string) string {
	date = strings.TrimSpace(date)
	if i := strings.IndexByte(date, '-'); i > 0 {
		return date[:i]
	}
	return date
}
