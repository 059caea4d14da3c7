// Package ranking computes the dense 1..N ranking of stored movies.
//
// Rankings are derived data: the list view recomputes them from ratings on
// every read and persists the result as a cache column. Everything in this
// package is pure; callers own persistence.
package ranking

import (
	"sort"

	"github.com/tbourn/go-top-movies/internal/domain"
)

// Assignment pairs a movie id with its computed rank.
type Assignment struct {
	ID   uint
	Rank int
}

// Recompute orders movies by rating descending and assigns rank = position+1.
//
// Unrated movies sort after every rated one. Equal ratings keep the input
// order, so passing rows in the store's natural order makes the result
// deterministic. The input slice is not modified.
func Recompute(movies []domain.Movie) []Assignment {
	idx := make([]int, len(movies))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return higher(movies[idx[a]], movies[idx[b]])
	})

	out := make([]Assignment, len(movies))
	for pos, i := range idx {
		out[pos] = Assignment{ID: movies[i].ID, Rank: pos + 1}
	}
	return out
}

// Apply copies ranks from assignments onto the matching movies in place.
// Movies without an assignment are left untouched.
func Apply(movies []domain.Movie, assignments []Assignment) {
	byID := make(map[uint]int, len(assignments))
	for _, a := range assignments {
		byID[a.ID] = a.Rank
	}
	for i := range movies {
		if r, ok := byID[movies[i].ID]; ok {
			rank := r
			movies[i].Ranking = &rank
		}
	}
}

// higher reports whether a ranks strictly before b.
func higher(a, b domain.Movie) bool {
	switch {
	case a.Rating == nil:
		return false
	case b.Rating == nil:
		return true
	default:
		return *a.Rating > *b.Rating
	}
}
