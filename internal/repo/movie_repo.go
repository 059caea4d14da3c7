// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Movie model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a movie is not found, functions return ErrNotFound
//     (an alias of gorm.ErrRecordNotFound).
//   - When a write violates the rating check constraint, ErrConstraint is
//     returned wrapping the driver error.
//   - Other DB errors are propagated unchanged.
//
// Functions:
//
//   - InsertMovie(ctx, db, movie) -> id, error
//   - GetMovie(ctx, db, id) -> *domain.Movie, error
//   - DeleteMovie(ctx, db, id) -> error
//   - FindFirstMovieByTitle(ctx, db, title) -> *domain.Movie, error
//   - ListMovies(ctx, db, field, dir) -> []domain.Movie, error
//   - UpdateMovie(ctx, db, movie) -> error
//   - SaveRankings(ctx, db, assignments) -> error
package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-top-movies/internal/domain"
	"github.com/tbourn/go-top-movies/internal/ranking"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrConstraint is returned when a write violates a table constraint
// (currently only the rating <= 10 check).
var ErrConstraint = errors.New("constraint violation")

// ErrBadOrder is returned by ListMovies for an unknown field or direction.
var ErrBadOrder = errors.New("unsupported ordering")

// Sort directions accepted by ListMovies.
const (
	Asc  = "asc"
	Desc = "desc"
)

// orderable whitelists the columns ListMovies may sort by.
var orderable = map[string]bool{
	"id":         true,
	"rating":     true,
	"ranking":    true,
	"title":      true,
	"created_at": true,
}

// InsertMovie persists m and returns the id assigned by the store.
// A rating above domain.MaxRating fails with ErrConstraint.
func InsertMovie(ctx context.Context, db *gorm.DB, m *domain.Movie) (uint, error) {
	m.ID = 0
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return 0, translate(err)
	}
	return m.ID, nil
}

// GetMovie fetches a single movie by id, or ErrNotFound if missing.
func GetMovie(ctx context.Context, db *gorm.DB, id uint) (*domain.Movie, error) {
	var m domain.Movie
	if err := db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// DeleteMovie removes the movie with the given id. If no row was removed it
// returns ErrNotFound; callers that treat deletion as idempotent may ignore it.
func DeleteMovie(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.Movie{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindFirstMovieByTitle returns the lowest-id movie with exactly this title,
// or ErrNotFound when there is none.
func FindFirstMovieByTitle(ctx context.Context, db *gorm.DB, title string) (*domain.Movie, error) {
	var m domain.Movie
	err := db.WithContext(ctx).
		Where("title = ?", title).
		Order("id asc").
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMovies returns a snapshot of every movie ordered by field in direction
// dir ("asc" or "desc"). Ties are broken by id ascending.
//
// Nullable columns sort NULLs first when ascending and last when descending,
// on every driver, so unrated movies always rank after rated ones.
func ListMovies(ctx context.Context, db *gorm.DB, field, dir string) ([]domain.Movie, error) {
	order, err := orderClause(field, dir)
	if err != nil {
		return nil, err
	}
	var out []domain.Movie
	err = db.WithContext(ctx).Order(order).Find(&out).Error
	return out, err
}

// UpdateMovie persists the mutable fields of an existing movie. It returns
// ErrNotFound if the row is gone and ErrConstraint when the rating check fails.
func UpdateMovie(ctx context.Context, db *gorm.DB, m *domain.Movie) error {
	res := db.WithContext(ctx).
		Model(&domain.Movie{ID: m.ID}).
		Select("CatalogID", "Title", "Year", "Description", "Rating", "Ranking", "Review", "ImgURL", "UpdatedAt").
		Updates(m)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveRankings writes every assignment inside a single transaction. Rows that
// disappeared since the assignments were computed are skipped.
func SaveRankings(ctx context.Context, db *gorm.DB, assignments []ranking.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, a := range assignments {
			err := tx.Model(&domain.Movie{}).
				Where("id = ?", a.ID).
				UpdateColumn("ranking", a.Rank).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// orderClause builds a driver-neutral ORDER BY expression.
func orderClause(field, dir string) (string, error) {
	field = strings.ToLower(strings.TrimSpace(field))
	dir = strings.ToLower(strings.TrimSpace(dir))
	if !orderable[field] || (dir != Asc && dir != Desc) {
		return "", fmt.Errorf("%w: %s %s", ErrBadOrder, field, dir)
	}
	if field == "id" {
		return "id " + dir, nil
	}
	return fmt.Sprintf("CASE WHEN %[1]s IS NULL THEN 0 ELSE 1 END %[2]s, %[1]s %[2]s, id asc", field, dir), nil
}

// translate maps driver errors onto repository sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrCheckConstraintViolated) || isCheckViolation(err) {
		return fmt.Errorf("%w: %v", ErrConstraint, err)
	}
	return err
}

// isCheckViolation detects check-constraint failures across drivers that do
// not map to gorm.ErrCheckConstraintViolated.
func isCheckViolation(err error) bool {
	// SQLite: "CHECK constraint failed: chk_movies_rating"
	// Postgres: "violates check constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "check constraint")
}
