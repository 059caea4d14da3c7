// Package domain defines the persistence models for the ranked movie list.
// These types are mapped with GORM and form the core data layer of the
// application.
package domain

import (
	"time"
)

// MaxRating is the upper bound (inclusive) accepted for a movie rating.
const MaxRating = 10.0

// Movie is a single entry in the personal movie list. Rows are created from a
// catalog lookup (unrated), rated by the user, and ranked on every list read.
//
// Fields:
//   - ID: autoincrement primary key assigned on insert.
//   - CatalogID: id of the catalog record the row was created from.
//   - Title: movie title, never empty.
//   - Year: display text such as "(2002)"; empty when the release date is unknown.
//   - Description: overview text, clipped to 500 runes on insert.
//   - Rating: nil until the user rates the movie; at most MaxRating (DB check).
//   - Ranking: cached 1-based position by rating desc; stale until the next list read.
//   - Review: optional free text.
//   - ImgURL: absolute poster URL.
type Movie struct {
	ID          uint      `json:"id"          gorm:"primaryKey;autoIncrement"`
	CatalogID   int64     `json:"catalog_id"  gorm:"index"`
	Title       string    `json:"title"       gorm:"type:varchar(250);not null"`
	Year        string    `json:"year"        gorm:"type:varchar(16)"`
	Description string    `json:"description" gorm:"type:varchar(500)"`
	Rating      *float64  `json:"rating"      gorm:"check:chk_movies_rating,rating <= 10"`
	Ranking     *int      `json:"ranking"`
	Review      *string   `json:"review"      gorm:"type:varchar(1000)"`
	ImgURL      string    `json:"img_url"     gorm:"type:varchar(500)"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Movie.
func (Movie) TableName() string { return "movies" }

// Rated reports whether the movie has a rating.
func (m Movie) Rated() bool { return m.Rating != nil }

// RatingValue returns the rating or 0 when unrated.
func (m Movie) RatingValue() float64 {
	if m.Rating == nil {
		return 0
	}
	return *m.Rating
}

// RankingValue returns the cached ranking or 0 when none has been assigned.
func (m Movie) RankingValue() int {
	if m.Ranking == nil {
		return 0
	}
	return *m.Ranking
}

// ReviewText returns the review or "" when absent.
func (m Movie) ReviewText() string {
	if m.Review == nil {
		return ""
	}
	return *m.Review
}
