package domain

import (
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func fptr(f float64) *float64 { return &f }
func sptr(s string) *string    { return &s }

func TestTableNames(t *testing.T) {
	if (Movie{}).TableName() != "movies" {
		t.Fatalf("Movie.TableName() = %q; want movies", (Movie{}).TableName())
	}
	if (Idempotency{}).TableName() != "idempotency" {
		t.Fatalf("Idempotency.TableName() = %q; want idempotency", (Idempotency{}).TableName())
	}
}

func TestMovieAccessors(t *testing.T) {
	var m Movie
	if m.Rated() || m.RatingValue() != 0 || m.RankingValue() != 0 || m.ReviewText() != "" {
		t.Fatalf("zero Movie accessors unexpected: %+v", m)
	}
	r := 3
	m = Movie{Rating: fptr(7.5), Ranking: &r, Review: sptr("tense")}
	if !m.Rated() || m.RatingValue() != 7.5 || m.RankingValue() != 3 || m.ReviewText() != "tense" {
		t.Fatalf("accessors unexpected: rated=%v rating=%v rank=%v review=%q",
			m.Rated(), m.RatingValue(), m.RankingValue(), m.ReviewText())
	}
}

func TestMovieMigration_ColumnsAndRatingCheck(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Movie{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	mg := db.Migrator()
	for _, col := range []string{"id", "catalog_id", "title", "year", "description", "rating", "ranking", "review", "img_url"} {
		if !mg.HasColumn(&Movie{}, col) {
			t.Fatalf("expected column %q", col)
		}
	}
	if !mg.HasConstraint(&Movie{}, "chk_movies_rating") {
		t.Fatalf("expected rating check constraint")
	}

	ok := Movie{Title: "Phone Booth", Year: "(2002)", Rating: fptr(MaxRating)}
	if err := db.Create(&ok).Error; err != nil {
		t.Fatalf("insert rating=10: %v", err)
	}
	if ok.ID == 0 || ok.Ranking != nil {
		t.Fatalf("expected id assigned and ranking nil, got %+v", ok)
	}

	unrated := Movie{Title: "Unrated"}
	if err := db.Create(&unrated).Error; err != nil {
		t.Fatalf("insert unrated: %v", err)
	}

	bad := Movie{Title: "Too good", Rating: fptr(10.5)}
	if err := db.Create(&bad).Error; err == nil {
		t.Fatalf("expected check constraint violation for rating 10.5")
	}

	var n int64
	db.Model(&Movie{}).Count(&n)
	if n != 2 {
		t.Fatalf("want 2 rows after rejected insert, got %d", n)
	}
}
