package repo

import (
	"context"
	"fmt"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-top-movies/internal/domain"
)

// newTestDB opens an isolated in-memory database with the schema migrated.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func fptr(f float64) *float64 { return &f }

func mustInsert(t *testing.T, db *gorm.DB, title string, rating *float64) *domain.Movie {
	t.Helper()
	m := &domain.Movie{Title: title, Year: "(2000)", Description: "d", ImgURL: "http://img/" + title, Rating: rating}
	if _, err := InsertMovie(context.Background(), db, m); err != nil {
		t.Fatalf("InsertMovie(%s): %v", title, err)
	}
	return m
}
