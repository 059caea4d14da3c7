package domain

import "time"

// Idempotency records the outcome of a movie creation keyed by (scope, key).
// A retried request carrying the same key replays the recorded movie instead
// of inserting the catalog entry a second time.
type Idempotency struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Scope     string    `gorm:"not null;size:300;uniqueIndex:ux_scope_key,priority:1"`
	Key       string    `gorm:"not null;size:200;uniqueIndex:ux_scope_key,priority:2"`
	MovieID   uint      `gorm:"not null"`
	Status    int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
