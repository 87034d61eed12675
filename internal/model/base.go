package model

import (
	"math"
	"strings"
	"time"
)

// Base contains persistence metadata shared by all entities. ID is assigned
// by the repository on insert and never changes afterwards; Version is bumped
// on every successful update and guards compare-and-set writes.
type Base struct {
	ID        int64     `json:"id" db:"id"`
	Version   int       `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Meta exposes the persistence metadata of any entity embedding Base.
func (b *Base) Meta() *Base {
	return b
}

// roundCents rounds a monetary amount to two decimals.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
