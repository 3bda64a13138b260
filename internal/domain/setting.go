package domain

import "time"

// Setting is a key/value pair, unique per (UserID, Key).
type Setting struct {
	ID        int64
	UserID    int64
	Key       string
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
