package domain

import "time"

// Backup describes a stored snapshot of a user's synced data.
type Backup struct {
	Name      string
	Key       string
	Size      int64
	CreatedAt time.Time
}
