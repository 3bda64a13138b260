package domain

import "time"

// Bookmark is a saved URL. FolderID is an opaque reference and is not resolved.
type Bookmark struct {
	ID          int64
	UserID      int64
	URL         string
	Title       *string
	Description *string
	FolderID    *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
