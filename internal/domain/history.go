package domain

import "time"

// HistoryItem is a visited URL, unique per (UserID, URL).
type HistoryItem struct {
	ID            int64
	UserID        int64
	URL           string
	Title         *string
	VisitCount    int
	LastVisitTime time.Time
	CreatedAt     time.Time
}
