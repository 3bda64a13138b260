package http

import (
	"time"

	"browser-sync/internal/domain"
)

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	CreatedAt string `json:"created_at"`
}

type HistoryResponse struct {
	ID            int64   `json:"id"`
	UserID        int64   `json:"user_id"`
	URL           string  `json:"url"`
	Title         *string `json:"title"`
	VisitCount    int     `json:"visit_count"`
	LastVisitTime string  `json:"last_visit_time"`
	CreatedAt     string  `json:"created_at"`
}

type BookmarkResponse struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"user_id"`
	URL         string  `json:"url"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	FolderID    *int64  `json:"folder_id"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

type SettingResponse struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type BackupResponse struct {
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	CreatedAt string `json:"created_at"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func userToResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: formatTime(user.CreatedAt),
	}
}

func historyToResponse(item domain.HistoryItem) HistoryResponse {
	return HistoryResponse{
		ID:            item.ID,
		UserID:        item.UserID,
		URL:           item.URL,
		Title:         item.Title,
		VisitCount:    item.VisitCount,
		LastVisitTime: formatTime(item.LastVisitTime),
		CreatedAt:     formatTime(item.CreatedAt),
	}
}

func bookmarkToResponse(bookmark domain.Bookmark) BookmarkResponse {
	return BookmarkResponse{
		ID:          bookmark.ID,
		UserID:      bookmark.UserID,
		URL:         bookmark.URL,
		Title:       bookmark.Title,
		Description: bookmark.Description,
		FolderID:    bookmark.FolderID,
		CreatedAt:   formatTime(bookmark.CreatedAt),
		UpdatedAt:   formatTime(bookmark.UpdatedAt),
	}
}

func settingToResponse(setting domain.Setting) SettingResponse {
	return SettingResponse{
		ID:        setting.ID,
		UserID:    setting.UserID,
		Key:       setting.Key,
		Value:     setting.Value,
		CreatedAt: formatTime(setting.CreatedAt),
		UpdatedAt: formatTime(setting.UpdatedAt),
	}
}

func backupToResponse(backup domain.Backup) BackupResponse {
	return BackupResponse{
		Name:      backup.Name,
		Size:      backup.Size,
		CreatedAt: formatTime(backup.CreatedAt),
	}
}
