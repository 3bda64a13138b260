package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"browser-sync/internal/domain"
	"browser-sync/internal/repository"
)

const (
	maxURLLen        = 2048
	maxSettingKeyLen = 255
)

// HistoryService records and lists a user's visited URLs.
type HistoryService interface {
	List(ctx context.Context, userID int64) ([]domain.HistoryItem, error)
	// RecordVisit counts a visit to url at the current time. Visit counts and
	// timestamps are always derived here, never taken from the client.
	RecordVisit(ctx context.Context, userID int64, url string, title *string) (*domain.HistoryItem, error)
}

// BookmarkInput carries the client-supplied fields of a new bookmark.
type BookmarkInput struct {
	URL         string
	Title       *string
	Description *string
	FolderID    *int64
}

// BookmarkService creates and reads a user's bookmarks.
type BookmarkService interface {
	List(ctx context.Context, userID int64) ([]domain.Bookmark, error)
	Create(ctx context.Context, userID int64, in BookmarkInput) (*domain.Bookmark, error)
	Get(ctx context.Context, userID, id int64) (*domain.Bookmark, error)
}

// SettingService reads and writes a user's key/value settings.
type SettingService interface {
	List(ctx context.Context, userID int64) ([]domain.Setting, error)
	Get(ctx context.Context, userID int64, key string) (*domain.Setting, error)
	Upsert(ctx context.Context, userID int64, key, value string) (*domain.Setting, error)
}

type historyService struct {
	history repository.HistoryRepository
	now     func() time.Time
}

func NewHistoryService(history repository.HistoryRepository) HistoryService {
	return &historyService{history: history, now: time.Now}
}

func (s *historyService) List(ctx context.Context, userID int64) ([]domain.HistoryItem, error) {
	return s.history.ListByUser(ctx, userID)
}

func (s *historyService) RecordVisit(ctx context.Context, userID int64, url string, title *string) (*domain.HistoryItem, error) {
	url, err := normalizeURL(url)
	if err != nil {
		return nil, err
	}
	return s.history.RecordVisit(ctx, userID, url, optionalText(title), s.now())
}

type bookmarkService struct {
	bookmarks repository.BookmarkRepository
}

func NewBookmarkService(bookmarks repository.BookmarkRepository) BookmarkService {
	return &bookmarkService{bookmarks: bookmarks}
}

func (s *bookmarkService) List(ctx context.Context, userID int64) ([]domain.Bookmark, error) {
	return s.bookmarks.ListByUser(ctx, userID)
}

func (s *bookmarkService) Create(ctx context.Context, userID int64, in BookmarkInput) (*domain.Bookmark, error) {
	url, err := normalizeURL(in.URL)
	if err != nil {
		return nil, err
	}
	if in.FolderID != nil && *in.FolderID <= 0 {
		return nil, domain.NewValidationError("folder_id", "must be a positive id")
	}

	bookmark := &domain.Bookmark{
		URL:         url,
		Title:       optionalText(in.Title),
		Description: optionalText(in.Description),
		FolderID:    in.FolderID,
	}
	if err := s.bookmarks.Create(ctx, userID, bookmark); err != nil {
		return nil, err
	}
	return bookmark, nil
}

func (s *bookmarkService) Get(ctx context.Context, userID, id int64) (*domain.Bookmark, error) {
	if id <= 0 {
		return nil, domain.ErrNotFound
	}
	return s.bookmarks.Get(ctx, userID, id)
}

type settingService struct {
	settings repository.SettingRepository
}

func NewSettingService(settings repository.SettingRepository) SettingService {
	return &settingService{settings: settings}
}

func (s *settingService) List(ctx context.Context, userID int64) ([]domain.Setting, error) {
	return s.settings.ListByUser(ctx, userID)
}

func (s *settingService) Get(ctx context.Context, userID int64, key string) (*domain.Setting, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, err
	}
	return s.settings.Get(ctx, userID, key)
}

func (s *settingService) Upsert(ctx context.Context, userID int64, key, value string) (*domain.Setting, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, err
	}
	return s.settings.Upsert(ctx, userID, key, value)
}

func normalizeURL(url string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", domain.NewValidationError("url", "is required")
	}
	if utf8.RuneCountInString(url) > maxURLLen {
		return "", domain.NewValidationError("url", "must be at most %d characters", maxURLLen)
	}
	return url, nil
}

func normalizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", domain.NewValidationError("key", "is required")
	}
	if utf8.RuneCountInString(key) > maxSettingKeyLen {
		return "", domain.NewValidationError("key", "must be at most %d characters", maxSettingKeyLen)
	}
	return key, nil
}

// optionalText trims s and treats blank text as absent.
func optionalText(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
