package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"browser-sync/internal/domain"
	"browser-sync/internal/repository"
	"browser-sync/internal/storage"
)

const (
	backupTimeLayout  = "20060102T150405Z"
	backupExt         = ".json"
	snapshotVersion   = 1
	backupContentType = "application/json"
)

// BackupService snapshots a user's synced data into object storage.
type BackupService interface {
	Create(ctx context.Context, userID int64) (*domain.Backup, error)
	List(ctx context.Context, userID int64) ([]domain.Backup, error)
	Open(ctx context.Context, userID int64, name string) (io.ReadCloser, error)
}

// Snapshot is the JSON document stored for each backup.
type Snapshot struct {
	Version   int               `json:"version"`
	UserID    int64             `json:"user_id"`
	CreatedAt time.Time         `json:"created_at"`
	History   []SnapshotHistory `json:"history"`
	Bookmarks []SnapshotMark    `json:"bookmarks"`
	Settings  map[string]string `json:"settings"`
}

type SnapshotHistory struct {
	URL           string    `json:"url"`
	Title         *string   `json:"title,omitempty"`
	VisitCount    int       `json:"visit_count"`
	LastVisitTime time.Time `json:"last_visit_time"`
}

type SnapshotMark struct {
	URL         string    `json:"url"`
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	FolderID    *int64    `json:"folder_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type backupService struct {
	store     storage.Service
	keyPrefix string
	history   repository.HistoryRepository
	bookmarks repository.BookmarkRepository
	settings  repository.SettingRepository
	now       func() time.Time
}

func NewBackupService(
	store storage.Service,
	keyPrefix string,
	history repository.HistoryRepository,
	bookmarks repository.BookmarkRepository,
	settings repository.SettingRepository,
) BackupService {
	return &backupService{
		store:     store,
		keyPrefix: strings.Trim(keyPrefix, "/"),
		history:   history,
		bookmarks: bookmarks,
		settings:  settings,
		now:       time.Now,
	}
}

func (s *backupService) Create(ctx context.Context, userID int64) (*domain.Backup, error) {
	snapshot, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	name := fmt.Sprintf("%s-%s%s", snapshot.CreatedAt.Format(backupTimeLayout), uuid.NewString(), backupExt)
	key := s.userPrefix(userID) + name
	if err := s.store.PutObject(ctx, key, bytes.NewReader(body), backupContentType); err != nil {
		return nil, fmt.Errorf("store backup: %w", err)
	}

	return &domain.Backup{
		Name:      name,
		Key:       key,
		Size:      int64(len(body)),
		CreatedAt: snapshot.CreatedAt,
	}, nil
}

func (s *backupService) List(ctx context.Context, userID int64) ([]domain.Backup, error) {
	prefix := s.userPrefix(userID)
	objects, err := s.store.ListObjects(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}

	backups := make([]domain.Backup, 0, len(objects))
	for _, obj := range objects {
		name := strings.TrimPrefix(obj.Key, prefix)
		if !validBackupName(name) {
			continue
		}
		createdAt, ok := parseBackupTime(name)
		if !ok && obj.LastModified != nil {
			createdAt = obj.LastModified.UTC()
		}
		backups = append(backups, domain.Backup{
			Name:      name,
			Key:       obj.Key,
			Size:      obj.Size,
			CreatedAt: createdAt,
		})
	}

	sort.SliceStable(backups, func(i, j int) bool {
		if backups[i].CreatedAt.Equal(backups[j].CreatedAt) {
			return backups[i].Name > backups[j].Name
		}
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

func (s *backupService) Open(ctx context.Context, userID int64, name string) (io.ReadCloser, error) {
	if !validBackupName(name) {
		return nil, fmt.Errorf("backup %q: %w", name, domain.ErrNotFound)
	}

	body, err := s.store.GetObject(ctx, s.userPrefix(userID)+name)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("backup %q: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("open backup: %w", err)
	}
	return body, nil
}

func (s *backupService) snapshot(ctx context.Context, userID int64) (*Snapshot, error) {
	history, err := s.history.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("snapshot history: %w", err)
	}
	bookmarks, err := s.bookmarks.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("snapshot bookmarks: %w", err)
	}
	settings, err := s.settings.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("snapshot settings: %w", err)
	}

	snapshot := &Snapshot{
		Version:   snapshotVersion,
		UserID:    userID,
		CreatedAt: s.now().UTC().Truncate(time.Second),
		History:   make([]SnapshotHistory, 0, len(history)),
		Bookmarks: make([]SnapshotMark, 0, len(bookmarks)),
		Settings:  make(map[string]string, len(settings)),
	}
	for _, h := range history {
		snapshot.History = append(snapshot.History, SnapshotHistory{
			URL:           h.URL,
			Title:         h.Title,
			VisitCount:    h.VisitCount,
			LastVisitTime: h.LastVisitTime,
		})
	}
	for _, b := range bookmarks {
		snapshot.Bookmarks = append(snapshot.Bookmarks, SnapshotMark{
			URL:         b.URL,
			Title:       b.Title,
			Description: b.Description,
			FolderID:    b.FolderID,
			CreatedAt:   b.CreatedAt,
		})
	}
	for _, st := range settings {
		snapshot.Settings[st.Key] = st.Value
	}
	return snapshot, nil
}

func (s *backupService) userPrefix(userID int64) string {
	p := fmt.Sprintf("users/%d/", userID)
	if s.keyPrefix != "" {
		p = s.keyPrefix + "/" + p
	}
	return p
}

// validBackupName accepts a bare object name inside the caller's prefix.
func validBackupName(name string) bool {
	if name == "" || name != path.Base(name) || strings.HasPrefix(name, ".") {
		return false
	}
	return strings.HasSuffix(name, backupExt) && !strings.ContainsAny(name, `/\`)
}

func parseBackupTime(name string) (time.Time, bool) {
	if len(name) < len(backupTimeLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(backupTimeLayout, name[:len(backupTimeLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
