package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"browser-sync/internal/domain"
	"browser-sync/internal/metrics"
	"browser-sync/internal/service"
)

type tokenForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// visit_count and last_visit_time are accepted by older clients but ignored;
// both are derived server side.
type historyRequest struct {
	URL   string  `json:"url"`
	Title *string `json:"title"`
}

type bookmarkRequest struct {
	URL         string  `json:"url"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	FolderID    *int64  `json:"folder_id"`
}

type settingRequest struct {
	Key   string  `json:"key"`
	Value *string `json:"value"`
}

func (h *Handler) issueToken(c *gin.Context) {
	var form tokenForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		h.badBody(c, err)
		return
	}

	user, err := h.users.Verify(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		h.metrics.ObserveLogin(metrics.LoginError)
		h.respondError(c, err)
		return
	}
	if user == nil {
		h.metrics.ObserveLogin(metrics.LoginFailure)
		unauthorized(c, "incorrect username or password")
		return
	}

	token, _, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.metrics.ObserveLogin(metrics.LoginError)
		h.respondError(c, err)
		return
	}
	h.metrics.ObserveLogin(metrics.LoginSuccess)

	c.JSON(http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(h.tokens.TTL().Seconds()),
	})
}

func (h *Handler) registerUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badBody(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.requestLogger(c).WithField("new_user_id", user.ID).Info("user registered")
	c.JSON(http.StatusCreated, userToResponse(*user))
}

func (h *Handler) currentUser(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), userID(c))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			unauthorized(c, "could not validate credentials")
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) listHistory(c *gin.Context) {
	items, err := h.history.List(c.Request.Context(), userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]HistoryResponse, len(items))
	for i := range items {
		resp[i] = historyToResponse(items[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) recordVisit(c *gin.Context) {
	var req historyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badBody(c, err)
		return
	}

	item, err := h.history.RecordVisit(c.Request.Context(), userID(c), req.URL, req.Title)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.metrics.ObserveVisit()
	c.JSON(http.StatusOK, historyToResponse(*item))
}

func (h *Handler) listBookmarks(c *gin.Context) {
	bookmarks, err := h.bookmarks.List(c.Request.Context(), userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]BookmarkResponse, len(bookmarks))
	for i := range bookmarks {
		resp[i] = bookmarkToResponse(bookmarks[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createBookmark(c *gin.Context) {
	var req bookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badBody(c, err)
		return
	}

	bookmark, err := h.bookmarks.Create(c.Request.Context(), userID(c), service.BookmarkInput{
		URL:         req.URL,
		Title:       req.Title,
		Description: req.Description,
		FolderID:    req.FolderID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bookmarkToResponse(*bookmark))
}

func (h *Handler) getBookmark(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.respondError(c, domain.NewValidationError("id", "must be an integer"))
		return
	}

	bookmark, err := h.bookmarks.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookmarkToResponse(*bookmark))
}

func (h *Handler) listSettings(c *gin.Context) {
	settings, err := h.settings.List(c.Request.Context(), userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]SettingResponse, len(settings))
	for i := range settings {
		resp[i] = settingToResponse(settings[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) upsertSetting(c *gin.Context) {
	var req settingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badBody(c, err)
		return
	}
	if req.Value == nil {
		h.respondError(c, domain.NewValidationError("value", "is required"))
		return
	}

	setting, err := h.settings.Upsert(c.Request.Context(), userID(c), req.Key, *req.Value)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settingToResponse(*setting))
}

func (h *Handler) getSetting(c *gin.Context) {
	setting, err := h.settings.Get(c.Request.Context(), userID(c), c.Param("key"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settingToResponse(*setting))
}

func (h *Handler) listBackups(c *gin.Context) {
	backups, err := h.backups.List(c.Request.Context(), userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]BackupResponse, len(backups))
	for i := range backups {
		resp[i] = backupToResponse(backups[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createBackup(c *gin.Context) {
	backup, err := h.backups.Create(c.Request.Context(), userID(c))
	h.metrics.ObserveBackup(err)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.requestLogger(c).WithField("backup", backup.Name).Info("backup stored")
	c.JSON(http.StatusCreated, backupToResponse(*backup))
}

func (h *Handler) downloadBackup(c *gin.Context) {
	name := c.Param("name")
	body, err := h.backups.Open(c.Request.Context(), userID(c), name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer body.Close()

	c.DataFromReader(http.StatusOK, -1, "application/json", body, map[string]string{
		"Content-Disposition": `attachment; filename="` + name + `"`,
	})
}
