package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"browser-sync/internal/auth"
	"browser-sync/internal/metrics"
	"browser-sync/internal/service"
)

// Pinger reports whether the datastore is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies groups everything the API needs. Backups may be nil, in which
// case the backup routes are not registered.
type Dependencies struct {
	Users     service.UserService
	History   service.HistoryService
	Bookmarks service.BookmarkService
	Settings  service.SettingService
	Backups   service.BackupService
	Tokens    *auth.TokenService
	Metrics   *metrics.Metrics
	Health    Pinger
	Logger    logrus.FieldLogger
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users     service.UserService
	history   service.HistoryService
	bookmarks service.BookmarkService
	settings  service.SettingService
	backups   service.BackupService
	tokens    *auth.TokenService
	metrics   *metrics.Metrics
	health    Pinger
	logger    logrus.FieldLogger
}

func NewHandler(deps Dependencies) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}
	return &Handler{
		users:     deps.Users,
		history:   deps.History,
		bookmarks: deps.Bookmarks,
		settings:  deps.Settings,
		backups:   deps.Backups,
		tokens:    deps.Tokens,
		metrics:   m,
		health:    deps.Health,
		logger:    logger,
	}
}

// NewRouter builds a gin engine with the full middleware chain and all routes.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(h.recovery(), requestID(), h.accessLog(), corsMiddleware())
	h.RegisterRoutes(router)
	return router
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.POST("/token", h.issueToken)
	router.POST("/users/", h.registerUser)
	router.GET("/health", h.healthCheck)
	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	authed := router.Group("/", h.requireAuth())
	{
		authed.GET("/users/me", h.currentUser)

		authed.GET("/history/", h.listHistory)
		authed.POST("/history/", h.recordVisit)

		authed.GET("/bookmarks/", h.listBookmarks)
		authed.POST("/bookmarks/", h.createBookmark)
		authed.GET("/bookmarks/:id", h.getBookmark)

		authed.GET("/settings/", h.listSettings)
		authed.POST("/settings/", h.upsertSetting)
		authed.GET("/settings/:key", h.getSetting)

		if h.backups != nil {
			authed.GET("/backups/", h.listBackups)
			authed.POST("/backups/", h.createBackup)
			authed.GET("/backups/:name", h.downloadBackup)
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) healthCheck(c *gin.Context) {
	if h.health != nil {
		if err := h.health.Ping(c.Request.Context()); err != nil {
			h.logger.WithError(err).Warn("health check: datastore unreachable")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
