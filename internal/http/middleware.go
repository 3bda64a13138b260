package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	requestIDHeader = "X-Request-ID"
	maxRequestIDLen = 128

	ctxRequestID = "request_id"
	ctxUserID    = "user_id"
)

// recovery turns panics into a logged 500 instead of a dropped connection.
func (h *Handler) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		h.requestLogger(c).WithField("panic", recovered).Error("panic while serving request")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
}

// requestID propagates a caller-supplied X-Request-ID or mints a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// accessLog writes one log line and one metrics sample per request.
func (h *Handler) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		done := h.metrics.TrackInflight()
		defer done()

		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		h.metrics.ObserveRequest(c.Request.Method, route, status, elapsed)

		entry := h.requestLogger(c).WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"route":    route,
			"status":   status,
			"duration": elapsed,
		})
		if route == "" {
			entry = entry.WithField("path", c.Request.URL.Path)
		}

		switch {
		case status >= http.StatusInternalServerError:
			if len(c.Errors) > 0 {
				entry = entry.WithError(c.Errors.Last().Err)
			}
			entry.Error("request failed")
		default:
			entry.Info("request served")
		}
	}
}

// requireAuth validates the bearer token and stores the caller's user id.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c, "not authenticated")
			return
		}

		userID, err := h.tokens.Validate(token)
		if err != nil {
			h.requestLogger(c).WithField("reason", err.Error()).Debug("rejected bearer token")
			unauthorized(c, "could not validate credentials")
			return
		}

		c.Set(ctxUserID, userID)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

// userID returns the authenticated caller. It is only valid behind requireAuth.
func userID(c *gin.Context) int64 {
	return c.GetInt64(ctxUserID)
}

func (h *Handler) requestLogger(c *gin.Context) logrus.FieldLogger {
	fields := logrus.Fields{}
	if id := c.GetString(ctxRequestID); id != "" {
		fields["request_id"] = id
	}
	if uid, ok := c.Get(ctxUserID); ok {
		fields["user_id"] = uid
	}
	return h.logger.WithFields(fields)
}
