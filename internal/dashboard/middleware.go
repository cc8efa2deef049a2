package dashboard

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/chargeyard/internal/apperr"
	"github.com/zulandar/chargeyard/internal/auth"
	"github.com/zulandar/chargeyard/internal/gantt"
	"github.com/zulandar/chargeyard/internal/metrics"
	"github.com/zulandar/chargeyard/internal/models"
	"go.uber.org/zap"
)

const (
	profileKey  = "profile"
	tokenKey    = "token"
	tokenCookie = "chargeyard_token"
)

// requestLogger logs one line per request.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// observeDuration records request latency by route pattern.
func observeDuration() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// requestToken reads the bearer token, falling back to the session cookie
// so printable pages open directly in a browser.
func requestToken(c *gin.Context) string {
	if tok, err := auth.ExtractToken(c.Request); err == nil {
		return tok
	}
	if tok, err := c.Cookie(tokenCookie); err == nil {
		return tok
	}
	return ""
}

// authRequired resolves the session token and stores the profile on the
// context.
func (s *server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := requestToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		p, err := s.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			s.fail(c, err)
			c.Abort()
			return
		}
		if !auth.CanRead(p.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "unknown role"})
			return
		}
		c.Set(profileKey, p)
		c.Set(tokenKey, token)
		c.Next()
	}
}

// requireWrite rejects callers whose role fails auth.CanWrite.
func (s *server) requireWrite() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := currentProfile(c)
		if p == nil || !auth.CanWrite(p.Role) {
			metrics.IncrementWrite(entityOf(c), opOf(c.Request.Method), "denied")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}

func currentProfile(c *gin.Context) *models.Profile {
	v, ok := c.Get(profileKey)
	if !ok {
		return nil
	}
	p, _ := v.(*models.Profile)
	return p
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case apperr.NotFound(err):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalid), errors.Is(err, gantt.ErrNoTasks):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail logs err once and writes the JSON error response. Internal errors
// are not echoed to the client.
func (s *server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", fields...)
		msg = "internal error"
	} else {
		s.log.Warn("request rejected", fields...)
	}
	if status == http.StatusUnauthorized {
		msg = "invalid or expired session"
	}
	c.JSON(status, gin.H{"error": msg})
}

var entities = map[string]string{
	"projects":  "project",
	"progress":  "project",
	"phases":    "phase",
	"tasks":     "task",
	"fields":    "field",
	"budget":    "budget",
	"notes":     "note",
	"permits":   "permit",
	"utilities": "utility",
	"users":     "user",
	"role":      "user",
}

// entityOf names the record type a route writes, from the last static
// path segment that identifies one.
func entityOf(c *gin.Context) string {
	parts := strings.Split(c.FullPath(), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if e, ok := entities[parts[i]]; ok {
			return e
		}
	}
	return "unknown"
}

func opOf(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	}
	return strings.ToLower(method)
}

// countWrites records the outcome of every permitted mutation.
func countWrites() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		outcome := "ok"
		if c.Writer.Status() >= http.StatusBadRequest {
			outcome = "failed"
		}
		metrics.IncrementWrite(entityOf(c), opOf(c.Request.Method), outcome)
	}
}
