package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"civicpulse/internal/auth"
	"civicpulse/internal/db"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ctxUserIDKey    = "auth.user_id"
	ctxUserRoleKey  = "auth.role"
	ctxRequestIDKey = "request_id"

	requestIDHeader = "X-Request-ID"
)

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

func requestIDFrom(c *gin.Context) string {
	return c.GetString(ctxRequestIDKey)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", requestIDFrom(c)),
		)
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// requireAuth rejects requests without a valid bearer token and records the
// caller's id and role on the context.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			respondError(c, http.StatusUnauthorized, "Access denied. No token provided.")
			c.Abort()
			return
		}
		claims, err := auth.ParseToken(token, s.cfg.JWTSecret)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ctxUserIDKey, claims.UserID)
		c.Set(ctxUserRoleKey, claims.Role)
		c.Next()
	}
}

// optionalAuth attaches caller identity when a valid token is present but
// never rejects the request.
func (s *Server) optionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if claims, err := auth.ParseToken(token, s.cfg.JWTSecret); err == nil {
				c.Set(ctxUserIDKey, claims.UserID)
				c.Set(ctxUserRoleKey, claims.Role)
			}
		}
		c.Next()
	}
}

func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := currentRole(c)
		if role != db.RoleAdmin && role != db.RoleSuperAdmin {
			respondError(c, http.StatusForbidden, "Access denied. Admin privileges required.")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) requireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentRole(c) != db.RoleSuperAdmin {
			respondError(c, http.StatusForbidden, "Access denied. Super admin privileges required.")
			c.Abort()
			return
		}
		c.Next()
	}
}

func currentUserID(c *gin.Context) (uint, bool) {
	value, ok := c.Get(ctxUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}

func currentRole(c *gin.Context) string {
	return c.GetString(ctxUserRoleKey)
}

func isAdminRole(role string) bool {
	return role == db.RoleAdmin || role == db.RoleSuperAdmin
}

func (s *Server) rateLimit(limiter *rateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			respondError(c, http.StatusTooManyRequests, "Too many requests. Please try again later.")
			c.Abort()
			return
		}
		c.Next()
	}
}
