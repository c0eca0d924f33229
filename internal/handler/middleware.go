package handler

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"linkmart/internal/auth"
	"linkmart/internal/metrics"
	"linkmart/internal/model"
	"linkmart/internal/service"
	"linkmart/pkg/apperr"
	"linkmart/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	requestIDHeader = "X-Request-ID"
	ctxRequestID    = "request_id"
	ctxPrincipal    = "principal"
)

// RequestIDMiddleware keeps the caller's X-Request-ID or assigns one.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// LoggerMiddleware writes one access log entry per request.
func LoggerMiddleware() gin.HandlerFunc {
	log := logrus.WithField("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		entry := log.WithFields(logrus.Fields{
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"ip":         c.ClientIP(),
			"method":     c.Request.Method,
			"path":       path,
			"request_id": c.GetString(ctxRequestID),
		})
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("request")
		case status >= http.StatusBadRequest:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}

// RecoveryMiddleware turns a panic into a 500 envelope.
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logrus.WithFields(logrus.Fields{
					"panic":      err,
					"path":       c.Request.URL.Path,
					"request_id": c.GetString(ctxRequestID),
				}).Error("panic recovered")
				response.ServerError(c, "internal server error")
			}
		}()
		c.Next()
	}
}

// CORSMiddleware allows the configured origins; "*" or none allows all.
func CORSMiddleware(origins []string) gin.HandlerFunc {
	allowAll := len(origins) == 0
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		case allowed[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		done := metrics.RequestStarted(c.Request.Method, path)
		c.Next()
		done(c.Writer.Status())
	}
}

// ipLimiter hands out one token bucket per client IP.
type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.limiters[ip] = lim
	}
	return lim
}

// RateLimitMiddleware throttles each client IP. A non-positive rps disables it.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst <= 0 {
		burst = 1
	}
	l := &ipLimiter{limiters: make(map[string]*rate.Limiter), rps: rate.Limit(rps), burst: burst}
	return func(c *gin.Context) {
		if !l.get(c.ClientIP()).Allow() {
			response.Error(c, http.StatusTooManyRequests, response.CodeTooManyRequests, "too many requests, slow down")
			return
		}
		c.Next()
	}
}

// AuthMiddleware requires a valid bearer token.
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c, "missing bearer token")
			return
		}
		p, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Fail(c, err)
			return
		}
		c.Set(ctxPrincipal, p)
		c.Next()
	}
}

// OptionalAuthMiddleware attaches the principal when a valid token is sent
// and lets the request through either way.
func OptionalAuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if p, err := authService.Authenticate(c.Request.Context(), token); err == nil {
				c.Set(ctxPrincipal, p)
			}
		}
		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(authz auth.Authorizer, roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principalFrom(c)
		if !ok {
			response.Unauthorized(c, "not authenticated")
			return
		}
		if err := authz.RequireRole(p, roles...); err != nil {
			response.Fail(c, err)
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}

func principalFrom(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(ctxPrincipal)
	if !ok {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok
}

// mustPrincipal is for handlers behind AuthMiddleware.
func mustPrincipal(c *gin.Context) (auth.Principal, bool) {
	p, ok := principalFrom(c)
	if !ok {
		response.Fail(c, apperr.Unauthorized("not authenticated"))
	}
	return p, ok
}

// optionalPrincipal returns nil when the request is anonymous.
func optionalPrincipal(c *gin.Context) *auth.Principal {
	if p, ok := principalFrom(c); ok {
		return &p
	}
	return nil
}
