package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"classroll/internal/attendance"
	"classroll/internal/auth"
	"classroll/internal/httpmiddleware"
	"classroll/internal/metrics"
	"classroll/internal/queue"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) bool

// Options wires the router's dependencies. Events, Limiter and Health are optional.
type Options struct {
	Service    *attendance.Service
	SigningKey string
	Issuer     string
	AccessTTL  time.Duration
	Events     queue.Queue
	Limiter    httpmiddleware.Limiter
	Health     map[string]HealthCheck
}

// NewRouter builds the gin engine serving the attendance API.
func NewRouter(opts Options) *gin.Engine {
	h := &Handler{
		svc:        opts.Service,
		signingKey: opts.SigningKey,
		issuer:     opts.Issuer,
		accessTTL:  opts.AccessTTL,
		events:     opts.Events,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(metrics.GinMiddleware())
	if opts.Limiter != nil {
		r.Use(httpmiddleware.RateLimit(opts.Limiter))
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", healthz(opts.Health))

	api := r.Group("/api")
	api.POST("/auth/login", h.Login)

	authed := api.Group("", auth.TeacherAuth(opts.SigningKey, opts.Issuer))
	authed.GET("/teacher/profile", h.Profile)
	authed.GET("/classes", h.ListClasses)
	authed.GET("/classes/:id", h.GetClass)
	authed.GET("/classes/:id/students", h.ListStudents)
	authed.GET("/classes/:id/attendance", h.GetAttendance)
	authed.POST("/classes/:id/attendance", h.SubmitAttendance)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
	})
	return r
}

func healthz(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{"status": "ok"}
		for name, check := range checks {
			ok := check(c.Request.Context())
			body[name] = ok
			if !ok {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
			}
		}
		c.JSON(status, body)
	}
}

// CORS for browser clients; the bearer header must be allowed explicitly.
func corsMiddleware() gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowAllOrigins = true
	cfg.AddAllowHeaders("Authorization", "Accept")
	cfg.MaxAge = 24 * time.Hour
	return cors.New(cfg)
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
