// Package httpapi assembles the Gin engine: the middleware pipeline, the
// built-in routes and the feature routers mounted under the API base path.
package httpapi

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/tbourn/go-api-scaffold/docs" // registers the OpenAPI document
	"github.com/tbourn/go-api-scaffold/internal/apperr"
	"github.com/tbourn/go-api-scaffold/internal/config"
	"github.com/tbourn/go-api-scaffold/internal/http/handlers"
	"github.com/tbourn/go-api-scaffold/internal/http/middleware"
)

// Route mounts a feature router at Path below the API base path.
//
//	httpapi.Route{Path: "/users", Register: func(g *gin.RouterGroup) {
//		g.GET("/:id", users.Get)
//	}}
type Route struct {
	Path     string
	Register func(*gin.RouterGroup)
}

// RegisterRoutes installs the middleware pipeline and all endpoints on r.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RequestLogger: access log with PII scrubbing
//  4. Metrics: outside the boundary so error statuses are counted
//  5. gzip: outside the boundary so error bodies are compressed too
//  6. ErrorHandler: normalizes every failure, panics included
//  7. Body size limiter
//  8. CORS and security headers, present on error responses as well
//  9. Rate limiter (per user/IP), rejected through the boundary
//
// Unmatched GET/HEAD requests are tried against the public directory before
// the 404 handler.
func RegisterRoutes(r *gin.Engine, cfg config.Config, routes ...Route) error {
	r.HandleMethodNotAllowed = true
	if len(cfg.TrustedProxies) > 0 {
		if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			return fmt.Errorf("trusted proxies: %w", err)
		}
	}

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))
	r.Use(middleware.Metrics())
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	r.Use(middleware.ErrorHandler(middleware.ErrorOptions{ExposeStack: cfg.ExposeStack()}))
	r.Use(limitBody(cfg.MaxBodyBytes))
	r.Use(corsMiddleware(cfg.CORS)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// Fallbacks
	r.NoRoute(middleware.Static(cfg.PublicDir), middleware.NotFound())
	r.NoMethod(middleware.MethodNotAllowed())

	// Built-in endpoints
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", handlers.Health)
	r.GET("/favicon.ico", middleware.Favicon(filepath.Join(cfg.PublicDir, "favicon.png")))
	r.GET("/", handlers.Root)
	if cfg.APIBasePath != "" && cfg.APIBasePath != "/" {
		r.GET(cfg.APIBasePath, handlers.Root)
	}
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Feature routers
	api := groupWithPrefix(r, cfg.APIBasePath)
	for _, rt := range routes {
		if rt.Register != nil {
			rt.Register(api.Group(rt.Path))
		}
	}
	return nil
}

// corsMiddleware builds the CORS posture. With no allowlist every origin is
// accepted and ACAO is forced to "*" even without an Origin header;
// credentials are never allowed in that mode. With an allowlist, foreign
// origins are rejected through the error boundary before gin-contrib/cors
// (which would otherwise answer a bare 403).
func corsMiddleware(cc config.CORSConfig) []gin.HandlerFunc {
	base := cors.Config{
		AllowMethods:  cc.AllowedMethods,
		AllowHeaders:  cc.AllowedHeaders,
		ExposeHeaders: cc.ExposeHeaders,
		MaxAge:        cc.MaxAge,
	}

	if len(cc.AllowedOrigins) == 0 {
		base.AllowAllOrigins = true
		force := func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		}
		return []gin.HandlerFunc{force, cors.New(base)}
	}

	base.AllowOrigins = cc.AllowedOrigins
	base.AllowCredentials = cc.AllowCredentials
	return []gin.HandlerFunc{rejectForeignOrigins(cc.AllowedOrigins), cors.New(base)}
}

func rejectForeignOrigins(origins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" || origin == "http://"+c.Request.Host || origin == "https://"+c.Request.Host {
			c.Next()
			return
		}
		if _, ok := allowed[origin]; ok {
			c.Next()
			return
		}
		_ = c.Error(apperr.New(http.StatusForbidden,
			fmt.Sprintf("Origin “%s” is not allowed by the CORS policy!", origin),
			apperr.WithName("CORS Error"), apperr.WithPath("origin")))
		c.Abort()
	}
}

// limitBody caps request bodies at maxBytes. Oversized bodies fail on read,
// which the JSON binder reports as a 413 parser error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
