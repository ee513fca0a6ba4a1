package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lycanzy/experimentdocumentationapp/internal/api/handlers"
	"github.com/lycanzy/experimentdocumentationapp/internal/api/middleware"
	"github.com/lycanzy/experimentdocumentationapp/internal/api/openapi"
	"github.com/lycanzy/experimentdocumentationapp/internal/config"
	"github.com/lycanzy/experimentdocumentationapp/internal/pkg/metrics"
)

const apiBasePath = "/api/v1"

// Public routes that do NOT require JWT authentication.
var publicPrefixes = []string{
	"/api/v1/auth/login",
	"/api/v1/health/",
}

// defaultDevOrigins are allowed when no origin is configured.
var defaultDevOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

type routerDeps struct {
	cfg      *config.Config
	server   *handlers.Server
	jwtCfg   middleware.JWTConfig
	log      *zap.Logger
	metrics  *metrics.Metrics
	registry *prometheus.Registry
}

func newRouter(ctx context.Context, deps routerDeps) (*gin.Engine, error) {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(deps.log),
		middleware.HTTPMetrics(deps.metrics),
		cors.New(buildCORSConfig(deps.cfg)),
		middleware.ErrorHandler(deps.log),
	)

	if deps.registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.registry, promhttp.HandlerOpts{})))
	}

	router.GET("/api/openapi.yaml", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/yaml", openapi.Spec())
	})

	api := router.Group(apiBasePath)
	if deps.cfg.API.ValidateRequests {
		doc, err := openapi.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load openapi document: %w", err)
		}
		validator, err := middleware.NewOpenAPIValidator(doc, apiBasePath)
		if err != nil {
			return nil, err
		}
		api.Use(validator)
	}
	api.Use(jwtSkipPublic(deps.jwtCfg))
	deps.server.RegisterRoutes(api)

	return router, nil
}

// jwtSkipPublic returns middleware that applies JWT auth only on non-public routes.
func jwtSkipPublic(cfg middleware.JWTConfig) gin.HandlerFunc {
	jwtMw := middleware.JWTAuth(cfg)
	return func(c *gin.Context) {
		for _, prefix := range publicPrefixes {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}
		jwtMw(c)
	}
}

// buildCORSConfig derives the CORS policy. A wildcard origin is honored only
// with UnsafeAllowAllOrigins, and then credentials are never allowed.
func buildCORSConfig(cfg *config.Config) cors.Config {
	out := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: cfg.Server.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}

	if cfg.Server.UnsafeAllowAllOrigins {
		out.AllowAllOrigins = true
		out.AllowCredentials = false
		return out
	}

	origins := make([]string, 0, len(cfg.Server.AllowedOrigins))
	for _, origin := range cfg.Server.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" || origin == "*" {
			continue
		}
		origins = append(origins, origin)
	}
	if len(origins) == 0 {
		origins = append(origins, defaultDevOrigins...)
	}
	out.AllowOrigins = origins
	return out
}
