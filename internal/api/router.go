package api

import (
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/d60-Lab/microblog/config"
	"github.com/d60-Lab/microblog/internal/api/handler"
	"github.com/d60-Lab/microblog/internal/middleware"
	"github.com/d60-Lab/microblog/internal/repository"
	"github.com/d60-Lab/microblog/internal/session"
	"github.com/d60-Lab/microblog/pkg/logger"
)

// NewRouter assembles the gin engine: middleware, templates, media
// serving and every route.
func NewRouter(cfg *config.Config, h *handler.Handler, sessions *session.Store, users repository.UserRepository) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()

	r.Use(requestLogger())
	r.Use(gin.CustomRecovery(func(c *gin.Context, err any) {
		sentry.CurrentHub().Recover(err)
		c.AbortWithStatus(http.StatusInternalServerError)
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	if cfg.Tracing.OTLPEndpoint != "" {
		r.Use(otelgin.Middleware("microblog"))
	}
	r.Use(middleware.CurrentUser(sessions, users))

	r.LoadHTMLGlob(cfg.Server.TemplateGlob)
	r.Static("/media", cfg.Media.Dir)

	// Feed
	r.GET("/", h.Feed)

	// Post CRUD
	authed := r.Group("/", middleware.RequireAuth())
	authed.GET("/create/", h.CreateForm)
	authed.POST("/create/", h.Create)
	authed.GET("/edit/:id/", h.EditForm)
	authed.POST("/edit/:id/", h.Edit)
	authed.GET("/delete/:id/", h.DeleteConfirm)
	authed.POST("/delete/:id/", h.Delete)
	authed.POST("/logout/", h.Logout)

	// Authentication
	r.GET("/login/", h.LoginForm)
	r.POST("/login/", h.Login)
	r.GET("/register/", h.RegisterForm)
	r.POST("/register/", h.Register)

	// Admin table browser
	admin := r.Group("/api/admin", middleware.AdminOnly())
	admin.GET("/posts", h.AdminListPosts)
	admin.GET("/posts/:id", h.AdminGetPost)
	admin.PUT("/posts/:id", h.AdminUpdatePost)
	admin.DELETE("/posts/:id", h.AdminDeletePost)

	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.L().Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
