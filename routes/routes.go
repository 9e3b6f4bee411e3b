package routes

import (
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"yatube/cache"
	"yatube/config"
	"yatube/controllers"
	"yatube/middleware"
	"yatube/repositories"
	"yatube/services"
	"yatube/storage"
	"yatube/templates"
	"yatube/utils"
)

// IndexCachePrefix namespaces cached front pages.
const IndexCachePrefix = "index_page"

// Options carries the backends chosen at startup.
type Options struct {
	PageCache cache.Store
	Images    storage.ImageStore
	// Notifier is nil when email is disabled. Pass an untyped nil.
	Notifier services.CommentNotifier
	Logger   *slog.Logger
}

func SetupRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, opts Options) error {
	logger := opts.Logger
	repos := repositories.New(db)

	blogService := services.NewBlogService(repos.Posts, repos.Groups, repos.Users, repos.Comments, opts.Images, opts.Notifier, logger)
	authService := services.NewAuthService(repos.Users, cfg.JWTSecret, cfg.SessionTTL)

	tmpl, err := templates.Load(template.FuncMap{
		"media": opts.Images.URL,
	})
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	// Controllers
	postController := controllers.NewPostController(blogService, logger)
	commentController := controllers.NewCommentController(blogService, logger)
	authController := controllers.NewAuthController(authService, repos.Users, logger)

	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.ErrorHandler(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.Authenticate(authService))

	if local, ok := opts.Images.(*storage.LocalStore); ok {
		r.Static(strings.TrimSuffix(cfg.MediaURL, "/"), local.Dir())
	}

	r.GET("/ping", func(c *gin.Context) {
		c.String(200, "pong")
	})

	limit := middleware.RateLimit(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	loginRequired := middleware.LoginRequired()

	r.GET("/", middleware.CachePage(opts.PageCache, IndexCachePrefix, logger), postController.Index)
	r.GET("/group/:slug/", postController.GroupPosts)
	r.GET("/profile/:username/", postController.Profile)
	r.GET("/posts/:id/", postController.PostDetail)

	r.GET("/create/", loginRequired, postController.PostCreate)
	r.POST("/create/", limit, loginRequired, postController.PostCreate)
	r.GET("/posts/:id/edit/", loginRequired, postController.PostEdit)
	r.POST("/posts/:id/edit/", limit, loginRequired, postController.PostEdit)
	r.POST("/posts/:id/comment/", limit, loginRequired, commentController.AddComment)

	// Auth routes (public)
	auth := r.Group("/auth")
	{
		auth.GET("/login/", authController.Login)
		auth.POST("/login/", limit, authController.Login)
		auth.GET("/signup/", authController.Signup)
		auth.POST("/signup/", limit, authController.Signup)
		auth.GET("/logout/", authController.Logout)
		auth.POST("/logout/", authController.Logout)
	}

	r.NoRoute(utils.SendNotFound)
	return nil
}
