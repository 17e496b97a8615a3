// Package router 注册HTTP路由
//
//	/ping                      健康检查
//	/metrics                   Prometheus指标
//	/swagger/*any              API文档
//	/api/v1/auth/*             登录（公开）、登出、刷新
//	/api/v1/books/*            图书与评论（需要登录）
//	/api/v1/google-books/*     外部书目（需要登录）
//	/api/v1/tasks/*            后台任务（需要登录）
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/xiebiao/bookreview/internal/infrastructure/config"
	"github.com/xiebiao/bookreview/internal/interface/http/handler"
	"github.com/xiebiao/bookreview/internal/interface/http/middleware"
	"github.com/xiebiao/bookreview/pkg/response"
)

// Handlers 全部HTTP处理器
type Handlers struct {
	Auth        *handler.AuthHandler
	Book        *handler.BookHandler
	Review      *handler.ReviewHandler
	GoogleBooks *handler.GoogleBooksHandler
	Task        *handler.TaskHandler
}

// New 创建Gin引擎并注册路由
func New(cfg *config.Config, log logrus.FieldLogger, h Handlers, authMiddleware *middleware.AuthMiddleware) *gin.Engine {
	switch cfg.Server.Mode {
	case gin.ReleaseMode:
		gin.SetMode(gin.ReleaseMode)
	case gin.TestMode:
		gin.SetMode(gin.TestMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	if cfg.CORS.Enabled {
		r.Use(middleware.CORS(cfg.CORS))
	}
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// 生产环境关闭文档
	if cfg.Server.Mode != gin.ReleaseMode {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/logout", authMiddleware.RequireAuth(), h.Auth.Logout)
		}

		authorized := v1.Group("")
		authorized.Use(authMiddleware.RequireAuth())

		books := authorized.Group("/books")
		{
			books.GET("", h.Book.ListBooks)
			books.DELETE("/:id", h.Book.DeleteBook)

			books.POST("/:id/reviews", h.Review.UpsertReview)
			books.GET("/:id/reviews", h.Book.GetBookReviews)
			books.DELETE("/:id/reviews", h.Review.DeleteReview)
			books.GET("/:id/reviews/me", h.Review.GetMyReview)
		}

		googleBooks := authorized.Group("/google-books")
		{
			googleBooks.GET("/search", h.GoogleBooks.Search)
			googleBooks.POST("/import", h.GoogleBooks.Import)
			googleBooks.GET("/:google_books_id", h.GoogleBooks.Get)
		}

		tasks := authorized.Group("/tasks")
		{
			tasks.POST("/refresh-books", h.Task.RefreshBooks)
			tasks.POST("/refresh-remote", h.Task.RefreshRemote)
			tasks.POST("/calculate-statistics", h.Task.CalculateStatistics)
			tasks.POST("/notify-new-book", h.Task.NotifyNewBook)
			tasks.GET("/status/:task_id", h.Task.Status)
			tasks.GET("/active", h.Task.Active)
		}
	}

	return r
}
