package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	_ "github.com/xiebiao/bookreview/docs"
	appbook "github.com/xiebiao/bookreview/internal/application/book"
	appreview "github.com/xiebiao/bookreview/internal/application/review"
	apptask "github.com/xiebiao/bookreview/internal/application/task"
	appuser "github.com/xiebiao/bookreview/internal/application/user"
	"github.com/xiebiao/bookreview/internal/domain/book"
	"github.com/xiebiao/bookreview/internal/domain/user"
	"github.com/xiebiao/bookreview/internal/infrastructure/config"
	"github.com/xiebiao/bookreview/internal/infrastructure/identity"
	"github.com/xiebiao/bookreview/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookreview/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookreview/internal/interface/http/handler"
	"github.com/xiebiao/bookreview/internal/interface/http/middleware"
	"github.com/xiebiao/bookreview/internal/interface/http/router"
	"github.com/xiebiao/bookreview/pkg/logger"
	"github.com/xiebiao/bookreview/pkg/metrics"
	"github.com/xiebiao/bookreview/pkg/tracing"
	"github.com/xiebiao/bookreview/pkg/validator"
)

// @title                       Bookreview API
// @version                     1.0
// @description                 图书目录与评论服务
// @host                        localhost:8080
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 格式: Bearer {access_token}
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("加载配置失败")
	}

	log, err := logger.New(logger.Options{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		logrus.WithError(err).Fatal("初始化日志失败")
	}
	log.WithFields(logrus.Fields{
		"port":        cfg.Server.Port,
		"mode":        cfg.Server.Mode,
		"job_backend": cfg.Jobs.Backend,
		"job_store":   cfg.Jobs.Store,
	}).Info("配置加载成功")

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(tracing.Options{
			ServiceName: cfg.Tracing.ServiceName,
			Endpoint:    cfg.Tracing.Endpoint,
			SampleRatio: cfg.Tracing.SampleRatio,
			Insecure:    cfg.Tracing.Insecure,
		})
		if err != nil {
			log.WithError(err).Fatal("初始化链路追踪失败")
		}
		defer func() { _ = shutdown(context.Background()) }()
	}
	if cfg.Metrics.Enabled {
		metrics.InitMetrics()
	}
	if err := validator.Register(); err != nil {
		log.WithError(err).Fatal("注册校验规则失败")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := buildApp(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("初始化应用失败")
	}
	defer cleanup()

	if err := app.Run(ctx); err != nil {
		log.WithError(err).Error("服务退出")
		return
	}
	log.Info("服务已停止")
}

// buildApp 手动依赖注入，与wire.go中的InitializeApp等价
// 依赖链：Repository ← Service ← UseCase ← Handler ← Router
func buildApp(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	fail := func(err error) (*App, func(), error) {
		cleanup()
		return nil, nil, err
	}

	// 基础设施层
	db, closeDB, err := provideDB(cfg, log)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closeDB)

	redisClient, closeRedis, err := provideRedis(ctx, cfg, log)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closeRedis)

	directory, err := identity.NewMemoryDirectory(cfg)
	if err != nil {
		return fail(err)
	}

	bookRepo := mysql.NewBookRepository(db)
	reviewRepo := mysql.NewReviewRepository(db)
	txManager := mysql.NewTxManager(db)
	sessionStore := redis.NewSessionStore(redisClient)
	jwtManager := provideJWTManager(cfg)
	lookup := provideGoogleBooks(cfg, log)

	// 后台任务
	jobStore := provideJobStore(cfg, redisClient)
	maintenanceRunner := provideMaintenanceRunner(cfg, bookRepo, lookup, txManager, log)
	jobRunner := provideJobRunner(jobStore, maintenanceRunner, log)
	queue, closeQueue, err := provideJobQueue(cfg, jobStore, jobRunner, log)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closeQueue)
	scheduler := provideScheduler(cfg, queue, log)

	// 领域层
	userService := user.NewService(directory)
	bookService := book.NewService(bookRepo, reviewRepo, lookup)
	reviewService := book.NewReviewService(bookRepo, reviewRepo)

	// 应用层
	loginUseCase := provideLoginUseCase(cfg, userService, jwtManager, sessionStore, log)
	logoutUseCase := appuser.NewLogoutUseCase(sessionStore, jwtManager)
	refreshUseCase := appuser.NewRefreshTokenUseCase(jwtManager)
	listBooksUseCase := appbook.NewListBooksUseCase(bookService, txManager)
	getBookUseCase := appbook.NewGetBookUseCase(bookService, txManager)
	deleteBookUseCase := appbook.NewDeleteBookUseCase(bookService, txManager, log)
	importBookUseCase := appbook.NewImportBookUseCase(bookService, queue, log)
	remoteUseCase := appbook.NewRemoteCatalogueUseCase(lookup, log)
	upsertReviewUseCase := appreview.NewUpsertReviewUseCase(reviewService, txManager, log)
	deleteReviewUseCase := appreview.NewDeleteReviewUseCase(reviewService, txManager)
	getMyReviewUseCase := appreview.NewGetMyReviewUseCase(reviewService)
	submitUseCase := apptask.NewSubmitUseCase(queue, log)
	statusUseCase := apptask.NewStatusUseCase(jobStore)

	// 接口层
	handlers := router.Handlers{
		Auth:        handler.NewAuthHandler(loginUseCase, logoutUseCase, refreshUseCase),
		Book:        handler.NewBookHandler(listBooksUseCase, getBookUseCase, deleteBookUseCase),
		Review:      handler.NewReviewHandler(upsertReviewUseCase, deleteReviewUseCase, getMyReviewUseCase),
		GoogleBooks: handler.NewGoogleBooksHandler(remoteUseCase, importBookUseCase),
		Task:        handler.NewTaskHandler(submitUseCase, statusUseCase),
	}
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, sessionStore)
	engine := router.New(cfg, log, handlers, authMiddleware)

	return newApp(cfg, log, engine, maintenanceRunner, scheduler), cleanup, nil
}
