//go:build wireinject
// +build wireinject

// Wire依赖注入配置
//
// 生成wire_gen.go：
//
//	wire gen ./cmd/api
//
// main.go中的buildApp是同一依赖图的手写版本，修改依赖时两边保持一致。
package main

import (
	"context"

	"github.com/google/wire"
	"github.com/sirupsen/logrus"

	appbook "github.com/xiebiao/bookreview/internal/application/book"
	appreview "github.com/xiebiao/bookreview/internal/application/review"
	apptask "github.com/xiebiao/bookreview/internal/application/task"
	appuser "github.com/xiebiao/bookreview/internal/application/user"
	"github.com/xiebiao/bookreview/internal/domain/book"
	"github.com/xiebiao/bookreview/internal/domain/user"
	"github.com/xiebiao/bookreview/internal/infrastructure/catalogue/googlebooks"
	"github.com/xiebiao/bookreview/internal/infrastructure/config"
	"github.com/xiebiao/bookreview/internal/infrastructure/identity"
	"github.com/xiebiao/bookreview/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookreview/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookreview/internal/interface/http/handler"
	"github.com/xiebiao/bookreview/internal/interface/http/middleware"
	"github.com/xiebiao/bookreview/internal/interface/http/router"
)

// infrastructureSet 连接、存储和外部客户端
var infrastructureSet = wire.NewSet(
	provideDB,
	provideRedis,
	provideJWTManager,
	provideGoogleBooks,
	identity.NewMemoryDirectory,
	redis.NewSessionStore,
	wire.Bind(new(logrus.FieldLogger), new(*logrus.Logger)),
	wire.Bind(new(user.Directory), new(*identity.MemoryDirectory)),
	wire.Bind(new(book.MetadataLookup), new(*googlebooks.Client)),
)

// repositorySet 仓储和事务管理器
var repositorySet = wire.NewSet(
	mysql.NewBookRepository,
	mysql.NewReviewRepository,
	mysql.NewTxManager,
	wire.Bind(new(appbook.TxManager), new(*mysql.TxManager)),
	wire.Bind(new(appreview.TxManager), new(*mysql.TxManager)),
)

// jobSet 后台任务：状态存储、执行器、队列、调度
var jobSet = wire.NewSet(
	provideJobStore,
	provideMaintenanceRunner,
	provideJobRunner,
	provideJobQueue,
	provideScheduler,
)

// domainSet 领域服务
var domainSet = wire.NewSet(
	user.NewService,
	book.NewService,
	book.NewReviewService,
)

// applicationSet 用例
var applicationSet = wire.NewSet(
	provideLoginUseCase,
	appuser.NewLogoutUseCase,
	appuser.NewRefreshTokenUseCase,
	wire.Bind(new(appuser.SessionStore), new(*redis.SessionStore)),
	appbook.NewListBooksUseCase,
	appbook.NewGetBookUseCase,
	appbook.NewDeleteBookUseCase,
	appbook.NewImportBookUseCase,
	appbook.NewRemoteCatalogueUseCase,
	appreview.NewUpsertReviewUseCase,
	appreview.NewDeleteReviewUseCase,
	appreview.NewGetMyReviewUseCase,
	apptask.NewSubmitUseCase,
	apptask.NewStatusUseCase,
)

// interfaceSet Handler、中间件、路由
var interfaceSet = wire.NewSet(
	handler.NewAuthHandler,
	handler.NewBookHandler,
	handler.NewReviewHandler,
	handler.NewGoogleBooksHandler,
	handler.NewTaskHandler,
	middleware.NewAuthMiddleware,
	wire.Bind(new(middleware.TokenBlacklist), new(*redis.SessionStore)),
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)

// InitializeApp 初始化整个应用，cleanup按创建的逆序释放连接和任务队列
func InitializeApp(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		jobSet,
		domainSet,
		applicationSet,
		interfaceSet,
		newApp,
	)
	return nil, nil, nil
}
