package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookreview/internal/application/maintenance"
	"github.com/xiebiao/bookreview/internal/infrastructure/config"
	"github.com/xiebiao/bookreview/internal/infrastructure/jobqueue"
)

// seedTimeout 启动时种子加载的超时
const seedTimeout = 30 * time.Second

// App API进程
type App struct {
	cfg         *config.Config
	log         logrus.FieldLogger
	engine      *gin.Engine
	maintenance *maintenance.Runner
	scheduler   *jobqueue.Scheduler
}

func newApp(
	cfg *config.Config,
	log logrus.FieldLogger,
	engine *gin.Engine,
	maintenanceRunner *maintenance.Runner,
	scheduler *jobqueue.Scheduler,
) *App {
	return &App{
		cfg:         cfg,
		log:         log,
		engine:      engine,
		maintenance: maintenanceRunner,
		scheduler:   scheduler,
	}
}

// Run 启动HTTP服务，ctx取消后优雅退出
func (a *App) Run(ctx context.Context) error {
	if a.cfg.Database.SeedOnStartup {
		a.seed(ctx)
	}

	schedCtx, cancelSched := context.WithCancel(ctx)
	defer func() {
		cancelSched()
		a.scheduler.Wait()
	}()
	a.scheduler.Start(schedCtx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:      a.engine,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", srv.Addr).Info("HTTP服务已启动")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP服务异常退出: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("正在关闭HTTP服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("关闭HTTP服务失败: %w", err)
	}
	return nil
}

// seed 空库时导入种子图书，失败只记日志
func (a *App) seed(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, seedTimeout)
	defer cancel()

	result, err := a.maintenance.SeedIfEmpty(ctx)
	if err != nil {
		a.log.WithError(err).Warn("种子图书加载失败")
		return
	}
	a.log.WithFields(logrus.Fields{"status": result.Status, "counts": result.Counts}).Info("种子图书检查完成")
}
