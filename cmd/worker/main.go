// worker 消费RabbitMQ中的后台任务（jobs.backend=rabbitmq时部署）
//
//	API --publish job.<kind>--> exchange bookreview.jobs --> queue bookreview.jobs.worker --> worker
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookreview/internal/application/maintenance"
	"github.com/xiebiao/bookreview/internal/infrastructure/catalogue/googlebooks"
	"github.com/xiebiao/bookreview/internal/infrastructure/config"
	"github.com/xiebiao/bookreview/internal/infrastructure/jobqueue"
	"github.com/xiebiao/bookreview/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookreview/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookreview/pkg/logger"
	"github.com/xiebiao/bookreview/pkg/metrics"
	"github.com/xiebiao/bookreview/pkg/mq"
	"github.com/xiebiao/bookreview/pkg/tracing"
)

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
	entry := log.WithField("service", "worker")

	if cfg.Jobs.Backend != config.JobBackendRabbitMQ {
		entry.WithField("backend", cfg.Jobs.Backend).Warn("任务后端不是rabbitmq，worker仍会消费队列，API进程内的任务不受影响")
	}

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(tracing.Options{
			ServiceName: cfg.Tracing.ServiceName + "-worker",
			Endpoint:    cfg.Tracing.Endpoint,
			SampleRatio: cfg.Tracing.SampleRatio,
			Insecure:    cfg.Tracing.Insecure,
		})
		if err != nil {
			entry.WithError(err).Fatal("初始化链路追踪失败")
		}
		defer func() { _ = shutdown(context.Background()) }()
	}
	if cfg.Metrics.Enabled {
		metrics.InitMetrics()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. 存储
	db, err := mysql.NewDB(cfg, entry)
	if err != nil {
		entry.WithError(err).Fatal("初始化数据库失败")
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	redisClient, err := redis.NewClient(ctx, cfg, entry)
	if err != nil {
		entry.WithError(err).Fatal("初始化Redis失败")
	}
	defer redisClient.Close()

	// 2. 任务执行器
	jobStore := redis.NewJobStore(redisClient, cfg.Jobs.ResultTTL)
	maintenanceRunner := maintenance.NewRunner(
		mysql.NewBookRepository(db),
		googlebooks.NewClient(cfg.GoogleBooks, entry),
		mysql.NewTxManager(db),
		maintenance.Options{
			SeedFile:        cfg.Jobs.SeedFile,
			RemoteBatchSize: cfg.Jobs.RemoteBatchSize,
		},
		entry,
	)
	runner := jobqueue.NewRunner(jobStore, maintenanceRunner, entry)

	// 3. 消费者
	consumer, err := mq.NewConsumer(
		cfg.RabbitMQ.URL,
		cfg.RabbitMQ.Exchange,
		"topic",
		cfg.RabbitMQ.Queue,
		[]string{jobqueue.RoutingKeyAll},
		entry,
	)
	if err != nil {
		entry.WithError(err).Fatal("初始化消费者失败")
	}
	defer consumer.Close()

	worker := jobqueue.NewWorker(consumer, jobStore, runner, entry)
	entry.WithField("queue", cfg.RabbitMQ.Queue).Info("worker已启动")
	if err := worker.Run(ctx); err != nil {
		entry.WithError(err).Error("worker异常退出")
		return
	}
	entry.Info("worker已停止")
}
