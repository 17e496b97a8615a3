// Package logger 基于logrus的结构化日志
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookreview/pkg/tracing"
)

// Options 日志配置
type Options struct {
	Level        string // debug | info | warn | error
	Format       string // console | json
	Output       string // stdout | stderr | /path/to/file
	EnableCaller bool
}

type ctxKey int

const (
	requestIDKey ctxKey = iota
	userIDKey
)

// New 创建logger，同时把同样的配置应用到logrus全局logger
// （response、mq等包直接使用logrus全局函数）
func New(opts Options) (*logrus.Logger, error) {
	log := logrus.New()
	if err := apply(log, opts); err != nil {
		return nil, err
	}
	if err := apply(logrus.StandardLogger(), opts); err != nil {
		return nil, err
	}
	return log, nil
}

func apply(log *logrus.Logger, opts Options) error {
	level := logrus.InfoLevel
	if opts.Level != "" {
		lv, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return fmt.Errorf("无效的日志级别: %w", err)
		}
		level = lv
	}
	log.SetLevel(level)

	switch strings.ToLower(opts.Format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	default:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	}

	out, err := openOutput(opts.Output)
	if err != nil {
		return err
	}
	log.SetOutput(out)
	log.SetReportCaller(opts.EnableCaller)
	return nil
}

func openOutput(output string) (io.Writer, error) {
	switch output {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("打开日志文件失败: %w", err)
		}
		return f, nil
	}
}

// WithRequestID 把请求ID写入context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithUserID 把当前用户ID写入context
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// RequestID 从context读取请求ID
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// FromContext 返回携带request_id、user_id、trace_id的日志条目
func FromContext(ctx context.Context, log logrus.FieldLogger) *logrus.Entry {
	fields := logrus.Fields{}
	if id := RequestID(ctx); id != "" {
		fields["request_id"] = id
	}
	if uid, ok := ctx.Value(userIDKey).(uint); ok && uid != 0 {
		fields["user_id"] = uid
	}
	if traceID := tracing.ExtractTraceID(ctx); traceID != "" {
		fields["trace_id"] = traceID
	}
	return log.WithFields(fields)
}
