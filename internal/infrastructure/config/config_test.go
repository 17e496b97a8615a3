package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
	return dir
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, JobBackendLocal, cfg.Jobs.Backend)
	assert.Equal(t, 6*time.Hour, cfg.Jobs.Scheduler.RefreshRemoteInterval)
	assert.Equal(t, 7*24*time.Hour, cfg.Jobs.Scheduler.SeedInterval)
	assert.Equal(t, 10*time.Second, cfg.GoogleBooks.Timeout)
	assert.Equal(t, "bookreview.jobs", cfg.RabbitMQ.Exchange)

	require.Len(t, cfg.Auth.Users, 3)
	assert.Equal(t, "testuser", cfg.Auth.Users[0].Username)
	assert.Equal(t, uint(3), cfg.Auth.Users[2].ID)
}

func TestLoadFrom_FileAndEnv(t *testing.T) {
	dir := writeConfig(t, `
server:
  port: 9090
jobs:
  backend: rabbitmq
  workers: 2
  scheduler:
    statistics_interval: 1h
auth:
  users:
    - id: 42
      username: reader
      password: readerpassword
`)
	t.Setenv("BOOKREVIEW_DATABASE_PASSWORD", "s3cret")
	t.Setenv("BOOKREVIEW_GOOGLE_BOOKS_MAX_RETRIES", "5")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, JobBackendRabbitMQ, cfg.Jobs.Backend)
	assert.Equal(t, 2, cfg.Jobs.Workers)
	assert.Equal(t, time.Hour, cfg.Jobs.Scheduler.StatisticsInterval)
	assert.Equal(t, 6*time.Hour, cfg.Jobs.Scheduler.RefreshRemoteInterval, "未配置的字段保留默认值")
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, 5, cfg.GoogleBooks.MaxRetries)

	require.Len(t, cfg.Auth.Users, 1)
	assert.Equal(t, uint(42), cfg.Auth.Users[0].ID)
}

func TestLoadFrom_Validate(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"端口非法", "server:\n  port: 70000\n"},
		{"生产环境默认密钥", "server:\n  mode: release\n"},
		{"未知任务后端", "jobs:\n  backend: kafka\n"},
		{"rabbitmq需要redis存储", "jobs:\n  backend: rabbitmq\n  store: memory\n"},
		{"CORS凭证不能配合通配域名", "cors:\n  enabled: true\n  allow_credentials: true\n  allow_origins: [\"*\"]\n"},
		{"重复用户名", "auth:\n  users:\n    - {id: 1, username: a, password: x}\n    - {id: 2, username: a, password: y}\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadFrom(writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		User: "root", Password: "pw", Host: "db", Port: 3306, DBName: "bookreview",
		Charset: "utf8mb4", ParseTime: true, Loc: "Asia/Shanghai",
	}
	assert.Equal(t, "root:pw@tcp(db:3306)/bookreview?charset=utf8mb4&parseTime=true&loc=Asia%2FShanghai", d.DSN())
}
