package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Analytics.WindowDays)
	assert.Equal(t, 12, cfg.Analytics.WeeklyLimit)
	assert.Equal(t, 6, cfg.Analytics.TrendingLimit)
	assert.Equal(t, time.Hour, cfg.Schedule.ParseCollectInterval())
	assert.Equal(t, 30*time.Second, cfg.Feeds.ParseTimeout())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
database:
  path: /tmp/ps.db
server:
  port: 9090
schedule:
  insight_interval: 15m
analytics:
  window_days: 14
alerts:
  webhook:
    enabled: true
    url: https://hooks.example.com/ps
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ps.db", cfg.Database.Path)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 14, cfg.Analytics.WindowDays)
	assert.Equal(t, 30, cfg.Analytics.RecentDays)
	assert.Equal(t, 15*time.Minute, cfg.Schedule.ParseInsightInterval())
	assert.True(t, cfg.Alerts.Webhook.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PLAYSIGNAL_DB_PATH", "/data/env.db")
	t.Setenv("PLAYSIGNAL_PORT", "7000")
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.com/x")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/data/env.db", cfg.Database.Path)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.True(t, cfg.Alerts.Slack.Enabled)
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("analytics:\n  window_days: 0\n  weekly_limit: -1\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "window_days")
	assert.Contains(t, err.Error(), "weekly_limit")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBadDurationsFallBack(t *testing.T) {
	s := ScheduleConfig{CollectInterval: "soon", InsightInterval: ""}
	assert.Equal(t, time.Hour, s.ParseCollectInterval())
	assert.Equal(t, 6*time.Hour, s.ParseInsightInterval())
}
