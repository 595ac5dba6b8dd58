package bootstrap

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nursing-narrative-mcp-server/internal/domain"
	"github.com/nursing-narrative-mcp-server/internal/service"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func sqliteConfig(t *testing.T) *domain.Config {
	return &domain.Config{
		Database: domain.DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: filepath.Join(t.TempDir(), "feedback.db"),
		},
		Cache: domain.CacheConfig{MaxItems: 10, DefaultTTL: time.Minute},
	}
}

func TestNew_SQLite(t *testing.T) {
	components, err := New(context.Background(), sqliteConfig(t), quietLogger())
	require.NoError(t, err)
	defer components.Close()

	require.NotNil(t, components.Narratives)
	assert.Contains(t, components.Checks, "feedback_store")
	assert.NotContains(t, components.Checks, "redis")
	assert.NotContains(t, components.Checks, "completion")
	assert.NoError(t, components.Checks["feedback_store"](context.Background()))

	ctx := context.Background()
	req := service.DraftRequest{Narrative: "Administered Lisinopril 10mg PO at 0900. Patient tolerated well."}
	first, err := components.Narratives.Draft(ctx, req)
	require.NoError(t, err)
	second, err := components.Narratives.Draft(ctx, req)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)

	note, err := components.Narratives.Compose(ctx, req)
	require.NoError(t, err)
	assert.True(t, note.Degraded)
}

func TestNew_CompletionCheck(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Completion = domain.CompletionConfig{Enabled: true, APIKey: "key"}

	components, err := New(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer components.Close()

	require.Contains(t, components.Checks, "completion")
	assert.NoError(t, components.Checks["completion"](context.Background()))
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Config)
		want   string
	}{
		{"unknown driver", func(c *domain.Config) { c.Database.Driver = "oracle" }, "unsupported database driver"},
		{"bad redis url", func(c *domain.Config) { c.Cache.RedisURL = "not-a-url" }, "connecting draft cache"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := sqliteConfig(t)
			tt.mutate(cfg)
			_, err := New(context.Background(), cfg, quietLogger())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
