package bootstrap

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/vidgrab-go/internal/domain"
)

func testConfig(t *testing.T) *domain.Config {
	t.Helper()
	dir := t.TempDir()
	config := domain.DefaultConfig()
	config.Download.DefaultDir = filepath.Join(dir, "downloads")
	config.Relay.MarkerFile = filepath.Join(dir, "done.flag")
	config.History.DatabasePath = filepath.Join(dir, "history.db")
	config.Engine.UseBundledFFmpeg = false
	return config
}

func TestBuild_WithHistory(t *testing.T) {
	config := testConfig(t)

	rt, err := Build(config, zap.NewNop(), nil)
	require.NoError(t, err)
	defer rt.Close()

	assert.NotNil(t, rt.Loop)
	assert.NotNil(t, rt.History)
	assert.NotNil(t, rt.Bundler)
	assert.Equal(t, "yt-dlp", rt.EngineName)
	assert.DirExists(t, config.Download.DefaultDir)
	assert.False(t, rt.Loop.IsDownloading())

	stats, err := rt.History.GetStats()
	require.NoError(t, err)
	assert.Zero(t, stats.Batches)
}

func TestBuild_HistoryDisabled(t *testing.T) {
	config := testConfig(t)
	config.History.Enabled = false
	config.Notification.Enabled = true

	rt, err := Build(config, nil, nil)
	require.NoError(t, err)

	assert.Nil(t, rt.History)
	assert.NotNil(t, rt.notifications)
	assert.NoError(t, rt.Close())
}

func TestBuild_HistoryOpenFails(t *testing.T) {
	config := testConfig(t)
	// a directory where the database file should be
	config.History.DatabasePath = t.TempDir()

	_, err := Build(config, zap.NewNop(), nil)
	assert.Error(t, err)
}
