package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.NotNil(t, config)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 8501, config.Server.Port)
	assert.Equal(t, "$HOME/Downloads", config.Download.DefaultDir)
	assert.True(t, config.Download.CreateDirs)
	assert.Equal(t, "video_downloads.zip", config.Download.BundleName)
	assert.Equal(t, "yt-dlp", config.Engine.YTDLPBinary)
	assert.Equal(t, "mp4", config.Engine.MergeOutputFormat)
	assert.Equal(t, "%(title)s.%(ext)s", config.Engine.OutputTemplate)
	assert.Equal(t, 15*time.Second, config.Engine.SocketTimeout)
	assert.True(t, config.Engine.IgnoreErrors)
	assert.Equal(t, 3*time.Second, config.Relay.CompletionGrace)
	assert.Equal(t, 500*time.Millisecond, config.Relay.TickInterval)
	assert.Equal(t, 100, config.Relay.DebugBufferSize)
	assert.Equal(t, 5, config.Relay.LogStepPercent)
	assert.Less(t, config.Relay.HeartbeatInterval, config.Relay.CompletionGrace)
	assert.True(t, config.History.Enabled)
	assert.False(t, config.Notification.Enabled)
	assert.Equal(t, "info", config.Logging.Level)
}
