package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	Engine       EngineConfig       `mapstructure:"engine"`
	Relay        RelayConfig        `mapstructure:"relay"`
	History      HistoryConfig      `mapstructure:"history"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	LockFile string `mapstructure:"lock_file"`
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	DefaultDir      string   `mapstructure:"default_dir"`
	CreateDirs      bool     `mapstructure:"create_dirs"`
	BundleName      string   `mapstructure:"bundle_name"`
	ExtraURLPattern []string `mapstructure:"extra_url_patterns"`
}

// EngineConfig contains the yt-dlp invocation settings
type EngineConfig struct {
	YTDLPBinary       string        `mapstructure:"ytdlp_binary"`
	Format            string        `mapstructure:"format"`
	MergeOutputFormat string        `mapstructure:"merge_output_format"`
	OutputTemplate    string        `mapstructure:"output_template"`
	SocketTimeout     time.Duration `mapstructure:"socket_timeout"`
	Retries           int           `mapstructure:"retries"`
	IgnoreErrors      bool          `mapstructure:"ignore_errors"`
	NoPlaylist        bool          `mapstructure:"no_playlist"`
	Verbose           bool          `mapstructure:"verbose"`
	BundleDir         string        `mapstructure:"bundle_dir"` // where bundled ffmpeg/ffprobe live; empty = executable dir
	UseBundledFFmpeg  bool          `mapstructure:"use_bundled_ffmpeg"`
}

// RelayConfig tunes the worker -> presentation loop relay
type RelayConfig struct {
	TickInterval      time.Duration `mapstructure:"tick_interval"`
	IdleTickInterval  time.Duration `mapstructure:"idle_tick_interval"`
	CompletionGrace   time.Duration `mapstructure:"completion_grace"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	MarkerFile        string        `mapstructure:"marker_file"`
	DebugBufferSize   int           `mapstructure:"debug_buffer_size"`
	LogStepPercent    int           `mapstructure:"log_step_percent"`
	StatusTail        int           `mapstructure:"status_tail"`
}

// HistoryConfig contains batch history persistence configuration
type HistoryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DatabasePath string `mapstructure:"database_path"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Sound   bool   `mapstructure:"sound"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
	LogsDir    string `mapstructure:"logs_dir"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "localhost",
			Port:     8501,
			LockFile: "$HOME/.vidgrab/server.lock",
		},
		Download: DownloadConfig{
			DefaultDir: "$HOME/Downloads",
			CreateDirs: true,
			BundleName: "video_downloads.zip",
		},
		Engine: EngineConfig{
			YTDLPBinary:       "yt-dlp",
			Format:            "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best",
			MergeOutputFormat: "mp4",
			OutputTemplate:    "%(title)s.%(ext)s",
			SocketTimeout:     15 * time.Second,
			Retries:           3,
			IgnoreErrors:      true,
			NoPlaylist:        false,
			Verbose:           false,
			BundleDir:         "",
			UseBundledFFmpeg:  true,
		},
		Relay: RelayConfig{
			TickInterval:      500 * time.Millisecond,
			IdleTickInterval:  2 * time.Second,
			CompletionGrace:   3 * time.Second,
			HeartbeatInterval: time.Second,
			MarkerFile:        "$TMPDIR/vidgrab_download_complete.flag",
			DebugBufferSize:   100,
			LogStepPercent:    5,
			StatusTail:        20,
		},
		History: HistoryConfig{
			Enabled:      true,
			DatabasePath: "$HOME/.vidgrab/history.db",
		},
		Notification: NotificationConfig{
			Enabled: false,
			Sound:   false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
			LogsDir:    "$HOME/.vidgrab/logs",
		},
	}
}
