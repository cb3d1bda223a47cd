package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"github.com/yourusername/vidgrab-go/internal/domain"
)

// LoadConfig loads configuration from an optional .env file, the config file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.vidgrab")
		v.AddConfigPath("/etc/vidgrab")
	}

	v.SetEnvPrefix("VIDGRAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadDotEnv loads KEY=VALUE pairs into the environment without overriding existing variables
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// bindEnvKeys makes AutomaticEnv visible to Unmarshal for keys absent from the config file
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"server.host", "server.port", "server.lock_file",
		"download.default_dir", "download.create_dirs", "download.bundle_name",
		"engine.ytdlp_binary", "engine.format", "engine.merge_output_format", "engine.output_template",
		"engine.socket_timeout", "engine.retries", "engine.ignore_errors", "engine.no_playlist",
		"engine.verbose", "engine.bundle_dir", "engine.use_bundled_ffmpeg",
		"relay.tick_interval", "relay.idle_tick_interval", "relay.completion_grace",
		"relay.heartbeat_interval", "relay.marker_file", "relay.debug_buffer_size",
		"relay.log_step_percent", "relay.status_tail",
		"history.enabled", "history.database_path",
		"notification.enabled", "notification.sound", "notification.method",
		"logging.level", "logging.format", "logging.output_path", "logging.logs_dir",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Server.LockFile = expandPath(config.Server.LockFile)
	config.Download.DefaultDir = expandPath(config.Download.DefaultDir)
	config.Engine.BundleDir = expandPath(config.Engine.BundleDir)
	config.Relay.MarkerFile = expandPath(config.Relay.MarkerFile)
	config.History.DatabasePath = expandPath(config.History.DatabasePath)
	config.Logging.LogsDir = expandPath(config.Logging.LogsDir)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables, ~ and $TMPDIR in paths
func expandPath(path string) string {
	if path == "" {
		return path
	}

	// $TMPDIR is unset on most Linux systems; os.TempDir knows the fallback
	path = strings.ReplaceAll(path, "$TMPDIR", os.TempDir())

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	if strings.Contains(path, "$HOME") {
		if home, err := os.UserHomeDir(); err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	return filepath.Clean(os.ExpandEnv(path))
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Download.DefaultDir == "" {
		return fmt.Errorf("default download directory not configured")
	}

	if config.Engine.YTDLPBinary == "" {
		return fmt.Errorf("yt-dlp binary not configured")
	}

	if config.Engine.Retries < 0 {
		return fmt.Errorf("engine retries cannot be negative")
	}

	if config.Relay.MarkerFile == "" {
		return fmt.Errorf("relay marker file not configured")
	}

	if config.Relay.TickInterval <= 0 {
		return fmt.Errorf("relay tick interval must be positive")
	}

	if config.Relay.CompletionGrace <= config.Relay.TickInterval {
		return fmt.Errorf("relay completion grace (%s) must exceed the tick interval (%s)",
			config.Relay.CompletionGrace, config.Relay.TickInterval)
	}

	if config.Relay.HeartbeatInterval <= 0 || config.Relay.HeartbeatInterval >= config.Relay.CompletionGrace {
		return fmt.Errorf("relay heartbeat interval must be positive and shorter than the completion grace")
	}

	if config.Relay.DebugBufferSize < 1 {
		config.Relay.DebugBufferSize = 100
	}

	if config.Relay.LogStepPercent < 1 || config.Relay.LogStepPercent > 100 {
		return fmt.Errorf("relay log step must be between 1 and 100, got %d", config.Relay.LogStepPercent)
	}

	if config.Relay.IdleTickInterval <= 0 {
		config.Relay.IdleTickInterval = config.Relay.TickInterval
	}

	if config.History.Enabled && config.History.DatabasePath == "" {
		return fmt.Errorf("history database path not configured")
	}

	if config.Download.BundleName == "" {
		config.Download.BundleName = "video_downloads.zip"
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file using the same keys LoadConfig reads
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	sections := map[string]interface{}{
		"server":       config.Server,
		"download":     config.Download,
		"engine":       config.Engine,
		"relay":        config.Relay,
		"history":      config.History,
		"notification": config.Notification,
		"logging":      config.Logging,
	}
	for name, section := range sections {
		values := map[string]interface{}{}
		if err := mapstructure.Decode(section, &values); err != nil {
			return fmt.Errorf("failed to encode %s config: %w", name, err)
		}
		for key, value := range values {
			if d, ok := value.(time.Duration); ok {
				values[key] = d.String()
			}
		}
		v.Set(name, values)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
