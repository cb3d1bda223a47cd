package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/vidgrab-go/internal/app"
	"github.com/yourusername/vidgrab-go/internal/bootstrap"
	"github.com/yourusername/vidgrab-go/internal/domain"
	"github.com/yourusername/vidgrab-go/internal/tui"
	"github.com/yourusername/vidgrab-go/pkg/logger"
)

var validateCmd = &cobra.Command{
	Use:   "validate [url...]",
	Short: "Check which URLs would be accepted, without a server",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		v := domain.ValidateURLInput(strings.Join(args, "\n"))
		printValidation(os.Stdout, v)
		if len(v.Valid) == 0 {
			os.Exit(1)
		}
	},
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Run downloads in the terminal front-end",
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(runTUI())
	},
}

func runTUI() error {
	if !isTerminal() {
		return errors.New("the terminal front-end needs an interactive terminal")
	}

	config, err := app.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// the screen belongs to bubbletea, so zap writes to a file
	log, err := logger.NewFile(filepath.Join(config.Logging.LogsDir, "tui.log"), config.Logging.Level)
	if err != nil {
		return err
	}
	defer log.Sync()

	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Logging.LogsDir,
	})
	if err != nil {
		return err
	}
	defer multiLog.Close()

	rt, err := bootstrap.Build(config, log, multiLog)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model := tui.New(ctx, rt.Loop, rt.Bundler, tui.Options{
		DefaultDir:   config.Download.DefaultDir,
		BundleName:   config.Download.BundleName,
		TickInterval: config.Relay.TickInterval,
		IdleInterval: config.Relay.IdleTickInterval,
		Logger:       log.Named("tui"),
	})

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("terminal front-end failed: %w", err)
	}
	log.Info("Terminal front-end exited", zap.Bool("downloading", rt.Loop.IsDownloading()))
	return nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with default values",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")

		path := filepath.Join(os.Getenv("HOME"), ".vidgrab", "config.yaml")
		if len(args) == 1 {
			path = args[0]
		}

		exitOnError(writeDefaultConfig(path, force))
		fmt.Printf("%s %s\n", okLabel("Config written:"), path)
	},
}

func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return app.SaveConfig(domain.DefaultConfig(), path)
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Run: func(cmd *cobra.Command, args []string) {
		config, err := app.LoadConfig(configFile)
		exitOnError(err)

		fmt.Printf("%s %s:%d\n", headLabel("Server:"), config.Server.Host, config.Server.Port)
		fmt.Printf("%s %s\n", headLabel("Default dir:"), config.Download.DefaultDir)
		fmt.Printf("%s %s (%s)\n", headLabel("Engine:"), config.Engine.YTDLPBinary, config.Engine.Format)
		fmt.Printf("%s tick %s, grace %s, marker %s\n", headLabel("Relay:"),
			config.Relay.TickInterval, config.Relay.CompletionGrace, config.Relay.MarkerFile)
		fmt.Printf("%s %v (%s)\n", headLabel("History:"), config.History.Enabled, config.History.DatabasePath)
		fmt.Printf("%s %s\n", headLabel("Logs:"), config.Logging.LogsDir)
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
