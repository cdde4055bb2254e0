package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"dip-trader/internal/cli"
	"dip-trader/internal/config"
	"dip-trader/internal/logging"
)

func main() {
	configDir := configDirFromArgs(os.Args[1:])
	if configDir == "" {
		configDir = config.DefaultConfigDir()
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLoggerWithConfig(logging.LogConfig{
		Level:    cfg.Logging.Level,
		Console:  true,
		File:     cfg.Logging.File != "",
		FilePath: logFilePath(configDir, cfg.Logging.File),
	})

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// logFilePath resolves the configured log file against the config directory.
// The default is already absolute; only relative paths get anchored.
func logFilePath(configDir, file string) string {
	if file == "" || filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(configDir, file)
}

// configDirFromArgs pre-scans for --config so the directory is known before
// cobra parses flags; config has to load before the commands are built.
func configDirFromArgs(args []string) string {
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if len(arg) > len("--config=") && arg[:len("--config=")] == "--config=" {
			return arg[len("--config="):]
		}
	}
	return ""
}
