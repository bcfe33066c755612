package main

import (
	"fmt"
	"os"

	"github.com/sevnet/sevnet-go/cmd"
	"github.com/sevnet/sevnet-go/internal/conf"
	"github.com/sevnet/sevnet-go/internal/logging"
	"github.com/sevnet/sevnet-go/internal/telemetry"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logging.Init()

	settings, err := conf.Load()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	closeLog, err := logging.SetupFileOutput(settings)
	if err != nil {
		logging.Warn("Failed to open main log file", "path", settings.Main.Log.Path, "error", err)
	} else {
		defer func() { _ = closeLog() }()
	}

	if err := telemetry.Init(settings, version); err != nil {
		// Telemetry is optional, the application runs fine without it.
		logging.Warn("Failed to initialize telemetry", "error", err)
	}
	defer telemetry.Flush()

	rootCmd := cmd.RootCommand(settings)
	return rootCmd.Execute()
}
