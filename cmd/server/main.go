// Command server serves the prediction API.
//
// Usage:
//
//	server [-config config.yaml] [-models dir] [-port 8080]
//
// The instant and horizon classifiers are loaded once at startup. The
// server answers until SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"udderwatch/internal/app"
	"udderwatch/internal/config"
	"udderwatch/internal/infrastructure"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", "", "YAML configuration file (defaults to $UDDER_CONFIG_FILE or config.yaml)")
	modelsDir := fs.String("models", "", "classifier directory (defaults to paths.models_dir)")
	port := fs.Int("port", 0, "listen port (defaults to server.port)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var cfg *config.Config
	var err error
	if *configFile != "" {
		cfg, err = config.LoadFrom(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if *modelsDir != "" {
		cfg.Paths.ModelsDir = *modelsDir
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()
	infrastructure.SetDefault(logger)

	application, err := app.NewApplication(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return application.Run(ctx)
}
