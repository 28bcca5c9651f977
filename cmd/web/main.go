// Command web runs the SAC sales and activity dashboard API server.
package main

import (
	"context"
	"fmt"
	"os"

	"sacdash/internal/app"
	"sacdash/internal/config"
	"sacdash/internal/infrastructure"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer infrastructure.CloseLogger()

	ctx := context.Background()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	return application.Run(ctx)
}
