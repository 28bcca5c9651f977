// Command report runs the reconciliation pipeline once and writes the
// dashboard result tables to CSV files and an Excel workbook.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"sacdash/internal/config"
	"sacdash/internal/dataprocessing"
	"sacdash/internal/exporter"
	"sacdash/internal/infrastructure"
	"sacdash/internal/sheets"
	"sacdash/pkg/contracts/domain"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		view     = flag.String("view", "Both", "record types to include: Engines, Mods or Both")
		start    = flag.String("start", "", "start date (YYYY-MM-DD, defaults to earliest)")
		end      = flag.String("end", "", "end date (YYYY-MM-DD, defaults to latest)")
		outDir   = flag.String("out", "reports", "directory for CSV output")
		workbook = flag.String("xlsx", "", "optional path for an Excel workbook")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer infrastructure.CloseLogger()

	opts := domain.FilterOptions{View: domain.View(*view)}
	switch opts.View {
	case domain.ViewEngines, domain.ViewMods, domain.ViewBoth:
	default:
		return fmt.Errorf("invalid view %q", *view)
	}
	if *start != "" {
		t, err := time.Parse("2006-01-02", *start)
		if err != nil {
			return fmt.Errorf("invalid start date: %w", err)
		}
		opts.Start = t
	}
	if *end != "" {
		t, err := time.Parse("2006-01-02", *end)
		if err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
		opts.End = t
	}

	ctx := context.Background()

	client, err := sheets.NewClient(ctx, cfg.Sources, logger)
	if err != nil {
		return err
	}

	processor, err := dataprocessing.NewProcessor(logger, cfg.Pipeline)
	if err != nil {
		return err
	}

	src, err := client.FetchAll(ctx, cfg.Pipeline)
	if err != nil {
		return err
	}

	snap, err := processor.BuildSnapshot(ctx, src)
	if err != nil {
		return err
	}

	dash := dataprocessing.NewAnalyzer().BuildDashboard(snap, opts)

	writer := exporter.NewCSVWriter(*outDir, logger)
	if err := writer.WriteAll(ctx, &dash); err != nil {
		return err
	}

	if *workbook != "" {
		file, err := os.Create(*workbook)
		if err != nil {
			return fmt.Errorf("failed to create workbook file: %w", err)
		}
		defer file.Close()

		if err := exporter.WriteWorkbook(ctx, file, &dash); err != nil {
			return err
		}
	}

	logger.Info("report written",
		slog.String("out_dir", *outDir),
		slog.Int("transactions", dash.Totals.Transactions),
	)

	return nil
}
