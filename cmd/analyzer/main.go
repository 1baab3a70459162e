package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandroruanova/legal-complaint-analyzer/internal/app"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/services/pipeline"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/infrastructure/database/repositories"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/infrastructure/export"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/config"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/logger"
)

// cliUser is recorded as uploaded_by for complaints submitted from the command line
const cliUser = "admin-cli"

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:
  analyzer <path_to_pdf>       process one complaint
  analyzer -export out.xlsx    export complaints to a workbook
  analyzer -stats              print complaint statistics

Example: analyzer ./contoh_laporan_pengaduan.pdf
`)
	flag.PrintDefaults()
}

func main() {
	exportPath := flag.String("export", "", "write complaints to this .xlsx file")
	status := flag.String("status", "", "with -export, only complaints in this status")
	stats := flag.Bool("stats", false, "print complaint statistics")
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.Initialize(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *stats:
		os.Exit(runStats(ctx, cfg, log))
	case *exportPath != "":
		os.Exit(runExport(ctx, cfg, log, *exportPath, *status))
	case flag.NArg() == 1:
		os.Exit(runProcess(ctx, cfg, log, flag.Arg(0)))
	default:
		usage()
		os.Exit(1)
	}
}

func runProcess(ctx context.Context, cfg *config.Config, log *slog.Logger, pdfPath string) int {
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: invalid configuration: %v\n", err)
		return 1
	}

	// The CLI runs alone, so numbers are reserved in-process
	a, err := app.Build(ctx, cfg, app.Options{SkipRedis: true}, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to initialize processor: %v\n", err)
		return 1
	}
	defer a.Close()

	result := a.Processor.Process(ctx, pipeline.Request{
		FilePath:   pdfPath,
		UploadedBy: cliUser,
	})

	if !result.Success {
		fmt.Printf("\n✗ Processing failed: %s\n", result.Error)
		if result.Cause != nil {
			log.Debug("failure cause", slog.String("stage", result.Stage), slog.Any("error", result.Cause))
		}
		return 1
	}

	fmt.Println("\n✅ Processing successful!")
	fmt.Printf("Complaint Number  : %s\n", result.ComplaintNumber)
	fmt.Printf("Complaint ID      : %s\n", result.ComplaintID)
	fmt.Printf("Analysis ID       : %s\n", result.AnalysisID)
	fmt.Printf("Total Duration    : %.2f seconds\n", result.DurationSeconds)
	return 0
}

func runStats(ctx context.Context, cfg *config.Config, log *slog.Logger) int {
	db, store, err := app.OpenStore(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	defer db.Close()

	s, err := store.Complaints.Statistics(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read statistics: %v\n", err)
		return 1
	}

	fmt.Printf("Total complaints  : %d\n", s.TotalComplaints)
	fmt.Printf("Pending           : %d\n", s.Pending)
	fmt.Printf("Analyzed          : %d\n", s.Analyzed)
	fmt.Printf("Error             : %d\n", s.Errored)
	fmt.Printf("High urgency      : %d\n", s.HighUrgency)
	return 0
}

func runExport(ctx context.Context, cfg *config.Config, log *slog.Logger, path, status string) int {
	db, store, err := app.OpenStore(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	complaints, err := store.Complaints.ListWithAnalysis(ctx, repositories.ListFilter{Status: status})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load complaints: %v\n", err)
		return 1
	}

	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create %s: %v\n", path, err)
		return 1
	}
	if err := export.WriteComplaints(f, complaints); err != nil {
		f.Close()
		fmt.Fprintf(os.Stderr, "failed to write workbook: %v\n", err)
		return 1
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write workbook: %v\n", err)
		return 1
	}

	fmt.Printf("Exported %d complaints to %s\n", len(complaints), path)
	return 0
}
