package main

import (
	_ "embed"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/shopspring/decimal"

	"github.com/mvale/debtscan/internal/report"
	"github.com/mvale/debtscan/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	defaults := report.DefaultParams()

	fs := ff.NewFlagSet("debtscan")
	var (
		input       = fs.StringLong("input", "", "Debtor report to scan: a PDF file or a directory of page images")
		outDir      = fs.StringLong("out", "./artifacts", "Directory for amounts files and histograms")
		dbPath      = fs.StringLong("db", "debtscan.db", "Run registry file path")
		engine      = fs.StringLong("engine", defaults.Engine, "Recognition engine: 'tesseract', 'gemini' or 'ollama'")
		language    = fs.StringLong("lang", defaults.Language, "Tesseract language model")
		dpi         = fs.IntLong("dpi", defaults.DPI, "Page rendering resolution in dots per inch")
		threshold   = fs.IntLong("threshold", defaults.ThresholdPct, "Binarization threshold as a percentage of full brightness")
		psm         = fs.IntLong("psm", defaults.PSM, "Tesseract page segmentation mode")
		filterMin   = fs.IntLong("min", 1000, "Smallest amount kept for the histogram")
		filterMax   = fs.IntLong("max", 25000000, "Largest amount kept for the histogram")
		bins        = fs.IntLong("bins", defaults.Bins, "Number of histogram buckets")
		debugDir    = fs.StringLong("debug-dir", "", "Directory to dump preprocessed page images into (optional)")
		force       = fs.BoolLong("force", "Rescan even if the source was already scanned")
		listRuns    = fs.BoolLong("list", "List recorded runs and exit")
		deleteRun   = fs.StringLong("delete", "", "Delete the run with this ID and exit")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL   = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, bakllava, qwen2-vl)")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("DEBTSCAN"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	cfg := report.Config{
		Params: report.Params{
			Engine:       *engine,
			Language:     *language,
			DPI:          *dpi,
			ThresholdPct: *threshold,
			PSM:          *psm,
			FilterMin:    decimal.NewFromInt(int64(*filterMin)),
			FilterMax:    decimal.NewFromInt(int64(*filterMax)),
			Bins:         *bins,
		},
		Force:    *force,
		DebugDir: *debugDir,
	}

	// Initialize run registry
	slog.Info("Initializing run registry...")
	db, err := report.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize run registry", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize artifact storage
	store, err := report.NewLocalStorage(*outDir)
	if err != nil {
		slog.Error("Failed to initialize artifact storage", "error", err)
		os.Exit(1)
	}

	// List and delete work on the registry alone, no engine needed
	if *listRuns {
		service := report.NewService(db, nil, store, cfg)
		if err := printRuns(service); err != nil {
			slog.Error("Failed to list runs", "error", err)
			os.Exit(1)
		}
		return
	}
	if *deleteRun != "" {
		service := report.NewService(db, nil, store, cfg)
		if err := service.DeleteRun(*deleteRun); err != nil {
			slog.Error("Failed to delete run", "id", *deleteRun, "error", err)
			os.Exit(1)
		}
		slog.Info("Deleted run", "id", *deleteRun)
		return
	}

	if *input == "" {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: --input is required\n")
		os.Exit(1)
	}

	if *debugDir != "" {
		if err := os.MkdirAll(*debugDir, 0755); err != nil {
			slog.Error("Failed to create debug directory", "error", err)
			os.Exit(1)
		}
	}

	// Initialize recognition engine based on type
	var recognizer scanning.Recognizer
	switch *engine {
	case "tesseract":
		slog.Info("Initializing Tesseract engine...", "lang", *language, "psm", *psm)
		recognizer, err = scanning.NewTesseract(*language, *psm, *dpi)
		if err != nil {
			slog.Error("Failed to initialize Tesseract", "error", err)
			os.Exit(1)
		}
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini engine...", "model", *geminiModel)
		recognizer, err = scanning.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama engine...", "url", *ollamaURL, "model", *ollamaModel)
		recognizer, err = scanning.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid engine type", "type", *engine, "valid", "tesseract, gemini or ollama")
		os.Exit(1)
	}
	defer recognizer.Close()

	service := report.NewService(db, recognizer, store, cfg)

	// Cancel the scan on interrupt so partial artifacts are not left behind
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Scanning", "input", *input, "engine", *engine)
	run, err := service.Scan(ctx, *input)
	if err != nil {
		slog.Error("Scan failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Scan complete",
		"run", run.ID,
		"pages", run.PagesScanned,
		"tokens", run.Stats.TokenCount,
		"values", run.Stats.ValueCount,
		"duration", run.Duration)
	slog.Info("Wrote amounts file", "path", filepath.Join(*outDir, run.AmountsFile))
	if run.HistogramFile != "" {
		slog.Info("Wrote histogram", "path", filepath.Join(*outDir, run.HistogramFile))
	}
}

func printRuns(service *report.Service) error {
	runs, err := service.ListRuns()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	fmt.Printf("%-20s  %-20s  %-6s  %-7s  %-7s  %s\n", "ID", "CREATED", "PAGES", "TOKENS", "VALUES", "SOURCE")
	for _, run := range runs {
		fmt.Printf("%-20s  %-20s  %-6d  %-7d  %-7d  %s\n",
			run.ID,
			run.CreatedAt.Format("2006-01-02 15:04:05"),
			run.PagesScanned,
			run.Stats.TokenCount,
			run.Stats.ValueCount,
			run.Source)
	}
	return nil
}
