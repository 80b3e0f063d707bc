package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quoteproc/quote-processor/internal/async"
	"github.com/quoteproc/quote-processor/internal/common"
	"github.com/quoteproc/quote-processor/internal/document"
	"github.com/quoteproc/quote-processor/internal/erpnext"
	"github.com/quoteproc/quote-processor/internal/ingest"
	"github.com/quoteproc/quote-processor/internal/journal"
	"github.com/quoteproc/quote-processor/internal/llm"
	"github.com/quoteproc/quote-processor/internal/pipeline"
	"github.com/quoteproc/quote-processor/internal/samples"
	"github.com/quoteproc/quote-processor/internal/server"
	"github.com/quoteproc/quote-processor/internal/textextract"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	setupLogging()

	rootCmd := &cobra.Command{
		Use:   "quoteproc",
		Short: "Quote and catalog document processor",
		Long: `Quoteproc ingests business documents (spreadsheets, PDFs, scans),
extracts product items with an LLM-backed pipeline, normalizes them
onto the ERPNext Item schema, and idempotently creates the items and
their dependencies in an ERPNext instance.`,
	}

	rootCmd.AddCommand(versionCmd(), serveCmd(), processCmd(), watchCmd(), samplesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging() {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// buildProcessor wires the pipeline from configuration. A missing
// ERPNext or Gemini configuration degrades the relevant stage instead
// of failing startup.
func buildProcessor(cfg *common.Config, logger *slog.Logger) (*pipeline.Processor, *journal.Journal) {
	text := textextract.NewExtractor(textextract.Config{
		Pdftotext:     cfg.OCR.Pdftotext,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
	}, logger)

	var gen llm.GenerativeClient
	if cfg.HasGemini() {
		gen = llm.NewGeminiClient(llm.GeminiConfig{
			APIKey:  cfg.Gemini.APIKey,
			BaseURL: cfg.Gemini.BaseURL,
			Model:   cfg.Gemini.Model,
			Timeout: cfg.Gemini.Timeout,
		}, logger)
	} else {
		logger.Warn("GEMINI_API_KEY not set, schema extraction falls back to naive parsing")
	}
	schema := llm.NewSchemaExtractor(gen, logger)

	var upserter pipeline.Upserter
	provider := erpnext.NewProvider(erpnext.Config{
		URL:       cfg.ERPNext.URL,
		APIKey:    cfg.ERPNext.APIKey,
		APISecret: cfg.ERPNext.APISecret,
		Timeout:   cfg.ERPNext.Timeout,
	}, logger)
	if client, err := provider.Client(); err == nil {
		upserter = erpnext.NewEngine(client, logger)
	}

	var jnl *journal.Journal
	if cfg.Journal.Path != "" {
		j, err := journal.Open(cfg.Journal.Path, logger)
		if err != nil {
			logger.Warn("journal unavailable, continuing without it", "path", cfg.Journal.Path, "error", err)
		} else {
			jnl = j
		}
	}

	return pipeline.NewProcessor(text, schema, upserter, jnl, logger), jnl
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("quoteproc %s (%s, %s)\n", version, commit, buildDate)
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the document upload API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := common.LoadConfig()
			logger := slog.Default()

			proc, jnl := buildProcessor(cfg, logger)
			if jnl != nil {
				defer func() { _ = jnl.Close() }()
			}

			h := server.NewHandler(proc, jnl, cfg.Server.MaxFileBytes, cfg.Server.MaxFilesPerReq, logger)
			router := server.NewRouter(h, server.RouterConfig{
				AllowedOrigins: cfg.Server.AllowedOrigins,
				RateLimit:      cfg.Server.RateLimit,
				RateWindow:     cfg.Server.RateWindow,
			}, logger)

			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go func() {
				logger.Info("http serving", "addr", cfg.Server.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http serve failed", "error", err)
					stop()
				}
			}()

			<-ctx.Done()
			logger.Info("shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func processCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process <file>...",
		Short: "Process documents from the command line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := common.LoadConfig()
			logger := slog.Default()

			proc, jnl := buildProcessor(cfg, logger)
			if jnl != nil {
				defer func() { _ = jnl.Close() }()
			}

			ctx := cmd.Context()
			var docs []document.RawDocument
			for _, path := range args {
				content, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				doc, ok := document.New(path, content)
				if !ok {
					return fmt.Errorf("unsupported document format: %s", path)
				}
				if jnl != nil {
					if err := jnl.Start(ctx, doc); err != nil {
						logger.Warn("journal start failed", "doc_id", doc.ID, "error", err)
					}
				}
				docs = append(docs, doc)
			}

			reports := proc.ProcessBatch(ctx, docs)
			return printJSON(reports)
		},
	}
}

func watchCmd() *cobra.Command {
	var initialScan bool
	cmd := &cobra.Command{
		Use:   "watch <dir>...",
		Short: "Watch directories and process new documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := common.LoadConfig()
			logger := slog.Default()

			proc, jnl := buildProcessor(cfg, logger)
			if jnl != nil {
				defer func() { _ = jnl.Close() }()
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			queue := async.NewProcessorQueue(proc, logger,
				async.WithWorkers(cfg.Worker.Workers),
				async.WithQueueSize(cfg.Worker.QueueSize),
				async.WithProcessTimeout(cfg.Worker.Timeout),
				async.WithReportFunc(func(rep document.Report) {
					_ = printJSON(rep)
				}),
			)

			paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
				Roots:       args,
				InitialScan: initialScan,
			})
			if err != nil {
				return err
			}
			logger.Info("watching for documents", "roots", strings.Join(args, ","))

			for {
				select {
				case <-ctx.Done():
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
					queue.Shutdown(shutdownCtx)
					cancel()
					return nil
				case werr, ok := <-errs:
					if ok && werr != nil {
						logger.Warn("watcher error", "error", werr)
					}
				case path, ok := <-paths:
					if !ok {
						return nil
					}
					content, rerr := os.ReadFile(path)
					if rerr != nil {
						logger.Warn("read watched file failed", "path", path, "error", rerr)
						continue
					}
					doc, docOK := document.New(path, content)
					if !docOK {
						logger.Warn("unsupported watched file", "path", path)
						continue
					}
					if jnl != nil {
						if jerr := jnl.Start(ctx, doc); jerr != nil {
							logger.Warn("journal start failed", "doc_id", doc.ID, "error", jerr)
						}
					}
					_ = queue.Enqueue(ctx, async.Job{Doc: doc, SubmittedAt: time.Now()})
				}
			}
		},
	}
	cmd.Flags().BoolVar(&initialScan, "initial-scan", false, "process files already present in the watched directories")
	return cmd
}

func samplesCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "samples",
		Short: "Generate sample input documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := samples.Generate(dir)
			if err != nil {
				return err
			}
			for _, path := range created {
				fmt.Println("Created", path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "sample_data", "output directory")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
