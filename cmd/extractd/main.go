package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vedvix/syncledger-extract/internal/async"
	"github.com/vedvix/syncledger-extract/internal/cascade"
	"github.com/vedvix/syncledger-extract/internal/common"
	"github.com/vedvix/syncledger-extract/internal/extract"
	"github.com/vedvix/syncledger-extract/internal/ingest"
	"github.com/vedvix/syncledger-extract/internal/llm/openai"
	"github.com/vedvix/syncledger-extract/internal/mapping"
	"github.com/vedvix/syncledger-extract/internal/ocr"
	"github.com/vedvix/syncledger-extract/internal/pipeline"
	"github.com/vedvix/syncledger-extract/internal/profiles"
	"github.com/vedvix/syncledger-extract/internal/repository"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(),
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	if err := repository.HealthCheck(ctx, pool, cfg.Database.DialTimeout); err != nil {
		logger.Error("database health check failed", "error", err)
		os.Exit(1)
	}

	filesRepo := repository.NewDocumentFileRepository(pool, logger)
	jobsRepo := repository.NewExtractJobRepository(pool, logger)
	profilesRepo := repository.NewMappingProfileRepository(pool, logger)

	extractor := ocr.NewExtractor(ocr.Config{
		PDFToText:     cfg.OCR.PDFToText,
		PDFToPPM:      cfg.OCR.PDFToPPM,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.Oracle.MaxPages,
	})

	oracle := openai.NewClient(openai.Config{
		APIKey:      cfg.Oracle.APIKey,
		BaseURL:     cfg.Oracle.BaseURL,
		Model:       cfg.Oracle.Model,
		VisionModel: cfg.Oracle.VisionModel,
		Temperature: cfg.Oracle.Temperature,
		Timeout:     cfg.Oracle.Timeout,
	}, logger)

	controller := cascade.New(cascade.Config{
		EnableVision:     cfg.Cascade.EnableVision,
		EnableTextLLM:    cfg.Cascade.EnableTextLLM,
		EnableValidation: cfg.Cascade.EnableValidation,
		MaxPages:         cfg.Oracle.MaxPages,
	}, cascade.Deps{
		Vision:   oracle,
		Text:     oracle,
		Renderer: extractor,
	}, logger)

	engine := mapping.NewEngine(logger)
	profileService := profiles.NewService(engine, profilesRepo, logger)
	if _, err := profileService.LoadPersisted(ctx); err != nil {
		logger.Error("failed to load mapping profiles", "error", err)
		os.Exit(1)
	}

	processor := pipeline.NewProcessor(
		extract.NewOCRAdapter(extractor),
		controller,
		engine,
		filesRepo,
		jobsRepo,
		logger,
	).WithInvoiceStore(repository.NewInvoiceRepository(pool, logger))

	queue := async.NewProcessorQueue(processor, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.BufferSize),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
	)

	ingestor := ingest.NewFSIngestor(filesRepo, queue, logger)

	if len(cfg.Ingest.WatchDirs) > 0 {
		events, watchErrs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       cfg.Ingest.WatchDirs,
			InitialScan: cfg.Ingest.InitialScan,
			Debounce:    cfg.Ingest.Debounce,
		}, logger)
		if err != nil {
			logger.Error("failed to start watcher", "error", err)
			os.Exit(1)
		}
		go func() {
			for path := range events {
				if _, err := ingestor.IngestPath(ctx, cfg.Ingest.OrgID, path); err != nil {
					logger.Warn("ingest failed", "path", path, "error", err)
				}
			}
		}()
		go func() {
			for err := range watchErrs {
				logger.Warn("watcher error", "error", err)
			}
		}()
		logger.Info("watching for documents", "dirs", cfg.Ingest.WatchDirs)
	} else {
		logger.Info("no watch directories configured; queue accepts manual submissions only")
	}

	<-ctx.Done()
	logger.Info("shutting down")
	queue.Shutdown(context.Background())
}

func logLevel() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
