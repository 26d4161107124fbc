package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vedvix/syncledger-extract/internal/cascade"
	"github.com/vedvix/syncledger-extract/internal/common"
	"github.com/vedvix/syncledger-extract/internal/entity"
	"github.com/vedvix/syncledger-extract/internal/export"
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

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	root := &cobra.Command{
		Use:           "syncledger",
		Short:         "Invoice and purchase order extraction toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newExtractCmd(logger),
		newIngestCmd(logger),
		newProfilesCmd(logger),
		newExportCmd(logger),
		newDBHealthCmd(logger),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app bundles everything a command needs against a live database.
type app struct {
	pool      func()
	filesRepo repository.DocumentFileRepository
	profiles  *profiles.Service
	processor *pipeline.Processor
	export    *export.Service
}

func newApp(ctx context.Context, logger *slog.Logger) (*app, error) {
	cfg := common.LoadConfig()
	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("DB_URL is required")
	}

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
		return nil, fmt.Errorf("open database: %w", err)
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
		EnableVision:     cfg.Cascade.EnableVision && cfg.Oracle.APIKey != "",
		EnableTextLLM:    cfg.Cascade.EnableTextLLM && cfg.Oracle.APIKey != "",
		EnableValidation: cfg.Cascade.EnableValidation,
		MaxPages:         cfg.Oracle.MaxPages,
	}, cascade.Deps{Vision: oracle, Text: oracle, Renderer: extractor}, logger)

	engine := mapping.NewEngine(logger)
	profileService := profiles.NewService(engine, profilesRepo, logger)
	if _, err := profileService.LoadPersisted(ctx); err != nil {
		repository.Close(pool, logger)
		return nil, err
	}

	return &app{
		pool:      func() { repository.Close(pool, logger) },
		filesRepo: filesRepo,
		profiles:  profileService,
		processor: pipeline.NewProcessor(
			extract.NewOCRAdapter(extractor), controller, engine, filesRepo, jobsRepo, logger).
			WithInvoiceStore(repository.NewInvoiceRepository(pool, logger)),
		export: export.NewService(jobsRepo, filesRepo, logger),
	}, nil
}

func newExtractCmd(logger *slog.Logger) *cobra.Command {
	var orgID string
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract one document and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, logger)
			if err != nil {
				return err
			}
			defer a.pool()

			ingestor := ingest.NewFSIngestor(a.filesRepo, nil, logger)
			res, err := ingestor.IngestPath(ctx, orgID, args[0])
			if err != nil {
				return err
			}
			fileID, err := uuid.Parse(res.FileID)
			if err != nil {
				return err
			}

			_, out, err := a.processor.ProcessFile(ctx, fileID)
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().StringVar(&orgID, "org", "", "organization the document belongs to")
	return cmd
}

func newIngestCmd(logger *slog.Logger) *cobra.Command {
	var orgID string
	var skipHidden bool
	cmd := &cobra.Command{
		Use:   "ingest <path>...",
		Short: "Register files or directories for extraction",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, logger)
			if err != nil {
				return err
			}
			defer a.pool()

			ingestor := ingest.NewFSIngestor(a.filesRepo, nil, logger)
			for _, path := range args {
				info, err := os.Stat(path)
				if err != nil {
					return err
				}
				if info.IsDir() {
					results, stats, err := ingestor.IngestDirectory(ctx, orgID, path, skipHidden)
					if err != nil {
						return err
					}
					for _, r := range results {
						printIngestResult(cmd, r)
					}
					cmd.Printf("%s: %d matched, %d ingested, %d duplicates, %d failed\n",
						path, stats.Matched, stats.Succeeded, stats.Deduplicated, stats.Failed)
					continue
				}
				r, err := ingestor.IngestPath(ctx, orgID, path)
				if err != nil {
					return err
				}
				printIngestResult(cmd, r)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&orgID, "org", "", "organization the documents belong to")
	cmd.Flags().BoolVar(&skipHidden, "skip-hidden", true, "skip hidden files and directories")
	return cmd
}

func printIngestResult(cmd *cobra.Command, r ingest.IngestionResult) {
	status := "ingested"
	if r.Deduplicated {
		status = "duplicate"
	}
	if r.Err != "" {
		status = "failed: " + r.Err
	}
	cmd.Printf("%s\t%s\t%s\n", r.SourcePath, r.FileID, status)
}

func newProfilesCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Manage field mapping profiles",
	}

	var orgID string
	list := &cobra.Command{
		Use:   "list",
		Short: "List registered mapping profiles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer a.pool()
			for _, p := range a.profiles.List(orgID) {
				kind := "custom"
				if p.Builtin {
					kind = "builtin"
				}
				cmd.Printf("%s\t%s\t%s\t%d rules\n", p.ID, kind, p.Name, len(p.Rules))
			}
			return nil
		},
	}
	list.Flags().StringVar(&orgID, "org", "", "restrict to one organization plus globals")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one mapping profile as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer a.pool()
			p, err := a.profiles.Get(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, p)
		},
	}

	apply := &cobra.Command{
		Use:   "apply <file.json>",
		Short: "Create or update a mapping profile from a JSON definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var p entity.MappingProfile
			if err := json.Unmarshal(raw, &p); err != nil {
				return fmt.Errorf("parse profile: %w", err)
			}

			a, err := newApp(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer a.pool()
			if err := a.profiles.Save(cmd.Context(), &p); err != nil {
				return err
			}
			cmd.Printf("profile %s saved\n", p.ID)
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored mapping profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer a.pool()
			if err := a.profiles.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Printf("profile %s deleted\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, show, apply, del)
	return cmd
}

func newExportCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export extraction results to XLSX",
	}

	var orgID, fromStr, toStr, outPath string
	jobs := &cobra.Command{
		Use:   "jobs",
		Short: "Export finished extractions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, err := parseDateFlag(fromStr)
			if err != nil {
				return err
			}
			to, err := parseDateFlag(toStr)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer a.pool()

			buf, err := a.export.ExportJobsXLSX(cmd.Context(), orgID, from, to)
			if err != nil {
				return err
			}
			return writeExport(cmd, outPath, buf)
		},
	}
	jobs.Flags().StringVar(&orgID, "org", "", "organization to export")
	jobs.Flags().StringVar(&fromStr, "from", "", "start date (inclusive)")
	jobs.Flags().StringVar(&toStr, "to", "", "end date (inclusive)")
	jobs.Flags().StringVarP(&outPath, "out", "o", "extractions.xlsx", "output file")

	var limit int
	var reviewOut, reviewOrg string
	review := &cobra.Command{
		Use:   "review",
		Short: "Export the manual review queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer a.pool()

			buf, err := a.export.ExportReviewQueueXLSX(cmd.Context(), reviewOrg, limit)
			if err != nil {
				return err
			}
			return writeExport(cmd, reviewOut, buf)
		},
	}
	review.Flags().StringVar(&reviewOrg, "org", "", "organization to export")
	review.Flags().IntVar(&limit, "limit", 50, "maximum rows")
	review.Flags().StringVarP(&reviewOut, "out", "o", "review.xlsx", "output file")

	cmd.AddCommand(jobs, review)
	return cmd
}

func newDBHealthCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "dbhealth",
		Short: "Check database connectivity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := common.LoadConfig()
			if cfg.Database.DSN == "" {
				return fmt.Errorf("DB_URL is required")
			}
			pool, err := repository.Open(cmd.Context(), repository.Config{
				DSN:         cfg.Database.DSN,
				DialTimeout: cfg.Database.DialTimeout,
			}, logger)
			if err != nil {
				return err
			}
			defer repository.Close(pool, logger)
			if err := repository.HealthCheck(cmd.Context(), pool, cfg.Database.DialTimeout); err != nil {
				return err
			}
			cmd.Println("database OK")
			return nil
		},
	}
}

func parseDateFlag(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", s, err)
	}
	return &t, nil
}

func writeExport(cmd *cobra.Command, path string, buf []byte) error {
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return err
	}
	cmd.Printf("wrote %s (%d bytes)\n", path, len(buf))
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(out))
	return nil
}
