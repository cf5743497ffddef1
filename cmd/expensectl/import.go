package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"expense-ingest/internal/classifier"
	"expense-ingest/internal/repository"
	"expense-ingest/internal/repository/memory"
	"expense-ingest/internal/service"
	"expense-ingest/internal/statement"
	"expense-ingest/pkg/config"
	"expense-ingest/pkg/logger"
	"expense-ingest/pkg/postgres"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type importOptions struct {
	ownerID   int64
	dryRun    bool
	force     bool
	cacheFile string
}

func newImportCommand() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <file|directory>...",
		Short: "Import CSV and PDF statements for an owner",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.ownerID <= 0 {
				return fmt.Errorf("--owner must be positive")
			}
			files, err := collectStatements(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no .csv or .pdf files found")
			}
			return runImport(cmd.Context(), cmd.OutOrStdout(), files, opts)
		},
	}

	cmd.Flags().Int64Var(&opts.ownerID, "owner", 0, "owner id (required)")
	_ = cmd.MarkFlagRequired("owner")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "classify into an in-memory store without touching the database")
	cmd.Flags().BoolVar(&opts.force, "force", false, "import files even if they were imported before")
	cmd.Flags().StringVar(&opts.cacheFile, "cache", ".expensectl-cache.json", "file recording imported statements (empty disables)")

	return cmd
}

// collectStatements expands directories into the supported files they
// contain, in lexical order.
func collectStatements(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			switch statement.FormatOf(path) {
			case "csv", "pdf":
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

func runImport(ctx context.Context, out io.Writer, files []string, opts importOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Logger.Level, cfg.Logger.Format); err != nil {
		return err
	}
	defer logger.Sync()
	appLogger := logger.Named("import")

	keywords, err := service.LoadKeywords(&cfg.Classifier, appLogger)
	if err != nil {
		return err
	}
	model, err := service.NewModelProvider(ctx, cfg, keywords, appLogger)
	if err != nil {
		return err
	}
	defer model.Close()

	var (
		categories service.CategoryStore
		expenses   service.ExpenseStore
		statements service.StatementLog
		history    classifier.HistoryLookup
	)
	if opts.dryRun {
		store := memory.NewStore()
		categories, expenses, statements, history = store.Categories(), store.Expenses(), store.Statements(), store.Expenses()
		opts.cacheFile = ""
	} else {
		db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
		if err != nil {
			return err
		}
		defer db.Close()
		expenseRepo := repository.NewExpenseRepository(db, appLogger)
		categories = repository.NewCategoryRepository(db, appLogger)
		expenses, history = expenseRepo, expenseRepo
		statements = repository.NewStatementRepository(db, appLogger)
	}

	cls := classifier.New(history, keywords, model.Classifier, logger.Named("classifier"))
	ingestion := service.NewIngestionService(service.NewStatementDispatcher(cfg, appLogger), cls, categories, expenses, statements, logger.Named("ingestion"))

	cache, err := loadCache(opts.cacheFile)
	if err != nil {
		appLogger.Warn("Failed to load cache, importing every file", zap.Error(err))
		cache = &importCache{ProcessedFiles: make(map[string]processedFile)}
	}

	var total, failed int
	for _, path := range files {
		n, err := importFile(ctx, out, ingestion, cache, path, opts)
		total += n
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s: %v\n", path, err)
		}
	}

	if err := saveCache(opts.cacheFile, cache); err != nil {
		appLogger.Warn("Failed to save cache", zap.Error(err))
	}

	fmt.Fprintf(out, "imported %d expenses from %d files (%d failed)\n", total, len(files), failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

func importFile(ctx context.Context, out io.Writer, ingestion *service.IngestionService, cache *importCache, path string, opts importOptions) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	hash, err := fileHash(bytes.NewReader(data))
	if err != nil {
		return 0, err
	}

	key := cacheKey(opts.ownerID, hash)
	if prev, ok := cache.ProcessedFiles[key]; ok && !opts.force {
		fmt.Fprintf(out, "%s: already imported on %s, skipping\n", path, prev.ImportedAt.Format(time.DateOnly))
		return 0, nil
	}

	created, err := ingestion.Ingest(ctx, opts.ownerID, filepath.Base(path), data)
	for _, e := range created {
		fmt.Fprintf(out, "  %s  %-40s %10s  %s\n", e.Date.Format(time.DateOnly), truncate(e.Description, 40), e.Amount.StringFixed(2), e.CategoryName)
	}
	if err != nil {
		return len(created), err
	}

	cache.ProcessedFiles[key] = processedFile{
		Path:       path,
		OwnerID:    opts.ownerID,
		Expenses:   len(created),
		ImportedAt: time.Now(),
	}
	fmt.Fprintf(out, "%s: %d expenses\n", path, len(created))
	return len(created), nil
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
