package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/user/remind-me/personal/internal/config"
	"github.com/user/remind-me/personal/internal/database"
	"github.com/user/remind-me/personal/internal/logging"
	"github.com/user/remind-me/personal/internal/models"
	"github.com/user/remind-me/personal/internal/repository"
	"go.uber.org/zap"
)

type options struct {
	importFile string
	replace    bool
	dryRun     bool
}

func main() {
	var opts options

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Prepare storage and upgrade stored reminders to the current schema",
		Long: `migrate creates the storage table for database drivers, rewrites the
stored reminders at the current schema version and optionally imports a JSON
export from the web client (a bare array or a versioned envelope).`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.importFile, "import", "", "JSON export to import")
	cmd.Flags().BoolVar(&opts.replace, "replace", false, "replace stored reminders instead of merging")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "report what would change without writing")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Sugar()

	log.Infof("Opening %s storage...", cfg.StorageDriver)
	lock, err := database.AcquireWriterLock(cfg)
	if err != nil {
		log.Errorw("Stop the API server before migrating", "error", err)
		return err
	}
	defer func() { _ = lock.Release() }()

	blobs, closeStorage, err := database.OpenBlobStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeStorage() }()
	log.Info("  ✓ storage ready")

	repo := repository.NewReminderRepository(blobs)

	log.Info("Reading stored reminders...")
	stored, err := repo.Load(ctx)
	if err != nil {
		log.Errorw("Stored reminders are unreadable, refusing to overwrite them", "error", err)
		return err
	}
	log.Infof("  ✓ %d stored reminders", len(stored))

	var imported []models.Reminder
	if opts.importFile != "" {
		log.Infof("Reading %s...", opts.importFile)
		data, err := os.ReadFile(opts.importFile)
		if err != nil {
			return fmt.Errorf("failed to read import file: %w", err)
		}
		imported, err = repository.DecodeReminders(data)
		if err != nil {
			return fmt.Errorf("failed to decode import file: %w", err)
		}
		log.Infof("  ✓ %d reminders in export", len(imported))
	}

	result, added, skipped := merge(stored, imported, opts.replace)
	log.Infow("Migration plan",
		"stored", len(stored),
		"imported", added,
		"skipped_duplicates", skipped,
		"total", len(result),
		"schema_version", repository.CurrentSchemaVersion,
	)

	if opts.dryRun {
		log.Info("Dry run, nothing written")
		return nil
	}

	if err := repo.SaveAll(ctx, result); err != nil {
		logger.Error("Failed to write reminders", zap.Error(err))
		return err
	}

	log.Info("========================================")
	log.Info("Migration completed successfully!")
	log.Info("========================================")
	return nil
}

// merge adds imported reminders whose id is not stored yet. With replace the
// import wins outright.
func merge(stored, imported []models.Reminder, replace bool) (result []models.Reminder, added, skipped int) {
	if replace && imported != nil {
		return imported, len(imported), 0
	}

	seen := make(map[string]struct{}, len(stored))
	result = append(result, stored...)
	for _, r := range stored {
		seen[r.ID.String()] = struct{}{}
	}
	for _, r := range imported {
		if _, ok := seen[r.ID.String()]; ok {
			skipped++
			continue
		}
		seen[r.ID.String()] = struct{}{}
		result = append(result, r)
		added++
	}
	return result, added, skipped
}
