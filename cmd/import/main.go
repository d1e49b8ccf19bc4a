package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/comicbase/comics-api/pkg/catalog"
	"github.com/comicbase/comics-api/pkg/database"
	"github.com/comicbase/comics-api/pkg/ingest"
	"github.com/comicbase/comics-api/pkg/memstore"
	"github.com/spf13/cobra"
)

func getLogLevelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
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

func main() {
	var opts ingest.Options

	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import catalog CSV exports into the record store",
		Long: "Import one or more CSV export files into the catalog. Files are " +
			"decoded according to their detected character encoding, parsed and " +
			"merged into existing records by external ID.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level := getLogLevelFromEnv()
			if opts.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)

			var store catalog.Store
			if opts.DryRun {
				store = memstore.New()
			} else {
				db, err := database.OpenFromEnv()
				if err != nil {
					return fmt.Errorf("connect to database: %w", err)
				}
				if err := db.AutoMigrate(); err != nil {
					return fmt.Errorf("migrate database: %w", err)
				}
				store = db
			}

			summary, err := ingest.New(store, logger, opts).ImportFiles(cmd.Context(), args)
			if err != nil {
				return err
			}

			skipped := 0
			for _, file := range summary.Files {
				if file.Skipped {
					skipped++
					fmt.Fprintf(cmd.OutOrStdout(), "%s: skipped\n", file.File)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: encoding=%s (%.2f) imported=%d errors=%d\n",
					file.File, file.Encoding, file.Confidence, file.Imported, file.Errors)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "total: imported=%d errors=%d skipped=%d\n",
				summary.Imported, summary.Errors, skipped)

			database.InvalidateStatsCache()
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.CleanSpecialChars, "clean-special-chars", false,
		"Replace special characters with textual equivalents before parsing")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Log each imported row")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Parse and merge in memory without writing to the database")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
