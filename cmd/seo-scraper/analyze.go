package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	scraper "github.com/flavioespinoza/seo-scraper"
	"github.com/flavioespinoza/seo-scraper/analyzer"
	"github.com/flavioespinoza/seo-scraper/db"
	"github.com/flavioespinoza/seo-scraper/export"
	"github.com/flavioespinoza/seo-scraper/feedback"
)

func newAnalyzeCmd(v *viper.Viper) *cobra.Command {
	var (
		formatName string
		output     string
		preview    bool
		noSave     bool
	)

	cmd := &cobra.Command{
		Use:   "analyze URL",
		Short: "Analyze one page and print the report",
		Long: `Analyze fetches URL, validates its SEO metadata and prints a report.
With --preview the language model, snapshot storage and database are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}

			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}

			var out io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			ctx := cmd.Context()
			var detector *analyzer.LanguageDetector
			if cfg.DetectLanguage {
				detector = analyzer.NewLanguageDetector()
			}
			s := scraper.New(cfg.scraperConfig())

			if preview {
				a := analyzer.New(s, nil, nil, analyzer.Options{Detector: detector})
				result, err := a.Preview(ctx, args[0])
				if err != nil {
					return err
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			opts := analyzer.Options{Detector: detector}
			var saver analyzer.ReportSaver
			if !noSave {
				database, err := db.New(cfg.dbConfig())
				if err != nil {
					return fmt.Errorf("failed to initialize database: %w", err)
				}
				defer database.Close()
				saver = database

				store, err := cfg.openStore(ctx)
				if err != nil {
					return fmt.Errorf("failed to initialize storage: %w", err)
				}
				opts.Store = store
			}

			a := analyzer.New(s, feedback.NewClient(cfg.feedbackConfig()), saver, opts)
			report, err := a.Analyze(ctx, args[0])
			if err != nil {
				return err
			}
			return export.WriteReport(out, report, format)
		},
	}

	cmd.Flags().StringVarP(&formatName, "format", "f", "markdown", "Output format: markdown, json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&preview, "preview", false, "Skip feedback, snapshot and persistence; print metadata, validation and tags as JSON")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Do not store the report or snapshot")

	return cmd
}
