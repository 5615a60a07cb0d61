package main

import (
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	scraper "github.com/flavioespinoza/seo-scraper"
	"github.com/flavioespinoza/seo-scraper/analyzer"
	"github.com/flavioespinoza/seo-scraper/mcpserver"
)

func newMCPCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve SEO inspection tools over MCP on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}

			var detector *analyzer.LanguageDetector
			if cfg.DetectLanguage {
				detector = analyzer.NewLanguageDetector()
			}
			a := analyzer.New(scraper.New(cfg.scraperConfig()), nil, nil, analyzer.Options{Detector: detector})

			srv := mcpserver.NewServer(version, a)
			slog.Info("mcp server starting on stdio")
			return srv.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
