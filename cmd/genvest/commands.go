package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/bobmcallan/genvest-portal/internal/client"
	"github.com/bobmcallan/genvest-portal/internal/common"
	"github.com/bobmcallan/genvest-portal/internal/config"
	"github.com/bobmcallan/genvest-portal/internal/form"
	"github.com/bobmcallan/genvest-portal/internal/models"
	"github.com/bobmcallan/genvest-portal/internal/viewer"
	"github.com/spf13/cobra"
)

// cli holds what every subcommand needs once flags are parsed.
type cli struct {
	cfg    *config.Config
	logger *common.Logger
	client *client.GenVestClient
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "genvest",
		Short: "GenVest: AI-powered investment reports from the command line",
		Long: `GenVest generates AI investment reports for a stock ticker using the
GenVest report service: market snapshot, price forecast, news summary,
SWOT analysis and a recommendation.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			files, _ := cmd.Flags().GetStringSlice("config")
			cfg, err := config.LoadFromFiles(files...)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if apiURL, _ := cmd.Flags().GetString("api-url"); apiURL != "" {
				cfg.API.URL = strings.TrimRight(apiURL, "/")
			}
			if level, _ := cmd.Flags().GetString("log-level"); level != "" {
				cfg.Logging.Level = level
			}

			c.cfg = cfg
			c.logger = common.NewLoggerWithOutput(cfg.Logging.Level, cmd.ErrOrStderr())
			c.client = client.NewGenVestClient(cfg.API.URL, cfg.API.GetTimeout())
			return nil
		},
	}

	root.PersistentFlags().StringSlice("config", nil, "config file path (repeatable)")
	root.PersistentFlags().String("api-url", "", "report service base URL (overrides config)")
	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newReportCmd(c), newSearchCmd(c), newVersionCmd())
	return root
}

// --- Report Command ---

func newReportCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [ticker]",
		Short: "Generate an investment report for a ticker",
		Long: `Generate an investment report for a ticker and print it.

Keys default to the OPENAI_API_KEY and SERPER_API_KEY environment variables.

Examples:
  genvest report AAPL
  genvest report TSLA --pdf tesla.pdf
  genvest report MSFT --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			openaiKey, _ := cmd.Flags().GetString("openai-key")
			serperKey, _ := cmd.Flags().GetString("serper-key")
			pdfPath, _ := cmd.Flags().GetString("pdf")
			asJSON, _ := cmd.Flags().GetBool("json")

			creds := models.Credentials{
				Ticker:    strings.TrimSpace(args[0]),
				OpenAIKey: firstNonEmpty(openaiKey, os.Getenv("OPENAI_API_KEY")),
				SerperKey: firstNonEmpty(serperKey, os.Getenv("SERPER_API_KEY")),
			}
			if err := form.Validate(creds); err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "⏳ Training model for %s...\n", strings.ToUpper(creds.Ticker))

			report, err := c.client.GenerateReport(cmd.Context(), creds)
			if err != nil {
				c.logger.Error().Str("ticker", creds.Ticker).Err(err).Msg("Error generating report")
				return fmt.Errorf("failed to generate report for %s", strings.ToUpper(creds.Ticker))
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else if err := viewer.WriteText(out, viewer.Render(report)); err != nil {
				return err
			}

			if pdfPath == "" {
				return nil
			}
			pdf, err := c.client.DownloadPDF(cmd.Context(), report)
			if err != nil {
				c.logger.Error().Err(err).Msg("Error downloading PDF")
				return fmt.Errorf("failed to download PDF")
			}
			if err := os.WriteFile(pdfPath, pdf, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", pdfPath, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "📥 PDF saved to %s\n", pdfPath)
			return nil
		},
	}

	cmd.Flags().String("openai-key", "", "OpenAI API key (default $OPENAI_API_KEY)")
	cmd.Flags().String("serper-key", "", "Serper API key (default $SERPER_API_KEY)")
	cmd.Flags().String("pdf", "", "also save the report as a PDF to this file")
	cmd.Flags().Bool("json", false, "print the raw report JSON instead of text")
	return cmd
}

// --- Search Command ---

func newSearchCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Find tickers by company name or partial symbol",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if len([]rune(query)) < form.MinQueryLength {
				return fmt.Errorf("query must be at least %d characters", form.MinQueryLength)
			}

			results, err := c.client.SearchTickers(cmd.Context(), query)
			if err != nil {
				c.logger.Warn().Str("query", query).Err(err).Msg("Ticker search failed")
				return fmt.Errorf("ticker search failed")
			}

			out := cmd.OutOrStdout()
			results = form.Top(results)
			if len(results) == 0 {
				fmt.Fprintln(out, "No matching tickers.")
				return nil
			}
			for _, s := range results {
				fmt.Fprintf(out, "%-8s %s\n", s.Symbol, s.Name)
			}
			return nil
		},
	}
}

// --- Version Command ---

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// Skip config loading.
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "genvest %s\n", config.GetVersion())
			fmt.Fprintf(out, "  commit:  %s\n", config.GetGitCommit())
			fmt.Fprintf(out, "  built:   %s\n", config.GetBuild())
		},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
