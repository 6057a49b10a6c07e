// Package cmd defines and implements the CLI commands for the knavi-crawler
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"knavi-crawler/internal/logging"
	"knavi-crawler/internal/spider"
)

// newCrawlCmd creates and configures the 'crawl' subcommand.
func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawls one or more journal issues for a given year",
		Long: `Navigates to the journal index, expands the requested year, and walks the
requested issues in ascending order, extracting one record per article.
Issue specs may be a single number ("6"), a range ("1-3"), a discrete list
("1,5,7"), or a mix ("1-3,5,7-9").`,
		RunE: runCrawlCommand,
	}

	flags := cmd.Flags()
	flags.StringP("url", "u", "", "journal navigation page URL")
	flags.IntP("year", "y", 0, "publication year to crawl")
	flags.StringP("issue", "i", "", "issue spec, e.g. \"6\", \"1-3\", \"1,5,7\", \"1-3,5,7-9\"")
	flags.BoolP("details", "d", true, "fetch abstract, keywords, DOI, and fund info per paper")
	flags.Bool("no-details", false, "skip per-paper detail pages")
	flags.Bool("no-headless", false, "show the browser window")
	flags.IntP("timeout", "t", 30000, "page load timeout in milliseconds")
	flags.StringP("output", "o", "results.json", "output file path")

	_ = viper.BindPFlag("crawler.url", flags.Lookup("url"))
	_ = viper.BindPFlag("crawler.year", flags.Lookup("year"))
	_ = viper.BindPFlag("crawler.issue", flags.Lookup("issue"))
	_ = viper.BindPFlag("crawler.details", flags.Lookup("details"))
	_ = viper.BindPFlag("crawler.no_details", flags.Lookup("no-details"))
	_ = viper.BindPFlag("crawler.no_headless", flags.Lookup("no-headless"))
	_ = viper.BindPFlag("crawler.timeout_ms", flags.Lookup("timeout"))
	_ = viper.BindPFlag("crawler.output", flags.Lookup("output"))

	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("issue")

	return cmd
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	logger := logging.L

	// Config (and the issue spec inside it) must be valid before any
	// browser resource is acquired.
	cfg, err := spider.LoadConfig(viper.GetViper())
	if err != nil {
		return fmt.Errorf("load crawler config: %w", err)
	}
	logger.Info("Resolved issue spec",
		zap.String("spec", viper.GetString("crawler.issue")), zap.Ints("issues", cfg.Issues))

	browser, err := spider.NewChromedpBrowser(cfg, logger)
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer browser.Close()

	engine := spider.New(cfg, browser, buildDetailFetcher(cfg, browser, logger), logger)

	session, err := runCrawl(cmd.Context(), engine, cfg)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("Crawl interrupted by operator")
			return nil
		}
		return fmt.Errorf("run crawl: %w", err)
	}

	if len(session.Papers) == 0 {
		logger.Warn("No papers found")
		return nil
	}

	spider.LogResults(logger, session.Papers)
	if err := spider.NewResultSink(cfg.OutputPath, logger).Save(session.Papers); err != nil {
		return fmt.Errorf("save results: %w", err)
	}
	logger.Info("Crawl finished", zap.Int("papers", len(session.Papers)))
	return nil
}

func runCrawl(ctx context.Context, engine *spider.Spider, cfg spider.Config) (*spider.Session, error) {
	if len(cfg.Issues) == 1 {
		return engine.Run(ctx, cfg.Issues[0])
	}
	return engine.RunAll(ctx)
}

func buildDetailFetcher(cfg spider.Config, browser spider.Browser, logger *zap.Logger) spider.DetailFetcher {
	if !cfg.GetDetails {
		return nil
	}
	if cfg.DetailEngine == spider.DetailEngineStatic {
		return spider.NewStaticDetailFetcher(cfg, logger)
	}
	return spider.NewBrowserDetailFetcher(browser, logger)
}
