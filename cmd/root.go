package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"knavi-crawler/internal/logging"
	"knavi-crawler/pkg/config"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knavi-crawler",
		Short: "A headless-browser crawler for journal navigation pages.",
		Long: `knavi-crawler drives a headless browser against a JavaScript-rendered
journal navigation site and extracts article metadata for a given
publication year and one or more issue numbers. Abstracts, keywords, DOIs,
and funding information can optionally be gathered from each article's
detail page.`,
	}

	cobra.OnInitialize(func() { config.InitConfig(cfgFile) })

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	cmd.AddCommand(newCrawlCmd())

	return cmd
}

// Execute is the main entry point. An operator interrupt cancels the
// command context; the crawl command treats that as a clean stop.
func Execute() {
	logging.InitLogger(false)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logging.L.Fatal("Command execution failed", zap.Error(err))
	}
}
