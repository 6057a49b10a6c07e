// Package config initializes the application's configuration. It uses the
// Viper library to read settings from a config file, environment variables,
// and command-line flags, providing a unified configuration system.
package config

import (
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"knavi-crawler/internal/logging"
)

// InitConfig initializes the application's configuration using Viper. It
// sets up default values, defines configuration search paths, and enables
// reading from environment variables. Designed to be called once at
// startup. An explicit cfgFile bypasses the search paths.
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/knavi-crawler/")
		viper.AddConfigPath("$HOME/.knavi-crawler")
	}

	// The journal site serves a degraded page to unknown agents, so the
	// default impersonates a desktop Chrome build.
	const defaultUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	viper.SetDefault("crawler.user_agent", defaultUA)
	viper.SetDefault("crawler.details", true)
	viper.SetDefault("crawler.no_details", false)
	viper.SetDefault("crawler.headless", true)
	viper.SetDefault("crawler.no_headless", false)
	viper.SetDefault("crawler.timeout_ms", 30000)
	viper.SetDefault("crawler.output", "results.json")
	viper.SetDefault("crawler.wait_attempts", 10)
	viper.SetDefault("crawler.wait_interval", "1s")
	viper.SetDefault("crawler.year_settle_delay", "500ms")
	viper.SetDefault("crawler.issue_settle_delay", "1s")

	viper.SetDefault("details.engine", "browser")
	viper.SetDefault("details.delay", "300ms")

	viper.SetEnvPrefix("KNAVI") // e.g. KNAVI_CRAWLER_TIMEOUT_MS=60000
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logging.L.Debug("Config file not found; using defaults, flags, and environment variables.")
		} else {
			logging.L.Error("Error reading config file", zap.Error(err))
		}
	} else {
		logging.L.Info("Using config file", zap.String("path", viper.ConfigFileUsed()))
	}
}
