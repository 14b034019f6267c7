package main

import (
	"os"

	"parish_feeds/internal/config"
	"parish_feeds/internal/fetcher"
	"parish_feeds/internal/logger"

	"github.com/spf13/cobra"
)

var configPath string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "feeds",
		Short:        "Fetch parish XML feeds: news, blog, social, page, calendar and service times",
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.Init(os.Stderr)
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the JSON configuration file")

	cmd.AddCommand(
		newServeCmd(),
		newFetchCmd(),
	)
	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fetcherOptions(cfg *config.Config) []fetcher.Option {
	return []fetcher.Option{
		fetcher.WithTimeout(cfg.Timeout()),
		fetcher.WithUserAgent(cfg.HTTP.UserAgent),
	}
}
