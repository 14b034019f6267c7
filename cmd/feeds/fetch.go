package main

import (
	"fmt"

	"parish_feeds/internal/feeds"
	"parish_feeds/internal/fetcher"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newFetchCmd() *cobra.Command {
	var (
		params feeds.Params
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:       "fetch <news|blog|social|page|calendar|servicetimes>",
		Short:     "Fetch one feed and print its XML to stdout",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"news", "blog", "social", "page", "calendar", "servicetimes"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := feeds.ParseKind(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return errors.Wrap(err, "load config")
			}

			client := feeds.NewClient(fetcher.New(fetcherOptions(cfg)...), cfg.Endpoints)
			if dryRun {
				u, err := client.URL(kind, params)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), u)
				return nil
			}

			res := client.Get(cmd.Context(), kind, params, nil, nil)
			if !res.OK() {
				return errors.New(res.Message())
			}
			_, err = cmd.OutOrStdout().Write(res.Doc.Raw)
			return err
		},
	}

	cmd.Flags().StringVarP(&params.Format, "format", "f", "", "feed format (news: rss|rss2|atom, blog: rss|atom, social: rss|xml)")
	cmd.Flags().IntVarP(&params.Count, "count", "n", 0, "number of social posts (default 8)")
	cmd.Flags().IntVarP(&params.Days, "days", "d", 0, "number of calendar days (default 14)")
	cmd.Flags().BoolVar(&params.Caching, "caching", false, "allow cached service times (no cache-buster)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the feed URL without fetching it")
	return cmd
}
