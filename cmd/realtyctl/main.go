package main

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zaqqye/realty_backend/internal/config"
	"github.com/zaqqye/realty_backend/internal/database"
	"github.com/zaqqye/realty_backend/internal/feeds"
	"github.com/zaqqye/realty_backend/internal/logging"
	"github.com/zaqqye/realty_backend/internal/repliers"
	"github.com/zaqqye/realty_backend/internal/routes"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "realtyctl",
		Short:        "Operational commands for the realty backend",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			a.cfg = config.Load()
			logger, err := logging.New(a.cfg.LogLevel, a.cfg.LogFormat)
			if err != nil {
				return err
			}
			a.log = logger
			return nil
		},
	}
	root.AddCommand(a.migrateCmd(), a.seedCmd(), a.feedCmd())
	return root
}

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Connect(a.cfg)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			a.log.Info("migrations applied")
			return nil
		},
	}
}

func (a *app) seedCmd() *cobra.Command {
	var skipAdmin bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Migrate, then insert the admin account and starter content",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Connect(a.cfg)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if !skipAdmin {
				if err := database.SeedAdmin(db, a.cfg, a.log); err != nil {
					return fmt.Errorf("seed admin: %w", err)
				}
			}
			return database.SeedDefaults(db, a.log)
		},
	}
	cmd.Flags().BoolVar(&skipAdmin, "skip-admin", false, "do not create the ADMIN_EMAIL account")
	return cmd
}

func (a *app) feedCmd() *cobra.Command {
	var (
		out      string
		maxPages int
		filters  []string
	)
	cmd := &cobra.Command{
		Use:       "feed {google|facebook|pages}",
		Short:     "Render an ad feed from live MLS listings",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{feeds.KindGoogle, feeds.KindFacebook, feeds.KindPages},
		RunE: func(cmd *cobra.Command, args []string) error {
			if maxPages <= 0 {
				maxPages = a.cfg.FeedPages()
			}
			params, err := parseFilters(filters)
			if err != nil {
				return err
			}
			client := repliers.NewClient(a.cfg.RepliersAPIURL, a.cfg.RepliersAPIKey)
			pager := feeds.NewPager(client, routes.PropertyOptions(a.cfg), maxPages)
			props, err := pager.All(cmd.Context(), params)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				bw := bufio.NewWriter(f)
				defer bw.Flush()
				w = bw
			}
			if err := feeds.Write(w, args[0], props, routes.FeedSite(a.cfg)); err != nil {
				return err
			}
			a.log.Info("feed written", zap.String("kind", args[0]), zap.Int("listings", len(props)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "page cap (default FEED_MAX_PAGES)")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "MLS search filter as key=value, repeatable")
	return cmd
}

func parseFilters(filters []string) (url.Values, error) {
	params := url.Values{}
	for _, f := range filters {
		k, v, ok := strings.Cut(f, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("filter %q must be key=value", f)
		}
		k = strings.TrimSpace(k)
		params.Add(k, strings.TrimSpace(v))
	}
	return params, nil
}
