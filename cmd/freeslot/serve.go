package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hrygo/freeslot/internal/profile"
	"github.com/hrygo/freeslot/server"
)

func newServeCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the ICS feed sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.profile()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			st, err := openStore(ctx, p)
			if err != nil {
				return err
			}
			defer st.Close()

			s, err := server.NewServer(ctx, p, st, slog.Default())
			if err != nil {
				return err
			}
			printGreetings(p)
			return s.Run(ctx)
		},
	}

	flags := cmd.Flags()
	flags.String("addr", "", "address of server")
	flags.Int("port", profile.DefaultPort, "port of server")
	flags.String("ics-feeds", "", "external calendars as comma-separated id=url pairs")
	flags.String("ics-sync-spec", profile.DefaultICSSyncSpec, "cron spec for refreshing ICS feeds")
	flags.Int("horizon-days", profile.DefaultHorizonDays, "default planning horizon in days")
	return cmd
}

func printGreetings(p *profile.Profile) {
	slog.Info("freeslot started",
		slog.String("version", p.Version),
		slog.String("mode", p.Mode),
		slog.String("driver", p.Driver),
		slog.String("timezone", p.Timezone),
		slog.Int("ics_feeds", len(p.ICSFeeds)),
	)
}
