package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/freeslot/internal/observability"
	"github.com/hrygo/freeslot/internal/profile"
	"github.com/hrygo/freeslot/server"
	"github.com/hrygo/freeslot/server/service/schedule"
	"github.com/hrygo/freeslot/store"
	"github.com/hrygo/freeslot/store/db"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// cli holds the configuration shared by every subcommand.
type cli struct {
	v *viper.Viper
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	c := &cli{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "freeslot",
		Short: "Find free time and plan recurring goals around your calendars",
		Long: `freeslot merges busy time from its own store and external ICS feeds,
then plans goal sessions, searches free slots, and builds recurrence rules.

Configuration comes from flags, FREESLOT_* environment variables (a .env file
is loaded when present) and an optional YAML config file, in that order.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.initConfig(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default ./freeslot.yaml or $HOME/.freeslot/freeslot.yaml)")
	flags.StringP("output", "o", "json", "output format: json or yaml")
	flags.String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	flags.String("data", "", "data directory")
	flags.String("driver", profile.DefaultDriver, "database driver: sqlite or postgres")
	flags.String("dsn", "", "database source name")
	flags.String("timezone", "UTC", "IANA timezone every civil date and time refers to")
	flags.String("now", "", "pin the current time (RFC 3339), for reproducible plans")

	rootCmd.AddCommand(
		newServeCommand(c),
		newPlanCommand(c),
		newApplyCommand(c),
		newSlotsCommand(c),
		newParseCommand(c),
		newRRuleCommand(c),
		newBusyCommand(c),
		newGoalCommand(c),
	)
	return rootCmd
}

func (c *cli) initConfig(cmd *cobra.Command) error {
	// A missing .env file is fine.
	_ = godotenv.Load()

	v := c.v
	v.SetEnvPrefix("FREESLOT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", profile.DefaultPort)
	v.SetDefault("horizon-days", profile.DefaultHorizonDays)
	v.SetDefault("slot-search-days", profile.DefaultSlotSearchDays)
	v.SetDefault("ics-sync-spec", profile.DefaultICSSyncSpec)
	v.SetDefault("busy-cache-ttl", profile.DefaultBusyCacheTTL)
	v.SetDefault("busy-cache-size", profile.DefaultBusyCacheSize)
	v.SetDefault("request-timeout", profile.DefaultRequestTimeout)
	v.SetDefault("rate-limit", profile.DefaultRateLimit)
	v.SetDefault("rate-burst", profile.DefaultRateBurst)
	v.SetDefault("log-level", profile.DefaultLogLevel)

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return errors.Wrap(err, "failed to bind flags")
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("freeslot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.freeslot")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return errors.Wrap(err, "failed to read config")
		}
	}

	logger := observability.NewLogger(cmd.ErrOrStderr(), v.GetString("mode"), v.GetString("log-level"))
	slog.SetDefault(logger)
	return nil
}

// profile builds and validates the server profile from the merged config.
func (c *cli) profile() (*profile.Profile, error) {
	v := c.v
	feeds, err := profile.ParseFeeds(v.GetString("ics-feeds"))
	if err != nil {
		return nil, err
	}
	p := &profile.Profile{
		Mode:           v.GetString("mode"),
		Addr:           v.GetString("addr"),
		Port:           v.GetInt("port"),
		Data:           v.GetString("data"),
		DSN:            v.GetString("dsn"),
		Driver:         v.GetString("driver"),
		Version:        version,
		Timezone:       v.GetString("timezone"),
		HorizonDays:    v.GetInt("horizon-days"),
		SlotSearchDays: v.GetInt("slot-search-days"),
		ICSFeeds:       feeds,
		ICSSyncSpec:    v.GetString("ics-sync-spec"),
		BusyCacheTTL:   v.GetDuration("busy-cache-ttl"),
		BusyCacheSize:  v.GetInt("busy-cache-size"),
		RequestTimeout: v.GetDuration("request-timeout"),
		RateLimit:      v.GetInt("rate-limit"),
		RateBurst:      v.GetInt("rate-burst"),
		LogLevel:       v.GetString("log-level"),
	}
	if err := p.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return p, nil
}

// openStore opens and migrates the store described by p.
func openStore(ctx context.Context, p *profile.Profile) (*store.Store, error) {
	driver, err := db.NewDBDriver(p)
	if err != nil {
		return nil, err
	}
	st := store.New(driver, p)
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, errors.Wrap(err, "failed to migrate")
	}
	return st, nil
}

// service opens a one-shot schedule service for CLI commands. The returned
// func closes the store.
func (c *cli) service(ctx context.Context) (schedule.Service, func(), error) {
	p, err := c.profile()
	if err != nil {
		return nil, nil, err
	}
	now, err := c.clock()
	if err != nil {
		return nil, nil, err
	}
	st, err := openStore(ctx, p)
	if err != nil {
		return nil, nil, err
	}

	var sources []schedule.BusySource
	if len(p.ICSFeeds) > 0 {
		sources = append(sources, server.NewFeedSource(p, nil))
	}
	svc := schedule.NewService(st, sources, schedule.Config{
		Location:       p.Location(),
		HorizonDays:    p.HorizonDays,
		SlotSearchDays: p.SlotSearchDays,
		RequestTimeout: p.RequestTimeout,
		CacheTTL:       p.BusyCacheTTL,
		CacheSize:      p.BusyCacheSize,
		Now:            now,
	})
	return svc, func() { st.Close() }, nil
}

// clock returns the --now override, or nil for the wall clock.
func (c *cli) clock() (func() time.Time, error) {
	raw := c.v.GetString("now")
	if raw == "" {
		return nil, nil
	}
	now, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid --now %q", raw)
	}
	return func() time.Time { return now }, nil
}
