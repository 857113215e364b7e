package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/freeslot/server/timezone"
)

// EnvPrefix prefixes every environment variable the profile reads.
const EnvPrefix = "FREESLOT_"

// Defaults.
const (
	DefaultPort           = 8081
	DefaultDriver         = "sqlite"
	DefaultHorizonDays    = 28
	DefaultSlotSearchDays = 7
	DefaultICSSyncSpec    = "@every 15m"
	DefaultBusyCacheTTL   = 5 * time.Minute
	DefaultBusyCacheSize  = 256
	DefaultRequestTimeout = 10 * time.Second
	DefaultRateLimit      = 10
	DefaultRateBurst      = 20
	DefaultLogLevel       = "info"
)

// Feed is one external ICS calendar whose events count as busy time.
type Feed struct {
	ID  string
	URL string
}

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where freeslot stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string

	// Timezone is the IANA zone every civil date and HH:MM refers to.
	Timezone       string
	HorizonDays    int
	SlotSearchDays int

	ICSFeeds    []Feed
	ICSSyncSpec string // robfig/cron spec

	BusyCacheTTL   time.Duration
	BusyCacheSize  int
	RequestTimeout time.Duration

	RateLimit int // requests per second per client
	RateBurst int

	LogLevel string
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// Location returns the configured timezone, UTC when it does not parse.
func (p *Profile) Location() *time.Location {
	loc, _ := timezone.ParseTimezone(p.Timezone)
	return loc
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if n, err := strconv.Atoi(getEnvOrDefault(key, "")); err == nil {
		return n
	}
	return defaultValue
}

func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnvOrDefault(key, "")); err == nil {
		return d
	}
	return defaultValue
}

// FromEnv loads configuration from FREESLOT_* environment variables.
// Unset or malformed values keep their defaults.
func (p *Profile) FromEnv() {
	p.Mode = getEnvOrDefault("MODE", "dev")
	p.Addr = getEnvOrDefault("ADDR", "")
	p.Port = getIntEnvOrDefault("PORT", DefaultPort)
	p.Data = getEnvOrDefault("DATA", "")
	p.Driver = getEnvOrDefault("DRIVER", DefaultDriver)
	p.DSN = getEnvOrDefault("DSN", "")

	p.Timezone = getEnvOrDefault("TIMEZONE", timezone.TimezoneUTC)
	p.HorizonDays = getIntEnvOrDefault("HORIZON_DAYS", DefaultHorizonDays)
	p.SlotSearchDays = getIntEnvOrDefault("SLOT_SEARCH_DAYS", DefaultSlotSearchDays)

	p.ICSFeeds, _ = ParseFeeds(getEnvOrDefault("ICS_FEEDS", ""))
	p.ICSSyncSpec = getEnvOrDefault("ICS_SYNC_SPEC", DefaultICSSyncSpec)

	p.BusyCacheTTL = getDurationEnvOrDefault("BUSY_CACHE_TTL", DefaultBusyCacheTTL)
	p.BusyCacheSize = getIntEnvOrDefault("BUSY_CACHE_SIZE", DefaultBusyCacheSize)
	p.RequestTimeout = getDurationEnvOrDefault("REQUEST_TIMEOUT", DefaultRequestTimeout)

	p.RateLimit = getIntEnvOrDefault("RATE_LIMIT", DefaultRateLimit)
	p.RateBurst = getIntEnvOrDefault("RATE_BURST", DefaultRateBurst)
	p.LogLevel = getEnvOrDefault("LOG_LEVEL", DefaultLogLevel)
}

// ParseFeeds parses a comma-separated list of id=url pairs.
func ParseFeeds(s string) ([]Feed, error) {
	var feeds []Feed
	seen := make(map[string]bool)
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		id, url, ok := strings.Cut(item, "=")
		id, url = strings.TrimSpace(id), strings.TrimSpace(url)
		if !ok || id == "" || url == "" {
			return nil, errors.Errorf("invalid ics feed %q, want id=url", item)
		}
		if seen[id] {
			return nil, errors.Errorf("duplicate ics feed id %q", id)
		}
		seen[id] = true
		feeds = append(feeds, Feed{ID: id, URL: url})
	}
	return feeds, nil
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) applyDefaults() {
	if p.Port == 0 {
		p.Port = DefaultPort
	}
	if p.Driver == "" {
		p.Driver = DefaultDriver
	}
	if p.Timezone == "" {
		p.Timezone = timezone.TimezoneUTC
	}
	if p.SlotSearchDays <= 0 {
		p.SlotSearchDays = DefaultSlotSearchDays
	}
	if p.ICSSyncSpec == "" {
		p.ICSSyncSpec = DefaultICSSyncSpec
	}
	if p.BusyCacheTTL <= 0 {
		p.BusyCacheTTL = DefaultBusyCacheTTL
	}
	if p.BusyCacheSize <= 0 {
		p.BusyCacheSize = DefaultBusyCacheSize
	}
	if p.RequestTimeout <= 0 {
		p.RequestTimeout = DefaultRequestTimeout
	}
	if p.RateLimit <= 0 {
		p.RateLimit = DefaultRateLimit
	}
	if p.RateBurst <= 0 {
		p.RateBurst = DefaultRateBurst
	}
	if p.LogLevel == "" {
		p.LogLevel = DefaultLogLevel
	}
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	p.applyDefaults()

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported driver %q", p.Driver)
	}
	if !timezone.IsValidTimezone(p.Timezone) {
		return errors.Errorf("invalid timezone %q", p.Timezone)
	}
	if p.HorizonDays <= 0 {
		return errors.Errorf("horizon days must be positive, got %d", p.HorizonDays)
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "freeslot")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/freeslot"
		}
	}
	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check dsn", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("freeslot_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	return nil
}
