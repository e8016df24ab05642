// Package config loads the service configuration from an optional YAML file
// and SNIPER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"solana-sniper-core/internal/domain"
	"solana-sniper-core/internal/filter"
	"solana-sniper-core/internal/scanner"
)

// EnvPrefix is prepended to every environment override, e.g.
// SNIPER_FILTER_MIN_LIQUIDITY.
const EnvPrefix = "SNIPER"

type Config struct {
	Log     LogConfig             `mapstructure:"log"`
	Server  ServerConfig          `mapstructure:"server"`
	Metrics MetricsConfig         `mapstructure:"metrics"`
	Feed    FeedConfig            `mapstructure:"feed"`
	Scanner ScannerConfig         `mapstructure:"scanner"`
	Filter  domain.FilterSettings `mapstructure:"filter"`
	Ledger  LedgerConfig          `mapstructure:"ledger"`
	Storage StorageConfig         `mapstructure:"storage"`
	Cron    CronConfig            `mapstructure:"cron"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type ServerConfig struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type FeedConfig struct {
	URL              string        `mapstructure:"url"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	BatchURL         string        `mapstructure:"batch_url"`
	BatchTimeout     time.Duration `mapstructure:"batch_timeout"`
	RestartMin       time.Duration `mapstructure:"restart_min"`
	RestartMax       time.Duration `mapstructure:"restart_max"`
	// RestartMaxElapsed gives up after this long without a healthy run. Zero never gives up.
	RestartMaxElapsed time.Duration `mapstructure:"restart_max_elapsed"`
	HealthyAfter      time.Duration `mapstructure:"healthy_after"`
}

// ScannerConfig carries the scanner settings plus process-level knobs.
type ScannerConfig struct {
	AutoStart bool             `mapstructure:"auto_start"`
	Capacity  int              `mapstructure:"capacity"`
	Settings  scanner.Settings `mapstructure:",squash"`
}

type LedgerConfig struct {
	// Location is an IANA zone name used for day keys and export timestamps.
	Location         string `mapstructure:"location"`
	DedupBySignature bool   `mapstructure:"dedup_by_signature"`
}

type StorageConfig struct {
	UseMemory        bool          `mapstructure:"use_memory"`
	PostgresDSN      string        `mapstructure:"postgres_dsn"`
	PostgresMaxConns int32         `mapstructure:"postgres_max_conns"`
	PostgresConnLife time.Duration `mapstructure:"postgres_conn_lifetime"`
	ClickhouseDSN    string        `mapstructure:"clickhouse_dsn"`
	RunMigrations    bool          `mapstructure:"run_migrations"`
}

type CronConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	DailyStatsFlush string `mapstructure:"daily_stats_flush"`
}

// Load reads path (unless envOnly or path is empty), applies SNIPER_*
// environment overrides and validates the result.
func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if !envOnly && path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", false)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)

	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("feed.url", "wss://pumpportal.fun/api/data")
	v.SetDefault("feed.handshake_timeout", "10s")
	v.SetDefault("feed.write_timeout", "10s")
	v.SetDefault("feed.read_timeout", "0s")
	v.SetDefault("feed.batch_url", "https://pump.fun/api/tokens")
	v.SetDefault("feed.batch_timeout", "10s")
	v.SetDefault("feed.restart_min", "1s")
	v.SetDefault("feed.restart_max", "30s")
	v.SetDefault("feed.restart_max_elapsed", "0s")
	v.SetDefault("feed.healthy_after", "1m")

	sc := scanner.DefaultSettings()
	v.SetDefault("scanner.auto_start", false)
	v.SetDefault("scanner.capacity", domain.OpportunityCapacity)
	v.SetDefault("scanner.sources", sc.Sources)
	v.SetDefault("scanner.min_liquidity", sc.MinLiquidity)
	v.SetDefault("scanner.min_holders", sc.MinHolders)
	v.SetDefault("scanner.max_buy_tax", sc.MaxBuyTax)
	v.SetDefault("scanner.max_sell_tax", sc.MaxSellTax)
	v.SetDefault("scanner.require_lp_lock", sc.RequireLPLock)
	v.SetDefault("scanner.min_score", sc.MinScore)
	v.SetDefault("scanner.scan_interval_ms", sc.ScanIntervalMs)

	fs := domain.DefaultFilterSettings()
	v.SetDefault("filter.min_liquidity", fs.MinLiquidity)
	v.SetDefault("filter.min_holders", fs.MinHolders)
	v.SetDefault("filter.max_buy_tax", fs.MaxBuyTax)
	v.SetDefault("filter.max_sell_tax", fs.MaxSellTax)
	v.SetDefault("filter.require_lp_lock", fs.RequireLPLock)
	v.SetDefault("filter.min_lp_lock_days", fs.MinLPLockDays)
	v.SetDefault("filter.min_token_age_minutes", fs.MinTokenAgeMinutes)
	v.SetDefault("filter.max_similar_tokens", fs.MaxSimilarTokens)
	v.SetDefault("filter.blacklisted_creators", fs.BlacklistedCreators)
	v.SetDefault("filter.min_score", fs.MinScore)

	v.SetDefault("ledger.location", "UTC")
	v.SetDefault("ledger.dedup_by_signature", false)

	v.SetDefault("storage.use_memory", true)
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.postgres_max_conns", 10)
	v.SetDefault("storage.postgres_conn_lifetime", "30m")
	v.SetDefault("storage.clickhouse_dsn", "")
	v.SetDefault("storage.run_migrations", true)

	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.daily_stats_flush", "0 */5 * * * *")
}

// Validate checks cross-field constraints that decoding cannot express.
func (c Config) Validate() error {
	var errs []error
	if err := c.Scanner.Settings.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("scanner: %w", err))
	}
	if c.Scanner.Capacity <= 0 {
		errs = append(errs, errors.New("scanner: capacity must be > 0"))
	}
	if err := filter.ValidateSettings(c.Filter); err != nil {
		errs = append(errs, fmt.Errorf("filter: %w", err))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("ledger: %w", err))
	}
	if !c.Storage.UseMemory && c.Storage.PostgresDSN == "" {
		errs = append(errs, errors.New("storage: postgres_dsn is required unless use_memory is set"))
	}
	if c.Feed.RestartMin > c.Feed.RestartMax {
		errs = append(errs, errors.New("feed: restart_min must not exceed restart_max"))
	}
	return errors.Join(errs...)
}

// FilterSettings returns a copy of the configured filter policy.
func (c Config) FilterSettings() domain.FilterSettings {
	return c.Filter.Clone()
}

// ScannerSettings returns a copy of the configured scanner settings.
func (c Config) ScannerSettings() scanner.Settings {
	return c.Scanner.Settings.Clone()
}

// Location resolves the ledger time zone.
func (c Config) Location() (*time.Location, error) {
	name := c.Ledger.Location
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", name, err)
	}
	return loc, nil
}
