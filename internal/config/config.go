// Package config loads ~/.freepackages/config.toml and FP_* environment
// overrides into a typed Config.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".freepackages"
	envPrefix  = "FP"

	BackendTOML   = "toml"
	BackendBadger = "badger"
)

const (
	keySessionsPath      = "sessions.path"
	keyStateDir          = "state.dir"
	keyStateBackend      = "state.backend"
	keyCredentialsDir    = "credentials.dir"
	keyCatalogBaseURL    = "catalog.base_url"
	keyCatalogCredential = "catalog.credential_ref"
	keyCatalogBatchSize  = "catalog.batch_size"
	keyCatalogRPS        = "catalog.requests_per_second"
	keyAccountBaseURL    = "account.base_url"
	keyReadyTimeout      = "pipeline.ready_timeout"
	keyReadyPoll         = "pipeline.ready_poll"
	keyRefreshInterval   = "refresh.interval"
	keyRefreshRetry      = "refresh.retry_interval"
	keyChangesInterval   = "changes.interval"
	keyLogLevel          = "log.level"
	keyLogFormat         = "log.format"
	keyMetricsAddr       = "metrics.addr"
)

type Config struct {
	SessionsPath   string
	StateDir       string
	StateBackend   string
	CredentialsDir string
	Catalog        CatalogConfig
	Account        AccountConfig
	Pipeline       PipelineConfig
	Refresh        RefreshConfig
	Changes        ChangesConfig
	Log            LogConfig
	MetricsAddr    string
}

type CatalogConfig struct {
	BaseURL           string
	CredentialRef     string
	BatchSize         int
	RequestsPerSecond float64
}

type AccountConfig struct {
	BaseURL string
}

type PipelineConfig struct {
	// ReadyTimeout bounds the readiness barrier; zero waits indefinitely.
	ReadyTimeout time.Duration
	ReadyPoll    time.Duration
}

type RefreshConfig struct {
	Interval      time.Duration
	RetryInterval time.Duration
}

type ChangesConfig struct {
	Interval time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads the config file under homeDir (if any) into cfg and returns
// the resolved values.
func Load(cfg *viper.Viper, homeDir string) (Config, error) {
	if cfg == nil {
		cfg = viper.New()
	}
	if homeDir == "" {
		return Config{}, errors.New("home directory is empty")
	}

	baseDir := filepath.Join(homeDir, configDir)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(baseDir)
	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()
	setDefaults(cfg, baseDir)

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	out := Config{
		SessionsPath:   cfg.GetString(keySessionsPath),
		StateDir:       cfg.GetString(keyStateDir),
		StateBackend:   strings.ToLower(strings.TrimSpace(cfg.GetString(keyStateBackend))),
		CredentialsDir: cfg.GetString(keyCredentialsDir),
		Catalog: CatalogConfig{
			BaseURL:           cfg.GetString(keyCatalogBaseURL),
			CredentialRef:     cfg.GetString(keyCatalogCredential),
			BatchSize:         cfg.GetInt(keyCatalogBatchSize),
			RequestsPerSecond: cfg.GetFloat64(keyCatalogRPS),
		},
		Account: AccountConfig{
			BaseURL: cfg.GetString(keyAccountBaseURL),
		},
		Pipeline: PipelineConfig{
			ReadyTimeout: cfg.GetDuration(keyReadyTimeout),
			ReadyPoll:    cfg.GetDuration(keyReadyPoll),
		},
		Refresh: RefreshConfig{
			Interval:      cfg.GetDuration(keyRefreshInterval),
			RetryInterval: cfg.GetDuration(keyRefreshRetry),
		},
		Changes: ChangesConfig{
			Interval: cfg.GetDuration(keyChangesInterval),
		},
		Log: LogConfig{
			Level:  cfg.GetString(keyLogLevel),
			Format: cfg.GetString(keyLogFormat),
		},
		MetricsAddr: cfg.GetString(keyMetricsAddr),
	}

	if err := out.normalizePaths(); err != nil {
		return Config{}, err
	}
	if err := out.Validate(); err != nil {
		return Config{}, err
	}

	return out, nil
}

func setDefaults(cfg *viper.Viper, baseDir string) {
	cfg.SetDefault(keySessionsPath, filepath.Join(baseDir, "sessions.toml"))
	cfg.SetDefault(keyStateDir, filepath.Join(baseDir, "state"))
	cfg.SetDefault(keyStateBackend, BackendTOML)
	cfg.SetDefault(keyCredentialsDir, filepath.Join(baseDir, "credentials"))
	cfg.SetDefault(keyCatalogBaseURL, "https://catalog.example.invalid/api")
	cfg.SetDefault(keyCatalogCredential, "")
	cfg.SetDefault(keyCatalogBatchSize, 255)
	cfg.SetDefault(keyCatalogRPS, 2.0)
	cfg.SetDefault(keyAccountBaseURL, "https://store.example.invalid/api")
	cfg.SetDefault(keyReadyTimeout, 120*time.Second)
	cfg.SetDefault(keyReadyPoll, time.Second)
	cfg.SetDefault(keyRefreshInterval, 15*time.Minute)
	cfg.SetDefault(keyRefreshRetry, time.Minute)
	cfg.SetDefault(keyChangesInterval, 5*time.Minute)
	cfg.SetDefault(keyLogLevel, "info")
	cfg.SetDefault(keyLogFormat, "console")
	cfg.SetDefault(keyMetricsAddr, "")
}

func (c *Config) normalizePaths() error {
	for _, p := range []*string{&c.SessionsPath, &c.StateDir, &c.CredentialsDir} {
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return fmt.Errorf("resolve path %q: %w", *p, err)
		}
		*p = filepath.Clean(abs)
	}
	return nil
}

func (c Config) Validate() error {
	if c.SessionsPath == "" {
		return errors.New("sessions path is empty")
	}
	if c.StateDir == "" {
		return errors.New("state dir is empty")
	}
	switch c.StateBackend {
	case BackendTOML, BackendBadger:
	default:
		return fmt.Errorf("unsupported state backend %q", c.StateBackend)
	}
	if c.Catalog.BatchSize <= 0 {
		return fmt.Errorf("catalog batch size must be positive, got %d", c.Catalog.BatchSize)
	}
	if c.Catalog.RequestsPerSecond <= 0 {
		return fmt.Errorf("catalog requests per second must be positive, got %v", c.Catalog.RequestsPerSecond)
	}
	if c.Pipeline.ReadyTimeout < 0 {
		return errors.New("pipeline ready timeout must not be negative")
	}
	if c.Pipeline.ReadyPoll <= 0 {
		return errors.New("pipeline ready poll must be positive")
	}
	if c.Refresh.Interval <= 0 || c.Refresh.RetryInterval <= 0 {
		return errors.New("refresh intervals must be positive")
	}
	if c.Changes.Interval <= 0 {
		return errors.New("changes interval must be positive")
	}

	return nil
}
