package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. It is loaded once and
// passed explicitly; components never read viper themselves.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Gmail     GmailConfig     `yaml:"gmail" mapstructure:"gmail"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Extract   ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Reconcile ReconcileConfig `yaml:"reconcile" mapstructure:"reconcile"`
	Sweep     SweepConfig     `yaml:"sweep" mapstructure:"sweep"`
	Schedule  ScheduleConfig  `yaml:"schedule" mapstructure:"schedule"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`

	// RulesPath optionally points at a YAML file overriding the built-in
	// reconciliation rules (hierarchy, keyword sets, deny-lists).
	RulesPath string `yaml:"rules_path" mapstructure:"rules_path"`
}

// StoreConfig configures the record store backend.
type StoreConfig struct {
	// Driver is one of "sqlite", "postgres", "xlsx".
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"`
}

// GmailConfig holds mail source credentials and workflow label names.
type GmailConfig struct {
	Token            string `yaml:"token" mapstructure:"token"`
	BaseURL          string `yaml:"base_url" mapstructure:"base_url"`
	LabelPending     string `yaml:"label_pending" mapstructure:"label_pending"`
	LabelDone        string `yaml:"label_done" mapstructure:"label_done"`
	LabelNeedsReview string `yaml:"label_needs_review" mapstructure:"label_needs_review"`
}

// AnthropicConfig holds primary extractor API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// ExtractConfig configures the extraction composition.
type ExtractConfig struct {
	// MaxBodyChars bounds the body snippet sent to the primary extractor.
	MaxBodyChars int `yaml:"max_body_chars" mapstructure:"max_body_chars"`
	// FallbackScanChars bounds the body prefix scanned by the fallback.
	FallbackScanChars int `yaml:"fallback_scan_chars" mapstructure:"fallback_scan_chars"`
	TimeoutSecs       int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts       int `yaml:"max_attempts" mapstructure:"max_attempts"`
	// RatePerMinute throttles primary extractor calls.
	RatePerMinute int `yaml:"rate_per_minute" mapstructure:"rate_per_minute"`
}

// ReconcileConfig holds the per-run budgets.
type ReconcileConfig struct {
	MaxMessages  int `yaml:"max_messages" mapstructure:"max_messages"`
	MaxThreads   int `yaml:"max_threads" mapstructure:"max_threads"`
	DeadlineSecs int `yaml:"deadline_secs" mapstructure:"deadline_secs"`
}

// SweepConfig configures the staleness sweep.
type SweepConfig struct {
	ThresholdWeeks int `yaml:"threshold_weeks" mapstructure:"threshold_weeks"`
}

// ScheduleConfig configures the long-running scheduler cadences.
type ScheduleConfig struct {
	ReconcileEveryMins int `yaml:"reconcile_every_mins" mapstructure:"reconcile_every_mins"`
	SweepEveryMins     int `yaml:"sweep_every_mins" mapstructure:"sweep_every_mins"`
}

// ServerConfig configures the read-only status API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CAREERSUITE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Keys without a meaningful default are still registered:
	// AutomaticEnv only surfaces keys viper already knows about, so env-only
	// credentials (CAREERSUITE_GMAIL_TOKEN etc.) would otherwise never reach
	// Unmarshal.
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "")
	v.SetDefault("gmail.token", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("rules_path", "")
	v.SetDefault("store.path", "careersuite.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("gmail.base_url", "https://gmail.googleapis.com")
	v.SetDefault("gmail.label_pending", "CareerSuite/Pending")
	v.SetDefault("gmail.label_done", "CareerSuite/Done")
	v.SetDefault("gmail.label_needs_review", "CareerSuite/NeedsReview")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("extract.max_body_chars", 12000)
	v.SetDefault("extract.fallback_scan_chars", 1500)
	v.SetDefault("extract.timeout_secs", 30)
	v.SetDefault("extract.max_attempts", 3)
	v.SetDefault("extract.rate_per_minute", 60)
	v.SetDefault("reconcile.max_messages", 100)
	v.SetDefault("reconcile.max_threads", 50)
	v.SetDefault("reconcile.deadline_secs", 300)
	v.SetDefault("sweep.threshold_weeks", 7)
	v.SetDefault("schedule.reconcile_every_mins", 60)
	v.SetDefault("schedule.sweep_every_mins", 1440)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
