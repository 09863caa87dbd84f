package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Sheets   SheetsConfig   `yaml:"sheets" mapstructure:"sheets"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Audit    AuditConfig    `yaml:"audit" mapstructure:"audit"`
	Override OverrideConfig `yaml:"override" mapstructure:"override"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// SheetsConfig configures the spreadsheet backend.
type SheetsConfig struct {
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	SpreadsheetID  string  `yaml:"spreadsheet_id" mapstructure:"spreadsheet_id"`
	Token          string  `yaml:"token" mapstructure:"token"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
}

// Timeout returns the per-call deadline.
func (c SheetsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// ServerConfig configures the proxy server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// AuditConfig configures the override audit trail. Driver is "sqlite",
// "postgres" or "off".
type AuditConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// OverrideConfig configures the client-side override cache.
type OverrideConfig struct {
	ResetSentinel string   `yaml:"reset_sentinel" mapstructure:"reset_sentinel"`
	ValueColumn   string   `yaml:"value_column" mapstructure:"value_column"`
	KeySeparator  string   `yaml:"key_separator" mapstructure:"key_separator"`
	RiskTabs      []string `yaml:"risk_tabs" mapstructure:"risk_tabs"`
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
	v.SetEnvPrefix("SENTIMENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. The credential keys default to empty so AutomaticEnv can
	// bind them through Unmarshal.
	v.SetDefault("sheets.base_url", "https://sheets.googleapis.com/v4")
	v.SetDefault("sheets.spreadsheet_id", "")
	v.SetDefault("sheets.token", "")
	v.SetDefault("sheets.timeout_secs", 30)
	v.SetDefault("sheets.requests_per_sec", 1.0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("audit.driver", "sqlite")
	v.SetDefault("audit.database_url", "overrides.db")
	v.SetDefault("override.reset_sentinel", "Auto")
	v.SetDefault("override.value_column", "risk")
	v.SetDefault("override.key_separator", "|")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
