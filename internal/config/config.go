// Package config loads application configuration from config.yaml and the
// environment, and owns global logger initialization.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Registry RegistryConfig `yaml:"registry" mapstructure:"registry"`
	Leads    LeadsConfig    `yaml:"leads" mapstructure:"leads"`
	Matcher  MatcherConfig  `yaml:"matcher" mapstructure:"matcher"`
	Extract  ExtractConfig  `yaml:"extract" mapstructure:"extract"`
	Receita  ReceitaConfig  `yaml:"receita" mapstructure:"receita"`
	Enrich   EnrichConfig   `yaml:"enrich" mapstructure:"enrich"`
	Outreach OutreachConfig `yaml:"outreach" mapstructure:"outreach"`
	Places   PlacesConfig   `yaml:"places" mapstructure:"places"`
	Notion   NotionConfig   `yaml:"notion" mapstructure:"notion"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// RegistryConfig configures the local registry dataset store.
type RegistryConfig struct {
	Path      string `yaml:"path" mapstructure:"path"`
	BatchSize int    `yaml:"batch_size" mapstructure:"batch_size"`
}

// LeadsConfig configures the lead store backend.
type LeadsConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// MatcherConfig configures registry name matching.
type MatcherConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	MaxCandidates       int     `yaml:"max_candidates" mapstructure:"max_candidates"`
}

// ExtractConfig configures website / search-page tax-id extraction.
type ExtractConfig struct {
	TimeoutSecs   int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent     string `yaml:"user_agent" mapstructure:"user_agent"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// ReceitaConfig configures the external registry detail API.
type ReceitaConfig struct {
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	IntervalSecs int    `yaml:"interval_secs" mapstructure:"interval_secs"`
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// EnrichConfig configures the batch enrichment sweep.
type EnrichConfig struct {
	Limit       int `yaml:"limit" mapstructure:"limit"`
	DailyBudget int `yaml:"daily_budget" mapstructure:"daily_budget"`
}

// OutreachConfig configures message drafting.
type OutreachConfig struct {
	SenderName   string `yaml:"sender_name" mapstructure:"sender_name"`
	AnthropicKey string `yaml:"anthropic_key" mapstructure:"anthropic_key"`
	Model        string `yaml:"model" mapstructure:"model"`
	Personalize  bool   `yaml:"personalize" mapstructure:"personalize"`
}

// PlacesConfig configures the Places text-search lead intake client.
type PlacesConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// NotionConfig holds the Notion CRM credentials and lead database id.
type NotionConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	LeadDB string `yaml:"lead_db" mapstructure:"lead_db"`
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
	v.SetEnvPrefix("PROSPECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, val := range Defaults() {
		v.SetDefault(key, val)
	}

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

// Defaults returns every config key with its default value. Shared by Load
// and the `init` command that writes a starter config.yaml.
func Defaults() map[string]any {
	return map[string]any{
		"registry.path":                "data/cnpj.db",
		"registry.batch_size":          50000,
		"leads.driver":                 "sqlite",
		"leads.path":                   "data/leads.db",
		"matcher.similarity_threshold": 0.6,
		"matcher.max_candidates":       20,
		"extract.timeout_secs":         10,
		"extract.user_agent":           "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
		"extract.search_base_url":      "https://www.google.com/search",
		"receita.base_url":             "https://receitaws.com.br/v1",
		"receita.interval_secs":        20,
		"receita.timeout_secs":         15,
		"enrich.limit":                 50,
		"enrich.daily_budget":          200,
		"outreach.sender_name":         "Alefe",
		"outreach.model":               "claude-haiku-4-5-20251001",
		"outreach.personalize":         false,
		"places.base_url":              "https://places.googleapis.com/v1",
		"log.level":                    "info",
		"log.format":                   "json",
	}
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
