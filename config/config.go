// Package config loads the engine configuration from an optional YAML file,
// a .env file and COLLECT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/donjoker0605/focep-collect-backend-sub002/commission"
	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
)

const EnvPrefix = "COLLECT"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Commission CommissionConfig `mapstructure:"commission"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
}

type ServerConfig struct {
	Port        int      `mapstructure:"port"`
	Environment string   `mapstructure:"environment"` // development, production
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"` // ":memory:" for an ephemeral store
}

type LoggingConfig struct {
	Level  string        `mapstructure:"level"`
	Format string        `mapstructure:"format"` // json, console
	File   FileLogConfig `mapstructure:"file"`
}

type FileLogConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// SchedulerConfig controls the automated month-end commission run.
type SchedulerConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// CommissionConfig holds the rates as decimal strings so that "0.1925" is
// read exactly.
type CommissionConfig struct {
	VTARate                    string `mapstructure:"vta_rate"`
	EMFRate                    string `mapstructure:"emf_rate"`
	NouveauCollecteurMontant   string `mapstructure:"nouveau_collecteur_montant"`
	NouveauCollecteurDureeMois int    `mapstructure:"nouveau_collecteur_duree_mois"`
	PlafondCommissionFixe      string `mapstructure:"plafond_commission_fixe"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("database.path", "./data/collect.db")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.enabled", false)
	v.SetDefault("logging.file.path", "./logs/collect.log")
	v.SetDefault("logging.file.max_size_mb", 100)
	v.SetDefault("logging.file.max_backups", 5)
	v.SetDefault("logging.file.max_age_days", 30)
	v.SetDefault("logging.file.compress", true)
	v.SetDefault("commission.vta_rate", "0.1925")
	v.SetDefault("commission.emf_rate", "0.30")
	v.SetDefault("commission.nouveau_collecteur_montant", "40000")
	v.SetDefault("commission.nouveau_collecteur_duree_mois", commission.DefaultNouveauCollecteurDureeMois)
	v.SetDefault("commission.plafond_commission_fixe", "0")
	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.interval", "1h")
}

// Load reads configuration. path may name a YAML file or be empty; a missing
// file is not an error. Environment variables override the file, e.g.
// COLLECT_DATABASE_PATH overrides database.path.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if c.Logging.File.Enabled && c.Logging.File.Path == "" {
		return errors.New("logging.file.path is required when file logging is enabled")
	}
	if c.Scheduler.Enabled && c.Scheduler.Interval <= 0 {
		return errors.New("scheduler.interval must be positive when the scheduler is enabled")
	}
	if _, err := c.CommissionRules(); err != nil {
		return err
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// CommissionRules builds the immutable rules from the configured values.
func (c *Config) CommissionRules() (commission.Rules, error) {
	vta, err := parseDecimal("commission.vta_rate", c.Commission.VTARate)
	if err != nil {
		return commission.Rules{}, err
	}
	emf, err := parseDecimal("commission.emf_rate", c.Commission.EMFRate)
	if err != nil {
		return commission.Rules{}, err
	}
	nouveau, err := parseDecimal("commission.nouveau_collecteur_montant", c.Commission.NouveauCollecteurMontant)
	if err != nil {
		return commission.Rules{}, err
	}
	plafond, err := parseDecimal("commission.plafond_commission_fixe", c.Commission.PlafondCommissionFixe)
	if err != nil {
		return commission.Rules{}, err
	}
	return commission.NewRules(vta, emf,
		generic.NewAmount(nouveau, generic.CurrencyFCFA),
		c.Commission.NouveauCollecteurDureeMois,
		generic.NewAmount(plafond, generic.CurrencyFCFA))
}

func parseDecimal(key, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, generic.NewValidationError(key, "%q is not a decimal", value)
	}
	return d, nil
}
