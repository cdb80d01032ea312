// Package config loads and validates the agent parser's configuration:
// logging, the parser orchestrator, and the version/policy summarizer.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the checkmk-agent-parse
// command: logging plus the two domain sub-configs.
//
// Configuration sources, highest precedence first:
//  1. Environment variables (CHECKMK_AGENT_PARSE_*), for keys that the
//     configuration file sets; without a configuration file they are not read
//  2. Configuration file (YAML)
//  3. Default values
//
// No configuration field is bound to a CLI flag.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Parser     ParserConfig     `mapstructure:"parser" yaml:"parser"`
	Summarizer SummarizerConfig `mapstructure:"summarizer" yaml:"summarizer"`
}

// LoggingConfig controls the internal/logger handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// ParserConfig configures the Agent Parser orchestrator.
type ParserConfig struct {
	// Host is this parser's own (unsanitized) host name, used to detect and
	// drop self-piggyback blocks.
	Host string `mapstructure:"host" validate:"required" yaml:"host"`

	// StorePath is the backing file for the persisted-sections store.
	StorePath string `mapstructure:"store_path" validate:"required" yaml:"store_path"`

	// CheckInterval is check_mk_check_interval, in seconds.
	CheckInterval time.Duration `mapstructure:"check_interval" validate:"required,gt=0" yaml:"check_interval"`

	// KeepOutdatedPersisted mirrors keep_outdated_persisted_sections.
	KeepOutdatedPersisted bool `mapstructure:"keep_outdated_persisted_sections" yaml:"keep_outdated_persisted_sections"`

	// AgentSimulatorEnabled toggles the raw-bytes substitution hook before
	// framing; the substitution itself is supplied by the caller, not by
	// configuration, since it is a code hook rather than a data value.
	AgentSimulatorEnabled bool `mapstructure:"agent_simulator_enabled" yaml:"agent_simulator_enabled"`
}

// SummarizerConfig configures the version/policy summarizer.
type SummarizerConfig struct {
	// Mode is "discovery" or "checking".
	Mode string `mapstructure:"mode" validate:"required,oneof=discovery checking" yaml:"mode"`

	// TargetVersion is either a literal version string or an at_least
	// clause; leave both fields in AtLeast empty to disable the check.
	TargetVersion TargetVersionConfig `mapstructure:"target_version" yaml:"target_version"`

	OnlyFrom  []string `mapstructure:"only_from" yaml:"only_from,omitempty"`
	IsCluster bool     `mapstructure:"is_cluster" yaml:"is_cluster"`

	WrongVersionStatus              int  `mapstructure:"wrong_version_status" validate:"omitempty,min=0,max=3" yaml:"wrong_version_status"`
	RestrictedAddressMismatchStatus int  `mapstructure:"restricted_address_mismatch_status" validate:"omitempty,min=0,max=3" yaml:"restricted_address_mismatch_status"`
	DebugEnabled                    bool `mapstructure:"debug_enabled" yaml:"debug_enabled"`
}

// TargetVersionConfig mirrors summarizer.TargetVersion as a config-file
// friendly struct.
type TargetVersionConfig struct {
	Literal string `mapstructure:"literal" yaml:"literal,omitempty"`

	AtLeast *AtLeastConfig `mapstructure:"at_least" yaml:"at_least,omitempty"`
}

// AtLeastConfig mirrors summarizer.AtLeast.
type AtLeastConfig struct {
	DailyBuild string `mapstructure:"daily_build" yaml:"daily_build,omitempty"`
	Release    string `mapstructure:"release" yaml:"release,omitempty"`
}

// Load reads configuration from configPath (or the default search path when
// empty) and defaults, applies environment overrides for keys the file sets,
// then validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if found {
		if err := v.Unmarshal(cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
			return nil, fmt.Errorf("config: unmarshal: %w", err)
		}
	}
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns a Config with every field at its documented zero-ish
// default, suitable as a base for Load or for tests.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "INFO", Format: "text", Output: "stdout"},
		Parser: ParserConfig{
			CheckInterval: 60 * time.Second,
		},
		Summarizer: SummarizerConfig{
			Mode:                            "checking",
			WrongVersionStatus:              1,
			RestrictedAddressMismatchStatus: 1,
		},
	}
}

// ApplyDefaults fills in zero-valued fields that Load's unmarshal step left
// empty.
func ApplyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Parser.CheckInterval == 0 {
		cfg.Parser.CheckInterval = 60 * time.Second
	}
	if cfg.Summarizer.Mode == "" {
		cfg.Summarizer.Mode = "checking"
	}
	if cfg.Summarizer.WrongVersionStatus == 0 {
		cfg.Summarizer.WrongVersionStatus = 1
	}
	if cfg.Summarizer.RestrictedAddressMismatchStatus == 0 {
		cfg.Summarizer.RestrictedAddressMismatchStatus = 1
	}
}

// Validate runs struct-tag validation over cfg.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

// Save writes cfg to path as YAML.
func Save(cfg *Config, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create directory: %w", err)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("CHECKMK_AGENT_PARSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(defaultConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config: read file: %w", err)
	}
	return true, nil
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v) * time.Second, nil
		case int64:
			return time.Duration(v) * time.Second, nil
		case float64:
			return time.Duration(v) * time.Second, nil
		default:
			return data, nil
		}
	}
}

func defaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "checkmk-agent-parse")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "checkmk-agent-parse")
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() string {
	return filepath.Join(defaultConfigDir(), "config.yaml")
}
