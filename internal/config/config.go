// Package config provides configuration management for organigram.
//
// Settings are read from a YAML file, then overridden by ORGANIGRAM_*
// environment variables, then validated.
//
// Config file locations (priority order):
//  1. $ORGANIGRAM_CONFIG
//  2. ./organigram.yaml
//  3. ~/.config/organigram/config.yaml
//  4. /etc/organigram/config.yaml
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override
const EnvPrefix = "ORGANIGRAM_"

var validate = validator.New()

// Config is the complete runtime configuration
type Config struct {
	Version    int               `yaml:"version"`
	Directory  DirectoryConfig   `yaml:"directory" envPrefix:"DIRECTORY_"`
	Hierarchy  HierarchyConfig   `yaml:"hierarchy" envPrefix:"HIERARCHY_"`
	Attributes []AttributeConfig `yaml:"attributes,omitempty" envPrefix:"ATTRIBUTES_" validate:"dive"`
	Export     ExportConfig      `yaml:"export" envPrefix:"EXPORT_"`
	Log        LogConfig         `yaml:"log" envPrefix:"LOG_"`
	Metrics    MetricsConfig     `yaml:"metrics" envPrefix:"METRICS_"`
	Server     ServerConfig      `yaml:"server" envPrefix:"SERVER_"`
}

// DirectoryConfig selects the directory source
type DirectoryConfig struct {
	Kind string `yaml:"kind" env:"KIND" validate:"required,oneof=yaml sqlite"`
	Path string `yaml:"path" env:"PATH" validate:"required"`
	// Base restricts the agent and container feeds; lookups are unrestricted
	Base string `yaml:"base,omitempty" env:"BASE"`
}

// HierarchyConfig controls tree construction
type HierarchyConfig struct {
	SynthesizeVacancies bool   `yaml:"synthesize_vacancies" env:"SYNTHESIZE_VACANCIES"`
	IncludeAll          bool   `yaml:"include_all" env:"INCLUDE_ALL"`
	VacantLabel         string `yaml:"vacant_label,omitempty" env:"VACANT_LABEL"`
	NameOrder           string `yaml:"name_order,omitempty" env:"NAME_ORDER" validate:"omitempty,oneof=last_name first_name"`
}

// AttributeConfig registers an inheritable container attribute
type AttributeConfig struct {
	Name    string `yaml:"name" validate:"required"`
	Default string `yaml:"default,omitempty"`
}

// ExportConfig controls the chart view and its serialization
type ExportConfig struct {
	Format         string   `yaml:"format" env:"FORMAT" validate:"required,oneof=json yaml xlsx"`
	Output         string   `yaml:"output,omitempty" env:"OUTPUT"`
	Columns        []string `yaml:"columns,omitempty" env:"COLUMNS" envSeparator:","`
	GroupFrom      string   `yaml:"group_from,omitempty" env:"GROUP_FROM"`
	GroupLevels    []string `yaml:"group_levels,omitempty" env:"GROUP_LEVELS" envSeparator:","`
	LevelAttribute string   `yaml:"level_attribute,omitempty" env:"LEVEL_ATTRIBUTE"`
}

// LogConfig configures the logrus logger
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" env:"FORMAT" validate:"oneof=text json"`
}

// MetricsConfig configures metric output for one-shot runs
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty" env:"TEXTFILE"`
}

// ServerConfig configures the serve command
type ServerConfig struct {
	Addr     string        `yaml:"addr" env:"ADDR" validate:"required"`
	Watch    bool          `yaml:"watch" env:"WATCH"`
	Debounce time.Duration `yaml:"debounce,omitempty" env:"DEBOUNCE"`
}

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		cfg := DefaultConfig()
		if err := cfg.finish(); err != nil {
			return nil, "", err
		}
		return cfg, "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, errors.Wrap(err, "read config")
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// Parse decodes YAML config data and applies defaults, environment
// overrides and validation.
func Parse(data []byte) (*Config, error) {
	// Keys missing from the file keep their default values
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) finish() error {
	c.applyDefaults()
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return errors.Wrap(err, "environment overrides")
	}
	return c.Validate()
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return errors.Wrap(err, "create config dir")
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	return &Config{
		Version:   1,
		Directory: DirectoryConfig{Kind: "yaml", Path: "./directory.yaml"},
		Hierarchy: HierarchyConfig{
			SynthesizeVacancies: true,
			VacantLabel:         "Vacant post",
			NameOrder:           "last_name",
		},
		Export: ExportConfig{
			Format:         "json",
			LevelAttribute: "level",
		},
		Log:    LogConfig{Level: "info", Format: "text"},
		Server: ServerConfig{Addr: ":8080", Debounce: 500 * time.Millisecond},
	}
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Version == 0 {
		c.Version = def.Version
	}
	if c.Directory.Kind == "" {
		c.Directory.Kind = def.Directory.Kind
	}
	if c.Directory.Path == "" {
		c.Directory.Path = def.Directory.Path
	}
	if c.Hierarchy.VacantLabel == "" {
		c.Hierarchy.VacantLabel = def.Hierarchy.VacantLabel
	}
	if c.Hierarchy.NameOrder == "" {
		c.Hierarchy.NameOrder = def.Hierarchy.NameOrder
	}
	if c.Export.Format == "" {
		c.Export.Format = def.Export.Format
	}
	if c.Export.LevelAttribute == "" {
		c.Export.LevelAttribute = def.Export.LevelAttribute
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Server.Debounce <= 0 {
		c.Server.Debounce = def.Server.Debounce
	}
}

// Validate checks the struct tags and cross-field constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return errors.Errorf("invalid config: %s", formatValidationErrors(verrs))
		}
		return errors.Wrap(err, "invalid config")
	}

	seen := make(map[string]bool, len(c.Attributes))
	for _, a := range c.Attributes {
		key := strings.ToLower(a.Name)
		if seen[key] {
			return errors.Errorf("invalid config: attribute %q registered twice", a.Name)
		}
		seen[key] = true
	}
	return nil
}

func formatValidationErrors(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Directory: %s %s", c.Directory.Kind, c.Directory.Path)
	if c.Directory.Base != "" {
		summary += fmt.Sprintf(" (base %s)", c.Directory.Base)
	}
	summary += fmt.Sprintf("\nExport: %s, vacancies: %v, include all: %v\n",
		c.Export.Format, c.Hierarchy.SynthesizeVacancies, c.Hierarchy.IncludeAll)
	summary += fmt.Sprintf("Attributes (%d):", len(c.Attributes))
	for _, a := range c.Attributes {
		summary += fmt.Sprintf(" %s", a.Name)
	}
	return summary
}
