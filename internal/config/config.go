// Package config provides YAML-based configuration loading for the roadmap service.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration, loaded from roadmap.yaml.
type Config struct {
	Database  DatabaseConfig   `yaml:"database"`
	Server    ServerConfig     `yaml:"server"`
	Log       LogConfig        `yaml:"log"`
	Timezone  string           `yaml:"timezone"`
	ColorSets []ColorSetConfig `yaml:"color_sets" validate:"dive"`
	Location  *time.Location   `yaml:"-" validate:"-"`
}

// DatabaseConfig holds connection settings for the relational store.
type DatabaseConfig struct {
	Driver   string `yaml:"driver" validate:"oneof=mysql postgres sqlite"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port" validate:"gte=0,lte=65535"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Path     string `yaml:"path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port             int      `yaml:"port" validate:"gte=0,lte=65535"`
	BaseURL          string   `yaml:"base_url"`
	CORSOrigins      []string `yaml:"cors_origins"`
	IconCacheSeconds int      `yaml:"icon_cache_seconds" validate:"gte=0"`
}

// LogConfig selects the logger flavour.
type LogConfig struct {
	Mode string `yaml:"mode" validate:"oneof=dev prod"`
}

// ColorSetConfig defines an extra phase color palette. Id 0 is reserved for
// the built-in default palette.
type ColorSetConfig struct {
	ID     int      `yaml:"id" validate:"gt=0"`
	Name   string   `yaml:"name" validate:"required"`
	Colors []string `yaml:"colors" validate:"min=1,dive,hexcolor"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a validated configuration for a local sqlite database.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Location = time.UTC
	return cfg
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	switch c.Database.Driver {
	case "mysql":
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
	case "postgres":
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.User == "" {
			c.Database.User = "postgres"
		}
	case "sqlite":
		if c.Database.Path == "" {
			c.Database.Path = "roadmap.db"
		}
	}
	if c.Database.Name == "" {
		c.Database.Name = "roadmap"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.IconCacheSeconds == 0 {
		c.Server.IconCacheSeconds = 3600
	}
	if c.Log.Mode == "" {
		c.Log.Mode = "dev"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
}

var validate = newValidator()

// newValidator reports field errors using yaml key names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, describe(fe))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		errs = append(errs, fmt.Sprintf("timezone %q is invalid", c.Timezone))
	} else {
		c.Location = loc
	}

	seen := make(map[int]bool)
	for i, cs := range c.ColorSets {
		if seen[cs.ID] {
			errs = append(errs, fmt.Sprintf("color_sets[%d].id %d is duplicated", i, cs.ID))
		}
		seen[cs.ID] = true
	}

	if c.Database.Driver != "sqlite" && c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// describe renders a validator field error in the config's yaml vocabulary.
func describe(fe validator.FieldError) string {
	field := yamlPath(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "hexcolor":
		return fmt.Sprintf("%s %q is not a hex color", field, fe.Value())
	case "gt", "gte", "lte", "min":
		return fmt.Sprintf("%s fails %s=%s", field, fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}

// yamlPath drops the root struct name: "Config.database.driver" -> "database.driver".
func yamlPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
