// Package dssconfig provides configuration management for the deep shape
// store and its demo driver.
package dssconfig

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds all configuration for a deep shape store instance.
type Config struct {
	Store StoreConfig `mapstructure:"store"`
	Log   LogConfig   `mapstructure:"log"`
}

// StoreConfig mirrors the ShapeStore configuration options of spec section 4.1.
type StoreConfig struct {
	// Threads is the worker count handed to downstream local operations.
	Threads int `mapstructure:"threads"`
	// MaxAreaRatio is the default bbox-area/polygon-area reduction threshold.
	MaxAreaRatio float64 `mapstructure:"max_area_ratio"`
	// MaxVertexCount is the default vertex-count reduction threshold.
	MaxVertexCount int `mapstructure:"max_vertex_count"`
	// TextPropertyName optionally names the property under which the
	// original text string survives a text-to-box expansion.
	TextPropertyName string `mapstructure:"text_property_name"`
	// TextEnlargement controls text-to-box expansion: <0 drops texts, >=0
	// turns them into (2*n+1)-sided squares.
	TextEnlargement int `mapstructure:"text_enlargement"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// Default returns the default configuration, matching the DeepShapeStore
// zero-value defaults from spec section 4.1 (threads=1, max_area_ratio=3.0,
// max_vertex_count=16, text_enlargement=-1).
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Threads:         1,
			MaxAreaRatio:    3.0,
			MaxVertexCount:  16,
			TextEnlargement: -1,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the given file path (if non-empty) or from
// the standard search locations, falling back to defaults, with environment
// variables able to override any key.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("dss")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/dss")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("dss: config file not found, using defaults")
		} else if os.IsNotExist(err) {
			fmt.Printf("dss: config file %s not found, using defaults\n", configPath)
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from raw bytes (useful for tests).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("store.threads", d.Store.Threads)
	v.SetDefault("store.max_area_ratio", d.Store.MaxAreaRatio)
	v.SetDefault("store.max_vertex_count", d.Store.MaxVertexCount)
	v.SetDefault("store.text_property_name", d.Store.TextPropertyName)
	v.SetDefault("store.text_enlargement", d.Store.TextEnlargement)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Validate validates the configuration, applying the store's own
// zero-defaults-to-built-in-default rule (spec section 4.1: a zero
// max_area_ratio/max_vertex_count means "use the store setting", so zero is
// not itself an error here).
func (c *Config) Validate() error {
	if c.Store.Threads < 1 {
		return fmt.Errorf("store.threads must be at least 1")
	}
	if c.Store.MaxAreaRatio < 0 {
		return fmt.Errorf("store.max_area_ratio must not be negative")
	}
	if c.Store.MaxVertexCount < 0 {
		return fmt.Errorf("store.max_vertex_count must not be negative")
	}
	return nil
}
