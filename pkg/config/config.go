// Package config loads speech provider credentials from a YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/wohui/speech-go/pkg/baidu"
	"github.com/wohui/speech-go/pkg/xfyun"
)

const (
	// DefaultBaseDir is the base configuration directory name
	DefaultBaseDir = ".speech"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.yaml"
)

// Config represents the provider credential configuration
type Config struct {
	// Xfyun contains iFlytek per-service credentials
	Xfyun *xfyun.Credentials `yaml:"xfyun,omitempty"`

	// Baidu contains Baidu application credentials
	Baidu *baidu.Credentials `yaml:"baidu,omitempty"`

	// BaiduQuotas overrides per-endpoint Baidu admission rates
	BaiduQuotas *baidu.Quotas `yaml:"baidu_quotas,omitempty"`

	// configPath is the path to the config file
	configPath string
}

// Load loads the configuration from the default location
// (~/.speech/config.yaml)
func Load() (*Config, error) {
	return LoadWithPath("")
}

// LoadWithPath loads configuration from a custom path
func LoadWithPath(customPath string) (*Config, error) {
	var configPath string

	if customPath != "" {
		configPath = customPath
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, DefaultBaseDir, DefaultConfigFile)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{
		configPath: configPath,
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Parse parses configuration from raw YAML bytes
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Save saves the configuration back to the file it was loaded from.
// Configs built with Parse have no file path; use SaveTo for those.
func (c *Config) Save() error {
	if c.configPath == "" {
		return fmt.Errorf("config: no file path set (built with Parse?)")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(c.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(c.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// SaveTo saves the configuration to path and remembers it for later
// Save calls
func (c *Config) SaveTo(path string) error {
	c.configPath = path
	return c.Save()
}

// Path returns the config file path; empty for configs built with Parse
func (c *Config) Path() string {
	return c.configPath
}

// XfyunClient builds an iFlytek client from the configured credentials
func (c *Config) XfyunClient(opts ...xfyun.Option) (*xfyun.Client, error) {
	if c.Xfyun == nil {
		return nil, fmt.Errorf("config: no xfyun credentials")
	}
	return xfyun.NewClient(*c.Xfyun, opts...), nil
}

// BaiduClient builds a Baidu client from the configured credentials
func (c *Config) BaiduClient(opts ...baidu.Option) (*baidu.Client, error) {
	if c.Baidu == nil {
		return nil, fmt.Errorf("config: no baidu credentials")
	}
	if c.BaiduQuotas != nil {
		opts = append([]baidu.Option{baidu.WithQuotas(*c.BaiduQuotas)}, opts...)
	}
	return baidu.NewClient(*c.Baidu, opts...), nil
}
