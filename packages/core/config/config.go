package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Config represents the reqverify configuration
type Config struct {
	BaseURL         string            `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
	Timeout         int               `json:"timeout,omitempty" yaml:"timeout,omitempty"` // milliseconds
	Headers         map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"` // sent with every request
	Fixtures        string            `json:"fixtures,omitempty" yaml:"fixtures,omitempty"`
	FollowRedirects *bool             `json:"followRedirects,omitempty" yaml:"followRedirects,omitempty"`
	MaxRedirects    int               `json:"maxRedirects,omitempty" yaml:"maxRedirects,omitempty"`
	ValidateSSL     *bool             `json:"validateSSL,omitempty" yaml:"validateSSL,omitempty"`
	Proxy           string            `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	Rate            float64           `json:"rate,omitempty" yaml:"rate,omitempty"` // scenarios per second, 0 = unlimited
	History         string            `json:"history,omitempty" yaml:"history,omitempty"`
	Output          string            `json:"output,omitempty" yaml:"output,omitempty"`
	Bail            *bool             `json:"bail,omitempty" yaml:"bail,omitempty"`
	NoColor         *bool             `json:"noColor,omitempty" yaml:"noColor,omitempty"`
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

func (c *Config) GetBail() bool {
	return getBool(c.Bail, false)
}

func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// ConfigFilenames contains the possible config file names, in lookup order
var ConfigFilenames = []string{
	".reqverify.json",
	"reqverify.config.json",
	".reqverify.yaml",
	".reqverify.yml",
}

// LoadConfig loads configuration from the specified path or searches the
// current directory for one of ConfigFilenames.
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory and
// returns the defaults when none exists.
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}
	return DefaultConfig(), nil
}

func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	config := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	default:
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return config, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c
	result.Headers = nil
	if len(c.Headers) > 0 {
		result.Headers = make(map[string]string, len(c.Headers))
		for k, v := range c.Headers {
			result.Headers[k] = v
		}
	}

	if other.BaseURL != "" {
		result.BaseURL = other.BaseURL
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.Fixtures != "" {
		result.Fixtures = other.Fixtures
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.Rate > 0 {
		result.Rate = other.Rate
	}
	if other.History != "" {
		result.History = other.History
	}
	if other.Output != "" {
		result.Output = other.Output
	}

	// Boolean flags - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.Bail != nil {
		result.Bail = other.Bail
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	if len(other.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range other.Headers {
			result.Headers[k] = v
		}
	}

	return &result
}

// FromEnv builds an override config from variables named like the JSON keys in
// upper snake case (BASE_URL, TIMEOUT, FIXTURES, ...), as returned by
// env.LoadSystemEnv with the REQVERIFY_ prefix stripped.
func FromEnv(vars map[string]string) (*Config, error) {
	c := &Config{
		BaseURL:  vars["BASE_URL"],
		Fixtures: vars["FIXTURES"],
		Proxy:    vars["PROXY"],
		History:  vars["HISTORY"],
		Output:   vars["OUTPUT"],
	}

	if v := vars["TIMEOUT"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("TIMEOUT: %w", err)
		}
		c.Timeout = n
	}
	if v := vars["RATE"]; v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("RATE: %w", err)
		}
		c.Rate = f
	}

	bools := map[string]**bool{
		"VALIDATE_SSL":     &c.ValidateSSL,
		"FOLLOW_REDIRECTS": &c.FollowRedirects,
		"BAIL":             &c.Bail,
		"NO_COLOR":         &c.NoColor,
	}
	for key, dst := range bools {
		v := vars[key]
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		*dst = BoolPtr(b)
	}

	return c, nil
}

// Validate reports settings that cannot produce a working run.
func (c *Config) Validate() error {
	var result *multierror.Error
	if c.BaseURL == "" {
		result = multierror.Append(result, errors.New("baseUrl is required"))
	}
	if c.Timeout < 0 {
		result = multierror.Append(result, errors.New("timeout must not be negative"))
	}
	if c.Rate < 0 {
		result = multierror.Append(result, errors.New("rate must not be negative"))
	}
	if c.MaxRedirects < 0 {
		result = multierror.Append(result, errors.New("maxRedirects must not be negative"))
	}
	if c.Fixtures == "" {
		result = multierror.Append(result, errors.New("fixtures path is required"))
	}
	return result.ErrorOrNil()
}

// SaveConfig saves the configuration to a file as indented JSON
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
