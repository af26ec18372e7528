package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/kbhelper/packages/core/env"
	"github.com/abdul-hamid-achik/kbhelper/packages/proxy"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// DefaultCredentialEnvPrefix prefixes the environment variables consulted for
// credential identifiers.
const DefaultCredentialEnvPrefix = "KBHELPER_CREDENTIAL_"

// ErrInvalidConfig is returned when a configuration file fails to parse or validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the kbhelper configuration
type Config struct {
	Endpoint             string              `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	APIToken             string              `json:"apiToken,omitempty" yaml:"apiToken,omitempty"`
	APITokenCredentialID string              `json:"apiTokenCredentialId,omitempty" yaml:"apiTokenCredentialId,omitempty"`
	Timeout              int                 `json:"timeout,omitempty" yaml:"timeout,omitempty"`     // milliseconds
	RateLimit            float64             `json:"rateLimit,omitempty" yaml:"rateLimit,omitempty"` // requests per second, 0 = unlimited
	ValidateSSL          *bool               `json:"validateSSL,omitempty" yaml:"validateSSL,omitempty"`
	Proxy                *proxy.Config       `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	Credentials          *CredentialsConfig  `json:"credentials,omitempty" yaml:"credentials,omitempty"`
	Environments         []env.PropertySet   `json:"environments,omitempty" yaml:"environments,omitempty"`
	EnvFile              string              `json:"envFile,omitempty" yaml:"envFile,omitempty"`
	Verbose              *bool               `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	NoColor              *bool               `json:"noColor,omitempty" yaml:"noColor,omitempty"`
}

// CredentialsConfig locates the stores consulted for credential identifiers.
type CredentialsConfig struct {
	File      string `json:"file,omitempty" yaml:"file,omitempty"`
	Database  string `json:"database,omitempty" yaml:"database,omitempty"`
	EnvPrefix string `json:"envPrefix,omitempty" yaml:"envPrefix,omitempty"`
	Watch     bool   `json:"watch,omitempty" yaml:"watch,omitempty"`
}

// boolPtr returns a pointer to a bool value
func boolPtr(b bool) *bool {
	return &b
}

// BoolPtr is exported version of boolPtr for external use
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

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// TimeoutDuration returns the request timeout, 30 seconds when unset.
func (c *Config) TimeoutDuration() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Timeout) * time.Millisecond
}

func (c *Config) credentials() CredentialsConfig {
	if c.Credentials == nil {
		return CredentialsConfig{EnvPrefix: DefaultCredentialEnvPrefix}
	}
	creds := *c.Credentials
	if creds.EnvPrefix == "" {
		creds.EnvPrefix = DefaultCredentialEnvPrefix
	}
	return creds
}

// EnvironmentProperties exposes the configured environments as global property sets.
func (c *Config) EnvironmentProperties() []env.PropertySet {
	return c.Environments
}

var _ env.Source = (*Config)(nil)

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".kbhelper.json",
	"kbhelper.json",
	".kbhelper.yaml",
	".kbhelper.yml",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	// Search for config file in current directory
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := toJSON(path, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	if err := Validate(doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(doc, config); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}

	return config, nil
}

// toJSON normalizes a JSON (comments and trailing commas allowed) or YAML document
// to plain JSON.
func toJSON(path string, data []byte) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		if doc == nil {
			doc = map[string]any{}
		}
		return json.Marshal(doc)
	default:
		return jsonc.ToJSON(data), nil
	}
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.Endpoint != "" {
		result.Endpoint = other.Endpoint
	}
	if other.APIToken != "" {
		result.APIToken = other.APIToken
	}
	if other.APITokenCredentialID != "" {
		result.APITokenCredentialID = other.APITokenCredentialID
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.RateLimit > 0 {
		result.RateLimit = other.RateLimit
	}
	if other.Proxy != nil {
		result.Proxy = other.Proxy
	}
	if other.EnvFile != "" {
		result.EnvFile = other.EnvFile
	}

	// Boolean flags - only override if explicitly set in other config
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	if other.Credentials != nil {
		creds := c.credentials()
		if other.Credentials.File != "" {
			creds.File = other.Credentials.File
		}
		if other.Credentials.Database != "" {
			creds.Database = other.Credentials.Database
		}
		if other.Credentials.EnvPrefix != "" {
			creds.EnvPrefix = other.Credentials.EnvPrefix
		}
		if other.Credentials.Watch {
			creds.Watch = true
		}
		result.Credentials = &creds
	}

	// Environments replace rather than merge: the first set is the global one
	if len(other.Environments) > 0 {
		result.Environments = other.Environments
	}

	return &result
}

// SaveConfig saves the configuration to a file, as YAML when the extension says so
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
