// Package config provides YAML configuration parsing for the resultwatch CLI.
//
// This package enables running resultwatch as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Proxy Checker
//	base_url: http://localhost:5000
//	poll_interval: 2s
//	headers:
//	  Authorization: "Bearer ${TOKEN:-}"
//	fields:
//	  mode: fast
//	files:
//	  file: ./proxies.txt
//	port: 8080
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// minPollInterval prevents accidental hammering of the backend.
	minPollInterval = 100 * time.Millisecond

	// minTimeout is the smallest per-request timeout accepted when set.
	minTimeout = 100 * time.Millisecond
)

// defaults applied by Parse
const (
	DefaultSubmitPath   = "/submit"
	DefaultResultsPath  = "/results"
	DefaultPollInterval = 2 * time.Second
	DefaultTimeout      = 10 * time.Second
	DefaultMessageField = "message"
	DefaultResultsField = "results"
	DefaultPort         = 8080
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "json"
)

// Config is the root configuration structure.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the page heading for the serve command.
	Title string `yaml:"title"`

	// BaseURL is the backend's root URL. Required.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	BaseURL string `yaml:"base_url"`

	// SubmitPath is the path the form is POSTed to. Defaults to /submit.
	SubmitPath string `yaml:"submit_path"`

	// ResultsPath is the path polled for results. Defaults to /results.
	ResultsPath string `yaml:"results_path"`

	// PollInterval is the delay between a processed response and the next poll.
	// Accepts duration strings like "2s", "500ms". Defaults to 2s.
	PollInterval Duration `yaml:"poll_interval"`

	// Timeout is the per-request timeout. Defaults to 10s.
	Timeout Duration `yaml:"timeout"`

	// MaxFailures stops polling after that many consecutive failures.
	// Zero keeps polling.
	MaxFailures int `yaml:"max_failures"`

	// MessageField is the dot path of the status message in the submit response.
	MessageField string `yaml:"message_field"`

	// ResultsField is the dot path of the results array in the results response.
	ResultsField string `yaml:"results_field"`

	// Headers are custom HTTP headers sent with every request.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers"`

	// Fields are form fields submitted with every submission.
	// Values support environment variable substitution.
	Fields map[string]string `yaml:"fields"`

	// Files maps form field names to files uploaded with every submission.
	// Relative paths are resolved against the config file's directory.
	Files map[string]string `yaml:"files"`

	// Port is the HTTP port for the serve command. Defaults to 8080.
	Port int `yaml:"port"`

	// StateFile is the journal used by the watch command to resume and by
	// the serve command to restore the page on startup.
	StateFile string `yaml:"state_file"`

	// Log configures the CLI logger.
	Log LogConfig `yaml:"log"`

	// dir is the directory of the loaded file, empty for Parse.
	dir string
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `yaml:"level"`

	// Format is json or text. Defaults to json.
	Format string `yaml:"format"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded after parsing.
// Returns an error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// Parse parses YAML configuration data, applies defaults and validates.
//
// Environment variables are expanded in BaseURL, StateFile, and Header,
// Field and File values.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.SubmitPath == "" {
		c.SubmitPath = DefaultSubmitPath
	}
	if c.ResultsPath == "" {
		c.ResultsPath = DefaultResultsPath
	}
	if c.PollInterval == 0 {
		c.PollInterval = Duration(DefaultPollInterval)
	}
	if c.Timeout == 0 {
		c.Timeout = Duration(DefaultTimeout)
	}
	if c.MessageField == "" {
		c.MessageField = DefaultMessageField
	}
	if c.ResultsField == "" {
		c.ResultsField = DefaultResultsField
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	expanded, err := expandEnvVars(c.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	c.BaseURL = expanded

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if parsedURL.Scheme == "" {
		return fmt.Errorf("base_url must have a scheme (http:// or https://)")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("base_url scheme must be http or https, got %q", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base_url must have a host")
	}

	if !strings.HasPrefix(c.SubmitPath, "/") {
		return fmt.Errorf("submit_path must start with /, got %q", c.SubmitPath)
	}
	if !strings.HasPrefix(c.ResultsPath, "/") {
		return fmt.Errorf("results_path must start with /, got %q", c.ResultsPath)
	}

	if c.PollInterval.Duration() < minPollInterval {
		return fmt.Errorf("poll_interval must be at least %s, got %s", minPollInterval, c.PollInterval.Duration())
	}
	if c.Timeout.Duration() < 0 {
		return fmt.Errorf("timeout cannot be negative, got %s", c.Timeout.Duration())
	}
	if c.Timeout.Duration() < minTimeout {
		return fmt.Errorf("timeout must be at least %s if specified, got %s", minTimeout, c.Timeout.Duration())
	}
	if c.MaxFailures < 0 {
		return fmt.Errorf("max_failures cannot be negative, got %d", c.MaxFailures)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	for name, m := range map[string]map[string]string{
		"headers": c.Headers,
		"fields":  c.Fields,
		"files":   c.Files,
	} {
		for k, v := range m {
			expanded, err := expandEnvVars(v)
			if err != nil {
				return fmt.Errorf("%s[%s]: %w", name, k, err)
			}
			m[k] = expanded
		}
	}
	for k, v := range c.Files {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("files[%s]: path is required", k)
		}
	}

	if c.StateFile != "" {
		expanded, err := expandEnvVars(c.StateFile)
		if err != nil {
			return fmt.Errorf("state_file: %w", err)
		}
		c.StateFile = expanded
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}

	return nil
}

// ResolvePath returns p relative to the config file's directory, unless p
// is absolute or the config was not loaded from a file.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}
