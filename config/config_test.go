package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse_MinimalConfig(t *testing.T) {
	yaml := `base_url: http://localhost:5000`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// check defaults applied
	if cfg.SubmitPath != "/submit" || cfg.ResultsPath != "/results" {
		t.Errorf("paths = %q/%q, want /submit and /results", cfg.SubmitPath, cfg.ResultsPath)
	}
	if cfg.PollInterval.Duration() != 2*time.Second {
		t.Errorf("PollInterval = %v, want 2s", cfg.PollInterval.Duration())
	}
	if cfg.Timeout.Duration() != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout.Duration())
	}
	if cfg.MessageField != "message" || cfg.ResultsField != "results" {
		t.Errorf("fields = %q/%q, want message/results", cfg.MessageField, cfg.ResultsField)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v, want info/json", cfg.Log)
	}
	if cfg.MaxFailures != 0 {
		t.Errorf("MaxFailures = %d, want 0", cfg.MaxFailures)
	}
}

func TestParse_FullConfig(t *testing.T) {
	yaml := `
title: Proxy Checker
base_url: https://checker.example.com/app
submit_path: /jobs
results_path: /jobs/results
poll_interval: 500ms
timeout: 3s
max_failures: 5
message_field: data.message
results_field: data.results
headers:
  Authorization: Bearer token123
fields:
  mode: fast
files:
  file: proxies.txt
port: 9090
state_file: /tmp/rw.db
log:
  level: debug
  format: text
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Title != "Proxy Checker" {
		t.Errorf("Title = %q", cfg.Title)
	}
	if cfg.BaseURL != "https://checker.example.com/app" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.SubmitPath != "/jobs" || cfg.ResultsPath != "/jobs/results" {
		t.Errorf("paths = %q/%q", cfg.SubmitPath, cfg.ResultsPath)
	}
	if cfg.PollInterval.Duration() != 500*time.Millisecond {
		t.Errorf("PollInterval = %v, want 500ms", cfg.PollInterval.Duration())
	}
	if cfg.Timeout.Duration() != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", cfg.Timeout.Duration())
	}
	if cfg.MaxFailures != 5 {
		t.Errorf("MaxFailures = %d, want 5", cfg.MaxFailures)
	}
	if cfg.MessageField != "data.message" || cfg.ResultsField != "data.results" {
		t.Errorf("fields = %q/%q", cfg.MessageField, cfg.ResultsField)
	}
	if cfg.Headers["Authorization"] != "Bearer token123" {
		t.Errorf("Headers = %v", cfg.Headers)
	}
	if cfg.Fields["mode"] != "fast" || cfg.Files["file"] != "proxies.txt" {
		t.Errorf("Fields = %v, Files = %v", cfg.Fields, cfg.Files)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.StateFile != "/tmp/rw.db" {
		t.Errorf("StateFile = %q", cfg.StateFile)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		yaml        string
		wantErrLike string
	}{
		{
			name:        "missing base_url",
			yaml:        `port: 8080`,
			wantErrLike: "base_url is required",
		},
		{
			name:        "no scheme",
			yaml:        `base_url: "//localhost:5000/x"`,
			wantErrLike: "scheme",
		},
		{
			name:        "ftp scheme",
			yaml:        `base_url: ftp://example.com`,
			wantErrLike: "http or https",
		},
		{
			name:        "no host",
			yaml:        `base_url: "http://"`,
			wantErrLike: "must have a host",
		},
		{
			name: "relative submit path",
			yaml: `
base_url: http://localhost
submit_path: submit
`,
			wantErrLike: "submit_path must start with /",
		},
		{
			name: "relative results path",
			yaml: `
base_url: http://localhost
results_path: results
`,
			wantErrLike: "results_path must start with /",
		},
		{
			name: "poll interval too small",
			yaml: `
base_url: http://localhost
poll_interval: 50ms
`,
			wantErrLike: "poll_interval must be at least",
		},
		{
			name: "negative timeout",
			yaml: `
base_url: http://localhost
timeout: -1s
`,
			wantErrLike: "timeout cannot be negative",
		},
		{
			name: "timeout too small",
			yaml: `
base_url: http://localhost
timeout: 10ms
`,
			wantErrLike: "timeout must be at least",
		},
		{
			name: "negative max failures",
			yaml: `
base_url: http://localhost
max_failures: -1
`,
			wantErrLike: "max_failures cannot be negative",
		},
		{
			name: "port too large",
			yaml: `
base_url: http://localhost
port: 70000
`,
			wantErrLike: "port must be between",
		},
		{
			name: "negative port",
			yaml: `
base_url: http://localhost
port: -1
`,
			wantErrLike: "port must be between",
		},
		{
			name: "empty file path",
			yaml: `
base_url: http://localhost
files:
  upload: ""
`,
			wantErrLike: "path is required",
		},
		{
			name: "bad log level",
			yaml: `
base_url: http://localhost
log:
  level: verbose
`,
			wantErrLike: "log.level",
		},
		{
			name: "bad log format",
			yaml: `
base_url: http://localhost
log:
  format: xml
`,
			wantErrLike: "log.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErrLike) {
				t.Errorf("Parse() error = %v, want error containing %q", err, tt.wantErrLike)
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("base_url: [unclosed"))
	if err == nil {
		t.Fatal("Parse() expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "failed to parse YAML") {
		t.Errorf("error = %v, want YAML parse error", err)
	}
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"seconds", "10s", 10 * time.Second, false},
		{"milliseconds", "1500ms", 1500 * time.Millisecond, false},
		{"minutes", "2m", 2 * time.Minute, false},
		{"combined", "1m30s", 90 * time.Second, false},
		{"invalid", "not-a-duration", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yaml := "base_url: http://localhost\npoll_interval: " + tt.input

			cfg, err := Parse([]byte(yaml))
			if tt.wantErr {
				if err == nil {
					t.Fatal("Parse() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if cfg.PollInterval.Duration() != tt.want {
				t.Errorf("PollInterval = %v, want %v", cfg.PollInterval.Duration(), tt.want)
			}
		})
	}
}

func TestParse_EnvVarSubstitution(t *testing.T) {
	t.Setenv("RW_BASE", "https://env.example.com")
	t.Setenv("RW_TOKEN", "secret")
	t.Setenv("RW_MODE", "thorough")

	yaml := `
base_url: ${RW_BASE}
headers:
  Authorization: Bearer ${RW_TOKEN}
fields:
  mode: ${RW_MODE}
  region: ${RW_REGION:-eu}
state_file: ${RW_STATE:-state.db}
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.BaseURL != "https://env.example.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Headers["Authorization"] != "Bearer secret" {
		t.Errorf("Authorization = %q", cfg.Headers["Authorization"])
	}
	if cfg.Fields["mode"] != "thorough" || cfg.Fields["region"] != "eu" {
		t.Errorf("Fields = %v", cfg.Fields)
	}
	if cfg.StateFile != "state.db" {
		t.Errorf("StateFile = %q", cfg.StateFile)
	}
}

func TestParse_EnvVarMissing(t *testing.T) {
	yaml := `
base_url: http://localhost
headers:
  Authorization: Bearer ${RW_DEFINITELY_UNSET_TOKEN}
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Parse() expected error for missing env var")
	}
	if !strings.Contains(err.Error(), "headers[Authorization]") {
		t.Errorf("error = %v, want it to name the header", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "value")
	t.Setenv("EMPTY_VAR", "") // set but empty

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"no vars", "plain text", "plain text", false},
		{"simple var", "${TEST_VAR}", "value", false},
		{"var in text", "prefix ${TEST_VAR} suffix", "prefix value suffix", false},
		{"multiple vars", "${TEST_VAR}-${TEST_VAR}", "value-value", false},
		{"with default (var set)", "${TEST_VAR:-default}", "value", false},
		{"with default (var unset)", "${UNSET:-default}", "default", false},
		{"missing required", "${MISSING}", "", true},
		{"empty default (var unset)", "${UNSET:-}", "", false},
		{"set but empty var", "${EMPTY_VAR}", "", false},
		{"set but empty with default", "${EMPTY_VAR:-fallback}", "", false}, // set var takes precedence
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// UNSET and MISSING are expected to not exist in environment
			got, err := expandEnvVars(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expandEnvVars() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expandEnvVars() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("expandEnvVars() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoad_ResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rw.yaml")
	if err := os.WriteFile(path, []byte("base_url: http://localhost\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := cfg.ResolvePath("in.txt"); got != filepath.Join(dir, "in.txt") {
		t.Errorf("ResolvePath(relative) = %q", got)
	}
	abs := filepath.Join(os.TempDir(), "x.txt")
	if got := cfg.ResolvePath(abs); got != abs {
		t.Errorf("ResolvePath(absolute) = %q, want %q", got, abs)
	}

	parsed, _ := Parse([]byte("base_url: http://localhost\n"))
	if got := parsed.ResolvePath("in.txt"); got != "in.txt" {
		t.Errorf("ResolvePath without file = %q, want unchanged", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Load() error = %v, want read error", err)
	}
}
