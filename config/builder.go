package config

import (
	"fmt"
	"sort"

	"github.com/jpalmerr/resultwatch"
	"github.com/jpalmerr/resultwatch/form"
)

// WatcherOptions converts parsed configuration into SDK options.
//
// The caller adds pages, logger and callbacks.
func WatcherOptions(cfg *Config) []resultwatch.Option {
	opts := []resultwatch.Option{
		resultwatch.WithBaseURL(cfg.BaseURL),
		resultwatch.WithSubmitPath(cfg.SubmitPath),
		resultwatch.WithResultsPath(cfg.ResultsPath),
		resultwatch.WithPollInterval(cfg.PollInterval.Duration()),
		resultwatch.WithRequestTimeout(cfg.Timeout.Duration()),
		resultwatch.WithMessageField(cfg.MessageField),
		resultwatch.WithResultsField(cfg.ResultsField),
		resultwatch.WithMaxFailures(cfg.MaxFailures),
	}

	if len(cfg.Headers) > 0 {
		opts = append(opts, resultwatch.WithHeaders(mapToKeyValuePairs(cfg.Headers)...))
	}

	return opts
}

// BuildForm creates the submission form from the configured fields and files.
//
// Fields are added in key order, then files. Every file is read now so a
// missing file fails before anything is submitted.
func BuildForm(cfg *Config) (*form.Form, error) {
	f := form.New()

	for _, k := range sortedKeys(cfg.Fields) {
		f.Add(k, cfg.Fields[k])
	}

	for _, k := range sortedKeys(cfg.Files) {
		if err := f.AddFileFromPath(k, cfg.ResolvePath(cfg.Files[k])); err != nil {
			return nil, fmt.Errorf("files[%s]: %w", k, err)
		}
	}

	return f, nil
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	keys := sortedKeys(m)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}

// sortedKeys returns the keys of m in deterministic order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
