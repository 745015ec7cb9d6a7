package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// fileValues holds a YAML config file flattened to dotted keys
// ("llm.model", "ocr.languages").
type fileValues map[string]any

func loadFile(path string) (fileValues, error) {
	if path == "" {
		return fileValues{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	out := fileValues{}
	flatten("", raw, out)
	return out, nil
}

func flatten(prefix string, in map[string]any, out fileValues) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = v
	}
}

func (f fileValues) str(key, fallback string) string {
	switch v := f[key].(type) {
	case string:
		if v != "" {
			return v
		}
	case int, float64, bool:
		return fmt.Sprint(v)
	}
	return fallback
}

func (f fileValues) int(key string, fallback int) int {
	switch v := f[key].(type) {
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func (f fileValues) int64(key string, fallback int64) int64 {
	switch v := f[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func (f fileValues) float(key string, fallback float64) float64 {
	switch v := f[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

func (f fileValues) bool(key string, fallback bool) bool {
	if v, ok := f[key].(bool); ok {
		return v
	}
	return fallback
}

func (f fileValues) duration(key string, fallback time.Duration) time.Duration {
	if v, ok := f[key].(string); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func (f fileValues) list(key string, fallback []string) []string {
	items, ok := f[key].([]any)
	if !ok {
		return fallback
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
