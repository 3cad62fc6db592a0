// Package config centralizes the defaults and environment overrides shared
// by the simstrobe and simmatch command-line entry points.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Defaults holds the knobs both CLIs fall back to when a flag isn't given
// explicitly. Values can be overridden by a .env file in the project root
// or by environment variables, in that order, with explicit flags always
// winning over both.
type Defaults struct {
	IgnoreSize        int
	HostMetricsPeriod int // seconds
	StatusAddr        string
}

var (
	loaded       *Defaults
	loadedOnce   bool
)

// DefaultIgnoreSize is the matcher's cutoff when the ignore_size argument
// is omitted.
const DefaultIgnoreSize = 30

// DefaultHostMetricsPeriod is the sampling period, in seconds, used by
// internal/hoststats when -host-metrics is enabled without a custom value.
const DefaultHostMetricsPeriod = 5

// Load reads .env overrides (if present) and environment variables into a
// Defaults value. Safe to call repeatedly; the result is cached.
func Load() *Defaults {
	if loaded != nil && loadedOnce {
		return loaded
	}

	d := &Defaults{
		IgnoreSize:        DefaultIgnoreSize,
		HostMetricsPeriod: DefaultHostMetricsPeriod,
	}

	if root := findProjectRoot(); root != "" {
		if data, err := os.ReadFile(filepath.Join(root, ".env")); err == nil {
			applyEnvFile(string(data), d)
		}
	}

	if v := os.Getenv("SIMALIGN_IGNORE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			d.IgnoreSize = n
		}
	}
	if v := os.Getenv("SIMALIGN_HOST_METRICS_PERIOD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			d.HostMetricsPeriod = n
		}
	}
	if v := os.Getenv("SIMALIGN_STATUS_ADDR"); v != "" {
		d.StatusAddr = v
	}

	loaded = d
	loadedOnce = true
	return d
}

func applyEnvFile(content string, d *Defaults) {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		switch key {
		case "SIMALIGN_IGNORE_SIZE":
			if n, err := strconv.Atoi(value); err == nil {
				d.IgnoreSize = n
			}
		case "SIMALIGN_HOST_METRICS_PERIOD":
			if n, err := strconv.Atoi(value); err == nil {
				d.HostMetricsPeriod = n
			}
		case "SIMALIGN_STATUS_ADDR":
			d.StatusAddr = value
		}
	}
}

func findProjectRoot() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	if _, err := os.Stat(filepath.Join(cwd, ".env")); err == nil {
		return cwd
	}
	for {
		if _, err := os.Stat(filepath.Join(cwd, "go.mod")); err == nil {
			return cwd
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			return ""
		}
		cwd = parent
	}
}

// ValidateStatusAddr rejects an obviously malformed "host:port" bind
// address before the status server attempts to listen on it.
func ValidateStatusAddr(addr string) error {
	if addr == "" {
		return nil
	}
	if !strings.Contains(addr, ":") {
		return fmt.Errorf("status addr %q must be of the form host:port", addr)
	}
	return nil
}
