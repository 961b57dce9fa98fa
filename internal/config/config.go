// Package config holds run configuration: global settings resolved from
// defaults, environment, and CLI flags, plus named extraction targets
// loaded from a YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// Fetching
	FetchTimeout time.Duration
	NavTimeout   time.Duration
	UserAgent    string

	// Rate limiting (static sources)
	RateLimitRPS   float64
	RateLimitBurst int

	// Browser (interactive sources)
	Headless   bool
	ChromePath string

	// Run surface
	TargetsFile string
	ArchiveDir  string
}

// Load builds a Config from defaults, environment variables, and CLI flags,
// in that order of increasing precedence
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := &Config{
		LogLevel:       DefaultLogLevel,
		JSONLog:        DefaultJSONLog,
		FetchTimeout:   DefaultFetchTimeout,
		NavTimeout:     DefaultNavTimeout,
		UserAgent:      DefaultUserAgent,
		RateLimitRPS:   DefaultRateLimitRPS,
		RateLimitBurst: DefaultRateLimitBurst,
		Headless:       DefaultHeadless,
		TargetsFile:    DefaultTargetsFile,
	}

	if v := os.Getenv("HARVEST_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("HARVEST_CHROME_PATH"); v != "" {
		cfg.ChromePath = v
	}
	if v := os.Getenv("HARVEST_TARGETS"); v != "" {
		cfg.TargetsFile = v
	}
	if v := os.Getenv("HARVEST_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Headless = b
		}
	}

	if cmd != nil {
		if s := flagString(cmd, "user-agent"); s != "" {
			cfg.UserAgent = s
		}
		if s := flagString(cmd, "timeout"); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				cfg.FetchTimeout = d
			}
		}
		if s := flagString(cmd, "nav-timeout"); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				cfg.NavTimeout = d
			}
		}
		if s := flagString(cmd, "targets"); s != "" {
			cfg.TargetsFile = s
		}
		if s := flagString(cmd, "archive-dir"); s != "" {
			cfg.ArchiveDir = s
		}
		if flagString(cmd, "json") == "true" {
			cfg.JSONLog = true
		}
		if flagString(cmd, "verbose") == "true" {
			cfg.LogLevel = "debug"
		}
		if flagString(cmd, "quiet") == "true" {
			cfg.LogLevel = "error"
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func flagString(cmd *cobra.Command, name string) string {
	f := cmd.Flags().Lookup(name)
	if f == nil {
		return ""
	}
	return f.Value.String()
}
