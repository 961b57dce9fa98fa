package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel       = "info"
	DefaultJSONLog        = false
	DefaultUserAgent      = "Harvest/0.1 (https://github.com/page-harvest/harvest)"
	DefaultFetchTimeout   = 30 * time.Second
	DefaultNavTimeout     = 20 * time.Second
	DefaultRateLimitRPS   = 5.0
	DefaultRateLimitBurst = 10
	DefaultHeadless       = true
	DefaultTargetsFile    = "targets.yaml"
)
