package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GOLKALA_"

// EnvString returns the value of an environment variable if set and non-empty.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

// EnvInt parses an integer environment variable.
func EnvInt(key string) (int, bool, error) {
	raw, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return value, true, nil
}

// EnvBool parses a boolean environment variable.
func EnvBool(key string) (bool, bool, error) {
	raw, ok := EnvString(key)
	if !ok {
		return false, false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("%s: %w", key, err)
	}
	return value, true, nil
}

// EnvDuration parses a time.Duration environment variable such as "500ms".
func EnvDuration(key string) (time.Duration, bool, error) {
	raw, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return value, true, nil
}

// ApplyEnv overlays GOLKALA_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	if value, ok, err := EnvInt(EnvPrefix + "MAX_PAGES"); err != nil {
		return err
	} else if ok {
		cfg.MaxPages = value
	}
	if value, ok, err := EnvDuration(EnvPrefix + "DELAY"); err != nil {
		return err
	} else if ok {
		cfg.Delay = value
	}
	if value, ok, err := EnvDuration(EnvPrefix + "TIMEOUT"); err != nil {
		return err
	} else if ok {
		cfg.Timeout = value
	}
	if value, ok := EnvString(EnvPrefix + "OUTPUT_DIR"); ok {
		cfg.OutputDir = value
	}
	if value, ok := EnvString(EnvPrefix + "FORMAT"); ok {
		cfg.OutputFormat = strings.ToLower(value)
	}
	if value, ok := EnvString(EnvPrefix + "USER_AGENT"); ok {
		cfg.UserAgent = value
	}
	if value, ok := EnvString(EnvPrefix + "METRICS_ADDR"); ok {
		cfg.MetricsAddr = value
	}
	if value, ok, err := EnvBool(EnvPrefix + "RESPECT_ROBOTS"); err != nil {
		return err
	} else if ok {
		cfg.RespectRobotsTxt = value
	}
	return nil
}
