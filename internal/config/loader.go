package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Load reads configuration from environment variables, applies defaults
// and validates the result. Every malformed variable is reported, not just
// the first.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := errors.Join(loadStruct(reflect.ValueOf(cfg).Elem())...); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct populates the tagged fields of v, descending into nested
// config sections.
func loadStruct(v reflect.Value) []error {
	var errs []error
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)
		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			errs = append(errs, loadStruct(fieldVal)...)
			continue
		}

		name, value, ok := lookupEnv(field.Tag)
		if !ok {
			continue
		}
		if value == "" {
			if field.Tag.Get("required") == "true" {
				errs = append(errs, fmt.Errorf("%s is required", name))
			}
			continue
		}
		if err := setField(fieldVal, value); err != nil {
			errs = append(errs, fmt.Errorf("%s=%q: %w", name, value, err))
		}
	}

	return errs
}

// lookupEnv resolves the value of a tagged field: the env variable, then
// envAlt, then the default. ok is false for untagged fields.
func lookupEnv(tag reflect.StructTag) (name, value string, ok bool) {
	name = tag.Get("env")
	if name == "" {
		return "", "", false
	}
	value = os.Getenv(name)
	if alt := tag.Get("envAlt"); value == "" && alt != "" {
		value = os.Getenv(alt)
	}
	if value == "" {
		value = tag.Get("default")
	}
	return name, value, true
}

func setField(field reflect.Value, value string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(n)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem())
		}
		// Comma-separated, blanks dropped.
		var items []string
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				items = append(items, p)
			}
		}
		field.Set(reflect.ValueOf(items))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Database validation
	validDrivers := map[string]bool{"postgres": true, "sqlite": true}
	if !validDrivers[strings.ToLower(c.Database.Driver)] {
		errs = append(errs, fmt.Sprintf("DB_DRIVER (%q) must be one of: postgres, sqlite", c.Database.Driver))
	}
	if c.Database.MaxConns < c.Database.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
			c.Database.MaxConns, c.Database.MinConns))
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.Database.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Data.ReloadInterval < 0 {
		errs = append(errs, "DATA_RELOAD_INTERVAL must be non-negative")
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "SERVER_RATE_LIMIT must be non-negative")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "SERVER_REQUEST_TIMEOUT must be positive")
	}

	// Data validation
	if c.Data.EmissionsPath == "" && !c.Database.Enabled() {
		errs = append(errs, "DATA_EMISSIONS_PATH is required when no DATABASE_URL is configured")
	}
	validFormats := map[string]bool{"raw": true, "normalized": true, "annotated": true}
	if !validFormats[c.Data.Format] {
		errs = append(errs, fmt.Sprintf("DATA_FORMAT (%q) must be one of: raw, normalized, annotated", c.Data.Format))
	}
	if c.Data.Format != "annotated" && c.Data.EmissionsPath != "" && c.Data.ContinentsPath == "" {
		errs = append(errs, "DATA_CONTINENTS_PATH is required unless DATA_FORMAT is annotated")
	}
	validPolicies := map[string]bool{"keep-first": true, "overwrite": true}
	if !validPolicies[c.Data.MergePolicy] {
		errs = append(errs, fmt.Sprintf("DATA_MERGE_POLICY (%q) must be one of: keep-first, overwrite", c.Data.MergePolicy))
	}
	validTracking := map[string]bool{"faithful": true, "corrected": true}
	if !validTracking[c.Data.YearTracking] {
		errs = append(errs, fmt.Sprintf("DATA_YEAR_TRACKING (%q) must be one of: faithful, corrected", c.Data.YearTracking))
	}

	// Ranking validation
	if c.Ranking.TopN <= 0 {
		errs = append(errs, "RANKING_TOP_N must be positive")
	}
	if c.Ranking.MaxTopN < c.Ranking.TopN {
		errs = append(errs, fmt.Sprintf("RANKING_MAX_TOP_N (%d) must be >= RANKING_TOP_N (%d)",
			c.Ranking.MaxTopN, c.Ranking.TopN))
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validLogFormats := map[string]bool{"text": true, "json": true}
	if !validLogFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// Sensitive values like database URLs are masked.
func (c *Config) String() string {
	dbURL := ""
	if c.Database.Enabled() {
		dbURL = "[MASKED]"
	}

	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Database: {Driver: %q, URL: %s, MaxConns: %d, MinConns: %d}, ",
		c.Database.Driver, dbURL, c.Database.MaxConns, c.Database.MinConns))
	b.WriteString(fmt.Sprintf("Data: {Emissions: %q, Continents: %q, Format: %q, Merge: %q, Years: %q}, ",
		c.Data.EmissionsPath, c.Data.ContinentsPath, c.Data.Format, c.Data.MergePolicy, c.Data.YearTracking))
	b.WriteString(fmt.Sprintf("Ranking: {TopN: %d}, Metrics: {Enabled: %v}, ",
		c.Ranking.TopN, c.Metrics.Enabled))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
