package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stwalsh4118/tnb/internal/fiscal"
	"github.com/stwalsh4118/tnb/internal/workflow"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Log      LogConfig
	Fiscal   fiscal.Policy
	Workflow workflow.Policy
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	PoolMin  int
	PoolMax  int
	// AutoMigrate creates missing tables at startup.
	AutoMigrate bool
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string
}

// Load reads configuration from environment variables and, when
// FISCAL_POLICY_FILE is set, the fiscal/workflow policy file it points to.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range envDefaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{Port: v.GetString("PORT"), Env: v.GetString("ENV")},
		Database: DatabaseConfig{
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetString("DB_PORT"),
			Name:        v.GetString("DB_NAME"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASSWORD"),
			SSLMode:     v.GetString("DB_SSLMODE"),
			PoolMin:     v.GetInt("DB_POOL_MIN"),
			PoolMax:     v.GetInt("DB_POOL_MAX"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		CORS:     CORSConfig{Origins: parseOrigins(v.GetString("CORS_ORIGINS"))},
		Log:      LogConfig{Level: v.GetString("LOG_LEVEL")},
		Fiscal:   fiscal.DefaultPolicy(),
		Workflow: workflow.DefaultPolicy(),
	}

	if path := v.GetString("FISCAL_POLICY_FILE"); path != "" {
		if err := loadPolicyFile(path, cfg); err != nil {
			return nil, err
		}
	}

	// Environment overrides win over the policy file
	overrides := []struct {
		key    string
		target *decimal.Decimal
	}{
		{key: "INDIVISION_TOLERANCE", target: &cfg.Fiscal.ShareTolerance},
		{key: "MAX_TAXABLE_SURFACE", target: &cfg.Fiscal.MaxSurface},
	}
	for _, o := range overrides {
		raw := v.GetString(o.key)
		if raw == "" {
			continue
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", o.key, err)
		}
		*o.target = value
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// envDefaults are the development defaults. DB_PASSWORD has none.
var envDefaults = map[string]interface{}{
	"PORT":                 "8080",
	"ENV":                  "development",
	"LOG_LEVEL":            "",
	"DB_HOST":              "localhost",
	"DB_PORT":              "5432",
	"DB_NAME":              "tnb",
	"DB_USER":              "postgres",
	"DB_SSLMODE":           "disable",
	"DB_POOL_MIN":          2,
	"DB_POOL_MAX":          10,
	"DB_AUTO_MIGRATE":      false,
	"CORS_ORIGINS":         "http://localhost:4200",
	"FISCAL_POLICY_FILE":   "",
	"INDIVISION_TOLERANCE": "",
	"MAX_TAXABLE_SURFACE":  "",
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var problems []error

	required := []struct {
		key   string
		value string
	}{
		{"PORT", c.Server.Port},
		{"DB_HOST", c.Database.Host},
		{"DB_PORT", c.Database.Port},
		{"DB_NAME", c.Database.Name},
		{"DB_USER", c.Database.User},
		{"DB_PASSWORD", c.Database.Password},
	}
	for _, r := range required {
		if r.value == "" {
			problems = append(problems, fmt.Errorf("%s is required", r.key))
		}
	}

	switch {
	case c.Database.PoolMin < 0:
		problems = append(problems, fmt.Errorf("DB_POOL_MIN must not be negative, got %d", c.Database.PoolMin))
	case c.Database.PoolMax < 1:
		problems = append(problems, fmt.Errorf("DB_POOL_MAX must be positive, got %d", c.Database.PoolMax))
	case c.Database.PoolMin > c.Database.PoolMax:
		problems = append(problems, fmt.Errorf("DB_POOL_MIN (%d) exceeds DB_POOL_MAX (%d)", c.Database.PoolMin, c.Database.PoolMax))
	}

	if len(c.CORS.Origins) == 0 {
		problems = append(problems, errors.New("CORS_ORIGINS needs at least one origin"))
	}
	if err := c.Fiscal.Validate(); err != nil {
		problems = append(problems, fmt.Errorf("fiscal policy: %w", err))
	}
	if err := c.Workflow.Validate(); err != nil {
		problems = append(problems, fmt.Errorf("workflow policy: %w", err))
	}

	return errors.Join(problems...)
}

// parseOrigins reads a comma-separated origin list, dropping blanks.
func parseOrigins(origins string) []string {
	result := []string{}
	for _, origin := range strings.Split(origins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			result = append(result, origin)
		}
	}
	return result
}
