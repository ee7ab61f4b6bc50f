// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App    AppConfig
	Logger LoggerConfig
	Data   DataConfig
	Server ServerConfig
	Form   FormConfig
	Image  ImageConfig
	Auth   AuthConfig
	Upload UploadConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds storage configuration.
type DataConfig struct {
	// BasePath is the directory holding the catalog database, the search
	// index, and saved product images.
	BasePath string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 120s, uploads included)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	CORSOrigins  []string      // Allowed admin SPA origins
}

// FormConfig holds form session timing configuration.
type FormConfig struct {
	// DebounceInterval delays non-gating field validation until input quiesces.
	DebounceInterval time.Duration
	// DraftSaveInterval is the autosave cadence for create-mode drafts.
	DraftSaveInterval time.Duration
	// DraftRetention is how long an unsaved draft survives before expiry.
	DraftRetention time.Duration
	// SubmitTimeoutCreate bounds the create upload, which carries the image.
	SubmitTimeoutCreate time.Duration
	// SubmitTimeoutEdit bounds the edit save.
	SubmitTimeoutEdit time.Duration
	// SessionIdleTimeout evicts abandoned form sessions.
	SessionIdleTimeout time.Duration
}

// ImageConfig holds image ingestion limits.
type ImageConfig struct {
	MaxUploadBytes    int64   // Upload ceiling for product images (default: 8 MiB)
	MaxSlideBytes     int64   // Upload ceiling for hero slide images (default: 5 MiB)
	CompressThreshold int64   // Files above this are compressed client-equivalent (default: 2 MiB)
	MaxEdge           int     // Longest edge after compression (default: 1920)
	Quality           float64 // JPEG re-encode quality (default: 0.85)
}

// AuthConfig holds admin authentication configuration.
type AuthConfig struct {
	// TokenKey is the PASETO v4 symmetric key as a 64-char hex string.
	// Generated and persisted under the data path when empty.
	TokenKey      string
	TokenDuration time.Duration
	// AdminEmail and AdminPasswordHash identify the single admin account.
	AdminEmail        string
	AdminPasswordHash string
}

// UploadConfig holds rate limiting for the image upload endpoint.
type UploadConfig struct {
	RPS   float64 // Uploads per second per session
	Burst int
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for catalog data")
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 120s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := flag.String("cors-origins", "", "Comma-separated allowed origins")
	tokenDuration := flag.String("token-duration", "", "Admin token lifetime (default: 12h)")
	envFile := flag.String("env-file", ".env", "Path to .env file")
	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			CORSOrigins: splitOrigins(getConfigValue(*corsOrigins, "CORS_ORIGINS", "http://localhost:5173")),
		},
		Image: ImageConfig{
			MaxUploadBytes:    getInt64ConfigValue("", "IMAGE_MAX_UPLOAD_BYTES", 8<<20),
			MaxSlideBytes:     getInt64ConfigValue("", "IMAGE_MAX_SLIDE_BYTES", 5<<20),
			CompressThreshold: getInt64ConfigValue("", "IMAGE_COMPRESS_THRESHOLD", 2<<20),
			MaxEdge:           getIntConfigValue("", "IMAGE_MAX_EDGE", 1920),
			Quality:           0.85,
		},
		Auth: AuthConfig{
			TokenKey:          getConfigValue("", "AUTH_TOKEN_KEY", ""),
			AdminEmail:        getConfigValue("", "ADMIN_EMAIL", "admin@localhost"),
			AdminPasswordHash: getConfigValue("", "ADMIN_PASSWORD_HASH", ""),
		},
		Upload: UploadConfig{
			RPS:   1,
			Burst: 3,
		},
	}

	// Parse durations with defaults.
	var err error
	if cfg.Server.ReadTimeout, err = parseDurationValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = parseDurationValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "120s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = parseDurationValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.Auth.TokenDuration, err = parseDurationValue(*tokenDuration, "AUTH_TOKEN_DURATION", "12h"); err != nil {
		return nil, err
	}
	if cfg.Form.DebounceInterval, err = parseDurationValue("", "FORM_DEBOUNCE_INTERVAL", "275ms"); err != nil {
		return nil, err
	}
	if cfg.Form.DraftSaveInterval, err = parseDurationValue("", "FORM_DRAFT_SAVE_INTERVAL", "2s"); err != nil {
		return nil, err
	}
	if cfg.Form.DraftRetention, err = parseDurationValue("", "FORM_DRAFT_RETENTION", "168h"); err != nil {
		return nil, err
	}
	if cfg.Form.SubmitTimeoutCreate, err = parseDurationValue("", "FORM_SUBMIT_TIMEOUT_CREATE", "90s"); err != nil {
		return nil, err
	}
	if cfg.Form.SubmitTimeoutEdit, err = parseDurationValue("", "FORM_SUBMIT_TIMEOUT_EDIT", "30s"); err != nil {
		return nil, err
	}
	if cfg.Form.SessionIdleTimeout, err = parseDurationValue("", "FORM_SESSION_IDLE_TIMEOUT", "2h"); err != nil {
		return nil, err
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if c.Image.CompressThreshold > c.Image.MaxUploadBytes {
		return errors.New("image compress threshold cannot exceed the upload ceiling")
	}

	if c.Form.DraftRetention <= 0 {
		return errors.New("draft retention must be positive")
	}

	return nil
}

// expandDataPath expands ~ and makes the path absolute.
// Defaults to ~/Bloomery/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Bloomery", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

func splitOrigins(value string) []string {
	var origins []string
	for _, origin := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getInt64ConfigValue returns an int64 from flag, env var, or default.
func getInt64ConfigValue(flagValue, envKey string, defaultValue int64) int64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int64
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// parseDurationValue resolves a duration with flag > env > default precedence.
func parseDurationValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, strValue, err)
	}
	return d, nil
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
// Existing environment variables are never overwritten.
func loadEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close() //nolint:errcheck // Read-only file

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if os.Getenv(key) == "" {
			_ = os.Setenv(key, value) //nolint:errcheck // Best effort
		}
	}

	return scanner.Err()
}
