package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"endurance-coach/internal/analysis"
)

// DateLayout is the format of race dates in the config file
const DateLayout = "2006-01-02"

// Environment overrides applied by Load
const (
	EnvHTTPAddr = "COACH_HTTP_ADDR"
	EnvLogMode  = "COACH_LOG_MODE"
)

// Config represents the application configuration
type Config struct {
	Strava  StravaConfig  `json:"strava"`
	Athlete AthleteConfig `json:"athlete"`
	Race    RaceConfig    `json:"race"`
	Display DisplayConfig `json:"display"`
	Logging LoggingConfig `json:"logging"`
	HTTP    HTTPConfig    `json:"http"`
}

// StravaConfig holds Strava API credentials and the request budget for sync
type StravaConfig struct {
	ClientID     string          `json:"client_id"`
	ClientSecret string          `json:"client_secret"`
	RateLimit    RateLimitConfig `json:"rate_limit"`
}

// RateLimitConfig caps Strava requests. Apps approved for higher limits can
// raise them here.
type RateLimitConfig struct {
	FifteenMinute int `json:"fifteen_minute"`
	Daily         int `json:"daily"`
	MinIntervalMS int `json:"min_interval_ms"`
}

// MinInterval is the minimum spacing between requests
func (r RateLimitConfig) MinInterval() time.Duration {
	return time.Duration(r.MinIntervalMS) * time.Millisecond
}

// AthleteConfig holds athlete-specific settings
type AthleteConfig struct {
	// FTP in watts; 0 means unknown
	FTP         float64 `json:"ftp"`
	ThresholdHR float64 `json:"threshold_hr"`
	// MatchThreshold is the minimum score for an automatic session match
	MatchThreshold float64 `json:"match_threshold"`
}

// RaceConfig describes the target event
type RaceConfig struct {
	Name string `json:"name"`
	Date string `json:"date"` // YYYY-MM-DD
}

// DisplayConfig holds display preferences
type DisplayConfig struct {
	DistanceUnit string `json:"distance_unit"`
}

// LoggingConfig controls the zap logger
type LoggingConfig struct {
	Mode  string `json:"mode"`  // "dev" or "prod"
	Level string `json:"level"` // debug, info, warn, error
}

// HTTPConfig configures the serve command
type HTTPConfig struct {
	Addr string `json:"addr"`
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// ErrNoRace is returned when no race date is configured
var ErrNoRace = errors.New("no race date configured")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	params := analysis.DefaultParams()
	return Config{
		Strava: StravaConfig{
			RateLimit: RateLimitConfig{
				FifteenMinute: 100,
				Daily:         1000,
				MinIntervalMS: 150,
			},
		},
		Athlete: AthleteConfig{
			ThresholdHR:    params.ThresholdHeartRate,
			MatchThreshold: params.MatchThreshold,
		},
		Display: DisplayConfig{
			DistanceUnit: "km",
		},
		Logging: LoggingConfig{
			Mode:  "prod",
			Level: "info",
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}

// Load reads the configuration from ~/.coach/config.json
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the configuration from path, applying defaults and
// environment overrides
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

// applyDefaults fills in missing values
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Strava.RateLimit.FifteenMinute <= 0 {
		c.Strava.RateLimit.FifteenMinute = defaults.Strava.RateLimit.FifteenMinute
	}
	if c.Strava.RateLimit.Daily <= 0 {
		c.Strava.RateLimit.Daily = defaults.Strava.RateLimit.Daily
	}
	if c.Strava.RateLimit.MinIntervalMS <= 0 {
		c.Strava.RateLimit.MinIntervalMS = defaults.Strava.RateLimit.MinIntervalMS
	}
	if c.Athlete.ThresholdHR == 0 {
		c.Athlete.ThresholdHR = defaults.Athlete.ThresholdHR
	}
	if c.Athlete.MatchThreshold == 0 {
		c.Athlete.MatchThreshold = defaults.Athlete.MatchThreshold
	}
	if c.Display.DistanceUnit == "" {
		c.Display.DistanceUnit = defaults.Display.DistanceUnit
	}
	if c.Logging.Mode == "" {
		c.Logging.Mode = defaults.Logging.Mode
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = defaults.HTTP.Addr
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvHTTPAddr); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv(EnvLogMode); v != "" {
		c.Logging.Mode = v
	}
}

// Save writes the configuration to ~/.coach/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo writes the configuration to path
func SaveTo(path string, cfg *Config) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	example.Strava.ClientID = "YOUR_CLIENT_ID"
	example.Strava.ClientSecret = "YOUR_CLIENT_SECRET"
	example.Athlete.FTP = 250
	example.Race = RaceConfig{
		Name: "Spring Gran Fondo",
		Date: time.Now().AddDate(0, 3, 0).Format(DateLayout),
	}

	return SaveTo(path, &example)
}

// Validate checks if the config has required fields
func (c *Config) Validate() error {
	if c.Strava.ClientID == "" || c.Strava.ClientID == "YOUR_CLIENT_ID" {
		return errors.New("strava.client_id is required - get it from https://www.strava.com/settings/api")
	}
	if c.Strava.ClientSecret == "" || c.Strava.ClientSecret == "YOUR_CLIENT_SECRET" {
		return errors.New("strava.client_secret is required - get it from https://www.strava.com/settings/api")
	}
	return c.ValidateLocal()
}

// ValidateLocal checks everything except the Strava credentials.
// Commands that never talk to Strava only need this.
func (c *Config) ValidateLocal() error {
	// Validate display units
	if c.Display.DistanceUnit != "" && c.Display.DistanceUnit != "km" && c.Display.DistanceUnit != "mi" {
		return fmt.Errorf("display.distance_unit must be \"km\" or \"mi\", got %q", c.Display.DistanceUnit)
	}

	if c.Athlete.FTP < 0 {
		return fmt.Errorf("athlete.ftp must not be negative, got %v", c.Athlete.FTP)
	}
	if c.Athlete.ThresholdHR != 0 && (c.Athlete.ThresholdHR < 100 || c.Athlete.ThresholdHR > 220) {
		return fmt.Errorf("athlete.threshold_hr must be between 100 and 220, got %v", c.Athlete.ThresholdHR)
	}
	if c.Athlete.MatchThreshold < 0 || c.Athlete.MatchThreshold > 100 {
		return fmt.Errorf("athlete.match_threshold must be between 0 and 100, got %v", c.Athlete.MatchThreshold)
	}

	if c.Race.Date != "" {
		if _, err := time.Parse(DateLayout, c.Race.Date); err != nil {
			return fmt.Errorf("race.date must be YYYY-MM-DD, got %q", c.Race.Date)
		}
	}

	if c.Logging.Mode != "" && c.Logging.Mode != "dev" && c.Logging.Mode != "prod" {
		return fmt.Errorf("logging.mode must be \"dev\" or \"prod\", got %q", c.Logging.Mode)
	}

	return nil
}

// FTPPtr returns the FTP, or nil when it is unknown
func (a AthleteConfig) FTPPtr() *float64 {
	if a.FTP <= 0 {
		return nil
	}
	ftp := a.FTP
	return &ftp
}

// Params converts the athlete settings into engine parameters
func (a AthleteConfig) Params() analysis.Params {
	p := analysis.DefaultParams()
	if a.ThresholdHR > 0 {
		p.ThresholdHeartRate = a.ThresholdHR
	}
	if a.MatchThreshold > 0 {
		p.MatchThreshold = a.MatchThreshold
	}
	return p
}

// RaceDate parses the configured race date
func (r RaceConfig) RaceDate() (time.Time, error) {
	if r.Date == "" {
		return time.Time{}, ErrNoRace
	}
	d, err := time.Parse(DateLayout, r.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing race date: %w", err)
	}
	return d, nil
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".coach"), nil
}
