/*
Package config manages TOML config for CountryServe.
*/
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bastiangx/countryserve/internal/utils"
	"github.com/bastiangx/countryserve/pkg/catalog"
	"github.com/bastiangx/countryserve/pkg/weather"
	"github.com/charmbracelet/log"
	"golang.org/x/text/language"
)

// APIKeyEnv overrides weather.api_key when set.
const APIKeyEnv = "OPENWEATHER_API_KEY"

// Config holds the entire config structure
type Config struct {
	Catalog CatalogConfig `toml:"catalog"`
	Weather WeatherConfig `toml:"weather"`
	CLI     CliConfig     `toml:"cli"`
}

// CatalogConfig has country source options.
type CatalogConfig struct {
	PrimaryURL     string `toml:"primary_url"`
	FallbackURL    string `toml:"fallback_url"`
	File           string `toml:"file"`
	Locale         string `toml:"locale"`
	Translation    string `toml:"translation"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// WeatherConfig holds weather service options. An empty APIKey disables
// weather lookups.
type WeatherConfig struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Units          string `toml:"units"`
	Lang           string `toml:"lang"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// CliConfig holds interactive interface options.
type CliConfig struct {
	DebounceMS int `toml:"debounce_ms"`
}

// Timeout returns the catalog request timeout.
func (c CatalogConfig) Timeout() time.Duration {
	return seconds(c.TimeoutSeconds, 12)
}

// Timeout returns the weather request timeout.
func (c WeatherConfig) Timeout() time.Duration {
	return seconds(c.TimeoutSeconds, 8)
}

// Enabled reports whether an API key is configured.
func (c WeatherConfig) Enabled() bool {
	return c.APIKey != ""
}

// QuietPeriod returns the debounce delay.
func (c CliConfig) QuietPeriod() time.Duration {
	if c.DebounceMS <= 0 {
		return 250 * time.Millisecond
	}
	return time.Duration(c.DebounceMS) * time.Millisecond
}

func seconds(n, def int) time.Duration {
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Second
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/
// 2. ~/Library/Application Support/ (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", "countryserve")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "countryserve")
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from -config flag
// 2. Default path: [UserConfigDir]/countryserve/config.toml
// 3. Builtin defaults
//
// The OPENWEATHER_API_KEY env var is applied on top of whichever was used.
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	config, path := loadWithPriority(customConfigPath)
	config.ApplyEnv()
	return config, path, nil
}

func loadWithPriority(customConfigPath string) (*Config, string) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), ""
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), ""
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			PrimaryURL:     catalog.DefaultPrimaryURL,
			FallbackURL:    catalog.DefaultFallbackURL,
			Locale:         "es",
			Translation:    "spa",
			TimeoutSeconds: 12,
		},
		Weather: WeatherConfig{
			BaseURL:        weather.DefaultBaseURL,
			Units:          "metric",
			Lang:           "es",
			TimeoutSeconds: 8,
		},
		CLI: CliConfig{
			DebounceMS: 250,
		},
	}
}

// ApplyEnv overrides values from the environment.
func (c *Config) ApplyEnv() {
	if key := os.Getenv(APIKeyEnv); key != "" {
		c.Weather.APIKey = key
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file. Values missing from the file keep
// their defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse keeps every well-typed value of a file that failed to
// decode into Config.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "catalog"); ok {
		extractCatalogConfig(section, &config.Catalog)
	}
	if section, ok := utils.ExtractSection(tempConfig, "weather"); ok {
		extractWeatherConfig(section, &config.Weather)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	return config, nil
}

func extractCatalogConfig(data map[string]any, c *CatalogConfig) {
	if val, ok := utils.ExtractString(data, "primary_url"); ok {
		c.PrimaryURL = val
	}
	if val, ok := utils.ExtractString(data, "fallback_url"); ok {
		c.FallbackURL = val
	}
	if val, ok := utils.ExtractString(data, "file"); ok {
		c.File = val
	}
	if val, ok := utils.ExtractString(data, "locale"); ok {
		c.Locale = val
	}
	if val, ok := utils.ExtractString(data, "translation"); ok {
		c.Translation = val
	}
	if val, ok := utils.ExtractInt64(data, "timeout_seconds"); ok {
		c.TimeoutSeconds = val
	}
}

func extractWeatherConfig(data map[string]any, w *WeatherConfig) {
	if val, ok := utils.ExtractString(data, "api_key"); ok {
		w.APIKey = val
	}
	if val, ok := utils.ExtractString(data, "base_url"); ok {
		w.BaseURL = val
	}
	if val, ok := utils.ExtractString(data, "units"); ok {
		w.Units = val
	}
	if val, ok := utils.ExtractString(data, "lang"); ok {
		w.Lang = val
	}
	if val, ok := utils.ExtractInt64(data, "timeout_seconds"); ok {
		w.TimeoutSeconds = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt64(data, "debounce_ms"); ok {
		cli.DebounceMS = val
	}
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		return "builtin defaults"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// Source builds the country source: the local file when one is set,
// restcountries otherwise.
func (c CatalogConfig) Source() catalog.Source {
	if c.File != "" {
		return catalog.FileSource{Path: c.File}
	}
	return catalog.NewRestCountries(c.PrimaryURL, c.FallbackURL, c.Timeout())
}

// LocaleTag parses Locale, falling back to Spanish.
func (c CatalogConfig) LocaleTag() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		log.Warnf("Invalid catalog locale %q: %v. Using es", c.Locale, err)
		return language.Spanish
	}
	return tag
}

// Options returns the catalog build options for this config.
func (c CatalogConfig) Options() []catalog.Option {
	return []catalog.Option{
		catalog.WithLocale(c.LocaleTag()),
		catalog.WithTranslation(c.Translation),
	}
}

// Client builds the weather client, or weather.Disabled without an API key.
func (c WeatherConfig) Client() weather.Client {
	if !c.Enabled() {
		return weather.Disabled{}
	}
	return weather.NewOpenWeather(c.APIKey, c.BaseURL, c.Units, c.Lang, c.Timeout())
}
