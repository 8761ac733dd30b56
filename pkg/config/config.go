package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/text/language"

	"github.com/harrisonrobin/tempo/pkg/storage"
)

const (
	xdgAppName = "tempo"
	configFile = "config.json"

	DefaultCalendar = "Time"
	DefaultLocale   = "uk"
)

type Config struct {
	Calendar   string `json:"calendar,omitempty"`
	Locale     string `json:"locale,omitempty"`
	DBPath     string `json:"db_path,omitempty"`
	LegacyPath string `json:"legacy_path,omitempty"`
}

// Dir returns the directory holding config, tokens, caches and the task database.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the config file, filling defaults for anything unset.
// A missing file is not an error.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return loadFrom(path)
}

func loadFrom(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyDefaults(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readFile returns the config exactly as stored, without defaults.
func readFile(path string) (*Config, error) {
	cfg := &Config{}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults(dir string) error {
	if c.Calendar == "" {
		c.Calendar = DefaultCalendar
	}
	if c.Locale == "" {
		c.Locale = DefaultLocale
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("invalid locale %q in config: %w", c.Locale, err)
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(dir, "tasks.db")
	}
	if c.LegacyPath == "" {
		c.LegacyPath = filepath.Join(dir, storage.LegacyKey+".json")
	}
	return nil
}

// Lang returns the configured locale as a language tag.
func (c *Config) Lang() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.Ukrainian
	}
	return tag
}

// SetCalendar stores name as the sync calendar. Other fields are written back as the user
// left them, so unset paths keep following the defaults.
func SetCalendar(name string) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return setCalendarAt(path, name)
}

func setCalendarAt(path, name string) error {
	cfg, err := readFile(path)
	if err != nil {
		return err
	}
	cfg.Calendar = name
	return saveTo(path, cfg)
}

func saveTo(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}
