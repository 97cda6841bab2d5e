package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"

	DefaultSettingsFile = "assistant.yaml"
)

// Settings are the process-level options of the assistant. Provider
// credentials live separately, see Manager.
type Settings struct {
	Addr           string  `yaml:"addr"`
	DataDir        string  `yaml:"data_dir"`
	HistoryBackend string  `yaml:"history_backend"`
	WeatherURL     string  `yaml:"weather_url"`
	ForecastDays   int     `yaml:"forecast_days"`
	RateLimit      float64 `yaml:"rate_limit"`
	Debug          bool    `yaml:"debug"`
	Voice          Voice   `yaml:"voice"`
	Tokens         Tokens  `yaml:"tokens"`
}

type Voice struct {
	Enabled         bool   `yaml:"enabled"`
	LanguageCode    string `yaml:"language_code"`
	SampleRateHertz int32  `yaml:"sample_rate_hertz"`
}

// Tokens bounds the prompt sent with each turn. A zero limit disables the
// bound.
type Tokens struct {
	Encoding string `yaml:"encoding"`
	Limit    int    `yaml:"limit"`
}

func DefaultSettings() Settings {
	return Settings{
		Addr:           ":8080",
		DataDir:        "data",
		HistoryBackend: BackendJSON,
		WeatherURL:     "https://wttr.in",
		ForecastDays:   5,
		RateLimit:      20,
		Voice: Voice{
			LanguageCode:    "en-US",
			SampleRateHertz: 16000,
		},
		Tokens: Tokens{
			Encoding: "cl100k_base",
			Limit:    6000,
		},
	}
}

// LoadSettings reads path over the defaults and then applies environment
// overrides. An empty path reads assistant.yaml when it exists.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	explicit := path != ""
	if !explicit {
		path = DefaultSettingsFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return s, fmt.Errorf("read %s: %w", path, err)
	}

	if err := s.applyEnv(os.LookupEnv); err != nil {
		return s, err
	}
	s.HistoryBackend = strings.ToLower(s.HistoryBackend)
	return s, s.Validate()
}

func (s *Settings) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
		return nil
	}

	str("ASSISTANT_ADDR", &s.Addr)
	str("ASSISTANT_DATA_DIR", &s.DataDir)
	str("ASSISTANT_HISTORY_BACKEND", &s.HistoryBackend)
	str("ASSISTANT_WEATHER_URL", &s.WeatherURL)
	if err := boolean("ASSISTANT_VOICE", &s.Voice.Enabled); err != nil {
		return err
	}
	return boolean("DEBUG", &s.Debug)
}

func (s Settings) Validate() error {
	switch s.HistoryBackend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("history_backend must be %q or %q, got %q", BackendJSON, BackendSQLite, s.HistoryBackend)
	}
	if s.DataDir == "" {
		return errors.New("data_dir must not be empty")
	}
	if s.ForecastDays < 1 || s.ForecastDays > 7 {
		return fmt.Errorf("forecast_days must be between 1 and 7, got %d", s.ForecastDays)
	}
	if s.Tokens.Limit < 0 {
		return fmt.Errorf("tokens.limit must not be negative, got %d", s.Tokens.Limit)
	}
	return nil
}

func (s Settings) ConfigPath() string {
	return filepath.Join(s.DataDir, "config.json")
}

func (s Settings) HistoryPath() string {
	return filepath.Join(s.DataDir, "weather_history.json")
}

func (s Settings) DatabasePath() string {
	return filepath.Join(s.DataDir, "assistant.db")
}
