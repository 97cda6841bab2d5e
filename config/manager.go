package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"

	"github.com/satriahrh/cocoa-fruit/assistant/adapters/hasher"
	"github.com/satriahrh/cocoa-fruit/assistant/adapters/llm"
	"github.com/satriahrh/cocoa-fruit/assistant/adapters/storage/jsonfile"
	"github.com/satriahrh/cocoa-fruit/assistant/domain"
	"github.com/satriahrh/cocoa-fruit/assistant/utils/log"
	"go.uber.org/zap"
)

// GeneratorFactory builds a generator for a provider config.
type GeneratorFactory func(ctx context.Context, cfg domain.APIConfig) (domain.Generator, error)

// Manager owns the persisted provider credentials.
type Manager struct {
	mu     sync.RWMutex
	store  *jsonfile.Store[domain.APIConfig]
	config *domain.APIConfig
	hasher domain.Hasher

	newGenerator GeneratorFactory
}

// NewManager loads the credentials at path. An unreadable file is logged and
// treated as no configuration.
func NewManager(path string) *Manager {
	m := &Manager{
		store:        jsonfile.New[domain.APIConfig](path, 0o600),
		hasher:       hasher.New(),
		newGenerator: llm.NewGenerator,
	}
	m.reload()
	return m
}

func (m *Manager) Path() string { return m.store.Path() }

func (m *Manager) reload() {
	cfg, err := m.store.Load()

	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case err != nil:
		log.Logger().Warn("⚠️ Ignoring unreadable API config", zap.String("path", m.store.Path()), zap.Error(err))
		m.config = nil
	case cfg == (domain.APIConfig{}):
		m.config = nil
	default:
		m.config = &cfg
	}
}

// Config returns the current credentials; ok is false when none are stored.
func (m *Manager) Config() (cfg domain.APIConfig, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return domain.APIConfig{}, false
	}
	return *m.config, true
}

// Update validates cfg and persists it.
func (m *Manager) Update(cfg domain.APIConfig) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	if err := m.store.Save(cfg); err != nil {
		return fmt.Errorf("saving API config: %w", err)
	}

	m.mu.Lock()
	m.config = &cfg
	m.mu.Unlock()

	log.Logger().Info("💾 API config saved",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
		zap.String("key_fingerprint", hasher.Fingerprint(m.hasher, cfg.APIKey)))
	return nil
}

// Clear forgets and deletes the stored credentials.
func (m *Manager) Clear() error {
	m.mu.Lock()
	m.config = nil
	m.mu.Unlock()
	return m.store.Remove()
}

// Require returns the stored credentials, or a ConfigurationError when they
// are missing or invalid.
func (m *Manager) Require() (domain.APIConfig, error) {
	cfg, ok := m.Config()
	if !ok {
		return cfg, &domain.ConfigurationError{Err: fmt.Errorf("no API config at %s; run `assistant config set` first", m.Path())}
	}
	if err := Validate(cfg); err != nil {
		return cfg, &domain.ConfigurationError{Err: err}
	}
	return cfg, nil
}

func (m *Manager) HasValidConfig() bool {
	_, err := m.Require()
	return err == nil
}

// MaskedAPIKey returns the stored key masked for display.
func (m *Manager) MaskedAPIKey() string {
	cfg, _ := m.Config()
	return MaskAPIKey(cfg.APIKey)
}

// Fingerprint identifies the stored key in logs without revealing it.
func (m *Manager) Fingerprint() string {
	cfg, _ := m.Config()
	return hasher.Fingerprint(m.hasher, cfg.APIKey)
}

// MaskAPIKey keeps the first and last four characters of keys longer than
// eight characters and stars out shorter ones entirely.
func MaskAPIKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + "****" + key[len(key)-4:]
}

// Validate checks api_key, base_url, model and provider, in that order, and
// reports the first offending field. The mock provider needs neither key nor
// URL.
func Validate(cfg domain.APIConfig) error {
	mock := cfg.Provider == llm.ProviderMock
	if !mock && strings.TrimSpace(cfg.APIKey) == "" {
		return &domain.ValidationError{Field: "api_key", Reason: "must not be empty"}
	}
	if !mock {
		if err := ValidateBaseURL(cfg.BaseURL); err != nil {
			return err
		}
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return &domain.ValidationError{Field: "model", Reason: "must not be empty"}
	}
	if strings.TrimSpace(cfg.Provider) == "" {
		return &domain.ValidationError{Field: "provider", Reason: "must not be empty"}
	}
	return nil
}

// ValidateBaseURL accepts http(s) URLs whose host is localhost, an IP address
// or a dotted domain name.
func ValidateBaseURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return &domain.ValidationError{Field: "base_url", Reason: "must not be empty"}
	}
	invalid := &domain.ValidationError{Field: "base_url", Reason: fmt.Sprintf("%q is not a valid HTTP/HTTPS URL", raw)}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return invalid
	}
	host := u.Hostname()
	switch {
	case host == "":
		return invalid
	case host == "localhost", net.ParseIP(host) != nil:
		return nil
	case !strings.Contains(strings.Trim(host, "."), "."):
		return invalid
	}
	for _, label := range strings.Split(strings.TrimSuffix(host, "."), ".") {
		if label == "" || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return invalid
		}
	}
	return nil
}

// FromPreset builds credentials for a known provider. An empty model selects
// the preset default.
func FromPreset(provider, apiKey, model string) (domain.APIConfig, error) {
	preset, ok := Preset(provider)
	if !ok {
		return domain.APIConfig{}, &domain.ValidationError{
			Field:  "provider",
			Reason: fmt.Sprintf("unknown provider %q, choose one of %s", provider, strings.Join(presetNames(), ", ")),
		}
	}
	if model == "" {
		model = preset.DefaultModel
	}
	return domain.APIConfig{
		Provider: preset.Name,
		BaseURL:  preset.BaseURL,
		APIKey:   apiKey,
		Model:    model,
	}, nil
}

func Custom(baseURL, apiKey, model string) domain.APIConfig {
	return domain.APIConfig{
		Provider: ProviderCustom,
		BaseURL:  baseURL,
		APIKey:   apiKey,
		Model:    model,
	}
}

// TestConnection validates cfg and sends a one-word prompt. The returned
// error carries a user-facing explanation.
func (m *Manager) TestConnection(ctx context.Context, cfg domain.APIConfig) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	gen, err := m.newGenerator(ctx, cfg)
	if err != nil {
		return err
	}

	req := domain.GenerateRequest{
		Messages: []domain.ChatMessage{{Role: domain.UserRole, Content: "Hi"}},
		Model:    cfg.Model,
	}
	received := false
	for _, err := range gen.Stream(ctx, req) {
		if err != nil {
			return connectionError(cfg, err)
		}
		received = true
		break
	}
	if !received {
		return &domain.ConfigurationError{Err: errors.New("the API returned an empty response, please check the configuration")}
	}
	return nil
}

func connectionError(cfg domain.APIConfig, err error) error {
	msg := strings.ToLower(err.Error())
	var reason string
	switch {
	case strings.Contains(msg, "401") || strings.Contains(msg, "unauthorized"):
		reason = "the API key is invalid or expired"
	case strings.Contains(msg, "404") || strings.Contains(msg, "not found"):
		reason = fmt.Sprintf("model %q does not exist or is unavailable", cfg.Model)
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit"):
		reason = "the API rate limit was exceeded, please retry later"
	case strings.Contains(msg, "timeout") || errors.Is(err, context.DeadlineExceeded):
		reason = "the connection timed out, please check the network or the base URL"
	case strings.Contains(msg, "connection") || strings.Contains(msg, "no such host"):
		reason = fmt.Sprintf("cannot connect to %s", cfg.BaseURL)
	default:
		reason = "connection test failed"
	}
	return &domain.ConfigurationError{Err: fmt.Errorf("%s: %w", reason, err)}
}
