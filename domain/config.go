package domain

// APIConfig holds the generation provider credentials.
type APIConfig struct {
	Provider string `json:"provider"`
	BaseURL  string `json:"base_url"`
	APIKey   string `json:"api_key"`
	Model    string `json:"model"`
}

// ProviderPreset describes a known provider and its models.
type ProviderPreset struct {
	Name         string   `json:"name"`
	DisplayName  string   `json:"display_name"`
	BaseURL      string   `json:"base_url"`
	Models       []string `json:"models"`
	DefaultModel string   `json:"default_model"`
}
