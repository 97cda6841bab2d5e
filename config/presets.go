package config

import (
	"sort"
	"strings"

	"github.com/satriahrh/cocoa-fruit/assistant/domain"
)

const ProviderCustom = "custom"

var presets = map[string]domain.ProviderPreset{
	"openai": {
		Name:         "openai",
		DisplayName:  "OpenAI",
		BaseURL:      "https://api.openai.com/v1",
		Models:       []string{"gpt-4", "gpt-4-turbo", "gpt-3.5-turbo", "gpt-4o", "gpt-4o-mini"},
		DefaultModel: "gpt-3.5-turbo",
	},
	"deepseek": {
		Name:         "deepseek",
		DisplayName:  "DeepSeek",
		BaseURL:      "https://api.deepseek.com/v1",
		Models:       []string{"deepseek-chat", "deepseek-coder", "deepseek-reasoner"},
		DefaultModel: "deepseek-chat",
	},
	"qwen": {
		Name:         "qwen",
		DisplayName:  "Qwen",
		BaseURL:      "https://dashscope.aliyuncs.com/compatible-mode/v1",
		Models:       []string{"qwen-turbo", "qwen-plus", "qwen-max", "qwen-long"},
		DefaultModel: "qwen-turbo",
	},
	"gemini": {
		Name:         "gemini",
		DisplayName:  "Google Gemini",
		BaseURL:      "https://generativelanguage.googleapis.com",
		Models:       []string{"gemini-2.0-flash-001", "gemini-2.0-flash-lite", "gemini-1.5-pro"},
		DefaultModel: "gemini-2.0-flash-001",
	},
}

// Presets returns every known provider, sorted by name.
func Presets() []domain.ProviderPreset {
	out := make([]domain.ProviderPreset, 0, len(presets))
	for _, p := range presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func Preset(name string) (domain.ProviderPreset, bool) {
	p, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

func presetNames() []string {
	names := make([]string, 0, len(presets))
	for _, p := range Presets() {
		names = append(names, p.Name)
	}
	return names
}
