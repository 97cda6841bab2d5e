package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/satriahrh/cocoa-fruit/assistant/config"
	"github.com/satriahrh/cocoa-fruit/assistant/domain"
	"github.com/spf13/cobra"
)

var (
	setProvider string
	setAPIKey   string
	setModel    string
	setBaseURL  string
	setSkipTest bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the LLM provider configuration",
	Long: `Manage the provider credentials stored in <data_dir>/config.json.

Available subcommands:
  show    - Show the current configuration (API key masked)
  set     - Configure a preset or custom provider
  presets - List the provider presets
  test    - Send a one-word prompt with the stored configuration
  clear   - Delete the stored configuration`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Configure the provider",
	Long: `Configure a provider preset or a custom OpenAI-compatible endpoint.

Examples:
  assistant config set --provider deepseek --api-key sk-...
  assistant config set --provider openai --api-key sk-... --model gpt-4o-mini
  assistant config set --provider custom --base-url http://localhost:11434/v1 --api-key x --model llama3
  assistant config set --provider mock --model echo`,
	RunE: runConfigSet,
}

var configPresetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the provider presets",
	RunE:  runConfigPresets,
}

var configTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Test the stored configuration",
	RunE:  runConfigTest,
}

var configClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the stored configuration",
	RunE:  runConfigClear,
}

func init() {
	configSetCmd.Flags().StringVar(&setProvider, "provider", "", "openai, deepseek, qwen, gemini, custom or mock")
	configSetCmd.Flags().StringVar(&setAPIKey, "api-key", "", "provider API key")
	configSetCmd.Flags().StringVar(&setModel, "model", "", "model name (default: the preset default)")
	configSetCmd.Flags().StringVar(&setBaseURL, "base-url", "", "API base URL (required for custom)")
	configSetCmd.Flags().BoolVar(&setSkipTest, "skip-test", false, "save without testing the connection")
	_ = configSetCmd.MarkFlagRequired("provider")

	configCmd.AddCommand(configShowCmd, configSetCmd, configPresetsCmd, configTestCmd, configClearCmd)
}

func newManager() *config.Manager {
	return config.NewManager(settings.ConfigPath())
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	m := newManager()
	out := cmd.OutOrStdout()

	cfg, ok := m.Config()
	if !ok {
		fmt.Fprintf(out, "No API config at %s. Run `assistant config set`.\n", m.Path())
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "File:\t%s\n", m.Path())
	fmt.Fprintf(w, "Provider:\t%s\n", cfg.Provider)
	fmt.Fprintf(w, "Base URL:\t%s\n", cfg.BaseURL)
	fmt.Fprintf(w, "Model:\t%s\n", cfg.Model)
	fmt.Fprintf(w, "API key:\t%s\n", m.MaskedAPIKey())
	status := "valid"
	if err := config.Validate(cfg); err != nil {
		status = err.Error()
	}
	fmt.Fprintf(w, "Status:\t%s\n", status)
	return w.Flush()
}

// buildConfig turns the set flags into a config.
func buildConfig(provider, apiKey, model, baseURL string) (domain.APIConfig, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	switch provider {
	case config.ProviderCustom:
		return config.Custom(baseURL, apiKey, model), nil
	case "mock":
		if model == "" {
			model = "echo"
		}
		return domain.APIConfig{Provider: provider, APIKey: apiKey, Model: model}, nil
	}

	cfg, err := config.FromPreset(provider, apiKey, model)
	if err != nil {
		return cfg, err
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return cfg, nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(setProvider, setAPIKey, setModel, setBaseURL)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	m := newManager()
	out := cmd.OutOrStdout()
	if !setSkipTest {
		fmt.Fprintf(out, "Testing %s (%s)...\n", cfg.Provider, cfg.Model)
		if err := testConnection(cmd.Context(), m, cfg); err != nil {
			return fmt.Errorf("%w (use --skip-test to save anyway)", err)
		}
		fmt.Fprintln(out, "Connection OK.")
	}

	if err := m.Update(cfg); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved to %s.\n", m.Path())
	return nil
}

func runConfigPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPROVIDER\tDEFAULT MODEL\tMODELS\tBASE URL")
	for _, p := range config.Presets() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.Name, p.DisplayName, p.DefaultModel, strings.Join(p.Models, ", "), p.BaseURL)
	}
	return w.Flush()
}

func runConfigTest(cmd *cobra.Command, args []string) error {
	m := newManager()
	cfg, err := m.Require()
	if err != nil {
		return err
	}
	if err := testConnection(cmd.Context(), m, cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Connection to %s (%s) OK.\n", cfg.Provider, cfg.Model)
	return nil
}

func runConfigClear(cmd *cobra.Command, args []string) error {
	m := newManager()
	if err := m.Clear(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s.\n", m.Path())
	return nil
}

func testConnection(ctx context.Context, m *config.Manager, cfg domain.APIConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return m.TestConnection(ctx, cfg)
}
