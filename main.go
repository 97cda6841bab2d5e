package main

import (
	"fmt"
	"os"

	"github.com/satriahrh/cocoa-fruit/assistant/config"
	"github.com/satriahrh/cocoa-fruit/assistant/utils/log"
	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
)

var (
	// Global flags
	settingsPath string
	debug        bool

	settings config.Settings
)

var rootCmd = &cobra.Command{
	Use:   "assistant",
	Short: "Personal assistant: weather, career planning and chat",
	Long: `assistant is a conversational front-end with three skills:

  - weather lookups with a remembered history of queried cities
  - a six-stage career planning interview ending in a generated report
  - general chat streamed from the configured LLM provider

Run "assistant config set" once, then "assistant serve" and "assistant chat".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = gotenv.Load()

		s, err := config.LoadSettings(settingsPath)
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		if debug {
			s.Debug = true
		}
		if s.Debug {
			l, err := zap.NewDevelopment()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			log.SetLogger(l)
		}
		settings = s
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Logger().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "settings file (default ./"+config.DefaultSettingsFile+" when present)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable development logging")

	rootCmd.AddCommand(serveCmd, chatCmd, configCmd, historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
