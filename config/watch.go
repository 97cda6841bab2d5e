package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/satriahrh/cocoa-fruit/assistant/domain"
	"github.com/satriahrh/cocoa-fruit/assistant/utils/log"
	"go.uber.org/zap"
)

const watchDebounce = 200 * time.Millisecond

// Watch reloads the credentials whenever the config file changes on disk and
// calls onChange with the new state. It blocks until ctx is done.
func (m *Manager) Watch(ctx context.Context, onChange func(cfg domain.APIConfig, ok bool)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Editors replace files by rename, so watch the directory.
	dir := filepath.Dir(m.Path())
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	target := filepath.Clean(m.Path())

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			debounce = time.After(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Logger().Warn("⚠️ Config watcher error", zap.Error(err))
		case <-debounce:
			debounce = nil
			m.reload()
			cfg, ok := m.Config()
			log.Logger().Info("🔄 API config reloaded", zap.Bool("configured", ok), zap.String("provider", cfg.Provider))
			if onChange != nil {
				onChange(cfg, ok)
			}
		}
	}
}
