package config

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// WatchTerminals loads terminals.yaml, calls onUpdate, then polls the file's
// mtime and calls onUpdate again after every successful reload. Invalid
// edits are logged and the previous catalogue stays in effect.
func WatchTerminals(
	ctx context.Context,
	path string,
	interval time.Duration,
	logger *zerolog.Logger,
	onUpdate func(*TerminalsConfig),
) error {
	if path == "" {
		path = DefaultTerminalsPath
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	cfg, err := LoadTerminalsConfig(path)
	if err != nil {
		return err
	}
	if onUpdate != nil {
		onUpdate(cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	lastMod := info.ModTime()

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				info, err := os.Stat(path)
				if err != nil {
					continue // transient errors
				}
				if !info.ModTime().After(lastMod) {
					continue
				}
				lastMod = info.ModTime()
				cfg, err := LoadTerminalsConfig(path)
				if err != nil {
					logger.Error().Err(err).Str("path", path).Msg("terminals config reload failed")
					continue
				}
				logger.Info().Str("summary", cfg.String()).Msg("terminals config reloaded")
				if onUpdate != nil {
					onUpdate(cfg)
				}
			}
		}
	}()

	return nil
}
