package main

import (
	"context"
	"fmt"

	"github.com/lychee-technology/eav"
	"github.com/lychee-technology/eav/factory"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds a production logger honoring the configured level and format.
func newLogger(cfg eav.LoggingConfig) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}
	if cfg.Format == "console" {
		zapCfg.Encoding = "console"
		zapCfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	return zapCfg.Build()
}

// newStore connects the value store and verifies its tables exist.
func newStore(ctx context.Context, cfg *eav.Config) (eav.Store, error) {
	store, err := factory.ConnectStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect value store: %w", err)
	}
	return store, nil
}
