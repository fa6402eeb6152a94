package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// With creates the adapter cfg names, connects it, hands it to fn and
// closes it on every exit path, including a panic in fn. A close error is
// joined with fn's error.
func With(ctx context.Context, cfg Config, logger *slog.Logger, fn func(Adapter) error) (err error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	adp, err := NewAdapter(cfg, logger)
	if err != nil {
		return err
	}
	if err := adp.Connect(ctx, cfg); err != nil {
		return fmt.Errorf("failed to connect %s: %w", cfg.Type, err)
	}
	logger.Debug("adapter connected", slog.String("type", cfg.Type))
	defer func() {
		if cerr := adp.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close %s: %w", cfg.Type, cerr))
		}
		logger.Debug("adapter released", slog.String("type", cfg.Type))
	}()
	return fn(adp)
}
