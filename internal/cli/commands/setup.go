package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapdq/internal/cli/output"
	"github.com/leapstack-labs/leapdq/internal/config"
	"github.com/leapstack-labs/leapdq/pkg/adapter"
	"github.com/leapstack-labs/leapdq/pkg/diff"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext builds a CommandContext from the config and logger the
// root command stored in cmd's context.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output))
	return &CommandContext{Cfg: cfg, Logger: logger, Renderer: r}, nil
}

// withSource connects the configured relational source for the duration of fn.
func (c *CommandContext) withSource(ctx context.Context, fn func(adapter.Adapter) error) error {
	return adapter.With(ctx, c.Cfg.Source.AdapterConfig(), c.Logger, fn)
}

// withFiles connects the configured file reader for the duration of fn.
func (c *CommandContext) withFiles(ctx context.Context, fn func(adapter.FileReader) error) error {
	return adapter.With(ctx, adapter.Config{Type: c.Cfg.Files.Reader}, c.Logger, func(a adapter.Adapter) error {
		fr, ok := a.(adapter.FileReader)
		if !ok {
			return fmt.Errorf("files.reader %q cannot read files", c.Cfg.Files.Reader)
		}
		return fn(fr)
	})
}

// diffFormat maps an output mode onto a diff report format.
func diffFormat(m output.Mode) diff.Format {
	switch m {
	case output.ModeJSON:
		return diff.FormatJSON
	case output.ModeMarkdown:
		return diff.FormatMarkdown
	default:
		return diff.FormatText
	}
}
