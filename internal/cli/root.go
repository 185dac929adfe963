// Package cli is the shopctl admin command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"crown_back_end/internal/app"
	"crown_back_end/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type state struct {
	envFile string
	app     *app.App
}

// NewRootCommand builds shopctl. The backends are opened once per invocation
// from the same configuration the server uses.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&state{})
}

func newRootCommand(s *state) *cobra.Command {
	root := &cobra.Command{
		Use:   "shopctl",
		Short: "Crown Mega Store admin tool",
		Long: `shopctl manages orders and inspects recommendations against the
store configured in the environment (or the --env file).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return s.open(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if s.app == nil {
				return nil
			}
			return s.app.Close(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&s.envFile, "env", ".env", "path to an optional .env file")
	root.AddCommand(newOrdersCommand(s), newRecommendCommand(s), newProductsCommand(s))
	return root
}

func (s *state) open(ctx context.Context) error {
	if s.app != nil {
		return nil
	}
	cfg, err := config.Load(s.envFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	// The CLI prints results on stdout; keep the service logs quiet.
	logger := zap.NewNop()
	if cfg.IsDevelopment() {
		if logger, err = zap.NewDevelopment(); err != nil {
			return err
		}
	}
	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open backends: %w", err)
	}
	s.app = a
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Execute runs shopctl and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
