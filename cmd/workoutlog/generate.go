package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jdgilhuly/workout_log/pkg/config"
	"github.com/jdgilhuly/workout_log/pkg/credential"
	"github.com/jdgilhuly/workout_log/pkg/generator"
	"github.com/jdgilhuly/workout_log/pkg/presenter"
	"github.com/jdgilhuly/workout_log/pkg/prompt"
	"github.com/jdgilhuly/workout_log/pkg/provider"
	"github.com/jdgilhuly/workout_log/pkg/report"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate workout logs from the terminal",
	Long: `Run one generation cycle against all three providers and print each
provider's log.

Credentials come from --<provider>-key-file when given, otherwise from the
environment variable named by the provider's api_key_env. A provider with
no credential is skipped and its pane shows why.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		variant, err := prompt.LoadOrDefault(cfg.PromptFile)
		if err != nil {
			return fmt.Errorf("loading prompt: %w", err)
		}
		in, err := inputsFromFlags(cmd)
		if err != nil {
			return err
		}
		creds, err := loadCredentials(cmd, cfg, logger)
		if err != nil {
			return err
		}

		noColor, _ := cmd.Flags().GetBool("no-color")
		colored := !noColor && !color.NoColor

		return runGenerate(cmd.Context(), os.Stdout, cfg.Routes(cfg.HTTPClient()), creds, in,
			colored, generator.WithLogger(logger), generator.WithPrompt(variant))
	},
}

// loadCredentials fills a store from key files, falling back to the
// environment.
func loadCredentials(cmd *cobra.Command, cfg *config.Config, logger zerolog.Logger) (*credential.Store, error) {
	creds := credential.NewStore()
	for _, id := range provider.IDs() {
		if path, _ := cmd.Flags().GetString(string(id) + "-key-file"); path != "" {
			f, err := os.Open(path)
			if err != nil {
				return nil, fmt.Errorf("opening %s key file: %w", id.Label(), err)
			}
			err = creds.LoadFile(id, f)
			f.Close()
			if err != nil {
				return nil, fmt.Errorf("loading %s key file: %w", id.Label(), err)
			}
			continue
		}

		key, err := cfg.ResolveAPIKey(id)
		if err != nil {
			logger.Debug().Str("provider", string(id)).Err(err).Msg("no credential from environment")
			continue
		}
		creds.Set(id, key)
	}
	return creds, nil
}

// runGenerate runs one cycle, waits for every provider and prints the panes.
func runGenerate(ctx context.Context, w io.Writer, routes map[provider.ID]generator.Route, creds *credential.Store, in prompt.Inputs, colored bool, opts ...generator.Option) error {
	var mu sync.Mutex
	outcomes := make(map[provider.ID]generator.Outcome)
	opts = append(opts, generator.WithObserver(func(o generator.Outcome) {
		mu.Lock()
		outcomes[o.Provider] = o
		mu.Unlock()
	}))

	state := generator.NewState()
	gen := generator.New(routes, creds, state, opts...)
	cycle, err := gen.Generate(ctx, in)
	if errors.Is(err, generator.ErrRoutineRequired) {
		return errors.New(generator.RoutineRequiredText)
	}
	if err != nil {
		return err
	}
	cycle.Wait()

	pres := presenter.New(state)
	defer pres.Close()

	mu.Lock()
	entries := report.Entries(pres.Panes(), outcomes)
	mu.Unlock()
	report.PrintPanes(w, entries, colored)
	return nil
}
