package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jdgilhuly/workout_log/pkg/config"
	"github.com/jdgilhuly/workout_log/pkg/logging"
	"github.com/jdgilhuly/workout_log/pkg/prompt"
	"github.com/jdgilhuly/workout_log/pkg/web"
)

const defaultConfigPath = "workoutlog.yaml"

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "workoutlog",
	Short: "Korean workout log generator",
	Long: `Generate a Korean-language workout log from a member's profile and
today's routine with Claude, Gemini and EXAONE side by side.

Use 'workoutlog serve' for the web form, or 'workoutlog generate' to run
one generation from the terminal.`,
	SilenceUsage: true,
}

// loadConfig loads and validates the config named by the --config flag and
// sets up logging from it.
func loadConfig(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("invalid config: %w", err)
	}

	level := cfg.LogLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	logger, err := logging.Setup(os.Stderr, cfg.LogFormat, level)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logger, nil
}

// --- serve command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the workout log web form",
	Long: `Start the web form. Each browser gets its own in-memory session:
API keys pasted or loaded there are kept only in memory and are gone
when the session expires or the server stops.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		variant, err := prompt.LoadOrDefault(cfg.PromptFile)
		if err != nil {
			return fmt.Errorf("loading prompt: %w", err)
		}

		srv, err := web.New(cfg.Routes(cfg.HTTPClient()),
			web.WithLogger(logger),
			web.WithPrompt(variant),
			web.WithSessionTTL(cfg.Server.SessionTTL),
		)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return srv.ListenAndServe(ctx, cfg.Server.Addr)
	},
}

// --- prompt command ---

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the rendered prompt",
	Long: `Render the workout log prompt for the given inputs and print it
without calling any provider.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.LoadOrDefault(cfgPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		variant, err := prompt.LoadOrDefault(cfg.PromptFile)
		if err != nil {
			return fmt.Errorf("loading prompt: %w", err)
		}

		in, err := inputsFromFlags(cmd)
		if err != nil {
			return err
		}
		rendered, err := variant.Render(in)
		if err != nil {
			return err
		}
		if rendered.System != "" {
			fmt.Printf("[system]\n%s\n\n[user]\n", rendered.System)
		}
		fmt.Println(rendered.User)
		return nil
	},
}

// --- validate command ---

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate config and prompt files",
	Long: `Check the configuration file and the prompt file it names for
errors: YAML syntax, provider names and models, log settings and prompt
template syntax.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.LoadOrDefault(cfgPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
		fmt.Printf("Config %q is valid.\n", cfgPath)

		if cfg.PromptFile != "" {
			variant, err := prompt.Load(cfg.PromptFile)
			if err != nil {
				return fmt.Errorf("loading prompt: %w", err)
			}
			if err := variant.Validate(); err != nil {
				return fmt.Errorf("prompt validation failed: %w", err)
			}
			if _, err := variant.Render(prompt.Inputs{Routine: "-"}); err != nil {
				return fmt.Errorf("prompt validation failed: %w", err)
			}
			fmt.Printf("Prompt %q is valid.\n", variant.Name)
		}
		return nil
	},
}

// --- init command ---

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an example configuration",
	Long: `Scaffold an example configuration and prompt template.

Creates the following files:
  workoutlog.yaml        - Main configuration file
  prompts/workout-log.yaml - The built-in prompt, ready to edit`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll("prompts", 0o755); err != nil {
		return fmt.Errorf("creating directory prompts: %w", err)
	}
	fmt.Println("  created prompts/")

	cfg := config.Default()
	cfg.PromptFile = "prompts/workout-log.yaml"
	if err := writeYAML(defaultConfigPath, cfg); err != nil {
		return err
	}
	if err := writeYAML(cfg.PromptFile, prompt.Default()); err != nil {
		return err
	}

	fmt.Println("\nProject initialized. Run 'workoutlog validate' to check your config.")
	return nil
}

func writeYAML(path string, data any) error {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("  skipped %s (already exists)\n", path)
		return nil
	}

	out, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Printf("  created %s\n", path)
	return nil
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("member", "", "Member information (optional)")
	cmd.Flags().StringP("routine", "r", "", "Today's workout routine")
	cmd.Flags().String("routine-file", "", "Read the routine from a file")
	cmd.Flags().String("requirements", "", "Extra requirements for the log (optional)")
}

func inputsFromFlags(cmd *cobra.Command) (prompt.Inputs, error) {
	member, _ := cmd.Flags().GetString("member")
	routine, _ := cmd.Flags().GetString("routine")
	requirements, _ := cmd.Flags().GetString("requirements")
	if path, _ := cmd.Flags().GetString("routine-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return prompt.Inputs{}, fmt.Errorf("reading routine file: %w", err)
		}
		routine = string(data)
	}
	return prompt.Inputs{Member: member, Routine: routine, Requirements: requirements}, nil
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", defaultConfigPath, "Path to config file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	// serve command flags
	serveCmd.Flags().String("addr", "", "Listen address (default: server.addr from config)")

	// generate command flags
	addInputFlags(generateCmd)
	generateCmd.Flags().String("claude-key-file", "", "Read the Claude API key from a file")
	generateCmd.Flags().String("gemini-key-file", "", "Read the Gemini API key from a file")
	generateCmd.Flags().String("exaone-key-file", "", "Read the EXAONE (Friendli) token from a file")
	generateCmd.Flags().Bool("no-color", false, "Disable colored output")

	// prompt command flags
	addInputFlags(promptCmd)

	// register all subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(initCmd)
}
