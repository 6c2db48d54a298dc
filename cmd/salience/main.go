package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/anselale/Salience/internal/bootstrap"
	"github.com/anselale/Salience/internal/config"
	"github.com/anselale/Salience/internal/logging"
	"github.com/anselale/Salience/internal/perception"
	"github.com/anselale/Salience/internal/salience"
	"github.com/anselale/Salience/internal/store"
	"github.com/anselale/Salience/internal/task"
)

var (
	// Global flags
	configPath string
	verbose    bool
	noInput    bool
	apiKey     string

	logger *zap.Logger

	// exitCode carries a non-standard exit code (setup's batch semantics)
	// out of cobra.
	exitCode int
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "salience",
	Short: "Salience - a task-driven autonomous agent loop",
	Long: `Salience keeps a persistent, ordered task list working toward an
objective. Each cycle it summarizes prior results, selects a registered
action or executes the current task through an LLM, grades the outcome,
and escalates a frustration threshold after failed attempts.

Run without arguments to start the interactive loop.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Logging.Level, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoop(cmd.Context(), false)
	},
}

// onceCmd performs a single cycle.
var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single salience cycle",
	Long: `Performs one cycle against the persisted task list: board, summary,
action selection or execution, grading. Suited to scripting; combine with
--no-input.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoop(cmd.Context(), true)
	},
}

// tasksCmd shows the persisted task board.
var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Show the current task list",
	RunE:  runTasks,
}

// setupCmd runs the environment setup sequence.
var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Upgrade the agent framework and run test discovery in the managed virtual environment",
	Long: `Activates the configured virtual environment, upgrades the agent
framework package (optionally against the test package index), runs test
discovery, and deactivates. Every step runs regardless of earlier
failures; the process exits with the last step's exit code.`,
	RunE: runSetup,
}

var setupProfile string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "salience.yaml", "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noInput, "no-input", false, "never prompt for objective or feedback")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "LLM API key (overrides config and environment)")

	setupCmd.Flags().StringVar(&setupProfile, "profile", "stable", "setup profile: stable or test-index")

	rootCmd.AddCommand(onceCmd, tasksCmd, setupCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if apiKey != "" {
		cfg.LLM.APIKey = apiKey
	}
	if noInput {
		cfg.Salience.NoInput = true
	}
	return cfg, nil
}

// buildEngine wires storage, the LLM client and the engine.
func buildEngine(ctx context.Context) (*salience.Engine, *store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	s, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return nil, nil, err
	}

	llm, err := perception.NewClient(ctx, cfg.LLM)
	if err != nil {
		s.Close()
		return nil, nil, err
	}

	engine, err := salience.New(ctx, cfg, s, llm, logger)
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	return engine, s, nil
}

func runLoop(ctx context.Context, once bool) error {
	engine, s, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := engine.PrepareObjective(ctx); err != nil {
		return err
	}

	if once {
		done, err := engine.RunOnce(ctx)
		if err != nil {
			return err
		}
		if done {
			logger.Info("task list has been completed")
		}
		return nil
	}
	if err := engine.Loop(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func runTasks(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer s.Close()

	handler := task.NewHandler(s, cfg.Salience.ResultsLog, logger)
	_, err = handler.Board(cmd.Context(), "Salience", cfg.Persona.Objective)
	return err
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	stepTimeout, err := cfg.StepTimeout()
	if err != nil {
		return err
	}

	profiles := bootstrap.Profiles(cfg.Bootstrap, stepTimeout)
	profile, ok := profiles[setupProfile]
	if !ok {
		return fmt.Errorf("unknown setup profile %q", setupProfile)
	}

	runner := bootstrap.NewRunner(bootstrap.NewDirectExecutor(stepTimeout), logger)
	report, err := runner.Run(cmd.Context(), profile)
	if err != nil {
		return err
	}

	for _, step := range report.Steps {
		fmt.Printf("--- %s (exit %d, %s)\n%s\n", step.Name, step.ExitCode, step.Duration.Round(time.Millisecond), step.Output)
	}
	exitCode = report.ExitCode
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}
