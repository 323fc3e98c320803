package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"neogen/internal/generate"
	"neogen/internal/infra"
)

// CLI flags
var (
	promptFlag   string
	timeoutFlag  time.Duration
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "generate [prompt]",
	Short: "Generate one image from a prompt",
	Long: `Generate submits a prompt to the configured Replicate model, waits for the
job to finish and prints the outcome as JSON: {"image": "..."} on success or
{"error": "...", "code": "..."} on failure. The exit code is 1 on failure.

Configuration is read from the environment (and .env when present), the same
variables the API server uses.

Examples:
  generate --prompt "neo as a watercolor portrait"
  generate "neo on a rooftop at night" --timeout 90s`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runMain,
}

func init() {
	rootCmd.Flags().StringVarP(&promptFlag, "prompt", "p", "", "Prompt text (defaults to the positional arguments)")
	rootCmd.Flags().DurationVar(&timeoutFlag, "timeout", 0, "Wall-clock budget for the whole run, 0 keeps the poll ceiling only")
	rootCmd.Flags().StringVar(&logLevelFlag, "log-level", "warn", "Log level written to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// errFailed marks an outcome already printed to stdout.
type errFailed struct{ code string }

func (e errFailed) Error() string { return "generate failed: " + e.code }

func runMain(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return err
	}
	if timeoutFlag > 0 {
		cfg.GenerationTimeout = timeoutFlag
	}
	logger := infra.NewLogger("production", logLevelFlag).Output(os.Stderr)

	svc, err := generate.FromConfig(cfg, &logger, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prompt := promptFlag
	if prompt == "" {
		prompt = strings.Join(args, " ")
	}
	return run(ctx, svc, prompt, cmd.OutOrStdout())
}

func run(ctx context.Context, svc *generate.Service, prompt string, out io.Writer) error {
	outcome := svc.Generate(ctx, prompt)
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(outcome); err != nil {
		return err
	}
	if !outcome.OK() {
		return errFailed{code: outcome.Code}
	}
	return nil
}
