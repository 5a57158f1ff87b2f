package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zen-systems/clipflow/pkg/config"
	"github.com/zen-systems/clipflow/pkg/history"
	"github.com/zen-systems/clipflow/pkg/pipeline"
	"github.com/zen-systems/clipflow/pkg/provider"
	"github.com/zen-systems/clipflow/pkg/registry"
	"github.com/zen-systems/clipflow/pkg/unit"
)

// defaultInstruction is used when a remote stage is requested without an
// explicit instruction.
const defaultInstruction = "Fix spelling and grammar. Return only the corrected text."

// providerOrder fixes the display order of the provider listing.
var providerOrder = []string{"openai", "anthropic", "openrouter", "ollama", "bedrock"}

func main() {
	rootCmd := &cobra.Command{
		Use:   "clipflow",
		Short: "Clipboard text transformation pipeline",
		Long: `Clipflow rewrites copied text through an ordered pipeline of local
	rules and remote language models, then hands the result back to the
	clipboard integration.`,
	}

	rootCmd.AddCommand(transformCmd())
	rootCmd.AddCommand(rulesCmd())
	rootCmd.AddCommand(providersCmd())
	rootCmd.AddCommand(historyCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func transformCmd() *cobra.Command {
	var (
		ruleFlags       []string
		providerFlag    string
		modelFlag       string
		instructionFlag string
		temperatureFlag float64
		maxTokensFlag   int
		timeoutFlag     int
		noHistoryFlag   bool
	)

	cmd := &cobra.Command{
		Use:   "transform [text]",
		Short: "Run text through a transformation pipeline",
		Long: `Builds a pipeline from the requested rules and optional remote stage,
	then executes it over the given text (or stdin when no argument is
	given). Stages run in order; the first failure aborts the run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(args)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			reg := registry.NewWithBuiltins()
			stages := make([]unit.Unit, 0, len(ruleFlags)+1)
			for _, id := range ruleFlags {
				u, err := reg.Get(id)
				if err != nil {
					return err
				}
				stages = append(stages, u)
			}

			if providerFlag != "" {
				remote, err := buildRemoteStage(cfg, providerFlag, modelFlag, instructionFlag, temperatureFlag, maxTokensFlag, timeoutFlag)
				if err != nil {
					return err
				}
				stages = append(stages, remote)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p := pipeline.New(stages, pipeline.WithTimeout(cfg.PipelineTimeout))
			result, runErr := p.Execute(ctx, input)

			if !noHistoryFlag {
				if err := writeHistory(input, result, runErr); err != nil {
					fmt.Fprintf(os.Stderr, "warning: failed to write history: %v\n", err)
				}
			}

			if runErr != nil {
				return runErr
			}

			fmt.Println(result.Output)
			for _, stage := range result.Stages {
				fmt.Fprintf(os.Stderr, "# %s: %s\n", stage.UnitName, stage.Duration.Round(time.Millisecond))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&ruleFlags, "rule", nil, "local rule id to apply (repeatable, in order)")
	cmd.Flags().StringVar(&providerFlag, "provider", "", "remote provider for a final model stage (openai, anthropic, openrouter, ollama, bedrock, or mock)")
	cmd.Flags().StringVar(&modelFlag, "model", "", "model id for the remote stage")
	cmd.Flags().StringVar(&instructionFlag, "instruction", defaultInstruction, "instruction for the remote stage")
	cmd.Flags().Float64Var(&temperatureFlag, "temperature", 0, "sampling temperature for the remote stage")
	cmd.Flags().IntVar(&maxTokensFlag, "max-tokens", 0, "output token cap for the remote stage")
	cmd.Flags().IntVar(&timeoutFlag, "timeout", 0, "per-call timeout in seconds for the remote stage")
	cmd.Flags().BoolVar(&noHistoryFlag, "no-history", false, "skip writing a history record")

	return cmd
}

func buildRemoteStage(cfg *config.Config, providerName, model, instruction string, temperature float64, maxTokens, timeoutSeconds int) (unit.Unit, error) {
	var p provider.Provider
	if providerName == "mock" {
		// Deterministic local provider for dry runs.
		p = provider.NewMockProvider()
	} else {
		providers := cfg.Providers()
		found, ok := providers[providerName]
		if !ok {
			return nil, fmt.Errorf("unknown provider %q", providerName)
		}
		if !cfg.HasProvider(providerName) {
			return nil, fmt.Errorf("provider %q is not configured", providerName)
		}
		p = found
	}
	if model == "" {
		return nil, fmt.Errorf("--model is required with --provider")
	}

	timeout := cfg.RequestTimeout
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}

	return unit.NewRemoteUnit(p, unit.RemoteConfig{
		Model:        model,
		Instruction:  instruction,
		Temperature:  temperature,
		MaxTokens:    maxTokens,
		Timeout:      timeout,
		ContentLimit: cfg.ContentLimit,
	}), nil
}

func rulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the built-in local rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := registry.NewWithBuiltins()

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tENABLED")
			for _, entry := range reg.List() {
				fmt.Fprintf(w, "%s\t%s\t%t\n", entry.Unit.ID(), entry.Unit.Name(), entry.Enabled)
			}
			return w.Flush()
		},
	}
}

func providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List remote providers and their configuration state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tCONFIGURED")
			for _, name := range providerOrder {
				fmt.Fprintf(w, "%s\t%t\n", name, cfg.HasProvider(name))
			}
			return w.Flush()
		},
	}
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent transformation records",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.DefaultStore()
			if err != nil {
				return err
			}
			records, err := store.Recent(limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tUNIT\tMODEL\tOK\tDURATION")
			for _, record := range records {
				status := "yes"
				if !record.Success {
					status = "no"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dms\n",
					record.Timestamp.Local().Format("2006-01-02 15:04:05"),
					record.UnitID, record.Model, status, record.DurationMS)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of records to show")
	return cmd
}

// writeHistory packages the run into a history record. The pipeline core
// never persists anything; this is the caller's job.
func writeHistory(input string, result *pipeline.Result, runErr error) error {
	store, err := history.DefaultStore()
	if err != nil {
		return err
	}

	record := history.Record{
		Input:   input,
		Success: runErr == nil,
	}

	if runErr != nil {
		record.Error = runErr.Error()
		var stageErr *pipeline.StageError
		if errors.As(runErr, &stageErr) {
			record.UnitID = stageErr.UnitID
		}
		return store.Append(record)
	}

	record.Output = result.Output
	record.DurationMS = result.TotalDuration().Milliseconds()
	if len(result.Stages) > 0 {
		last := result.Stages[len(result.Stages)-1]
		record.UnitID = last.UnitID
		record.UnitName = last.UnitName
		if last.Provenance != nil {
			record.Provider = last.Provenance.Provider
			record.Model = last.Provenance.Model
			record.Instruction = last.Provenance.Instruction
		}
	}
	return store.Append(record)
}

func readInput(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}
