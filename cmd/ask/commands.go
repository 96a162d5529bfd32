package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/SaiNageswarS/crag-boot/bootstrap"
	"github.com/SaiNageswarS/crag-boot/workflow"
	"github.com/spf13/cobra"
)

type askFlags struct {
	configPath string
	maxRetries int
	question   string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &askFlags{}

	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Ask questions to the corrective-RAG workflow",
		Long: `ask runs the corrective-RAG workflow from the terminal. Without --question it
starts an interactive loop that prompts for a question and a retry budget.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runAsk(ctx, cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "config.ini", "Path to the ini config file.")
	cmd.Flags().IntVar(&flags.maxRetries, "max-retries", -1, "Retry budget; prompts for it when negative.")
	cmd.Flags().StringVarP(&flags.question, "question", "q", "", "Ask one question and exit.")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log every node and decision.")
	return cmd
}

func runAsk(ctx context.Context, cmd *cobra.Command, flags *askFlags) error {
	cfg, err := bootstrap.LoadConfig(flags.configPath)
	if err != nil {
		return err
	}

	var reporter workflow.Reporter = &progressReporter{out: cmd.OutOrStdout()}
	if flags.verbose {
		reporter = workflow.MultiReporter{reporter, &workflow.LogReporter{}}
	}

	app, err := bootstrap.New(ctx, cfg, reporter)
	if err != nil {
		return err
	}

	s := &session{
		runner:            app.Engine,
		in:                cmd.InOrStdin(),
		out:               cmd.OutOrStdout(),
		defaultMaxRetries: cfg.DefaultMaxRetries,
		webSearch:         !cfg.WebSearchDisabled,
	}
	if flags.question != "" {
		maxRetries := flags.maxRetries
		if maxRetries < 0 {
			maxRetries = cfg.DefaultMaxRetries
		}
		return s.ask(ctx, flags.question, maxRetries)
	}
	return s.loop(ctx, flags.maxRetries)
}
