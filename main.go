package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quantumgateway/hotelchat/internal/assistant/model"
	logx "github.com/quantumgateway/hotelchat/pkg/logger"
)

var version = "dev"

func main() {
	var envFile string

	root := &cobra.Command{
		Use:           "hotelchat",
		Short:         "Hotel website chat assistant",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(
		newServeCmd(&envFile),
		newAskCmd(&envFile),
	)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads config, initialises logging and wires the app.
func setup(ctx context.Context, envFile string) (*app, error) {
	cfg, found, err := loadConfig(envFile)
	if err != nil {
		return nil, err
	}
	logx.Init(logx.LoggerOpts{Environment: cfg.Env(), Level: cfg.LogLevel})
	if !found {
		logx.Debug().Str("file", envFile).Msg("env file not found, using process environment")
	}
	return newApp(ctx, cfg)
}

func newServeCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the chat HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx, *envFile)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.server().ListenAndServe(ctx)
		},
	}
}

func newAskCmd(envFile *string) *cobra.Command {
	var sessionID string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Answer one message through the chat pipeline and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx, *envFile)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.pipeline.Resolve(ctx, model.ChatRequest{Message: args[0], SessionID: sessionID})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if verbose {
				fmt.Fprintf(out, "[source=%s intent=%s cached=%t]\n", res.Source, res.Intent, res.Cached)
			}
			fmt.Fprintln(out, res.Response)
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id recorded in the transcript")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print which stage answered")
	return cmd
}
