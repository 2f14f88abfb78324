// Command gpt-bot answers GitHub issue comments with a completion model.
// It runs as a long-lived HTTP server or, when deployed to AWS Lambda,
// behind the API Gateway proxy.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/spf13/cobra"

	"github.com/pyama86/gpt-bot/internal/config"
	"github.com/pyama86/gpt-bot/internal/database"
	"github.com/pyama86/gpt-bot/internal/handlers"
	"github.com/pyama86/gpt-bot/internal/jobs"
	"github.com/pyama86/gpt-bot/internal/logging"
	"github.com/pyama86/gpt-bot/internal/services"
	"github.com/pyama86/gpt-bot/internal/web"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "gpt-bot",
		Short:        "Answer GitHub issue comments with a completion model",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newPruneCmd(), newDeliveriesCmd(), newClassifyCmd())
	return root
}

// runningOnLambda reports whether the process was started by the Lambda
// runtime
func runningOnLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

func loadLogger(cfg *config.Config) *slog.Logger {
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	return logger
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the webhook endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			logger := loadLogger(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := buildApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			if runningOnLambda() {
				logger.Info("starting lambda handler")
				lambda.Start(httpadapter.New(app.router).ProxyWithContext)
				return nil
			}

			if app.retention != nil {
				go app.retention.Start(ctx)
			}
			srv := web.NewServer(":"+cfg.Port, app.router, web.DefaultServerConfig(cfg.RequestTimeout))
			logger.Info("listening", "addr", srv.Addr())
			return srv.Run(ctx)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply delivery log migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := loadLogger(cfg)

			url, err := databaseURL(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if err := database.RunMigrations(url); err != nil {
				return err
			}
			logger.Info("migrations applied")
			return nil
		},
	}
}

func newPruneCmd() *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old delivery log entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := loadLogger(cfg)
			if !cmd.Flags().Changed("older-than") {
				olderThan = cfg.DeliveryRetention
			}

			url, err := databaseURL(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			pool, err := database.NewPool(cmd.Context(), url)
			if err != nil {
				return err
			}
			defer pool.Close()

			job := jobs.NewRetentionJob(database.NewWebhookDeliveryStore(pool), jobs.RetentionConfig{
				Retention: olderThan,
				Logger:    logger,
			})
			result, err := job.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d deliveries older than %s\n", result.Deleted, olderThan)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "delete deliveries older than this (default DELIVERY_RETENTION)")
	return cmd
}

func newClassifyCmd() *cobra.Command {
	var skipEdited bool
	cmd := &cobra.Command{
		Use:   "classify <payload.json>",
		Short: "Print the command an issue_comment payload would run",
		Long:  "Reads an issue_comment webhook payload and prints the command the router selects. Nothing is fetched or posted.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			triggers, err := config.LoadTriggers(cfg.TriggersFile)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("skip-edited") {
				skipEdited = cfg.SkipEditedRetrigger
			}

			payload, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read payload: %w", err)
			}
			event, err := handlers.ExtractIssueCommentEvent(payload, "cli")
			if err != nil {
				return err
			}

			command := services.NewClassifier(triggers, services.WithSkipEditedRetrigger(skipEdited)).Classify(event)
			fmt.Fprintf(cmd.OutOrStdout(), "command: %s\n", command)
			if command.Instructions != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "instructions: %s\n", command.Instructions)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipEdited, "skip-edited", true, "ignore edits of comments that already mentioned the bot")
	return cmd
}
