package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pyama86/gpt-bot/internal/clients"
	"github.com/pyama86/gpt-bot/internal/config"
	"github.com/pyama86/gpt-bot/internal/database"
	"github.com/pyama86/gpt-bot/internal/handlers"
	"github.com/pyama86/gpt-bot/internal/jobs"
	"github.com/pyama86/gpt-bot/internal/metrics"
	"github.com/pyama86/gpt-bot/internal/orchestrator"
	"github.com/pyama86/gpt-bot/internal/services"
	"github.com/pyama86/gpt-bot/internal/web"
)

// app is the fully wired server
type app struct {
	router    http.Handler
	pool      *database.Pool
	retention *jobs.RetentionJob // nil without a delivery log
	closers   []func()
}

// Close releases the database pool and credential cache
func (a *app) Close() {
	for _, c := range a.closers {
		c()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{}

	triggers, err := config.LoadTriggers(cfg.TriggersFile)
	if err != nil {
		return nil, err
	}

	credentials, closeCredentials, err := newCredentialProvider(cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeCredentials)

	renderer, err := services.NewPromptRenderer(cfg.OutputLanguage)
	if err != nil {
		return nil, err
	}

	recorder := metrics.NewPipeline()
	pipeline := orchestrator.NewOrchestrator(orchestrator.Deps{
		Classifier: services.NewClassifier(triggers, services.WithSkipEditedRetrigger(cfg.SkipEditedRetrigger)),
		Fetcher:    services.NewFetcher(triggers),
		Guard:      services.NewTokenGuard(clients.NewTiktokenCounter(cfg.OpenAIModel), cfg.TokenCeiling),
		Renderer:   renderer,
		Completer:  clients.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel),
		Publisher:  services.NewPublisher(triggers),
		GitHub:     clients.NewGitHubFactory(credentials, cfg.GitHubBaseURL(), nil),
		Recorder:   recorder,
		Logger:     logger,
	})

	webhook := handlers.NewWebhookHandler(cfg.WebhookSecret, pipeline, logger).
		WithTimeout(cfg.RequestTimeout)

	if cfg.DatabaseEnabled() {
		pool, err := openDeliveryLog(ctx, cfg)
		if err != nil {
			// the bot still answers comments without the log
			logger.Warn("continuing without delivery log", "error", err)
		} else {
			a.pool = pool
			store := database.NewWebhookDeliveryStore(pool)
			webhook.WithDeliveryLog(store)
			a.retention = jobs.NewRetentionJob(store, jobs.RetentionConfig{
				Retention: cfg.DeliveryRetention,
				Logger:    logger,
			})
			logger.Info("delivery log enabled")
		}
	}

	a.router = web.NewRouter(web.RouterConfig{
		Webhook: webhook,
		Metrics: recorder.Handler(),
		Logger:  logger,
	})
	return a, nil
}

// newCredentialProvider picks GitHub App installation tokens when the app
// is configured and the personal token otherwise. The returned func
// releases the provider.
func newCredentialProvider(cfg *config.Config) (clients.CredentialProvider, func(), error) {
	if !cfg.UseGitHubApp() {
		return clients.NewStaticTokenProvider(cfg.GitHubToken), func() {}, nil
	}

	// private keys passed through env files often have escaped newlines
	key := strings.ReplaceAll(cfg.GitHubAppPrivateKey, `\n`, "\n")
	appClient, err := clients.NewGitHubAppClient(cfg.GitHubAppID, []byte(key), cfg.GitHubBaseURL())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create GitHub App client: %w", err)
	}
	provider, err := clients.NewInstallationTokenProvider(appClient, clients.DefaultRefreshMargin)
	if err != nil {
		return nil, nil, err
	}
	return provider, provider.Close, nil
}

// databaseURL returns DATABASE_URL, or builds one from the Secrets Manager
// secret named by DB_SECRET_NAME
func databaseURL(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.DatabaseURL != "" {
		return cfg.DatabaseURL, nil
	}
	if cfg.DBSecretName == "" {
		return "", errors.New("DATABASE_URL or DB_SECRET_NAME is required")
	}
	client, err := database.NewSecretsClient(ctx)
	if err != nil {
		return "", err
	}
	dbConfig, err := database.LoadConfigFromSecret(ctx, client, cfg.DBSecretName)
	if err != nil {
		return "", err
	}
	return dbConfig.URL(), nil
}

func openDeliveryLog(ctx context.Context, cfg *config.Config) (*database.Pool, error) {
	url, err := databaseURL(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(url); err != nil {
		return nil, err
	}
	return database.NewPool(ctx, url)
}
