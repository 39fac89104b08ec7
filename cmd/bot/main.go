package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"tg_relay_bot/internal/auditlog"
	"tg_relay_bot/internal/classify"
	"tg_relay_bot/internal/command"
	"tg_relay_bot/internal/commands"
	"tg_relay_bot/internal/config"
	"tg_relay_bot/internal/dispatch"
	"tg_relay_bot/internal/logging"
	"tg_relay_bot/internal/relay"
	"tg_relay_bot/internal/server"
	"tg_relay_bot/internal/state"
	"tg_relay_bot/internal/store"
	"tg_relay_bot/internal/telegram"
)

const (
	mongoConnectTimeout    = 10 * time.Second
	mongoIndexTimeout      = 5 * time.Second
	mongoDisconnectTimeout = 5 * time.Second
	bootstrapTimeout       = 30 * time.Second
	httpShutdownTimeout    = 10 * time.Second
)

func main() {
	configOnly := flag.Bool("config-only", false, "load and print configuration then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Error("configuration error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Setup(cfg)
	if err != nil {
		logging.Error("logger setup error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "logger setup error: %v\n", err)
		os.Exit(1)
	}

	if *configOnly {
		logging.Info("configuration check", logging.Fields{"event": "config_only"})
		fmt.Println("configuration check: ok")
		fmt.Println(config.FormatRedacted(cfg))
		return
	}

	logger.WithFields(logging.Fields{
		"event":    "startup",
		"mongo_db": cfg.MongoDB,
	}).Info("configuration loaded")

	connectCtx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	mongoManager, err := store.NewManager(connectCtx, cfg)
	cancel()
	if err != nil {
		logger.WithError(err).Error("mongo connection error")
		fmt.Fprintf(os.Stderr, "mongo connection error: %v\n", err)
		os.Exit(1)
	}

	logger.WithField("event", "mongo_connect").Info("connected to mongo")

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), mongoIndexTimeout)
	if err := mongoManager.EnsureBaseIndexes(indexCtx); err != nil {
		cancelIndexes()
		logger.WithError(err).Error("mongo index setup error")
		fmt.Fprintf(os.Stderr, "mongo index setup error: %v\n", err)
		os.Exit(1)
	}
	cancelIndexes()

	logger.WithField("event", "mongo_indexes").Info("ensured base mongo indexes")

	audit := auditlog.NewWriter(mongoManager.AuditLog(), nil, logger)
	articles := store.NewArticleRepository(mongoManager.Articles())
	flags := state.NewStore(mongoManager.BotState(), logger)

	tgClient, err := telegram.NewClient(cfg, audit, logger)
	if err != nil {
		logger.WithError(err).Error("telegram client setup error")
		fmt.Fprintf(os.Stderr, "telegram client setup error: %v\n", err)
		os.Exit(1)
	}

	bootstrapCtx, cancelBootstrap := context.WithTimeout(context.Background(), bootstrapTimeout)
	if err := bootstrap(bootstrapCtx, cfg, tgClient, flags, logger); err != nil {
		cancelBootstrap()
		logger.WithError(err).Error("bootstrap error")
		fmt.Fprintf(os.Stderr, "bootstrap error: %v\n", err)
		os.Exit(1)
	}
	cancelBootstrap()

	search := commands.NewSearch(articles)
	registry, err := command.NewRegistry(map[string]command.Handler{
		"help":   commands.Help(),
		"start":  commands.Start(),
		"search": search.Handle,
	}, search.Handle)
	if err != nil {
		logger.WithError(err).Error("command registry setup error")
		fmt.Fprintf(os.Stderr, "command registry setup error: %v\n", err)
		os.Exit(1)
	}

	processor := relay.NewProcessor(
		classify.New(audit, logger),
		dispatch.New(registry, logger),
		tgClient,
		logger,
	)

	httpServer := server.New(cfg.HTTPPort, cfg.TelegramToken, processor, mongoManager, logger)

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- httpServer.ListenAndServe()
	}()

	select {
	case <-signalCtx.Done():
		logger.WithField("event", "shutdown_signal").Info("received termination signal, stopping http server")
	case err := <-serveDone:
		if err != nil {
			logger.WithError(err).Error("http server error")
		} else {
			logger.WithField("event", "http_stopped_early").Warn("http server stopped before shutdown signal")
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), httpShutdownTimeout)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("http shutdown error")
	}
	cancelShutdown()

	disconnectCtx, cancelDisconnect := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
	if err := mongoManager.Close(disconnectCtx); err != nil {
		logger.WithError(err).Error("mongo disconnect error")
	} else {
		logger.WithField("event", "mongo_disconnect").Info("mongo client disconnected")
	}
	cancelDisconnect()

	logger.WithField("event", "shutdown_complete").Info("shutdown complete")
}

// bootstrap verifies the token against the Bot API and registers the
// webhook, recording the outcome in the bot_state flag. Both calls land in
// the audit log through the client; a rejection of either aborts startup.
func bootstrap(ctx context.Context, cfg config.Config, client *telegram.Client, flags *state.Store, logger *logrus.Entry) error {
	if rec := client.SelfTest(ctx); rec.Error != "" {
		return fmt.Errorf("bot api self test: %s", rec.Error)
	}

	logger.WithField("event", "telegram_ready").Info("telegram client verified")

	webhookURL := strings.TrimRight(cfg.WebhookURL, "/") + "/webhook/" + cfg.TelegramToken
	rec := client.SetWebhook(ctx, webhookURL, cfg.WebhookCert)

	registered := rec.Error == ""
	if err := flags.SetWebhookRegistered(ctx, registered); err != nil {
		logger.WithError(err).Warn("failed to persist webhook flag")
	}
	if !registered {
		return fmt.Errorf("webhook registration: %s", rec.Error)
	}

	logger.WithField("event", "webhook_registered").Info("webhook registered")
	return nil
}
