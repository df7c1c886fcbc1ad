package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"civicreport/backend/internal/api/handler"
	"civicreport/backend/internal/auth"
	"civicreport/backend/internal/chathub"
	"civicreport/backend/internal/config"
	"civicreport/backend/internal/localization"
	"civicreport/backend/internal/logging"
	"civicreport/backend/internal/mail"
	"civicreport/backend/internal/notify"
	"civicreport/backend/internal/storage"
	"civicreport/backend/internal/telegram"
	"civicreport/backend/internal/workflow"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	if err := run(cfg, sugar); err != nil {
		sugar.Fatalw("server stopped", "error", err)
	}
}

func run(cfg *config.Config, log *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Persistence
	db, err := storage.OpenPostgres(cfg.DBDSN)
	if err != nil {
		return err
	}
	if err := storage.AutoMigrate(db); err != nil {
		return err
	}
	rdb, err := storage.OpenRedis(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if rdb == nil {
		log.Warnw("REDIS_URL not set, report locks disabled")
	} else {
		defer rdb.Close()
	}
	store := storage.NewStorageService(db, rdb, log.Named("storage"))
	store.LockTTL = cfg.ReportLockTTL
	log.Infow("database and redis connections established, migrations complete")

	// 2. Notification channels
	localizer := localization.Default()
	if cfg.LocalizationDir != "" {
		if localizer, err = localization.NewLocalizer(cfg.LocalizationDir); err != nil {
			return err
		}
	}
	dispatcherOpts := []notify.Option{
		notify.WithLocalizer(localizer),
		notify.WithLogger(log.Named("notify")),
		notify.WithDeliveryTimeout(cfg.DeliveryTimeout),
	}
	if cfg.SendGridAPIKey != "" {
		dispatcherOpts = append(dispatcherOpts, notify.WithMailer(
			mail.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFrom, cfg.MailFromName, log.Named("mail"))))
	}
	if cfg.TelegramBotToken != "" {
		pusher, err := telegram.NewNotifier(cfg.TelegramBotToken, log.Named("telegram"))
		if err != nil {
			return err
		}
		dispatcherOpts = append(dispatcherOpts, notify.WithPusher(pusher))
	}
	dispatcher := notify.NewDispatcher(store, dispatcherOpts...)

	// 3. Services
	engine := workflow.NewEngine(store, dispatcher,
		workflow.WithLogger(log.Named("workflow")),
		workflow.WithChatPolicy(workflow.ParseChatPolicy(cfg.ChatPolicy)),
		workflow.WithTimeout(cfg.OperationTimeout),
	)
	chats := chathub.NewService(store, dispatcher, chathub.WithLogger(log.Named("chathub")))

	// 4. HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	h := handler.NewHandler(engine, chats, dispatcher, auth.NewJWTIdentity(cfg.JWTSecret), log.Named("http"))
	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        handler.NewRouter(h, cfg.CORSOrigins),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("http server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	dispatcher.Wait()
	return nil
}
