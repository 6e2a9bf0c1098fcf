package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"procurement/db"
	"procurement/db/migrations"
	"procurement/internal/auth"
	"procurement/internal/bidding"
	"procurement/internal/config"
	"procurement/internal/handlers"
	"procurement/internal/logger"
	"procurement/internal/notify"
	"procurement/internal/reminders"
	"procurement/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := logger.Init(cfg.Server.LogLevel); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Logger().Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config) error {
	lg := logger.WithModule("server")

	dbConn, err := db.Connect(cfg.Database.DSN, cfg.Database.MaxOpenConns)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if cfg.Database.MigrateOnStart {
		if err := migrations.Run(dbConn.DB); err != nil {
			return err
		}
		lg.Info("migrations applied")
	}
	store := db.NewStorage(dbConn)

	tokens, err := auth.NewTokens(auth.TokenConfig{
		Secret:     cfg.Auth.JWTSecret,
		Issuer:     cfg.Auth.Issuer,
		SessionTTL: cfg.Auth.TokenTTL,
		VendorTTL:  cfg.Auth.VendorTokenTTL,
	})
	if err != nil {
		return err
	}

	mailer, err := newMailer(cfg)
	if err != nil {
		return err
	}
	notifier := notify.NewEmailNotifier(mailer, tokens, cfg.Server.BaseURL, logger.WithModule("notify"))

	policy, err := validation.ParsePolicy(cfg.Validation.OnValidatorError)
	if err != nil {
		return err
	}
	validators := validation.Chain{validation.Heuristic{}}
	if remote := cfg.Validation.Remote; remote.Enabled {
		validators = append(validators, validation.NewRemote(remote.URL, remote.APIKey, remote.Model, remote.Timeout))
	}

	bids := bidding.NewService(store, notifier, validators, policy,
		bidding.WithLogger(logger.WithModule("bidding")),
		bidding.WithReminders(cfg.Reminders.Window, cfg.Reminders.MinInterval),
	)
	accounts := auth.NewService(store, tokens)

	h := handlers.NewHandler(bids, accounts, tokens)
	router := handlers.NewRouter(h, tokens, handlers.RouterOptions{
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Endpoint,
	})

	if cfg.Reminders.Enabled {
		scheduler := reminders.NewScheduler(bids, reminders.WithSchedule(cfg.Reminders.Schedule))
		if err := scheduler.Start(); err != nil {
			return err
		}
		defer func() { <-scheduler.Stop().Done() }()
	}

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		lg.Info("starting server", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newMailer(cfg *config.Config) (notify.Mailer, error) {
	smtpCfg := cfg.Email.SMTP
	if !smtpCfg.Enabled {
		return notify.NewLogMailer(logger.WithModule("mail")), nil
	}
	mailer, err := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     smtpCfg.Host,
		Port:     smtpCfg.Port,
		Username: smtpCfg.Username,
		Password: smtpCfg.Password,
		From:     smtpCfg.From,
		UseTLS:   smtpCfg.UseTLS,
		Timeout:  smtpCfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return mailer, nil
}
