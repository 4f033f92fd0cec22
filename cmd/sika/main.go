package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"sika/internal/admin"
	"sika/internal/amqp"
	"sika/internal/cache"
	"sika/internal/cli"
	"sika/internal/flags"
	apphttp "sika/internal/http"
	"sika/internal/log"
	"sika/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	logger.Info("Starting sika server")

	cfg := cli.LoadAndValidateConfig(logger)
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	// AMQP is optional: without it the API still works, change events and
	// mail jobs are just skipped.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPEventQueue, cfg.AMQPMailQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err.Error())
		} else {
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange)
		}
	}

	responses, err := cache.NewResponseCache(cfg.RedisURL, logger)
	if err != nil {
		logger.Warn("Failed to initialize Redis cache, continuing without it", log.FieldError, err.Error())
	} else if responses != nil {
		logger.Info("Initialized Redis response cache")
	}

	transactions := services.NewTransactionService(repo, amqpClient, responses, logger)
	users := services.NewUserService(repo, amqpClient, logger)
	blog := services.NewBlogService(repo, logger)
	flagSvc := flags.NewService(repo)
	policy := admin.NewPolicy(cfg.AdminEmails, cfg.AdminEmailDomain)

	srv := apphttp.NewServer(":"+cfg.Port, transactions, users, blog, flagSvc, policy, amqpClient, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		if err := transactions.Close(); err != nil {
			logger.Error("Cleanup error", log.FieldError, err.Error())
		}
	})

	logger.Info("Listening", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	<-done
	logger.Info("Server stopped gracefully")
}
