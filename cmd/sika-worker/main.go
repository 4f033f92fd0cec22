package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"sika/internal/amqp"
	"sika/internal/cache"
	"sika/internal/cli"
	"sika/internal/log"
	"sika/internal/mail"
	"sika/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting sika-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPEventQueue, cfg.AMQPMailQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer amqpClient.Close()

	responses, err := cache.NewResponseCache(cfg.RedisURL, logger)
	if err != nil {
		logger.Warn("Failed to initialize Redis cache, continuing without it", log.FieldError, err.Error())
	}
	defer responses.Close()

	sender, err := mail.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize mail backend", log.FieldError, err.Error())
		os.Exit(1)
	}

	summaryWorker := worker.NewSummaryWorker(repo, responses, logger)
	mailWorker := worker.NewMailWorker(repo, sender, logger)
	scheduler := worker.NewScheduler(repo, amqpClient, cfg.WeeklySummaryInterval, cfg.MailBatchSize, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeTransactionEvents(gctx, summaryWorker.HandleTransactionChanged)
	})
	g.Go(func() error {
		return amqpClient.ConsumeMailJobs(gctx, mailWorker.HandleMailJob)
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err.Error())
		<-done
		os.Exit(1)
	}

	<-done

	processed, failed := summaryWorker.Stats()
	sent, undelivered := mailWorker.Stats()
	logger.Info("Worker stopped gracefully",
		"events_processed", processed,
		"events_failed", failed,
		"mail_sent", sent,
		"mail_failed", undelivered)
}
