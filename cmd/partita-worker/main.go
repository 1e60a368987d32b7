package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"partita/internal/amqp"
	"partita/internal/cli"
	"partita/internal/export"
	gsheet "partita/internal/export/google"
	mem "partita/internal/export/memory"
	"partita/internal/log"
	"partita/internal/worker"
)

func main() {
	resyncOwner := flag.String("resync-owner", "", "rewrite every exported row for the given owner id, then exit")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting partita-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Without a spreadsheet the worker still drains the queue, writing rows
	// to an in-memory sink. Useful for local development.
	var writer export.RowWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Google Sheets export initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = mem.New()
		logger.Warn("No GOOGLE_SPREADSHEET_ID provided, exporting to memory sink")
	}

	exportWorker := worker.NewExportWorker(repo, writer)

	// Recovery path: rebuild one owner's rows from the database and exit,
	// without touching the queue.
	if *resyncOwner != "" {
		if err := exportWorker.Resync(context.Background(), *resyncOwner); err != nil {
			logger.Error("Resync failed", log.FieldError, err, log.FieldUserID, *resyncOwner)
			os.Exit(1)
		}
		logger.Info("Resync finished", log.FieldUserID, *resyncOwner)
		return
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := amqpClient.ConsumeTransactionEvents(ctx, func(msg *amqp.TransactionEventMessage) error {
			return exportWorker.HandleEvent(ctx, msg)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
