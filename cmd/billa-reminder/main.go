package main

import (
	"os"
	"time"

	"billa/internal/amqp"
	"billa/internal/cli"
	"billa/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting billa-reminder")

	cfg := cli.LoadAndValidateConfig(logger)
	st := cli.OpenStore(logger, cfg)
	defer st.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	planner := services.NewReminderPlanner(st, amqpClient, cfg.ReminderBatchSize)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	interval := cfg.ReminderScanInterval
	logger.Info("Reminder scanner configured",
		"interval", interval,
		"batch_size", cfg.ReminderBatchSize,
		"queue", cfg.AMQPQueue)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// First scan on startup, then on every tick.
	if n, err := planner.Scan(ctx, time.Now()); err != nil {
		logger.Error("Initial scan failed", "error", err)
	} else {
		logger.Info("Initial scan complete", "reminders_published", n)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				n, err := planner.Scan(ctx, now)
				if err != nil {
					logger.Error("Periodic scan failed", "error", err)
					continue
				}
				logger.Info("Periodic scan complete",
					"reminders_published", n,
					"next_scan", now.Add(interval).Format("15:04:05"))
			}
		}
	}()

	cli.WaitForShutdown(ctx, done)
}
