package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/lineage/internal/queue"
	"github.com/OFFIS-RIT/lineage/internal/service"
	"github.com/OFFIS-RIT/lineage/internal/util"
	"github.com/OFFIS-RIT/lineage/pkg/logger"
	"github.com/OFFIS-RIT/lineage/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: util.GetEnvBool("DEBUG", false),
		JSON:  util.GetEnvBool("LOG_JSON", false),
	})
	logger.Init(consoleLogger)

	svc, err := service.New(ctx, service.ConfigFromEnv())
	if err != nil {
		logger.Fatal("Failed to initialize services", "err", err)
	}
	defer svc.Close()

	// Init rabbitmq
	conn := queue.Init()
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch, []string{queue.WarmQueue}); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	// One unacked message per worker; scale by running more workers.
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	if err := consumerCh.Qos(1, 0, false); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := consumerCh.Consume(
		queue.WarmQueue,
		fmt.Sprintf("%s_consumer", queue.WarmQueue),
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.WarmQueue, "err", err)
	}

	logger.Info("Listening for messages", "queue", queue.WarmQueue)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received, exiting...")
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("Message channel closed", "queue", queue.WarmQueue)
				return
			}

			startTime := time.Now()
			logger.Info("Received message", "queue", queue.WarmQueue, "retries", queue.Retries(msg.Headers))

			processingErr := queue.ProcessWarmMessage(ctx, svc.Builder, string(msg.Body))
			if processingErr != nil {
				logger.Error("Error processing message", "queue", queue.WarmQueue, "err", processingErr)
				queue.HandleProcessingError(context.WithoutCancel(ctx), ch, msg, queue.WarmQueue, processingErr)
			} else {
				if err := msg.Ack(false); err != nil {
					logger.Error("Failed to ack message", "err", err)
				}
				logger.Info("Message processed successfully", "queue", queue.WarmQueue, "duration", time.Since(startTime).Round(time.Millisecond))
			}
		}
	}
}
