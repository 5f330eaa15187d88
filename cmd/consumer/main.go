package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thanhpv/boat-sync/cfg"
	"github.com/thanhpv/boat-sync/internal/model"
	"github.com/thanhpv/boat-sync/internal/syncer"
	"github.com/thanhpv/boat-sync/pkg/db"
	"github.com/thanhpv/boat-sync/pkg/kafka"
	"github.com/thanhpv/boat-sync/pkg/log"
)

func main() {
	// Parse command line arguments
	consumerType := flag.String("type", "", "Type of consumer to run (boat, snapshot)")
	flag.Parse()

	if *consumerType == "" {
		fmt.Println("Please specify a consumer type: -type=[boat|snapshot]")
		os.Exit(1)
	}

	// Load configuration
	loader, _ := cfg.NewViperLoader()
	config, err := loader.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, _ := log.NewCslLogger()

	// Setup database
	mysql, _ := db.NewMysql(config)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create models
	boatModel, _ := model.NewBoat(config, logger, mysql)
	yearWeekModel, _ := model.NewYearWeek(config, logger, mysql)
	if err := mysql.Migrate(boatModel, yearWeekModel); err != nil {
		logger.Error(ctx, "Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Setup signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Start the appropriate consumer based on type
	switch *consumerType {
	case "boat":
		startBoatConsumer(ctx, config, logger, boatModel)
	case "snapshot":
		startSnapshotConsumer(ctx, config, logger, yearWeekModel)
	default:
		logger.Error(ctx, "Unknown consumer type: %s", *consumerType)
		os.Exit(1)
	}

	// Wait for termination signal
	<-sigCh
	logger.Info(ctx, "Received shutdown signal, gracefully shutting down...")
	cancel()
}

func startBoatConsumer(ctx context.Context, config *cfg.Config, logger log.Logger, boatModel *model.Boat) {
	consumer := kafka.NewConsumer(config, logger, config.Kafka.Producer.TopicBoat, "boat-consumer-group")

	// Gom message thành lô để upsert theo batch
	batchSize := 100
	batchTimeout := 5 * time.Second
	messages := make(chan model.BoatMessage, batchSize*2)

	go processBatchedBoats(ctx, messages, batchSize, batchTimeout, logger, boatModel)

	consumer.RegisterHandler("boat", func(data []byte) error {
		var boatMsg model.BoatMessage
		if err := json.Unmarshal(data, &boatMsg); err != nil {
			return fmt.Errorf("failed to unmarshal boat message: %w", err)
		}

		select {
		case messages <- boatMsg:
			// Message added to batch
		case <-ctx.Done():
			return ctx.Err()
		}

		return nil
	})

	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Error(ctx, "Boat consumer error: %v", err)
		}
	}()

	logger.Info(ctx, "Boat consumer started successfully")
}

func processBatchedBoats(ctx context.Context, messages <-chan model.BoatMessage, batchSize int,
	batchTimeout time.Duration, logger log.Logger, boatModel *model.Boat) {

	var batch []model.BoatMessage
	timer := time.NewTimer(batchTimeout)

	for {
		select {
		case <-ctx.Done():
			if len(batch) > 0 {
				processSingleBatch(ctx, batch, logger, boatModel)
			}
			return

		case msg := <-messages:
			batch = append(batch, msg)

			if len(batch) >= batchSize {
				processSingleBatch(ctx, batch, logger, boatModel)
				batch = nil
				timer.Reset(batchTimeout)
			}

		case <-timer.C:
			if len(batch) > 0 {
				processSingleBatch(ctx, batch, logger, boatModel)
				batch = nil
			}
			timer.Reset(batchTimeout)
		}
	}
}

func processSingleBatch(ctx context.Context, batch []model.BoatMessage, logger log.Logger, boatModel *model.Boat) {
	if len(batch) == 0 {
		return
	}

	logger.Info(ctx, "Processing batch of %d boats", len(batch))

	if err := boatModel.CreateBatch(batch); err != nil {
		logger.Error(ctx, "Failed to save batch of boats: %v", err)
	} else {
		logger.Info(ctx, "Successfully saved batch of %d boats", len(batch))
	}
}

func startSnapshotConsumer(ctx context.Context, config *cfg.Config, logger log.Logger, yearWeekModel *model.YearWeek) {
	consumer := kafka.NewConsumer(config, logger, config.Kafka.Producer.TopicSnapshot, "snapshot-consumer-group")

	// Snapshot đi qua đúng đường merge của job đồng bộ nên replay idempotent
	consumer.RegisterHandler("snapshot", func(data []byte) error {
		var snapMsg model.SnapshotMessage
		if err := json.Unmarshal(data, &snapMsg); err != nil {
			return fmt.Errorf("failed to unmarshal snapshot message: %w", err)
		}

		if err := syncer.ReplaySnapshot(ctx, yearWeekModel, snapMsg); err != nil {
			return fmt.Errorf("failed to apply snapshot to database: %w", err)
		}

		return nil
	})

	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Error(ctx, "Snapshot consumer error: %v", err)
		}
	}()

	logger.Info(ctx, "Snapshot consumer started successfully")
}
