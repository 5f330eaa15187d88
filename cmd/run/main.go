package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/thanhpv/boat-sync/cfg"
	"github.com/thanhpv/boat-sync/internal/marketplace"
	"github.com/thanhpv/boat-sync/internal/model"
	"github.com/thanhpv/boat-sync/internal/syncer"
	"github.com/thanhpv/boat-sync/pkg/db"
	"github.com/thanhpv/boat-sync/pkg/kafka"
	"github.com/thanhpv/boat-sync/pkg/log"
)

func main() {
	// Parse command line arguments
	job := flag.String("job", "", "Sync job to run (catalog, availability)")
	endYear := flag.Int("end-year", 0, "Override the configured end-year horizon")
	flag.Parse()

	if *job == "" {
		fmt.Println("Please specify a job: -job=[catalog|availability]")
		os.Exit(1)
	}

	ctx := context.Background()

	// loader, _ := cfg.NewMockLoader()
	loader, _ := cfg.NewViperLoader()
	config, err := loader.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *endYear > 0 {
		config.Sync.EndYear = *endYear
	}

	logger, _ := log.NewCslLogger()
	mysql, _ := db.NewMysql(config)
	boatMd, _ := model.NewBoat(config, logger, mysql)
	yearWeekMd, _ := model.NewYearWeek(config, logger, mysql)

	// Migrate database
	if err := mysql.Migrate(boatMd, yearWeekMd); err != nil {
		logger.Error(ctx, "Failed to migrate database: %v", err)
		os.Exit(1)
	}

	caller := marketplace.NewCaller(logger, config)

	// Kafka event feed là tùy chọn
	var boatProducer, snapshotProducer syncer.Publisher
	if len(config.Kafka.Brokers) > 0 {
		boatProducer = kafka.NewProducer(config, logger, config.Kafka.Producer.TopicBoat)
		snapshotProducer = kafka.NewProducer(config, logger, config.Kafka.Producer.TopicSnapshot)
	}

	switch *job {
	case "catalog":
		logger.Info(ctx, "Starting weekly catalog sync")
		catalogSyncer, err := syncer.NewCatalogSyncer(logger, config, caller, boatMd, boatProducer)
		if err != nil {
			logger.Error(ctx, "Failed to create catalog syncer: %v", err)
			os.Exit(1)
		}
		if _, err := catalogSyncer.Sync(ctx); err != nil {
			logger.Error(ctx, "Catalog sync failed: %v", err)
			os.Exit(1)
		}
		logger.Info(ctx, "Successfully!")

	case "availability":
		logger.Info(ctx, "Starting daily availability sync")
		availabilitySyncer, err := syncer.NewAvailabilitySyncer(logger, config, caller, boatMd, yearWeekMd, snapshotProducer)
		if err != nil {
			logger.Error(ctx, "Failed to create availability syncer: %v", err)
			os.Exit(1)
		}
		if _, err := availabilitySyncer.Sync(ctx); err != nil {
			logger.Error(ctx, "Availability sync failed: %v", err)
			os.Exit(1)
		}
		logger.Info(ctx, "Successfully!")

	default:
		logger.Error(ctx, "Unknown job: %s", *job)
		os.Exit(1)
	}
}
