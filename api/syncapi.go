// Package api cung cấp API public để chạy và theo dõi các job đồng bộ
package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/thanhpv/boat-sync/cfg"
	"github.com/thanhpv/boat-sync/internal/marketplace"
	"github.com/thanhpv/boat-sync/internal/model"
	"github.com/thanhpv/boat-sync/internal/syncer"
	"github.com/thanhpv/boat-sync/pkg/db"
	"github.com/thanhpv/boat-sync/pkg/kafka"
	"github.com/thanhpv/boat-sync/pkg/log"
)

// SyncStats chứa thống kê về lượt đồng bộ gần nhất
type SyncStats struct {
	Job              string    `json:"job"`
	IsRunning        bool      `json:"isRunning"`
	StartTime        time.Time `json:"startTime"`
	Duration         string    `json:"duration"`
	Boats            int       `json:"boats"`
	Skipped          int       `json:"skipped"`
	Failed           int       `json:"failed"`
	WeeksPriced      int       `json:"weeksPriced"`
	SnapshotsWritten int       `json:"snapshotsWritten"`
	LastError        string    `json:"lastError"`
}

// SyncAPI là bề mặt lập trình cho hai trigger theo lịch:
// đồng bộ catalog hằng tuần và đồng bộ lịch trống + giá hằng ngày.
type SyncAPI struct {
	ctx          context.Context
	config       *cfg.Config
	logger       log.Logger
	mysql        *db.Mysql
	catalog      *syncer.CatalogSyncer
	availability *syncer.AvailabilitySyncer
	running      bool
	statsMu      sync.RWMutex
	stats        *SyncStats
}

// NewSyncAPI tạo một instance mới của SyncAPI
func NewSyncAPI() *SyncAPI {
	return &SyncAPI{
		stats: &SyncStats{},
	}
}

// Initialize khởi tạo các thành phần cần thiết cho hai job đồng bộ
func (a *SyncAPI) Initialize(ctx context.Context) error {
	a.ctx = ctx

	var err error

	// Load configuration
	loader, _ := cfg.NewViperLoader()
	a.config, err = loader.Load()
	if err != nil {
		a.logger, _ = log.NewCslLogger()
		a.logger.Error(a.ctx, "Failed to load configuration: %v", err)
		return err
	}

	// Set up logger
	a.logger, err = log.NewCslLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	// Set up database
	a.mysql, err = db.NewMysql(a.config)
	if err != nil {
		a.logger.Error(a.ctx, "Failed to connect to database: %v", err)
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Models
	boatMd, _ := model.NewBoat(a.config, a.logger, a.mysql)
	yearWeekMd, _ := model.NewYearWeek(a.config, a.logger, a.mysql)
	if err := a.mysql.Migrate(boatMd, yearWeekMd); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	// Upstream caller
	caller := marketplace.NewCaller(a.logger, a.config)

	// Kafka là tùy chọn: không cấu hình broker thì không phát sự kiện
	var boatProducer, snapshotProducer syncer.Publisher
	if len(a.config.Kafka.Brokers) > 0 {
		boatProducer = kafka.NewProducer(a.config, a.logger, a.config.Kafka.Producer.TopicBoat)
		snapshotProducer = kafka.NewProducer(a.config, a.logger, a.config.Kafka.Producer.TopicSnapshot)
	}

	// Syncers
	a.catalog, err = syncer.NewCatalogSyncer(a.logger, a.config, caller, boatMd, boatProducer)
	if err != nil {
		return fmt.Errorf("failed to create catalog syncer: %w", err)
	}
	a.availability, err = syncer.NewAvailabilitySyncer(a.logger, a.config, caller, boatMd, yearWeekMd, snapshotProducer)
	if err != nil {
		return fmt.Errorf("failed to create availability syncer: %w", err)
	}

	return nil
}

// RunCatalogSync chạy trigger đồng bộ catalog hằng tuần.
func (a *SyncAPI) RunCatalogSync(ctx context.Context) error {
	if err := a.begin("catalog"); err != nil {
		return err
	}

	stats, err := a.catalog.Sync(ctx)
	a.statsMu.Lock()
	a.running = false
	a.stats.IsRunning = false
	if stats != nil {
		a.stats.Duration = stats.Duration.String()
		a.stats.Boats = stats.Upserted
		a.stats.Failed = stats.Failed
		a.stats.Skipped = stats.Conflicts
	}
	if err != nil {
		a.stats.LastError = err.Error()
	}
	a.statsMu.Unlock()

	return err
}

// RunAvailabilitySync chạy trigger đồng bộ lịch trống + giá hằng ngày.
func (a *SyncAPI) RunAvailabilitySync(ctx context.Context) error {
	if err := a.begin("availability"); err != nil {
		return err
	}

	stats, err := a.availability.Sync(ctx)
	a.statsMu.Lock()
	a.running = false
	a.stats.IsRunning = false
	if stats != nil {
		a.stats.Duration = stats.Duration.String()
		a.stats.Boats = stats.Boats
		a.stats.Skipped = stats.Skipped
		a.stats.Failed = stats.Failed
		a.stats.WeeksPriced = stats.WeeksPriced
		a.stats.SnapshotsWritten = stats.Inserted + stats.Updated
	}
	if err != nil {
		a.stats.LastError = err.Error()
	}
	a.statsMu.Unlock()

	return err
}

func (a *SyncAPI) begin(job string) error {
	a.statsMu.Lock()
	defer a.statsMu.Unlock()

	if a.running {
		return errors.New("a sync run is already in progress")
	}

	a.running = true
	a.stats = &SyncStats{
		Job:       job,
		IsRunning: true,
		StartTime: time.Now(),
	}
	return nil
}

// Stats trả về bản sao thống kê của lượt đồng bộ gần nhất.
func (a *SyncAPI) Stats() SyncStats {
	a.statsMu.RLock()
	defer a.statsMu.RUnlock()
	return *a.stats
}
