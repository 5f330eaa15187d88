// Job đồng bộ catalog hằng tuần: crawl endpoint search theo trang cho đến khi
// lấy đủ tổng số thuyền, upsert từng mục theo slug. Một mục upsert lỗi được
// log và bỏ qua, cả lượt chạy vẫn tiếp tục.

package syncer

import (
	"context"
	"time"

	"github.com/thanhpv/boat-sync/cfg"
	"github.com/thanhpv/boat-sync/internal/limiter"
	"github.com/thanhpv/boat-sync/internal/marketplace"
	"github.com/thanhpv/boat-sync/internal/model"
	"github.com/thanhpv/boat-sync/pkg/log"
)

// CatalogStats là thống kê của một lượt đồng bộ catalog.
type CatalogStats struct {
	Pages     int
	Total     int
	Upserted  int
	Conflicts int
	Failed    int
	Duration  time.Duration
}

type CatalogSyncer struct {
	Logger      log.Logger
	Config      *cfg.Config
	Market      Marketplace
	Boats       CatalogStore
	Producer    Publisher
	rateLimiter *limiter.RateLimiter
}

func NewCatalogSyncer(logger log.Logger, config *cfg.Config, market Marketplace, boats CatalogStore, producer Publisher) (*CatalogSyncer, error) {
	rateLimiter := limiter.NewRateLimiter(config.Marketplace.RequestsPerSecond, config.Marketplace.Burst)
	return &CatalogSyncer{
		Logger:      logger,
		Config:      config,
		Market:      market,
		Boats:       boats,
		Producer:    producer,
		rateLimiter: rateLimiter,
	}, nil
}

// Sync chạy một lượt crawl catalog đầy đủ cho country/category đã cấu hình.
// Lỗi ở bất kỳ trang nào là lỗi của cả lượt (không retry ở tầng này).
func (c *CatalogSyncer) Sync(ctx context.Context) (*CatalogStats, error) {
	startTime := time.Now()
	stats := &CatalogStats{}
	c.Logger.Info(ctx, "Starting catalog sync country=%s category=%s",
		c.Config.Marketplace.Country, c.Config.Marketplace.Category)

	page := 1
	fetched := 0
	total := 0

	for {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return stats, err
		}

		result, err := c.Market.Search(ctx, page)
		if err != nil {
			c.Logger.Error(ctx, "Catalog search page %d failed: %v", page, err)
			return stats, &UpstreamError{Op: "search", Err: err}
		}

		stats.Pages++
		total = result.TotalBoats
		stats.Total = total

		// Trang trống trước khi đủ tổng số: upstream trả thiếu, dừng để
		// bảo đảm kết thúc hữu hạn
		if len(result.Data) == 0 {
			c.Logger.Warn(ctx, "Catalog search page %d returned no boats (fetched %d of %d), stopping",
				page, fetched, total)
			break
		}

		for _, entry := range result.Data {
			boat := entryToBoat(entry, c.Config)
			if err := c.Boats.Upsert(ctx, boat); err != nil {
				if IsConflict(err) {
					// Thuyền cha đã bị xóa phía upstream giữa hai lượt: dung thứ
					stats.Conflicts++
					c.Logger.Warn(ctx, "Catalog upsert conflict for %s, skipped: %v", boat.Slug, err)
				} else {
					stats.Failed++
					c.Logger.Error(ctx, "Catalog upsert failed for %s, skipped: %v", boat.Slug, err)
				}
				continue
			}
			stats.Upserted++

			c.publishBoat(ctx, boat)
		}

		fetched += len(result.Data)
		if fetched >= total {
			break
		}
		page++
	}

	stats.Duration = time.Since(startTime)
	c.Logger.Info(ctx, "Catalog sync done: pages=%d total=%d upserted=%d conflicts=%d failed=%d in %v",
		stats.Pages, stats.Total, stats.Upserted, stats.Conflicts, stats.Failed, stats.Duration)

	return stats, nil
}

func (c *CatalogSyncer) publishBoat(ctx context.Context, boat model.Boat) {
	if c.Producer == nil {
		return
	}

	msg := model.BoatMessage{
		MarketplaceID: boat.MarketplaceID,
		Slug:          boat.Slug,
		Name:          boat.Name,
		Model:         boat.BoatModel,
		BuildYear:     boat.BuildYear,
		Berths:        boat.Berths,
		Cabins:        boat.Cabins,
		Length:        boat.Length,
		Marina:        boat.Marina,
		Country:       boat.Country,
		Category:      boat.Category,
	}
	if err := c.Producer.Publish(ctx, "boat", msg); err != nil {
		c.Logger.Warn(ctx, "Failed to publish boat event for %s: %v", boat.Slug, err)
	}
}

func entryToBoat(entry marketplace.BoatEntry, config *cfg.Config) model.Boat {
	return model.Boat{
		MarketplaceID: entry.ID,
		Slug:          entry.Slug,
		Name:          entry.Name,
		BoatModel:     entry.Model,
		BuildYear:     entry.Year,
		Berths:        entry.Berths,
		Cabins:        entry.Cabins,
		Length:        entry.Length,
		Marina:        entry.Marina,
		Country:       config.Marketplace.Country,
		Category:      config.Marketplace.Category,
	}
}
