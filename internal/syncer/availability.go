// Job đồng bộ lịch trống + giá hằng ngày: duyệt tuần tự từng thuyền trong
// catalog, tính các tuần còn trống cho từng năm đến hạn cấu hình, fetch giá
// song song trong phạm vi một thuyền rồi merge từng tuần vào bản ghi năm.
// Lỗi của một thuyền không làm dừng cả lượt chạy.

package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/thanhpv/boat-sync/cfg"
	"github.com/thanhpv/boat-sync/internal/calendar"
	"github.com/thanhpv/boat-sync/internal/limiter"
	"github.com/thanhpv/boat-sync/internal/marketplace"
	"github.com/thanhpv/boat-sync/internal/model"
	"github.com/thanhpv/boat-sync/pkg/log"
)

// Stats là thống kê của một lượt đồng bộ lịch trống + giá.
type Stats struct {
	Boats       int // thuyền xử lý xong
	Skipped     int // thuyền upstream báo không khả dụng
	Failed      int // thuyền lỗi, đã cô lập và bỏ qua
	WeeksPriced int
	Inserted    int
	Updated     int
	Noops       int
	Conflicts   int
	Duration    time.Duration
}

type AvailabilitySyncer struct {
	Logger      log.Logger
	Config      *cfg.Config
	Market      Marketplace
	Boats       CatalogStore
	Weeks       WeekStore
	Producer    Publisher
	rateLimiter *limiter.RateLimiter
	now         func() time.Time
}

func NewAvailabilitySyncer(logger log.Logger, config *cfg.Config, market Marketplace, boats CatalogStore, weeks WeekStore, producer Publisher) (*AvailabilitySyncer, error) {
	rateLimiter := limiter.NewRateLimiter(config.Marketplace.RequestsPerSecond, config.Marketplace.Burst)
	return &AvailabilitySyncer{
		Logger:      logger,
		Config:      config,
		Market:      market,
		Boats:       boats,
		Weeks:       weeks,
		Producer:    producer,
		rateLimiter: rateLimiter,
		now:         time.Now,
	}, nil
}

// WithNow thay nguồn thời gian, dùng trong test để cố định khóa snapshot.
func (s *AvailabilitySyncer) WithNow(now func() time.Time) *AvailabilitySyncer {
	s.now = now
	return s
}

// Sync chạy một lượt đồng bộ đầy đủ trên toàn bộ catalog.
func (s *AvailabilitySyncer) Sync(ctx context.Context) (*Stats, error) {
	startTime := time.Now()
	now := s.now()
	stats := &Stats{}

	slugs, err := s.Boats.Slugs(ctx)
	if err != nil {
		return stats, &RepoError{Op: "list slugs", Err: err}
	}

	endYear := s.Config.Sync.EndYear
	if endYear < now.Year() {
		endYear = now.Year()
	}

	s.Logger.Info(ctx, "Starting availability sync: %d boats, years %d..%d", len(slugs), now.Year(), endYear)

	boatDelay := time.Duration(s.Config.Marketplace.BoatDelay) * time.Millisecond
	for i, slug := range slugs {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		s.syncBoat(ctx, slug, now, endYear, stats)

		// Chờ giữa hai thuyền kể cả khi thuyền vừa rồi bị bỏ qua
		if i < len(slugs)-1 {
			if err := s.rateLimiter.Pause(ctx, boatDelay); err != nil {
				return stats, err
			}
		}
	}

	stats.Duration = time.Since(startTime)
	s.Logger.Info(ctx, "Availability sync done: boats=%d skipped=%d failed=%d priced=%d inserted=%d updated=%d noops=%d conflicts=%d in %v",
		stats.Boats, stats.Skipped, stats.Failed, stats.WeeksPriced,
		stats.Inserted, stats.Updated, stats.Noops, stats.Conflicts, stats.Duration)

	return stats, nil
}

// syncBoat xử lý một thuyền. Mọi lỗi và panic dừng lại ở đây.
func (s *AvailabilitySyncer) syncBoat(ctx context.Context, slug string, now time.Time, endYear int, stats *Stats) {
	defer func() {
		if r := recover(); r != nil {
			stats.Failed++
			s.Logger.Critical(ctx, "Recovered from panic while processing boat %s: %v", slug, r)
		}
	}()

	if err := s.rateLimiter.Wait(ctx); err != nil {
		stats.Failed++
		return
	}

	windows, ok, err := s.Market.Availability(ctx, slug)
	if err != nil {
		stats.Failed++
		s.Logger.Error(ctx, "Availability fetch failed for boat %s, skipped: %v", slug, err)
		return
	}
	if !ok {
		// Thuyền tạm không khả dụng phía upstream: bỏ qua lượt này, không phải lỗi
		stats.Skipped++
		s.Logger.Debug(ctx, "Boat %s unavailable upstream, skipped this run", slug)
		return
	}

	tsKey := SnapshotKey(now)
	for year := now.Year(); year <= endYear; year++ {
		freeWeeks := calendar.FreeWeeks(windows, year, now)
		if len(freeWeeks) == 0 {
			continue
		}

		priced := s.fetchPrices(ctx, slug, freeWeeks)
		stats.WeeksPriced += len(priced)

		s.mergeWeeks(ctx, slug, priced, tsKey, now, stats)
	}

	stats.Boats++
}

type pricedWeek struct {
	week  calendar.WeekSlot
	quote marketplace.PriceQuote
}

// fetchPrices lấy giá cho các tuần trống của một thuyền/năm.
// Các request chạy song song nhưng từng request vẫn đi qua rate limiter,
// nên burst bị chặn bởi kích thước bucket đã cấu hình.
func (s *AvailabilitySyncer) fetchPrices(ctx context.Context, slug string, weeks []calendar.WeekSlot) []pricedWeek {
	workers := s.Config.Marketplace.Burst
	if workers <= 0 {
		workers = 1
	}

	results := make([]*pricedWeek, len(weeks))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, week := range weeks {
		wg.Add(1)
		go func(i int, week calendar.WeekSlot) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := s.rateLimiter.Wait(ctx); err != nil {
				return
			}

			quote, ok, err := s.Market.Price(ctx, slug, week)
			if err != nil {
				// Tuần này bị loại, thuyền vẫn tiếp tục
				s.Logger.Warn(ctx, "Price fetch failed for %s %s, week dropped: %v",
					slug, week.CheckIn.Format(calendar.DateLayout), err)
				return
			}
			if !ok {
				return
			}
			results[i] = &pricedWeek{week: week, quote: *quote}
		}(i, week)
	}
	wg.Wait()

	// Giữ thứ tự lịch của danh sách tuần
	priced := make([]pricedWeek, 0, len(weeks))
	for _, r := range results {
		if r != nil {
			priced = append(priced, *r)
		}
	}
	return priced
}

type rowState struct {
	row   *model.YearWeek
	found bool
}

// mergeWeeks đọc bản ghi năm hiện có rồi áp từng quyết định merge.
// Dòng được đọc một lần cho mỗi năm ghi nhận và được cập nhật cục bộ sau mỗi
// lần ghi, nên quyết định nào cũng dựa trên trạng thái ngay trước khi ghi.
func (s *AvailabilitySyncer) mergeWeeks(ctx context.Context, slug string, priced []pricedWeek, tsKey string, now time.Time, stats *Stats) {
	rows := make(map[int]*rowState)

	for _, pw := range priced {
		mergeYear := calendar.AttributionYear(pw.week)

		state, cached := rows[mergeYear]
		if !cached {
			row, found, err := s.Weeks.Find(ctx, slug, mergeYear)
			if err != nil {
				s.Logger.Error(ctx, "Failed to read week record %s/%d: %v", slug, mergeYear, err)
				continue
			}
			state = &rowState{row: row, found: found}
			rows[mergeYear] = state
		}

		snap := Snapshot{
			Price:     pw.quote.Price,
			Discount:  pw.quote.Discount,
			CreatedAt: now,
		}
		weekKey := pw.week.WeekKey()

		decision := Decide(state.row, state.found, slug, mergeYear, weekKey, tsKey, snap)
		if decision.Kind == Noop {
			stats.Noops++
			continue
		}

		if err := Apply(ctx, s.Weeks, slug, mergeYear, decision); err != nil {
			if IsConflict(err) {
				// Thuyền đã biến mất khỏi catalog giữa chừng: dung thứ
				stats.Conflicts++
				s.Logger.Warn(ctx, "Week write conflict for %s/%d %s, skipped: %v", slug, mergeYear, weekKey, err)
			} else {
				s.Logger.Error(ctx, "Week write failed for %s/%d %s: %v", slug, mergeYear, weekKey, err)
			}
			continue
		}

		// Cập nhật bản sao cục bộ để các tuần sau trong cùng năm merge tiếp
		switch decision.Kind {
		case InsertRow:
			state.row = decision.Row
			state.found = true
			stats.Inserted++
		case WriteWeeks:
			state.row.Weeks = decision.Weeks
			stats.Updated++
		}

		s.publishSnapshot(ctx, slug, mergeYear, weekKey, tsKey, snap)
	}
}

func (s *AvailabilitySyncer) publishSnapshot(ctx context.Context, slug string, year int, weekKey, tsKey string, snap Snapshot) {
	if s.Producer == nil {
		return
	}

	msg := model.SnapshotMessage{
		Slug:      slug,
		Year:      year,
		WeekKey:   weekKey,
		Timestamp: tsKey,
		Price:     snap.Price,
		Discount:  snap.Discount,
		CreatedAt: snap.CreatedAt.UTC().Format(time.RFC3339),
	}
	if err := s.Producer.Publish(ctx, "snapshot", msg); err != nil {
		s.Logger.Warn(ctx, "Failed to publish snapshot event for %s/%d %s: %v", slug, year, weekKey, err)
	}
}
