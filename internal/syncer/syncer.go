// Gói syncer chứa hai job theo lịch của hệ thống:
// đồng bộ catalog hằng tuần và đồng bộ lịch trống + giá hằng ngày.
// Các collaborator (upstream, store, kafka) đều là interface để test bằng double.

package syncer

import (
	"context"

	"github.com/thanhpv/boat-sync/internal/calendar"
	"github.com/thanhpv/boat-sync/internal/marketplace"
	"github.com/thanhpv/boat-sync/internal/model"
	"gorm.io/datatypes"
)

// Marketplace là phần upstream mà syncer cần: search phân trang,
// lịch đã đặt và báo giá theo tuần. *marketplace.Caller thỏa mãn interface này.
type Marketplace interface {
	Search(ctx context.Context, page int) (*marketplace.SearchPage, error)
	Availability(ctx context.Context, slug string) ([]calendar.Window, bool, error)
	Price(ctx context.Context, slug string, week calendar.WeekSlot) (*marketplace.PriceQuote, bool, error)
}

// CatalogStore là hợp đồng hẹp với bảng boats. *model.Boat thỏa mãn.
type CatalogStore interface {
	Upsert(ctx context.Context, boat model.Boat) error
	Slugs(ctx context.Context) ([]string, error)
}

// WeekStore là hợp đồng hẹp với bảng year_weeks. *model.YearWeek thỏa mãn.
type WeekStore interface {
	Find(ctx context.Context, slug string, year int) (*model.YearWeek, bool, error)
	Insert(ctx context.Context, row *model.YearWeek) error
	UpdateWeeks(ctx context.Context, slug string, year int, weeks datatypes.JSONMap) error
}

// Publisher đẩy sự kiện đồng bộ ra Kafka. *kafka.Producer thỏa mãn; nil thì bỏ qua.
type Publisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}
