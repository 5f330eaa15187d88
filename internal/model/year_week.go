package model

import (
	"context"
	"errors"

	"github.com/thanhpv/boat-sync/cfg"
	"github.com/thanhpv/boat-sync/pkg/db"
	"github.com/thanhpv/boat-sync/pkg/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// YearWeek là bản ghi tuần theo năm của một thuyền: một dòng cho mỗi cặp
// (slug, year), cột weeks là một JSON document với khóa week_1..week_53.
//
// Mỗi slot tuần có ba trạng thái:
//   - khóa không tồn tại: chưa từng quan sát tuần này
//   - null: đã quan sát nhưng không có dữ liệu
//   - map timestamp -> snapshot: các lần quan sát giá, chỉ thêm không xóa
type YearWeek struct {
	Model
	Slug  string            `json:"slug" gorm:"column:slug;type:varchar(255);not null;uniqueIndex:idx_slug_year"`
	Year  int               `json:"year" gorm:"column:year;not null;uniqueIndex:idx_slug_year"`
	Weeks datatypes.JSONMap `json:"weeks" gorm:"column:weeks"`
}

func NewYearWeek(config *cfg.Config, logger log.Logger, db *db.Mysql) (*YearWeek, error) {
	yw := &YearWeek{
		Model: Model{
			Config: config,
			Logger: logger,
			Mysql:  db,
		},
	}
	return yw, nil
}

func (yw *YearWeek) TableName() string {
	return "year_weeks"
}

// Find đọc bản ghi tuần của một thuyền trong một năm.
// Trả về found=false (không phải lỗi) khi chưa có dòng nào.
func (yw *YearWeek) Find(ctx context.Context, slug string, year int) (*YearWeek, bool, error) {
	db, err := yw.Mysql.Db()
	if err != nil {
		return nil, false, err
	}

	var row YearWeek
	result := db.Where("slug = ? AND year = ?", slug, year).First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		yw.Logger.Error(ctx, "Failed to read year_weeks row slug=%s year=%d: %v", slug, year, result.Error)
		return nil, false, result.Error
	}

	return &row, true, nil
}

// Insert tạo dòng mới cho (slug, year) với các slot tuần khởi tạo.
func (yw *YearWeek) Insert(ctx context.Context, row *YearWeek) error {
	db, err := yw.Mysql.Db()
	if err != nil {
		return err
	}

	if err := db.Create(row).Error; err != nil {
		return err
	}

	return nil
}

// UpdateWeeks ghi lại toàn bộ cột weeks của một dòng đã tồn tại.
// Quyết định merge (thêm khóa nào, giữ khóa nào) đã được tính ở tầng trên từ
// chính dòng vừa đọc; ở đây chỉ ghi.
func (yw *YearWeek) UpdateWeeks(ctx context.Context, slug string, year int, weeks datatypes.JSONMap) error {
	db, err := yw.Mysql.Db()
	if err != nil {
		return err
	}

	result := db.Model(&YearWeek{}).
		Where("slug = ? AND year = ?", slug, year).
		Update("weeks", weeks)
	if result.Error != nil {
		yw.Logger.Error(ctx, "Failed to update year_weeks row slug=%s year=%d: %v", slug, year, result.Error)
		return result.Error
	}

	return nil
}
