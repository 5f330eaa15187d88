package model

import (
	"context"
	"fmt"
	"time"

	"github.com/thanhpv/boat-sync/cfg"
	"github.com/thanhpv/boat-sync/pkg/db"
	"github.com/thanhpv/boat-sync/pkg/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Boat là một mục trong catalog, định danh bằng slug do marketplace cấp.
// Catalog chỉ được upsert, không bao giờ bị xóa bởi job đồng bộ.
type Boat struct {
	Model
	MarketplaceID int64   `json:"marketplace_id" gorm:"column:marketplace_id"`
	Slug          string  `json:"slug" gorm:"column:slug;type:varchar(255);not null;uniqueIndex"`
	Name          string  `json:"name" gorm:"column:name;type:varchar(255);not null"`
	BoatModel     string  `json:"model" gorm:"column:model;type:varchar(255)"`
	BuildYear     int     `json:"build_year" gorm:"column:build_year;default:0"`
	Berths        int     `json:"berths" gorm:"column:berths;default:0"`
	Cabins        int     `json:"cabins" gorm:"column:cabins;default:0"`
	Length        float64 `json:"length" gorm:"column:length;default:0"`
	Marina        string  `json:"marina" gorm:"column:marina;type:varchar(255)"`
	Country       string  `json:"country" gorm:"column:country;type:varchar(100)"`
	Category      string  `json:"category" gorm:"column:category;type:varchar(100)"`
}

func NewBoat(config *cfg.Config, logger log.Logger, db *db.Mysql) (*Boat, error) {
	boat := &Boat{
		Model: Model{
			Config: config,
			Logger: logger,
			Mysql:  db,
		},
	}
	return boat, nil
}

func (b *Boat) TableName() string {
	return "boats"
}

// Upsert ghi một mục catalog theo slug; mục đã tồn tại thì cập nhật thuộc tính.
func (b *Boat) Upsert(ctx context.Context, boat Boat) error {
	boat.Slug = TruncateString(boat.Slug, 250)
	boat.Name = TruncateString(boat.Name, 250)
	boat.CreatedAt = time.Now()
	boat.UpdatedAt = time.Now()

	db, err := b.Mysql.Db()
	if err != nil {
		b.Logger.Error(ctx, "Failed to get database connection: %v", err)
		return err
	}

	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"marketplace_id", "name", "model", "build_year", "berths",
			"cabins", "length", "marina", "country", "category", "updated_at",
		}),
	}).Create(&boat).Error; err != nil {
		return err
	}

	return nil
}

// CreateBatch upsert một lô boat message từ consumer.
func (b *Boat) CreateBatch(boatMessages []BoatMessage) error {
	db, err := b.Mysql.Db()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}

	boats := make([]Boat, 0, len(boatMessages))
	now := time.Now()

	for _, msg := range boatMessages {
		boat := Boat{
			MarketplaceID: msg.MarketplaceID,
			Slug:          TruncateString(msg.Slug, 250),
			Name:          TruncateString(msg.Name, 250),
			BoatModel:     msg.Model,
			BuildYear:     msg.BuildYear,
			Berths:        msg.Berths,
			Cabins:        msg.Cabins,
			Length:        msg.Length,
			Marina:        msg.Marina,
			Country:       msg.Country,
			Category:      msg.Category,
		}
		boat.CreatedAt = now
		boat.UpdatedAt = now
		boats = append(boats, boat)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"marketplace_id", "name", "model", "build_year", "berths",
				"cabins", "length", "marina", "country", "category", "updated_at",
			}),
		}).CreateInBatches(boats, 100)

		if result.Error != nil {
			return fmt.Errorf("failed to batch upsert boats: %w", result.Error)
		}

		return nil
	})
}

// Slugs trả về danh sách slug của toàn bộ catalog cho job đồng bộ hằng ngày.
func (b *Boat) Slugs(ctx context.Context) ([]string, error) {
	db, err := b.Mysql.Db()
	if err != nil {
		return nil, err
	}

	var slugs []string
	if err := db.Model(&Boat{}).Order("slug asc").Pluck("slug", &slugs).Error; err != nil {
		b.Logger.Error(ctx, "Failed to list boat slugs: %v", err)
		return nil, err
	}

	return slugs, nil
}
