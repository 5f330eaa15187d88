package model

import (
	"time"

	"github.com/thanhpv/boat-sync/cfg"
	"github.com/thanhpv/boat-sync/pkg/db"
	"github.com/thanhpv/boat-sync/pkg/log"
)

type Model struct {
	Config    *cfg.Config `gorm:"-"`
	Logger    log.Logger  `gorm:"-"`
	Mysql     *db.Mysql   `gorm:"-"`
	ID        uint        `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
