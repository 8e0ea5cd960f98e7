package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Site 代表一個場地，場地底下有多個可供競標的空間
// Timezone 是 IANA 時區名稱，回合結束時間的日曆運算以此時區為準
type Site struct {
	gorm.Model

	ID                     uuid.UUID  `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	CommunityID            uuid.UUID  `gorm:"type:uuid;not null;<-:create"`
	Name                   string     `gorm:"type:varchar(255);not null"`
	Description            *string    `gorm:"type:text"`
	Timezone               string     `gorm:"type:text;not null;default:'UTC'"`
	DefaultAuctionParamsID *uuid.UUID `gorm:"type:uuid"`
	IsAvailable            bool       `gorm:"not null;default:true"`

	DefaultAuctionParams *AuctionParams `gorm:"foreignKey:DefaultAuctionParamsID"`
	Spaces               []Space
}
