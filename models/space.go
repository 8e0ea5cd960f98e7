package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Space 代表場地中的一個獨占使用空間（座位、會議室、停車位等）
// EligibilityPoints 是活動規則計算時這個空間的權重
type Space struct {
	gorm.Model

	ID                uuid.UUID `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	SiteID            uuid.UUID `gorm:"type:uuid;not null;index;<-:create"`
	Name              string    `gorm:"type:varchar(255);not null"`
	Description       *string   `gorm:"type:text"`
	EligibilityPoints float64   `gorm:"not null;default:1"`
	IsAvailable       bool      `gorm:"not null;default:true"`

	Site *Site `gorm:"foreignKey:SiteID"`
}
