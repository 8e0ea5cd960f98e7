package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Bid 代表一筆出價
// 出價沒有金額欄位：出價本身表示「願意以本回合的最低價格取得該空間」，
// 同一 (空間, 回合, 使用者) 重複出價為冪等操作
type Bid struct {
	gorm.Model

	ID      uuid.UUID `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	SpaceID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bid_space_round_user,where:deleted_at IS NULL;<-:create"`
	RoundID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bid_space_round_user,where:deleted_at IS NULL;<-:create"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bid_space_round_user,where:deleted_at IS NULL;<-:create"`

	Space *Space        `gorm:"foreignKey:SpaceID"`
	Round *AuctionRound `gorm:"foreignKey:RoundID"`
	User  *User         `gorm:"foreignKey:UserID"`
}
