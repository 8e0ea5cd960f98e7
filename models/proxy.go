package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UserValue 代表使用者私下申報、對某空間願付的最高價格
// 僅供代理出價解算器使用，可隨時更新或刪除
type UserValue struct {
	gorm.Model

	ID      uuid.UUID       `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	UserID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_user_value_user_space,where:deleted_at IS NULL;<-:create"`
	SpaceID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_user_value_user_space,where:deleted_at IS NULL;<-:create"`
	Value   decimal.Decimal `gorm:"type:numeric;not null"`
}

// UseProxyBidding 代表使用者對某場拍賣啟用代理出價
// 紀錄存在即啟用；MaxItems 是代理出價最多同時爭取的空間數
type UseProxyBidding struct {
	gorm.Model

	ID        uuid.UUID `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_proxy_user_auction,where:deleted_at IS NULL;<-:create"`
	AuctionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_proxy_user_auction,where:deleted_at IS NULL;<-:create"`
	MaxItems  int       `gorm:"not null"`
}
