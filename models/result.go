package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RoundSpaceResult 代表一個空間在一個回合結束後的結果
// 回合關閉時由出價解算器一次寫入，之後不再修改（僅追加的歷史紀錄）
// Value 是本回合的成交價；下一回合的最低出價為 Value 加上出價增額
type RoundSpaceResult struct {
	gorm.Model

	ID            uuid.UUID       `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	SpaceID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_result_space_round,where:deleted_at IS NULL;<-:create"`
	RoundID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_result_space_round,where:deleted_at IS NULL;<-:create"`
	WinningUserID *uuid.UUID      `gorm:"type:uuid;<-:create"`
	Value         decimal.Decimal `gorm:"type:numeric;not null;<-:create"`
	Unsettled     bool            `gorm:"not null;default:false"` // 結算遭拒時標記，供人工對帳

	Space *Space        `gorm:"foreignKey:SpaceID"`
	Round *AuctionRound `gorm:"foreignKey:RoundID"`
}

// UserEligibility 代表使用者在某回合可用的資格點數
// 回合關閉時計算並寫入下一回合的紀錄，僅追加
type UserEligibility struct {
	gorm.Model

	ID          uuid.UUID `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_eligibility_user_round,where:deleted_at IS NULL;<-:create"`
	RoundID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_eligibility_user_round,where:deleted_at IS NULL;<-:create"`
	Eligibility float64   `gorm:"not null;<-:create"`
}
