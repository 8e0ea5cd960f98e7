package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"spacebid/caltime"
)

// ProgressionStep 是資格進程中的一個階段：從 RoundNum 起（含）需要維持的
// 活動比例。查詢某回合的門檻時取 RoundNum 不大於該回合的最後一個階段。
type ProgressionStep struct {
	RoundNum  int     `json:"round_num"`
	Threshold float64 `json:"threshold"`
}

// ActivityRuleParams 是活動規則的參數，以 jsonb 形式存放在拍賣參數中
type ActivityRuleParams struct {
	EligibilityProgression []ProgressionStep `json:"eligibility_progression"`
}

// AuctionParams 代表一場拍賣的參數
// RoundDuration 以日曆跨度保存，跨日光節約時間時回合仍對齊當地牆上時刻
type AuctionParams struct {
	gorm.Model

	ID                 uuid.UUID          `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	RoundDuration      caltime.Span       `gorm:"type:interval;not null"`
	BidIncrement       decimal.Decimal    `gorm:"type:numeric;not null"`
	ActivityRuleParams ActivityRuleParams `gorm:"serializer:json;type:jsonb;not null"`
}

// Auction 代表場地中一次完整的競價程序
// EndAt 為 NULL 表示拍賣仍在進行中，結束後一次性寫入且不再變動
type Auction struct {
	gorm.Model

	ID                 uuid.UUID  `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	SiteID             uuid.UUID  `gorm:"type:uuid;not null;index;<-:create"`
	PossessionStartAt  time.Time  `gorm:"type:timestamp with time zone;not null;<-:create"`
	PossessionEndAt    time.Time  `gorm:"type:timestamp with time zone;not null;<-:create"`
	StartAt            time.Time  `gorm:"type:timestamp with time zone;not null;<-:create"`
	EndAt              *time.Time `gorm:"type:timestamp with time zone"`
	AuctionParamsID    uuid.UUID  `gorm:"type:uuid;not null;<-:create"`
	SchedulerFailures  int        `gorm:"not null;default:0"`
	SchedulerLastError *time.Time `gorm:"type:timestamp with time zone"`

	Site          *Site          `gorm:"foreignKey:SiteID"`
	AuctionParams *AuctionParams `gorm:"foreignKey:AuctionParamsID"`
	Rounds        []AuctionRound
}

// AuctionRound 代表拍賣中的一個回合，由排程器建立後即不再修改
// 回合編號自 0 起連續遞增；end_at 過了即視為關閉
type AuctionRound struct {
	gorm.Model

	ID                    uuid.UUID  `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	AuctionID             uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_auction_round_num,where:deleted_at IS NULL;<-:create"`
	RoundNum              int        `gorm:"not null;uniqueIndex:idx_auction_round_num,where:deleted_at IS NULL;<-:create"`
	StartAt               time.Time  `gorm:"type:timestamp with time zone;not null;<-:create"`
	EndAt                 time.Time  `gorm:"type:timestamp with time zone;not null;<-:create"`
	EligibilityThreshold  float64    `gorm:"not null;<-:create"` // 0-1 的活動比例門檻
	ProxyLastProcessedAt  *time.Time `gorm:"type:timestamp with time zone"`
	ProxyFailures         int        `gorm:"not null;default:0"`
	ProxyLastFailedAt     *time.Time `gorm:"type:timestamp with time zone"`

	Auction *Auction `gorm:"foreignKey:AuctionID"`
}
