package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountOwnerType 區分帳戶持有者的種類
type AccountOwnerType string

const (
	AccountOwnerMember   AccountOwnerType = "member"
	AccountOwnerTreasury AccountOwnerType = "treasury"
)

// Account 代表社群貨幣帳戶
// BalanceCached 是日記帳分錄的累計餘額快取；CreditLimit 為 NULL 表示
// 不設額度限制，社群金庫帳戶一律不受限
type Account struct {
	gorm.Model

	ID            uuid.UUID        `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	CommunityID   uuid.UUID        `gorm:"type:uuid;not null;index;<-:create"`
	OwnerType     AccountOwnerType `gorm:"type:text;not null;<-:create"`
	OwnerUserID   *uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_account_owner,where:deleted_at IS NULL;<-:create"`
	BalanceCached decimal.Decimal  `gorm:"type:numeric;not null;default:0"`
	CreditLimit   *decimal.Decimal `gorm:"type:numeric"`
}

// JournalEntry 代表一筆日記帳分錄
// IdempotencyKey 讓同一事件（例如拍賣結算）重複送出時不會重複入帳
type JournalEntry struct {
	gorm.Model

	ID             uuid.UUID  `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	CommunityID    uuid.UUID  `gorm:"type:uuid;not null;index;<-:create"`
	EntryType      string     `gorm:"type:text;not null;<-:create"`
	IdempotencyKey string     `gorm:"type:text;not null;uniqueIndex:idx_journal_idempotency,where:deleted_at IS NULL;<-:create"`
	AuctionID      *uuid.UUID `gorm:"type:uuid;<-:create"`
	Note           *string    `gorm:"type:text;<-:create"`

	Lines []JournalLine
}

// JournalLine 是分錄中的一行，單筆分錄所有行的金額總和必須為零
type JournalLine struct {
	gorm.Model

	ID             uuid.UUID       `gorm:"type:uuid;default:public.uuid_generate_v7();primaryKey;<-:false"`
	JournalEntryID uuid.UUID       `gorm:"type:uuid;not null;index;<-:create"`
	AccountID      uuid.UUID       `gorm:"type:uuid;not null;index;<-:create"`
	Amount         decimal.Decimal `gorm:"type:numeric;not null;<-:create"`
}
