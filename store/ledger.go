package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"spacebid/models"
)

// EntryTypeAuctionSettlement 是拍賣結算分錄的類型標記。
const EntryTypeAuctionSettlement = "auction-settlement"

// SettlementIdempotencyKey 產生拍賣結算分錄的冪等鍵。
// 同一場拍賣不論結算被觸發幾次都只會入帳一次。
func SettlementIdempotencyKey(auctionID uuid.UUID) string {
	return fmt.Sprintf("auction-settlement:%s", auctionID)
}

// Ledger 是社群貨幣帳本的介面，由 Store 的實作一併提供，
// 讓結算分錄與回合推進落在同一筆交易中。
type Ledger interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetMemberAccount(ctx context.Context, communityID, userID uuid.UUID) (*models.Account, error)
	GetTreasuryAccount(ctx context.Context, communityID uuid.UUID) (*models.Account, error)
	// HasSufficientCredit 檢查成員的可用額度是否足以承擔 amount。
	// 可用額度是餘額減去被佔用額度再加上信用額度；
	// CreditLimit 為 NULL 與尚未建立帳戶的成員都視為不設限。
	HasSufficientCredit(ctx context.Context, communityID, userID uuid.UUID, amount decimal.Decimal) (bool, error)
	// LockedBalance 回傳使用者在社群進行中拍賣裡被佔用的額度總和：
	// 最新已解算回合中得標的成交價，加上尚未解算回合中每筆出價的
	// 最低出價價格。
	LockedBalance(ctx context.Context, communityID, userID uuid.UUID) (decimal.Decimal, error)
	// SettleAuction 為拍賣建立結算分錄：每位得標者支付其最終成交價給
	// 社群金庫。分錄以冪等鍵保護，重複結算是無操作。
	SettleAuction(ctx context.Context, communityID, auctionID uuid.UUID, payments map[uuid.UUID]decimal.Decimal) error
}

func (s *GormStore) CreateAccount(ctx context.Context, account *models.Account) error {
	const op = "CreateAccount"
	if result := s.db.WithContext(ctx).Create(account); result.Error != nil {
		return fmt.Errorf("[%s] Fail to create account, err=%w", op, result.Error)
	}
	return nil
}

func (s *GormStore) GetMemberAccount(ctx context.Context, communityID, userID uuid.UUID) (*models.Account, error) {
	const op = "GetMemberAccount"
	var account models.Account
	result := s.db.WithContext(ctx).
		Where("community_id = ? AND owner_type = ? AND owner_user_id = ?",
			communityID, models.AccountOwnerMember, userID).
		First(&account)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("[%s] Fail to find member account, err=%w", op, result.Error)
	}
	return &account, nil
}

func (s *GormStore) GetTreasuryAccount(ctx context.Context, communityID uuid.UUID) (*models.Account, error) {
	const op = "GetTreasuryAccount"
	var account models.Account
	result := s.db.WithContext(ctx).
		Where("community_id = ? AND owner_type = ?", communityID, models.AccountOwnerTreasury).
		First(&account)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("[%s] Fail to find treasury account, err=%w", op, result.Error)
	}
	return &account, nil
}

func (s *GormStore) HasSufficientCredit(ctx context.Context, communityID, userID uuid.UUID, amount decimal.Decimal) (bool, error) {
	const op = "HasSufficientCredit"
	account, err := s.GetMemberAccount(ctx, communityID, userID)
	if err != nil {
		// 帳戶在第一次結算時才建立，沒有帳戶視同未設額度
		if errors.Is(err, ErrNotFound) {
			return true, nil
		}
		return false, err
	}
	if isUnlimited(account) {
		return true, nil
	}
	locked, err := s.LockedBalance(ctx, communityID, userID)
	if err != nil {
		return false, fmt.Errorf("[%s] Fail to compute locked balance, err=%w", op, err)
	}
	return creditCovers(account, locked, amount), nil
}

func (s *GormStore) LockedBalance(ctx context.Context, communityID, userID uuid.UUID) (decimal.Decimal, error) {
	return lockedBalance(ctx, s, communityID, userID)
}

func (s *GormStore) SettleAuction(ctx context.Context, communityID, auctionID uuid.UUID, payments map[uuid.UUID]decimal.Decimal) error {
	const op = "SettleAuction"
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		key := SettlementIdempotencyKey(auctionID)
		var existing models.JournalEntry
		result := tx.Where("idempotency_key = ?", key).First(&existing)
		if result.Error == nil {
			return nil
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return fmt.Errorf("[%s] Fail to check existing settlement, err=%w", op, result.Error)
		}

		id := auctionID
		entry := models.JournalEntry{
			CommunityID:    communityID,
			EntryType:      EntryTypeAuctionSettlement,
			IdempotencyKey: key,
			AuctionID:      &id,
		}
		if result := tx.Create(&entry); result.Error != nil {
			return fmt.Errorf("[%s] Fail to create settlement entry, err=%w", op, result.Error)
		}

		txStore := &GormStore{db: tx}
		total := decimal.Zero
		for _, userID := range sortedPayers(payments) {
			amount := payments[userID]
			if !amount.IsPositive() {
				continue
			}
			account, err := txStore.memberAccountOrCreate(ctx, communityID, userID)
			if err != nil {
				return fmt.Errorf("[%s] Fail to resolve member account, err=%w", op, err)
			}
			if err := txStore.postLine(entry.ID, account.ID, amount.Neg()); err != nil {
				return fmt.Errorf("[%s] Fail to post member line, err=%w", op, err)
			}
			total = total.Add(amount)
		}
		if total.IsZero() {
			return nil
		}
		treasury, err := txStore.treasuryAccountOrCreate(ctx, communityID)
		if err != nil {
			return fmt.Errorf("[%s] Fail to resolve treasury account, err=%w", op, err)
		}
		if err := txStore.postLine(entry.ID, treasury.ID, total); err != nil {
			return fmt.Errorf("[%s] Fail to post treasury line, err=%w", op, err)
		}
		return nil
	})
}

func (s *GormStore) memberAccountOrCreate(ctx context.Context, communityID, userID uuid.UUID) (*models.Account, error) {
	account, err := s.GetMemberAccount(ctx, communityID, userID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	owner := userID
	created := models.Account{
		CommunityID: communityID,
		OwnerType:   models.AccountOwnerMember,
		OwnerUserID: &owner,
	}
	if err := s.CreateAccount(ctx, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *GormStore) treasuryAccountOrCreate(ctx context.Context, communityID uuid.UUID) (*models.Account, error) {
	account, err := s.GetTreasuryAccount(ctx, communityID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	created := models.Account{
		CommunityID: communityID,
		OwnerType:   models.AccountOwnerTreasury,
	}
	if err := s.CreateAccount(ctx, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *GormStore) postLine(entryID, accountID uuid.UUID, amount decimal.Decimal) error {
	line := models.JournalLine{
		JournalEntryID: entryID,
		AccountID:      accountID,
		Amount:         amount,
	}
	if result := s.db.Create(&line); result.Error != nil {
		return result.Error
	}
	result := s.db.Model(&models.Account{}).
		Where("id = ?", accountID).
		Update("balance_cached", gorm.Expr("balance_cached + ?", amount))
	return result.Error
}

// isUnlimited 判斷帳戶是否不受額度限制。
// 金庫帳戶與 CreditLimit 為 NULL 的帳戶不受限制。
func isUnlimited(account *models.Account) bool {
	return account.OwnerType == models.AccountOwnerTreasury || account.CreditLimit == nil
}

// creditCovers 判斷帳戶可用額度是否足以承擔 amount。
// 可用額度是餘額減去被佔用額度再加上信用額度。
func creditCovers(account *models.Account, locked, amount decimal.Decimal) bool {
	if isUnlimited(account) {
		return true
	}
	available := account.BalanceCached.Sub(locked).Add(*account.CreditLimit)
	return amount.LessThanOrEqual(available)
}

func sortedPayers(payments map[uuid.UUID]decimal.Decimal) []uuid.UUID {
	payers := lo.Keys(payments)
	sort.Slice(payers, func(i, j int) bool {
		return payers[i].String() < payers[j].String()
	})
	return payers
}
