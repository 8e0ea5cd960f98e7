package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"spacebid/models"
)

func (s *MemoryStore) CreateAccount(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	s.accounts = append(s.accounts, *account)
	return nil
}

func (s *MemoryStore) GetMemberAccount(_ context.Context, communityID, userID uuid.UUID) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if account := s.memberAccountLocked(communityID, userID); account != nil {
		found := *account
		return &found, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) memberAccountLocked(communityID, userID uuid.UUID) *models.Account {
	for i := range s.accounts {
		account := &s.accounts[i]
		if account.CommunityID == communityID &&
			account.OwnerType == models.AccountOwnerMember &&
			account.OwnerUserID != nil && *account.OwnerUserID == userID {
			return account
		}
	}
	return nil
}

func (s *MemoryStore) GetTreasuryAccount(_ context.Context, communityID uuid.UUID) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if account := s.treasuryAccountLocked(communityID); account != nil {
		found := *account
		return &found, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) treasuryAccountLocked(communityID uuid.UUID) *models.Account {
	for i := range s.accounts {
		account := &s.accounts[i]
		if account.CommunityID == communityID && account.OwnerType == models.AccountOwnerTreasury {
			return account
		}
	}
	return nil
}

func (s *MemoryStore) HasSufficientCredit(ctx context.Context, communityID, userID uuid.UUID, amount decimal.Decimal) (bool, error) {
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
		return false, err
	}
	return creditCovers(account, locked, amount), nil
}

func (s *MemoryStore) LockedBalance(ctx context.Context, communityID, userID uuid.UUID) (decimal.Decimal, error) {
	return lockedBalance(ctx, s, communityID, userID)
}

func (s *MemoryStore) SettleAuction(_ context.Context, communityID, auctionID uuid.UUID, payments map[uuid.UUID]decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := SettlementIdempotencyKey(auctionID)
	for _, entry := range s.entries {
		if entry.IdempotencyKey == key {
			return nil
		}
	}

	id := auctionID
	entry := models.JournalEntry{
		CommunityID:    communityID,
		EntryType:      EntryTypeAuctionSettlement,
		IdempotencyKey: key,
		AuctionID:      &id,
	}
	s.stamp(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
	s.entries = append(s.entries, entry)

	total := decimal.Zero
	for _, userID := range sortedPayers(payments) {
		amount := payments[userID]
		if !amount.IsPositive() {
			continue
		}
		account := s.memberAccountLocked(communityID, userID)
		if account == nil {
			owner := userID
			created := models.Account{
				CommunityID: communityID,
				OwnerType:   models.AccountOwnerMember,
				OwnerUserID: &owner,
			}
			s.stamp(&created.ID, &created.CreatedAt, &created.UpdatedAt)
			s.accounts = append(s.accounts, created)
			account = &s.accounts[len(s.accounts)-1]
		}
		s.postLineLocked(entry.ID, account, amount.Neg())
		total = total.Add(amount)
	}
	if total.IsZero() {
		return nil
	}
	treasury := s.treasuryAccountLocked(communityID)
	if treasury == nil {
		created := models.Account{
			CommunityID: communityID,
			OwnerType:   models.AccountOwnerTreasury,
		}
		s.stamp(&created.ID, &created.CreatedAt, &created.UpdatedAt)
		s.accounts = append(s.accounts, created)
		treasury = &s.accounts[len(s.accounts)-1]
	}
	s.postLineLocked(entry.ID, treasury, total)
	return nil
}

func (s *MemoryStore) postLineLocked(entryID uuid.UUID, account *models.Account, amount decimal.Decimal) {
	line := models.JournalLine{
		JournalEntryID: entryID,
		AccountID:      account.ID,
		Amount:         amount,
	}
	s.stamp(&line.ID, &line.CreatedAt, &line.UpdatedAt)
	s.lines = append(s.lines, line)
	account.BalanceCached = account.BalanceCached.Add(amount)
}

// JournalEntries 回傳目前所有分錄，測試用。
func (s *MemoryStore) JournalEntries() []models.JournalEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]models.JournalEntry, len(s.entries))
	copy(entries, s.entries)
	return entries
}

// JournalLinesFor 回傳指定分錄的所有行，測試用。
func (s *MemoryStore) JournalLinesFor(entryID uuid.UUID) []models.JournalLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	var lines []models.JournalLine
	for _, line := range s.lines {
		if line.JournalEntryID == entryID {
			lines = append(lines, line)
		}
	}
	return lines
}
