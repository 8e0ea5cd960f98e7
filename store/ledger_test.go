package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spacebid/caltime"
	"spacebid/clock"
	"spacebid/models"
)

func newTestStore() *MemoryStore {
	return NewMemoryStore(clock.NewMockClock(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)))
}

func TestHasSufficientCredit(t *testing.T) {
	ctx := context.Background()
	communityID := uuid.New()
	userID := uuid.New()

	t.Run("missing account is unlimited", func(t *testing.T) {
		s := newTestStore()
		ok, err := s.HasSufficientCredit(ctx, communityID, userID, decimal.NewFromInt(1_000))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("balance plus limit", func(t *testing.T) {
		s := newTestStore()
		owner := userID
		limit := decimal.NewFromInt(10)
		require.NoError(t, s.CreateAccount(ctx, &models.Account{
			CommunityID:   communityID,
			OwnerType:     models.AccountOwnerMember,
			OwnerUserID:   &owner,
			BalanceCached: decimal.NewFromInt(5),
			CreditLimit:   &limit,
		}))

		ok, err := s.HasSufficientCredit(ctx, communityID, userID, decimal.NewFromInt(15))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.HasSufficientCredit(ctx, communityID, userID, decimal.NewFromInt(16))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("nil limit is unlimited", func(t *testing.T) {
		s := newTestStore()
		owner := userID
		require.NoError(t, s.CreateAccount(ctx, &models.Account{
			CommunityID: communityID,
			OwnerType:   models.AccountOwnerMember,
			OwnerUserID: &owner,
		}))

		ok, err := s.HasSufficientCredit(ctx, communityID, userID, decimal.NewFromInt(1_000_000))
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestLockedBalance(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	userID := uuid.New()
	rival := uuid.New()

	s := newTestStore()
	site := models.Site{
		CommunityID: uuid.New(),
		Name:        "community hall",
		Timezone:    "UTC",
		IsAvailable: true,
		Spaces: []models.Space{
			{Name: "room A", EligibilityPoints: 10, IsAvailable: true},
			{Name: "room B", EligibilityPoints: 5, IsAvailable: true},
		},
	}
	require.NoError(t, s.CreateSite(ctx, &site))

	auction := models.Auction{
		SiteID:            site.ID,
		PossessionStartAt: base.AddDate(0, 1, 0),
		PossessionEndAt:   base.AddDate(0, 2, 0),
		StartAt:           base,
		AuctionParams: &models.AuctionParams{
			RoundDuration: caltime.Span{Clock: time.Hour},
			BidIncrement:  decimal.NewFromInt(5),
		},
	}
	require.NoError(t, s.CreateAuction(ctx, &auction))

	round0 := models.AuctionRound{AuctionID: auction.ID, RoundNum: 0, StartAt: base, EndAt: base.Add(time.Hour)}
	require.NoError(t, s.CreateRound(ctx, &round0))
	require.NoError(t, s.CreateResult(ctx, &models.RoundSpaceResult{
		SpaceID: site.Spaces[0].ID, RoundID: round0.ID, WinningUserID: &userID, Value: decimal.NewFromInt(10),
	}))
	require.NoError(t, s.CreateResult(ctx, &models.RoundSpaceResult{
		SpaceID: site.Spaces[1].ID, RoundID: round0.ID, WinningUserID: &rival, Value: decimal.NewFromInt(5),
	}))
	round1 := models.AuctionRound{AuctionID: auction.ID, RoundNum: 1, StartAt: round0.EndAt, EndAt: round0.EndAt.Add(time.Hour)}
	require.NoError(t, s.CreateRound(ctx, &round1))
	require.NoError(t, s.CreateBid(ctx, &models.Bid{SpaceID: site.Spaces[1].ID, RoundID: round1.ID, UserID: userID}))

	t.Run("sums standing win and open bid", func(t *testing.T) {
		// 第 0 回合得標空間 A（10），第 1 回合對空間 B 出價（5 + 增額 5）
		locked, err := s.LockedBalance(ctx, site.CommunityID, userID)
		require.NoError(t, err)
		assert.True(t, locked.Equal(decimal.NewFromInt(20)), "locked = %s", locked)
	})

	t.Run("other community locks nothing", func(t *testing.T) {
		locked, err := s.LockedBalance(ctx, uuid.New(), userID)
		require.NoError(t, err)
		assert.True(t, locked.IsZero())
	})

	t.Run("concluded auction locks nothing", func(t *testing.T) {
		require.NoError(t, s.ConcludeAuction(ctx, auction.ID, round1.EndAt))
		locked, err := s.LockedBalance(ctx, site.CommunityID, userID)
		require.NoError(t, err)
		assert.True(t, locked.IsZero())
	})
}

func TestSettleAuction(t *testing.T) {
	ctx := context.Background()
	communityID := uuid.New()
	auctionID := uuid.New()
	payerA := uuid.New()
	payerB := uuid.New()

	payments := map[uuid.UUID]decimal.Decimal{
		payerA: decimal.NewFromInt(30),
		payerB: decimal.NewFromInt(20),
	}

	t.Run("creates zero sum entry and moves balances", func(t *testing.T) {
		s := newTestStore()
		require.NoError(t, s.SettleAuction(ctx, communityID, auctionID, payments))

		entries := s.JournalEntries()
		require.Len(t, entries, 1)
		assert.Equal(t, EntryTypeAuctionSettlement, entries[0].EntryType)
		assert.Equal(t, SettlementIdempotencyKey(auctionID), entries[0].IdempotencyKey)

		lines := s.JournalLinesFor(entries[0].ID)
		require.Len(t, lines, 3)
		sum := decimal.Zero
		for _, line := range lines {
			sum = sum.Add(line.Amount)
		}
		assert.True(t, sum.IsZero())

		accountA, err := s.GetMemberAccount(ctx, communityID, payerA)
		require.NoError(t, err)
		assert.True(t, accountA.BalanceCached.Equal(decimal.NewFromInt(-30)))

		treasury, err := s.GetTreasuryAccount(ctx, communityID)
		require.NoError(t, err)
		assert.True(t, treasury.BalanceCached.Equal(decimal.NewFromInt(50)))
	})

	t.Run("second settlement is a no-op", func(t *testing.T) {
		s := newTestStore()
		require.NoError(t, s.SettleAuction(ctx, communityID, auctionID, payments))
		require.NoError(t, s.SettleAuction(ctx, communityID, auctionID, payments))

		require.Len(t, s.JournalEntries(), 1)
		treasury, err := s.GetTreasuryAccount(ctx, communityID)
		require.NoError(t, err)
		assert.True(t, treasury.BalanceCached.Equal(decimal.NewFromInt(50)))
	})

	t.Run("zero payments create no lines", func(t *testing.T) {
		s := newTestStore()
		require.NoError(t, s.SettleAuction(ctx, communityID, auctionID, map[uuid.UUID]decimal.Decimal{
			payerA: decimal.Zero,
		}))

		entries := s.JournalEntries()
		require.Len(t, entries, 1)
		assert.Empty(t, s.JournalLinesFor(entries[0].ID))
		_, err := s.GetTreasuryAccount(ctx, communityID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
