package bidding

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
	"spacebid/store"
)

var testBase = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	ctx     context.Context
	clk     *clock.MockClock
	st      *store.MemoryStore
	service *Service

	site    models.Site
	spaceA  models.Space
	spaceB  models.Space
	auction models.Auction
	round0  models.AuctionRound
}

// newFixture 建立一場進行中的拍賣：兩個空間（資格點數 10 與 5）、
// 出價增額 5、第 0 回合從 testBase 起一小時。
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	clk := clock.NewMockClock(testBase)
	st := store.NewMemoryStore(clk)

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
	require.NoError(t, st.CreateSite(ctx, &site))

	auction := models.Auction{
		SiteID:            site.ID,
		PossessionStartAt: testBase.AddDate(0, 1, 0),
		PossessionEndAt:   testBase.AddDate(0, 2, 0),
		StartAt:           testBase,
		AuctionParams: &models.AuctionParams{
			RoundDuration: caltime.Span{Clock: time.Hour},
			BidIncrement:  decimal.NewFromInt(5),
			ActivityRuleParams: models.ActivityRuleParams{
				EligibilityProgression: []models.ProgressionStep{{RoundNum: 0, Threshold: 0.5}},
			},
		},
	}
	require.NoError(t, st.CreateAuction(ctx, &auction))

	round0 := models.AuctionRound{
		AuctionID:            auction.ID,
		RoundNum:             0,
		StartAt:              testBase,
		EndAt:                testBase.Add(time.Hour),
		EligibilityThreshold: 0.5,
	}
	require.NoError(t, st.CreateRound(ctx, &round0))

	return &fixture{
		ctx:     ctx,
		clk:     clk,
		st:      st,
		service: NewService(st, WithClock(clk)),
		site:    site,
		spaceA:  site.Spaces[0],
		spaceB:  site.Spaces[1],
		auction: auction,
		round0:  round0,
	}
}

// openRound1 關閉第 0 回合並開啟第 1 回合，寫入指定的結果與資格。
func (f *fixture) openRound1(t *testing.T, results []models.RoundSpaceResult, eligibilities map[uuid.UUID]float64) models.AuctionRound {
	t.Helper()
	for i := range results {
		results[i].RoundID = f.round0.ID
		require.NoError(t, f.st.CreateResult(f.ctx, &results[i]))
	}
	round1 := models.AuctionRound{
		AuctionID:            f.auction.ID,
		RoundNum:             1,
		StartAt:              f.round0.EndAt,
		EndAt:                f.round0.EndAt.Add(time.Hour),
		EligibilityThreshold: 0.5,
	}
	require.NoError(t, f.st.CreateRound(f.ctx, &round1))
	for userID, eligibility := range eligibilities {
		require.NoError(t, f.st.CreateEligibility(f.ctx, &models.UserEligibility{
			UserID:      userID,
			RoundID:     round1.ID,
			Eligibility: eligibility,
		}))
	}
	f.clk.Set(round1.StartAt)
	return round1
}

func TestPlaceBidRoundZero(t *testing.T) {
	userID := uuid.New()

	t.Run("succeeds and is idempotent", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.service.PlaceBid(f.ctx, userID, f.auction.ID, f.spaceA.ID))
		require.NoError(t, f.service.PlaceBid(f.ctx, userID, f.auction.ID, f.spaceA.ID))

		bids, err := f.st.RoundBids(f.ctx, f.round0.ID)
		require.NoError(t, err)
		assert.Len(t, bids, 1)
	})

	t.Run("before round start", func(t *testing.T) {
		f := newFixture(t)
		f.clk.Set(testBase.Add(-time.Minute))
		err := f.service.PlaceBid(f.ctx, userID, f.auction.ID, f.spaceA.ID)
		assert.ErrorIs(t, err, store.ErrRoundNotStarted)
	})

	t.Run("at round end", func(t *testing.T) {
		f := newFixture(t)
		f.clk.Set(f.round0.EndAt)
		err := f.service.PlaceBid(f.ctx, userID, f.auction.ID, f.spaceA.ID)
		assert.ErrorIs(t, err, store.ErrRoundEnded)
	})

	t.Run("space from another site", func(t *testing.T) {
		f := newFixture(t)
		other := models.Space{SiteID: uuid.New(), Name: "elsewhere", IsAvailable: true}
		require.NoError(t, f.st.CreateSpace(f.ctx, &other))
		err := f.service.PlaceBid(f.ctx, userID, f.auction.ID, other.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("no eligibility needed in round zero", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.service.PlaceBid(f.ctx, userID, f.auction.ID, f.spaceA.ID))
		require.NoError(t, f.service.PlaceBid(f.ctx, userID, f.auction.ID, f.spaceB.ID))
	})
}

func TestPlaceBidLaterRounds(t *testing.T) {
	userA := uuid.New()
	userB := uuid.New()

	t.Run("standing winner cannot rebid own space", func(t *testing.T) {
		f := newFixture(t)
		f.openRound1(t,
			[]models.RoundSpaceResult{{SpaceID: f.spaceA.ID, WinningUserID: &userA, Value: decimal.Zero}},
			map[uuid.UUID]float64{userA: 20, userB: 20},
		)
		err := f.service.PlaceBid(f.ctx, userA, f.auction.ID, f.spaceA.ID)
		assert.ErrorIs(t, err, store.ErrAlreadyWinning)

		// 其他使用者可以搶價
		require.NoError(t, f.service.PlaceBid(f.ctx, userB, f.auction.ID, f.spaceA.ID))
	})

	t.Run("missing eligibility row rejects bid", func(t *testing.T) {
		f := newFixture(t)
		f.openRound1(t, nil, map[uuid.UUID]float64{userA: 20})
		err := f.service.PlaceBid(f.ctx, userB, f.auction.ID, f.spaceA.ID)
		assert.ErrorIs(t, err, store.ErrNoEligibility)
	})

	t.Run("activity above eligibility rejects bid", func(t *testing.T) {
		f := newFixture(t)
		f.openRound1(t, nil, map[uuid.UUID]float64{userB: 10})
		// 空間 A 的 10 點在資格內，再加空間 B 的 5 點就超出
		require.NoError(t, f.service.PlaceBid(f.ctx, userB, f.auction.ID, f.spaceA.ID))
		err := f.service.PlaceBid(f.ctx, userB, f.auction.ID, f.spaceB.ID)
		assert.ErrorIs(t, err, store.ErrExceedsEligibility)
	})

	t.Run("standing wins count toward activity", func(t *testing.T) {
		f := newFixture(t)
		f.openRound1(t,
			[]models.RoundSpaceResult{{SpaceID: f.spaceA.ID, WinningUserID: &userB, Value: decimal.Zero}},
			map[uuid.UUID]float64{userB: 10},
		)
		// 已持有空間 A（10 點），空間 B 會讓活動量到 15
		err := f.service.PlaceBid(f.ctx, userB, f.auction.ID, f.spaceB.ID)
		assert.ErrorIs(t, err, store.ErrExceedsEligibility)
	})

	t.Run("insufficient credit rejects bid", func(t *testing.T) {
		f := newFixture(t)
		f.openRound1(t,
			[]models.RoundSpaceResult{{SpaceID: f.spaceA.ID, WinningUserID: &userA, Value: decimal.Zero}},
			map[uuid.UUID]float64{userB: 20},
		)
		owner := userB
		limit := decimal.NewFromInt(3)
		require.NoError(t, f.st.CreateAccount(f.ctx, &models.Account{
			CommunityID: f.site.CommunityID,
			OwnerType:   models.AccountOwnerMember,
			OwnerUserID: &owner,
			CreditLimit: &limit,
		}))
		// 空間 A 的最低出價是 0 + 增額 5，超出額度 3
		err := f.service.PlaceBid(f.ctx, userB, f.auction.ID, f.spaceA.ID)
		assert.ErrorIs(t, err, store.ErrInsufficientCredit)
	})

	t.Run("open bid locks credit for later bids", func(t *testing.T) {
		f := newFixture(t)
		f.openRound1(t,
			[]models.RoundSpaceResult{
				{SpaceID: f.spaceA.ID, WinningUserID: &userA, Value: decimal.Zero},
				{SpaceID: f.spaceB.ID, WinningUserID: &userA, Value: decimal.Zero},
			},
			map[uuid.UUID]float64{userB: 20},
		)
		owner := userB
		limit := decimal.NewFromInt(5)
		require.NoError(t, f.st.CreateAccount(f.ctx, &models.Account{
			CommunityID: f.site.CommunityID,
			OwnerType:   models.AccountOwnerMember,
			OwnerUserID: &owner,
			CreditLimit: &limit,
		}))
		// 兩個空間的最低出價都是 0 + 增額 5，額度 5 只夠承擔一筆
		require.NoError(t, f.service.PlaceBid(f.ctx, userB, f.auction.ID, f.spaceA.ID))
		err := f.service.PlaceBid(f.ctx, userB, f.auction.ID, f.spaceB.ID)
		assert.ErrorIs(t, err, store.ErrInsufficientCredit)

		// 撤回出價釋放額度後可以改出另一個空間
		require.NoError(t, f.service.WithdrawBid(f.ctx, userB, f.auction.ID, f.spaceA.ID))
		require.NoError(t, f.service.PlaceBid(f.ctx, userB, f.auction.ID, f.spaceB.ID))
	})

	t.Run("standing win locks credit", func(t *testing.T) {
		f := newFixture(t)
		f.openRound1(t,
			[]models.RoundSpaceResult{
				{SpaceID: f.spaceA.ID, WinningUserID: &userB, Value: decimal.NewFromInt(5)},
				{SpaceID: f.spaceB.ID, WinningUserID: &userA, Value: decimal.Zero},
			},
			map[uuid.UUID]float64{userB: 20},
		)
		owner := userB
		limit := decimal.NewFromInt(5)
		require.NoError(t, f.st.CreateAccount(f.ctx, &models.Account{
			CommunityID: f.site.CommunityID,
			OwnerType:   models.AccountOwnerMember,
			OwnerUserID: &owner,
			CreditLimit: &limit,
		}))
		// 空間 A 的得標價 5 已佔滿額度，空間 B 的最低出價 5 付不起
		err := f.service.PlaceBid(f.ctx, userB, f.auction.ID, f.spaceB.ID)
		assert.ErrorIs(t, err, store.ErrInsufficientCredit)
	})
}

func TestWithdrawBid(t *testing.T) {
	userID := uuid.New()

	t.Run("removes the bid", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.service.PlaceBid(f.ctx, userID, f.auction.ID, f.spaceA.ID))
		require.NoError(t, f.service.WithdrawBid(f.ctx, userID, f.auction.ID, f.spaceA.ID))

		bids, err := f.st.RoundBids(f.ctx, f.round0.ID)
		require.NoError(t, err)
		assert.Empty(t, bids)
	})

	t.Run("no bid to withdraw", func(t *testing.T) {
		f := newFixture(t)
		err := f.service.WithdrawBid(f.ctx, userID, f.auction.ID, f.spaceA.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("closed round locks bids in", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.service.PlaceBid(f.ctx, userID, f.auction.ID, f.spaceA.ID))
		f.clk.Set(f.round0.EndAt)
		err := f.service.WithdrawBid(f.ctx, userID, f.auction.ID, f.spaceA.ID)
		assert.ErrorIs(t, err, store.ErrRoundEnded)
	})
}

func TestProxySettings(t *testing.T) {
	userID := uuid.New()

	t.Run("user value must not be negative", func(t *testing.T) {
		f := newFixture(t)
		err := f.service.SetUserValue(f.ctx, userID, f.spaceA.ID, decimal.NewFromInt(-1))
		assert.Error(t, err)
	})

	t.Run("set and remove user value", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.service.SetUserValue(f.ctx, userID, f.spaceA.ID, decimal.NewFromInt(40)))
		values, err := f.st.UserValuesForSite(f.ctx, userID, f.site.ID)
		require.NoError(t, err)
		require.Len(t, values, 1)
		assert.True(t, values[0].Value.Equal(decimal.NewFromInt(40)))

		require.NoError(t, f.service.RemoveUserValue(f.ctx, userID, f.spaceA.ID))
		values, err = f.st.UserValuesForSite(f.ctx, userID, f.site.ID)
		require.NoError(t, err)
		assert.Empty(t, values)
	})

	t.Run("max items must be positive", func(t *testing.T) {
		f := newFixture(t)
		err := f.service.EnableProxyBidding(f.ctx, userID, f.auction.ID, 0)
		assert.Error(t, err)
	})

	t.Run("enable and disable proxy bidding", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.service.EnableProxyBidding(f.ctx, userID, f.auction.ID, 2))
		settings, err := f.st.ProxyUsers(f.ctx, f.auction.ID)
		require.NoError(t, err)
		require.Len(t, settings, 1)
		assert.Equal(t, 2, settings[0].MaxItems)

		require.NoError(t, f.service.DisableProxyBidding(f.ctx, userID, f.auction.ID))
		settings, err = f.st.ProxyUsers(f.ctx, f.auction.ID)
		require.NoError(t, err)
		assert.Empty(t, settings)
	})
}
