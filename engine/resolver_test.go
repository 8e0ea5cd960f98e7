package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSpace(t *testing.T) {
	increment := decimal.NewFromInt(5)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	userA := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	userB := uuid.MustParse("00000000-0000-0000-0000-00000000000b")

	t.Run("no bids and no prior result", func(t *testing.T) {
		_, ok := ResolveSpace(nil, nil, increment)
		assert.False(t, ok)
	})

	t.Run("no bids carries prior result forward", func(t *testing.T) {
		prior := &PriorResult{WinningUserID: &userA, Value: decimal.NewFromInt(20)}
		outcome, ok := ResolveSpace(nil, prior, increment)
		require.True(t, ok)
		require.NotNil(t, outcome.WinningUserID)
		assert.Equal(t, userA, *outcome.WinningUserID)
		assert.True(t, outcome.Value.Equal(decimal.NewFromInt(20)))
	})

	t.Run("first ever bid starts at zero", func(t *testing.T) {
		bids := []SpaceBid{{UserID: userA, CreatedAt: base}}
		outcome, ok := ResolveSpace(bids, nil, increment)
		require.True(t, ok)
		require.NotNil(t, outcome.WinningUserID)
		assert.Equal(t, userA, *outcome.WinningUserID)
		assert.True(t, outcome.Value.IsZero())
	})

	t.Run("bid on priced space raises value by increment", func(t *testing.T) {
		prior := &PriorResult{WinningUserID: &userA, Value: decimal.NewFromInt(20)}
		bids := []SpaceBid{{UserID: userB, CreatedAt: base}}
		outcome, ok := ResolveSpace(bids, prior, increment)
		require.True(t, ok)
		assert.Equal(t, userB, *outcome.WinningUserID)
		assert.True(t, outcome.Value.Equal(decimal.NewFromInt(25)))
	})

	t.Run("oversubscribed space still raises by one increment", func(t *testing.T) {
		prior := &PriorResult{WinningUserID: &userA, Value: decimal.NewFromInt(20)}
		bids := []SpaceBid{
			{UserID: userB, CreatedAt: base},
			{UserID: userA, CreatedAt: base.Add(time.Second)},
		}
		outcome, ok := ResolveSpace(bids, prior, increment)
		require.True(t, ok)
		assert.Equal(t, userB, *outcome.WinningUserID)
		assert.True(t, outcome.Value.Equal(decimal.NewFromInt(25)))
	})
}

func TestPickWinner(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	userA := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	userB := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	userC := uuid.MustParse("00000000-0000-0000-0000-00000000000c")

	t.Run("earliest bid wins", func(t *testing.T) {
		bids := []SpaceBid{
			{UserID: userC, CreatedAt: base.Add(2 * time.Second)},
			{UserID: userA, CreatedAt: base.Add(time.Second)},
			{UserID: userB, CreatedAt: base},
		}
		assert.Equal(t, userB, PickWinner(bids))
	})

	t.Run("identical timestamps break tie by user id", func(t *testing.T) {
		bids := []SpaceBid{
			{UserID: userC, CreatedAt: base},
			{UserID: userA, CreatedAt: base},
			{UserID: userB, CreatedAt: base},
		}
		assert.Equal(t, userA, PickWinner(bids))
	})

	t.Run("order of input does not matter", func(t *testing.T) {
		bids := []SpaceBid{
			{UserID: userB, CreatedAt: base},
			{UserID: userA, CreatedAt: base},
		}
		reversed := []SpaceBid{bids[1], bids[0]}
		assert.Equal(t, PickWinner(bids), PickWinner(reversed))
	})
}

func TestSortBids(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	userA := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	userB := uuid.MustParse("00000000-0000-0000-0000-00000000000b")

	bids := []SpaceBid{
		{UserID: userB, CreatedAt: base},
		{UserID: userA, CreatedAt: base.Add(-time.Second)},
		{UserID: userA, CreatedAt: base},
	}
	SortBids(bids)
	assert.Equal(t, userA, bids[0].UserID)
	assert.Equal(t, base.Add(-time.Second), bids[0].CreatedAt)
	assert.Equal(t, userA, bids[1].UserID)
	assert.Equal(t, userB, bids[2].UserID)
}

func TestMinimumBid(t *testing.T) {
	increment := decimal.NewFromInt(5)

	assert.True(t, MinimumBid(nil, increment).IsZero())

	prior := &PriorResult{Value: decimal.NewFromInt(20)}
	assert.True(t, MinimumBid(prior, increment).Equal(decimal.NewFromInt(25)))
}
