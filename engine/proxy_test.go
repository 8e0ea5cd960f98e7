package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanProxyBids(t *testing.T) {
	spaceA := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	spaceB := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	spaceC := uuid.MustParse("00000000-0000-0000-0000-00000000000c")

	candidate := func(id uuid.UUID, value, minimum int64) ProxyCandidate {
		return ProxyCandidate{
			SpaceID:    id,
			UserValue:  decimal.NewFromInt(value),
			MinimumBid: decimal.NewFromInt(minimum),
		}
	}

	t.Run("orders by surplus descending", func(t *testing.T) {
		plan := PlanProxyBids([]ProxyCandidate{
			candidate(spaceA, 30, 25), // 剩餘 5
			candidate(spaceB, 50, 20), // 剩餘 30
			candidate(spaceC, 40, 30), // 剩餘 10
		}, 3, 0)
		require.Len(t, plan, 3)
		assert.Equal(t, spaceB, plan[0].SpaceID)
		assert.Equal(t, spaceC, plan[1].SpaceID)
		assert.Equal(t, spaceA, plan[2].SpaceID)
	})

	t.Run("drops candidates priced above user value", func(t *testing.T) {
		plan := PlanProxyBids([]ProxyCandidate{
			candidate(spaceA, 20, 25),
			candidate(spaceB, 20, 20),
		}, 3, 0)
		require.Len(t, plan, 1)
		assert.Equal(t, spaceB, plan[0].SpaceID)
	})

	t.Run("equal surplus breaks tie by space id", func(t *testing.T) {
		plan := PlanProxyBids([]ProxyCandidate{
			candidate(spaceB, 40, 30),
			candidate(spaceA, 20, 10),
		}, 3, 0)
		require.Len(t, plan, 2)
		assert.Equal(t, spaceA, plan[0].SpaceID)
		assert.Equal(t, spaceB, plan[1].SpaceID)
	})

	t.Run("no budget left when already winning enough", func(t *testing.T) {
		plan := PlanProxyBids([]ProxyCandidate{
			candidate(spaceA, 30, 10),
		}, 2, 2)
		assert.Empty(t, plan)
	})

	t.Run("budget below zero treated as zero", func(t *testing.T) {
		plan := PlanProxyBids([]ProxyCandidate{
			candidate(spaceA, 30, 10),
		}, 1, 3)
		assert.Empty(t, plan)
	})
}
