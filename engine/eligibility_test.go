package engine

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"spacebid/models"
)

func TestThresholdForRound(t *testing.T) {
	progression := []models.ProgressionStep{
		{RoundNum: 0, Threshold: 0.5},
		{RoundNum: 10, Threshold: 0.75},
		{RoundNum: 20, Threshold: 0.9},
		{RoundNum: 30, Threshold: 1.0},
	}

	testCases := []struct {
		name        string
		progression []models.ProgressionStep
		roundNum    int
		expected    float64
	}{
		{"first step", progression, 0, 0.5},
		{"step boundary", progression, 10, 0.75},
		{"between steps", progression, 11, 0.75},
		{"last step boundary", progression, 30, 1.0},
		{"beyond last step", progression, 31, 1.0},
		{"empty progression", nil, 0, 0},
		{"before first step", []models.ProgressionStep{{RoundNum: 5, Threshold: 0.5}}, 0, 0},
		{"single step hit", []models.ProgressionStep{{RoundNum: 5, Threshold: 0.5}}, 5, 0.5},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ThresholdForRound(tc.progression, tc.roundNum))
		})
	}
}

func TestNextEligibility(t *testing.T) {
	prev := func(v float64) *float64 { return &v }

	testCases := []struct {
		name      string
		points    float64
		threshold float64
		prev      *float64
		expected  float64
	}{
		{"round zero unconstrained", 10, 0.5, nil, 20},
		{"capped by previous", 10, 0.5, prev(15), 15},
		{"below previous", 5, 0.5, prev(15), 10},
		{"no activity", 0, 0.5, prev(15), 0},
		{"zero threshold means unlimited", 10, 0, nil, math.Inf(1)},
		{"zero threshold capped by previous", 10, 0, prev(15), 15},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NextEligibility(tc.points, tc.threshold, tc.prev))
		})
	}
}

func TestSumEligibilityPoints(t *testing.T) {
	spaceA := models.Space{ID: uuid.New(), EligibilityPoints: 10, IsAvailable: true}
	spaceB := models.Space{ID: uuid.New(), EligibilityPoints: 5, IsAvailable: true}
	spaceC := models.Space{ID: uuid.New(), EligibilityPoints: 2.5, IsAvailable: true}
	spaces := []models.Space{spaceA, spaceB, spaceC}

	t.Run("no active spaces", func(t *testing.T) {
		assert.Equal(t, float64(0), SumEligibilityPoints(spaces, nil))
	})
	t.Run("subset active", func(t *testing.T) {
		active := map[uuid.UUID]struct{}{spaceA.ID: {}, spaceC.ID: {}}
		assert.Equal(t, 12.5, SumEligibilityPoints(spaces, active))
	})
	t.Run("active space outside list ignored", func(t *testing.T) {
		active := map[uuid.UUID]struct{}{uuid.New(): {}}
		assert.Equal(t, float64(0), SumEligibilityPoints(spaces, active))
	})
	t.Run("unavailable space ignored", func(t *testing.T) {
		disabled := spaceB
		disabled.IsAvailable = false
		active := map[uuid.UUID]struct{}{spaceA.ID: {}, disabled.ID: {}}
		assert.Equal(t, float64(10), SumEligibilityPoints([]models.Space{spaceA, disabled, spaceC}, active))
	})
}
