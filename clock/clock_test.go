package clock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemClock_Now(t *testing.T) {
	c := NewSystemClock()
	before := time.Now()
	got := c.Now()
	after := time.Now()
	assert.False(t, got.Before(before))
	assert.False(t, got.After(after))
}

func TestMockClock(t *testing.T) {
	t.Run("now returns initial time", func(t *testing.T) {
		initial := time.Date(2024, 3, 10, 1, 59, 0, 0, time.UTC)
		c := NewMockClock(initial)
		assert.True(t, c.Now().Equal(initial))
	})

	t.Run("advance moves time forward", func(t *testing.T) {
		initial := time.Date(2024, 3, 10, 1, 59, 0, 0, time.UTC)
		c := NewMockClock(initial)
		c.Advance(90 * time.Minute)
		assert.True(t, c.Now().Equal(initial.Add(90*time.Minute)))
	})

	t.Run("set replaces time", func(t *testing.T) {
		c := NewMockClock(time.Unix(0, 0))
		target := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		c.Set(target)
		assert.True(t, c.Now().Equal(target))
	})

	t.Run("concurrent access", func(t *testing.T) {
		c := NewMockClock(time.Unix(0, 0))
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				c.Advance(time.Second)
			}()
			go func() {
				defer wg.Done()
				_ = c.Now()
			}()
		}
		wg.Wait()
		require.True(t, c.Now().Equal(time.Unix(50, 0)))
	})
}
