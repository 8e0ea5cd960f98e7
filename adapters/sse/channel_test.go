package sse_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"spacebid/adapters/sse"
	"spacebid/events"
)

func TestChannel(t *testing.T) {
	ch := sse.NewChannel()

	// 測試訂閱
	sub := ch.Subscribe()
	assert.NotNil(t, sub)

	// 測試廣播事件
	event := auctionEvent(uuid.New(), events.TypeRoundOpened)
	go ch.Broadcast(event)

	select {
	case received := <-sub:
		assert.Equal(t, event, received)
	case <-time.After(time.Second):
		t.Fatal("did not receive event in time")
	}

	// 測試取消訂閱
	ch.Unsubscribe(sub)
	_, ok := <-sub
	assert.False(t, ok, "channel should be closed")

	// 測試 IsIdle
	assert.True(t, ch.IsIdle(), "channel should be idle")
}
