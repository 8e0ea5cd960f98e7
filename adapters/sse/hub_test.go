package sse_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"spacebid/adapters/sse"
	"spacebid/events"
)

func TestHub_DispatchByAuction(t *testing.T) {
	defer goleak.VerifyNone(t)

	source := newFakeSource()
	hub := sse.NewHub(source, nil)
	hub.Start()
	defer hub.Close()

	auctionA := uuid.New()
	auctionB := uuid.New()

	chA, err := hub.Subscribe(auctionA)
	require.NoError(t, err)
	chB, err := hub.Subscribe(auctionB)
	require.NoError(t, err)

	// 事件只會送到對應拍賣的訂閱者
	eventA := auctionEvent(auctionA, events.TypeBidPlaced)
	source.emit(eventA)

	select {
	case received := <-chA:
		assert.Equal(t, eventA, received)
	case <-time.After(time.Second):
		t.Fatal("did not receive event in time")
	}

	select {
	case received := <-chB:
		t.Fatalf("unexpected event on other auction: %+v", received)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_EventWithoutSubscriberIsDropped(t *testing.T) {
	defer goleak.VerifyNone(t)

	source := newFakeSource()
	hub := sse.NewHub(source, nil)
	hub.Start()
	defer hub.Close()

	source.emit(auctionEvent(uuid.New(), events.TypeRoundClosed))

	subscribed := uuid.New()
	ch, err := hub.Subscribe(subscribed)
	require.NoError(t, err)

	event := auctionEvent(subscribed, events.TypeRoundClosed)
	source.emit(event)

	select {
	case received := <-ch:
		assert.Equal(t, event, received)
	case <-time.After(time.Second):
		t.Fatal("did not receive event in time")
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	defer goleak.VerifyNone(t)

	source := newFakeSource()
	hub := sse.NewHub(source, nil)
	hub.Start()
	defer hub.Close()

	auctionID := uuid.New()
	ch, err := hub.Subscribe(auctionID)
	require.NoError(t, err)

	hub.Unsubscribe(auctionID, ch)
	_, ok := <-ch
	assert.False(t, ok, "channel should be closed")

	// 頻道被回收後事件直接丟棄，不會阻塞分流
	source.emit(auctionEvent(auctionID, events.TypeBidWithdrawn))
	time.Sleep(50 * time.Millisecond)
}

func TestHub_CloseUnsubscribesAll(t *testing.T) {
	defer goleak.VerifyNone(t)

	source := newFakeSource()
	hub := sse.NewHub(source, nil)
	hub.Start()

	auctionID := uuid.New()
	ch, err := hub.Subscribe(auctionID)
	require.NoError(t, err)

	hub.Close()
	hub.Close() // Should be no-op

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed")

	_, err = hub.Subscribe(auctionID)
	assert.Error(t, err)
}
