package sse_test

import (
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"spacebid/events"
)

func init() {
	// 將日誌輸出重定向到io.Discard
	log.SetOutput(io.Discard)
}

func auctionEvent(auctionID uuid.UUID, eventType events.Type) events.Event {
	return events.Event{
		Type:      eventType,
		AuctionID: auctionID,
		RoundNum:  1,
		At:        time.Date(2026, 3, 7, 18, 0, 0, 0, time.UTC),
	}
}

// fakeSource 是一個以記憶體通道實現的事件來源，用於測試 Hub 的分流邏輯。
type fakeSource struct {
	ch        chan events.Event
	closeOnce sync.Once
}

func newFakeSource() *fakeSource {
	return &fakeSource{ch: make(chan events.Event, 16)}
}

func (f *fakeSource) Start() {}

func (f *fakeSource) Subscribe() <-chan events.Event {
	return f.ch
}

func (f *fakeSource) Close() {
	f.closeOnce.Do(func() { close(f.ch) })
}

func (f *fakeSource) emit(event events.Event) {
	f.ch <- event
}
