package sse

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"spacebid/events"
)

// Hub 依拍賣分流事件給 SSE 訂閱者。
// 事件來源是跨節點的 Redis stream，所以每個服務實例的 Hub
// 都能收到其他實例發出的事件。
type Hub struct {
	logger *slog.Logger
	source EventSource

	mu     sync.RWMutex
	wg     sync.WaitGroup
	active bool

	channels map[uuid.UUID]IChannel
}

func NewHub(source EventSource, logger *slog.Logger) IHub {
	if logger == nil {
		logger = slog.Default()
	}

	return &Hub{
		logger:   logger.With(slog.String("caller", "Hub")),
		source:   source,
		channels: make(map[uuid.UUID]IChannel),
	}
}

// Start 啟動 Hub，開始接收與分流事件。
// 應在呼叫其他方法前先呼叫此方法。
func (h *Hub) Start() {
	h.mu.Lock()
	if h.active {
		h.mu.Unlock()
		return
	}
	h.active = true
	h.mu.Unlock()

	h.source.Start()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for event := range h.source.Subscribe() {
			h.mu.RLock()
			channel, ok := h.channels[event.AuctionID]
			h.mu.RUnlock()
			if !ok {
				continue
			}
			channel.Broadcast(event)
			h.logger.Debug("event dispatched",
				slog.String("auctionId", event.AuctionID.String()),
				slog.String("type", string(event.Type)))
		}
	}()
}

// Close 停止 Hub 的運作。
func (h *Hub) Close() {
	h.mu.Lock()
	if !h.active {
		h.mu.Unlock()
		return
	}
	h.active = false
	h.mu.Unlock()

	h.source.Close()
	h.wg.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, channel := range h.channels {
		channel.UnsubscribeAll()
	}
	clear(h.channels)
}

// Subscribe 訂閱指定拍賣的事件流。
func (h *Hub) Subscribe(auctionID uuid.UUID) (<-chan events.Event, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.active {
		return nil, context.Canceled
	}

	c, ok := h.channels[auctionID]
	if !ok {
		c = NewChannel()
		h.channels[auctionID] = c
	}
	return c.Subscribe(), nil
}

// Unsubscribe 取消訂閱指定拍賣的事件流。
func (h *Hub) Unsubscribe(auctionID uuid.UUID, ch <-chan events.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.channels[auctionID]
	if !ok {
		return
	}

	c.Unsubscribe(ch)
	if c.IsIdle() {
		delete(h.channels, auctionID)
	}
}
