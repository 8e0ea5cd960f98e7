// Package sse 將拍賣事件即時推送給前端連線。
// 事件由 Redis stream 消費者送入 Hub，再依拍賣分流給各個
// SSE 訂閱者。
package sse

import (
	"github.com/google/uuid"

	"spacebid/events"
)

// EventSource 是 Hub 的上游事件來源，
// 由 adapters/redis 的 EventConsumer 實現。
type EventSource interface {
	Start()
	Subscribe() <-chan events.Event
	Close()
}

// IChannel 定義了單一拍賣事件頻道的介面
type IChannel interface {
	// Subscribe 建立一個新的訂閱並返回接收事件的通道
	Subscribe() <-chan events.Event
	// Unsubscribe 取消指定通道的訂閱
	Unsubscribe(ch <-chan events.Event)
	// UnsubscribeAll 取消所有訂閱
	UnsubscribeAll()
	// Broadcast 將事件廣播給所有訂閱者
	Broadcast(event events.Event)
	// IsIdle 檢查是否沒有訂閱者
	IsIdle() bool
}

// IHub 定義了 SSE 事件中樞的介面
type IHub interface {
	// Start 啟動 Hub，開始接收與分流事件。
	// 應在呼叫其他方法前先呼叫此方法。
	Start()
	// Close 停止 Hub，釋放所有資源。
	Close()
	// Subscribe 訂閱指定拍賣的事件流。
	Subscribe(auctionID uuid.UUID) (<-chan events.Event, error)
	// Unsubscribe 取消訂閱指定拍賣的事件流。
	Unsubscribe(auctionID uuid.UUID, ch <-chan events.Event)
}
