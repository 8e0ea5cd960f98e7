// Package redis 提供拍賣引擎的 Redis 基礎設施：
// 事件以 Redis stream 跨實例廣播，排程器的互斥以自動續期的
// 分散式鎖實現。
package redis

import (
	"context"
	"errors"

	"spacebid/events"
)

var ErrClosed = errors.New("adapter is closed")

// IEventProducer 定義了 EventProducer 的操作介面
type IEventProducer interface {
	Start()
	Publish(event events.Event) error
	Close()
}

// IEventConsumer 定義了 EventConsumer 的操作介面
type IEventConsumer interface {
	Start()
	Subscribe() <-chan events.Event
	Close()
}

// IAutoRenewMutex 定義了 AutoRenewMutex 的操作介面
type IAutoRenewMutex interface {
	Lock(ctx context.Context) (context.Context, error)
	Unlock() (bool, error)
	Valid() bool
}
