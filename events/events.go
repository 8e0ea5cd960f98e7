// Package events 定義拍賣引擎對外廣播的事件。
// 事件由 Redis stream 傳遞，服務內的 SSE 管理器訂閱後轉發給瀏覽器。
package events

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeRoundOpened      Type = "round-opened"
	TypeRoundClosed      Type = "round-closed"
	TypeAuctionConcluded Type = "auction-concluded"
	TypeBidPlaced        Type = "bid-placed"
	TypeBidWithdrawn     Type = "bid-withdrawn"
)

// Event 是一筆拍賣事件，跨程序傳遞時以 msgpack 編碼。
type Event struct {
	Type      Type       `msgpack:"type" json:"type"`
	AuctionID uuid.UUID  `msgpack:"auction_id" json:"auction_id"`
	RoundNum  int        `msgpack:"round_num" json:"round_num"`
	SpaceID   *uuid.UUID `msgpack:"space_id,omitempty" json:"space_id,omitempty"`
	UserID    *uuid.UUID `msgpack:"user_id,omitempty" json:"user_id,omitempty"`
	At        time.Time  `msgpack:"at" json:"at"`
}

// Publisher 發佈事件，實作以非同步方式送出，Publish 不阻塞呼叫端。
type Publisher interface {
	Publish(event Event) error
}

// NopPublisher 丟棄所有事件，供測試與未配置廣播時使用。
type NopPublisher struct{}

func (NopPublisher) Publish(Event) error { return nil }
