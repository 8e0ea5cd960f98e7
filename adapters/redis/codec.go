package redis

import (
	"encoding/base64"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"spacebid/events"
)

// encodeEvent 將事件序列化成 stream 訊息。
// msgpack 編碼後以 base64 放進單一 data 欄位，避免 Redis 對
// 二進位 value 的轉義問題。
func encodeEvent(event events.Event) (map[string]any, error) {
	bytes, err := msgpack.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("msgpack marshal error: %w", err)
	}
	return map[string]any{
		"data": base64.StdEncoding.EncodeToString(bytes),
	}, nil
}

// decodeEvent 將 stream 訊息還原成事件。
func decodeEvent(message map[string]any) (events.Event, error) {
	var event events.Event

	dataStr, ok := message["data"].(string)
	if !ok {
		return event, fmt.Errorf("data field not found or invalid type")
	}

	bytes, err := base64.StdEncoding.DecodeString(dataStr)
	if err != nil {
		return event, fmt.Errorf("base64 decode error: %w", err)
	}

	if err := msgpack.Unmarshal(bytes, &event); err != nil {
		return event, fmt.Errorf("msgpack unmarshal error: %w", err)
	}
	return event, nil
}
