package sse

import (
	"sync"

	"spacebid/events"
)

// Channel 管理單一拍賣的所有訂閱者，
// 並將收到的事件廣播給每一個訂閱者。
type Channel struct {
	subscribers map[<-chan events.Event]chan<- events.Event
	mu          sync.RWMutex
}

func NewChannel() IChannel {
	return &Channel{
		subscribers: make(map[<-chan events.Event]chan<- events.Event),
	}
}

// Subscribe 建立一個新的通道，將其加入 subscribers，並回傳唯讀通道給呼叫者。
func (c *Channel) Subscribe() <-chan events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan events.Event)
	c.subscribers[ch] = ch
	return ch
}

// Unsubscribe 從 subscribers 中移除指定的通道，並關閉該通道。
func (c *Channel) Unsubscribe(ch <-chan events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if writeCh, exists := c.subscribers[ch]; exists {
		delete(c.subscribers, ch)
		close(writeCh)
	}
}

// UnsubscribeAll 關閉所有訂閱者的通道並清空訂閱清單。
func (c *Channel) UnsubscribeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, writeCh := range c.subscribers {
		close(writeCh)
	}
	clear(c.subscribers)
}

// Broadcast 將事件廣播給所有仍在訂閱清單中的通道。
func (c *Channel) Broadcast(event events.Event) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, writeCh := range c.subscribers {
		writeCh <- event
	}
}

// IsIdle 判斷 subscribers 是否為空。
func (c *Channel) IsIdle() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subscribers) == 0
}
