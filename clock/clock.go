package clock

import (
	"sync"
	"time"
)

// Clock 定義了系統中所有讀取時間的元件共用的時間來源介面。
// 排程器、出價驗證等元件都必須透過注入的 Clock 取得現在時間，
// 不可直接呼叫 time.Now()，以便在測試中重現跨日光節約時間的情境。
type Clock interface {
	Now() time.Time
}

// SystemClock 是正式環境使用的時間來源，直接委派給作業系統時鐘。
type SystemClock struct{}

func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// MockClock 是測試用的時間來源，透過共享且執行緒安全的時間欄位，
// 允許測試以 Advance/Set 精確控制排程器觀察到的時間。
type MockClock struct {
	mu  sync.RWMutex
	now time.Time
}

func NewMockClock(initial time.Time) *MockClock {
	return &MockClock{now: initial}
}

func (c *MockClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Advance 將時間往前推進指定的間隔。
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set 直接設定現在時間。
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
