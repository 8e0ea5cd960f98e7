package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SpaceBid 是解算器看到的一筆出價：誰、在什麼時刻送出。
// 出價不帶金額，所有出價都等價於「願意以本回合價格取得空間」。
type SpaceBid struct {
	UserID    uuid.UUID
	CreatedAt time.Time
}

// PriorResult 是空間在先前回合的價格記憶。
type PriorResult struct {
	WinningUserID *uuid.UUID
	Value         decimal.Decimal
}

// Outcome 是一個空間在回合關閉後的解算結果。
type Outcome struct {
	WinningUserID *uuid.UUID
	Value         decimal.Decimal
}

// ResolveSpace 解算一個空間在關閉回合中的結果。
//
//   - 沒有出價：沿用先前的結果（價格與得標者都不變）；若空間從未有人
//     出價，回傳 ok=false 表示不需要建立結果紀錄。
//   - 有出價：得標者由 PickWinner 決定；成交價為先前價格加上增額，
//     空間第一次有人出價時成交價為零。
//
// 超額認購（多於一筆出價）不影響價格公式：兩筆以上的出價證明了目前
// 價格之上仍有需求，下一回合的最低出價同樣是成交價加增額。
func ResolveSpace(bids []SpaceBid, prior *PriorResult, increment decimal.Decimal) (Outcome, bool) {
	if len(bids) == 0 {
		if prior == nil {
			return Outcome{}, false
		}
		return Outcome{WinningUserID: prior.WinningUserID, Value: prior.Value}, true
	}

	winner := PickWinner(bids)
	value := decimal.Zero
	if prior != nil {
		value = prior.Value.Add(increment)
	}
	return Outcome{WinningUserID: &winner, Value: value}, true
}

// PickWinner 在等價的出價中選出唯一的得標者。
//
// 排序為全序且只依賴已持久化的欄位，使結果可以事後稽核重現：
// 先比出價時刻（越早越優先），時刻完全相同時比使用者識別碼的字典序。
func PickWinner(bids []SpaceBid) uuid.UUID {
	best := bids[0]
	for _, bid := range bids[1:] {
		if bidLess(bid, best) {
			best = bid
		}
	}
	return best.UserID
}

// SortBids 以得標優先順序排序出價，主要供回放與測試使用。
func SortBids(bids []SpaceBid) {
	sort.Slice(bids, func(i, j int) bool {
		return bidLess(bids[i], bids[j])
	})
}

func bidLess(a, b SpaceBid) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return strings.Compare(a.UserID.String(), b.UserID.String()) < 0
}

// MinimumBid 計算空間在新回合的最低出價：有價格記憶時為先前成交價加
// 增額，從未有人出價的空間起價為零。
func MinimumBid(prior *PriorResult, increment decimal.Decimal) decimal.Decimal {
	if prior == nil {
		return decimal.Zero
	}
	return prior.Value.Add(increment)
}
