package engine

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProxyCandidate 是代理出價規劃器評估的一個空間。
// MinimumBid 是該空間在目前回合的最低出價（先前成交價加增額，或零）。
type ProxyCandidate struct {
	SpaceID    uuid.UUID
	UserValue  decimal.Decimal
	MinimumBid decimal.Decimal
}

// PlanProxyBids 規劃一位使用者在一個回合中的代理出價順序。
//
// 每個候選空間的剩餘價值為申報價值減去最低出價，剩餘價值為負的空間
// 直接剔除（使用者不願意付到目前的價格）。其餘空間依剩餘價值由大到
// 小排序，剩餘價值相同時依空間識別碼字典序，讓規劃結果可重現。
//
// maxItems 與 alreadyWinning 限制名單長度：使用者最多同時爭取
// maxItems 個空間，已持有最高出價的空間也計入。排程器依序嘗試出價，
// 個別失敗（資格不足、額度不足）時跳過並繼續嘗試下一個空間，所以
// 這裡回傳完整的排序名單而不是截斷後的前幾名。
func PlanProxyBids(candidates []ProxyCandidate, maxItems, alreadyWinning int) []ProxyCandidate {
	budget := maxItems - alreadyWinning
	if budget <= 0 {
		return nil
	}

	plan := make([]ProxyCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.UserValue.Sub(c.MinimumBid).IsNegative() {
			continue
		}
		plan = append(plan, c)
	}

	sort.Slice(plan, func(i, j int) bool {
		si := plan[i].UserValue.Sub(plan[i].MinimumBid)
		sj := plan[j].UserValue.Sub(plan[j].MinimumBid)
		if !si.Equal(sj) {
			return si.GreaterThan(sj)
		}
		return strings.Compare(plan[i].SpaceID.String(), plan[j].SpaceID.String()) < 0
	})
	return plan
}
