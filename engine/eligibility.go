// Package engine 包含拍賣回合的純計算核心：資格活動規則、空間出價解算
// 與代理出價規劃。這些函式只操作記憶體中的參數，不做任何 I/O，
// 排程器負責把資料庫狀態轉成輸入並把結果寫回。
package engine

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"spacebid/models"
)

// ThresholdForRound 從資格進程中查出指定回合的活動門檻。
// 進程是一個階梯函數：取 RoundNum 不大於目標回合的最後一個階段；
// 在第一個階段之前沒有門檻（回傳 0，表示該回合不受限制）。
func ThresholdForRound(progression []models.ProgressionStep, roundNum int) float64 {
	if len(progression) == 0 {
		return 0
	}
	// sort.Search 回傳第一個 RoundNum 大於目標的階段位置，
	// 我們要的是它前一個階段
	idx := sort.Search(len(progression), func(i int) bool {
		return progression[i].RoundNum > roundNum
	})
	if idx == 0 {
		return 0
	}
	return progression[idx-1].Threshold
}

// NextEligibility 計算回合關閉後使用者帶入下一回合的資格點數。
//
// points 是使用者在剛關閉的回合中活躍空間（該回合的新出價，加上前一回合
// 結束時持有最高出價的空間）的資格點數總和。資格等於 points 除以門檻：
// 門檻 0.5 時，10 點的活動換得 20 點資格。門檻為 0 表示回合不受限制，
// 資格視為無上限。
//
// 第 0 回合之後資格只能維持或下降：prev 非 nil 時以前一回合的資格為上限。
func NextEligibility(points, threshold float64, prev *float64) float64 {
	eligibility := math.Inf(1)
	if threshold > 0 {
		eligibility = points / threshold
	}
	if prev != nil && *prev < eligibility {
		eligibility = *prev
	}
	return eligibility
}

// SumEligibilityPoints 加總指定空間的資格點數權重。
// 已停用的空間不再計入任何人的活動量。
func SumEligibilityPoints(spaces []models.Space, active map[uuid.UUID]struct{}) float64 {
	var total float64
	for _, space := range spaces {
		if !space.IsAvailable {
			continue
		}
		if _, ok := active[space.ID]; ok {
			total += space.EligibilityPoints
		}
	}
	return total
}
