package engine

import (
	"time"

	"spacebid/models"
)

// FailureBackoff 回傳連續失敗 failures 次後的重試等待時間。
// 基礎 5 分鐘、指數成長、最多 2^5 倍（160 分鐘）。
func FailureBackoff(failures int) time.Duration {
	exp := failures
	if exp > 5 {
		exp = 5
	}
	return 5 * time.Minute << exp
}

// NeedsProxyRun 判斷進行中的回合是否需要（重新）執行代理出價。
//
// 上次執行失敗的回合要等退避時間過後才重試；從未執行過的回合一律執行；
// 已成功執行過的回合只在代理設定（啟用紀錄或申報價值）於上次執行之後
// 有變動時才重新執行。
func NeedsProxyRun(round models.AuctionRound, settingsUpdatedAt *time.Time, now time.Time) bool {
	if round.ProxyLastFailedAt != nil {
		return !now.Before(round.ProxyLastFailedAt.Add(FailureBackoff(round.ProxyFailures)))
	}
	if round.ProxyLastProcessedAt == nil {
		return true
	}
	return settingsUpdatedAt != nil && settingsUpdatedAt.After(*round.ProxyLastProcessedAt)
}

// SchedulerReady 判斷拍賣是否已過排程失敗的退避時間。
func SchedulerReady(auction models.Auction, now time.Time) bool {
	if auction.SchedulerLastError == nil {
		return true
	}
	return !now.Before(auction.SchedulerLastError.Add(FailureBackoff(auction.SchedulerFailures)))
}
