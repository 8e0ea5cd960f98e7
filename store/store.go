// Package store 定義拍賣引擎的持久層介面與其 GORM 實作。
// 排程器與出價服務只依賴這裡的介面，測試則使用純記憶體實作。
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"spacebid/models"
)

// Store 是拍賣資料的持久層介面。
//
// Transact 在單一交易中執行 fn，fn 收到的 Store 綁定該交易；
// fn 回傳錯誤時整筆交易回滾。排程器的回合推進與結算都在交易內完成，
// 確保「關閉回合、寫入結果、開啟下一回合」是單一原子步驟。
type Store interface {
	Ledger

	Transact(ctx context.Context, fn func(Store) error) error

	// 使用者
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)

	// 場地與空間
	CreateSite(ctx context.Context, site *models.Site) error
	GetSite(ctx context.Context, id uuid.UUID) (*models.Site, error)
	CreateSpace(ctx context.Context, space *models.Space) error
	GetSpace(ctx context.Context, id uuid.UUID) (*models.Space, error)
	SiteSpaces(ctx context.Context, siteID uuid.UUID) ([]models.Space, error)

	// 拍賣
	CreateAuction(ctx context.Context, auction *models.Auction) error
	GetAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error)
	ListAuctions(ctx context.Context) ([]models.Auction, error)
	DeleteAuction(ctx context.Context, id uuid.UUID) error
	// AuctionsWithoutRounds 回傳已開始、尚未結束、但還沒有任何回合的拍賣。
	AuctionsWithoutRounds(ctx context.Context, now time.Time) ([]models.Auction, error)
	// NextDueAuction 回傳最新回合已到期、最該被推進的拍賣；
	// 排程失敗中的拍賣要等退避時間過後才會再被選中。
	NextDueAuction(ctx context.Context, now time.Time) (*models.Auction, error)
	ConcludeAuction(ctx context.Context, id uuid.UUID, endAt time.Time) error
	RecordSchedulerFailure(ctx context.Context, id uuid.UUID, at time.Time) error
	ResetSchedulerFailures(ctx context.Context, id uuid.UUID) error

	// 回合
	CreateRound(ctx context.Context, round *models.AuctionRound) error
	GetRound(ctx context.Context, id uuid.UUID) (*models.AuctionRound, error)
	LatestRound(ctx context.Context, auctionID uuid.UUID) (*models.AuctionRound, error)
	AuctionRounds(ctx context.Context, auctionID uuid.UUID) ([]models.AuctionRound, error)
	RoundByNum(ctx context.Context, auctionID uuid.UUID, roundNum int) (*models.AuctionRound, error)
	// ActiveRounds 回傳目前進行中（已開始、未結束、拍賣未結束）的回合。
	ActiveRounds(ctx context.Context, now time.Time) ([]models.AuctionRound, error)
	MarkRoundProxyProcessed(ctx context.Context, roundID uuid.UUID, at time.Time) error
	RecordRoundProxyFailure(ctx context.Context, roundID uuid.UUID, at time.Time) error

	// 出價
	CreateBid(ctx context.Context, bid *models.Bid) error
	DeleteBid(ctx context.Context, spaceID, roundID, userID uuid.UUID) error
	RoundBids(ctx context.Context, roundID uuid.UUID) ([]models.Bid, error)
	UserRoundBids(ctx context.Context, roundID, userID uuid.UUID) ([]models.Bid, error)
	DeleteUserRoundBids(ctx context.Context, roundID, userID uuid.UUID) error

	// 回合結果
	CreateResult(ctx context.Context, result *models.RoundSpaceResult) error
	// PriorResult 回傳空間在指定回合之前最近一次的結果，沒有則回傳 ErrNotFound。
	PriorResult(ctx context.Context, auctionID, spaceID uuid.UUID, beforeRoundNum int) (*models.RoundSpaceResult, error)
	RoundResults(ctx context.Context, roundID uuid.UUID) ([]models.RoundSpaceResult, error)
	UserWinningResults(ctx context.Context, roundID, userID uuid.UUID) ([]models.RoundSpaceResult, error)
	MarkResultUnsettled(ctx context.Context, resultID uuid.UUID) error

	// 資格
	CreateEligibility(ctx context.Context, eligibility *models.UserEligibility) error
	GetEligibility(ctx context.Context, roundID, userID uuid.UUID) (*models.UserEligibility, error)

	// 代理出價
	UpsertUserValue(ctx context.Context, userID, spaceID uuid.UUID, value decimal.Decimal) error
	DeleteUserValue(ctx context.Context, userID, spaceID uuid.UUID) error
	UserValuesForSite(ctx context.Context, userID, siteID uuid.UUID) ([]models.UserValue, error)
	UpsertUseProxyBidding(ctx context.Context, userID, auctionID uuid.UUID, maxItems int) error
	DeleteUseProxyBidding(ctx context.Context, userID, auctionID uuid.UUID) error
	GetUseProxyBidding(ctx context.Context, userID, auctionID uuid.UUID) (*models.UseProxyBidding, error)
	ProxyUsers(ctx context.Context, auctionID uuid.UUID) ([]models.UseProxyBidding, error)
	// ProxySettingsUpdatedAt 回傳拍賣相關代理設定（啟用紀錄與申報價值）
	// 最後一次變動的時間，沒有任何設定時回傳 nil。
	ProxySettingsUpdatedAt(ctx context.Context, auctionID uuid.UUID) (*time.Time, error)
}
