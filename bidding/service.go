// Package bidding 實作出價服務：出價與撤回的驗證規則、
// 私人價值申報與代理出價設定。
package bidding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"spacebid/clock"
	"spacebid/engine"
	"spacebid/events"
	"spacebid/models"
	"spacebid/store"
)

type Service struct {
	store     store.Store
	clk       clock.Clock
	publisher events.Publisher
}

type Option func(*Service)

// WithClock 設置時間來源，測試用
func WithClock(clk clock.Clock) Option {
	return func(s *Service) {
		s.clk = clk
	}
}

// WithPublisher 設置事件發佈器
func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func NewService(st store.Store, opts ...Option) *Service {
	service := &Service{
		store:     st,
		clk:       clock.SystemClock{},
		publisher: events.NopPublisher{},
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// PlaceBid 替使用者在目前回合對空間出價。
//
// 出價不帶金額：成功的出價表示願意以本回合的最低價格取得空間。
// 驗證依序為空間與場地可用性、回合時間窗、是否已是該空間的最高出價者、
// 資格限制（第 0 回合之後）、以及信用額度。同一回合對同一空間重複
// 出價是冪等操作。
func (s *Service) PlaceBid(ctx context.Context, userID, auctionID, spaceID uuid.UUID) error {
	const op = "PlaceBid"
	now := s.clk.Now()

	var roundNum int
	err := s.store.Transact(ctx, func(tx store.Store) error {
		auction, round, space, err := s.loadBidTarget(ctx, tx, auctionID, spaceID, now)
		if err != nil {
			return err
		}
		roundNum = round.RoundNum

		if round.RoundNum > 0 {
			if err := s.checkNotAlreadyWinning(ctx, tx, auction.ID, spaceID, round.RoundNum, userID); err != nil {
				return err
			}
			if err := s.checkEligibility(ctx, tx, auction, round, space, userID); err != nil {
				return err
			}
		}

		prior, err := priorFor(ctx, tx, auction.ID, spaceID, round.RoundNum)
		if err != nil {
			return err
		}
		amount := engine.MinimumBid(prior, auction.AuctionParams.BidIncrement)
		sufficient, err := tx.HasSufficientCredit(ctx, auction.Site.CommunityID, userID, amount)
		if err != nil {
			return fmt.Errorf("[%s] Fail to check credit, err=%w", op, err)
		}
		if !sufficient {
			return store.ErrInsufficientCredit
		}

		bid := models.Bid{SpaceID: spaceID, RoundID: round.ID, UserID: userID}
		if err := tx.CreateBid(ctx, &bid); err != nil {
			if errors.Is(err, store.ErrDuplicateBid) {
				return nil
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(events.Event{
		Type:      events.TypeBidPlaced,
		AuctionID: auctionID,
		RoundNum:  roundNum,
		SpaceID:   &spaceID,
		UserID:    &userID,
		At:        now,
	})
	return nil
}

// WithdrawBid 撤回使用者在目前回合對空間的出價。
// 只能在回合進行中撤回，回合一旦關閉出價即生效。
func (s *Service) WithdrawBid(ctx context.Context, userID, auctionID, spaceID uuid.UUID) error {
	now := s.clk.Now()

	var roundNum int
	err := s.store.Transact(ctx, func(tx store.Store) error {
		_, round, _, err := s.loadBidTarget(ctx, tx, auctionID, spaceID, now)
		if err != nil {
			return err
		}
		roundNum = round.RoundNum
		return tx.DeleteBid(ctx, spaceID, round.ID, userID)
	})
	if err != nil {
		return err
	}

	s.publish(events.Event{
		Type:      events.TypeBidWithdrawn,
		AuctionID: auctionID,
		RoundNum:  roundNum,
		SpaceID:   &spaceID,
		UserID:    &userID,
		At:        now,
	})
	return nil
}

// SetUserValue 申報使用者對空間的私人最高願付價格，重複申報覆寫舊值。
func (s *Service) SetUserValue(ctx context.Context, userID, spaceID uuid.UUID, value decimal.Decimal) error {
	if value.IsNegative() {
		return fmt.Errorf("user value must not be negative: %s", value)
	}
	if _, err := s.store.GetSpace(ctx, spaceID); err != nil {
		return err
	}
	return s.store.UpsertUserValue(ctx, userID, spaceID, value)
}

// RemoveUserValue 移除使用者對空間的申報價值。
func (s *Service) RemoveUserValue(ctx context.Context, userID, spaceID uuid.UUID) error {
	return s.store.DeleteUserValue(ctx, userID, spaceID)
}

// EnableProxyBidding 啟用使用者在拍賣中的代理出價。
// maxItems 是代理出價最多同時爭取的空間數，已持有最高出價的空間也計入。
func (s *Service) EnableProxyBidding(ctx context.Context, userID, auctionID uuid.UUID, maxItems int) error {
	if maxItems < 1 {
		return fmt.Errorf("max items must be at least 1: %d", maxItems)
	}
	if _, err := s.store.GetAuction(ctx, auctionID); err != nil {
		return err
	}
	return s.store.UpsertUseProxyBidding(ctx, userID, auctionID, maxItems)
}

// DisableProxyBidding 停用使用者在拍賣中的代理出價。
func (s *Service) DisableProxyBidding(ctx context.Context, userID, auctionID uuid.UUID) error {
	return s.store.DeleteUseProxyBidding(ctx, userID, auctionID)
}

// loadBidTarget 載入並驗證出價目標：拍賣進行中、空間屬於該場地且可用、
// 目前回合在時間窗內。
func (s *Service) loadBidTarget(ctx context.Context, tx store.Store, auctionID, spaceID uuid.UUID, now time.Time) (*models.Auction, *models.AuctionRound, *models.Space, error) {
	auction, err := tx.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, nil, nil, err
	}
	if auction.EndAt != nil {
		return nil, nil, nil, store.ErrAuctionConcluded
	}
	if auction.Site == nil || !auction.Site.IsAvailable {
		return nil, nil, nil, store.ErrSiteUnavailable
	}

	space, err := tx.GetSpace(ctx, spaceID)
	if err != nil {
		return nil, nil, nil, err
	}
	if space.SiteID != auction.SiteID {
		return nil, nil, nil, store.ErrNotFound
	}
	if !space.IsAvailable {
		return nil, nil, nil, store.ErrSpaceUnavailable
	}

	round, err := tx.LatestRound(ctx, auctionID)
	if err != nil {
		return nil, nil, nil, err
	}
	if now.Before(round.StartAt) {
		return nil, nil, nil, store.ErrRoundNotStarted
	}
	// 回合在 end_at 當下即視為關閉
	if !now.Before(round.EndAt) {
		return nil, nil, nil, store.ErrRoundEnded
	}
	return auction, round, space, nil
}

func (s *Service) checkNotAlreadyWinning(ctx context.Context, tx store.Store, auctionID, spaceID uuid.UUID, roundNum int, userID uuid.UUID) error {
	prior, err := priorFor(ctx, tx, auctionID, spaceID, roundNum)
	if err != nil {
		return err
	}
	if prior != nil && prior.WinningUserID != nil && *prior.WinningUserID == userID {
		return store.ErrAlreadyWinning
	}
	return nil
}

// checkEligibility 檢查使用者的活動量是否超出資格上限：
// 本回合已出價的空間、前一回合持有最高出價的空間、加上這次要出價的
// 空間，其資格點數總和不得超過使用者在本回合的資格。
func (s *Service) checkEligibility(ctx context.Context, tx store.Store, auction *models.Auction, round *models.AuctionRound, space *models.Space, userID uuid.UUID) error {
	const op = "checkEligibility"
	eligibility, err := tx.GetEligibility(ctx, round.ID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ErrNoEligibility
		}
		return fmt.Errorf("[%s] Fail to load eligibility, err=%w", op, err)
	}

	active := map[uuid.UUID]struct{}{space.ID: {}}
	bids, err := tx.UserRoundBids(ctx, round.ID, userID)
	if err != nil {
		return fmt.Errorf("[%s] Fail to load user bids, err=%w", op, err)
	}
	for _, bid := range bids {
		active[bid.SpaceID] = struct{}{}
	}
	if prevRound, err := tx.RoundByNum(ctx, auction.ID, round.RoundNum-1); err == nil {
		wins, err := tx.UserWinningResults(ctx, prevRound.ID, userID)
		if err != nil {
			return fmt.Errorf("[%s] Fail to load winning results, err=%w", op, err)
		}
		for _, win := range wins {
			active[win.SpaceID] = struct{}{}
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("[%s] Fail to load previous round, err=%w", op, err)
	}

	points := engine.SumEligibilityPoints(auction.Site.Spaces, active)
	if points > eligibility.Eligibility {
		return store.ErrExceedsEligibility
	}
	return nil
}

func (s *Service) publish(event events.Event) {
	if err := s.publisher.Publish(event); err != nil {
		slog.Warn("Fail to publish bidding event", slog.String("type", string(event.Type)), slog.Any("error", err))
	}
}

// priorFor 取得空間在指定回合之前最近的結果，沒有結果時回傳 nil。
func priorFor(ctx context.Context, tx store.Store, auctionID, spaceID uuid.UUID, roundNum int) (*engine.PriorResult, error) {
	result, err := tx.PriorResult(ctx, auctionID, spaceID, roundNum)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &engine.PriorResult{WinningUserID: result.WinningUserID, Value: result.Value}, nil
}
