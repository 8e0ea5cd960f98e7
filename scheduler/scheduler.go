// Package scheduler 實作拍賣排程器：建立第一個回合、關閉到期回合並
// 寫入結果、開啟後續回合與資格、在無人出價時結束拍賣並結算，
// 以及替啟用代理出價的使用者自動出價。
//
// 排程器可以多實例部署，對單一拍賣或回合的處理以分散式鎖互斥，
// 所有寫入都設計成可重複執行而不改變結果。
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"spacebid/caltime"
	"spacebid/clock"
	"spacebid/engine"
	"spacebid/events"
	"spacebid/models"
	"spacebid/store"
)

// Mutex 是排程器使用的分散式鎖介面，由 Redis 的自動續期鎖實作。
type Mutex interface {
	Lock(ctx context.Context) (context.Context, error)
	Unlock() (bool, error)
}

// LockFactory 依名稱建立分散式鎖。
type LockFactory func(name string) Mutex

// Bidder 是代理出價時實際送出出價的介面，由出價服務實作。
type Bidder interface {
	PlaceBid(ctx context.Context, userID, auctionID, spaceID uuid.UUID) error
}

type nopMutex struct{}

func (nopMutex) Lock(ctx context.Context) (context.Context, error) { return ctx, nil }
func (nopMutex) Unlock() (bool, error)                             { return true, nil }

type schedulerOptions struct {
	clk       clock.Clock
	publisher events.Publisher
	locks     LockFactory
	logger    *slog.Logger
	interval  time.Duration
}

type Option func(*schedulerOptions)

// WithClock 設置時間來源，測試用
func WithClock(clk clock.Clock) Option {
	return func(o *schedulerOptions) {
		o.clk = clk
	}
}

// WithPublisher 設置事件發佈器
func WithPublisher(publisher events.Publisher) Option {
	return func(o *schedulerOptions) {
		o.publisher = publisher
	}
}

// WithLockFactory 設置分散式鎖來源
func WithLockFactory(locks LockFactory) Option {
	return func(o *schedulerOptions) {
		o.locks = locks
	}
}

// WithLogger 設置日誌記錄器
func WithLogger(logger *slog.Logger) Option {
	return func(o *schedulerOptions) {
		o.logger = logger
	}
}

// WithInterval 設置巡檢週期
func WithInterval(interval time.Duration) Option {
	return func(o *schedulerOptions) {
		o.interval = interval
	}
}

type Scheduler struct {
	store   store.Store
	bidder  Bidder
	options schedulerOptions

	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

func NewScheduler(st store.Store, bidder Bidder, opts ...Option) *Scheduler {
	options := schedulerOptions{
		clk:       clock.SystemClock{},
		publisher: events.NopPublisher{},
		locks:     func(string) Mutex { return nopMutex{} },
		logger:    slog.Default(),
		interval:  5 * time.Second,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Scheduler{store: st, bidder: bidder, options: options}
}

// Start 啟動背景巡檢迴圈，直到 Close 被呼叫。
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelFunc = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.options.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()
}

// Close 停止巡檢迴圈並等待進行中的一輪結束。
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() {
		if s.cancelFunc != nil {
			s.cancelFunc()
		}
		s.wg.Wait()
	})
}

// Tick 執行一輪完整巡檢：補建第一個回合、推進到期的拍賣、
// 執行代理出價。每一輪都是冪等的，重複執行不會重複產生回合或結果。
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.options.clk.Now()
	s.bootstrapAuctions(ctx, now)
	s.advanceDueAuctions(ctx, now)
	s.runProxyBidding(ctx, now)
}

// bootstrapAuctions 替已開始但還沒有回合的拍賣建立第 0 回合。
func (s *Scheduler) bootstrapAuctions(ctx context.Context, now time.Time) {
	auctions, err := s.store.AuctionsWithoutRounds(ctx, now)
	if err != nil {
		s.options.logger.Error("Fail to list auctions without rounds", slog.Any("error", err))
		return
	}
	for i := range auctions {
		auction := &auctions[i]
		if err := s.bootstrapAuction(ctx, auction); err != nil {
			s.options.logger.Error("Fail to bootstrap auction",
				slog.String("auctionID", auction.ID.String()), slog.Any("error", err))
			if err := s.store.RecordSchedulerFailure(ctx, auction.ID, now); err != nil {
				s.options.logger.Error("Fail to record scheduler failure", slog.Any("error", err))
			}
		}
	}
}

func (s *Scheduler) bootstrapAuction(ctx context.Context, auction *models.Auction) error {
	const op = "bootstrapAuction"
	mutex := s.options.locks("spacebid:auction:" + auction.ID.String())
	lockCtx, err := mutex.Lock(ctx)
	if err != nil {
		return fmt.Errorf("[%s] Fail to acquire auction lock, err=%w", op, err)
	}
	defer s.unlock(mutex)

	var round models.AuctionRound
	err = s.store.Transact(lockCtx, func(tx store.Store) error {
		// 拿到鎖後重查，另一個實例可能已經建立
		if _, err := tx.LatestRound(lockCtx, auction.ID); err == nil {
			return nil
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		round = models.AuctionRound{
			AuctionID:            auction.ID,
			RoundNum:             0,
			StartAt:              auction.StartAt,
			EndAt:                s.roundEnd(auction, auction.StartAt),
			EligibilityThreshold: engine.ThresholdForRound(progressionOf(auction), 0),
		}
		return tx.CreateRound(lockCtx, &round)
	})
	if err != nil {
		return err
	}
	if round.ID != uuid.Nil {
		s.publish(events.Event{
			Type:      events.TypeRoundOpened,
			AuctionID: auction.ID,
			RoundNum:  0,
			At:        round.StartAt,
		})
	}
	return nil
}

// advanceDueAuctions 逐一推進最新回合已到期的拍賣。
// 處理失敗的拍賣會記錄失敗並進入退避，所以這個迴圈必定會收斂。
func (s *Scheduler) advanceDueAuctions(ctx context.Context, now time.Time) {
	for {
		auction, err := s.store.NextDueAuction(ctx, now)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				s.options.logger.Error("Fail to find due auction", slog.Any("error", err))
			}
			return
		}
		if err := s.advanceAuction(ctx, auction, now); err != nil {
			s.options.logger.Error("Fail to advance auction",
				slog.String("auctionID", auction.ID.String()), slog.Any("error", err))
			if err := s.store.RecordSchedulerFailure(ctx, auction.ID, now); err != nil {
				s.options.logger.Error("Fail to record scheduler failure", slog.Any("error", err))
				return
			}
			continue
		}
		if err := s.store.ResetSchedulerFailures(ctx, auction.ID); err != nil {
			s.options.logger.Error("Fail to reset scheduler failures", slog.Any("error", err))
		}
	}
}

// advanceAuction 關閉拍賣的最新回合：寫入每個空間的結果，然後依是否
// 有人出價決定開啟下一回合或結束拍賣並結算。整個推進在單一交易中完成。
func (s *Scheduler) advanceAuction(ctx context.Context, auction *models.Auction, now time.Time) error {
	const op = "advanceAuction"
	mutex := s.options.locks("spacebid:auction:" + auction.ID.String())
	lockCtx, err := mutex.Lock(ctx)
	if err != nil {
		return fmt.Errorf("[%s] Fail to acquire auction lock, err=%w", op, err)
	}
	defer s.unlock(mutex)

	var emitted []events.Event
	err = s.store.Transact(lockCtx, func(tx store.Store) error {
		round, err := tx.LatestRound(lockCtx, auction.ID)
		if err != nil {
			return err
		}
		// 拿到鎖後重查，回合可能已被其他實例推進
		if round.EndAt.After(now) {
			return nil
		}

		anyBids, finalResults, err := s.closeRound(lockCtx, tx, auction, round)
		if err != nil {
			return err
		}
		emitted = append(emitted, events.Event{
			Type:      events.TypeRoundClosed,
			AuctionID: auction.ID,
			RoundNum:  round.RoundNum,
			At:        round.EndAt,
		})

		if !anyBids {
			if err := s.concludeAuction(lockCtx, tx, auction, round, finalResults); err != nil {
				return err
			}
			emitted = append(emitted, events.Event{
				Type:      events.TypeAuctionConcluded,
				AuctionID: auction.ID,
				RoundNum:  round.RoundNum,
				At:        round.EndAt,
			})
			return nil
		}

		next, err := s.openNextRound(lockCtx, tx, auction, round)
		if err != nil {
			return err
		}
		emitted = append(emitted, events.Event{
			Type:      events.TypeRoundOpened,
			AuctionID: auction.ID,
			RoundNum:  next.RoundNum,
			At:        next.StartAt,
		})
		return nil
	})
	if err != nil {
		return err
	}
	for _, event := range emitted {
		s.publish(event)
	}
	return nil
}

// closeRound 替關閉回合的每個可用空間寫入結果。
// 回傳回合中是否有任何出價，以及每個空間的最終結果。
func (s *Scheduler) closeRound(ctx context.Context, tx store.Store, auction *models.Auction, round *models.AuctionRound) (bool, []models.RoundSpaceResult, error) {
	const op = "closeRound"
	bids, err := tx.RoundBids(ctx, round.ID)
	if err != nil {
		return false, nil, err
	}
	bySpace := make(map[uuid.UUID][]engine.SpaceBid)
	for _, bid := range bids {
		bySpace[bid.SpaceID] = append(bySpace[bid.SpaceID], engine.SpaceBid{
			UserID:    bid.UserID,
			CreatedAt: bid.CreatedAt,
		})
	}

	spaces, err := tx.SiteSpaces(ctx, auction.SiteID)
	if err != nil {
		return false, nil, err
	}
	var finalResults []models.RoundSpaceResult
	for _, space := range spaces {
		// 拍賣中途停用的空間不再結轉結果
		if !space.IsAvailable {
			continue
		}
		prior, err := priorFor(ctx, tx, auction.ID, space.ID, round.RoundNum)
		if err != nil {
			return false, nil, err
		}
		outcome, ok := engine.ResolveSpace(bySpace[space.ID], prior, incrementOf(auction))
		if !ok {
			continue
		}
		result := models.RoundSpaceResult{
			SpaceID:       space.ID,
			RoundID:       round.ID,
			WinningUserID: outcome.WinningUserID,
			Value:         outcome.Value,
		}
		if err := tx.CreateResult(ctx, &result); err != nil {
			return false, nil, fmt.Errorf("[%s] Fail to create result, err=%w", op, err)
		}
		finalResults = append(finalResults, result)
	}
	return len(bids) > 0, finalResults, nil
}

// concludeAuction 結束拍賣並結算：每位得標者支付最終成交價給社群金庫。
// 拍賣的結束時間是最後一個回合的結束時間。
func (s *Scheduler) concludeAuction(ctx context.Context, tx store.Store, auction *models.Auction, round *models.AuctionRound, finalResults []models.RoundSpaceResult) error {
	const op = "concludeAuction"
	if err := tx.ConcludeAuction(ctx, auction.ID, round.EndAt); err != nil {
		return err
	}

	communityID := auction.Site.CommunityID
	type payment struct {
		amount    decimal.Decimal
		resultIDs []uuid.UUID
	}
	winnerPayments := make(map[uuid.UUID]payment)
	for _, result := range finalResults {
		if result.WinningUserID == nil || !result.Value.IsPositive() {
			continue
		}
		entry := winnerPayments[*result.WinningUserID]
		entry.amount = entry.amount.Add(result.Value)
		entry.resultIDs = append(entry.resultIDs, result.ID)
		winnerPayments[*result.WinningUserID] = entry
	}

	settlement := make(map[uuid.UUID]decimal.Decimal, len(winnerPayments))
	for userID, due := range winnerPayments {
		covered, err := tx.HasSufficientCredit(ctx, communityID, userID, due.amount)
		if err != nil {
			return fmt.Errorf("[%s] Fail to check settlement credit, err=%w", op, err)
		}
		if !covered {
			// 出價時額度足夠但結算時不足，分錄照常入帳並標記供人工對帳
			for _, resultID := range due.resultIDs {
				if err := tx.MarkResultUnsettled(ctx, resultID); err != nil {
					return fmt.Errorf("[%s] Fail to mark result unsettled, err=%w", op, err)
				}
			}
		}
		settlement[userID] = due.amount
	}
	return tx.SettleAuction(ctx, communityID, auction.ID, settlement)
}

// openNextRound 開啟下一回合並寫入每位活躍使用者帶入的資格。
func (s *Scheduler) openNextRound(ctx context.Context, tx store.Store, auction *models.Auction, closed *models.AuctionRound) (*models.AuctionRound, error) {
	const op = "openNextRound"
	next := models.AuctionRound{
		AuctionID:            auction.ID,
		RoundNum:             closed.RoundNum + 1,
		StartAt:              closed.EndAt,
		EndAt:                s.roundEnd(auction, closed.EndAt),
		EligibilityThreshold: engine.ThresholdForRound(progressionOf(auction), closed.RoundNum+1),
	}
	if err := tx.CreateRound(ctx, &next); err != nil {
		return nil, err
	}
	if err := s.writeEligibilities(ctx, tx, auction, closed, &next); err != nil {
		return nil, fmt.Errorf("[%s] Fail to write eligibilities, err=%w", op, err)
	}
	return &next, nil
}

// writeEligibilities 計算每位使用者帶入新回合的資格。
//
// 對象是關閉回合的出價者加上前一回合的得標者。每位使用者的活躍空間是
// 關閉回合出價的空間與前一回合得標的空間之聯集，資格為活躍空間資格點數
// 除以關閉回合的門檻，且不得高於前一回合的資格（第 0 回合不設上限）。
func (s *Scheduler) writeEligibilities(ctx context.Context, tx store.Store, auction *models.Auction, closed, next *models.AuctionRound) error {
	bids, err := tx.RoundBids(ctx, closed.ID)
	if err != nil {
		return err
	}
	activeByUser := make(map[uuid.UUID]map[uuid.UUID]struct{})
	activeFor := func(userID uuid.UUID) map[uuid.UUID]struct{} {
		if _, ok := activeByUser[userID]; !ok {
			activeByUser[userID] = make(map[uuid.UUID]struct{})
		}
		return activeByUser[userID]
	}
	for _, bid := range bids {
		activeFor(bid.UserID)[bid.SpaceID] = struct{}{}
	}

	if prev, err := tx.RoundByNum(ctx, auction.ID, closed.RoundNum-1); err == nil {
		results, err := tx.RoundResults(ctx, prev.ID)
		if err != nil {
			return err
		}
		for _, result := range results {
			if result.WinningUserID == nil {
				continue
			}
			activeFor(*result.WinningUserID)[result.SpaceID] = struct{}{}
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	siteSpaces, err := tx.SiteSpaces(ctx, auction.SiteID)
	if err != nil {
		return err
	}
	for userID, active := range activeByUser {
		points := engine.SumEligibilityPoints(siteSpaces, active)
		var prevEligibility *float64
		if closed.RoundNum > 0 {
			row, err := tx.GetEligibility(ctx, closed.ID, userID)
			if err != nil {
				if !errors.Is(err, store.ErrNotFound) {
					return err
				}
				zero := 0.0
				prevEligibility = &zero
			} else {
				prevEligibility = &row.Eligibility
			}
		}
		eligibility := engine.NextEligibility(points, closed.EligibilityThreshold, prevEligibility)
		if err := tx.CreateEligibility(ctx, &models.UserEligibility{
			UserID:      userID,
			RoundID:     next.ID,
			Eligibility: eligibility,
		}); err != nil {
			return err
		}
	}
	return nil
}

// roundEnd 以場地時區做日曆運算求回合結束時間，跨日光節約時間時
// 回合仍對齊當地牆上時刻。時區無法解析時退回 UTC。
func (s *Scheduler) roundEnd(auction *models.Auction, start time.Time) time.Time {
	span := durationOf(auction)
	timezone := "UTC"
	if auction.Site != nil && auction.Site.Timezone != "" {
		timezone = auction.Site.Timezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		s.options.logger.Warn("Fail to load site timezone, fall back to UTC",
			slog.String("timezone", timezone), slog.Any("error", err))
		loc = time.UTC
	}
	return span.AddTo(start.In(loc))
}

func (s *Scheduler) unlock(mutex Mutex) {
	if _, err := mutex.Unlock(); err != nil {
		s.options.logger.Warn("Fail to release scheduler lock", slog.Any("error", err))
	}
}

func (s *Scheduler) publish(event events.Event) {
	if err := s.options.publisher.Publish(event); err != nil {
		s.options.logger.Warn("Fail to publish scheduler event",
			slog.String("type", string(event.Type)), slog.Any("error", err))
	}
}

func progressionOf(auction *models.Auction) []models.ProgressionStep {
	if auction.AuctionParams == nil {
		return nil
	}
	return auction.AuctionParams.ActivityRuleParams.EligibilityProgression
}

func durationOf(auction *models.Auction) caltime.Span {
	if auction.AuctionParams == nil {
		return caltime.Span{}
	}
	return auction.AuctionParams.RoundDuration
}
