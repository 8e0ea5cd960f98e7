package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"spacebid/engine"
	"spacebid/models"
	"spacebid/store"
)

// runProxyBidding 替每個需要處理的進行中回合執行代理出價。
//
// 回合需要處理的條件是：從未處理過、代理設定在上次處理之後有變動、
// 或上次處理失敗且退避時間已過。處理失敗只影響該回合的重試，
// 不影響其他回合。
func (s *Scheduler) runProxyBidding(ctx context.Context, now time.Time) {
	rounds, err := s.store.ActiveRounds(ctx, now)
	if err != nil {
		s.options.logger.Error("Fail to list active rounds", slog.Any("error", err))
		return
	}
	for i := range rounds {
		round := &rounds[i]
		settingsAt, err := s.store.ProxySettingsUpdatedAt(ctx, round.AuctionID)
		if err != nil {
			s.options.logger.Error("Fail to load proxy settings update time",
				slog.String("roundID", round.ID.String()), slog.Any("error", err))
			continue
		}
		if !engine.NeedsProxyRun(*round, settingsAt, now) {
			continue
		}
		if err := s.processProxyRound(ctx, round, now); err != nil {
			s.options.logger.Error("Fail to process proxy bidding",
				slog.String("roundID", round.ID.String()), slog.Any("error", err))
			if err := s.store.RecordRoundProxyFailure(ctx, round.ID, now); err != nil {
				s.options.logger.Error("Fail to record proxy failure", slog.Any("error", err))
			}
		}
	}
}

// processProxyRound 替一個回合的所有代理使用者出價。
//
// 每位使用者先撤掉自己在回合中的既有出價，再依剩餘價值由大到小
// 重新出價，直到成功出價數加上已持有最高出價的空間數達到上限。
// 個別出價被業務規則拒絕（資格不足、額度不足等）時跳過該空間繼續。
func (s *Scheduler) processProxyRound(ctx context.Context, round *models.AuctionRound, now time.Time) error {
	const op = "processProxyRound"
	mutex := s.options.locks("spacebid:proxy-round:" + round.ID.String())
	lockCtx, err := mutex.Lock(ctx)
	if err != nil {
		return fmt.Errorf("[%s] Fail to acquire proxy round lock, err=%w", op, err)
	}
	defer s.unlock(mutex)

	auction, err := s.store.GetAuction(lockCtx, round.AuctionID)
	if err != nil {
		return err
	}
	settings, err := s.store.ProxyUsers(lockCtx, auction.ID)
	if err != nil {
		return err
	}
	for _, setting := range settings {
		if err := s.proxyBidForUser(lockCtx, auction, round, setting); err != nil {
			return fmt.Errorf("[%s] Fail to proxy bid for user %s, err=%w", op, setting.UserID, err)
		}
	}
	return s.store.MarkRoundProxyProcessed(lockCtx, round.ID, now)
}

func (s *Scheduler) proxyBidForUser(ctx context.Context, auction *models.Auction, round *models.AuctionRound, setting models.UseProxyBidding) error {
	if err := s.store.DeleteUserRoundBids(ctx, round.ID, setting.UserID); err != nil {
		return err
	}

	values, err := s.store.UserValuesForSite(ctx, setting.UserID, auction.SiteID)
	if err != nil {
		return err
	}

	availableSpaces := make(map[uuid.UUID]struct{})
	if auction.Site != nil {
		for _, space := range auction.Site.Spaces {
			if space.IsAvailable {
				availableSpaces[space.ID] = struct{}{}
			}
		}
	}

	// 已持有最高出價的空間計入上限，也不能再出價
	winning := make(map[uuid.UUID]struct{})
	if round.RoundNum > 0 {
		prev, err := s.store.RoundByNum(ctx, auction.ID, round.RoundNum-1)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err == nil {
			results, err := s.store.UserWinningResults(ctx, prev.ID, setting.UserID)
			if err != nil {
				return err
			}
			for _, result := range results {
				winning[result.SpaceID] = struct{}{}
			}
		}
	}

	var candidates []engine.ProxyCandidate
	for _, value := range values {
		if _, ok := availableSpaces[value.SpaceID]; !ok {
			continue
		}
		if _, ok := winning[value.SpaceID]; ok {
			continue
		}
		prior, err := priorFor(ctx, s.store, auction.ID, value.SpaceID, round.RoundNum)
		if err != nil {
			return err
		}
		candidates = append(candidates, engine.ProxyCandidate{
			SpaceID:    value.SpaceID,
			UserValue:  value.Value,
			MinimumBid: engine.MinimumBid(prior, incrementOf(auction)),
		})
	}

	plan := engine.PlanProxyBids(candidates, setting.MaxItems, len(winning))
	budget := setting.MaxItems - len(winning)
	successes := 0
	for _, candidate := range plan {
		if successes >= budget {
			break
		}
		err := s.bidder.PlaceBid(ctx, setting.UserID, auction.ID, candidate.SpaceID)
		if err != nil {
			if isExpectedBidError(err) {
				continue
			}
			return err
		}
		successes++
	}
	return nil
}

// isExpectedBidError 判斷出價失敗是否屬於業務規則拒絕。
// 這類失敗只代表該空間目前不能搶，代理出價跳過後繼續嘗試其他空間。
func isExpectedBidError(err error) bool {
	return errors.Is(err, store.ErrAlreadyWinning) ||
		errors.Is(err, store.ErrNoEligibility) ||
		errors.Is(err, store.ErrExceedsEligibility) ||
		errors.Is(err, store.ErrInsufficientCredit) ||
		errors.Is(err, store.ErrSpaceUnavailable) ||
		errors.Is(err, store.ErrDuplicateBid)
}
