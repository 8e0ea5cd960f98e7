package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"spacebid/engine"
	"spacebid/models"
)

// lockedBalance 加總使用者在社群所有進行中拍賣裡被佔用的額度。
// GORM 與記憶體實作都透過 Store 介面走同一套計算。
func lockedBalance(ctx context.Context, st Store, communityID, userID uuid.UUID) (decimal.Decimal, error) {
	const op = "lockedBalance"
	auctions, err := st.ListAuctions(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("[%s] Fail to list auctions, err=%w", op, err)
	}
	total := decimal.Zero
	for i := range auctions {
		auction := &auctions[i]
		if auction.EndAt != nil || auction.Site == nil || auction.Site.CommunityID != communityID {
			continue
		}
		locked, err := auctionLockedBalance(ctx, st, auction, userID)
		if err != nil {
			return decimal.Zero, fmt.Errorf("[%s] Fail to compute locked balance for auction %s, err=%w", op, auction.ID, err)
		}
		total = total.Add(locked)
	}
	return total, nil
}

// auctionLockedBalance 計算單場拍賣佔用的額度：
// 最新已解算回合中得標的成交價（下一回合沒出價就得付款），加上尚未
// 解算回合中每筆出價以該空間最低出價計價的金額（回合關閉時最多以此
// 價格成交）。
func auctionLockedBalance(ctx context.Context, st Store, auction *models.Auction, userID uuid.UUID) (decimal.Decimal, error) {
	latest, err := st.LatestRound(ctx, auction.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}

	results, err := st.RoundResults(ctx, latest.ID)
	if err != nil {
		return decimal.Zero, err
	}

	increment := decimal.Zero
	if auction.AuctionParams != nil {
		increment = auction.AuctionParams.BidIncrement
	}

	total := decimal.Zero
	processed := latest
	if len(results) == 0 {
		bids, err := st.UserRoundBids(ctx, latest.ID, userID)
		if err != nil {
			return decimal.Zero, err
		}
		for _, bid := range bids {
			prior, err := lockedPriorFor(ctx, st, auction.ID, bid.SpaceID, latest.RoundNum)
			if err != nil {
				return decimal.Zero, err
			}
			total = total.Add(engine.MinimumBid(prior, increment))
		}
		if latest.RoundNum == 0 {
			return total, nil
		}
		prev, err := st.RoundByNum(ctx, auction.ID, latest.RoundNum-1)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return total, nil
			}
			return decimal.Zero, err
		}
		processed = prev
	}

	wins, err := st.UserWinningResults(ctx, processed.ID, userID)
	if err != nil {
		return decimal.Zero, err
	}
	for _, win := range wins {
		total = total.Add(win.Value)
	}
	return total, nil
}

func lockedPriorFor(ctx context.Context, st Store, auctionID, spaceID uuid.UUID, roundNum int) (*engine.PriorResult, error) {
	result, err := st.PriorResult(ctx, auctionID, spaceID, roundNum)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &engine.PriorResult{WinningUserID: result.WinningUserID, Value: result.Value}, nil
}
