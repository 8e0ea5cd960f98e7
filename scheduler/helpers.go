package scheduler

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"spacebid/engine"
	"spacebid/models"
	"spacebid/store"
)

func incrementOf(auction *models.Auction) decimal.Decimal {
	if auction.AuctionParams == nil {
		return decimal.Zero
	}
	return auction.AuctionParams.BidIncrement
}

// priorFor 取得空間在指定回合之前最近的結果，沒有結果時回傳 nil。
func priorFor(ctx context.Context, st store.Store, auctionID, spaceID uuid.UUID, roundNum int) (*engine.PriorResult, error) {
	result, err := st.PriorResult(ctx, auctionID, spaceID, roundNum)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &engine.PriorResult{WinningUserID: result.WinningUserID, Value: result.Value}, nil
}
