package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"spacebid/engine"
	"spacebid/models"
)

// GormStore 是 Store 的 PostgreSQL 實作。
// 所有查詢都帶 WithContext，交易中的 Store 綁定同一個 *gorm.DB。
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Transact(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	const op = "CreateUser"
	if result := s.db.WithContext(ctx).Create(user); result.Error != nil {
		return fmt.Errorf("[%s] Fail to create user, err=%w", op, result.Error)
	}
	return nil
}

func (s *GormStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "GetUser"
	user := models.User{ID: id}
	if result := s.db.WithContext(ctx).First(&user); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("[%s] Fail to find user, err=%w", op, result.Error)
	}
	return &user, nil
}

func (s *GormStore) CreateSite(ctx context.Context, site *models.Site) error {
	const op = "CreateSite"
	if result := s.db.WithContext(ctx).Create(site); result.Error != nil {
		return fmt.Errorf("[%s] Fail to create site, err=%w", op, result.Error)
	}
	return nil
}

func (s *GormStore) GetSite(ctx context.Context, id uuid.UUID) (*models.Site, error) {
	const op = "GetSite"
	site := models.Site{ID: id}
	if result := s.db.WithContext(ctx).Preload("Spaces").First(&site); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("[%s] Fail to find site, err=%w", op, result.Error)
	}
	return &site, nil
}

func (s *GormStore) CreateSpace(ctx context.Context, space *models.Space) error {
	const op = "CreateSpace"
	if result := s.db.WithContext(ctx).Create(space); result.Error != nil {
		return fmt.Errorf("[%s] Fail to create space, err=%w", op, result.Error)
	}
	return nil
}

func (s *GormStore) GetSpace(ctx context.Context, id uuid.UUID) (*models.Space, error) {
	const op = "GetSpace"
	space := models.Space{ID: id}
	if result := s.db.WithContext(ctx).First(&space); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("[%s] Fail to find space, err=%w", op, result.Error)
	}
	return &space, nil
}

func (s *GormStore) SiteSpaces(ctx context.Context, siteID uuid.UUID) ([]models.Space, error) {
	const op = "SiteSpaces"
	var spaces []models.Space
	result := s.db.WithContext(ctx).Where("site_id = ?", siteID).Order("created_at ASC").Find(&spaces)
	if result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to list site spaces, err=%w", op, result.Error)
	}
	return spaces, nil
}

func (s *GormStore) CreateAuction(ctx context.Context, auction *models.Auction) error {
	const op = "CreateAuction"
	if result := s.db.WithContext(ctx).Create(auction); result.Error != nil {
		return fmt.Errorf("[%s] Fail to create auction, err=%w", op, result.Error)
	}
	return nil
}

func (s *GormStore) GetAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	const op = "GetAuction"
	auction := models.Auction{ID: id}
	result := s.db.WithContext(ctx).Preload("AuctionParams").Preload("Site.Spaces").First(&auction)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("[%s] Fail to find auction, err=%w", op, result.Error)
	}
	return &auction, nil
}

func (s *GormStore) ListAuctions(ctx context.Context) ([]models.Auction, error) {
	const op = "ListAuctions"
	var auctions []models.Auction
	result := s.db.WithContext(ctx).
		Preload("AuctionParams").Preload("Site").
		Order("start_at ASC").
		Find(&auctions)
	if result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to list auctions, err=%w", op, result.Error)
	}
	return auctions, nil
}

func (s *GormStore) DeleteAuction(ctx context.Context, id uuid.UUID) error {
	const op = "DeleteAuction"
	result := s.db.WithContext(ctx).Delete(&models.Auction{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("[%s] Fail to delete auction, err=%w", op, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) AuctionsWithoutRounds(ctx context.Context, now time.Time) ([]models.Auction, error) {
	const op = "AuctionsWithoutRounds"
	var auctions []models.Auction
	result := s.db.WithContext(ctx).
		Preload("AuctionParams").Preload("Site").
		Where("end_at IS NULL AND start_at <= ?", now).
		Where("NOT EXISTS (SELECT 1 FROM auction_rounds WHERE auction_rounds.auction_id = auctions.id AND auction_rounds.deleted_at IS NULL)").
		Order("start_at ASC").
		Find(&auctions)
	if result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to list auctions without rounds, err=%w", op, result.Error)
	}
	return auctions, nil
}

func (s *GormStore) NextDueAuction(ctx context.Context, now time.Time) (*models.Auction, error) {
	const op = "NextDueAuction"
	latest := s.db.Model(&models.AuctionRound{}).
		Select("auction_id, MAX(end_at) AS latest_end").
		Where("deleted_at IS NULL").
		Group("auction_id")

	var auctions []models.Auction
	result := s.db.WithContext(ctx).
		Preload("AuctionParams").Preload("Site.Spaces").
		Joins("JOIN (?) AS latest ON latest.auction_id = auctions.id", latest).
		Where("auctions.end_at IS NULL AND latest.latest_end <= ?", now).
		Order("latest.latest_end ASC").
		Limit(16).
		Find(&auctions)
	if result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to query due auctions, err=%w", op, result.Error)
	}
	// 失敗退避在應用層判斷，SQL 只負責挑出已到期的候選
	for i := range auctions {
		if engine.SchedulerReady(auctions[i], now) {
			return &auctions[i], nil
		}
	}
	return nil, ErrNotFound
}

func (s *GormStore) ConcludeAuction(ctx context.Context, id uuid.UUID, endAt time.Time) error {
	const op = "ConcludeAuction"
	result := s.db.WithContext(ctx).Model(&models.Auction{}).
		Where("id = ? AND end_at IS NULL", id).
		Update("end_at", endAt)
	if result.Error != nil {
		return fmt.Errorf("[%s] Fail to conclude auction, err=%w", op, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAuctionConcluded
	}
	return nil
}

func (s *GormStore) RecordSchedulerFailure(ctx context.Context, id uuid.UUID, at time.Time) error {
	const op = "RecordSchedulerFailure"
	result := s.db.WithContext(ctx).Model(&models.Auction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"scheduler_failures":   gorm.Expr("scheduler_failures + 1"),
			"scheduler_last_error": at,
		})
	if result.Error != nil {
		return fmt.Errorf("[%s] Fail to record scheduler failure, err=%w", op, result.Error)
	}
	return nil
}

func (s *GormStore) ResetSchedulerFailures(ctx context.Context, id uuid.UUID) error {
	const op = "ResetSchedulerFailures"
	result := s.db.WithContext(ctx).Model(&models.Auction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"scheduler_failures":   0,
			"scheduler_last_error": nil,
		})
	if result.Error != nil {
		return fmt.Errorf("[%s] Fail to reset scheduler failures, err=%w", op, result.Error)
	}
	return nil
}

func (s *GormStore) CreateRound(ctx context.Context, round *models.AuctionRound) error {
	const op = "CreateRound"
	if result := s.db.WithContext(ctx).Create(round); result.Error != nil {
		return fmt.Errorf("[%s] Fail to create round, err=%w", op, result.Error)
	}
	return nil
}

func (s *GormStore) GetRound(ctx context.Context, id uuid.UUID) (*models.AuctionRound, error) {
	const op = "GetRound"
	round := models.AuctionRound{ID: id}
	if result := s.db.WithContext(ctx).First(&round); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("[%s] Fail to find round, err=%w", op, result.Error)
	}
	return &round, nil
}

func (s *GormStore) LatestRound(ctx context.Context, auctionID uuid.UUID) (*models.AuctionRound, error) {
	const op = "LatestRound"
	var round models.AuctionRound
	result := s.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order("round_num DESC").
		First(&round)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("[%s] Fail to find latest round, err=%w", op, result.Error)
	}
	return &round, nil
}

func (s *GormStore) AuctionRounds(ctx context.Context, auctionID uuid.UUID) ([]models.AuctionRound, error) {
	const op = "AuctionRounds"
	var rounds []models.AuctionRound
	result := s.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order("round_num ASC").
		Find(&rounds)
	if result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to list auction rounds, err=%w", op, result.Error)
	}
	return rounds, nil
}

func (s *GormStore) RoundByNum(ctx context.Context, auctionID uuid.UUID, roundNum int) (*models.AuctionRound, error) {
	const op = "RoundByNum"
	var round models.AuctionRound
	result := s.db.WithContext(ctx).
		Where("auction_id = ? AND round_num = ?", auctionID, roundNum).
		First(&round)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("[%s] Fail to find round by number, err=%w", op, result.Error)
	}
	return &round, nil
}

func (s *GormStore) ActiveRounds(ctx context.Context, now time.Time) ([]models.AuctionRound, error) {
	const op = "ActiveRounds"
	var rounds []models.AuctionRound
	result := s.db.WithContext(ctx).
		Joins("JOIN auctions ON auctions.id = auction_rounds.auction_id AND auctions.deleted_at IS NULL").
		Where("auction_rounds.start_at <= ? AND auction_rounds.end_at > ? AND auctions.end_at IS NULL", now, now).
		Find(&rounds)
	if result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to list active rounds, err=%w", op, result.Error)
	}
	return rounds, nil
}

func (s *GormStore) MarkRoundProxyProcessed(ctx context.Context, roundID uuid.UUID, at time.Time) error {
	const op = "MarkRoundProxyProcessed"
	result := s.db.WithContext(ctx).Model(&models.AuctionRound{}).
		Where("id = ?", roundID).
		Updates(map[string]interface{}{
			"proxy_last_processed_at": at,
			"proxy_failures":          0,
			"proxy_last_failed_at":    nil,
		})
	if result.Error != nil {
		return fmt.Errorf("[%s] Fail to mark round proxy processed, err=%w", op, result.Error)
	}
	return nil
}

func (s *GormStore) RecordRoundProxyFailure(ctx context.Context, roundID uuid.UUID, at time.Time) error {
	const op = "RecordRoundProxyFailure"
	result := s.db.WithContext(ctx).Model(&models.AuctionRound{}).
		Where("id = ?", roundID).
		Updates(map[string]interface{}{
			"proxy_failures":       gorm.Expr("proxy_failures + 1"),
			"proxy_last_failed_at": at,
		})
	if result.Error != nil {
		return fmt.Errorf("[%s] Fail to record round proxy failure, err=%w", op, result.Error)
	}
	return nil
}

func (s *GormStore) CreateBid(ctx context.Context, bid *models.Bid) error {
	const op = "CreateBid"
	if result := s.db.WithContext(ctx).Create(bid); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicateBid
		}
		return fmt.Errorf("[%s] Fail to create bid, err=%w", op, result.Error)
	}
	return nil
}

func (s *GormStore) DeleteBid(ctx context.Context, spaceID, roundID, userID uuid.UUID) error {
	const op = "DeleteBid"
	result := s.db.WithContext(ctx).
		Where("space_id = ? AND round_id = ? AND user_id = ?", spaceID, roundID, userID).
		Delete(&models.Bid{})
	if result.Error != nil {
		return fmt.Errorf("[%s] Fail to delete bid, err=%w", op, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) RoundBids(ctx context.Context, roundID uuid.UUID) ([]models.Bid, error) {
	const op = "RoundBids"
	var bids []models.Bid
	result := s.db.WithContext(ctx).Where("round_id = ?", roundID).Find(&bids)
	if result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to list round bids, err=%w", op, result.Error)
	}
	return bids, nil
}

func (s *GormStore) UserRoundBids(ctx context.Context, roundID, userID uuid.UUID) ([]models.Bid, error) {
	const op = "UserRoundBids"
	var bids []models.Bid
	result := s.db.WithContext(ctx).
		Where("round_id = ? AND user_id = ?", roundID, userID).
		Find(&bids)
	if result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to list user round bids, err=%w", op, result.Error)
	}
	return bids, nil
}

func (s *GormStore) DeleteUserRoundBids(ctx context.Context, roundID, userID uuid.UUID) error {
	const op = "DeleteUserRoundBids"
	result := s.db.WithContext(ctx).
		Where("round_id = ? AND user_id = ?", roundID, userID).
		Delete(&models.Bid{})
	if result.Error != nil {
		return fmt.Errorf("[%s] Fail to delete user round bids, err=%w", op, result.Error)
	}
	return nil
}

func (s *GormStore) CreateResult(ctx context.Context, res *models.RoundSpaceResult) error {
	const op = "CreateResult"
	if result := s.db.WithContext(ctx).Create(res); result.Error != nil {
		return fmt.Errorf("[%s] Fail to create round space result, err=%w", op, result.Error)
	}
	return nil
}

func (s *GormStore) PriorResult(ctx context.Context, auctionID, spaceID uuid.UUID, beforeRoundNum int) (*models.RoundSpaceResult, error) {
	const op = "PriorResult"
	var res models.RoundSpaceResult
	result := s.db.WithContext(ctx).
		Joins("JOIN auction_rounds ON auction_rounds.id = round_space_results.round_id AND auction_rounds.deleted_at IS NULL").
		Where("auction_rounds.auction_id = ? AND round_space_results.space_id = ? AND auction_rounds.round_num < ?",
			auctionID, spaceID, beforeRoundNum).
		Order("auction_rounds.round_num DESC").
		First(&res)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("[%s] Fail to find prior result, err=%w", op, result.Error)
	}
	return &res, nil
}

func (s *GormStore) RoundResults(ctx context.Context, roundID uuid.UUID) ([]models.RoundSpaceResult, error) {
	const op = "RoundResults"
	var results []models.RoundSpaceResult
	result := s.db.WithContext(ctx).Where("round_id = ?", roundID).Find(&results)
	if result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to list round results, err=%w", op, result.Error)
	}
	return results, nil
}

func (s *GormStore) UserWinningResults(ctx context.Context, roundID, userID uuid.UUID) ([]models.RoundSpaceResult, error) {
	const op = "UserWinningResults"
	var results []models.RoundSpaceResult
	result := s.db.WithContext(ctx).
		Where("round_id = ? AND winning_user_id = ?", roundID, userID).
		Find(&results)
	if result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to list user winning results, err=%w", op, result.Error)
	}
	return results, nil
}

func (s *GormStore) MarkResultUnsettled(ctx context.Context, resultID uuid.UUID) error {
	const op = "MarkResultUnsettled"
	result := s.db.WithContext(ctx).Model(&models.RoundSpaceResult{}).
		Where("id = ?", resultID).
		Update("unsettled", true)
	if result.Error != nil {
		return fmt.Errorf("[%s] Fail to mark result unsettled, err=%w", op, result.Error)
	}
	return nil
}

func (s *GormStore) CreateEligibility(ctx context.Context, eligibility *models.UserEligibility) error {
	const op = "CreateEligibility"
	if result := s.db.WithContext(ctx).Create(eligibility); result.Error != nil {
		return fmt.Errorf("[%s] Fail to create user eligibility, err=%w", op, result.Error)
	}
	return nil
}

func (s *GormStore) GetEligibility(ctx context.Context, roundID, userID uuid.UUID) (*models.UserEligibility, error) {
	const op = "GetEligibility"
	var eligibility models.UserEligibility
	result := s.db.WithContext(ctx).
		Where("round_id = ? AND user_id = ?", roundID, userID).
		First(&eligibility)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("[%s] Fail to find user eligibility, err=%w", op, result.Error)
	}
	return &eligibility, nil
}

func (s *GormStore) UpsertUserValue(ctx context.Context, userID, spaceID uuid.UUID, value decimal.Decimal) error {
	const op = "UpsertUserValue"
	userValue := models.UserValue{UserID: userID, SpaceID: spaceID, Value: value}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:     []clause.Column{{Name: "user_id"}, {Name: "space_id"}},
		TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "deleted_at IS NULL"}}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": time.Now(),
		}),
	}).Create(&userValue)
	if result.Error != nil {
		return fmt.Errorf("[%s] Fail to upsert user value, err=%w", op, result.Error)
	}
	return nil
}

func (s *GormStore) DeleteUserValue(ctx context.Context, userID, spaceID uuid.UUID) error {
	const op = "DeleteUserValue"
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND space_id = ?", userID, spaceID).
		Delete(&models.UserValue{})
	if result.Error != nil {
		return fmt.Errorf("[%s] Fail to delete user value, err=%w", op, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) UserValuesForSite(ctx context.Context, userID, siteID uuid.UUID) ([]models.UserValue, error) {
	const op = "UserValuesForSite"
	var values []models.UserValue
	result := s.db.WithContext(ctx).
		Joins("JOIN spaces ON spaces.id = user_values.space_id AND spaces.deleted_at IS NULL").
		Where("user_values.user_id = ? AND spaces.site_id = ?", userID, siteID).
		Find(&values)
	if result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to list user values, err=%w", op, result.Error)
	}
	return values, nil
}

func (s *GormStore) UpsertUseProxyBidding(ctx context.Context, userID, auctionID uuid.UUID, maxItems int) error {
	const op = "UpsertUseProxyBidding"
	setting := models.UseProxyBidding{UserID: userID, AuctionID: auctionID, MaxItems: maxItems}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:     []clause.Column{{Name: "user_id"}, {Name: "auction_id"}},
		TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "deleted_at IS NULL"}}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"max_items":  maxItems,
			"updated_at": time.Now(),
		}),
	}).Create(&setting)
	if result.Error != nil {
		return fmt.Errorf("[%s] Fail to upsert use proxy bidding, err=%w", op, result.Error)
	}
	return nil
}

func (s *GormStore) DeleteUseProxyBidding(ctx context.Context, userID, auctionID uuid.UUID) error {
	const op = "DeleteUseProxyBidding"
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND auction_id = ?", userID, auctionID).
		Delete(&models.UseProxyBidding{})
	if result.Error != nil {
		return fmt.Errorf("[%s] Fail to delete use proxy bidding, err=%w", op, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) GetUseProxyBidding(ctx context.Context, userID, auctionID uuid.UUID) (*models.UseProxyBidding, error) {
	const op = "GetUseProxyBidding"
	var setting models.UseProxyBidding
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND auction_id = ?", userID, auctionID).
		First(&setting)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("[%s] Fail to find use proxy bidding, err=%w", op, result.Error)
	}
	return &setting, nil
}

func (s *GormStore) ProxyUsers(ctx context.Context, auctionID uuid.UUID) ([]models.UseProxyBidding, error) {
	const op = "ProxyUsers"
	var settings []models.UseProxyBidding
	result := s.db.WithContext(ctx).
		Where("auction_id = ?", auctionID).
		Order("created_at ASC").
		Find(&settings)
	if result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to list proxy users, err=%w", op, result.Error)
	}
	return settings, nil
}

func (s *GormStore) ProxySettingsUpdatedAt(ctx context.Context, auctionID uuid.UUID) (*time.Time, error) {
	const op = "ProxySettingsUpdatedAt"
	var settingsAt sql.NullTime
	result := s.db.WithContext(ctx).Model(&models.UseProxyBidding{}).
		Where("auction_id = ?", auctionID).
		Select("MAX(updated_at)").
		Scan(&settingsAt)
	if result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to query proxy settings update time, err=%w", op, result.Error)
	}

	var valuesAt sql.NullTime
	result = s.db.WithContext(ctx).Model(&models.UserValue{}).
		Joins("JOIN spaces ON spaces.id = user_values.space_id AND spaces.deleted_at IS NULL").
		Where("spaces.site_id = (SELECT site_id FROM auctions WHERE auctions.id = ?)", auctionID).
		Select("MAX(user_values.updated_at)").
		Scan(&valuesAt)
	if result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to query user values update time, err=%w", op, result.Error)
	}

	return laterOf(settingsAt, valuesAt), nil
}

func laterOf(a, b sql.NullTime) *time.Time {
	switch {
	case !a.Valid && !b.Valid:
		return nil
	case !a.Valid:
		return &b.Time
	case !b.Valid:
		return &a.Time
	case a.Time.After(b.Time):
		return &a.Time
	default:
		return &b.Time
	}
}
