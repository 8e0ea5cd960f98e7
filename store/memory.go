package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"spacebid/clock"
	"spacebid/engine"
	"spacebid/models"
)

// MemoryStore 是 Store 的純記憶體實作，供測試使用。
// 集合以切片保存以維持插入順序，時間戳記來自注入的時鐘，
// 測試可以用 MockClock 精確控制 created_at 與 updated_at。
//
// Transact 只做序列化執行，不支援回滾；測試中交易內的錯誤
// 直接讓該次操作失敗即可。
type MemoryStore struct {
	mu  sync.Mutex
	clk clock.Clock

	users         []models.User
	sites         []models.Site
	spaces        []models.Space
	params        []models.AuctionParams
	auctions      []models.Auction
	rounds        []models.AuctionRound
	bids          []models.Bid
	results       []models.RoundSpaceResult
	eligibilities []models.UserEligibility
	userValues    []models.UserValue
	proxySettings []models.UseProxyBidding
	accounts      []models.Account
	entries       []models.JournalEntry
	lines         []models.JournalLine
}

func NewMemoryStore(clk clock.Clock) *MemoryStore {
	return &MemoryStore{clk: clk}
}

func (s *MemoryStore) Transact(_ context.Context, fn func(Store) error) error {
	return fn(s)
}

func (s *MemoryStore) stamp(id *uuid.UUID, createdAt *time.Time, updatedAt *time.Time) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	now := s.clk.Now()
	if createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
}

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	s.users = append(s.users, *user)
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.ID == id {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateSite(_ context.Context, site *models.Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&site.ID, &site.CreatedAt, &site.UpdatedAt)
	for i := range site.Spaces {
		space := &site.Spaces[i]
		space.SiteID = site.ID
		s.stamp(&space.ID, &space.CreatedAt, &space.UpdatedAt)
		s.spaces = append(s.spaces, *space)
	}
	s.sites = append(s.sites, *site)
	return nil
}

func (s *MemoryStore) GetSite(_ context.Context, id uuid.UUID) (*models.Site, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getSiteLocked(id)
}

func (s *MemoryStore) getSiteLocked(id uuid.UUID) (*models.Site, error) {
	for _, site := range s.sites {
		if site.ID == id {
			found := site
			found.Spaces = nil
			for _, space := range s.spaces {
				if space.SiteID == id {
					found.Spaces = append(found.Spaces, space)
				}
			}
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateSpace(_ context.Context, space *models.Space) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&space.ID, &space.CreatedAt, &space.UpdatedAt)
	s.spaces = append(s.spaces, *space)
	return nil
}

func (s *MemoryStore) GetSpace(_ context.Context, id uuid.UUID) (*models.Space, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, space := range s.spaces {
		if space.ID == id {
			found := space
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

// SetSpaceAvailability 直接切換空間的可用狀態，測試用。
func (s *MemoryStore) SetSpaceAvailability(id uuid.UUID, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.spaces {
		if s.spaces[i].ID == id {
			s.spaces[i].IsAvailable = available
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) SiteSpaces(_ context.Context, siteID uuid.UUID) ([]models.Space, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var spaces []models.Space
	for _, space := range s.spaces {
		if space.SiteID == siteID {
			spaces = append(spaces, space)
		}
	}
	return spaces, nil
}

func (s *MemoryStore) CreateAuction(_ context.Context, auction *models.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if auction.AuctionParams != nil {
		params := auction.AuctionParams
		s.stamp(&params.ID, &params.CreatedAt, &params.UpdatedAt)
		auction.AuctionParamsID = params.ID
		s.params = append(s.params, *params)
	}
	s.stamp(&auction.ID, &auction.CreatedAt, &auction.UpdatedAt)
	s.auctions = append(s.auctions, *auction)
	return nil
}

func (s *MemoryStore) GetAuction(_ context.Context, id uuid.UUID) (*models.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getAuctionLocked(id)
}

func (s *MemoryStore) getAuctionLocked(id uuid.UUID) (*models.Auction, error) {
	for _, auction := range s.auctions {
		if auction.ID != id {
			continue
		}
		found := auction
		for _, params := range s.params {
			if params.ID == found.AuctionParamsID {
				p := params
				found.AuctionParams = &p
				break
			}
		}
		if site, err := s.getSiteLocked(found.SiteID); err == nil {
			found.Site = site
		}
		return &found, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListAuctions(_ context.Context) ([]models.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	auctions := make([]models.Auction, 0, len(s.auctions))
	for _, auction := range s.auctions {
		full, err := s.getAuctionLocked(auction.ID)
		if err != nil {
			return nil, err
		}
		auctions = append(auctions, *full)
	}
	sort.Slice(auctions, func(i, j int) bool {
		return auctions[i].StartAt.Before(auctions[j].StartAt)
	})
	return auctions, nil
}

func (s *MemoryStore) DeleteAuction(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.auctions {
		if s.auctions[i].ID == id {
			s.auctions = append(s.auctions[:i], s.auctions[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) AuctionsWithoutRounds(_ context.Context, now time.Time) ([]models.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var auctions []models.Auction
	for _, auction := range s.auctions {
		if auction.EndAt != nil || auction.StartAt.After(now) {
			continue
		}
		if s.latestRoundLocked(auction.ID) != nil {
			continue
		}
		full, err := s.getAuctionLocked(auction.ID)
		if err != nil {
			return nil, err
		}
		auctions = append(auctions, *full)
	}
	return auctions, nil
}

func (s *MemoryStore) latestRoundLocked(auctionID uuid.UUID) *models.AuctionRound {
	var latest *models.AuctionRound
	for i := range s.rounds {
		round := s.rounds[i]
		if round.AuctionID != auctionID {
			continue
		}
		if latest == nil || round.RoundNum > latest.RoundNum {
			r := round
			latest = &r
		}
	}
	return latest
}

func (s *MemoryStore) NextDueAuction(_ context.Context, now time.Time) (*models.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var (
		dueID   uuid.UUID
		dueEnd  time.Time
		haveDue bool
	)
	for _, auction := range s.auctions {
		if auction.EndAt != nil || !engine.SchedulerReady(auction, now) {
			continue
		}
		latest := s.latestRoundLocked(auction.ID)
		if latest == nil || latest.EndAt.After(now) {
			continue
		}
		if !haveDue || latest.EndAt.Before(dueEnd) {
			dueID, dueEnd, haveDue = auction.ID, latest.EndAt, true
		}
	}
	if !haveDue {
		return nil, ErrNotFound
	}
	return s.getAuctionLocked(dueID)
}

func (s *MemoryStore) ConcludeAuction(_ context.Context, id uuid.UUID, endAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.auctions {
		if s.auctions[i].ID == id {
			if s.auctions[i].EndAt != nil {
				return ErrAuctionConcluded
			}
			at := endAt
			s.auctions[i].EndAt = &at
			s.auctions[i].UpdatedAt = s.clk.Now()
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) RecordSchedulerFailure(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.auctions {
		if s.auctions[i].ID == id {
			failedAt := at
			s.auctions[i].SchedulerFailures++
			s.auctions[i].SchedulerLastError = &failedAt
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) ResetSchedulerFailures(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.auctions {
		if s.auctions[i].ID == id {
			s.auctions[i].SchedulerFailures = 0
			s.auctions[i].SchedulerLastError = nil
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) CreateRound(_ context.Context, round *models.AuctionRound) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&round.ID, &round.CreatedAt, &round.UpdatedAt)
	s.rounds = append(s.rounds, *round)
	return nil
}

func (s *MemoryStore) GetRound(_ context.Context, id uuid.UUID) (*models.AuctionRound, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, round := range s.rounds {
		if round.ID == id {
			found := round
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) LatestRound(_ context.Context, auctionID uuid.UUID) (*models.AuctionRound, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if latest := s.latestRoundLocked(auctionID); latest != nil {
		return latest, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) AuctionRounds(_ context.Context, auctionID uuid.UUID) ([]models.AuctionRound, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rounds []models.AuctionRound
	for _, round := range s.rounds {
		if round.AuctionID == auctionID {
			rounds = append(rounds, round)
		}
	}
	sort.Slice(rounds, func(i, j int) bool {
		return rounds[i].RoundNum < rounds[j].RoundNum
	})
	return rounds, nil
}

func (s *MemoryStore) RoundByNum(_ context.Context, auctionID uuid.UUID, roundNum int) (*models.AuctionRound, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, round := range s.rounds {
		if round.AuctionID == auctionID && round.RoundNum == roundNum {
			found := round
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ActiveRounds(_ context.Context, now time.Time) ([]models.AuctionRound, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var active []models.AuctionRound
	for _, round := range s.rounds {
		if round.StartAt.After(now) || !round.EndAt.After(now) {
			continue
		}
		for _, auction := range s.auctions {
			if auction.ID == round.AuctionID && auction.EndAt == nil {
				active = append(active, round)
				break
			}
		}
	}
	return active, nil
}

func (s *MemoryStore) MarkRoundProxyProcessed(_ context.Context, roundID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rounds {
		if s.rounds[i].ID == roundID {
			processedAt := at
			s.rounds[i].ProxyLastProcessedAt = &processedAt
			s.rounds[i].ProxyFailures = 0
			s.rounds[i].ProxyLastFailedAt = nil
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) RecordRoundProxyFailure(_ context.Context, roundID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rounds {
		if s.rounds[i].ID == roundID {
			failedAt := at
			s.rounds[i].ProxyFailures++
			s.rounds[i].ProxyLastFailedAt = &failedAt
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) CreateBid(_ context.Context, bid *models.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.bids {
		if existing.SpaceID == bid.SpaceID && existing.RoundID == bid.RoundID && existing.UserID == bid.UserID {
			return ErrDuplicateBid
		}
	}
	s.stamp(&bid.ID, &bid.CreatedAt, &bid.UpdatedAt)
	s.bids = append(s.bids, *bid)
	return nil
}

func (s *MemoryStore) DeleteBid(_ context.Context, spaceID, roundID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, bid := range s.bids {
		if bid.SpaceID == spaceID && bid.RoundID == roundID && bid.UserID == userID {
			s.bids = append(s.bids[:i], s.bids[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) RoundBids(_ context.Context, roundID uuid.UUID) ([]models.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var bids []models.Bid
	for _, bid := range s.bids {
		if bid.RoundID == roundID {
			bids = append(bids, bid)
		}
	}
	return bids, nil
}

func (s *MemoryStore) UserRoundBids(_ context.Context, roundID, userID uuid.UUID) ([]models.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var bids []models.Bid
	for _, bid := range s.bids {
		if bid.RoundID == roundID && bid.UserID == userID {
			bids = append(bids, bid)
		}
	}
	return bids, nil
}

func (s *MemoryStore) DeleteUserRoundBids(_ context.Context, roundID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.bids[:0]
	for _, bid := range s.bids {
		if bid.RoundID == roundID && bid.UserID == userID {
			continue
		}
		kept = append(kept, bid)
	}
	s.bids = kept
	return nil
}

func (s *MemoryStore) CreateResult(_ context.Context, result *models.RoundSpaceResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&result.ID, &result.CreatedAt, &result.UpdatedAt)
	s.results = append(s.results, *result)
	return nil
}

func (s *MemoryStore) PriorResult(_ context.Context, auctionID, spaceID uuid.UUID, beforeRoundNum int) (*models.RoundSpaceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var (
		prior    *models.RoundSpaceResult
		priorNum int
	)
	for _, result := range s.results {
		if result.SpaceID != spaceID {
			continue
		}
		for _, round := range s.rounds {
			if round.ID != result.RoundID || round.AuctionID != auctionID {
				continue
			}
			if round.RoundNum >= beforeRoundNum {
				continue
			}
			if prior == nil || round.RoundNum > priorNum {
				r := result
				prior, priorNum = &r, round.RoundNum
			}
		}
	}
	if prior == nil {
		return nil, ErrNotFound
	}
	return prior, nil
}

func (s *MemoryStore) RoundResults(_ context.Context, roundID uuid.UUID) ([]models.RoundSpaceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var results []models.RoundSpaceResult
	for _, result := range s.results {
		if result.RoundID == roundID {
			results = append(results, result)
		}
	}
	return results, nil
}

func (s *MemoryStore) UserWinningResults(_ context.Context, roundID, userID uuid.UUID) ([]models.RoundSpaceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var results []models.RoundSpaceResult
	for _, result := range s.results {
		if result.RoundID == roundID && result.WinningUserID != nil && *result.WinningUserID == userID {
			results = append(results, result)
		}
	}
	return results, nil
}

func (s *MemoryStore) MarkResultUnsettled(_ context.Context, resultID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.results {
		if s.results[i].ID == resultID {
			s.results[i].Unsettled = true
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) CreateEligibility(_ context.Context, eligibility *models.UserEligibility) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&eligibility.ID, &eligibility.CreatedAt, &eligibility.UpdatedAt)
	s.eligibilities = append(s.eligibilities, *eligibility)
	return nil
}

func (s *MemoryStore) GetEligibility(_ context.Context, roundID, userID uuid.UUID) (*models.UserEligibility, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, eligibility := range s.eligibilities {
		if eligibility.RoundID == roundID && eligibility.UserID == userID {
			found := eligibility
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpsertUserValue(_ context.Context, userID, spaceID uuid.UUID, value decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.userValues {
		if s.userValues[i].UserID == userID && s.userValues[i].SpaceID == spaceID {
			s.userValues[i].Value = value
			s.userValues[i].UpdatedAt = s.clk.Now()
			return nil
		}
	}
	userValue := models.UserValue{UserID: userID, SpaceID: spaceID, Value: value}
	s.stamp(&userValue.ID, &userValue.CreatedAt, &userValue.UpdatedAt)
	s.userValues = append(s.userValues, userValue)
	return nil
}

func (s *MemoryStore) DeleteUserValue(_ context.Context, userID, spaceID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, value := range s.userValues {
		if value.UserID == userID && value.SpaceID == spaceID {
			s.userValues = append(s.userValues[:i], s.userValues[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) UserValuesForSite(_ context.Context, userID, siteID uuid.UUID) ([]models.UserValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var values []models.UserValue
	for _, value := range s.userValues {
		if value.UserID != userID {
			continue
		}
		for _, space := range s.spaces {
			if space.ID == value.SpaceID && space.SiteID == siteID {
				values = append(values, value)
				break
			}
		}
	}
	return values, nil
}

func (s *MemoryStore) UpsertUseProxyBidding(_ context.Context, userID, auctionID uuid.UUID, maxItems int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.proxySettings {
		if s.proxySettings[i].UserID == userID && s.proxySettings[i].AuctionID == auctionID {
			s.proxySettings[i].MaxItems = maxItems
			s.proxySettings[i].UpdatedAt = s.clk.Now()
			return nil
		}
	}
	setting := models.UseProxyBidding{UserID: userID, AuctionID: auctionID, MaxItems: maxItems}
	s.stamp(&setting.ID, &setting.CreatedAt, &setting.UpdatedAt)
	s.proxySettings = append(s.proxySettings, setting)
	return nil
}

func (s *MemoryStore) DeleteUseProxyBidding(_ context.Context, userID, auctionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, setting := range s.proxySettings {
		if setting.UserID == userID && setting.AuctionID == auctionID {
			s.proxySettings = append(s.proxySettings[:i], s.proxySettings[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) GetUseProxyBidding(_ context.Context, userID, auctionID uuid.UUID) (*models.UseProxyBidding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, setting := range s.proxySettings {
		if setting.UserID == userID && setting.AuctionID == auctionID {
			found := setting
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ProxyUsers(_ context.Context, auctionID uuid.UUID) ([]models.UseProxyBidding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var settings []models.UseProxyBidding
	for _, setting := range s.proxySettings {
		if setting.AuctionID == auctionID {
			settings = append(settings, setting)
		}
	}
	return settings, nil
}

func (s *MemoryStore) ProxySettingsUpdatedAt(_ context.Context, auctionID uuid.UUID) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *time.Time
	consider := func(at time.Time) {
		if latest == nil || at.After(*latest) {
			t := at
			latest = &t
		}
	}
	for _, setting := range s.proxySettings {
		if setting.AuctionID == auctionID {
			consider(setting.UpdatedAt)
		}
	}
	auction, err := s.getAuctionLocked(auctionID)
	if err != nil {
		return nil, err
	}
	for _, value := range s.userValues {
		for _, space := range s.spaces {
			if space.ID == value.SpaceID && space.SiteID == auction.SiteID {
				consider(value.UpdatedAt)
				break
			}
		}
	}
	return latest, nil
}
