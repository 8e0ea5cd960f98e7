package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"spacebid/caltime"
	"spacebid/models"
	"spacebid/store"
)

const userIDHeader = "X-User-ID"

// RegisterRoutes 註冊所有路由。
func (impl *ServerImpl) RegisterRoutes(router gin.IRouter) {
	router.POST("/sites", impl.createSite)
	router.GET("/sites/:siteID", impl.getSite)
	router.GET("/sites/:siteID/user-values", impl.listUserValues)

	router.POST("/auctions", impl.createAuction)
	router.GET("/auctions", impl.listAuctions)
	router.GET("/auctions/:auctionID", impl.getAuction)
	router.DELETE("/auctions/:auctionID", impl.deleteAuction)

	router.GET("/auctions/:auctionID/rounds", impl.listRounds)
	router.GET("/auctions/:auctionID/rounds/:roundNum", impl.getRound)
	router.GET("/auctions/:auctionID/rounds/:roundNum/results", impl.listRoundResults)

	router.POST("/auctions/:auctionID/bids", impl.placeBid)
	router.DELETE("/auctions/:auctionID/bids/:spaceID", impl.withdrawBid)

	router.PUT("/spaces/:spaceID/user-value", impl.setUserValue)
	router.DELETE("/spaces/:spaceID/user-value", impl.removeUserValue)

	router.PUT("/auctions/:auctionID/proxy-bidding", impl.enableProxyBidding)
	router.GET("/auctions/:auctionID/proxy-bidding", impl.getProxyBidding)
	router.DELETE("/auctions/:auctionID/proxy-bidding", impl.disableProxyBidding)

	router.GET("/auctions/:auctionID/events", impl.streamAuctionEvents)
}

// userIDFrom 從標頭取出使用者識別，身分驗證由外部閘道完成。
func userIDFrom(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetHeader(userIDHeader)
	if raw == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing " + userIDHeader + " header"})
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid " + userIDHeader + " header"})
		return uuid.Nil, false
	}
	return id, true
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// renderError 將持久層與出價服務的哨兵錯誤對應到HTTP狀態碼。
func renderError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrRoundNotStarted),
		errors.Is(err, store.ErrRoundEnded),
		errors.Is(err, store.ErrAuctionConcluded),
		errors.Is(err, store.ErrAlreadyWinning):
		status = http.StatusConflict
	case errors.Is(err, store.ErrSpaceUnavailable),
		errors.Is(err, store.ErrSiteUnavailable),
		errors.Is(err, store.ErrNoEligibility),
		errors.Is(err, store.ErrExceedsEligibility),
		errors.Is(err, store.ErrInsufficientCredit):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"message": "internal error"})
		return
	}
	c.JSON(status, gin.H{"message": err.Error()})
}

type createSpaceRequest struct {
	Name              string  `json:"name" binding:"required"`
	Description       *string `json:"description"`
	EligibilityPoints float64 `json:"eligibility_points"`
}

type createSiteRequest struct {
	CommunityID uuid.UUID            `json:"community_id" binding:"required"`
	Name        string               `json:"name" binding:"required"`
	Description *string              `json:"description"`
	Timezone    string               `json:"timezone"`
	Spaces      []createSpaceRequest `json:"spaces" binding:"required,min=1"`
}

func (impl *ServerImpl) createSite(c *gin.Context) {
	var req createSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if req.Timezone == "" {
		req.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "unknown timezone"})
		return
	}

	site := models.Site{
		CommunityID: req.CommunityID,
		Name:        req.Name,
		Description: req.Description,
		Timezone:    req.Timezone,
		IsAvailable: true,
		Spaces: lo.Map(req.Spaces, func(space createSpaceRequest, _ int) models.Space {
			points := space.EligibilityPoints
			if points <= 0 {
				points = 1
			}
			return models.Space{
				Name:              space.Name,
				Description:       space.Description,
				EligibilityPoints: points,
				IsAvailable:       true,
			}
		}),
	}
	if err := impl.store.CreateSite(c.Request.Context(), &site); err != nil {
		renderError(c, err)
		return
	}
	c.Header("Location", site.ID.String())
	c.JSON(http.StatusCreated, site)
}

func (impl *ServerImpl) getSite(c *gin.Context) {
	siteID, ok := pathUUID(c, "siteID")
	if !ok {
		return
	}
	site, err := impl.store.GetSite(c.Request.Context(), siteID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, site)
}

type createAuctionRequest struct {
	SiteID                 uuid.UUID                `json:"site_id" binding:"required"`
	PossessionStartAt      time.Time                `json:"possession_start_at" binding:"required"`
	PossessionEndAt        time.Time                `json:"possession_end_at" binding:"required"`
	StartAt                time.Time                `json:"start_at" binding:"required"`
	RoundDuration          caltime.Span             `json:"round_duration"`
	BidIncrement           decimal.Decimal          `json:"bid_increment"`
	EligibilityProgression []models.ProgressionStep `json:"eligibility_progression"`
}

func (impl *ServerImpl) createAuction(c *gin.Context) {
	var req createAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if !req.PossessionStartAt.Before(req.PossessionEndAt) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "possession window is empty"})
		return
	}
	if req.RoundDuration.IsZero() {
		req.RoundDuration = caltime.Span{Days: 1}
	}
	if req.BidIncrement.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "bid increment cannot be negative"})
		return
	}

	if _, err := impl.store.GetSite(c.Request.Context(), req.SiteID); err != nil {
		renderError(c, err)
		return
	}

	auction := models.Auction{
		SiteID:            req.SiteID,
		PossessionStartAt: req.PossessionStartAt,
		PossessionEndAt:   req.PossessionEndAt,
		StartAt:           req.StartAt,
		AuctionParams: &models.AuctionParams{
			RoundDuration: req.RoundDuration,
			BidIncrement:  req.BidIncrement,
			ActivityRuleParams: models.ActivityRuleParams{
				EligibilityProgression: req.EligibilityProgression,
			},
		},
	}
	if err := impl.store.CreateAuction(c.Request.Context(), &auction); err != nil {
		renderError(c, err)
		return
	}
	c.Header("Location", auction.ID.String())
	c.JSON(http.StatusCreated, auction)
}

func (impl *ServerImpl) listAuctions(c *gin.Context) {
	auctions, err := impl.store.ListAuctions(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, auctions)
}

func (impl *ServerImpl) getAuction(c *gin.Context) {
	auctionID, ok := pathUUID(c, "auctionID")
	if !ok {
		return
	}
	auction, err := impl.store.GetAuction(c.Request.Context(), auctionID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, auction)
}

func (impl *ServerImpl) deleteAuction(c *gin.Context) {
	auctionID, ok := pathUUID(c, "auctionID")
	if !ok {
		return
	}
	// 已開打的拍賣不能刪除，歷史回合是僅追加的紀錄
	if _, err := impl.store.LatestRound(c.Request.Context(), auctionID); err == nil {
		c.JSON(http.StatusConflict, gin.H{"message": "auction already has rounds"})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		renderError(c, err)
		return
	}
	if err := impl.store.DeleteAuction(c.Request.Context(), auctionID); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (impl *ServerImpl) listRounds(c *gin.Context) {
	auctionID, ok := pathUUID(c, "auctionID")
	if !ok {
		return
	}
	rounds, err := impl.store.AuctionRounds(c.Request.Context(), auctionID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, rounds)
}

func (impl *ServerImpl) roundFromPath(c *gin.Context) (*models.AuctionRound, bool) {
	auctionID, ok := pathUUID(c, "auctionID")
	if !ok {
		return nil, false
	}
	roundNum, err := strconv.Atoi(c.Param("roundNum"))
	if err != nil || roundNum < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid roundNum"})
		return nil, false
	}
	round, err := impl.store.RoundByNum(c.Request.Context(), auctionID, roundNum)
	if err != nil {
		renderError(c, err)
		return nil, false
	}
	return round, true
}

func (impl *ServerImpl) getRound(c *gin.Context) {
	round, ok := impl.roundFromPath(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, round)
}

func (impl *ServerImpl) listRoundResults(c *gin.Context) {
	round, ok := impl.roundFromPath(c)
	if !ok {
		return
	}
	results, err := impl.store.RoundResults(c.Request.Context(), round.ID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

type placeBidRequest struct {
	SpaceID uuid.UUID `json:"space_id" binding:"required"`
}

func (impl *ServerImpl) placeBid(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	auctionID, ok := pathUUID(c, "auctionID")
	if !ok {
		return
	}
	var req placeBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if err := impl.bidding.PlaceBid(c.Request.Context(), userID, auctionID, req.SpaceID); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (impl *ServerImpl) withdrawBid(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	auctionID, ok := pathUUID(c, "auctionID")
	if !ok {
		return
	}
	spaceID, ok := pathUUID(c, "spaceID")
	if !ok {
		return
	}
	if err := impl.bidding.WithdrawBid(c.Request.Context(), userID, auctionID, spaceID); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type setUserValueRequest struct {
	Value decimal.Decimal `json:"value" binding:"required"`
}

func (impl *ServerImpl) setUserValue(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	spaceID, ok := pathUUID(c, "spaceID")
	if !ok {
		return
	}
	var req setUserValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if err := impl.bidding.SetUserValue(c.Request.Context(), userID, spaceID, req.Value); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (impl *ServerImpl) removeUserValue(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	spaceID, ok := pathUUID(c, "spaceID")
	if !ok {
		return
	}
	if err := impl.bidding.RemoveUserValue(c.Request.Context(), userID, spaceID); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (impl *ServerImpl) listUserValues(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	siteID, ok := pathUUID(c, "siteID")
	if !ok {
		return
	}
	values, err := impl.store.UserValuesForSite(c.Request.Context(), userID, siteID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, values)
}

type enableProxyBiddingRequest struct {
	MaxItems int `json:"max_items" binding:"required,min=1"`
}

func (impl *ServerImpl) enableProxyBidding(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	auctionID, ok := pathUUID(c, "auctionID")
	if !ok {
		return
	}
	var req enableProxyBiddingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if err := impl.bidding.EnableProxyBidding(c.Request.Context(), userID, auctionID, req.MaxItems); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (impl *ServerImpl) getProxyBidding(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	auctionID, ok := pathUUID(c, "auctionID")
	if !ok {
		return
	}
	setting, err := impl.store.GetUseProxyBidding(c.Request.Context(), userID, auctionID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, setting)
}

func (impl *ServerImpl) disableProxyBidding(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}
	auctionID, ok := pathUUID(c, "auctionID")
	if !ok {
		return
	}
	if err := impl.bidding.DisableProxyBidding(c.Request.Context(), userID, auctionID); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// streamAuctionEvents 以SSE把拍賣事件即時推給前端。
func (impl *ServerImpl) streamAuctionEvents(c *gin.Context) {
	auctionID, ok := pathUUID(c, "auctionID")
	if !ok {
		return
	}
	if _, err := impl.store.GetAuction(c.Request.Context(), auctionID); err != nil {
		renderError(c, err)
		return
	}

	ch, err := impl.hub.Subscribe(auctionID)
	if err != nil {
		renderError(c, err)
		return
	}
	defer impl.hub.Unsubscribe(auctionID, ch)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, open := <-ch:
			if !open {
				return false
			}
			c.SSEvent(string(event.Type), event)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
