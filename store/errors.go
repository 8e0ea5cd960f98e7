package store

import "errors"

// 出價與結算的業務錯誤，呼叫端以 errors.Is 判斷後轉成對應的 HTTP 狀態。
var (
	ErrNotFound           = errors.New("record not found")
	ErrSpaceUnavailable   = errors.New("space is not available for auction")
	ErrSiteUnavailable    = errors.New("site is not available")
	ErrRoundNotStarted    = errors.New("round has not started")
	ErrRoundEnded         = errors.New("round has ended")
	ErrAlreadyWinning     = errors.New("user already holds the standing bid for this space")
	ErrNoEligibility      = errors.New("user has no eligibility for this round")
	ErrExceedsEligibility = errors.New("bid would exceed user eligibility")
	ErrInsufficientCredit = errors.New("insufficient credit for bid")
	ErrDuplicateBid       = errors.New("user already bid on this space in this round")
	ErrAuctionConcluded   = errors.New("auction has concluded")
)
