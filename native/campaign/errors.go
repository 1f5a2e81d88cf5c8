package campaign

import "errors"

var (
	ErrNilState           = errors.New("campaign: state not configured")
	ErrAlreadyInitialized = errors.New("campaign: already initialized")
	ErrNotInitialized     = errors.New("campaign: not initialized")
	ErrInvalidAmount      = errors.New("campaign: amount must be positive")
	ErrInvalidGoal        = errors.New("campaign: goal must be positive")
	ErrCampaignEnded      = errors.New("campaign: campaign has ended")
	ErrCampaignNotEnded   = errors.New("campaign: campaign has not ended")
	ErrGoalReached        = errors.New("campaign: goal reached, refunds disabled")
	ErrNoDonationFound    = errors.New("campaign: no donation found for address")
)
