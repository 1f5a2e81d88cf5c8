package contest

import "errors"

var (
	ErrNilState                 = errors.New("contest: state not configured")
	ErrAlreadyInitialized       = errors.New("contest: already initialized")
	ErrNotInitialized           = errors.New("contest: not initialized")
	ErrInvalidFee               = errors.New("contest: entry fee must be positive")
	ErrInvalidDeadline          = errors.New("contest: deadline must be in the future")
	ErrCompetitionAlreadyActive = errors.New("contest: competition already active")
	ErrCompetitionNotActive     = errors.New("contest: competition not active")
	ErrCompetitionEnded         = errors.New("contest: competition has ended")
	ErrCompetitionStillOpen     = errors.New("contest: competition deadline not reached")
	ErrAlreadyPaid              = errors.New("contest: entry fee already paid, submit a score first")
	ErrPaymentRequired          = errors.New("contest: entry fee required before submitting a score")
	ErrFeeImmutable             = errors.New("contest: entry fee is fixed for this profile")
	ErrCombinedPlayDisabled     = errors.New("contest: combined pay-and-play disabled for this profile")
)
