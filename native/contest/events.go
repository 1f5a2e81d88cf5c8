package contest

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"fundchain/core/types"
)

const (
	EventTypeContestCreated        = "contest.created"
	EventTypeContestEntryPaid      = "contest.entry_paid"
	EventTypeContestScoreSubmitted = "contest.score_submitted"
	EventTypeContestPlayed         = "contest.played"
	EventTypeContestFeeUpdated     = "contest.fee_updated"
	EventTypeContestEnded          = "contest.ended"
)

func formatAddress(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// NewCreatedEvent returns the canonical payload emitted when a round opens.
func NewCreatedEvent(c *Competition) *types.Event {
	if c == nil {
		return nil
	}
	return &types.Event{
		Type: EventTypeContestCreated,
		Attributes: map[string]string{
			"sessionId": strconv.FormatUint(c.SessionID, 10),
			"deadline":  strconv.FormatInt(c.Deadline, 10),
			"entryFee":  formatAmount(c.EntryFee),
		},
	}
}

// NewEntryPaidEvent returns the canonical payload emitted when a player pays
// the entry fee for one game.
func NewEntryPaidEvent(c *Competition, player [20]byte) *types.Event {
	if c == nil {
		return nil
	}
	return &types.Event{
		Type: EventTypeContestEntryPaid,
		Attributes: map[string]string{
			"sessionId": strconv.FormatUint(c.SessionID, 10),
			"player":    formatAddress(player),
			"entryFee":  formatAmount(c.EntryFee),
			"prizePool": formatAmount(c.PrizePool),
		},
	}
}

// NewScoreSubmittedEvent returns the canonical payload emitted when a score is
// applied to the leaderboard.
func NewScoreSubmittedEvent(c *Competition, player [20]byte, score uint64) *types.Event {
	if c == nil {
		return nil
	}
	return &types.Event{
		Type: EventTypeContestScoreSubmitted,
		Attributes: map[string]string{
			"sessionId": strconv.FormatUint(c.SessionID, 10),
			"player":    formatAddress(player),
			"score":     strconv.FormatUint(score, 10),
		},
	}
}

// NewPlayedEvent returns the canonical payload for the combined pay-and-play
// call.
func NewPlayedEvent(c *Competition, player [20]byte, score uint64) *types.Event {
	if c == nil {
		return nil
	}
	return &types.Event{
		Type: EventTypeContestPlayed,
		Attributes: map[string]string{
			"sessionId": strconv.FormatUint(c.SessionID, 10),
			"player":    formatAddress(player),
			"score":     strconv.FormatUint(score, 10),
			"prizePool": formatAmount(c.PrizePool),
		},
	}
}

// NewFeeUpdatedEvent returns the canonical payload emitted when the admin
// updates the entry fee mid-round.
func NewFeeUpdatedEvent(c *Competition) *types.Event {
	if c == nil {
		return nil
	}
	return &types.Event{
		Type: EventTypeContestFeeUpdated,
		Attributes: map[string]string{
			"sessionId": strconv.FormatUint(c.SessionID, 10),
			"entryFee":  formatAmount(c.EntryFee),
		},
	}
}

// NewEndedEvent returns the canonical payload emitted when a round settles,
// including the undistributed dust left in custody.
func NewEndedEvent(c *Competition, s *Settlement) *types.Event {
	if c == nil || s == nil {
		return nil
	}
	return &types.Event{
		Type: EventTypeContestEnded,
		Attributes: map[string]string{
			"sessionId": strconv.FormatUint(c.SessionID, 10),
			"prizePool": formatAmount(s.PrizePool),
			"adminFee":  formatAmount(s.AdminFee),
			"winners":   strconv.Itoa(len(s.Payouts)),
			"remainder": formatAmount(s.Remainder),
		},
	}
}
