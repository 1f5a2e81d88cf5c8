package campaign

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"fundchain/core/types"
)

const (
	EventTypeCampaignInitialized = "campaign.initialized"
	EventTypeCampaignDonated     = "campaign.donated"
	EventTypeCampaignRefunded    = "campaign.refunded"
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

// NewInitializedEvent returns the canonical payload emitted when the campaign
// record is created.
func NewInitializedEvent(c *Campaign) *types.Event {
	if c == nil {
		return nil
	}
	return &types.Event{
		Type: EventTypeCampaignInitialized,
		Attributes: map[string]string{
			"owner":    formatAddress(c.Owner),
			"token":    c.Token,
			"goal":     formatAmount(c.Goal),
			"deadline": strconv.FormatInt(c.Deadline, 10),
		},
	}
}

// NewDonatedEvent returns the canonical payload emitted after a successful
// donation, including the post-donation running total.
func NewDonatedEvent(c *Campaign, donor [20]byte, amount, total *big.Int) *types.Event {
	if c == nil {
		return nil
	}
	return &types.Event{
		Type: EventTypeCampaignDonated,
		Attributes: map[string]string{
			"donor":       formatAddress(donor),
			"amount":      formatAmount(amount),
			"totalRaised": formatAmount(total),
		},
	}
}

// NewRefundedEvent returns the canonical payload emitted after a donor refund.
func NewRefundedEvent(c *Campaign, donor [20]byte, amount *big.Int) *types.Event {
	if c == nil {
		return nil
	}
	return &types.Event{
		Type: EventTypeCampaignRefunded,
		Attributes: map[string]string{
			"donor":  formatAddress(donor),
			"amount": formatAmount(amount),
		},
	}
}
