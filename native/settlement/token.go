package settlement

import (
	"fmt"
	"math/big"
	"strings"
)

// TokenTransferrer moves the settlement asset between two parties atomically.
// A failed transfer aborts the whole call; the engines only mutate their own
// ledgers after the transfer collaborator confirms success.
type TokenTransferrer interface {
	Transfer(from, to [20]byte, token string, amount *big.Int) error
}

// NormalizeToken canonicalises a settlement token symbol to its uppercase form
// and rejects empty or malformed symbols.
func NormalizeToken(symbol string) (string, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(symbol))
	if trimmed == "" {
		return "", fmt.Errorf("settlement: token symbol required")
	}
	for _, r := range trimmed {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", fmt.Errorf("settlement: invalid token symbol %q", symbol)
		}
	}
	return trimmed, nil
}
