package rpc

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"fundchain/native/contest"
)

const jsonRPCVersion = "2.0"

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codePrecondition   = -32030
	codeInsufficient   = -32031
)

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// parseAddress decodes a 0x-prefixed 20-byte hex address.
func parseAddress(value string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimSpace(value)
	trimmed = strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	if len(trimmed) != 40 {
		return addr, fmt.Errorf("address must be 20 hex-encoded bytes")
	}
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("invalid address encoding: %w", err)
	}
	copy(addr[:], decoded)
	return addr, nil
}

func formatAddress(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

// parsePositiveBigInt decodes a decimal amount string that must be strictly
// positive.
func parsePositiveBigInt(value string) (*big.Int, error) {
	amount, err := parseBigInt(value)
	if err != nil {
		return nil, err
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	return amount, nil
}

func parseBigInt(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal amount %q", value)
	}
	return amount, nil
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

type playerScoreJSON struct {
	Player     string `json:"player"`
	TotalGames uint32 `json:"totalGames"`
	TotalScore uint64 `json:"totalScore"`
	Rank       uint32 `json:"rank"`
}

func formatLeaderboard(rows []contest.PlayerScore) []playerScoreJSON {
	out := make([]playerScoreJSON, 0, len(rows))
	for _, row := range rows {
		out = append(out, playerScoreJSON{
			Player:     formatAddress(row.Player),
			TotalGames: row.TotalGames,
			TotalScore: row.TotalScore,
			Rank:       row.Rank,
		})
	}
	return out
}

type competitionJSON struct {
	SessionID    uint64 `json:"sessionId"`
	EntryFee     string `json:"entryFee"`
	Deadline     int64  `json:"deadline"`
	Status       string `json:"status"`
	PrizePool    string `json:"prizePool"`
	TotalPlayers uint32 `json:"totalPlayers"`
}

func formatCompetition(c *contest.Competition) *competitionJSON {
	if c == nil {
		return nil
	}
	return &competitionJSON{
		SessionID:    c.SessionID,
		EntryFee:     formatAmount(c.EntryFee),
		Deadline:     c.Deadline,
		Status:       c.Status.String(),
		PrizePool:    formatAmount(c.PrizePool),
		TotalPlayers: c.TotalPlayers,
	}
}

type payoutJSON struct {
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
	Rank      uint32 `json:"rank"`
}

type settlementJSON struct {
	SessionID uint64       `json:"sessionId"`
	PrizePool string       `json:"prizePool"`
	AdminFee  string       `json:"adminFee"`
	Payouts   []payoutJSON `json:"payouts"`
	Remainder string       `json:"remainder"`
}

func formatSettlement(s *contest.Settlement) *settlementJSON {
	if s == nil {
		return nil
	}
	payouts := make([]payoutJSON, 0, len(s.Payouts))
	for _, payout := range s.Payouts {
		payouts = append(payouts, payoutJSON{
			Recipient: formatAddress(payout.Recipient),
			Amount:    formatAmount(payout.Amount),
			Rank:      payout.Rank,
		})
	}
	return &settlementJSON{
		SessionID: s.SessionID,
		PrizePool: formatAmount(s.PrizePool),
		AdminFee:  formatAmount(s.AdminFee),
		Payouts:   payouts,
		Remainder: formatAmount(s.Remainder),
	}
}
