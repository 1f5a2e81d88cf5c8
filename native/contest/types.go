package contest

import "math/big"

// CompetitionStatus represents the lifecycle states of a contest session.
type CompetitionStatus uint8

const (
	StatusActive CompetitionStatus = iota + 1
	StatusClaimed
)

// Valid reports whether the status value is within the supported range.
func (s CompetitionStatus) Valid() bool {
	switch s {
	case StatusActive, StatusClaimed:
		return true
	default:
		return false
	}
}

// String returns the canonical lowercase name for the status.
func (s CompetitionStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusClaimed:
		return "claimed"
	default:
		return "unknown"
	}
}

// Config holds the immutable contract settings fixed at initialization: the
// admin allowed to manage rounds and the settlement asset.
type Config struct {
	Admin [20]byte
	Token string
}

// Clone returns a copy of the config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// Competition captures one contest round. PrizePool tracks the entry fees
// collected for the session minus the amounts already distributed at the end;
// after settlement only the truncation dust remains. Round is an internal
// nonce incremented on every creation and keys the per-round leaderboard,
// paid flags and fee credits, so an admin reusing a SessionID cannot
// resurrect a prior round's state.
type Competition struct {
	SessionID    uint64
	Round        uint64
	EntryFee     *big.Int
	Deadline     int64
	Status       CompetitionStatus
	PrizePool    *big.Int
	TotalPlayers uint32
}

// Clone returns a deep copy of the competition so callers can safely mutate
// the copy without affecting the stored instance.
func (c *Competition) Clone() *Competition {
	if c == nil {
		return nil
	}
	clone := *c
	if c.EntryFee != nil {
		clone.EntryFee = new(big.Int).Set(c.EntryFee)
	} else {
		clone.EntryFee = big.NewInt(0)
	}
	if c.PrizePool != nil {
		clone.PrizePool = new(big.Int).Set(c.PrizePool)
	} else {
		clone.PrizePool = big.NewInt(0)
	}
	return &clone
}

// PlayerScore is one leaderboard row. FirstSeen is the order in which the
// player first appeared this round and breaks score ties: the earlier entrant
// ranks higher.
type PlayerScore struct {
	Player     [20]byte
	TotalGames uint32
	TotalScore uint64
	Rank       uint32
	FirstSeen  uint64
}

// Payout records a single settlement transfer performed when a competition
// ends.
type Payout struct {
	Recipient [20]byte
	Amount    *big.Int
	Rank      uint32
}

// Settlement summarises the distribution performed by EndCompetition. The
// remainder is the truncation dust left in custody, never transferred.
type Settlement struct {
	SessionID uint64
	PrizePool *big.Int
	AdminFee  *big.Int
	Payouts   []Payout
	Remainder *big.Int
}
