package state

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"fundchain/native/campaign"
	"fundchain/native/contest"
	"fundchain/native/settlement"
	"fundchain/storage"
)

var (
	ErrNilDatabase         = errors.New("state: database not configured")
	ErrInsufficientBalance = errors.New("state: insufficient balance")
)

var (
	campaignRecordKey = ethcrypto.Keccak256([]byte("campaign:record"))
	campaignRaisedKey = ethcrypto.Keccak256([]byte("campaign:raised"))
	contestConfigKey  = ethcrypto.Keccak256([]byte("contest:config"))
	competitionKey    = ethcrypto.Keccak256([]byte("contest:competition"))

	genesisMarkerKey = ethcrypto.Keccak256([]byte("genesis:applied"))

	donationPrefix    = []byte("campaign:donation:")
	leaderboardPrefix = []byte("contest:leaderboard:")
	entryPaidPrefix   = []byte("contest:paid:")
	feeCreditPrefix   = []byte("contest:fees:")
	balancePrefix     = []byte("balance:")
	vaultPrefix       = []byte("fundchain/module-vault/")
)

func donationKey(addr [20]byte) []byte {
	buf := make([]byte, len(donationPrefix)+len(addr))
	copy(buf, donationPrefix)
	copy(buf[len(donationPrefix):], addr[:])
	return ethcrypto.Keccak256(buf)
}

func sessionKey(prefix []byte, session uint64) []byte {
	buf := make([]byte, len(prefix)+8)
	copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[len(prefix):], session)
	return buf
}

func leaderboardKey(session uint64) []byte {
	return ethcrypto.Keccak256(sessionKey(leaderboardPrefix, session))
}

func sessionAddrKey(prefix []byte, session uint64, addr [20]byte) []byte {
	buf := make([]byte, len(prefix)+8+len(addr))
	copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[len(prefix):], session)
	copy(buf[len(prefix)+8:], addr[:])
	return ethcrypto.Keccak256(buf)
}

func balanceKey(addr [20]byte, token string) []byte {
	buf := make([]byte, len(balancePrefix)+len(token)+1+len(addr))
	copy(buf, balancePrefix)
	copy(buf[len(balancePrefix):], token)
	buf[len(balancePrefix)+len(token)] = ':'
	copy(buf[len(balancePrefix)+len(token)+1:], addr[:])
	return ethcrypto.Keccak256(buf)
}

// Manager persists contract state and account balances in the key-value
// store. It implements the state interfaces of the campaign and contest
// engines as well as the token transfer collaborator, so one manager can back
// a whole deployment.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

var _ settlement.TokenTransferrer = (*Manager)(nil)

func (m *Manager) getAmount(key []byte) (*big.Int, error) {
	if m == nil || m.db == nil {
		return nil, ErrNilDatabase
	}
	data, err := m.db.Get(key)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return big.NewInt(0), nil
	}
	amount := new(big.Int)
	if err := rlp.DecodeBytes(data, amount); err != nil {
		return nil, err
	}
	return amount, nil
}

func (m *Manager) putAmount(key []byte, amount *big.Int) error {
	if m == nil || m.db == nil {
		return ErrNilDatabase
	}
	if amount == nil {
		amount = big.NewInt(0)
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("state: negative amount")
	}
	encoded, err := rlp.EncodeToBytes(amount)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

// --- Token balances (transfer collaborator) ---

// BalanceOf reports the account balance for the given token, zero for unknown
// accounts.
func (m *Manager) BalanceOf(addr [20]byte, token string) (*big.Int, error) {
	normalized, err := settlement.NormalizeToken(token)
	if err != nil {
		return nil, err
	}
	return m.getAmount(balanceKey(addr, normalized))
}

// Mint credits new supply to the account. Intended for genesis allocations
// and tests.
func (m *Manager) Mint(addr [20]byte, token string, amount *big.Int) error {
	normalized, err := settlement.NormalizeToken(token)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: mint amount must not be negative")
	}
	balance, err := m.getAmount(balanceKey(addr, normalized))
	if err != nil {
		return err
	}
	return m.putAmount(balanceKey(addr, normalized), new(big.Int).Add(balance, amount))
}

// Transfer moves amount between two accounts atomically. The source must hold
// at least the amount; a zero amount is a no-op.
func (m *Manager) Transfer(from, to [20]byte, token string, amount *big.Int) error {
	normalized, err := settlement.NormalizeToken(token)
	if err != nil {
		return err
	}
	if amount == nil {
		return nil
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("state: negative transfer amount")
	}
	if amount.Sign() == 0 {
		return nil
	}
	fromBalance, err := m.getAmount(balanceKey(from, normalized))
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	toBalance, err := m.getAmount(balanceKey(to, normalized))
	if err != nil {
		return err
	}
	if err := m.putAmount(balanceKey(from, normalized), new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	return m.putAmount(balanceKey(to, normalized), new(big.Int).Add(toBalance, amount))
}

// GenesisApplied reports whether the initial allocations were already minted
// into this database.
func (m *Manager) GenesisApplied() (bool, error) {
	if m == nil || m.db == nil {
		return false, ErrNilDatabase
	}
	data, err := m.db.Get(genesisMarkerKey)
	if err != nil {
		return false, err
	}
	return len(data) == 1 && data[0] == 1, nil
}

// MarkGenesisApplied records that the initial allocations were minted so a
// restart does not mint them again.
func (m *Manager) MarkGenesisApplied() error {
	if m == nil || m.db == nil {
		return ErrNilDatabase
	}
	return m.db.Put(genesisMarkerKey, []byte{1})
}

// ModuleVaultAddress derives the deterministic custody address for a module.
func ModuleVaultAddress(module string) [20]byte {
	hash := ethcrypto.Keccak256(append(append([]byte(nil), vaultPrefix...), module...))
	var addr [20]byte
	copy(addr[:], hash[12:])
	return addr
}

// --- Campaign state ---

type storedCampaign struct {
	Owner     [20]byte
	Token     string
	Goal      *big.Int
	Deadline  uint64
	CreatedAt uint64
}

// CampaignGet loads the campaign record, reporting absence before
// initialization.
func (m *Manager) CampaignGet() (*campaign.Campaign, bool, error) {
	if m == nil || m.db == nil {
		return nil, false, ErrNilDatabase
	}
	data, err := m.db.Get(campaignRecordKey)
	if err != nil {
		return nil, false, err
	}
	if len(data) == 0 {
		return nil, false, nil
	}
	var stored storedCampaign
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, false, err
	}
	return &campaign.Campaign{
		Owner:     stored.Owner,
		Token:     stored.Token,
		Goal:      stored.Goal,
		Deadline:  int64(stored.Deadline),
		CreatedAt: int64(stored.CreatedAt),
	}, true, nil
}

// CampaignPut persists the campaign record.
func (m *Manager) CampaignPut(c *campaign.Campaign) error {
	if m == nil || m.db == nil {
		return ErrNilDatabase
	}
	if c == nil {
		return fmt.Errorf("state: nil campaign")
	}
	goal := c.Goal
	if goal == nil {
		goal = big.NewInt(0)
	}
	encoded, err := rlp.EncodeToBytes(&storedCampaign{
		Owner:     c.Owner,
		Token:     c.Token,
		Goal:      goal,
		Deadline:  uint64(c.Deadline),
		CreatedAt: uint64(c.CreatedAt),
	})
	if err != nil {
		return err
	}
	return m.db.Put(campaignRecordKey, encoded)
}

// DonationGet reports a donor's active contribution, zero for unknown donors.
func (m *Manager) DonationGet(addr [20]byte) (*big.Int, error) {
	return m.getAmount(donationKey(addr))
}

// DonationPut persists a donor's contribution balance.
func (m *Manager) DonationPut(addr [20]byte, amount *big.Int) error {
	return m.putAmount(donationKey(addr), amount)
}

// RaisedGet reports the campaign's running total, zero before any donation.
func (m *Manager) RaisedGet() (*big.Int, error) {
	return m.getAmount(campaignRaisedKey)
}

// RaisedPut persists the campaign's running total.
func (m *Manager) RaisedPut(amount *big.Int) error {
	return m.putAmount(campaignRaisedKey, amount)
}

// --- Contest state ---

type storedContestConfig struct {
	Admin [20]byte
	Token string
}

type storedCompetition struct {
	SessionID    uint64
	Round        uint64
	EntryFee     *big.Int
	Deadline     uint64
	Status       uint8
	PrizePool    *big.Int
	TotalPlayers uint32
}

type storedPlayerScore struct {
	Player     [20]byte
	TotalGames uint32
	TotalScore uint64
	Rank       uint32
	FirstSeen  uint64
}

// ContestConfigGet loads the contest settings, reporting absence before
// initialization.
func (m *Manager) ContestConfigGet() (*contest.Config, bool, error) {
	if m == nil || m.db == nil {
		return nil, false, ErrNilDatabase
	}
	data, err := m.db.Get(contestConfigKey)
	if err != nil {
		return nil, false, err
	}
	if len(data) == 0 {
		return nil, false, nil
	}
	var stored storedContestConfig
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, false, err
	}
	return &contest.Config{Admin: stored.Admin, Token: stored.Token}, true, nil
}

// ContestConfigPut persists the contest settings.
func (m *Manager) ContestConfigPut(c *contest.Config) error {
	if m == nil || m.db == nil {
		return ErrNilDatabase
	}
	if c == nil {
		return fmt.Errorf("state: nil contest config")
	}
	encoded, err := rlp.EncodeToBytes(&storedContestConfig{Admin: c.Admin, Token: c.Token})
	if err != nil {
		return err
	}
	return m.db.Put(contestConfigKey, encoded)
}

// CompetitionGet loads the current round record, reporting absence before the
// first creation.
func (m *Manager) CompetitionGet() (*contest.Competition, bool, error) {
	if m == nil || m.db == nil {
		return nil, false, ErrNilDatabase
	}
	data, err := m.db.Get(competitionKey)
	if err != nil {
		return nil, false, err
	}
	if len(data) == 0 {
		return nil, false, nil
	}
	var stored storedCompetition
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, false, err
	}
	return &contest.Competition{
		SessionID:    stored.SessionID,
		Round:        stored.Round,
		EntryFee:     stored.EntryFee,
		Deadline:     int64(stored.Deadline),
		Status:       contest.CompetitionStatus(stored.Status),
		PrizePool:    stored.PrizePool,
		TotalPlayers: stored.TotalPlayers,
	}, true, nil
}

// CompetitionPut persists the current round record.
func (m *Manager) CompetitionPut(c *contest.Competition) error {
	if m == nil || m.db == nil {
		return ErrNilDatabase
	}
	if c == nil {
		return fmt.Errorf("state: nil competition")
	}
	if !c.Status.Valid() {
		return fmt.Errorf("state: invalid competition status: %d", c.Status)
	}
	entryFee := c.EntryFee
	if entryFee == nil {
		entryFee = big.NewInt(0)
	}
	prizePool := c.PrizePool
	if prizePool == nil {
		prizePool = big.NewInt(0)
	}
	encoded, err := rlp.EncodeToBytes(&storedCompetition{
		SessionID:    c.SessionID,
		Round:        c.Round,
		EntryFee:     entryFee,
		Deadline:     uint64(c.Deadline),
		Status:       uint8(c.Status),
		PrizePool:    prizePool,
		TotalPlayers: c.TotalPlayers,
	})
	if err != nil {
		return err
	}
	return m.db.Put(competitionKey, encoded)
}

// LeaderboardGet loads the ranked rows for a session, empty when none were
// stored.
func (m *Manager) LeaderboardGet(session uint64) ([]contest.PlayerScore, error) {
	if m == nil || m.db == nil {
		return nil, ErrNilDatabase
	}
	data, err := m.db.Get(leaderboardKey(session))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var stored []storedPlayerScore
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, err
	}
	rows := make([]contest.PlayerScore, 0, len(stored))
	for _, row := range stored {
		rows = append(rows, contest.PlayerScore{
			Player:     row.Player,
			TotalGames: row.TotalGames,
			TotalScore: row.TotalScore,
			Rank:       row.Rank,
			FirstSeen:  row.FirstSeen,
		})
	}
	return rows, nil
}

// LeaderboardPut persists the ranked rows for a session.
func (m *Manager) LeaderboardPut(session uint64, rows []contest.PlayerScore) error {
	if m == nil || m.db == nil {
		return ErrNilDatabase
	}
	stored := make([]storedPlayerScore, 0, len(rows))
	for _, row := range rows {
		stored = append(stored, storedPlayerScore{
			Player:     row.Player,
			TotalGames: row.TotalGames,
			TotalScore: row.TotalScore,
			Rank:       row.Rank,
			FirstSeen:  row.FirstSeen,
		})
	}
	encoded, err := rlp.EncodeToBytes(stored)
	if err != nil {
		return err
	}
	return m.db.Put(leaderboardKey(session), encoded)
}

// EntryPaidGet reports whether the player holds an unspent entitlement for the
// session.
func (m *Manager) EntryPaidGet(session uint64, player [20]byte) (bool, error) {
	if m == nil || m.db == nil {
		return false, ErrNilDatabase
	}
	data, err := m.db.Get(sessionAddrKey(entryPaidPrefix, session, player))
	if err != nil {
		return false, err
	}
	return len(data) == 1 && data[0] == 1, nil
}

// EntryPaidPut records or clears the player's entitlement for the session.
func (m *Manager) EntryPaidPut(session uint64, player [20]byte, paid bool) error {
	if m == nil || m.db == nil {
		return ErrNilDatabase
	}
	value := []byte{0}
	if paid {
		value = []byte{1}
	}
	return m.db.Put(sessionAddrKey(entryPaidPrefix, session, player), value)
}

// FeeCreditGet reports the entry fees the player contributed to the session's
// pool.
func (m *Manager) FeeCreditGet(session uint64, player [20]byte) (*big.Int, error) {
	return m.getAmount(sessionAddrKey(feeCreditPrefix, session, player))
}

// FeeCreditPut persists the player's contributed entry fees for the session.
func (m *Manager) FeeCreditPut(session uint64, player [20]byte, amount *big.Int) error {
	return m.putAmount(sessionAddrKey(feeCreditPrefix, session, player), amount)
}
