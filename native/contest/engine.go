package contest

import (
	"context"
	"math/big"
	"time"

	"fundchain/core/events"
	"fundchain/core/types"
	"fundchain/native/settlement"
)

type engineState interface {
	ContestConfigGet() (*Config, bool, error)
	ContestConfigPut(*Config) error
	CompetitionGet() (*Competition, bool, error)
	CompetitionPut(*Competition) error
	LeaderboardGet(round uint64) ([]PlayerScore, error)
	LeaderboardPut(round uint64, rows []PlayerScore) error
	EntryPaidGet(round uint64, player [20]byte) (bool, error)
	EntryPaidPut(round uint64, player [20]byte, paid bool) error
	FeeCreditGet(round uint64, player [20]byte) (*big.Int, error)
	FeeCreditPut(round uint64, player [20]byte, amount *big.Int) error
}

// feeLedgerStore adapts the round fee book to the settlement ledger. The
// aggregate side maps onto the competition's prize pool, so collecting a fee
// moves the per-player credit and the pool in one invariant-preserving step.
// The competition record is persisted by the engine after the ledger mutates.
type feeLedgerStore struct {
	state engineState
	round uint64
	comp  *Competition
}

func (s feeLedgerStore) BalanceGet(addr [20]byte) (*big.Int, error) {
	return s.state.FeeCreditGet(s.round, addr)
}

func (s feeLedgerStore) BalancePut(addr [20]byte, amount *big.Int) error {
	return s.state.FeeCreditPut(s.round, addr, amount)
}

func (s feeLedgerStore) TotalGet() (*big.Int, error) {
	if s.comp == nil || s.comp.PrizePool == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(s.comp.PrizePool), nil
}

func (s feeLedgerStore) TotalPut(amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	s.comp.PrizePool = new(big.Int).Set(amount)
	return nil
}

type contestEvent struct {
	evt *types.Event
}

func (e contestEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e contestEvent) Event() *types.Event { return e.evt }

// Engine wires the contest settlement logic with the external collaborators.
// One engine manages one competition record: rounds are created, played and
// settled strictly in sequence, and every entry point validates all
// preconditions before any state moves.
type Engine struct {
	state    engineState
	transfer settlement.TokenTransferrer
	auth     settlement.Authenticator
	emitter  events.Emitter
	vault    [20]byte
	profile  ProfileConfig
	nowFn    func() int64
}

// NewEngine creates a contest engine running the arcade profile with a no-op
// emitter and the context-backed authenticator.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		auth:    settlement.ContextAuthenticator{},
		profile: ArcadeProfile(),
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetTransferrer configures the token transfer collaborator.
func (e *Engine) SetTransferrer(transfer settlement.TokenTransferrer) { e.transfer = transfer }

// SetAuthenticator overrides the caller authentication collaborator. Passing
// nil resets it to the context-backed implementation.
func (e *Engine) SetAuthenticator(auth settlement.Authenticator) {
	if auth == nil {
		e.auth = settlement.ContextAuthenticator{}
		return
	}
	e.auth = auth
}

// SetVault configures the address holding contest custody.
func (e *Engine) SetVault(addr [20]byte) { e.vault = addr }

// SetProfile selects the deployment profile. It must be called before any
// round is created; switching profiles mid-round is not supported.
func (e *Engine) SetProfile(profile ProfileConfig) { e.profile = profile }

// Profile returns the active deployment profile.
func (e *Engine) Profile() ProfileConfig { return e.profile }

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(contestEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) feeLedger(comp *Competition) *settlement.Ledger {
	return settlement.NewLedger(feeLedgerStore{state: e.state, round: comp.Round, comp: comp})
}

// Initialize fixes the contract admin and settlement token. The call must be
// authenticated as the admin and may only run once.
func (e *Engine) Initialize(ctx context.Context, admin [20]byte, token string) (*Config, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := e.auth.RequireCaller(ctx, admin); err != nil {
		return nil, err
	}
	if _, exists, err := e.state.ContestConfigGet(); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrAlreadyInitialized
	}
	normalized, err := settlement.NormalizeToken(token)
	if err != nil {
		return nil, err
	}
	cfg := &Config{Admin: admin, Token: normalized}
	if err := e.state.ContestConfigPut(cfg); err != nil {
		return nil, err
	}
	return cfg.Clone(), nil
}

func (e *Engine) requireAdmin(ctx context.Context, admin [20]byte) (*Config, error) {
	cfg, exists, err := e.state.ContestConfigGet()
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotInitialized
	}
	if err := e.auth.RequireCaller(ctx, admin); err != nil {
		return nil, err
	}
	if admin != cfg.Admin {
		return nil, settlement.ErrUnauthorized
	}
	return cfg, nil
}

// activeCompetition loads the current round and checks it is still accepting
// play: the session must be Active and the deadline window open. At
// now == deadline the round is still open.
func (e *Engine) activeCompetition() (*Competition, error) {
	comp, exists, err := e.state.CompetitionGet()
	if err != nil {
		return nil, err
	}
	if !exists || comp.Status != StatusActive {
		return nil, ErrCompetitionNotActive
	}
	if settlement.Closed(e.now(), comp.Deadline) {
		return nil, ErrCompetitionEnded
	}
	return comp, nil
}

// CreateCompetition opens a new round. A round may only start when no session
// exists or the prior one has been claimed; a merely time-expired session must
// still be ended first.
func (e *Engine) CreateCompetition(ctx context.Context, admin [20]byte, sessionID uint64, deadline int64, entryFee *big.Int) (*Competition, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if _, err := e.requireAdmin(ctx, admin); err != nil {
		return nil, err
	}
	round := uint64(1)
	if existing, exists, err := e.state.CompetitionGet(); err != nil {
		return nil, err
	} else if exists {
		if existing.Status == StatusActive {
			return nil, ErrCompetitionAlreadyActive
		}
		round = existing.Round + 1
	}
	if deadline <= e.now() {
		return nil, ErrInvalidDeadline
	}
	if entryFee == nil || entryFee.Sign() <= 0 {
		return nil, ErrInvalidFee
	}
	comp := &Competition{
		SessionID:    sessionID,
		Round:        round,
		EntryFee:     new(big.Int).Set(entryFee),
		Deadline:     deadline,
		Status:       StatusActive,
		PrizePool:    big.NewInt(0),
		TotalPlayers: 0,
	}
	if err := e.state.CompetitionPut(comp); err != nil {
		return nil, err
	}
	if err := e.state.LeaderboardPut(round, nil); err != nil {
		return nil, err
	}
	e.emit(NewCreatedEvent(comp))
	return comp.Clone(), nil
}

// PayEntryFee collects the entry fee for one game. A player holding an unspent
// entitlement must submit a score before paying again.
func (e *Engine) PayEntryFee(ctx context.Context, player [20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := e.auth.RequireCaller(ctx, player); err != nil {
		return err
	}
	cfg, exists, err := e.state.ContestConfigGet()
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotInitialized
	}
	comp, err := e.activeCompetition()
	if err != nil {
		return err
	}
	paid, err := e.state.EntryPaidGet(comp.Round, player)
	if err != nil {
		return err
	}
	if paid {
		return ErrAlreadyPaid
	}
	if err := e.transfer.Transfer(player, e.vault, cfg.Token, comp.EntryFee); err != nil {
		return err
	}
	if err := e.feeLedger(comp).Credit(player, comp.EntryFee); err != nil {
		return err
	}
	if err := e.state.EntryPaidPut(comp.Round, player, true); err != nil {
		return err
	}
	if err := e.state.CompetitionPut(comp); err != nil {
		return err
	}
	e.emit(NewEntryPaidEvent(comp, player))
	return nil
}

// SubmitScore consumes the player's pending entitlement and applies the score
// to the leaderboard, re-ranking the full board. It returns the re-ranked
// rows.
func (e *Engine) SubmitScore(ctx context.Context, player [20]byte, score uint64) ([]PlayerScore, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := e.auth.RequireCaller(ctx, player); err != nil {
		return nil, err
	}
	comp, err := e.activeCompetition()
	if err != nil {
		return nil, err
	}
	paid, err := e.state.EntryPaidGet(comp.Round, player)
	if err != nil {
		return nil, err
	}
	if !paid {
		return nil, ErrPaymentRequired
	}
	ranked, err := e.applyScore(comp, player, score)
	if err != nil {
		return nil, err
	}
	// Consume the entitlement only after the score is durably recorded, so a
	// failed leaderboard write leaves the player free to resubmit.
	if err := e.state.EntryPaidPut(comp.Round, player, false); err != nil {
		return nil, err
	}
	e.emit(NewScoreSubmittedEvent(comp, player, score))
	return ranked, nil
}

// PlayRound pays the entry fee and submits the score in one atomic call. It
// is only available on profiles with combined play enabled, and requires any
// previously paid entitlement to be consumed through SubmitScore first.
func (e *Engine) PlayRound(ctx context.Context, player [20]byte, score uint64) ([]PlayerScore, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := e.auth.RequireCaller(ctx, player); err != nil {
		return nil, err
	}
	if !e.profile.CombinedPlay {
		return nil, ErrCombinedPlayDisabled
	}
	cfg, exists, err := e.state.ContestConfigGet()
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotInitialized
	}
	comp, err := e.activeCompetition()
	if err != nil {
		return nil, err
	}
	paid, err := e.state.EntryPaidGet(comp.Round, player)
	if err != nil {
		return nil, err
	}
	if paid {
		return nil, ErrAlreadyPaid
	}
	if err := e.transfer.Transfer(player, e.vault, cfg.Token, comp.EntryFee); err != nil {
		return nil, err
	}
	if err := e.feeLedger(comp).Credit(player, comp.EntryFee); err != nil {
		return nil, err
	}
	ranked, err := e.applyScore(comp, player, score)
	if err != nil {
		return nil, err
	}
	e.emit(NewPlayedEvent(comp, player, score))
	return ranked, nil
}

func (e *Engine) applyScore(comp *Competition, player [20]byte, score uint64) ([]PlayerScore, error) {
	rows, err := e.state.LeaderboardGet(comp.Round)
	if err != nil {
		return nil, err
	}
	rows, created := upsertScore(rows, player, score, uint64(comp.TotalPlayers))
	if created {
		comp.TotalPlayers++
	}
	ranked := rankLeaderboard(rows)
	if err := e.state.LeaderboardPut(comp.Round, ranked); err != nil {
		return nil, err
	}
	if err := e.state.CompetitionPut(comp); err != nil {
		return nil, err
	}
	return ranked, nil
}

// SetEntryFee updates the fee for the active round on profiles that allow it.
func (e *Engine) SetEntryFee(ctx context.Context, admin [20]byte, fee *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if _, err := e.requireAdmin(ctx, admin); err != nil {
		return err
	}
	if !e.profile.MutableEntryFee {
		return ErrFeeImmutable
	}
	comp, exists, err := e.state.CompetitionGet()
	if err != nil {
		return err
	}
	if !exists || comp.Status != StatusActive {
		return ErrCompetitionNotActive
	}
	if fee == nil || fee.Sign() <= 0 {
		return ErrInvalidFee
	}
	comp.EntryFee = new(big.Int).Set(fee)
	if err := e.state.CompetitionPut(comp); err != nil {
		return err
	}
	e.emit(NewFeeUpdatedEvent(comp))
	return nil
}

// EndCompetition settles the active round: the admin cut (when the profile
// takes one) and the tier shares of the top ranked players are transferred out
// of custody, the prize pool is reduced to the undistributed dust, and the
// session moves to Claimed. Profiles without early ending require the
// deadline to have passed.
func (e *Engine) EndCompetition(ctx context.Context, admin [20]byte) (*Settlement, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	cfg, err := e.requireAdmin(ctx, admin)
	if err != nil {
		return nil, err
	}
	comp, exists, err := e.state.CompetitionGet()
	if err != nil {
		return nil, err
	}
	if !exists || comp.Status != StatusActive {
		return nil, ErrCompetitionNotActive
	}
	if !e.profile.AllowEarlyEnd && settlement.Open(e.now(), comp.Deadline) {
		return nil, ErrCompetitionStillOpen
	}
	rows, err := e.state.LeaderboardGet(comp.Round)
	if err != nil {
		return nil, err
	}
	pool := new(big.Int).Set(comp.PrizePool)
	result := &Settlement{
		SessionID: comp.SessionID,
		PrizePool: pool,
		AdminFee:  big.NewInt(0),
		Remainder: new(big.Int).Set(pool),
	}
	if pool.Sign() > 0 && len(rows) > 0 {
		recipients := len(rows)
		if recipients > len(e.profile.TierBps) {
			recipients = len(e.profile.TierBps)
		}
		split, err := settlement.Split(pool, e.profile.AdminFeeBps, e.profile.TierBps, recipients)
		if err != nil {
			return nil, err
		}
		if split.AdminFee.Sign() > 0 {
			if err := e.transfer.Transfer(e.vault, cfg.Admin, cfg.Token, split.AdminFee); err != nil {
				return nil, err
			}
		}
		payouts := make([]Payout, 0, len(split.Shares))
		for i, share := range split.Shares {
			if share.Sign() <= 0 {
				continue
			}
			if err := e.transfer.Transfer(e.vault, rows[i].Player, cfg.Token, share); err != nil {
				return nil, err
			}
			payouts = append(payouts, Payout{
				Recipient: rows[i].Player,
				Amount:    new(big.Int).Set(share),
				Rank:      rows[i].Rank,
			})
		}
		result.AdminFee = split.AdminFee
		result.Payouts = payouts
		result.Remainder = split.Remainder
		comp.PrizePool = new(big.Int).Set(split.Remainder)
	}
	comp.Status = StatusClaimed
	if err := e.state.CompetitionPut(comp); err != nil {
		return nil, err
	}
	e.emit(NewEndedEvent(comp, result))
	return result, nil
}

// Competition returns the current or last-claimed round, reporting absence
// before the first creation.
func (e *Engine) Competition() (*Competition, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, ErrNilState
	}
	comp, exists, err := e.state.CompetitionGet()
	if err != nil || !exists {
		return nil, false, err
	}
	return comp.Clone(), true, nil
}

// Leaderboard returns the ranked rows of the current round, empty when no
// round exists.
func (e *Engine) Leaderboard() ([]PlayerScore, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	comp, exists, err := e.state.CompetitionGet()
	if err != nil || !exists {
		return nil, err
	}
	return e.state.LeaderboardGet(comp.Round)
}

// PlayerStats returns the leaderboard row for the given player, reporting
// absence when the player has not submitted this round.
func (e *Engine) PlayerStats(player [20]byte) (*PlayerScore, bool, error) {
	rows, err := e.Leaderboard()
	if err != nil {
		return nil, false, err
	}
	for i := range rows {
		if rows[i].Player == player {
			row := rows[i]
			return &row, true, nil
		}
	}
	return nil, false, nil
}

// EntryFee returns the fee of the current round, zero when no round exists.
func (e *Engine) EntryFee() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	comp, exists, err := e.state.CompetitionGet()
	if err != nil || !exists {
		return big.NewInt(0), err
	}
	return new(big.Int).Set(comp.EntryFee), nil
}

// Admin returns the configured admin, reporting absence before initialization.
func (e *Engine) Admin() ([20]byte, bool, error) {
	if e == nil || e.state == nil {
		return [20]byte{}, false, ErrNilState
	}
	cfg, exists, err := e.state.ContestConfigGet()
	if err != nil || !exists {
		return [20]byte{}, false, err
	}
	return cfg.Admin, true, nil
}

// HasPaid reports whether the player holds an unspent entitlement for the
// current round, false when no round exists.
func (e *Engine) HasPaid(player [20]byte) (bool, error) {
	if e == nil || e.state == nil {
		return false, ErrNilState
	}
	comp, exists, err := e.state.CompetitionGet()
	if err != nil || !exists {
		return false, err
	}
	return e.state.EntryPaidGet(comp.Round, player)
}

// PlayerFees reports the entry fees the player has contributed to the current
// round's prize pool, zero when no round exists.
func (e *Engine) PlayerFees(player [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	comp, exists, err := e.state.CompetitionGet()
	if err != nil || !exists {
		return big.NewInt(0), err
	}
	return e.state.FeeCreditGet(comp.Round, player)
}
