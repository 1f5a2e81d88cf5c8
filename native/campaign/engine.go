package campaign

import (
	"context"
	"math/big"
	"time"

	"fundchain/core/events"
	"fundchain/core/types"
	"fundchain/native/settlement"
)

type engineState interface {
	CampaignGet() (*Campaign, bool, error)
	CampaignPut(*Campaign) error
	DonationGet(addr [20]byte) (*big.Int, error)
	DonationPut(addr [20]byte, amount *big.Int) error
	RaisedGet() (*big.Int, error)
	RaisedPut(amount *big.Int) error
}

// ledgerStore adapts the engine state to the settlement ledger so the running
// total and the per-donor book always move together.
type ledgerStore struct {
	state engineState
}

func (s ledgerStore) BalanceGet(addr [20]byte) (*big.Int, error) { return s.state.DonationGet(addr) }
func (s ledgerStore) BalancePut(addr [20]byte, amount *big.Int) error {
	return s.state.DonationPut(addr, amount)
}
func (s ledgerStore) TotalGet() (*big.Int, error)    { return s.state.RaisedGet() }
func (s ledgerStore) TotalPut(amount *big.Int) error { return s.state.RaisedPut(amount) }

type campaignEvent struct {
	evt *types.Event
}

func (e campaignEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e campaignEvent) Event() *types.Event { return e.evt }

// Engine wires the campaign settlement logic with the external collaborators:
// durable state, the token transfer primitive, caller authentication and the
// clock. Every entry point validates all preconditions before mutating any
// state, and the external transfer is attempted before the ledger moves, so a
// failed call is a true no-op.
type Engine struct {
	state    engineState
	transfer settlement.TokenTransferrer
	auth     settlement.Authenticator
	emitter  events.Emitter
	vault    [20]byte
	nowFn    func() int64
}

// NewEngine creates a campaign engine with a no-op emitter and the
// context-backed authenticator. Callers configure state, transfer and vault
// before use.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		auth:    settlement.ContextAuthenticator{},
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

// SetVault configures the address holding campaign custody.
func (e *Engine) SetVault(addr [20]byte) { e.vault = addr }

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
	e.emitter.Emit(campaignEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) ledger() *settlement.Ledger {
	return settlement.NewLedger(ledgerStore{state: e.state})
}

// Initialize creates the campaign record. The call must be authenticated as
// the owner, may only run once, and fixes goal, deadline and settlement token
// for the lifetime of the campaign.
func (e *Engine) Initialize(ctx context.Context, owner [20]byte, goal *big.Int, deadline int64, token string) (*Campaign, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := e.auth.RequireCaller(ctx, owner); err != nil {
		return nil, err
	}
	if _, exists, err := e.state.CampaignGet(); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrAlreadyInitialized
	}
	if goal == nil || goal.Sign() <= 0 {
		return nil, ErrInvalidGoal
	}
	normalized, err := settlement.NormalizeToken(token)
	if err != nil {
		return nil, err
	}
	camp := &Campaign{
		Owner:     owner,
		Token:     normalized,
		Goal:      new(big.Int).Set(goal),
		Deadline:  deadline,
		CreatedAt: e.now(),
	}
	if err := e.state.CampaignPut(camp); err != nil {
		return nil, err
	}
	if err := e.state.RaisedPut(big.NewInt(0)); err != nil {
		return nil, err
	}
	e.emit(NewInitializedEvent(camp))
	return camp.Clone(), nil
}

// Donate moves amount from the donor into campaign custody and credits the
// donor's ledger entry. Donations are accepted while the deadline window is
// open; at now == deadline the donation still succeeds.
func (e *Engine) Donate(ctx context.Context, donor [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := e.auth.RequireCaller(ctx, donor); err != nil {
		return err
	}
	camp, exists, err := e.state.CampaignGet()
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotInitialized
	}
	if settlement.Closed(e.now(), camp.Deadline) {
		return ErrCampaignEnded
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := e.transfer.Transfer(donor, e.vault, camp.Token, amount); err != nil {
		return err
	}
	if err := e.ledger().Credit(donor, amount); err != nil {
		return err
	}
	total, err := e.state.RaisedGet()
	if err != nil {
		return err
	}
	e.emit(NewDonatedEvent(camp, donor, amount, total))
	return nil
}

// Refund returns the donor's full contribution once the campaign has closed
// short of its goal. The ledger entry is debited to zero in the same step as
// the transfer back, so a second refund attempt finds nothing to settle.
func (e *Engine) Refund(ctx context.Context, donor [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := e.auth.RequireCaller(ctx, donor); err != nil {
		return nil, err
	}
	camp, exists, err := e.state.CampaignGet()
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotInitialized
	}
	if settlement.Open(e.now(), camp.Deadline) {
		return nil, ErrCampaignNotEnded
	}
	raised, err := e.state.RaisedGet()
	if err != nil {
		return nil, err
	}
	if raised != nil && camp.Goal != nil && raised.Cmp(camp.Goal) >= 0 {
		return nil, ErrGoalReached
	}
	ledger := e.ledger()
	balance, err := ledger.Balance(donor)
	if err != nil {
		return nil, err
	}
	if balance.Sign() <= 0 {
		return nil, ErrNoDonationFound
	}
	if err := e.transfer.Transfer(e.vault, donor, camp.Token, balance); err != nil {
		return nil, err
	}
	refunded, err := ledger.DebitToZero(donor)
	if err != nil {
		return nil, err
	}
	e.emit(NewRefundedEvent(camp, donor, refunded))
	return refunded, nil
}

// TotalRaised reports the running sum of all active contributions. It reads
// zero before initialization and never fails on absent state.
func (e *Engine) TotalRaised() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.state.RaisedGet()
}

// Donation reports the donor's active contribution, zero for unknown donors.
func (e *Engine) Donation(addr [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.state.DonationGet(addr)
}

// Goal reports the funding target, zero before initialization.
func (e *Engine) Goal() (*big.Int, error) {
	camp, exists, err := e.campaign()
	if err != nil {
		return nil, err
	}
	if !exists {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(camp.Goal), nil
}

// Deadline reports the campaign deadline, zero before initialization.
func (e *Engine) Deadline() (int64, error) {
	camp, exists, err := e.campaign()
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	return camp.Deadline, nil
}

// IsInitialized reports whether the one-way initialization flag is set.
func (e *Engine) IsInitialized() (bool, error) {
	_, exists, err := e.campaign()
	return exists, err
}

// IsGoalReached reports whether the running total has met the goal. It reads
// false before initialization.
func (e *Engine) IsGoalReached() (bool, error) {
	camp, exists, err := e.campaign()
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	raised, err := e.state.RaisedGet()
	if err != nil {
		return false, err
	}
	return raised.Cmp(camp.Goal) >= 0, nil
}

// IsEnded reports whether the deadline window has closed. It reads false
// before initialization.
func (e *Engine) IsEnded() (bool, error) {
	camp, exists, err := e.campaign()
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	return settlement.Closed(e.now(), camp.Deadline), nil
}

// ProgressPercentage reports (raised * 100) / goal with truncating division.
// A zero goal reads as zero progress; once the goal is exceeded the value is
// unbounded above 100.
func (e *Engine) ProgressPercentage() (*big.Int, error) {
	camp, exists, err := e.campaign()
	if err != nil {
		return nil, err
	}
	if !exists || camp.Goal.Sign() == 0 {
		return big.NewInt(0), nil
	}
	raised, err := e.state.RaisedGet()
	if err != nil {
		return nil, err
	}
	progress := new(big.Int).Mul(raised, big.NewInt(100))
	return progress.Div(progress, camp.Goal), nil
}

func (e *Engine) campaign() (*Campaign, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, ErrNilState
	}
	return e.state.CampaignGet()
}
