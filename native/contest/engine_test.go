package contest

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"fundchain/native/settlement"
)

type mockState struct {
	config             *Config
	competition        *Competition
	leaderboards       map[uint64][]PlayerScore
	paid               map[uint64]map[[20]byte]bool
	feeCredits         map[uint64]map[[20]byte]*big.Int
	failLeaderboardPut error
}

func newMockState() *mockState {
	return &mockState{
		leaderboards: make(map[uint64][]PlayerScore),
		paid:         make(map[uint64]map[[20]byte]bool),
		feeCredits:   make(map[uint64]map[[20]byte]*big.Int),
	}
}

func (m *mockState) ContestConfigGet() (*Config, bool, error) {
	if m.config == nil {
		return nil, false, nil
	}
	return m.config.Clone(), true, nil
}

func (m *mockState) ContestConfigPut(c *Config) error {
	m.config = c.Clone()
	return nil
}

func (m *mockState) CompetitionGet() (*Competition, bool, error) {
	if m.competition == nil {
		return nil, false, nil
	}
	return m.competition.Clone(), true, nil
}

func (m *mockState) CompetitionPut(c *Competition) error {
	m.competition = c.Clone()
	return nil
}

func (m *mockState) LeaderboardGet(session uint64) ([]PlayerScore, error) {
	rows := m.leaderboards[session]
	out := make([]PlayerScore, len(rows))
	copy(out, rows)
	return out, nil
}

func (m *mockState) LeaderboardPut(session uint64, rows []PlayerScore) error {
	if m.failLeaderboardPut != nil {
		err := m.failLeaderboardPut
		m.failLeaderboardPut = nil
		return err
	}
	out := make([]PlayerScore, len(rows))
	copy(out, rows)
	m.leaderboards[session] = out
	return nil
}

func (m *mockState) EntryPaidGet(session uint64, player [20]byte) (bool, error) {
	return m.paid[session][player], nil
}

func (m *mockState) EntryPaidPut(session uint64, player [20]byte, paid bool) error {
	if m.paid[session] == nil {
		m.paid[session] = make(map[[20]byte]bool)
	}
	m.paid[session][player] = paid
	return nil
}

func (m *mockState) FeeCreditGet(session uint64, player [20]byte) (*big.Int, error) {
	if credit, ok := m.feeCredits[session][player]; ok {
		return new(big.Int).Set(credit), nil
	}
	return big.NewInt(0), nil
}

func (m *mockState) FeeCreditPut(session uint64, player [20]byte, amount *big.Int) error {
	if m.feeCredits[session] == nil {
		m.feeCredits[session] = make(map[[20]byte]*big.Int)
	}
	m.feeCredits[session][player] = new(big.Int).Set(amount)
	return nil
}

type recordedTransfer struct {
	from, to [20]byte
	token    string
	amount   *big.Int
}

type mockTransferrer struct {
	transfers []recordedTransfer
	failNext  error
}

func (m *mockTransferrer) Transfer(from, to [20]byte, token string, amount *big.Int) error {
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	m.transfers = append(m.transfers, recordedTransfer{
		from:   from,
		to:     to,
		token:  token,
		amount: new(big.Int).Set(amount),
	})
	return nil
}

func (m *mockTransferrer) paidTo(addr [20]byte) *big.Int {
	total := big.NewInt(0)
	for _, tr := range m.transfers {
		if tr.to == addr {
			total.Add(total, tr.amount)
		}
	}
	return total
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	copy(addr[:], bytes.Repeat([]byte{fill}, 20))
	return addr
}

func callerCtx(addr [20]byte) context.Context {
	return settlement.WithCaller(context.Background(), addr)
}

const (
	testNow      = int64(1_700_000_000)
	testDeadline = testNow + 3600
)

var (
	testAdmin = newTestAddress(0xAD)
	testVault = newTestAddress(0xEE)
)

func newTestEngine(state *mockState, transfer *mockTransferrer, profile ProfileConfig) *Engine {
	engine := NewEngine()
	engine.SetState(state)
	engine.SetTransferrer(transfer)
	engine.SetVault(testVault)
	engine.SetProfile(profile)
	engine.SetNowFunc(func() int64 { return testNow })
	return engine
}

func initTestContest(t *testing.T, engine *Engine) {
	t.Helper()
	if _, err := engine.Initialize(callerCtx(testAdmin), testAdmin, "FUND"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
}

func createTestRound(t *testing.T, engine *Engine, session uint64, fee int64) {
	t.Helper()
	if _, err := engine.CreateCompetition(callerCtx(testAdmin), testAdmin, session, testDeadline, big.NewInt(fee)); err != nil {
		t.Fatalf("create competition: %v", err)
	}
}

func playGame(t *testing.T, engine *Engine, player [20]byte, score uint64) {
	t.Helper()
	if err := engine.PayEntryFee(callerCtx(player), player); err != nil {
		t.Fatalf("pay entry fee: %v", err)
	}
	if _, err := engine.SubmitScore(callerCtx(player), player, score); err != nil {
		t.Fatalf("submit score: %v", err)
	}
}

func TestInitializeOnce(t *testing.T) {
	engine := newTestEngine(newMockState(), &mockTransferrer{}, ArcadeProfile())
	initTestContest(t, engine)

	if _, err := engine.Initialize(callerCtx(testAdmin), testAdmin, "FUND"); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("second initialize = %v, want ErrAlreadyInitialized", err)
	}

	admin, exists, err := engine.Admin()
	if err != nil || !exists {
		t.Fatalf("admin query: exists=%v err=%v", exists, err)
	}
	if admin != testAdmin {
		t.Fatalf("admin = %x", admin)
	}
}

func TestCreateCompetitionValidations(t *testing.T) {
	stranger := newTestAddress(0x99)

	engine := newTestEngine(newMockState(), &mockTransferrer{}, ArcadeProfile())
	if _, err := engine.CreateCompetition(callerCtx(testAdmin), testAdmin, 1, testDeadline, big.NewInt(10)); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("create before init = %v, want ErrNotInitialized", err)
	}

	initTestContest(t, engine)
	cases := []struct {
		name     string
		ctx      context.Context
		admin    [20]byte
		deadline int64
		fee      *big.Int
		wantErr  error
	}{
		{"wrong admin", callerCtx(stranger), stranger, testDeadline, big.NewInt(10), settlement.ErrUnauthorized},
		{"deadline at now", callerCtx(testAdmin), testAdmin, testNow, big.NewInt(10), ErrInvalidDeadline},
		{"deadline past", callerCtx(testAdmin), testAdmin, testNow - 1, big.NewInt(10), ErrInvalidDeadline},
		{"nil fee", callerCtx(testAdmin), testAdmin, testDeadline, nil, ErrInvalidFee},
		{"zero fee", callerCtx(testAdmin), testAdmin, testDeadline, big.NewInt(0), ErrInvalidFee},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.CreateCompetition(tc.ctx, tc.admin, 1, tc.deadline, tc.fee)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}

	createTestRound(t, engine, 1, 100)
	if _, err := engine.CreateCompetition(callerCtx(testAdmin), testAdmin, 2, testDeadline, big.NewInt(100)); !errors.Is(err, ErrCompetitionAlreadyActive) {
		t.Fatalf("create while active = %v, want ErrCompetitionAlreadyActive", err)
	}
}

func TestExpiredRoundMustBeEndedBeforeNext(t *testing.T) {
	engine := newTestEngine(newMockState(), &mockTransferrer{}, ArcadeProfile())
	initTestContest(t, engine)
	createTestRound(t, engine, 1, 100)

	engine.SetNowFunc(func() int64 { return testDeadline + 1 })
	player := newTestAddress(0x01)
	if err := engine.PayEntryFee(callerCtx(player), player); !errors.Is(err, ErrCompetitionEnded) {
		t.Fatalf("pay on expired round = %v, want ErrCompetitionEnded", err)
	}
	if _, err := engine.CreateCompetition(callerCtx(testAdmin), testAdmin, 2, testDeadline+7200, big.NewInt(100)); !errors.Is(err, ErrCompetitionAlreadyActive) {
		t.Fatalf("create over expired round = %v, want ErrCompetitionAlreadyActive", err)
	}
}

func TestPaySubmitAlternation(t *testing.T) {
	state := newMockState()
	transfer := &mockTransferrer{}
	engine := newTestEngine(state, transfer, ArcadeProfile())
	initTestContest(t, engine)
	createTestRound(t, engine, 1, 100)
	player := newTestAddress(0x01)

	if _, err := engine.SubmitScore(callerCtx(player), player, 10); !errors.Is(err, ErrPaymentRequired) {
		t.Fatalf("submit before pay = %v, want ErrPaymentRequired", err)
	}

	if err := engine.PayEntryFee(callerCtx(player), player); err != nil {
		t.Fatalf("pay: %v", err)
	}
	if err := engine.PayEntryFee(callerCtx(player), player); !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("double pay = %v, want ErrAlreadyPaid", err)
	}

	if _, err := engine.SubmitScore(callerCtx(player), player, 10); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := engine.SubmitScore(callerCtx(player), player, 20); !errors.Is(err, ErrPaymentRequired) {
		t.Fatalf("double submit = %v, want ErrPaymentRequired", err)
	}

	// Paying again reopens the cycle.
	if err := engine.PayEntryFee(callerCtx(player), player); err != nil {
		t.Fatalf("pay second game: %v", err)
	}

	comp, exists, err := engine.Competition()
	if err != nil || !exists {
		t.Fatalf("competition: exists=%v err=%v", exists, err)
	}
	if comp.PrizePool.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("prize pool = %s, want 200", comp.PrizePool)
	}
	fees, err := engine.PlayerFees(player)
	if err != nil {
		t.Fatalf("player fees: %v", err)
	}
	if fees.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("player fees = %s, want 200", fees)
	}
}

func TestLeaderboardRanking(t *testing.T) {
	engine := newTestEngine(newMockState(), &mockTransferrer{}, ArcadeProfile())
	initTestContest(t, engine)
	createTestRound(t, engine, 1, 100)

	alice := newTestAddress(0x01)
	bob := newTestAddress(0x02)
	carol := newTestAddress(0x03)

	playGame(t, engine, alice, 10)
	playGame(t, engine, bob, 30)
	playGame(t, engine, carol, 20)

	rows, err := engine.Leaderboard()
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	wantOrder := [][20]byte{bob, carol, alice}
	if len(rows) != len(wantOrder) {
		t.Fatalf("rows = %d, want %d", len(rows), len(wantOrder))
	}
	for i, want := range wantOrder {
		if rows[i].Player != want {
			t.Fatalf("rank %d player = %x, want %x", i+1, rows[i].Player, want)
		}
		if rows[i].Rank != uint32(i+1) {
			t.Fatalf("rank = %d, want %d", rows[i].Rank, i+1)
		}
	}

	// A second game accumulates and moves alice to the top.
	playGame(t, engine, alice, 25)
	stats, exists, err := engine.PlayerStats(alice)
	if err != nil || !exists {
		t.Fatalf("player stats: exists=%v err=%v", exists, err)
	}
	if stats.TotalScore != 35 || stats.TotalGames != 2 || stats.Rank != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestLeaderboardTieBreaksOnEntryOrder(t *testing.T) {
	engine := newTestEngine(newMockState(), &mockTransferrer{}, ArcadeProfile())
	initTestContest(t, engine)
	createTestRound(t, engine, 1, 100)

	alice := newTestAddress(0x01)
	bob := newTestAddress(0x02)

	playGame(t, engine, alice, 50)
	playGame(t, engine, bob, 50)

	rows, err := engine.Leaderboard()
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if rows[0].Player != alice || rows[1].Player != bob {
		t.Fatalf("tie did not favour earlier entrant: %x first", rows[0].Player)
	}
}

func TestEndCompetitionArcadePayouts(t *testing.T) {
	state := newMockState()
	transfer := &mockTransferrer{}
	engine := newTestEngine(state, transfer, ArcadeProfile())
	initTestContest(t, engine)
	createTestRound(t, engine, 1, 100)

	alice := newTestAddress(0x01)
	bob := newTestAddress(0x02)
	carol := newTestAddress(0x03)
	playGame(t, engine, alice, 10)
	playGame(t, engine, bob, 30)
	playGame(t, engine, carol, 20)

	result, err := engine.EndCompetition(callerCtx(testAdmin), testAdmin)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	// Pool 300: 10% admin fee, then 50/30/20 of the remaining 270.
	if result.AdminFee.Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("admin fee = %s, want 30", result.AdminFee)
	}
	wantPayouts := map[[20]byte]int64{bob: 135, carol: 81, alice: 54}
	if len(result.Payouts) != len(wantPayouts) {
		t.Fatalf("payouts = %d, want %d", len(result.Payouts), len(wantPayouts))
	}
	for _, payout := range result.Payouts {
		want, ok := wantPayouts[payout.Recipient]
		if !ok {
			t.Fatalf("unexpected recipient %x", payout.Recipient)
		}
		if payout.Amount.Cmp(big.NewInt(want)) != 0 {
			t.Fatalf("payout to %x = %s, want %d", payout.Recipient, payout.Amount, want)
		}
	}
	if result.Remainder.Sign() != 0 {
		t.Fatalf("remainder = %s, want 0", result.Remainder)
	}
	if transfer.paidTo(testAdmin).Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("admin received %s", transfer.paidTo(testAdmin))
	}
	if transfer.paidTo(bob).Cmp(big.NewInt(135)) != 0 {
		t.Fatalf("winner received %s", transfer.paidTo(bob))
	}

	comp, _, err := engine.Competition()
	if err != nil {
		t.Fatalf("competition: %v", err)
	}
	if comp.Status != StatusClaimed {
		t.Fatalf("status = %v, want claimed", comp.Status)
	}
	if comp.PrizePool.Sign() != 0 {
		t.Fatalf("pool after settlement = %s, want 0", comp.PrizePool)
	}

	if _, err := engine.EndCompetition(callerCtx(testAdmin), testAdmin); !errors.Is(err, ErrCompetitionNotActive) {
		t.Fatalf("double end = %v, want ErrCompetitionNotActive", err)
	}
}

func TestEndCompetitionDustStaysInPool(t *testing.T) {
	state := newMockState()
	transfer := &mockTransferrer{}
	engine := newTestEngine(state, transfer, ArcadeProfile())
	initTestContest(t, engine)
	createTestRound(t, engine, 1, 101)

	alice := newTestAddress(0x01)
	bob := newTestAddress(0x02)
	carol := newTestAddress(0x03)
	playGame(t, engine, alice, 10)
	playGame(t, engine, bob, 30)
	playGame(t, engine, carol, 20)

	// Pool 303: admin fee 30, distributable 273, shares 136/81/54, dust 2.
	result, err := engine.EndCompetition(callerCtx(testAdmin), testAdmin)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if result.Remainder.Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("remainder = %s, want 2", result.Remainder)
	}
	total := new(big.Int).Set(result.AdminFee)
	for _, payout := range result.Payouts {
		total.Add(total, payout.Amount)
	}
	total.Add(total, result.Remainder)
	if total.Cmp(big.NewInt(303)) != 0 {
		t.Fatalf("settlement does not conserve pool: %s", total)
	}

	comp, _, err := engine.Competition()
	if err != nil {
		t.Fatalf("competition: %v", err)
	}
	if comp.PrizePool.Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("pool keeps dust = %s, want 2", comp.PrizePool)
	}
}

func TestEndCompetitionFewerPlayersThanTiers(t *testing.T) {
	engine := newTestEngine(newMockState(), &mockTransferrer{}, ArcadeProfile())
	initTestContest(t, engine)
	createTestRound(t, engine, 1, 100)

	alice := newTestAddress(0x01)
	playGame(t, engine, alice, 10)

	// Pool 100: admin fee 10, distributable 90, only the first tier pays.
	result, err := engine.EndCompetition(callerCtx(testAdmin), testAdmin)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if len(result.Payouts) != 1 {
		t.Fatalf("payouts = %d, want 1", len(result.Payouts))
	}
	if result.Payouts[0].Amount.Cmp(big.NewInt(45)) != 0 {
		t.Fatalf("payout = %s, want 45", result.Payouts[0].Amount)
	}
	if result.Remainder.Cmp(big.NewInt(45)) != 0 {
		t.Fatalf("remainder = %s, want 45", result.Remainder)
	}
}

func TestEndCompetitionEmptyRound(t *testing.T) {
	engine := newTestEngine(newMockState(), &mockTransferrer{}, ArcadeProfile())
	initTestContest(t, engine)
	createTestRound(t, engine, 1, 100)

	result, err := engine.EndCompetition(callerCtx(testAdmin), testAdmin)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if len(result.Payouts) != 0 || result.AdminFee.Sign() != 0 {
		t.Fatalf("empty round settled funds: %+v", result)
	}
	comp, _, err := engine.Competition()
	if err != nil {
		t.Fatalf("competition: %v", err)
	}
	if comp.Status != StatusClaimed {
		t.Fatalf("status = %v, want claimed", comp.Status)
	}
}

func TestLeagueProfileForbidsEarlyEnd(t *testing.T) {
	engine := newTestEngine(newMockState(), &mockTransferrer{}, LeagueProfile())
	initTestContest(t, engine)
	createTestRound(t, engine, 1, 100)

	if _, err := engine.EndCompetition(callerCtx(testAdmin), testAdmin); !errors.Is(err, ErrCompetitionStillOpen) {
		t.Fatalf("early end = %v, want ErrCompetitionStillOpen", err)
	}

	engine.SetNowFunc(func() int64 { return testDeadline + 1 })
	result, err := engine.EndCompetition(callerCtx(testAdmin), testAdmin)
	if err != nil {
		t.Fatalf("end after deadline: %v", err)
	}
	if result.AdminFee.Sign() != 0 {
		t.Fatalf("league profile took an admin fee: %s", result.AdminFee)
	}
}

func TestLeagueCombinedPlay(t *testing.T) {
	state := newMockState()
	transfer := &mockTransferrer{}
	engine := newTestEngine(state, transfer, LeagueProfile())
	initTestContest(t, engine)
	createTestRound(t, engine, 1, 100)
	player := newTestAddress(0x01)

	rows, err := engine.PlayRound(callerCtx(player), player, 40)
	if err != nil {
		t.Fatalf("play round: %v", err)
	}
	if len(rows) != 1 || rows[0].TotalScore != 40 {
		t.Fatalf("rows = %+v", rows)
	}
	comp, _, err := engine.Competition()
	if err != nil {
		t.Fatalf("competition: %v", err)
	}
	if comp.PrizePool.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("pool = %s, want 100", comp.PrizePool)
	}

	// A pending pay-only entitlement must be consumed through SubmitScore.
	if err := engine.PayEntryFee(callerCtx(player), player); err != nil {
		t.Fatalf("pay: %v", err)
	}
	if _, err := engine.PlayRound(callerCtx(player), player, 10); !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("play with pending entitlement = %v, want ErrAlreadyPaid", err)
	}
}

func TestArcadeProfileRestrictions(t *testing.T) {
	engine := newTestEngine(newMockState(), &mockTransferrer{}, ArcadeProfile())
	initTestContest(t, engine)
	createTestRound(t, engine, 1, 100)
	player := newTestAddress(0x01)

	if _, err := engine.PlayRound(callerCtx(player), player, 10); !errors.Is(err, ErrCombinedPlayDisabled) {
		t.Fatalf("play round on arcade = %v, want ErrCombinedPlayDisabled", err)
	}
	if err := engine.SetEntryFee(callerCtx(testAdmin), testAdmin, big.NewInt(200)); !errors.Is(err, ErrFeeImmutable) {
		t.Fatalf("set fee on arcade = %v, want ErrFeeImmutable", err)
	}
}

func TestLeagueMutableEntryFee(t *testing.T) {
	engine := newTestEngine(newMockState(), &mockTransferrer{}, LeagueProfile())
	initTestContest(t, engine)
	createTestRound(t, engine, 1, 100)

	if err := engine.SetEntryFee(callerCtx(testAdmin), testAdmin, big.NewInt(250)); err != nil {
		t.Fatalf("set fee: %v", err)
	}
	fee, err := engine.EntryFee()
	if err != nil {
		t.Fatalf("entry fee: %v", err)
	}
	if fee.Cmp(big.NewInt(250)) != 0 {
		t.Fatalf("fee = %s, want 250", fee)
	}
	if err := engine.SetEntryFee(callerCtx(testAdmin), testAdmin, big.NewInt(0)); !errors.Is(err, ErrInvalidFee) {
		t.Fatalf("zero fee = %v, want ErrInvalidFee", err)
	}
}

func TestNewRoundStartsFresh(t *testing.T) {
	engine := newTestEngine(newMockState(), &mockTransferrer{}, ArcadeProfile())
	initTestContest(t, engine)
	createTestRound(t, engine, 1, 100)

	alice := newTestAddress(0x01)
	playGame(t, engine, alice, 10)
	if _, err := engine.EndCompetition(callerCtx(testAdmin), testAdmin); err != nil {
		t.Fatalf("end: %v", err)
	}

	createTestRound(t, engine, 2, 100)
	rows, err := engine.Leaderboard()
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("new round inherited %d rows", len(rows))
	}
	paid, err := engine.HasPaid(alice)
	if err != nil {
		t.Fatalf("has paid: %v", err)
	}
	if paid {
		t.Fatalf("entitlement leaked across rounds")
	}
	fees, err := engine.PlayerFees(alice)
	if err != nil {
		t.Fatalf("player fees: %v", err)
	}
	if fees.Sign() != 0 {
		t.Fatalf("fee credits leaked across rounds: %s", fees)
	}
}

func TestReusedSessionIDStartsFresh(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state, &mockTransferrer{}, ArcadeProfile())
	initTestContest(t, engine)
	createTestRound(t, engine, 7, 100)

	// Leave an unspent entitlement behind when the round ends.
	alice := newTestAddress(0x01)
	if err := engine.PayEntryFee(callerCtx(alice), alice); err != nil {
		t.Fatalf("pay: %v", err)
	}
	if _, err := engine.EndCompetition(callerCtx(testAdmin), testAdmin); err != nil {
		t.Fatalf("end: %v", err)
	}

	createTestRound(t, engine, 7, 100)
	paid, err := engine.HasPaid(alice)
	if err != nil {
		t.Fatalf("has paid: %v", err)
	}
	if paid {
		t.Fatalf("reused session id resurrected an entitlement")
	}
	if _, err := engine.SubmitScore(callerCtx(alice), alice, 10); !errors.Is(err, ErrPaymentRequired) {
		t.Fatalf("submit without paying = %v, want ErrPaymentRequired", err)
	}
	fees, err := engine.PlayerFees(alice)
	if err != nil {
		t.Fatalf("player fees: %v", err)
	}
	if fees.Sign() != 0 {
		t.Fatalf("fee credits carried over: %s", fees)
	}
	comp, _, err := engine.Competition()
	if err != nil {
		t.Fatalf("competition: %v", err)
	}
	if comp.PrizePool.Sign() != 0 {
		t.Fatalf("fresh round pool = %s, want 0", comp.PrizePool)
	}
	if comp.Round != 2 {
		t.Fatalf("round nonce = %d, want 2", comp.Round)
	}
}

func TestSubmitScoreStoreFailureKeepsEntitlement(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state, &mockTransferrer{}, ArcadeProfile())
	initTestContest(t, engine)
	createTestRound(t, engine, 1, 100)
	player := newTestAddress(0x01)

	if err := engine.PayEntryFee(callerCtx(player), player); err != nil {
		t.Fatalf("pay: %v", err)
	}
	state.failLeaderboardPut = errors.New("disk full")
	if _, err := engine.SubmitScore(callerCtx(player), player, 10); err == nil {
		t.Fatalf("expected store failure to propagate")
	}
	paid, err := engine.HasPaid(player)
	if err != nil {
		t.Fatalf("has paid: %v", err)
	}
	if !paid {
		t.Fatalf("failed submission consumed the entitlement")
	}

	// The retry records the score and consumes the entitlement.
	if _, err := engine.SubmitScore(callerCtx(player), player, 10); err != nil {
		t.Fatalf("retry submit: %v", err)
	}
	stats, exists, err := engine.PlayerStats(player)
	if err != nil || !exists {
		t.Fatalf("player stats: exists=%v err=%v", exists, err)
	}
	if stats.TotalScore != 10 || stats.TotalGames != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestProfileChecksRunAfterAuthentication(t *testing.T) {
	engine := newTestEngine(newMockState(), &mockTransferrer{}, ArcadeProfile())
	initTestContest(t, engine)
	createTestRound(t, engine, 1, 100)
	player := newTestAddress(0x01)

	if _, err := engine.PlayRound(context.Background(), player, 10); !errors.Is(err, settlement.ErrUnauthorized) {
		t.Fatalf("unauthenticated play round = %v, want ErrUnauthorized", err)
	}
	if err := engine.SetEntryFee(context.Background(), testAdmin, big.NewInt(200)); !errors.Is(err, settlement.ErrUnauthorized) {
		t.Fatalf("unauthenticated set fee = %v, want ErrUnauthorized", err)
	}
}

func TestPayEntryFeeTransferFailureLeavesStateUntouched(t *testing.T) {
	state := newMockState()
	transfer := &mockTransferrer{failNext: errors.New("insufficient balance")}
	engine := newTestEngine(state, transfer, ArcadeProfile())
	initTestContest(t, engine)
	createTestRound(t, engine, 1, 100)
	player := newTestAddress(0x01)

	if err := engine.PayEntryFee(callerCtx(player), player); err == nil {
		t.Fatalf("expected transfer failure to propagate")
	}
	paid, err := engine.HasPaid(player)
	if err != nil {
		t.Fatalf("has paid: %v", err)
	}
	if paid {
		t.Fatalf("entitlement recorded on failed transfer")
	}
	comp, _, err := engine.Competition()
	if err != nil {
		t.Fatalf("competition: %v", err)
	}
	if comp.PrizePool.Sign() != 0 {
		t.Fatalf("pool moved on failed transfer: %s", comp.PrizePool)
	}
}
