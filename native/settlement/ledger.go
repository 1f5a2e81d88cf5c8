package settlement

import "math/big"

// LedgerStore abstracts the persisted balance book a Ledger operates on.
// Implementations are expected to return zero-valued balances for unknown
// participants rather than failing.
type LedgerStore interface {
	BalanceGet(addr [20]byte) (*big.Int, error)
	BalancePut(addr [20]byte, amount *big.Int) error
	TotalGet() (*big.Int, error)
	TotalPut(amount *big.Int) error
}

// Ledger tracks per-participant accumulated value together with the aggregate
// total. Every mutation keeps the invariant total == sum(balances): Credit
// adds to both sides, DebitToZero removes a participant's full balance from
// both sides in one step.
type Ledger struct {
	store LedgerStore
}

// NewLedger wraps the provided store in a Ledger.
func NewLedger(store LedgerStore) *Ledger {
	return &Ledger{store: store}
}

func copyBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// Credit adds amount to the participant's balance and to the aggregate total.
// The amount must be strictly positive.
func (l *Ledger) Credit(addr [20]byte, amount *big.Int) error {
	if l == nil || l.store == nil {
		return ErrNilStore
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	balance, err := l.store.BalanceGet(addr)
	if err != nil {
		return err
	}
	total, err := l.store.TotalGet()
	if err != nil {
		return err
	}
	if err := l.store.BalancePut(addr, new(big.Int).Add(copyBigInt(balance), amount)); err != nil {
		return err
	}
	return l.store.TotalPut(new(big.Int).Add(copyBigInt(total), amount))
}

// DebitToZero returns the participant's current balance and resets it to zero
// in one step, decrementing the aggregate total by the same amount. A zero
// balance fails with ErrNothingToSettle so a participant can never settle the
// same funds twice.
func (l *Ledger) DebitToZero(addr [20]byte) (*big.Int, error) {
	if l == nil || l.store == nil {
		return nil, ErrNilStore
	}
	balance, err := l.store.BalanceGet(addr)
	if err != nil {
		return nil, err
	}
	balance = copyBigInt(balance)
	if balance.Sign() <= 0 {
		return nil, ErrNothingToSettle
	}
	total, err := l.store.TotalGet()
	if err != nil {
		return nil, err
	}
	if err := l.store.BalancePut(addr, big.NewInt(0)); err != nil {
		return nil, err
	}
	if err := l.store.TotalPut(new(big.Int).Sub(copyBigInt(total), balance)); err != nil {
		return nil, err
	}
	return balance, nil
}

// Balance reports the participant's current balance. Unknown participants read
// as zero.
func (l *Ledger) Balance(addr [20]byte) (*big.Int, error) {
	if l == nil || l.store == nil {
		return nil, ErrNilStore
	}
	balance, err := l.store.BalanceGet(addr)
	if err != nil {
		return nil, err
	}
	return copyBigInt(balance), nil
}

// Total reports the aggregate of all active balances.
func (l *Ledger) Total() (*big.Int, error) {
	if l == nil || l.store == nil {
		return nil, ErrNilStore
	}
	total, err := l.store.TotalGet()
	if err != nil {
		return nil, err
	}
	return copyBigInt(total), nil
}
