// Package asset provides the in-process fungible token ledgers: the escrow
// asset campaigns custody donations in, and the governance token minted
// against net donations. Amounts are integer minor units; balances never go
// negative.
package asset

import (
	"context"
	"math"
	"sync"

	relieferrors "wrldrelief/pkg/relieferrors"
)

// Ledger is a fungible token ledger with transfer/transferFrom/approve
// semantics. It implements the campaign engine's Asset port.
type Ledger struct {
	mu         sync.RWMutex
	name       string
	balances   map[string]int64
	allowances map[string]map[string]int64
}

func NewLedger(name string) *Ledger {
	return &Ledger{
		name:       name,
		balances:   make(map[string]int64),
		allowances: make(map[string]map[string]int64),
	}
}

// Name returns the ledger's token name.
func (l *Ledger) Name() string { return l.name }

// Mint credits newly issued units to an address.
func (l *Ledger) Mint(_ context.Context, to string, amount int64) error {
	if to == "" {
		return relieferrors.New(relieferrors.CodeInvalidInput, "mint target required")
	}
	if amount <= 0 {
		return relieferrors.New(relieferrors.CodeInvalidInput, "mint amount must be positive")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[to] > math.MaxInt64-amount {
		return relieferrors.Newf(relieferrors.CodePreconditionFailed,
			"mint would overflow balance of %s", to)
	}
	l.balances[to] += amount
	return nil
}

// Approve sets the amount a spender may pull from the owner via TransferFrom.
func (l *Ledger) Approve(_ context.Context, owner, spender string, amount int64) error {
	if amount < 0 {
		return relieferrors.New(relieferrors.CodeInvalidInput, "allowance must not be negative")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[string]int64)
	}
	l.allowances[owner][spender] = amount
	return nil
}

// Allowance returns the remaining amount spender may pull from owner.
func (l *Ledger) Allowance(_ context.Context, owner, spender string) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.allowances[owner][spender], nil
}

// BalanceOf returns the current balance of an address.
func (l *Ledger) BalanceOf(_ context.Context, addr string) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[addr], nil
}

// Transfer moves amount from one address to another.
func (l *Ledger) Transfer(_ context.Context, from, to string, amount int64) error {
	if amount <= 0 {
		return relieferrors.New(relieferrors.CodeInvalidInput, "transfer amount must be positive")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(from, to, amount)
}

// TransferFrom moves amount from one address to another against the
// recipient side's allowance. The spender is the destination address here:
// campaigns pull approved funds into their own custody.
func (l *Ledger) TransferFrom(_ context.Context, from, to string, amount int64) error {
	if amount <= 0 {
		return relieferrors.New(relieferrors.CodeInvalidInput, "transfer amount must be positive")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	allowed := l.allowances[from][to]
	if allowed < amount {
		return relieferrors.Newf(relieferrors.CodePreconditionFailed,
			"allowance %d below requested %d", allowed, amount)
	}
	if err := l.move(from, to, amount); err != nil {
		return err
	}
	l.allowances[from][to] = allowed - amount
	return nil
}

// move requires l.mu held.
func (l *Ledger) move(from, to string, amount int64) error {
	if from == "" || to == "" {
		return relieferrors.New(relieferrors.CodeInvalidInput, "transfer endpoints required")
	}
	if l.balances[from] < amount {
		return relieferrors.Newf(relieferrors.CodePreconditionFailed,
			"balance %d below requested %d", l.balances[from], amount)
	}
	if l.balances[to] > math.MaxInt64-amount {
		return relieferrors.Newf(relieferrors.CodePreconditionFailed,
			"transfer would overflow balance of %s", to)
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}
