// Package ledger tracks per-account balances for the console front end.
// It is a plain in-memory ledger: the matching core knows nothing about
// it, and it knows nothing about the book beyond sharing signer names.
package ledger

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrUnderFunded     = errors.New("account under funded")
	ErrOverFunded      = errors.New("account over funded")
)

// TxType identifies the kind of ledger mutation a Tx records.
type TxType int8

const (
	TxDeposit TxType = iota + 1
	TxWithdraw
)

func (t TxType) String() string {
	switch t {
	case TxDeposit:
		return "deposit"
	case TxWithdraw:
		return "withdraw"
	default:
		return "unknown"
	}
}

// Tx is the record of one successful ledger mutation. Callers keep their
// own transaction log; the ledger itself stores only balances.
type Tx struct {
	Type    TxType `json:"type"`
	Account string `json:"account"`
	Amount  uint64 `json:"amount"`
}

// Balance pairs an account with its current funds, used for snapshots.
type Balance struct {
	Account string `json:"account"`
	Amount  uint64 `json:"amount"`
}

// Accounts maps account names to balances. Not safe for concurrent use;
// the console drives it from a single goroutine.
type Accounts struct {
	accounts map[string]uint64
}

// NewAccounts returns an empty ledger.
func NewAccounts() *Accounts {
	return &Accounts{
		accounts: make(map[string]uint64),
	}
}

// Deposit adds amount to the account, creating it on first use. Fails
// with ErrOverFunded when the balance would wrap, leaving it unchanged.
func (a *Accounts) Deposit(account string, amount uint64) (Tx, error) {
	current := a.accounts[account]
	if current > math.MaxUint64-amount {
		return Tx{}, fmt.Errorf("%w: account %q cannot take deposit of %d", ErrOverFunded, account, amount)
	}

	a.accounts[account] = current + amount
	return Tx{Type: TxDeposit, Account: account, Amount: amount}, nil
}

// Withdraw removes amount from the account. Fails with
// ErrAccountNotFound for an unknown account and ErrUnderFunded when the
// balance is insufficient; the balance is unchanged on failure.
func (a *Accounts) Withdraw(account string, amount uint64) (Tx, error) {
	current, ok := a.accounts[account]
	if !ok {
		return Tx{}, fmt.Errorf("%w: %q", ErrAccountNotFound, account)
	}
	if current < amount {
		return Tx{}, fmt.Errorf("%w: account %q cannot cover withdrawal of %d", ErrUnderFunded, account, amount)
	}

	a.accounts[account] = current - amount
	return Tx{Type: TxWithdraw, Account: account, Amount: amount}, nil
}

// Send withdraws amount from sender and deposits it to recipient. If the
// deposit leg fails the withdrawal is rolled back, so a failed Send never
// moves funds.
func (a *Accounts) Send(sender, recipient string, amount uint64) (Tx, Tx, error) {
	withdrawTx, err := a.Withdraw(sender, amount)
	if err != nil {
		return Tx{}, Tx{}, err
	}

	depositTx, err := a.Deposit(recipient, amount)
	if err != nil {
		a.accounts[sender] += amount
		return Tx{}, Tx{}, err
	}

	return withdrawTx, depositTx, nil
}

// Balance returns the current funds of the account, or 0 for an unknown
// account.
func (a *Accounts) Balance(account string) uint64 {
	return a.accounts[account]
}

// Snapshot returns every account and its balance, sorted by account name
// for deterministic output.
func (a *Accounts) Snapshot() []Balance {
	balances := make([]Balance, 0, len(a.accounts))
	for account, amount := range a.accounts {
		balances = append(balances, Balance{Account: account, Amount: amount})
	}

	sort.Slice(balances, func(i, j int) bool {
		return balances[i].Account < balances[j].Account
	})

	return balances
}
