package settlement

import (
	"errors"

	"github.com/gagliardetto/solana-go"
)

// Runtime-level failures. These mirror what the Solana runtime / SPL token
// program reports, as opposed to the program's own custom error codes:
// account creation at an occupied address and token debits that exceed the
// balance abort the transaction before program logic ever sees them.
var (
	ErrAccountExists        = errors.New("account already in use")
	ErrAccountNotFound      = errors.New("account not found")
	ErrTokenAccountNotFound = errors.New("token account not found")
	ErrInsufficientFunds    = errors.New("insufficient funds")
)

// TokenAccount models an SPL token account: a balance of one mint held for
// an owner, debitable only by its authority.
type TokenAccount struct {
	Address   solana.PublicKey
	Mint      solana.PublicKey
	Owner     solana.PublicKey
	Authority solana.PublicKey
	Amount    uint64
}

// Ledger holds every account owned by the settlement program plus the SPL
// token accounts it touches. Program account data is stored in its wire
// layout (8-byte discriminator + borsh) so the same parsers used against
// RPC responses read ledger state too.
type Ledger struct {
	accounts map[solana.PublicKey][]byte
	tokens   map[solana.PublicKey]*TokenAccount
}

// NewLedger creates an empty ledger
func NewLedger() *Ledger {
	return &Ledger{
		accounts: make(map[solana.PublicKey][]byte),
		tokens:   make(map[solana.PublicKey]*TokenAccount),
	}
}

// Clone returns a deep copy. Instruction handlers run against a clone and
// the engine swaps it in only when the whole instruction succeeded, giving
// the all-or-nothing commit the chain runtime would provide.
func (l *Ledger) Clone() *Ledger {
	c := NewLedger()
	for k, v := range l.accounts {
		data := make([]byte, len(v))
		copy(data, v)
		c.accounts[k] = data
	}
	for k, v := range l.tokens {
		acc := *v
		c.tokens[k] = &acc
	}
	return c
}

// AccountExists reports whether a program account occupies the address
func (l *Ledger) AccountExists(addr solana.PublicKey) bool {
	_, ok := l.accounts[addr]
	return ok
}

// GetAccount returns raw program account data
func (l *Ledger) GetAccount(addr solana.PublicKey) ([]byte, error) {
	data, ok := l.accounts[addr]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return data, nil
}

// CreateAccount writes a new program account. Fails if the address is
// already occupied - this is the duplicate guard for merchant and payment
// PDAs.
func (l *Ledger) CreateAccount(addr solana.PublicKey, data []byte) error {
	if _, ok := l.accounts[addr]; ok {
		return ErrAccountExists
	}
	l.accounts[addr] = data
	return nil
}

// PutAccount overwrites an existing program account
func (l *Ledger) PutAccount(addr solana.PublicKey, data []byte) error {
	if _, ok := l.accounts[addr]; !ok {
		return ErrAccountNotFound
	}
	l.accounts[addr] = data
	return nil
}

// TokenAccountExists reports whether a token account occupies the address
func (l *Ledger) TokenAccountExists(addr solana.PublicKey) bool {
	_, ok := l.tokens[addr]
	return ok
}

// GetTokenAccount returns a token account
func (l *Ledger) GetTokenAccount(addr solana.PublicKey) (*TokenAccount, error) {
	acc, ok := l.tokens[addr]
	if !ok {
		return nil, ErrTokenAccountNotFound
	}
	return acc, nil
}

// CreateTokenAccount initializes a token account at an address
func (l *Ledger) CreateTokenAccount(addr, mint, owner, authority solana.PublicKey) error {
	if _, ok := l.tokens[addr]; ok {
		return ErrAccountExists
	}
	l.tokens[addr] = &TokenAccount{
		Address:   addr,
		Mint:      mint,
		Owner:     owner,
		Authority: authority,
	}
	return nil
}

// Transfer moves tokens between two accounts of the same mint
func (l *Ledger) Transfer(from, to solana.PublicKey, amount uint64) error {
	src, ok := l.tokens[from]
	if !ok {
		return ErrTokenAccountNotFound
	}
	dst, ok := l.tokens[to]
	if !ok {
		return ErrTokenAccountNotFound
	}
	if src.Amount < amount {
		return ErrInsufficientFunds
	}
	src.Amount -= amount
	dst.Amount += amount
	return nil
}

// Credit mints tokens into an account. Only used to seed balances on a
// local ledger; real deposits arrive via the token program.
func (l *Ledger) Credit(addr solana.PublicKey, amount uint64) error {
	acc, ok := l.tokens[addr]
	if !ok {
		return ErrTokenAccountNotFound
	}
	acc.Amount += amount
	return nil
}
