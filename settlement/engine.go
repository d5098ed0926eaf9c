package settlement

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"settlr/program"
)

// Engine executes settlement instructions against a Ledger with the same
// semantics the on-chain program enforces: every handler validates, then
// mutates a forked ledger that is committed only on success. Two payments
// can never half-apply, and a failed attempt leaves its payment ID free
// for retry.
type Engine struct {
	ledger    *Ledger
	programID solana.PublicKey
	usdcMint  solana.PublicKey
	nowFn     func() int64
}

// NewEngine creates an engine over a fresh ledger
func NewEngine(programID, usdcMint solana.PublicKey) *Engine {
	return &Engine{
		ledger:    NewLedger(),
		programID: programID,
		usdcMint:  usdcMint,
		nowFn:     func() int64 { return time.Now().Unix() },
	}
}

// SetNowFunc overrides the time source. Primarily intended for tests to
// provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// run executes fn against a fork of the ledger and commits it on success
func (e *Engine) run(fn func(l *Ledger) error) error {
	fork := e.ledger.Clone()
	if err := fn(fork); err != nil {
		return err
	}
	e.ledger = fork
	return nil
}

func (e *Engine) loadConfig(l *Ledger) (*program.PlatformConfig, solana.PublicKey, error) {
	configPDA, _, err := program.DerivePlatformConfigPDA(e.programID)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	data, err := l.GetAccount(configPDA)
	if err != nil {
		return nil, configPDA, fmt.Errorf("platform config: %w", err)
	}
	cfg, err := program.ParsePlatformConfigData(data)
	if err != nil {
		return nil, configPDA, err
	}
	return cfg, configPDA, nil
}

func (e *Engine) storeConfig(l *Ledger, configPDA solana.PublicKey, cfg *program.PlatformConfig, create bool) error {
	data, err := program.MarshalAccount(program.AccountDiscriminatorPlatformConfig, cfg)
	if err != nil {
		return err
	}
	if create {
		return l.CreateAccount(configPDA, data)
	}
	return l.PutAccount(configPDA, data)
}

// SetPlatformConfig creates or updates the platform configuration. The
// first caller becomes the authority and the treasury token account is
// created alongside; later calls only adjust fee parameters and are gated
// to the stored authority.
func (e *Engine) SetPlatformConfig(authority solana.PublicKey, feeBps, minPaymentAmount uint64) error {
	if feeBps > program.MaxFeeBps {
		return program.NewError(program.ErrInvalidFeeBps)
	}

	return e.run(func(l *Ledger) error {
		configPDA, bump, err := program.DerivePlatformConfigPDA(e.programID)
		if err != nil {
			return err
		}
		treasuryPDA, treasuryBump, err := program.DerivePlatformTreasuryPDA(e.programID)
		if err != nil {
			return err
		}

		if l.AccountExists(configPDA) {
			cfg, _, err := e.loadConfig(l)
			if err != nil {
				return err
			}
			if !cfg.Authority.Equals(authority) {
				return program.NewError(program.ErrUnauthorized)
			}
			cfg.FeeBps = feeBps
			cfg.MinPaymentAmount = minPaymentAmount
			return e.storeConfig(l, configPDA, cfg, false)
		}

		cfg := &program.PlatformConfig{
			Authority:        authority,
			UsdcMint:         e.usdcMint,
			FeeBps:           feeBps,
			MinPaymentAmount: minPaymentAmount,
			IsActive:         true,
			Bump:             bump,
			TreasuryBump:     treasuryBump,
		}
		if err := e.storeConfig(l, configPDA, cfg, true); err != nil {
			return err
		}
		// Treasury is owned by the config PDA: only the program's derived
		// signer can move funds out of it.
		return l.CreateTokenAccount(treasuryPDA, e.usdcMint, configPDA, configPDA)
	})
}

// SetActive toggles the payment-processing gate. Authority only.
func (e *Engine) SetActive(authority solana.PublicKey, active bool) error {
	return e.run(func(l *Ledger) error {
		cfg, configPDA, err := e.loadConfig(l)
		if err != nil {
			return err
		}
		if !cfg.Authority.Equals(authority) {
			return program.NewError(program.ErrUnauthorized)
		}
		cfg.IsActive = active
		return e.storeConfig(l, configPDA, cfg, false)
	})
}

// TransferAuthority hands the platform over to a new authority key
func (e *Engine) TransferAuthority(authority, newAuthority solana.PublicKey) error {
	return e.run(func(l *Ledger) error {
		cfg, configPDA, err := e.loadConfig(l)
		if err != nil {
			return err
		}
		if !cfg.Authority.Equals(authority) {
			return program.NewError(program.ErrUnauthorized)
		}
		cfg.Authority = newAuthority
		return e.storeConfig(l, configPDA, cfg, false)
	})
}

// InitializeMerchant registers a merchant record. The merchant PDA is the
// natural key: re-registering an existing ID fails at account creation and
// the first record is left untouched.
func (e *Engine) InitializeMerchant(settlementWallet solana.PublicKey, merchantID string) error {
	if !program.ValidateID(merchantID) {
		return program.NewError(program.ErrInvalidMerchantID)
	}

	return e.run(func(l *Ledger) error {
		// Platform config must exist before merchants can register
		if _, _, err := e.loadConfig(l); err != nil {
			return err
		}

		merchantPDA, bump, err := program.DeriveMerchantPDA(e.programID, merchantID)
		if err != nil {
			return err
		}

		m := &program.Merchant{
			MerchantID:       merchantID,
			SettlementWallet: settlementWallet,
			Bump:             bump,
		}
		data, err := program.MarshalAccount(program.AccountDiscriminatorMerchant, m)
		if err != nil {
			return err
		}
		return l.CreateAccount(merchantPDA, data)
	})
}

// ProcessPayment settles a payment: gross amount leaves the customer token
// account, the fee lands in the treasury, the rest in the merchant's
// settlement ATA, and an immutable receipt is written under the payment
// PDA. Preconditions are checked in a fixed order so failures are
// deterministic: active gate, minimum, ID validity, ID uniqueness, balance.
func (e *Engine) ProcessPayment(payer solana.PublicKey, merchantID, paymentID string, amount uint64) error {
	return e.run(func(l *Ledger) error {
		cfg, configPDA, err := e.loadConfig(l)
		if err != nil {
			return err
		}
		if !cfg.IsActive {
			return program.NewError(program.ErrPlatformInactive)
		}
		if amount < cfg.MinPaymentAmount {
			return program.NewError(program.ErrPaymentBelowMinimum)
		}
		if !program.ValidateID(paymentID) {
			return program.NewError(program.ErrInvalidPaymentID)
		}

		paymentPDA, paymentBump, err := program.DerivePaymentPDA(e.programID, paymentID)
		if err != nil {
			return err
		}
		if l.AccountExists(paymentPDA) {
			return ErrAccountExists
		}

		merchantPDA, _, err := program.DeriveMerchantPDA(e.programID, merchantID)
		if err != nil {
			return err
		}
		merchantData, err := l.GetAccount(merchantPDA)
		if err != nil {
			return fmt.Errorf("merchant %q: %w", merchantID, err)
		}
		merchant, err := program.ParseMerchantData(merchantData)
		if err != nil {
			return err
		}

		feeAmount, netAmount, err := program.SplitAmount(amount, cfg.FeeBps)
		if err != nil {
			return err
		}

		customerATA, err := program.GetAssociatedTokenAddress(payer, cfg.UsdcMint)
		if err != nil {
			return err
		}
		merchantATA, err := program.GetAssociatedTokenAddress(merchant.SettlementWallet, cfg.UsdcMint)
		if err != nil {
			return err
		}
		treasuryPDA, _, err := program.DerivePlatformTreasuryPDA(e.programID)
		if err != nil {
			return err
		}

		// Merchant ATA is created on demand before any transfer so a
		// missing destination can never strand funds mid-instruction.
		if !l.TokenAccountExists(merchantATA) {
			if err := l.CreateTokenAccount(merchantATA, cfg.UsdcMint, merchant.SettlementWallet, merchant.SettlementWallet); err != nil {
				return err
			}
		}

		// Insufficient balance surfaces from the transfer itself,
		// exactly like the token program would report it.
		if err := l.Transfer(customerATA, merchantATA, netAmount); err != nil {
			return err
		}
		if err := l.Transfer(customerATA, treasuryPDA, feeAmount); err != nil {
			return err
		}

		cfg.TotalVolume += amount
		cfg.TotalFees += feeAmount
		if err := e.storeConfig(l, configPDA, cfg, false); err != nil {
			return err
		}

		merchant.TotalVolume += netAmount
		merchant.TotalPayments++
		merchantBytes, err := program.MarshalAccount(program.AccountDiscriminatorMerchant, merchant)
		if err != nil {
			return err
		}
		if err := l.PutAccount(merchantPDA, merchantBytes); err != nil {
			return err
		}

		if err := e.bumpCustomer(l, payer, amount); err != nil {
			return err
		}

		receipt := &program.Payment{
			PaymentID: paymentID,
			Payer:     payer,
			Merchant:  merchantPDA,
			Amount:    amount,
			FeeAmount: feeAmount,
			NetAmount: netAmount,
			Timestamp: e.nowFn(),
			Status:    program.PaymentStatusCompleted,
			Bump:      paymentBump,
		}
		receiptBytes, err := program.MarshalAccount(program.AccountDiscriminatorPayment, receipt)
		if err != nil {
			return err
		}
		return l.CreateAccount(paymentPDA, receiptBytes)
	})
}

// bumpCustomer lazily creates the per-payer statistics account on first
// payment, then increments its aggregates.
func (e *Engine) bumpCustomer(l *Ledger, payer solana.PublicKey, amount uint64) error {
	customerPDA, bump, err := program.DeriveCustomerPDA(e.programID, payer)
	if err != nil {
		return err
	}

	customer := &program.Customer{Owner: payer, Bump: bump}
	create := true
	if data, err := l.GetAccount(customerPDA); err == nil {
		customer, err = program.ParseCustomerData(data)
		if err != nil {
			return err
		}
		create = false
	}

	customer.TotalSpent += amount
	customer.PaymentCount++

	data, err := program.MarshalAccount(program.AccountDiscriminatorCustomer, customer)
	if err != nil {
		return err
	}
	if create {
		return l.CreateAccount(customerPDA, data)
	}
	return l.PutAccount(customerPDA, data)
}

// ClaimPlatformFees drains the entire treasury balance into the supplied
// destination token account. A zero balance claim succeeds trivially.
func (e *Engine) ClaimPlatformFees(authority, destination solana.PublicKey) error {
	return e.run(func(l *Ledger) error {
		cfg, _, err := e.loadConfig(l)
		if err != nil {
			return err
		}
		if !cfg.Authority.Equals(authority) {
			return program.NewError(program.ErrUnauthorized)
		}

		treasuryPDA, _, err := program.DerivePlatformTreasuryPDA(e.programID)
		if err != nil {
			return err
		}
		treasury, err := l.GetTokenAccount(treasuryPDA)
		if err != nil {
			return err
		}
		if treasury.Amount == 0 {
			return nil
		}
		return l.Transfer(treasuryPDA, destination, treasury.Amount)
	})
}

// ProcessPayout releases escrowed treasury funds to a recipient wallet,
// creating the recipient ATA on demand. Authority only.
func (e *Engine) ProcessPayout(authority, recipient solana.PublicKey, payoutID string, amount uint64) error {
	return e.run(func(l *Ledger) error {
		cfg, _, err := e.loadConfig(l)
		if err != nil {
			return err
		}
		if !cfg.Authority.Equals(authority) {
			return program.NewError(program.ErrUnauthorized)
		}
		if !cfg.IsActive {
			return program.NewError(program.ErrPlatformInactive)
		}
		if amount == 0 {
			return program.NewError(program.ErrPaymentBelowMinimum)
		}
		if !program.ValidateID(payoutID) {
			return program.NewError(program.ErrInvalidPaymentID)
		}

		treasuryPDA, _, err := program.DerivePlatformTreasuryPDA(e.programID)
		if err != nil {
			return err
		}
		treasury, err := l.GetTokenAccount(treasuryPDA)
		if err != nil {
			return err
		}
		if treasury.Amount < amount {
			return program.NewError(program.ErrInsufficientTreasuryBalance)
		}

		recipientATA, err := program.GetAssociatedTokenAddress(recipient, cfg.UsdcMint)
		if err != nil {
			return err
		}
		if !l.TokenAccountExists(recipientATA) {
			if err := l.CreateTokenAccount(recipientATA, cfg.UsdcMint, recipient, recipient); err != nil {
				return err
			}
		}
		return l.Transfer(treasuryPDA, recipientATA, amount)
	})
}

// RefundPayment reverses a completed payment: the net amount returns from
// the merchant settlement ATA and the fee portion from the treasury, both
// back to the customer ATA. The receipt flips to refunded - its only legal
// transition - while the lifetime counters stay monotonic.
func (e *Engine) RefundPayment(authority solana.PublicKey, paymentID string) error {
	return e.run(func(l *Ledger) error {
		cfg, _, err := e.loadConfig(l)
		if err != nil {
			return err
		}
		if !cfg.Authority.Equals(authority) {
			return program.NewError(program.ErrUnauthorized)
		}

		paymentPDA, _, err := program.DerivePaymentPDA(e.programID, paymentID)
		if err != nil {
			return err
		}
		receiptData, err := l.GetAccount(paymentPDA)
		if err != nil {
			return fmt.Errorf("payment %q: %w", paymentID, err)
		}
		receipt, err := program.ParsePaymentData(receiptData)
		if err != nil {
			return err
		}
		if receipt.Status != program.PaymentStatusCompleted {
			return program.NewError(program.ErrPaymentNotRefundable)
		}

		merchantData, err := l.GetAccount(receipt.Merchant)
		if err != nil {
			return err
		}
		merchant, err := program.ParseMerchantData(merchantData)
		if err != nil {
			return err
		}

		customerATA, err := program.GetAssociatedTokenAddress(receipt.Payer, cfg.UsdcMint)
		if err != nil {
			return err
		}
		merchantATA, err := program.GetAssociatedTokenAddress(merchant.SettlementWallet, cfg.UsdcMint)
		if err != nil {
			return err
		}
		treasuryPDA, _, err := program.DerivePlatformTreasuryPDA(e.programID)
		if err != nil {
			return err
		}

		if err := l.Transfer(merchantATA, customerATA, receipt.NetAmount); err != nil {
			return err
		}
		if err := l.Transfer(treasuryPDA, customerATA, receipt.FeeAmount); err != nil {
			return err
		}

		receipt.Status = program.PaymentStatusRefunded
		data, err := program.MarshalAccount(program.AccountDiscriminatorPayment, receipt)
		if err != nil {
			return err
		}
		return l.PutAccount(paymentPDA, data)
	})
}

// ---- read side ----

// PlatformConfig returns the current platform configuration
func (e *Engine) PlatformConfig() (*program.PlatformConfig, error) {
	cfg, _, err := e.loadConfig(e.ledger)
	return cfg, err
}

// Merchant returns a merchant record by ID
func (e *Engine) Merchant(merchantID string) (*program.Merchant, error) {
	merchantPDA, _, err := program.DeriveMerchantPDA(e.programID, merchantID)
	if err != nil {
		return nil, err
	}
	data, err := e.ledger.GetAccount(merchantPDA)
	if err != nil {
		return nil, err
	}
	return program.ParseMerchantData(data)
}

// Payment returns a settlement receipt by ID
func (e *Engine) Payment(paymentID string) (*program.Payment, error) {
	paymentPDA, _, err := program.DerivePaymentPDA(e.programID, paymentID)
	if err != nil {
		return nil, err
	}
	data, err := e.ledger.GetAccount(paymentPDA)
	if err != nil {
		return nil, err
	}
	return program.ParsePaymentData(data)
}

// Customer returns per-payer aggregates
func (e *Engine) Customer(payer solana.PublicKey) (*program.Customer, error) {
	customerPDA, _, err := program.DeriveCustomerPDA(e.programID, payer)
	if err != nil {
		return nil, err
	}
	data, err := e.ledger.GetAccount(customerPDA)
	if err != nil {
		return nil, err
	}
	return program.ParseCustomerData(data)
}

// TokenBalance returns the balance of any token account on the ledger
func (e *Engine) TokenBalance(addr solana.PublicKey) (uint64, error) {
	acc, err := e.ledger.GetTokenAccount(addr)
	if err != nil {
		return 0, err
	}
	return acc.Amount, nil
}

// TreasuryBalance returns the accumulated platform fee balance
func (e *Engine) TreasuryBalance() (uint64, error) {
	treasuryPDA, _, err := program.DerivePlatformTreasuryPDA(e.programID)
	if err != nil {
		return 0, err
	}
	return e.TokenBalance(treasuryPDA)
}

// FundCustomer seeds a customer ATA with USDC, creating it if needed.
// Local-ledger convenience; on chain this is a plain token transfer.
func (e *Engine) FundCustomer(wallet solana.PublicKey, amount uint64) (solana.PublicKey, error) {
	ata, err := program.GetAssociatedTokenAddress(wallet, e.usdcMint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if !e.ledger.TokenAccountExists(ata) {
		if err := e.ledger.CreateTokenAccount(ata, e.usdcMint, wallet, wallet); err != nil {
			return solana.PublicKey{}, err
		}
	}
	if err := e.ledger.Credit(ata, amount); err != nil {
		return solana.PublicKey{}, err
	}
	return ata, nil
}

// CreateTokenAccountFor creates an empty token account for a wallet.
// Used by tests and tools that need a claim destination.
func (e *Engine) CreateTokenAccountFor(wallet solana.PublicKey) (solana.PublicKey, error) {
	ata, err := program.GetAssociatedTokenAddress(wallet, e.usdcMint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if !e.ledger.TokenAccountExists(ata) {
		if err := e.ledger.CreateTokenAccount(ata, e.usdcMint, wallet, wallet); err != nil {
			return solana.PublicKey{}, err
		}
	}
	return ata, nil
}
