package settlement

import (
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"settlr/program"
)

var (
	testProgramID = solana.MustPublicKeyFromBase58(program.SettlementProgramID)
	testUSDCMint  = solana.MustPublicKeyFromBase58(program.USDCMintDevnet)
)

func newTestEngine(t *testing.T) (*Engine, solana.PublicKey) {
	t.Helper()
	e := NewEngine(testProgramID, testUSDCMint)
	e.SetNowFunc(func() int64 { return 1700000000 })
	authority := solana.NewWallet().PublicKey()
	require.NoError(t, e.SetPlatformConfig(authority, 250, 10_000))
	return e, authority
}

func requireCode(t *testing.T, err error, code program.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	var pe *program.Error
	require.True(t, errors.As(err, &pe), "expected program error, got %v", err)
	require.Equal(t, code, pe.Code)
}

func TestSetPlatformConfigFirstCallerBecomesAuthority(t *testing.T) {
	e, authority := newTestEngine(t)

	cfg, err := e.PlatformConfig()
	require.NoError(t, err)
	require.Equal(t, authority, cfg.Authority)
	require.Equal(t, testUSDCMint, cfg.UsdcMint)
	require.Equal(t, uint64(250), cfg.FeeBps)
	require.Equal(t, uint64(10_000), cfg.MinPaymentAmount)
	require.True(t, cfg.IsActive)
	require.Zero(t, cfg.TotalVolume)
	require.Zero(t, cfg.TotalFees)

	// Treasury token account exists and is owned by the config PDA
	balance, err := e.TreasuryBalance()
	require.NoError(t, err)
	require.Zero(t, balance)
}

func TestSetPlatformConfigRejectsExcessFee(t *testing.T) {
	e := NewEngine(testProgramID, testUSDCMint)
	authority := solana.NewWallet().PublicKey()

	requireCode(t, e.SetPlatformConfig(authority, 10_001, 0), program.ErrInvalidFeeBps)

	// Boundary value is accepted
	require.NoError(t, e.SetPlatformConfig(authority, 10_000, 0))
}

func TestSetPlatformConfigUpdateRequiresAuthority(t *testing.T) {
	e, authority := newTestEngine(t)
	intruder := solana.NewWallet().PublicKey()

	requireCode(t, e.SetPlatformConfig(intruder, 100, 5_000), program.ErrUnauthorized)

	// Original parameters are untouched after the rejected update
	cfg, err := e.PlatformConfig()
	require.NoError(t, err)
	require.Equal(t, uint64(250), cfg.FeeBps)

	require.NoError(t, e.SetPlatformConfig(authority, 100, 5_000))
	cfg, err = e.PlatformConfig()
	require.NoError(t, err)
	require.Equal(t, uint64(100), cfg.FeeBps)
	require.Equal(t, uint64(5_000), cfg.MinPaymentAmount)
}

func TestInitializeMerchant(t *testing.T) {
	e, _ := newTestEngine(t)
	wallet := solana.NewWallet().PublicKey()

	require.NoError(t, e.InitializeMerchant(wallet, "acme-store"))

	m, err := e.Merchant("acme-store")
	require.NoError(t, err)
	require.Equal(t, "acme-store", m.MerchantID)
	require.Equal(t, wallet, m.SettlementWallet)
	require.Zero(t, m.TotalVolume)
	require.Zero(t, m.TotalPayments)
}

func TestInitializeMerchantDuplicateIDKeepsFirstRecord(t *testing.T) {
	e, _ := newTestEngine(t)
	first := solana.NewWallet().PublicKey()
	second := solana.NewWallet().PublicKey()

	require.NoError(t, e.InitializeMerchant(first, "acme-store"))
	require.ErrorIs(t, e.InitializeMerchant(second, "acme-store"), ErrAccountExists)

	m, err := e.Merchant("acme-store")
	require.NoError(t, err)
	require.Equal(t, first, m.SettlementWallet)
}

func TestInitializeMerchantInvalidID(t *testing.T) {
	e, _ := newTestEngine(t)
	wallet := solana.NewWallet().PublicKey()

	requireCode(t, e.InitializeMerchant(wallet, ""), program.ErrInvalidMerchantID)

	long := make([]byte, program.MaxIDLength+1)
	for i := range long {
		long[i] = 'a'
	}
	requireCode(t, e.InitializeMerchant(wallet, string(long)), program.ErrInvalidMerchantID)
}

func TestInitializeMerchantRequiresPlatform(t *testing.T) {
	e := NewEngine(testProgramID, testUSDCMint)
	err := e.InitializeMerchant(solana.NewWallet().PublicKey(), "acme-store")
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestProcessPaymentHappyPath(t *testing.T) {
	e, _ := newTestEngine(t)
	merchantWallet := solana.NewWallet().PublicKey()
	payer := solana.NewWallet().PublicKey()
	require.NoError(t, e.InitializeMerchant(merchantWallet, "acme-store"))

	customerATA, err := e.FundCustomer(payer, 50_000)
	require.NoError(t, err)

	require.NoError(t, e.ProcessPayment(payer, "acme-store", "pay_001", 20_000))

	// 250 bps of 20_000 is 500; the rest goes to the merchant
	merchantATA, err := program.GetAssociatedTokenAddress(merchantWallet, testUSDCMint)
	require.NoError(t, err)

	merchantBalance, err := e.TokenBalance(merchantATA)
	require.NoError(t, err)
	require.Equal(t, uint64(19_500), merchantBalance)

	treasuryBalance, err := e.TreasuryBalance()
	require.NoError(t, err)
	require.Equal(t, uint64(500), treasuryBalance)

	customerBalance, err := e.TokenBalance(customerATA)
	require.NoError(t, err)
	require.Equal(t, uint64(30_000), customerBalance)

	receipt, err := e.Payment("pay_001")
	require.NoError(t, err)
	require.Equal(t, "pay_001", receipt.PaymentID)
	require.Equal(t, payer, receipt.Payer)
	require.Equal(t, uint64(20_000), receipt.Amount)
	require.Equal(t, uint64(500), receipt.FeeAmount)
	require.Equal(t, uint64(19_500), receipt.NetAmount)
	require.Equal(t, int64(1700000000), receipt.Timestamp)
	require.Equal(t, program.PaymentStatusCompleted, receipt.Status)

	cfg, err := e.PlatformConfig()
	require.NoError(t, err)
	require.Equal(t, uint64(20_000), cfg.TotalVolume)
	require.Equal(t, uint64(500), cfg.TotalFees)

	m, err := e.Merchant("acme-store")
	require.NoError(t, err)
	require.Equal(t, uint64(19_500), m.TotalVolume)
	require.Equal(t, uint64(1), m.TotalPayments)

	customer, err := e.Customer(payer)
	require.NoError(t, err)
	require.Equal(t, uint64(20_000), customer.TotalSpent)
	require.Equal(t, uint64(1), customer.PaymentCount)
}

func TestProcessPaymentDuplicateIDRejected(t *testing.T) {
	e, _ := newTestEngine(t)
	merchantWallet := solana.NewWallet().PublicKey()
	payer := solana.NewWallet().PublicKey()
	require.NoError(t, e.InitializeMerchant(merchantWallet, "acme-store"))
	_, err := e.FundCustomer(payer, 100_000)
	require.NoError(t, err)

	require.NoError(t, e.ProcessPayment(payer, "acme-store", "pay_dup", 20_000))
	require.ErrorIs(t, e.ProcessPayment(payer, "acme-store", "pay_dup", 20_000), ErrAccountExists)

	// The replay charged nothing
	treasuryBalance, err := e.TreasuryBalance()
	require.NoError(t, err)
	require.Equal(t, uint64(500), treasuryBalance)

	cfg, err := e.PlatformConfig()
	require.NoError(t, err)
	require.Equal(t, uint64(20_000), cfg.TotalVolume)
}

func TestProcessPaymentBelowMinimum(t *testing.T) {
	e, _ := newTestEngine(t)
	merchantWallet := solana.NewWallet().PublicKey()
	payer := solana.NewWallet().PublicKey()
	require.NoError(t, e.InitializeMerchant(merchantWallet, "acme-store"))
	_, err := e.FundCustomer(payer, 100_000)
	require.NoError(t, err)

	requireCode(t, e.ProcessPayment(payer, "acme-store", "pay_small", 9_999), program.ErrPaymentBelowMinimum)

	// Exactly the minimum passes
	require.NoError(t, e.ProcessPayment(payer, "acme-store", "pay_min", 10_000))
}

func TestProcessPaymentInactivePlatform(t *testing.T) {
	e, authority := newTestEngine(t)
	merchantWallet := solana.NewWallet().PublicKey()
	payer := solana.NewWallet().PublicKey()
	require.NoError(t, e.InitializeMerchant(merchantWallet, "acme-store"))
	_, err := e.FundCustomer(payer, 100_000)
	require.NoError(t, err)

	require.NoError(t, e.SetActive(authority, false))
	requireCode(t, e.ProcessPayment(payer, "acme-store", "pay_gate", 20_000), program.ErrPlatformInactive)

	require.NoError(t, e.SetActive(authority, true))
	require.NoError(t, e.ProcessPayment(payer, "acme-store", "pay_gate", 20_000))
}

func TestProcessPaymentInsufficientFundsLeavesNothingBehind(t *testing.T) {
	e, _ := newTestEngine(t)
	merchantWallet := solana.NewWallet().PublicKey()
	payer := solana.NewWallet().PublicKey()
	require.NoError(t, e.InitializeMerchant(merchantWallet, "acme-store"))
	customerATA, err := e.FundCustomer(payer, 15_000)
	require.NoError(t, err)

	require.ErrorIs(t, e.ProcessPayment(payer, "acme-store", "pay_poor", 20_000), ErrInsufficientFunds)

	// All-or-nothing: no partial transfer, no counters, no receipt
	customerBalance, err := e.TokenBalance(customerATA)
	require.NoError(t, err)
	require.Equal(t, uint64(15_000), customerBalance)

	treasuryBalance, err := e.TreasuryBalance()
	require.NoError(t, err)
	require.Zero(t, treasuryBalance)

	cfg, err := e.PlatformConfig()
	require.NoError(t, err)
	require.Zero(t, cfg.TotalVolume)

	_, err = e.Payment("pay_poor")
	require.ErrorIs(t, err, ErrAccountNotFound)

	// The failed attempt left the payment ID free for a funded retry
	_, err = e.FundCustomer(payer, 10_000)
	require.NoError(t, err)
	require.NoError(t, e.ProcessPayment(payer, "acme-store", "pay_poor", 20_000))
}

func TestProcessPaymentUnknownMerchant(t *testing.T) {
	e, _ := newTestEngine(t)
	payer := solana.NewWallet().PublicKey()
	_, err := e.FundCustomer(payer, 100_000)
	require.NoError(t, err)

	err = e.ProcessPayment(payer, "nobody", "pay_x", 20_000)
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestProcessPaymentZeroFee(t *testing.T) {
	e := NewEngine(testProgramID, testUSDCMint)
	authority := solana.NewWallet().PublicKey()
	require.NoError(t, e.SetPlatformConfig(authority, 0, 0))

	merchantWallet := solana.NewWallet().PublicKey()
	payer := solana.NewWallet().PublicKey()
	require.NoError(t, e.InitializeMerchant(merchantWallet, "acme-store"))
	_, err := e.FundCustomer(payer, 100_000)
	require.NoError(t, err)

	require.NoError(t, e.ProcessPayment(payer, "acme-store", "pay_free", 33_333))

	receipt, err := e.Payment("pay_free")
	require.NoError(t, err)
	require.Zero(t, receipt.FeeAmount)
	require.Equal(t, uint64(33_333), receipt.NetAmount)

	treasuryBalance, err := e.TreasuryBalance()
	require.NoError(t, err)
	require.Zero(t, treasuryBalance)
}

func TestProcessPaymentFeeConservation(t *testing.T) {
	e, _ := newTestEngine(t)
	merchantWallet := solana.NewWallet().PublicKey()
	payer := solana.NewWallet().PublicKey()
	require.NoError(t, e.InitializeMerchant(merchantWallet, "acme-store"))
	_, err := e.FundCustomer(payer, 10_000_000_000)
	require.NoError(t, err)

	amounts := []uint64{10_000, 10_001, 19_999, 1_000_000, 999_999_937}
	for i, amount := range amounts {
		id := program.GeneratePaymentID()
		require.NoError(t, e.ProcessPayment(payer, "acme-store", id, amount))

		receipt, err := e.Payment(id)
		require.NoError(t, err)
		require.Equal(t, amount, receipt.FeeAmount+receipt.NetAmount, "amount %d (case %d)", amount, i)
	}
}

func TestClaimPlatformFees(t *testing.T) {
	e, authority := newTestEngine(t)
	merchantWallet := solana.NewWallet().PublicKey()
	payer := solana.NewWallet().PublicKey()
	require.NoError(t, e.InitializeMerchant(merchantWallet, "acme-store"))
	_, err := e.FundCustomer(payer, 100_000)
	require.NoError(t, err)
	require.NoError(t, e.ProcessPayment(payer, "acme-store", "pay_fees", 40_000))

	destWallet := solana.NewWallet().PublicKey()
	destATA, err := e.CreateTokenAccountFor(destWallet)
	require.NoError(t, err)

	intruder := solana.NewWallet().PublicKey()
	requireCode(t, e.ClaimPlatformFees(intruder, destATA), program.ErrUnauthorized)

	require.NoError(t, e.ClaimPlatformFees(authority, destATA))

	destBalance, err := e.TokenBalance(destATA)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000), destBalance)

	treasuryBalance, err := e.TreasuryBalance()
	require.NoError(t, err)
	require.Zero(t, treasuryBalance)

	// Lifetime totals survive the claim
	cfg, err := e.PlatformConfig()
	require.NoError(t, err)
	require.Equal(t, uint64(1_000), cfg.TotalFees)

	// Claiming an empty treasury is a no-op success
	require.NoError(t, e.ClaimPlatformFees(authority, destATA))
	destBalance, err = e.TokenBalance(destATA)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000), destBalance)
}

func TestTransferAuthority(t *testing.T) {
	e, authority := newTestEngine(t)
	next := solana.NewWallet().PublicKey()

	requireCode(t, e.TransferAuthority(next, next), program.ErrUnauthorized)
	require.NoError(t, e.TransferAuthority(authority, next))

	// Old key is locked out, new key is in control
	requireCode(t, e.SetPlatformConfig(authority, 100, 0), program.ErrUnauthorized)
	require.NoError(t, e.SetPlatformConfig(next, 100, 0))
}

func TestRefundPayment(t *testing.T) {
	e, authority := newTestEngine(t)
	merchantWallet := solana.NewWallet().PublicKey()
	payer := solana.NewWallet().PublicKey()
	require.NoError(t, e.InitializeMerchant(merchantWallet, "acme-store"))
	customerATA, err := e.FundCustomer(payer, 50_000)
	require.NoError(t, err)
	require.NoError(t, e.ProcessPayment(payer, "acme-store", "pay_refund", 20_000))

	intruder := solana.NewWallet().PublicKey()
	requireCode(t, e.RefundPayment(intruder, "pay_refund"), program.ErrUnauthorized)

	require.NoError(t, e.RefundPayment(authority, "pay_refund"))

	// Customer is made whole from merchant ATA and treasury
	customerBalance, err := e.TokenBalance(customerATA)
	require.NoError(t, err)
	require.Equal(t, uint64(50_000), customerBalance)

	treasuryBalance, err := e.TreasuryBalance()
	require.NoError(t, err)
	require.Zero(t, treasuryBalance)

	receipt, err := e.Payment("pay_refund")
	require.NoError(t, err)
	require.Equal(t, program.PaymentStatusRefunded, receipt.Status)

	// Lifetime counters stay monotonic
	cfg, err := e.PlatformConfig()
	require.NoError(t, err)
	require.Equal(t, uint64(20_000), cfg.TotalVolume)
	require.Equal(t, uint64(500), cfg.TotalFees)

	// A receipt can only be refunded once
	requireCode(t, e.RefundPayment(authority, "pay_refund"), program.ErrPaymentNotRefundable)
}

func TestProcessPayout(t *testing.T) {
	e, authority := newTestEngine(t)
	merchantWallet := solana.NewWallet().PublicKey()
	payer := solana.NewWallet().PublicKey()
	require.NoError(t, e.InitializeMerchant(merchantWallet, "acme-store"))
	_, err := e.FundCustomer(payer, 1_000_000)
	require.NoError(t, err)
	require.NoError(t, e.ProcessPayment(payer, "acme-store", "pay_big", 1_000_000))
	// Treasury now holds 25_000 (250 bps of 1_000_000)

	recipient := solana.NewWallet().PublicKey()

	intruder := solana.NewWallet().PublicKey()
	requireCode(t, e.ProcessPayout(intruder, recipient, "out_1", 10_000), program.ErrUnauthorized)
	requireCode(t, e.ProcessPayout(authority, recipient, "out_1", 0), program.ErrPaymentBelowMinimum)
	requireCode(t, e.ProcessPayout(authority, recipient, "out_1", 30_000), program.ErrInsufficientTreasuryBalance)

	require.NoError(t, e.ProcessPayout(authority, recipient, "out_1", 10_000))

	// Recipient ATA was created on demand
	recipientATA, err := program.GetAssociatedTokenAddress(recipient, testUSDCMint)
	require.NoError(t, err)
	balance, err := e.TokenBalance(recipientATA)
	require.NoError(t, err)
	require.Equal(t, uint64(10_000), balance)

	treasuryBalance, err := e.TreasuryBalance()
	require.NoError(t, err)
	require.Equal(t, uint64(15_000), treasuryBalance)
}
