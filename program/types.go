package program

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// PaymentStatus - Status pembayaran yang tersimpan di receipt
type PaymentStatus uint8

const (
	PaymentStatusCompleted PaymentStatus = 0
	PaymentStatusRefunded  PaymentStatus = 1
)

func (s PaymentStatus) String() string {
	switch s {
	case PaymentStatusCompleted:
		return "completed"
	case PaymentStatusRefunded:
		return "refunded"
	default:
		return "unknown"
	}
}

// PlatformConfig - Global platform configuration account (singleton PDA)
type PlatformConfig struct {
	Authority        solana.PublicKey
	UsdcMint         solana.PublicKey
	FeeBps           uint64
	MinPaymentAmount uint64
	IsActive         bool
	TotalVolume      uint64
	TotalFees        uint64
	Bump             uint8
	TreasuryBump     uint8
}

// Merchant - Per-merchant record account
type Merchant struct {
	MerchantID       string
	SettlementWallet solana.PublicKey
	TotalVolume      uint64
	TotalPayments    uint64
	Bump             uint8
}

// Customer - Per-payer aggregate statistics account
type Customer struct {
	Owner        solana.PublicKey
	TotalSpent   uint64
	PaymentCount uint64
	Bump         uint8
}

// Payment - Immutable settlement receipt account
type Payment struct {
	PaymentID string
	Payer     solana.PublicKey
	Merchant  solana.PublicKey
	Amount    uint64
	FeeAmount uint64
	NetAmount uint64
	Timestamp int64
	Status    PaymentStatus
	Bump      uint8
}

// SetPlatformConfigParams - Parameters for set_platform_config
type SetPlatformConfigParams struct {
	FeeBps           uint64
	MinPaymentAmount uint64
}

// InitializeMerchantParams - Parameters for initialize_merchant
type InitializeMerchantParams struct {
	MerchantID       string
	SettlementWallet solana.PublicKey
}

// ProcessPaymentParams - Parameters for process_payment
type ProcessPaymentParams struct {
	PaymentID  string
	Amount     uint64
	Payer      solana.PublicKey
	MerchantID string
}

// ProcessPayoutParams - Parameters for process_payout
type ProcessPayoutParams struct {
	PayoutID  string
	Amount    uint64
	Recipient solana.PublicKey
}

// PaymentInfo - Full receipt info returned to API callers
type PaymentInfo struct {
	PaymentID string    `json:"payment_id"`
	Payer     string    `json:"payer"`
	Merchant  string    `json:"merchant"`
	Amount    uint64    `json:"amount"`
	FeeAmount uint64    `json:"fee_amount"`
	NetAmount uint64    `json:"net_amount"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// MerchantInfo - Merchant record info returned to API callers
type MerchantInfo struct {
	MerchantID       string `json:"merchant_id"`
	SettlementWallet string `json:"settlement_wallet"`
	TotalVolume      uint64 `json:"total_volume"`
	TotalPayments    uint64 `json:"total_payments"`
}

// PlatformInfo - Platform config info returned to API callers
type PlatformInfo struct {
	Authority        string `json:"authority"`
	UsdcMint         string `json:"usdc_mint"`
	FeeBps           uint64 `json:"fee_bps"`
	MinPaymentAmount uint64 `json:"min_payment_amount"`
	IsActive         bool   `json:"is_active"`
	TotalVolume      uint64 `json:"total_volume"`
	TotalFees        uint64 `json:"total_fees"`
}

// TransactionStatus - Status transaksi
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusConfirmed TransactionStatus = "confirmed"
	StatusFinalized TransactionStatus = "finalized"
	StatusFailed    TransactionStatus = "failed"
)

// TransactionResult - Hasil transaksi
type TransactionResult struct {
	Signature   string            `json:"signature"`
	Status      TransactionStatus `json:"status"`
	Error       *string           `json:"error,omitempty"`
	ExplorerURL string            `json:"explorer_url"`
}
