package program

import "github.com/gagliardetto/solana-go"

// Program IDs
const (
	// Settlement Program ID (dari declare_id di program Solana)
	SettlementProgramID = "339A4zncMj8fbM2zvEopYXu6TZqRieJKebDiXCKwquA5"

	// USDC Mint Address (Devnet)
	USDCMintDevnet = "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU"

	// USDC Mint Address (Mainnet)
	USDCMintMainnet = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

// PDA Seeds
var (
	SeedPlatformConfig   = []byte("platform_config")
	SeedPlatformTreasury = []byte("platform_treasury")
	SeedMerchant         = []byte("merchant")
	SeedPayment          = []byte("payment")
	SeedCustomer         = []byte("customer")
)

// Limits
const (
	// Fee denominator: 10000 bps = 100%
	BpsDenominator = 10_000

	// Max fee rate accepted by set_platform_config
	MaxFeeBps = 10_000

	// Max length for merchant_id / payment_id / payout_id
	MaxIDLength = 64

	// USDC uses 6 decimals
	USDCDecimals = 6
)

// System Program IDs
var (
	SystemProgramID       = solana.MustPublicKeyFromBase58("11111111111111111111111111111111")
	TokenProgramID        = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	AssociatedTokenProgID = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	SysVarRentID          = solana.MustPublicKeyFromBase58("SysvarRent111111111111111111111111111111111")
)

// Explorer URLs
const (
	ExplorerURLDevnet  = "https://explorer.solana.com/tx/%s?cluster=devnet"
	ExplorerURLMainnet = "https://explorer.solana.com/tx/%s"
)

// RPC URLs
const (
	RPCURLDevnet    = "https://api.devnet.solana.com"
	RPCURLMainnet   = "https://api.mainnet-beta.solana.com"
	RPCURLLocalhost = "http://localhost:8899"
)
