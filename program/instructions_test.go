package program

import (
	"crypto/sha256"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func TestAnchorDiscriminators(t *testing.T) {
	// Anchor derives instruction discriminators as sha256("global:<name>")[:8]
	hash := sha256.Sum256([]byte("global:process_payment"))
	require.Equal(t, hash[:8], DiscriminatorProcessPayment)

	seen := map[string]string{}
	for name, disc := range map[string][]byte{
		"set_platform_config": DiscriminatorSetPlatformConfig,
		"initialize_merchant": DiscriminatorInitializeMerchant,
		"process_payment":     DiscriminatorProcessPayment,
		"claim_platform_fees": DiscriminatorClaimPlatformFees,
		"refund_payment":      DiscriminatorRefundPayment,
		"transfer_authority":  DiscriminatorTransferAuthority,
		"process_payout":      DiscriminatorProcessPayout,
	} {
		require.Len(t, disc, 8, name)
		prev, dup := seen[string(disc)]
		require.False(t, dup, "%s and %s share a discriminator", name, prev)
		seen[string(disc)] = name
	}
}

func TestBuildSetPlatformConfigInstruction(t *testing.T) {
	authority := solana.NewWallet().PublicKey()
	mint := solana.MustPublicKeyFromBase58(USDCMintDevnet)

	ix, err := BuildSetPlatformConfigInstruction(testProgramID, authority, mint, 250, 10_000)
	require.NoError(t, err)
	require.Equal(t, testProgramID, ix.ProgramID())

	accounts := ix.Accounts()
	require.Len(t, accounts, 6)

	configPDA, _, _ := DerivePlatformConfigPDA(testProgramID)
	treasuryPDA, _, _ := DerivePlatformTreasuryPDA(testProgramID)

	require.Equal(t, authority, accounts[0].PublicKey)
	require.True(t, accounts[0].IsSigner)
	require.True(t, accounts[0].IsWritable)
	require.Equal(t, configPDA, accounts[1].PublicKey)
	require.True(t, accounts[1].IsWritable)
	require.Equal(t, treasuryPDA, accounts[2].PublicKey)
	require.Equal(t, mint, accounts[3].PublicKey)
	require.Equal(t, SystemProgramID, accounts[4].PublicKey)
	require.Equal(t, TokenProgramID, accounts[5].PublicKey)

	data, err := ix.Data()
	require.NoError(t, err)
	require.Equal(t, DiscriminatorSetPlatformConfig, data[:8])

	var args struct {
		FeeBps           uint64
		MinPaymentAmount uint64
	}
	require.NoError(t, bin.UnmarshalBorsh(&args, data[8:]))
	require.Equal(t, uint64(250), args.FeeBps)
	require.Equal(t, uint64(10_000), args.MinPaymentAmount)
}

func TestBuildInitializeMerchantInstruction(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	wallet := solana.NewWallet().PublicKey()

	ix, err := BuildInitializeMerchantInstruction(testProgramID, payer, wallet, "acme-store")
	require.NoError(t, err)

	accounts := ix.Accounts()
	require.Len(t, accounts, 5)

	merchantPDA, bump, _ := DeriveMerchantPDA(testProgramID, "acme-store")

	require.Equal(t, payer, accounts[0].PublicKey)
	require.True(t, accounts[0].IsSigner)
	require.Equal(t, merchantPDA, accounts[1].PublicKey)
	require.True(t, accounts[1].IsWritable)
	require.Equal(t, wallet, accounts[3].PublicKey)
	require.False(t, accounts[3].IsWritable)
	require.Equal(t, SystemProgramID, accounts[4].PublicKey)

	data, err := ix.Data()
	require.NoError(t, err)
	require.Equal(t, DiscriminatorInitializeMerchant, data[:8])

	var args struct {
		MerchantID string
		Bump       uint8
	}
	require.NoError(t, bin.UnmarshalBorsh(&args, data[8:]))
	require.Equal(t, "acme-store", args.MerchantID)
	require.Equal(t, bump, args.Bump)
}

func TestBuildProcessPaymentInstruction(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	wallet := solana.NewWallet().PublicKey()
	mint := solana.MustPublicKeyFromBase58(USDCMintDevnet)

	ix, err := BuildProcessPaymentInstruction(testProgramID, payer, mint, "acme-store", wallet, "pay_42", 20_000)
	require.NoError(t, err)

	accounts := ix.Accounts()
	require.Len(t, accounts, 12)

	paymentPDA, _, _ := DerivePaymentPDA(testProgramID, "pay_42")
	customerPDA, _, _ := DeriveCustomerPDA(testProgramID, payer)
	merchantPDA, _, _ := DeriveMerchantPDA(testProgramID, "acme-store")
	customerATA, _ := GetAssociatedTokenAddress(payer, mint)
	merchantATA, _ := GetAssociatedTokenAddress(wallet, mint)
	treasuryPDA, _, _ := DerivePlatformTreasuryPDA(testProgramID)

	require.Equal(t, payer, accounts[0].PublicKey)
	require.True(t, accounts[0].IsSigner)
	require.Equal(t, paymentPDA, accounts[2].PublicKey)
	require.Equal(t, customerPDA, accounts[3].PublicKey)
	require.Equal(t, merchantPDA, accounts[4].PublicKey)
	require.Equal(t, mint, accounts[5].PublicKey)
	require.False(t, accounts[5].IsWritable)
	require.Equal(t, customerATA, accounts[6].PublicKey)
	require.Equal(t, merchantATA, accounts[7].PublicKey)
	require.Equal(t, treasuryPDA, accounts[8].PublicKey)
	require.Equal(t, TokenProgramID, accounts[9].PublicKey)
	require.Equal(t, AssociatedTokenProgID, accounts[10].PublicKey)
	require.Equal(t, SystemProgramID, accounts[11].PublicKey)

	data, err := ix.Data()
	require.NoError(t, err)
	require.Equal(t, DiscriminatorProcessPayment, data[:8])

	var args struct {
		PaymentID string
		Amount    uint64
	}
	require.NoError(t, bin.UnmarshalBorsh(&args, data[8:]))
	require.Equal(t, "pay_42", args.PaymentID)
	require.Equal(t, uint64(20_000), args.Amount)
}

func TestBuildClaimPlatformFeesInstruction(t *testing.T) {
	authority := solana.NewWallet().PublicKey()
	destination := solana.NewWallet().PublicKey()

	ix, err := BuildClaimPlatformFeesInstruction(testProgramID, authority, destination)
	require.NoError(t, err)

	accounts := ix.Accounts()
	require.Len(t, accounts, 5)
	require.Equal(t, authority, accounts[0].PublicKey)
	require.True(t, accounts[0].IsSigner)
	require.Equal(t, destination, accounts[3].PublicKey)
	require.True(t, accounts[3].IsWritable)

	// No arguments, just the discriminator
	data, err := ix.Data()
	require.NoError(t, err)
	require.Equal(t, DiscriminatorClaimPlatformFees, data)
}

func TestBuildProcessPayoutInstructionArgOrder(t *testing.T) {
	authority := solana.NewWallet().PublicKey()
	recipient := solana.NewWallet().PublicKey()
	mint := solana.MustPublicKeyFromBase58(USDCMintDevnet)

	ix, err := BuildProcessPayoutInstruction(testProgramID, authority, mint, recipient, "out_7", 5_000)
	require.NoError(t, err)

	accounts := ix.Accounts()
	require.Len(t, accounts, 9)
	require.Equal(t, recipient, accounts[4].PublicKey)

	data, err := ix.Data()
	require.NoError(t, err)
	require.Equal(t, DiscriminatorProcessPayout, data[:8])

	// Wire order is amount first, then payout ID
	var args struct {
		Amount   uint64
		PayoutID string
	}
	require.NoError(t, bin.UnmarshalBorsh(&args, data[8:]))
	require.Equal(t, uint64(5_000), args.Amount)
	require.Equal(t, "out_7", args.PayoutID)
}
