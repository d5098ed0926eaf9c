package program

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// DerivePlatformConfigPDA - Derive the singleton platform config PDA
func DerivePlatformConfigPDA(programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	pda, bump, err := solana.FindProgramAddress(
		[][]byte{
			SeedPlatformConfig,
		},
		programID,
	)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive platform config PDA: %w", err)
	}
	return pda, bump, nil
}

// DerivePlatformTreasuryPDA - Derive the treasury token account PDA
func DerivePlatformTreasuryPDA(programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	pda, bump, err := solana.FindProgramAddress(
		[][]byte{
			SeedPlatformTreasury,
		},
		programID,
	)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive platform treasury PDA: %w", err)
	}
	return pda, bump, nil
}

// DeriveMerchantPDA - Derive merchant PDA from its identifier
func DeriveMerchantPDA(programID solana.PublicKey, merchantID string) (solana.PublicKey, uint8, error) {
	pda, bump, err := solana.FindProgramAddress(
		[][]byte{
			SeedMerchant,
			[]byte(merchantID),
		},
		programID,
	)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive merchant PDA: %w", err)
	}
	return pda, bump, nil
}

// DerivePaymentPDA - Derive payment receipt PDA from its identifier
func DerivePaymentPDA(programID solana.PublicKey, paymentID string) (solana.PublicKey, uint8, error) {
	pda, bump, err := solana.FindProgramAddress(
		[][]byte{
			SeedPayment,
			[]byte(paymentID),
		},
		programID,
	)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive payment PDA: %w", err)
	}
	return pda, bump, nil
}

// DeriveCustomerPDA - Derive customer PDA from the payer wallet
func DeriveCustomerPDA(programID, payer solana.PublicKey) (solana.PublicKey, uint8, error) {
	pda, bump, err := solana.FindProgramAddress(
		[][]byte{
			SeedCustomer,
			payer.Bytes(),
		},
		programID,
	)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive customer PDA: %w", err)
	}
	return pda, bump, nil
}

// GetAssociatedTokenAddress - Derive Associated Token Account address for a wallet and mint
func GetAssociatedTokenAddress(wallet solana.PublicKey, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindProgramAddress(
		[][]byte{
			wallet.Bytes(),
			TokenProgramID.Bytes(),
			mint.Bytes(),
		},
		AssociatedTokenProgID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive ATA: %w", err)
	}
	return ata, nil
}
