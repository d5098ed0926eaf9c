package program

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// getAnchorDiscriminator - Generate Anchor instruction discriminator
// Anchor uses: sha256("global:<method_name>")[:8]
func getAnchorDiscriminator(methodName string) []byte {
	hash := sha256.Sum256([]byte("global:" + methodName))
	return hash[:8]
}

// Anchor instruction discriminators
var (
	DiscriminatorSetPlatformConfig  = getAnchorDiscriminator("set_platform_config")
	DiscriminatorInitializeMerchant = getAnchorDiscriminator("initialize_merchant")
	DiscriminatorProcessPayment     = getAnchorDiscriminator("process_payment")
	DiscriminatorClaimPlatformFees  = getAnchorDiscriminator("claim_platform_fees")
	DiscriminatorRefundPayment      = getAnchorDiscriminator("refund_payment")
	DiscriminatorTransferAuthority  = getAnchorDiscriminator("transfer_authority")
	DiscriminatorProcessPayout      = getAnchorDiscriminator("process_payout")
)

// appendUint64 - Append u64 as little-endian (borsh)
func appendUint64(data []byte, v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return append(data, b...)
}

// appendString - Append string as borsh (u32 LE length prefix + bytes)
func appendString(data []byte, s string) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(len(s)))
	data = append(data, b...)
	return append(data, []byte(s)...)
}

// BuildSetPlatformConfigInstruction - Build set_platform_config instruction.
// Creates the config and treasury on first call, updates fee parameters after.
func BuildSetPlatformConfigInstruction(
	programID solana.PublicKey,
	authority solana.PublicKey,
	usdcMint solana.PublicKey,
	feeBps uint64,
	minPaymentAmount uint64,
) (solana.Instruction, error) {
	platformConfig, _, err := DerivePlatformConfigPDA(programID)
	if err != nil {
		return nil, err
	}
	platformTreasury, _, err := DerivePlatformTreasuryPDA(programID)
	if err != nil {
		return nil, err
	}

	data := append([]byte{}, DiscriminatorSetPlatformConfig...)
	data = appendUint64(data, feeBps)
	data = appendUint64(data, minPaymentAmount)

	// Account order MUST match the program's InitializePlatform struct:
	// 1. authority, 2. platform_config, 3. platform_treasury,
	// 4. token_mint, 5. system_program, 6. token_program
	accounts := []*solana.AccountMeta{
		solana.Meta(authority).SIGNER().WRITE(),
		solana.Meta(platformConfig).WRITE(),
		solana.Meta(platformTreasury).WRITE(),
		solana.Meta(usdcMint),
		solana.Meta(SystemProgramID),
		solana.Meta(TokenProgramID),
	}

	return solana.NewInstruction(programID, accounts, data), nil
}

// BuildInitializeMerchantInstruction - Build initialize_merchant instruction
func BuildInitializeMerchantInstruction(
	programID solana.PublicKey,
	payer solana.PublicKey,
	settlementWallet solana.PublicKey,
	merchantID string,
) (solana.Instruction, error) {
	merchantPDA, bump, err := DeriveMerchantPDA(programID, merchantID)
	if err != nil {
		return nil, err
	}
	platformConfig, _, err := DerivePlatformConfigPDA(programID)
	if err != nil {
		return nil, err
	}

	data := append([]byte{}, DiscriminatorInitializeMerchant...)
	data = appendString(data, merchantID)
	data = append(data, bump)

	// Account order MUST match the program's InitializeMerchant struct:
	// 1. payer, 2. merchant_account, 3. platform_config,
	// 4. settlement_wallet, 5. system_program
	accounts := []*solana.AccountMeta{
		solana.Meta(payer).SIGNER().WRITE(),
		solana.Meta(merchantPDA).WRITE(),
		solana.Meta(platformConfig),
		solana.Meta(settlementWallet),
		solana.Meta(SystemProgramID),
	}

	return solana.NewInstruction(programID, accounts, data), nil
}

// BuildProcessPaymentInstruction - Build process_payment instruction.
// The merchant ATA is created on demand by the program, so it only needs to
// be derivable here, not to exist yet.
func BuildProcessPaymentInstruction(
	programID solana.PublicKey,
	payer solana.PublicKey,
	usdcMint solana.PublicKey,
	merchantID string,
	settlementWallet solana.PublicKey,
	paymentID string,
	amount uint64,
) (solana.Instruction, error) {
	platformConfig, _, err := DerivePlatformConfigPDA(programID)
	if err != nil {
		return nil, err
	}
	paymentPDA, _, err := DerivePaymentPDA(programID, paymentID)
	if err != nil {
		return nil, err
	}
	customerPDA, _, err := DeriveCustomerPDA(programID, payer)
	if err != nil {
		return nil, err
	}
	merchantPDA, _, err := DeriveMerchantPDA(programID, merchantID)
	if err != nil {
		return nil, err
	}
	platformTreasury, _, err := DerivePlatformTreasuryPDA(programID)
	if err != nil {
		return nil, err
	}
	customerTokenAccount, err := GetAssociatedTokenAddress(payer, usdcMint)
	if err != nil {
		return nil, err
	}
	merchantTokenAccount, err := GetAssociatedTokenAddress(settlementWallet, usdcMint)
	if err != nil {
		return nil, err
	}

	data := append([]byte{}, DiscriminatorProcessPayment...)
	data = appendString(data, paymentID)
	data = appendUint64(data, amount)

	// Account order MUST match the program's ProcessPayment struct:
	// 1. payer, 2. platform_config, 3. payment_account, 4. customer_account,
	// 5. merchant_account, 6. token_mint, 7. customer_token_account,
	// 8. merchant_token_account, 9. platform_treasury, 10. token_program,
	// 11. associated_token_program, 12. system_program
	accounts := []*solana.AccountMeta{
		solana.Meta(payer).SIGNER().WRITE(),
		solana.Meta(platformConfig).WRITE(),
		solana.Meta(paymentPDA).WRITE(),
		solana.Meta(customerPDA).WRITE(),
		solana.Meta(merchantPDA).WRITE(),
		solana.Meta(usdcMint),
		solana.Meta(customerTokenAccount).WRITE(),
		solana.Meta(merchantTokenAccount).WRITE(),
		solana.Meta(platformTreasury).WRITE(),
		solana.Meta(TokenProgramID),
		solana.Meta(AssociatedTokenProgID),
		solana.Meta(SystemProgramID),
	}

	return solana.NewInstruction(programID, accounts, data), nil
}

// BuildClaimPlatformFeesInstruction - Build claim_platform_fees instruction
func BuildClaimPlatformFeesInstruction(
	programID solana.PublicKey,
	authority solana.PublicKey,
	destination solana.PublicKey,
) (solana.Instruction, error) {
	platformConfig, _, err := DerivePlatformConfigPDA(programID)
	if err != nil {
		return nil, err
	}
	platformTreasury, _, err := DerivePlatformTreasuryPDA(programID)
	if err != nil {
		return nil, err
	}

	// Only the discriminator - claim takes no arguments
	data := DiscriminatorClaimPlatformFees

	// Account order MUST match the program's ClaimPlatformFees struct:
	// 1. authority, 2. platform_config, 3. platform_treasury,
	// 4. destination, 5. token_program
	accounts := []*solana.AccountMeta{
		solana.Meta(authority).SIGNER().WRITE(),
		solana.Meta(platformConfig),
		solana.Meta(platformTreasury).WRITE(),
		solana.Meta(destination).WRITE(),
		solana.Meta(TokenProgramID),
	}

	return solana.NewInstruction(programID, accounts, data), nil
}

// BuildRefundPaymentInstruction - Build refund_payment instruction.
// Reverses a completed payment: net amount from merchant ATA back to the
// customer ATA, fee portion from the treasury back to the customer ATA.
func BuildRefundPaymentInstruction(
	programID solana.PublicKey,
	authority solana.PublicKey,
	usdcMint solana.PublicKey,
	paymentID string,
	payer solana.PublicKey,
	settlementWallet solana.PublicKey,
) (solana.Instruction, error) {
	platformConfig, _, err := DerivePlatformConfigPDA(programID)
	if err != nil {
		return nil, err
	}
	paymentPDA, _, err := DerivePaymentPDA(programID, paymentID)
	if err != nil {
		return nil, err
	}
	platformTreasury, _, err := DerivePlatformTreasuryPDA(programID)
	if err != nil {
		return nil, err
	}
	customerTokenAccount, err := GetAssociatedTokenAddress(payer, usdcMint)
	if err != nil {
		return nil, err
	}
	merchantTokenAccount, err := GetAssociatedTokenAddress(settlementWallet, usdcMint)
	if err != nil {
		return nil, err
	}

	// Only the discriminator - refund takes no arguments
	data := DiscriminatorRefundPayment

	// Account order MUST match the program's RefundPayment struct:
	// 1. authority, 2. platform_config, 3. payment_account,
	// 4. customer_token_account, 5. merchant_token_account,
	// 6. platform_treasury, 7. token_program
	accounts := []*solana.AccountMeta{
		solana.Meta(authority).SIGNER().WRITE(),
		solana.Meta(platformConfig),
		solana.Meta(paymentPDA).WRITE(),
		solana.Meta(customerTokenAccount).WRITE(),
		solana.Meta(merchantTokenAccount).WRITE(),
		solana.Meta(platformTreasury).WRITE(),
		solana.Meta(TokenProgramID),
	}

	return solana.NewInstruction(programID, accounts, data), nil
}

// BuildTransferAuthorityInstruction - Build transfer_authority instruction
func BuildTransferAuthorityInstruction(
	programID solana.PublicKey,
	authority solana.PublicKey,
	newAuthority solana.PublicKey,
) (solana.Instruction, error) {
	platformConfig, _, err := DerivePlatformConfigPDA(programID)
	if err != nil {
		return nil, err
	}

	// Only the discriminator - transfer takes no arguments
	data := DiscriminatorTransferAuthority

	// Account order MUST match the program's TransferAuthority struct:
	// 1. authority, 2. new_authority, 3. platform_config
	accounts := []*solana.AccountMeta{
		solana.Meta(authority).SIGNER().WRITE(),
		solana.Meta(newAuthority),
		solana.Meta(platformConfig).WRITE(),
	}

	return solana.NewInstruction(programID, accounts, data), nil
}

// BuildProcessPayoutInstruction - Build process_payout instruction.
// Releases escrowed treasury USDC to an arbitrary recipient wallet.
func BuildProcessPayoutInstruction(
	programID solana.PublicKey,
	authority solana.PublicKey,
	usdcMint solana.PublicKey,
	recipient solana.PublicKey,
	payoutID string,
	amount uint64,
) (solana.Instruction, error) {
	platformConfig, _, err := DerivePlatformConfigPDA(programID)
	if err != nil {
		return nil, err
	}
	platformTreasury, _, err := DerivePlatformTreasuryPDA(programID)
	if err != nil {
		return nil, err
	}
	recipientTokenAccount, err := GetAssociatedTokenAddress(recipient, usdcMint)
	if err != nil {
		return nil, err
	}

	data := append([]byte{}, DiscriminatorProcessPayout...)
	data = appendUint64(data, amount)
	data = appendString(data, payoutID)

	// Account order MUST match the program's ProcessPayout struct:
	// 1. authority, 2. platform_config, 3. platform_treasury,
	// 4. recipient_usdc, 5. recipient, 6. usdc_mint, 7. token_program,
	// 8. associated_token_program, 9. system_program
	accounts := []*solana.AccountMeta{
		solana.Meta(authority).SIGNER().WRITE(),
		solana.Meta(platformConfig),
		solana.Meta(platformTreasury).WRITE(),
		solana.Meta(recipientTokenAccount).WRITE(),
		solana.Meta(recipient),
		solana.Meta(usdcMint),
		solana.Meta(TokenProgramID),
		solana.Meta(AssociatedTokenProgID),
		solana.Meta(SystemProgramID),
	}

	return solana.NewInstruction(programID, accounts, data), nil
}
