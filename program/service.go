package program

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// SetPlatformConfig - Create or update the platform configuration.
// First call creates the config and treasury; the caller becomes authority.
func (c *Client) SetPlatformConfig(
	ctx context.Context,
	authority solana.PrivateKey,
	feeBps uint64,
	minPaymentAmount uint64,
) (*TransactionResult, error) {
	if feeBps > MaxFeeBps {
		return nil, NewError(ErrInvalidFeeBps)
	}

	instruction, err := BuildSetPlatformConfigInstruction(
		c.programID, authority.PublicKey(), c.usdcMint, feeBps, minPaymentAmount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build instruction: %w", err)
	}

	return c.SignAndSend(ctx, instruction, authority)
}

// InitializeMerchant - Register a merchant with its settlement wallet.
// Fails on-chain if the merchant ID is already taken.
func (c *Client) InitializeMerchant(
	ctx context.Context,
	payer solana.PrivateKey,
	settlementWallet solana.PublicKey,
	merchantID string,
) (*TransactionResult, error) {
	if !ValidateID(merchantID) {
		return nil, NewError(ErrInvalidMerchantID)
	}

	instruction, err := BuildInitializeMerchantInstruction(
		c.programID, payer.PublicKey(), settlementWallet, merchantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build instruction: %w", err)
	}

	return c.SignAndSend(ctx, instruction, payer)
}

// ProcessPayment - Settle a payment from the payer to a merchant.
// An empty paymentID gets a generated one; the ID used is returned so the
// caller can retry the exact same logical payment safely.
func (c *Client) ProcessPayment(
	ctx context.Context,
	payer solana.PrivateKey,
	merchantID string,
	paymentID string,
	amount uint64,
) (string, *TransactionResult, error) {
	if paymentID == "" {
		paymentID = GeneratePaymentID()
	}
	if !ValidateID(paymentID) {
		return "", nil, NewError(ErrInvalidPaymentID)
	}

	// Merchant record supplies the settlement wallet for ATA derivation
	merchant, err := c.GetMerchant(ctx, merchantID)
	if err != nil {
		return "", nil, err
	}

	instruction, err := BuildProcessPaymentInstruction(
		c.programID, payer.PublicKey(), c.usdcMint,
		merchantID, merchant.SettlementWallet, paymentID, amount,
	)
	if err != nil {
		return "", nil, fmt.Errorf("failed to build instruction: %w", err)
	}

	result, err := c.SignAndSend(ctx, instruction, payer)
	if err != nil {
		return paymentID, nil, err
	}
	return paymentID, result, nil
}

// CreateUnsignedPayment - Build an unsigned process_payment transaction for
// client-side signing (checkout flows where the customer wallet signs).
func (c *Client) CreateUnsignedPayment(
	ctx context.Context,
	payer solana.PublicKey,
	merchantID string,
	paymentID string,
	amount uint64,
) (string, string, error) {
	if paymentID == "" {
		paymentID = GeneratePaymentID()
	}
	if !ValidateID(paymentID) {
		return "", "", NewError(ErrInvalidPaymentID)
	}

	merchant, err := c.GetMerchant(ctx, merchantID)
	if err != nil {
		return "", "", err
	}

	instruction, err := BuildProcessPaymentInstruction(
		c.programID, payer, c.usdcMint,
		merchantID, merchant.SettlementWallet, paymentID, amount,
	)
	if err != nil {
		return "", "", fmt.Errorf("failed to build instruction: %w", err)
	}

	unsignedTx, err := c.CreateTransaction(ctx, instruction, payer)
	if err != nil {
		return "", "", err
	}
	return paymentID, unsignedTx, nil
}

// ClaimPlatformFees - Drain the treasury to the destination wallet's ATA.
// Skips submission when the treasury is already empty.
func (c *Client) ClaimPlatformFees(
	ctx context.Context,
	authority solana.PrivateKey,
	destinationWallet solana.PublicKey,
) (*TransactionResult, error) {
	treasuryPDA, _, err := DerivePlatformTreasuryPDA(c.programID)
	if err != nil {
		return nil, err
	}

	// Zero-balance claims are a waste of a transaction fee
	balance, err := c.rpcClient.GetTokenAccountBalance(ctx, treasuryPDA, rpc.CommitmentConfirmed)
	if err == nil && balance != nil && balance.Value != nil && balance.Value.Amount == "0" {
		return nil, fmt.Errorf("treasury is empty - nothing to claim")
	}

	destination, err := GetAssociatedTokenAddress(destinationWallet, c.usdcMint)
	if err != nil {
		return nil, err
	}

	instruction, err := BuildClaimPlatformFeesInstruction(c.programID, authority.PublicKey(), destination)
	if err != nil {
		return nil, fmt.Errorf("failed to build instruction: %w", err)
	}

	return c.SignAndSend(ctx, instruction, authority)
}

// RefundPayment - Reverse a completed payment by its ID
func (c *Client) RefundPayment(
	ctx context.Context,
	authority solana.PrivateKey,
	paymentID string,
) (*TransactionResult, error) {
	receipt, err := c.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if receipt.Status != PaymentStatusCompleted {
		return nil, NewError(ErrPaymentNotRefundable)
	}

	// The receipt stores the merchant PDA; resolve its settlement wallet
	merchantInfo, err := c.rpcClient.GetAccountInfo(ctx, receipt.Merchant)
	if err != nil {
		return nil, fmt.Errorf("failed to get merchant: %w", err)
	}
	if merchantInfo.Value == nil {
		return nil, fmt.Errorf("merchant account %s not found", receipt.Merchant)
	}
	merchant, err := ParseMerchantData(merchantInfo.Value.Data.GetBinary())
	if err != nil {
		return nil, err
	}

	instruction, err := BuildRefundPaymentInstruction(
		c.programID, authority.PublicKey(), c.usdcMint,
		paymentID, receipt.Payer, merchant.SettlementWallet,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build instruction: %w", err)
	}

	return c.SignAndSend(ctx, instruction, authority)
}

// TransferAuthority - Hand the platform authority to a new key
func (c *Client) TransferAuthority(
	ctx context.Context,
	authority solana.PrivateKey,
	newAuthority solana.PublicKey,
) (*TransactionResult, error) {
	instruction, err := BuildTransferAuthorityInstruction(c.programID, authority.PublicKey(), newAuthority)
	if err != nil {
		return nil, fmt.Errorf("failed to build instruction: %w", err)
	}

	return c.SignAndSend(ctx, instruction, authority)
}

// ProcessPayout - Release treasury USDC to a recipient wallet
func (c *Client) ProcessPayout(
	ctx context.Context,
	authority solana.PrivateKey,
	recipient solana.PublicKey,
	payoutID string,
	amount uint64,
) (string, *TransactionResult, error) {
	if payoutID == "" {
		payoutID = GeneratePayoutID()
	}
	if !ValidateID(payoutID) {
		return "", nil, NewError(ErrInvalidPaymentID)
	}

	instruction, err := BuildProcessPayoutInstruction(
		c.programID, authority.PublicKey(), c.usdcMint, recipient, payoutID, amount,
	)
	if err != nil {
		return "", nil, fmt.Errorf("failed to build instruction: %w", err)
	}

	result, err := c.SignAndSend(ctx, instruction, authority)
	if err != nil {
		return payoutID, nil, err
	}
	return payoutID, result, nil
}
