package program

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Client - Client untuk interact dengan settlement program
type Client struct {
	rpcClient *rpc.Client
	programID solana.PublicKey
	usdcMint  solana.PublicKey
	network   string // "devnet", "mainnet", "localhost"
}

// NewClient - Create new settlement program client
func NewClient(rpcURL string, network string) (*Client, error) {
	return NewClientWithAddresses(rpcURL, network, "", "")
}

// NewClientWithAddresses creates a client with a custom program ID and
// mint, for local validators running their own deployment. Empty values
// fall back to the canonical addresses for the network.
func NewClientWithAddresses(rpcURL, network, programIDAddr, usdcMintAddr string) (*Client, error) {
	client := rpc.New(rpcURL)

	if programIDAddr == "" {
		programIDAddr = SettlementProgramID
	}
	programID, err := solana.PublicKeyFromBase58(programIDAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid program ID: %w", err)
	}

	// Select USDC mint based on network
	if usdcMintAddr == "" {
		if network == "mainnet" {
			usdcMintAddr = USDCMintMainnet
		} else {
			usdcMintAddr = USDCMintDevnet
		}
	}
	usdcMint, err := solana.PublicKeyFromBase58(usdcMintAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid USDC mint: %w", err)
	}

	return &Client{
		rpcClient: client,
		programID: programID,
		usdcMint:  usdcMint,
		network:   network,
	}, nil
}

// GetClient - Get RPC client
func (c *Client) GetClient() *rpc.Client {
	return c.rpcClient
}

// GetProgramID - Get program ID
func (c *Client) GetProgramID() solana.PublicKey {
	return c.programID
}

// GetUSDCMint - Get USDC mint address
func (c *Client) GetUSDCMint() solana.PublicKey {
	return c.usdcMint
}

// HealthCheck - Check RPC node health
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.rpcClient.GetHealth(ctx)
	return err
}

// GetPlatformConfig - Fetch platform config from blockchain
func (c *Client) GetPlatformConfig(ctx context.Context) (*PlatformConfig, error) {
	configPDA, _, err := DerivePlatformConfigPDA(c.programID)
	if err != nil {
		return nil, err
	}

	accountInfo, err := c.rpcClient.GetAccountInfo(ctx, configPDA)
	if err != nil {
		return nil, fmt.Errorf("failed to get platform config: %w", err)
	}
	if accountInfo.Value == nil {
		return nil, fmt.Errorf("platform config not found - run set_platform_config first")
	}

	return ParsePlatformConfigData(accountInfo.Value.Data.GetBinary())
}

// GetMerchant - Fetch merchant record from blockchain
func (c *Client) GetMerchant(ctx context.Context, merchantID string) (*Merchant, error) {
	merchantPDA, _, err := DeriveMerchantPDA(c.programID, merchantID)
	if err != nil {
		return nil, err
	}

	accountInfo, err := c.rpcClient.GetAccountInfo(ctx, merchantPDA)
	if err != nil {
		return nil, fmt.Errorf("failed to get merchant: %w", err)
	}
	if accountInfo.Value == nil {
		return nil, fmt.Errorf("merchant %q not found", merchantID)
	}

	return ParseMerchantData(accountInfo.Value.Data.GetBinary())
}

// GetPayment - Fetch payment receipt from blockchain
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	paymentPDA, _, err := DerivePaymentPDA(c.programID, paymentID)
	if err != nil {
		return nil, err
	}

	accountInfo, err := c.rpcClient.GetAccountInfo(ctx, paymentPDA)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if accountInfo.Value == nil {
		return nil, fmt.Errorf("payment %q not found", paymentID)
	}

	return ParsePaymentData(accountInfo.Value.Data.GetBinary())
}

// GetCustomer - Fetch customer statistics from blockchain
func (c *Client) GetCustomer(ctx context.Context, payer solana.PublicKey) (*Customer, error) {
	customerPDA, _, err := DeriveCustomerPDA(c.programID, payer)
	if err != nil {
		return nil, err
	}

	accountInfo, err := c.rpcClient.GetAccountInfo(ctx, customerPDA)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	if accountInfo.Value == nil {
		return nil, fmt.Errorf("customer %s not found", payer)
	}

	return ParseCustomerData(accountInfo.Value.Data.GetBinary())
}

// PaymentExists - Check whether a payment ID has already settled
func (c *Client) PaymentExists(ctx context.Context, paymentID string) (bool, error) {
	paymentPDA, _, err := DerivePaymentPDA(c.programID, paymentID)
	if err != nil {
		return false, err
	}

	accountInfo, err := c.rpcClient.GetAccountInfo(ctx, paymentPDA)
	if err != nil {
		// Account doesn't exist
		return false, nil
	}
	return accountInfo != nil && accountInfo.Value != nil, nil
}

// CreateTransaction creates unsigned transaction for single instruction
func (c *Client) CreateTransaction(
	ctx context.Context,
	instruction solana.Instruction,
	payer solana.PublicKey,
) (string, error) {
	return c.CreateTransactionWithInstructions(ctx, []solana.Instruction{instruction}, payer)
}

// CreateTransactionWithInstructions creates unsigned transaction for multiple instructions
func (c *Client) CreateTransactionWithInstructions(
	ctx context.Context,
	instructions []solana.Instruction,
	payer solana.PublicKey,
) (string, error) {
	recent, err := c.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("failed to get blockhash: %w", err)
	}

	// Build transaction
	tx, err := solana.NewTransaction(
		instructions,
		recent.Value.Blockhash,
		solana.TransactionPayer(payer),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create transaction: %w", err)
	}

	// Serialize to base64
	txBytes, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to serialize: %w", err)
	}

	return base64.StdEncoding.EncodeToString(txBytes), nil
}

// SignAndSend signs a single instruction with the given key and submits it
func (c *Client) SignAndSend(
	ctx context.Context,
	instruction solana.Instruction,
	signer solana.PrivateKey,
) (*TransactionResult, error) {
	latestBlockhash, err := c.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return nil, fmt.Errorf("failed to get blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{instruction},
		latestBlockhash.Value.Blockhash,
		solana.TransactionPayer(signer.PublicKey()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if signer.PublicKey().Equals(key) {
			return &signer
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := c.rpcClient.SendTransaction(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	return &TransactionResult{
		Signature:   sig.String(),
		Status:      StatusPending,
		ExplorerURL: c.getExplorerURL(sig.String()),
	}, nil
}

// SendSignedTransaction - Send signed transaction from client
func (c *Client) SendSignedTransaction(ctx context.Context, signedTxBase64 string) (string, error) {
	// Decode transaction
	txBytes, err := base64.StdEncoding.DecodeString(signedTxBase64)
	if err != nil {
		return "", fmt.Errorf("failed to decode transaction: %w", err)
	}

	// Parse transaction
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(txBytes))
	if err != nil {
		return "", fmt.Errorf("failed to parse transaction: %w", err)
	}

	// Send transaction
	sig, err := c.rpcClient.SendTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	return sig.String(), nil
}

// WaitForConfirmation - Wait for transaction confirmation with timeout
func (c *Client) WaitForConfirmation(ctx context.Context, signature string, timeoutSeconds int) error {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return fmt.Errorf("invalid signature: %w", err)
	}

	maxRetries := timeoutSeconds / 2 // Poll every 2 seconds
	for i := 0; i < maxRetries; i++ {
		status, err := c.rpcClient.GetSignatureStatuses(ctx, true, sig)
		if err == nil && status != nil && len(status.Value) > 0 && status.Value[0] != nil {
			txStatus := status.Value[0]

			// Check if confirmed or finalized
			if txStatus.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				txStatus.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				if txStatus.Err != nil {
					return fmt.Errorf("transaction failed: %v", txStatus.Err)
				}
				return nil
			}

			// Check if failed
			if txStatus.Err != nil {
				return fmt.Errorf("transaction failed: %v", txStatus.Err)
			}
		}

		// Wait 2 seconds before retry
		time.Sleep(2 * time.Second)
	}

	return fmt.Errorf("timeout waiting for confirmation after %d seconds", timeoutSeconds)
}

// GetTransactionStatus - Check transaction status
func (c *Client) GetTransactionStatus(ctx context.Context, signature string) (*TransactionResult, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature: %w", err)
	}

	status, err := c.rpcClient.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return nil, fmt.Errorf("failed to get signature status: %w", err)
	}

	if status == nil || len(status.Value) == 0 || status.Value[0] == nil {
		return &TransactionResult{
			Signature:   signature,
			Status:      StatusPending,
			ExplorerURL: c.getExplorerURL(signature),
		}, nil
	}

	txStatus := status.Value[0]
	result := &TransactionResult{
		Signature:   signature,
		ExplorerURL: c.getExplorerURL(signature),
	}

	if txStatus.Err != nil {
		errMsg := fmt.Sprintf("%v", txStatus.Err)
		result.Status = StatusFailed
		result.Error = &errMsg
	} else if txStatus.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
		result.Status = StatusFinalized
	} else if txStatus.ConfirmationStatus == rpc.ConfirmationStatusConfirmed {
		result.Status = StatusConfirmed
	} else {
		result.Status = StatusPending
	}

	return result, nil
}

// getExplorerURL - Generate explorer URL
func (c *Client) getExplorerURL(signature string) string {
	if c.network == "mainnet" {
		return fmt.Sprintf(ExplorerURLMainnet, signature)
	}
	return fmt.Sprintf(ExplorerURLDevnet, signature)
}
