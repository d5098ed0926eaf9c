package settlement

import (
	"bytes"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"settlr/program"
)

var (
	ErrUnknownInstruction = errors.New("unknown instruction discriminator")
	ErrWrongProgram       = errors.New("instruction targets a different program")
	ErrMissingSigner      = errors.New("required signer is missing")
)

// Execute decodes a built instruction - discriminator, borsh arguments and
// account metas - and dispatches it to the matching handler. This is the
// same byte format the on-chain program consumes, so anything the builders
// in the program package produce runs here unchanged.
func (e *Engine) Execute(ix solana.Instruction) error {
	if !ix.ProgramID().Equals(e.programID) {
		return ErrWrongProgram
	}
	data, err := ix.Data()
	if err != nil {
		return fmt.Errorf("failed to read instruction data: %w", err)
	}
	if len(data) < 8 {
		return ErrUnknownInstruction
	}
	disc, args := data[:8], data[8:]
	accounts := ix.Accounts()

	switch {
	case bytes.Equal(disc, program.DiscriminatorSetPlatformConfig):
		return e.executeSetPlatformConfig(accounts, args)
	case bytes.Equal(disc, program.DiscriminatorInitializeMerchant):
		return e.executeInitializeMerchant(accounts, args)
	case bytes.Equal(disc, program.DiscriminatorProcessPayment):
		return e.executeProcessPayment(accounts, args)
	case bytes.Equal(disc, program.DiscriminatorClaimPlatformFees):
		return e.executeClaimPlatformFees(accounts)
	case bytes.Equal(disc, program.DiscriminatorRefundPayment):
		return e.executeRefundPayment(accounts)
	case bytes.Equal(disc, program.DiscriminatorTransferAuthority):
		return e.executeTransferAuthority(accounts)
	case bytes.Equal(disc, program.DiscriminatorProcessPayout):
		return e.executeProcessPayout(accounts, args)
	default:
		return ErrUnknownInstruction
	}
}

func signerAt(accounts []*solana.AccountMeta, idx int) (solana.PublicKey, error) {
	if idx >= len(accounts) {
		return solana.PublicKey{}, fmt.Errorf("account index %d out of range", idx)
	}
	meta := accounts[idx]
	if !meta.IsSigner {
		return solana.PublicKey{}, ErrMissingSigner
	}
	return meta.PublicKey, nil
}

func keyAt(accounts []*solana.AccountMeta, idx int) (solana.PublicKey, error) {
	if idx >= len(accounts) {
		return solana.PublicKey{}, fmt.Errorf("account index %d out of range", idx)
	}
	return accounts[idx].PublicKey, nil
}

func (e *Engine) executeSetPlatformConfig(accounts []*solana.AccountMeta, argData []byte) error {
	var args struct {
		FeeBps           uint64
		MinPaymentAmount uint64
	}
	if err := bin.UnmarshalBorsh(&args, argData); err != nil {
		return fmt.Errorf("failed to decode set_platform_config args: %w", err)
	}
	authority, err := signerAt(accounts, 0)
	if err != nil {
		return err
	}
	return e.SetPlatformConfig(authority, args.FeeBps, args.MinPaymentAmount)
}

func (e *Engine) executeInitializeMerchant(accounts []*solana.AccountMeta, argData []byte) error {
	var args struct {
		MerchantID string
		Bump       uint8
	}
	if err := bin.UnmarshalBorsh(&args, argData); err != nil {
		return fmt.Errorf("failed to decode initialize_merchant args: %w", err)
	}
	if _, err := signerAt(accounts, 0); err != nil {
		return err
	}
	settlementWallet, err := keyAt(accounts, 3)
	if err != nil {
		return err
	}
	return e.InitializeMerchant(settlementWallet, args.MerchantID)
}

func (e *Engine) executeProcessPayment(accounts []*solana.AccountMeta, argData []byte) error {
	var args struct {
		PaymentID string
		Amount    uint64
	}
	if err := bin.UnmarshalBorsh(&args, argData); err != nil {
		return fmt.Errorf("failed to decode process_payment args: %w", err)
	}
	payer, err := signerAt(accounts, 0)
	if err != nil {
		return err
	}

	// The instruction carries the merchant PDA; recover the ID from the
	// record so the handler can re-derive and verify the address.
	merchantPDA, err := keyAt(accounts, 4)
	if err != nil {
		return err
	}
	merchantData, err := e.ledger.GetAccount(merchantPDA)
	if err != nil {
		return fmt.Errorf("merchant account: %w", err)
	}
	merchant, err := program.ParseMerchantData(merchantData)
	if err != nil {
		return err
	}

	return e.ProcessPayment(payer, merchant.MerchantID, args.PaymentID, args.Amount)
}

func (e *Engine) executeClaimPlatformFees(accounts []*solana.AccountMeta) error {
	authority, err := signerAt(accounts, 0)
	if err != nil {
		return err
	}
	destination, err := keyAt(accounts, 3)
	if err != nil {
		return err
	}
	return e.ClaimPlatformFees(authority, destination)
}

func (e *Engine) executeRefundPayment(accounts []*solana.AccountMeta) error {
	authority, err := signerAt(accounts, 0)
	if err != nil {
		return err
	}
	paymentPDA, err := keyAt(accounts, 2)
	if err != nil {
		return err
	}
	receiptData, err := e.ledger.GetAccount(paymentPDA)
	if err != nil {
		return fmt.Errorf("payment account: %w", err)
	}
	receipt, err := program.ParsePaymentData(receiptData)
	if err != nil {
		return err
	}
	return e.RefundPayment(authority, receipt.PaymentID)
}

func (e *Engine) executeTransferAuthority(accounts []*solana.AccountMeta) error {
	authority, err := signerAt(accounts, 0)
	if err != nil {
		return err
	}
	newAuthority, err := keyAt(accounts, 1)
	if err != nil {
		return err
	}
	return e.TransferAuthority(authority, newAuthority)
}

func (e *Engine) executeProcessPayout(accounts []*solana.AccountMeta, argData []byte) error {
	var args struct {
		Amount   uint64
		PayoutID string
	}
	if err := bin.UnmarshalBorsh(&args, argData); err != nil {
		return fmt.Errorf("failed to decode process_payout args: %w", err)
	}
	authority, err := signerAt(accounts, 0)
	if err != nil {
		return err
	}
	recipient, err := keyAt(accounts, 4)
	if err != nil {
		return err
	}
	return e.ProcessPayout(authority, recipient, args.PayoutID, args.Amount)
}
