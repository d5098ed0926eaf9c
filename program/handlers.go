package program

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"

	"settlr/store"
)

// Gateway exposes the payment flow over HTTP. Transactions are built here
// and signed on the client side; confirmed payments are mirrored to the store.
type Gateway struct {
	Client *Client
	Store  *store.Store
}

func NewGateway(client *Client, st *store.Store) *Gateway {
	return &Gateway{Client: client, Store: st}
}

type CreatePaymentRequest struct {
	PayerAddress string `json:"payer_address"`
	MerchantID   string `json:"merchant_id"`
	PaymentID    string `json:"payment_id,omitempty"` // generated when empty
	AmountUSDC   string `json:"amount_usdc"`          // decimal string, e.g. "10.50"
}

type RegisterMerchantRequest struct {
	PayerAddress     string `json:"payer_address"`
	SettlementWallet string `json:"settlement_wallet"`
	MerchantID       string `json:"merchant_id"`
}

type SendTransactionRequest struct {
	SignedTransaction string `json:"signed_transaction"`
	PaymentID         string `json:"payment_id,omitempty"` // mirrored to the store when set
	MerchantID        string `json:"merchant_id,omitempty"`
}

// Response type
type Response struct {
	Success        bool     `json:"success"`
	Message        string   `json:"message,omitempty"`
	UnsignedTx     string   `json:"unsigned_tx,omitempty"`
	TransactionSig string   `json:"transaction_sig,omitempty"`
	PaymentID      string   `json:"payment_id,omitempty"`
	ErrorCode      *int     `json:"error_code,omitempty"`
	ProgramLogs    []string `json:"program_logs,omitempty"`
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// HandleCreatePayment builds an unsigned process_payment transaction
func (g *Gateway) HandleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, Response{Success: false, Message: fmt.Sprintf("Invalid request: %v", err)})
		return
	}
	if req.MerchantID == "" || req.AmountUSDC == "" {
		writeJSON(w, Response{Success: false, Message: "merchant_id and amount_usdc are required"})
		return
	}

	payer, err := solana.PublicKeyFromBase58(req.PayerAddress)
	if err != nil {
		writeJSON(w, Response{Success: false, Message: fmt.Sprintf("Invalid payer address: %v", err)})
		return
	}

	amount, err := ParseUSDC(req.AmountUSDC)
	if err != nil {
		writeJSON(w, Response{Success: false, Message: fmt.Sprintf("Invalid amount: %v", err)})
		return
	}

	paymentID, unsignedTx, err := g.Client.CreateUnsignedPayment(r.Context(), payer, req.MerchantID, req.PaymentID, amount)
	if err != nil {
		writeJSON(w, Response{Success: false, Message: err.Error()})
		return
	}

	writeJSON(w, Response{
		Success:    true,
		Message:    fmt.Sprintf("Payment %s for %s USDC created. Sign on client side.", paymentID, FormatUSDC(amount)),
		UnsignedTx: unsignedTx,
		PaymentID:  paymentID,
	})
}

// HandleRegisterMerchant builds an unsigned initialize_merchant transaction
func (g *Gateway) HandleRegisterMerchant(w http.ResponseWriter, r *http.Request) {
	var req RegisterMerchantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, Response{Success: false, Message: fmt.Sprintf("Invalid request: %v", err)})
		return
	}
	if !ValidateID(req.MerchantID) {
		writeJSON(w, Response{Success: false, Message: fmt.Sprintf("Invalid merchant_id: must be 1-%d characters", MaxIDLength)})
		return
	}

	payer, err := solana.PublicKeyFromBase58(req.PayerAddress)
	if err != nil {
		writeJSON(w, Response{Success: false, Message: fmt.Sprintf("Invalid payer address: %v", err)})
		return
	}
	settlementWallet, err := solana.PublicKeyFromBase58(req.SettlementWallet)
	if err != nil {
		writeJSON(w, Response{Success: false, Message: fmt.Sprintf("Invalid settlement wallet: %v", err)})
		return
	}

	instruction, err := BuildInitializeMerchantInstruction(g.Client.GetProgramID(), payer, settlementWallet, req.MerchantID)
	if err != nil {
		writeJSON(w, Response{Success: false, Message: err.Error()})
		return
	}

	unsignedTx, err := g.Client.CreateTransaction(r.Context(), instruction, payer)
	if err != nil {
		writeJSON(w, Response{Success: false, Message: err.Error()})
		return
	}

	writeJSON(w, Response{
		Success:    true,
		Message:    fmt.Sprintf("Merchant %s registration transaction created. Sign on client side.", req.MerchantID),
		UnsignedTx: unsignedTx,
	})
}

// HandleSendTransaction submits a signed transaction. When a payment_id is
// supplied the confirmed receipt is fetched back and mirrored to the store.
func (g *Gateway) HandleSendTransaction(w http.ResponseWriter, r *http.Request) {
	var req SendTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, Response{Success: false, Message: fmt.Sprintf("Invalid request: %v", err)})
		return
	}

	sig, err := g.Client.SendSignedTransaction(r.Context(), req.SignedTransaction)
	if err != nil {
		response := Response{Success: false, Message: ParseProgramError(err)}
		if code := ExtractErrorCode(err); code != nil {
			response.ErrorCode = code
		}
		if logs := ExtractLogMessages(err); len(logs) > 0 {
			response.ProgramLogs = logs
		}
		errStr := err.Error()
		if strings.Contains(errStr, "BlockhashNotFound") ||
			strings.Contains(errStr, "Blockhash not found") {
			response.Message = "Transaction expired. Please request a new unsigned transaction and try again."
			response.ErrorCode = nil
		}
		writeJSON(w, response)
		return
	}

	if req.PaymentID != "" {
		g.mirrorPayment(r, req.PaymentID, req.MerchantID, sig)
	}

	writeJSON(w, Response{
		Success:        true,
		Message:        "Transaction sent successfully",
		TransactionSig: sig,
		PaymentID:      req.PaymentID,
	})
}

// mirrorPayment waits for confirmation and copies the on-chain receipt into
// the store. Failures only get logged server side via the error message in
// the record being skipped - the transaction itself already succeeded.
func (g *Gateway) mirrorPayment(r *http.Request, paymentID, merchantID, sig string) {
	if g.Store == nil {
		return
	}
	if err := g.Client.WaitForConfirmation(r.Context(), sig, 30); err != nil {
		return
	}
	receipt, err := g.Client.GetPayment(r.Context(), paymentID)
	if err != nil {
		return
	}
	now := time.Now()
	g.Store.RecordPayment(&store.PaymentRecord{
		PaymentID:   receipt.PaymentID,
		MerchantID:  merchantID,
		Payer:       receipt.Payer.String(),
		Amount:      receipt.Amount,
		FeeAmount:   receipt.FeeAmount,
		NetAmount:   receipt.NetAmount,
		Signature:   sig,
		Status:      receipt.Status.String(),
		ConfirmedAt: &now,
	})
}

// HandleGetPayment returns the on-chain receipt for ?payment_id=
func (g *Gateway) HandleGetPayment(w http.ResponseWriter, r *http.Request) {
	paymentID := r.URL.Query().Get("payment_id")
	if paymentID == "" {
		writeJSON(w, Response{Success: false, Message: "payment_id is required"})
		return
	}

	receipt, err := g.Client.GetPayment(r.Context(), paymentID)
	if err != nil {
		writeJSON(w, Response{Success: false, Message: err.Error()})
		return
	}

	writeJSON(w, PaymentInfo{
		PaymentID: receipt.PaymentID,
		Payer:     receipt.Payer.String(),
		Merchant:  receipt.Merchant.String(),
		Amount:    receipt.Amount,
		FeeAmount: receipt.FeeAmount,
		NetAmount: receipt.NetAmount,
		Status:    receipt.Status.String(),
		Timestamp: time.Unix(receipt.Timestamp, 0).UTC(),
	})
}

// HandleGetMerchant returns the merchant record for ?merchant_id=
func (g *Gateway) HandleGetMerchant(w http.ResponseWriter, r *http.Request) {
	merchantID := r.URL.Query().Get("merchant_id")
	if merchantID == "" {
		writeJSON(w, Response{Success: false, Message: "merchant_id is required"})
		return
	}

	merchant, err := g.Client.GetMerchant(r.Context(), merchantID)
	if err != nil {
		writeJSON(w, Response{Success: false, Message: err.Error()})
		return
	}

	writeJSON(w, MerchantInfo{
		MerchantID:       merchant.MerchantID,
		SettlementWallet: merchant.SettlementWallet.String(),
		TotalVolume:      merchant.TotalVolume,
		TotalPayments:    merchant.TotalPayments,
	})
}

// HandleGetPlatform returns the platform configuration
func (g *Gateway) HandleGetPlatform(w http.ResponseWriter, r *http.Request) {
	config, err := g.Client.GetPlatformConfig(r.Context())
	if err != nil {
		writeJSON(w, Response{Success: false, Message: err.Error()})
		return
	}

	writeJSON(w, PlatformInfo{
		Authority:        config.Authority.String(),
		UsdcMint:         config.UsdcMint.String(),
		FeeBps:           config.FeeBps,
		MinPaymentAmount: config.MinPaymentAmount,
		IsActive:         config.IsActive,
		TotalVolume:      config.TotalVolume,
		TotalFees:        config.TotalFees,
	})
}

// HandlePaymentHistory returns mirrored receipts for ?merchant_id=&limit=
func (g *Gateway) HandlePaymentHistory(w http.ResponseWriter, r *http.Request) {
	if g.Store == nil {
		writeJSON(w, Response{Success: false, Message: "payment history is not enabled"})
		return
	}
	merchantID := r.URL.Query().Get("merchant_id")
	if merchantID == "" {
		writeJSON(w, Response{Success: false, Message: "merchant_id is required"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := g.Store.ListByMerchant(merchantID, limit)
	if err != nil {
		writeJSON(w, Response{Success: false, Message: err.Error()})
		return
	}
	writeJSON(w, records)
}

// HandleGetTransactionStatus returns the status of ?signature=
func (g *Gateway) HandleGetTransactionStatus(w http.ResponseWriter, r *http.Request) {
	signature := r.URL.Query().Get("signature")
	if signature == "" {
		writeJSON(w, Response{Success: false, Message: "signature is required"})
		return
	}

	result, err := g.Client.GetTransactionStatus(r.Context(), signature)
	if err != nil {
		writeJSON(w, Response{Success: false, Message: err.Error()})
		return
	}
	writeJSON(w, result)
}
