package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gagliardetto/solana-go"

	"settlr/config"
	"settlr/program"
)

// Operator CLI for the platform authority. The authority keypair comes from
// SETTLR_AUTHORITY_KEY (base58) so it never lands in shell history.
//
// Usage:
//
//	admin [-config settlr.toml] set-config -fee-bps 250 -min-payment 10000
//	admin claim-fees -destination <wallet>
//	admin transfer-authority -new-authority <pubkey>
//	admin refund -payment-id <id>
//	admin payout -recipient <wallet> -amount 25.00
//	admin platform-info
func main() {
	configPath := flag.String("config", "settlr.toml", "path to TOML config file")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("usage: admin [-config path] <set-config|claim-fees|transfer-authority|refund|payout|platform-info> [options]")
	}
	command := flag.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	client, err := program.NewClientWithAddresses(cfg.RPCURL, cfg.Network, cfg.ProgramID, cfg.USDCMint)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	fmt.Printf("✅ Connected to Solana %s\n", cfg.Network)
	fmt.Printf("Program ID: %s\n\n", client.GetProgramID())

	switch command {
	case "set-config":
		runSetConfig(ctx, client, flag.Args()[1:])
	case "claim-fees":
		runClaimFees(ctx, client, flag.Args()[1:])
	case "transfer-authority":
		runTransferAuthority(ctx, client, flag.Args()[1:])
	case "refund":
		runRefund(ctx, client, flag.Args()[1:])
	case "payout":
		runPayout(ctx, client, flag.Args()[1:])
	case "platform-info":
		runPlatformInfo(ctx, client)
	default:
		log.Fatalf("unknown command %q", command)
	}
}

func authorityKey() solana.PrivateKey {
	raw := os.Getenv("SETTLR_AUTHORITY_KEY")
	if raw == "" {
		log.Fatal("SETTLR_AUTHORITY_KEY is not set")
	}
	key, err := solana.PrivateKeyFromBase58(raw)
	if err != nil {
		log.Fatalf("Invalid authority key: %v", err)
	}
	return key
}

func printResult(result *program.TransactionResult) {
	fmt.Printf("✅ Transaction sent: %s\n", result.Signature)
	fmt.Printf("Explorer: %s\n", result.ExplorerURL)
}

func runSetConfig(ctx context.Context, client *program.Client, args []string) {
	fs := flag.NewFlagSet("set-config", flag.ExitOnError)
	feeBps := fs.Uint64("fee-bps", 0, "platform fee in basis points (0-10000)")
	minPayment := fs.String("min-payment", "0", "minimum payment in USDC, e.g. 0.01")
	fs.Parse(args)

	minAmount, err := program.ParseUSDC(*minPayment)
	if err != nil {
		log.Fatalf("Invalid min-payment: %v", err)
	}

	result, err := client.SetPlatformConfig(ctx, authorityKey(), *feeBps, minAmount)
	if err != nil {
		log.Fatalf("set-config failed: %v", err)
	}
	printResult(result)
}

func runClaimFees(ctx context.Context, client *program.Client, args []string) {
	fs := flag.NewFlagSet("claim-fees", flag.ExitOnError)
	destination := fs.String("destination", "", "wallet to receive the accumulated fees")
	fs.Parse(args)

	wallet, err := solana.PublicKeyFromBase58(*destination)
	if err != nil {
		log.Fatalf("Invalid destination: %v", err)
	}

	result, err := client.ClaimPlatformFees(ctx, authorityKey(), wallet)
	if err != nil {
		log.Fatalf("claim-fees failed: %v", err)
	}
	printResult(result)
}

func runTransferAuthority(ctx context.Context, client *program.Client, args []string) {
	fs := flag.NewFlagSet("transfer-authority", flag.ExitOnError)
	newAuthority := fs.String("new-authority", "", "public key of the new platform authority")
	fs.Parse(args)

	pubkey, err := solana.PublicKeyFromBase58(*newAuthority)
	if err != nil {
		log.Fatalf("Invalid new-authority: %v", err)
	}

	result, err := client.TransferAuthority(ctx, authorityKey(), pubkey)
	if err != nil {
		log.Fatalf("transfer-authority failed: %v", err)
	}
	printResult(result)
}

func runRefund(ctx context.Context, client *program.Client, args []string) {
	fs := flag.NewFlagSet("refund", flag.ExitOnError)
	paymentID := fs.String("payment-id", "", "payment ID to refund")
	fs.Parse(args)

	result, err := client.RefundPayment(ctx, authorityKey(), *paymentID)
	if err != nil {
		log.Fatalf("refund failed: %v", err)
	}
	printResult(result)
}

func runPayout(ctx context.Context, client *program.Client, args []string) {
	fs := flag.NewFlagSet("payout", flag.ExitOnError)
	recipient := fs.String("recipient", "", "wallet to receive the payout")
	amountUSDC := fs.String("amount", "", "payout amount in USDC, e.g. 25.00")
	payoutID := fs.String("payout-id", "", "payout ID (generated when empty)")
	fs.Parse(args)

	wallet, err := solana.PublicKeyFromBase58(*recipient)
	if err != nil {
		log.Fatalf("Invalid recipient: %v", err)
	}
	amount, err := program.ParseUSDC(*amountUSDC)
	if err != nil {
		log.Fatalf("Invalid amount: %v", err)
	}

	id, result, err := client.ProcessPayout(ctx, authorityKey(), wallet, *payoutID, amount)
	if err != nil {
		log.Fatalf("payout failed: %v", err)
	}
	fmt.Printf("Payout ID: %s\n", id)
	printResult(result)
}

func runPlatformInfo(ctx context.Context, client *program.Client) {
	cfg, err := client.GetPlatformConfig(ctx)
	if err != nil {
		log.Fatalf("platform-info failed: %v", err)
	}

	fmt.Println("📋 Platform Configuration:")
	fmt.Printf("Authority:   %s\n", cfg.Authority)
	fmt.Printf("USDC Mint:   %s\n", cfg.UsdcMint)
	fmt.Printf("Fee:         %d bps\n", cfg.FeeBps)
	fmt.Printf("Min Payment: %s USDC\n", program.FormatUSDC(cfg.MinPaymentAmount))
	fmt.Printf("Active:      %v\n", cfg.IsActive)
	fmt.Printf("Volume:      %s USDC\n", program.FormatUSDC(cfg.TotalVolume))
	fmt.Printf("Fees:        %s USDC\n", program.FormatUSDC(cfg.TotalFees))
}
