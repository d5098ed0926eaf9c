package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"settlr/config"
	"settlr/program"
	"settlr/store"
)

func main() {
	configPath := flag.String("config", "settlr.toml", "path to TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// Initialize Solana client
	client, err := program.NewClientWithAddresses(cfg.RPCURL, cfg.Network, cfg.ProgramID, cfg.USDCMint)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.HealthCheck(ctx); err != nil {
		log.Fatalf("Solana health check failed: %v", err)
	}

	// Receipt mirror database
	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}

	gateway := program.NewGateway(client, st)

	// Payment routes
	http.HandleFunc("/api/v1/payment/create", gateway.HandleCreatePayment)
	http.HandleFunc("/api/v1/payment/status", gateway.HandleGetPayment)
	http.HandleFunc("/api/v1/payment/history", gateway.HandlePaymentHistory)

	// Merchant routes
	http.HandleFunc("/api/v1/merchant/register", gateway.HandleRegisterMerchant)
	http.HandleFunc("/api/v1/merchant/info", gateway.HandleGetMerchant)

	// Platform + transaction routes
	http.HandleFunc("/api/v1/platform/info", gateway.HandleGetPlatform)
	http.HandleFunc("/api/v1/transaction/send", gateway.HandleSendTransaction)
	http.HandleFunc("/api/v1/transaction/status", gateway.HandleGetTransactionStatus)

	// Health endpoint
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	log.Printf("🚀 Settlr starting on port %s", cfg.ListenPort)
	log.Printf("✅ Solana %s connected (%s)", cfg.Network, cfg.RPCURL)
	log.Printf("✅ Program %s", client.GetProgramID())
	if err := http.ListenAndServe(":"+cfg.ListenPort, nil); err != nil {
		log.Fatal(err)
	}
}
