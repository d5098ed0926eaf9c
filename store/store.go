package store

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// PaymentRecord - Off-chain mirror of a confirmed settlement receipt.
// Populated after a process_payment transaction confirms so merchants can
// query history without hitting the RPC node for every receipt.
type PaymentRecord struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	PaymentID   string     `gorm:"uniqueIndex;size:64" json:"payment_id"`
	MerchantID  string     `gorm:"index;size:64" json:"merchant_id"`
	Payer       string     `gorm:"index;size:44" json:"payer"`
	Amount      uint64     `json:"amount"`
	FeeAmount   uint64     `json:"fee_amount"`
	NetAmount   uint64     `json:"net_amount"`
	Signature   string     `gorm:"index;size:88" json:"signature"`
	Status      string     `gorm:"index;size:20" json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
}

func (PaymentRecord) TableName() string {
	return "payment_records"
}

// Store wraps the receipt mirror database
type Store struct {
	db *gorm.DB
}

// Open opens (and migrates) the sqlite-backed store
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if err := db.AutoMigrate(&PaymentRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}
	return &Store{db: db}, nil
}

// RecordPayment inserts a confirmed receipt. The unique index on payment_id
// keeps the mirror consistent with the on-chain idempotency guarantee.
func (s *Store) RecordPayment(rec *PaymentRecord) error {
	if err := s.db.Create(rec).Error; err != nil {
		return fmt.Errorf("failed to record payment %q: %w", rec.PaymentID, err)
	}
	return nil
}

// MarkRefunded flips a mirrored receipt to refunded
func (s *Store) MarkRefunded(paymentID string) error {
	res := s.db.Model(&PaymentRecord{}).
		Where("payment_id = ?", paymentID).
		Update("status", "refunded")
	if res.Error != nil {
		return fmt.Errorf("failed to mark payment %q refunded: %w", paymentID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("payment %q not found", paymentID)
	}
	return nil
}

// GetPayment returns a mirrored receipt by payment ID
func (s *Store) GetPayment(paymentID string) (*PaymentRecord, error) {
	var rec PaymentRecord
	if err := s.db.Where("payment_id = ?", paymentID).First(&rec).Error; err != nil {
		return nil, fmt.Errorf("failed to load payment %q: %w", paymentID, err)
	}
	return &rec, nil
}

// ListByMerchant returns the most recent receipts for a merchant
func (s *Store) ListByMerchant(merchantID string, limit int) ([]PaymentRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var recs []PaymentRecord
	err := s.db.Where("merchant_id = ?", merchantID).
		Order("created_at desc").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payments for merchant %q: %w", merchantID, err)
	}
	return recs, nil
}
