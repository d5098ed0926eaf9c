package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "settlr.db"))
	require.NoError(t, err)
	return s
}

func TestRecordAndGetPayment(t *testing.T) {
	s := openTestStore(t)

	now := time.Now()
	require.NoError(t, s.RecordPayment(&PaymentRecord{
		PaymentID:   "pay_1",
		MerchantID:  "acme-store",
		Payer:       "wFuFPgHsLt9t5HALqFQqbdM9WvyQstdKN8NQXB3GWeD",
		Amount:      20_000,
		FeeAmount:   500,
		NetAmount:   19_500,
		Signature:   "sig1",
		Status:      "completed",
		ConfirmedAt: &now,
	}))

	rec, err := s.GetPayment("pay_1")
	require.NoError(t, err)
	require.Equal(t, "acme-store", rec.MerchantID)
	require.Equal(t, uint64(20_000), rec.Amount)
	require.Equal(t, "completed", rec.Status)
	require.NotNil(t, rec.ConfirmedAt)

	_, err = s.GetPayment("pay_missing")
	require.Error(t, err)
}

func TestRecordPaymentDuplicateIDRejected(t *testing.T) {
	s := openTestStore(t)

	rec := &PaymentRecord{PaymentID: "pay_dup", MerchantID: "acme-store", Amount: 1, Status: "completed"}
	require.NoError(t, s.RecordPayment(rec))

	// Unique index mirrors the on-chain idempotency guarantee
	err := s.RecordPayment(&PaymentRecord{PaymentID: "pay_dup", MerchantID: "acme-store", Amount: 2, Status: "completed"})
	require.Error(t, err)
}

func TestMarkRefunded(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.RecordPayment(&PaymentRecord{PaymentID: "pay_r", MerchantID: "acme-store", Status: "completed"}))
	require.NoError(t, s.MarkRefunded("pay_r"))

	rec, err := s.GetPayment("pay_r")
	require.NoError(t, err)
	require.Equal(t, "refunded", rec.Status)

	require.Error(t, s.MarkRefunded("pay_missing"))
}

func TestListByMerchant(t *testing.T) {
	s := openTestStore(t)

	for _, id := range []string{"pay_a", "pay_b", "pay_c"} {
		require.NoError(t, s.RecordPayment(&PaymentRecord{PaymentID: id, MerchantID: "acme-store", Status: "completed"}))
	}
	require.NoError(t, s.RecordPayment(&PaymentRecord{PaymentID: "pay_other", MerchantID: "other-store", Status: "completed"}))

	recs, err := s.ListByMerchant("acme-store", 0)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	recs, err = s.ListByMerchant("acme-store", 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	recs, err = s.ListByMerchant("nobody", 0)
	require.NoError(t, err)
	require.Empty(t, recs)
}
