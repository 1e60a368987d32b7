package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validTransaction(now time.Time) Transaction {
	return Transaction{
		ID:      "tx-1",
		Debit:   Entry{Classification: Expense, Main: "housing", Sub: "rent"},
		Credit:  Entry{Classification: Account, Main: "cash"},
		Amount:  decimal.NewFromFloat(12.3),
		Date:    now.Add(-time.Hour),
		OwnerID: "user-1",
	}
}

func TestTransactionValidate(t *testing.T) {
	now := time.Now()

	if err := validTransaction(now).Validate(now); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	t.Run("date equal to now is valid", func(t *testing.T) {
		tx := validTransaction(now)
		tx.Date = now
		if err := tx.Validate(now); err != nil {
			t.Fatalf("expected ok for date == now, got %v", err)
		}
	})

	t.Run("date one second in the future fails", func(t *testing.T) {
		tx := validTransaction(now)
		tx.Date = now.Add(time.Second)
		err := tx.Validate(now)
		if !IsKind(err, KindFutureDatedTransaction) {
			t.Fatalf("expected future-dated error, got %v", err)
		}
	})

	t.Run("missing fields fail", func(t *testing.T) {
		cases := []struct {
			name   string
			mutate func(*Transaction)
		}{
			{"no debit classification", func(tx *Transaction) { tx.Debit.Classification = "" }},
			{"no credit main", func(tx *Transaction) { tx.Credit.Main = "" }},
			{"zero amount", func(tx *Transaction) { tx.Amount = decimal.Zero }},
			{"negative amount", func(tx *Transaction) { tx.Amount = decimal.NewFromInt(-5) }},
			{"zero date", func(tx *Transaction) { tx.Date = time.Time{} }},
		}
		for _, tc := range cases {
			tx := validTransaction(now)
			tc.mutate(&tx)
			err := tx.Validate(now)
			if !IsKind(err, KindMissingRequiredField) {
				t.Errorf("%s: expected missing-field error, got %v", tc.name, err)
			}
		}
	})
}

func TestTransactionValidateAgainst(t *testing.T) {
	now := time.Now()
	chart := testChart()

	tx := validTransaction(now)
	if err := tx.ValidateAgainst(chart, now); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	t.Run("debit failure surfaces before credit failure", func(t *testing.T) {
		tx := validTransaction(now)
		tx.Debit.Main = "nope-debit"
		tx.Credit.Main = "nope-credit"
		err := tx.ValidateAgainst(chart, now)
		if !IsKind(err, KindUnsupportedLedgerReference) {
			t.Fatalf("expected unsupported-reference error, got %v", err)
		}
		if got := err.Error(); !contains(got, "nope-debit") {
			t.Fatalf("expected the debit failure to surface first, got %q", got)
		}
	})

	t.Run("credit validated when debit passes", func(t *testing.T) {
		tx := validTransaction(now)
		tx.Credit.Sub = "bonus"
		err := tx.ValidateAgainst(chart, now)
		if !IsKind(err, KindUnsupportedLedgerReference) {
			t.Fatalf("expected unsupported-reference error, got %v", err)
		}
	})
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
