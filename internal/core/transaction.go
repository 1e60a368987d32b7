package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type (
	// Entry is one side (debit or credit) of a transaction: a classification
	// plus a reference into the owner's chart. Sub is optional.
	Entry struct {
		Classification Classification `json:"classification"`
		Main           string         `json:"main"`
		Sub            string         `json:"sub,omitempty"`
	}

	// Transaction is a double-entry record owned by exactly one user.
	// Amount is always positive and normalized before persistence.
	Transaction struct {
		ID        string          `json:"id"`
		Debit     Entry           `json:"debit"`
		Credit    Entry           `json:"credit"`
		Amount    decimal.Decimal `json:"amount"`
		Date      time.Time       `json:"date"`
		OwnerID   string          `json:"user"`
		CreatedAt time.Time       `json:"createdAt"`
	}
)

// Validate checks the structural rules of an entry, independent of any chart.
func (e Entry) Validate() error {
	if !e.Classification.Valid() {
		return MissingFieldError(ErrUnknownClassification.Error())
	}
	if e.Main == "" {
		return MissingFieldError("the main field is required on each entry")
	}
	return nil
}

// Validate checks the transaction's structural rules against the given
// moment: all four mutable fields present, amount positive, and date not
// strictly after now. A date exactly equal to now is valid.
func (t Transaction) Validate(now time.Time) error {
	if err := t.Debit.Validate(); err != nil {
		return err
	}
	if err := t.Credit.Validate(); err != nil {
		return err
	}
	if !t.Amount.IsPositive() {
		return MissingFieldError("amount must be a positive number")
	}
	if t.Date.IsZero() {
		return MissingFieldError("the date field is required")
	}
	if t.Date.After(now) {
		return FutureDateError()
	}
	return nil
}

// ValidateAgainst runs the full pre-persist check: structural rules first,
// then both entries against the owner's chart, debit before credit.
func (t Transaction) ValidateAgainst(chart Chart, now time.Time) error {
	if err := t.Validate(now); err != nil {
		return err
	}
	if err := chart.ValidateEntry(t.Debit); err != nil {
		return err
	}
	return chart.ValidateEntry(t.Credit)
}
