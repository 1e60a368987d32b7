package core

import (
	"errors"
	"fmt"
)

const (
	Account Classification = "account"
	Income  Classification = "income"
	Expense Classification = "expense"
)

type (
	// Classification selects which of a user's chart lists a ledger entry
	// references: the accounts list or one of the two category lists.
	Classification string

	// ChartEntry is one configured account or category: a unique identifier,
	// a display color, and an ordered set of sub-labels.
	ChartEntry struct {
		ID    string   `json:"id"`
		Color string   `json:"color"`
		Subs  []string `json:"subs"`
	}

	// Chart is a user's configured accounts and income/expense categories.
	// It is read-only from the ledger's perspective; mutation happens only
	// through user-profile operations.
	Chart struct {
		Accounts []ChartEntry `json:"accounts"`
		Income   []ChartEntry `json:"income"`
		Expense  []ChartEntry `json:"expense"`
	}
)

var ErrUnknownClassification = errors.New(`classification must be "account", "income", or "expense"`)

func (c Classification) Valid() bool {
	switch c {
	case Account, Income, Expense:
		return true
	}
	return false
}

// ListFor returns the chart list a classification dispatches to.
func (c Chart) ListFor(classification Classification) ([]ChartEntry, error) {
	switch classification {
	case Account:
		return c.Accounts, nil
	case Income:
		return c.Income, nil
	case Expense:
		return c.Expense, nil
	default:
		return nil, ErrUnknownClassification
	}
}

// Find looks up a chart entry by exact, case-sensitive ID match.
func (c Chart) Find(classification Classification, id string) (ChartEntry, bool) {
	list, err := c.ListFor(classification)
	if err != nil {
		return ChartEntry{}, false
	}
	for _, entry := range list {
		if entry.ID == id {
			return entry, true
		}
	}
	return ChartEntry{}, false
}

// ValidateEntry checks a ledger entry against the chart: Main must match an
// entry ID in the list selected by the classification, and Sub, when set,
// must match one of that entry's sub-labels. An unset Sub passes.
func (c Chart) ValidateEntry(e Entry) error {
	entry, ok := c.Find(e.Classification, e.Main)
	if !ok {
		return UnsupportedReferenceError(e.Classification, e.Main, e.Sub)
	}
	if e.Sub == "" {
		return nil
	}
	for _, sub := range entry.Subs {
		if sub == e.Sub {
			return nil
		}
	}
	return UnsupportedReferenceError(e.Classification, e.Main, e.Sub)
}

// Validate enforces structural invariants on the chart itself: every list
// holds at least two entries and IDs are unique within their list.
func (c Chart) Validate() error {
	lists := []struct {
		name    string
		entries []ChartEntry
	}{
		{"accounts", c.Accounts},
		{"income categories", c.Income},
		{"expense categories", c.Expense},
	}
	for _, l := range lists {
		if len(l.entries) < 2 {
			return fmt.Errorf("there must be at least two %s", l.name)
		}
		seen := make(map[string]bool, len(l.entries))
		for _, entry := range l.entries {
			if entry.ID == "" {
				return fmt.Errorf("%s contain an entry with an empty id", l.name)
			}
			if seen[entry.ID] {
				return fmt.Errorf("%s contain a duplicate id %q", l.name, entry.ID)
			}
			seen[entry.ID] = true
		}
	}
	return nil
}

// DefaultChart is the chart seeded for a newly registered user.
func DefaultChart() Chart {
	return Chart{
		Accounts: []ChartEntry{
			{ID: "cash", Color: "green", Subs: []string{}},
			{ID: "bank", Color: "red", Subs: []string{}},
		},
		Income: []ChartEntry{
			{ID: "wages", Color: "green", Subs: []string{}},
			{ID: "interests & dividends", Color: "green", Subs: []string{}},
			{ID: "sale", Color: "green", Subs: []string{}},
			{ID: "rental income", Color: "green", Subs: []string{}},
			{ID: "refunds", Color: "green", Subs: []string{}},
			{ID: "gifts", Color: "green", Subs: []string{}},
		},
		Expense: []ChartEntry{
			{ID: "food & drinks", Color: "red", Subs: []string{}},
			{ID: "shopping", Color: "cyan", Subs: []string{}},
			{ID: "housing", Color: "orange", Subs: []string{}},
			{ID: "transportation", Color: "slate", Subs: []string{}},
			{ID: "life & entertainment", Color: "yellow", Subs: []string{}},
			{ID: "communication", Color: "blue", Subs: []string{}},
			{ID: "financial expenses", Color: "blueviolet", Subs: []string{}},
			{ID: "others", Color: "grey", Subs: []string{}},
		},
	}
}
