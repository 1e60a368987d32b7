package core

import (
	"testing"
)

func testChart() Chart {
	return Chart{
		Accounts: []ChartEntry{
			{ID: "cash", Color: "green", Subs: []string{}},
			{ID: "bank", Color: "red", Subs: []string{"checking", "savings"}},
		},
		Income: []ChartEntry{
			{ID: "wages", Color: "green", Subs: []string{"bonus"}},
			{ID: "gifts", Color: "green", Subs: []string{}},
		},
		Expense: []ChartEntry{
			{ID: "housing", Color: "orange", Subs: []string{"rent", "utilities"}},
			{ID: "others", Color: "grey", Subs: []string{}},
		},
	}
}

func TestChartListFor(t *testing.T) {
	c := testChart()

	cases := []struct {
		classification Classification
		wantFirst      string
		wantErr        bool
	}{
		{Account, "cash", false},
		{Income, "wages", false},
		{Expense, "housing", false},
		{Classification("transfer"), "", true},
		{Classification(""), "", true},
	}
	for _, tc := range cases {
		list, err := c.ListFor(tc.classification)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ListFor(%q) expected error", tc.classification)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ListFor(%q) unexpected error: %v", tc.classification, err)
		}
		if len(list) == 0 || list[0].ID != tc.wantFirst {
			t.Errorf("ListFor(%q) first entry = %v, want %q", tc.classification, list, tc.wantFirst)
		}
	}
}

func TestChartValidateEntry(t *testing.T) {
	c := testChart()

	cases := []struct {
		name     string
		entry    Entry
		wantKind Kind
		ok       bool
	}{
		{"account without sub", Entry{Classification: Account, Main: "cash"}, "", true},
		{"account with registered sub", Entry{Classification: Account, Main: "bank", Sub: "savings"}, "", true},
		{"income with registered sub", Entry{Classification: Income, Main: "wages", Sub: "bonus"}, "", true},
		{"unknown main", Entry{Classification: Account, Main: "unknown"}, KindUnsupportedLedgerReference, false},
		{"sub not registered", Entry{Classification: Income, Main: "gifts", Sub: "bonus"}, KindUnsupportedLedgerReference, false},
		{"main from the wrong list", Entry{Classification: Expense, Main: "wages"}, KindUnsupportedLedgerReference, false},
		{"case-sensitive main", Entry{Classification: Account, Main: "Cash"}, KindUnsupportedLedgerReference, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := c.ValidateEntry(tc.entry)
			if tc.ok {
				if err != nil {
					t.Fatalf("expected ok, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if !IsKind(err, tc.wantKind) {
				t.Fatalf("expected kind %s, got %v", tc.wantKind, err)
			}
		})
	}
}

func TestChartValidate(t *testing.T) {
	if err := DefaultChart().Validate(); err != nil {
		t.Fatalf("default chart should validate, got %v", err)
	}

	short := testChart()
	short.Accounts = short.Accounts[:1]
	if err := short.Validate(); err == nil {
		t.Fatal("expected error for a single-entry accounts list")
	}

	dup := testChart()
	dup.Income = append(dup.Income, ChartEntry{ID: "wages"})
	if err := dup.Validate(); err == nil {
		t.Fatal("expected error for duplicate income category ids")
	}
}
