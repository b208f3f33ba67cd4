package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name       string
		withdrewAt int64
		paidBackAt int64
		loanStart  int64
		flag       bool
		want       Status
	}{
		{"fresh order", 0, 0, 0, true, StatusNew},
		{"canceled order", 0, 0, 0, false, StatusCanceled},
		{"funded order", 0, 0, 1_700_000_000, false, StatusFunded},
		{"funded with stale open flag", 0, 0, 1_700_000_000, true, StatusFunded},
		{"repaid order", 0, 1_700_000_100, 1_700_000_000, false, StatusRepaid},
		{"liquidated order", 1_700_000_900, 0, 1_700_000_000, false, StatusLiquidated},
		// withdrewAt wins over every other field
		{"withdrawal dominates", 5, 5, 5, true, StatusLiquidated},
		{"payback dominates start", 0, 5, 0, true, StatusRepaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveStatus(tt.withdrewAt, tt.paidBackAt, tt.loanStart, tt.flag)
			if got != tt.want {
				t.Errorf("DeriveStatus(%d, %d, %d, %v) = %s, want %s",
					tt.withdrewAt, tt.paidBackAt, tt.loanStart, tt.flag, got, tt.want)
			}
			o := Order{WithdrewAt: tt.withdrewAt, PaidBackAt: tt.paidBackAt, LoanStartTime: tt.loanStart, OrderStatus: tt.flag}
			if o.Status() != got {
				t.Errorf("Order.Status() = %s, DeriveStatus = %s", o.Status(), got)
			}
		})
	}
}

func TestDeriveStatus_AlwaysExactlyOneKnownState(t *testing.T) {
	values := []int64{0, 1, 1_700_000_000}
	for _, w := range values {
		for _, p := range values {
			for _, s := range values {
				for _, f := range []bool{true, false} {
					got := DeriveStatus(w, p, s, f)
					if !got.Valid() {
						t.Fatalf("DeriveStatus(%d,%d,%d,%v) produced unknown status %q", w, p, s, f, got)
					}
				}
			}
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	terminal := map[Status]bool{
		StatusNew:        false,
		StatusFunded:     false,
		StatusCanceled:   true,
		StatusRepaid:     true,
		StatusLiquidated: true,
	}
	for s, want := range terminal {
		if s.Terminal() != want {
			t.Errorf("%s.Terminal() = %v, want %v", s, s.Terminal(), want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	for _, raw := range []string{"new", " Funded ", "LIQUIDATED"} {
		if _, err := ParseStatus(raw); err != nil {
			t.Fatalf("ParseStatus(%q) err: %v", raw, err)
		}
	}
	if _, err := ParseStatus("approved"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestOrderMaturity(t *testing.T) {
	o := Order{OrderID: 9, MaturitySeconds: int64((7 * 24 * time.Hour).Seconds())}
	if o.MaturesAt() != 0 {
		t.Fatalf("unfunded order MaturesAt = %d, want 0", o.MaturesAt())
	}
	if o.Matured(time.Now()) {
		t.Fatal("unfunded order must never be matured")
	}

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	o.LoanStartTime = t0.Unix()
	if o.Matured(t0.Add(3 * 24 * time.Hour)) {
		t.Fatal("matured after 3 days of a 7 day loan")
	}
	if !o.Matured(t0.Add(7 * 24 * time.Hour)) {
		t.Fatal("not matured exactly at maturity")
	}
	if o.EscrowHolder() != "escrow:9" {
		t.Fatalf("EscrowHolder = %q", o.EscrowHolder())
	}
}

func TestRepaymentAmount(t *testing.T) {
	o := Order{RequestedAmount: decimal.NewFromInt(100), InterestAmount: decimal.NewFromInt(5)}
	if !o.RepaymentAmount().Equal(decimal.NewFromInt(105)) {
		t.Fatalf("RepaymentAmount = %s, want 105", o.RepaymentAmount())
	}
}
