package core

import "testing"

func TestStatusFor(t *testing.T) {
	price := Money{Cents: 10000}
	cases := []struct {
		paid int64
		want FundingStatus
	}{
		{0, StatusPending},
		{1, StatusPartiallyFilled},
		{9999, StatusPartiallyFilled},
		{10000, StatusFilled}, // boundary: paid == price is Filled
		{10001, StatusFilled},
	}
	for i, tc := range cases {
		if got := StatusFor(Money{Cents: tc.paid}, price); got != tc.want {
			t.Fatalf("case %d: StatusFor(%d, %d) = %s, want %s", i, tc.paid, price.Cents, got, tc.want)
		}
	}
}

func TestApplyContributionMonotonic(t *testing.T) {
	price := Money{Cents: 5000}
	paid := Money{}
	status := StatusPending

	amounts := []int64{1000, 2000, 1999, 1, 500}
	var sum int64
	for _, a := range amounts {
		paid, status = ApplyContribution(paid, price, Money{Cents: a})
		sum += a
		if paid.Cents != sum {
			t.Fatalf("amount paid drifted: got %d, want %d", paid.Cents, sum)
		}
		if want := StatusFor(paid, price); status != want {
			t.Fatalf("status invariant broken at paid=%d: got %s, want %s", paid.Cents, status, want)
		}
	}
	if status != StatusFilled {
		t.Fatalf("expected Filled after %d cents against %d, got %s", sum, price.Cents, status)
	}

	// Filled is terminal: further contributions grow paid but never change status.
	paid, status = ApplyContribution(paid, price, Money{Cents: 1000})
	if status != StatusFilled {
		t.Fatalf("Filled entry regressed to %s", status)
	}
	if paid.Cents != sum+1000 {
		t.Fatalf("over-funding not recorded: got %d, want %d", paid.Cents, sum+1000)
	}
}

func TestApplyContributionZeroIsNoop(t *testing.T) {
	paid, status := ApplyContribution(Money{}, Money{Cents: 100}, Money{})
	if paid.Cents != 0 || status != StatusPending {
		t.Fatalf("zero contribution on fresh entry: got paid=%d status=%s", paid.Cents, status)
	}
}

func TestOverpayment(t *testing.T) {
	cases := []struct {
		price, amount, want int64
	}{
		{5000, 7500, 2500},
		{5000, 5000, 0},
		{5000, 4000, 0},
		{5000, 5001, 1},
	}
	for i, tc := range cases {
		got := Overpayment(Money{Cents: tc.price}, Money{Cents: tc.amount})
		if got.Cents != tc.want {
			t.Fatalf("case %d: Overpayment(%d, %d) = %d, want %d", i, tc.price, tc.amount, got.Cents, tc.want)
		}
	}
}

func TestFundingStatusIsValid(t *testing.T) {
	for _, s := range []FundingStatus{StatusPending, StatusPartiallyFilled, StatusFilled} {
		if !s.IsValid() {
			t.Fatalf("%s should be valid", s)
		}
	}
	if FundingStatus("Cancelled").IsValid() {
		t.Fatal("unknown status should be invalid")
	}
}
