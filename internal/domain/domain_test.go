package domain

import "testing"

func TestClassifyExplicitMarker(t *testing.T) {
	got := Classify("PURE_SIGNAL", Conditions{})
	if got != ClassificationPure {
		t.Fatalf("expected PURE for explicit marker, got %s", got)
	}
}

func TestClassifyAllConditions(t *testing.T) {
	all := Conditions{LST: true, MTF: true, Volume: true, AI: true, Level: true}
	if got := Classify("", all); got != ClassificationPure {
		t.Fatalf("expected PURE for full conditions, got %s", got)
	}
}

func TestClassifyMissingConditionIsLST(t *testing.T) {
	cases := []Conditions{
		{MTF: true, Volume: true, AI: true, Level: true},
		{LST: true, Volume: true, AI: true, Level: true},
		{LST: true, MTF: true, AI: true, Level: true},
		{LST: true, MTF: true, Volume: true, Level: true},
		{LST: true, MTF: true, Volume: true, AI: true},
		{},
	}
	for i, c := range cases {
		if got := Classify("", c); got != ClassificationLST {
			t.Fatalf("case %d: expected LST, got %s", i, got)
		}
	}
}

func TestPotentialProfitLossBuy(t *testing.T) {
	abs, pct := PotentialProfit(DirectionBuy, 100, 110)
	if abs != 10 || pct != 10 {
		t.Fatalf("expected profit $10 (10%%), got $%v (%v%%)", abs, pct)
	}
	abs, pct = PotentialLoss(DirectionBuy, 100, 95)
	if abs != 5 || pct != 5 {
		t.Fatalf("expected loss $5 (5%%), got $%v (%v%%)", abs, pct)
	}
}

func TestPotentialProfitLossSellInverts(t *testing.T) {
	abs, pct := PotentialProfit(DirectionSell, 100, 90)
	if abs != 10 || pct != 10 {
		t.Fatalf("expected profit $10 (10%%), got $%v (%v%%)", abs, pct)
	}
	abs, pct = PotentialLoss(DirectionSell, 100, 105)
	if abs != 5 || pct != 5 {
		t.Fatalf("expected loss $5 (5%%), got $%v (%v%%)", abs, pct)
	}
}

func TestPotentialProfitZeroEntry(t *testing.T) {
	abs, pct := PotentialProfit(DirectionBuy, 0, 110)
	if abs != 0 || pct != 0 {
		t.Fatalf("expected zeros for zero entry, got %v %v", abs, pct)
	}
}

func TestAlgoEligible(t *testing.T) {
	u := User{AlgoEnabled: true}
	if u.AlgoEligible() {
		t.Fatal("algo enabled without brokerage config must not be eligible")
	}
	u.Brokerage = &BrokerageConfig{APIKey: "k", APISecret: "s"}
	if !u.AlgoEligible() {
		t.Fatal("expected eligible user")
	}
	u.AlgoEnabled = false
	if u.AlgoEligible() {
		t.Fatal("disabled user must not be eligible")
	}
}
