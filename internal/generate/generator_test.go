package generate

import (
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/M-AlAteegi/islamic-finance-analytics/internal/config"
	"github.com/M-AlAteegi/islamic-finance-analytics/internal/model"
)

func testConfig() *config.Config {
	weights := make(map[string]float64, len(industries))
	for _, ind := range industries {
		weights[ind] = 1.0
	}
	return &config.Config{
		Counts: config.Counts{
			Employees:           40,
			Investors:           120,
			Borrowers:           80,
			SukukIssuances:      6,
			SukukPurchases:      400,
			BusinessLoans:       60,
			LoanPayments:        600,
			ProfitDistributions: 150,
		},
		Sim: config.Simulation{
			Seed:                7,
			WindowStart:         time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			CurrentDate:         time.Date(2024, 10, 31, 0, 0, 0, 0, time.UTC),
			CreditScoreMean:     680,
			CreditScoreStdDev:   60,
			ScoreFactorScale:    80,
			BaseDefaultRate:     0.05,
			IndustryRiskWeights: weights,
			OnTimeWeight:        0.95,
			LateWeight:          0.03,
			MissedWeight:        0.02,
			BaseReturnRate:      0.05,
			ReturnPerTenorYear:  0.005,
		},
	}
}

func mustBuild(t *testing.T, cfg *config.Config) *model.Dataset {
	t.Helper()
	ds, err := New(cfg).Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	return ds
}

func TestBuildRowCounts(t *testing.T) {
	cfg := testConfig()
	ds := mustBuild(t, cfg)

	tests := []struct {
		table string
		got   int
		want  int
	}{
		{"employees", len(ds.Employees), cfg.Counts.Employees},
		{"investors", len(ds.Investors), cfg.Counts.Investors},
		{"borrowers", len(ds.Borrowers), cfg.Counts.Borrowers},
		{"sukuk_issuances", len(ds.SukukIssuances), cfg.Counts.SukukIssuances},
		{"sukuk_purchases", len(ds.SukukPurchases), cfg.Counts.SukukPurchases},
		{"business_loans", len(ds.BusinessLoans), cfg.Counts.BusinessLoans},
		{"loan_payments", len(ds.LoanPayments), cfg.Counts.LoanPayments},
		{"profit_distributions", len(ds.ProfitDistributions), cfg.Counts.ProfitDistributions},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %d rows, want %d", tt.table, tt.got, tt.want)
		}
	}
}

func TestReferentialIntegrity(t *testing.T) {
	cfg := testConfig()
	ds := mustBuild(t, cfg)

	inRange := func(id, n int) bool { return id >= 1 && id <= n }

	for _, p := range ds.SukukPurchases {
		if !inRange(p.InvestorID, len(ds.Investors)) {
			t.Errorf("purchase %d references unknown investor %d", p.ID, p.InvestorID)
		}
		if !inRange(p.SukukID, len(ds.SukukIssuances)) {
			t.Errorf("purchase %d references unknown sukuk %d", p.ID, p.SukukID)
		}
		if !inRange(p.ProcessedBy, len(ds.Employees)) {
			t.Errorf("purchase %d references unknown employee %d", p.ID, p.ProcessedBy)
		}
	}
	for _, l := range ds.BusinessLoans {
		if !inRange(l.BorrowerID, len(ds.Borrowers)) {
			t.Errorf("loan %d references unknown borrower %d", l.ID, l.BorrowerID)
		}
		if !inRange(l.FundingSukukID, len(ds.SukukIssuances)) {
			t.Errorf("loan %d references unknown sukuk %d", l.ID, l.FundingSukukID)
		}
		if !inRange(l.ApprovedBy, len(ds.Employees)) {
			t.Errorf("loan %d references unknown employee %d", l.ID, l.ApprovedBy)
		}
		// Capital must exist before it is lent out.
		funding := ds.SukukIssuances[l.FundingSukukID-1]
		if funding.IssueDate.After(l.DisbursementDate) {
			t.Errorf("loan %d disbursed %s before its funding sukuk issued %s",
				l.ID, l.DisbursementDate.Format("2006-01-02"), funding.IssueDate.Format("2006-01-02"))
		}
	}
	for _, p := range ds.LoanPayments {
		if !inRange(p.LoanID, len(ds.BusinessLoans)) {
			t.Errorf("payment %d references unknown loan %d", p.ID, p.LoanID)
		}
	}
	for _, d := range ds.ProfitDistributions {
		if !inRange(d.PurchaseID, len(ds.SukukPurchases)) {
			t.Errorf("distribution %d references unknown purchase %d", d.ID, d.PurchaseID)
		}
		if !inRange(d.ProcessedBy, len(ds.Employees)) {
			t.Errorf("distribution %d references unknown employee %d", d.ID, d.ProcessedBy)
		}
	}
}

func TestPaymentHistoriesMatchLoanStatus(t *testing.T) {
	cfg := testConfig()
	ds := mustBuild(t, cfg)

	byLoan := make(map[int][]model.LoanPayment)
	for _, p := range ds.LoanPayments {
		byLoan[p.LoanID] = append(byLoan[p.LoanID], p)
	}

	const tol = 0.05
	for _, loan := range ds.BusinessLoans {
		payments := byLoan[loan.ID]

		var principal, received float64
		for _, p := range payments {
			principal += p.PrincipalAmount
			received += p.Amount
			if p.ScheduledDate.Before(loan.DisbursementDate) {
				t.Errorf("loan %d: payment scheduled %s before disbursement %s",
					loan.ID, p.ScheduledDate.Format("2006-01-02"), loan.DisbursementDate.Format("2006-01-02"))
			}
			if p.Status == model.PaymentMissed && p.PaidDate != nil {
				t.Errorf("loan %d: missed payment %d has a paid date", loan.ID, p.ID)
			}
			if p.Status != model.PaymentMissed {
				if p.PaidDate == nil {
					t.Errorf("loan %d: %s payment %d has no paid date", loan.ID, p.Status, p.ID)
				} else if p.PaidDate.Before(p.ScheduledDate) {
					t.Errorf("loan %d: payment %d paid before scheduled", loan.ID, p.ID)
				}
			}
		}

		switch loan.Status {
		case model.LoanPaidOff:
			if len(payments) == 0 {
				t.Errorf("paid-off loan %d has no payments", loan.ID)
				continue
			}
			if math.Abs(principal-loan.Amount) > tol {
				t.Errorf("paid-off loan %d: principal collected %.2f, want %.2f", loan.ID, principal, loan.Amount)
			}
			if last := payments[len(payments)-1]; math.Abs(last.RemainingBalance) > tol {
				t.Errorf("paid-off loan %d: final balance %.2f, want 0", loan.ID, last.RemainingBalance)
			}
			if loan.OutstandingBalance != 0 {
				t.Errorf("paid-off loan %d: outstanding %.2f, want 0", loan.ID, loan.OutstandingBalance)
			}
		case model.LoanDefaulted:
			if received >= loan.Amount {
				t.Errorf("defaulted loan %d: received %.2f, not below principal %.2f", loan.ID, received, loan.Amount)
			}
			missed := 0
			for i := len(payments) - 1; i >= 0 && payments[i].Status == model.PaymentMissed; i-- {
				missed++
			}
			if missed < 2 {
				t.Errorf("defaulted loan %d: %d trailing missed payments, want at least 2", loan.ID, missed)
			}
		case model.LoanActive:
			if len(payments) >= loan.TermMonths {
				t.Errorf("active loan %d: %d payments for a %d-month term", loan.ID, len(payments), loan.TermMonths)
			}
			if principal >= loan.Amount {
				t.Errorf("active loan %d: principal collected %.2f, not below %.2f", loan.ID, principal, loan.Amount)
			}
			want := loan.Amount - principal
			if math.Abs(loan.OutstandingBalance-want) > tol {
				t.Errorf("active loan %d: outstanding %.2f, want %.2f", loan.ID, loan.OutstandingBalance, want)
			}
		}
	}
}

func TestDatesWithinWindow(t *testing.T) {
	cfg := testConfig()
	ds := mustBuild(t, cfg)
	current := cfg.Sim.CurrentDate

	for _, s := range ds.SukukIssuances {
		if s.IssueDate.Before(cfg.Sim.WindowStart) || s.IssueDate.After(current) {
			t.Errorf("sukuk %d issued outside window: %s", s.ID, s.IssueDate.Format("2006-01-02"))
		}
		if !s.MaturityDate.After(s.IssueDate) {
			t.Errorf("sukuk %d matures before issue", s.ID)
		}
	}
	for _, p := range ds.SukukPurchases {
		if p.PurchaseDate.After(current) {
			t.Errorf("purchase %d dated after simulation date", p.ID)
		}
	}
	for _, p := range ds.LoanPayments {
		if p.PaidDate != nil && p.PaidDate.After(current) {
			t.Errorf("payment %d paid after simulation date", p.ID)
		}
	}
	for _, d := range ds.ProfitDistributions {
		if d.DistributionDate.After(current) {
			t.Errorf("distribution %d dated after simulation date", d.ID)
		}
		if !d.PeriodEnd.After(d.PeriodStart) {
			t.Errorf("distribution %d: period end not after start", d.ID)
		}
	}
}

func TestInvestorTotalsMatchPurchases(t *testing.T) {
	ds := mustBuild(t, testConfig())

	totals := make(map[int]float64)
	for _, p := range ds.SukukPurchases {
		totals[p.InvestorID] += p.Amount
	}
	for _, inv := range ds.Investors {
		if math.Abs(inv.TotalInvested-totals[inv.ID]) > 0.01 {
			t.Errorf("investor %d: total_invested %.2f, purchases sum to %.2f",
				inv.ID, inv.TotalInvested, totals[inv.ID])
		}
	}
}

func TestCreditScoresClamped(t *testing.T) {
	ds := mustBuild(t, testConfig())
	for _, b := range ds.Borrowers {
		if b.CreditScore < 300 || b.CreditScore > 850 {
			t.Errorf("borrower %d: credit score %d outside [300, 850]", b.ID, b.CreditScore)
		}
	}
}

func TestSameSeedSameDataset(t *testing.T) {
	cfg := testConfig()
	first := mustBuild(t, cfg)
	second := mustBuild(t, cfg)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("two builds with the same seed produced different datasets")
	}
}

func TestDefaultProbabilityFallsWithScore(t *testing.T) {
	cfg := testConfig()
	g := New(cfg)
	maturity := cfg.Sim.CurrentDate.AddDate(1, 0, 0)

	defaults := func(score int) int {
		b := model.Borrower{Industry: "Manufacturing", CreditScore: score}
		n := 0
		for i := 0; i < 5000; i++ {
			if g.loanStatus(b, maturity) == model.LoanDefaulted {
				n++
			}
		}
		return n
	}

	strong := defaults(800)
	weak := defaults(550)
	if strong >= weak {
		t.Errorf("defaults at score 800 (%d) not below defaults at score 550 (%d)", strong, weak)
	}
}

func TestBuildFailsWithoutEmployees(t *testing.T) {
	cfg := testConfig()
	cfg.Counts.Employees = 0

	_, err := New(cfg).Build()
	if err == nil {
		t.Fatal("Build() succeeded with no employees")
	}
	if !strings.Contains(err.Error(), "sukuk issuances") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBuildFailsOnUnreachablePaymentTarget(t *testing.T) {
	cfg := testConfig()
	cfg.Counts.BusinessLoans = 5
	cfg.Counts.LoanPayments = 100000

	_, err := New(cfg).Build()
	if err == nil {
		t.Fatal("Build() succeeded with an impossible payment target")
	}
	if !strings.Contains(err.Error(), "loan payments") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRebalancePlans(t *testing.T) {
	tests := []struct {
		name    string
		plans   []paymentPlan
		delta   int
		wantErr bool
	}{
		{"no-op", []paymentPlan{{count: 5, min: 1, max: 10}}, 0, false},
		{"grow within slack", []paymentPlan{{count: 5, min: 1, max: 10}, {count: 3, min: 0, max: 3}}, 4, false},
		{"shrink within slack", []paymentPlan{{count: 5, min: 1, max: 10}, {count: 3, min: 0, max: 3}}, -6, false},
		{"grow past capacity", []paymentPlan{{count: 5, min: 1, max: 6}}, 2, true},
		{"shrink past floor", []paymentPlan{{count: 2, min: 1, max: 6}}, -2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := sumCounts(tt.plans)
			err := rebalancePlans(tt.plans, tt.delta)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("rebalancePlans: %v", err)
			}
			if got := sumCounts(tt.plans); got != before+tt.delta {
				t.Errorf("total count %d, want %d", got, before+tt.delta)
			}
			for i, p := range tt.plans {
				if p.count < p.min || p.count > p.max {
					t.Errorf("plan %d: count %d outside [%d, %d]", i, p.count, p.min, p.max)
				}
			}
		})
	}
}

func TestCreditBucketBoundaries(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{850, "Excellent (750+)"},
		{750, "Excellent (750+)"},
		{749, "Good (700-749)"},
		{700, "Good (700-749)"},
		{699, "Fair (650-699)"},
		{650, "Fair (650-699)"},
		{649, "Poor (600-649)"},
		{600, "Poor (600-649)"},
		{599, "Very Poor (<600)"},
		{300, "Very Poor (<600)"},
	}
	for _, tt := range tests {
		if got := model.CreditBucket(tt.score); got != tt.want {
			t.Errorf("CreditBucket(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}
