package analytics

import (
	"bytes"
	"context"
	"database/sql"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/M-AlAteegi/islamic-finance-analytics/internal/config"
	"github.com/M-AlAteegi/islamic-finance-analytics/internal/generate"
	"github.com/M-AlAteegi/islamic-finance-analytics/internal/model"
	"github.com/M-AlAteegi/islamic-finance-analytics/internal/store"
)

// setupDB generates a seeded dataset, persists it to a temp database,
// and returns both the handle and the in-memory records for
// cross-checking.
func setupDB(t *testing.T) (*sql.DB, *model.Dataset) {
	t.Helper()
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() failed: %v", err)
	}
	cfg.Sim.Seed = 11
	cfg.Counts = config.Counts{
		Employees:           40,
		Investors:           120,
		Borrowers:           80,
		SukukIssuances:      6,
		SukukPurchases:      400,
		BusinessLoans:       60,
		LoanPayments:        600,
		ProfitDistributions: 150,
	}

	ds, err := generate.New(cfg).Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "analytics.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	if err := st.CreateSchema(ctx); err != nil {
		t.Fatalf("CreateSchema() failed: %v", err)
	}
	if err := st.Persist(ctx, ds); err != nil {
		t.Fatalf("Persist() failed: %v", err)
	}
	return st.DB(), ds
}

func TestPortfolioOverviewMatchesDataset(t *testing.T) {
	db, ds := setupDB(t)

	var wantRaised, wantDisbursed, wantProfit float64
	for _, p := range ds.SukukPurchases {
		wantRaised += p.Amount
	}
	for _, l := range ds.BusinessLoans {
		wantDisbursed += l.Amount
	}
	for _, p := range ds.LoanPayments {
		wantProfit += p.ProfitAmount
	}

	o, err := FetchPortfolioOverview(context.Background(), db)
	if err != nil {
		t.Fatalf("FetchPortfolioOverview() failed: %v", err)
	}

	const tol = 0.5
	if math.Abs(o.CapitalRaised-wantRaised) > tol {
		t.Errorf("CapitalRaised = %.2f, want %.2f", o.CapitalRaised, wantRaised)
	}
	if math.Abs(o.LoansDisbursed-wantDisbursed) > tol {
		t.Errorf("LoansDisbursed = %.2f, want %.2f", o.LoansDisbursed, wantDisbursed)
	}
	if math.Abs(o.ProfitCollected-wantProfit) > tol {
		t.Errorf("ProfitCollected = %.2f, want %.2f", o.ProfitCollected, wantProfit)
	}
}

func TestRiskSummaryMatchesStatuses(t *testing.T) {
	db, ds := setupDB(t)

	var active, defaulted, paidOff int
	for _, l := range ds.BusinessLoans {
		switch l.Status {
		case model.LoanActive:
			active++
		case model.LoanDefaulted:
			defaulted++
		case model.LoanPaidOff:
			paidOff++
		}
	}

	sum, err := FetchRiskSummary(context.Background(), db)
	if err != nil {
		t.Fatalf("FetchRiskSummary() failed: %v", err)
	}
	if sum.TotalLoans != len(ds.BusinessLoans) {
		t.Errorf("TotalLoans = %d, want %d", sum.TotalLoans, len(ds.BusinessLoans))
	}
	if sum.ActiveLoans != active || sum.DefaultedLoans != defaulted || sum.PaidOffLoans != paidOff {
		t.Errorf("status split = %d/%d/%d, want %d/%d/%d",
			sum.ActiveLoans, sum.DefaultedLoans, sum.PaidOffLoans, active, defaulted, paidOff)
	}
}

func TestIndustryRatesReconcileWithOverall(t *testing.T) {
	db, _ := setupDB(t)
	ctx := context.Background()

	rows, err := FetchIndustryPerformance(ctx, db)
	if err != nil {
		t.Fatalf("FetchIndustryPerformance() failed: %v", err)
	}
	sum, err := FetchRiskSummary(ctx, db)
	if err != nil {
		t.Fatalf("FetchRiskSummary() failed: %v", err)
	}

	loans, defaults := 0, 0
	for _, r := range rows {
		loans += r.Loans
		defaults += r.Defaults
	}
	if loans != sum.TotalLoans || defaults != sum.DefaultedLoans {
		t.Errorf("industry rollup %d loans / %d defaults, portfolio has %d / %d",
			loans, defaults, sum.TotalLoans, sum.DefaultedLoans)
	}

	weighted := 100 * float64(defaults) / float64(loans)
	if math.Abs(weighted-sum.DefaultRateByCountPct()) > 0.01 {
		t.Errorf("loan-weighted industry default rate %.2f%%, overall %.2f%%",
			weighted, sum.DefaultRateByCountPct())
	}
}

func TestCreditBucketsOrderedAndComplete(t *testing.T) {
	db, ds := setupDB(t)

	rows, err := FetchCreditBucketStats(context.Background(), db)
	if err != nil {
		t.Fatalf("FetchCreditBucketStats() failed: %v", err)
	}

	rank := map[string]int{
		"Excellent (750+)": 0,
		"Good (700-749)":   1,
		"Fair (650-699)":   2,
		"Poor (600-649)":   3,
		"Very Poor (<600)": 4,
	}
	total := 0
	prev := -1
	for _, r := range rows {
		pos, ok := rank[r.Bucket]
		if !ok {
			t.Fatalf("unknown bucket %q", r.Bucket)
		}
		if pos <= prev {
			t.Errorf("bucket %q out of order", r.Bucket)
		}
		prev = pos
		total += r.Loans
	}
	if total != len(ds.BusinessLoans) {
		t.Errorf("bucket loan counts sum to %d, want %d", total, len(ds.BusinessLoans))
	}
}

func TestPaymentStatusSharesSumToFull(t *testing.T) {
	db, ds := setupDB(t)

	rows, err := FetchPaymentStatusStats(context.Background(), db)
	if err != nil {
		t.Fatalf("FetchPaymentStatusStats() failed: %v", err)
	}

	count := 0
	share := 0.0
	for _, r := range rows {
		count += r.Count
		share += r.SharePct
	}
	if count != len(ds.LoanPayments) {
		t.Errorf("status counts sum to %d, want %d", count, len(ds.LoanPayments))
	}
	if math.Abs(share-100) > 0.1 {
		t.Errorf("status shares sum to %.2f%%, want 100%%", share)
	}
}

func TestVintageCohortsCoverAllLoans(t *testing.T) {
	db, ds := setupDB(t)

	rows, err := FetchVintageCohorts(context.Background(), db)
	if err != nil {
		t.Fatalf("FetchVintageCohorts() failed: %v", err)
	}
	total := 0
	for _, r := range rows {
		total += r.Loans
	}
	if total != len(ds.BusinessLoans) {
		t.Errorf("cohort loan counts sum to %d, want %d", total, len(ds.BusinessLoans))
	}
}

func TestTopInvestorsRespectsLimit(t *testing.T) {
	db, _ := setupDB(t)

	rows, err := FetchTopInvestors(context.Background(), db, 3)
	if err != nil {
		t.Fatalf("FetchTopInvestors() failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d investors, want 3", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].TotalInvested > rows[i-1].TotalInvested {
			t.Errorf("investors not ordered by capital: %.2f after %.2f",
				rows[i].TotalInvested, rows[i-1].TotalInvested)
		}
	}
}

func TestRunnerWritesAllSections(t *testing.T) {
	db, _ := setupDB(t)

	var buf bytes.Buffer
	if err := NewRunner(db, &buf).Run(context.Background()); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	out := buf.String()
	sections := []string{
		"Portfolio Overview",
		"Loan Performance by Industry",
		"Default Risk by Credit Score",
		"Investor Segmentation",
		"Monthly Loan Disbursements",
		"Sukuk Issuance Timeline",
		"Payment Behavior",
		"Profitability by Loan Purpose",
		"Loan Officer Productivity",
		"Portfolio Risk Metrics",
		"Loan Vintage Analysis",
	}
	for _, s := range sections {
		if !strings.Contains(out, s) {
			t.Errorf("output missing section %q", s)
		}
	}
}
