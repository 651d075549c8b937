package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"text/tabwriter"
)

const (
	topInvestorLimit      = 10
	topEmployeeLimit      = 10
	concentrationLimit    = 5
	problemIndustryMin    = 50
	problemIndustryTop    = 5
	profitPurposeMinLoans = 5
)

// Runner executes the full report suite and writes the formatted
// output to w.
type Runner struct {
	db *sql.DB
	w  io.Writer
}

// NewRunner returns a Runner over db writing to w.
func NewRunner(db *sql.DB, w io.Writer) *Runner {
	return &Runner{db: db, w: w}
}

// Run executes every report in order. The first query failure aborts
// the run.
func (r *Runner) Run(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"portfolio overview", r.portfolioOverview},
		{"industry performance", r.industryPerformance},
		{"credit risk analysis", r.creditRisk},
		{"investor segmentation", r.investorSegments},
		{"disbursement timeline", r.timelines},
		{"payment behavior", r.paymentBehavior},
		{"profitability", r.profitability},
		{"employee productivity", r.employeeProductivity},
		{"risk metrics", r.riskMetrics},
		{"vintage analysis", r.vintages},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

func (r *Runner) section(title string) {
	fmt.Fprintf(r.w, "\n=== %s ===\n", title)
}

func (r *Runner) portfolioOverview(ctx context.Context) error {
	o, err := FetchPortfolioOverview(ctx, r.db)
	if err != nil {
		return err
	}
	r.section("Portfolio Overview")
	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Capital raised (sukuk sales)\t$%.2f\n", o.CapitalRaised)
	fmt.Fprintf(tw, "Loans disbursed\t$%.2f\n", o.LoansDisbursed)
	fmt.Fprintf(tw, "Outstanding (active loans)\t$%.2f\n", o.Outstanding)
	fmt.Fprintf(tw, "Profit collected from loans\t$%.2f\n", o.ProfitCollected)
	fmt.Fprintf(tw, "Profit distributed to investors\t$%.2f\n", o.ProfitDistributed)
	fmt.Fprintf(tw, "Net margin\t$%.2f\n", o.NetMargin)
	fmt.Fprintf(tw, "Capital utilization\t%.1f%%\n", o.UtilizationRatePct)
	return tw.Flush()
}

func (r *Runner) industryPerformance(ctx context.Context) error {
	rows, err := FetchIndustryPerformance(ctx, r.db)
	if err != nil {
		return err
	}
	r.section("Loan Performance by Industry")
	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Industry\tLoans\tTotal\tAvg Rate\tDefaults\tDefault %\tOutstanding")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%d\t$%.0f\t%.2f%%\t%d\t%.1f%%\t$%.0f\n",
			row.Industry, row.Loans, row.TotalLoaned, row.AvgProfitRate*100,
			row.Defaults, row.DefaultRatePct, row.Outstanding)
	}
	return tw.Flush()
}

func (r *Runner) creditRisk(ctx context.Context) error {
	rows, err := FetchCreditBucketStats(ctx, r.db)
	if err != nil {
		return err
	}
	r.section("Default Risk by Credit Score")
	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Credit Band\tLoans\tAvg Size\tAvg Rate\tDefault %")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%d\t$%.0f\t%.2f%%\t%.1f%%\n",
			row.Bucket, row.Loans, row.AvgLoanSize, row.AvgProfitRate*100, row.DefaultRatePct)
	}
	return tw.Flush()
}

func (r *Runner) investorSegments(ctx context.Context) error {
	segs, err := FetchInvestorSegments(ctx, r.db)
	if err != nil {
		return err
	}
	top, err := FetchTopInvestors(ctx, r.db, topInvestorLimit)
	if err != nil {
		return err
	}

	r.section("Investor Segmentation")
	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Profile\tInvestors\tAvg Invested\tTotal Capital\tPurchases\tAvg Return")
	for _, s := range segs {
		fmt.Fprintf(tw, "%s\t%d\t$%.0f\t$%.0f\t%d\t%.2f%%\n",
			s.Profile, s.Investors, s.AvgInvested, s.TotalCapital, s.Purchases, s.AvgExpectedReturnPct)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(r.w, "\nTop %d investors by capital:\n", topInvestorLimit)
	tw = tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Investor\tProfile\tInvested\tPurchases\tReturns")
	for _, t := range top {
		fmt.Fprintf(tw, "%s\t%s\t$%.0f\t%d\t$%.2f\n",
			t.Name, t.Profile, t.TotalInvested, t.Purchases, t.ReturnsReceived)
	}
	return tw.Flush()
}

func (r *Runner) timelines(ctx context.Context) error {
	loans, err := FetchMonthlyLoans(ctx, r.db)
	if err != nil {
		return err
	}
	issues, err := FetchIssuanceTimeline(ctx, r.db)
	if err != nil {
		return err
	}

	r.section("Monthly Loan Disbursements")
	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Month\tLoans\tDisbursed\tAvg Size")
	for _, m := range loans {
		fmt.Fprintf(tw, "%s\t%d\t$%.0f\t$%.0f\n", m.Month, m.Loans, m.Disbursed, m.AvgSize)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	r.section("Sukuk Issuance Timeline")
	tw = tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Month\tIssuances\tTotal Amount")
	for _, m := range issues {
		fmt.Fprintf(tw, "%s\t%d\t$%.0f\n", m.Month, m.Issuances, m.TotalAmount)
	}
	return tw.Flush()
}

func (r *Runner) paymentBehavior(ctx context.Context) error {
	stats, err := FetchPaymentStatusStats(ctx, r.db)
	if err != nil {
		return err
	}
	problems, err := FetchIndustryPaymentIssues(ctx, r.db, problemIndustryMin, problemIndustryTop)
	if err != nil {
		return err
	}

	r.section("Payment Behavior")
	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Status\tCount\tTotal\tAvg\tShare")
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%d\t$%.2f\t$%.2f\t%.1f%%\n",
			s.Status, s.Count, s.TotalAmount, s.AvgAmount, s.SharePct)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(r.w, "\nIndustries with most payment problems:")
	tw = tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Industry\tLate\tMissed\tPayments\tProblem %")
	for _, p := range problems {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.1f%%\n", p.Industry, p.Late, p.Missed, p.Total, p.ProblemPct)
	}
	return tw.Flush()
}

func (r *Runner) profitability(ctx context.Context) error {
	rows, err := FetchProfitByPurpose(ctx, r.db, profitPurposeMinLoans)
	if err != nil {
		return err
	}
	roa, err := ReturnOnActiveAssets(ctx, r.db)
	if err != nil {
		return err
	}

	r.section("Profitability by Loan Purpose")
	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Purpose\tLoans\tProfit Collected\tAvg Rate\tPrincipal")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%d\t$%.2f\t%.2f%%\t$%.0f\n",
			row.Purpose, row.Loans, row.ProfitCollected, row.AvgProfitRate*100, row.TotalPrincipal)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(r.w, "\nReturn on active assets: %.2f%%\n", roa)
	return nil
}

func (r *Runner) employeeProductivity(ctx context.Context) error {
	emps, err := FetchEmployeeThroughput(ctx, r.db, topEmployeeLimit)
	if err != nil {
		return err
	}
	depts, err := FetchDeptThroughput(ctx, r.db)
	if err != nil {
		return err
	}

	r.section("Loan Officer Productivity")
	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Employee\tDepartment\tPosition\tLoans\tTotal\tAvg\tDefaults")
	for _, e := range emps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t$%.0f\t$%.0f\t%d\n",
			e.Name, e.Department, e.Position, e.Loans, e.TotalAmount, e.AvgSize, e.Defaults)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(r.w, "\nPurchase processing by department:")
	tw = tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Department\tEmployees\tProcessed\tPer Employee")
	for _, d := range depts {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f\n", d.Department, d.Employees, d.Processed, d.AvgPerEmployee)
	}
	return tw.Flush()
}

func (r *Runner) riskMetrics(ctx context.Context) error {
	sum, err := FetchRiskSummary(ctx, r.db)
	if err != nil {
		return err
	}
	conc, err := FetchConcentration(ctx, r.db, concentrationLimit)
	if err != nil {
		return err
	}

	r.section("Portfolio Risk Metrics")
	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total loans\t%d\n", sum.TotalLoans)
	fmt.Fprintf(tw, "Active / paid off / defaulted\t%d / %d / %d\n",
		sum.ActiveLoans, sum.PaidOffLoans, sum.DefaultedLoans)
	fmt.Fprintf(tw, "Default rate (count)\t%.1f%%\n", sum.DefaultRateByCountPct())
	fmt.Fprintf(tw, "Default rate (amount)\t%.1f%%\n", sum.DefaultRateByAmountPct())
	fmt.Fprintf(tw, "Total outstanding\t$%.2f\n", sum.TotalOutstanding)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(r.w, "\nIndustry concentration (active book):")
	tw = tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Industry\tOutstanding\tShare")
	for _, c := range conc {
		fmt.Fprintf(tw, "%s\t$%.0f\t%.1f%%\n", c.Industry, c.Outstanding, c.PortfolioPct)
	}
	return tw.Flush()
}

func (r *Runner) vintages(ctx context.Context) error {
	rows, err := FetchVintageCohorts(ctx, r.db)
	if err != nil {
		return err
	}
	r.section("Loan Vintage Analysis")
	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Year\tLoans\tDisbursed\tDefaults\tDefault %\tPaid Off\tPayoff %")
	for _, v := range rows {
		fmt.Fprintf(tw, "%s\t%d\t$%.0f\t%d\t%.1f%%\t%d\t%.1f%%\n",
			v.Year, v.Loans, v.Disbursed, v.Defaults, v.DefaultRatePct, v.PaidOff, v.PayoffRatePct)
	}
	return tw.Flush()
}
