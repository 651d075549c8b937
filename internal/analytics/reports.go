// Package analytics runs the descriptive report suite against a
// generated dataset. Every report is a typed query function; the
// runner renders them as formatted console tables. Reports are
// read-only and any query failure is fatal for the stage.
package analytics

import (
	"context"
	"database/sql"
	"fmt"
)

// PortfolioOverview is the high-level financial snapshot.
type PortfolioOverview struct {
	CapitalRaised      float64
	LoansDisbursed     float64
	Outstanding        float64
	ProfitDistributed  float64
	ProfitCollected    float64
	NetMargin          float64
	UtilizationRatePct float64
}

// FetchPortfolioOverview aggregates the headline portfolio numbers.
func FetchPortfolioOverview(ctx context.Context, db *sql.DB) (*PortfolioOverview, error) {
	const q = `
		SELECT
			(SELECT COALESCE(SUM(amount), 0) FROM sukuk_purchases),
			(SELECT COALESCE(SUM(loan_amount), 0) FROM business_loans),
			(SELECT COALESCE(SUM(outstanding_balance), 0) FROM business_loans WHERE loan_status = 'Active'),
			(SELECT COALESCE(SUM(amount), 0) FROM profit_distributions),
			(SELECT COALESCE(SUM(profit_amount), 0) FROM loan_payments)`

	var o PortfolioOverview
	err := db.QueryRowContext(ctx, q).Scan(&o.CapitalRaised, &o.LoansDisbursed,
		&o.Outstanding, &o.ProfitDistributed, &o.ProfitCollected)
	if err != nil {
		return nil, fmt.Errorf("portfolio overview query: %w", err)
	}
	o.NetMargin = o.ProfitCollected - o.ProfitDistributed
	if o.CapitalRaised > 0 {
		o.UtilizationRatePct = o.LoansDisbursed / o.CapitalRaised * 100
	}
	return &o, nil
}

// IndustryPerformance summarizes the loan book for one industry.
type IndustryPerformance struct {
	Industry       string
	Loans          int
	TotalLoaned    float64
	AvgProfitRate  float64
	Defaults       int
	DefaultRatePct float64
	Outstanding    float64
}

// FetchIndustryPerformance groups the loan book by borrower industry.
func FetchIndustryPerformance(ctx context.Context, db *sql.DB) ([]IndustryPerformance, error) {
	const q = `
		SELECT
			b.industry,
			COUNT(bl.loan_id),
			SUM(bl.loan_amount),
			AVG(bl.profit_rate),
			SUM(CASE WHEN bl.loan_status = 'Defaulted' THEN 1 ELSE 0 END),
			ROUND(100.0 * SUM(CASE WHEN bl.loan_status = 'Defaulted' THEN 1 ELSE 0 END) / COUNT(*), 2),
			SUM(bl.outstanding_balance)
		FROM business_loans bl
		JOIN borrowers b ON bl.borrower_id = b.borrower_id
		GROUP BY b.industry
		ORDER BY SUM(bl.loan_amount) DESC`

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("industry performance query: %w", err)
	}
	defer rows.Close()

	var out []IndustryPerformance
	for rows.Next() {
		var r IndustryPerformance
		if err := rows.Scan(&r.Industry, &r.Loans, &r.TotalLoaned, &r.AvgProfitRate,
			&r.Defaults, &r.DefaultRatePct, &r.Outstanding); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CreditBucketStats summarizes loans in one credit-score band.
type CreditBucketStats struct {
	Bucket         string
	Loans          int
	AvgLoanSize    float64
	AvgProfitRate  float64
	DefaultRatePct float64
}

// FetchCreditBucketStats validates the score-to-risk relationship: the
// buckets come back ordered best to worst.
func FetchCreditBucketStats(ctx context.Context, db *sql.DB) ([]CreditBucketStats, error) {
	const q = `
		SELECT
			CASE
				WHEN bl.credit_score >= 750 THEN 'Excellent (750+)'
				WHEN bl.credit_score >= 700 THEN 'Good (700-749)'
				WHEN bl.credit_score >= 650 THEN 'Fair (650-699)'
				WHEN bl.credit_score >= 600 THEN 'Poor (600-649)'
				ELSE 'Very Poor (<600)'
			END AS bucket,
			COUNT(*),
			AVG(bl.loan_amount),
			AVG(bl.profit_rate),
			ROUND(100.0 * SUM(CASE WHEN bl.loan_status = 'Defaulted' THEN 1 ELSE 0 END) / COUNT(*), 2)
		FROM business_loans bl
		GROUP BY bucket
		ORDER BY MIN(850 - bl.credit_score)`

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("credit bucket query: %w", err)
	}
	defer rows.Close()

	var out []CreditBucketStats
	for rows.Next() {
		var r CreditBucketStats
		if err := rows.Scan(&r.Bucket, &r.Loans, &r.AvgLoanSize, &r.AvgProfitRate, &r.DefaultRatePct); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// InvestorSegment aggregates investors sharing one risk profile.
type InvestorSegment struct {
	Profile              string
	Investors            int
	AvgInvested          float64
	TotalCapital         float64
	Purchases            int
	AvgExpectedReturnPct float64
}

// FetchInvestorSegments groups investors by risk profile.
func FetchInvestorSegments(ctx context.Context, db *sql.DB) ([]InvestorSegment, error) {
	const q = `
		SELECT
			i.risk_profile,
			COUNT(*),
			AVG(i.total_invested),
			SUM(i.total_invested),
			COALESCE(SUM(p.purchases), 0),
			ROUND(COALESCE(AVG(p.avg_return), 0) * 100, 2)
		FROM investors i
		LEFT JOIN (
			SELECT sp.investor_id,
				COUNT(*) AS purchases,
				AVG(si.expected_return_rate) AS avg_return
			FROM sukuk_purchases sp
			JOIN sukuk_issuances si ON sp.sukuk_id = si.sukuk_id
			GROUP BY sp.investor_id
		) p ON i.investor_id = p.investor_id
		GROUP BY i.risk_profile
		ORDER BY CASE i.risk_profile
			WHEN 'Conservative' THEN 1
			WHEN 'Moderate' THEN 2
			ELSE 3
		END`

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("investor segment query: %w", err)
	}
	defer rows.Close()

	var out []InvestorSegment
	for rows.Next() {
		var r InvestorSegment
		if err := rows.Scan(&r.Profile, &r.Investors, &r.AvgInvested, &r.TotalCapital,
			&r.Purchases, &r.AvgExpectedReturnPct); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TopInvestor is one row of the top-capital leaderboard.
type TopInvestor struct {
	Name            string
	Profile         string
	TotalInvested   float64
	Purchases       int
	ReturnsReceived float64
}

// FetchTopInvestors returns the biggest investors by committed capital.
func FetchTopInvestors(ctx context.Context, db *sql.DB, limit int) ([]TopInvestor, error) {
	const q = `
		SELECT
			i.first_name || ' ' || i.last_name,
			i.risk_profile,
			i.total_invested,
			COUNT(DISTINCT sp.purchase_id),
			COALESCE(SUM(pd.amount), 0)
		FROM investors i
		LEFT JOIN sukuk_purchases sp ON i.investor_id = sp.investor_id
		LEFT JOIN profit_distributions pd ON sp.purchase_id = pd.purchase_id
		GROUP BY i.investor_id
		ORDER BY i.total_invested DESC
		LIMIT ?`

	rows, err := db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("top investors query: %w", err)
	}
	defer rows.Close()

	var out []TopInvestor
	for rows.Next() {
		var r TopInvestor
		if err := rows.Scan(&r.Name, &r.Profile, &r.TotalInvested, &r.Purchases, &r.ReturnsReceived); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MonthlyLoans is one month of disbursement activity.
type MonthlyLoans struct {
	Month     string
	Loans     int
	Disbursed float64
	AvgSize   float64
}

// FetchMonthlyLoans rolls the loan book up by disbursement month.
func FetchMonthlyLoans(ctx context.Context, db *sql.DB) ([]MonthlyLoans, error) {
	const q = `
		SELECT
			strftime('%Y-%m', disbursement_date),
			COUNT(*),
			SUM(loan_amount),
			AVG(loan_amount)
		FROM business_loans
		GROUP BY 1
		ORDER BY 1`

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("monthly loans query: %w", err)
	}
	defer rows.Close()

	var out []MonthlyLoans
	for rows.Next() {
		var r MonthlyLoans
		if err := rows.Scan(&r.Month, &r.Loans, &r.Disbursed, &r.AvgSize); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MonthlyIssuance is one month of sukuk issuance activity.
type MonthlyIssuance struct {
	Month       string
	Issuances   int
	TotalAmount float64
}

// FetchIssuanceTimeline rolls issuances up by month.
func FetchIssuanceTimeline(ctx context.Context, db *sql.DB) ([]MonthlyIssuance, error) {
	const q = `
		SELECT strftime('%Y-%m', issue_date), COUNT(*), SUM(total_amount)
		FROM sukuk_issuances
		GROUP BY 1
		ORDER BY 1`

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("issuance timeline query: %w", err)
	}
	defer rows.Close()

	var out []MonthlyIssuance
	for rows.Next() {
		var r MonthlyIssuance
		if err := rows.Scan(&r.Month, &r.Issuances, &r.TotalAmount); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PaymentStatusStats summarizes installments sharing one status.
type PaymentStatusStats struct {
	Status      string
	Count       int
	TotalAmount float64
	AvgAmount   float64
	SharePct    float64
}

// FetchPaymentStatusStats is the on-time/late/missed breakdown.
func FetchPaymentStatusStats(ctx context.Context, db *sql.DB) ([]PaymentStatusStats, error) {
	const q = `
		SELECT
			payment_status,
			COUNT(*),
			SUM(payment_amount),
			AVG(payment_amount),
			ROUND(100.0 * COUNT(*) / (SELECT COUNT(*) FROM loan_payments), 2)
		FROM loan_payments
		GROUP BY payment_status
		ORDER BY COUNT(*) DESC`

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("payment status query: %w", err)
	}
	defer rows.Close()

	var out []PaymentStatusStats
	for rows.Next() {
		var r PaymentStatusStats
		if err := rows.Scan(&r.Status, &r.Count, &r.TotalAmount, &r.AvgAmount, &r.SharePct); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// IndustryPaymentIssues ranks industries by problem-payment share.
type IndustryPaymentIssues struct {
	Industry   string
	Late       int
	Missed     int
	Total      int
	ProblemPct float64
}

// FetchIndustryPaymentIssues lists industries with the worst payment
// discipline, among those with a meaningful payment history.
func FetchIndustryPaymentIssues(ctx context.Context, db *sql.DB, minPayments, limit int) ([]IndustryPaymentIssues, error) {
	const q = `
		SELECT
			b.industry,
			COUNT(CASE WHEN lp.payment_status = 'Late' THEN 1 END),
			COUNT(CASE WHEN lp.payment_status = 'Missed' THEN 1 END),
			COUNT(*),
			ROUND(100.0 * COUNT(CASE WHEN lp.payment_status IN ('Late', 'Missed') THEN 1 END) / COUNT(*), 2)
		FROM loan_payments lp
		JOIN business_loans bl ON lp.loan_id = bl.loan_id
		JOIN borrowers b ON bl.borrower_id = b.borrower_id
		GROUP BY b.industry
		HAVING COUNT(*) >= ?
		ORDER BY 5 DESC
		LIMIT ?`

	rows, err := db.QueryContext(ctx, q, minPayments, limit)
	if err != nil {
		return nil, fmt.Errorf("industry payment issues query: %w", err)
	}
	defer rows.Close()

	var out []IndustryPaymentIssues
	for rows.Next() {
		var r IndustryPaymentIssues
		if err := rows.Scan(&r.Industry, &r.Late, &r.Missed, &r.Total, &r.ProblemPct); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PurposeProfit summarizes profitability for one loan purpose.
type PurposeProfit struct {
	Purpose         string
	Loans           int
	ProfitCollected float64
	AvgProfitRate   float64
	TotalPrincipal  float64
}

// FetchProfitByPurpose groups collected profit by loan purpose.
func FetchProfitByPurpose(ctx context.Context, db *sql.DB, minLoans int) ([]PurposeProfit, error) {
	const q = `
		SELECT
			bl.purpose,
			COUNT(*),
			COALESCE(SUM(lp.profit), 0),
			AVG(bl.profit_rate),
			SUM(bl.loan_amount)
		FROM business_loans bl
		LEFT JOIN (
			SELECT loan_id, SUM(profit_amount) AS profit
			FROM loan_payments
			GROUP BY loan_id
		) lp ON bl.loan_id = lp.loan_id
		GROUP BY bl.purpose
		HAVING COUNT(*) >= ?
		ORDER BY 3 DESC`

	rows, err := db.QueryContext(ctx, q, minLoans)
	if err != nil {
		return nil, fmt.Errorf("profit by purpose query: %w", err)
	}
	defer rows.Close()

	var out []PurposeProfit
	for rows.Next() {
		var r PurposeProfit
		if err := rows.Scan(&r.Purpose, &r.Loans, &r.ProfitCollected, &r.AvgProfitRate, &r.TotalPrincipal); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReturnOnActiveAssets is collected profit over the active loan book.
func ReturnOnActiveAssets(ctx context.Context, db *sql.DB) (float64, error) {
	const q = `
		SELECT
			(SELECT COALESCE(SUM(profit_amount), 0) FROM loan_payments),
			(SELECT COALESCE(SUM(loan_amount), 0) FROM business_loans WHERE loan_status = 'Active')`

	var profit, active float64
	if err := db.QueryRowContext(ctx, q).Scan(&profit, &active); err != nil {
		return 0, fmt.Errorf("return on assets query: %w", err)
	}
	if active == 0 {
		return 0, nil
	}
	return profit / active * 100, nil
}

// EmployeeThroughput is one approver's loan production.
type EmployeeThroughput struct {
	Name        string
	Department  string
	Position    string
	Loans       int
	TotalAmount float64
	AvgSize     float64
	Defaults    int
}

// FetchEmployeeThroughput ranks loan approvers by volume.
func FetchEmployeeThroughput(ctx context.Context, db *sql.DB, limit int) ([]EmployeeThroughput, error) {
	const q = `
		SELECT
			e.first_name || ' ' || e.last_name,
			e.department,
			e.position,
			COUNT(bl.loan_id),
			COALESCE(SUM(bl.loan_amount), 0),
			COALESCE(AVG(bl.loan_amount), 0),
			SUM(CASE WHEN bl.loan_status = 'Defaulted' THEN 1 ELSE 0 END)
		FROM employees e
		JOIN business_loans bl ON e.employee_id = bl.approved_by_employee_id
		GROUP BY e.employee_id
		ORDER BY COUNT(bl.loan_id) DESC
		LIMIT ?`

	rows, err := db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("employee throughput query: %w", err)
	}
	defer rows.Close()

	var out []EmployeeThroughput
	for rows.Next() {
		var r EmployeeThroughput
		if err := rows.Scan(&r.Name, &r.Department, &r.Position, &r.Loans,
			&r.TotalAmount, &r.AvgSize, &r.Defaults); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeptThroughput is purchase-processing volume per customer-facing
// department.
type DeptThroughput struct {
	Department     string
	Employees      int
	Processed      int
	AvgPerEmployee float64
}

// FetchDeptThroughput measures purchase processing per department.
func FetchDeptThroughput(ctx context.Context, db *sql.DB) ([]DeptThroughput, error) {
	const q = `
		SELECT
			e.department,
			COUNT(DISTINCT e.employee_id),
			COUNT(sp.purchase_id),
			ROUND(COUNT(sp.purchase_id) * 1.0 / COUNT(DISTINCT e.employee_id), 2)
		FROM employees e
		LEFT JOIN sukuk_purchases sp ON e.employee_id = sp.processed_by_employee_id
		WHERE e.department IN ('Operations', 'Customer Service')
		GROUP BY e.department`

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("department throughput query: %w", err)
	}
	defer rows.Close()

	var out []DeptThroughput
	for rows.Next() {
		var r DeptThroughput
		if err := rows.Scan(&r.Department, &r.Employees, &r.Processed, &r.AvgPerEmployee); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RiskSummary is the portfolio-wide risk snapshot.
type RiskSummary struct {
	TotalLoans       int
	ActiveLoans      int
	DefaultedLoans   int
	PaidOffLoans     int
	TotalDisbursed   float64
	TotalOutstanding float64
	DefaultedAmount  float64
}

// DefaultRateByCountPct is the share of loans that defaulted.
func (r *RiskSummary) DefaultRateByCountPct() float64 {
	if r.TotalLoans == 0 {
		return 0
	}
	return float64(r.DefaultedLoans) / float64(r.TotalLoans) * 100
}

// DefaultRateByAmountPct is the share of disbursed capital that defaulted.
func (r *RiskSummary) DefaultRateByAmountPct() float64 {
	if r.TotalDisbursed == 0 {
		return 0
	}
	return r.DefaultedAmount / r.TotalDisbursed * 100
}

// FetchRiskSummary computes the portfolio risk indicators.
func FetchRiskSummary(ctx context.Context, db *sql.DB) (*RiskSummary, error) {
	const q = `
		SELECT
			COUNT(*),
			SUM(CASE WHEN loan_status = 'Active' THEN 1 ELSE 0 END),
			SUM(CASE WHEN loan_status = 'Defaulted' THEN 1 ELSE 0 END),
			SUM(CASE WHEN loan_status = 'Paid Off' THEN 1 ELSE 0 END),
			COALESCE(SUM(loan_amount), 0),
			COALESCE(SUM(outstanding_balance), 0),
			COALESCE(SUM(CASE WHEN loan_status = 'Defaulted' THEN loan_amount ELSE 0 END), 0)
		FROM business_loans`

	var r RiskSummary
	var active, defaulted, paidOff sql.NullInt64
	err := db.QueryRowContext(ctx, q).Scan(&r.TotalLoans, &active, &defaulted, &paidOff,
		&r.TotalDisbursed, &r.TotalOutstanding, &r.DefaultedAmount)
	if err != nil {
		return nil, fmt.Errorf("risk summary query: %w", err)
	}
	r.ActiveLoans = int(active.Int64)
	r.DefaultedLoans = int(defaulted.Int64)
	r.PaidOffLoans = int(paidOff.Int64)
	return &r, nil
}

// IndustryConcentration is one industry's share of the active book.
type IndustryConcentration struct {
	Industry     string
	Outstanding  float64
	PortfolioPct float64
}

// FetchConcentration returns the top industries by share of active
// outstanding balance.
func FetchConcentration(ctx context.Context, db *sql.DB, limit int) ([]IndustryConcentration, error) {
	const q = `
		SELECT
			b.industry,
			SUM(bl.outstanding_balance),
			ROUND(100.0 * SUM(bl.outstanding_balance) /
				(SELECT SUM(outstanding_balance) FROM business_loans WHERE loan_status = 'Active'), 2)
		FROM business_loans bl
		JOIN borrowers b ON bl.borrower_id = b.borrower_id
		WHERE bl.loan_status = 'Active'
		GROUP BY b.industry
		ORDER BY 2 DESC
		LIMIT ?`

	rows, err := db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("concentration query: %w", err)
	}
	defer rows.Close()

	var out []IndustryConcentration
	for rows.Next() {
		var r IndustryConcentration
		if err := rows.Scan(&r.Industry, &r.Outstanding, &r.PortfolioPct); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// VintageCohort is the performance of loans originated in one year.
type VintageCohort struct {
	Year           string
	Loans          int
	Disbursed      float64
	Defaults       int
	DefaultRatePct float64
	PaidOff        int
	PayoffRatePct  float64
}

// FetchVintageCohorts groups loan performance by origination year.
func FetchVintageCohorts(ctx context.Context, db *sql.DB) ([]VintageCohort, error) {
	const q = `
		SELECT
			strftime('%Y', disbursement_date),
			COUNT(*),
			SUM(loan_amount),
			SUM(CASE WHEN loan_status = 'Defaulted' THEN 1 ELSE 0 END),
			ROUND(100.0 * SUM(CASE WHEN loan_status = 'Defaulted' THEN 1 ELSE 0 END) / COUNT(*), 2),
			SUM(CASE WHEN loan_status = 'Paid Off' THEN 1 ELSE 0 END),
			ROUND(100.0 * SUM(CASE WHEN loan_status = 'Paid Off' THEN 1 ELSE 0 END) / COUNT(*), 2)
		FROM business_loans
		GROUP BY 1
		ORDER BY 1`

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("vintage cohort query: %w", err)
	}
	defer rows.Close()

	var out []VintageCohort
	for rows.Next() {
		var r VintageCohort
		if err := rows.Scan(&r.Year, &r.Loans, &r.Disbursed, &r.Defaults,
			&r.DefaultRatePct, &r.PaidOff, &r.PayoffRatePct); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
