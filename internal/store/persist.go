package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/M-AlAteegi/islamic-finance-analytics/internal/model"
)

const dateLayout = "2006-01-02"

// Persist writes a complete dataset inside a single transaction, table
// by table in dependency order, so no child row is ever inserted before
// its parent. The dataset is treated as immutable afterwards.
func (s *Store) Persist(ctx context.Context, ds *model.Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertEmployees(ctx, tx, ds.Employees); err != nil {
		return err
	}
	if err := insertInvestors(ctx, tx, ds.Investors); err != nil {
		return err
	}
	if err := insertBorrowers(ctx, tx, ds.Borrowers); err != nil {
		return err
	}
	if err := insertIssuances(ctx, tx, ds.SukukIssuances); err != nil {
		return err
	}
	if err := insertPurchases(ctx, tx, ds.SukukPurchases); err != nil {
		return err
	}
	if err := insertLoans(ctx, tx, ds.BusinessLoans); err != nil {
		return err
	}
	if err := insertPayments(ctx, tx, ds.LoanPayments); err != nil {
		return err
	}
	if err := insertDistributions(ctx, tx, ds.ProfitDistributions); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dataset: %w", err)
	}
	return nil
}

// CountRows returns the number of rows in the named table.
func (s *Store) CountRows(ctx context.Context, table string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", table, err)
	}
	return n, nil
}

func fmtDate(t time.Time) string {
	return t.Format(dateLayout)
}

func fmtDatePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

func insertEmployees(ctx context.Context, tx *sql.Tx, rows []model.Employee) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO employees
		(employee_id, first_name, last_name, email, phone, department, position, hire_date, salary, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare employees insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.ID, r.FirstName, r.LastName, r.Email, r.Phone,
			r.Department, r.Position, fmtDate(r.HireDate), r.Salary, r.Active); err != nil {
			return fmt.Errorf("failed to insert employee %d: %w", r.ID, err)
		}
	}
	return nil
}

func insertInvestors(ctx context.Context, tx *sql.Tx, rows []model.Investor) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO investors
		(investor_id, first_name, last_name, email, phone, address, city, country,
		 date_of_birth, registration_date, risk_profile, total_invested, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare investors insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.ID, r.FirstName, r.LastName, r.Email, r.Phone,
			r.Address, r.City, r.Country, fmtDate(r.DateOfBirth), fmtDate(r.RegistrationDate),
			string(r.RiskProfile), r.TotalInvested, r.Active); err != nil {
			return fmt.Errorf("failed to insert investor %d: %w", r.ID, err)
		}
	}
	return nil
}

func insertBorrowers(ctx context.Context, tx *sql.Tx, rows []model.Borrower) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO borrowers
		(borrower_id, business_name, contact_person, email, phone, city, country,
		 industry, registration_date, credit_score, annual_revenue, num_employees, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare borrowers insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.ID, r.BusinessName, r.ContactPerson, r.Email, r.Phone,
			r.City, r.Country, r.Industry, fmtDate(r.RegistrationDate), r.CreditScore,
			r.AnnualRevenue, r.NumEmployees, r.Active); err != nil {
			return fmt.Errorf("failed to insert borrower %d: %w", r.ID, err)
		}
	}
	return nil
}

func insertIssuances(ctx context.Context, tx *sql.Tx, rows []model.SukukIssuance) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO sukuk_issuances
		(sukuk_id, reference, sukuk_name, sukuk_type, issue_date, maturity_date, total_amount,
		 expected_return_rate, minimum_investment, underlying_assets, status, issued_by_employee_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare sukuk_issuances insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.ID, r.Reference, r.Name, r.Type, fmtDate(r.IssueDate),
			fmtDate(r.MaturityDate), r.TotalAmount, r.ExpectedReturnRate, r.MinimumInvestment,
			r.UnderlyingAssets, string(r.Status), r.IssuedBy); err != nil {
			return fmt.Errorf("failed to insert sukuk issuance %d: %w", r.ID, err)
		}
	}
	return nil
}

func insertPurchases(ctx context.Context, tx *sql.Tx, rows []model.SukukPurchase) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO sukuk_purchases
		(purchase_id, investor_id, sukuk_id, purchase_date, amount, units, processed_by_employee_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare sukuk_purchases insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.ID, r.InvestorID, r.SukukID, fmtDate(r.PurchaseDate),
			r.Amount, r.Units, r.ProcessedBy); err != nil {
			return fmt.Errorf("failed to insert sukuk purchase %d: %w", r.ID, err)
		}
	}
	return nil
}

func insertLoans(ctx context.Context, tx *sql.Tx, rows []model.BusinessLoan) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO business_loans
		(loan_id, reference, borrower_id, funding_sukuk_id, loan_amount, disbursement_date,
		 maturity_date, term_months, profit_rate, purpose, loan_status, credit_score,
		 collateral_description, approved_by_employee_id, outstanding_balance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare business_loans insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.ID, r.Reference, r.BorrowerID, r.FundingSukukID,
			r.Amount, fmtDate(r.DisbursementDate), fmtDate(r.MaturityDate), r.TermMonths,
			r.ProfitRate, r.Purpose, string(r.Status), r.CreditScore, r.Collateral,
			r.ApprovedBy, r.OutstandingBalance); err != nil {
			return fmt.Errorf("failed to insert business loan %d: %w", r.ID, err)
		}
	}
	return nil
}

func insertPayments(ctx context.Context, tx *sql.Tx, rows []model.LoanPayment) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO loan_payments
		(payment_id, loan_id, scheduled_date, paid_date, payment_amount, principal_amount,
		 profit_amount, remaining_balance, payment_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare loan_payments insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.ID, r.LoanID, fmtDate(r.ScheduledDate),
			fmtDatePtr(r.PaidDate), r.Amount, r.PrincipalAmount, r.ProfitAmount,
			r.RemainingBalance, string(r.Status)); err != nil {
			return fmt.Errorf("failed to insert loan payment %d: %w", r.ID, err)
		}
	}
	return nil
}

func insertDistributions(ctx context.Context, tx *sql.Tx, rows []model.ProfitDistribution) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO profit_distributions
		(distribution_id, purchase_id, distribution_date, amount, period_start, period_end,
		 processed_by_employee_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare profit_distributions insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.ID, r.PurchaseID, fmtDate(r.DistributionDate),
			r.Amount, fmtDate(r.PeriodStart), fmtDate(r.PeriodEnd), r.ProcessedBy); err != nil {
			return fmt.Errorf("failed to insert profit distribution %d: %w", r.ID, err)
		}
	}
	return nil
}
