package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/M-AlAteegi/islamic-finance-analytics/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	st, err := Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// smallDataset is a minimal but fully linked population: one row in
// every table, every foreign key resolvable.
func smallDataset() *model.Dataset {
	paid := date(2023, 2, 1)
	return &model.Dataset{
		Employees: []model.Employee{{
			ID: 1, FirstName: "Sara", LastName: "Haddad", Email: "sara.haddad@example.com",
			Phone: "+1-555-0100", Department: "Finance", Position: "Financial Analyst",
			HireDate: date(2021, 3, 15), Salary: 72000, Active: true,
		}},
		Investors: []model.Investor{{
			ID: 1, FirstName: "Omar", LastName: "Rahman", Email: "omar.rahman@example.com",
			Phone: "+1-555-0101", Address: "12 Crescent Rd", City: "Dubai", Country: "UAE",
			DateOfBirth: date(1980, 6, 2), RegistrationDate: date(2022, 1, 10),
			RiskProfile: model.RiskModerate, TotalInvested: 25000, Active: true,
		}},
		Borrowers: []model.Borrower{{
			ID: 1, BusinessName: "Crescent Trading LLC", ContactPerson: "Aisha Khan",
			Email: "info@crescent.example.com", Phone: "+1-555-0102", City: "Dubai", Country: "UAE",
			Industry: "Retail", RegistrationDate: date(2021, 8, 20), CreditScore: 710,
			AnnualRevenue: 1200000, NumEmployees: 14, Active: true,
		}},
		SukukIssuances: []model.SukukIssuance{{
			ID: 1, Reference: "SUK-0001", Name: "Ijara Sukuk Series A", Type: "Ijara",
			IssueDate: date(2022, 3, 1), MaturityDate: date(2027, 3, 1), TotalAmount: 5000000,
			ExpectedReturnRate: 0.055, MinimumInvestment: 5000,
			UnderlyingAssets: "Commercial real estate", Status: model.SukukActive, IssuedBy: 1,
		}},
		SukukPurchases: []model.SukukPurchase{{
			ID: 1, InvestorID: 1, SukukID: 1, PurchaseDate: date(2022, 4, 5),
			Amount: 25000, Units: 25, ProcessedBy: 1,
		}},
		BusinessLoans: []model.BusinessLoan{{
			ID: 1, Reference: "LN-0001", BorrowerID: 1, FundingSukukID: 1, Amount: 150000,
			DisbursementDate: date(2022, 6, 1), MaturityDate: date(2025, 6, 1), TermMonths: 36,
			ProfitRate: 0.09, Purpose: "Inventory Purchase", Status: model.LoanActive,
			CreditScore: 710, Collateral: "Inventory", ApprovedBy: 1, OutstandingBalance: 120000,
		}},
		LoanPayments: []model.LoanPayment{{
			ID: 1, LoanID: 1, ScheduledDate: date(2023, 2, 1), PaidDate: &paid,
			Amount: 5291.67, PrincipalAmount: 4166.67, ProfitAmount: 1125,
			RemainingBalance: 145833.33, Status: model.PaymentOnTime,
		}},
		ProfitDistributions: []model.ProfitDistribution{{
			ID: 1, PurchaseID: 1, DistributionDate: date(2022, 7, 4),
			Amount: 343.75, PeriodStart: date(2022, 4, 5), PeriodEnd: date(2022, 7, 4),
			ProcessedBy: 1,
		}},
	}
}

func TestCreateSchemaAndPersist(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	if err := st.CreateSchema(ctx); err != nil {
		t.Fatalf("CreateSchema() failed: %v", err)
	}
	if err := st.Persist(ctx, smallDataset()); err != nil {
		t.Fatalf("Persist() failed: %v", err)
	}

	for _, table := range TableNames() {
		n, err := st.CountRows(ctx, table)
		if err != nil {
			t.Fatalf("CountRows(%s) failed: %v", table, err)
		}
		if n != 1 {
			t.Errorf("table %s: got %d rows, want 1", table, n)
		}
	}
}

func TestCreateSchemaIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	if err := st.CreateSchema(ctx); err != nil {
		t.Fatalf("first CreateSchema() failed: %v", err)
	}
	if err := st.Persist(ctx, smallDataset()); err != nil {
		t.Fatalf("Persist() failed: %v", err)
	}
	// A second run must drop the old dataset, not merge with it.
	if err := st.CreateSchema(ctx); err != nil {
		t.Fatalf("second CreateSchema() failed: %v", err)
	}
	n, err := st.CountRows(ctx, "employees")
	if err != nil {
		t.Fatalf("CountRows() failed: %v", err)
	}
	if n != 0 {
		t.Errorf("employees survived schema recreation: %d rows", n)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	if err := st.CreateSchema(ctx); err != nil {
		t.Fatalf("CreateSchema() failed: %v", err)
	}

	ds := smallDataset()
	ds.BusinessLoans[0].BorrowerID = 99 // no such borrower
	if err := st.Persist(ctx, ds); err == nil {
		t.Fatal("Persist() accepted a loan with a dangling borrower reference")
	}
}

func TestCreateTablesRejectsOutOfOrderDefs(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	defs := []tableDef{
		{name: "children", dependsOn: []string{"parents"},
			ddl: `CREATE TABLE children (id INTEGER PRIMARY KEY, parent_id INTEGER, FOREIGN KEY (parent_id) REFERENCES parents(id))`},
		{name: "parents", ddl: `CREATE TABLE parents (id INTEGER PRIMARY KEY)`},
	}
	err := createTables(ctx, st.DB(), defs)
	if err == nil {
		t.Fatal("createTables() accepted a child declared before its parent")
	}
	if !strings.Contains(err.Error(), "depends on parents") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPersistRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	if err := st.CreateSchema(ctx); err != nil {
		t.Fatalf("CreateSchema() failed: %v", err)
	}
	ds := smallDataset()
	if err := st.Persist(ctx, ds); err != nil {
		t.Fatalf("Persist() failed: %v", err)
	}

	var (
		reference string
		status    string
		balance   float64
		paidDate  *string
	)
	row := st.DB().QueryRowContext(ctx, `
		SELECT bl.reference, bl.loan_status, bl.outstanding_balance, lp.paid_date
		FROM business_loans bl
		JOIN loan_payments lp ON lp.loan_id = bl.loan_id
		WHERE bl.loan_id = 1`)
	if err := row.Scan(&reference, &status, &balance, &paidDate); err != nil {
		t.Fatalf("query round trip: %v", err)
	}

	if reference != ds.BusinessLoans[0].Reference {
		t.Errorf("reference = %q, want %q", reference, ds.BusinessLoans[0].Reference)
	}
	if status != string(model.LoanActive) {
		t.Errorf("loan_status = %q, want %q", status, model.LoanActive)
	}
	if balance != ds.BusinessLoans[0].OutstandingBalance {
		t.Errorf("outstanding_balance = %v, want %v", balance, ds.BusinessLoans[0].OutstandingBalance)
	}
	if paidDate == nil || *paidDate != "2023-02-01" {
		t.Errorf("paid_date = %v, want 2023-02-01", paidDate)
	}
}

func TestNilPaidDatePersistsAsNull(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	if err := st.CreateSchema(ctx); err != nil {
		t.Fatalf("CreateSchema() failed: %v", err)
	}
	ds := smallDataset()
	ds.LoanPayments[0].PaidDate = nil
	ds.LoanPayments[0].Status = model.PaymentMissed
	if err := st.Persist(ctx, ds); err != nil {
		t.Fatalf("Persist() failed: %v", err)
	}

	var paidDate *string
	err := st.DB().QueryRowContext(ctx,
		`SELECT paid_date FROM loan_payments WHERE payment_id = 1`).Scan(&paidDate)
	if err != nil {
		t.Fatalf("query paid_date: %v", err)
	}
	if paidDate != nil {
		t.Errorf("paid_date = %q, want NULL", *paidDate)
	}
}
