package store

import (
	"context"
	"database/sql"
	"fmt"
)

// tableDef declares one table together with the tables its foreign keys
// point at. Creation walks the declared order and refuses to create a
// table before its parents exist.
type tableDef struct {
	name      string
	dependsOn []string
	ddl       string
}

var tableDefs = []tableDef{
	{
		name: "employees",
		ddl: `CREATE TABLE employees (
			employee_id INTEGER PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			phone TEXT,
			department TEXT NOT NULL,
			position TEXT NOT NULL,
			hire_date DATE NOT NULL,
			salary REAL NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT 1
		)`,
	},
	{
		name: "investors",
		ddl: `CREATE TABLE investors (
			investor_id INTEGER PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			phone TEXT,
			address TEXT,
			city TEXT,
			country TEXT,
			date_of_birth DATE,
			registration_date DATE NOT NULL,
			risk_profile TEXT NOT NULL,
			total_invested REAL NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT 1
		)`,
	},
	{
		name: "borrowers",
		ddl: `CREATE TABLE borrowers (
			borrower_id INTEGER PRIMARY KEY,
			business_name TEXT NOT NULL,
			contact_person TEXT,
			email TEXT UNIQUE NOT NULL,
			phone TEXT,
			city TEXT,
			country TEXT,
			industry TEXT NOT NULL,
			registration_date DATE NOT NULL,
			credit_score INTEGER NOT NULL,
			annual_revenue REAL,
			num_employees INTEGER,
			is_active BOOLEAN NOT NULL DEFAULT 1
		)`,
	},
	{
		name:      "sukuk_issuances",
		dependsOn: []string{"employees"},
		ddl: `CREATE TABLE sukuk_issuances (
			sukuk_id INTEGER PRIMARY KEY,
			reference TEXT UNIQUE NOT NULL,
			sukuk_name TEXT NOT NULL,
			sukuk_type TEXT NOT NULL,
			issue_date DATE NOT NULL,
			maturity_date DATE NOT NULL,
			total_amount REAL NOT NULL,
			expected_return_rate REAL NOT NULL,
			minimum_investment REAL NOT NULL,
			underlying_assets TEXT,
			status TEXT NOT NULL,
			issued_by_employee_id INTEGER NOT NULL,
			FOREIGN KEY (issued_by_employee_id) REFERENCES employees(employee_id)
		)`,
	},
	{
		name:      "sukuk_purchases",
		dependsOn: []string{"investors", "sukuk_issuances", "employees"},
		ddl: `CREATE TABLE sukuk_purchases (
			purchase_id INTEGER PRIMARY KEY,
			investor_id INTEGER NOT NULL,
			sukuk_id INTEGER NOT NULL,
			purchase_date DATE NOT NULL,
			amount REAL NOT NULL,
			units REAL NOT NULL,
			processed_by_employee_id INTEGER NOT NULL,
			FOREIGN KEY (investor_id) REFERENCES investors(investor_id),
			FOREIGN KEY (sukuk_id) REFERENCES sukuk_issuances(sukuk_id),
			FOREIGN KEY (processed_by_employee_id) REFERENCES employees(employee_id)
		)`,
	},
	{
		name:      "business_loans",
		dependsOn: []string{"borrowers", "sukuk_issuances", "employees"},
		ddl: `CREATE TABLE business_loans (
			loan_id INTEGER PRIMARY KEY,
			reference TEXT UNIQUE NOT NULL,
			borrower_id INTEGER NOT NULL,
			funding_sukuk_id INTEGER NOT NULL,
			loan_amount REAL NOT NULL,
			disbursement_date DATE NOT NULL,
			maturity_date DATE NOT NULL,
			term_months INTEGER NOT NULL,
			profit_rate REAL NOT NULL,
			purpose TEXT,
			loan_status TEXT NOT NULL,
			credit_score INTEGER NOT NULL,
			collateral_description TEXT,
			approved_by_employee_id INTEGER NOT NULL,
			outstanding_balance REAL NOT NULL,
			FOREIGN KEY (borrower_id) REFERENCES borrowers(borrower_id),
			FOREIGN KEY (funding_sukuk_id) REFERENCES sukuk_issuances(sukuk_id),
			FOREIGN KEY (approved_by_employee_id) REFERENCES employees(employee_id)
		)`,
	},
	{
		name:      "loan_payments",
		dependsOn: []string{"business_loans"},
		ddl: `CREATE TABLE loan_payments (
			payment_id INTEGER PRIMARY KEY,
			loan_id INTEGER NOT NULL,
			scheduled_date DATE NOT NULL,
			paid_date DATE,
			payment_amount REAL NOT NULL,
			principal_amount REAL NOT NULL,
			profit_amount REAL NOT NULL,
			remaining_balance REAL NOT NULL,
			payment_status TEXT NOT NULL,
			FOREIGN KEY (loan_id) REFERENCES business_loans(loan_id)
		)`,
	},
	{
		name:      "profit_distributions",
		dependsOn: []string{"sukuk_purchases", "employees"},
		ddl: `CREATE TABLE profit_distributions (
			distribution_id INTEGER PRIMARY KEY,
			purchase_id INTEGER NOT NULL,
			distribution_date DATE NOT NULL,
			amount REAL NOT NULL,
			period_start DATE NOT NULL,
			period_end DATE NOT NULL,
			processed_by_employee_id INTEGER NOT NULL,
			FOREIGN KEY (purchase_id) REFERENCES sukuk_purchases(purchase_id),
			FOREIGN KEY (processed_by_employee_id) REFERENCES employees(employee_id)
		)`,
	},
}

// CreateSchema drops any previous dataset and creates the eight tables
// in dependency order. Prior file contents are never merged.
func (s *Store) CreateSchema(ctx context.Context) error {
	// Drop in reverse order so children go before parents.
	for i := len(tableDefs) - 1; i >= 0; i-- {
		if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+tableDefs[i].name); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", tableDefs[i].name, err)
		}
	}
	return createTables(ctx, s.db, tableDefs)
}

// createTables creates the given tables in order, failing fast if a
// table is declared before one of its parents.
func createTables(ctx context.Context, db *sql.DB, defs []tableDef) error {
	created := make(map[string]bool, len(defs))
	for _, def := range defs {
		for _, parent := range def.dependsOn {
			if !created[parent] {
				return fmt.Errorf("table %s depends on %s, which has not been created yet", def.name, parent)
			}
		}
		if _, err := db.ExecContext(ctx, def.ddl); err != nil {
			return fmt.Errorf("failed to create table %s: %w", def.name, err)
		}
		created[def.name] = true
	}
	return nil
}

// TableNames returns the table names in creation (dependency) order.
func TableNames() []string {
	names := make([]string, len(tableDefs))
	for i, def := range tableDefs {
		names[i] = def.name
	}
	return names
}
