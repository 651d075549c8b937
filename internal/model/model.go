// Package model defines the typed records for the eight tables of the
// simulated Islamic finance company. Rows are generated once, in
// dependency order, and referenced by integer id (row index + 1).
package model

import "time"

// RiskProfile classifies an investor's appetite.
type RiskProfile string

const (
	RiskConservative RiskProfile = "Conservative"
	RiskModerate     RiskProfile = "Moderate"
	RiskAggressive   RiskProfile = "Aggressive"
)

// LoanStatus is the lifecycle state of a business loan.
type LoanStatus string

const (
	LoanActive    LoanStatus = "Active"
	LoanPaidOff   LoanStatus = "Paid Off"
	LoanDefaulted LoanStatus = "Defaulted"
)

// PaymentStatus describes a single scheduled installment.
type PaymentStatus string

const (
	PaymentOnTime PaymentStatus = "On Time"
	PaymentLate   PaymentStatus = "Late"
	PaymentMissed PaymentStatus = "Missed"
)

// SukukStatus is the lifecycle state of an issuance.
type SukukStatus string

const (
	SukukActive  SukukStatus = "Active"
	SukukMatured SukukStatus = "Matured"
)

// Employee is a staff member of the finance house.
type Employee struct {
	ID         int
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Department string
	Position   string
	HireDate   time.Time
	Salary     float64
	Active     bool
}

// Investor is an individual who buys Sukuk certificates.
type Investor struct {
	ID               int
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	Address          string
	City             string
	Country          string
	DateOfBirth      time.Time
	RegistrationDate time.Time
	RiskProfile      RiskProfile
	TotalInvested    float64
	Active           bool
}

// Borrower is a business seeking non-interest financing.
type Borrower struct {
	ID               int
	BusinessName     string
	ContactPerson    string
	Email            string
	Phone            string
	City             string
	Country          string
	Industry         string
	RegistrationDate time.Time
	CreditScore      int
	AnnualRevenue    float64
	NumEmployees     int
	Active           bool
}

// SukukIssuance is an asset-backed certificate pool offered to investors.
type SukukIssuance struct {
	ID                 int
	Reference          string
	Name               string
	Type               string
	IssueDate          time.Time
	MaturityDate       time.Time
	TotalAmount        float64
	ExpectedReturnRate float64
	MinimumInvestment  float64
	UnderlyingAssets   string
	Status             SukukStatus
	IssuedBy           int
}

// SukukPurchase records an investor buying into an issuance.
type SukukPurchase struct {
	ID           int
	InvestorID   int
	SukukID      int
	PurchaseDate time.Time
	Amount       float64
	Units        float64
	ProcessedBy  int
}

// BusinessLoan is financing extended to a borrower out of a Sukuk pool.
// FundingSukukID ties the loan to the issuance whose capital funded it,
// which is what makes pooled profit-sharing computable.
type BusinessLoan struct {
	ID                 int
	Reference          string
	BorrowerID         int
	FundingSukukID     int
	Amount             float64
	DisbursementDate   time.Time
	MaturityDate       time.Time
	TermMonths         int
	ProfitRate         float64
	Purpose            string
	Status             LoanStatus
	CreditScore        int // snapshot at approval time
	Collateral         string
	ApprovedBy         int
	OutstandingBalance float64
}

// LoanPayment is one scheduled installment of a loan. PaidDate is nil
// for missed installments.
type LoanPayment struct {
	ID               int
	LoanID           int
	ScheduledDate    time.Time
	PaidDate         *time.Time
	Amount           float64
	PrincipalAmount  float64
	ProfitAmount     float64
	RemainingBalance float64
	Status           PaymentStatus
}

// ProfitDistribution is a quarterly profit share paid to a purchase.
type ProfitDistribution struct {
	ID               int
	PurchaseID       int
	DistributionDate time.Time
	Amount           float64
	PeriodStart      time.Time
	PeriodEnd        time.Time
	ProcessedBy      int
}

// Dataset holds one complete generated population, tables in dependency
// order. Row ids equal slice index + 1.
type Dataset struct {
	Employees           []Employee
	Investors           []Investor
	Borrowers           []Borrower
	SukukIssuances      []SukukIssuance
	SukukPurchases      []SukukPurchase
	BusinessLoans       []BusinessLoan
	LoanPayments        []LoanPayment
	ProfitDistributions []ProfitDistribution
}

// CreditBucket maps a score to the reporting category used by the
// analytics and chart stages.
func CreditBucket(score int) string {
	switch {
	case score >= 750:
		return "Excellent (750+)"
	case score >= 700:
		return "Good (700-749)"
	case score >= 650:
		return "Fair (650-699)"
	case score >= 600:
		return "Poor (600-649)"
	default:
		return "Very Poor (<600)"
	}
}
