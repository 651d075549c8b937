package generate

import (
	"fmt"
	"math"
	"time"

	"github.com/M-AlAteegi/islamic-finance-analytics/internal/model"
)

var loanTermMonths = []int{12, 24, 36, 48, 60}

func (g *Generator) businessLoans(ds *model.Dataset) ([]model.BusinessLoan, error) {
	if len(ds.Borrowers) == 0 {
		return nil, fmt.Errorf("no borrowers to finance")
	}
	if len(ds.SukukIssuances) == 0 {
		return nil, fmt.Errorf("no sukuk issuances to fund loans")
	}
	approvers := employeePool(ds.Employees, func(e model.Employee) bool {
		return e.Department == "Risk Management" || e.Position == "Loan Officer"
	})
	if len(approvers) == 0 {
		return nil, fmt.Errorf("no Risk Management employees or loan officers to approve loans")
	}

	// Capital must exist before it can be lent out: disbursements start
	// no earlier than the first issuance.
	earliestIssue := ds.SukukIssuances[0].IssueDate
	for _, s := range ds.SukukIssuances[1:] {
		if s.IssueDate.Before(earliestIssue) {
			earliestIssue = s.IssueDate
		}
	}

	rows := make([]model.BusinessLoan, g.cfg.Counts.BusinessLoans)
	for i := range rows {
		id := i + 1
		borrower := pick(g.rng, ds.Borrowers)
		amount := g.loanAmount(borrower.CreditScore)
		disb := g.dateBetween(earliestIssue, g.cfg.Sim.CurrentDate)
		term := pick(g.rng, loanTermMonths)
		maturity := disb.AddDate(0, term, 0)

		// Any issuance already on the books can be the funding pool.
		var eligible []int
		for _, s := range ds.SukukIssuances {
			if !s.IssueDate.After(disb) {
				eligible = append(eligible, s.ID)
			}
		}

		rows[i] = model.BusinessLoan{
			ID:                 id,
			Reference:          reference("loan", id),
			BorrowerID:         borrower.ID,
			FundingSukukID:     pickInt(g.rng, eligible),
			Amount:             amount,
			DisbursementDate:   disb,
			MaturityDate:       maturity,
			TermMonths:         term,
			ProfitRate:         g.profitRate(borrower.CreditScore),
			Purpose:            pick(g.rng, loanPurposes),
			Status:             g.loanStatus(borrower, maturity),
			CreditScore:        borrower.CreditScore,
			Collateral:         pick(g.rng, collateralTypes),
			ApprovedBy:         pickInt(g.rng, approvers),
			OutstandingBalance: amount, // settled by the payment stage
		}
	}
	return rows, nil
}

// loanAmount bands principal by creditworthiness.
func (g *Generator) loanAmount(score int) float64 {
	switch {
	case score >= 750:
		return float64(100000 + g.rng.Intn(400001))
	case score >= 650:
		return float64(50000 + g.rng.Intn(200001))
	default:
		return float64(10000 + g.rng.Intn(90001))
	}
}

// profitRate is the profit-sharing rate, inversely banded by score.
func (g *Generator) profitRate(score int) float64 {
	base := 0.10
	switch {
	case score >= 750:
		base -= 0.02
	case score >= 650:
		// base rate
	default:
		base += 0.03
	}
	return round4(base + (g.rng.Float64()-0.5)*0.02)
}

// loanStatus draws the default outcome first, with probability rising
// as the score falls and scaled by the industry risk weight; surviving
// loans are Paid Off once matured, Active otherwise.
func (g *Generator) loanStatus(borrower model.Borrower, maturity time.Time) model.LoanStatus {
	sim := g.cfg.Sim
	weight, ok := sim.IndustryRiskWeights[borrower.Industry]
	if !ok {
		weight = 1.0
	}
	scoreFactor := math.Exp((sim.CreditScoreMean - float64(borrower.CreditScore)) / sim.ScoreFactorScale)
	p := math.Min(0.95, sim.BaseDefaultRate*scoreFactor*weight)

	if g.rng.Float64() < p {
		return model.LoanDefaulted
	}
	if maturity.After(sim.CurrentDate) {
		return model.LoanActive
	}
	return model.LoanPaidOff
}

// paymentPlan is the installment-row allocation for one loan. count is the
// rows it will emit; [min, max] are the bounds within which the count
// can move without breaking the loan's status invariant.
type paymentPlan struct {
	count  int
	min    int
	max    int
	missed int // trailing missed rows, defaulted loans only
}

// loanPayments emits installment histories consistent with each loan's
// status, allocating installment counts across loans so the total row
// count equals the configured target exactly. Unreachable targets are
// an error, never an under-filled table.
func (g *Generator) loanPayments(ds *model.Dataset) ([]model.LoanPayment, error) {
	target := g.cfg.Counts.LoanPayments
	plans := make([]paymentPlan, len(ds.BusinessLoans))
	total := 0

	for i, loan := range ds.BusinessLoans {
		m := loan.TermMonths
		switch loan.Status {
		case model.LoanPaidOff:
			// Full amortization; the schedule can be compressed into
			// fewer, larger installments while still clearing the
			// balance by maturity.
			plans[i] = paymentPlan{count: m, min: 1, max: m}
		case model.LoanDefaulted:
			missed := 2 + g.rng.Intn(2)
			paid := int(math.Round(float64(m) * (0.3 + g.rng.Float64()*0.4)))
			if paid < 1 {
				paid = 1
			}
			if paid > m-missed {
				paid = m - missed
			}
			plans[i] = paymentPlan{count: paid + missed, min: 1 + missed, max: m, missed: missed}
		case model.LoanActive:
			// At most one installment per elapsed month, strictly
			// short of the full term.
			cap := minInt(monthsBetween(loan.DisbursementDate, g.cfg.Sim.CurrentDate), m-1)
			if cap < 0 {
				cap = 0
			}
			plans[i] = paymentPlan{count: cap, min: 0, max: cap}
		}
		total += plans[i].count
	}

	if err := rebalancePlans(plans, target-total); err != nil {
		return nil, err
	}

	rows := make([]model.LoanPayment, 0, target)
	for i := range ds.BusinessLoans {
		loan := &ds.BusinessLoans[i]
		switch loan.Status {
		case model.LoanPaidOff:
			rows = g.emitPaidOff(rows, loan, plans[i].count)
		case model.LoanDefaulted:
			rows = g.emitDefaulted(rows, loan, plans[i].count, plans[i].missed)
		case model.LoanActive:
			rows = g.emitActive(rows, loan, plans[i].count)
		}
	}
	return rows, nil
}

// rebalancePlans shifts installment counts by delta across the plans,
// proportionally to each plan's slack, never crossing a plan's bounds.
func rebalancePlans(plans []paymentPlan, delta int) error {
	if delta == 0 {
		return nil
	}

	capacity := func(p paymentPlan) int {
		if delta > 0 {
			return p.max - p.count
		}
		return p.count - p.min
	}

	var slack int
	for _, p := range plans {
		slack += capacity(p)
	}
	need := delta
	if need < 0 {
		need = -need
	}
	if need > slack {
		if delta < 0 {
			return fmt.Errorf("payment target below the %d rows required for status consistency", sumCounts(plans)-slack)
		}
		return fmt.Errorf("payment target exceeds the %d rows the loan book can produce", sumCounts(plans)+slack)
	}

	sign := 1
	if delta < 0 {
		sign = -1
	}

	// First pass: proportional share of the slack.
	applied := 0
	for i := range plans {
		share := need * capacity(plans[i]) / slack
		plans[i].count += sign * share
		applied += share
	}
	// Remainder: one row at a time, in declaration order.
	for applied < need {
		progressed := false
		for i := range plans {
			if applied == need {
				break
			}
			if capacity(plans[i]) > 0 {
				plans[i].count += sign
				applied++
				progressed = true
			}
		}
		if !progressed {
			return fmt.Errorf("payment rebalancing stalled with %d rows unassigned", need-applied)
		}
	}
	return nil
}

func sumCounts(plans []paymentPlan) int {
	n := 0
	for _, p := range plans {
		n += p.count
	}
	return n
}

// installmentOutcome rolls On Time / Late / Missed with the configured
// weights. allowMissed is false for histories whose coverage invariant
// forbids zero-amount rows.
func (g *Generator) installmentOutcome(allowMissed bool) model.PaymentStatus {
	sim := g.cfg.Sim
	weights := []float64{sim.OnTimeWeight, sim.LateWeight, sim.MissedWeight}
	if !allowMissed {
		weights = weights[:2]
	}
	switch weightedIndex(g.rng, weights) {
	case 0:
		return model.PaymentOnTime
	case 1:
		return model.PaymentLate
	default:
		return model.PaymentMissed
	}
}

// paidDateFor returns the settlement date: the scheduled day when on
// time, a few days later (capped at the simulation date) when late.
func (g *Generator) paidDateFor(scheduled time.Time, status model.PaymentStatus) *time.Time {
	if status == model.PaymentMissed {
		return nil
	}
	d := scheduled
	if status == model.PaymentLate {
		d = minTime(scheduled.AddDate(0, 0, 1+g.rng.Intn(20)), g.cfg.Sim.CurrentDate)
	}
	return &d
}

// emitPaidOff amortizes principal plus the full profit share across n
// installments ending at maturity. The final installment clears the
// balance exactly.
func (g *Generator) emitPaidOff(rows []model.LoanPayment, loan *model.BusinessLoan, n int) []model.LoanPayment {
	totalDue := loan.Amount * (1 + loan.ProfitRate*float64(loan.TermMonths)/12)
	principalPer := round2(loan.Amount / float64(n))
	profitPer := round2((totalDue - loan.Amount) / float64(n))

	spanDays := int(loan.MaturityDate.Sub(loan.DisbursementDate).Hours() / 24)
	remaining := loan.Amount
	for j := 1; j <= n; j++ {
		scheduled := loan.DisbursementDate.AddDate(0, 0, spanDays*j/n)
		principal := principalPer
		if j == n {
			principal = round2(remaining) // absorb rounding drift
		}
		remaining = round2(remaining - principal)
		status := g.installmentOutcome(false)
		rows = append(rows, model.LoanPayment{
			ID:               len(rows) + 1,
			LoanID:           loan.ID,
			ScheduledDate:    scheduled,
			PaidDate:         g.paidDateFor(scheduled, status),
			Amount:           round2(principal + profitPer),
			PrincipalAmount:  principal,
			ProfitAmount:     profitPer,
			RemainingBalance: remaining,
			Status:           status,
		})
	}
	loan.OutstandingBalance = 0
	return rows
}

// emitDefaulted pays a 30-70% fraction of principal across the leading
// installments, then ends the history with the planned run of missed
// rows. Total received stays strictly below principal.
func (g *Generator) emitDefaulted(rows []model.LoanPayment, loan *model.BusinessLoan, n, missed int) []model.LoanPayment {
	paid := n - missed
	fraction := 0.3 + g.rng.Float64()*0.4

	// Split the received fraction into principal and profit portions so
	// the combined amount never reaches the principal.
	totalReceived := loan.Amount * fraction
	profitShare := loan.ProfitRate * float64(loan.TermMonths) / 12
	totalProfit := totalReceived * profitShare / (1 + profitShare)
	principalPer := round2((totalReceived - totalProfit) / float64(paid))
	profitPer := round2(totalProfit / float64(paid))

	end := minTime(loan.MaturityDate, g.cfg.Sim.CurrentDate)
	spanDays := int(end.Sub(loan.DisbursementDate).Hours() / 24)
	remaining := loan.Amount
	for j := 1; j <= n; j++ {
		scheduled := loan.DisbursementDate.AddDate(0, 0, spanDays*j/n)
		if j <= paid {
			remaining = round2(remaining - principalPer)
			status := g.installmentOutcome(false)
			rows = append(rows, model.LoanPayment{
				ID:               len(rows) + 1,
				LoanID:           loan.ID,
				ScheduledDate:    scheduled,
				PaidDate:         g.paidDateFor(scheduled, status),
				Amount:           round2(principalPer + profitPer),
				PrincipalAmount:  principalPer,
				ProfitAmount:     profitPer,
				RemainingBalance: remaining,
				Status:           status,
			})
			continue
		}
		rows = append(rows, model.LoanPayment{
			ID:               len(rows) + 1,
			LoanID:           loan.ID,
			ScheduledDate:    scheduled,
			RemainingBalance: remaining,
			Status:           model.PaymentMissed,
		})
	}
	loan.OutstandingBalance = remaining
	return rows
}

// emitActive walks the regular monthly schedule up to the simulation
// date; coverage stays strictly below principal because the schedule is
// a proper prefix of the term.
func (g *Generator) emitActive(rows []model.LoanPayment, loan *model.BusinessLoan, n int) []model.LoanPayment {
	m := loan.TermMonths
	totalDue := loan.Amount * (1 + loan.ProfitRate*float64(m)/12)
	monthly := totalDue / float64(m)
	principalPer := loan.Amount / float64(m)
	profitPer := monthly - principalPer

	remaining := loan.Amount
	for j := 1; j <= n; j++ {
		scheduled := loan.DisbursementDate.AddDate(0, j, 0)
		status := g.installmentOutcome(true)

		var amount, principal, profit float64
		switch status {
		case model.PaymentMissed:
			// nothing received
		case model.PaymentLate:
			fr := 0.5 + g.rng.Float64()*0.4
			amount, principal, profit = round2(monthly*fr), round2(principalPer*fr), round2(profitPer*fr)
		default:
			amount, principal, profit = round2(monthly), round2(principalPer), round2(profitPer)
		}
		remaining = round2(remaining - principal)
		rows = append(rows, model.LoanPayment{
			ID:               len(rows) + 1,
			LoanID:           loan.ID,
			ScheduledDate:    scheduled,
			PaidDate:         g.paidDateFor(scheduled, status),
			Amount:           amount,
			PrincipalAmount:  principal,
			ProfitAmount:     profit,
			RemainingBalance: remaining,
			Status:           status,
		})
	}
	loan.OutstandingBalance = remaining
	return rows
}
