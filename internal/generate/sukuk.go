package generate

import (
	"fmt"
	"time"

	"github.com/M-AlAteegi/islamic-finance-analytics/internal/model"
)

var maturityYears = []int{2, 3, 5, 7, 10}
var minimumInvestments = []float64{1000, 5000, 10000}

func (g *Generator) sukukIssuances(ds *model.Dataset) ([]model.SukukIssuance, error) {
	finance := employeePool(ds.Employees, func(e model.Employee) bool {
		return e.Department == "Finance"
	})
	if len(finance) == 0 {
		return nil, fmt.Errorf("no Finance employees available to issue sukuk")
	}

	// Issues stop six months before the simulation date so every
	// issuance has room for purchases and at least one profit period.
	latestIssue := g.cfg.Sim.CurrentDate.AddDate(0, -6, 0)
	if !g.cfg.Sim.WindowStart.Before(latestIssue) {
		return nil, fmt.Errorf("simulation window too short for issuance schedule")
	}

	rows := make([]model.SukukIssuance, g.cfg.Counts.SukukIssuances)
	for i := range rows {
		id := i + 1
		sukukType := pick(g.rng, sukukTypes)
		issue := g.dateBetween(g.cfg.Sim.WindowStart, latestIssue)
		years := pick(g.rng, maturityYears)
		maturity := issue.AddDate(years, 0, 0)

		status := model.SukukMatured
		if maturity.After(g.cfg.Sim.CurrentDate) {
			status = model.SukukActive
		}

		rows[i] = model.SukukIssuance{
			ID:           id,
			Reference:    reference("sukuk", id),
			Name:         fmt.Sprintf("%s Sukuk Series %s", sukukType, seriesLabel(i)),
			Type:         sukukType,
			IssueDate:    issue,
			MaturityDate: maturity,
			TotalAmount:  float64(1000000 + g.rng.Intn(9000001)),
			ExpectedReturnRate: round4(g.cfg.Sim.BaseReturnRate +
				float64(years)*g.cfg.Sim.ReturnPerTenorYear +
				(g.rng.Float64()-0.5)*0.02),
			MinimumInvestment: pick(g.rng, minimumInvestments),
			UnderlyingAssets:  pick(g.rng, underlyingAssets),
			Status:            status,
			IssuedBy:          pickInt(g.rng, finance),
		}
	}
	return rows, nil
}

func seriesLabel(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return fmt.Sprintf("%c%d", 'A'+rune(i%26), i/26)
}

// riskMultiplier scales how far above the issuance minimum an investor
// is willing to go.
func riskMultiplier(p model.RiskProfile) float64 {
	switch p {
	case model.RiskAggressive:
		return 50
	case model.RiskModerate:
		return 20
	default:
		return 10
	}
}

func (g *Generator) sukukPurchases(ds *model.Dataset) ([]model.SukukPurchase, error) {
	if len(ds.Investors) == 0 {
		return nil, fmt.Errorf("no investors to purchase sukuk")
	}
	if len(ds.SukukIssuances) == 0 {
		return nil, fmt.Errorf("no sukuk issuances to purchase")
	}
	processors := employeePool(ds.Employees, func(e model.Employee) bool {
		return e.Department == "Operations" || e.Department == "Customer Service"
	})
	if len(processors) == 0 {
		return nil, fmt.Errorf("no Operations or Customer Service employees to process purchases")
	}

	rows := make([]model.SukukPurchase, g.cfg.Counts.SukukPurchases)
	for i := range rows {
		id := i + 1
		investor := pick(g.rng, ds.Investors)
		issuance := pick(g.rng, ds.SukukIssuances)

		// Purchases land within the first year of the issuance, capped
		// at the simulation date.
		end := minTime(issuance.IssueDate.AddDate(1, 0, 0), g.cfg.Sim.CurrentDate)
		date := g.dateBetween(issuance.IssueDate, end)

		amount := round2(issuance.MinimumInvestment *
			(1 + g.rng.Float64()*riskMultiplier(investor.RiskProfile)))

		rows[i] = model.SukukPurchase{
			ID:           id,
			InvestorID:   investor.ID,
			SukukID:      issuance.ID,
			PurchaseDate: date,
			Amount:       amount,
			Units:        round2(amount / 1000),
			ProcessedBy:  pickInt(g.rng, processors),
		}
	}
	return rows, nil
}

// poolPerformance aggregates, per issuance, the principal it funded and
// the profit actually collected from those loans.
type poolPerformance struct {
	principalFunded float64
	profitCollected float64
}

func poolPerformances(ds *model.Dataset) []poolPerformance {
	perf := make([]poolPerformance, len(ds.SukukIssuances))

	profitByLoan := make([]float64, len(ds.BusinessLoans))
	for _, p := range ds.LoanPayments {
		profitByLoan[p.LoanID-1] += p.ProfitAmount
	}
	for i, loan := range ds.BusinessLoans {
		perf[loan.FundingSukukID-1].principalFunded += loan.Amount
		perf[loan.FundingSukukID-1].profitCollected += profitByLoan[i]
	}
	return perf
}

// profitDistributions emits quarterly profit shares to purchases. The
// amount is profit-sharing, not a coupon: each issuance's realized pool
// yield (profit collected from its loans over principal funded) is
// pro-rated per elapsed quarter of the pool's life and applied to the
// purchase amount with small jitter.
func (g *Generator) profitDistributions(ds *model.Dataset) ([]model.ProfitDistribution, error) {
	target := g.cfg.Counts.ProfitDistributions
	if target == 0 {
		return nil, nil
	}
	finance := employeePool(ds.Employees, func(e model.Employee) bool {
		return e.Department == "Finance"
	})
	if len(finance) == 0 {
		return nil, fmt.Errorf("no Finance employees to process distributions")
	}

	perf := poolPerformances(ds)
	rows := make([]model.ProfitDistribution, 0, target)

	for _, pi := range g.rng.Perm(len(ds.SukukPurchases)) {
		purchase := ds.SukukPurchases[pi]
		issuance := ds.SukukIssuances[purchase.SukukID-1]
		pool := perf[purchase.SukukID-1]
		if pool.principalFunded <= 0 {
			continue
		}

		poolYield := pool.profitCollected / pool.principalFunded
		poolQuarters := quartersBetween(issuance.IssueDate, g.cfg.Sim.CurrentDate)
		if poolQuarters < 1 {
			poolQuarters = 1
		}
		quarterlyRate := poolYield / float64(poolQuarters)

		// Up to eight quarterly periods per purchase, bounded by the
		// simulation date.
		for q := 0; q < 8; q++ {
			periodStart := purchase.PurchaseDate.AddDate(0, 0, 90*q)
			periodEnd := periodStart.AddDate(0, 0, 90)
			if periodEnd.After(g.cfg.Sim.CurrentDate) {
				break
			}
			rows = append(rows, model.ProfitDistribution{
				ID:               len(rows) + 1,
				PurchaseID:       purchase.ID,
				DistributionDate: periodEnd,
				Amount:           round2(purchase.Amount * quarterlyRate * (0.9 + g.rng.Float64()*0.2)),
				PeriodStart:      periodStart,
				PeriodEnd:        periodEnd,
				ProcessedBy:      pickInt(g.rng, finance),
			})
			if len(rows) == target {
				return rows, nil
			}
		}
	}

	return nil, fmt.Errorf("only %d distribution periods available, %d requested", len(rows), target)
}

func quartersBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24 / 90)
}
