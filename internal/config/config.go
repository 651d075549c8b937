// Package config loads all runtime settings from the environment. A
// .env file in the working directory is honored when present. Every
// simulation tuning parameter (row counts, date window, correlation
// strengths) is configurable here; the defaults reproduce the standard
// dataset.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const dateLayout = "2006-01-02"

// Counts fixes the number of rows generated per table.
type Counts struct {
	Employees           int
	Investors           int
	Borrowers           int
	SukukIssuances      int
	SukukPurchases      int
	BusinessLoans       int
	LoanPayments        int
	ProfitDistributions int
}

// Simulation holds the statistical knobs of the generator.
type Simulation struct {
	// Seed for the random source. 0 means seed from the wall clock;
	// any other value makes the run reproducible.
	Seed int64

	// WindowStart and CurrentDate bound every generated date. The
	// simulation "today" is fixed so runs are reproducible.
	WindowStart time.Time
	CurrentDate time.Time

	// Credit scores are drawn from a normal distribution clamped to
	// [300, 850].
	CreditScoreMean   float64
	CreditScoreStdDev float64

	// BaseDefaultRate is the default probability for a borrower at the
	// mean credit score in a weight-1.0 industry. The per-loan
	// probability is BaseDefaultRate * exp((mean-score)/ScoreFactorScale)
	// * industry weight, clamped to [0, 0.95].
	ScoreFactorScale    float64
	BaseDefaultRate     float64
	IndustryRiskWeights map[string]float64

	// Installment outcome weights (must sum to 1).
	OnTimeWeight float64
	LateWeight   float64
	MissedWeight float64

	// BaseReturnRate anchors issuance expected return; each maturity
	// year adds ReturnPerTenorYear.
	BaseReturnRate     float64
	ReturnPerTenorYear float64
}

// Config is the process-wide configuration.
type Config struct {
	Env      string
	LogLevel string
	DBPath   string
	ChartDir string
	Counts   Counts
	Sim      Simulation
}

// Load reads configuration from the environment, applying defaults for
// anything unset. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("SIM_ENV", "development"),
		LogLevel: getEnv("SIM_LOG_LEVEL", "info"),
		DBPath:   getEnv("SIM_DB_PATH", "islamic_finance.db"),
		ChartDir: getEnv("SIM_CHART_DIR", "charts"),
		Counts: Counts{
			Employees:           getEnvInt("SIM_NUM_EMPLOYEES", 50),
			Investors:           getEnvInt("SIM_NUM_INVESTORS", 500),
			Borrowers:           getEnvInt("SIM_NUM_BORROWERS", 300),
			SukukIssuances:      getEnvInt("SIM_NUM_SUKUK_ISSUANCES", 10),
			SukukPurchases:      getEnvInt("SIM_NUM_SUKUK_PURCHASES", 1500),
			BusinessLoans:       getEnvInt("SIM_NUM_LOANS", 250),
			LoanPayments:        getEnvInt("SIM_NUM_LOAN_PAYMENTS", 2000),
			ProfitDistributions: getEnvInt("SIM_NUM_PROFIT_DISTRIBUTIONS", 800),
		},
	}

	var err error
	cfg.Sim, err = loadSimulation()
	if err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadSimulation() (Simulation, error) {
	sim := Simulation{
		Seed:               int64(getEnvInt("SIM_SEED", 42)),
		CreditScoreMean:    getEnvFloat("SIM_CREDIT_SCORE_MEAN", 680),
		CreditScoreStdDev:  getEnvFloat("SIM_CREDIT_SCORE_STDDEV", 60),
		BaseDefaultRate:    getEnvFloat("SIM_BASE_DEFAULT_RATE", 0.05),
		ScoreFactorScale:   getEnvFloat("SIM_SCORE_FACTOR_SCALE", 80),
		OnTimeWeight:       getEnvFloat("SIM_ONTIME_WEIGHT", 0.95),
		LateWeight:         getEnvFloat("SIM_LATE_WEIGHT", 0.03),
		MissedWeight:       getEnvFloat("SIM_MISSED_WEIGHT", 0.02),
		BaseReturnRate:     getEnvFloat("SIM_BASE_RETURN_RATE", 0.05),
		ReturnPerTenorYear: getEnvFloat("SIM_RETURN_PER_TENOR_YEAR", 0.005),
	}

	var err error
	sim.WindowStart, err = getEnvDate("SIM_WINDOW_START", "2020-01-01")
	if err != nil {
		return sim, err
	}
	sim.CurrentDate, err = getEnvDate("SIM_CURRENT_DATE", "2024-10-31")
	if err != nil {
		return sim, err
	}

	sim.IndustryRiskWeights, err = getEnvWeights("SIM_INDUSTRY_RISK_WEIGHTS", defaultIndustryWeights)
	if err != nil {
		return sim, err
	}
	return sim, nil
}

// defaultIndustryWeights skews default probability by sector. 1.0 is
// neutral; higher means riskier.
var defaultIndustryWeights = map[string]float64{
	"Technology":            0.9,
	"Retail":                1.3,
	"Manufacturing":         1.0,
	"Healthcare":            0.8,
	"Education":             0.9,
	"Real Estate":           1.2,
	"Food & Beverage":       1.4,
	"Agriculture":           1.2,
	"Construction":          1.5,
	"Transportation":        1.1,
	"Professional Services": 0.8,
}

func validate(cfg *Config) error {
	c := cfg.Counts
	for name, n := range map[string]int{
		"SIM_NUM_EMPLOYEES":            c.Employees,
		"SIM_NUM_INVESTORS":            c.Investors,
		"SIM_NUM_BORROWERS":            c.Borrowers,
		"SIM_NUM_SUKUK_ISSUANCES":      c.SukukIssuances,
		"SIM_NUM_SUKUK_PURCHASES":      c.SukukPurchases,
		"SIM_NUM_LOANS":                c.BusinessLoans,
		"SIM_NUM_LOAN_PAYMENTS":        c.LoanPayments,
		"SIM_NUM_PROFIT_DISTRIBUTIONS": c.ProfitDistributions,
	} {
		if n < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	if !cfg.Sim.WindowStart.Before(cfg.Sim.CurrentDate) {
		return fmt.Errorf("SIM_WINDOW_START (%s) must precede SIM_CURRENT_DATE (%s)",
			cfg.Sim.WindowStart.Format(dateLayout), cfg.Sim.CurrentDate.Format(dateLayout))
	}
	total := cfg.Sim.OnTimeWeight + cfg.Sim.LateWeight + cfg.Sim.MissedWeight
	if total < 0.999 || total > 1.001 {
		return fmt.Errorf("installment outcome weights must sum to 1, got %.3f", total)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDate(key, fallback string) (time.Time, error) {
	v := getEnv(key, fallback)
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date in %s: %w", key, err)
	}
	return t, nil
}

// getEnvWeights parses "Name:1.2,Other Name:0.8" pairs. Unlisted
// industries keep their default weight.
func getEnvWeights(key string, defaults map[string]float64) (map[string]float64, error) {
	weights := make(map[string]float64, len(defaults))
	for k, v := range defaults {
		weights[k] = v
	}
	raw := os.Getenv(key)
	if raw == "" {
		return weights, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		name, val, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("invalid entry %q in %s (want name:weight)", pair, key)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight %q in %s: %w", val, key, err)
		}
		weights[strings.TrimSpace(name)] = w
	}
	return weights, nil
}
