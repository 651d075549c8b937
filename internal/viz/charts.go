// Package viz renders the chart suite for a generated dataset as
// static PNG files. Charts are isolated from each other: one failed
// render logs a warning and the rest still run.
package viz

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Renderer draws the chart suite from a populated database into a
// target directory.
type Renderer struct {
	db     *sql.DB
	outDir string
	log    *zap.Logger
}

// New returns a Renderer writing PNGs under outDir.
func New(db *sql.DB, outDir string) *Renderer {
	return &Renderer{db: db, outDir: outDir, log: zap.L()}
}

// RenderAll draws every chart. Individual failures are logged and
// skipped; an error is returned only when no chart could be rendered.
func (r *Renderer) RenderAll(ctx context.Context) error {
	charts := []struct {
		file string
		fn   func(context.Context, string) error
	}{
		{"loans_by_industry.png", r.loansByIndustry},
		{"default_by_credit.png", r.defaultByCredit},
		{"sukuk_trend.png", r.sukukTrend},
		{"payment_status.png", r.paymentStatus},
		{"investor_profiles.png", r.investorProfiles},
		{"loan_status.png", r.loanStatus},
		{"profit_heatmap.png", r.profitHeatmap},
		{"dashboard.png", r.dashboard},
	}

	rendered := 0
	for _, c := range charts {
		path := filepath.Join(r.outDir, c.file)
		if err := c.fn(ctx, path); err != nil {
			r.log.Warn("chart render failed", zap.String("chart", c.file), zap.Error(err))
			continue
		}
		r.log.Info("chart rendered", zap.String("path", path))
		rendered++
	}
	if rendered == 0 {
		return fmt.Errorf("no charts could be rendered")
	}
	return nil
}

// loansByIndustry draws total lending per industry as horizontal bars,
// largest book at the top.
func (r *Renderer) loansByIndustry(ctx context.Context, path string) error {
	const q = `
		SELECT b.industry, SUM(bl.loan_amount)
		FROM business_loans bl
		JOIN borrowers b ON bl.borrower_id = b.borrower_id
		GROUP BY b.industry
		ORDER BY 2`

	labels, values, err := r.labelValueQuery(ctx, q)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return fmt.Errorf("no loan data")
	}

	p := plot.New()
	p.Title.Text = "Total Lending by Industry"
	p.X.Label.Text = "Amount ($)"

	bars, err := plotter.NewBarChart(plotter.Values(values), vg.Points(16))
	if err != nil {
		return err
	}
	bars.Horizontal = true
	bars.Color = plotter.DefaultLineStyle.Color
	p.Add(bars)
	p.NominalY(labels...)

	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}

// defaultByCredit draws loan counts and default counts per credit band
// as grouped vertical bars.
func (r *Renderer) defaultByCredit(ctx context.Context, path string) error {
	const q = `
		SELECT
			CASE
				WHEN credit_score >= 750 THEN 'Excellent'
				WHEN credit_score >= 700 THEN 'Good'
				WHEN credit_score >= 650 THEN 'Fair'
				WHEN credit_score >= 600 THEN 'Poor'
				ELSE 'Very Poor'
			END AS bucket,
			COUNT(*),
			SUM(CASE WHEN loan_status = 'Defaulted' THEN 1 ELSE 0 END)
		FROM business_loans
		GROUP BY bucket
		ORDER BY MIN(850 - credit_score)`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()

	var labels []string
	var totals, defaults plotter.Values
	for rows.Next() {
		var label string
		var total, defaulted float64
		if err := rows.Scan(&label, &total, &defaulted); err != nil {
			return err
		}
		labels = append(labels, label)
		totals = append(totals, total)
		defaults = append(defaults, defaulted)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(labels) == 0 {
		return fmt.Errorf("no loan data")
	}

	p := plot.New()
	p.Title.Text = "Loans and Defaults by Credit Band"
	p.Y.Label.Text = "Loans"

	w := vg.Points(18)
	totalBars, err := plotter.NewBarChart(totals, w)
	if err != nil {
		return err
	}
	totalBars.Offset = -w / 2
	defaultBars, err := plotter.NewBarChart(defaults, w)
	if err != nil {
		return err
	}
	defaultBars.Offset = w / 2
	defaultBars.Color = plotter.DefaultGlyphStyle.Color

	p.Add(totalBars, defaultBars)
	p.Legend.Add("All loans", totalBars)
	p.Legend.Add("Defaulted", defaultBars)
	p.Legend.Top = true
	p.NominalX(labels...)

	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}

// sukukTrend draws cumulative capital raised over time as a time
// series.
func (r *Renderer) sukukTrend(ctx context.Context, path string) error {
	const q = `
		SELECT strftime('%Y-%m', purchase_date) AS month, SUM(amount)
		FROM sukuk_purchases
		GROUP BY month
		ORDER BY month`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()

	var xs []time.Time
	var ys []float64
	var running float64
	for rows.Next() {
		var month string
		var amount float64
		if err := rows.Scan(&month, &amount); err != nil {
			return err
		}
		t, err := time.Parse("2006-01", month)
		if err != nil {
			return err
		}
		running += amount
		xs = append(xs, t)
		ys = append(ys, running)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(xs) == 0 {
		return fmt.Errorf("no purchase data")
	}

	graph := chart.Chart{
		Title:  "Cumulative Capital Raised",
		Width:  900,
		Height: 500,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01"),
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("$%.0fM", f/1e6)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Capital raised",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: chart.ColorBlue,
					FillColor:   chart.ColorBlue.WithAlpha(60),
				},
			},
		},
	}
	return r.saveChart(graph.Render, path)
}

// paymentStatus draws the installment status mix as a pie chart.
func (r *Renderer) paymentStatus(ctx context.Context, path string) error {
	const q = `
		SELECT payment_status, COUNT(*)
		FROM loan_payments
		GROUP BY payment_status
		ORDER BY COUNT(*) DESC`

	labels, values, err := r.labelValueQuery(ctx, q)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return fmt.Errorf("no payment data")
	}

	pie := chart.PieChart{
		Title:  "Payment Status Distribution",
		Width:  600,
		Height: 600,
		Values: chartValues(labels, values),
	}
	return r.saveChart(pie.Render, path)
}

// investorProfiles draws total committed capital per risk profile.
func (r *Renderer) investorProfiles(ctx context.Context, path string) error {
	const q = `
		SELECT risk_profile, SUM(total_invested)
		FROM investors
		GROUP BY risk_profile
		ORDER BY CASE risk_profile
			WHEN 'Conservative' THEN 1
			WHEN 'Moderate' THEN 2
			ELSE 3
		END`

	labels, values, err := r.labelValueQuery(ctx, q)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return fmt.Errorf("no investor data")
	}

	bar := chart.BarChart{
		Title:    "Capital by Investor Risk Profile",
		Width:    700,
		Height:   500,
		BarWidth: 80,
		Bars:     chartValues(labels, values),
	}
	return r.saveChart(bar.Render, path)
}

// loanStatus draws loan counts per status.
func (r *Renderer) loanStatus(ctx context.Context, path string) error {
	const q = `
		SELECT loan_status, COUNT(*)
		FROM business_loans
		GROUP BY loan_status
		ORDER BY COUNT(*) DESC`

	labels, values, err := r.labelValueQuery(ctx, q)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return fmt.Errorf("no loan data")
	}

	bar := chart.BarChart{
		Title:    "Loan Portfolio by Status",
		Width:    700,
		Height:   500,
		BarWidth: 80,
		Bars:     chartValues(labels, values),
	}
	return r.saveChart(bar.Render, path)
}

// profitHeatmap draws collected profit as a month-by-year heat map.
func (r *Renderer) profitHeatmap(ctx context.Context, path string) error {
	const q = `
		SELECT
			CAST(strftime('%Y', scheduled_date) AS INTEGER),
			CAST(strftime('%m', scheduled_date) AS INTEGER),
			SUM(profit_amount)
		FROM loan_payments
		GROUP BY 1, 2`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()

	cells := map[[2]int]float64{}
	minYear, maxYear := 0, 0
	for rows.Next() {
		var year, month int
		var profit float64
		if err := rows.Scan(&year, &month, &profit); err != nil {
			return err
		}
		cells[[2]int{year, month}] = profit
		if minYear == 0 || year < minYear {
			minYear = year
		}
		if year > maxYear {
			maxYear = year
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(cells) == 0 {
		return fmt.Errorf("no payment data")
	}

	grid := &profitGrid{minYear: minYear, years: maxYear - minYear + 1, cells: cells}
	hm := plotter.NewHeatMap(grid, palette.Heat(12, 1))

	p := plot.New()
	p.Title.Text = "Monthly Profit Collected"
	p.X.Label.Text = "Month"
	p.Y.Label.Text = "Year"
	p.Add(hm)

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}

// profitGrid adapts the month/year profit cells to the heat map's
// grid interface. X is the calendar month, Y the year.
type profitGrid struct {
	minYear int
	years   int
	cells   map[[2]int]float64
}

func (g *profitGrid) Dims() (int, int) { return 12, g.years }

func (g *profitGrid) Z(c, r int) float64 {
	return g.cells[[2]int{g.minYear + r, c + 1}]
}

func (g *profitGrid) X(c int) float64 { return float64(c + 1) }

func (g *profitGrid) Y(r int) float64 { return float64(g.minYear + r) }

// dashboard composes four summary charts into a single 2x2 image.
func (r *Renderer) dashboard(ctx context.Context, path string) error {
	renders := []func(context.Context) (image.Image, error){
		r.dashLoanStatus,
		r.dashPaymentStatus,
		r.dashInvestorMix,
		r.dashDisbursements,
	}

	const cw, ch = 600, 450
	canvas := image.NewRGBA(image.Rect(0, 0, cw*2, ch*2))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	for i, render := range renders {
		img, err := render(ctx)
		if err != nil {
			return fmt.Errorf("dashboard panel %d: %w", i+1, err)
		}
		x := (i % 2) * cw
		y := (i / 2) * ch
		rect := image.Rect(x, y, x+cw, y+ch)
		draw.Draw(canvas, rect, img, img.Bounds().Min, draw.Over)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, canvas)
}

func (r *Renderer) dashLoanStatus(ctx context.Context) (image.Image, error) {
	labels, values, err := r.labelValueQuery(ctx,
		`SELECT loan_status, COUNT(*) FROM business_loans GROUP BY loan_status ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, err
	}
	pie := chart.PieChart{Title: "Loan Status", Width: 600, Height: 450, Values: chartValues(labels, values)}
	return renderImage(pie.Render)
}

func (r *Renderer) dashPaymentStatus(ctx context.Context) (image.Image, error) {
	labels, values, err := r.labelValueQuery(ctx,
		`SELECT payment_status, COUNT(*) FROM loan_payments GROUP BY payment_status ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, err
	}
	pie := chart.PieChart{Title: "Payment Status", Width: 600, Height: 450, Values: chartValues(labels, values)}
	return renderImage(pie.Render)
}

func (r *Renderer) dashInvestorMix(ctx context.Context) (image.Image, error) {
	labels, values, err := r.labelValueQuery(ctx,
		`SELECT risk_profile, COUNT(*) FROM investors GROUP BY risk_profile ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, err
	}
	bar := chart.BarChart{Title: "Investor Profiles", Width: 600, Height: 450, BarWidth: 70, Bars: chartValues(labels, values)}
	return renderImage(bar.Render)
}

func (r *Renderer) dashDisbursements(ctx context.Context) (image.Image, error) {
	const q = `
		SELECT strftime('%Y-%m', disbursement_date) AS month, SUM(loan_amount)
		FROM business_loans
		GROUP BY month
		ORDER BY month`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var xs []time.Time
	var ys []float64
	for rows.Next() {
		var month string
		var amount float64
		if err := rows.Scan(&month, &amount); err != nil {
			return nil, err
		}
		t, err := time.Parse("2006-01", month)
		if err != nil {
			return nil, err
		}
		xs = append(xs, t)
		ys = append(ys, amount)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("not enough disbursement data")
	}

	graph := chart.Chart{
		Title:  "Monthly Disbursements",
		Width:  600,
		Height: 450,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01"),
		},
		Series: []chart.Series{
			chart.TimeSeries{XValues: xs, YValues: ys},
		},
	}
	return renderImage(graph.Render)
}

// labelValueQuery runs a two-column (TEXT, numeric) query and returns
// parallel label and value slices.
func (r *Renderer) labelValueQuery(ctx context.Context, q string) ([]string, []float64, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var labels []string
	var values []float64
	for rows.Next() {
		var label string
		var value float64
		if err := rows.Scan(&label, &value); err != nil {
			return nil, nil, err
		}
		labels = append(labels, label)
		values = append(values, value)
	}
	return labels, values, rows.Err()
}

func chartValues(labels []string, values []float64) []chart.Value {
	out := make([]chart.Value, len(labels))
	for i := range labels {
		out[i] = chart.Value{Label: labels[i], Value: values[i]}
	}
	return out
}

func (r *Renderer) saveChart(render func(chart.RendererProvider, io.Writer) error, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return render(chart.PNG, f)
}

func renderImage(render func(chart.RendererProvider, io.Writer) error) (image.Image, error) {
	var buf bytes.Buffer
	if err := render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return png.Decode(&buf)
}
