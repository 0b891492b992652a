// Package projection computes timeshare cost schedules from a handful of
// owner-supplied numbers. Every function is pure: no I/O, no hidden state,
// and no error paths. Callers coerce and clamp raw input first (see
// ClampHorizon, ClampRate and NonNegative).
package projection

import "math"

const (
	// LifetimeYears is the fixed horizon of the lifetime-cost projection.
	LifetimeYears = 30
	// LifetimeGrowthRate is the fixed annual fee increase (5%) used by LifetimeCost.
	LifetimeGrowthRate = 0.05

	DefaultHorizon       = 30
	DefaultMortgageYears = 10

	MinHorizon = 1
	MaxHorizon = 50
	MinRate    = 0
	MaxRate    = 20

	// MaxAmount caps any single money or year input.
	MaxAmount = 1e12
)

// milestoneYears are the checkpoint rows surfaced by Schedule.Milestones.
var milestoneYears = []int{5, 10, 20, 30}

// LifetimeInput feeds the lifetime-cost calculator.
type LifetimeInput struct {
	AnnualMaintenanceFee float64
	PurchasePrice        float64
	YearsOwned           float64
}

// LifetimeResult holds the rounded lifetime-cost figures.
type LifetimeResult struct {
	PurchasePrice       int64 `json:"purchasePrice"`
	LifetimeMaintenance int64 `json:"lifetimeMaintenance"`
	TotalLifetimeCost   int64 `json:"totalLifetimeCost"`
	AverageAnnualCost   int64 `json:"averageAnnualCost"`
	YearsOwned          int64 `json:"yearsOwned"`
	TotalPaidSoFar      int64 `json:"totalPaidSoFar"`
}

// LifetimeCost projects the maintenance fee over LifetimeYears at
// LifetimeGrowthRate and sums it with the purchase price.
//
// TotalPaidSoFar multiplies the current fee by the years already owned
// without compounding, unlike the forward projection.
func LifetimeCost(in LifetimeInput) LifetimeResult {
	fee := NonNegative(in.AnnualMaintenanceFee)
	price := NonNegative(in.PurchasePrice)
	owned := NonNegative(in.YearsOwned)

	maintenance := 0.0
	for _, v := range growthSeries(fee, LifetimeGrowthRate, LifetimeYears) {
		maintenance += v
	}

	return LifetimeResult{
		PurchasePrice:       round(price),
		LifetimeMaintenance: round(maintenance),
		TotalLifetimeCost:   round(price + maintenance),
		AverageAnnualCost:   round(maintenance / LifetimeYears),
		YearsOwned:          round(owned),
		TotalPaidSoFar:      round(price + fee*owned),
	}
}

// MaintenanceInput feeds the maintenance-fee calculator. RatePercent is a
// percentage (5 means 5%). Horizon is clamped to [MinHorizon, MaxHorizon];
// a zero MortgageYears takes DefaultMortgageYears.
type MaintenanceInput struct {
	CurrentFee    float64
	Mortgage      float64
	RatePercent   float64
	Horizon       int
	MortgageYears int
}

// Row is one projected year.
type Row struct {
	Year        int   `json:"year"`
	Maintenance int64 `json:"maintenance"`
	Mortgage    int64 `json:"mortgage"`
	Total       int64 `json:"total"`
	Cumulative  int64 `json:"cumulative"`
}

// Schedule is the year-indexed projection series.
type Schedule []Row

// MaintenanceSchedule projects maintenance fees year by year, adds the
// fixed mortgage charge for the first MortgageYears, and carries a running
// cumulative total. Per-year figures are rounded before they are summed so
// that Cumulative is always the exact prefix sum of Total.
func MaintenanceSchedule(in MaintenanceInput) Schedule {
	horizon := ClampHorizon(in.Horizon)
	mortgageYears := in.MortgageYears
	if mortgageYears <= 0 {
		mortgageYears = DefaultMortgageYears
	}
	fee := NonNegative(in.CurrentFee)
	mortgage := NonNegative(in.Mortgage)
	rate := ClampRate(in.RatePercent) / 100

	series := growthSeries(fee, rate, horizon)
	rows := make(Schedule, 0, horizon)
	var cumulative int64
	for i, v := range series {
		year := i + 1
		row := Row{Year: year, Maintenance: round(v)}
		if year <= mortgageYears {
			row.Mortgage = round(mortgage)
		}
		row.Total = row.Maintenance + row.Mortgage
		cumulative += row.Total
		row.Cumulative = cumulative
		rows = append(rows, row)
	}
	return rows
}

// Milestones returns the rows for years 5, 10, 20 and 30 that fall inside
// the schedule.
func (s Schedule) Milestones() []Row {
	var out []Row
	for _, y := range milestoneYears {
		if y <= len(s) {
			out = append(out, s[y-1])
		}
	}
	return out
}

// FirstYear is the first year's total, or 0 for an empty schedule.
func (s Schedule) FirstYear() int64 {
	if len(s) == 0 {
		return 0
	}
	return s[0].Total
}

// TotalCost is the final cumulative value, or 0 for an empty schedule.
func (s Schedule) TotalCost() int64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Cumulative
}

// Monthly converts an annual figure to its monthly equivalent for display.
func Monthly(v int64) int64 {
	return round(float64(v) / 12)
}

// ClampHorizon bounds a projection horizon to [MinHorizon, MaxHorizon].
func ClampHorizon(years int) int {
	if years < MinHorizon {
		return MinHorizon
	}
	if years > MaxHorizon {
		return MaxHorizon
	}
	return years
}

// ClampRate bounds an annual growth percentage to [MinRate, MaxRate].
func ClampRate(pct float64) float64 {
	if math.IsNaN(pct) || pct < MinRate {
		return MinRate
	}
	if pct > MaxRate {
		return MaxRate
	}
	return pct
}

// NonNegative coerces NaN, infinities and negative values to zero and
// caps everything else at MaxAmount.
func NonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return min(v, MaxAmount)
}

// growthSeries returns fee × (1+rate)^(y-1) for y = 1..years.
func growthSeries(fee, rate float64, years int) []float64 {
	out := make([]float64, years)
	for i := range out {
		out[i] = fee * math.Pow(1+rate, float64(i))
	}
	return out
}

// round saturates at math.MaxInt64 instead of wrapping.
func round(v float64) int64 {
	if v >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(math.Round(v))
}
