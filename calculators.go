package tsengine

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/calculatetimeshare/tsengine/projection"
)

// number accepts a JSON number or numeric string. Anything else decodes
// to NaN so the engine's coercion turns it into zero.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*n = number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			*n = number(f)
			return nil
		}
	}
	*n = number(math.NaN())
	return nil
}

type lifetimeRequest struct {
	AnnualMaintenanceFee number `json:"annualMaintenanceFee"`
	PurchasePrice        number `json:"purchasePrice"`
	YearsOwned           number `json:"yearsOwned"`
}

type maintenanceRequest struct {
	CurrentFee    number  `json:"currentFee"`
	Mortgage      number  `json:"mortgage"`
	Rate          number  `json:"rate"`
	Horizon       *number `json:"horizon"`
	MortgageYears number  `json:"mortgageYears"`
}

type maintenanceResponse struct {
	Horizon          int                 `json:"horizon"`
	Rate             float64             `json:"rate"`
	Rows             projection.Schedule `json:"rows"`
	Milestones       []projection.Row    `json:"milestones"`
	FirstYear        int64               `json:"firstYear"`
	MonthlyFirstYear int64               `json:"monthlyFirstYear"`
	TotalCost        int64               `json:"totalCost"`
}

func handleLifetimeCost(c echo.Context) error {
	var req lifetimeRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError("body", "must be a JSON object")
	}
	res := projection.LifetimeCost(projection.LifetimeInput{
		AnnualMaintenanceFee: float64(req.AnnualMaintenanceFee),
		PurchasePrice:        float64(req.PurchasePrice),
		YearsOwned:           float64(req.YearsOwned),
	})
	return c.JSON(http.StatusOK, res)
}

func handleMaintenance(c echo.Context) error {
	var req maintenanceRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError("body", "must be a JSON object")
	}
	horizon := projection.DefaultHorizon
	if req.Horizon != nil {
		horizon = toInt(float64(*req.Horizon))
	}
	horizon = projection.ClampHorizon(horizon)
	rate := projection.ClampRate(float64(req.Rate))

	s := projection.MaintenanceSchedule(projection.MaintenanceInput{
		CurrentFee:    float64(req.CurrentFee),
		Mortgage:      float64(req.Mortgage),
		RatePercent:   rate,
		Horizon:       horizon,
		MortgageYears: toInt(float64(req.MortgageYears)),
	})
	milestones := s.Milestones()
	if milestones == nil {
		milestones = []projection.Row{}
	}
	return c.JSON(http.StatusOK, maintenanceResponse{
		Horizon:          horizon,
		Rate:             rate,
		Rows:             s,
		Milestones:       milestones,
		FirstYear:        s.FirstYear(),
		MonthlyFirstYear: projection.Monthly(s.FirstYear()),
		TotalCost:        s.TotalCost(),
	})
}

// toInt truncates v, mapping NaN and infinities to 0.
func toInt(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int(v)
}
