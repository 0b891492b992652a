package tsengine

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/calculatetimeshare/tsengine/notify"
)

type leadInput struct {
	Source               string `json:"source" validate:"required,leadsource"`
	Name                 string `json:"name" validate:"required,max=200"`
	Email                string `json:"email" validate:"required,email,max=320"`
	Phone                string `json:"phone" validate:"max=50"`
	Message              string `json:"message" validate:"max=5000"`
	ResortName           string `json:"resortName" validate:"max=200"`
	AnnualMaintenanceFee *int64 `json:"annualMaintenanceFee" validate:"omitempty,gte=0"`
	PurchasePrice        *int64 `json:"purchasePrice" validate:"omitempty,gte=0"`
	YearsOwned           *int64 `json:"yearsOwned" validate:"omitempty,gte=0"`
	Location             string `json:"location" validate:"max=200"`
	CalculatorResults    string `json:"calculatorResults" validate:"max=20000"`
}

func (in leadInput) lead() Lead {
	return Lead{
		Source:               in.Source,
		Name:                 in.Name,
		Email:                in.Email,
		Phone:                in.Phone,
		Message:              in.Message,
		ResortName:           in.ResortName,
		AnnualMaintenanceFee: in.AnnualMaintenanceFee,
		PurchasePrice:        in.PurchasePrice,
		YearsOwned:           in.YearsOwned,
		Location:             in.Location,
		CalculatorResults:    in.CalculatorResults,
	}
}

func leadEvent(l Lead) notify.LeadEvent {
	return notify.LeadEvent{
		ID:                   l.ID,
		Source:               l.Source,
		Name:                 l.Name,
		Email:                l.Email,
		Phone:                l.Phone,
		Message:              l.Message,
		ResortName:           l.ResortName,
		AnnualMaintenanceFee: l.AnnualMaintenanceFee,
		PurchasePrice:        l.PurchasePrice,
		YearsOwned:           l.YearsOwned,
		Location:             l.Location,
		CalculatorResults:    l.CalculatorResults,
	}
}

// handleCreateLead stores the lead and then fans it out. Notification
// failures never change the response.
func (a *App) handleCreateLead(c echo.Context) error {
	var in leadInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := c.Validate(&in); err != nil {
		return err
	}
	lead, err := a.Store.CreateLead(c.Request().Context(), in.lead())
	if err != nil {
		return err
	}
	leadsCreated.WithLabelValues(lead.Source).Inc()
	a.Notifier.Dispatch(leadEvent(lead))
	return c.JSON(http.StatusCreated, lead)
}

func (a *App) handleListLeads(c echo.Context) error {
	leads, err := a.Store.ListLeads(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, leads)
}

func (a *App) handleGetLead(c echo.Context) error {
	lead, err := a.Store.GetLead(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lead)
}
