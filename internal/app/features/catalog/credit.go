// internal/app/features/catalog/credit.go
package catalog

import (
	"errors"
	"net/http"

	uierrors "github.com/nacholimon/opinwork-firebase/internal/app/features/errors"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/credit"
	"github.com/nacholimon/opinwork-firebase/internal/app/system/inputval"
	"github.com/shopspring/decimal"
)

// creditInput accepts money values as JSON strings or numbers.
type creditInput struct {
	Principal  decimal.Decimal `json:"principal"`
	AnnualRate decimal.Decimal `json:"annual_rate"`
	Months     int             `json:"months"`
}

// ServeCredit handles GET /credit-simulator and describes the accepted input.
func (h *Handler) ServeCredit(w http.ResponseWriter, r *http.Request) {
	t := h.I18n.Printer(r)
	uierrors.JSON(w, http.StatusOK, map[string]any{
		"title":      t("creditSimulator"),
		"max_months": credit.MaxMonths,
		"fields":     []string{"principal", "annual_rate", "months"},
	})
}

// HandleSimulate handles POST /credit-simulator.
func (h *Handler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	t := h.I18n.Printer(r)

	var in creditInput
	if err := inputval.DecodeJSON(w, r, &in); err != nil {
		var fe inputval.FieldErrors
		if errors.As(err, &fe) {
			uierrors.WriteFieldErrors(w, t("creditInvalid"), fe)
			return
		}
		uierrors.WriteNotice(w, http.StatusBadRequest, uierrors.Failure(t("creditInvalid")))
		return
	}

	quote, err := credit.Simulate(in.Principal, in.AnnualRate, in.Months)
	if err != nil {
		uierrors.WriteFieldErrors(w, t("creditInvalid"), map[string]string{fieldFor(err): err.Error()})
		return
	}

	uierrors.JSON(w, http.StatusOK, map[string]any{
		"title": t("creditSimulator"),
		"quote": quote,
	})
}

func fieldFor(err error) string {
	switch {
	case errors.Is(err, credit.ErrInvalidPrincipal):
		return "principal"
	case errors.Is(err, credit.ErrInvalidRate):
		return "annual_rate"
	default:
		return "months"
	}
}
