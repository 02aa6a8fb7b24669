package order

import (
	"net/http"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/ntak-rms/internal/common"
	"github.com/noah-isme/ntak-rms/internal/obs"
	"github.com/noah-isme/ntak-rms/internal/pricing"
)

// Handler serves report previews. Nothing is sent to NTAK.
type Handler struct {
	Builder   Builder
	Validator *validator.Validate
}

// Summary exposes the totals behind a report.
type Summary struct {
	GrandTotal        pricing.Money `json:"grandTotal"`
	LinesTotal        pricing.Money `json:"linesTotal"`
	DiscountTarget    pricing.Money `json:"discountTarget"`
	ServiceFeeTarget  pricing.Money `json:"serviceFeeTarget"`
	DiscountDelta     pricing.Money `json:"discountDelta"`
	ServiceFeeDelta   pricing.Money `json:"serviceFeeDelta"`
	RoundingRemainder pricing.Money `json:"roundingRemainder"`
}

// SummaryOf collects the totals of r.
func SummaryOf(r Report) Summary {
	return Summary{
		GrandTotal:        r.GrandTotal,
		LinesTotal:        r.LinesTotal(),
		DiscountTarget:    r.Discount.Target,
		ServiceFeeTarget:  r.ServiceFee.Target,
		DiscountDelta:     r.Discount.Delta,
		ServiceFeeDelta:   r.ServiceFee.Delta,
		RoundingRemainder: r.Payments.Remainder,
	}
}

// Preview handles POST /v1/orders/preview.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := common.DecodeAndValidate(r, h.Validator, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	o, err := req.Order()
	if err != nil {
		common.WriteError(w, ValidationFailed(err))
		return
	}
	report := h.Builder.Build(o)
	obs.RecordReport(string(report.Type), report.Discount.Delta, report.ServiceFee.Delta)
	resp := map[string]any{"data": report}
	if !report.IsCancellation() {
		resp["summary"] = SummaryOf(report)
	}
	common.JSON(w, http.StatusOK, resp)
}
