package submission

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/ntak-rms/internal/common"
	"github.com/noah-isme/ntak-rms/internal/dayclose"
	"github.com/noah-isme/ntak-rms/internal/lock"
	"github.com/noah-isme/ntak-rms/internal/ntak"
	"github.com/noah-isme/ntak-rms/internal/order"
	"github.com/noah-isme/ntak-rms/internal/resilience"
)

// Handler exposes submissions over HTTP.
type Handler struct {
	Service   *Service
	Validator *validator.Validate
}

// SubmitOrder handles POST /v1/orders. With ?async=true the order is only
// validated and queued.
func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req order.Request
	if err := common.DecodeAndValidate(r, h.Validator, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	async, _ := strconv.ParseBool(r.URL.Query().Get("async"))
	var (
		res Result
		err error
	)
	if async {
		res, err = h.Service.Enqueue(r.Context(), req)
	} else {
		res, err = h.Service.Submit(r.Context(), req)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusCreated
	if async {
		status = http.StatusAccepted
	}
	common.Data(w, status, res)
}

// CloseDay handles POST /v1/days/close.
func (h *Handler) CloseDay(w http.ResponseWriter, r *http.Request) {
	var req dayclose.Request
	if err := common.DecodeAndValidate(r, h.Validator, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	res, err := h.Service.CloseDay(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, res)
}

// Status handles GET /v1/submissions/{processingId}.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "processingId"))
	if id == "" {
		common.WriteError(w, common.BadRequest("processing id is required", nil))
		return
	}
	resp, err := h.Service.Status(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, resp)
}

func writeError(w http.ResponseWriter, err error) {
	var apiErr *ntak.APIError
	switch {
	case errors.Is(err, ErrInvalid):
		common.WriteError(w, common.ValidationError("validation failed", err).
			WithDetails(map[string]any{"reason": strings.TrimPrefix(err.Error(), ErrInvalid.Error()+": ")}))
	case errors.Is(err, ErrAlreadySubmitted):
		common.WriteError(w, common.NewAppError("ALREADY_SUBMITTED", "order already submitted", http.StatusConflict, err))
	case errors.Is(err, lock.ErrNotAcquired):
		common.WriteError(w, common.NewAppError("SUBMISSION_IN_PROGRESS", "another submission is in progress", http.StatusConflict, err))
	case errors.Is(err, resilience.ErrOpenCircuit):
		common.WriteError(w, common.NewAppError("NTAK_UNAVAILABLE", "ntak temporarily unavailable", http.StatusServiceUnavailable, err))
	case errors.As(err, &apiErr):
		common.WriteError(w, common.NewAppError("NTAK_REJECTED", "ntak rejected the request", http.StatusBadGateway, err).
			WithDetails(map[string]any{"status": apiErr.StatusCode, "body": apiErr.Body}))
	default:
		common.WriteError(w, common.NewAppError("NTAK_FAILED", "ntak request failed", http.StatusBadGateway, err))
	}
}
