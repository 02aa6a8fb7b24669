package events

import (
	"context"
	"net/http"
	"strconv"

	"github.com/noah-isme/ntak-rms/internal/common"
)

// Reader lists recorded events. RedisStreamStore satisfies it.
type Reader interface {
	Recent(ctx context.Context, count int64) ([]Event, error)
}

// Handler exposes the event log over HTTP.
type Handler struct {
	Reader Reader
}

// Recent handles GET /v1/events?limit=n.
func (h Handler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := int64(50)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 || n > 500 {
			common.WriteError(w, common.BadRequest("limit must be between 1 and 500", err))
			return
		}
		limit = n
	}
	list, err := h.Reader.Recent(r.Context(), limit)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, list)
}
