package order_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ntak-rms/internal/order"
)

func postPreview(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := &order.Handler{}
	req := httptest.NewRequest(http.MethodPost, "/v1/orders/preview", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Preview(rec, req)
	return rec
}

func TestPreviewHandler(t *testing.T) {
	rec := postPreview(t, `{
		"type": "NORMAL",
		"orderId": "P-1",
		"start": "2024-05-10T16:00:00Z",
		"end": "2024-05-10T16:45:00Z",
		"items": [
			{"name": "Lángos", "category": "ETEL", "subCategory": "FOETEL", "vat": "C_27", "unitPrice": 579, "quantity": 2}
		],
		"payments": [{"method": "KESZPENZHUF", "amount": 1158}]
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			Payment struct {
				Total   int64 `json:"rendelesVegosszegeHUF"`
				Methods []struct {
					Method string `json:"fizetesiMod"`
					Amount int64  `json:"fizetettOsszegHUF"`
				} `json:"fizetesiModok"`
			} `json:"fizetesiInformaciok"`
			Lines []struct {
				Unit     string      `json:"mennyisegiEgyseg"`
				Amount   json.Number `json:"mennyiseg"`
				At       string      `json:"rendelesIdopontja"`
				Subtotal int64       `json:"tetelOsszesito"`
			} `json:"rendelesTetelek"`
			BusinessDay string `json:"targynap"`
		} `json:"data"`
		Summary order.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.EqualValues(t, 1158, resp.Data.Payment.Total)
	require.Len(t, resp.Data.Payment.Methods, 2)
	require.Equal(t, "KESZPENZHUF", resp.Data.Payment.Methods[0].Method)
	require.EqualValues(t, 1160, resp.Data.Payment.Methods[0].Amount)
	require.Equal(t, "KEREKITES", resp.Data.Payment.Methods[1].Method)
	require.EqualValues(t, -2, resp.Data.Payment.Methods[1].Amount)

	require.Len(t, resp.Data.Lines, 1)
	require.Equal(t, "DARAB", resp.Data.Lines[0].Unit)
	require.Equal(t, "2", resp.Data.Lines[0].Amount.String())
	require.Equal(t, "2024-05-10T18:45:00+02:00", resp.Data.Lines[0].At)
	require.EqualValues(t, 1158, resp.Data.Lines[0].Subtotal)
	require.Equal(t, "2024-05-10", resp.Data.BusinessDay)

	require.EqualValues(t, 1158, resp.Summary.GrandTotal)
	require.EqualValues(t, -2, resp.Summary.RoundingRemainder)
}

func TestPreviewHandlerCancellation(t *testing.T) {
	rec := postPreview(t, `{"type": "SZTORNO", "orderId": "P-2", "referenceId": "P-1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	_, hasSummary := resp["summary"]
	require.False(t, hasSummary)

	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(resp["data"], &data))
	require.Equal(t, "null", string(data["rendelesTetelek"]))
	require.Equal(t, "null", string(data["fizetesiInformaciok"]))
	require.Equal(t, `"P-1"`, string(data["hivatkozottRendelesOsszesito"]))
}

func TestPreviewHandlerErrors(t *testing.T) {
	rec := postPreview(t, `{"type": "NORMAL", "orderId": "P-3", "bogus": 1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postPreview(t, `{"type": "HELYESBITO", "orderId": "P-3"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
	require.Contains(t, rec.Body.String(), "reference order id")
}
