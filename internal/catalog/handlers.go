package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/ntak-rms/internal/common"
)

// Handler exposes the static NTAK lookup tables.
type Handler struct{}

// CategoryView is a main category together with its permitted sub-categories.
type CategoryView struct {
	Entry
	SubCategories []Entry `json:"subCategories"`
}

// Categories handles GET /v1/catalog/categories.
func (Handler) Categories(w http.ResponseWriter, _ *http.Request) {
	out := make([]CategoryView, 0, len(categories))
	for _, c := range categories {
		out = append(out, CategoryView{
			Entry:         Entry{Code: string(c.code), Label: c.label},
			SubCategories: subCategoryEntries(c.code),
		})
	}
	common.Data(w, http.StatusOK, out)
}

// SubCategories handles GET /v1/catalog/categories/{category}/subcategories.
func (Handler) SubCategories(w http.ResponseWriter, r *http.Request) {
	cat := Category(chi.URLParam(r, "category"))
	if !cat.Valid() {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "unknown category", map[string]any{"category": string(cat)})
		return
	}
	common.Data(w, http.StatusOK, subCategoryEntries(cat))
}

// Codes handles GET /v1/catalog/codes and returns the remaining enumerations.
func (Handler) Codes(w http.ResponseWriter, _ *http.Request) {
	common.Data(w, http.StatusOK, map[string][]Entry{
		"vat":            vats.entries(),
		"amountUnits":    amountUnits.entries(),
		"paymentMethods": paymentMethods.entries(),
		"orderTypes":     orderTypes.entries(),
		"dayTypes":       dayTypes.entries(),
		"verifyStatuses": verifyStatuses.entries(),
	})
}

func subCategoryEntries(c Category) []Entry {
	subs := subCategoriesByCategory[c]
	out := make([]Entry, 0, len(subs))
	for _, s := range subs {
		out = append(out, Entry{Code: string(s), Label: s.Label()})
	}
	return out
}
