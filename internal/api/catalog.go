package api

import (
	"net/http"

	"github.com/ecolabel/platescore/internal/catalog"
)

type CatalogHandler struct {
	store catalog.Store
}

func NewCatalogHandler(s catalog.Store) *CatalogHandler {
	return &CatalogHandler{store: s}
}

type itemResponse struct {
	Selector string `json:"selector"`
	ItemID   string `json:"item_id"`
	GeoID    int    `json:"geo_id"`
	catalog.ItemInfo
}

func (h *CatalogHandler) Items(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListItems(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	out := make([]itemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, itemResponse{
			Selector: it.Selector,
			ItemID:   it.Key.ItemID,
			GeoID:    it.Key.GeoID,
			ItemInfo: it,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) Schemes(w http.ResponseWriter, r *http.Request) {
	schemes, err := h.store.ListSchemes(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if schemes == nil {
		schemes = []catalog.Scheme{}
	}
	writeJSON(w, http.StatusOK, schemes)
}
