package http

import (
	"net/http"

	"github.com/aussiebroadwan/explorer/internal/explorer/service"
	"github.com/aussiebroadwan/explorer/pkg/httpx"
)

type CategoriesHandler struct {
	CategoryService *service.CategoryService
}

// ServeHTTP lists every category.
//
//	@Summary		List categories
//	@Tags			Categories
//	@Produce		json
//	@Success		200	{array}		domain.Category
//	@Failure		500	{object}	httpx.ErrorBody
//	@Router			/api/categories [get].
func (h *CategoriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cats, err := h.CategoryService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, cats)
}
