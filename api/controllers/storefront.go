package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tallyhq/tally-backend/api/responses"
	"github.com/tallyhq/tally-backend/internal/storefront"
	pkgerrors "github.com/tallyhq/tally-backend/pkg/errors"
	"github.com/tallyhq/tally-backend/pkg/logger"
)

// StorefrontCatalog serves the public storefront landing payload. The domain
// URL param carries the full host when the request arrived via the host
// rewrite, or a bare slug when called directly.
func StorefrontCatalog(svc storefront.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "storefront service unavailable"))
			return
		}

		dto, err := svc.Catalog(r.Context(), chi.URLParam(r, "domain"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// StorefrontProduct serves the public product detail payload.
func StorefrontProduct(svc storefront.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "storefront service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Product(r.Context(), chi.URLParam(r, "domain"), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}
