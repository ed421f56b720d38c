package cart

import (
	"net/http"

	cartdto "github.com/medibook/medibook-backend/api/controllers/cart/dto"
	"github.com/medibook/medibook-backend/api/middleware"
	"github.com/medibook/medibook-backend/api/responses"
	"github.com/medibook/medibook-backend/api/validators"
	cartsvc "github.com/medibook/medibook-backend/internal/cart"
	pkgerrors "github.com/medibook/medibook-backend/pkg/errors"
	"github.com/medibook/medibook-backend/pkg/logger"
)

// CartFetch returns the caller's cart with totals.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := requireOwner(w, r, svc, logg)
		if !ok {
			return
		}

		view, err := svc.Get(r.Context(), ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCart(view))
	}
}

// CartClear empties the caller's cart.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := requireOwner(w, r, svc, logg)
		if !ok {
			return
		}

		view, err := svc.Clear(r.Context(), ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCart(view))
	}
}

// CartAddItem merges a product/unit into the cart.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := requireOwner(w, r, svc, logg)
		if !ok {
			return
		}

		var payload cartdto.AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.AddItem(r.Context(), ownerID, toLineInput(payload))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCart(view))
	}
}

// CartUpdateQuantity replaces the quantity of one line.
func CartUpdateQuantity(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := requireOwner(w, r, svc, logg)
		if !ok {
			return
		}
		key, err := lineKey(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartdto.UpdateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.UpdateQuantity(r.Context(), ownerID, key, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCart(view))
	}
}

// CartRemoveItem deletes one line.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := requireOwner(w, r, svc, logg)
		if !ok {
			return
		}
		key, err := lineKey(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.RemoveItem(r.Context(), ownerID, key)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCart(view))
	}
}

// CartSetSelected flags one line for checkout.
func CartSetSelected(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := requireOwner(w, r, svc, logg)
		if !ok {
			return
		}
		key, err := lineKey(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartdto.SelectionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.SetSelected(r.Context(), ownerID, key, *payload.Selected)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCart(view))
	}
}

// CartSetAllSelected backs the "select all" checkbox.
func CartSetAllSelected(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := requireOwner(w, r, svc, logg)
		if !ok {
			return
		}

		var payload cartdto.SelectionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.SetAllSelected(r.Context(), ownerID, *payload.Selected)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCart(view))
	}
}

// CartTotals returns the selected-line totals only.
func CartTotals(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := requireOwner(w, r, svc, logg)
		if !ok {
			return
		}

		totals, err := svc.Totals(r.Context(), ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, NewTotals(totals))
	}
}

// CartCheckout hands the selected lines to payment and returns the submission.
func CartCheckout(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := requireOwner(w, r, svc, logg)
		if !ok {
			return
		}

		submission, err := svc.Checkout(r.Context(), ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, NewSubmission(submission))
	}
}

func requireOwner(w http.ResponseWriter, r *http.Request, svc cartsvc.Service, logg *logger.Logger) (string, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
		return "", false
	}
	ownerID := middleware.OwnerIDFromContext(r.Context())
	if ownerID == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart owner missing"))
		return "", false
	}
	return ownerID, true
}

func lineKey(r *http.Request) (cartsvc.Key, error) {
	productID, err := validators.PathParam(r, "productId")
	if err != nil {
		return cartsvc.Key{}, err
	}
	unit, err := validators.PathParam(r, "variantUnit")
	if err != nil {
		return cartsvc.Key{}, err
	}
	return cartsvc.NewKey(productID, unit), nil
}
