package controllers

import (
	"net/http"
	"strings"

	"github.com/shopvite/shopvite-backend/api/middleware"
	"github.com/shopvite/shopvite-backend/api/responses"
	"github.com/shopvite/shopvite-backend/api/validators"
	"github.com/shopvite/shopvite-backend/internal/orders"
	"github.com/shopvite/shopvite-backend/pkg/enums"
	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
	"github.com/shopvite/shopvite-backend/pkg/logger"
	"github.com/shopvite/shopvite-backend/pkg/outbox"
)

// ListOrders returns the caller's order history. Callers with the orders
// read permission may pass ?all=true to list every order, filtered by
// status or user_id.
func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		all, err := validators.ParseQueryBool(r, "all")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if all != nil && *all && hasPermission(r, "orders:read") {
			input := orders.ListOrdersInput{Pagination: params}

			if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
				status, parseErr := enums.ParseOrderStatus(raw)
				if parseErr != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.NewValidation("invalid query parameter", []pkgerrors.FieldDetail{
						{Field: "status", Message: "is not a known order status"},
					}))
					return
				}
				input.Status = &status
			}
			if raw := strings.TrimSpace(r.URL.Query().Get("user_id")); raw != "" {
				filterID, parseErr := uuidFromString(raw, "user_id")
				if parseErr != nil {
					responses.WriteError(r.Context(), logg, w, parseErr)
					return
				}
				input.UserID = &filterID
			}

			result, listErr := svc.ListAllOrders(r.Context(), input)
			if listErr != nil {
				responses.WriteError(r.Context(), logg, w, listErr)
				return
			}
			responses.WriteSuccess(w, result)
			return
		}

		result, err := svc.ListUserOrders(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CreateOrder runs checkout against the caller's cart.
func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body orders.CheckoutInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Checkout(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// GetOrder returns one order. A foreign order reads as missing unless the
// caller holds the orders read permission.
func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.GetOrder(r.Context(), orderID, userID, hasPermission(r, "orders:read"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// UpdateOrderStatus moves an order along its lifecycle. Admin only.
func UpdateOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actorID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body orders.UpdateStatusInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := &outbox.ActorRef{
			UserID: actorID,
			Role:   middleware.RoleFromContext(r.Context()),
		}

		result, err := svc.UpdateStatus(r.Context(), orderID, body, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
