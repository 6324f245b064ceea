package controllers

import (
	"net/http"

	"github.com/shopvite/shopvite-backend/api/responses"
	"github.com/shopvite/shopvite-backend/internal/orders"
	"github.com/shopvite/shopvite-backend/internal/tracking"
	"github.com/shopvite/shopvite-backend/pkg/config"
	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
	"github.com/shopvite/shopvite-backend/pkg/logger"
)

// OrdersWS upgrades the request to a websocket that streams order tracking
// updates. The caller names an order via the order_id query param; the first
// frame replays the order's full tracking history so late joiners never miss
// earlier transitions.
func OrdersWS(hub *tracking.Hub, ordersSvc orders.Service, cfg config.TrackingConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hub == nil || ordersSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order tracking unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		raw := r.URL.Query().Get("order_id")
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.NewValidation("order_id is required", []pkgerrors.FieldDetail{
				{Field: "order_id", Message: "must be provided"},
			}))
			return
		}
		orderID, err := uuidFromString(raw, "order_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// GetOrder hides foreign orders behind a not-found unless the caller
		// holds the orders read permission, which is exactly the access rule
		// the socket needs.
		order, err := ordersSvc.GetOrder(r.Context(), orderID, userID, hasPermission(r, "orders:read"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		history := make([]tracking.TrackingEntry, 0, len(order.TrackingEvents))
		for _, event := range order.TrackingEvents {
			history = append(history, tracking.TrackingEntry{
				Status:    event.Status,
				Message:   event.Message,
				CreatedAt: event.CreatedAt,
			})
		}
		initial := []tracking.Message{{
			Event: tracking.EventTrackingUpdate,
			Data:  tracking.TrackingUpdateData{OrderID: orderID, History: history},
		}}

		rooms := []string{tracking.OrderRoom(orderID), tracking.UserRoom(userID)}
		if err := hub.ServeConn(w, r, cfg, initial, rooms...); err != nil {
			// The upgrade already failed or the socket closed; nothing more
			// can be written to this client.
			ctx := logg.WithOrderID(r.Context(), orderID.String())
			logg.Warn(ctx, "websocket session ended with error")
		}
	}
}
