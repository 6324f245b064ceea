package controllers

import (
	"net/http"

	"github.com/shopvite/shopvite-backend/api/responses"
	"github.com/shopvite/shopvite-backend/api/validators"
	"github.com/shopvite/shopvite-backend/internal/dashboard"
	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
	"github.com/shopvite/shopvite-backend/pkg/logger"
)

// DashboardStats returns platform-wide counters and revenue. Admin only.
func DashboardStats(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}

		result, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// DashboardSales returns a daily sales series for the trailing window. Admin only.
func DashboardSales(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}

		days, err := validators.ParseQueryInt(r, "days", 30, 1, 365)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Sales(r.Context(), days)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
