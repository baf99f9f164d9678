package admin

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	adminapp "github.com/sngm3741/bizsurvey-services/api/internal/admin/application"
	"github.com/sngm3741/bizsurvey-services/api/internal/interfaces/http/common"
)

func (h *Handler) parseAnalyticsFilter(query url.Values) (adminapp.AnalyticsFilter, error) {
	from, to, err := common.ParseDateRange(query.Get("from"), query.Get("to"), h.location)
	if err != nil {
		return adminapp.AnalyticsFilter{}, err
	}
	return adminapp.AnalyticsFilter{
		Industry: strings.TrimSpace(query.Get("industry")),
		Status:   strings.TrimSpace(query.Get("status")),
		From:     from,
		To:       to,
	}, nil
}

func (h *Handler) analyticsOverviewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := h.parseAnalyticsFilter(r.URL.Query())
		if err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		overview, err := h.analytics.Overview(ctx, filter)
		if err != nil {
			h.writeServiceError(w, err, "industry not found", "failed to compute analytics")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, newOverviewResponse(*overview))
	}
}

func (h *Handler) analyticsIndustryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		filter, err := h.parseAnalyticsFilter(r.URL.Query())
		if err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		breakdown, err := h.analytics.IndustryBreakdown(ctx, slug, filter)
		if err != nil {
			h.writeServiceError(w, err, "industry not found", "failed to compute analytics")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, newIndustryBreakdownResponse(*breakdown))
	}
}
