package public

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sngm3741/bizsurvey-services/api/internal/domainerr"
	"github.com/sngm3741/bizsurvey-services/api/internal/interfaces/http/common"
)

func (h *Handler) industryListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		industries, err := h.forms.ListIndustries(ctx)
		if err != nil {
			h.logf("industry list fetch failed: %v", err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "failed to load industries")
			return
		}

		items := make([]common.IndustrySummary, 0, len(industries))
		for _, industry := range industries {
			items = append(items, common.NewIndustrySummary(industry))
		}
		common.WriteJSON(h.logger, w, http.StatusOK, industryListResponse{Items: items})
	}
}

func (h *Handler) industryDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := strings.TrimSpace(chi.URLParam(r, "slug"))

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		industry, err := h.forms.GetIndustry(ctx, slug)
		if err != nil {
			if errors.Is(err, domainerr.ErrNotFound) {
				common.WriteError(h.logger, w, http.StatusNotFound, "industry not found")
				return
			}
			h.logf("industry detail fetch failed slug=%s err=%v", slug, err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "failed to load industry")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, common.NewIndustryPayload(*industry))
	}
}

func (h *Handler) formHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := strings.TrimSpace(chi.URLParam(r, "slug"))

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		form, err := h.forms.GetForm(ctx, slug)
		if err != nil {
			if errors.Is(err, domainerr.ErrNotFound) {
				common.WriteError(h.logger, w, http.StatusNotFound, "industry not found")
				return
			}
			h.logf("form build failed slug=%s err=%v", slug, err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "failed to load form")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, common.NewFormPayload(*form))
	}
}
