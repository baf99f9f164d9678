package admin

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	adminapp "github.com/sngm3741/bizsurvey-services/api/internal/admin/application"
	"github.com/sngm3741/bizsurvey-services/api/internal/infrastructure/export"
	"github.com/sngm3741/bizsurvey-services/api/internal/interfaces/http/common"
)

const surveyNotFound = "survey not found"

// parseSurveyFilter reads industry, status, keyword, region and the inclusive from/to dates.
func (h *Handler) parseSurveyFilter(query url.Values) (adminapp.SurveyFilter, error) {
	from, to, err := common.ParseDateRange(query.Get("from"), query.Get("to"), h.location)
	if err != nil {
		return adminapp.SurveyFilter{}, err
	}
	return adminapp.SurveyFilter{
		Industry: strings.TrimSpace(query.Get("industry")),
		Status:   strings.TrimSpace(query.Get("status")),
		Keyword:  strings.TrimSpace(query.Get("keyword")),
		Region:   strings.TrimSpace(query.Get("region")),
		From:     from,
		To:       to,
	}, nil
}

func (h *Handler) surveyListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		filter, err := h.parseSurveyFilter(query)
		if err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}
		page, _ := common.ParsePositiveInt(query.Get("page"), 1)
		limit, _ := common.ParsePositiveInt(query.Get("limit"), 0)
		paging := adminapp.Paging{Page: page, Limit: limit, Sort: strings.TrimSpace(query.Get("sort"))}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		result, err := h.surveys.List(ctx, filter, paging)
		if err != nil {
			h.writeServiceError(w, err, surveyNotFound, "failed to list surveys")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, newSurveyListResponse(*result))
	}
}

func (h *Handler) surveyDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "id"))

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		detail, err := h.surveys.Detail(ctx, id)
		if err != nil {
			h.writeServiceError(w, err, surveyNotFound, "failed to load survey")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, newSurveyDetail(detail.Survey, detail.Answers))
	}
}

func (h *Handler) surveyStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		var req updateStatusRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}
		principal, _ := common.UserFromContext(r.Context())

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		survey, err := h.surveys.UpdateStatus(ctx, id, adminapp.UpdateStatusCommand{
			Status:     req.Status,
			Note:       req.Note,
			ReviewedBy: principal.Email,
		})
		if err != nil {
			h.writeServiceError(w, err, surveyNotFound, "failed to update survey status")
			return
		}
		h.logf("survey status changed id=%s status=%s by=%s", survey.ID, survey.Status, principal.Email)
		common.WriteJSON(h.logger, w, http.StatusOK, newSurveySummary(*survey))
	}
}

func (h *Handler) surveyUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		var req updateSurveyRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		survey, err := h.surveys.Update(ctx, id, adminapp.UpdateSurveyCommand{
			CompanyName:  req.CompanyName,
			ContactName:  req.ContactName,
			Email:        req.Email,
			Phone:        req.Phone,
			Region:       req.Region,
			City:         req.City,
			CompanySize:  req.CompanySize,
			AnnualBudget: req.AnnualBudget,
			AdminNotes:   req.AdminNotes,
		})
		if err != nil {
			h.writeServiceError(w, err, surveyNotFound, "failed to update survey")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, newSurveySummary(*survey))
	}
}

func (h *Handler) surveyDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "id"))

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		if err := h.surveys.Delete(ctx, id); err != nil {
			h.writeServiceError(w, err, surveyNotFound, "failed to delete survey")
			return
		}
		principal, _ := common.UserFromContext(r.Context())
		h.logf("survey deleted id=%s by=%s", id, principal.Email)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) surveyExportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		format, err := export.ParseFormat(query.Get("format"))
		if err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}
		filter, err := h.parseSurveyFilter(query)
		if err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.ExportTimeout)
		defer cancel()

		table, err := h.surveys.Export(ctx, filter)
		if err != nil {
			h.writeServiceError(w, err, "industry not found", "failed to export surveys")
			return
		}

		// ヘッダー送信前にエラーを返せるよう一度バッファへ書き出す。
		var buf bytes.Buffer
		if err := export.Write(&buf, format, table); err != nil {
			h.logf("survey export render failed format=%s err=%v", format, err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "failed to export surveys")
			return
		}
		w.Header().Set("Content-Type", export.ContentType(format))
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(table, format)))
		w.WriteHeader(http.StatusOK)
		if _, err := buf.WriteTo(w); err != nil {
			h.logf("survey export write failed: %v", err)
		}
	}
}
