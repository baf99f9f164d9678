package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	adminapp "github.com/sngm3741/bizsurvey-services/api/internal/admin/application"
	"github.com/sngm3741/bizsurvey-services/api/internal/interfaces/http/common"
	"github.com/sngm3741/bizsurvey-services/api/internal/questionnaire"
)

const industryNotFound = "industry not found"

func (h *Handler) industryListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		industries, err := h.industries.List(ctx)
		if err != nil {
			h.writeServiceError(w, err, industryNotFound, "failed to load industries")
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

		industry, err := h.industries.Detail(ctx, slug)
		if err != nil {
			h.writeServiceError(w, err, industryNotFound, "failed to load industry")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, common.NewIndustryPayload(*industry))
	}
}

func (h *Handler) commonQuestionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		common.WriteJSON(h.logger, w, http.StatusOK, commonQuestionsResponse{
			Items: common.NewQuestionPayloads(h.industries.CommonQuestions()),
		})
	}
}

func (h *Handler) industryCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createIndustryRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}
		active := true
		if req.Active != nil {
			active = *req.Active
		}
		questions := make([]questionnaire.Question, 0, len(req.Questions))
		for _, q := range req.Questions {
			questions = append(questions, q.Question())
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		industry, err := h.industries.Create(ctx, adminapp.CreateIndustryCommand{
			Slug:        req.Slug,
			Name:        req.Name,
			Description: req.Description,
			Icon:        req.Icon,
			Order:       req.Order,
			Active:      active,
			Questions:   questions,
		})
		if err != nil {
			h.writeServiceError(w, err, industryNotFound, "failed to create industry")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusCreated, common.NewIndustryPayload(*industry))
	}
}

func (h *Handler) industryUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		var req updateIndustryRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		industry, err := h.industries.Update(ctx, slug, adminapp.UpdateIndustryCommand{
			Name:        req.Name,
			Description: req.Description,
			Icon:        req.Icon,
			Order:       req.Order,
			Active:      req.Active,
		})
		if err != nil {
			h.writeServiceError(w, err, industryNotFound, "failed to update industry")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, common.NewIndustryPayload(*industry))
	}
}

func (h *Handler) questionPutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		key := strings.TrimSpace(chi.URLParam(r, "key"))
		var req common.QuestionPayload
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Key != "" && req.Key != key {
			common.WriteError(h.logger, w, http.StatusBadRequest, "question key does not match the path")
			return
		}
		req.Key = key

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		industry, err := h.industries.SetQuestion(ctx, slug, req.Question())
		if err != nil {
			h.writeServiceError(w, err, industryNotFound, "failed to save question")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, common.NewIndustryPayload(*industry))
	}
}

func (h *Handler) questionDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		key := strings.TrimSpace(chi.URLParam(r, "key"))

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		industry, err := h.industries.DeleteQuestion(ctx, slug, key)
		if err != nil {
			h.writeServiceError(w, err, "industry or question not found", "failed to delete question")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, common.NewIndustryPayload(*industry))
	}
}

func (h *Handler) questionReorderHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		var req reorderRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		industry, err := h.industries.ReorderQuestions(ctx, slug, req.Keys)
		if err != nil {
			h.writeServiceError(w, err, industryNotFound, "failed to reorder questions")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, common.NewIndustryPayload(*industry))
	}
}
