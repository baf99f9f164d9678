package public

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sngm3741/bizsurvey-services/api/internal/domainerr"
	"github.com/sngm3741/bizsurvey-services/api/internal/interfaces/http/common"
	publicapp "github.com/sngm3741/bizsurvey-services/api/internal/public/application"
	"github.com/sngm3741/bizsurvey-services/api/internal/questionnaire"
)

const maxUserAgentLength = 512

func (h *Handler) surveyCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitSurveyRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(req.Industry) == "" {
			common.WriteFieldErrors(h.logger, w, map[string]string{"industry": "industry is required"})
			return
		}

		userAgent := r.UserAgent()
		if len(userAgent) > maxUserAgentLength {
			userAgent = userAgent[:maxUserAgentLength]
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		submission, err := h.submissions.Submit(ctx, publicapp.SubmitSurveyCommand{
			Industry:  req.Industry,
			Answers:   req.Answers,
			Consent:   req.Consent,
			ClientIP:  common.ClientIP(r),
			UserAgent: userAgent,
		})
		if err != nil {
			var fieldErrs questionnaire.FieldErrors
			switch {
			case errors.As(err, &fieldErrs):
				common.WriteFieldErrors(h.logger, w, fieldErrs)
			case errors.Is(err, domainerr.ErrNotFound):
				common.WriteError(h.logger, w, http.StatusNotFound, "industry not found")
			default:
				h.logf("survey submit failed industry=%s err=%v", req.Industry, err)
				common.WriteError(h.logger, w, http.StatusInternalServerError, "failed to save survey")
			}
			return
		}

		common.WriteJSON(h.logger, w, http.StatusCreated, submitSurveyResponse{
			Status:        "ok",
			ID:            submission.ID,
			ReferenceCode: submission.ReferenceCode,
		})
	}
}

func (h *Handler) stepValidateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req validateStepRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		result, err := h.forms.ValidateStep(ctx, publicapp.ValidateStepCommand{
			Industry: req.Industry,
			Step:     req.Step,
			Answers:  req.Answers,
		})
		if err != nil {
			switch {
			case errors.Is(err, publicapp.ErrInvalidStep):
				common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			case errors.Is(err, domainerr.ErrNotFound):
				common.WriteError(h.logger, w, http.StatusNotFound, "industry not found")
			default:
				h.logf("step validation failed industry=%s step=%s err=%v", req.Industry, req.Step, err)
				common.WriteError(h.logger, w, http.StatusInternalServerError, "failed to validate step")
			}
			return
		}

		errs := map[string]string{}
		for k, v := range result.Errors {
			errs[k] = v
		}
		common.WriteJSON(h.logger, w, http.StatusOK, validateStepResponse{Valid: result.Valid, Errors: errs})
	}
}
