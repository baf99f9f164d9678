package admin

import (
	"context"
	"errors"
	"net/http"

	adminapp "github.com/sngm3741/bizsurvey-services/api/internal/admin/application"
	"github.com/sngm3741/bizsurvey-services/api/internal/domainerr"
	"github.com/sngm3741/bizsurvey-services/api/internal/interfaces/http/common"
)

func (h *Handler) loginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		result, err := h.auth.Login(ctx, req.Email, req.Password)
		if err != nil {
			if errors.Is(err, adminapp.ErrInvalidCredentials) {
				common.WriteError(h.logger, w, http.StatusUnauthorized, err.Error())
				return
			}
			h.logf("admin login failed: %v", err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "failed to sign in")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, loginResponse{
			Token:     result.Token,
			ExpiresAt: result.ExpiresAt,
			User:      newUserResponse(result.User),
		})
	}
}

func (h *Handler) meHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := common.UserFromContext(r.Context())
		if !ok {
			common.WriteError(h.logger, w, http.StatusUnauthorized, "authentication required")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		user, err := h.auth.Me(ctx, principal.ID)
		if err != nil {
			if errors.Is(err, domainerr.ErrNotFound) {
				common.WriteError(h.logger, w, http.StatusUnauthorized, "account is no longer active")
				return
			}
			h.logf("admin me fetch failed id=%s err=%v", principal.ID, err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "failed to load account")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, newUserResponse(*user))
	}
}
