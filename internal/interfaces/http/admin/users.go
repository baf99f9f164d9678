package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	adminapp "github.com/sngm3741/bizsurvey-services/api/internal/admin/application"
	"github.com/sngm3741/bizsurvey-services/api/internal/interfaces/http/common"
)

const userNotFound = "user not found"

func (h *Handler) userListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		users, err := h.users.List(ctx)
		if err != nil {
			h.writeServiceError(w, err, userNotFound, "failed to list users")
			return
		}
		items := make([]userResponse, 0, len(users))
		for _, u := range users {
			items = append(items, newUserResponse(u))
		}
		common.WriteJSON(h.logger, w, http.StatusOK, userListResponse{Items: items})
	}
}

func (h *Handler) userCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createUserRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		user, err := h.users.Create(ctx, adminapp.CreateUserCommand{
			Email:    req.Email,
			Name:     req.Name,
			Password: req.Password,
			Role:     req.Role,
		})
		if err != nil {
			h.writeServiceError(w, err, userNotFound, "failed to create user")
			return
		}
		principal, _ := common.UserFromContext(r.Context())
		h.logf("user created id=%s role=%s by=%s", user.ID, user.Role, principal.Email)
		common.WriteJSON(h.logger, w, http.StatusCreated, newUserResponse(*user))
	}
}

func (h *Handler) userUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		var req updateUserRequest
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}
		principal, _ := common.UserFromContext(r.Context())

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		user, err := h.users.Update(ctx, principal.ID, id, adminapp.UpdateUserCommand{
			Name:     req.Name,
			Role:     req.Role,
			Active:   req.Active,
			Password: req.Password,
		})
		if err != nil {
			h.writeServiceError(w, err, userNotFound, "failed to update user")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, newUserResponse(*user))
	}
}
