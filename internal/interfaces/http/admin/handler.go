package admin

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	adminapp "github.com/sngm3741/bizsurvey-services/api/internal/admin/application"
	admindomain "github.com/sngm3741/bizsurvey-services/api/internal/admin/domain"
	"github.com/sngm3741/bizsurvey-services/api/internal/domainerr"
	"github.com/sngm3741/bizsurvey-services/api/internal/interfaces/http/common"
)

// Handler wires admin HTTP endpoints to application services.
type Handler struct {
	logger     *log.Logger
	auth       adminapp.AuthService
	surveys    adminapp.SurveyService
	industries adminapp.IndustryService
	users      adminapp.UserService
	analytics  adminapp.AnalyticsService
	location   *time.Location
}

// Config provides dependencies for Handler.
type Config struct {
	Logger     *log.Logger
	Auth       adminapp.AuthService
	Surveys    adminapp.SurveyService
	Industries adminapp.IndustryService
	Users      adminapp.UserService
	Analytics  adminapp.AnalyticsService
	// Location is used to interpret from/to date filters.
	Location *time.Location
}

// NewHandler constructs an admin HTTP handler set.
func NewHandler(cfg Config) *Handler {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		logger:     cfg.Logger,
		auth:       cfg.Auth,
		surveys:    cfg.Surveys,
		industries: cfg.Industries,
		users:      cfg.Users,
		analytics:  cfg.Analytics,
		location:   loc,
	}
}

// Register mounts admin routes onto router. Every route except login is wrapped by authMiddleware.
func (h *Handler) Register(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Post("/auth/login", h.loginHandler())

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/auth/me", h.meHandler())

		r.Get("/surveys", h.surveyListHandler())
		r.Get("/surveys/export", h.surveyExportHandler())
		r.Get("/surveys/{id}", h.surveyDetailHandler())
		r.With(RequireRole(admindomain.RoleReviewer)).Patch("/surveys/{id}/status", h.surveyStatusHandler())
		r.With(RequireRole(admindomain.RoleReviewer)).Patch("/surveys/{id}", h.surveyUpdateHandler())
		r.With(RequireRole(admindomain.RoleAdmin)).Delete("/surveys/{id}", h.surveyDeleteHandler())

		r.Get("/analytics/overview", h.analyticsOverviewHandler())
		r.Get("/analytics/industries/{slug}", h.analyticsIndustryHandler())

		r.Get("/industries", h.industryListHandler())
		r.Get("/industries/{slug}", h.industryDetailHandler())
		r.Get("/questions/common", h.commonQuestionsHandler())

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(admindomain.RoleAdmin))
			r.Post("/industries", h.industryCreateHandler())
			r.Patch("/industries/{slug}", h.industryUpdateHandler())
			r.Put("/industries/{slug}/questions/{key}", h.questionPutHandler())
			r.Delete("/industries/{slug}/questions/{key}", h.questionDeleteHandler())
			r.Post("/industries/{slug}/reorder", h.questionReorderHandler())

			r.Get("/users", h.userListHandler())
			r.Post("/users", h.userCreateHandler())
			r.Patch("/users/{id}", h.userUpdateHandler())
		})
	})
}

// RequireRole rejects principals whose role ranks below role.
func RequireRole(role admindomain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := common.UserFromContext(r.Context())
			if !ok {
				common.WriteError(nil, w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !admindomain.Role(user.Role).Allows(role) {
				common.WriteError(nil, w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeServiceError は application 層のエラーを HTTP ステータスへ変換する。
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, notFound, failure string) {
	switch {
	case errors.Is(err, domainerr.ErrNotFound):
		common.WriteError(h.logger, w, http.StatusNotFound, notFound)
	case errors.Is(err, domainerr.ErrConflict):
		common.WriteError(h.logger, w, http.StatusConflict, "resource already exists")
	case errors.Is(err, adminapp.ErrInvalidInput):
		common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, adminapp.ErrSelfLockout):
		common.WriteError(h.logger, w, http.StatusForbidden, err.Error())
	default:
		h.logf("%s: %v", failure, err)
		common.WriteError(h.logger, w, http.StatusInternalServerError, failure)
	}
}

func (h *Handler) logf(format string, args ...any) {
	if h.logger != nil {
		h.logger.Printf(format, args...)
	}
}
