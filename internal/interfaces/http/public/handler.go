package public

import (
	"log"

	"github.com/go-chi/chi/v5"

	publicapp "github.com/sngm3741/bizsurvey-services/api/internal/public/application"
)

// Handler wires public HTTP endpoints to application services.
type Handler struct {
	logger      *log.Logger
	forms       publicapp.FormService
	submissions publicapp.SubmissionService
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger      *log.Logger
	Forms       publicapp.FormService
	Submissions publicapp.SubmissionService
}

// NewHandler constructs a public HTTP handler set.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		logger:      cfg.Logger,
		forms:       cfg.Forms,
		submissions: cfg.Submissions,
	}
}

// Register mounts all public routes onto the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/industries", h.industryListHandler())
	r.Get("/industries/{slug}", h.industryDetailHandler())
	r.Get("/industries/{slug}/form", h.formHandler())
	r.Post("/surveys", h.surveyCreateHandler())
	r.Post("/surveys/validate-step", h.stepValidateHandler())
}

func (h *Handler) logf(format string, args ...any) {
	if h.logger != nil {
		h.logger.Printf(format, args...)
	}
}
