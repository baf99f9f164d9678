package application

import (
	"context"
	"errors"

	"github.com/sngm3741/bizsurvey-services/api/internal/public/domain"
	"github.com/sngm3741/bizsurvey-services/api/internal/questionnaire"
)

// ErrInvalidStep is returned when a step name is not part of the form.
var ErrInvalidStep = errors.New("invalid form step")

// IndustryRepository abstracts read access to industries.
// IndustryRepository は Public コンテキストで業種設定を読み取るためのポート。
type IndustryRepository interface {
	FindAll(ctx context.Context, activeOnly bool) ([]questionnaire.Industry, error)
	FindBySlug(ctx context.Context, slug string) (*questionnaire.Industry, error)
}

// SubmissionRepository persists public submissions.
// SubmissionRepository は回答の書き込みを提供するポート。
type SubmissionRepository interface {
	Create(ctx context.Context, submission *domain.Submission) error
}

// CacheInvalidator drops derived data after a write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// SubmissionNotifier tells staff about new submissions.
type SubmissionNotifier interface {
	NotifySubmission(ctx context.Context, submission domain.Submission) error
}

// FormService describes read use-cases of the form runtime.
// FormService はフォーム描画とステップ検証のユースケースを提供する。
type FormService interface {
	ListIndustries(ctx context.Context) ([]questionnaire.Industry, error)
	GetIndustry(ctx context.Context, slug string) (*questionnaire.Industry, error)
	GetForm(ctx context.Context, slug string) (*questionnaire.Form, error)
	ValidateStep(ctx context.Context, cmd ValidateStepCommand) (StepResult, error)
}

// SubmissionService handles writing use-cases.
type SubmissionService interface {
	Submit(ctx context.Context, cmd SubmitSurveyCommand) (*domain.Submission, error)
}

// ValidateStepCommand carries the answers of one form page.
type ValidateStepCommand struct {
	Industry string
	Step     string
	Answers  map[string]any
}

// StepResult reports per-field problems of one page.
type StepResult struct {
	Valid  bool
	Errors questionnaire.FieldErrors
}

// SubmitSurveyCommand captures anonymous input.
type SubmitSurveyCommand struct {
	Industry  string
	Answers   map[string]any
	Consent   bool
	ClientIP  string
	UserAgent string
}
