package application

import (
	"context"

	"github.com/sngm3741/bizsurvey-services/api/internal/domainerr"
	"github.com/sngm3741/bizsurvey-services/api/internal/questionnaire"
)

type formService struct {
	repo   IndustryRepository
	common []questionnaire.Question
}

// NewFormService creates a FormService. common holds the shared questions merged into every form.
func NewFormService(repo IndustryRepository, common []questionnaire.Question) FormService {
	return &formService{repo: repo, common: common}
}

func (s *formService) ListIndustries(ctx context.Context) ([]questionnaire.Industry, error) {
	industries, err := s.repo.FindAll(ctx, true)
	if err != nil {
		return nil, err
	}
	questionnaire.SortIndustries(industries)
	return industries, nil
}

func (s *formService) GetIndustry(ctx context.Context, slug string) (*questionnaire.Industry, error) {
	return activeIndustry(ctx, s.repo, slug)
}

func (s *formService) GetForm(ctx context.Context, slug string) (*questionnaire.Form, error) {
	industry, err := activeIndustry(ctx, s.repo, slug)
	if err != nil {
		return nil, err
	}
	form := questionnaire.BuildForm(s.common, *industry)
	return &form, nil
}

func (s *formService) ValidateStep(ctx context.Context, cmd ValidateStepCommand) (StepResult, error) {
	step, err := questionnaire.ParseStep(cmd.Step)
	if err != nil {
		return StepResult{}, ErrInvalidStep
	}
	industry, err := activeIndustry(ctx, s.repo, cmd.Industry)
	if err != nil {
		return StepResult{}, err
	}
	questions := questionnaire.QuestionsForStep(questionnaire.MergeQuestions(s.common, industry.Questions), step)
	_, errs := questionnaire.ValidateAnswers(questions, cmd.Answers)
	if len(errs) > 0 {
		return StepResult{Valid: false, Errors: errs}, nil
	}
	return StepResult{Valid: true, Errors: questionnaire.FieldErrors{}}, nil
}

func activeIndustry(ctx context.Context, repo IndustryRepository, slug string) (*questionnaire.Industry, error) {
	normalized, err := questionnaire.NewSlug(slug)
	if err != nil {
		return nil, domainerr.ErrNotFound
	}
	industry, err := repo.FindBySlug(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if !industry.Active {
		return nil, domainerr.ErrNotFound
	}
	return industry, nil
}
