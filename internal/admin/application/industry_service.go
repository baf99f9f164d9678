package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sngm3741/bizsurvey-services/api/internal/domainerr"
	"github.com/sngm3741/bizsurvey-services/api/internal/questionnaire"
)

type industryService struct {
	repo   IndustryRepository
	common []questionnaire.Question
	cache  AnalyticsCache
	now    func() time.Time
}

func NewIndustryService(repo IndustryRepository, common []questionnaire.Question, cache AnalyticsCache) IndustryService {
	return &industryService{repo: repo, common: common, cache: cache, now: time.Now}
}

func (s *industryService) CommonQuestions() []questionnaire.Question {
	return append([]questionnaire.Question(nil), s.common...)
}

func (s *industryService) List(ctx context.Context) ([]questionnaire.Industry, error) {
	industries, err := s.repo.FindAll(ctx, false)
	if err != nil {
		return nil, err
	}
	questionnaire.SortIndustries(industries)
	return industries, nil
}

func (s *industryService) Detail(ctx context.Context, slug string) (*questionnaire.Industry, error) {
	normalized, err := questionnaire.NewSlug(slug)
	if err != nil {
		return nil, domainerr.ErrNotFound
	}
	return s.repo.FindBySlug(ctx, normalized)
}

func (s *industryService) Create(ctx context.Context, cmd CreateIndustryCommand) (*questionnaire.Industry, error) {
	now := s.now().UTC()
	industry := &questionnaire.Industry{
		Slug:        cmd.Slug,
		Name:        cmd.Name,
		Description: cmd.Description,
		Icon:        cmd.Icon,
		Order:       cmd.Order,
		Active:      cmd.Active,
		Questions:   append([]questionnaire.Question(nil), cmd.Questions...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := industry.Normalize(s.common); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.repo.Create(ctx, industry); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return industry, nil
}

func (s *industryService) Update(ctx context.Context, slug string, cmd UpdateIndustryCommand) (*questionnaire.Industry, error) {
	return s.mutate(ctx, slug, func(industry *questionnaire.Industry) error {
		changed := false
		if cmd.Name != nil {
			industry.Name = *cmd.Name
			changed = true
		}
		if cmd.Description != nil {
			industry.Description = *cmd.Description
			changed = true
		}
		if cmd.Icon != nil {
			industry.Icon = *cmd.Icon
			changed = true
		}
		if cmd.Order != nil {
			industry.Order = *cmd.Order
			changed = true
		}
		if cmd.Active != nil {
			industry.Active = *cmd.Active
			changed = true
		}
		if !changed {
			return fmt.Errorf("at least one field is required")
		}
		return nil
	})
}

// SetQuestion adds the question or replaces the one with the same key.
func (s *industryService) SetQuestion(ctx context.Context, slug string, question questionnaire.Question) (*questionnaire.Industry, error) {
	return s.mutate(ctx, slug, func(industry *questionnaire.Industry) error {
		key := strings.TrimSpace(question.Key)
		for i := range industry.Questions {
			if industry.Questions[i].Key == key {
				if question.Order == 0 {
					question.Order = industry.Questions[i].Order
				}
				industry.Questions[i] = question
				return nil
			}
		}
		if question.Order == 0 {
			question.Order = nextOrder(industry.Questions)
		}
		industry.Questions = append(industry.Questions, question)
		return nil
	})
}

func (s *industryService) DeleteQuestion(ctx context.Context, slug, key string) (*questionnaire.Industry, error) {
	return s.mutate(ctx, slug, func(industry *questionnaire.Industry) error {
		kept := make([]questionnaire.Question, 0, len(industry.Questions))
		for _, q := range industry.Questions {
			if q.Key != key {
				kept = append(kept, q)
			}
		}
		if len(kept) == len(industry.Questions) {
			return domainerr.ErrNotFound
		}
		industry.Questions = kept
		return nil
	})
}

// ReorderQuestions assigns order 1..n following keys. Every question must be listed once.
func (s *industryService) ReorderQuestions(ctx context.Context, slug string, keys []string) (*questionnaire.Industry, error) {
	return s.mutate(ctx, slug, func(industry *questionnaire.Industry) error {
		if len(keys) != len(industry.Questions) {
			return fmt.Errorf("keys must list all %d questions", len(industry.Questions))
		}
		position := make(map[string]int, len(keys))
		for i, key := range keys {
			if _, dup := position[key]; dup {
				return fmt.Errorf("duplicate key %q", key)
			}
			position[key] = i + 1
		}
		for i := range industry.Questions {
			order, ok := position[industry.Questions[i].Key]
			if !ok {
				return fmt.Errorf("missing key %q", industry.Questions[i].Key)
			}
			industry.Questions[i].Order = order
		}
		return nil
	})
}

// mutate loads the industry, applies fn, validates the result and stores it. Errors from fn
// other than ErrNotFound are reported as invalid input.
func (s *industryService) mutate(ctx context.Context, slug string, fn func(*questionnaire.Industry) error) (*questionnaire.Industry, error) {
	industry, err := s.Detail(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := fn(industry); err != nil {
		if errors.Is(err, domainerr.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := industry.Normalize(s.common); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	industry.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, industry); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return industry, nil
}

func (s *industryService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx)
}

func nextOrder(questions []questionnaire.Question) int {
	max := 0
	for _, q := range questions {
		if q.Order > max {
			max = q.Order
		}
	}
	return max + 1
}
