package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sngm3741/bizsurvey-services/api/internal/domainerr"
	"github.com/sngm3741/bizsurvey-services/api/internal/public/domain"
	"github.com/sngm3741/bizsurvey-services/api/internal/questionnaire"
)

const (
	referenceCodeAttempts = 3
	notifyTimeout         = 30 * time.Second
)

// SubmissionConfig defines dependencies of the submission service.
type SubmissionConfig struct {
	Industries  IndustryRepository
	Submissions SubmissionRepository
	Common      []questionnaire.Question
	Cache       CacheInvalidator
	Notifier    SubmissionNotifier
	Logger      *log.Logger
	Now         func() time.Time
}

type submissionService struct {
	industries  IndustryRepository
	submissions SubmissionRepository
	common      []questionnaire.Question
	cache       CacheInvalidator
	notifier    SubmissionNotifier
	logger      *log.Logger
	now         func() time.Time
}

// NewSubmissionService creates a SubmissionService.
func NewSubmissionService(cfg SubmissionConfig) SubmissionService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &submissionService{
		industries:  cfg.Industries,
		submissions: cfg.Submissions,
		common:      cfg.Common,
		cache:       cfg.Cache,
		notifier:    cfg.Notifier,
		logger:      cfg.Logger,
		now:         now,
	}
}

func (s *submissionService) Submit(ctx context.Context, cmd SubmitSurveyCommand) (*domain.Submission, error) {
	industry, err := activeIndustry(ctx, s.industries, cmd.Industry)
	if err != nil {
		return nil, err
	}

	questions := questionnaire.MergeQuestions(s.common, industry.Questions)
	normalized, errs := questionnaire.ValidateAnswers(questions, cmd.Answers)
	if errs == nil {
		errs = questionnaire.FieldErrors{}
	}
	for _, key := range questionnaire.UnknownKeys(questions, cmd.Answers) {
		errs[key] = "unknown question"
	}
	if !cmd.Consent {
		errs["consent"] = "consent is required"
	}
	if len(errs) > 0 {
		return nil, errs
	}

	profile := questionnaire.ExtractProfile(normalized)
	now := s.now().UTC()
	submission := &domain.Submission{
		Industry:     industry.Slug,
		IndustryName: industry.Name,
		Profile:      profile,
		Answers:      normalized,
		Consent:      true,
		Status:       domain.StatusPending,
		ClientIP:     cmd.ClientIP,
		UserAgent:    cmd.UserAgent,
		SubmittedAt:  now,
		UpdatedAt:    now,
	}

	for attempt := 1; ; attempt++ {
		submission.ReferenceCode = domain.NewReferenceCode()
		err = s.submissions.Create(ctx, submission)
		if err == nil {
			break
		}
		if !errors.Is(err, domainerr.ErrConflict) || attempt >= referenceCodeAttempts {
			return nil, fmt.Errorf("save submission: %w", err)
		}
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logf("analytics cache invalidation failed: %v", err)
		}
	}
	if s.notifier != nil {
		snapshot := *submission
		go func() {
			notifyCtx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
			defer cancel()
			if err := s.notifier.NotifySubmission(notifyCtx, snapshot); err != nil {
				s.logf("submission notification failed: %v", err)
			}
		}()
	}

	return submission, nil
}

func (s *submissionService) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
