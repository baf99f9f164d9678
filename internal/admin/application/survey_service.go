package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	admindomain "github.com/sngm3741/bizsurvey-services/api/internal/admin/domain"
	"github.com/sngm3741/bizsurvey-services/api/internal/domainerr"
	"github.com/sngm3741/bizsurvey-services/api/internal/questionnaire"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	ExportLimit      = 10000
)

// Sort keys accepted by survey listings.
const (
	SortNewest  = "newest"
	SortOldest  = "oldest"
	SortCompany = "company"
)

// SurveyConfig defines dependencies of the survey service.
type SurveyConfig struct {
	Surveys    SurveyRepository
	Industries IndustryRepository
	Common     []questionnaire.Question
	Cache      AnalyticsCache
	Location   *time.Location
	Now        func() time.Time
}

type surveyService struct {
	surveys    SurveyRepository
	industries IndustryRepository
	common     []questionnaire.Question
	cache      AnalyticsCache
	location   *time.Location
	now        func() time.Time
}

func NewSurveyService(cfg SurveyConfig) SurveyService {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &surveyService{
		surveys:    cfg.Surveys,
		industries: cfg.Industries,
		common:     cfg.Common,
		cache:      cfg.Cache,
		location:   loc,
		now:        now,
	}
}

func (s *surveyService) List(ctx context.Context, filter SurveyFilter, paging Paging) (*SurveyPage, error) {
	filter, err := normalizeSurveyFilter(filter)
	if err != nil {
		return nil, err
	}
	paging, err = normalizePaging(paging)
	if err != nil {
		return nil, err
	}
	items, total, err := s.surveys.Find(ctx, filter, paging)
	if err != nil {
		return nil, err
	}
	return &SurveyPage{Items: items, Total: total, Page: paging.Page, Limit: paging.Limit}, nil
}

func (s *surveyService) Detail(ctx context.Context, id string) (*admindomain.SurveyDetail, error) {
	survey, err := s.surveys.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	questions, err := s.questionsFor(ctx, survey.Industry)
	if err != nil {
		return nil, err
	}
	return &admindomain.SurveyDetail{
		Survey:  *survey,
		Answers: admindomain.RenderAnswers(questions, *survey),
	}, nil
}

func (s *surveyService) UpdateStatus(ctx context.Context, id string, cmd UpdateStatusCommand) (*admindomain.Survey, error) {
	status, err := admindomain.NewStatus(cmd.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	survey, err := s.surveys.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	survey.Status = status
	survey.StatusNote = strings.TrimSpace(cmd.Note)
	if status.Final() {
		survey.ReviewedBy = strings.TrimSpace(cmd.ReviewedBy)
		survey.ReviewedAt = &now
	} else {
		survey.ReviewedBy = ""
		survey.ReviewedAt = nil
	}
	survey.UpdatedAt = now

	if err := s.surveys.Update(ctx, survey); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return survey, nil
}

func (s *surveyService) Update(ctx context.Context, id string, cmd UpdateSurveyCommand) (*admindomain.Survey, error) {
	survey, err := s.surveys.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	changed, err := applySurveyUpdate(survey, cmd)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, fmt.Errorf("%w: at least one field is required", ErrInvalidInput)
	}
	survey.UpdatedAt = s.now().UTC()
	if err := s.surveys.Update(ctx, survey); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return survey, nil
}

func (s *surveyService) Delete(ctx context.Context, id string) error {
	if err := s.surveys.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *surveyService) Export(ctx context.Context, filter SurveyFilter) (*ExportTable, error) {
	filter, err := normalizeSurveyFilter(filter)
	if err != nil {
		return nil, err
	}
	surveys, err := s.surveys.FindForExport(ctx, filter, ExportLimit)
	if err != nil {
		return nil, err
	}

	headers := []string{
		"Reference", "Submitted at", "Industry", "Status", "Company", "Contact", "Email", "Phone",
		"Region", "City", "Company size", "Annual budget", "Reviewed by", "Reviewed at", "Status note", "Admin notes",
	}
	var industryQuestions []questionnaire.Question
	title := "All industries"
	if filter.Industry != "" {
		industry, err := s.industries.FindBySlug(ctx, filter.Industry)
		if err != nil {
			return nil, err
		}
		title = industry.Name
		for _, q := range questionnaire.MergeQuestions(s.common, industry.Questions) {
			if questionnaire.IsProfileKey(q.Key) {
				continue
			}
			industryQuestions = append(industryQuestions, q)
			headers = append(headers, q.Label)
		}
	} else {
		headers = append(headers, "Answers")
	}

	commonByKey := make(map[string]questionnaire.Question, len(s.common))
	for _, q := range s.common {
		commonByKey[q.Key] = q
	}
	profileCell := func(p questionnaire.Profile, key string) string {
		value := p.Value(key)
		if value == "" {
			return ""
		}
		return questionnaire.DisplayValue(commonByKey[key], value)
	}

	rows := make([][]string, 0, len(surveys))
	for _, sv := range surveys {
		row := []string{
			sv.ReferenceCode,
			s.formatTime(&sv.SubmittedAt),
			firstNonEmpty(sv.IndustryName, sv.Industry),
			sv.Status.String(),
			sv.Profile.CompanyName,
			sv.Profile.ContactName,
			sv.Profile.Email,
			sv.Profile.Phone,
			profileCell(sv.Profile, questionnaire.KeyRegion),
			sv.Profile.City,
			profileCell(sv.Profile, questionnaire.KeyCompanySize),
			profileCell(sv.Profile, questionnaire.KeyAnnualBudget),
			sv.ReviewedBy,
			s.formatTime(sv.ReviewedAt),
			sv.StatusNote,
			sv.AdminNotes,
		}
		if filter.Industry != "" {
			for _, q := range industryQuestions {
				row = append(row, questionnaire.DisplayValue(q, sv.Answers[q.Key]))
			}
		} else {
			row = append(row, flattenAnswers(sv.Answers))
		}
		rows = append(rows, row)
	}
	return &ExportTable{Title: title, Headers: headers, Rows: rows}, nil
}

func (s *surveyService) questionsFor(ctx context.Context, slug string) ([]questionnaire.Question, error) {
	industry, err := s.industries.FindBySlug(ctx, slug)
	if errors.Is(err, domainerr.ErrNotFound) {
		return questionnaire.MergeQuestions(s.common, nil), nil
	}
	if err != nil {
		return nil, err
	}
	return questionnaire.MergeQuestions(s.common, industry.Questions), nil
}

func (s *surveyService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx)
}

func (s *surveyService) formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.In(s.location).Format("2006-01-02 15:04")
}

func applySurveyUpdate(survey *admindomain.Survey, cmd UpdateSurveyCommand) (bool, error) {
	changed := false
	set := func(dst *string, v *string) {
		if v == nil {
			return
		}
		*dst = questionnaire.SanitizeText(*v)
		changed = true
	}
	if cmd.CompanyName != nil && questionnaire.SanitizeText(*cmd.CompanyName) == "" {
		return false, fmt.Errorf("%w: companyName must not be empty", ErrInvalidInput)
	}
	set(&survey.Profile.CompanyName, cmd.CompanyName)
	set(&survey.Profile.ContactName, cmd.ContactName)
	set(&survey.Profile.Phone, cmd.Phone)
	set(&survey.Profile.Region, cmd.Region)
	set(&survey.Profile.City, cmd.City)
	set(&survey.Profile.CompanySize, cmd.CompanySize)
	set(&survey.Profile.AnnualBudget, cmd.AnnualBudget)
	set(&survey.AdminNotes, cmd.AdminNotes)
	if cmd.Email != nil {
		email, err := admindomain.NewEmail(*cmd.Email)
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if email == "" {
			return false, fmt.Errorf("%w: email must not be empty", ErrInvalidInput)
		}
		survey.Profile.Email = email.String()
		changed = true
	}
	return changed, nil
}

func normalizeSurveyFilter(filter SurveyFilter) (SurveyFilter, error) {
	filter.Industry = strings.ToLower(strings.TrimSpace(filter.Industry))
	filter.Keyword = strings.TrimSpace(filter.Keyword)
	filter.Region = strings.TrimSpace(filter.Region)
	if strings.TrimSpace(filter.Status) != "" {
		status, err := admindomain.NewStatus(filter.Status)
		if err != nil {
			return filter, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		filter.Status = status.String()
	} else {
		filter.Status = ""
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return filter, fmt.Errorf("%w: from must not be after to", ErrInvalidInput)
	}
	return filter, nil
}

func normalizePaging(paging Paging) (Paging, error) {
	if paging.Page < 1 {
		paging.Page = 1
	}
	if paging.Limit <= 0 {
		paging.Limit = DefaultPageLimit
	}
	if paging.Limit > MaxPageLimit {
		paging.Limit = MaxPageLimit
	}
	switch paging.Sort {
	case "":
		paging.Sort = SortNewest
	case SortNewest, SortOldest, SortCompany:
	default:
		return paging, fmt.Errorf("%w: unknown sort %q", ErrInvalidInput, paging.Sort)
	}
	return paging, nil
}

func flattenAnswers(answers map[string]any) string {
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+questionnaire.DisplayValue(questionnaire.Question{Key: k}, answers[k]))
	}
	return strings.Join(parts, "; ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
