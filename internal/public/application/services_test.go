package application

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sngm3741/bizsurvey-services/api/internal/domainerr"
	"github.com/sngm3741/bizsurvey-services/api/internal/public/domain"
	"github.com/sngm3741/bizsurvey-services/api/internal/questionnaire"
)

type fakeIndustries struct {
	items []questionnaire.Industry
}

func (f *fakeIndustries) FindAll(_ context.Context, activeOnly bool) ([]questionnaire.Industry, error) {
	var out []questionnaire.Industry
	for _, ind := range f.items {
		if activeOnly && !ind.Active {
			continue
		}
		out = append(out, ind)
	}
	return out, nil
}

func (f *fakeIndustries) FindBySlug(_ context.Context, slug string) (*questionnaire.Industry, error) {
	for _, ind := range f.items {
		if ind.Slug == slug {
			copied := ind
			return &copied, nil
		}
	}
	return nil, domainerr.ErrNotFound
}

type fakeSubmissions struct {
	conflicts int
	saved     []domain.Submission
}

func (f *fakeSubmissions) Create(_ context.Context, s *domain.Submission) error {
	if f.conflicts > 0 {
		f.conflicts--
		return domainerr.ErrConflict
	}
	s.ID = "sub-1"
	f.saved = append(f.saved, *s)
	return nil
}

type fakeCache struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeCache) Invalidate(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

type chanNotifier struct {
	ch chan domain.Submission
}

func (n *chanNotifier) NotifySubmission(_ context.Context, s domain.Submission) error {
	n.ch <- s
	return nil
}

func testQuestions(t *testing.T) ([]questionnaire.Question, []questionnaire.Industry) {
	t.Helper()
	common := []questionnaire.Question{
		{Key: questionnaire.KeyCompanyName, Label: "Company", Type: questionnaire.TypeText, Required: true, Step: questionnaire.StepBusiness},
		{Key: questionnaire.KeyRegion, Label: "Region", Type: questionnaire.TypeSelect, Step: questionnaire.StepBusiness,
			Options: []questionnaire.Option{{Value: "north"}, {Value: "south"}}},
		{Key: questionnaire.KeyEmail, Label: "Email", Type: questionnaire.TypeText, Format: questionnaire.FormatEmail, Required: true, Step: questionnaire.StepContact},
	}
	for i := range common {
		if err := common[i].Normalize(); err != nil {
			t.Fatalf("normalize common: %v", err)
		}
	}
	industries := []questionnaire.Industry{
		{Slug: "retail", Name: "Retail", Active: true, Order: 2, Questions: []questionnaire.Question{
			{Key: "store_count", Label: "Stores", Type: questionnaire.TypeNumber, Required: true},
			{Key: "private_label", Label: "Private label", Type: questionnaire.TypeBoolean},
		}},
		{Slug: "energy", Name: "Energy", Active: true, Order: 1},
		{Slug: "textiles", Name: "Textiles", Active: false, Order: 3},
	}
	for i := range industries {
		if err := industries[i].Normalize(common); err != nil {
			t.Fatalf("normalize industry: %v", err)
		}
	}
	return common, industries
}

func TestFormServiceListsActiveIndustriesInOrder(t *testing.T) {
	common, industries := testQuestions(t)
	svc := NewFormService(&fakeIndustries{items: industries}, common)

	got, err := svc.ListIndustries(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var slugs []string
	for _, ind := range got {
		slugs = append(slugs, ind.Slug)
	}
	if diff := cmp.Diff([]string{"energy", "retail"}, slugs); diff != "" {
		t.Fatalf("slugs mismatch (-want +got):\n%s", diff)
	}

	if _, err := svc.GetIndustry(context.Background(), "textiles"); !errors.Is(err, domainerr.ErrNotFound) {
		t.Fatalf("expected inactive industry to be hidden, got %v", err)
	}
	if _, err := svc.GetForm(context.Background(), "Not A Slug"); !errors.Is(err, domainerr.ErrNotFound) {
		t.Fatalf("expected not found for bad slug, got %v", err)
	}
}

func TestFormServiceValidateStep(t *testing.T) {
	common, industries := testQuestions(t)
	svc := NewFormService(&fakeIndustries{items: industries}, common)
	ctx := context.Background()

	res, err := svc.ValidateStep(ctx, ValidateStepCommand{Industry: "retail", Step: "industry", Answers: map[string]any{"private_label": "yes"}})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if res.Valid || res.Errors["store_count"] == "" {
		t.Fatalf("expected store_count error, got %+v", res)
	}
	if _, ok := res.Errors[questionnaire.KeyCompanyName]; ok {
		t.Fatalf("business step questions must not be checked on the industry step")
	}

	res, err = svc.ValidateStep(ctx, ValidateStepCommand{Industry: "retail", Step: "business", Answers: map[string]any{"company_name": "Acme"}})
	if err != nil || !res.Valid {
		t.Fatalf("expected valid business step, got %+v err=%v", res, err)
	}

	if _, err := svc.ValidateStep(ctx, ValidateStepCommand{Industry: "retail", Step: "payment"}); !errors.Is(err, ErrInvalidStep) {
		t.Fatalf("expected ErrInvalidStep, got %v", err)
	}
}

func TestSubmitPersistsNormalizedSubmission(t *testing.T) {
	common, industries := testQuestions(t)
	repo := &fakeSubmissions{conflicts: 1}
	cache := &fakeCache{}
	notifier := &chanNotifier{ch: make(chan domain.Submission, 1)}
	fixed := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc := NewSubmissionService(SubmissionConfig{
		Industries:  &fakeIndustries{items: industries},
		Submissions: repo,
		Common:      common,
		Cache:       cache,
		Notifier:    notifier,
		Now:         func() time.Time { return fixed },
	})

	got, err := svc.Submit(context.Background(), SubmitSurveyCommand{
		Industry: "retail",
		Answers: map[string]any{
			"company_name":  "<i>Acme</i>",
			"region":        "north",
			"email":         "Buyer@Acme.io",
			"store_count":   "12",
			"private_label": true,
		},
		Consent:   true,
		ClientIP:  "203.0.113.5",
		UserAgent: "test",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !strings.HasPrefix(got.ReferenceCode, "SRV-") || len(got.ReferenceCode) != 12 {
		t.Fatalf("unexpected reference code %q", got.ReferenceCode)
	}
	if got.Status != domain.StatusPending || !got.SubmittedAt.Equal(fixed) {
		t.Fatalf("unexpected status/time: %+v", got)
	}
	wantProfile := questionnaire.Profile{CompanyName: "Acme", Region: "north", Email: "buyer@acme.io"}
	if diff := cmp.Diff(wantProfile, got.Profile); diff != "" {
		t.Fatalf("profile mismatch (-want +got):\n%s", diff)
	}
	wantAnswers := map[string]any{"store_count": float64(12), "private_label": true}
	if diff := cmp.Diff(wantAnswers, got.Answers); diff != "" {
		t.Fatalf("answers mismatch (-want +got):\n%s", diff)
	}
	if len(repo.saved) != 1 {
		t.Fatalf("expected one saved submission after conflict retry, got %d", len(repo.saved))
	}
	if cache.calls != 1 {
		t.Fatalf("expected cache invalidation, got %d calls", cache.calls)
	}

	select {
	case notified := <-notifier.ch:
		if notified.ReferenceCode != got.ReferenceCode {
			t.Fatalf("notified wrong submission: %s", notified.ReferenceCode)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("notification not sent")
	}
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	common, industries := testQuestions(t)
	repo := &fakeSubmissions{}
	svc := NewSubmissionService(SubmissionConfig{
		Industries:  &fakeIndustries{items: industries},
		Submissions: repo,
		Common:      common,
	})

	_, err := svc.Submit(context.Background(), SubmitSurveyCommand{
		Industry: "retail",
		Answers: map[string]any{
			"company_name": "Acme",
			"email":        "buyer@acme.io",
			"store_count":  5,
			"favourite":    "blue",
		},
	})
	var fieldErrs questionnaire.FieldErrors
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("expected field errors, got %v", err)
	}
	want := questionnaire.FieldErrors{
		"favourite": "unknown question",
		"consent":   "consent is required",
	}
	if diff := cmp.Diff(want, fieldErrs); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if len(repo.saved) != 0 {
		t.Fatalf("invalid submission must not be saved")
	}

	if _, err := svc.Submit(context.Background(), SubmitSurveyCommand{Industry: "textiles", Consent: true}); !errors.Is(err, domainerr.ErrNotFound) {
		t.Fatalf("expected not found for inactive industry, got %v", err)
	}
}

func TestSubmitGivesUpAfterRepeatedConflicts(t *testing.T) {
	common, industries := testQuestions(t)
	svc := NewSubmissionService(SubmissionConfig{
		Industries:  &fakeIndustries{items: industries},
		Submissions: &fakeSubmissions{conflicts: 10},
		Common:      common,
	})
	_, err := svc.Submit(context.Background(), SubmitSurveyCommand{
		Industry: "retail",
		Answers:  map[string]any{"company_name": "Acme", "email": "a@b.io", "store_count": 1},
		Consent:  true,
	})
	if !errors.Is(err, domainerr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}
