package public

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"

	"github.com/sngm3741/bizsurvey-services/api/internal/domainerr"
	"github.com/sngm3741/bizsurvey-services/api/internal/interfaces/http/common"
	publicapp "github.com/sngm3741/bizsurvey-services/api/internal/public/application"
	"github.com/sngm3741/bizsurvey-services/api/internal/public/domain"
	"github.com/sngm3741/bizsurvey-services/api/internal/questionnaire"
)

type stubForms struct {
	industries []questionnaire.Industry
	common     []questionnaire.Question
	lastStep   publicapp.ValidateStepCommand
}

func (s *stubForms) ListIndustries(context.Context) ([]questionnaire.Industry, error) {
	return s.industries, nil
}

func (s *stubForms) GetIndustry(_ context.Context, slug string) (*questionnaire.Industry, error) {
	for _, it := range s.industries {
		if it.Slug == slug {
			copied := it
			return &copied, nil
		}
	}
	return nil, domainerr.ErrNotFound
}

func (s *stubForms) GetForm(ctx context.Context, slug string) (*questionnaire.Form, error) {
	industry, err := s.GetIndustry(ctx, slug)
	if err != nil {
		return nil, err
	}
	form := questionnaire.BuildForm(s.common, *industry)
	return &form, nil
}

func (s *stubForms) ValidateStep(_ context.Context, cmd publicapp.ValidateStepCommand) (publicapp.StepResult, error) {
	s.lastStep = cmd
	switch {
	case cmd.Step == "bogus":
		return publicapp.StepResult{}, publicapp.ErrInvalidStep
	case cmd.Industry != "retail":
		return publicapp.StepResult{}, domainerr.ErrNotFound
	case cmd.Answers["company_name"] == nil:
		return publicapp.StepResult{Errors: questionnaire.FieldErrors{"company_name": "required"}}, nil
	}
	return publicapp.StepResult{Valid: true}, nil
}

type stubSubmissions struct {
	last publicapp.SubmitSurveyCommand
	err  error
}

func (s *stubSubmissions) Submit(_ context.Context, cmd publicapp.SubmitSurveyCommand) (*domain.Submission, error) {
	s.last = cmd
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Submission{ID: "665f1c2e9b1e8a0012345678", ReferenceCode: "SRV-0A1B2C3D"}, nil
}

func newTestRouter(t *testing.T, subs *stubSubmissions) (http.Handler, *stubForms) {
	t.Helper()
	shared := []questionnaire.Question{
		{Key: questionnaire.KeyCompanyName, Label: "Company", Type: questionnaire.TypeText, Required: true, Step: questionnaire.StepBusiness, Order: 1},
		{Key: questionnaire.KeyEmail, Label: "Email", Type: questionnaire.TypeText, Format: questionnaire.FormatEmail, Required: true, Step: questionnaire.StepContact, Order: 1},
	}
	retail := questionnaire.Industry{
		Slug: "retail", Name: "Retail", Order: 1, Active: true,
		Questions: []questionnaire.Question{
			{Key: "channel", Label: "Channel", Type: questionnaire.TypeRadio, Order: 1, Step: questionnaire.StepIndustry,
				Options: []questionnaire.Option{{Value: "stores", Label: "Stores"}, {Value: "online", Label: "Online"}}},
		},
	}
	forms := &stubForms{industries: []questionnaire.Industry{retail}, common: shared}
	router := chi.NewRouter()
	NewHandler(Config{Forms: forms, Submissions: subs}).Register(router)
	return router, forms
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "form-test/1.0")
	req.RemoteAddr = "203.0.113.9:52311"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestIndustryEndpoints(t *testing.T) {
	router, _ := newTestRouter(t, &stubSubmissions{})

	rec := doRequest(t, router, http.MethodGet, "/industries", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status %d", rec.Code)
	}
	var list industryListResponse
	decodeBody(t, rec, &list)
	if len(list.Items) != 1 || list.Items[0].Slug != "retail" || list.Items[0].QuestionCount != 1 {
		t.Fatalf("unexpected list %+v", list)
	}

	rec = doRequest(t, router, http.MethodGet, "/industries/retail/form", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("form status %d", rec.Code)
	}
	var form common.FormPayload
	decodeBody(t, rec, &form)
	var steps []string
	for _, s := range form.Steps {
		steps = append(steps, fmt.Sprintf("%s:%d", s.Key, len(s.Questions)))
	}
	if diff := cmp.Diff([]string{"business:1", "industry:1", "contact:1"}, steps); diff != "" {
		t.Fatalf("form steps mismatch (-want +got):\n%s", diff)
	}

	rec = doRequest(t, router, http.MethodGet, "/industries/mining", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSurveyCreate(t *testing.T) {
	subs := &stubSubmissions{}
	router, _ := newTestRouter(t, subs)

	rec := doRequest(t, router, http.MethodPost, "/surveys",
		`{"industry":"retail","consent":true,"answers":{"company_name":"Acme","channel":"online"}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp submitSurveyResponse
	decodeBody(t, rec, &resp)
	want := submitSurveyResponse{Status: "ok", ID: "665f1c2e9b1e8a0012345678", ReferenceCode: "SRV-0A1B2C3D"}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Fatalf("response mismatch (-want +got):\n%s", diff)
	}
	if subs.last.ClientIP != "203.0.113.9" || subs.last.UserAgent != "form-test/1.0" || !subs.last.Consent {
		t.Fatalf("request metadata not forwarded: %+v", subs.last)
	}
}

func TestSurveyCreateErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		field  string
	}{
		{name: "malformed", body: `{"industry":`, status: http.StatusBadRequest},
		{name: "unknown field", body: `{"industry":"retail","extra":1}`, status: http.StatusBadRequest},
		{name: "missing industry", body: `{"answers":{}}`, status: http.StatusBadRequest, field: "industry"},
		{
			name:   "validation",
			body:   `{"industry":"retail","answers":{}}`,
			err:    questionnaire.FieldErrors{"consent": "consent is required"},
			status: http.StatusBadRequest,
			field:  "consent",
		},
		{name: "unknown industry", body: `{"industry":"mining"}`, err: domainerr.ErrNotFound, status: http.StatusNotFound},
		{name: "storage", body: `{"industry":"retail"}`, err: fmt.Errorf("save submission: boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(t, &stubSubmissions{err: tt.err})
			rec := doRequest(t, router, http.MethodPost, "/surveys", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			var body struct {
				Error  string            `json:"error"`
				Fields map[string]string `json:"fields"`
			}
			decodeBody(t, rec, &body)
			if body.Error == "" {
				t.Fatalf("expected error message")
			}
			if tt.field != "" && body.Fields[tt.field] == "" {
				t.Fatalf("expected field error for %s, got %v", tt.field, body.Fields)
			}
		})
	}
}

func TestStepValidate(t *testing.T) {
	router, forms := newTestRouter(t, &stubSubmissions{})

	rec := doRequest(t, router, http.MethodPost, "/surveys/validate-step",
		`{"industry":"retail","step":"business","answers":{}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp validateStepResponse
	decodeBody(t, rec, &resp)
	if resp.Valid || resp.Errors["company_name"] != "required" {
		t.Fatalf("unexpected result %+v", resp)
	}
	if forms.lastStep.Step != "business" {
		t.Fatalf("step not forwarded: %+v", forms.lastStep)
	}

	rec = doRequest(t, router, http.MethodPost, "/surveys/validate-step",
		`{"industry":"retail","step":"business","answers":{"company_name":"Acme"}}`)
	resp = validateStepResponse{}
	decodeBody(t, rec, &resp)
	if !resp.Valid || resp.Errors == nil || len(resp.Errors) != 0 {
		t.Fatalf("expected valid result with empty errors, got %+v", resp)
	}

	if rec := doRequest(t, router, http.MethodPost, "/surveys/validate-step", `{"industry":"retail","step":"bogus"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown step, got %d", rec.Code)
	}
	if rec := doRequest(t, router, http.MethodPost, "/surveys/validate-step", `{"industry":"mining","step":"business"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown industry, got %d", rec.Code)
	}
}
