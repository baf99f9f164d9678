package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	admindomain "github.com/sngm3741/bizsurvey-services/api/internal/admin/domain"
	"github.com/sngm3741/bizsurvey-services/api/internal/domainerr"
	"github.com/sngm3741/bizsurvey-services/api/internal/questionnaire"
)

var fixedNow = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func sampleSurvey() admindomain.Survey {
	return admindomain.Survey{
		ID:            "s1",
		ReferenceCode: "SRV-00000001",
		Industry:      "retail",
		IndustryName:  "Retail",
		Profile:       questionnaire.Profile{CompanyName: "Acme", Email: "buyer@acme.io", Region: "north"},
		Answers:       map[string]any{"channel": "online", "store_count": float64(12), "legacy": "x"},
		Status:        admindomain.StatusPending,
		SubmittedAt:   time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC),
	}
}

func newSurveyFixture(t *testing.T) (SurveyService, *memorySurveys, *memoryCache) {
	t.Helper()
	surveys := newMemorySurveys(sampleSurvey())
	cache := newMemoryCache()
	svc := NewSurveyService(SurveyConfig{
		Surveys:    surveys,
		Industries: newMemoryIndustries(retailIndustry()),
		Common:     commonQuestions(),
		Cache:      cache,
		Now:        func() time.Time { return fixedNow },
	})
	return svc, surveys, cache
}

func TestSurveyListNormalizesPaging(t *testing.T) {
	svc, repo, _ := newSurveyFixture(t)
	page, err := svc.List(context.Background(), SurveyFilter{Industry: " Retail ", Status: "Verified"}, Paging{Page: 0, Limit: 500})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Page != 1 || page.Limit != MaxPageLimit || page.Total != 1 {
		t.Fatalf("unexpected page %+v", page)
	}
	if repo.lastFilter.Industry != "retail" || repo.lastFilter.Status != "verified" {
		t.Fatalf("filter not normalized: %+v", repo.lastFilter)
	}
	if repo.lastPaging.Sort != SortNewest {
		t.Fatalf("expected default sort, got %q", repo.lastPaging.Sort)
	}

	cases := []struct {
		name   string
		filter SurveyFilter
		paging Paging
	}{
		{"bad status", SurveyFilter{Status: "archived"}, Paging{}},
		{"bad sort", SurveyFilter{}, Paging{Sort: "rating"}},
		{"inverted range", SurveyFilter{From: timePtr(fixedNow), To: timePtr(fixedNow.Add(-time.Hour))}, Paging{}},
	}
	for _, tc := range cases {
		if _, err := svc.List(context.Background(), tc.filter, tc.paging); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
}

func TestSurveyDetailRendersAnswers(t *testing.T) {
	svc, _, _ := newSurveyFixture(t)
	detail, err := svc.Detail(context.Background(), "s1")
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	got := map[string]string{}
	for _, a := range detail.Answers {
		got[a.Key] = a.Display
	}
	want := map[string]string{
		"company_name": "Acme",
		"region":       "North",
		"email":        "buyer@acme.io",
		"channel":      "Online",
		"store_count":  "12",
		"collab":       "",
		"notes":        "",
		"legacy":       "x",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("answers mismatch (-want +got):\n%s", diff)
	}
	if last := detail.Answers[len(detail.Answers)-1]; last.Key != "legacy" {
		t.Fatalf("unknown keys should be rendered last, got %s", last.Key)
	}
}

func TestSurveyUpdateStatus(t *testing.T) {
	svc, repo, cache := newSurveyFixture(t)
	ctx := context.Background()

	updated, err := svc.UpdateStatus(ctx, "s1", UpdateStatusCommand{Status: "verified", Note: " ok ", ReviewedBy: "admin@example.com"})
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != admindomain.StatusVerified || updated.StatusNote != "ok" || updated.ReviewedBy != "admin@example.com" {
		t.Fatalf("unexpected survey %+v", updated)
	}
	if updated.ReviewedAt == nil || !updated.ReviewedAt.Equal(fixedNow) {
		t.Fatalf("reviewedAt not set: %v", updated.ReviewedAt)
	}
	if cache.invalidations != 1 {
		t.Fatalf("expected cache invalidation")
	}

	reverted, err := svc.UpdateStatus(ctx, "s1", UpdateStatusCommand{Status: "pending"})
	if err != nil {
		t.Fatalf("revert: %v", err)
	}
	if reverted.ReviewedAt != nil || reverted.ReviewedBy != "" {
		t.Fatalf("pending must clear reviewer: %+v", reverted)
	}
	if repo.items["s1"].Status != admindomain.StatusPending {
		t.Fatalf("status not persisted")
	}

	if _, err := svc.UpdateStatus(ctx, "s1", UpdateStatusCommand{Status: "approved"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid status error, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, "missing", UpdateStatusCommand{Status: "verified"}); !errors.Is(err, domainerr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSurveyUpdatePatch(t *testing.T) {
	svc, _, _ := newSurveyFixture(t)
	ctx := context.Background()

	notes := "<b>called</b> back"
	email := "New@Acme.io"
	updated, err := svc.Update(ctx, "s1", UpdateSurveyCommand{AdminNotes: &notes, Email: &email})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.AdminNotes != "called back" || updated.Profile.Email != "new@acme.io" {
		t.Fatalf("unexpected patch result %+v", updated)
	}
	if updated.Profile.CompanyName != "Acme" {
		t.Fatalf("untouched fields must be kept")
	}

	if _, err := svc.Update(ctx, "s1", UpdateSurveyCommand{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected empty patch to fail, got %v", err)
	}
	bad := "nope"
	if _, err := svc.Update(ctx, "s1", UpdateSurveyCommand{Email: &bad}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid email to fail, got %v", err)
	}
	empty := "  "
	if _, err := svc.Update(ctx, "s1", UpdateSurveyCommand{CompanyName: &empty}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected empty company to fail, got %v", err)
	}
}

func TestSurveyDelete(t *testing.T) {
	svc, repo, cache := newSurveyFixture(t)
	if err := svc.Delete(context.Background(), "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(repo.items) != 0 || cache.invalidations != 1 {
		t.Fatalf("delete did not remove or invalidate")
	}
	if err := svc.Delete(context.Background(), "s1"); !errors.Is(err, domainerr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSurveyExportColumns(t *testing.T) {
	svc, _, _ := newSurveyFixture(t)
	ctx := context.Background()

	table, err := svc.Export(ctx, SurveyFilter{Industry: "retail"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	wantTail := []string{"Channel", "Stores", "Collaboration", "Notes"}
	if diff := cmp.Diff(wantTail, table.Headers[len(table.Headers)-4:]); diff != "" {
		t.Fatalf("industry columns mismatch (-want +got):\n%s", diff)
	}
	if len(table.Rows) != 1 || len(table.Rows[0]) != len(table.Headers) {
		t.Fatalf("row shape mismatch: %d headers, rows %v", len(table.Headers), table.Rows)
	}
	row := table.Rows[0]
	if row[0] != "SRV-00000001" || row[1] != "2024-06-01 08:30" || row[8] != "North" {
		t.Fatalf("unexpected fixed columns %v", row[:9])
	}
	if row[len(row)-4] != "Online" || row[len(row)-3] != "12" {
		t.Fatalf("unexpected answer columns %v", row[len(row)-4:])
	}
	if table.Title != "Retail" {
		t.Fatalf("unexpected title %q", table.Title)
	}

	all, err := svc.Export(ctx, SurveyFilter{})
	if err != nil {
		t.Fatalf("export all: %v", err)
	}
	if all.Headers[len(all.Headers)-1] != "Answers" {
		t.Fatalf("expected flattened answers column")
	}
	flat := all.Rows[0][len(all.Rows[0])-1]
	if !containsAll(flat, "channel: online", "legacy: x", "store_count: 12") {
		t.Fatalf("unexpected flattened answers %q", flat)
	}
}

func TestAuthLogin(t *testing.T) {
	users := newMemoryUsers(
		admindomain.User{ID: "u1", Email: "admin@example.com", Name: "Admin", PasswordHash: "hashed:secret123", Role: admindomain.RoleAdmin, Active: true},
		admindomain.User{ID: "u2", Email: "gone@example.com", Name: "Gone", PasswordHash: "hashed:secret123", Role: admindomain.RoleViewer, Active: false},
	)
	svc := NewAuthService(users, plainHasher{}, stubTokens{}, nil)
	ctx := context.Background()

	res, err := svc.Login(ctx, " Admin@Example.com ", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Token != "token-for-u1" || res.User.LastLoginAt == nil {
		t.Fatalf("unexpected login result %+v", res)
	}
	if _, ok := users.touched["u1"]; !ok {
		t.Fatalf("lastLoginAt not recorded")
	}

	for _, tc := range []struct{ email, password string }{
		{"admin@example.com", "wrong-password"},
		{"nobody@example.com", "secret123"},
		{"gone@example.com", "secret123"},
		{"not an email", "secret123"},
	} {
		if _, err := svc.Login(ctx, tc.email, tc.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("login(%s): expected ErrInvalidCredentials, got %v", tc.email, err)
		}
	}

	me, err := svc.Me(ctx, "u1")
	if err != nil || me.Email != "admin@example.com" {
		t.Fatalf("me: %+v %v", me, err)
	}
	if _, err := svc.Me(ctx, "u2"); !errors.Is(err, domainerr.ErrNotFound) {
		t.Fatalf("inactive user must not resolve, got %v", err)
	}
}

func TestUserServiceCreateAndUpdate(t *testing.T) {
	users := newMemoryUsers()
	svc := NewUserService(users, plainHasher{})
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateUserCommand{Email: "Rev@Example.com", Name: "Rev", Password: "longenough", Role: "reviewer"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Email != "rev@example.com" || created.PasswordHash != "hashed:longenough" || !created.Active {
		t.Fatalf("unexpected user %+v", created)
	}
	if _, err := svc.Create(ctx, CreateUserCommand{Email: "rev@example.com", Name: "Dup", Password: "longenough", Role: "viewer"}); !errors.Is(err, domainerr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := svc.Create(ctx, CreateUserCommand{Email: "x@example.com", Name: "X", Password: "short", Role: "viewer"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected short password error, got %v", err)
	}
	if _, err := svc.Create(ctx, CreateUserCommand{Email: "x@example.com", Name: "X", Password: "longenough", Role: "owner"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected bad role error, got %v", err)
	}

	admin, err := svc.Create(ctx, CreateUserCommand{Email: "boss@example.com", Name: "Boss", Password: "longenough", Role: "admin"})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	viewer := "viewer"
	if _, err := svc.Update(ctx, admin.ID, admin.ID, UpdateUserCommand{Role: &viewer}); !errors.Is(err, ErrSelfLockout) {
		t.Fatalf("expected self demotion to fail, got %v", err)
	}
	inactive := false
	if _, err := svc.Update(ctx, admin.ID, admin.ID, UpdateUserCommand{Active: &inactive}); !errors.Is(err, ErrSelfLockout) {
		t.Fatalf("expected self deactivation to fail, got %v", err)
	}
	updated, err := svc.Update(ctx, admin.ID, created.ID, UpdateUserCommand{Role: &viewer, Active: &inactive})
	if err != nil {
		t.Fatalf("update other: %v", err)
	}
	if updated.Role != admindomain.RoleViewer || updated.Active {
		t.Fatalf("unexpected update result %+v", updated)
	}
	name := "Boss Person"
	if _, err := svc.Update(ctx, admin.ID, admin.ID, UpdateUserCommand{Name: &name}); err != nil {
		t.Fatalf("self rename should be allowed: %v", err)
	}
}

func TestIndustryServiceQuestionLifecycle(t *testing.T) {
	industries := newMemoryIndustries(retailIndustry())
	cache := newMemoryCache()
	svc := NewIndustryService(industries, commonQuestions(), cache)
	ctx := context.Background()

	ind, err := svc.SetQuestion(ctx, "retail", questionnaire.Question{Key: "esg", Label: "ESG", Type: questionnaire.TypeBoolean})
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	q, ok := ind.Question("esg")
	if !ok || q.Order != 5 || len(q.Options) != 2 {
		t.Fatalf("unexpected added question %+v", q)
	}

	ind, err = svc.SetQuestion(ctx, "retail", questionnaire.Question{Key: "notes", Label: "Remarks", Type: questionnaire.TypeText})
	if err != nil {
		t.Fatalf("replace question: %v", err)
	}
	if q, _ := ind.Question("notes"); q.Label != "Remarks" || q.Order != 4 {
		t.Fatalf("replace should keep order, got %+v", q)
	}

	if _, err := svc.SetQuestion(ctx, "retail", questionnaire.Question{Key: "email", Label: "Email", Type: questionnaire.TypeText}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected reserved key error, got %v", err)
	}
	if _, err := svc.SetQuestion(ctx, "retail", questionnaire.Question{Key: "bad", Label: "Bad", Type: questionnaire.TypeSelect}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected missing options error, got %v", err)
	}

	ind, err = svc.ReorderQuestions(ctx, "retail", []string{"esg", "notes", "collab", "store_count", "channel"})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	var keys []string
	for _, q := range ind.Questions {
		keys = append(keys, q.Key)
	}
	if diff := cmp.Diff([]string{"esg", "notes", "collab", "store_count", "channel"}, keys); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if _, err := svc.ReorderQuestions(ctx, "retail", []string{"esg"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected partial reorder to fail, got %v", err)
	}

	ind, err = svc.DeleteQuestion(ctx, "retail", "esg")
	if err != nil {
		t.Fatalf("delete question: %v", err)
	}
	if _, ok := ind.Question("esg"); ok {
		t.Fatalf("question not deleted")
	}
	if _, err := svc.DeleteQuestion(ctx, "retail", "esg"); !errors.Is(err, domainerr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if cache.invalidations != 4 {
		t.Fatalf("expected 4 invalidations, got %d", cache.invalidations)
	}
}

func TestIndustryServiceCreateAndUpdate(t *testing.T) {
	industries := newMemoryIndustries(retailIndustry())
	svc := NewIndustryService(industries, commonQuestions(), nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateIndustryCommand{Slug: "Mining", Name: "Mining", Active: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Slug != "mining" {
		t.Fatalf("slug not normalized: %s", created.Slug)
	}
	if _, err := svc.Create(ctx, CreateIndustryCommand{Slug: "retail", Name: "Retail"}); !errors.Is(err, domainerr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := svc.Create(ctx, CreateIndustryCommand{Slug: "bad slug", Name: "Bad"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid slug, got %v", err)
	}

	inactive := false
	updated, err := svc.Update(ctx, "mining", UpdateIndustryCommand{Active: &inactive})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Active {
		t.Fatalf("expected inactive industry")
	}
	if _, err := svc.Update(ctx, "mining", UpdateIndustryCommand{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected empty update to fail, got %v", err)
	}
	if _, err := svc.Update(ctx, "unknown", UpdateIndustryCommand{Active: &inactive}); !errors.Is(err, domainerr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func timePtr(t time.Time) *time.Time { return &t }
