package application

import (
	"context"
	"errors"
	"time"

	admindomain "github.com/sngm3741/bizsurvey-services/api/internal/admin/domain"
	"github.com/sngm3741/bizsurvey-services/api/internal/questionnaire"
)

var (
	// ErrInvalidInput wraps validation failures that map to 400 responses.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials is returned for unknown emails, wrong passwords and inactive accounts alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrSelfLockout prevents admins from removing their own access.
	ErrSelfLockout = errors.New("you cannot demote or deactivate your own account")
)

// SurveyRepository exposes admin operations on submissions.
// SurveyRepository は管理画面向けの回答 CRUD を提供するポート。
type SurveyRepository interface {
	Find(ctx context.Context, filter SurveyFilter, paging Paging) ([]admindomain.Survey, int64, error)
	FindForExport(ctx context.Context, filter SurveyFilter, limit int) ([]admindomain.Survey, error)
	FindByID(ctx context.Context, id string) (*admindomain.Survey, error)
	Update(ctx context.Context, survey *admindomain.Survey) error
	Delete(ctx context.Context, id string) error
}

// IndustryRepository exposes industry configuration.
type IndustryRepository interface {
	FindAll(ctx context.Context, activeOnly bool) ([]questionnaire.Industry, error)
	FindBySlug(ctx context.Context, slug string) (*questionnaire.Industry, error)
	Create(ctx context.Context, industry *questionnaire.Industry) error
	Update(ctx context.Context, industry *questionnaire.Industry) error
}

// UserRepository persists staff accounts.
type UserRepository interface {
	Find(ctx context.Context) ([]admindomain.User, error)
	FindByID(ctx context.Context, id string) (*admindomain.User, error)
	FindByEmail(ctx context.Context, email string) (*admindomain.User, error)
	Create(ctx context.Context, user *admindomain.User) error
	Update(ctx context.Context, user *admindomain.User) error
	TouchLogin(ctx context.Context, id string, at time.Time) error
}

// AnalyticsRepository runs aggregations in the database.
// AnalyticsRepository は集計パイプラインを実行するポート。
type AnalyticsRepository interface {
	Overview(ctx context.Context, filter AnalyticsFilter, since time.Time) (*admindomain.Overview, error)
	CountRespondents(ctx context.Context, filter AnalyticsFilter) (int64, error)
	QuestionStats(ctx context.Context, filter AnalyticsFilter, question questionnaire.Question) (*RawQuestionStats, error)
}

// AnalyticsCache stores computed analytics. Invalidate drops every cached entry.
// Get reports the generation it read; Set only writes under that generation, so a
// result computed before an Invalidate is never served afterwards.
type AnalyticsCache interface {
	Get(ctx context.Context, key string, dst any) (hit bool, generation int64, err error)
	Set(ctx context.Context, generation int64, key string, value any) error
	Invalidate(ctx context.Context) error
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer signs access tokens for staff.
type TokenIssuer interface {
	Issue(user admindomain.User) (string, time.Time, error)
}

// SurveyFilter expresses admin search criteria.
type SurveyFilter struct {
	Industry string
	Status   string
	Keyword  string
	Region   string
	From     *time.Time
	To       *time.Time
}

// AnalyticsFilter restricts the submissions aggregated.
type AnalyticsFilter struct {
	Industry string
	Status   string
	From     *time.Time
	To       *time.Time
}

// Paging controls pagination.
type Paging struct {
	Page  int
	Limit int
	Sort  string
}

// RawValueCount is one group returned by a value aggregation.
type RawValueCount struct {
	Value any
	Count int64
}

// RawQuestionStats is the unlabelled aggregate of one question.
type RawQuestionStats struct {
	Responses int64
	Values    []RawValueCount
	Histogram []RawValueCount
	Average   *float64
	Min       *float64
	Max       *float64
	Samples   []string
}

// AuthService describes staff authentication.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Me(ctx context.Context, userID string) (*admindomain.User, error)
}

// LoginResult is a freshly issued token.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      admindomain.User
}

// SurveyService describes admin survey use-cases.
type SurveyService interface {
	List(ctx context.Context, filter SurveyFilter, paging Paging) (*SurveyPage, error)
	Detail(ctx context.Context, id string) (*admindomain.SurveyDetail, error)
	UpdateStatus(ctx context.Context, id string, cmd UpdateStatusCommand) (*admindomain.Survey, error)
	Update(ctx context.Context, id string, cmd UpdateSurveyCommand) (*admindomain.Survey, error)
	Delete(ctx context.Context, id string) error
	Export(ctx context.Context, filter SurveyFilter) (*ExportTable, error)
}

// SurveyPage is one page of search results.
type SurveyPage struct {
	Items []admindomain.Survey
	Total int64
	Page  int
	Limit int
}

// UpdateStatusCommand records a review decision.
type UpdateStatusCommand struct {
	Status     string
	Note       string
	ReviewedBy string
}

// UpdateSurveyCommand is a partial edit; nil fields are left untouched.
type UpdateSurveyCommand struct {
	CompanyName  *string
	ContactName  *string
	Email        *string
	Phone        *string
	Region       *string
	City         *string
	CompanySize  *string
	AnnualBudget *string
	AdminNotes   *string
}

// ExportTable is a rectangular rendering of surveys for spreadsheets.
type ExportTable struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// IndustryService describes questionnaire configuration use-cases.
type IndustryService interface {
	List(ctx context.Context) ([]questionnaire.Industry, error)
	Detail(ctx context.Context, slug string) (*questionnaire.Industry, error)
	Create(ctx context.Context, cmd CreateIndustryCommand) (*questionnaire.Industry, error)
	Update(ctx context.Context, slug string, cmd UpdateIndustryCommand) (*questionnaire.Industry, error)
	SetQuestion(ctx context.Context, slug string, question questionnaire.Question) (*questionnaire.Industry, error)
	DeleteQuestion(ctx context.Context, slug, key string) (*questionnaire.Industry, error)
	ReorderQuestions(ctx context.Context, slug string, keys []string) (*questionnaire.Industry, error)
	CommonQuestions() []questionnaire.Question
}

// CreateIndustryCommand contains inputs for a new industry.
type CreateIndustryCommand struct {
	Slug        string
	Name        string
	Description string
	Icon        string
	Order       int
	Active      bool
	Questions   []questionnaire.Question
}

// UpdateIndustryCommand is a partial edit of industry metadata.
type UpdateIndustryCommand struct {
	Name        *string
	Description *string
	Icon        *string
	Order       *int
	Active      *bool
}

// UserService describes staff account management.
type UserService interface {
	List(ctx context.Context) ([]admindomain.User, error)
	Create(ctx context.Context, cmd CreateUserCommand) (*admindomain.User, error)
	Update(ctx context.Context, actorID, id string, cmd UpdateUserCommand) (*admindomain.User, error)
}

// CreateUserCommand contains inputs for a new staff account.
type CreateUserCommand struct {
	Email    string
	Name     string
	Password string
	Role     string
}

// UpdateUserCommand is a partial edit of a staff account.
type UpdateUserCommand struct {
	Name     *string
	Role     *string
	Active   *bool
	Password *string
}

// AnalyticsService describes reporting use-cases.
type AnalyticsService interface {
	Overview(ctx context.Context, filter AnalyticsFilter) (*admindomain.Overview, error)
	IndustryBreakdown(ctx context.Context, slug string, filter AnalyticsFilter) (*admindomain.IndustryBreakdown, error)
}
