package admin

import (
	"time"

	adminapp "github.com/sngm3741/bizsurvey-services/api/internal/admin/application"
	admindomain "github.com/sngm3741/bizsurvey-services/api/internal/admin/domain"
	"github.com/sngm3741/bizsurvey-services/api/internal/interfaces/http/common"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      userResponse `json:"user"`
}

type userResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	Active      bool       `json:"active"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type userListResponse struct {
	Items []userResponse `json:"items"`
}

type createUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type updateUserRequest struct {
	Name     *string `json:"name"`
	Role     *string `json:"role"`
	Active   *bool   `json:"active"`
	Password *string `json:"password"`
}

type profileResponse struct {
	CompanyName  string `json:"companyName"`
	ContactName  string `json:"contactName,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Region       string `json:"region,omitempty"`
	City         string `json:"city,omitempty"`
	CompanySize  string `json:"companySize,omitempty"`
	AnnualBudget string `json:"annualBudget,omitempty"`
}

type surveySummaryResponse struct {
	ID            string          `json:"id"`
	ReferenceCode string          `json:"referenceCode"`
	Industry      string          `json:"industry"`
	IndustryName  string          `json:"industryName,omitempty"`
	Profile       profileResponse `json:"profile"`
	Status        string          `json:"status"`
	ReviewedBy    string          `json:"reviewedBy,omitempty"`
	ReviewedAt    *time.Time      `json:"reviewedAt,omitempty"`
	SubmittedAt   time.Time       `json:"submittedAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type surveyListResponse struct {
	Items []surveySummaryResponse `json:"items"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}

type answerResponse struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Type     string `json:"type,omitempty"`
	Step     string `json:"step,omitempty"`
	Value    any    `json:"value"`
	Display  string `json:"display"`
	Answered bool   `json:"answered"`
}

type surveyDetailResponse struct {
	surveySummaryResponse
	StatusNote string           `json:"statusNote,omitempty"`
	AdminNotes string           `json:"adminNotes,omitempty"`
	Consent    bool             `json:"consent"`
	ClientIP   string           `json:"clientIp,omitempty"`
	UserAgent  string           `json:"userAgent,omitempty"`
	Answers    []answerResponse `json:"answers,omitempty"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

type updateSurveyRequest struct {
	CompanyName  *string `json:"companyName"`
	ContactName  *string `json:"contactName"`
	Email        *string `json:"email"`
	Phone        *string `json:"phone"`
	Region       *string `json:"region"`
	City         *string `json:"city"`
	CompanySize  *string `json:"companySize"`
	AnnualBudget *string `json:"annualBudget"`
	AdminNotes   *string `json:"adminNotes"`
}

type countResponse struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int64  `json:"count"`
}

type overviewResponse struct {
	Total            int64           `json:"total"`
	Last7Days        int64           `json:"last7Days"`
	VerificationRate *float64        `json:"verificationRate"`
	ByStatus         []countResponse `json:"byStatus"`
	ByIndustry       []countResponse `json:"byIndustry"`
	ByRegion         []countResponse `json:"byRegion"`
	ByCompanySize    []countResponse `json:"byCompanySize"`
	ByMonth          []countResponse `json:"byMonth"`
}

type bucketResponse struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Count   int64   `json:"count"`
	Percent float64 `json:"percent"`
}

type questionBreakdownResponse struct {
	Key       string           `json:"key"`
	Label     string           `json:"label"`
	Type      string           `json:"type"`
	Step      string           `json:"step,omitempty"`
	Responses int64            `json:"responses"`
	Buckets   []bucketResponse `json:"buckets,omitempty"`
	Average   *float64         `json:"average,omitempty"`
	Min       *float64         `json:"min,omitempty"`
	Max       *float64         `json:"max,omitempty"`
	Samples   []string         `json:"samples,omitempty"`
}

type industryBreakdownResponse struct {
	Industry     string                      `json:"industry"`
	IndustryName string                      `json:"industryName"`
	Respondents  int64                       `json:"respondents"`
	Questions    []questionBreakdownResponse `json:"questions"`
}

type industryListResponse struct {
	Items []common.IndustrySummary `json:"items"`
}

type commonQuestionsResponse struct {
	Items []common.QuestionPayload `json:"items"`
}

type createIndustryRequest struct {
	Slug        string                   `json:"slug"`
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Icon        string                   `json:"icon"`
	Order       int                      `json:"order"`
	Active      *bool                    `json:"active"`
	Questions   []common.QuestionPayload `json:"questions"`
}

type updateIndustryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	Order       *int    `json:"order"`
	Active      *bool   `json:"active"`
}

type reorderRequest struct {
	Keys []string `json:"keys"`
}

func newUserResponse(user admindomain.User) userResponse {
	return userResponse{
		ID:          user.ID,
		Email:       user.Email.String(),
		Name:        user.Name,
		Role:        user.Role.String(),
		Active:      user.Active,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

func newSurveySummary(s admindomain.Survey) surveySummaryResponse {
	return surveySummaryResponse{
		ID:            s.ID,
		ReferenceCode: s.ReferenceCode,
		Industry:      s.Industry,
		IndustryName:  s.IndustryName,
		Profile: profileResponse{
			CompanyName:  s.Profile.CompanyName,
			ContactName:  s.Profile.ContactName,
			Email:        s.Profile.Email,
			Phone:        s.Profile.Phone,
			Region:       s.Profile.Region,
			City:         s.Profile.City,
			CompanySize:  s.Profile.CompanySize,
			AnnualBudget: s.Profile.AnnualBudget,
		},
		Status:      s.Status.String(),
		ReviewedBy:  s.ReviewedBy,
		ReviewedAt:  s.ReviewedAt,
		SubmittedAt: s.SubmittedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func newSurveyDetail(s admindomain.Survey, answers []admindomain.AnswerView) surveyDetailResponse {
	resp := surveyDetailResponse{
		surveySummaryResponse: newSurveySummary(s),
		StatusNote:            s.StatusNote,
		AdminNotes:            s.AdminNotes,
		Consent:               s.Consent,
		ClientIP:              s.ClientIP,
		UserAgent:             s.UserAgent,
	}
	for _, a := range answers {
		resp.Answers = append(resp.Answers, answerResponse{
			Key:      a.Key,
			Label:    a.Label,
			Type:     string(a.Type),
			Step:     string(a.Step),
			Value:    a.Value,
			Display:  a.Display,
			Answered: a.Answered,
		})
	}
	return resp
}

func newCounts(counts []admindomain.Count) []countResponse {
	out := make([]countResponse, 0, len(counts))
	for _, c := range counts {
		out = append(out, countResponse{Key: c.Key, Label: c.Label, Count: c.Count})
	}
	return out
}

func newOverviewResponse(o admindomain.Overview) overviewResponse {
	return overviewResponse{
		Total:            o.Total,
		Last7Days:        o.Last7Days,
		VerificationRate: o.VerificationRate,
		ByStatus:         newCounts(o.ByStatus),
		ByIndustry:       newCounts(o.ByIndustry),
		ByRegion:         newCounts(o.ByRegion),
		ByCompanySize:    newCounts(o.ByCompanySize),
		ByMonth:          newCounts(o.ByMonth),
	}
}

func newIndustryBreakdownResponse(b admindomain.IndustryBreakdown) industryBreakdownResponse {
	resp := industryBreakdownResponse{
		Industry:     b.Industry,
		IndustryName: b.IndustryName,
		Respondents:  b.Respondents,
		Questions:    make([]questionBreakdownResponse, 0, len(b.Questions)),
	}
	for _, q := range b.Questions {
		qr := questionBreakdownResponse{
			Key:       q.Key,
			Label:     q.Label,
			Type:      string(q.Type),
			Step:      string(q.Step),
			Responses: q.Responses,
			Average:   q.Average,
			Min:       q.Min,
			Max:       q.Max,
			Samples:   q.Samples,
		}
		for _, bk := range q.Buckets {
			qr.Buckets = append(qr.Buckets, bucketResponse{Key: bk.Key, Label: bk.Label, Count: bk.Count, Percent: bk.Percent})
		}
		resp.Questions = append(resp.Questions, qr)
	}
	return resp
}

func newSurveyListResponse(page adminapp.SurveyPage) surveyListResponse {
	items := make([]surveySummaryResponse, 0, len(page.Items))
	for _, s := range page.Items {
		items = append(items, newSurveySummary(s))
	}
	return surveyListResponse{Items: items, Total: page.Total, Page: page.Page, Limit: page.Limit}
}
