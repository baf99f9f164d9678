package mongo

import (
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	admindomain "github.com/sngm3741/bizsurvey-services/api/internal/admin/domain"
	"github.com/sngm3741/bizsurvey-services/api/internal/domainerr"
	"github.com/sngm3741/bizsurvey-services/api/internal/questionnaire"
)

// profileFields はプロフィール設問キーとトップレベルのフィールド名の対応。
var profileFields = map[string]string{
	questionnaire.KeyCompanyName:  "companyName",
	questionnaire.KeyContactName:  "contactName",
	questionnaire.KeyEmail:        "email",
	questionnaire.KeyPhone:        "phone",
	questionnaire.KeyRegion:       "region",
	questionnaire.KeyCity:         "city",
	questionnaire.KeyCompanySize:  "companySize",
	questionnaire.KeyAnnualBudget: "annualBudget",
}

// answerPath は設問キーから回答が保存されているドキュメントパスを返す。
func answerPath(key string) string {
	if field, ok := profileFields[key]; ok {
		return field
	}
	return "answers." + key
}

// mapError はドライバ固有のエラーをドメインのセンチネルに揃える。
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return domainerr.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", domainerr.ErrConflict, err)
	}
	return err
}

// parseObjectID は不正な ID を NotFound として扱う。
func parseObjectID(id string) (primitive.ObjectID, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, domainerr.ErrNotFound
	}
	return objectID, nil
}

// normalizeValue は BSON デコード結果をドメインで扱う Go の値に揃える。
func normalizeValue(v any) any {
	switch t := v.(type) {
	case primitive.A:
		out := make([]any, 0, len(t))
		for _, item := range t {
			out = append(out, normalizeValue(item))
		}
		return out
	case []any:
		out := make([]any, 0, len(t))
		for _, item := range t {
			out = append(out, normalizeValue(item))
		}
		return out
	case int32:
		return int(t)
	case int64:
		return int(t)
	case primitive.Decimal128:
		return t.String()
	case primitive.DateTime:
		return t.Time().UTC()
	case bson.M:
		return normalizeAnswers(t)
	case bson.D:
		return normalizeAnswers(t.Map())
	}
	return v
}

func normalizeAnswers(in bson.M) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = normalizeValue(v)
	}
	return out
}

func answersToDocument(answers map[string]any) bson.M {
	out := make(bson.M, len(answers))
	for k, v := range answers {
		out[k] = v
	}
	return out
}

func mapQuestionToDocument(q questionnaire.Question) QuestionDocument {
	doc := QuestionDocument{
		Key:         q.Key,
		Label:       q.Label,
		Help:        q.Help,
		Type:        string(q.Type),
		Format:      q.Format,
		Required:    q.Required,
		Min:         q.Min,
		Max:         q.Max,
		Buckets:     q.Buckets,
		Placeholder: q.Placeholder,
		Order:       q.Order,
		Step:        string(q.Step),
	}
	for _, opt := range q.Options {
		doc.Options = append(doc.Options, OptionDocument{Value: opt.Value, Label: opt.Label})
	}
	return doc
}

func mapQuestionDocument(doc QuestionDocument) questionnaire.Question {
	q := questionnaire.Question{
		Key:         doc.Key,
		Label:       doc.Label,
		Help:        doc.Help,
		Type:        questionnaire.QuestionType(doc.Type),
		Format:      doc.Format,
		Required:    doc.Required,
		Min:         doc.Min,
		Max:         doc.Max,
		Buckets:     doc.Buckets,
		Placeholder: doc.Placeholder,
		Order:       doc.Order,
		Step:        questionnaire.Step(doc.Step),
	}
	for _, opt := range doc.Options {
		q.Options = append(q.Options, questionnaire.Option{Value: opt.Value, Label: opt.Label})
	}
	return q
}

func mapIndustryToDocument(industry *questionnaire.Industry) IndustryDocument {
	doc := IndustryDocument{
		Slug:        industry.Slug,
		Name:        industry.Name,
		Description: industry.Description,
		Icon:        industry.Icon,
		Order:       industry.Order,
		Active:      industry.Active,
		Questions:   make([]QuestionDocument, 0, len(industry.Questions)),
		CreatedAt:   industry.CreatedAt,
		UpdatedAt:   industry.UpdatedAt,
	}
	for _, q := range industry.Questions {
		doc.Questions = append(doc.Questions, mapQuestionToDocument(q))
	}
	return doc
}

func mapIndustryDocument(doc IndustryDocument) questionnaire.Industry {
	industry := questionnaire.Industry{
		Slug:        doc.Slug,
		Name:        doc.Name,
		Description: doc.Description,
		Icon:        doc.Icon,
		Order:       doc.Order,
		Active:      doc.Active,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
	for _, q := range doc.Questions {
		industry.Questions = append(industry.Questions, mapQuestionDocument(q))
	}
	questionnaire.SortQuestions(industry.Questions)
	return industry
}

func profileFromDocument(doc SurveyDocument) questionnaire.Profile {
	return questionnaire.Profile{
		CompanyName:  doc.CompanyName,
		ContactName:  doc.ContactName,
		Email:        doc.Email,
		Phone:        doc.Phone,
		Region:       doc.Region,
		City:         doc.City,
		CompanySize:  doc.CompanySize,
		AnnualBudget: doc.AnnualBudget,
	}
}

func applyProfile(doc *SurveyDocument, p questionnaire.Profile) {
	doc.CompanyName = p.CompanyName
	doc.ContactName = p.ContactName
	doc.Email = p.Email
	doc.Phone = p.Phone
	doc.Region = p.Region
	doc.City = p.City
	doc.CompanySize = p.CompanySize
	doc.AnnualBudget = p.AnnualBudget
}

func mapAdminSurveyDocument(doc SurveyDocument) admindomain.Survey {
	return admindomain.Survey{
		ID:            doc.ID.Hex(),
		ReferenceCode: doc.ReferenceCode,
		Industry:      doc.Industry,
		IndustryName:  doc.IndustryName,
		Profile:       profileFromDocument(doc),
		Answers:       normalizeAnswers(doc.Answers),
		Consent:       doc.Consent,
		Status:        admindomain.Status(doc.Status),
		StatusNote:    doc.StatusNote,
		ReviewedBy:    doc.ReviewedBy,
		ReviewedAt:    doc.ReviewedAt,
		AdminNotes:    doc.AdminNotes,
		ClientIP:      doc.ClientIP,
		UserAgent:     doc.UserAgent,
		SubmittedAt:   doc.SubmittedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
}

func mapUserDocument(doc UserDocument) admindomain.User {
	return admindomain.User{
		ID:           doc.ID.Hex(),
		Email:        admindomain.Email(doc.Email),
		Name:         doc.Name,
		PasswordHash: doc.PasswordHash,
		Role:         admindomain.Role(doc.Role),
		Active:       doc.Active,
		LastLoginAt:  doc.LastLoginAt,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
}
