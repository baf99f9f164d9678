package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sngm3741/bizsurvey-services/api/internal/public/domain"
)

// SurveyRepository はパブリックフォームからの回答を書き込むリポジトリ。
type SurveyRepository struct {
	surveys *mongo.Collection
}

// NewSurveyRepository は回答コレクションを束縛したリポジトリを構築する。
func NewSurveyRepository(db *mongo.Database, surveyCollection string) *SurveyRepository {
	return &SurveyRepository{surveys: db.Collection(surveyCollection)}
}

// Create は回答を新規登録する。referenceCode が重複した場合は ErrConflict を返す。
func (r *SurveyRepository) Create(ctx context.Context, submission *domain.Submission) error {
	if submission == nil {
		return errors.New("submission payload is nil")
	}
	doc := mapSubmissionToDocument(submission)
	doc.ID = primitive.NewObjectID()
	if _, err := r.surveys.InsertOne(ctx, doc); err != nil {
		return mapError(err)
	}
	submission.ID = doc.ID.Hex()
	return nil
}

func mapSubmissionToDocument(submission *domain.Submission) SurveyDocument {
	doc := SurveyDocument{
		ReferenceCode: submission.ReferenceCode,
		Industry:      submission.Industry,
		IndustryName:  submission.IndustryName,
		Answers:       answersToDocument(submission.Answers),
		Consent:       submission.Consent,
		Status:        submission.Status,
		ClientIP:      submission.ClientIP,
		UserAgent:     submission.UserAgent,
		SubmittedAt:   submission.SubmittedAt,
		UpdatedAt:     submission.UpdatedAt,
	}
	applyProfile(&doc, submission.Profile)
	return doc
}
