package mongo

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	adminapp "github.com/sngm3741/bizsurvey-services/api/internal/admin/application"
	admindomain "github.com/sngm3741/bizsurvey-services/api/internal/admin/domain"
	"github.com/sngm3741/bizsurvey-services/api/internal/domainerr"
)

// AdminSurveyRepository は管理者向けに回答の検索・更新・削除を提供するリポジトリ。
type AdminSurveyRepository struct {
	surveys *mongo.Collection
}

// NewAdminSurveyRepository は回答コレクションを束縛したリポジトリを生成する。
func NewAdminSurveyRepository(db *mongo.Database, surveyCollection string) *AdminSurveyRepository {
	return &AdminSurveyRepository{surveys: db.Collection(surveyCollection)}
}

// Find は検索条件を Mongo クエリへ変換し、ページングされた一覧と総件数を返す。
func (r *AdminSurveyRepository) Find(ctx context.Context, filter adminapp.SurveyFilter, paging adminapp.Paging) ([]admindomain.Survey, int64, error) {
	mongoFilter := buildSurveyFilter(filter)

	total, err := r.surveys.CountDocuments(ctx, mongoFilter)
	if err != nil {
		return nil, 0, err
	}

	findOpts := options.Find().SetSort(surveySort(paging.Sort))
	if paging.Limit > 0 {
		findOpts.SetLimit(int64(paging.Limit))
		if paging.Page > 1 {
			findOpts.SetSkip(int64((paging.Page - 1) * paging.Limit))
		}
	}

	surveys, err := r.find(ctx, mongoFilter, findOpts)
	if err != nil {
		return nil, 0, err
	}
	return surveys, total, nil
}

// FindForExport はエクスポート用に新しい順で最大 limit 件を返す。
func (r *AdminSurveyRepository) FindForExport(ctx context.Context, filter adminapp.SurveyFilter, limit int) ([]admindomain.Survey, error) {
	findOpts := options.Find().SetSort(surveySort(adminapp.SortNewest))
	if limit > 0 {
		findOpts.SetLimit(int64(limit))
	}
	return r.find(ctx, buildSurveyFilter(filter), findOpts)
}

func (r *AdminSurveyRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]admindomain.Survey, error) {
	cursor, err := r.surveys.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	surveys := make([]admindomain.Survey, 0)
	for cursor.Next(ctx) {
		var doc SurveyDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		surveys = append(surveys, mapAdminSurveyDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return surveys, nil
}

// FindByID は ID 文字列を ObjectID 化して単一の回答を復元する。
func (r *AdminSurveyRepository) FindByID(ctx context.Context, id string) (*admindomain.Survey, error) {
	objectID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	var doc SurveyDocument
	if err := r.surveys.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		return nil, mapError(err)
	}
	survey := mapAdminSurveyDocument(doc)
	return &survey, nil
}

// Update は編集可能なフィールドを $set で差し替える。
func (r *AdminSurveyRepository) Update(ctx context.Context, survey *admindomain.Survey) error {
	if survey == nil {
		return errors.New("survey payload is nil")
	}
	objectID, err := parseObjectID(survey.ID)
	if err != nil {
		return err
	}
	res, err := r.surveys.UpdateByID(ctx, objectID, bson.M{"$set": buildSurveyUpdatePayload(survey)})
	if err != nil {
		return mapError(err)
	}
	if res.MatchedCount == 0 {
		return domainerr.ErrNotFound
	}
	return nil
}

// Delete は回答を物理削除する。
func (r *AdminSurveyRepository) Delete(ctx context.Context, id string) error {
	objectID, err := parseObjectID(id)
	if err != nil {
		return err
	}
	res, err := r.surveys.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainerr.ErrNotFound
	}
	return nil
}

// buildSurveyFilter は一覧・エクスポート共通の検索条件を組み立てる。To は排他的上限。
func buildSurveyFilter(filter adminapp.SurveyFilter) bson.M {
	mongoFilter := bson.M{}
	if industry := strings.TrimSpace(filter.Industry); industry != "" {
		mongoFilter["industry"] = industry
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		mongoFilter["status"] = status
	}
	if region := strings.TrimSpace(filter.Region); region != "" {
		mongoFilter["region"] = region
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(keyword), Options: "i"}
		mongoFilter["$or"] = bson.A{
			bson.M{"companyName": pattern},
			bson.M{"contactName": pattern},
			bson.M{"email": pattern},
			bson.M{"referenceCode": pattern},
		}
	}
	if rng := dateRange(filter.From, filter.To); rng != nil {
		mongoFilter["submittedAt"] = rng
	}
	return mongoFilter
}

func dateRange(from, to *time.Time) bson.M {
	if from == nil && to == nil {
		return nil
	}
	rng := bson.M{}
	if from != nil {
		rng["$gte"] = from.UTC()
	}
	if to != nil {
		rng["$lt"] = to.UTC()
	}
	return rng
}

func surveySort(sort string) bson.D {
	switch sort {
	case adminapp.SortOldest:
		return bson.D{{Key: "submittedAt", Value: 1}, {Key: "_id", Value: 1}}
	case adminapp.SortCompany:
		return bson.D{{Key: "companyName", Value: 1}, {Key: "submittedAt", Value: -1}}
	}
	return bson.D{{Key: "submittedAt", Value: -1}, {Key: "_id", Value: -1}}
}

// buildSurveyUpdatePayload は管理画面から変更できるフィールドだけを $set 用に変換する。
func buildSurveyUpdatePayload(survey *admindomain.Survey) bson.M {
	var reviewedAt any
	if survey.ReviewedAt != nil {
		reviewedAt = survey.ReviewedAt.UTC()
	}
	return bson.M{
		"companyName":  survey.Profile.CompanyName,
		"contactName":  survey.Profile.ContactName,
		"email":        survey.Profile.Email,
		"phone":        survey.Profile.Phone,
		"region":       survey.Profile.Region,
		"city":         survey.Profile.City,
		"companySize":  survey.Profile.CompanySize,
		"annualBudget": survey.Profile.AnnualBudget,
		"status":       survey.Status.String(),
		"statusNote":   survey.StatusNote,
		"reviewedBy":   survey.ReviewedBy,
		"reviewedAt":   reviewedAt,
		"adminNotes":   survey.AdminNotes,
		"updatedAt":    survey.UpdatedAt.UTC(),
	}
}
