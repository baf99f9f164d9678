package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/bizsurvey-services/api/internal/domainerr"
	"github.com/sngm3741/bizsurvey-services/api/internal/questionnaire"
)

// IndustryRepository は業種と設問定義を MongoDB で管理するリポジトリ。
// Public/Admin 両方のポートを満たす。
type IndustryRepository struct {
	industries *mongo.Collection
}

// NewIndustryRepository は業種コレクションを束縛したリポジトリを生成する。
func NewIndustryRepository(db *mongo.Database, industryCollection string) *IndustryRepository {
	return &IndustryRepository{industries: db.Collection(industryCollection)}
}

// FindAll は表示順で業種を返す。activeOnly が true なら公開中のみ。
func (r *IndustryRepository) FindAll(ctx context.Context, activeOnly bool) ([]questionnaire.Industry, error) {
	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "slug", Value: 1}})
	cursor, err := r.industries.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	industries := make([]questionnaire.Industry, 0)
	for cursor.Next(ctx) {
		var doc IndustryDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		industries = append(industries, mapIndustryDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	questionnaire.SortIndustries(industries)
	return industries, nil
}

// FindBySlug は slug で 1 件取得する。
func (r *IndustryRepository) FindBySlug(ctx context.Context, slug string) (*questionnaire.Industry, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, domainerr.ErrNotFound
	}
	var doc IndustryDocument
	if err := r.industries.FindOne(ctx, bson.M{"slug": slug}).Decode(&doc); err != nil {
		return nil, mapError(err)
	}
	industry := mapIndustryDocument(doc)
	return &industry, nil
}

// Create は新しい業種を登録する。slug 重複は ErrConflict。
func (r *IndustryRepository) Create(ctx context.Context, industry *questionnaire.Industry) error {
	if industry == nil {
		return errors.New("industry payload is nil")
	}
	doc := mapIndustryToDocument(industry)
	if _, err := r.industries.InsertOne(ctx, doc); err != nil {
		return mapError(err)
	}
	return nil
}

// Update は slug をキーに業種全体を差し替える。
func (r *IndustryRepository) Update(ctx context.Context, industry *questionnaire.Industry) error {
	if industry == nil {
		return errors.New("industry payload is nil")
	}
	doc := mapIndustryToDocument(industry)
	res, err := r.industries.UpdateOne(ctx, bson.M{"slug": doc.Slug}, bson.M{"$set": buildIndustryUpdatePayload(doc)})
	if err != nil {
		return mapError(err)
	}
	if res.MatchedCount == 0 {
		return domainerr.ErrNotFound
	}
	return nil
}

// Upsert はシード用。既存業種の createdAt は保持したまま定義を上書きする。
func (r *IndustryRepository) Upsert(ctx context.Context, industry *questionnaire.Industry, now time.Time) (bool, error) {
	if industry == nil {
		return false, errors.New("industry payload is nil")
	}
	doc := mapIndustryToDocument(industry)
	doc.UpdatedAt = now.UTC()
	update := bson.M{
		"$set":         buildIndustryUpdatePayload(doc),
		"$setOnInsert": bson.M{"createdAt": now.UTC()},
	}
	res, err := r.industries.UpdateOne(ctx, bson.M{"slug": doc.Slug}, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, mapError(err)
	}
	return res.UpsertedCount > 0, nil
}

func buildIndustryUpdatePayload(doc IndustryDocument) bson.M {
	return bson.M{
		"name":        doc.Name,
		"description": doc.Description,
		"icon":        doc.Icon,
		"order":       doc.Order,
		"active":      doc.Active,
		"questions":   doc.Questions,
		"updatedAt":   doc.UpdatedAt.UTC(),
	}
}
