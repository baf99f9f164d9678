package mongo

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	adminapp "github.com/sngm3741/bizsurvey-services/api/internal/admin/application"
	admindomain "github.com/sngm3741/bizsurvey-services/api/internal/admin/domain"
	"github.com/sngm3741/bizsurvey-services/api/internal/questionnaire"
)

const (
	otherBucket  = "other"
	sampleLimit  = 5
	monthPattern = "%Y-%m"
)

// AnalyticsRepository は回答コレクションに対する集計パイプラインを実行する。
type AnalyticsRepository struct {
	surveys  *mongo.Collection
	timezone string
}

// NewAnalyticsRepository は集計対象コレクションと月次集計に使うタイムゾーンを束縛する。
func NewAnalyticsRepository(db *mongo.Database, surveyCollection, timezone string) *AnalyticsRepository {
	if strings.TrimSpace(timezone) == "" {
		timezone = "UTC"
	}
	return &AnalyticsRepository{surveys: db.Collection(surveyCollection), timezone: timezone}
}

type countRow struct {
	N int64 `bson:"n"`
}

type groupRow struct {
	ID    any   `bson:"_id"`
	Count int64 `bson:"count"`
}

type statsRow struct {
	Avg *float64 `bson:"avg"`
	Min *float64 `bson:"min"`
	Max *float64 `bson:"max"`
}

type sampleRow struct {
	Value any `bson:"v"`
}

type overviewFacets struct {
	Total         []countRow `bson:"total"`
	ByStatus      []groupRow `bson:"byStatus"`
	ByIndustry    []groupRow `bson:"byIndustry"`
	ByRegion      []groupRow `bson:"byRegion"`
	ByCompanySize []groupRow `bson:"byCompanySize"`
	ByMonth       []groupRow `bson:"byMonth"`
	Last7Days     []countRow `bson:"last7Days"`
}

type questionFacets struct {
	Responses []countRow  `bson:"responses"`
	Values    []groupRow  `bson:"values"`
	Histogram []groupRow  `bson:"histogram"`
	Stats     []statsRow  `bson:"stats"`
	Samples   []sampleRow `bson:"samples"`
}

// Overview はステータス・業種・地域・規模・月別の件数を 1 回の $facet で集計する。
func (r *AnalyticsRepository) Overview(ctx context.Context, filter adminapp.AnalyticsFilter, since time.Time) (*admindomain.Overview, error) {
	var facets overviewFacets
	if err := r.aggregateOne(ctx, buildOverviewPipeline(filter, since, r.timezone), &facets); err != nil {
		return nil, err
	}
	return &admindomain.Overview{
		Total:         firstCount(facets.Total),
		ByStatus:      toCounts(facets.ByStatus),
		ByIndustry:    toCounts(facets.ByIndustry),
		ByRegion:      toCounts(facets.ByRegion),
		ByCompanySize: toCounts(facets.ByCompanySize),
		ByMonth:       toCounts(facets.ByMonth),
		Last7Days:     firstCount(facets.Last7Days),
	}, nil
}

// CountRespondents は条件に一致する回答数を返す。
func (r *AnalyticsRepository) CountRespondents(ctx context.Context, filter adminapp.AnalyticsFilter) (int64, error) {
	return r.surveys.CountDocuments(ctx, buildAnalyticsMatch(filter))
}

// QuestionStats は設問 1 件分の値分布・統計・サンプルを集計する。
func (r *AnalyticsRepository) QuestionStats(ctx context.Context, filter adminapp.AnalyticsFilter, q questionnaire.Question) (*adminapp.RawQuestionStats, error) {
	var facets questionFacets
	if err := r.aggregateOne(ctx, buildQuestionPipeline(filter, q), &facets); err != nil {
		return nil, err
	}
	stats := &adminapp.RawQuestionStats{
		Responses: firstCount(facets.Responses),
		Values:    toRawCounts(facets.Values),
		Histogram: toRawCounts(facets.Histogram),
	}
	if len(facets.Stats) > 0 {
		stats.Average = facets.Stats[0].Avg
		stats.Min = facets.Stats[0].Min
		stats.Max = facets.Stats[0].Max
	}
	for _, s := range facets.Samples {
		if text := questionnaire.DisplayValue(q, normalizeValue(s.Value)); text != "" {
			stats.Samples = append(stats.Samples, text)
		}
	}
	return stats, nil
}

func (r *AnalyticsRepository) aggregateOne(ctx context.Context, pipeline mongo.Pipeline, dst any) error {
	cursor, err := r.surveys.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	if cursor.Next(ctx) {
		if err := cursor.Decode(dst); err != nil {
			return err
		}
	}
	return cursor.Err()
}

// buildAnalyticsMatch は集計対象の絞り込み条件を組み立てる。
func buildAnalyticsMatch(filter adminapp.AnalyticsFilter) bson.M {
	match := bson.M{}
	if industry := strings.TrimSpace(filter.Industry); industry != "" {
		match["industry"] = industry
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		match["status"] = status
	}
	if rng := dateRange(filter.From, filter.To); rng != nil {
		match["submittedAt"] = rng
	}
	return match
}

func groupStage(expr any) bson.D {
	return bson.D{{Key: "$group", Value: bson.M{"_id": expr, "count": bson.M{"$sum": 1}}}}
}

func countStage() bson.D {
	return bson.D{{Key: "$count", Value: "n"}}
}

func countSort() bson.D {
	return bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}}
}

// buildOverviewPipeline は概要ダッシュボード用の $facet パイプラインを返す。
func buildOverviewPipeline(filter adminapp.AnalyticsFilter, since time.Time, timezone string) mongo.Pipeline {
	missingAsEmpty := func(field string) bson.M {
		return bson.M{"$ifNull": bson.A{"$" + field, ""}}
	}
	month := bson.M{"$dateToString": bson.M{
		"format":   monthPattern,
		"date":     "$submittedAt",
		"timezone": timezone,
	}}
	return mongo.Pipeline{
		{{Key: "$match", Value: buildAnalyticsMatch(filter)}},
		{{Key: "$facet", Value: bson.M{
			"total":         bson.A{countStage()},
			"byStatus":      bson.A{groupStage("$status"), countSort()},
			"byIndustry":    bson.A{groupStage("$industry"), countSort()},
			"byRegion":      bson.A{groupStage(missingAsEmpty("region")), countSort()},
			"byCompanySize": bson.A{groupStage(missingAsEmpty("companySize")), countSort()},
			"byMonth": bson.A{
				groupStage(month),
				bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
			},
			"last7Days": bson.A{
				bson.D{{Key: "$match", Value: bson.M{"submittedAt": bson.M{"$gte": since.UTC()}}}},
				countStage(),
			},
		}}},
	}
}

// buildQuestionPipeline は設問タイプに応じた $facet パイプラインを返す。
func buildQuestionPipeline(filter adminapp.AnalyticsFilter, q questionnaire.Question) mongo.Pipeline {
	path := answerPath(q.Key)
	field := "$" + path

	match := buildAnalyticsMatch(filter)
	match[path] = bson.M{"$exists": true, "$nin": bson.A{nil, "", bson.A{}}}

	facets := bson.M{"responses": bson.A{countStage()}}
	stats := bson.A{bson.D{{Key: "$group", Value: bson.M{
		"_id": nil,
		"avg": bson.M{"$avg": field},
		"min": bson.M{"$min": field},
		"max": bson.M{"$max": field},
	}}}}

	switch {
	case q.Type == questionnaire.TypeMultiSelect:
		facets["values"] = bson.A{bson.D{{Key: "$unwind", Value: field}}, groupStage(field), countSort()}
	case q.Type.IsChoice():
		facets["values"] = bson.A{groupStage(field), countSort()}
	case q.Type == questionnaire.TypeScale:
		facets["values"] = bson.A{groupStage(field), countSort()}
		facets["stats"] = stats
	case q.Type == questionnaire.TypeNumber:
		facets["stats"] = stats
		if len(q.Buckets) >= 2 {
			boundaries := make(bson.A, 0, len(q.Buckets))
			for _, b := range q.Buckets {
				boundaries = append(boundaries, b)
			}
			facets["histogram"] = bson.A{bson.D{{Key: "$bucket", Value: bson.M{
				"groupBy":    field,
				"boundaries": boundaries,
				"default":    otherBucket,
				"output":     bson.M{"count": bson.M{"$sum": 1}},
			}}}}
		}
	default:
		facets["samples"] = bson.A{
			bson.D{{Key: "$sort", Value: bson.D{{Key: "submittedAt", Value: -1}}}},
			bson.D{{Key: "$limit", Value: sampleLimit}},
			bson.D{{Key: "$project", Value: bson.M{"_id": 0, "v": field}}},
		}
	}

	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$facet", Value: facets}},
	}
}

func firstCount(rows []countRow) int64 {
	if len(rows) == 0 {
		return 0
	}
	return rows[0].N
}

func toCounts(rows []groupRow) []admindomain.Count {
	out := make([]admindomain.Count, 0, len(rows))
	for _, row := range rows {
		out = append(out, admindomain.Count{Key: questionnaire.ValueKey(normalizeValue(row.ID)), Count: row.Count})
	}
	return out
}

func toRawCounts(rows []groupRow) []adminapp.RawValueCount {
	if len(rows) == 0 {
		return nil
	}
	out := make([]adminapp.RawValueCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, adminapp.RawValueCount{Value: normalizeValue(row.ID), Count: row.Count})
	}
	return out
}
