package application

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	admindomain "github.com/sngm3741/bizsurvey-services/api/internal/admin/domain"
	"github.com/sngm3741/bizsurvey-services/api/internal/questionnaire"
)

const (
	otherBucketKey = "other"
	maxTextSamples = 5
)

// AnalyticsConfig defines dependencies of the analytics service.
type AnalyticsConfig struct {
	Analytics  AnalyticsRepository
	Industries IndustryRepository
	Common     []questionnaire.Question
	Cache      AnalyticsCache
	Now        func() time.Time
}

type analyticsService struct {
	analytics  AnalyticsRepository
	industries IndustryRepository
	common     []questionnaire.Question
	cache      AnalyticsCache
	now        func() time.Time
}

func NewAnalyticsService(cfg AnalyticsConfig) AnalyticsService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &analyticsService{
		analytics:  cfg.Analytics,
		industries: cfg.Industries,
		common:     cfg.Common,
		cache:      cfg.Cache,
		now:        now,
	}
}

func (s *analyticsService) Overview(ctx context.Context, filter AnalyticsFilter) (*admindomain.Overview, error) {
	filter, err := normalizeAnalyticsFilter(filter)
	if err != nil {
		return nil, err
	}
	key := "overview:" + filterKey(filter)
	var cached admindomain.Overview
	gen, hit := s.cacheGet(ctx, key, &cached)
	if hit {
		return &cached, nil
	}

	overview, err := s.analytics.Overview(ctx, filter, s.now().UTC().Add(-7*24*time.Hour))
	if err != nil {
		return nil, err
	}

	industries, err := s.industries.FindAll(ctx, false)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(industries))
	for _, ind := range industries {
		names[ind.Slug] = ind.Name
	}

	overview.ByStatus = zeroFillStatuses(overview.ByStatus)
	for i := range overview.ByIndustry {
		overview.ByIndustry[i].Label = firstNonEmpty(names[overview.ByIndustry[i].Key], overview.ByIndustry[i].Key)
	}
	s.labelFromCommon(overview.ByRegion, questionnaire.KeyRegion)
	s.labelFromCommon(overview.ByCompanySize, questionnaire.KeyCompanySize)
	for i := range overview.ByMonth {
		overview.ByMonth[i].Label = overview.ByMonth[i].Key
	}
	overview.VerificationRate = verificationRate(overview.ByStatus)

	s.cacheSet(ctx, gen, key, overview)
	return overview, nil
}

func (s *analyticsService) IndustryBreakdown(ctx context.Context, slug string, filter AnalyticsFilter) (*admindomain.IndustryBreakdown, error) {
	normalizedSlug, err := questionnaire.NewSlug(slug)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	filter.Industry = normalizedSlug
	filter, err = normalizeAnalyticsFilter(filter)
	if err != nil {
		return nil, err
	}
	industry, err := s.industries.FindBySlug(ctx, normalizedSlug)
	if err != nil {
		return nil, err
	}

	key := "industry:" + filterKey(filter)
	var cached admindomain.IndustryBreakdown
	gen, hit := s.cacheGet(ctx, key, &cached)
	if hit {
		return &cached, nil
	}

	respondents, err := s.analytics.CountRespondents(ctx, filter)
	if err != nil {
		return nil, err
	}
	result := &admindomain.IndustryBreakdown{
		Industry:     industry.Slug,
		IndustryName: industry.Name,
		Respondents:  respondents,
	}
	for _, q := range questionnaire.MergeQuestions(s.common, industry.Questions) {
		raw, err := s.analytics.QuestionStats(ctx, filter, q)
		if err != nil {
			return nil, fmt.Errorf("question %s: %w", q.Key, err)
		}
		result.Questions = append(result.Questions, BuildQuestionBreakdown(q, *raw))
	}

	s.cacheSet(ctx, gen, key, result)
	return result, nil
}

// BuildQuestionBreakdown labels raw aggregates of one question. Choice and scale buckets are
// zero-filled in configured order; values outside the configuration land in "other".
func BuildQuestionBreakdown(q questionnaire.Question, raw RawQuestionStats) admindomain.QuestionBreakdown {
	out := admindomain.QuestionBreakdown{
		Key:       q.Key,
		Label:     q.Label,
		Type:      q.Type,
		Step:      q.Step,
		Responses: raw.Responses,
	}

	switch {
	case q.Type.IsChoice():
		counts, other := tally(raw.Values, func(key string) bool {
			_, ok := q.Option(key)
			return ok
		})
		for _, opt := range q.Options {
			out.Buckets = append(out.Buckets, bucket(opt.Value, opt.Label, counts[opt.Value], raw.Responses))
		}
		if other > 0 {
			out.Buckets = append(out.Buckets, bucket(otherBucketKey, "Other", other, raw.Responses))
		}
	case q.Type == questionnaire.TypeScale:
		lo, hi := q.ScaleRange()
		counts, other := tally(raw.Values, func(key string) bool {
			for v := lo; v <= hi; v++ {
				if key == fmt.Sprint(v) {
					return true
				}
			}
			return false
		})
		for v := lo; v <= hi; v++ {
			key := fmt.Sprint(v)
			out.Buckets = append(out.Buckets, bucket(key, key, counts[key], raw.Responses))
		}
		if other > 0 {
			out.Buckets = append(out.Buckets, bucket(otherBucketKey, "Out of range", other, raw.Responses))
		}
		out.Average = roundPtr(raw.Average, 2)
	case q.Type == questionnaire.TypeNumber:
		out.Average = roundPtr(raw.Average, 2)
		out.Min = raw.Min
		out.Max = raw.Max
		if len(q.Buckets) >= 2 {
			counts, other := tally(raw.Histogram, func(key string) bool { return key != otherBucketKey })
			for i := 0; i < len(q.Buckets)-1; i++ {
				lower := questionnaire.FormatNumber(q.Buckets[i])
				key := lower + "-" + questionnaire.FormatNumber(q.Buckets[i+1])
				out.Buckets = append(out.Buckets, bucket(key, key, counts[lower], raw.Responses))
			}
			if other > 0 {
				out.Buckets = append(out.Buckets, bucket(otherBucketKey, "Out of range", other, raw.Responses))
			}
		}
	default:
		samples := raw.Samples
		if len(samples) > maxTextSamples {
			samples = samples[:maxTextSamples]
		}
		out.Samples = append([]string(nil), samples...)
	}
	return out
}

func tally(values []RawValueCount, known func(string) bool) (map[string]int64, int64) {
	counts := make(map[string]int64, len(values))
	var other int64
	for _, v := range values {
		key := questionnaire.ValueKey(v.Value)
		if known(key) {
			counts[key] += v.Count
		} else {
			other += v.Count
		}
	}
	return counts, other
}

func bucket(key, label string, count, responses int64) admindomain.Bucket {
	b := admindomain.Bucket{Key: key, Label: label, Count: count}
	if responses > 0 {
		b.Percent = round(float64(count)*100/float64(responses), 1)
	}
	return b
}

func (s *analyticsService) labelFromCommon(counts []admindomain.Count, key string) {
	var question questionnaire.Question
	for _, q := range s.common {
		if q.Key == key {
			question = q
		}
	}
	for i := range counts {
		if counts[i].Key == "" {
			counts[i].Label = "Not specified"
			continue
		}
		counts[i].Label = questionnaire.DisplayValue(question, counts[i].Key)
	}
}

func zeroFillStatuses(counts []admindomain.Count) []admindomain.Count {
	byKey := make(map[string]int64, len(counts))
	for _, c := range counts {
		byKey[c.Key] += c.Count
	}
	out := make([]admindomain.Count, 0, len(admindomain.Statuses))
	for _, status := range admindomain.Statuses {
		key := status.String()
		out = append(out, admindomain.Count{Key: key, Label: strings.ToUpper(key[:1]) + key[1:], Count: byKey[key]})
	}
	return out
}

func verificationRate(byStatus []admindomain.Count) *float64 {
	var verified, rejected int64
	for _, c := range byStatus {
		switch admindomain.Status(c.Key) {
		case admindomain.StatusVerified:
			verified = c.Count
		case admindomain.StatusRejected:
			rejected = c.Count
		}
	}
	if verified+rejected == 0 {
		return nil
	}
	rate := round(float64(verified)*100/float64(verified+rejected), 1)
	return &rate
}

func normalizeAnalyticsFilter(filter AnalyticsFilter) (AnalyticsFilter, error) {
	sf, err := normalizeSurveyFilter(SurveyFilter{
		Industry: filter.Industry,
		Status:   filter.Status,
		From:     filter.From,
		To:       filter.To,
	})
	if err != nil {
		return filter, err
	}
	return AnalyticsFilter{Industry: sf.Industry, Status: sf.Status, From: sf.From, To: sf.To}, nil
}

func filterKey(filter AnalyticsFilter) string {
	day := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.UTC().Format(time.RFC3339)
	}
	return strings.Join([]string{filter.Industry, filter.Status, day(filter.From), day(filter.To)}, "|")
}

// cacheGet returns the generation to write under, or -1 when the cache is unusable.
func (s *analyticsService) cacheGet(ctx context.Context, key string, dst any) (int64, bool) {
	if s.cache == nil {
		return -1, false
	}
	hit, gen, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		return -1, false
	}
	return gen, hit
}

func (s *analyticsService) cacheSet(ctx context.Context, gen int64, key string, value any) {
	if s.cache == nil || gen < 0 {
		return
	}
	_ = s.cache.Set(ctx, gen, key, value)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func roundPtr(v *float64, places int) *float64 {
	if v == nil {
		return nil
	}
	r := round(*v, places)
	return &r
}
