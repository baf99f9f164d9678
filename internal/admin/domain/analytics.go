package domain

import "github.com/sngm3741/bizsurvey-services/api/internal/questionnaire"

// Count is one group of an aggregate.
type Count struct {
	Key   string
	Label string
	Count int64
}

// Overview summarises submissions across industries.
type Overview struct {
	Total            int64
	ByStatus         []Count
	ByIndustry       []Count
	ByRegion         []Count
	ByCompanySize    []Count
	ByMonth          []Count
	VerificationRate *float64
	Last7Days        int64
}

// Bucket is one slot of a question breakdown. Percent is relative to respondents.
type Bucket struct {
	Key     string
	Label   string
	Count   int64
	Percent float64
}

// QuestionBreakdown holds the answer distribution of one question.
type QuestionBreakdown struct {
	Key       string
	Label     string
	Type      questionnaire.QuestionType
	Step      questionnaire.Step
	Responses int64
	Buckets   []Bucket
	Average   *float64
	Min       *float64
	Max       *float64
	Samples   []string
}

// IndustryBreakdown holds per-question distributions for one industry.
type IndustryBreakdown struct {
	Industry     string
	IndustryName string
	Respondents  int64
	Questions    []QuestionBreakdown
}
