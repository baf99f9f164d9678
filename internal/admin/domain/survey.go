package domain

import (
	"sort"
	"time"

	"github.com/sngm3741/bizsurvey-services/api/internal/questionnaire"
)

// Survey represents a submission as seen by staff.
type Survey struct {
	ID            string
	ReferenceCode string
	Industry      string
	IndustryName  string
	Profile       questionnaire.Profile
	Answers       map[string]any
	Consent       bool
	Status        Status
	StatusNote    string
	ReviewedBy    string
	ReviewedAt    *time.Time
	AdminNotes    string
	ClientIP      string
	UserAgent     string
	SubmittedAt   time.Time
	UpdatedAt     time.Time
}

// AnswerView is one answer rendered against its question.
type AnswerView struct {
	Key      string
	Label    string
	Type     questionnaire.QuestionType
	Step     questionnaire.Step
	Value    any
	Display  string
	Answered bool
}

// SurveyDetail bundles a survey with its rendered answers.
type SurveyDetail struct {
	Survey  Survey
	Answers []AnswerView
}

// RenderAnswers pairs every question with the stored value. Profile questions read from the
// profile; stored keys without a question are appended at the end.
func RenderAnswers(questions []questionnaire.Question, survey Survey) []AnswerView {
	views := make([]AnswerView, 0, len(questions)+len(survey.Answers))
	used := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		used[q.Key] = struct{}{}
		var value any
		if questionnaire.IsProfileKey(q.Key) {
			if v := survey.Profile.Value(q.Key); v != "" {
				value = v
			}
		} else if v, ok := survey.Answers[q.Key]; ok {
			value = v
		}
		views = append(views, AnswerView{
			Key:      q.Key,
			Label:    q.Label,
			Type:     q.Type,
			Step:     q.Step,
			Value:    value,
			Display:  questionnaire.DisplayValue(q, value),
			Answered: value != nil,
		})
	}
	var extra []string
	for key := range survey.Answers {
		if _, ok := used[key]; !ok {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		value := survey.Answers[key]
		views = append(views, AnswerView{
			Key:      key,
			Label:    key,
			Value:    value,
			Display:  questionnaire.DisplayValue(questionnaire.Question{Key: key}, value),
			Answered: value != nil,
		})
	}
	return views
}
