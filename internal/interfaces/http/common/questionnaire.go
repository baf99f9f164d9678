package common

import (
	"time"

	"github.com/sngm3741/bizsurvey-services/api/internal/questionnaire"
)

// OptionPayload is the JSON form of a choice option.
type OptionPayload struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// QuestionPayload is the JSON form of a question, used for rendering and for admin edits.
type QuestionPayload struct {
	Key         string          `json:"key"`
	Label       string          `json:"label"`
	Help        string          `json:"help,omitempty"`
	Type        string          `json:"type"`
	Format      string          `json:"format,omitempty"`
	Required    bool            `json:"required"`
	Options     []OptionPayload `json:"options,omitempty"`
	Min         *float64        `json:"min,omitempty"`
	Max         *float64        `json:"max,omitempty"`
	Buckets     []float64       `json:"buckets,omitempty"`
	Placeholder string          `json:"placeholder,omitempty"`
	Order       int             `json:"order"`
	Step        string          `json:"step,omitempty"`
}

// IndustrySummary is an industry without its questions.
type IndustrySummary struct {
	Slug          string    `json:"slug"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Icon          string    `json:"icon,omitempty"`
	Order         int       `json:"order"`
	Active        bool      `json:"active"`
	QuestionCount int       `json:"questionCount"`
	UpdatedAt     time.Time `json:"updatedAt,omitempty"`
}

// IndustryPayload is an industry with its own ordered questions.
type IndustryPayload struct {
	IndustrySummary
	Questions []QuestionPayload `json:"questions"`
}

// StepPayload is one page of the rendered form.
type StepPayload struct {
	Key       string            `json:"key"`
	Title     string            `json:"title"`
	Questions []QuestionPayload `json:"questions"`
}

// FormPayload is the rendered multi-step form of an industry.
type FormPayload struct {
	Industry IndustrySummary `json:"industry"`
	Steps    []StepPayload   `json:"steps"`
}

func NewQuestionPayload(q questionnaire.Question) QuestionPayload {
	payload := QuestionPayload{
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
		payload.Options = append(payload.Options, OptionPayload{Value: opt.Value, Label: opt.Label})
	}
	return payload
}

func NewQuestionPayloads(questions []questionnaire.Question) []QuestionPayload {
	out := make([]QuestionPayload, 0, len(questions))
	for _, q := range questions {
		out = append(out, NewQuestionPayload(q))
	}
	return out
}

// Question converts the payload back to a domain question. Validation happens in Normalize.
func (p QuestionPayload) Question() questionnaire.Question {
	q := questionnaire.Question{
		Key:         p.Key,
		Label:       p.Label,
		Help:        p.Help,
		Type:        questionnaire.QuestionType(p.Type),
		Format:      p.Format,
		Required:    p.Required,
		Min:         p.Min,
		Max:         p.Max,
		Buckets:     p.Buckets,
		Placeholder: p.Placeholder,
		Order:       p.Order,
		Step:        questionnaire.Step(p.Step),
	}
	for _, opt := range p.Options {
		q.Options = append(q.Options, questionnaire.Option{Value: opt.Value, Label: opt.Label})
	}
	return q
}

func NewIndustrySummary(industry questionnaire.Industry) IndustrySummary {
	return IndustrySummary{
		Slug:          industry.Slug,
		Name:          industry.Name,
		Description:   industry.Description,
		Icon:          industry.Icon,
		Order:         industry.Order,
		Active:        industry.Active,
		QuestionCount: len(industry.Questions),
		UpdatedAt:     industry.UpdatedAt,
	}
}

func NewIndustryPayload(industry questionnaire.Industry) IndustryPayload {
	return IndustryPayload{
		IndustrySummary: NewIndustrySummary(industry),
		Questions:       NewQuestionPayloads(industry.Questions),
	}
}

func NewFormPayload(form questionnaire.Form) FormPayload {
	payload := FormPayload{
		Industry: NewIndustrySummary(form.Industry),
		Steps:    make([]StepPayload, 0, len(form.Steps)),
	}
	for _, step := range form.Steps {
		payload.Steps = append(payload.Steps, StepPayload{
			Key:       string(step.Key),
			Title:     step.Title,
			Questions: NewQuestionPayloads(step.Questions),
		})
	}
	return payload
}
