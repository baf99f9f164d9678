package questionnaire

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Industry is one vertical with its own question set.
type Industry struct {
	Slug        string
	Name        string
	Description string
	Icon        string
	Order       int
	Active      bool
	Questions   []Question
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewSlug validates an industry slug.
func NewSlug(value string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return "", fmt.Errorf("industry slug is required")
	}
	if !slugPattern.MatchString(trimmed) {
		return "", fmt.Errorf("invalid industry slug: %s", value)
	}
	return trimmed, nil
}

// Normalize validates the industry and its questions. Keys listed in reserved may not be
// reused by industry questions.
func (i *Industry) Normalize(reserved []Question) error {
	slug, err := NewSlug(i.Slug)
	if err != nil {
		return err
	}
	i.Slug = slug
	i.Name = strings.TrimSpace(i.Name)
	i.Description = strings.TrimSpace(i.Description)
	i.Icon = sanitizeIcon(i.Icon)
	if i.Name == "" {
		return fmt.Errorf("industry %s: name is required", i.Slug)
	}

	taken := make(map[string]struct{}, len(reserved)+len(i.Questions))
	for _, q := range reserved {
		taken[q.Key] = struct{}{}
	}
	for idx := range i.Questions {
		q := &i.Questions[idx]
		if err := q.Normalize(); err != nil {
			return fmt.Errorf("industry %s: %w", i.Slug, err)
		}
		if _, ok := taken[q.Key]; ok {
			return fmt.Errorf("industry %s: duplicate question key %q", i.Slug, q.Key)
		}
		taken[q.Key] = struct{}{}
	}
	SortQuestions(i.Questions)
	return nil
}

// Question looks up a question by key.
func (i Industry) Question(key string) (Question, bool) {
	for _, q := range i.Questions {
		if q.Key == key {
			return q, true
		}
	}
	return Question{}, false
}

// SortIndustries orders industries for display.
func SortIndustries(industries []Industry) {
	sort.SliceStable(industries, func(a, b int) bool {
		if industries[a].Order != industries[b].Order {
			return industries[a].Order < industries[b].Order
		}
		return industries[a].Name < industries[b].Name
	})
}

// MergeQuestions returns the shared questions followed by the industry questions, sorted.
func MergeQuestions(common []Question, industry []Question) []Question {
	merged := make([]Question, 0, len(common)+len(industry))
	merged = append(merged, common...)
	merged = append(merged, industry...)
	SortQuestions(merged)
	return merged
}

// FormStep is one page of the multi-step form.
type FormStep struct {
	Key       Step
	Title     string
	Questions []Question
}

// Form is the rendered questionnaire for one industry.
type Form struct {
	Industry Industry
	Steps    []FormStep
}

// BuildForm groups the merged question set into steps.
func BuildForm(common []Question, industry Industry) Form {
	merged := MergeQuestions(common, industry.Questions)
	steps := make([]FormStep, 0, len(Steps))
	for _, step := range Steps {
		fs := FormStep{Key: step, Title: StepTitle(step, industry.Name)}
		for _, q := range merged {
			if q.Step == step {
				fs.Questions = append(fs.Questions, q)
			}
		}
		steps = append(steps, fs)
	}
	return Form{Industry: industry, Steps: steps}
}

// StepTitle returns the heading shown for a step.
func StepTitle(step Step, industryName string) string {
	switch step {
	case StepBusiness:
		return "Business profile"
	case StepIndustry:
		if industryName == "" {
			return "Procurement"
		}
		return industryName + " procurement"
	case StepContact:
		return "Contact details"
	}
	return string(step)
}

// QuestionsForStep filters questions belonging to step.
func QuestionsForStep(questions []Question, step Step) []Question {
	result := make([]Question, 0, len(questions))
	for _, q := range questions {
		if q.Step == step {
			result = append(result, q)
		}
	}
	return result
}
