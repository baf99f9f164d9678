package questionnaire

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// QuestionType identifies how a question is rendered and how its answers are validated.
type QuestionType string

const (
	TypeText        QuestionType = "text"
	TypeTextarea    QuestionType = "textarea"
	TypeNumber      QuestionType = "number"
	TypeSelect      QuestionType = "select"
	TypeRadio       QuestionType = "radio"
	TypeMultiSelect QuestionType = "multiselect"
	TypeBoolean     QuestionType = "boolean"
	TypeScale       QuestionType = "scale"
)

var questionTypes = []QuestionType{
	TypeText, TypeTextarea, TypeNumber, TypeSelect, TypeRadio, TypeMultiSelect, TypeBoolean, TypeScale,
}

// ParseQuestionType validates a raw type name.
func ParseQuestionType(value string) (QuestionType, error) {
	trimmed := QuestionType(strings.ToLower(strings.TrimSpace(value)))
	for _, t := range questionTypes {
		if t == trimmed {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown question type: %q", value)
}

// IsChoice reports whether answers are picked from a fixed option list.
func (t QuestionType) IsChoice() bool {
	switch t {
	case TypeSelect, TypeRadio, TypeMultiSelect, TypeBoolean:
		return true
	}
	return false
}

// IsText reports whether answers are free text.
func (t QuestionType) IsText() bool {
	return t == TypeText || t == TypeTextarea
}

// Step groups questions into the pages of the multi-step form.
type Step string

const (
	StepBusiness Step = "business"
	StepIndustry Step = "industry"
	StepContact  Step = "contact"
)

// Steps lists form steps in display order.
var Steps = []Step{StepBusiness, StepIndustry, StepContact}

// ParseStep validates a raw step name.
func ParseStep(value string) (Step, error) {
	trimmed := Step(strings.ToLower(strings.TrimSpace(value)))
	for _, s := range Steps {
		if s == trimmed {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown form step: %q", value)
}

func (s Step) rank() int {
	for i, candidate := range Steps {
		if candidate == s {
			return i
		}
	}
	return len(Steps)
}

// Text formats accepted by text questions.
const (
	FormatEmail = "email"
	FormatPhone = "phone"
	FormatURL   = "url"
)

const (
	MaxTextRunes     = 500
	MaxTextareaRunes = 4000
	DefaultScaleMin  = 1
	DefaultScaleMax  = 5
)

var questionKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Option is one selectable answer of a choice question.
type Option struct {
	Value string
	Label string
}

// Question is a single configurable form field.
type Question struct {
	Key         string
	Label       string
	Help        string
	Type        QuestionType
	Format      string
	Required    bool
	Options     []Option
	Min         *float64
	Max         *float64
	Buckets     []float64
	Placeholder string
	Order       int
	Step        Step
}

// Normalize trims the question, fills defaults and validates its configuration.
func (q *Question) Normalize() error {
	q.Key = strings.TrimSpace(q.Key)
	q.Label = strings.TrimSpace(q.Label)
	q.Help = strings.TrimSpace(q.Help)
	q.Placeholder = strings.TrimSpace(q.Placeholder)
	q.Format = strings.ToLower(strings.TrimSpace(q.Format))

	if !questionKeyPattern.MatchString(q.Key) {
		return fmt.Errorf("question key %q must match %s", q.Key, questionKeyPattern.String())
	}
	if q.Label == "" {
		return fmt.Errorf("question %s: label is required", q.Key)
	}
	qt, err := ParseQuestionType(string(q.Type))
	if err != nil {
		return fmt.Errorf("question %s: %w", q.Key, err)
	}
	q.Type = qt

	if q.Step == "" {
		q.Step = StepIndustry
	}
	step, err := ParseStep(string(q.Step))
	if err != nil {
		return fmt.Errorf("question %s: %w", q.Key, err)
	}
	q.Step = step

	switch q.Format {
	case "", FormatEmail, FormatPhone, FormatURL:
	default:
		return fmt.Errorf("question %s: unknown format %q", q.Key, q.Format)
	}
	if q.Format != "" && !q.Type.IsText() {
		return fmt.Errorf("question %s: format applies to text questions only", q.Key)
	}

	if q.Type == TypeBoolean && len(q.Options) == 0 {
		q.Options = []Option{{Value: "true", Label: "Yes"}, {Value: "false", Label: "No"}}
	}
	if q.Type.IsChoice() {
		if err := q.normalizeOptions(); err != nil {
			return err
		}
	} else if len(q.Options) > 0 {
		return fmt.Errorf("question %s: options are only allowed on choice questions", q.Key)
	}

	if q.Type == TypeScale {
		if q.Min == nil {
			q.Min = floatPtr(DefaultScaleMin)
		}
		if q.Max == nil {
			q.Max = floatPtr(DefaultScaleMax)
		}
		if *q.Min != float64(int(*q.Min)) || *q.Max != float64(int(*q.Max)) {
			return fmt.Errorf("question %s: scale bounds must be integers", q.Key)
		}
	}
	if q.Min != nil && q.Max != nil && *q.Min > *q.Max {
		return fmt.Errorf("question %s: min must be <= max", q.Key)
	}

	if len(q.Buckets) > 0 {
		if q.Type != TypeNumber {
			return fmt.Errorf("question %s: buckets are only allowed on number questions", q.Key)
		}
		if len(q.Buckets) < 2 {
			return fmt.Errorf("question %s: buckets need at least two edges", q.Key)
		}
		for i := 1; i < len(q.Buckets); i++ {
			if q.Buckets[i] <= q.Buckets[i-1] {
				return fmt.Errorf("question %s: bucket edges must be strictly increasing", q.Key)
			}
		}
	}
	return nil
}

func (q *Question) normalizeOptions() error {
	if len(q.Options) == 0 {
		return fmt.Errorf("question %s: choice questions need at least one option", q.Key)
	}
	seen := make(map[string]struct{}, len(q.Options))
	for i := range q.Options {
		opt := &q.Options[i]
		opt.Value = strings.TrimSpace(opt.Value)
		opt.Label = strings.TrimSpace(opt.Label)
		if opt.Value == "" {
			return fmt.Errorf("question %s: option value is required", q.Key)
		}
		if opt.Label == "" {
			opt.Label = opt.Value
		}
		if _, ok := seen[opt.Value]; ok {
			return fmt.Errorf("question %s: duplicate option %q", q.Key, opt.Value)
		}
		seen[opt.Value] = struct{}{}
	}
	return nil
}

// Option looks up an option by value.
func (q Question) Option(value string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.Value == value {
			return opt, true
		}
	}
	return Option{}, false
}

// ScaleRange returns the inclusive integer bounds of a scale question.
func (q Question) ScaleRange() (int, int) {
	lo, hi := DefaultScaleMin, DefaultScaleMax
	if q.Min != nil {
		lo = int(*q.Min)
	}
	if q.Max != nil {
		hi = int(*q.Max)
	}
	return lo, hi
}

// SortQuestions orders questions by step, then configured order, then key.
func SortQuestions(questions []Question) {
	sort.SliceStable(questions, func(i, j int) bool {
		a, b := questions[i], questions[j]
		if a.Step.rank() != b.Step.rank() {
			return a.Step.rank() < b.Step.rank()
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.Key < b.Key
	})
}

// FormatNumber renders a float without trailing zeros.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func floatPtr(v float64) *float64 {
	return &v
}
