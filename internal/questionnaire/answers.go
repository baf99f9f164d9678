package questionnaire

import (
	"fmt"
	"math"
	"net/mail"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9 ()\-.]{6,20}$`)

// FieldErrors maps question keys to validation messages.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ValidateAnswers checks answers against questions and returns the normalized values of
// the answered questions. Keys without a matching question are ignored; see UnknownKeys.
func ValidateAnswers(questions []Question, answers map[string]any) (map[string]any, FieldErrors) {
	normalized := make(map[string]any, len(questions))
	errs := FieldErrors{}
	for _, q := range questions {
		raw, ok := answers[q.Key]
		if !ok || isBlank(raw) {
			if q.Required {
				errs[q.Key] = "this field is required"
			}
			continue
		}
		value, err := normalizeAnswer(q, raw)
		if err != nil {
			errs[q.Key] = err.Error()
			continue
		}
		if isBlank(value) {
			if q.Required {
				errs[q.Key] = "this field is required"
			}
			continue
		}
		normalized[q.Key] = value
	}
	if len(errs) == 0 {
		return normalized, nil
	}
	return normalized, errs
}

// UnknownKeys returns answer keys that no question declares, sorted.
func UnknownKeys(questions []Question, answers map[string]any) []string {
	known := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		known[q.Key] = struct{}{}
	}
	var unknown []string
	for key := range answers {
		if _, ok := known[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown
}

func normalizeAnswer(q Question, raw any) (any, error) {
	switch q.Type {
	case TypeText, TypeTextarea:
		return normalizeText(q, raw)
	case TypeNumber:
		v, err := toFloat(raw)
		if err != nil {
			return nil, err
		}
		if err := checkBounds(q, v); err != nil {
			return nil, err
		}
		return v, nil
	case TypeScale:
		v, err := toFloat(raw)
		if err != nil {
			return nil, err
		}
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("must be a whole number")
		}
		lo, hi := q.ScaleRange()
		if int(v) < lo || int(v) > hi {
			return nil, fmt.Errorf("must be between %d and %d", lo, hi)
		}
		return int(v), nil
	case TypeSelect, TypeRadio:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("must be one of the listed options")
		}
		s = strings.TrimSpace(s)
		if _, ok := q.Option(s); !ok {
			return nil, fmt.Errorf("must be one of the listed options")
		}
		return s, nil
	case TypeMultiSelect:
		return normalizeMulti(q, raw)
	case TypeBoolean:
		return toBool(raw)
	}
	return nil, fmt.Errorf("unsupported question type %q", q.Type)
}

func normalizeText(q Question, raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("must be text")
	}
	s = SanitizeText(s)
	limit := MaxTextRunes
	if q.Type == TypeTextarea {
		limit = MaxTextareaRunes
	}
	if utf8.RuneCountInString(s) > limit {
		return nil, fmt.Errorf("must be at most %d characters", limit)
	}
	if s == "" {
		return s, nil
	}
	switch q.Format {
	case FormatEmail:
		if len(s) > 254 {
			return nil, fmt.Errorf("email must be at most 254 characters")
		}
		addr, err := mail.ParseAddress(s)
		if err != nil || addr.Address != s {
			return nil, fmt.Errorf("must be a valid email address")
		}
		s = strings.ToLower(s)
	case FormatPhone:
		if !phonePattern.MatchString(s) {
			return nil, fmt.Errorf("must be a valid phone number")
		}
	case FormatURL:
		u, err := url.ParseRequestURI(s)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return nil, fmt.Errorf("must be a valid http(s) URL")
		}
	}
	return s, nil
}

func normalizeMulti(q Question, raw any) (any, error) {
	var values []string
	switch v := raw.(type) {
	case []string:
		values = v
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("must be a list of options")
			}
			values = append(values, s)
		}
	case string:
		values = []string{v}
	default:
		return nil, fmt.Errorf("must be a list of options")
	}
	result := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := q.Option(value); !ok {
			return nil, fmt.Errorf("unknown option %q", value)
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	if q.Max != nil && float64(len(result)) > *q.Max {
		return nil, fmt.Errorf("select at most %s options", FormatNumber(*q.Max))
	}
	if len(result) > 0 && q.Min != nil && float64(len(result)) < *q.Min {
		return nil, fmt.Errorf("select at least %s options", FormatNumber(*q.Min))
	}
	return result, nil
}

func checkBounds(q Question, v float64) error {
	if q.Min != nil && v < *q.Min {
		return fmt.Errorf("must be at least %s", FormatNumber(*q.Min))
	}
	if q.Max != nil && v > *q.Max {
		return fmt.Errorf("must be at most %s", FormatNumber(*q.Max))
	}
	return nil
}

func toFloat(raw any) (float64, error) {
	v, err := parseFloat(raw)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("must be a number")
	}
	return v, nil
}

func parseFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		parsed, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v), ",", ""), 64)
		if err != nil {
			return 0, fmt.Errorf("must be a number")
		}
		return parsed, nil
	}
	return 0, fmt.Errorf("must be a number")
}

func toBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1":
			return true, nil
		case "false", "no", "0":
			return false, nil
		}
	}
	return false, fmt.Errorf("must be yes or no")
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}

// DisplayValue renders a stored answer for people: option labels instead of values,
// numbers without trailing zeros, lists joined with commas.
func DisplayValue(q Question, v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		if opt, ok := q.Option(t); ok {
			return opt.Label
		}
		return t
	case bool:
		key := strconv.FormatBool(t)
		if opt, ok := q.Option(key); ok {
			return opt.Label
		}
		if t {
			return "Yes"
		}
		return "No"
	case float64:
		return FormatNumber(t)
	case float32:
		return FormatNumber(float64(t))
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.Itoa(int(t))
	case int64:
		return strconv.FormatInt(t, 10)
	case []string:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, DisplayValue(q, item))
		}
		return strings.Join(parts, ", ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, DisplayValue(q, item))
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(v)
}

// ValueKey renders a stored scalar as the key used for analytics buckets.
func ValueKey(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return FormatNumber(t)
	case float32:
		return FormatNumber(float64(t))
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.Itoa(int(t))
	case int64:
		return strconv.FormatInt(t, 10)
	}
	return fmt.Sprint(v)
}
