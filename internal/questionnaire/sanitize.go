package questionnaire

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

const maxSanitizePasses = 4

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
	iconPolicyOnce sync.Once
	iconPolicy     *bluemonday.Policy
)

// SanitizeText strips markup from a free-text answer.
func SanitizeText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	// Entity-encoded markup becomes real markup once unescaped, so the policy is
	// reapplied until the plain text is stable.
	current := trimmed
	for i := 0; i < maxSanitizePasses; i++ {
		next := strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(current)))
		if next == current {
			return next
		}
		current = next
	}
	return strings.TrimSpace(textPolicy.Sanitize(current))
}

func sanitizeIcon(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if !strings.HasPrefix(trimmed, "<") {
		return SanitizeText(trimmed)
	}
	iconPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements("svg", "g", "path", "circle", "rect", "line", "polyline", "polygon", "title")
		policy.AllowAttrs("xmlns", "viewBox", "width", "height", "fill", "stroke", "stroke-width", "aria-hidden").OnElements("svg")
		for _, el := range []string{"path", "circle", "rect", "line", "polyline", "polygon"} {
			policy.AllowAttrs("d", "cx", "cy", "r", "x", "y", "x1", "y1", "x2", "y2", "points", "fill", "stroke", "stroke-width").OnElements(el)
		}
		iconPolicy = policy
	})
	return strings.TrimSpace(iconPolicy.Sanitize(trimmed))
}
