package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sngm3741/bizsurvey-services/api/internal/questionnaire"
)

// StatusPending is the status of every new submission.
const StatusPending = "pending"

const referencePrefix = "SRV-"

// Submission is a survey posted through the public form.
type Submission struct {
	ID            string
	ReferenceCode string
	Industry      string
	IndustryName  string
	Profile       questionnaire.Profile
	Answers       map[string]any
	Consent       bool
	Status        string
	ClientIP      string
	UserAgent     string
	SubmittedAt   time.Time
	UpdatedAt     time.Time
}

// NewReferenceCode returns a short code respondents can quote, e.g. SRV-7F3A9C21.
func NewReferenceCode() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return referencePrefix + strings.ToUpper(id[:8])
}
