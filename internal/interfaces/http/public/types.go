package public

import "github.com/sngm3741/bizsurvey-services/api/internal/interfaces/http/common"

type industryListResponse struct {
	Items []common.IndustrySummary `json:"items"`
}

type submitSurveyRequest struct {
	Industry string         `json:"industry"`
	Answers  map[string]any `json:"answers"`
	Consent  bool           `json:"consent"`
}

type submitSurveyResponse struct {
	Status        string `json:"status"`
	ID            string `json:"id"`
	ReferenceCode string `json:"referenceCode"`
}

type validateStepRequest struct {
	Industry string         `json:"industry"`
	Step     string         `json:"step"`
	Answers  map[string]any `json:"answers"`
}

type validateStepResponse struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}
