package questionnaire

// Keys of shared questions that are lifted out of the answer map into the business profile.
const (
	KeyCompanyName  = "company_name"
	KeyContactName  = "contact_name"
	KeyEmail        = "email"
	KeyPhone        = "phone"
	KeyRegion       = "region"
	KeyCity         = "city"
	KeyCompanySize  = "company_size"
	KeyAnnualBudget = "annual_budget"
)

// ProfileKeys lists the profile question keys.
var ProfileKeys = []string{
	KeyCompanyName, KeyContactName, KeyEmail, KeyPhone, KeyRegion, KeyCity, KeyCompanySize, KeyAnnualBudget,
}

// RequiredProfileKeys must be present in every shared question set.
var RequiredProfileKeys = []string{KeyCompanyName, KeyEmail}

// IsProfileKey reports whether key belongs to the business profile.
func IsProfileKey(key string) bool {
	for _, k := range ProfileKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Profile is the business identity part of a submission.
type Profile struct {
	CompanyName  string
	ContactName  string
	Email        string
	Phone        string
	Region       string
	City         string
	CompanySize  string
	AnnualBudget string
}

// Value returns the profile field for a profile key.
func (p Profile) Value(key string) string {
	switch key {
	case KeyCompanyName:
		return p.CompanyName
	case KeyContactName:
		return p.ContactName
	case KeyEmail:
		return p.Email
	case KeyPhone:
		return p.Phone
	case KeyRegion:
		return p.Region
	case KeyCity:
		return p.City
	case KeyCompanySize:
		return p.CompanySize
	case KeyAnnualBudget:
		return p.AnnualBudget
	}
	return ""
}

// ExtractProfile moves profile keys out of answers. The answers map is modified in place.
func ExtractProfile(answers map[string]any) Profile {
	take := func(key string) string {
		v, ok := answers[key]
		if !ok {
			return ""
		}
		delete(answers, key)
		if s, ok := v.(string); ok {
			return s
		}
		return DisplayValue(Question{Key: key, Type: TypeText}, v)
	}
	return Profile{
		CompanyName:  take(KeyCompanyName),
		ContactName:  take(KeyContactName),
		Email:        take(KeyEmail),
		Phone:        take(KeyPhone),
		Region:       take(KeyRegion),
		City:         take(KeyCity),
		CompanySize:  take(KeyCompanySize),
		AnnualBudget: take(KeyAnnualBudget),
	}
}
