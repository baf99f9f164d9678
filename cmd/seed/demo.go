package main

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/sngm3741/bizsurvey-services/api/internal/questionnaire"
)

var (
	companyPrefixes = []string{"Northwind", "Bluefield", "Kestrel", "Harbor", "Summit", "Maple", "Ironbridge", "Cedar"}
	companySuffixes = []string{"Trading", "Holdings", "Works", "Partners", "Supply", "Group"}
	firstNames      = []string{"Aiko", "Ben", "Carla", "Daichi", "Elena", "Farid", "Grace", "Hiro"}
	lastNames       = []string{"Sato", "Miller", "Okafor", "Tanaka", "Novak", "Suzuki", "Garcia", "Ito"}
	cities          = []string{"Yokohama", "Osaka", "Nagoya", "Sapporo", "Fukuoka", "Kobe", "Sendai"}
	remarks         = []string{
		"Looking to consolidate suppliers next quarter.",
		"Lead times have been the main pain point this year.",
		"Interested in volume discounts for annual contracts.",
		"Currently evaluating two alternative vendors.",
		"Budget approval expected after the fiscal review.",
	}
)

// demoAnswers は質問定義に沿ったダミー回答を生成する。任意項目は一部を未回答のままにする。
func demoAnswers(rng *rand.Rand, questions []questionnaire.Question) map[string]any {
	company := pick(rng, companyPrefixes) + " " + pick(rng, companySuffixes)
	contact := pick(rng, firstNames) + " " + pick(rng, lastNames)

	answers := make(map[string]any, len(questions))
	for _, q := range questions {
		if !q.Required && rng.Intn(5) == 0 {
			continue
		}
		switch q.Key {
		case questionnaire.KeyCompanyName:
			answers[q.Key] = company
			continue
		case questionnaire.KeyContactName:
			answers[q.Key] = contact
			continue
		case questionnaire.KeyCity:
			answers[q.Key] = pick(rng, cities)
			continue
		}
		if v, ok := demoValue(rng, q, company, contact); ok {
			answers[q.Key] = v
		}
	}
	return answers
}

func demoValue(rng *rand.Rand, q questionnaire.Question, company, contact string) (any, bool) {
	switch q.Type {
	case questionnaire.TypeSelect, questionnaire.TypeRadio:
		if len(q.Options) == 0 {
			return nil, false
		}
		return q.Options[rng.Intn(len(q.Options))].Value, true
	case questionnaire.TypeMultiSelect:
		if len(q.Options) == 0 {
			return nil, false
		}
		limit := len(q.Options)
		if q.Max != nil && int(*q.Max) < limit {
			limit = int(*q.Max)
		}
		lower := 1
		if q.Min != nil && int(*q.Min) > lower {
			lower = int(*q.Min)
		}
		if limit < lower {
			return nil, false
		}
		n := lower + rng.Intn(limit-lower+1)
		values := make([]string, 0, n)
		for _, idx := range rng.Perm(len(q.Options))[:n] {
			values = append(values, q.Options[idx].Value)
		}
		return values, true
	case questionnaire.TypeBoolean:
		return rng.Intn(2) == 0, true
	case questionnaire.TypeScale:
		lo, hi := q.ScaleRange()
		return lo + rng.Intn(hi-lo+1), true
	case questionnaire.TypeNumber:
		lo, hi := 0.0, 1000.0
		if len(q.Buckets) >= 2 {
			lo, hi = q.Buckets[0], q.Buckets[len(q.Buckets)-1]
		}
		if q.Min != nil {
			lo = math.Max(lo, *q.Min)
		}
		if q.Max != nil {
			hi = math.Min(hi, *q.Max)
		}
		if hi < lo {
			hi = lo
		}
		return math.Round(lo + rng.Float64()*(hi-lo)), true
	case questionnaire.TypeText, questionnaire.TypeTextarea:
		switch q.Format {
		case questionnaire.FormatEmail:
			local := strings.ToLower(strings.ReplaceAll(contact, " ", "."))
			domain := strings.ToLower(strings.ReplaceAll(company, " ", "-"))
			return fmt.Sprintf("%s@%s.example.com", local, domain), true
		case questionnaire.FormatPhone:
			return fmt.Sprintf("+81 3-%04d-%04d", rng.Intn(10000), rng.Intn(10000)), true
		case questionnaire.FormatURL:
			return "https://" + strings.ToLower(strings.ReplaceAll(company, " ", "-")) + ".example.com", true
		}
		return pick(rng, remarks), true
	}
	return nil, false
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}
