package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	admindomain "github.com/sngm3741/bizsurvey-services/api/internal/admin/domain"
	"github.com/sngm3741/bizsurvey-services/api/internal/domainerr"
	"github.com/sngm3741/bizsurvey-services/api/internal/questionnaire"
)

type memorySurveys struct {
	items      map[string]admindomain.Survey
	lastFilter SurveyFilter
	lastPaging Paging
}

func newMemorySurveys(items ...admindomain.Survey) *memorySurveys {
	m := &memorySurveys{items: map[string]admindomain.Survey{}}
	for _, it := range items {
		m.items[it.ID] = it
	}
	return m
}

func (m *memorySurveys) sorted() []admindomain.Survey {
	out := make([]admindomain.Survey, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memorySurveys) Find(_ context.Context, filter SurveyFilter, paging Paging) ([]admindomain.Survey, int64, error) {
	m.lastFilter, m.lastPaging = filter, paging
	all := m.sorted()
	return all, int64(len(all)), nil
}

func (m *memorySurveys) FindForExport(_ context.Context, filter SurveyFilter, _ int) ([]admindomain.Survey, error) {
	m.lastFilter = filter
	var out []admindomain.Survey
	for _, it := range m.sorted() {
		if filter.Industry != "" && it.Industry != filter.Industry {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (m *memorySurveys) FindByID(_ context.Context, id string) (*admindomain.Survey, error) {
	it, ok := m.items[id]
	if !ok {
		return nil, domainerr.ErrNotFound
	}
	return &it, nil
}

func (m *memorySurveys) Update(_ context.Context, survey *admindomain.Survey) error {
	if _, ok := m.items[survey.ID]; !ok {
		return domainerr.ErrNotFound
	}
	m.items[survey.ID] = *survey
	return nil
}

func (m *memorySurveys) Delete(_ context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return domainerr.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type memoryIndustries struct {
	items map[string]questionnaire.Industry
}

func newMemoryIndustries(items ...questionnaire.Industry) *memoryIndustries {
	m := &memoryIndustries{items: map[string]questionnaire.Industry{}}
	for _, it := range items {
		m.items[it.Slug] = it
	}
	return m
}

func (m *memoryIndustries) FindAll(_ context.Context, activeOnly bool) ([]questionnaire.Industry, error) {
	var out []questionnaire.Industry
	for _, it := range m.items {
		if activeOnly && !it.Active {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (m *memoryIndustries) FindBySlug(_ context.Context, slug string) (*questionnaire.Industry, error) {
	it, ok := m.items[slug]
	if !ok {
		return nil, domainerr.ErrNotFound
	}
	it.Questions = append([]questionnaire.Question(nil), it.Questions...)
	return &it, nil
}

func (m *memoryIndustries) Create(_ context.Context, industry *questionnaire.Industry) error {
	if _, ok := m.items[industry.Slug]; ok {
		return domainerr.ErrConflict
	}
	m.items[industry.Slug] = *industry
	return nil
}

func (m *memoryIndustries) Update(_ context.Context, industry *questionnaire.Industry) error {
	if _, ok := m.items[industry.Slug]; !ok {
		return domainerr.ErrNotFound
	}
	m.items[industry.Slug] = *industry
	return nil
}

type memoryUsers struct {
	items   map[string]admindomain.User
	touched map[string]time.Time
	seq     int
}

func newMemoryUsers(items ...admindomain.User) *memoryUsers {
	m := &memoryUsers{items: map[string]admindomain.User{}, touched: map[string]time.Time{}}
	for _, it := range items {
		m.items[it.ID] = it
	}
	return m
}

func (m *memoryUsers) Find(context.Context) ([]admindomain.User, error) {
	var out []admindomain.User
	for _, it := range m.items {
		out = append(out, it)
	}
	return out, nil
}

func (m *memoryUsers) FindByID(_ context.Context, id string) (*admindomain.User, error) {
	it, ok := m.items[id]
	if !ok {
		return nil, domainerr.ErrNotFound
	}
	return &it, nil
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string) (*admindomain.User, error) {
	for _, it := range m.items {
		if it.Email.String() == email {
			copied := it
			return &copied, nil
		}
	}
	return nil, domainerr.ErrNotFound
}

func (m *memoryUsers) Create(_ context.Context, user *admindomain.User) error {
	for _, it := range m.items {
		if it.Email == user.Email {
			return domainerr.ErrConflict
		}
	}
	m.seq++
	user.ID = fmt.Sprintf("user-%d", m.seq)
	m.items[user.ID] = *user
	return nil
}

func (m *memoryUsers) Update(_ context.Context, user *admindomain.User) error {
	m.items[user.ID] = *user
	return nil
}

func (m *memoryUsers) TouchLogin(_ context.Context, id string, at time.Time) error {
	m.touched[id] = at
	return nil
}

// plainHasher prefixes passwords so tests stay fast and deterministic.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

type stubTokens struct{}

func (stubTokens) Issue(user admindomain.User) (string, time.Time, error) {
	return "token-for-" + user.ID, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), nil
}

type memoryCache struct {
	data          map[string][]byte
	generation    int64
	invalidations int
}

func newMemoryCache() *memoryCache { return &memoryCache{data: map[string][]byte{}} }

func (c *memoryCache) entryKey(gen int64, key string) string {
	return fmt.Sprintf("%d:%s", gen, key)
}

func (c *memoryCache) Get(_ context.Context, key string, dst any) (bool, int64, error) {
	raw, ok := c.data[c.entryKey(c.generation, key)]
	if !ok {
		return false, c.generation, nil
	}
	return true, c.generation, json.Unmarshal(raw, dst)
}

func (c *memoryCache) Set(_ context.Context, gen int64, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[c.entryKey(gen, key)] = raw
	return nil
}

func (c *memoryCache) Invalidate(context.Context) error {
	c.invalidations++
	c.generation++
	return nil
}

type stubAnalytics struct {
	overview    admindomain.Overview
	respondents int64
	stats       map[string]RawQuestionStats
	calls       int
	onOverview  func()
}

func (s *stubAnalytics) Overview(context.Context, AnalyticsFilter, time.Time) (*admindomain.Overview, error) {
	s.calls++
	copied := s.overview
	copied.ByStatus = append([]admindomain.Count(nil), s.overview.ByStatus...)
	copied.ByIndustry = append([]admindomain.Count(nil), s.overview.ByIndustry...)
	copied.ByRegion = append([]admindomain.Count(nil), s.overview.ByRegion...)
	copied.ByCompanySize = append([]admindomain.Count(nil), s.overview.ByCompanySize...)
	copied.ByMonth = append([]admindomain.Count(nil), s.overview.ByMonth...)
	if s.onOverview != nil {
		s.onOverview()
	}
	return &copied, nil
}

func (s *stubAnalytics) CountRespondents(context.Context, AnalyticsFilter) (int64, error) {
	return s.respondents, nil
}

func (s *stubAnalytics) QuestionStats(_ context.Context, _ AnalyticsFilter, q questionnaire.Question) (*RawQuestionStats, error) {
	s.calls++
	raw := s.stats[q.Key]
	return &raw, nil
}

func commonQuestions() []questionnaire.Question {
	qs := []questionnaire.Question{
		{Key: questionnaire.KeyCompanyName, Label: "Company", Type: questionnaire.TypeText, Required: true, Step: questionnaire.StepBusiness, Order: 1},
		{Key: questionnaire.KeyRegion, Label: "Region", Type: questionnaire.TypeSelect, Step: questionnaire.StepBusiness, Order: 2,
			Options: []questionnaire.Option{{Value: "north", Label: "North"}, {Value: "south", Label: "South"}}},
		{Key: questionnaire.KeyEmail, Label: "Email", Type: questionnaire.TypeText, Format: questionnaire.FormatEmail, Required: true, Step: questionnaire.StepContact, Order: 1},
	}
	for i := range qs {
		if err := qs[i].Normalize(); err != nil {
			panic(err)
		}
	}
	return qs
}

func retailIndustry() questionnaire.Industry {
	ind := questionnaire.Industry{
		Slug:   "retail",
		Name:   "Retail",
		Active: true,
		Questions: []questionnaire.Question{
			{Key: "channel", Label: "Channel", Type: questionnaire.TypeRadio, Order: 1,
				Options: []questionnaire.Option{{Value: "stores", Label: "Stores"}, {Value: "online", Label: "Online"}}},
			{Key: "store_count", Label: "Stores", Type: questionnaire.TypeNumber, Order: 2, Buckets: []float64{0, 10, 100}},
			{Key: "collab", Label: "Collaboration", Type: questionnaire.TypeScale, Order: 3},
			{Key: "notes", Label: "Notes", Type: questionnaire.TypeTextarea, Order: 4},
		},
	}
	if err := ind.Normalize(commonQuestions()); err != nil {
		panic(err)
	}
	return ind
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
