// Package catalog loads the shipped questionnaire: the shared profile questions and the
// industry verticals with their question sets.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sngm3741/bizsurvey-services/api/internal/questionnaire"
)

//go:embed data/*.yaml
var builtin embed.FS

// Catalog is a validated questionnaire definition.
type Catalog struct {
	Common     []questionnaire.Question
	Industries []questionnaire.Industry
}

// Industry returns the industry with slug.
func (c *Catalog) Industry(slug string) (questionnaire.Industry, bool) {
	if c == nil {
		return questionnaire.Industry{}, false
	}
	for _, ind := range c.Industries {
		if ind.Slug == slug {
			return ind, true
		}
	}
	return questionnaire.Industry{}, false
}

// Load returns the embedded catalog.
func Load() (*Catalog, error) {
	sub, err := fs.Sub(builtin, "data")
	if err != nil {
		return nil, fmt.Errorf("catalog: open embedded data: %w", err)
	}
	return LoadFS(sub)
}

// MustLoad is Load for static initialisation.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// LoadFS walks fsys, parses JSON/YAML catalog files and validates the result.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	var (
		common     []questionnaire.Question
		industries []questionnaire.Industry
		seen       = make(map[string]string)
	)

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isCatalogFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("catalog: read %s: %w", path, err)
		}
		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}

		for _, raw := range doc.Common {
			common = append(common, raw.toQuestion())
		}
		for _, raw := range doc.Industries {
			ind := raw.toIndustry()
			if prev, ok := seen[ind.Slug]; ok {
				return fmt.Errorf("catalog: duplicate industry %q (files %s and %s)", ind.Slug, prev, path)
			}
			seen[ind.Slug] = path
			industries = append(industries, ind)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return build(common, industries)
}

func build(common []questionnaire.Question, industries []questionnaire.Industry) (*Catalog, error) {
	keys := make(map[string]struct{}, len(common))
	for i := range common {
		q := &common[i]
		if q.Step == "" {
			q.Step = questionnaire.StepBusiness
		}
		if err := q.Normalize(); err != nil {
			return nil, fmt.Errorf("catalog: common: %w", err)
		}
		if q.Step == questionnaire.StepIndustry {
			return nil, fmt.Errorf("catalog: common question %s cannot use the industry step", q.Key)
		}
		if _, ok := keys[q.Key]; ok {
			return nil, fmt.Errorf("catalog: duplicate common question %q", q.Key)
		}
		keys[q.Key] = struct{}{}
	}
	for _, key := range questionnaire.RequiredProfileKeys {
		if _, ok := keys[key]; !ok {
			return nil, fmt.Errorf("catalog: common questions must define %q", key)
		}
	}
	questionnaire.SortQuestions(common)

	for i := range industries {
		if err := industries[i].Normalize(common); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
	}
	questionnaire.SortIndustries(industries)

	return &Catalog{Common: common, Industries: industries}, nil
}

type documentFile struct {
	Common     []questionFile `json:"common" yaml:"common"`
	Industries []industryFile `json:"industries" yaml:"industries"`
}

type industryFile struct {
	Slug        string         `json:"slug" yaml:"slug"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Icon        string         `json:"icon" yaml:"icon"`
	Order       int            `json:"order" yaml:"order"`
	Active      *bool          `json:"active" yaml:"active"`
	Questions   []questionFile `json:"questions" yaml:"questions"`
}

type questionFile struct {
	Key         string       `json:"key" yaml:"key"`
	Label       string       `json:"label" yaml:"label"`
	Help        string       `json:"help" yaml:"help"`
	Type        string       `json:"type" yaml:"type"`
	Format      string       `json:"format" yaml:"format"`
	Required    bool         `json:"required" yaml:"required"`
	Options     []optionFile `json:"options" yaml:"options"`
	Min         *float64     `json:"min" yaml:"min"`
	Max         *float64     `json:"max" yaml:"max"`
	Buckets     []float64    `json:"buckets" yaml:"buckets"`
	Placeholder string       `json:"placeholder" yaml:"placeholder"`
	Order       int          `json:"order" yaml:"order"`
	Step        string       `json:"step" yaml:"step"`
}

type optionFile struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

func (f industryFile) toIndustry() questionnaire.Industry {
	ind := questionnaire.Industry{
		Slug:        strings.ToLower(strings.TrimSpace(f.Slug)),
		Name:        f.Name,
		Description: f.Description,
		Icon:        f.Icon,
		Order:       f.Order,
		Active:      f.Active == nil || *f.Active,
	}
	for idx, raw := range f.Questions {
		q := raw.toQuestion()
		if q.Order == 0 {
			q.Order = idx + 1
		}
		ind.Questions = append(ind.Questions, q)
	}
	return ind
}

func (f questionFile) toQuestion() questionnaire.Question {
	q := questionnaire.Question{
		Key:         f.Key,
		Label:       f.Label,
		Help:        f.Help,
		Type:        questionnaire.QuestionType(f.Type),
		Format:      f.Format,
		Required:    f.Required,
		Min:         f.Min,
		Max:         f.Max,
		Buckets:     append([]float64(nil), f.Buckets...),
		Placeholder: f.Placeholder,
		Order:       f.Order,
		Step:        questionnaire.Step(f.Step),
	}
	for _, opt := range f.Options {
		q.Options = append(q.Options, questionnaire.Option{Value: opt.Value, Label: opt.Label})
	}
	return q
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("catalog: file %s is empty", source)
	}
	if strings.EqualFold(filepath.Ext(source), ".json") {
		if err := json.Unmarshal(data, &doc); err != nil {
			return documentFile{}, fmt.Errorf("catalog: parse %s: %w", source, err)
		}
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return documentFile{}, fmt.Errorf("catalog: parse %s: %w", source, err)
	}
	return doc, nil
}

func isCatalogFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
