package main

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/sngm3741/bizsurvey-services/api/internal/catalog"
	"github.com/sngm3741/bizsurvey-services/api/internal/questionnaire"
)

func TestDemoAnswersPassValidation(t *testing.T) {
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	rng := rand.New(rand.NewSource(42))
	for _, industry := range cat.Industries {
		questions := questionnaire.MergeQuestions(cat.Common, industry.Questions)
		for i := 0; i < 20; i++ {
			answers := demoAnswers(rng, questions)
			if _, errs := questionnaire.ValidateAnswers(questions, answers); len(errs) > 0 {
				t.Fatalf("%s: generated answers rejected: %v (answers=%v)", industry.Slug, errs, answers)
			}
			if unknown := questionnaire.UnknownKeys(questions, answers); len(unknown) > 0 {
				t.Fatalf("%s: unknown keys %v", industry.Slug, unknown)
			}
		}
	}
}

func TestLoadEnvFileKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.env")
	content := "# comment\nexport SEED_TEST_A=\"from-file\"\nSEED_TEST_B='kept'\nbroken-line\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SEED_TEST_B", "from-env")
	t.Setenv("SEED_TEST_A", "")
	os.Unsetenv("SEED_TEST_A")

	if err := loadEnvFile(path); err != nil {
		t.Fatalf("loadEnvFile: %v", err)
	}
	if got := os.Getenv("SEED_TEST_A"); got != "from-file" {
		t.Fatalf("SEED_TEST_A = %q", got)
	}
	if got := os.Getenv("SEED_TEST_B"); got != "from-env" {
		t.Fatalf("existing variables must win, got %q", got)
	}
}
