package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-builder/resume/model"
)

func sampleContent() model.Content {
	return model.Content{
		PersonalInfo: model.PersonalInfo{FullName: "Jane Doe", Title: "Backend Engineer"},
		Summary:      "Backend engineer building services in Python.",
		Experience: []model.Experience{{
			Title:        "Senior Engineer",
			Company:      "Acme",
			Achievements: []string{"Containerized 40 services with Docker, cutting deploy time by 60%"},
		}},
		Skills: model.Skills{"Cloud": {"AWS"}, "Languages": {"Go", "Python"}},
	}
}

func TestScenarioTwoOfThreeKeywords(t *testing.T) {
	got := Score(sampleContent(), []string{"Python", "Docker", "Kubernetes"})

	assert.Equal(t, 80, got.ATSScore)
	require.NotNil(t, got.KeywordsMatched)
	require.NotNil(t, got.KeywordsTotal)
	assert.Equal(t, 2, *got.KeywordsMatched)
	assert.Equal(t, 3, *got.KeywordsTotal)
	assert.Equal(t, []string{"Docker", "Python"}, got.Matched)
	assert.Equal(t, []string{"Kubernetes"}, got.Missing)
}

func TestScoreBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		keywords []string
		want     int
	}{
		{name: "empty set", keywords: nil, want: 40},
		{name: "all matched", keywords: []string{"python", "DOCKER", "acme"}, want: 100},
		{name: "none matched", keywords: []string{"Rust", "Haskell"}, want: 40},
		{name: "blank terms ignored", keywords: []string{" ", ""}, want: 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(sampleContent(), tt.keywords)
			if got.ATSScore != tt.want {
				t.Fatalf("Score() = %d, want %d", got.ATSScore, tt.want)
			}
			if got.ATSScore < 0 || got.ATSScore > 100 {
				t.Fatalf("score out of range: %d", got.ATSScore)
			}
		})
	}
}

func TestScoreIsOrderIndependentAndDeterministic(t *testing.T) {
	content := sampleContent()
	a := Score(content, []string{"Python", "Docker", "Kubernetes", "AWS"})
	b := Score(content, []string{"AWS", "Kubernetes", "Docker", "Python"})
	c := Score(content, []string{"AWS", "Kubernetes", "Docker", "Python"})

	assert.Equal(t, a, b)
	assert.Equal(t, b, c)
}

func TestScoreDeduplicatesCaseInsensitively(t *testing.T) {
	got := Score(sampleContent(), []string{"Python", "python", "PYTHON"})
	require.NotNil(t, got.KeywordsTotal)
	assert.Equal(t, 1, *got.KeywordsTotal)
	assert.Equal(t, 100, got.ATSScore)
}

func TestScoreSpellingVariantsIndependentOfOrder(t *testing.T) {
	content := sampleContent()
	a := Score(content, []string{"Python", "python", "Kubernetes"})
	b := Score(content, []string{"python", "Kubernetes", "Python"})

	assert.Equal(t, a, b)
	assert.Equal(t, []string{"Python"}, a.Matched)
	assert.Equal(t, []string{"Kubernetes"}, a.Missing)
}

func TestFlattenIncludesSkillCategoriesAndNestedValues(t *testing.T) {
	blob := Flatten(sampleContent())
	for _, want := range []string{"cloud", "languages", "aws", "acme", "containerized", "jane doe"} {
		assert.Contains(t, blob, want)
	}
	assert.NotContains(t, blob, "fullname")
}

func TestGeneralPolicy(t *testing.T) {
	got := General()
	assert.Equal(t, GeneralModeScore, got.ATSScore)
	assert.Equal(t, 82, got.ATSScore)
	assert.Nil(t, got.KeywordsTotal)
	assert.Nil(t, got.KeywordsMatched)
}
