// Package scoring computes the ATS compatibility score of a resume document.
package scoring

import (
	"encoding/json"
	"math"
	"sort"
	"strings"

	"resume-builder/resume/model"
)

const (
	keywordWeight   = 60.0
	formatScore     = 25.0
	structureScore  = 15.0
	minScore        = 0
	maxScore        = 100
	generalPolicyID = "general-fixed-v1"
)

// GeneralModeScore is the fixed score reported for general-mode resumes,
// which have no posting to score against.
const GeneralModeScore = 82

// Breakdown is the scored result for one document.
type Breakdown struct {
	ATSScore        int      `json:"atsScore"`
	KeywordsMatched *int     `json:"keywordsMatched"`
	KeywordsTotal   *int     `json:"keywordsTotal"`
	Matched         []string `json:"matchedKeywords,omitempty"`
	Missing         []string `json:"missingKeywords,omitempty"`
	Policy          string   `json:"policy,omitempty"`
}

// General returns the policy breakdown for general mode.
func General() Breakdown {
	return Breakdown{ATSScore: GeneralModeScore, Policy: generalPolicyID}
}

// Score matches keywords against every text field of content. Matching is a
// case-insensitive substring test, so "Go" also matches inside "Google".
// The result does not depend on keyword order.
func Score(content model.Content, keywords []string) Breakdown {
	terms := distinct(keywords)
	blob := Flatten(content)

	matched := make([]string, 0, len(terms))
	missing := make([]string, 0, len(terms))
	for _, term := range terms {
		if strings.Contains(blob, strings.ToLower(term)) {
			matched = append(matched, term)
		} else {
			missing = append(missing, term)
		}
	}
	sortFold(matched)
	sortFold(missing)

	total := len(terms)
	matchedCount := len(matched)
	var keywordScore float64
	if total > 0 {
		keywordScore = float64(matchedCount) / float64(total) * keywordWeight
	}
	score := int(math.Round(keywordScore + formatScore + structureScore))

	return Breakdown{
		ATSScore:        clamp(score),
		KeywordsMatched: &matchedCount,
		KeywordsTotal:   &total,
		Matched:         matched,
		Missing:         missing,
	}
}

// Flatten renders every string value and map key of content into one
// lower-cased, space separated blob.
func Flatten(content model.Content) string {
	raw, err := json.Marshal(content)
	if err != nil {
		return ""
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return ""
	}
	var b strings.Builder
	collect(&b, tree)
	return strings.ToLower(b.String())
}

func collect(b *strings.Builder, node any) {
	switch v := node.(type) {
	case string:
		b.WriteString(v)
		b.WriteByte(' ')
	case []any:
		for _, item := range v {
			collect(b, item)
		}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		categories := isSkillCategory(v)
		for _, k := range keys {
			if categories {
				b.WriteString(k)
				b.WriteByte(' ')
			}
			collect(b, v[k])
		}
	}
}

// isSkillCategory reports whether m looks like a skills map, whose keys are
// user content rather than schema field names.
func isSkillCategory(m map[string]any) bool {
	for _, val := range m {
		list, ok := val.([]any)
		if !ok {
			return false
		}
		for _, item := range list {
			if _, ok := item.(string); !ok {
				return false
			}
		}
	}
	return len(m) > 0
}

// distinct folds keywords case-insensitively. Among spellings of the same
// term the byte-wise smallest wins, so the result does not depend on input
// order.
func distinct(keywords []string) []string {
	canonical := make(map[string]string, len(keywords))
	for _, kw := range keywords {
		trimmed := strings.TrimSpace(kw)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if prev, ok := canonical[key]; !ok || trimmed < prev {
			canonical[key] = trimmed
		}
	}
	out := make([]string, 0, len(canonical))
	for _, term := range canonical {
		out = append(out, term)
	}
	sortFold(out)
	return out
}

func sortFold(terms []string) {
	sort.SliceStable(terms, func(i, j int) bool {
		li, lj := strings.ToLower(terms[i]), strings.ToLower(terms[j])
		if li == lj {
			return terms[i] < terms[j]
		}
		return li < lj
	})
}

func clamp(score int) int {
	if score < minScore {
		return minScore
	}
	if score > maxScore {
		return maxScore
	}
	return score
}
