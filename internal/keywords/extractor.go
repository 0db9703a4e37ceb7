package keywords

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"resume-builder/internal/llm"
	"resume-builder/internal/shared/telemetry"
)

// DefaultMaxKeywords caps the extracted set when no limit is configured.
const DefaultMaxKeywords = 40

// Set is an ordered list of distinct keywords. Distinctness is
// case-insensitive; the first spelling wins.
type Set []string

// Result is the outcome of an extraction. A degraded result always carries
// an empty set.
type Result struct {
	Keywords Set
	Degraded bool
	Reason   string
}

var (
	errEmptyOutput   = errors.New("empty model output")
	errUnparseable   = errors.New("model output is not a keyword list")
	errNoLLMProvider = errors.New("no llm client configured")
)

// Extractor turns a job posting into a KeywordSet using an LLM.
type Extractor struct {
	LLM         llm.Client
	MaxKeywords int
}

// NewExtractor constructs an Extractor. max <= 0 uses DefaultMaxKeywords.
func NewExtractor(client llm.Client, max int) *Extractor {
	if max <= 0 {
		max = DefaultMaxKeywords
	}
	return &Extractor{LLM: client, MaxKeywords: max}
}

// Extract never fails: collaborator errors and malformed output degrade to
// an empty set with Degraded set.
func (e *Extractor) Extract(ctx context.Context, posting string) Result {
	if e.LLM == nil {
		return degraded(errNoLLMProvider)
	}
	prompt, _ := llm.PromptByID(llm.PromptKeywordsV1)
	req := prompt.Request(map[string]string{
		"MAX_KEYWORDS":   strconv.Itoa(e.limit()),
		"TARGET_POSTING": strings.TrimSpace(posting),
	})

	raw, err := e.LLM.Complete(ctx, req)
	if err != nil {
		return degraded(err)
	}
	set, err := Parse(raw, e.limit())
	if err != nil {
		return degraded(err)
	}
	return Result{Keywords: set}
}

func (e *Extractor) limit() int {
	if e.MaxKeywords <= 0 {
		return DefaultMaxKeywords
	}
	return e.MaxKeywords
}

func degraded(err error) Result {
	telemetry.Warn("keywords.extraction_degraded", map[string]any{"error": err.Error()})
	return Result{Keywords: Set{}, Degraded: true, Reason: err.Error()}
}

// Parse accepts {"keywords": [...]} or a bare JSON array, optionally wrapped
// in markdown fences, and normalizes it into a Set of at most max terms.
func Parse(raw string, max int) (Set, error) {
	cleaned := llm.CleanJSON(raw)
	if cleaned == "" {
		if strings.TrimSpace(raw) == "" {
			return nil, errEmptyOutput
		}
		return nil, errUnparseable
	}

	var terms []string
	if strings.HasPrefix(cleaned, "[") {
		if err := json.Unmarshal([]byte(cleaned), &terms); err != nil {
			return nil, errUnparseable
		}
	} else {
		var wrapped struct {
			Keywords *[]string `json:"keywords"`
		}
		if err := json.Unmarshal([]byte(cleaned), &wrapped); err != nil || wrapped.Keywords == nil {
			return nil, errUnparseable
		}
		terms = *wrapped.Keywords
	}
	return Normalize(terms, max), nil
}

// Normalize trims, collapses inner whitespace, drops empties and
// case-insensitive duplicates, and caps the result at max (no cap when
// max <= 0).
func Normalize(terms []string, max int) Set {
	out := make(Set, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		term = strings.Join(strings.Fields(term), " ")
		if term == "" {
			continue
		}
		key := strings.ToLower(term)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, term)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}
