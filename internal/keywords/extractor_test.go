package keywords

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-builder/internal/llm"
)

func stubLLM(out string, err error) llm.Client {
	return llm.ClientFunc(func(ctx context.Context, req llm.Request) (string, error) {
		return out, err
	})
}

func TestParseShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Set
	}{
		{name: "wrapped", raw: `{"keywords":["Go","PostgreSQL","Kubernetes"]}`, want: Set{"Go", "PostgreSQL", "Kubernetes"}},
		{name: "bare array", raw: `["Go", "gRPC"]`, want: Set{"Go", "gRPC"}},
		{name: "fenced", raw: "```json\n{\"keywords\": [\"Terraform\"]}\n```", want: Set{"Terraform"}},
		{name: "dedupe keeps first spelling", raw: `["Go","go"," GO ","SQL"]`, want: Set{"Go", "SQL"}},
		{name: "drops blanks and collapses spaces", raw: `["", "  ", "machine   learning"]`, want: Set{"machine learning"}},
		{name: "empty list is valid", raw: `{"keywords":[]}`, want: Set{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw, DefaultMaxKeywords)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRejectsMalformedOutput(t *testing.T) {
	for _, raw := range []string{"", "no json here", `{"skills":["Go"]}`, `{"keywords":"Go"}`, `[1,2,3]`} {
		_, err := Parse(raw, DefaultMaxKeywords)
		assert.Error(t, err, "raw=%q", raw)
	}
}

func TestParseCapsAtMax(t *testing.T) {
	got, err := Parse(`["a","b","c","d"]`, 2)
	require.NoError(t, err)
	assert.Equal(t, Set{"a", "b"}, got)
}

func TestExtractSuccess(t *testing.T) {
	var seen llm.Request
	client := llm.ClientFunc(func(ctx context.Context, req llm.Request) (string, error) {
		seen = req
		return `{"keywords":["Go","PostgreSQL","Kubernetes"]}`, nil
	})
	ex := NewExtractor(client, 0)

	res := ex.Extract(context.Background(), "Senior Go engineer with PostgreSQL and Kubernetes")
	assert.False(t, res.Degraded)
	assert.Equal(t, Set{"Go", "PostgreSQL", "Kubernetes"}, res.Keywords)
	assert.Equal(t, llm.PromptKeywordsV1, seen.PromptID)
	assert.True(t, strings.Contains(seen.User, "Senior Go engineer"))
	assert.True(t, strings.Contains(seen.User, "at most 40"))
}

func TestExtractDegrades(t *testing.T) {
	tests := []struct {
		name   string
		client llm.Client
	}{
		{name: "collaborator error", client: stubLLM("", errors.New("openai http status 500: boom"))},
		{name: "malformed output", client: stubLLM("I think the keywords are Go and SQL", nil)},
		{name: "no client", client: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewExtractor(tt.client, 10).Extract(context.Background(), "posting")
			assert.True(t, res.Degraded)
			assert.NotNil(t, res.Keywords)
			assert.Empty(t, res.Keywords)
			assert.NotEmpty(t, res.Reason)
		})
	}
}
