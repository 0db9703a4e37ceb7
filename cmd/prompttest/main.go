package main

// Try the generation prompts against a live model without a database:
//   go run ./cmd/prompttest -experience exp.txt -posting job.txt

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"resume-builder/internal/keywords"
	"resume-builder/internal/llm"
	openai "resume-builder/internal/llm/openai"
	"resume-builder/internal/shared/config"
	"resume-builder/internal/synthesis"
	"resume-builder/resume/model"
	"resume-builder/resume/scoring"
)

type report struct {
	Mode               model.Mode        `json:"mode"`
	Keywords           []string          `json:"keywords"`
	ExtractionDegraded bool              `json:"extractionDegraded"`
	Score              scoring.Breakdown `json:"score"`
	Content            model.Content     `json:"content"`
}

func main() {
	cfg := config.Load()

	experiencePath := flag.String("experience", "", "Path to a plain-text experience file")
	postingPath := flag.String("posting", "", "Path to a job posting file (optional; enables targeted mode)")
	outPath := flag.String("out", "", "Path to write the JSON report (optional)")
	provider := flag.String("provider", cfg.LLMProvider, "LLM provider")
	modelName := flag.String("model", cfg.LLMModel, "LLM model")
	maxKeywords := flag.Int("max-keywords", cfg.MaxKeywords, "Keyword cap")
	flag.Parse()

	if strings.TrimSpace(*experiencePath) == "" {
		exitErr("experience path is required")
	}
	experience := readFile(*experiencePath)
	posting := ""
	if strings.TrimSpace(*postingPath) != "" {
		posting = readFile(*postingPath)
	}

	client, err := buildClient(*provider, *modelName)
	if err != nil {
		exitErr(err.Error())
	}
	client = llm.WithRetry(client)
	ctx := context.Background()

	out := report{Mode: model.ModeGeneral, Keywords: []string{}}
	if posting != "" {
		out.Mode = model.ModeTargeted
		res := keywords.NewExtractor(client, *maxKeywords).Extract(ctx, posting)
		out.ExtractionDegraded = res.Degraded
		if len(res.Keywords) > 0 {
			out.Keywords = res.Keywords
		}
	}

	content, err := synthesis.NewSynthesizer(client).Synthesize(ctx, synthesis.Input{
		Mode:           out.Mode,
		ExperienceText: experience,
		TargetPosting:  posting,
		Keywords:       out.Keywords,
	})
	if err != nil {
		exitErr(fmt.Sprintf("synthesize: %v", err))
	}
	out.Content = content
	if out.Mode == model.ModeTargeted {
		out.Score = scoring.Score(content, out.Keywords)
	} else {
		out.Score = scoring.General()
	}

	raw, err := json.Marshal(out)
	if err != nil {
		exitErr(fmt.Sprintf("encode report: %v", err))
	}
	pretty, err := prettyJSON(raw)
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, pretty, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}

	if _, err := os.Stdout.Write(pretty); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
	if len(pretty) == 0 || pretty[len(pretty)-1] != '\n' {
		_, _ = os.Stdout.Write([]byte("\n"))
	}
}

func buildClient(provider, modelName string) (llm.Client, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", "openai":
		return openai.NewClient(os.Getenv("OPENAI_API_KEY"), modelName)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func readFile(path string) string {
	raw, err := os.ReadFile(path)
	if err != nil {
		exitErr(fmt.Sprintf("read %s: %v", path, err))
	}
	return string(raw)
}

func prettyJSON(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
