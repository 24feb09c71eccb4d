package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"compliflow/internal/models"

	"github.com/sashabaranov/go-openai"
)

// FormAnalysis is the model's assessment of one submitted form.
type FormAnalysis struct {
	CompletenessScore int      `json:"completeness_score"`
	Flags             []string `json:"flags"`
	Summary           string   `json:"summary"`
}

// AIAnalyzer produces advisory analyses of submitted form values. Results
// are stored alongside the form for reviewers; failures never block the
// submission itself.
type AIAnalyzer interface {
	AnalyzeForm(ctx context.Context, form *models.AuditForm, structure models.JSONB) (*FormAnalysis, error)
}

type openAIAnalyzer struct {
	client *openai.Client
	model  string
}

func NewOpenAIAnalyzer(apiKey, model string) AIAnalyzer {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &openAIAnalyzer{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

const analyzerSystemPrompt = `You are a compliance reviewer assistant. Given a form template and the submitted values, assess completeness and flag answers that look inconsistent or evasive.
Always respond in the exact JSON format requested. Be concise to minimize tokens.`

func (a *openAIAnalyzer) AnalyzeForm(ctx context.Context, form *models.AuditForm, structure models.JSONB) (*FormAnalysis, error) {
	prompt, err := a.buildPrompt(form, structure)
	if err != nil {
		return nil, err
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: analyzerSystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0.1,
		MaxTokens:   300,
	})
	if err != nil {
		return nil, fmt.Errorf("form analysis API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("form analysis returned no choices")
	}

	analysis, err := parseAnalysisResponse(resp.Choices[0].Message.Content)
	if err != nil {
		analysis = parseAnalysisFallback(resp.Choices[0].Message.Content)
	}
	return analysis, nil
}

func (a *openAIAnalyzer) buildPrompt(form *models.AuditForm, structure models.JSONB) (string, error) {
	structureJSON, err := json.Marshal(structure)
	if err != nil {
		return "", fmt.Errorf("failed to encode template structure: %w", err)
	}
	valueJSON, err := json.Marshal(form.Value)
	if err != nil {
		return "", fmt.Errorf("failed to encode form values: %w", err)
	}

	return fmt.Sprintf(`Form: %q
Template: %s
Submitted values: %s

Assess the submission:
JSON: {"completeness_score": 0-100, "flags": ["..."], "summary": "brief"}`,
		form.Name, structureJSON, valueJSON), nil
}

func parseAnalysisResponse(response string) (*FormAnalysis, error) {
	var parsed FormAnalysis
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		return nil, fmt.Errorf("JSON parsing failed: %w", err)
	}
	if parsed.CompletenessScore < 0 || parsed.CompletenessScore > 100 {
		parsed.CompletenessScore = 50
	}
	return &parsed, nil
}

var analysisScoreRegex = regexp.MustCompile(`"?completeness_score"?:\s*(\d+)`)

func parseAnalysisFallback(response string) *FormAnalysis {
	score := 50
	if matches := analysisScoreRegex.FindStringSubmatch(response); len(matches) > 1 {
		if parsed, err := strconv.Atoi(matches[1]); err == nil && parsed >= 0 && parsed <= 100 {
			score = parsed
		}
	}
	return &FormAnalysis{
		CompletenessScore: score,
		Summary:           "Fallback parsing used - manual review recommended",
	}
}
