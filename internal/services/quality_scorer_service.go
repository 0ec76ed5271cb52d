package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/alimgiray/repolens/internal/models"
	"github.com/alimgiray/repolens/pkg/logger"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const (
	scoringSystemPrompt  = "You are an expert code reviewer evaluating the quality of software development artifacts. Always respond with valid JSON."
	insightsSystemPrompt = "You are a code quality expert analyzing repository metrics."
	defaultFeedback      = "No feedback available"
	noDescription        = "(No description provided)"
)

// TextScorer rates free text against a rubric. Implementations never fail:
// degraded results carry the neutral score and an explanation.
type TextScorer interface {
	Score(ctx context.Context, kind models.QualityKind, title, body string) models.QualityResult
	GenerateInsights(ctx context.Context, input models.InsightsInput) models.Insights
	Enabled() bool
}

// QualityScorerService scores text through an OpenAI-compatible chat completion API
type QualityScorerService struct {
	client *openai.Client
	model  string
	log    *logrus.Entry
}

// NewQualityScorerService returns a NullScorer when apiKey is empty
func NewQualityScorerService(apiKey, model, baseURL string) TextScorer {
	if apiKey == "" {
		logger.ForComponent("scorer").Warn("OPENAI_API_KEY not set, quality scoring disabled")
		return NullScorer{}
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	return &QualityScorerService{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		log:    logger.ForComponent("scorer"),
	}
}

func (s *QualityScorerService) Enabled() bool {
	return true
}

// Score rates a commit message, pull request or issue from 0 to 10
func (s *QualityScorerService) Score(ctx context.Context, kind models.QualityKind, title, body string) models.QualityResult {
	prompt, err := scoringPrompt(kind, title, body)
	if err != nil {
		return errorResult(err)
	}

	content, err := s.complete(ctx, scoringSystemPrompt, prompt)
	if err != nil {
		s.log.WithError(err).WithField("kind", kind).Warn("Quality scoring failed")
		return errorResult(err)
	}

	result, err := parseQualityResult(content)
	if err != nil {
		s.log.WithError(err).WithField("kind", kind).Warn("Unparseable scoring response")
		return errorResult(err)
	}
	return result
}

// GenerateInsights summarizes the repository metrics into a short assessment
func (s *QualityScorerService) GenerateInsights(ctx context.Context, input models.InsightsInput) models.Insights {
	content, err := s.complete(ctx, insightsSystemPrompt, insightsPrompt(input))
	if err != nil {
		s.log.WithError(err).Warn("Insights generation failed")
		return insightsError(err)
	}

	insights, err := parseInsights(content)
	if err != nil {
		s.log.WithError(err).Warn("Unparseable insights response")
		return insightsError(err)
	}
	return insights
}

func (s *QualityScorerService) complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

func scoringPrompt(kind models.QualityKind, title, body string) (string, error) {
	if strings.TrimSpace(body) == "" {
		body = noDescription
	}

	switch kind {
	case models.QualityKindCommitMessage:
		return fmt.Sprintf(`Analyze this Git commit message and rate its quality from 0-10.

Consider:
- Clarity: Is it clear what changed?
- Context: Does it explain why the change was made?
- Format: Does it follow conventional commit format (type: description)?
- Completeness: Is there enough detail?

Commit message:
%s

Respond in JSON format with:
{"score": <number 0-10>, "feedback": "<brief explanation of the score>"}`, title), nil

	case models.QualityKindPRDescription:
		return fmt.Sprintf(`Analyze this Pull Request and rate its description quality from 0-10.

Consider:
- Clarity: Is the purpose of the PR clear?
- Context: Does it explain the motivation and the approach?
- Completeness: Does it describe the changes, testing and impact?
- Structure: Is it well organized?

PR Title: %s
PR Description:
%s

Respond in JSON format with:
{"score": <number 0-10>, "feedback": "<feedback in bullet points>"}`, title, body), nil

	case models.QualityKindIssueDescription:
		return fmt.Sprintf(`Analyze this GitHub Issue and rate its description quality from 0-10.

Consider:
- Clarity: Is the problem or request clearly stated?
- Reproducibility: For bugs, are there steps to reproduce?
- Completeness: Is the expected and actual behavior described?
- Actionability: Can a developer act on it without follow-up questions?

Issue Title: %s
Issue Description:
%s

Respond in JSON format with:
{"score": <number 0-10>, "feedback": "<feedback in bullet points>"}`, title, body), nil
	}

	return "", fmt.Errorf("%w: unknown quality kind %q", models.ErrInvalidInput, kind)
}

func insightsPrompt(in models.InsightsInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze these code quality metrics for a %s repository:\n\n", in.PrimaryLanguage)
	fmt.Fprintf(&b, "- %s files analyzed: %d (of %d files, %d lines in total)\n", in.PrimaryLanguage, in.PrimaryFilesCount, in.TotalFiles, in.TotalLines)
	fmt.Fprintf(&b, "- Average cyclomatic complexity: %.2f\n", in.AvgComplexity)
	fmt.Fprintf(&b, "- High complexity functions (>10): %d\n", in.HighComplexityFunctions)
	fmt.Fprintf(&b, "- Average maintainability index: %.2f\n", in.MaintainabilityIndex)
	fmt.Fprintf(&b, "- Lint score: %.2f/10 with %d issues\n", in.LintScore, in.LintIssues)
	if in.CoveragePercent != nil {
		fmt.Fprintf(&b, "- Test coverage: %.1f%%\n", *in.CoveragePercent)
	}
	b.WriteString(`
Respond in JSON format with:
{"summary": "<two or three sentence assessment>", "suggestions": ["<suggestion>", "<suggestion>", "<suggestion>"], "score": <number 0-10>}`)
	return b.String()
}

// rawQualityResult accepts the score as a number or numeric string and
// feedback as a string or a list of strings
type rawQualityResult struct {
	Score    json.RawMessage `json:"score"`
	Feedback json.RawMessage `json:"feedback"`
}

func parseQualityResult(content string) (models.QualityResult, error) {
	var raw rawQualityResult
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &raw); err != nil {
		return models.QualityResult{}, err
	}

	return models.QualityResult{
		Score:    coerceScore(raw.Score),
		Feedback: coerceFeedback(raw.Feedback),
	}, nil
}

// coerceScore reads a number or a numeric string, clamped to the score range.
// Missing or unreadable values are neutral.
func coerceScore(raw json.RawMessage) float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return models.NeutralScore
	}

	var score float64
	if err := json.Unmarshal(raw, &score); err == nil {
		return clampScore(score)
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil && !math.IsNaN(parsed) {
			return clampScore(parsed)
		}
	}
	return models.NeutralScore
}

func coerceFeedback(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return defaultFeedback
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if text == "" {
			return defaultFeedback
		}
		return text
	}

	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		if len(lines) == 0 {
			return defaultFeedback
		}
		return strings.Join(lines, "\n")
	}

	return string(raw)
}

func parseInsights(content string) (models.Insights, error) {
	var raw struct {
		Summary     string          `json:"summary"`
		Suggestions []string        `json:"suggestions"`
		Score       json.RawMessage `json:"score"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &raw); err != nil {
		return models.Insights{}, err
	}

	insights := models.Insights{
		Summary:     raw.Summary,
		Suggestions: raw.Suggestions,
		Score:       coerceScore(raw.Score),
	}
	if insights.Suggestions == nil {
		insights.Suggestions = []string{}
	}
	return insights, nil
}

// stripCodeFence removes a ```json fence some models wrap around the payload
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

func errorResult(err error) models.QualityResult {
	return models.QualityResult{
		Score:    models.NeutralScore,
		Feedback: fmt.Sprintf("Error during analysis: %v", err),
	}
}

func insightsError(err error) models.Insights {
	return models.Insights{
		Summary:     fmt.Sprintf("Unable to generate insights: %v", err),
		Suggestions: []string{},
		Score:       models.NeutralScore,
	}
}

// NullScorer is used when no API key is configured
type NullScorer struct{}

func (NullScorer) Enabled() bool {
	return false
}

func (NullScorer) Score(_ context.Context, _ models.QualityKind, _, _ string) models.QualityResult {
	return models.QualityResult{Score: models.NeutralScore, Feedback: "LLM scoring not available"}
}

func (NullScorer) GenerateInsights(_ context.Context, _ models.InsightsInput) models.Insights {
	return models.Insights{
		Summary:     "LLM insights not available",
		Suggestions: []string{},
		Score:       models.NeutralScore,
	}
}
