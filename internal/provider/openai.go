package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/BinaryFighter-01/commentiq/internal/apperr"
	"github.com/BinaryFighter-01/commentiq/internal/models"
)

const systemPrompt = `You are an expert AI analyst specializing in social media comment analysis.
Analyze the given comment and provide structured JSON output with the following fields:
- sentiment: one of "positive", "negative", "neutral", or "mixed"
- sentimentScore: float from -1 (very negative) to 1 (very positive)
- toxicity: float from 0 (not toxic) to 1 (highly toxic)
- topics: array of main topics discussed (max 5)
- summary: brief one-sentence summary
- keyPhrases: array of important phrases or keywords (max 5)
- engagement: one of "high", "medium", or "low" based on discussion potential

Return ONLY valid JSON, no markdown or explanations.`

// OpenAIProvider analyzes comments via an OpenAI-compatible chat API
type OpenAIProvider struct {
	model  string
	client *resty.Client
}

var _ Provider = (*OpenAIProvider)(nil)

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// rawAnalysis is the loosely-typed provider payload before normalization
type rawAnalysis struct {
	Sentiment      string   `json:"sentiment"`
	SentimentScore float64  `json:"sentimentScore"`
	Toxicity       float64  `json:"toxicity"`
	Topics         []string `json:"topics"`
	Summary        string   `json:"summary"`
	KeyPhrases     []string `json:"keyPhrases"`
	Engagement     string   `json:"engagement"`
}

// NewOpenAIProvider creates a provider against baseURL using the given model
func NewOpenAIProvider(apiKey, baseURL, model string) *OpenAIProvider {
	return &OpenAIProvider{
		model: model,
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30 * time.Second).
			SetAuthToken(apiKey).
			SetHeader("User-Agent", "CommentIQ/1.0"),
	}
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Analyze classifies a single comment. Timeouts and upstream rate limits come
// back as KindProviderTransient; unparsable payloads as KindProviderMalformed,
// never a fabricated default verdict.
func (p *OpenAIProvider) Analyze(ctx context.Context, text string, cctx CommentContext) (*models.AnalysisResult, error) {
	body := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(text, cctx)},
		},
		Temperature: 0.3,
		MaxTokens:   500,
	}
	body.ResponseFormat.Type = "json_object"

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/chat/completions")

	if err != nil {
		return nil, apperr.Wrap(apperr.KindProviderTransient, "analysis request failed", err)
	}

	switch {
	case resp.StatusCode() == 200:
		// fall through to parsing
	case resp.StatusCode() == 429 || resp.StatusCode() >= 500:
		return nil, apperr.New(apperr.KindProviderTransient,
			fmt.Sprintf("provider returned status %d", resp.StatusCode()))
	default:
		return nil, apperr.New(apperr.KindInternal,
			fmt.Sprintf("provider returned status %d: %s", resp.StatusCode(), string(resp.Body())))
	}

	var chat chatResponse
	if err := json.Unmarshal(resp.Body(), &chat); err != nil {
		return nil, apperr.Wrap(apperr.KindProviderMalformed, "failed to parse provider response", err)
	}
	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return nil, apperr.New(apperr.KindProviderMalformed, "empty provider response")
	}

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &raw); err != nil {
		logrus.Errorf("Provider returned unparsable analysis payload: %v", err)
		return nil, apperr.Wrap(apperr.KindProviderMalformed, "unparsable analysis payload", err)
	}

	return normalizeAnalysis(raw), nil
}

func buildUserPrompt(text string, cctx CommentContext) string {
	platform := "social media"
	if cctx.Platform != "" {
		platform = string(cctx.Platform)
	}

	prompt := fmt.Sprintf("Analyze this %s comment", platform)
	if cctx.VideoTitle != "" {
		prompt += fmt.Sprintf(" from video %q", cctx.VideoTitle)
	}

	return fmt.Sprintf("%s:\n\n%q", prompt, text)
}

// normalizeAnalysis clamps scores and coerces enum fields to valid values
func normalizeAnalysis(raw rawAnalysis) *models.AnalysisResult {
	return &models.AnalysisResult{
		Sentiment:      normalizeSentiment(raw.Sentiment),
		SentimentScore: clamp(raw.SentimentScore, -1, 1),
		Toxicity:       clamp(raw.Toxicity, 0, 1),
		Topics:         capList(raw.Topics, 5),
		Summary:        raw.Summary,
		KeyPhrases:     capList(raw.KeyPhrases, 5),
		Engagement:     normalizeEngagement(raw.Engagement),
	}
}

func normalizeSentiment(value string) models.Sentiment {
	switch models.Sentiment(strings.ToLower(strings.TrimSpace(value))) {
	case models.SentimentPositive:
		return models.SentimentPositive
	case models.SentimentNegative:
		return models.SentimentNegative
	case models.SentimentMixed:
		return models.SentimentMixed
	default:
		return models.SentimentNeutral
	}
}

func normalizeEngagement(value string) models.Engagement {
	switch models.Engagement(strings.ToLower(strings.TrimSpace(value))) {
	case models.EngagementHigh:
		return models.EngagementHigh
	case models.EngagementLow:
		return models.EngagementLow
	default:
		return models.EngagementMedium
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func capList(items []string, limit int) []string {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
