package provider

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/BinaryFighter-01/commentiq/internal/models"
)

// MockProvider produces analysis without any network calls. Output is a pure
// function of the comment text, so repeated analysis of identical content is
// always consistent with what a cache would have returned.
type MockProvider struct{}

var _ Provider = (*MockProvider)(nil)

var positiveWords = []string{"good", "great", "excellent", "love", "awesome", "fantastic", "helpful", "amazing"}
var negativeWords = []string{"bad", "terrible", "awful", "hate", "broken", "worst", "fail", "problem"}

// NewMockProvider creates a mock provider
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) Name() string {
	return "mock"
}

func (p *MockProvider) Analyze(_ context.Context, text string, _ CommentContext) (*models.AnalysisResult, error) {
	logrus.Debugf("Using mock AI provider (comment length %d)", len(text))

	sentiment, score := mockSentiment(text)
	sum := sha256.Sum256([]byte(text))

	return &models.AnalysisResult{
		Sentiment:      sentiment,
		SentimentScore: score,
		Toxicity:       float64(sum[0]) / 255 * 0.3, // low toxicity for mock
		Topics:         mockTopics(text),
		Summary:        fmt.Sprintf("Mock analysis: %s", truncate(text, 50)),
		KeyPhrases:     mockPhrases(text),
		Engagement:     mockEngagement(sum[1]),
	}, nil
}

func mockSentiment(text string) (models.Sentiment, float64) {
	lower := strings.ToLower(text)

	positive := 0
	for _, word := range positiveWords {
		if strings.Contains(lower, word) {
			positive++
		}
	}

	negative := 0
	for _, word := range negativeWords {
		if strings.Contains(lower, word) {
			negative++
		}
	}

	switch {
	case positive > 0 && negative > 0:
		return models.SentimentMixed, 0.05
	case positive > 0:
		return models.SentimentPositive, 0.75
	case negative > 0:
		return models.SentimentNegative, -0.75
	default:
		return models.SentimentNeutral, 0
	}
}

func mockTopics(text string) []string {
	lower := strings.ToLower(text)

	var topics []string
	for _, word := range append(append([]string{}, positiveWords...), negativeWords...) {
		if strings.Contains(lower, word) {
			topics = append(topics, word)
		}
		if len(topics) == 3 {
			break
		}
	}

	return topics
}

func mockPhrases(text string) []string {
	var phrases []string
	for _, word := range strings.Fields(text) {
		if len(word) > 4 {
			phrases = append(phrases, word)
		}
		if len(phrases) == 5 {
			break
		}
	}

	return phrases
}

func mockEngagement(b byte) models.Engagement {
	switch b % 3 {
	case 0:
		return models.EngagementHigh
	case 1:
		return models.EngagementMedium
	default:
		return models.EngagementLow
	}
}

// truncate cuts on runes so multi-byte text stays valid UTF-8
func truncate(s string, length int) string {
	runes := []rune(s)
	if len(runes) <= length {
		return s
	}
	return string(runes[:length]) + "..."
}
