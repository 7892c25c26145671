package provider

import (
	"context"

	"github.com/BinaryFighter-01/commentiq/internal/models"
)

// CommentContext carries optional context for a single analysis call
type CommentContext struct {
	VideoTitle string
	Platform   models.Platform
}

// Provider performs structured analysis of a single comment. Implementations
// must return apperr-tagged errors so the batch driver can tell transient
// failures from malformed responses.
type Provider interface {
	Name() string
	Analyze(ctx context.Context, text string, cctx CommentContext) (*models.AnalysisResult, error)
}
