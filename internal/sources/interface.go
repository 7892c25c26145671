package sources

import (
	"context"

	"github.com/BinaryFighter-01/commentiq/internal/models"
)

// Source is the contract for a comment platform: resolve a user-supplied URL
// to a video ID, fetch the video's metadata, and page through its comments.
type Source interface {
	GetName() string
	Platform() models.Platform
	ExtractVideoID(rawURL string) (string, error)
	FetchVideo(ctx context.Context, videoID string) (*models.VideoMetadata, error)
	FetchComments(ctx context.Context, videoID string, maxComments int) ([]models.Comment, error)
	IsEnabled() bool
}
