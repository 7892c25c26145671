package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/BinaryFighter-01/commentiq/internal/apperr"
	"github.com/BinaryFighter-01/commentiq/internal/models"
)

const youTubeAPIBase = "https://www.googleapis.com/youtube/v3"

// YouTubeSource fetches video metadata and comments via the YouTube Data API
type YouTubeSource struct {
	apiKey string
	client *resty.Client
}

var _ Source = (*YouTubeSource)(nil)

// Accepted URL shapes: watch?v=, youtu.be/, /shorts/, /embed/. Video IDs are
// always 11 characters.
var youTubeURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/watch\?(?:[^#]*&)?v=([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/shorts/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/embed/([A-Za-z0-9_-]{11})`),
}

type youTubeVideosResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelID    string `json:"channelId"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			LikeCount    string `json:"likeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
	} `json:"items"`
}

type youTubeCommentsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID      string `json:"id"`
		Snippet struct {
			TotalReplyCount int `json:"totalReplyCount"`
			TopLevelComment struct {
				Snippet struct {
					TextOriginal      string `json:"textOriginal"`
					AuthorDisplayName string `json:"authorDisplayName"`
					AuthorChannelID   struct {
						Value string `json:"value"`
					} `json:"authorChannelId"`
					LikeCount   int    `json:"likeCount"`
					PublishedAt string `json:"publishedAt"`
				} `json:"snippet"`
			} `json:"topLevelComment"`
		} `json:"snippet"`
	} `json:"items"`
}

// NewYouTubeSource creates a new YouTube source
func NewYouTubeSource(apiKey string) *YouTubeSource {
	return &YouTubeSource{
		apiKey: apiKey,
		client: resty.New().
			SetBaseURL(youTubeAPIBase).
			SetTimeout(30 * time.Second).
			SetHeader("User-Agent", "CommentIQ/1.0"),
	}
}

func (y *YouTubeSource) GetName() string {
	return "youtube"
}

func (y *YouTubeSource) Platform() models.Platform {
	return models.PlatformYouTube
}

func (y *YouTubeSource) IsEnabled() bool {
	return y.apiKey != ""
}

// ExtractVideoID pulls the 11-character video ID out of any supported
// YouTube URL shape
func (y *YouTubeSource) ExtractVideoID(rawURL string) (string, error) {
	for _, pattern := range youTubeURLPatterns {
		if match := pattern.FindStringSubmatch(rawURL); match != nil {
			return match[1], nil
		}
	}
	return "", apperr.New(apperr.KindInvalidInput, fmt.Sprintf("not a recognizable YouTube video URL: %s", rawURL))
}

func (y *YouTubeSource) FetchVideo(ctx context.Context, videoID string) (*models.VideoMetadata, error) {
	resp, err := y.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"part": "snippet,statistics",
			"id":   videoID,
			"key":  y.apiKey,
		}).
		Get("/videos")

	if err != nil {
		return nil, fmt.Errorf("youtube videos request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("youtube API returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	var videosResp youTubeVideosResponse
	if err := json.Unmarshal(resp.Body(), &videosResp); err != nil {
		return nil, fmt.Errorf("failed to parse YouTube response: %w", err)
	}
	if len(videosResp.Items) == 0 {
		return nil, apperr.New(apperr.KindNotFound, fmt.Sprintf("YouTube video %s not found", videoID))
	}

	item := videosResp.Items[0]
	return &models.VideoMetadata{
		VideoID:      item.ID,
		Platform:     models.PlatformYouTube,
		Title:        item.Snippet.Title,
		URL:          fmt.Sprintf("https://www.youtube.com/watch?v=%s", item.ID),
		Views:        parseCount(item.Statistics.ViewCount),
		Likes:        parseCount(item.Statistics.LikeCount),
		CommentCount: parseCount(item.Statistics.CommentCount),
		AuthorName:   item.Snippet.ChannelTitle,
		AuthorID:     item.Snippet.ChannelID,
		FetchedAt:    time.Now().UTC(),
	}, nil
}

// FetchComments pages through top-level comment threads until maxComments is
// reached or the API runs out of pages. A 403 means comments are disabled for
// the video; that comes back as an empty set, not an error.
func (y *YouTubeSource) FetchComments(ctx context.Context, videoID string, maxComments int) ([]models.Comment, error) {
	var comments []models.Comment
	pageToken := ""

	for len(comments) < maxComments {
		params := map[string]string{
			"part":       "snippet",
			"videoId":    videoID,
			"maxResults": "100",
			"order":      "relevance",
			"textFormat": "plainText",
			"key":        y.apiKey,
		}
		if pageToken != "" {
			params["pageToken"] = pageToken
		}

		resp, err := y.client.R().
			SetContext(ctx).
			SetQueryParams(params).
			Get("/commentThreads")

		if err != nil {
			return nil, fmt.Errorf("youtube comments request failed: %w", err)
		}
		if resp.StatusCode() == 403 {
			logrus.Infof("Comments disabled for YouTube video %s", videoID)
			return comments, nil
		}
		if resp.StatusCode() != 200 {
			return nil, fmt.Errorf("youtube comments API returned status %d: %s", resp.StatusCode(), string(resp.Body()))
		}

		var commentsResp youTubeCommentsResponse
		if err := json.Unmarshal(resp.Body(), &commentsResp); err != nil {
			return nil, fmt.Errorf("failed to parse YouTube comments response: %w", err)
		}

		for _, item := range commentsResp.Items {
			snippet := item.Snippet.TopLevelComment.Snippet

			createdAt, err := time.Parse(time.RFC3339, snippet.PublishedAt)
			if err != nil {
				logrus.Errorf("Failed to parse YouTube comment timestamp: %v", err)
				continue
			}

			comments = append(comments, models.Comment{
				ID:         item.ID,
				VideoID:    videoID,
				AuthorID:   snippet.AuthorChannelID.Value,
				AuthorName: snippet.AuthorDisplayName,
				Content:    snippet.TextOriginal,
				LikeCount:  snippet.LikeCount,
				ReplyCount: item.Snippet.TotalReplyCount,
				CreatedAt:  createdAt,
				Platform:   models.PlatformYouTube,
			})
			if len(comments) == maxComments {
				break
			}
		}

		if commentsResp.NextPageToken == "" {
			break
		}
		pageToken = commentsResp.NextPageToken
	}

	logrus.Debugf("Fetched %d comments for YouTube video %s", len(comments), videoID)
	return comments, nil
}

func parseCount(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
