package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/BinaryFighter-01/commentiq/internal/apperr"
	"github.com/BinaryFighter-01/commentiq/internal/models"
)

// RedditSource fetches post metadata and comments via the Reddit OAuth API
type RedditSource struct {
	clientID     string
	clientSecret string
	client       *resty.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

var _ Source = (*RedditSource)(nil)

// Accepted URL shapes: full permalinks and redd.it short links
var redditURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`reddit\.com/r/[A-Za-z0-9_]+/comments/([a-z0-9]+)`),
	regexp.MustCompile(`redd\.it/([a-z0-9]+)`),
}

type redditAuthResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type redditListing struct {
	Data struct {
		Children []struct {
			Kind string          `json:"kind"`
			Data json.RawMessage `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	Permalink   string  `json:"permalink"`
	Created     float64 `json:"created_utc"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
}

type redditComment struct {
	ID      string          `json:"id"`
	Author  string          `json:"author"`
	Body    string          `json:"body"`
	Score   int             `json:"score"`
	Created float64         `json:"created_utc"`
	Replies json.RawMessage `json:"replies"`
}

// NewRedditSource creates a new Reddit source
func NewRedditSource(clientID, clientSecret string) *RedditSource {
	return &RedditSource{
		clientID:     clientID,
		clientSecret: clientSecret,
		client: resty.New().
			SetTimeout(30 * time.Second).
			SetHeader("User-Agent", "CommentIQ/1.0"),
	}
}

func (r *RedditSource) GetName() string {
	return "reddit"
}

func (r *RedditSource) Platform() models.Platform {
	return models.PlatformReddit
}

func (r *RedditSource) IsEnabled() bool {
	return r.clientID != "" && r.clientSecret != ""
}

// ExtractVideoID pulls the post ID out of a Reddit permalink or short link
func (r *RedditSource) ExtractVideoID(rawURL string) (string, error) {
	for _, pattern := range redditURLPatterns {
		if match := pattern.FindStringSubmatch(rawURL); match != nil {
			return match[1], nil
		}
	}
	return "", apperr.New(apperr.KindInvalidInput, fmt.Sprintf("not a recognizable Reddit post URL: %s", rawURL))
}

func (r *RedditSource) FetchVideo(ctx context.Context, postID string) (*models.VideoMetadata, error) {
	post, _, err := r.fetchThread(ctx, postID, 1)
	if err != nil {
		return nil, err
	}

	return &models.VideoMetadata{
		VideoID:      post.ID,
		Platform:     models.PlatformReddit,
		Title:        post.Title,
		URL:          fmt.Sprintf("https://reddit.com%s", post.Permalink),
		Likes:        post.Score,
		CommentCount: post.NumComments,
		AuthorName:   post.Author,
		AuthorID:     post.Author,
		FetchedAt:    time.Now().UTC(),
	}, nil
}

// FetchComments returns the post's top-level comments, newest API ordering,
// capped at maxComments. Deleted comments (empty author or body) are skipped.
func (r *RedditSource) FetchComments(ctx context.Context, postID string, maxComments int) ([]models.Comment, error) {
	_, rawComments, err := r.fetchThread(ctx, postID, maxComments)
	if err != nil {
		return nil, err
	}

	var comments []models.Comment
	for _, rc := range rawComments {
		if rc.Author == "" || rc.Body == "" || rc.Body == "[deleted]" || rc.Body == "[removed]" {
			continue
		}

		comments = append(comments, models.Comment{
			ID:         rc.ID,
			VideoID:    postID,
			AuthorID:   rc.Author,
			AuthorName: rc.Author,
			Content:    rc.Body,
			LikeCount:  rc.Score,
			ReplyCount: countReplies(rc.Replies),
			CreatedAt:  time.Unix(int64(rc.Created), 0).UTC(),
			Platform:   models.PlatformReddit,
		})
		if len(comments) == maxComments {
			break
		}
	}

	logrus.Debugf("Fetched %d comments for Reddit post %s", len(comments), postID)
	return comments, nil
}

// fetchThread hits the comments endpoint once; Reddit returns a two-element
// array, post listing then comment listing
func (r *RedditSource) fetchThread(ctx context.Context, postID string, limit int) (*redditPost, []redditComment, error) {
	token, err := r.token(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("reddit authentication failed: %w", err)
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetQueryParams(map[string]string{
			"limit": strconv.Itoa(limit),
			"depth": "1",
			"sort":  "top",
		}).
		Get(fmt.Sprintf("https://oauth.reddit.com/comments/%s.json", postID))

	if err != nil {
		return nil, nil, fmt.Errorf("reddit request failed: %w", err)
	}
	if resp.StatusCode() == 404 {
		return nil, nil, apperr.New(apperr.KindNotFound, fmt.Sprintf("Reddit post %s not found", postID))
	}
	if resp.StatusCode() != 200 {
		return nil, nil, fmt.Errorf("reddit API returned status %d", resp.StatusCode())
	}

	var listings []redditListing
	if err := json.Unmarshal(resp.Body(), &listings); err != nil {
		return nil, nil, fmt.Errorf("failed to parse Reddit response: %w", err)
	}
	if len(listings) < 2 || len(listings[0].Data.Children) == 0 {
		return nil, nil, apperr.New(apperr.KindNotFound, fmt.Sprintf("Reddit post %s not found", postID))
	}

	var post redditPost
	if err := json.Unmarshal(listings[0].Data.Children[0].Data, &post); err != nil {
		return nil, nil, fmt.Errorf("failed to parse Reddit post: %w", err)
	}

	var comments []redditComment
	for _, child := range listings[1].Data.Children {
		if child.Kind != "t1" {
			continue // "more" stubs and other non-comment kinds
		}
		var rc redditComment
		if err := json.Unmarshal(child.Data, &rc); err != nil {
			logrus.Errorf("Failed to parse Reddit comment: %v", err)
			continue
		}
		comments = append(comments, rc)
	}

	return &post, comments, nil
}

// token returns a valid app-only OAuth token, reusing the cached one until
// shortly before expiry
func (r *RedditSource) token(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.accessToken != "" && time.Now().Before(r.tokenExpiry.Add(-time.Minute)) {
		return r.accessToken, nil
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetBasicAuth(r.clientID, r.clientSecret).
		SetFormData(map[string]string{
			"grant_type": "client_credentials",
		}).
		Post("https://www.reddit.com/api/v1/access_token")

	if err != nil {
		return "", err
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("reddit auth returned status %d", resp.StatusCode())
	}

	var authResp redditAuthResponse
	if err := json.Unmarshal(resp.Body(), &authResp); err != nil {
		return "", err
	}
	if authResp.AccessToken == "" {
		return "", fmt.Errorf("reddit auth returned empty token")
	}

	r.accessToken = authResp.AccessToken
	r.tokenExpiry = time.Now().Add(time.Duration(authResp.ExpiresIn) * time.Second)
	return r.accessToken, nil
}

// Reddit nests replies as a listing or an empty string
func countReplies(raw json.RawMessage) int {
	if len(raw) == 0 || string(raw) == `""` {
		return 0
	}
	var listing redditListing
	if err := json.Unmarshal(raw, &listing); err != nil {
		return 0
	}
	return len(listing.Data.Children)
}
