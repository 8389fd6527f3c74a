package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	domainDispatch "github.com/twitboost/twitboost-api/domains/dispatch"
)

const defaultHTTPTimeout = 15 * time.Second

// PlatformError is a Twitter-side rejection: bad content, rate limit, or
// an auth problem. The detail is the platform's human-readable reason.
type PlatformError struct {
	Status int
	Detail string
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("twitter api error (status %d): %s", e.Status, e.Detail)
}

// Client talks to the Twitter API v2 create-post endpoint and the v1.1
// media upload endpoint using per-user OAuth2 bearer tokens.
type Client struct {
	httpClient    *http.Client
	apiBaseURL    string
	uploadBaseURL string
}

var _ domainDispatch.IPostClient = (*Client)(nil)

func NewClient(apiBaseURL, uploadBaseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &Client{
		httpClient:    &http.Client{Timeout: timeout},
		apiBaseURL:    strings.TrimSuffix(apiBaseURL, "/"),
		uploadBaseURL: strings.TrimSuffix(uploadBaseURL, "/"),
	}
}

type tweetPayload struct {
	Text  string        `json:"text"`
	Reply *replyPayload `json:"reply,omitempty"`
	Media *mediaPayload `json:"media,omitempty"`
}

type replyPayload struct {
	InReplyToTweetID string `json:"in_reply_to_tweet_id"`
}

type mediaPayload struct {
	MediaIDs []string `json:"media_ids"`
}

type tweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

type apiErrorResponse struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *Client) PostSingle(ctx context.Context, token, text string, mediaIDs []string) (domainDispatch.PlatformPost, error) {
	payload := tweetPayload{Text: text}
	if len(mediaIDs) > 0 {
		payload.Media = &mediaPayload{MediaIDs: mediaIDs}
	}
	return c.createTweet(ctx, token, payload)
}

func (c *Client) PostThreadSegment(ctx context.Context, token, text, replyToID string, mediaIDs []string) (domainDispatch.PlatformPost, error) {
	payload := tweetPayload{Text: text}
	if replyToID != "" {
		payload.Reply = &replyPayload{InReplyToTweetID: replyToID}
	}
	if len(mediaIDs) > 0 {
		payload.Media = &mediaPayload{MediaIDs: mediaIDs}
	}
	return c.createTweet(ctx, token, payload)
}

func (c *Client) createTweet(ctx context.Context, token string, payload tweetPayload) (domainDispatch.PlatformPost, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return domainDispatch.PlatformPost{}, fmt.Errorf("failed to encode tweet payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBaseURL+"/2/tweets", bytes.NewReader(body))
	if err != nil {
		return domainDispatch.PlatformPost{}, fmt.Errorf("failed to build tweet request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domainDispatch.PlatformPost{}, fmt.Errorf("tweet request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domainDispatch.PlatformPost{}, c.asPlatformError(resp)
	}

	var result tweetResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domainDispatch.PlatformPost{}, fmt.Errorf("failed to decode tweet response: %w", err)
	}
	if result.Data.ID == "" {
		return domainDispatch.PlatformPost{}, &PlatformError{Status: resp.StatusCode, Detail: "response missing tweet id"}
	}

	logrus.WithField("tweet_id", result.Data.ID).Debug("[TWITTER] Tweet created")
	return domainDispatch.PlatformPost{ID: result.Data.ID}, nil
}

// UploadMedia pushes one media object through the v1.1 upload endpoint
// and returns the platform media id to attach on the post call.
func (c *Client) UploadMedia(ctx context.Context, token string, data []byte, mimeType string) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="media"; filename="media"`)
	if mimeType != "" {
		header.Set("Content-Type", mimeType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to build media form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write media form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize media form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadBaseURL+"/1.1/media/upload.json", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	logrus.WithFields(logrus.Fields{
		"size": humanize.Bytes(uint64(len(data))),
		"mime": mimeType,
	}).Debug("[TWITTER] Uploading media")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("media upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", c.asPlatformError(resp)
	}

	var result struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if result.MediaIDString == "" {
		return "", &PlatformError{Status: resp.StatusCode, Detail: "response missing media id"}
	}
	return result.MediaIDString, nil
}

func (c *Client) asPlatformError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var apiErr apiErrorResponse
	detail := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &apiErr); err == nil {
		switch {
		case apiErr.Detail != "":
			detail = apiErr.Detail
		case apiErr.Title != "":
			detail = apiErr.Title
		case len(apiErr.Errors) > 0 && apiErr.Errors[0].Message != "":
			detail = apiErr.Errors[0].Message
		}
	}
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}
	return &PlatformError{Status: resp.StatusCode, Detail: detail}
}
