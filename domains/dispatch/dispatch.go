package dispatch

import (
	"context"
	"time"
)

// Outcome statuses recorded per tweet in a run.
const (
	OutcomePosted  = "posted"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// TweetOutcome is one tweet's result within a dispatch run.
type TweetOutcome struct {
	TweetID       string   `json:"tweetId"`
	Status        string   `json:"status"`
	TwitterID     string   `json:"twitterId,omitempty"`
	ThreadCount   int      `json:"threadCount,omitempty"`
	Detail        string   `json:"detail,omitempty"`
	MediaWarnings []string `json:"mediaWarnings,omitempty"`
}

// RunSummary aggregates one dispatch run, scheduled or manual. It is also
// the shape appended to the in-memory run log.
type RunSummary struct {
	RunID     string         `json:"runId"`
	Timestamp time.Time      `json:"timestamp"`
	Processed int            `json:"processed"`
	Posted    int            `json:"posted"`
	Failed    int            `json:"failed"`
	Skipped   int            `json:"skipped"`
	Results   []TweetOutcome `json:"results"`
	Error     string         `json:"error,omitempty"`
}

// PlatformPost is the platform-assigned identity of a created post.
type PlatformPost struct {
	ID string `json:"id"`
}

// IPostClient is the boundary to the social platform. Thread segments are
// posted one call at a time; replyToID chains a segment to the previous
// one and is empty for the root.
type IPostClient interface {
	PostSingle(ctx context.Context, token, text string, mediaIDs []string) (PlatformPost, error)
	PostThreadSegment(ctx context.Context, token, text, replyToID string, mediaIDs []string) (PlatformPost, error)
	UploadMedia(ctx context.Context, token string, data []byte, mimeType string) (string, error)
}

// IMediaFetcher resolves an already-uploaded media URL into raw bytes and
// a mime type so the post client can re-upload them to the platform.
type IMediaFetcher interface {
	Fetch(ctx context.Context, url string) (data []byte, mimeType string, err error)
}

type IDispatchUsecase interface {
	// Run executes one full dispatch pass over all due tweets. Per-tweet
	// failures never abort the run; only being unable to select due
	// tweets at all returns a non-nil error (the summary still carries
	// the detail).
	Run(ctx context.Context) (RunSummary, error)

	// PostNow claims a single draft or scheduled tweet and posts it
	// immediately through the same per-tweet pipeline.
	PostNow(ctx context.Context, tweetID string) (TweetOutcome, error)
}
