package tweet

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrTweetNotFound is returned when no tweet matches the given id.
var ErrTweetNotFound = errors.New("tweet not found")

// ErrTweetNotClaimable is returned when a claim loses the compare-and-set:
// the tweet's status already moved on, so the caller must skip it.
var ErrTweetNotClaimable = errors.New("tweet not claimable")

type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusPosting   Status = "posting"
	StatusPosted    Status = "posted"
	StatusFailed    Status = "failed"
)

// MaxTextLength is the platform limit for a single tweet segment.
const MaxTextLength = 280

type Tweet struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"userId" json:"user_id"`
	Text         string             `bson:"text" json:"text"`
	Status       Status             `bson:"status" json:"status"`
	ScheduledFor *time.Time         `bson:"scheduledFor,omitempty" json:"scheduled_for,omitempty"`
	PostedAt     *time.Time         `bson:"postedAt,omitempty" json:"posted_at,omitempty"`
	TwitterID    string             `bson:"twitterId,omitempty" json:"twitter_id,omitempty"`
	FailReason   string             `bson:"failReason,omitempty" json:"fail_reason,omitempty"`
	MediaURLs    []string           `bson:"mediaUrls,omitempty" json:"media_urls,omitempty"`
	IsThread     bool               `bson:"isThread" json:"is_thread"`
	ThreadTweets []string           `bson:"threadTweets,omitempty" json:"thread_tweets,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updated_at"`
}

type CreateTweetRequest struct {
	UserID       string     `json:"user_id"`
	Text         string     `json:"text"`
	MediaURLs    []string   `json:"media_urls"`
	IsThread     bool       `json:"is_thread"`
	ThreadTweets []string   `json:"thread_tweets"`
	ScheduledFor *time.Time `json:"scheduled_for"`
}

type ScheduleTweetRequest struct {
	ID           string    `json:"id" uri:"id"`
	UserID       string    `json:"user_id"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

// ITweetRepository is the persistence boundary for tweet records.
// Claim is the only status transition that races with other runs: it must
// be an atomic compare-and-set on the current status.
type ITweetRepository interface {
	Create(ctx context.Context, t *Tweet) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*Tweet, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, status *Status) ([]Tweet, error)
	Delete(ctx context.Context, id primitive.ObjectID) error

	// SelectDue returns every tweet with status "scheduled" and
	// scheduledFor <= now, oldest schedule first.
	SelectDue(ctx context.Context, now time.Time) ([]Tweet, error)

	// Claim atomically transitions a tweet from one of the given statuses
	// to "posting" and returns the claimed document. Returns
	// ErrTweetNotClaimable if the tweet is no longer in any of them.
	Claim(ctx context.Context, id primitive.ObjectID, from []Status) (*Tweet, error)

	MarkPosted(ctx context.Context, id primitive.ObjectID, twitterID string, postedAt time.Time) error
	MarkFailed(ctx context.Context, id primitive.ObjectID, reason string) error

	// Reschedule sets status back to "scheduled" with a new time. This is
	// the external reschedule action; the dispatcher itself never calls it.
	Reschedule(ctx context.Context, id primitive.ObjectID, at time.Time) error

	// FailStalePosting fails tweets stuck in "posting" since before the
	// cutoff (a crashed run left them mid-flight). Returns how many.
	FailStalePosting(ctx context.Context, cutoff time.Time) (int64, error)
}

type ITweetUsecase interface {
	Create(ctx context.Context, req CreateTweetRequest) (Tweet, error)
	List(ctx context.Context, userID string, status *Status) ([]Tweet, error)
	GetByID(ctx context.Context, userID, id string) (Tweet, error)
	Schedule(ctx context.Context, req ScheduleTweetRequest) (Tweet, error)
	Delete(ctx context.Context, userID, id string) error
}
