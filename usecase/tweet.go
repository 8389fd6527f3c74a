package usecase

import (
	"context"
	"fmt"

	domainTweet "github.com/twitboost/twitboost-api/domains/tweet"
	pkgError "github.com/twitboost/twitboost-api/pkg/error"
	"github.com/twitboost/twitboost-api/validations"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type tweetService struct {
	tweets domainTweet.ITweetRepository
}

func NewTweetService(tweets domainTweet.ITweetRepository) domainTweet.ITweetUsecase {
	return &tweetService{tweets: tweets}
}

func (s *tweetService) Create(ctx context.Context, req domainTweet.CreateTweetRequest) (domainTweet.Tweet, error) {
	if err := validations.ValidateCreateTweet(ctx, req); err != nil {
		return domainTweet.Tweet{}, err
	}

	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		return domainTweet.Tweet{}, pkgError.ValidationError("user_id is not a valid id")
	}

	t := domainTweet.Tweet{
		UserID:       userID,
		Text:         req.Text,
		Status:       domainTweet.StatusDraft,
		MediaURLs:    req.MediaURLs,
		IsThread:     req.IsThread,
		ThreadTweets: req.ThreadTweets,
	}
	if req.ScheduledFor != nil {
		at := req.ScheduledFor.UTC()
		t.Status = domainTweet.StatusScheduled
		t.ScheduledFor = &at
	}

	if err := s.tweets.Create(ctx, &t); err != nil {
		return domainTweet.Tweet{}, fmt.Errorf("failed to create tweet: %w", err)
	}
	return t, nil
}

func (s *tweetService) List(ctx context.Context, userID string, status *domainTweet.Status) ([]domainTweet.Tweet, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, pkgError.ValidationError("user_id is not a valid id")
	}
	return s.tweets.ListByUser(ctx, uid, status)
}

func (s *tweetService) GetByID(ctx context.Context, userID, id string) (domainTweet.Tweet, error) {
	t, err := s.owned(ctx, userID, id)
	if err != nil {
		return domainTweet.Tweet{}, err
	}
	return *t, nil
}

// Schedule is the external (re)schedule action: it moves a draft or
// failed tweet back to "scheduled". This is the only path that ever sets
// a tweet back to scheduled; the dispatcher never does.
func (s *tweetService) Schedule(ctx context.Context, req domainTweet.ScheduleTweetRequest) (domainTweet.Tweet, error) {
	if err := validations.ValidateScheduleTweet(ctx, req); err != nil {
		return domainTweet.Tweet{}, err
	}

	t, err := s.owned(ctx, req.UserID, req.ID)
	if err != nil {
		return domainTweet.Tweet{}, err
	}
	if t.Status == domainTweet.StatusPosting || t.Status == domainTweet.StatusPosted {
		return domainTweet.Tweet{}, pkgError.ValidationError(fmt.Sprintf("tweet in status %q cannot be scheduled", t.Status))
	}

	at := req.ScheduledFor.UTC()
	if err := s.tweets.Reschedule(ctx, t.ID, at); err != nil {
		return domainTweet.Tweet{}, fmt.Errorf("failed to schedule tweet: %w", err)
	}

	t.Status = domainTweet.StatusScheduled
	t.ScheduledFor = &at
	t.FailReason = ""
	return *t, nil
}

func (s *tweetService) Delete(ctx context.Context, userID, id string) error {
	t, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	return s.tweets.Delete(ctx, t.ID)
}

// owned loads a tweet and enforces that it belongs to the requesting
// user. Ownership is exclusive at the API layer; the dispatcher itself
// operates across all owners.
func (s *tweetService) owned(ctx context.Context, userID, id string) (*domainTweet.Tweet, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, pkgError.ValidationError("user_id is not a valid id")
	}
	tid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, pkgError.ValidationError("tweet id is not a valid id")
	}

	t, err := s.tweets.GetByID(ctx, tid)
	if err != nil {
		return nil, err
	}
	if t.UserID != uid {
		return nil, pkgError.NotFoundError("tweet not found")
	}
	return t, nil
}
