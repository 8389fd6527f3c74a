package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	domainTweet "github.com/twitboost/twitboost-api/domains/tweet"
	pkgError "github.com/twitboost/twitboost-api/pkg/error"
)

func TestTweetCreate_DraftWhenUnscheduled(t *testing.T) {
	repo := newFakeTweetRepo()
	svc := NewTweetService(repo)

	created, err := svc.Create(context.Background(), domainTweet.CreateTweetRequest{
		UserID: primitive.NewObjectID().Hex(),
		Text:   "just a draft",
	})
	require.NoError(t, err)
	assert.Equal(t, domainTweet.StatusDraft, created.Status)
	assert.Nil(t, created.ScheduledFor)
}

func TestTweetCreate_ScheduledWhenTimeGiven(t *testing.T) {
	repo := newFakeTweetRepo()
	svc := NewTweetService(repo)

	at := time.Now().Add(2 * time.Hour)
	created, err := svc.Create(context.Background(), domainTweet.CreateTweetRequest{
		UserID:       primitive.NewObjectID().Hex(),
		Text:         "later",
		ScheduledFor: &at,
	})
	require.NoError(t, err)
	assert.Equal(t, domainTweet.StatusScheduled, created.Status)
	require.NotNil(t, created.ScheduledFor)
	assert.Equal(t, time.UTC, created.ScheduledFor.Location())
}

func TestTweetCreate_RejectsOverlongText(t *testing.T) {
	repo := newFakeTweetRepo()
	svc := NewTweetService(repo)

	long := make([]byte, domainTweet.MaxTextLength+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err := svc.Create(context.Background(), domainTweet.CreateTweetRequest{
		UserID: primitive.NewObjectID().Hex(),
		Text:   string(long),
	})
	require.Error(t, err)
}

func TestTweetCreate_RejectsEmptyThread(t *testing.T) {
	repo := newFakeTweetRepo()
	svc := NewTweetService(repo)

	_, err := svc.Create(context.Background(), domainTweet.CreateTweetRequest{
		UserID:   primitive.NewObjectID().Hex(),
		IsThread: true,
	})
	require.Error(t, err)
}

func TestTweetSchedule_FailedTweetCanBeRescheduled(t *testing.T) {
	repo := newFakeTweetRepo()
	svc := NewTweetService(repo)

	userID := primitive.NewObjectID()
	tw := repo.add(&domainTweet.Tweet{
		UserID:     userID,
		Text:       "try again",
		Status:     domainTweet.StatusFailed,
		FailReason: "some platform error",
	})

	at := time.Now().Add(time.Hour)
	updated, err := svc.Schedule(context.Background(), domainTweet.ScheduleTweetRequest{
		ID:           tw.ID.Hex(),
		UserID:       userID.Hex(),
		ScheduledFor: at,
	})
	require.NoError(t, err)
	assert.Equal(t, domainTweet.StatusScheduled, updated.Status)
	assert.Empty(t, updated.FailReason)

	stored := repo.get(tw.ID)
	assert.Equal(t, domainTweet.StatusScheduled, stored.Status)
}

func TestTweetSchedule_RejectsPostedTweet(t *testing.T) {
	repo := newFakeTweetRepo()
	svc := NewTweetService(repo)

	userID := primitive.NewObjectID()
	tw := repo.add(&domainTweet.Tweet{
		UserID: userID,
		Text:   "already out",
		Status: domainTweet.StatusPosted,
	})

	_, err := svc.Schedule(context.Background(), domainTweet.ScheduleTweetRequest{
		ID:           tw.ID.Hex(),
		UserID:       userID.Hex(),
		ScheduledFor: time.Now().Add(time.Hour),
	})
	require.Error(t, err)
	var vErr pkgError.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestTweetGetByID_OtherUsersTweetHidden(t *testing.T) {
	repo := newFakeTweetRepo()
	svc := NewTweetService(repo)

	owner := primitive.NewObjectID()
	tw := repo.add(&domainTweet.Tweet{UserID: owner, Text: "mine", Status: domainTweet.StatusDraft})

	_, err := svc.GetByID(context.Background(), primitive.NewObjectID().Hex(), tw.ID.Hex())
	require.Error(t, err)
	var nfErr pkgError.NotFoundError
	assert.ErrorAs(t, err, &nfErr, "ownership mismatch must read as not found, not forbidden")
}

func TestTweetDelete_RemovesOwnTweet(t *testing.T) {
	repo := newFakeTweetRepo()
	svc := NewTweetService(repo)

	owner := primitive.NewObjectID()
	tw := repo.add(&domainTweet.Tweet{UserID: owner, Text: "gone soon", Status: domainTweet.StatusDraft})

	require.NoError(t, svc.Delete(context.Background(), owner.Hex(), tw.ID.Hex()))
	_, err := repo.GetByID(context.Background(), tw.ID)
	assert.ErrorIs(t, err, domainTweet.ErrTweetNotFound)
}
