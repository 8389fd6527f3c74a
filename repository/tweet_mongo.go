package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainTweet "github.com/twitboost/twitboost-api/domains/tweet"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const tweetCollectionName = "tweets"

// MongoTweetRepository implements domainTweet.ITweetRepository on the
// document store.
type MongoTweetRepository struct {
	collection *mongo.Collection
}

func NewMongoTweetRepository(db *mongo.Database) *MongoTweetRepository {
	return &MongoTweetRepository{
		collection: db.Collection(tweetCollectionName),
	}
}

func (r *MongoTweetRepository) Create(ctx context.Context, t *domainTweet.Tweet) error {
	now := time.Now().UTC()
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	t.CreatedAt = now
	t.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("failed to insert tweet: %w", err)
	}
	return nil
}

func (r *MongoTweetRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domainTweet.Tweet, error) {
	var t domainTweet.Tweet
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domainTweet.ErrTweetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find tweet: %w", err)
	}
	return &t, nil
}

func (r *MongoTweetRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, status *domainTweet.Status) ([]domainTweet.Tweet, error) {
	filter := bson.M{"userId": userID}
	if status != nil {
		filter["status"] = *status
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list tweets: %w", err)
	}
	defer cursor.Close(ctx)

	var tweets []domainTweet.Tweet
	if err := cursor.All(ctx, &tweets); err != nil {
		return nil, fmt.Errorf("failed to decode tweets: %w", err)
	}
	return tweets, nil
}

func (r *MongoTweetRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete tweet: %w", err)
	}
	if res.DeletedCount == 0 {
		return domainTweet.ErrTweetNotFound
	}
	return nil
}

// SelectDue returns every scheduled tweet whose time has passed, oldest
// schedule first. Pure read; the claim happens per tweet afterwards.
func (r *MongoTweetRepository) SelectDue(ctx context.Context, now time.Time) ([]domainTweet.Tweet, error) {
	filter := bson.M{
		"status":       domainTweet.StatusScheduled,
		"scheduledFor": bson.M{"$lte": now},
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "scheduledFor", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to find due tweets: %w", err)
	}
	defer cursor.Close(ctx)

	var tweets []domainTweet.Tweet
	if err := cursor.All(ctx, &tweets); err != nil {
		return nil, fmt.Errorf("failed to decode due tweets: %w", err)
	}
	return tweets, nil
}

// Claim flips status to "posting" iff it is still one of the given
// statuses. Losing the race returns domainTweet.ErrTweetNotClaimable so concurrent
// runs cannot double-post the same tweet.
func (r *MongoTweetRepository) Claim(ctx context.Context, id primitive.ObjectID, from []domainTweet.Status) (*domainTweet.Tweet, error) {
	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": from},
	}
	update := bson.M{"$set": bson.M{
		"status":    domainTweet.StatusPosting,
		"updatedAt": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var t domainTweet.Tweet
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domainTweet.ErrTweetNotClaimable
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim tweet: %w", err)
	}
	return &t, nil
}

func (r *MongoTweetRepository) MarkPosted(ctx context.Context, id primitive.ObjectID, twitterID string, postedAt time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"status":    domainTweet.StatusPosted,
			"postedAt":  postedAt,
			"twitterId": twitterID,
			"updatedAt": time.Now().UTC(),
		},
		"$unset": bson.M{"failReason": ""},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to mark tweet posted: %w", err)
	}
	if res.MatchedCount == 0 {
		return domainTweet.ErrTweetNotFound
	}
	return nil
}

func (r *MongoTweetRepository) MarkFailed(ctx context.Context, id primitive.ObjectID, reason string) error {
	update := bson.M{"$set": bson.M{
		"status":     domainTweet.StatusFailed,
		"failReason": reason,
		"updatedAt":  time.Now().UTC(),
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to mark tweet failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return domainTweet.ErrTweetNotFound
	}
	return nil
}

func (r *MongoTweetRepository) Reschedule(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"status":       domainTweet.StatusScheduled,
			"scheduledFor": at,
			"updatedAt":    time.Now().UTC(),
		},
		"$unset": bson.M{"failReason": ""},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to reschedule tweet: %w", err)
	}
	if res.MatchedCount == 0 {
		return domainTweet.ErrTweetNotFound
	}
	return nil
}

// FailStalePosting fails tweets stuck in "posting" since before cutoff.
// A crashed run leaves its claims behind; without this sweep they would
// sit in limbo forever.
func (r *MongoTweetRepository) FailStalePosting(ctx context.Context, cutoff time.Time) (int64, error) {
	filter := bson.M{
		"status":    domainTweet.StatusPosting,
		"updatedAt": bson.M{"$lt": cutoff},
	}
	update := bson.M{"$set": bson.M{
		"status":     domainTweet.StatusFailed,
		"failReason": "dispatch interrupted: stale posting claim",
		"updatedAt":  time.Now().UTC(),
	}}
	res, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep stale posting tweets: %w", err)
	}
	return res.ModifiedCount, nil
}
