package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	domainDispatch "github.com/twitboost/twitboost-api/domains/dispatch"
	domainTweet "github.com/twitboost/twitboost-api/domains/tweet"
	domainUser "github.com/twitboost/twitboost-api/domains/user"
	"github.com/twitboost/twitboost-api/infrastructure/valkey"
	"github.com/twitboost/twitboost-api/pkg/dispatchworker"
	"github.com/twitboost/twitboost-api/pkg/runlog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	missingTokenReason = "missing access token"
	tweetLockTTL       = 30 * time.Second
)

type DispatchConfig struct {
	CallTimeout time.Duration
	PostingTTL  time.Duration
}

type dispatchService struct {
	tweets       domainTweet.ITweetRepository
	credentials  domainUser.ICredentialResolver
	poster       domainDispatch.IPostClient
	media        domainDispatch.IMediaFetcher
	runLog       *runlog.Log
	pool         *dispatchworker.Pool
	valkeyClient *valkey.Client
	callTimeout  time.Duration
	postingTTL   time.Duration
}

// NewDispatchService wires the dispatch orchestrator. valkeyClient may be
// nil; the per-tweet Mongo claim alone prevents double-posting.
func NewDispatchService(
	tweets domainTweet.ITweetRepository,
	credentials domainUser.ICredentialResolver,
	poster domainDispatch.IPostClient,
	media domainDispatch.IMediaFetcher,
	runLog *runlog.Log,
	pool *dispatchworker.Pool,
	valkeyClient *valkey.Client,
	cfg DispatchConfig,
) domainDispatch.IDispatchUsecase {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 15 * time.Second
	}
	if cfg.PostingTTL <= 0 {
		cfg.PostingTTL = 10 * time.Minute
	}
	return &dispatchService{
		tweets:       tweets,
		credentials:  credentials,
		poster:       poster,
		media:        media,
		runLog:       runLog,
		pool:         pool,
		valkeyClient: valkeyClient,
		callTimeout:  cfg.CallTimeout,
		postingTTL:   cfg.PostingTTL,
	}
}

// Run executes one dispatch pass: sweep stale claims, select due tweets,
// fan them out across the pool keyed by owner, aggregate outcomes, append
// the run entry. A single tweet's failure never aborts the batch.
func (s *dispatchService) Run(ctx context.Context) (domainDispatch.RunSummary, error) {
	now := time.Now().UTC()
	summary := domainDispatch.RunSummary{
		RunID:     uuid.NewString(),
		Timestamp: now,
		Results:   []domainDispatch.TweetOutcome{},
	}

	if swept, err := s.tweets.FailStalePosting(ctx, now.Add(-s.postingTTL)); err != nil {
		logrus.WithError(err).Warn("[DISPATCH] Stale posting sweep failed")
	} else if swept > 0 {
		logrus.Warnf("[DISPATCH] Failed %d tweets stuck in posting", swept)
	}

	due, err := s.tweets.SelectDue(ctx, now)
	if err != nil {
		summary.Error = fmt.Sprintf("failed to select due tweets: %v", err)
		s.runLog.Record(summary)
		logrus.WithError(err).Error("[DISPATCH] Run aborted before processing")
		return summary, err
	}

	logrus.Infof("[DISPATCH] Run %s started, %d tweets due", summary.RunID, len(due))

	var (
		mu       sync.Mutex
		outcomes []domainDispatch.TweetOutcome
		wg       sync.WaitGroup
	)
	for i := range due {
		t := due[i]
		wg.Add(1)
		submitted := s.pool.Submit(dispatchworker.Job{
			Key: t.UserID.Hex(),
			Handler: func(jobCtx context.Context) {
				defer wg.Done()
				outcome := s.processDue(jobCtx, &t)
				mu.Lock()
				outcomes = append(outcomes, outcome)
				mu.Unlock()
			},
		})
		if !submitted {
			wg.Done()
			logrus.Warnf("[DISPATCH] Pool stopped, tweet %s left for next run", t.ID.Hex())
		}
	}
	wg.Wait()

	// Stable order for the audit record; workers finish in any order.
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].TweetID < outcomes[j].TweetID })

	summary.Results = outcomes
	summary.Processed = len(outcomes)
	for _, o := range outcomes {
		switch o.Status {
		case domainDispatch.OutcomePosted:
			summary.Posted++
		case domainDispatch.OutcomeFailed:
			summary.Failed++
		case domainDispatch.OutcomeSkipped:
			summary.Skipped++
		}
	}

	s.runLog.Record(summary)
	logrus.Infof("[DISPATCH] Run %s completed: %d posted, %d failed", summary.RunID, summary.Posted, summary.Failed)
	return summary, nil
}

// PostNow claims a draft or scheduled tweet outside the schedule and runs
// it through the same pipeline. The outcome is also recorded as a
// single-tweet run entry.
func (s *dispatchService) PostNow(ctx context.Context, tweetID string) (domainDispatch.TweetOutcome, error) {
	id, err := primitive.ObjectIDFromHex(tweetID)
	if err != nil {
		return domainDispatch.TweetOutcome{}, fmt.Errorf("invalid tweet id: %w", err)
	}

	claimed, err := s.tweets.Claim(ctx, id, []domainTweet.Status{domainTweet.StatusDraft, domainTweet.StatusScheduled})
	if err != nil {
		if errors.Is(err, domainTweet.ErrTweetNotClaimable) {
			return domainDispatch.TweetOutcome{}, err
		}
		return domainDispatch.TweetOutcome{}, fmt.Errorf("failed to claim tweet: %w", err)
	}

	outcome := s.processClaimed(ctx, claimed)

	summary := domainDispatch.RunSummary{
		RunID:     uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Processed: 1,
		Results:   []domainDispatch.TweetOutcome{outcome},
	}
	if outcome.Status == domainDispatch.OutcomePosted {
		summary.Posted = 1
	} else {
		summary.Failed = 1
	}
	s.runLog.Record(summary)

	return outcome, nil
}

// processDue claims one due tweet and posts it. A lost claim means
// another run holds or already handled the tweet; it is recorded as
// skipped so the run still accounts for every tweet it considered.
func (s *dispatchService) processDue(ctx context.Context, t *domainTweet.Tweet) domainDispatch.TweetOutcome {
	skipped := func(reason string) domainDispatch.TweetOutcome {
		logrus.Debugf("[DISPATCH] Tweet %s skipped: %s", t.ID.Hex(), reason)
		return domainDispatch.TweetOutcome{
			TweetID: t.ID.Hex(),
			Status:  domainDispatch.OutcomeSkipped,
			Detail:  reason,
		}
	}

	if s.valkeyClient != nil {
		lockKey := s.valkeyClient.Key("lock", "dispatch", t.ID.Hex())
		if !s.valkeyClient.AcquireLock(ctx, lockKey, tweetLockTTL) {
			return skipped("locked by another run")
		}
		defer s.valkeyClient.ReleaseLock(ctx, lockKey)
	}

	claimed, err := s.tweets.Claim(ctx, t.ID, []domainTweet.Status{domainTweet.StatusScheduled})
	if err != nil {
		if errors.Is(err, domainTweet.ErrTweetNotClaimable) {
			return skipped("no longer scheduled")
		}
		logrus.WithError(err).Errorf("[DISPATCH] Failed to claim tweet %s", t.ID.Hex())
		return domainDispatch.TweetOutcome{
			TweetID: t.ID.Hex(),
			Status:  domainDispatch.OutcomeFailed,
			Detail:  fmt.Sprintf("claim failed: %v", err),
		}
	}

	return s.processClaimed(ctx, claimed)
}

// processClaimed runs the per-tweet state machine on a tweet already in
// "posting". Every path out of here lands the tweet in "posted" or
// "failed".
func (s *dispatchService) processClaimed(ctx context.Context, t *domainTweet.Tweet) domainDispatch.TweetOutcome {
	outcome := domainDispatch.TweetOutcome{TweetID: t.ID.Hex()}

	token, connected, err := s.credentials.Resolve(ctx, t.UserID)
	if err != nil {
		return s.fail(ctx, t, outcome, fmt.Sprintf("credential lookup failed: %v", err))
	}
	if !connected {
		logrus.Warnf("[DISPATCH] No Twitter token for user %s", t.UserID.Hex())
		return s.fail(ctx, t, outcome, missingTokenReason)
	}

	mediaIDs, warnings := s.uploadMedia(ctx, token, t)
	outcome.MediaWarnings = warnings

	var root domainDispatch.PlatformPost
	if t.IsThread && len(t.ThreadTweets) > 0 {
		root, err = s.postThread(ctx, token, t, mediaIDs)
		outcome.ThreadCount = len(t.ThreadTweets)
	} else {
		root, err = s.postSingleWithTimeout(ctx, token, t.Text, mediaIDs)
	}
	if err != nil {
		logrus.WithError(err).Errorf("[DISPATCH] Failed to post tweet %s", t.ID.Hex())
		return s.fail(ctx, t, outcome, err.Error())
	}

	outcome.Status = domainDispatch.OutcomePosted
	outcome.TwitterID = root.ID

	postedAt := time.Now().UTC()
	if err := s.markPostedWithTimeout(ctx, t.ID, root.ID, postedAt); err != nil {
		// The platform post succeeded; never hide that behind a storage
		// error. Operators reconcile from the outcome detail.
		logrus.WithError(err).Errorf("[DISPATCH] Tweet %s posted but status write-back failed", t.ID.Hex())
		outcome.Detail = fmt.Sprintf("posted on platform (id %s) but status write-back failed: %v", root.ID, err)
	}

	logrus.Infof("[DISPATCH] Tweet %s posted as %s", t.ID.Hex(), root.ID)
	return outcome
}

// postThread posts the segments strictly in order, each replying to the
// platform id of the previous one. Media attaches to the root only. The
// returned post is the root: its id is what gets persisted.
func (s *dispatchService) postThread(ctx context.Context, token string, t *domainTweet.Tweet, mediaIDs []string) (domainDispatch.PlatformPost, error) {
	var root, prev domainDispatch.PlatformPost
	for i, text := range t.ThreadTweets {
		replyTo := ""
		segmentMedia := mediaIDs
		if i > 0 {
			replyTo = prev.ID
			segmentMedia = nil
		}

		callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
		post, err := s.poster.PostThreadSegment(callCtx, token, text, replyTo, segmentMedia)
		cancel()
		if err != nil {
			return root, fmt.Errorf("thread segment %d/%d: %w", i+1, len(t.ThreadTweets), err)
		}
		if i == 0 {
			root = post
		}
		prev = post
	}
	return root, nil
}

// uploadMedia resolves and uploads each attached URL. Failures degrade to
// a text-only post; the warning is kept for the run record.
func (s *dispatchService) uploadMedia(ctx context.Context, token string, t *domainTweet.Tweet) ([]string, []string) {
	var mediaIDs, warnings []string
	for _, url := range t.MediaURLs {
		callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
		data, mimeType, err := s.media.Fetch(callCtx, url)
		cancel()
		if err != nil {
			logrus.WithError(err).Warnf("[DISPATCH] Media fetch failed for tweet %s", t.ID.Hex())
			warnings = append(warnings, fmt.Sprintf("media fetch failed for %s: %v", url, err))
			continue
		}

		callCtx, cancel = context.WithTimeout(ctx, s.callTimeout)
		mediaID, err := s.poster.UploadMedia(callCtx, token, data, mimeType)
		cancel()
		if err != nil {
			logrus.WithError(err).Warnf("[DISPATCH] Media upload failed for tweet %s", t.ID.Hex())
			warnings = append(warnings, fmt.Sprintf("media upload failed for %s: %v", url, err))
			continue
		}
		mediaIDs = append(mediaIDs, mediaID)
	}
	return mediaIDs, warnings
}

func (s *dispatchService) postSingleWithTimeout(ctx context.Context, token, text string, mediaIDs []string) (domainDispatch.PlatformPost, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	return s.poster.PostSingle(callCtx, token, text, mediaIDs)
}

func (s *dispatchService) markPostedWithTimeout(ctx context.Context, id primitive.ObjectID, twitterID string, at time.Time) error {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	return s.tweets.MarkPosted(callCtx, id, twitterID, at)
}

func (s *dispatchService) fail(ctx context.Context, t *domainTweet.Tweet, outcome domainDispatch.TweetOutcome, reason string) domainDispatch.TweetOutcome {
	outcome.Status = domainDispatch.OutcomeFailed
	outcome.Detail = reason

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	if err := s.tweets.MarkFailed(callCtx, t.ID, reason); err != nil {
		logrus.WithError(err).Errorf("[DISPATCH] Failed to mark tweet %s failed", t.ID.Hex())
	}
	return outcome
}
