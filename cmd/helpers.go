package cmd

import (
	"context"

	"github.com/sirupsen/logrus"
	globalConfig "github.com/twitboost/twitboost-api/config"
	domainDispatch "github.com/twitboost/twitboost-api/domains/dispatch"
	domainHealth "github.com/twitboost/twitboost-api/domains/health"
	domainTweet "github.com/twitboost/twitboost-api/domains/tweet"
	"github.com/twitboost/twitboost-api/infrastructure/twitter"
	"github.com/twitboost/twitboost-api/infrastructure/valkey"
	"github.com/twitboost/twitboost-api/pkg/dispatchworker"
	"github.com/twitboost/twitboost-api/pkg/runlog"
	"github.com/twitboost/twitboost-api/repository"
	"github.com/twitboost/twitboost-api/usecase"
	"go.mongodb.org/mongo-driver/mongo"
)

// appContainer holds the wired services for a running command.
type appContainer struct {
	mongoClient  *mongo.Client
	valkeyClient *valkey.Client

	tweetUsecase    domainTweet.ITweetUsecase
	dispatchUsecase domainDispatch.IDispatchUsecase
	healthUsecase   domainHealth.IHealthUsecase

	runLog *runlog.Log
	pool   *dispatchworker.Pool
}

// buildContainer connects the document store and wires every service the
// dispatcher needs. The pool is created but not started; the caller owns
// its lifecycle.
func buildContainer(ctx context.Context) (*appContainer, error) {
	if globalConfig.MongoDBURI == "" {
		logrus.Fatalln("MONGODB_URI is required")
	}

	mongoClient, db, err := repository.ConnectDB(ctx, globalConfig.MongoDBURI, globalConfig.MongoDBDatabase)
	if err != nil {
		return nil, err
	}

	var valkeyClient *valkey.Client
	if globalConfig.ValkeyEnabled {
		valkeyClient, err = valkey.NewClient(valkey.Config{
			Address:   globalConfig.ValkeyAddress,
			Password:  globalConfig.ValkeyPassword,
			DB:        globalConfig.ValkeyDB,
			KeyPrefix: globalConfig.ValkeyKeyPrefix,
		})
		if err != nil {
			logrus.WithError(err).Warn("Valkey unavailable, dispatch locks fall back to the store claim only")
			valkeyClient = nil
		}
	}

	tweetRepo := repository.NewMongoTweetRepository(db)
	userRepo := repository.NewMongoUserRepository(db)

	postClient := twitter.NewClient(
		globalConfig.TwitterAPIBaseURL,
		globalConfig.TwitterUploadBaseURL,
		globalConfig.TwitterHTTPTimeout,
	)
	mediaFetcher := twitter.NewMediaFetcher(globalConfig.TwitterHTTPTimeout, globalConfig.TwitterMaxMediaBytes)

	runLog := runlog.New(globalConfig.CronLogCapacity)
	pool := dispatchworker.New(globalConfig.DispatchWorkerPoolSize, globalConfig.DispatchQueueSize)

	credentialResolver := usecase.NewCredentialService(userRepo)
	dispatchUsecase := usecase.NewDispatchService(
		tweetRepo,
		credentialResolver,
		postClient,
		mediaFetcher,
		runLog,
		pool,
		valkeyClient,
		usecase.DispatchConfig{
			CallTimeout: globalConfig.TwitterHTTPTimeout,
			PostingTTL:  globalConfig.DispatchPostingTTL,
		},
	)

	return &appContainer{
		mongoClient:     mongoClient,
		valkeyClient:    valkeyClient,
		tweetUsecase:    usecase.NewTweetService(tweetRepo),
		dispatchUsecase: dispatchUsecase,
		healthUsecase:   usecase.NewHealthService(mongoClient, pool, runLog),
		runLog:          runLog,
		pool:            pool,
	}, nil
}

func (c *appContainer) close(ctx context.Context) {
	if c.valkeyClient != nil {
		c.valkeyClient.Close()
	}
	if err := c.mongoClient.Disconnect(ctx); err != nil {
		logrus.WithError(err).Warn("Failed to disconnect MongoDB cleanly")
	}
}
