package usecase

import (
	"context"
	"time"

	domainHealth "github.com/twitboost/twitboost-api/domains/health"
	"github.com/twitboost/twitboost-api/pkg/dispatchworker"
	"github.com/twitboost/twitboost-api/pkg/runlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type healthService struct {
	mongoClient *mongo.Client
	pool        *dispatchworker.Pool
	runLog      *runlog.Log
}

func NewHealthService(mongoClient *mongo.Client, pool *dispatchworker.Pool, runLog *runlog.Log) domainHealth.IHealthUsecase {
	return &healthService{
		mongoClient: mongoClient,
		pool:        pool,
		runLog:      runLog,
	}
}

func (s *healthService) GetStatus(ctx context.Context) (domainHealth.Status, error) {
	status := domainHealth.Status{
		Database:   "ok",
		RunLogSize: s.runLog.Len(),
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.mongoClient.Ping(pingCtx, readpref.Primary()); err != nil {
		status.Database = "unreachable"
	}

	if s.pool != nil {
		stats := s.pool.Stats()
		status.PoolWorkers = stats.NumWorkers
		status.PoolInFlight = stats.InFlight
	}
	return status, nil
}
