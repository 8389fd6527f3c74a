package dispatchworker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_SameKeySequentialProcessing(t *testing.T) {
	pool := New(4, 100)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	defer pool.Stop()

	var results []int
	var mu sync.Mutex

	for i := 1; i <= 5; i++ {
		val := i
		pool.Submit(Job{
			Key: "user-1",
			Handler: func(ctx context.Context) {
				time.Sleep(10 * time.Millisecond)
				mu.Lock()
				results = append(results, val)
				mu.Unlock()
			},
		})
	}

	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{1, 2, 3, 4, 5}, results, "jobs for one key must run in submission order")
}

func TestPool_DifferentKeysParallelProcessing(t *testing.T) {
	pool := New(4, 100)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	defer pool.Stop()

	var activeCount int32

	for i := 0; i < 4; i++ {
		pool.Submit(Job{
			Key: string(rune('A' + i)),
			Handler: func(ctx context.Context) {
				atomic.AddInt32(&activeCount, 1)
				time.Sleep(50 * time.Millisecond)
				atomic.AddInt32(&activeCount, -1)
			},
		})
	}

	time.Sleep(10 * time.Millisecond)

	active := atomic.LoadInt32(&activeCount)
	assert.GreaterOrEqual(t, active, int32(2), "distinct keys should run in parallel")
}

func TestPool_RespectsMaxWorkers(t *testing.T) {
	maxWorkers := 3
	pool := New(maxWorkers, 100)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	defer pool.Stop()

	var activeCount int32
	var maxActive int32

	for i := 0; i < 10; i++ {
		pool.Submit(Job{
			Key: fmt.Sprintf("user-%d", i),
			Handler: func(ctx context.Context) {
				current := atomic.AddInt32(&activeCount, 1)
				for {
					max := atomic.LoadInt32(&maxActive)
					if current <= max || atomic.CompareAndSwapInt32(&maxActive, max, current) {
						break
					}
				}
				time.Sleep(30 * time.Millisecond)
				atomic.AddInt32(&activeCount, -1)
			},
		})
	}

	time.Sleep(300 * time.Millisecond)

	max := atomic.LoadInt32(&maxActive)
	assert.LessOrEqual(t, max, int32(maxWorkers))
}

func TestPool_GracefulShutdownCompletesInFlightJobs(t *testing.T) {
	pool := New(2, 10)
	ctx, cancel := context.WithCancel(context.Background())

	pool.Start(ctx)

	var completed int32

	for i := 0; i < 2; i++ {
		pool.Submit(Job{
			Key: string(rune('A' + i)),
			Handler: func(ctx context.Context) {
				time.Sleep(50 * time.Millisecond)
				atomic.AddInt32(&completed, 1)
			},
		})
	}

	time.Sleep(10 * time.Millisecond)

	cancel()
	pool.Stop()

	assert.Equal(t, int32(2), atomic.LoadInt32(&completed), "in-flight jobs must finish before Stop returns")
}

func TestPool_SubmitAfterStopReturnsFalse(t *testing.T) {
	pool := New(2, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	pool.Stop()

	ok := pool.Submit(Job{Key: "user-1", Handler: func(ctx context.Context) {}})
	assert.False(t, ok)
}

func TestPool_SubmitBlockedOnFullQueueSurvivesStop(t *testing.T) {
	pool := New(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	started := make(chan struct{})
	release := make(chan struct{})
	require.True(t, pool.Submit(Job{Key: "k", Handler: func(ctx context.Context) {
		close(started)
		<-release
	}}))
	<-started
	// The worker is busy, this one fills its queue.
	require.True(t, pool.Submit(Job{Key: "k", Handler: func(ctx context.Context) {}}))

	// This submit blocks on the full queue until Stop runs.
	result := make(chan bool)
	go func() {
		result <- pool.Submit(Job{Key: "k", Handler: func(ctx context.Context) {}})
	}()
	time.Sleep(20 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	assert.False(t, <-result, "a submit caught by shutdown reports false instead of panicking")
	<-stopped
}

func TestPool_ConsistentHashing(t *testing.T) {
	pool := New(4, 100)

	shard1 := pool.workerFor("user-abc")
	shard2 := pool.workerFor("user-abc")
	shard3 := pool.workerFor("user-abc")

	assert.Equal(t, shard1, shard2)
	assert.Equal(t, shard2, shard3)
	assert.GreaterOrEqual(t, shard1, 0)
	assert.Less(t, shard1, 4)
}

func TestPool_FairDistribution(t *testing.T) {
	numWorkers := 4
	pool := New(numWorkers, 100)

	shardCounts := make(map[int]int)
	for i := 0; i < 100; i++ {
		shard := pool.workerFor(fmt.Sprintf("user-%d", i))
		shardCounts[shard]++
	}

	for shard, count := range shardCounts {
		assert.Greater(t, count, 10, "worker %d should receive >10 keys", shard)
		assert.Less(t, count, 45, "worker %d should receive <45 keys", shard)
	}
}

func TestPool_StatsCountsSubmittedAndProcessed(t *testing.T) {
	pool := New(2, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)

	for i := 0; i < 5; i++ {
		pool.Submit(Job{
			Key:     fmt.Sprintf("user-%d", i),
			Handler: func(ctx context.Context) {},
		})
	}
	pool.Stop()

	stats := pool.Stats()
	assert.Equal(t, 2, stats.NumWorkers)
	assert.Equal(t, int64(5), stats.TotalSubmitted)
	assert.Equal(t, int64(5), stats.TotalProcessed)
	assert.Len(t, stats.WorkerStats, 2)
}

func TestPool_RecoversFromHandlerPanic(t *testing.T) {
	pool := New(1, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)

	var after int32
	pool.Submit(Job{Key: "user-1", Handler: func(ctx context.Context) { panic("boom") }})
	pool.Submit(Job{Key: "user-1", Handler: func(ctx context.Context) { atomic.AddInt32(&after, 1) }})
	pool.Stop()

	assert.Equal(t, int32(1), atomic.LoadInt32(&after), "worker must survive a panicking handler")
}
