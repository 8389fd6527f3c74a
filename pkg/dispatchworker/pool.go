package dispatchworker

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Job is one unit of work routed by Key. Jobs sharing a Key are executed
// by the same worker, so they never run concurrently with each other.
type Job struct {
	Key     string
	Handler func(ctx context.Context)
}

// PoolStats is a point-in-time snapshot of pool metrics.
type PoolStats struct {
	NumWorkers     int           `json:"num_workers"`
	QueueSize      int           `json:"queue_size"`
	InFlight       int           `json:"in_flight"`
	TotalSubmitted int64         `json:"total_submitted"`
	TotalProcessed int64         `json:"total_processed"`
	WorkerStats    []WorkerStats `json:"worker_stats"`
}

type WorkerStats struct {
	WorkerID      int   `json:"worker_id"`
	QueueDepth    int   `json:"queue_depth"`
	IsProcessing  bool  `json:"is_processing"`
	JobsProcessed int64 `json:"jobs_processed"`
}

// Pool is a fixed set of workers with per-key routing. The dispatcher
// routes by tweet owner, so one user's tweets are processed strictly in
// submission order while distinct users proceed in parallel.
type Pool struct {
	numWorkers int
	queueSize  int
	workers    []*worker
	wg         sync.WaitGroup
	stopOnce   sync.Once
	stopCh     chan struct{}
	stopped    int32

	totalSubmitted int64
	totalProcessed int64
}

type worker struct {
	id            int
	jobQueue      chan Job
	isProcessing  int32
	jobsProcessed int64
	pool          *Pool
}

func New(numWorkers, queueSize int) *Pool {
	if numWorkers <= 0 {
		numWorkers = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Pool{
		numWorkers: numWorkers,
		queueSize:  queueSize,
		workers:    make([]*worker, numWorkers),
		stopCh:     make(chan struct{}),
	}
}

// Start launches the workers. They drain their queues until ctx is
// cancelled and the queues are closed via Stop.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.numWorkers; i++ {
		w := &worker{
			id:       i,
			jobQueue: make(chan Job, p.queueSize),
			pool:     p,
		}
		p.workers[i] = w
		p.wg.Add(1)
		go w.run(ctx, &p.wg)
	}
	logrus.Infof("[POOL] Dispatch worker pool started with %d workers (queue %d)", p.numWorkers, p.queueSize)
}

// Submit routes a job to its worker, blocking while that worker's queue
// is full. Returns false once the pool has been stopped.
func (p *Pool) Submit(job Job) (ok bool) {
	if atomic.LoadInt32(&p.stopped) == 1 {
		return false
	}
	// Stop closes the queues while a submit may still be blocked on one
	// of them, so the send has to survive racing with that close.
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	w := p.workers[p.workerFor(job.Key)]
	select {
	case w.jobQueue <- job:
		atomic.AddInt64(&p.totalSubmitted, 1)
		return true
	case <-p.stopCh:
		return false
	}
}

// Stop closes the queues and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		atomic.StoreInt32(&p.stopped, 1)
		close(p.stopCh)
		for _, w := range p.workers {
			close(w.jobQueue)
		}
		p.wg.Wait()
		logrus.Info("[POOL] Dispatch worker pool stopped")
	})
}

func (p *Pool) workerFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(p.numWorkers))
}

func (p *Pool) Stats() PoolStats {
	stats := PoolStats{
		NumWorkers:     p.numWorkers,
		QueueSize:      p.queueSize,
		TotalSubmitted: atomic.LoadInt64(&p.totalSubmitted),
		TotalProcessed: atomic.LoadInt64(&p.totalProcessed),
	}
	for _, w := range p.workers {
		if w == nil {
			continue
		}
		processing := atomic.LoadInt32(&w.isProcessing) == 1
		if processing {
			stats.InFlight++
		}
		stats.WorkerStats = append(stats.WorkerStats, WorkerStats{
			WorkerID:      w.id,
			QueueDepth:    len(w.jobQueue),
			IsProcessing:  processing,
			JobsProcessed: atomic.LoadInt64(&w.jobsProcessed),
		})
	}
	return stats
}

func (w *worker) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	for job := range w.jobQueue {
		atomic.StoreInt32(&w.isProcessing, 1)
		w.execute(ctx, job)
		atomic.StoreInt32(&w.isProcessing, 0)
		atomic.AddInt64(&w.jobsProcessed, 1)
		atomic.AddInt64(&w.pool.totalProcessed, 1)
	}
}

func (w *worker) execute(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("[POOL] Worker %d recovered from panic on key %s: %v", w.id, job.Key, r)
		}
	}()
	job.Handler(ctx)
}
