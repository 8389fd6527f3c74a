package health

import "context"

type Status struct {
	Database     string `json:"database"`
	RunLogSize   int    `json:"run_log_size"`
	PoolWorkers  int    `json:"pool_workers"`
	PoolInFlight int    `json:"pool_in_flight"`
}

type IHealthUsecase interface {
	GetStatus(ctx context.Context) (Status, error)
}
