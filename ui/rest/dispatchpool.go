package rest

import (
	"github.com/gofiber/fiber/v2"
	"github.com/twitboost/twitboost-api/pkg/dispatchworker"
)

var dispatchPool *dispatchworker.Pool

// SetDispatchPool registers the process-wide pool for the stats endpoint.
func SetDispatchPool(pool *dispatchworker.Pool) {
	dispatchPool = pool
}

func InitRestDispatchPool(app fiber.Router) {
	app.Get("/dispatch-pool/stats", GetDispatchPoolStats)
}

func GetDispatchPoolStats(c *fiber.Ctx) error {
	if dispatchPool == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error":   "dispatch pool not initialized",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"stats":   dispatchPool.Stats(),
	})
}
