package rest

import (
	"github.com/gofiber/fiber/v2"
	domainDispatch "github.com/twitboost/twitboost-api/domains/dispatch"
	"github.com/twitboost/twitboost-api/pkg/runlog"
)

type Cron struct {
	Service domainDispatch.IDispatchUsecase
	RunLog  *runlog.Log
}

// InitRestCron registers the dispatch control endpoints. The group is
// expected to already carry the bearer-secret middleware.
func InitRestCron(app fiber.Router, service domainDispatch.IDispatchUsecase, runLog *runlog.Log) Cron {
	handler := Cron{Service: service, RunLog: runLog}

	app.Post("/trigger", handler.Trigger)
	app.Get("/logs", handler.Logs)

	return handler
}

// Trigger synchronously runs one dispatch pass and returns the full
// batch outcome.
func (h *Cron) Trigger(c *fiber.Ctx) error {
	summary, err := h.Service.Run(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "dispatch run failed",
			"details": summary.Error,
		})
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"runId":     summary.RunID,
		"processed": summary.Processed,
		"posted":    summary.Posted,
		"failed":    summary.Failed,
		"skipped":   summary.Skipped,
		"results":   summary.Results,
	})
}

func (h *Cron) Logs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	logs, total := h.RunLog.List(limit, offset)
	return c.JSON(fiber.Map{
		"success": true,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
		"logs":    logs,
	})
}
