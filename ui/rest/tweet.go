package rest

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	domainDispatch "github.com/twitboost/twitboost-api/domains/dispatch"
	domainTweet "github.com/twitboost/twitboost-api/domains/tweet"
	pkgError "github.com/twitboost/twitboost-api/pkg/error"
	"github.com/twitboost/twitboost-api/pkg/utils"
)

type Tweet struct {
	Service    domainTweet.ITweetUsecase
	Dispatcher domainDispatch.IDispatchUsecase
}

func InitRestTweet(app fiber.Router, service domainTweet.ITweetUsecase, dispatcher domainDispatch.IDispatchUsecase) Tweet {
	handler := Tweet{Service: service, Dispatcher: dispatcher}

	group := app.Group("/tweets")
	group.Post("/", handler.Create)
	group.Get("/", handler.List)
	group.Get("/:id", handler.GetByID)
	group.Delete("/:id", handler.Delete)
	group.Post("/:id/schedule", handler.Schedule)
	group.Post("/:id/post-now", handler.PostNow)

	return handler
}

func (h *Tweet) Create(c *fiber.Ctx) error {
	var request domainTweet.CreateTweetRequest
	if err := c.BodyParser(&request); err != nil {
		utils.PanicIfNeeded(pkgError.ValidationError("invalid request body"))
	}

	created, err := h.Service.Create(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.Status(fiber.StatusCreated).JSON(utils.ResponseData{
		Status:  201,
		Code:    "SUCCESS",
		Message: "Tweet created",
		Results: created,
	})
}

func (h *Tweet) List(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	var status *domainTweet.Status
	if s := c.Query("status"); s != "" {
		st := domainTweet.Status(s)
		status = &st
	}

	tweets, err := h.Service.List(c.UserContext(), userID, status)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Tweets retrieved",
		Results: tweets,
	})
}

func (h *Tweet) GetByID(c *fiber.Ctx) error {
	t, err := h.Service.GetByID(c.UserContext(), c.Query("user_id"), c.Params("id"))
	if errors.Is(err, domainTweet.ErrTweetNotFound) {
		err = pkgError.NotFoundError("tweet not found")
	}
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Tweet retrieved",
		Results: t,
	})
}

func (h *Tweet) Delete(c *fiber.Ctx) error {
	err := h.Service.Delete(c.UserContext(), c.Query("user_id"), c.Params("id"))
	if errors.Is(err, domainTweet.ErrTweetNotFound) {
		err = pkgError.NotFoundError("tweet not found")
	}
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Tweet deleted",
	})
}

func (h *Tweet) Schedule(c *fiber.Ctx) error {
	var request domainTweet.ScheduleTweetRequest
	if err := c.BodyParser(&request); err != nil {
		utils.PanicIfNeeded(pkgError.ValidationError("invalid request body"))
	}
	request.ID = c.Params("id")

	scheduled, err := h.Service.Schedule(c.UserContext(), request)
	if errors.Is(err, domainTweet.ErrTweetNotFound) {
		err = pkgError.NotFoundError("tweet not found")
	}
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Tweet scheduled",
		Results: scheduled,
	})
}

// PostNow claims the tweet outside its schedule and runs it through the
// dispatch pipeline right away.
func (h *Tweet) PostNow(c *fiber.Ctx) error {
	// Ownership check before dispatch touches the tweet.
	_, err := h.Service.GetByID(c.UserContext(), c.Query("user_id"), c.Params("id"))
	if errors.Is(err, domainTweet.ErrTweetNotFound) {
		err = pkgError.NotFoundError("tweet not found")
	}
	utils.PanicIfNeeded(err)

	outcome, err := h.Dispatcher.PostNow(c.UserContext(), c.Params("id"))
	if errors.Is(err, domainTweet.ErrTweetNotClaimable) {
		err = pkgError.ValidationError("tweet is not in a postable status")
	}
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Tweet dispatched",
		Results: outcome,
	})
}
