package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	pkgError "github.com/twitboost/twitboost-api/pkg/error"
	"github.com/twitboost/twitboost-api/pkg/utils"
)

// Recovery converts handler panics into structured JSON responses. Typed
// errors implementing pkgError.GenericError keep their status and code;
// anything else becomes a 500.
func Recovery() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			if err := recover(); err != nil {
				res := utils.ResponseData{
					Status:  500,
					Code:    "INTERNAL_SERVER_ERROR",
					Message: fmt.Sprintf("%v", err),
				}

				logrus.Errorf("Panic recovered in middleware: %v", err)

				if genericErr, ok := err.(pkgError.GenericError); ok {
					res.Status = genericErr.StatusCode()
					res.Code = genericErr.ErrCode()
					res.Message = genericErr.Error()
				}

				_ = ctx.Status(res.Status).JSON(res)
			}
		}()

		return ctx.Next()
	}
}
