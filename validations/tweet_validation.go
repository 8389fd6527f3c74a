package validations

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	domainTweet "github.com/twitboost/twitboost-api/domains/tweet"
	pkgError "github.com/twitboost/twitboost-api/pkg/error"
)

func ValidateCreateTweet(ctx context.Context, request domainTweet.CreateTweetRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.UserID, validation.Required),
		validation.Field(&request.Text,
			validation.Required.When(!request.IsThread),
			validation.Length(0, domainTweet.MaxTextLength),
		),
		validation.Field(&request.ThreadTweets,
			validation.Required.When(request.IsThread),
			validation.Each(validation.Required, validation.Length(1, domainTweet.MaxTextLength)),
		),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	if request.ScheduledFor != nil && request.ScheduledFor.Before(time.Now().Add(-time.Minute)) {
		return pkgError.ValidationError("scheduled_for must not be in the past")
	}
	return nil
}

func ValidateScheduleTweet(ctx context.Context, request domainTweet.ScheduleTweetRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.ID, validation.Required),
		validation.Field(&request.UserID, validation.Required),
		validation.Field(&request.ScheduledFor, validation.Required),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	if request.ScheduledFor.Before(time.Now().Add(-time.Minute)) {
		return pkgError.ValidationError(fmt.Sprintf("scheduled_for %s is in the past", request.ScheduledFor.Format(time.RFC3339)))
	}
	return nil
}
