package user

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name                  string             `bson:"name,omitempty" json:"name"`
	Email                 string             `bson:"email" json:"email"`
	TwitterUsername       string             `bson:"twitterUsername,omitempty" json:"twitter_username,omitempty"`
	TwitterAccessToken    string             `bson:"twitterAccessToken,omitempty" json:"-"`
	TwitterRefreshToken   string             `bson:"twitterRefreshToken,omitempty" json:"-"`
	TwitterTokenExpiresAt *time.Time         `bson:"twitterTokenExpiresAt,omitempty" json:"-"`
	CreatedAt             time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt             time.Time          `bson:"updatedAt" json:"updated_at"`
}

type IUserRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*User, error)
}

// ICredentialResolver looks up the stored social access token for a user.
// connected is false when the user never linked their account or the token
// is absent; that is a normal result, not an error. err is reserved for
// storage failures.
type ICredentialResolver interface {
	Resolve(ctx context.Context, userID primitive.ObjectID) (token string, connected bool, err error)
}
