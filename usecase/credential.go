package usecase

import (
	"context"
	"errors"
	"fmt"

	domainUser "github.com/twitboost/twitboost-api/domains/user"
	"github.com/twitboost/twitboost-api/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// credentialService resolves a user's stored Twitter access token. Token
// refresh happens out-of-band; this path only reads.
type credentialService struct {
	users domainUser.IUserRepository
}

func NewCredentialService(users domainUser.IUserRepository) domainUser.ICredentialResolver {
	return &credentialService{users: users}
}

func (s *credentialService) Resolve(ctx context.Context, userID primitive.ObjectID) (string, bool, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to load user %s: %w", userID.Hex(), err)
	}
	if u.TwitterAccessToken == "" {
		return "", false, nil
	}
	return u.TwitterAccessToken, true, nil
}
