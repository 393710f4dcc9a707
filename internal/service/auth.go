package service

import (
	"context"
	"fmt"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/user"
	"github.com/deppfellow/openwork/internal/server"
)

type AuthService struct {
	server *server.Server
}

// NewAuthService configures the Clerk SDK with the secret key.
func NewAuthService(s *server.Server) *AuthService {
	clerk.SetKey(s.Config.Auth.SecretKey)
	return &AuthService{
		server: s,
	}
}

// UserEmail returns the primary email address of a Clerk user.
func (a *AuthService) UserEmail(ctx context.Context, userID string) (string, error) {
	u, err := user.Get(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("get clerk user %s: %w", userID, err)
	}

	for _, address := range u.EmailAddresses {
		if u.PrimaryEmailAddressID != nil && address.ID == *u.PrimaryEmailAddressID {
			return address.EmailAddress, nil
		}
	}
	if len(u.EmailAddresses) > 0 {
		return u.EmailAddresses[0].EmailAddress, nil
	}
	return "", nil
}
