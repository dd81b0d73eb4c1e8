package driving

import (
	"context"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
)

// AuthService handles user authentication
type AuthService interface {
	// Signup registers a new user account
	Signup(ctx context.Context, req domain.SignupRequest) (*domain.UserSummary, error)

	// Authenticate validates credentials and issues a token
	Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)

	// ValidateToken validates a JWT token and returns the auth context
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)

	// Me returns the account behind an auth context
	Me(ctx context.Context, auth *domain.AuthContext) (*domain.UserSummary, error)
}
