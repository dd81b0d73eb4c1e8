package driving

import (
	"context"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
)

// CreateUserRequest represents a request to create a new user
type CreateUserRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Name     string      `json:"name"`
	Role     domain.Role `json:"role"`
}

// UserService manages user accounts (admin operations)
type UserService interface {
	// Setup creates the initial admin user (only works if no users exist)
	Setup(ctx context.Context, req CreateUserRequest) (*domain.User, error)

	// Create creates a new user
	Create(ctx context.Context, req CreateUserRequest) (*domain.User, error)

	// Get retrieves a user by ID
	Get(ctx context.Context, id string) (*domain.User, error)

	// List retrieves all users
	List(ctx context.Context) ([]*domain.User, error)

	// AssignRole changes a user's role
	AssignRole(ctx context.Context, req domain.AssignRoleRequest) (*domain.User, error)

	// SetActive enables or disables an account
	SetActive(ctx context.Context, id string, active bool) (*domain.User, error)

	// Delete deletes a user
	Delete(ctx context.Context, id string) error
}
