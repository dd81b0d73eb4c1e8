package services

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/tender-rag/internal/adapters/driven/memory"
	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driving"
)

func newTestUserService() (*memory.UserStore, *userService) {
	userStore := memory.NewUserStore()
	svc := NewUserService(userStore, mocks.NewMockAuthAdapter()).(*userService)
	return userStore, svc
}

func TestUserService_Setup(t *testing.T) {
	_, svc := newTestUserService()
	ctx := context.Background()

	admin, err := svc.Setup(ctx, driving.CreateUserRequest{Email: "admin@example.com", Password: "password123", Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if admin.Role != domain.RoleAdmin {
		t.Errorf("role = %s, want admin", admin.Role)
	}

	_, err = svc.Setup(ctx, driving.CreateUserRequest{Email: "second@example.com", Password: "password123"})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("second Setup() error = %v, want ErrForbidden", err)
	}
}

func TestUserService_Create(t *testing.T) {
	_, svc := newTestUserService()
	ctx := context.Background()

	user, err := svc.Create(ctx, driving.CreateUserRequest{Email: "New@Example.com", Password: "password123", Name: " New "})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if user.Role != domain.RoleUser {
		t.Errorf("default role = %s, want user", user.Role)
	}
	if user.Email != "new@example.com" || user.Name != "New" {
		t.Errorf("unexpected user %+v", user)
	}
	if !user.Active {
		t.Error("new users should be active")
	}

	tests := []struct {
		name    string
		req     driving.CreateUserRequest
		wantErr error
	}{
		{name: "duplicate", req: driving.CreateUserRequest{Email: "new@example.com", Password: "password123"}, wantErr: domain.ErrAlreadyExists},
		{name: "missing email", req: driving.CreateUserRequest{Password: "password123"}, wantErr: domain.ErrInvalidInput},
		{name: "short password", req: driving.CreateUserRequest{Email: "x@example.com", Password: "123"}, wantErr: domain.ErrInvalidInput},
		{name: "bad role", req: driving.CreateUserRequest{Email: "y@example.com", Password: "password123", Role: "owner"}, wantErr: domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tt.req); !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUserService_AssignRole(t *testing.T) {
	_, svc := newTestUserService()
	ctx := context.Background()
	user, _ := svc.Create(ctx, driving.CreateUserRequest{Email: "u@example.com", Password: "password123"})

	updated, err := svc.AssignRole(ctx, domain.AssignRoleRequest{UserID: user.ID, Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("AssignRole() error = %v", err)
	}
	if updated.Role != domain.RoleAdmin {
		t.Errorf("role = %s", updated.Role)
	}

	if _, err := svc.AssignRole(ctx, domain.AssignRoleRequest{UserID: user.ID, Role: "superuser"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("invalid role error = %v", err)
	}
	if _, err := svc.AssignRole(ctx, domain.AssignRoleRequest{UserID: "missing", Role: domain.RoleUser}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing user error = %v", err)
	}
}

func TestUserService_SetActiveAndDelete(t *testing.T) {
	userStore, svc := newTestUserService()
	ctx := context.Background()
	user, _ := svc.Create(ctx, driving.CreateUserRequest{Email: "u@example.com", Password: "password123"})

	off, err := svc.SetActive(ctx, user.ID, false)
	if err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}
	if off.Active {
		t.Error("expected inactive user")
	}

	users, _ := svc.List(ctx)
	if len(users) != 1 {
		t.Fatalf("List() = %d users", len(users))
	}

	if err := svc.Delete(ctx, user.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := userStore.Get(ctx, user.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("deleted user still present: %v", err)
	}
	if err := svc.Delete(ctx, user.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second Delete() error = %v", err)
	}
}
