package service

import (
	"context"
	"sort"
	"strings"

	"github.com/utilityops/records-service/internal/auth"
	"github.com/utilityops/records-service/internal/config"
	"github.com/utilityops/records-service/internal/domain"
	"github.com/utilityops/records-service/internal/repository"
	apperrors "github.com/utilityops/records-service/pkg/util/errorutil"
)

// UserService manages operator accounts.
type UserService struct {
	users      repository.UserRepository
	bcryptCost int
}

// CreateUserInput describes a new operator.
type CreateUserInput struct {
	FullName   string
	Position   string
	EmployeeID string
	Username   string
	Password   string
	Role       domain.Role
}

// NewUserService constructs the service.
func NewUserService(cfg config.Config, users repository.UserRepository) *UserService {
	return &UserService{users: users, bcryptCost: cfg.Auth.BcryptCost}
}

// Create validates the input, hashes the password and stores the account.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	user := &domain.User{
		FullName:   strings.TrimSpace(input.FullName),
		Position:   strings.TrimSpace(input.Position),
		EmployeeID: strings.TrimSpace(input.EmployeeID),
		Username:   strings.TrimSpace(input.Username),
		Role:       input.Role,
	}

	var missing []string
	for name, val := range map[string]string{
		"fullname":   user.FullName,
		"position":   user.Position,
		"employeeID": user.EmployeeID,
		"username":   user.Username,
		"password":   input.Password,
	} {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, apperrors.NewValidationError("Missing required fields: "+strings.Join(missing, ", "),
			map[string]any{"missing": missing})
	}
	if !user.Role.Valid() {
		return nil, apperrors.NewValidationError("role must be data_entry or data_viewing",
			map[string]any{"role": input.Role})
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash

	if err := s.users.Create(ctx, user); err != nil {
		return nil, storeError(err, "Username", map[string]any{"username": user.Username})
	}
	return user, nil
}

// ListByPosition returns operators holding the given job title.
func (s *UserService) ListByPosition(ctx context.Context, position string) ([]domain.User, error) {
	position = strings.TrimSpace(position)
	if position == "" {
		return nil, apperrors.NewValidationError("position is required", nil)
	}
	users, err := s.users.ListByPosition(ctx, position)
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	return users, nil
}
