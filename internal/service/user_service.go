package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
	apperrors "github.com/lycanzy/experimentdocumentationapp/internal/pkg/errors"
	"github.com/lycanzy/experimentdocumentationapp/internal/pkg/logger"
	"github.com/lycanzy/experimentdocumentationapp/internal/repository"
)

// UserService manages users and password login.
type UserService struct {
	deps Deps
	cost int
	// dummyHash is compared against when the username is unknown so both
	// failure paths cost one bcrypt comparison.
	dummyHash []byte
}

// NewUserService creates a new UserService.
func NewUserService(deps Deps) *UserService {
	return NewUserServiceWithCost(deps, bcrypt.DefaultCost)
}

// NewUserServiceWithCost creates a UserService hashing with the given bcrypt
// cost. Tests use bcrypt.MinCost.
func NewUserServiceWithCost(deps Deps, cost int) *UserService {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	return &UserService{deps: deps.normalize(), cost: cost, dummyHash: dummy}
}

// HashPassword returns the bcrypt hash of password.
func (s *UserService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Create adds a user.
func (s *UserService) Create(ctx context.Context, actor domain.Actor, in domain.UserInput) (*domain.User, error) {
	if err := domain.ValidateUser(in); err != nil {
		return nil, AppError(err)
	}
	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	user := &domain.User{
		ID:           id.String(),
		Username:     in.Username,
		DisplayName:  in.DisplayName,
		Email:        in.Email,
		PasswordHash: hash,
		IsAdmin:      in.IsAdmin,
	}
	if user.DisplayName == "" {
		user.DisplayName = user.Username
	}
	err = s.deps.Store.RunInTx(ctx, func(q *repository.Queries) error {
		if err := q.CreateUser(ctx, user); err != nil {
			return err
		}
		return s.deps.Audit.LogAction(ctx, q, "user.create", "user", user.ID, actor,
			map[string]interface{}{"username": user.Username, "is_admin": user.IsAdmin})
	})
	if err != nil {
		return nil, alreadyExists(err, apperrors.CodeUserExists, "user", in.Username)
	}
	logger.FromContext(ctx, s.deps.Log).Info("User created",
		zap.String("user_id", user.ID),
		zap.String("username", user.Username),
	)
	return user, nil
}

// Get returns the user with id.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.deps.Store.Queries().GetUser(ctx, id)
	if err != nil {
		return nil, AppError(err)
	}
	return &u, nil
}

// List returns all users ordered by username.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.deps.Store.Queries().ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// Authenticate checks a username and password. Unknown users and wrong
// passwords fail the same way.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	failed := apperrors.Unauthorized(apperrors.CodeAuthFailed, "invalid username or password")

	u, err := s.deps.Store.Queries().GetUserByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, failed
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		logger.FromContext(ctx, s.deps.Log).Info("Login failed", zap.String("username", username))
		return nil, failed
	}
	return &u, nil
}
