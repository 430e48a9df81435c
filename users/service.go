package users

import (
	"context"
	errs "errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sage3280/tracker/errors"
	"github.com/sage3280/tracker/store"
)

const minPasswordLength = 8

type service struct {
	repo   Repository
	logger *zap.SugaredLogger
}

var _ Service = &service{}

func NewService(repo Repository, logger *zap.SugaredLogger) (Service, error) {
	return &service{
		repo:   repo,
		logger: logger,
	}, nil
}

func (s *service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.Get(ctx, id)
}

func (s *service) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.repo.GetByUsername(ctx, normalizeUsername(username))
}

func (s *service) List(ctx context.Context, filter *Filter, pagination store.Pagination) ([]*User, error) {
	return s.repo.List(ctx, filter, pagination)
}

func (s *service) Create(ctx context.Context, user NewUser) (*User, error) {
	username := normalizeUsername(user.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", errors.BadRequest)
	}
	if strings.TrimSpace(user.FullName) == "" {
		return nil, fmt.Errorf("%w: full name is required", errors.BadRequest)
	}
	if len(user.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", errors.BadRequest, minPasswordLength)
	}
	if err := ValidateRoles(user.Roles); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	var email *string
	if user.Email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*user.Email))
		if normalized != "" {
			email = &normalized
		}
	}

	created, err := s.repo.Create(ctx, &User{
		Username:     username,
		Email:        email,
		FullName:     strings.TrimSpace(user.FullName),
		PasswordHash: string(hash),
		Roles:        user.Roles,
		IsActive:     true,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("created user", "id", created.Id.Hex(), "username", created.Username, "roles", created.Roles)
	return created, nil
}

func (s *service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repo.GetByUsername(ctx, normalizeUsername(username))
	if err != nil {
		if errs.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if err := s.repo.RecordFailedLogin(ctx, *user.Id); err != nil {
			s.logger.Warnw("error recording failed login", "username", user.Username, "error", err)
		}
		return nil, ErrInvalidCredentials
	}

	if err := s.repo.RecordLogin(ctx, *user.Id); err != nil {
		s.logger.Warnw("error recording login", "username", user.Username, "error", err)
	}

	return user, nil
}

func (s *service) SetRoles(ctx context.Context, id string, roles []string) (*User, error) {
	if err := ValidateRoles(roles); err != nil {
		return nil, err
	}
	return s.repo.SetRoles(ctx, id, roles)
}

func (s *service) SetActive(ctx context.Context, id string, active bool) (*User, error) {
	return s.repo.SetActive(ctx, id, active)
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
