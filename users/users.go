// Package users manages the staff accounts that operate the tracker:
// who can sign in, with which roles, and whether the account is enabled.
package users

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sage3280/tracker/errors"
	"github.com/sage3280/tracker/store"
)

const CollectionName = "users"

var (
	ErrNotFound           = fmt.Errorf("user %w", errors.NotFound)
	ErrDuplicate          = fmt.Errorf("%w: username or email already registered", errors.Duplicate)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", errors.Unauthorized)
	ErrAccountDisabled    = fmt.Errorf("%w: account is disabled", errors.Forbidden)
)

// Roles are flat permission sets. The authorization policy maps each role
// to the operations it allows; accounts can hold more than one.
const (
	RoleAdmin    = "admin"
	RoleMedico   = "medico"
	RoleAuxiliar = "auxiliar"
	RoleOperador = "operador"
)

var validRoles = []string{RoleAdmin, RoleMedico, RoleAuxiliar, RoleOperador}

func ValidateRoles(roles []string) error {
	if len(roles) == 0 {
		return fmt.Errorf("%w: at least one role is required", errors.BadRequest)
	}
	for _, role := range roles {
		if !slices.Contains(validRoles, role) {
			return fmt.Errorf("%w: unknown role %q", errors.BadRequest, role)
		}
	}
	return nil
}

type User struct {
	Id           *primitive.ObjectID `bson:"_id,omitempty"`
	Username     string              `bson:"username"`
	Email        *string             `bson:"email,omitempty"`
	FullName     string              `bson:"fullName"`
	PasswordHash string              `bson:"passwordHash"`
	Roles        []string            `bson:"roles"`

	IsActive       bool       `bson:"isActive"`
	LastLoginAt    *time.Time `bson:"lastLoginAt,omitempty"`
	FailedAttempts int        `bson:"failedAttempts"`

	CreatedTime time.Time `bson:"createdTime,omitempty"`
	UpdatedTime time.Time `bson:"updatedTime,omitempty"`
}

func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// NewUser carries the plaintext password of a signup request. It is hashed
// before anything is persisted and never stored.
type NewUser struct {
	Username string
	Email    *string
	FullName string
	Password string
	Roles    []string
}

type Filter struct {
	Username *string
	Role     *string
	IsActive *bool
}

//go:generate mockgen --build_flags=--mod=mod -source=./users.go -destination=./test/mock_service.go -package test MockService

type Service interface {
	Get(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context, filter *Filter, pagination store.Pagination) ([]*User, error)
	Create(ctx context.Context, user NewUser) (*User, error)
	// Authenticate verifies the password of an enabled account. Failures
	// are counted on the account; successes reset the count and stamp
	// lastLoginAt.
	Authenticate(ctx context.Context, username, password string) (*User, error)
	SetRoles(ctx context.Context, id string, roles []string) (*User, error)
	SetActive(ctx context.Context, id string, active bool) (*User, error)
}
