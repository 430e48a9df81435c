package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/sage3280/tracker/audit"
	"github.com/sage3280/tracker/errors"
	"github.com/sage3280/tracker/users"
)

type UserDto struct {
	Id          string     `json:"id"`
	Username    string     `json:"username"`
	Email       *string    `json:"email,omitempty"`
	FullName    string     `json:"fullName"`
	Roles       []string   `json:"roles"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedTime time.Time  `json:"createdTime"`
}

func NewUserDto(user *users.User) UserDto {
	return UserDto{
		Id:          user.Id.Hex(),
		Username:    user.Username,
		Email:       user.Email,
		FullName:    user.FullName,
		Roles:       user.Roles,
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
		CreatedTime: user.CreatedTime,
	}
}

type CreateUserRequest struct {
	Username string   `json:"username" validate:"required"`
	Email    *string  `json:"email,omitempty" validate:"omitempty,email"`
	FullName string   `json:"fullName" validate:"required"`
	Password string   `json:"password" validate:"required,min=8"`
	Roles    []string `json:"roles" validate:"required,min=1"`
}

type SetRolesRequest struct {
	Roles []string `json:"roles" validate:"required,min=1"`
}

func (h *Handler) ListUsers(ec echo.Context) error {
	ctx := ec.Request().Context()

	filter := users.Filter{
		Username: queryParam(ec, "username"),
		Role:     queryParam(ec, "role"),
		IsActive: boolQueryParam(ec, "isActive"),
	}

	list, err := h.users.List(ctx, &filter, pagination(ec))
	if err != nil {
		return err
	}

	dtos := make([]UserDto, 0, len(list))
	for _, user := range list {
		dtos = append(dtos, NewUserDto(user))
	}
	return ec.JSON(http.StatusOK, dtos)
}

func (h *Handler) CreateUser(ec echo.Context) error {
	ctx := ec.Request().Context()

	request := CreateUserRequest{}
	if err := ec.Bind(&request); err != nil {
		return errors.BadRequest
	}
	if err := ec.Validate(&request); err != nil {
		return err
	}

	user, err := h.users.Create(ctx, users.NewUser{
		Username: request.Username,
		Email:    request.Email,
		FullName: request.FullName,
		Password: request.Password,
		Roles:    request.Roles,
	})
	if err != nil {
		return err
	}

	h.record(ec, audit.UserCreated(user.Id.Hex(), user.Username, h.currentUsername(ec)))
	return ec.JSON(http.StatusCreated, NewUserDto(user))
}

func (h *Handler) SetUserRoles(ec echo.Context) error {
	ctx := ec.Request().Context()

	request := SetRolesRequest{}
	if err := ec.Bind(&request); err != nil {
		return errors.BadRequest
	}
	if err := ec.Validate(&request); err != nil {
		return err
	}

	user, err := h.users.SetRoles(ctx, ec.Param("id"), request.Roles)
	if err != nil {
		return err
	}

	h.record(ec, audit.UserUpdated(user.Id.Hex(), h.currentUsername(ec), bson.M{"roles": request.Roles}))
	return ec.JSON(http.StatusOK, NewUserDto(user))
}
