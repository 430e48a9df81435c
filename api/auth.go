package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sage3280/tracker/audit"
	"github.com/sage3280/tracker/auth"
	"github.com/sage3280/tracker/errors"
	"github.com/sage3280/tracker/pointer"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
	User        UserDto   `json:"user"`
}

func (h *Handler) Login(ec echo.Context) error {
	ctx := ec.Request().Context()

	request := LoginRequest{}
	if err := ec.Bind(&request); err != nil {
		return errors.BadRequest
	}
	if err := ec.Validate(&request); err != nil {
		return err
	}

	ip := pointer.FromAny(ec.RealIP())
	user, err := h.users.Authenticate(ctx, request.Username, request.Password)
	if err != nil {
		h.record(ec, audit.LoginFailed(request.Username, ip, err.Error()))
		return err
	}

	token, expiresAt, err := h.tokens.IssueAccessToken(user)
	if err != nil {
		return err
	}

	userAgent := queryableUserAgent(ec)
	h.record(ec, audit.LoginSucceeded(user.Username, ip, userAgent))

	return ec.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        NewUserDto(user),
	})
}

// Me returns the account of the authenticated subject.
func (h *Handler) Me(ec echo.Context) error {
	ctx := ec.Request().Context()

	authData := auth.GetAuthData(ctx)
	if authData == nil || auth.IsServerAuth(authData) {
		return errors.Unauthorized
	}

	user, err := h.users.Get(ctx, authData.SubjectId)
	if err != nil {
		return err
	}

	return ec.JSON(http.StatusOK, NewUserDto(user))
}

// currentUsername resolves the username for audit trails. Server-to-server
// calls and lookup failures leave it nil so entries show a system actor.
func (h *Handler) currentUsername(ec echo.Context) *string {
	authData := auth.GetAuthData(ec.Request().Context())
	if authData == nil || auth.IsServerAuth(authData) {
		return nil
	}

	user, err := h.users.Get(ec.Request().Context(), authData.SubjectId)
	if err != nil {
		return nil
	}
	return &user.Username
}

func queryableUserAgent(ec echo.Context) *string {
	if agent := ec.Request().UserAgent(); agent != "" {
		return &agent
	}
	return nil
}
