package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/sage3280/tracker/config"
	"github.com/sage3280/tracker/users"
)

// Claims is the payload of self-issued access tokens. Subject is the user
// id; service tokens set Server instead of Roles.
type Claims struct {
	Roles  []string `json:"roles,omitempty"`
	Server bool     `json:"srv,omitempty"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	secret  []byte
	timeout time.Duration
	issuer  string
}

func NewTokenIssuer(cfg *config.Config) *TokenIssuer {
	return &TokenIssuer{
		secret:  []byte(cfg.Auth.JwtSecret),
		timeout: cfg.Auth.AccessTokenTimeout,
		issuer:  cfg.Auth.Issuer,
	}
}

// IssueAccessToken mints an HS256 token for an authenticated user.
func (t *TokenIssuer) IssueAccessToken(user *users.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(t.timeout)

	claims := &Claims{
		Roles: user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Id.Hex(),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// IssueServiceToken mints a token with server access for internal callers.
// The subject names the calling service so it shows up in logs.
func (t *TokenIssuer) IssueServiceToken(service string) (string, error) {
	now := time.Now()

	claims := &Claims{
		Server: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   service,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.timeout)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// TokenValidator checks token signatures and expiry and attaches the
// resulting identity to the request.
type TokenValidator struct {
	secret []byte
	parser *jwt.Parser
}

var _ Authenticator = &TokenValidator{}

func NewTokenValidator(cfg *config.Config) *TokenValidator {
	return &TokenValidator{
		secret: []byte(cfg.Auth.JwtSecret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

func (t *TokenValidator) ValidateAndSetAuthData(token string, ec echo.Context) (bool, error) {
	claims := &Claims{}
	_, err := t.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return false, err
	}
	if claims.Subject == "" {
		return false, ErrUnauthenticated
	}

	SetAuthData(ec, &Auth{
		SubjectId:    claims.Subject,
		Roles:        claims.Roles,
		ServerAccess: claims.Server,
	})
	return true, nil
}
