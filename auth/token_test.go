package auth_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sage3280/tracker/auth"
	"github.com/sage3280/tracker/config"
	"github.com/sage3280/tracker/users"
)

func newTestConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JwtSecret:          "test-secret-do-not-use-in-production",
			AccessTokenTimeout: time.Hour,
			Issuer:             "sage3280/tracker",
		},
	}
}

func newTestUser() *users.User {
	id := primitive.NewObjectID()
	return &users.User{
		Id:       &id,
		Username: "medico1",
		Roles:    []string{users.RoleMedico},
		IsActive: true,
	}
}

func getContext(headers map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/patients", nil)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

var _ = Describe("Tokens", func() {
	var cfg *config.Config
	var issuer *auth.TokenIssuer
	var validator *auth.TokenValidator

	BeforeEach(func() {
		cfg = newTestConfig()
		issuer = auth.NewTokenIssuer(cfg)
		validator = auth.NewTokenValidator(cfg)
	})

	Describe("IssueAccessToken", func() {
		It("round-trips subject and roles", func() {
			user := newTestUser()
			token, expiresAt, err := issuer.IssueAccessToken(user)
			Expect(err).ToNot(HaveOccurred())
			Expect(token).ToNot(BeEmpty())
			Expect(expiresAt).To(BeTemporally("~", time.Now().Add(time.Hour), time.Minute))

			ec, _ := getContext(nil)
			valid, err := validator.ValidateAndSetAuthData(token, ec)
			Expect(err).ToNot(HaveOccurred())
			Expect(valid).To(BeTrue())

			authData := auth.GetAuthData(ec.Request().Context())
			Expect(authData).ToNot(BeNil())
			Expect(authData.SubjectId).To(Equal(user.Id.Hex()))
			Expect(authData.Roles).To(Equal([]string{users.RoleMedico}))
			Expect(authData.ServerAccess).To(BeFalse())
		})

		It("rejects expired tokens", func() {
			cfg.Auth.AccessTokenTimeout = -time.Minute
			expired := auth.NewTokenIssuer(cfg)

			token, _, err := expired.IssueAccessToken(newTestUser())
			Expect(err).ToNot(HaveOccurred())

			ec, _ := getContext(nil)
			valid, err := validator.ValidateAndSetAuthData(token, ec)
			Expect(err).To(HaveOccurred())
			Expect(valid).To(BeFalse())
			Expect(auth.GetAuthData(ec.Request().Context())).To(BeNil())
		})

		It("rejects tokens signed with a different secret", func() {
			other := newTestConfig()
			other.Auth.JwtSecret = "a different secret"

			token, _, err := auth.NewTokenIssuer(other).IssueAccessToken(newTestUser())
			Expect(err).ToNot(HaveOccurred())

			ec, _ := getContext(nil)
			valid, err := validator.ValidateAndSetAuthData(token, ec)
			Expect(err).To(HaveOccurred())
			Expect(valid).To(BeFalse())
		})

		It("rejects unsigned tokens", func() {
			claims := &auth.Claims{
				RegisteredClaims: jwt.RegisteredClaims{
					Subject:   primitive.NewObjectID().Hex(),
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				},
			}
			token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
			Expect(err).ToNot(HaveOccurred())

			ec, _ := getContext(nil)
			valid, err := validator.ValidateAndSetAuthData(token, ec)
			Expect(err).To(HaveOccurred())
			Expect(valid).To(BeFalse())
		})
	})

	Describe("IssueServiceToken", func() {
		It("grants server access", func() {
			token, err := issuer.IssueServiceToken("roster-worker")
			Expect(err).ToNot(HaveOccurred())

			ec, _ := getContext(nil)
			valid, err := validator.ValidateAndSetAuthData(token, ec)
			Expect(err).ToNot(HaveOccurred())
			Expect(valid).To(BeTrue())

			authData := auth.GetAuthData(ec.Request().Context())
			Expect(authData.SubjectId).To(Equal("roster-worker"))
			Expect(authData.ServerAccess).To(BeTrue())
			Expect(auth.IsServerAuth(authData)).To(BeTrue())
		})
	})
})

var _ = Describe("Auth Middleware", func() {
	var cfg *config.Config
	var issuer *auth.TokenIssuer
	var authenticator auth.Authenticator

	BeforeEach(func() {
		cfg = newTestConfig()
		issuer = auth.NewTokenIssuer(cfg)

		var err error
		authenticator, err = auth.NewAuthenticator(auth.NewTokenValidator(cfg))
		Expect(err).ToNot(HaveOccurred())
	})

	handler := func(captured **auth.Auth) echo.HandlerFunc {
		return func(c echo.Context) error {
			*captured = auth.GetAuthData(c.Request().Context())
			return c.NoContent(http.StatusOK)
		}
	}

	It("rejects requests without a token", func() {
		middleware := auth.NewAuthMiddleware(authenticator, auth.AuthMiddlewareOpts{})

		var captured *auth.Auth
		ec, _ := getContext(nil)

		err := middleware(handler(&captured))(ec)
		Expect(err).To(HaveOccurred())

		httpErr := &echo.HTTPError{}
		Expect(errors.As(err, &httpErr)).To(BeTrue())
		Expect(httpErr.Code).To(Equal(http.StatusUnauthorized))
		Expect(captured).To(BeNil())
	})

	It("accepts bearer tokens", func() {
		token, _, err := issuer.IssueAccessToken(newTestUser())
		Expect(err).ToNot(HaveOccurred())

		middleware := auth.NewAuthMiddleware(authenticator, auth.AuthMiddlewareOpts{})

		var captured *auth.Auth
		ec, rec := getContext(map[string]string{echo.HeaderAuthorization: "Bearer " + token})

		Expect(middleware(handler(&captured))(ec)).To(Succeed())
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(captured).ToNot(BeNil())
		Expect(captured.Roles).To(Equal([]string{users.RoleMedico}))
	})

	It("accepts tokens from the internal session header", func() {
		token, err := issuer.IssueServiceToken("exporter")
		Expect(err).ToNot(HaveOccurred())

		middleware := auth.NewAuthMiddleware(authenticator, auth.AuthMiddlewareOpts{})

		var captured *auth.Auth
		ec, _ := getContext(map[string]string{auth.SessionTokenHeaderKey: token})

		Expect(middleware(handler(&captured))(ec)).To(Succeed())
		Expect(captured.ServerAccess).To(BeTrue())
	})

	It("skips configured routes", func() {
		middleware := auth.NewAuthMiddleware(authenticator, auth.AuthMiddlewareOpts{
			Skipper: func(echo.Context) bool { return true },
		})

		var captured *auth.Auth
		ec, rec := getContext(nil)

		Expect(middleware(handler(&captured))(ec)).To(Succeed())
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(captured).To(BeNil())
	})

	It("rejects garbage tokens", func() {
		middleware := auth.NewAuthMiddleware(authenticator, auth.AuthMiddlewareOpts{})

		var captured *auth.Auth
		ec, _ := getContext(map[string]string{echo.HeaderAuthorization: "Bearer not-a-token"})

		err := middleware(handler(&captured))(ec)
		Expect(err).To(HaveOccurred())

		httpErr := &echo.HTTPError{}
		Expect(errors.As(err, &httpErr)).To(BeTrue())
		Expect(httpErr.Code).To(Equal(http.StatusUnauthorized))
	})
})

var _ = Describe("CachingAuthenticator", func() {
	It("validates cached tokens without calling the delegate", func() {
		delegate := &countingAuthenticator{auth: &auth.Auth{SubjectId: "cached"}}
		authenticator, err := auth.NewCachingAuthenticator(10, time.Minute, delegate, auth.IsServerAuth)
		Expect(err).ToNot(HaveOccurred())

		delegate.auth.ServerAccess = true

		for i := 0; i < 3; i++ {
			ec, _ := getContext(nil)
			valid, err := authenticator.ValidateAndSetAuthData("token", ec)
			Expect(err).ToNot(HaveOccurred())
			Expect(valid).To(BeTrue())
			Expect(auth.GetAuthData(ec.Request().Context()).SubjectId).To(Equal("cached"))
		}

		Expect(delegate.calls).To(Equal(1))
	})

	It("expires cache entries", func() {
		delegate := &countingAuthenticator{auth: &auth.Auth{SubjectId: "cached", ServerAccess: true}}
		authenticator, err := auth.NewCachingAuthenticator(10, time.Duration(0), delegate, auth.IsServerAuth)
		Expect(err).ToNot(HaveOccurred())

		for i := 0; i < 2; i++ {
			ec, _ := getContext(nil)
			_, err := authenticator.ValidateAndSetAuthData("token", ec)
			Expect(err).ToNot(HaveOccurred())
		}

		Expect(delegate.calls).To(Equal(2))
	})

	It("does not cache identities the predicate rejects", func() {
		delegate := &countingAuthenticator{auth: &auth.Auth{SubjectId: "user"}}
		authenticator, err := auth.NewCachingAuthenticator(10, time.Minute, delegate, auth.IsServerAuth)
		Expect(err).ToNot(HaveOccurred())

		for i := 0; i < 2; i++ {
			ec, _ := getContext(nil)
			_, err := authenticator.ValidateAndSetAuthData("token", ec)
			Expect(err).ToNot(HaveOccurred())
		}

		Expect(delegate.calls).To(Equal(2))
	})
})

type countingAuthenticator struct {
	calls int
	auth  *auth.Auth
}

func (c *countingAuthenticator) ValidateAndSetAuthData(token string, ec echo.Context) (bool, error) {
	c.calls++
	auth.SetAuthData(ec, c.auth)
	return true, nil
}
