package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/sage3280/tracker/api"
	"github.com/sage3280/tracker/audit"
	auditTest "github.com/sage3280/tracker/audit/test"
	"github.com/sage3280/tracker/auth"
	"github.com/sage3280/tracker/config"
	"github.com/sage3280/tracker/errors"
	"github.com/sage3280/tracker/pointer"
	"github.com/sage3280/tracker/test"
	"github.com/sage3280/tracker/users"
	usersTest "github.com/sage3280/tracker/users/test"
)

var _ = Describe("Auth Handler", func() {
	var e *echo.Echo
	var handler *api.Handler
	var mockCtrl *gomock.Controller
	var usersService *usersTest.MockService
	var recorder *auditTest.MockRecorder

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		usersService = usersTest.NewMockService(mockCtrl)
		recorder = auditTest.NewMockRecorder(mockCtrl)

		e = echo.New()
		e.Validator = &testValidator{validate: validator.New()}

		tokens := auth.NewTokenIssuer(&config.Config{
			Auth: config.AuthConfig{
				JwtSecret:          "test-secret",
				AccessTokenTimeout: time.Hour,
				Issuer:             "sage3280/tracker",
			},
		})

		handler = api.NewHandler(api.Params{
			Users:  usersService,
			Tokens: tokens,
			Audit:  recorder,
			Logger: zap.NewNop().Sugar(),
		})
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	Describe("Login", func() {
		It("issues a token for valid credentials", func() {
			user := usersTest.RandomUser()
			user.Id = pointer.FromAny(primitive.NewObjectID())

			usersService.EXPECT().
				Authenticate(gomock.Any(), user.Username, "secreta123").
				Return(&user, nil)
			recorder.EXPECT().
				Record(gomock.Any(), test.Match(func(entry audit.Entry) bool {
					return entry.Action == audit.ActionLoginSucceeded
				})).
				Return(nil)

			body, _ := json.Marshal(api.LoginRequest{Username: user.Username, Password: "secreta123"})
			request := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(string(body)))
			request.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			response := httptest.NewRecorder()

			Expect(handler.Login(e.NewContext(request, response))).To(Succeed())
			Expect(response.Code).To(Equal(http.StatusOK))

			login := api.LoginResponse{}
			Expect(json.Unmarshal(response.Body.Bytes(), &login)).To(Succeed())
			Expect(login.AccessToken).ToNot(BeEmpty())
			Expect(login.TokenType).To(Equal("Bearer"))
			Expect(login.User.Username).To(Equal(user.Username))
		})

		It("audits and propagates failed logins", func() {
			usersService.EXPECT().
				Authenticate(gomock.Any(), "maria", gomock.Any()).
				Return(nil, users.ErrInvalidCredentials)
			recorder.EXPECT().
				Record(gomock.Any(), test.Match(func(entry audit.Entry) bool {
					return entry.Action == audit.ActionLoginFailed
				})).
				Return(nil)

			body := `{"username":"maria","password":"incorrecta"}`
			request := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			request.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

			err := handler.Login(e.NewContext(request, httptest.NewRecorder()))
			Expect(err).To(MatchError(errors.Unauthorized))
		})

		It("rejects requests without a password", func() {
			body := `{"username":"maria"}`
			request := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			request.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

			err := handler.Login(e.NewContext(request, httptest.NewRecorder()))
			Expect(err).To(MatchError(errors.BadRequest))
		})
	})
})
