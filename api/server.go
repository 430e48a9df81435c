package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/brpaz/echozap"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/sage3280/tracker/auth"
	"github.com/sage3280/tracker/authz"
	"github.com/sage3280/tracker/config"
	"github.com/sage3280/tracker/errors"
)

func Start(e *echo.Echo, cfg *config.Config, lifecycle fx.Lifecycle) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := e.Start(fmt.Sprintf(":%d", cfg.HttpPort)); err != nil && err != http.ErrServerClosed {
					e.Logger.Error(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}

func SetReady(healthCheck *HealthCheck, db *mongo.Database, lifecycle fx.Lifecycle) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := db.Client().Ping(ctx, nil); err != nil {
				return err
			}

			// It's important this is set after mongo is initialized, which is ensured
			// by taking a dependency on mongo in the constructor, because lifecycle hooks
			// are executed in topological order
			healthCheck.SetReady(true)
			return nil
		},
		OnStop: nil,
	})
}

type requestValidator struct {
	validate *validator.Validate
}

func (r *requestValidator) Validate(i interface{}) error {
	if err := r.validate.Struct(i); err != nil {
		return fmt.Errorf("%w: %s", errors.BadRequest, err.Error())
	}
	return nil
}

func NewServer(handler *Handler, healthCheck *HealthCheck, authenticator auth.Authenticator, authorizer authz.RequestAuthorizer, log *zap.Logger) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{validate: validator.New()}
	e.HTTPErrorHandler = errors.CustomHTTPErrorHandler

	// The readiness probe and login have no token to authenticate.
	skipper := RouteSkipper([]string{"/ready", "/v1/auth/login"})
	authMiddleware := auth.NewAuthMiddleware(authenticator, auth.AuthMiddlewareOpts{
		Skipper: skipper,
	})

	e.Use(middleware.Recover())
	e.Use(echozap.ZapLogger(log))
	e.Use(middleware.CORS())
	e.Use(authMiddleware)
	e.Use(NewAuthorizationMiddleware(authorizer, RouteSkipper([]string{"/ready"})))

	e.GET("/ready", healthCheck.Ready)
	RegisterRoutes(e, handler)

	return e, nil
}

// NewAuthorizationMiddleware evaluates the embedded policy against every
// request once authentication has run. Unauthenticated requests are still
// evaluated so the policy decides which routes are open.
func NewAuthorizationMiddleware(authorizer authz.RequestAuthorizer, skipper middleware.Skipper) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper != nil && skipper(c) {
				return next(c)
			}

			request := &authz.Request{
				Path:   authz.SplitPath(c.Request().URL.Path),
				Method: c.Request().Method,
				Auth:   auth.GetAuthData(c.Request().Context()),
			}
			if err := authorizer.Authorize(c.Request().Context(), request); err != nil {
				return err
			}
			return next(c)
		}
	}
}

func RegisterRoutes(e *echo.Echo, handler *Handler) {
	v1 := e.Group("/v1")

	v1.POST("/auth/login", handler.Login)
	v1.GET("/auth/me", handler.Me)

	v1.GET("/patients", handler.ListPatients)
	v1.POST("/patients", handler.CreatePatient)
	v1.GET("/patients/:id", handler.GetPatient)
	v1.PUT("/patients/:id", handler.UpdatePatient)
	v1.DELETE("/patients/:id", handler.DeletePatient)
	v1.POST("/patients/:id/contact", handler.MarkPatientContacted)
	v1.POST("/patients/:id/reclassify", handler.ReclassifyPatient)
	v1.GET("/patients/:id/controls", handler.ListPatientControls)
	v1.GET("/patients/:id/alerts", handler.ListPatientAlerts)
	v1.GET("/patients/:id/exams", handler.ListPatientExams)
	v1.POST("/patients/:id/exams", handler.CreatePatientExam)

	v1.GET("/alerts", handler.ListAlerts)
	v1.PATCH("/alerts/:id", handler.UpdateAlert)
	v1.POST("/alerts/:id/dismiss", handler.DismissAlert)

	v1.GET("/controls", handler.ListControls)
	v1.PATCH("/controls/:id", handler.UpdateControl)

	v1.POST("/uploads", handler.CreateUpload)
	v1.GET("/uploads", handler.ListUploads)
	v1.GET("/uploads/:id", handler.GetUpload)

	v1.GET("/stats/dashboard", handler.Dashboard)
	v1.GET("/reports/patients", handler.ExportPatients)

	v1.GET("/users", handler.ListUsers)
	v1.POST("/users", handler.CreateUser)
	v1.PUT("/users/:id/roles", handler.SetUserRoles)

	v1.GET("/audit", handler.ListAuditEntries)
}
