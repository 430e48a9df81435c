package api

import (
	"go.uber.org/fx"

	"github.com/sage3280/tracker/alerts"
	"github.com/sage3280/tracker/audit"
	"github.com/sage3280/tracker/auth"
	"github.com/sage3280/tracker/authz"
	"github.com/sage3280/tracker/classification"
	"github.com/sage3280/tracker/config"
	"github.com/sage3280/tracker/controls"
	"github.com/sage3280/tracker/exams"
	"github.com/sage3280/tracker/logger"
	"github.com/sage3280/tracker/patients"
	"github.com/sage3280/tracker/patients/deriver"
	"github.com/sage3280/tracker/reporting"
	"github.com/sage3280/tracker/roster"
	"github.com/sage3280/tracker/store"
	"github.com/sage3280/tracker/users"
)

func loadConfig() (*config.Config, error) {
	cfg := config.New()
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newGeneratorConfig(cfg *config.Config) alerts.GeneratorConfig {
	return alerts.GeneratorConfig{
		ColonoscopyByHistory: cfg.Engine.ColonoscopyByHistory,
	}
}

func newDiagnosisParser() (*roster.DiagnosisParser, error) {
	return roster.NewDiagnosisParser(roster.DefaultDiagnosisCacheSize)
}

// Dependencies is the full DI graph shared by the server and the ops CLI.
func Dependencies() []fx.Option {
	return []fx.Option{
		fx.Provide(
			logger.NewProductionLogger,
			logger.Suggar,
			loadConfig,
			store.NewConfig,
			store.GetConnectionString,
			store.NewClient,
			store.NewDatabase,
			users.NewRepository,
			users.NewService,
			patients.NewRepository,
			patients.NewService,
			classification.NewClassifier,
			newGeneratorConfig,
			alerts.NewGenerator,
			alerts.NewRepository,
			controls.NewRepository,
			exams.NewRepository,
			deriver.NewDeriver,
			audit.NewRecorder,
			newDiagnosisParser,
			roster.NewParser,
			roster.NewRepository,
			roster.NewService,
			roster.NewProcessor,
			roster.NewWorker,
			reporting.NewReporter,
			reporting.NewExporter,
			auth.NewTokenIssuer,
			auth.NewTokenValidator,
			auth.NewAuthenticator,
			authz.NewRequestAuthorizer,
			NewHealthCheck,
			NewHandler,
			NewServer,
		),
	}
}

func MainLoop() {
	options := append(
		Dependencies(),
		fx.Invoke(roster.Start),
		fx.Invoke(SetReady),
		fx.Invoke(Start),
	)
	fx.New(options...).Run()
}
