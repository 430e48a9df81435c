package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HttpPort uint16 `envconfig:"SAGE_HTTP_SERVER_PORT" default:"8080" required:"true"`

	Auth   AuthConfig
	Engine EngineConfig
	Roster RosterConfig
}

// AuthConfig holds token issuing and validation settings. Tokens are
// self-issued HS256 JWTs; there is no external identity provider.
type AuthConfig struct {
	JwtSecret          string        `envconfig:"SAGE_AUTH_JWT_SECRET" required:"true"`
	AccessTokenTimeout time.Duration `envconfig:"SAGE_AUTH_ACCESS_TOKEN_TIMEOUT" default:"8h"`
	Issuer             string        `envconfig:"SAGE_AUTH_ISSUER" default:"sage3280/tracker"`
}

type EngineConfig struct {
	// ColonoscopyByHistory switches colonoscopy screening from the
	// decade-birthday gate to last-exam based gating.
	ColonoscopyByHistory bool `envconfig:"SAGE_ENGINE_COLONOSCOPY_BY_HISTORY" default:"false"`
}

type RosterConfig struct {
	UploadDir          string        `envconfig:"SAGE_ROSTER_UPLOAD_DIR" default:"/tmp/sage3280/uploads"`
	WorkerPollInterval time.Duration `envconfig:"SAGE_ROSTER_WORKER_POLL_INTERVAL" default:"5s"`
	MaxRowErrors       int           `envconfig:"SAGE_ROSTER_MAX_ROW_ERRORS" default:"500"`
}

func New() *Config {
	return &Config{}
}

func (c *Config) LoadFromEnv() error {
	return envconfig.Process("", c)
}
