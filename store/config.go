package store

import "github.com/kelseyhightower/envconfig"

// GetConnectionString builds the mongo URI from the environment-loaded
// config. Provided separately so fx can inject the plain string into
// NewClient.
func GetConnectionString(cfg *Config) (string, error) {
	return cfg.GetConnectionString()
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

type Config struct {
	DatabaseName string `envconfig:"SAGE_TRACKER_DATABASE_NAME" default:"tracker"`
	Hosts        string `envconfig:"SAGE_STORE_ADDRESSES"  default:"localhost"`
	OptParams    string `envconfig:"SAGE_STORE_OPT_PARAMS"`
	Password     string `envconfig:"SAGE_STORE_PASSWORD"`
	Scheme       string `envconfig:"SAGE_STORE_SCHEME" default:"mongodb"`
	Ssl          bool   `envconfig:"SAGE_STORE_TLS"`
	User         string `envconfig:"SAGE_STORE_USERNAME"`
}

func (c *Config) GetConnectionString() (string, error) {
	var cs string
	if c.Scheme != "" {
		cs = c.Scheme + "://"
	} else {
		cs = "mongodb://"
	}

	if c.User != "" {
		cs += c.User
		if c.Password != "" {
			cs += ":"
			cs += c.Password
		}
		cs += "@"
	}

	if c.Hosts != "" {
		cs += c.Hosts
	} else {
		cs += "localhost"
	}
	cs += "/"

	if c.Ssl == true {
		cs += "?ssl=true"
	} else {
		cs += "?ssl=false"
	}

	if c.OptParams != "" {
		cs += "&"
		cs += c.OptParams
	}
	return cs, nil
}
