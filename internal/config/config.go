package config

import "time"

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

var globalConfig *Config

func Global() *Config {
	return globalConfig
}

func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

// Config is the taskflowd service configuration.
type Config struct {
	Env      string `env:"ENV" env-required:"true"`
	HTTP     HTTPConfig
	JWT      JWTConfig
	Postgres PostgresConfig
}

type HTTPConfig struct {
	Host            string        `env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`

	// TrustedProxies lists the proxy addresses or CIDRs whose
	// X-Forwarded-For header is honoured. Empty trusts none.
	TrustedProxies []string `env:"HTTP_TRUSTED_PROXIES" env-separator:","`
}

type JWTConfig struct {
	Issuer          string        `env:"JWT_ISSUER" env-default:"taskflow"`
	SigningKey      string        `env:"JWT_SIGNING_KEY" env-required:"true"`
	AccessTokenTTL  time.Duration `env:"JWT_ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `env:"JWT_REFRESH_TOKEN_TTL" env-default:"720h"`
}

type PostgresConfig struct {
	Host           string        `env:"POSTGRES_HOST" env-required:"true"`
	Port           int           `env:"POSTGRES_PORT" env-default:"5432"`
	Username       string        `env:"POSTGRES_USERNAME" env-required:"true"`
	Password       string        `env:"POSTGRES_PASSWORD" env-required:"true"`
	Database       string        `env:"POSTGRES_DATABASE" env-required:"true"`
	SSLMode        string        `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	MaxConns       int32         `env:"POSTGRES_MAX_CONNS" env-default:"10"`
	ConnectTimeout time.Duration `env:"POSTGRES_CONNECT_TIMEOUT" env-default:"10s"`
	PingTimeout    time.Duration `env:"POSTGRES_PING_TIMEOUT" env-default:"10s"`
}

// ClientConfig is the taskflow client configuration. It can be read from
// the environment or from a YAML/TOML file.
type ClientConfig struct {
	Env         string `yaml:"env" toml:"env" env:"TASKFLOW_ENV" env-default:"prod"`
	APIURL      string `yaml:"api_url" toml:"api_url" env:"TASKFLOW_API_URL" env-default:"http://localhost:8080/api/v1"`
	DataDir     string `yaml:"data_dir" toml:"data_dir" env:"TASKFLOW_DATA_DIR" env-default:"~/.taskflow"`
	RedirectURL string `yaml:"redirect_url" toml:"redirect_url" env:"TASKFLOW_REDIRECT_URL" env-default:"http://localhost:8080/auth/callback"`
}
