package app

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/adanyl0v/taskflow/internal/config"
)

func MustReadEnv() {
	cfg, err := config.NewEnvReader().Read()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to read env")
		panic(err)
	}
	globalLogger.Info().
		Str("env", cfg.Env).
		Str("jwt_issuer", cfg.JWT.Issuer).
		Dur("access_token_ttl", cfg.JWT.AccessTokenTTL).
		Msg("read env")

	config.SetGlobal(cfg)
}
