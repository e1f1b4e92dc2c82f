package config

import (
	"flag"
	"os"
	"time"

	"github.com/RileyParsons/plateful/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string    HTTP bind address (e.g., ":8080")
//	-d string    PostgreSQL DSN
//	-sd string   storage driver: postgres, redis or memory
//	-rd string   Redis address
//	-rp string   Redis password
//	-sp string   secret provider: env or awssm
//	-sn string   secret name (env var name or Secrets Manager secret id)
//	-s string    JWT HMAC fallback secret key
//	-t int       access token validity, minutes
//	-r int       refresh token validity, minutes
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration flags
// are accepted as integers in minutes.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-sd", "-rd", "-rp", "-sp", "-sn", "-s", "-t", "-r"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.StorageDriver, "sd", config.StorageDriver, "storage driver (postgres, redis, memory)")
	fs.StringVar(&config.RedisAddr, "rd", config.RedisAddr, "redis address")
	fs.StringVar(&config.RedisPassword, "rp", config.RedisPassword, "redis password")
	fs.StringVar(&config.SecretProvider, "sp", config.SecretProvider, "secret provider (env, awssm)")
	fs.StringVar(&config.SecretName, "sn", config.SecretName, "signing key secret name")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "fallback secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
}
