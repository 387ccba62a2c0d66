package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/acedema/acedema-back/internal/flagx"
	"github.com/joho/godotenv"
)

const envPrefix = "ACEDEMA_"

// loadEnvFile loads variables from the file given with -env, or from ./.env
// when present. Variables already set in the process environment win.
func loadEnvFile(args []string) error {
	path := flagx.EnvFilePath(args)
	if path == "" {
		path = ".env"
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// parseEnv overlays ACEDEMA_* environment variables onto config.
//
// Durations use Go syntax ("15m"), booleans use strconv.ParseBool and
// ACEDEMA_CORS_ORIGINS is a comma-separated list.
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	e := envReader{lookup: lookup}

	e.str("HTTP_ADDR", &config.HTTPAddr)
	e.str("DATABASE_DSN", &config.DatabaseDSN)
	e.boolean("RUN_MIGRATIONS", &config.RunMigrations)
	e.str("LOG_LEVEL", &config.LogLevel)
	e.duration("SHUTDOWN_TIMEOUT", &config.ShutdownTimeout)

	e.str("JWT_SECRET", &config.SecretKey)
	e.str("JWT_ISSUER", &config.TokenIssuer)
	e.str("JWT_AUDIENCE", &config.TokenAudience)
	e.duration("SESSION_TTL", &config.SessionTokenValidityDuration)
	e.duration("RESET_TTL", &config.ResetTokenValidityDuration)

	e.str("RESET_LINK_HOST", &config.ResetLinkHost)
	e.str("HASH_SCHEME", &config.HashScheme)
	e.boolean("OPEN_REGISTRATION", &config.OpenRegistration)
	e.integer("ADMIN_ROLE_ID", &config.AdminRoleID)
	e.boolean("REVEAL_UNKNOWN_EMAIL", &config.RevealUnknownEmail)

	e.str("MAIL_SENDER", &config.MailSender)
	e.str("MAIL_FROM", &config.MailFrom)
	e.str("S3_ACCESS_KEY", &config.S3AccessKey)
	e.str("S3_SECRET_KEY", &config.S3SecretKey)
	e.str("S3_BUCKET", &config.S3Bucket)
	e.str("S3_REGION", &config.S3Region)
	e.str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	e.str("S3_PREFIX", &config.S3Prefix)

	e.list("CORS_ORIGINS", &config.CORSAllowedOrigins)
	e.integer("RATE_LIMIT_PER_MINUTE", &config.RateLimitPerMinute)
	e.integer("RATE_LIMIT_BURST", &config.RateLimitBurst)

	return errors.Join(e.errs...)
}

type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(envPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) boolean(key string, dst *bool) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
		return
	}
	*dst = b
}

func (e *envReader) integer(key string, dst *int) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
		return
	}
	*dst = n
}

func (e *envReader) duration(key string, dst *time.Duration) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
		return
	}
	*dst = d
}

func (e *envReader) list(key string, dst *[]string) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}
