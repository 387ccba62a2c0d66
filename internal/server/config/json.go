package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/acedema/acedema-back/internal/flagx"
	"github.com/acedema/acedema-back/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON config file.
// Durations accept "15m" style strings or integer nanoseconds (timex.Duration).
// Every field is optional; absent fields leave the current value untouched,
// which is why booleans are pointers.
type JsonConfig struct {
	HTTPAddr        string         `json:"http_addr"`
	DatabaseDSN     string         `json:"database_dsn"`
	RunMigrations   *bool          `json:"run_migrations"`
	LogLevel        string         `json:"log_level"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`

	SecretKey                    string         `json:"secret_key"`
	TokenIssuer                  string         `json:"token_issuer"`
	TokenAudience                string         `json:"token_audience"`
	SessionTokenValidityDuration timex.Duration `json:"session_token_validity_duration"`
	ResetTokenValidityDuration   timex.Duration `json:"reset_token_validity_duration"`

	ResetLinkHost      string `json:"reset_link_host"`
	HashScheme         string `json:"hash_scheme"`
	OpenRegistration   *bool  `json:"open_registration"`
	AdminRoleID        int    `json:"admin_role_id"`
	RevealUnknownEmail *bool  `json:"reveal_unknown_email"`

	MailSender     string `json:"mail_sender"`
	MailFrom       string `json:"mail_from"`
	S3AccessKey    string `json:"s3_access_key"`
	S3SecretKey    string `json:"s3_secret_key"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
	S3Prefix       string `json:"s3_prefix"`

	CORSAllowedOrigins []string `json:"cors_allowed_origins"`
	RateLimitPerMinute int      `json:"rate_limit_per_minute"`
	RateLimitBurst     int      `json:"rate_limit_burst"`
}

// parseJson loads the file named by -c / -config (if any) and copies every
// field it sets into config.
func parseJson(config *Config, args []string) error {
	jsonConfigFile := flagx.ConfigFilePath(args)

	// nothing to load
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", jsonConfigFile, err)
	}

	c.applyTo(config)
	return nil
}

func (c *JsonConfig) applyTo(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setBool(&config.RunMigrations, c.RunMigrations)
	setString(&config.LogLevel, c.LogLevel)
	setDuration(&config.ShutdownTimeout, c.ShutdownTimeout)

	setString(&config.SecretKey, c.SecretKey)
	setString(&config.TokenIssuer, c.TokenIssuer)
	setString(&config.TokenAudience, c.TokenAudience)
	setDuration(&config.SessionTokenValidityDuration, c.SessionTokenValidityDuration)
	setDuration(&config.ResetTokenValidityDuration, c.ResetTokenValidityDuration)

	setString(&config.ResetLinkHost, c.ResetLinkHost)
	setString(&config.HashScheme, c.HashScheme)
	setBool(&config.OpenRegistration, c.OpenRegistration)
	if c.AdminRoleID != 0 {
		config.AdminRoleID = c.AdminRoleID
	}
	setBool(&config.RevealUnknownEmail, c.RevealUnknownEmail)

	setString(&config.MailSender, c.MailSender)
	setString(&config.MailFrom, c.MailFrom)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3Prefix, c.S3Prefix)

	if len(c.CORSAllowedOrigins) > 0 {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}
	if c.RateLimitPerMinute != 0 {
		config.RateLimitPerMinute = c.RateLimitPerMinute
	}
	if c.RateLimitBurst != 0 {
		config.RateLimitBurst = c.RateLimitBurst
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
