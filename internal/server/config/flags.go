package config

import (
	"flag"
	"io"
	"time"

	"github.com/acedema/acedema-back/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN, or memory://
//	-s string   JWT HMAC secret key
//	-t int      session token validity, minutes
//	-r int      reset token validity, minutes
//	-w string   host used in password reset links
//	-x string   password hash scheme (sha256 | argon2id)
//	-n string   mail sender (log | s3)
//	-l string   log level
//
// Notes:
//   - args are filtered with flagx.FilterArgs first, so -c/-config and -env
//     (handled elsewhere) do not trip the parser.
//   - Duration flags are accepted as integers in minutes.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-t", "-r", "-w", "-x", "-n", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	sessionMinutes := fs.Int("t", int(config.SessionTokenValidityDuration.Minutes()), "session token validity (in minutes)")
	resetMinutes := fs.Int("r", int(config.ResetTokenValidityDuration.Minutes()), "reset token validity (in minutes)")

	fs.StringVar(&config.ResetLinkHost, "w", config.ResetLinkHost, "host used in password reset links")
	fs.StringVar(&config.HashScheme, "x", config.HashScheme, "password hash scheme")
	fs.StringVar(&config.MailSender, "n", config.MailSender, "mail sender")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.SessionTokenValidityDuration = time.Duration(*sessionMinutes) * time.Minute
	config.ResetTokenValidityDuration = time.Duration(*resetMinutes) * time.Minute
	return nil
}
