package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingJWTSecret is returned by Validate when no signing secret is set.
var ErrMissingJWTSecret = errors.New("auth.jwt_secret is required (set MASSKI_AUTH_JWT_SECRET)")

const minJWTSecretLen = 32

// Validate reports every problem with c in one error.
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.JWTSecret == "" {
		errs = append(errs, ErrMissingJWTSecret)
	} else if len(c.Auth.JWTSecret) < minJWTSecretLen {
		errs = append(errs, fmt.Errorf("auth.jwt_secret must be at least %d characters", minJWTSecretLen))
	}
	if c.Auth.OTPTTL <= 0 {
		errs = append(errs, errors.New("auth.otp_ttl must be positive"))
	}
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, errors.New("auth.session_ttl must be positive"))
	}
	switch strings.ToLower(c.Auth.PasswordAlgorithm) {
	case "bcrypt", "argon2id":
	default:
		errs = append(errs, fmt.Errorf("auth.password_algorithm %q is not bcrypt or argon2id", c.Auth.PasswordAlgorithm))
	}

	switch c.Store.Driver {
	case "", "sqlite", "postgres", "mysql", "sqlserver":
	default:
		errs = append(errs, fmt.Errorf("store.driver %q is not sqlite, postgres, mysql or sqlserver", c.Store.Driver))
	}
	if c.Store.Driver != "" && c.Store.Driver != "sqlite" && c.Store.DSN == "" {
		errs = append(errs, fmt.Errorf("store.dsn is required for %s", c.Store.Driver))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	if c.Server.LoginRateLimit > 0 && c.Server.LoginRateWindow <= 0 {
		errs = append(errs, errors.New("server.login_rate_window must be positive when login_rate_limit is set"))
	}

	if c.SMTP.Host != "" && c.SMTP.From == "" {
		errs = append(errs, errors.New("smtp.from is required when smtp.host is set"))
	}
	if c.SMTP.Timeout <= 0 {
		errs = append(errs, errors.New("smtp.timeout must be positive"))
	}

	if c.Sweeper.Enabled && (c.Sweeper.Interval <= 0 || c.Sweeper.StaleAfter <= 0) {
		errs = append(errs, errors.New("sweeper.interval and sweeper.stale_after must be positive"))
	}

	if _, err := parseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
