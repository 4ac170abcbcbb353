package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/config"
	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/geo"
	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/notify"
	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/password"
	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/service"
	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/store"
)

// openStore opens the configured relational store and applies migrations.
func openStore(cfg *config.Config) (*store.Store, error) {
	st, err := store.NewStore(store.Config{
		Driver:          cfg.Store.Driver,
		DSN:             cfg.Store.DSN,
		MaxOpenConns:    cfg.Store.MaxOpenConns,
		MaxIdleConns:    cfg.Store.MaxIdleConns,
		ConnMaxLifetime: cfg.Store.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	return st, nil
}

func newHasher(cfg *config.Config) (*password.Hasher, error) {
	return password.New(strings.ToLower(cfg.Auth.PasswordAlgorithm))
}

// app bundles the services shared by serve and the maintenance commands.
type app struct {
	store   *store.Store
	redis   *redis.Client
	auth    *service.AuthService
	login   *service.LoginService
	sweeper *service.Sweeper
}

func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	a.store.Close()
}

// buildApp wires the store, mail, geo lookup, OTP throttling and the
// login services from cfg.
func buildApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	a := &app{store: st}

	hasher, err := newHasher(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}

	var notifier notify.Notifier
	if cfg.SMTP.Host != "" {
		notifier = notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			Timeout:  cfg.SMTP.Timeout,
		})
	} else {
		logger.Warn("smtp.host not set, outgoing mail is logged instead of sent")
		notifier = notify.NewLogNotifier(logger)
	}

	var locator service.Locator
	if cfg.Geo.Enabled {
		locator = geo.NewResolver(geo.Config{
			IPLookupURL:       cfg.Geo.IPLookupURL,
			ReverseGeocodeURL: cfg.Geo.ReverseGeocodeURL,
			Timeout:           cfg.Geo.Timeout,
		})
	}

	var limiter service.OTPLimiter
	if cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := a.redis.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, OTP throttling fails open until it recovers", "addr", cfg.Redis.Addr, "error", err)
		}
		cancel()
		limiter = service.NewRedisLimiter(a.redis, service.LimiterConfig{
			MaxFailures: cfg.Auth.OTPMaxFailures,
			Window:      cfg.Auth.OTPFailureWindow,
		})
	} else {
		logger.Warn("redis.addr not set, OTP failure throttling disabled")
	}

	otps := service.NewOTPLedger(st, cfg.Auth.OTPTTL)
	a.auth = service.NewAuthService(st, cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	a.login = service.NewLoginService(service.LoginDeps{
		Admins:    st,
		Attempts:  st,
		OTPs:      otps,
		Sessions:  a.auth,
		Passwords: hasher,
		Notifier:  notifier,
		Locator:   locator,
		Limiter:   limiter,
		Logger:    logger,
		AppName:   cfg.AppName,
	})
	a.sweeper = service.NewSweeper(st, st, service.SweeperConfig{
		Interval:   cfg.Sweeper.Interval,
		StaleAfter: cfg.Sweeper.StaleAfter,
	}, logger)

	return a, nil
}
