package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/server"
)

const banner = `
 __  __    _    ____ ____  _  _____
|  \/  |  / \  / ___/ ___|| |/ /_ _|
| |\/| | / _ \ \___ \___ \| ' / | |
| |  | |/ ___ \ ___) |__) | . \ | |
|_|  |_/_/   \_\____/____/|_|\_\___|
`

// devJWTSecret is only used with --dev when no secret is configured.
const devJWTSecret = "masski-dev-secret-change-me-0123456789"

func newServeCmd() *cobra.Command {
	var dev bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Masski auth API server",
		Long:  "Start the HTTP server for admin login, OTP verification and device approval.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(dev)
		},
	}

	cmd.Flags().IntP("port", "p", 8080, "HTTP listen port")
	cmd.Flags().String("host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (debug logging, dev JWT secret)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(dev bool) error {
	fmt.Print(banner)
	fmt.Println()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if dev {
		cfg.Logging.Level = "debug"
		if cfg.Auth.JWTSecret == "" {
			cfg.Auth.JWTSecret = devJWTSecret
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	logger := cfg.Logging.NewLogger(os.Stderr)
	if dev && cfg.Auth.JWTSecret == devJWTSecret {
		logger.Warn("using the development JWT secret; never run like this in production")
	}

	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("store initialized", "driver", a.store.Driver())

	checks := map[string]server.Check{"store": a.store.Ping}
	if a.redis != nil {
		checks["redis"] = func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }
	}

	srv := server.New(server.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		CORSOrigins:     cfg.Server.CORSOrigins,
		LoginRateLimit:  cfg.Server.LoginRateLimit,
		LoginRateWindow: cfg.Server.LoginRateWindow,
		Version:         versionString(),
	}, a.login, a.auth, checks, logger)

	// Hooks run in reverse: sweeper first, then connections.
	srv.OnShutdown(a.Close)
	if cfg.Sweeper.Enabled {
		a.sweeper.Start()
		srv.OnShutdown(a.sweeper.Shutdown)
	}

	fmt.Printf("→ Masski %s\n", versionString())
	fmt.Printf("→ Listening on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ OpenAPI:    http://%s:%d/openapi.json\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ Health:     http://%s:%d/healthz\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()

	return srv.ListenAndServe()
}
