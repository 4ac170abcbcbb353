package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/config"
)

var (
	cfgFile    string
	appVersion string
)

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "masski",
		Short: "Admin authentication backend for the Masski POS",
		Long: `Masski: admin authentication for the Masski management POS.

Admins log in with email and password, confirm with a one-time code and,
from a device they have not used before, wait for a manager or super admin
to approve the device.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./masski.yaml)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))
	cmd.AddCommand(newAdminCmd())
	cmd.AddCommand(newAttemptsCmd())
	cmd.AddCommand(newOpenAPICmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// loadConfig reads defaults, the optional config file and MASSKI_*
// environment overrides, in that order of precedence from lowest.
func loadConfig() (*config.Config, error) {
	v := viper.GetViper()
	if err := config.RegisterDefaults(v); err != nil {
		return nil, fmt.Errorf("register config defaults: %w", err)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("masski")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.masski")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return config.FromViper(v)
}
