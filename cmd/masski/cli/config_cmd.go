package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage Masski configuration",
		Long:  "Initialize a default configuration file or display the current effective configuration.",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

// ---------- config init ----------

func newConfigInitCmd() *cobra.Command {
	var (
		force bool
		path  string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default masski.yaml configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			fmt.Printf("Created %s\n", path)
			fmt.Println("Set auth.jwt_secret (or MASSKI_AUTH_JWT_SECRET), then run 'masski serve'.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config file")
	cmd.Flags().StringVarP(&path, "output", "o", "masski.yaml", "Path of the file to write")

	return cmd
}

// ---------- config show ----------

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current effective configuration",
		Long:  "Print the merged defaults, config file and environment overrides. Secrets are masked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if f := viper.ConfigFileUsed(); f != "" {
				fmt.Printf("# Config file: %s\n", f)
			} else {
				fmt.Println("# Config file: (none found, using defaults)")
			}

			masked := *cfg
			masked.Auth.JWTSecret = mask(masked.Auth.JWTSecret)
			masked.SMTP.Password = mask(masked.SMTP.Password)
			masked.Redis.Password = mask(masked.Redis.Password)

			data, err := masked.Marshal()
			if err != nil {
				return err
			}
			fmt.Print(string(data))

			if err := cfg.Validate(); err != nil {
				fmt.Printf("\n# Problems:\n# %s\n", strings.ReplaceAll(err.Error(), "\n", "\n# "))
			}
			return nil
		},
	}
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
