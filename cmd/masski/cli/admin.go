package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/model"
	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/password"
	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/store"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
		Long:  "Create, list, activate and deactivate the admin accounts that log in through the auth API.",
	}

	cmd.AddCommand(newAdminCreateCmd())
	cmd.AddCommand(newAdminListCmd())
	cmd.AddCommand(newAdminSetActiveCmd("activate", true))
	cmd.AddCommand(newAdminSetActiveCmd("deactivate", false))

	return cmd
}

// ---------- admin create ----------

func newAdminCreateCmd() *cobra.Command {
	var (
		email string
		pw    string
		name  string
		role  string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new admin account",
		Example: `  masski admin create --email owner@example.com --role super_admin
  masski admin create --email till1@example.com --name "Till 1" --role cashier`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminCreate(cmd.Context(), email, pw, name, role)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email address (required)")
	cmd.Flags().StringVar(&pw, "password", "", "Admin password (prompted if omitted)")
	cmd.Flags().StringVar(&name, "name", "", "Admin display name")
	cmd.Flags().StringVar(&role, "role", string(model.RoleManager), "Role: super_admin, manager, dev or any staff role")
	cmd.MarkFlagRequired("email")

	return cmd
}

func runAdminCreate(ctx context.Context, email, pw, name, role string) error {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email address: %q", email)
	}
	role = strings.TrimSpace(strings.ToLower(role))
	if role == "" {
		return errors.New("role must not be empty")
	}

	if pw == "" {
		fmt.Print("Password: ")
		pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Println()
		pw = string(pwBytes)

		fmt.Print("Confirm password: ")
		confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		fmt.Println()

		if pw != string(confirmBytes) {
			return fmt.Errorf("passwords do not match")
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	hasher, err := newHasher(cfg)
	if err != nil {
		return err
	}
	hash, err := hasher.Hash(pw)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) {
			return fmt.Errorf("password must be at least 8 characters")
		}
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if name == "" {
		name = email
	}
	admin := &model.Admin{Name: name, Email: email, PasswordHash: hash, Role: model.Role(role), IsActive: true}
	if err := st.CreateAdmin(ctx, admin); err != nil {
		switch {
		case errors.Is(err, store.ErrSuperAdminExists):
			return errors.New("a super_admin already exists; only one may be registered")
		case errors.Is(err, store.ErrEmailTaken):
			return fmt.Errorf("an admin with email %q already exists", admin.Email)
		}
		return err
	}

	fmt.Printf("Created admin %q (id %d, role %s)\n", admin.Email, admin.ID, admin.Role)
	return nil
}

// ---------- admin list ----------

func newAdminListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all admin accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminList(cmd.Context(), jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runAdminList(ctx context.Context, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	admins, err := st.ListAdmins(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(admins)
	}

	if len(admins) == 0 {
		fmt.Println("No admin accounts. Use 'masski admin create' to create one.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE\tACTIVE\tLAST LOGIN")
	for _, a := range admins {
		active := "yes"
		if !a.IsActive {
			active = "no"
		}
		last := "-"
		if a.LastLoginAt != nil {
			last = a.LastLoginAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", a.ID, a.Email, a.Name, a.Role, active, last)
	}
	return tw.Flush()
}

// ---------- admin activate / deactivate ----------

func newAdminSetActiveCmd(use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <admin-id>",
		Short: strings.ToUpper(use[:1]) + use[1:] + " an admin account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid admin id %q", args[0])
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.SetAdminActive(cmd.Context(), id, active); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("admin %d not found", id)
				}
				return err
			}
			fmt.Printf("Admin %d %sd\n", id, use)
			return nil
		},
	}
}
