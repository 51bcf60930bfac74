package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/scholarstream/scholarstream/app/models"
	"github.com/scholarstream/scholarstream/app/repositories"
	"github.com/scholarstream/scholarstream/app/services"
	"github.com/scholarstream/scholarstream/config"
	"github.com/scholarstream/scholarstream/database/seeders"
	"github.com/scholarstream/scholarstream/internal/kernel"
	"github.com/scholarstream/scholarstream/pkg/auth"
	"github.com/scholarstream/scholarstream/pkg/database"
)

// scholarstream db:index
var dbIndexCmd = &cobra.Command{
	Use:   "db:index",
	Short: "Create the MongoDB indexes (uniqueness and sort order)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return err
		}
		m, err := database.Connect(cmd.Context())
		if err != nil {
			return err
		}
		defer m.Close(cmd.Context()) //nolint:errcheck

		if err := repositories.EnsureIndexes(cmd.Context(), m.DB); err != nil {
			return err
		}
		for _, idx := range repositories.Indexes() {
			fmt.Fprintf(cmd.OutOrStdout(), "  • %s %s\n", idx.Collection, describeKeys(idx))
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✅ Indexes in place")
		return nil
	},
}

func describeKeys(idx repositories.Index) string {
	var b strings.Builder
	b.WriteString(fmt.Sprint(idx.Model.Keys))
	if o := idx.Model.Options; o != nil && o.Unique != nil && *o.Unique {
		b.WriteString(" unique")
	}
	return b.String()
}

// scholarstream db:seed
var dbSeedCmd = &cobra.Command{
	Use:   "db:seed",
	Short: "Insert sample scholarships into an empty catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return err
		}
		store, closeStore, err := kernel.OpenStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore(cmd.Context()) //nolint:errcheck

		fmt.Fprintln(cmd.OutOrStdout(), "Seeding…")
		return seeders.RunAll(cmd.Context(), store, cmd.OutOrStdout())
	},
}

// scholarstream user:role <email> <role>
var userRoleCmd = &cobra.Command{
	Use:   "user:role <email> <Student|Moderator|Admin>",
	Short: "Set a user's role, creating the user when missing",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := models.ParseRole(args[1])
		if err != nil {
			return err
		}
		if err := config.Load(); err != nil {
			return err
		}
		store, closeStore, err := kernel.OpenStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore(cmd.Context()) //nolint:errcheck

		u, err := services.NewUserService(store.Users, time.Now).AssignRole(cmd.Context(), auth.NormalizeEmail(args[0]), role)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s is now %s\n", u.Email, u.Role)
		return nil
	},
}

var tokenTTL time.Duration

// scholarstream token:issue <email>
var tokenIssueCmd = &cobra.Command{
	Use:   "token:issue <email>",
	Short: "Issue a bearer token signed with JWT_SECRET (IDENTITY_PROVIDER=jwt)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return err
		}
		if config.IsProduction() {
			return fmt.Errorf("token:issue is disabled in production")
		}
		token, err := auth.NewJWTVerifier(config.JWTSecret()).GenerateToken(auth.NormalizeEmail(args[0]), tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenIssueCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
}
