// Command scholarstream runs the ScholarStream API and its maintenance tasks.
//
//	scholarstream serve                       # start HTTP (+ gRPC health) server
//	scholarstream route:list                  # list API routes
//	scholarstream db:index                    # create MongoDB indexes
//	scholarstream db:seed                     # insert sample scholarships
//	scholarstream user:role <email> <role>    # grant a role, e.g. the first Admin
//	scholarstream token:issue <email>         # dev bearer token (IDENTITY_PROVIDER=jwt)
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/scholarstream/scholarstream/database/seeders"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "scholarstream",
	Short:         "ScholarStream scholarship application API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Server
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	// Database
	rootCmd.AddCommand(dbIndexCmd)
	rootCmd.AddCommand(dbSeedCmd)

	// Users
	rootCmd.AddCommand(userRoleCmd)
	rootCmd.AddCommand(tokenIssueCmd)
}
