package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/scholarstream/scholarstream/app/repositories"
	"github.com/scholarstream/scholarstream/internal/kernel"
	"github.com/scholarstream/scholarstream/internal/server"
	"github.com/scholarstream/scholarstream/pkg/auth"
	"github.com/scholarstream/scholarstream/pkg/payment"
)

// scholarstream serve
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run", "start"},
	Short:   "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		k, err := kernel.Boot(ctx)
		if err != nil {
			return err
		}
		return server.Run(ctx, k)
	},
}

// scholarstream route:list
var routeListCmd = &cobra.Command{
	Use:     "route:list",
	Aliases: []string{"routes"},
	Short:   "List all registered routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Routes do not depend on the backing services.
		k := kernel.New(kernel.Options{
			Store:    repositories.NewMemoryStore(),
			Verifier: auth.NewJWTVerifier("route-list"),
			Gateway:  payment.NewFake(),
		})
		defer k.Shutdown(cmd.Context()) //nolint:errcheck

		return printRoutes(cmd.OutOrStdout(), k)
	},
}

func printRoutes(out io.Writer, k *kernel.Kernel) error {
	infos := k.Routes()

	// Sort by path then method.
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Path != infos[j].Path {
			return infos[i].Path < infos[j].Path
		}
		return infos[i].Method < infos[j].Method
	})

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "METHOD\tPATH\tNAME")
	fmt.Fprintln(w, "------\t----\t----")
	for _, ri := range infos {
		fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
	}
	return w.Flush()
}
