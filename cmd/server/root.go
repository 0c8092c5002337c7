package main

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the authservice command tree. Running it bare serves HTTP.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authservice",
		Short: "Credential signup, login and token service",
		Long: `authservice registers users, verifies passwords and issues signed
access tokens over HTTP. Configuration is read from the environment.`,
		RunE:         runServe,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewHashPasswordCmd())
	cmd.AddCommand(NewAccountStateCmd("disable-user", true))
	cmd.AddCommand(NewAccountStateCmd("enable-user", false))

	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
