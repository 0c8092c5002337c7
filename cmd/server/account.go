package main

import (
	"github.com/spf13/cobra"
)

// NewAccountStateCmd creates disable-user or enable-user.
func NewAccountStateCmd(use string, disabled bool) *cobra.Command {
	short := "Re-enable a locked account"
	if disabled {
		short = "Lock an account so it can no longer log in"
	}
	return &cobra.Command{
		Use:   use + " EMAIL",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			a, err := newApp(ctx, cfg, logger, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.auth.SetAccountDisabled(ctx, args[0], disabled); err != nil {
				return err
			}
			cmd.Printf("Account %s updated (disabled: %t)\n", args[0], disabled)
			return nil
		},
	}
}
