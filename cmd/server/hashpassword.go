package main

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"authservice/backend/internal/infrastructure/password"
)

// Test seams for terminal input.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// NewHashPasswordCmd creates the hash-password subcommand, used to seed
// accounts or rotate credentials by hand.
func NewHashPasswordCmd() *cobra.Command {
	var (
		algorithm  string
		bcryptCost int
	)
	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a password read from the terminal or stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hasher, err := password.New(password.Options{
				Algorithm:     algorithm,
				BcryptCost:    bcryptCost,
				Argon2:        password.DefaultArgon2Params(),
				MaxConcurrent: 1,
			})
			if err != nil {
				return oops.Code("CONFIG_INVALID").Wrap(err)
			}

			secret, err := readSecret(cmd)
			if err != nil {
				return err
			}
			hashed, err := hasher.Hash(commandContext(cmd), secret)
			if err != nil {
				return err
			}
			cmd.Println(hashed)
			return nil
		},
	}
	cmd.Flags().StringVar(&algorithm, "algorithm", password.AlgorithmBcrypt, "hash algorithm (bcrypt or argon2id)")
	cmd.Flags().IntVar(&bcryptCost, "bcrypt-cost", 10, "bcrypt work factor")
	return cmd
}

func readSecret(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if cmd.InOrStdin() == os.Stdin && isTerminal(fd) {
		cmd.PrintErr("Password: ")
		secret, err := readPassword(fd)
		cmd.PrintErrln()
		if err != nil {
			return "", oops.Code("INPUT_READ_FAILED").Wrap(err)
		}
		return string(secret), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", oops.Code("INPUT_READ_FAILED").Wrap(err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
