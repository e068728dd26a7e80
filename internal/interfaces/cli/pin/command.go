// Package pin provides PIN utilities for operators.
package pin

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/heya-pos/heya/internal/domain/staff"
	"github.com/heya-pos/heya/internal/infrastructure/auth"
)

var cost int

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pin",
		Short: "PIN utilities",
	}
	cmd.AddCommand(newHashCommand())
	return cmd
}

func newHashCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Print the bcrypt hash of a PIN",
		Long:  `Read a PIN from the terminal without echo, or from stdin when piped, and print its bcrypt hash.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pin, err := readPIN(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			hash, err := hashPIN(pin, cost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	return cmd
}

// readPIN prompts without echo when in is a terminal and reads one line
// otherwise.
func readPIN(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "PIN: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read pin: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read pin: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func hashPIN(pin string, cost int) (string, error) {
	if err := staff.ValidatePIN(pin); err != nil {
		return "", err
	}
	return auth.NewBcryptPinHasher(cost).Hash(pin)
}
