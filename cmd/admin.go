package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/example/watchlist/internal/auth"
	"github.com/example/watchlist/internal/users"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newAdminCmd() *cobra.Command {
	var username, password string

	c := &cobra.Command{
		Use:   "admin",
		Short: "Create the login user, or change its username and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			var err error
			if username == "" {
				if username, err = promptLine(in, out, "Username: "); err != nil {
					return err
				}
			}
			username = strings.TrimSpace(username)
			if err := users.ValidateUsername(username); err != nil {
				return err
			}
			if password == "" {
				if password, err = promptNewPassword(cmd, in, out); err != nil {
					return err
				}
			}
			if password == "" {
				return errors.New("password required")
			}

			ctx := context.Background()
			d, _, err := openMigrated(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			created, err := users.NewRepo(d).SetAdmin(ctx, username, hash)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintln(out, "Creating user...")
			} else {
				fmt.Fprintln(out, "Updating user...")
			}
			fmt.Fprintln(out, "Done.")
			return nil
		},
	}

	c.Flags().StringVar(&username, "username", "", "login name (prompted when empty)")
	c.Flags().StringVar(&password, "password", "", "login password (prompted when empty)")
	return c
}

func promptLine(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptNewPassword asks for the password twice. It reads without echo when
// stdin is a terminal.
func promptNewPassword(cmd *cobra.Command, in *bufio.Reader, out io.Writer) (string, error) {
	read := func(label string) (string, error) {
		if cmd.InOrStdin() == os.Stdin && term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprint(out, label)
			b, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(out)
			return string(b), err
		}
		return promptLine(in, out, label)
	}

	pw, err := read("Password: ")
	if err != nil {
		return "", err
	}
	confirm, err := read("Repeat for confirmation: ")
	if err != nil {
		return "", err
	}
	if pw != confirm {
		return "", errors.New("passwords do not match")
	}
	return pw, nil
}
