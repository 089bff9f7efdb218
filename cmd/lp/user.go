package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Dashboard account commands",
	}

	cmd.AddCommand(newUserCreateCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "create <email>",
		Short: "Create a dashboard account",
		Long:  "Creates an account. The password is prompted for, or read from the first line of stdin when it is not a terminal.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserCreate(cmd, configPath, args[0])
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func runUserCreate(cmd *cobra.Command, configPath, email string) error {
	password, err := readPassword(cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := openApp(ctx, configPath, false)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.auth.SignUp(ctx, email, password)
	if err != nil {
		return err
	}
	printSuccess(cmd.OutOrStdout(), "Created account %s (%s)", user.Email, user.ID)
	return nil
}

// readPassword prompts twice without echo on a terminal. Any other reader
// supplies the password as its first line.
func readPassword(in io.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		fmt.Fprint(out, "Password: ")
		first, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		fmt.Fprint(out, "Confirm password: ")
		second, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		if string(first) != string(second) {
			return "", fmt.Errorf("passwords do not match")
		}
		return string(first), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("no password given on stdin")
	}
	return line, nil
}
