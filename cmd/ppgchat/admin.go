package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ppg/ppgchat/internal/admin"
	"github.com/ppg/ppgchat/internal/faq"
)

func (e *env) newAdmin(base string) *admin.Editor {
	if base == "" {
		base = e.cfg.Admin.APIBase
	}
	c := admin.New(admin.Options{
		BaseURL: base,
		Store:   e.durable,
		HTTP:    httpClient(),
		Logger:  slog.Default(),
	})
	return admin.NewEditor(c, e.printer)
}

// readPassword prompts on a terminal without echo, or reads one line from
// in when it is not a terminal.
func readPassword(in io.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(out, "Password: ")
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		return string(pw), err
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// result prints the editor status and turns a failed action into an error.
func result(w io.Writer, ed *admin.Editor, ok bool) error {
	if !ok {
		return errors.New(ed.Status())
	}
	printSuccess(w, "%s", ed.Status())
	return nil
}

// requireSession restores the stored session, failing when there is none.
func requireSession(ctx context.Context, ed *admin.Editor) error {
	ed.Init(ctx)
	if !ed.Authenticated() {
		if msg := ed.LoginMessage(); msg != "" {
			return errors.New(msg)
		}
		return errors.New("not logged in, run: ppgchat admin login")
	}
	return nil
}

func newAdminCmd(e *env) *cobra.Command {
	var base string
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage the FAQ through the admin API",
	}
	cmd.PersistentFlags().StringVar(&base, "api", "", "admin API base URL (overrides admin.api_base)")

	var password string
	login := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ed := e.newAdmin(base)
			pw := password
			if pw == "" {
				var err error
				if pw, err = readPassword(cmd.InOrStdin(), cmd.ErrOrStderr()); err != nil {
					return fmt.Errorf("reading password: %w", err)
				}
			}
			if !ed.Login(cmd.Context(), pw) {
				return errors.New(ed.LoginMessage())
			}
			out := cmd.OutOrStdout()
			printSuccess(out, "%s", ed.LoginMessage())
			printStatus(out, "status", "%s", ed.Status())
			return nil
		},
	}
	login.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ed := e.newAdmin(base)
			ed.Logout()
			printSuccess(cmd.OutOrStdout(), "%s", ed.Status())
			return nil
		},
	}

	health := &cobra.Command{
		Use:   "health",
		Short: "Check the admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := admin.New(admin.Options{BaseURL: orDefault(base, e.cfg.Admin.APIBase), Store: e.durable, HTTP: httpClient()})
			doc, err := c.Health(cmd.Context())
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(doc))
			for k := range doc {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				printStatus(cmd.OutOrStdout(), k, "%v", doc[k])
			}
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List entries with their ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			ed := e.newAdmin(base)
			if err := requireSession(cmd.Context(), ed); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, en := range ed.Entries() {
				fmt.Fprintf(out, "%s  %s", cyan.Sprint(en.ID), en.Q)
				if en.Tag != "" {
					fmt.Fprintf(out, " [%s]", en.Tag)
				}
				fmt.Fprintln(out)
			}
			printStatus(out, "status", "%s", ed.Status())
			return nil
		},
	}

	var entry faq.Entry
	add := &cobra.Command{
		Use:   "add",
		Short: "Add an entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			ed := e.newAdmin(base)
			if err := requireSession(cmd.Context(), ed); err != nil {
				return err
			}
			return result(cmd.OutOrStdout(), ed, ed.Add(cmd.Context(), entry))
		},
	}
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ed := e.newAdmin(base)
			if err := requireSession(cmd.Context(), ed); err != nil {
				return err
			}
			return result(cmd.OutOrStdout(), ed, ed.Update(cmd.Context(), args[0], entry))
		},
	}
	for _, c := range []*cobra.Command{add, update} {
		c.Flags().StringVar(&entry.Q, "q", "", "question")
		c.Flags().StringVar(&entry.A, "a", "", "answer")
		c.Flags().StringVar(&entry.Tag, "tag", "", "tag")
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ed := e.newAdmin(base)
			if err := requireSession(cmd.Context(), ed); err != nil {
				return err
			}
			return result(cmd.OutOrStdout(), ed, ed.Delete(cmd.Context(), args[0]))
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Replace the whole FAQ with a JSON array (use - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			ed := e.newAdmin(base)
			if err := requireSession(cmd.Context(), ed); err != nil {
				return err
			}
			return result(cmd.OutOrStdout(), ed, ed.Import(cmd.Context(), string(data)))
		},
	}

	export := &cobra.Command{
		Use:   "export",
		Short: "Print the whole FAQ as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ed := e.newAdmin(base)
			if err := requireSession(cmd.Context(), ed); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ed.Export())
			return nil
		},
	}

	cmd.AddCommand(login, logout, health, list, add, update, del, importCmd, export)
	return cmd
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
