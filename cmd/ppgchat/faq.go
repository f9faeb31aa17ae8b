package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppg/ppgchat/internal/chat"
	"github.com/ppg/ppgchat/internal/faq"
	"github.com/ppg/ppgchat/internal/locale"
)

func printEntries(w io.Writer, p *locale.Printer, entries []faq.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, p.T(locale.FAQEmpty))
		return
	}
	for i, e := range entries {
		fmt.Fprintf(w, "%s %s", bold.Sprintf("%d.", i+1), e.Q)
		if e.Tag != "" {
			fmt.Fprintf(w, " %s", cyan.Sprintf("[%s]", e.Tag))
		}
		fmt.Fprintln(w)
		for _, line := range strings.Split(e.A, "\n") {
			fmt.Fprintf(w, "   %s\n", line)
		}
	}
}

func newFAQCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "faq",
		Short: "Browse the public FAQ",
	}

	var tag string
	list := &cobra.Command{
		Use:   "list",
		Short: "List FAQ entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := e.newFAQ(e.newChat())
			p.Open(cmd.Context())
			if p.Status() == faq.StatusFailed {
				return fmt.Errorf("%s", e.printer.T(locale.FAQLoadFailed))
			}
			entries := p.Entries()
			if tag != "" {
				entries = p.FilterTag(tag)
			}
			printEntries(cmd.OutOrStdout(), e.printer, entries)
			return nil
		},
	}
	list.Flags().StringVar(&tag, "tag", "", "only entries mentioning this tag")

	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search questions, answers and tags",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := e.newFAQ(e.newChat())
			p.Open(cmd.Context())
			if p.Status() == faq.StatusFailed {
				return fmt.Errorf("%s", e.printer.T(locale.FAQLoadFailed))
			}
			printEntries(cmd.OutOrStdout(), e.printer, p.Filter(strings.Join(args, " ")))
			return nil
		},
	}

	ask := &cobra.Command{
		Use:   "ask <number>",
		Short: "Ask the assistant the numbered FAQ question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid entry number %q", args[0])
			}
			m := e.newChat()
			p := e.newFAQ(m)
			p.Open(cmd.Context())
			entries := p.Entries()
			if n < 1 || n > len(entries) {
				return fmt.Errorf("entry %d out of range (1-%d)", n, len(entries))
			}

			entry := entries[n-1]
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, bold.Sprint("you> ")+entry.Q)
			outcome := p.Ask(cmd.Context(), entry)
			if outcome == chat.OutcomeSkipped {
				outcome = m.Submit(cmd.Context())
			}
			return printReply(out, m, outcome)
		},
	}

	cmd.AddCommand(list, search, ask)
	return cmd
}
