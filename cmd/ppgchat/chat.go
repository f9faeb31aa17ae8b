package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppg/ppgchat/internal/chat"
	"github.com/ppg/ppgchat/internal/config"
	"github.com/ppg/ppgchat/internal/faq"
	"github.com/ppg/ppgchat/internal/ui"
)

var httpClient = func() *http.Client { return http.DefaultClient }

func (e *env) newChat() *chat.Manager {
	return chat.New(chat.Options{
		Store:       e.chatStore(),
		HTTP:        httpClient(),
		Endpoint:    e.cfg.Chat.APIURL,
		Timeout:     e.cfg.ChatTimeout(),
		TypingDelay: e.cfg.TypingDelay(),
		Cap:         e.cfg.History.Cap,
		Printer:     e.printer,
		Logger:      slog.Default(),
	})
}

func (e *env) newFAQ(m *chat.Manager) *faq.Panel {
	return faq.New(faq.Options{
		HTTP:     httpClient(),
		BaseURL:  e.cfg.FAQ.APIURL,
		Printer:  e.printer,
		Logger:   slog.Default(),
		Input:    m,
		Sender:   m,
		AutoSend: e.cfg.FAQ.AutoSend,
	})
}

// printReply writes the newest assistant turn and reports whether the send
// reached the assistant.
func printReply(w io.Writer, m *chat.Manager, outcome chat.Outcome) error {
	turns := m.State().Turns
	if len(turns) == 0 {
		return nil
	}
	last := turns[len(turns)-1]
	switch outcome {
	case chat.OutcomeSuccess:
		fmt.Fprintln(w, cyan.Sprint("ppg> ")+last.Content)
		return nil
	case chat.OutcomeSkipped, chat.OutcomeBusy:
		return nil
	}
	printError(w, "%s", last.Content)
	return fmt.Errorf("chat: %s", outcome)
}

func newChatCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message...]",
		Short: "Talk to the assistant",
		Long: `Send one message, or start an interactive session when no message is given.

Interactive commands:
  /history   show the stored conversation
  /clear     forget the stored conversation
  /quit      leave`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := e.newChat()
			out := cmd.OutOrStdout()
			if len(args) > 0 {
				outcome := m.Send(cmd.Context(), strings.Join(args, " "))
				return printReply(out, m, outcome)
			}
			if e.cfg.History.Scope == config.ScopeSession {
				printWarning(out, "history.scope is session: the conversation is forgotten on exit")
			}
			return repl(cmd, m)
		},
	}
	return cmd
}

func repl(cmd *cobra.Command, m *chat.Manager) error {
	out := cmd.OutOrStdout()
	if len(m.LoadHistory()) == 0 {
		fmt.Fprintln(out, ui.PlainText(m.View().ByClass("greeting")[0]))
	}

	sc := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, bold.Sprint("you> "))
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/clear":
			m.ClearHistory()
			printSuccess(out, "history cleared")
			continue
		case "/history":
			printTranscript(out, m.State().Turns)
			continue
		}

		m.SetInput(line)
		outcome := m.Submit(cmd.Context())
		// Failures are already shown as an assistant bubble.
		_ = printReply(out, m, outcome)
	}
}

func printTranscript(w io.Writer, turns []chat.Turn) {
	if len(turns) == 0 {
		fmt.Fprintln(w, "No history.")
		return
	}
	for _, t := range turns {
		label := bold.Sprint("you")
		if t.Role == chat.RoleAssistant {
			label = cyan.Sprint("ppg")
		}
		fmt.Fprintf(w, "%s  %s> %s\n", t.Timestamp.Local().Format("2006-01-02 15:04"), label, t.Content)
	}
}

func newHistoryCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear the stored conversation",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the stored conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := e.newChat()
			printStatus(cmd.OutOrStdout(), "visitor", "%s", m.VisitorKey())
			printTranscript(cmd.OutOrStdout(), m.LoadHistory())
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget the stored conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			e.newChat().ClearHistory()
			printSuccess(cmd.OutOrStdout(), "history cleared")
			return nil
		},
	})
	return cmd
}
