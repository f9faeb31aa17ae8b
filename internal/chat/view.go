package chat

import (
	"github.com/ppg/ppgchat/internal/locale"
	"github.com/ppg/ppgchat/internal/ui"
)

// View renders the transcript, the typing indicator and the input form.
// The greeting bubble is shown only while the history is empty and is not
// part of the stored history.
func (m *Manager) View() *ui.Node {
	s := m.State()
	return Render(s, m.printer)
}

// Render is the pure state-to-tree mapping behind View.
func Render(s State, p *locale.Printer) *ui.Node {
	box := ui.El("div").ID("chat-box").Class("chat-box")

	if len(s.Turns) == 0 {
		box.Append(bubble(RoleAssistant, p.T(locale.Greeting)).Class("greeting"))
	}
	for _, t := range s.Turns {
		box.Append(bubble(t.Role, t.Content))
	}
	if s.Typing {
		box.Append(
			ui.El("div",
				ui.El("div", ui.Text(p.T(locale.Typing))).Class("bubble", "assistant", "typing"),
			).ID("typing").Class("msg-row", "assistant"),
		)
	}

	input := ui.El("textarea", ui.Text(s.Input)).
		ID("user-input").
		Attr("placeholder", p.T(locale.InputPlaceholder)).
		Attr("rows", "1")

	send := ui.El("button", ui.Text(p.T(locale.Send))).ID("send-btn").Attr("type", "submit")
	if s.Busy {
		send.Attr("disabled", "")
	}

	return ui.El("div",
		box,
		ui.El("form", input, send).Class("chat-input"),
	).ID("chat").Class("chat")
}

func bubble(role Role, content string) *ui.Node {
	var body *ui.Node
	if role == RoleAssistant {
		body = ui.Markdown(content)
	} else {
		body = ui.Text(content)
	}
	return ui.El("div",
		ui.El("div", body).Class("bubble", string(role)),
	).Class("msg-row", string(role))
}
