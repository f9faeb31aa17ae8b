package faq

import (
	"github.com/ppg/ppgchat/internal/locale"
	"github.com/ppg/ppgchat/internal/ui"
)

// Render builds the list for entries. An empty slice renders the
// "no results" placeholder.
func (p *Panel) Render(entries []Entry) *ui.Node {
	p.mu.Lock()
	expanded := make(map[string]bool, len(p.expanded))
	for k, v := range p.expanded {
		expanded[k] = v
	}
	p.mu.Unlock()
	return renderList(entries, expanded, p.printer)
}

func renderList(entries []Entry, expanded map[string]bool, pr *locale.Printer) *ui.Node {
	list := ui.El("div").ID("faq-list").Class("faq-list")
	if len(entries) == 0 {
		return list.Append(placeholder(pr.T(locale.FAQEmpty)))
	}
	for _, e := range entries {
		item := ui.El("div",
			ui.El("button",
				ui.El("span", ui.Text(e.Q)),
				ui.El("span", ui.Text("▼")),
			).Class("faq-q").Attr("type", "button"),
			ui.El("div",
				ui.Markdown(e.A),
				ui.El("div",
					ui.El("button", ui.Text(pr.T(locale.FAQAsk))).Class("faq-chip", "faq-ask").Attr("type", "button"),
				).Class("faq-actions"),
			).Class("faq-a"),
		).Class("faq-item").Attr("data-key", e.Key())
		if e.Tag != "" {
			item.Attr("data-tag", e.Tag)
		}
		if expanded[e.Key()] {
			item.Class("open")
		}
		list.Append(item)
	}
	return list
}

func placeholder(text string) *ui.Node {
	return ui.El("div", ui.Text(text)).Class("faq-placeholder")
}

// View renders the whole panel: header, search box and the visible list.
func (p *Panel) View() *ui.Node {
	p.mu.Lock()
	open, status, query := p.open, p.status, p.query
	p.mu.Unlock()

	var list *ui.Node
	switch status {
	case StatusFailed:
		list = ui.El("div", placeholder(p.printer.T(locale.FAQLoadFailed)).Class("faq-error")).ID("faq-list").Class("faq-list")
	case StatusLoading:
		list = ui.El("div", placeholder(p.printer.T(locale.FAQLoading))).ID("faq-list").Class("faq-list")
	default:
		list = p.Render(p.Visible())
	}

	panel := ui.El("div",
		ui.El("div",
			ui.El("h3", ui.Text(p.printer.T(locale.FAQTitle))),
			ui.El("button", ui.Text("×")).ID("faqClose").Attr("type", "button"),
		).Class("faq-header"),
		ui.El("input").ID("faqSearch").
			Attr("type", "search").
			Attr("placeholder", p.printer.T(locale.FAQSearch)).
			Attr("value", query),
		list,
	).ID("faqPanel").Class("faq-panel")
	if open {
		panel.Class("open")
	}
	return panel
}
