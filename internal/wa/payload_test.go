package wa

import (
	"strings"
	"testing"
)

func TestText(t *testing.T) {
	p := Text("+33612345678", "Bonjour")
	if p.Type != "text" || p.Text == nil || p.Text.Body != "Bonjour" {
		t.Fatalf("unexpected payload: %+v", p)
	}
	if p.MessagingProduct != "whatsapp" {
		t.Fatalf("unexpected messaging product: %q", p.MessagingProduct)
	}
}

func TestButtons(t *testing.T) {
	p := Buttons("+33612345678", "Choix ?", []Button{
		{ID: "a", Title: "Option A"},
		{ID: "b", Title: "Option B"},
	})
	if p.Interactive == nil || p.Interactive.Type != "button" {
		t.Fatalf("unexpected payload: %+v", p)
	}
	if len(p.Interactive.Action.Buttons) != 2 {
		t.Fatalf("expected 2 buttons, got %d", len(p.Interactive.Action.Buttons))
	}
	if p.Interactive.Action.Buttons[0].Reply.ID != "a" {
		t.Fatalf("button id lost: %+v", p.Interactive.Action.Buttons[0])
	}
}

func TestButtonsCapsAtThree(t *testing.T) {
	p := Buttons("+33612345678", "Choix ?", []Button{
		{ID: "a", Title: "A"},
		{ID: "b", Title: "B"},
		{ID: "c", Title: "C"},
		{ID: "d", Title: "D"},
	})
	if len(p.Interactive.Action.Buttons) != MaxButtons {
		t.Fatalf("expected %d buttons, got %d", MaxButtons, len(p.Interactive.Action.Buttons))
	}
}

func TestButtonsTruncatesTitles(t *testing.T) {
	long := strings.Repeat("é", 30)
	p := Buttons("+33612345678", "Choix ?", []Button{{ID: "a", Title: long}})
	title := p.Interactive.Action.Buttons[0].Reply.Title
	if runes := []rune(title); len(runes) != buttonTitleLimit {
		t.Fatalf("expected %d runes, got %d (%q)", buttonTitleLimit, len(runes), title)
	}
	if !strings.HasSuffix(title, "…") {
		t.Fatalf("expected ellipsis marker, got %q", title)
	}
}

func TestSingleURLButtonBecomesLinkOut(t *testing.T) {
	p := Buttons("+33612345678", "Nouvelle offre", []Button{
		{Title: "Voir l'offre", URL: "https://example.org/job/42"},
	})
	if p.Interactive == nil || p.Interactive.Type != "cta_url" {
		t.Fatalf("expected cta_url payload, got %+v", p)
	}
	params := p.Interactive.Action.Parameters
	if params == nil || params.URL != "https://example.org/job/42" {
		t.Fatalf("url lost: %+v", params)
	}
}

func TestListChunksSections(t *testing.T) {
	rows := make([]Row, 13)
	for i := range rows {
		rows[i] = Row{ID: "r", Title: "Titre"}
	}
	p := List("+33612345678", "Catégories", "Ouvrir", rows)
	if p.Interactive == nil || p.Interactive.Type != "list" {
		t.Fatalf("unexpected payload: %+v", p)
	}
	sections := p.Interactive.Action.Sections
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if len(sections[0].Rows) != MaxRowsPerSection || len(sections[1].Rows) != 3 {
		t.Fatalf("bad chunking: %d/%d", len(sections[0].Rows), len(sections[1].Rows))
	}
}

func TestListTruncatesRowTitles(t *testing.T) {
	long := strings.Repeat("a", 40)
	p := List("+33612345678", "Catégories", "Ouvrir", []Row{{ID: "r", Title: long}})
	title := p.Interactive.Action.Sections[0].Rows[0].Title
	if runes := []rune(title); len(runes) != rowTitleLimit {
		t.Fatalf("expected %d runes, got %d", rowTitleLimit, len(runes))
	}
}
