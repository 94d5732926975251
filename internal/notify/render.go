package notify

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/roach88/listwatch/internal/diff"
	"github.com/roach88/listwatch/internal/record"
	"github.com/roach88/listwatch/internal/store"
)

// maxListed caps each section so a bulk revision of the list does not
// produce a megabyte of mail. The counts in the summary are always exact.
const maxListed = 50

// RenderHTML renders a committed changelog entry as a self-contained HTML
// document. Exported so message formatting can be tested without SMTP.
func RenderHTML(entry store.Entry, sourceURL string) string {
	cs := entry.Change

	var sb strings.Builder
	sb.WriteString("<html><body>")
	sb.WriteString("<h2>Wykryto zmiany na liście sankcyjnej</h2>")
	fmt.Fprintf(&sb, "<p>Data sprawdzenia: %s</p>", html.EscapeString(entry.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC")))
	fmt.Fprintf(&sb, "<p>Dodane: <b>%d</b>, usunięte: <b>%d</b>, zmienione: <b>%d</b></p>",
		len(cs.Added), len(cs.Removed), len(cs.Modified))

	writeRecordSection(&sb, "Nowe wpisy", cs.Added)
	writeRecordSection(&sb, "Usunięte wpisy", cs.Removed)
	writeModifiedSection(&sb, cs.Modified)

	if sourceURL != "" {
		fmt.Fprintf(&sb, `<p><a href="%s">Źródło</a></p>`, html.EscapeString(sourceURL))
	}
	sb.WriteString("</body></html>")
	return sb.String()
}

func writeRecordSection(sb *strings.Builder, title string, records []record.Record) {
	if len(records) == 0 {
		return
	}
	fmt.Fprintf(sb, "<h3>%s (%d)</h3><ul>", html.EscapeString(title), len(records))
	for i, r := range records {
		if i == maxListed {
			fmt.Fprintf(sb, "<li>... i %d więcej</li>", len(records)-maxListed)
			break
		}
		fmt.Fprintf(sb, "<li><b>%s</b>%s</li>", html.EscapeString(r.ID), html.EscapeString(recordSummary(r)))
	}
	sb.WriteString("</ul>")
}

func writeModifiedSection(sb *strings.Builder, mods []diff.Modification) {
	if len(mods) == 0 {
		return
	}
	fmt.Fprintf(sb, "<h3>Zmienione wpisy (%d)</h3><ul>", len(mods))
	for i, m := range mods {
		if i == maxListed {
			fmt.Fprintf(sb, "<li>... i %d więcej</li>", len(mods)-maxListed)
			break
		}
		fmt.Fprintf(sb, "<li><b>%s</b><ul>", html.EscapeString(m.ID))
		for _, name := range m.ChangedFieldNames() {
			ch := m.Changes[name]
			fmt.Fprintf(sb, "<li>%s: <i>%s</i> &rarr; <i>%s</i></li>",
				html.EscapeString(name),
				html.EscapeString(displayValue(ch.Old)),
				html.EscapeString(displayValue(ch.New)))
		}
		sb.WriteString("</ul></li>")
	}
	sb.WriteString("</ul>")
}

// recordSummary renders a short, stable preview of a record's fields.
func recordSummary(r record.Record) string {
	names := make([]string, 0, len(r.Fields))
	for name := range r.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	var parts []string
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, r.Fields[name]))
		if len(parts) == 3 {
			break
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " - " + strings.Join(parts, ", ")
}

func displayValue(v string) string {
	if v == "" {
		return "(brak)"
	}
	return v
}
