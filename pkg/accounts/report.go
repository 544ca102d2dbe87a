package accounts

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// TimeLayout formats banner timestamps.
const TimeLayout = "2006-01-02 15:04:05"

const (
	labelWidth  = 11
	placeholder = "N/A"
)

// Report renders account records for a console that may be duplicated into a file.
// Styles follow the renderer's colour profile, so no escape sequences are emitted
// unless the renderer's output is a terminal.
type Report struct {
	w       io.Writer
	banner  lipgloss.Style
	heading lipgloss.Style
	name    lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
}

// NewReport creates a report writing to w. The renderer should be bound to the
// terminal w ultimately reaches; nil binds one to w itself.
func NewReport(w io.Writer, renderer *lipgloss.Renderer) *Report {
	if renderer == nil {
		renderer = lipgloss.NewRenderer(w)
	}
	return &Report{
		w:       w,
		banner:  renderer.NewStyle().Bold(true),
		heading: renderer.NewStyle().Bold(true).Underline(true),
		name:    renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("81")),
		label:   renderer.NewStyle().Foreground(lipgloss.Color("245")),
		muted:   renderer.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// Banner prints a timestamped separator line.
func (r *Report) Banner(title string, ts time.Time) {
	fmt.Fprintln(r.w, r.banner.Render(fmt.Sprintf("--- %s @ %s ---", title, ts.Format(TimeLayout))))
}

// Section prints a heading followed by the record count.
func (r *Report) Section(title string, count int) {
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "%s (%d found)\n", r.heading.Render(title), count)
}

// Records prints one block per record. showKind adds the system/regular label.
func (r *Report) Records(records []Record, showKind bool) {
	if len(records) == 0 {
		fmt.Fprintln(r.w, r.muted.Render("  (none)"))
		return
	}
	for _, rec := range records {
		fmt.Fprintf(r.w, "- %s\n", r.name.Render(rec.Username))
		r.field("UID", strconv.Itoa(rec.UID))
		r.field("GID", strconv.Itoa(rec.GID))
		r.field("Full Name", orPlaceholder(rec.FullName))
		r.field("Home", orPlaceholder(rec.HomeDir))
		r.field("Shell", orPlaceholder(rec.Shell))
		if showKind {
			r.field("Type", KindLabel(rec))
		}
	}
}

func (r *Report) field(label, value string) {
	padded := runewidth.FillRight(label+":", labelWidth)
	fmt.Fprintf(r.w, "    %s %s\n", r.label.Render(padded), value)
}

// KindLabel describes whether the record is a system or regular account.
func KindLabel(rec Record) string {
	if rec.IsSystem {
		return "System Account"
	}
	return "Regular User"
}

func orPlaceholder(value string) string {
	if value == "" {
		return placeholder
	}
	return value
}
