// Package feedback renders result items for the launcher host. The host
// consumes the script-filter JSON format on stdout; when stdout is a
// terminal the items are rendered as a table instead, which keeps the
// binary usable by hand.
package feedback

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"
)

// Icon names shipped with the workflow bundle.
const (
	IconDefault  = "icon.png"
	IconError    = "error.png"
	IconWarning  = "warning.png"
	IconLabel    = "label.png"
	IconNote     = "note.png"
	IconSettings = "settings.png"
)

// PriorityIcon returns the icon for a priority tier (1=urgent .. 4=low).
func PriorityIcon(priority int) string {
	if priority < 1 || priority > 4 {
		return IconDefault
	}
	return fmt.Sprintf("prio%d.png", priority)
}

// Item is one selectable row in the launcher.
type Item struct {
	Title        string
	Subtitle     string
	Valid        bool
	Arg          string
	Autocomplete string
	Icon         string
	Variables    map[string]string
}

// Feedback collects items for one invocation.
type Feedback struct {
	items []Item
}

// New creates an empty Feedback.
func New() *Feedback {
	return &Feedback{}
}

// Add appends an item.
func (f *Feedback) Add(item Item) {
	f.items = append(f.items, item)
}

// AddAll appends every item in order.
func (f *Feedback) AddAll(items []Item) {
	f.items = append(f.items, items...)
}

// Len returns the number of collected items.
func (f *Feedback) Len() int {
	return len(f.items)
}

// Items returns the collected items.
func (f *Feedback) Items() []Item {
	return f.items
}

// jsonIcon is the script-filter icon object.
type jsonIcon struct {
	Path string `json:"path"`
}

// jsonItem is the script-filter wire format for one item.
type jsonItem struct {
	Title        string            `json:"title"`
	Subtitle     string            `json:"subtitle,omitempty"`
	Valid        bool              `json:"valid"`
	Arg          string            `json:"arg,omitempty"`
	Autocomplete string            `json:"autocomplete,omitempty"`
	Icon         *jsonIcon         `json:"icon,omitempty"`
	Variables    map[string]string `json:"variables,omitempty"`
}

// Send renders the collected items to w. A terminal gets the table
// rendering, anything else the JSON format. An invocation never emits
// zero items: an empty collection renders a single placeholder.
func (f *Feedback) Send(w io.Writer) error {
	if f.Len() == 0 {
		f.Add(Item{Title: "No results", Valid: false})
	}

	if isTerminal(w) {
		return f.renderTable(w)
	}
	return f.renderJSON(w)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

func (f *Feedback) renderJSON(w io.Writer) error {
	out := struct {
		Items []jsonItem `json:"items"`
	}{Items: make([]jsonItem, len(f.items))}

	for i, item := range f.items {
		ji := jsonItem{
			Title:        item.Title,
			Subtitle:     item.Subtitle,
			Valid:        item.Valid,
			Arg:          item.Arg,
			Autocomplete: item.Autocomplete,
			Variables:    item.Variables,
		}
		if item.Icon != "" {
			ji.Icon = &jsonIcon{Path: item.Icon}
		}
		out.Items[i] = ji
	}

	enc := json.NewEncoder(w)
	return enc.Encode(out)
}

func (f *Feedback) renderTable(w io.Writer) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Title", "Subtitle", "Action"})
	for _, item := range f.items {
		action := item.Arg
		if action == "" {
			action = item.Autocomplete
		}
		t.AppendRow(table.Row{item.Title, item.Subtitle, action})
	}
	t.Render()
	return nil
}
