package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rgehrsitz/satax/internal/tui/tuistyles"
)

// ChecklistItem is one line of a Checklist.
type ChecklistItem struct {
	Title   string
	Detail  string
	Checked bool
}

// Checklist renders items with a cursor and tick boxes. Detail text is
// shown for the item under the cursor only.
type Checklist struct {
	Items  []ChecklistItem
	Cursor int
	Width  int
}

// Render returns the list.
func (c *Checklist) Render() string {
	var b strings.Builder
	detailStyle := tuistyles.InfoStyle.PaddingLeft(6)
	if c.Width > 0 {
		detailStyle = detailStyle.Width(c.Width)
	}
	for i, item := range c.Items {
		box := "[ ]"
		if item.Checked {
			box = tuistyles.SuccessStyle.Render("[✓]")
		}
		pointer := "  "
		style := tuistyles.UnselectedItemStyle
		if i == c.Cursor {
			pointer = "› "
			style = tuistyles.SelectedItemStyle
		}
		b.WriteString(pointer + box + " " + style.Render(item.Title) + "\n")
		if i == c.Cursor && item.Detail != "" {
			b.WriteString(detailStyle.Render(item.Detail) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Height is the number of rendered lines.
func (c *Checklist) Height() int {
	return lipgloss.Height(c.Render())
}
