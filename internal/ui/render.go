package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/checklists/internal/models"
)

const (
	barFull  = "█"
	barEmpty = "░"
)

// ProgressBar draws done/total as a bar of width cells.
func ProgressBar(done, total, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if total > 0 {
		filled = min(width, done*width/total)
	}
	return strings.Repeat(barFull, filled) + strings.Repeat(barEmpty, width-filled)
}

// RenderChecklist draws one checklist with its items.
func (p *Palette) RenderChecklist(c *models.Checklist) string {
	var b strings.Builder

	done := c.Completed()
	fmt.Fprintf(&b, "%s %s\n", p.Title(c.Title), p.Help(c.ID))
	fmt.Fprintf(&b, "%s %d/%d\n", p.ok.Render(ProgressBar(done, len(c.Items), 20)), done, len(c.Items))

	if len(c.Items) == 0 {
		b.WriteString(p.Help("  no items") + "\n")
		return b.String()
	}

	for _, item := range c.Items {
		if item.Completed {
			fmt.Fprintf(&b, "  %s %s\n", p.OK("[x]"), item.Content)
		} else {
			fmt.Fprintf(&b, "  %s %s\n", p.Warn("[ ]"), item.Content)
		}
	}
	return b.String()
}

// ChecklistTable summarizes checklists, one row each.
func (p *Palette) ChecklistTable(checklists []*models.Checklist) string {
	t := p.newTable("ID", "Title", "Items", "Done", "Created")
	for _, c := range checklists {
		t.Row(c.ID, c.Title, strconv.Itoa(len(c.Items)), strconv.Itoa(c.Completed()), models.FormatTimestamp(c.CreatedAt))
	}
	return t.String()
}

// UserTable lists accounts, one row each.
func (p *Palette) UserTable(users []*models.User) string {
	t := p.newTable("ID", "Email", "Name", "Created")
	for _, u := range users {
		name := ""
		if u.Name != nil {
			name = *u.Name
		}
		t.Row(u.ID, u.Email, name, models.FormatTimestamp(u.CreatedAt))
	}
	return t.String()
}

func (p *Palette) newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(p.help).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.title.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}
