package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// renderNotifications stacks the live toasts, oldest first. Exiting toasts fade out.
func (m *Model) renderNotifications() string {
	ns := m.center.Snapshot()
	if len(ns) == 0 {
		return ""
	}

	toasts := make([]string, 0, len(ns))
	for _, n := range ns {
		accent := styles.kindStyle(n.Kind)
		text := accent.Render(kindIcon(n.Kind)) + " " + n.Message
		box := styles.toast.BorderForeground(accent.GetForeground())
		if n.Exiting {
			text = styles.faint.Render(kindIcon(n.Kind) + " " + n.Message)
			box = box.BorderForeground(styles.faint.GetForeground())
		}
		toasts = append(toasts, box.Render(text))
	}
	return lipgloss.JoinVertical(lipgloss.Left, toasts...)
}
