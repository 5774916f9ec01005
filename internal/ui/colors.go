package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/filmx/internal/notify"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#3C9DD0", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	info  lipgloss.Style
	help  lipgloss.Style
	faint lipgloss.Style
	toast lipgloss.Style
}

func NewPalette(t, s, e, w, i, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewBold(w),
		info:  NewBold(i),
		help:  NewEm(h),
		faint: NewStyle(h).Faint(true),
		toast: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// kindStyle picks the accent for a notification kind.
func (p *Palette) kindStyle(k notify.Kind) lipgloss.Style {
	switch k {
	case notify.Error:
		return p.err
	case notify.Warning:
		return p.warn
	case notify.Info:
		return p.info
	default:
		return p.ok
	}
}

func kindIcon(k notify.Kind) string {
	switch k {
	case notify.Error:
		return "✗"
	case notify.Warning:
		return "!"
	case notify.Info:
		return "i"
	default:
		return "✓"
	}
}
