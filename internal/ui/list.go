package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/filmx/internal/models"
)

var _ list.Item = filmItem{}

// filmItem wraps [models.Film] to implement [list.Item].
type filmItem struct {
	film models.Film
}

func (i filmItem) FilterValue() string { return i.film.Title }

func (i filmItem) Title() string {
	if i.film.Seen {
		return "[x] " + i.film.Label()
	}
	return "[ ] " + i.film.Label()
}

func (i filmItem) Description() string {
	var parts []string
	for _, s := range []string{i.film.Director, i.film.Genre, i.film.Duration} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "no details"
	}
	return strings.Join(parts, " • ")
}

// filmItems converts a page of films, leaving out seen ones when hideSeen is set.
func filmItems(films []models.Film, hideSeen bool) []list.Item {
	items := make([]list.Item, 0, len(films))
	for _, f := range films {
		if hideSeen && f.Seen {
			continue
		}
		items = append(items, filmItem{film: f})
	}
	return items
}
