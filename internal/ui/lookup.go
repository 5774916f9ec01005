package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/shared"
)

func (m *Model) handleLookupKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.forceQ):
		return m.quit()
	case key.Matches(msg, m.keys.back):
		return m, m.switchView(ListView)
	case key.Matches(msg, m.keys.tab):
		if m.titleInput.Focused() {
			m.titleInput.Blur()
			return m, m.yearInput.Focus()
		}
		m.yearInput.Blur()
		return m, m.titleInput.Focus()
	case key.Matches(msg, m.keys.enter):
		return m, m.lookupFilm()
	case key.Matches(msg, m.keys.add):
		return m, m.insertFound()
	}

	var cmd tea.Cmd
	if m.yearInput.Focused() {
		m.yearInput, cmd = m.yearInput.Update(msg)
	} else {
		m.titleInput, cmd = m.titleInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) lookupFilm() tea.Cmd {
	if m.lookingUp {
		return nil
	}

	title := strings.TrimSpace(m.titleInput.Value())
	if title == "" {
		m.center.Warning("Enter a film title")
		return nil
	}

	var year int
	if raw := strings.TrimSpace(m.yearInput.Value()); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y <= 0 {
			m.center.Warning(fmt.Sprintf("%q is not a year", raw))
			return nil
		}
		year = y
	}

	m.lookingUp = true
	m.found = nil
	return func() tea.Msg {
		film, err := m.films.LookupExternal(m.ctx, title, year)
		return lookupDoneMsg(title, year, film, err)
	}
}

func (m *Model) lookupDone(res lookupResult) {
	m.lookingUp = false
	m.recordLookup(res)

	switch {
	case errors.Is(res.err, shared.ErrFilmNotFound):
		m.center.Info("Film not found in the external database, add it manually with `filmx films add`")
	case res.err != nil:
		m.center.Error(fmt.Sprintf("Lookup failed: %v", res.err))
	default:
		m.found = res.film
		m.center.Success(fmt.Sprintf("Film %q found!", res.film.Title))
	}
}

func (m *Model) recordLookup(res lookupResult) {
	if m.opts.History == nil {
		return
	}
	entry := &models.Lookup{Profile: m.opts.Profile, Title: res.title, Year: res.year, Found: res.err == nil}
	if err := m.opts.History.Record(entry); err != nil {
		m.logger.Warn("failed to record lookup", "title", res.title, "error", err)
	}
}

func (m *Model) insertFound() tea.Cmd {
	if m.found == nil {
		m.center.Warning("Look a film up before adding it")
		return nil
	}
	film := *m.found
	return func() tea.Msg {
		inserted, err := m.films.InsertFilm(m.ctx, film)
		if err != nil {
			return filmInsertedMsg(film, err)
		}
		return filmInsertedMsg(*inserted, nil)
	}
}

func (m *Model) filmInserted(res filmResult) {
	switch {
	case errors.Is(res.err, shared.ErrFilmExists):
		m.center.Warning("Film already present")
	case res.err != nil:
		m.center.Error(fmt.Sprintf("Could not add %q: %v", res.film.Title, res.err))
	default:
		m.center.Success(fmt.Sprintf("%q added to the collection!", res.film.Title))
		m.found = nil
		m.titleInput.Reset()
		m.yearInput.Reset()
	}
}

func (m *Model) renderLookup() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Look up a film"))
	b.WriteString("\n")
	b.WriteString(m.titleInput.View())
	b.WriteString("\n")
	b.WriteString(m.yearInput.View())
	b.WriteString("\n\n")

	switch {
	case m.lookingUp:
		b.WriteString(m.spinner.View() + " Searching the external database...")
	case m.found != nil:
		b.WriteString(renderFilmCard(*m.found))
		b.WriteString("\n\n")
		b.WriteString(styles.help.Render("ctrl+s adds it to your collection"))
	}
	return b.String()
}

// renderFilmCard lists the known fields of f, one per line.
func renderFilmCard(f models.Film) string {
	lines := []string{styles.ok.Render(f.Label())}
	for _, field := range []struct{ name, value string }{
		{"Director", f.Director},
		{"Genre", f.Genre},
		{"Duration", f.Duration},
		{"Poster", f.Poster},
	} {
		if field.value != "" {
			lines = append(lines, fmt.Sprintf("%-9s %s", field.name+":", field.value))
		}
	}
	if f.Seen {
		lines = append(lines, "Seen:     yes")
	}
	return strings.Join(lines, "\n")
}
