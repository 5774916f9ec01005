package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/shared"
)

func (m *Model) handleRandomKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m.quit()
	case key.Matches(msg, m.keys.back):
		return m, m.switchView(ListView)
	case key.Matches(msg, m.keys.enter, m.keys.reload):
		return m, m.drawRandom()
	case key.Matches(msg, m.keys.mark):
		return m, m.markRandomSeen()
	case key.Matches(msg, m.keys.dismiss):
		m.center.DismissAll()
	}
	return m, nil
}

func (m *Model) drawRandom() tea.Cmd {
	if m.drawing {
		return nil
	}
	m.drawing = true
	return func() tea.Msg {
		film, err := m.films.RandomFilm(m.ctx)
		if err != nil {
			return randomDrawnMsg(models.Film{}, err)
		}
		return randomDrawnMsg(*film, nil)
	}
}

func (m *Model) randomDrawn(res filmResult) {
	m.drawing = false
	switch {
	case errors.Is(res.err, shared.ErrFilmNotFound):
		m.random = nil
		m.center.Info("No unseen films left, time to look some up")
	case res.err != nil:
		m.center.Error(fmt.Sprintf("Could not draw a random film: %v", res.err))
	default:
		film := res.film
		m.random = &film
	}
}

func (m *Model) markRandomSeen() tea.Cmd {
	if m.random == nil || m.random.Seen {
		return nil
	}
	film := *m.random
	return func() tea.Msg {
		updated, err := m.films.SetSeen(m.ctx, film, true)
		if err != nil {
			return randomMarkedMsg(film, err)
		}
		return randomMarkedMsg(*updated, nil)
	}
}

func (m *Model) randomMarked(res filmResult) {
	if res.err != nil {
		m.center.Error(fmt.Sprintf("Could not update %q: %v", res.film.Title, res.err))
		return
	}
	if m.random != nil && m.random.ID == res.film.ID {
		m.random.Seen = true
	}
	m.center.Success(fmt.Sprintf("%q marked seen. Enjoy the film!", res.film.Title))
}

func (m *Model) renderRandom() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Random pick"))
	b.WriteString("\n")

	switch {
	case m.drawing:
		b.WriteString(m.spinner.View() + " Drawing a film...")
	case m.random != nil:
		card := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2).Render(renderFilmCard(*m.random))
		b.WriteString(card)
	default:
		b.WriteString(styles.help.Render("Press enter to draw an unseen film from your collection."))
	}
	return b.String()
}
