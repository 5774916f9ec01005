package ui

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/paging"
	"github.com/desertthunder/filmx/internal/services"
)

// load turns a prepared fetch into a command. A nil fetch needs no command.
func (m *Model) load(f *paging.Fetch[models.Film]) tea.Cmd {
	if f == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		return pageLoadedMsg(f.Query(), f.Run(ctx))
	}
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.pending != nil {
		return m, m.handleConfirmKeys(msg)
	}
	if m.searching {
		return m, m.handleSearchKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m.quit()
	case key.Matches(msg, m.keys.next):
		return m, m.load(m.collection.NextPage())
	case key.Matches(msg, m.keys.prev):
		return m, m.load(m.collection.PrevPage())
	case key.Matches(msg, m.keys.size):
		return m, m.load(m.collection.CyclePageSize())
	case key.Matches(msg, m.keys.sort):
		return m, m.load(m.collection.ToggleSortDirection())
	case key.Matches(msg, m.keys.reload):
		return m, m.load(m.collection.Reload())
	case key.Matches(msg, m.keys.search):
		m.searching = true
		m.search.SetValue(m.collection.Snapshot().Typed)
		m.search.CursorEnd()
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.reset):
		m.search.Reset()
		return m, m.load(m.collection.ResetSearch())
	case key.Matches(msg, m.keys.hideSeen):
		m.hideSeen = !m.hideSeen
		m.syncList()
		return m, nil
	case key.Matches(msg, m.keys.seen):
		return m, m.toggleSeen()
	case key.Matches(msg, m.keys.remove):
		if item, ok := m.filmList.SelectedItem().(filmItem); ok {
			film := item.film
			m.pending = &film
		}
		return m, nil
	case key.Matches(msg, m.keys.dismiss):
		m.center.DismissAll()
		return m, nil
	case key.Matches(msg, m.keys.lookup):
		return m, m.switchView(LookupView)
	case key.Matches(msg, m.keys.random):
		return m, m.switchView(RandomView)
	case key.Matches(msg, m.keys.up, m.keys.down):
		var cmd tea.Cmd
		m.filmList, cmd = m.filmList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleSearchKeys processes key input while the search field has focus.
func (m *Model) handleSearchKeys(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		return m.load(m.collection.CommitSearch())
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.Reset()
		return m.load(m.collection.ResetSearch())
	case "ctrl+c":
		m.Close()
		return tea.Quit
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.collection.SetSearchTerm(m.search.Value())
	return cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.yes):
		film := *m.pending
		m.pending = nil
		return m.deleteFilm(film)
	case key.Matches(msg, m.keys.no):
		m.pending = nil
	case key.Matches(msg, m.keys.forceQ):
		m.Close()
		return tea.Quit
	}
	return nil
}

func (m *Model) toggleSeen() tea.Cmd {
	item, ok := m.filmList.SelectedItem().(filmItem)
	if !ok {
		return nil
	}
	film := item.film
	return func() tea.Msg {
		updated, err := m.films.SetSeen(m.ctx, film, !film.Seen)
		if err != nil {
			return seenToggledMsg(film, err)
		}
		return seenToggledMsg(*updated, nil)
	}
}

func (m *Model) deleteFilm(film models.Film) tea.Cmd {
	return func() tea.Msg {
		return filmDeletedMsg(film, m.films.DeleteFilm(m.ctx, film))
	}
}

// pageLoaded refreshes the list. Only the current request reports an error; superseded ones come back nil.
func (m *Model) pageLoaded(res pageLoaded) tea.Cmd {
	if res.err != nil {
		var fe *paging.FetchError
		if errors.As(res.err, &fe) {
			m.center.Error("Could not load films: " + fe.Message)
		} else {
			m.center.Error("Could not load films: " + res.err.Error())
		}
	}
	m.syncList()

	// a deletion can empty the last page
	view := m.collection.Snapshot()
	if res.err == nil && view.State == paging.Success && len(view.Result.Items) == 0 && view.Query.Page > 0 {
		return m.load(m.collection.SetPage(view.Result.TotalPages - 1))
	}
	return nil
}

func (m *Model) seenToggled(res filmResult) {
	if res.err != nil {
		m.center.Error(fmt.Sprintf("Could not update %q: %v", res.film.Title, res.err))
		return
	}

	m.collection.UpdateItem(
		func(f models.Film) bool { return f.ID == res.film.ID },
		func(f *models.Film) { f.Seen = res.film.Seen },
	)
	m.syncList()

	if res.film.Seen {
		m.center.Success(fmt.Sprintf("%q marked seen", res.film.Title))
	} else {
		m.center.Success(fmt.Sprintf("%q marked to watch", res.film.Title))
	}
}

func (m *Model) filmDeleted(res filmResult) tea.Cmd {
	if res.err != nil {
		m.reportChangeFailure("delete", res.film, res.err)
		return nil
	}
	m.center.Success(fmt.Sprintf("%q deleted", res.film.Title))
	return m.load(m.collection.Reload())
}

// reportChangeFailure shows a backend refusal (400, e.g. a film owned by someone else) as a warning with
// the backend's own message, and anything else as an error.
func (m *Model) reportChangeFailure(action string, film models.Film, err error) {
	var apiErr *services.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
		m.center.Warning(apiErr.Message)
		return
	}
	m.center.Error(fmt.Sprintf("Could not %s %q: %v", action, film.Title, err))
}

// syncList copies the controller's current page into the list, applying the local seen filter.
func (m *Model) syncList() {
	view := m.collection.Snapshot()
	m.filmList.SetItems(filmItems(view.Result.Items, m.hideSeen))
}

func (m *Model) renderList() string {
	view := m.collection.Snapshot()

	var b strings.Builder
	b.WriteString(m.renderStatus(view))
	b.WriteString("\n")

	switch {
	case m.searching:
		b.WriteString(m.search.View())
		b.WriteString("\n")
	case strings.TrimSpace(view.Typed) != view.Query.Search && view.Typed != "":
		b.WriteString(styles.help.Render(fmt.Sprintf("typed %q, press / then enter to search", view.Typed)))
		b.WriteString("\n")
	}

	if view.State == paging.Failed {
		b.WriteString(styles.faint.Render("showing the last page that loaded"))
		b.WriteString("\n")
	}

	if len(m.filmList.Items()) == 0 && view.State != paging.Loading {
		b.WriteString("\n")
		b.WriteString(styles.help.Render(m.emptyMessage(view)))
	} else {
		b.WriteString(m.filmList.View())
	}

	if m.pending != nil {
		b.WriteString("\n\n")
		b.WriteString(styles.warn.Render(fmt.Sprintf("Delete %q? (y/n)", m.pending.Label())))
	}
	return b.String()
}

func (m *Model) emptyMessage(view paging.View[models.Film]) string {
	switch {
	case m.hideSeen && len(view.Result.Items) > 0:
		return "Every film on this page is seen."
	case view.Query.Search != "":
		return fmt.Sprintf("No films match %q.", view.Query.Search)
	default:
		return "The collection is empty. Press a to look a film up."
	}
}

func (m *Model) renderStatus(view paging.View[models.Film]) string {
	order := "A→Z"
	if view.Query.Sort == paging.Desc {
		order = "Z→A"
	}

	parts := []string{
		fmt.Sprintf("Page %d/%d", view.Query.Page+1, max(view.Result.TotalPages, 1)),
		fmt.Sprintf("%d per page", view.Query.PageSize),
		order,
		fmt.Sprintf("%d films", view.Result.TotalElements),
	}
	if view.Searching {
		parts = append(parts, fmt.Sprintf("search %q", view.Query.Search))
	} else if view.Query.Search != "" {
		parts = append(parts, fmt.Sprintf("%q is too short to search", view.Query.Search))
	}
	if m.hideSeen {
		parts = append(parts, "hiding seen")
	}

	status := styles.help.Render(strings.Join(parts, " · "))
	if view.State == paging.Loading {
		status = m.spinner.View() + " " + status
	}
	return status
}
