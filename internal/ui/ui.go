package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/notify"
	"github.com/desertthunder/filmx/internal/paging"
	"github.com/desertthunder/filmx/internal/shared"
)

// FilmClient is the part of the film service the TUI drives.
type FilmClient interface {
	paging.Fetcher[models.Film]
	SetSeen(ctx context.Context, film models.Film, seen bool) (*models.Film, error)
	DeleteFilm(ctx context.Context, film models.Film) error
	LookupExternal(ctx context.Context, title string, year int) (*models.Film, error)
	InsertFilm(ctx context.Context, film models.Film) (*models.Film, error)
	RandomFilm(ctx context.Context) (*models.Film, error)
}

// LookupRecorder keeps the history of external lookups.
type LookupRecorder interface {
	Record(l *models.Lookup) error
}

// Options configures a [Model]. Zero values fall back to the package defaults.
type Options struct {
	PageSize           int
	MinSearchLength    int
	NotificationWindow time.Duration
	NotifyOptions      []notify.Option // appended after the window, mostly a test clock
	History            LookupRecorder  // optional
	Profile            string
	Logger             *log.Logger
}

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ListView ViewState = iota
	LookupView
	RandomView
)

func (v ViewState) String() string {
	switch v {
	case ListView:
		return "list"
	case LookupView:
		return "lookup"
	case RandomView:
		return "random"
	default:
		return fmt.Sprintf("view(%d)", int(v))
	}
}

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	films      FilmClient
	opts       Options
	logger     *log.Logger
	center     *notify.Center
	collection *paging.Controller[models.Film]
	width      int
	height     int

	filmList  list.Model
	search    textinput.Model
	searching bool
	hideSeen  bool
	pending   *models.Film // awaiting delete confirmation

	titleInput textinput.Model
	yearInput  textinput.Model
	found      *models.Film
	lookingUp  bool

	random  *models.Film
	drawing bool

	spinner spinner.Model
	help    help.Model
	keys    keyMap
}

// NewModel creates a new TUI model on the film list view.
func NewModel(ctx context.Context, films FilmClient, opts Options) (*Model, error) {
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}
	if opts.PageSize == 0 {
		opts.PageSize = paging.DefaultPageSize
	}

	collection, err := paging.New[models.Film](films,
		paging.WithPageSizes(shared.PageSizes...),
		paging.WithPageSize(opts.PageSize),
		paging.WithMinSearchLength(opts.MinSearchLength),
		paging.WithLogger(opts.Logger),
	)
	if err != nil {
		return nil, err
	}

	filmList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	filmList.Title = "Films"
	filmList.SetShowHelp(false)
	filmList.SetShowStatusBar(false)
	filmList.SetFilteringEnabled(false)
	filmList.Styles.Title = styles.title

	search := textinput.New()
	search.Placeholder = "search titles..."
	search.Prompt = "/ "
	search.CharLimit = 120

	title := textinput.New()
	title.Placeholder = "title"
	title.Prompt = "Title: "
	title.CharLimit = 200

	year := textinput.New()
	year.Placeholder = "optional"
	year.Prompt = "Year:  "
	year.CharLimit = 4

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		ctx:        ctx,
		view:       ListView,
		films:      films,
		opts:       opts,
		logger:     opts.Logger,
		collection: collection,
		filmList:   filmList,
		search:     search,
		titleInput: title,
		yearInput:  year,
		spinner:    sp,
		help:       help.New(),
		keys:       newKeyMap(),
	}
	m.center = m.newCenter()
	return m, nil
}

func (m *Model) newCenter() *notify.Center {
	opts := []notify.Option{notify.WithWindow(m.opts.NotificationWindow), notify.WithLogger(m.logger)}
	return notify.New(append(opts, m.opts.NotifyOptions...)...)
}

// ViewState returns the active view.
func (m *Model) ViewState() ViewState { return m.view }

// Notifications returns the toasts currently on screen.
func (m *Model) Notifications() []notify.Notification { return m.center.Snapshot() }

// Collection exposes the list view's controller state.
func (m *Model) Collection() paging.View[models.Film] { return m.collection.Snapshot() }

// Close stops every timer and request the model owns. Safe to call more than once.
func (m *Model) Close() {
	m.collection.Close()
	m.center.Close()
}

// Init loads the first page and starts listening for notification changes.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForNotifications(), m.load(m.collection.Reload()), m.spinner.Tick)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filmList.SetSize(msg.Width-4, max(msg.Height-12, 4))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.view {
		case ListView:
			return m.handleListKeys(msg)
		case LookupView:
			return m.handleLookupKeys(msg)
		case RandomView:
			return m.handleRandomKeys(msg)
		}

	case Msg:
		return m, m.handleMsg(msg)
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) tea.Cmd {
	switch msg.kind {
	case MsgNotifications:
		data := msg.data.(notifications)
		if data.center != m.center || !data.open {
			return nil
		}
		return m.waitForNotifications()
	case MsgPageLoaded:
		return m.pageLoaded(msg.data.(pageLoaded))
	case MsgSeenToggled:
		m.seenToggled(msg.data.(filmResult))
	case MsgFilmDeleted:
		return m.filmDeleted(msg.data.(filmResult))
	case MsgLookupDone:
		m.lookupDone(msg.data.(lookupResult))
	case MsgFilmInserted:
		m.filmInserted(msg.data.(filmResult))
	case MsgRandomDrawn:
		m.randomDrawn(msg.data.(filmResult))
	case MsgRandomMarked:
		m.randomMarked(msg.data.(filmResult))
	}
	return nil
}

// switchView mounts v. The outgoing view's notification center is closed and whatever it still shows is
// adopted by a fresh center, keeping the time already spent on screen.
func (m *Model) switchView(v ViewState) tea.Cmd {
	if v == m.view {
		return nil
	}

	live := m.center.Close()
	m.center = m.newCenter()
	for _, n := range live {
		m.center.Adopt(n)
	}

	if m.view == ListView {
		m.collection.Close()
		m.pending = nil
		m.searching = false
		m.search.Blur()
	}
	m.logger.Debug("view switched", "from", m.view, "to", v, "carried", len(live))
	m.view = v

	cmds := []tea.Cmd{m.waitForNotifications()}
	switch v {
	case ListView:
		cmds = append(cmds, m.load(m.collection.Reload()))
	case LookupView:
		m.found = nil
		m.lookingUp = false
		m.titleInput.Reset()
		m.yearInput.Reset()
		m.yearInput.Blur()
		cmds = append(cmds, m.titleInput.Focus())
	case RandomView:
		m.random = nil
		m.drawing = false
	}
	return tea.Batch(cmds...)
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.Close()
	return m, tea.Quit
}

// waitForNotifications blocks until the current center changes. A closed center ends the loop.
func (m *Model) waitForNotifications() tea.Cmd {
	center := m.center
	return func() tea.Msg {
		_, open := <-center.Changes()
		return notificationsMsg(center, open)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case ListView:
		body = m.renderList()
	case LookupView:
		body = m.renderLookup()
	case RandomView:
		body = m.renderRandom()
	}

	if toasts := m.renderNotifications(); toasts != "" {
		body = fmt.Sprintf("%s\n\n%s", body, toasts)
	}
	return body + "\n\n" + m.renderHelp()
}

func (m *Model) renderHelp() string {
	switch {
	case m.view == ListView && m.pending != nil:
		return m.help.ShortHelpView(m.keys.confirmHelp())
	case m.view == ListView && m.searching:
		return m.help.ShortHelpView(m.keys.searchHelp())
	case m.view == ListView:
		return m.help.ShortHelpView(m.keys.listHelp())
	case m.view == LookupView:
		return m.help.ShortHelpView(m.keys.lookupHelp())
	default:
		return m.help.ShortHelpView(m.keys.randomHelp())
	}
}
