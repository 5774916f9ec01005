package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/notify"
	"github.com/desertthunder/filmx/internal/paging"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPageLoaded MsgKind = iota
	MsgNotifications
	MsgSeenToggled
	MsgFilmDeleted
	MsgLookupDone
	MsgFilmInserted
	MsgRandomDrawn
	MsgRandomMarked
)

// Kind reports which member of the union m is.
func (m Msg) Kind() MsgKind { return m.kind }

type pageLoaded struct {
	query paging.Query
	err   error
}

type notifications struct {
	center *notify.Center
	open   bool
}

type filmResult struct {
	film models.Film
	err  error
}

type lookupResult struct {
	title string
	year  int
	film  *models.Film
	err   error
}

// pageLoadedMsg is the constructor for [MsgPageLoaded]
func pageLoadedMsg(q paging.Query, err error) Msg {
	return Msg{kind: MsgPageLoaded, data: pageLoaded{query: q, err: err}}
}

// notificationsMsg is the constructor for [MsgNotifications]
func notificationsMsg(c *notify.Center, open bool) Msg {
	return Msg{kind: MsgNotifications, data: notifications{center: c, open: open}}
}

// seenToggledMsg is the constructor for [MsgSeenToggled]
func seenToggledMsg(film models.Film, err error) Msg {
	return Msg{kind: MsgSeenToggled, data: filmResult{film: film, err: err}}
}

// filmDeletedMsg is the constructor for [MsgFilmDeleted]
func filmDeletedMsg(film models.Film, err error) Msg {
	return Msg{kind: MsgFilmDeleted, data: filmResult{film: film, err: err}}
}

// lookupDoneMsg is the constructor for [MsgLookupDone]
func lookupDoneMsg(title string, year int, film *models.Film, err error) Msg {
	return Msg{kind: MsgLookupDone, data: lookupResult{title: title, year: year, film: film, err: err}}
}

// filmInsertedMsg is the constructor for [MsgFilmInserted]
func filmInsertedMsg(film models.Film, err error) Msg {
	return Msg{kind: MsgFilmInserted, data: filmResult{film: film, err: err}}
}

// randomDrawnMsg is the constructor for [MsgRandomDrawn]
func randomDrawnMsg(film models.Film, err error) Msg {
	return Msg{kind: MsgRandomDrawn, data: filmResult{film: film, err: err}}
}

// randomMarkedMsg is the constructor for [MsgRandomMarked]
func randomMarkedMsg(film models.Film, err error) Msg {
	return Msg{kind: MsgRandomMarked, data: filmResult{film: film, err: err}}
}
