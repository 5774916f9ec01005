package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	next     key.Binding
	prev     key.Binding
	size     key.Binding
	sort     key.Binding
	search   key.Binding
	reset    key.Binding
	hideSeen key.Binding
	seen     key.Binding
	remove   key.Binding
	reload   key.Binding
	lookup   key.Binding
	random   key.Binding
	dismiss  key.Binding
	enter    key.Binding
	tab      key.Binding
	add      key.Binding
	mark     key.Binding
	back     key.Binding
	yes      key.Binding
	no       key.Binding
	quit     key.Binding
	forceQ   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		next:     key.NewBinding(key.WithKeys("right", "n"), key.WithHelp("→/n", "next page")),
		prev:     key.NewBinding(key.WithKeys("left", "p"), key.WithHelp("←/p", "prev page")),
		size:     key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "page size")),
		sort:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "sort")),
		search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		reset:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear search")),
		hideSeen: key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "hide seen")),
		seen:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle seen")),
		remove:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		lookup:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "lookup")),
		random:   key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "random")),
		dismiss:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear toasts")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		tab:      key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "switch field")),
		add:      key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "add to collection")),
		mark:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "mark seen")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		yes:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:       key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		forceQ:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.next, k.prev},
		{k.size, k.sort, k.search, k.reset},
		{k.hideSeen, k.seen, k.remove, k.reload},
		{k.lookup, k.random, k.dismiss, k.quit},
	}
}

func (k keyMap) listHelp() []key.Binding {
	return []key.Binding{k.next, k.prev, k.size, k.sort, k.search, k.hideSeen, k.seen, k.remove, k.lookup, k.random, k.quit}
}

func (k keyMap) searchHelp() []key.Binding {
	return []key.Binding{k.enter, k.back}
}

func (k keyMap) confirmHelp() []key.Binding {
	return []key.Binding{k.yes, k.no}
}

func (k keyMap) lookupHelp() []key.Binding {
	return []key.Binding{k.enter, k.tab, k.add, k.back, k.forceQ}
}

func (k keyMap) randomHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "draw")),
		k.mark, k.back, k.quit,
	}
}
