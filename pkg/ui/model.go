// Package ui is the interactive terminal browser: a collapsible task tree
// with live search on the left and the selected task's details on the right.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/tasktree/pkg/config"
	"github.com/vanderheijden86/tasktree/pkg/export"
	"github.com/vanderheijden86/tasktree/pkg/inspector"
	"github.com/vanderheijden86/tasktree/pkg/loader"
	"github.com/vanderheijden86/tasktree/pkg/model"
	"github.com/vanderheijden86/tasktree/pkg/session"
	"github.com/vanderheijden86/tasktree/pkg/tree"
)

const (
	defaultWidth  = 100
	defaultHeight = 30
	// pathSeparator joins hierarchy paths copied to the clipboard.
	pathSeparator = " > "
)

// domainLoadedMsg reports the end of a domain switch.
type domainLoadedMsg struct {
	domain string
	ds     *loader.Dataset
	err    error
}

// loadDomainCmd opens domain on the session in the background.
func loadDomainCmd(ctx context.Context, s *session.Session, domain string) tea.Cmd {
	return func() tea.Msg {
		ds, err := s.Open(ctx, domain)
		return domainLoadedMsg{domain: domain, ds: ds, err: err}
	}
}

// Options configures the browser.
type Options struct {
	Domains       []config.Domain
	InitialDomain string
	// Style is a glamour style name for the detail pane; empty detects it.
	Style string
	// Copy writes to the clipboard. Defaults to clipboard.WriteAll.
	Copy func(string) error
}

// Model is the bubbletea model of the browser.
type Model struct {
	ctx     context.Context
	session *session.Session
	theme   Theme
	copy    func(string) error

	domains   []config.Domain
	domainIdx int
	loading   bool

	pane   pane
	items  []listItem
	roots  []*tree.Node
	cursor int
	offset int

	search    textinput.Model
	searching bool
	matches   int

	details     inspector.Details
	showDetails bool
	detailVP    viewport.Model
	md          *MarkdownRenderer

	width, height int
	showHelp      bool
	statusMsg     string
	statusIsError bool
}

// NewModel creates the browser over s. The initial domain is loaded by
// Init.
func NewModel(ctx context.Context, s *session.Session, opts Options) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	domains := opts.Domains
	if len(domains) == 0 {
		domains = config.DefaultDomains()
	}
	idx := 0
	for i, d := range domains {
		if strings.EqualFold(d.ID, opts.InitialDomain) {
			idx = i
		}
	}
	cp := opts.Copy
	if cp == nil {
		cp = clipboard.WriteAll
	}

	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "filter tasks by name"
	ti.CharLimit = 120

	m := Model{
		ctx:       ctx,
		session:   s,
		theme:     DefaultTheme(lipgloss.DefaultRenderer()),
		copy:      cp,
		domains:   domains,
		domainIdx: idx,
		search:    ti,
		detailVP:  viewport.New(defaultWidth/2, defaultHeight-4),
		md:        NewMarkdownRenderer(defaultWidth/2-4, opts.Style),
		width:     defaultWidth,
		height:    defaultHeight,
		loading:   true,
	}
	return m
}

// Init starts loading the initial domain.
func (m Model) Init() tea.Cmd {
	return loadDomainCmd(m.ctx, m.session, m.currentDomain().ID)
}

func (m Model) currentDomain() config.Domain {
	return m.domains[m.domainIdx]
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refreshDetails()
		return m, nil

	case domainLoadedMsg:
		if errors.Is(msg.err, session.ErrStale) {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Failed to load %s: %v", msg.domain, msg.err), true)
			return m, nil
		}
		m.search.SetValue("")
		m.matches = 0
		m.cursor, m.offset = 0, 0
		m.refresh()
		m.setStatus(fmt.Sprintf("Loaded %s: %d tasks", m.titleOf(msg.domain), msg.ds.Len()), false)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.searching {
			return m.handleSearchKeys(msg)
		}
		return m.handleKeys(msg)
	}

	if m.showDetails {
		var cmd tea.Cmd
		m.detailVP, cmd = m.detailVP.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.search.SetValue("")
		m.search.Blur()
		m.searching = false
		m.matches = m.session.Highlight("")
		m.refresh()
		return m, nil
	case "enter":
		m.search.Blur()
		m.searching = false
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.matches = m.session.Highlight(m.search.Value())
	m.cursor, m.offset = 0, 0
	m.refresh()
	return m, cmd
}

func (m Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q":
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp
	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "g", "home":
		m.cursor = 0
		m.moveCursor(0)
	case "G", "end":
		m.cursor = len(m.items) - 1
		m.moveCursor(0)
	case "ctrl+d", "pgdown":
		m.detailVP.LineDown(m.detailVP.Height / 2)
	case "ctrl+u", "pgup":
		m.detailVP.LineUp(m.detailVP.Height / 2)
	case "/":
		m.searching = true
		m.search.Focus()
		return m, textinput.Blink
	case "enter":
		if it, ok := m.cursorItem(); ok {
			name := it.row.Name
			m.session.SelectTask(name)
			if it.row.Expandable {
				m.session.With(func(r *tree.Renderer, _ *inspector.Inspector) { r.Toggle(name) })
			}
			m.refresh()
			m.focusName(name)
		}
	case " ":
		if it, ok := m.cursorItem(); ok && it.row.Expandable {
			name := it.row.Name
			m.session.With(func(r *tree.Renderer, _ *inspector.Inspector) { r.Toggle(name) })
			m.refresh()
			m.focusName(name)
		}
	case "E":
		m.session.With(func(r *tree.Renderer, _ *inspector.Inspector) { r.ExpandAll() })
		m.refresh()
	case "C":
		m.session.With(func(r *tree.Renderer, _ *inspector.Inspector) { r.CollapseAll() })
		m.cursor, m.offset = 0, 0
		m.refresh()
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		depth := int(key[0] - '0')
		m.session.With(func(r *tree.Renderer, _ *inspector.Inspector) { r.ExpandToDepth(depth) })
		m.refresh()
	case "tab":
		if m.pane == paneHierarchy {
			m.pane = paneStandalone
		} else {
			m.pane = paneHierarchy
		}
		m.cursor, m.offset = 0, 0
		m.refresh()
	case "y":
		m.copyPath()
	case "r":
		m.jumpToRelated()
	case "esc":
		switch {
		case m.showDetails:
			m.session.Deselect()
			m.refresh()
		case m.search.Value() != "":
			m.search.SetValue("")
			m.matches = m.session.Highlight("")
			m.refresh()
		}
	case "]", "[":
		if m.loading || len(m.domains) < 2 {
			return m, nil
		}
		step := 1
		if key == "[" {
			step = len(m.domains) - 1
		}
		m.domainIdx = (m.domainIdx + step) % len(m.domains)
		m.loading = true
		m.setStatus("Loading "+m.currentDomain().Title+"…", false)
		return m, loadDomainCmd(m.ctx, m.session, m.currentDomain().ID)
	}
	return m, nil
}

// refresh re-reads rows and details from the session.
func (m *Model) refresh() {
	m.session.With(func(r *tree.Renderer, _ *inspector.Inspector) {
		m.items = buildItems(r, m.pane)
		m.roots = r.Roots()
	})
	m.moveCursor(0)
	m.refreshDetails()
}

func (m *Model) refreshDetails() {
	d, ok := m.session.Details()
	m.showDetails = ok
	m.details = d
	m.layout()
	if !ok {
		return
	}
	m.detailVP.SetContent(m.md.Render(export.TaskMarkdown(d)))
}

// layout sizes the detail pane for the window.
func (m *Model) layout() {
	w := m.detailWidth()
	m.detailVP.Width = w - 4
	m.detailVP.Height = clamp(m.bodyHeight()-2, 1, m.height)
	m.md.SetWidth(w - 6)
}

func (m Model) detailWidth() int {
	return m.width / 2
}

func (m Model) listWidth() int {
	if m.showDetails {
		return m.width - m.detailWidth() - 1
	}
	return m.width
}

// bodyHeight is the height left for the list after header, search and
// footer lines.
func (m Model) bodyHeight() int {
	return clamp(m.height-3, 1, m.height)
}

func (m Model) cursorItem() (listItem, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return listItem{}, false
	}
	it := m.items[m.cursor]
	if it.isHeader() {
		return listItem{}, false
	}
	return it, true
}

// moveCursor moves by delta, skipping group headers, and keeps the cursor
// inside the window.
func (m *Model) moveCursor(delta int) {
	if len(m.items) == 0 {
		m.cursor, m.offset = 0, 0
		return
	}
	dir := 1
	if delta < 0 {
		dir = -1
	}
	c := clamp(m.cursor+delta, 0, len(m.items)-1)
	for c >= 0 && c < len(m.items) && m.items[c].isHeader() {
		c += dir
	}
	if c < 0 || c >= len(m.items) {
		// Only headers in that direction; search the other way.
		c = clamp(m.cursor, 0, len(m.items)-1)
		for c < len(m.items) && m.items[c].isHeader() {
			c++
		}
		if c >= len(m.items) {
			c = len(m.items) - 1
		}
	}
	m.cursor = c

	h := m.bodyHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if m.cursor > 0 && m.items[m.cursor-1].isHeader() && m.offset == m.cursor {
		m.offset--
	}
}

// focusName puts the cursor on the row named name, if visible.
func (m *Model) focusName(name string) {
	for i, it := range m.items {
		if !it.isHeader() && it.row.Name == name {
			m.cursor = i
			m.moveCursor(0)
			return
		}
	}
}

func (m *Model) copyPath() {
	if !m.showDetails {
		m.setStatus("Select a task first", true)
		return
	}
	path := strings.Join(m.details.Path, pathSeparator)
	if err := m.copy(path); err != nil {
		m.setStatus(fmt.Sprintf("Clipboard error: %v", err), true)
		return
	}
	m.setStatus("Copied "+path, false)
}

// jumpToRelated navigates to the most related task of the shown one.
func (m *Model) jumpToRelated() {
	if !m.showDetails || len(m.details.Related) == 0 {
		m.setStatus("No related tasks", true)
		return
	}
	name := m.details.Related[0].Name
	if !m.session.Navigate(name) {
		m.setStatus("Task not found: "+name, true)
		return
	}
	m.search.SetValue(name)
	m.matches = 0
	m.session.With(func(r *tree.Renderer, _ *inspector.Inspector) {
		m.matches = r.MatchCount()
		if n := r.Lookup(name); n != nil && n.Kind == model.KindStandalone {
			m.pane = paneStandalone
		} else {
			m.pane = paneHierarchy
		}
	})
	m.refresh()
	m.focusName(name)
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.statusMsg = msg
	m.statusIsError = isErr
}

func (m Model) titleOf(id string) string {
	for _, d := range m.domains {
		if d.ID == id && d.Title != "" {
			return d.Title
		}
	}
	return id
}

// View renders the browser.
func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(m.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(m.renderSearchBar())
	sb.WriteString("\n")

	if m.showHelp {
		sb.WriteString(m.renderHelp())
	} else {
		list := m.renderList()
		if m.showDetails {
			detail := m.theme.DetailPane.
				Width(m.detailWidth() - 2).
				Height(m.bodyHeight() - 2).
				Render(m.detailVP.View())
			list = lipgloss.JoinHorizontal(lipgloss.Top, list, " ", detail)
		}
		sb.WriteString(list)
	}
	sb.WriteString("\n")
	sb.WriteString(m.renderFooter())
	return sb.String()
}

func (m Model) renderHeader() string {
	d := m.currentDomain()
	title := m.theme.Header.Render("tasktree")
	info := fmt.Sprintf(" %s · %s", d.Title, m.pane)
	if m.loading {
		info += " · loading…"
	}
	return title + m.theme.PrimaryBold.Render(truncateRunesHelper(info, m.width-lipgloss.Width(title), "…"))
}

func (m Model) renderSearchBar() string {
	bar := m.search.View()
	if q := m.search.Value(); q != "" {
		bar += m.theme.MutedText.Render(fmt.Sprintf("  %d matches", m.matches))
	}
	return bar
}

func (m Model) renderList() string {
	width := m.listWidth()
	h := m.bodyHeight()
	if len(m.items) == 0 {
		msg := "No tasks to display."
		if m.loading {
			msg = "Loading…"
		} else if m.search.Value() != "" {
			msg = "No tasks match \"" + m.search.Value() + "\"."
		}
		return lipgloss.NewStyle().Width(width).Height(h).Render(m.theme.MutedText.Render(msg))
	}

	end := m.offset + h
	if end > len(m.items) {
		end = len(m.items)
	}
	lines := make([]string, 0, h)
	for i := m.offset; i < end; i++ {
		lines = append(lines, renderItem(m.theme, m.roots, m.items[i], width-1, i == m.cursor))
	}
	return lipgloss.NewStyle().Width(width).Height(h).Render(strings.Join(lines, "\n"))
}

func (m Model) renderFooter() string {
	if m.statusMsg != "" {
		style := m.theme.StatusOK
		if m.statusIsError {
			style = m.theme.StatusErr
		}
		return style.Render(truncateRunesHelper(m.statusMsg, m.width, "…"))
	}
	return m.theme.MutedText.Render(truncateRunesHelper("? help · / search · enter select · tab pane · [ ] domain · q quit", m.width, "…"))
}

var helpLines = [][2]string{
	{"j/k ↑/↓", "move"},
	{"g/G", "first / last row"},
	{"enter", "show details and toggle"},
	{"space", "toggle expand"},
	{"E / C", "expand / collapse all"},
	{"1-9", "expand to depth"},
	{"/", "search names"},
	{"esc", "hide details, clear search"},
	{"tab", "hierarchy / standalone"},
	{"[ ]", "previous / next domain"},
	{"y", "copy task path"},
	{"r", "jump to related task"},
	{"ctrl+d/u", "scroll details"},
	{"q", "quit"},
}

func (m Model) renderHelp() string {
	var sb strings.Builder
	for _, l := range helpLines {
		sb.WriteString(m.theme.PrimaryBold.Render(padRight(l[0], 10)))
		sb.WriteString(" ")
		sb.WriteString(l[1])
		sb.WriteString("\n")
	}
	return lipgloss.NewStyle().Height(m.bodyHeight()).Render(strings.TrimRight(sb.String(), "\n"))
}
