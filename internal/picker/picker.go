// Package picker implements the interactive project selector.
//
// The selector is a bubbletea model that moves through
// idle → loading → ready → resolved. Resolution is one-shot: once a project
// is chosen or the picker is dismissed, later attempts to resolve are
// ignored, as are search results still in flight.
package picker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
	"golang.org/x/sync/singleflight"

	"github.com/starford/raido/internal/gitlab"
)

// remoteSentinel switches the query into remote-search mode.
const remoteSentinel = "??"

// debounceInterval delays remote searches until typing pauses.
const debounceInterval = 300 * time.Millisecond

// ProjectService is the remote surface the picker needs.
type ProjectService interface {
	ListProjects(ctx context.Context) ([]gitlab.Project, error)
	SearchProjects(ctx context.Context, query string) []gitlab.Project
}

// Favorites is the favorite-project state the picker reads and toggles.
// Toggling persists immediately.
type Favorites interface {
	IsFavorite(id int) bool
	ToggleFavorite(id int) (bool, error)
}

type state int

const (
	stateIdle state = iota
	stateLoading
	stateReady
	stateResolved
)

type projectsLoadedMsg struct {
	projects []gitlab.Project
	err      error
}

type searchDebounceMsg struct {
	seq  int
	term string
}

type searchResultMsg struct {
	seq     int
	results []gitlab.Project
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	starStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	pathStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Model is the bubbletea model for project selection.
type Model struct {
	ctx       context.Context
	service   ProjectService
	favorites Favorites

	state    state
	flight   singleflight.Group
	input    textinput.Model
	spin     spinner.Model
	projects []gitlab.Project // session cache, discarded with the model
	visible  []gitlab.Project
	cursor   int
	warn     string

	searchSeq int // invalidates pending debounce windows

	chosen   gitlab.Project
	chosenOK bool
}

// New creates a picker model. ctx bounds every remote call the picker makes.
func New(ctx context.Context, service ProjectService, favorites Favorites) *Model {
	input := textinput.New()
	input.Placeholder = "type to filter, " + remoteSentinel + "<term> to search GitLab"
	input.Prompt = "> "
	input.Focus()

	spin := spinner.New(spinner.WithSpinner(spinner.Dot))

	return &Model{
		ctx:       ctx,
		service:   service,
		favorites: favorites,
		state:     stateIdle,
		input:     input,
		spin:      spin,
	}
}

// Init starts the initial project load.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.load())
}

// load requests the project list. Load commands run on their own goroutines;
// the singleflight group makes every command issued while a load is in
// flight join that call instead of duplicating it.
func (m *Model) load() tea.Cmd {
	m.state = stateLoading
	return func() tea.Msg {
		v, err, _ := m.flight.Do("projects", func() (any, error) {
			return m.service.ListProjects(m.ctx)
		})
		projects, _ := v.([]gitlab.Project)
		return projectsLoadedMsg{projects: projects, err: err}
	}
}

// Update handles one message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case projectsLoadedMsg:
		if m.state == stateResolved {
			return m, nil
		}
		m.state = stateReady
		if msg.err != nil {
			m.warn = fmt.Sprintf("could not load projects: %v", msg.err)
			m.projects = nil
		} else {
			m.projects = msg.projects
		}
		m.sortProjects()
		m.recompute()
		return m, nil

	case searchDebounceMsg:
		// Only the last keystroke's window fires; earlier windows are stale.
		if msg.seq != m.searchSeq || m.state == stateResolved {
			return m, nil
		}
		seq := msg.seq
		term := msg.term
		return m, func() tea.Msg {
			return searchResultMsg{seq: seq, results: m.service.SearchProjects(m.ctx, term)}
		}

	case searchResultMsg:
		if msg.seq != m.searchSeq || m.state == stateResolved {
			return m, nil
		}
		m.projects = gitlab.MergeProjects(m.projects, msg.results)
		m.sortProjects()
		m.recompute()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		return m, m.resolve(nil)

	case "enter":
		if len(m.visible) > 0 {
			p := m.visible[m.cursor]
			return m, m.resolve(&p)
		}
		return m, nil

	case "up", "ctrl+p":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "ctrl+n":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
		return m, nil

	case "ctrl+f":
		// Toggling a favorite must not select the item or close the picker.
		if len(m.visible) > 0 {
			id := m.visible[m.cursor].ID
			if _, err := m.favorites.ToggleFavorite(id); err != nil {
				m.warn = fmt.Sprintf("could not save favorites: %v", err)
			}
			m.sortProjects()
			m.recompute()
		}
		return m, nil

	case "ctrl+r":
		return m, m.load()
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		// Every edit supersedes a pending debounce window, including edits
		// that clear the term or leave remote mode entirely.
		m.searchSeq++
		m.recompute()
		if term, ok := remoteTerm(m.input.Value()); ok && term != "" {
			seq := m.searchSeq
			debounce := tea.Tick(debounceInterval, func(time.Time) tea.Msg {
				return searchDebounceMsg{seq: seq, term: term}
			})
			return m, tea.Batch(cmd, debounce)
		}
	}
	return m, cmd
}

// resolve completes the picker exactly once. A nil project means the user
// dismissed the picker without choosing.
func (m *Model) resolve(p *gitlab.Project) tea.Cmd {
	if m.state == stateResolved {
		return nil
	}
	m.state = stateResolved
	// Invalidate any pending debounce window as part of teardown.
	m.searchSeq++
	if p != nil {
		m.chosen = *p
		m.chosenOK = true
	}
	return tea.Quit
}

// remoteTerm reports whether the query is in remote-search mode and returns
// the trimmed search term.
func remoteTerm(query string) (string, bool) {
	if !strings.HasPrefix(query, remoteSentinel) {
		return "", false
	}
	return strings.TrimSpace(query[len(remoteSentinel):]), true
}

func (m *Model) sortProjects() {
	gitlab.SortProjects(m.projects, m.favorites.IsFavorite)
}

// recompute derives the visible rows from the query and the cached list.
func (m *Model) recompute() {
	query := m.input.Value()

	switch {
	case query == "":
		m.visible = m.projects

	default:
		if term, ok := remoteTerm(query); ok {
			// Remote mode: an empty term shows nothing; otherwise the
			// merged, deduplicated cache is the suggestion set.
			if term == "" {
				m.visible = nil
			} else {
				m.visible = m.projects
			}
			break
		}
		matches := fuzzy.FindFrom(query, projectSource(m.projects))
		visible := make([]gitlab.Project, 0, len(matches))
		for _, match := range matches {
			visible = append(visible, m.projects[match.Index])
		}
		gitlab.SortProjects(visible, m.favorites.IsFavorite)
		m.visible = visible
	}

	if m.cursor >= len(m.visible) {
		m.cursor = 0
	}
}

// projectSource adapts a project slice for fuzzy matching over
// "name path/with/namespace".
type projectSource []gitlab.Project

func (s projectSource) String(i int) string {
	return s[i].Name + " " + s[i].PathWithNamespace
}

func (s projectSource) Len() int { return len(s) }

// View renders the picker.
func (m *Model) View() string {
	if m.state == stateResolved {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Select a GitLab project"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.state == stateLoading || m.state == stateIdle:
		b.WriteString(m.spin.View() + "loading projects…\n")

	case len(m.projects) == 0 && m.input.Value() == "":
		b.WriteString("no accessible projects\n")

	case len(m.visible) == 0 && m.input.Value() != "":
		// Echo the raw query, sentinel included.
		b.WriteString(fmt.Sprintf("no projects match %q\n", m.input.Value()))

	default:
		for i, p := range m.visible {
			cursor := "  "
			if i == m.cursor {
				cursor = cursorStyle.Render("> ")
			}
			star := "  "
			if m.favorites.IsFavorite(p.ID) {
				star = starStyle.Render("★ ")
			}
			b.WriteString(cursor + star + p.Name + " " + pathStyle.Render(p.PathWithNamespace) + "\n")
		}
	}

	if m.warn != "" {
		b.WriteString("\n" + warnStyle.Render(m.warn) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("↑/↓ move · enter select · ctrl+f favorite · "+remoteSentinel+" remote search · esc cancel"))
	return b.String()
}

// Result returns the chosen project. ok is false when the user cancelled.
func (m *Model) Result() (gitlab.Project, bool) {
	return m.chosen, m.chosenOK
}

// Select runs the picker to completion and returns the chosen project, or
// ok=false when the user dismissed it.
func Select(ctx context.Context, service ProjectService, favorites Favorites) (gitlab.Project, bool, error) {
	model := New(ctx, service, favorites)
	program := tea.NewProgram(model, tea.WithContext(ctx))
	final, err := program.Run()
	if err != nil {
		return gitlab.Project{}, false, fmt.Errorf("picker: %w", err)
	}
	m, ok := final.(*Model)
	if !ok {
		return gitlab.Project{}, false, fmt.Errorf("picker: unexpected model type %T", final)
	}
	p, chosen := m.Result()
	return p, chosen, nil
}
