// Package tui provides the first-run setup wizard for the terminal.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"clickat/internal/settings"
)

// Option is one selectable entry in a hierarchy step.
type Option struct {
	ID   string
	Name string
}

// Directory resolves the ClickUp hierarchy for the wizard (subset of
// the API client).
type Directory interface {
	CheckKey(ctx context.Context, key string) error
	Workspaces(ctx context.Context) ([]Option, error)
	Spaces(ctx context.Context, workspaceID string) ([]Option, error)
	Lists(ctx context.Context, spaceID string) ([]Option, error)
}

// Step indicates which setting the wizard is currently asking for
type Step int

const (
	StepAPIKey Step = iota
	StepWorkspace
	StepSpace
	StepList
	StepDone
)

// Model represents the wizard state
type Model struct {
	directory Directory
	store     *settings.Store
	ctx       context.Context

	step    Step
	options []Option
	cursor  int
	chosen  map[Step]Option

	textInput textinput.Model
	loading   bool
	errText   string

	width  int
	height int

	// Styles
	titleStyle    lipgloss.Style
	selectedStyle lipgloss.Style
	errorStyle    lipgloss.Style
	helpStyle     lipgloss.Style
	doneStyle     lipgloss.Style
}

// Message types
type keyCheckedMsg struct {
	key string
	err error
}

type optionsLoadedMsg struct {
	step    Step
	options []Option
	err     error
}

// New creates a new wizard model
func New(d Directory, store *settings.Store) *Model {
	ti := textinput.New()
	ti.Placeholder = "pk_..."
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '*'
	ti.CharLimit = 128
	ti.Focus()

	return &Model{
		directory: d,
		store:     store,
		ctx:       context.Background(),
		step:      StepAPIKey,
		chosen:    make(map[Step]Option),
		textInput: ti,
		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")),
		selectedStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")),
		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),
		helpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		doneStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
	}
}

// Init initializes the wizard
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) checkKey(key string) tea.Cmd {
	return func() tea.Msg {
		return keyCheckedMsg{key: key, err: m.directory.CheckKey(m.ctx, key)}
	}
}

func (m *Model) loadOptions(step Step) tea.Cmd {
	return func() tea.Msg {
		var options []Option
		var err error
		switch step {
		case StepWorkspace:
			options, err = m.directory.Workspaces(m.ctx)
		case StepSpace:
			options, err = m.directory.Spaces(m.ctx, m.chosen[StepWorkspace].ID)
		case StepList:
			options, err = m.directory.Lists(m.ctx, m.chosen[StepSpace].ID)
		}
		return optionsLoadedMsg{step: step, options: options, err: err}
	}
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case keyCheckedMsg:
		m.loading = false
		if msg.err != nil {
			m.errText = "Key rejected by ClickUp. Check the token and try again."
			return m, nil
		}
		if err := m.store.Set(settings.NameAPIKey, msg.key); err != nil {
			m.errText = "Could not save the key: " + err.Error()
			return m, nil
		}
		m.step = StepWorkspace
		m.loading = true
		return m, m.loadOptions(StepWorkspace)

	case optionsLoadedMsg:
		if msg.step != m.step {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.errText = "Could not reach ClickUp: " + msg.err.Error()
			return m, nil
		}
		if len(msg.options) == 0 {
			m.errText = "Nothing found on this level."
			return m, nil
		}
		m.options = msg.options
		m.cursor = 0
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.step == StepAPIKey {
			return m.handleKeyStep(msg)
		}
		if m.step == StepDone {
			return m, tea.Quit
		}
		return m.handleSelectStep(msg)
	}

	if m.step == StepAPIKey {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKeyStep(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		key := strings.TrimSpace(m.textInput.Value())
		if key == "" {
			m.errText = "The API key cannot be empty."
			return m, nil
		}
		m.errText = ""
		m.loading = true
		return m, m.checkKey(key)

	case tea.KeyEsc:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *Model) handleSelectStep(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "esc":
		return m.stepBack()

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
		return m, nil

	case "enter":
		if m.loading || m.cursor >= len(m.options) {
			return m, nil
		}
		return m.choose(m.options[m.cursor])
	}
	return m, nil
}

// stepBack returns to the previous selection step, or to the key
// prompt from the workspace step.
func (m *Model) stepBack() (tea.Model, tea.Cmd) {
	switch m.step {
	case StepWorkspace:
		m.step = StepAPIKey
		m.options = nil
		m.errText = ""
		m.textInput.Focus()
		return m, textinput.Blink
	case StepSpace, StepList:
		m.step--
		m.options = nil
		m.errText = ""
		m.loading = true
		return m, m.loadOptions(m.step)
	}
	return m, nil
}

// settingFor maps a wizard step to the setting it fills.
var settingFor = map[Step]string{
	StepWorkspace: settings.NameWorkspace,
	StepSpace:     settings.NameSpace,
	StepList:      settings.NameList,
}

func (m *Model) choose(option Option) (tea.Model, tea.Cmd) {
	if err := m.store.Set(settingFor[m.step], option.ID); err != nil {
		m.errText = "Could not save: " + err.Error()
		return m, nil
	}
	m.chosen[m.step] = option
	m.errText = ""

	if m.step == StepList {
		m.step = StepDone
		return m, nil
	}

	m.step++
	m.options = nil
	m.loading = true
	return m, m.loadOptions(m.step)
}

// View renders the wizard
func (m *Model) View() string {
	if m.width == 0 {
		m.width = 80
	}

	var b strings.Builder
	b.WriteString(m.titleStyle.Render("ClickUp setup"))
	b.WriteString("\n\n")

	switch m.step {
	case StepAPIKey:
		b.WriteString("Paste your personal API token (Settings > Apps in ClickUp):\n\n")
		b.WriteString(m.textInput.View())
		b.WriteString("\n\n")
		b.WriteString(m.helpStyle.Render("Enter: check and save  Esc: quit"))

	case StepWorkspace, StepSpace, StepList:
		b.WriteString("Pick your " + stepNoun(m.step) + ":\n\n")
		if m.loading {
			b.WriteString("Loading...\n")
		}
		for i, option := range m.options {
			cursor := " "
			name := option.Name
			if i == m.cursor {
				cursor = ">"
				name = m.selectedStyle.Render(name)
			}
			b.WriteString(cursor + " " + name + "\n")
		}
		b.WriteString("\n")
		b.WriteString(m.helpStyle.Render("j/k: move  Enter: select  Esc: back  q: quit"))

	case StepDone:
		summary := "All set.\n\n" +
			"Workspace: " + m.chosen[StepWorkspace].Name + "\n" +
			"Space:     " + m.chosen[StepSpace].Name + "\n" +
			"List:      " + m.chosen[StepList].Name + "\n\n" +
			m.helpStyle.Render("Press any key to finish")
		return m.doneStyle.Render(summary) + "\n"
	}

	if m.errText != "" {
		b.WriteString("\n\n")
		b.WriteString(m.errorStyle.Render(m.errText))
	}
	b.WriteString("\n")
	return b.String()
}

func stepNoun(step Step) string {
	switch step {
	case StepWorkspace:
		return "workspace"
	case StepSpace:
		return "space"
	case StepList:
		return "default list"
	}
	return ""
}
