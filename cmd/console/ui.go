package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/panic-sell/equip-spells-as-shouts/pkg/host"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/shoutmap"
)

const PlaceHolderText = "Type a command, or help..."

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	session       *session
	logs          *logTail
	history       []string
	mainViewport  viewport.Model
	stateViewport viewport.Model
	textarea      textarea.Model
	ready         bool
	width         int
	height        int
	showLogs      bool

	// Quit confirmation state
	showQuitModal bool
}

var (
	mainPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	statePanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	notifyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	fafStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	concStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")) // purple

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(s *session, logs *logTail) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 200
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	mainVp := viewport.New(50, 20)
	mainVp.MouseWheelEnabled = true

	stateVp := viewport.New(20, 20)

	return ConsoleUI{
		session:       s,
		logs:          logs,
		textarea:      ta,
		mainViewport:  mainVp,
		stateViewport: stateVp,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		svCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.mainViewport, vpCmd = m.mainViewport.Update(msg)
		m.stateViewport, svCmd = m.stateViewport.Update(msg)
		return m, tea.Batch(vpCmd, svCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		mainWidth := int(float64(m.width)*0.65) - 4
		stateWidth := m.width - mainWidth - 6

		m.mainViewport.Width = mainWidth - 2
		m.mainViewport.Height = m.height - 7
		m.stateViewport.Width = stateWidth - 2
		m.stateViewport.Height = m.height - 4
		m.textarea.SetWidth(mainWidth - 4)
		m.ready = true
		m.refresh()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyCtrlL:
			m.showLogs = !m.showLogs
			m.refresh()
			return m, nil
		case tea.KeyEnter:
			input := strings.TrimSpace(m.textarea.Value())
			m.textarea.Reset()
			if input == "" {
				return m, nil
			}
			if strings.EqualFold(input, "quit") || strings.EqualFold(input, "exit") {
				m.showQuitModal = true
				return m, nil
			}
			m.run(input)
			m.refresh()
			return m, nil
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.mainViewport, vpCmd = m.mainViewport.Update(msg)
	m.stateViewport, svCmd = m.stateViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, svCmd)
}

// run executes a command and appends its transcript to the history.
func (m *ConsoleUI) run(input string) {
	m.history = append(m.history, commandStyle.Render("> "+input))
	out, err := m.session.Exec(input)
	for _, line := range out {
		if strings.HasPrefix(line, "» ") {
			m.history = append(m.history, notifyStyle.Render(line))
			continue
		}
		m.history = append(m.history, line)
	}
	if err != nil {
		m.history = append(m.history, errorStyle.Render("Error: "+err.Error()))
	}
	m.history = append(m.history, "")
}

func (m *ConsoleUI) refresh() {
	m.mainViewport.SetContent(m.writeMainContent())
	m.mainViewport.GotoBottom()
	m.stateViewport.SetContent(writeState(m.session))
}

func (m ConsoleUI) writeMainContent() string {
	width := m.mainViewport.Width - 6
	if width < 20 {
		width = 20
	}
	var content strings.Builder
	content.WriteString(titleStyle.Render("EQUIP SPELLS AS SHOUTS") + "\n\n")
	content.WriteString("Equip a spell, assign it, select the shout and shout.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")

	lines := m.history
	if m.showLogs {
		lines = m.logs.Lines()
	}
	for _, line := range lines {
		content.WriteString(wordwrap.String(line, width) + "\n")
	}
	return content.String()
}

func writeState(s *session) string {
	var content strings.Builder
	p := s.world.Player
	content.WriteString(titleStyle.Render("PLAYER") + "\n\n")
	content.WriteString(fmt.Sprintf("%s, level %d\n", p.Name(), p.Level()))
	content.WriteString(fmt.Sprintf("Health:  %d / %d\n", p.HP(), p.MaxHP()))
	content.WriteString(fmt.Sprintf("Magicka: %.0f / %.0f\n", p.Magicka(), p.MaxMagicka()))
	content.WriteString(magickaBar(p.Magicka(), p.MaxMagicka(), 20) + "\n\n")

	hand := "empty"
	if sp := p.RightHandSpell(); sp != nil {
		hand = sp.Name
	}
	content.WriteString("Right hand:\n" + hand + "\n\n")

	selected := "none"
	if sh := p.SelectedShout(); sh != nil {
		selected = sh.Name
	}
	content.WriteString("Shout:\n" + selected + "\n\n")

	if sp := s.svc.ConcState().Spell(); sp != nil {
		content.WriteString(concStyle.Render("Channeling "+sp.Name) + "\n\n")
	}

	content.WriteString(titleStyle.Render("SPELL SHOUTS") + "\n\n")
	slots := s.ownedSlots()
	if len(slots) == 0 {
		content.WriteString("None learned\n")
	}
	for i, slot := range slots {
		content.WriteString(formatSlot(i+1, slot) + "\n")
	}

	content.WriteString("\n")
	content.WriteString(fmt.Sprintf("Layout: %s\n", s.svc.Registry().Layout()))
	content.WriteString(fmt.Sprintf("Save: %s...\n", s.saveID.String()[:8]))
	flags := []string{}
	if s.world.Engine.GodMode() {
		flags = append(flags, "god")
	}
	if s.world.Engine.GamePaused() {
		flags = append(flags, "paused")
	}
	if len(flags) > 0 {
		content.WriteString("Flags: " + strings.Join(flags, ", ") + "\n")
	}

	content.WriteString("\n")
	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Ctrl+L: Toggle log\n")
	content.WriteString("• help: Commands\n")

	return content.String()
}

func formatSlot(n int, slot shoutmap.Slot) string {
	label := fmt.Sprintf("%2d %s", n, shoutLabel(slot.Shout))
	switch categoryLabel(slot.Spell) {
	case "faf":
		return fafStyle.Render(label)
	case "conc":
		return concStyle.Render(label)
	}
	return label
}

func shoutLabel(s *host.Shout) string {
	if s == nil {
		return ""
	}
	return strings.TrimSuffix(s.Name, " (Spell Shout)")
}

func magickaBar(v, limit float64, width int) string {
	if limit <= 0 {
		return ""
	}
	filled := int(v / limit * float64(width))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return commandStyle.Render(strings.Repeat("█", filled)) + separatorStyle.Render(strings.Repeat("░", width-filled))
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Unsaved spell shout assignments are lost.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	mainWidth := int(float64(m.width)*0.65) - 4
	stateWidth := m.width - mainWidth - 6

	mainPanel := mainPanelStyle.Width(mainWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.mainViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", mainWidth-4)),
			m.textarea.View(),
		),
	)

	statePanel := statePanelStyle.Width(stateWidth).Height(m.height - 2).Render(
		m.stateViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, mainPanel, statePanel)
}
