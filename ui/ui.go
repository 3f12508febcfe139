package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hifiberry/audiocontrol3/audiocontroller"
	"github.com/hifiberry/audiocontrol3/metadata"
	"github.com/hifiberry/audiocontrol3/player"
	"github.com/hifiberry/audiocontrol3/style"
	"github.com/hifiberry/audiocontrol3/util"
)

const volumeStep = 5

type eventMsg struct {
	event player.Event
}

type tickMsg time.Time

type model struct {
	engine *audiocontroller.AudioController

	keymap    keymap
	helpC     help.Model
	progressC progress.Model

	width int

	players   []*metadata.Player
	song      *metadata.Song
	position  float64
	volume    int
	hasVolume bool
	muted     bool
	status    string
}

func newModel(engine *audiocontroller.AudioController) *model {
	m := &model{
		engine:    engine,
		keymap:    newKeymap(),
		helpC:     help.New(),
		progressC: progress.New(progress.WithDefaultGradient()),
		width:     80,
	}
	m.refresh()
	return m
}

// Run displays the playback status screen until the user quits. Engine events
// are forwarded into the program so the view reacts without polling alone.
func Run(engine *audiocontroller.AudioController) error {
	program := tea.NewProgram(newModel(engine), tea.WithAltScreen())

	forward := func(ev player.Event) {
		program.Send(eventMsg{event: ev})
	}
	for _, kind := range player.Kinds() {
		engine.Subscribe(kind, forward)
	}
	defer func() {
		for _, kind := range player.Kinds() {
			engine.Unsubscribe(kind, forward)
		}
	}()

	_, err := program.Run()
	return err
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *model) Init() tea.Cmd {
	return tick()
}

// refresh pulls a fresh snapshot of everything the view shows.
func (m *model) refresh() {
	m.players = m.engine.AllPlayerInfo()
	m.song = m.engine.CurrentSong()

	if position, ok := m.engine.Position().Get(); ok {
		m.position = position
	} else {
		m.position = 0
	}

	if volume, ok := m.engine.Volume().Get(); ok {
		m.volume = volume
		m.hasVolume = true
	} else {
		m.hasVolume = false
	}

	if muted, ok := m.engine.IsMuted().Get(); ok {
		m.muted = muted
	} else {
		m.muted = false
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressC.Width = util.Clamp(msg.Width-10, 10, 80)
		m.helpC.Width = msg.Width
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tick()

	case eventMsg:
		return m.handleEvent(msg.event)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *model) handleEvent(ev player.Event) (tea.Model, tea.Cmd) {
	switch ev.Kind {
	case player.EventPositionChange:
		if ev.PlayerID == m.engine.ActiveID() {
			if position, ok := ev.Position.Get(); ok {
				m.position = position
			}
		}
	case player.EventVolumeChange:
		if ev.PlayerID == m.engine.ActiveID() {
			m.volume = ev.Volume
			m.hasVolume = true
		}
	default:
		m.refresh()
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keymap

	switch {
	case key.Matches(msg, k.quit), key.Matches(msg, k.forceQuit):
		return m, tea.Quit
	case key.Matches(msg, k.playPause):
		m.command(m.engine.PlayPause)
	case key.Matches(msg, k.stop):
		m.command(m.engine.Stop)
	case key.Matches(msg, k.next):
		m.command(m.engine.Next)
	case key.Matches(msg, k.prev):
		m.command(m.engine.Previous)
	case key.Matches(msg, k.volumeUp):
		if m.hasVolume {
			m.command(func() error { return m.engine.SetVolume(m.volume + volumeStep) })
		}
	case key.Matches(msg, k.volumeDown):
		if m.hasVolume {
			m.command(func() error { return m.engine.SetVolume(m.volume - volumeStep) })
		}
	case key.Matches(msg, k.mute):
		m.command(func() error { return m.engine.Mute(!m.muted) })
	case key.Matches(msg, k.cyclePlayer):
		m.command(m.cycleActivePlayer)
	}

	m.refresh()
	return m, nil
}

// command runs an engine command and keeps the failure visible in the footer.
func (m *model) command(cmd func() error) {
	if err := cmd(); err != nil {
		m.status = err.Error()
		return
	}
	m.status = ""
}

// cycleActivePlayer activates the player after the current one in
// registration order.
func (m *model) cycleActivePlayer() error {
	ids := m.engine.IDs()
	if len(ids) < 2 {
		return nil
	}

	activeID := m.engine.ActiveID()
	for i, id := range ids {
		if id == activeID {
			return m.engine.SetActiveController(ids[(i+1)%len(ids)])
		}
	}
	return m.engine.SetActiveController(ids[0])
}

func (m *model) View() string {
	var b strings.Builder

	b.WriteString(style.Title("AudioControl"))
	b.WriteString("\n\n")

	b.WriteString(m.viewPlayers())
	b.WriteString("\n")
	b.WriteString(m.viewSong())
	b.WriteString("\n")
	b.WriteString(m.viewVolume())
	b.WriteString("\n\n")

	if m.status != "" {
		b.WriteString(style.Fg(style.ErrorColor)(m.status))
		b.WriteString("\n\n")
	}

	b.WriteString(m.helpC.View(m.keymap))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m *model) viewPlayers() string {
	if len(m.players) == 0 {
		return style.Faint("no players registered")
	}

	lines := make([]string, 0, len(m.players))
	for _, p := range m.players {
		marker := "  "
		name := fmt.Sprintf("%s (%s)", p.Name, p.State)
		if p.Active {
			marker = style.Fg(style.AccentColor)("> ")
			name = style.Fg(style.AccentColor)(name)
		}
		lines = append(lines, marker+name)
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m *model) viewSong() string {
	if m.song == nil {
		return style.Faint("nothing playing")
	}

	var b strings.Builder
	b.WriteString(style.Bold(m.song.String()))
	b.WriteString("\n")

	if m.song.Album != "" {
		b.WriteString(style.Faint(m.song.Album))
		b.WriteString("\n")
	}

	if m.song.Duration > 0 {
		percent := util.Clamp(m.position/m.song.Duration, 0, 1)
		b.WriteString(m.progressC.ViewAs(percent))
		b.WriteString(fmt.Sprintf(" %s/%s",
			util.FormatTime(m.position),
			util.FormatTime(m.song.Duration),
		))
	} else {
		b.WriteString(style.Faint(util.FormatTime(m.position)))
	}

	return b.String() + "\n"
}

func (m *model) viewVolume() string {
	if !m.hasVolume {
		return ""
	}

	text := fmt.Sprintf("volume %d%%", m.volume)
	if m.muted {
		text += " (muted)"
	}
	return style.Faint(text)
}
