package main

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"voxtray/status"
)

type StatusMsg struct{ Status status.Status }
type ModeLineMsg struct{ Text string }   // transcription model and language
type DeviceLineMsg struct{ Text string } // microphone device name
type tickMsg time.Time

type tuiModel struct {
	status        status.Status
	frame         int
	audioLevel    float64
	recStart      time.Time
	now           time.Time
	sessions      int
	width, height int
	modeLine      string
	deviceLine    string
	lastResult    string
	lastKind      status.Kind
	toggle        func()
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

// Orb palettes indexed by orbGrid cell: 1-8 core bands, 9 rim, 10-11 bezel,
// 14-15 glint. Index 0 is background.
var eyeColors = map[status.Kind][]string{
	status.Idle:       {"", "253", "250", "247", "244", "241", "239", "237", "236", "235", "234", "233", "", "", "255", "231"},
	status.Recording:  {"", "230", "228", "220", "214", "208", "202", "160", "124", "52", "236", "234", "", "", "255", "231"},
	status.Processing: {"", "195", "159", "123", "87", "51", "45", "38", "31", "23", "236", "234", "", "", "255", "231"},
}

type eyeStyles struct {
	fg [16]lipgloss.Style
	bg [16][16]lipgloss.Style
}

var eyePalettes = map[status.Kind]*eyeStyles{}

func init() {
	for kind, colors := range eyeColors {
		p := &eyeStyles{}
		for i, fg := range colors {
			if fg == "" {
				continue
			}
			p.fg[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
			for j, bg := range colors {
				if bg != "" {
					p.bg[i][j] = lipgloss.NewStyle().Foreground(lipgloss.Color(fg)).Background(lipgloss.Color(bg))
				}
			}
		}
		eyePalettes[kind] = p
	}
}

func paletteFor(k status.Kind) *eyeStyles {
	if p, ok := eyePalettes[k]; ok {
		return p
	}
	return eyePalettes[status.Idle]
}

func NewTUIProgram(toggle func()) *tea.Program {
	m := tuiModel{status: status.Ready(), toggle: toggle}
	return tea.NewProgram(m, tea.WithAltScreen())
}

// tuiPublisher forwards statuses into the running TUI program.
type tuiPublisher struct{}

func (tuiPublisher) Publish(s status.Status) {
	tuiSend(StatusMsg{Status: s})
}

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func tuiTick() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// tierLevel maps a tier onto the eye's breathing amplitude.
func tierLevel(t status.Tier) float64 {
	switch t {
	case status.TierHigh:
		return 0.10
	case status.TierMediumHigh:
		return 0.06
	case status.TierMediumLow:
		return 0.03
	default:
		return 0
	}
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case " ":
			if m.toggle != nil {
				m.toggle()
			}
		}

	case tickMsg:
		m.frame++
		m.now = time.Time(msg)
		return m, tuiTick()

	case StatusMsg:
		prev := m.status.Kind
		m.status = msg.Status
		switch msg.Status.Kind {
		case status.Recording:
			if prev != status.Recording {
				m.recStart = time.Now()
				m.audioLevel = 0
			}
			m.audioLevel = m.audioLevel*0.6 + tierLevel(msg.Status.Tier)*0.4
		case status.Success:
			m.sessions++
			m.lastResult = msg.Status.Preview
			m.lastKind = status.Success
		case status.NoSpeech, status.Error:
			m.sessions++
			m.lastResult = msg.Status.Text()
			m.lastKind = msg.Status.Kind
		default:
			m.audioLevel = 0
		}

	case ModeLineMsg:
		m.modeLine = msg.Text

	case DeviceLineMsg:
		m.deviceLine = msg.Text
	}
	return m, nil
}

func statusStyle(k status.Kind) lipgloss.Style {
	switch k {
	case status.Recording, status.Error:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	case status.Processing:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	case status.Success:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	case status.NoSpeech:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	}
}

func (m tuiModel) statusLine() string {
	line := m.status.Text()
	if m.status.Kind == status.Recording && !m.recStart.IsZero() && m.now.After(m.recStart) {
		line += fmt.Sprintf(" %.1fs", m.now.Sub(m.recStart).Seconds())
	}
	return statusStyle(m.status.Kind).Render(line)
}

var (
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	keyStyle  = helpStyle.Bold(true)
)

// infoLines sit under the orb.
func (m tuiModel) infoLines() []string {
	lines := []string{m.statusLine()}
	if m.modeLine != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render(m.modeLine))
	}
	if m.deviceLine != "" {
		lines = append(lines, dimStyle.Render(m.deviceLine))
	}
	return append(lines,
		"",
		keyStyle.Render("space")+helpStyle.Render(" to toggle, ")+keyStyle.Render("q")+helpStyle.Render(" to quit"),
		helpStyle.Render("voxtray "+version),
	)
}

// resultPanel shows the outcome of the most recent session.
func (m tuiModel) resultPanel(width int) string {
	if m.lastResult == "" {
		return dimStyle.Render("No transcriptions yet")
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("246")).
		Render(fmt.Sprintf("Last result (#%d)", m.sessions)))
	b.WriteString("\n\n")

	style := statusStyle(m.lastKind)
	if m.lastKind == status.Success {
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	}
	lines := wrapText(m.lastResult, max(width-2, 10))
	for i, line := range lines {
		b.WriteString(style.Render(line))
		if m.lastKind == status.Success && i == len(lines)-1 {
			b.WriteString(" " + statusStyle(status.Success).Render("[✓ copied]"))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	level := 0.0
	if m.status.Kind == status.Recording {
		level = m.audioLevel
	}
	left := strings.Split(drawOrb(m.frame, level, m.status.Kind).render(paletteFor(m.status.Kind)), "\n")
	left = append(left[:len(left)-1], m.infoLines()...)
	if len(left) > m.height {
		left = left[:m.height]
	}

	leftPanel := lipgloss.NewStyle().Width(orbCols).Height(m.height).
		Render(strings.Join(left, "\n"))
	rightWidth := max(m.width-orbCols-2, 20)
	rightPanel := lipgloss.NewStyle().Width(rightWidth).Height(m.height).PaddingLeft(1).
		Render(m.resultPanel(rightWidth))

	return lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, rightPanel)
}

const (
	orbCols = 44
	orbRows = 15
)

// orbGrid is the eye at double vertical resolution; each cell holds a palette
// index and 0 means background.
type orbGrid [orbRows * 2][orbCols]int

// pulse is how far the orb swells beyond its resting radius this frame.
func pulse(frame int, level float64, kind status.Kind) float64 {
	t := float64(frame)
	switch kind {
	case status.Recording:
		return math.Sin(t*0.10)*0.6 + level*40
	case status.Processing:
		return math.Sin(t*0.30) * 0.8
	default:
		return math.Sin(t*0.08) * 0.4
	}
}

func drawOrb(frame int, level float64, kind status.Kind) *orbGrid {
	var g orbGrid
	cx, cy := float64(orbCols)/2, float64(orbRows)
	core := min(5.5+pulse(frame, level, kind), 9.5)

	for y := range g {
		for x := range g[y] {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			switch {
			case d < core:
				// bright center shading out through eight bands
				g[y][x] = 1 + min(int(d/core*8), 7)
			case d < 10:
				g[y][x] = 9
			case d < 12:
				g[y][x] = 10 + int(d-10)
			}
		}
	}

	// glint on the upper left of the glass
	for _, s := range []struct {
		x, y, r float64
		c       int
	}{
		{-5.5, -6, 1.1, 14},
		{-4.8, -5.2, 0.6, 15},
		{4.5, -7, 0.7, 14},
	} {
		for y := range g {
			for x := range g[y] {
				dx := float64(x) - cx - s.x
				dy := float64(y) - cy - s.y
				if dx*dx/4+dy*dy < s.r*s.r {
					g[y][x] = s.c
				}
			}
		}
	}
	return &g
}

// render folds pixel row pairs into half-block characters.
func (g *orbGrid) render(pal *eyeStyles) string {
	var b strings.Builder
	for row := 0; row < orbRows; row++ {
		top, bot := g[row*2], g[row*2+1]
		for x := 0; x < orbCols; x++ {
			t, u := top[x], bot[x]
			switch {
			case t == 0 && u == 0:
				b.WriteByte(' ')
			case t == u:
				b.WriteString(pal.fg[t].Render("█"))
			case u == 0:
				b.WriteString(pal.fg[t].Render("▀"))
			case t == 0:
				b.WriteString(pal.fg[u].Render("▄"))
			default:
				b.WriteString(pal.bg[t][u].Render("▀"))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	r := []rune(text)
	var lines []string
	for len(r) > width {
		// break at the last space that fits
		splitAt := width
		for i := width; i > 0; i-- {
			if r[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, string(r[:splitAt]))
		r = []rune(strings.TrimLeft(string(r[splitAt:]), " "))
	}
	if len(r) > 0 {
		lines = append(lines, string(r))
	}
	return lines
}
