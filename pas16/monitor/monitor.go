package monitor

import (
	"fmt"
	"log/slog"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/go-pas16/pas16"
	"github.com/valerio/go-pas16/pas16/machine"
)

const (
	minTermWidth  = 80
	minTermHeight = 24
	panelWidth    = 38
	registerLines = 14
	logCapacity   = 200
)

// Source is what the monitor draws.
type Source interface {
	Snapshot() pas16.State
	Stats() machine.Stats
}

// Monitor is a terminal view of the board registers, timer counters,
// driver statistics and recent logs.
type Monitor struct {
	screen   tcell.Screen
	source   Source
	logs     *LogBuffer
	logLevel slog.Level
	running  bool
	paused   bool
}

// New wraps an already created screen. Use Open for the real terminal.
func New(screen tcell.Screen, source Source) *Monitor {
	return &Monitor{
		screen:   screen,
		source:   source,
		logs:     NewLogBuffer(logCapacity),
		logLevel: slog.LevelInfo,
	}
}

// Open creates a monitor on the controlling terminal.
func Open(source Source) (*Monitor, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("monitor: %w", err)
	}
	m := New(screen, source)
	if err := m.Init(); err != nil {
		return nil, err
	}
	return m, nil
}

// Init takes over the screen and routes the default logger into the log
// panel.
func (m *Monitor) Init() error {
	if err := m.screen.Init(); err != nil {
		return fmt.Errorf("monitor: %w", err)
	}
	m.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	m.screen.Clear()
	m.running = true

	slog.SetDefault(slog.New(NewLogBufferHandler(m.logs, slog.LevelDebug)))
	slog.Info("monitor started")
	return nil
}

// Logs returns the buffer the log panel reads from.
func (m *Monitor) Logs() *LogBuffer { return m.logs }

// Running reports whether the user has not asked to quit.
func (m *Monitor) Running() bool { return m.running }

// Paused reports whether emulation should hold.
func (m *Monitor) Paused() bool { return m.paused }

// Update handles pending key presses and redraws.
func (m *Monitor) Update() {
	for m.screen.HasPendingEvent() {
		switch ev := m.screen.PollEvent().(type) {
		case *tcell.EventKey:
			m.handleKey(ev)
		case *tcell.EventResize:
			m.screen.Sync()
		}
	}
	m.Draw()
}

// Close restores the terminal.
func (m *Monitor) Close() {
	m.running = false
	m.screen.Fini()
}

func (m *Monitor) handleKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyCtrlC, tcell.KeyEscape:
		m.running = false
		return
	case tcell.KeyRune:
	default:
		return
	}

	switch ev.Rune() {
	case 'q':
		m.running = false
	case 'p', ' ':
		m.paused = !m.paused
		slog.Info("monitor pause toggled", "paused", m.paused)
	case '+', '=':
		m.changeLogLevel(-4)
	case '-', '_':
		m.changeLogLevel(4)
	}
}

// changeLogLevel moves the log panel filter by delta, clamped to the
// debug..error range.
func (m *Monitor) changeLogLevel(delta slog.Level) {
	old := m.logLevel
	m.logLevel = min(max(m.logLevel+delta, slog.LevelDebug), slog.LevelError)
	if old != m.logLevel {
		slog.Info("log filter changed", "from", old, "to", m.logLevel)
	}
}

// Draw renders one frame.
func (m *Monitor) Draw() {
	m.screen.Clear()
	w, h := m.screen.Size()
	if w < minTermWidth || h < minTermHeight {
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		m.drawText(0, h/2, w, msg, tcell.StyleDefault.Foreground(tcell.ColorRed))
		m.screen.Show()
		return
	}

	state := m.source.Snapshot()
	stats := m.source.Stats()

	title := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	regs := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	border := tcell.StyleDefault.Foreground(tcell.ColorWhite)

	status := "RUNNING"
	if m.paused {
		status = "PAUSED"
	}
	m.drawText(1, 0, w-2, fmt.Sprintf("PAS16 monitor  [%s]  q:quit p:pause +/-:log level", status), title)

	for i, line := range registerView(state) {
		m.drawText(1, 1+i, panelWidth, line, regs)
	}
	for i, line := range timerView(state, stats) {
		m.drawText(panelWidth+2, 1+i, w-panelWidth-3, line, regs)
	}
	for y := 1; y <= registerLines; y++ {
		m.screen.SetContent(panelWidth+1, y, '│', nil, border)
	}
	for x := 0; x < w; x++ {
		m.screen.SetContent(x, registerLines+1, '─', nil, border)
	}

	m.drawLogs(1, registerLines+2, w-2, h)
	m.screen.Show()
}

func registerView(s pas16.State) []string {
	bound := "unbound"
	if s.Bound {
		bound = "bound"
	}
	return []string{
		fmt.Sprintf("Base: 0x%03X (%s)", s.Base, bound),
		fmt.Sprintf("IRQ: %-2d  DMA: %d", s.IRQ, s.DMA),
		fmt.Sprintf("Status: 0x%02X  Mask: 0x%02X", s.IRQStatus, s.IRQMask),
		fmt.Sprintf("Mixer: 0x%02X  Filter: 0x%02X", s.Mixer, s.Filter),
		fmt.Sprintf("PCM ctrl: 0x%02X", s.PCMControl),
		fmt.Sprintf("Latch L: 0x%04X  R: 0x%04X", s.PCMLeft, s.PCMRight),
		fmt.Sprintf("SysConf: % X", s.SysConf[:]),
		fmt.Sprintf("IOConf:  % X", s.IOConf[:]),
		fmt.Sprintf("Compat: 0x%02X", s.Compat),
		fmt.Sprintf("DSP: 0x%03X  MPU: 0x%03X", s.DSPAddr, s.MPUAddr),
		fmt.Sprintf("MIDI status: 0x%02X  FIFO: %d", s.MIDIStatus, s.MIDIFIFO),
	}
}

func timerView(s pas16.State, st machine.Stats) []string {
	lines := make([]string, 0, registerLines)
	for i, c := range s.Counters {
		lines = append(lines, fmt.Sprintf("T%d: mode %d  reload 0x%04X  count %5d  en %t",
			i, c.Mode, c.Reload, c.Count, c.Enable))
	}
	return append(lines,
		"",
		fmt.Sprintf("Periods: %d", st.Periods),
		fmt.Sprintf("Interrupts: %d  Blocks: %d", st.Interrupts, st.Blocks),
		fmt.Sprintf("DMA bytes: %d  underruns: %d", st.Transfers, st.Underruns),
		fmt.Sprintf("MIDI echoed: %d  sent: %d", st.MIDIEchoed, st.MIDISent),
	)
}

func (m *Monitor) drawLogs(x, y, width, termHeight int) {
	available := termHeight - y
	if available <= 0 || width <= 0 {
		return
	}

	debugStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	infoStyle := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	warnStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	errStyle := tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)

	row := 0
	for _, entry := range m.logs.GetRecent(0) {
		if row >= available {
			break
		}
		if entry.Level < m.logLevel {
			continue
		}

		style := infoStyle
		switch {
		case entry.Level >= slog.LevelError:
			style = errStyle
		case entry.Level >= slog.LevelWarn:
			style = warnStyle
		case entry.Level < slog.LevelInfo:
			style = debugStyle
		}

		text := FormatLogEntry(entry)
		if len(text) > width && width > 3 {
			text = text[:width-3] + "..."
		}
		m.drawText(x, y+row, width, text, style)
		row++
	}
}

func (m *Monitor) drawText(x, y, width int, text string, style tcell.Style) {
	col := 0
	for _, ch := range text {
		if col >= width {
			break
		}
		m.screen.SetContent(x+col, y, ch, nil, style)
		col++
	}
}
