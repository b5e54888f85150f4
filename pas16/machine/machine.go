package machine

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-pas16/pas16"
	"github.com/valerio/go-pas16/pas16/chips"
	"github.com/valerio/go-pas16/pas16/dma"
	"github.com/valerio/go-pas16/pas16/events"
	"github.com/valerio/go-pas16/pas16/iobus"
	"github.com/valerio/go-pas16/pas16/midi"
	"github.com/valerio/go-pas16/pas16/pic"
	"github.com/valerio/go-pas16/pas16/wavio"
)

// isrSlice is how many output samples run between two polls of the
// interrupt line (1ms).
const isrSlice = SampleRate / 1000

// Output receives one period of clipped, interleaved stereo samples. The
// slice is reused for the next period.
type Output func(samples []int16) error

// Stats counts what the guest driver saw.
type Stats struct {
	Periods    uint64
	Interrupts uint64
	Blocks     uint64
	MIDIEchoed uint64
	MIDISent   uint64
	Transfers  uint64
	Underruns  uint64
}

// Machine is a minimal host around the board: an I/O bus, virtual time,
// an interrupt controller, a DMA controller and a guest driver that
// programs the card through port writes and services its interrupts.
type Machine struct {
	cfg Config

	Bus   *iobus.Bus
	Sched *events.Scheduler
	PIC   *pic.Controller
	DMA   *dma.Controller
	Card  *pas16.Device
	MIDI  *midi.LogSink
	DSP   *chips.DSP
	Synth pas16.Synth

	soundTimer *events.Timer
	bufStart   uint64
	mix        []int32
	out        []int16
	output     Output
	outErr     error
	edges      uint64 // interrupt edges already serviced

	stats Stats
}

// New builds a machine and the board on it. The card is not programmed
// until Start.
func New(cfg Config) (*Machine, error) {
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("machine: %w", err)
	}

	m := &Machine{
		cfg:   cfg,
		Bus:   iobus.New(),
		Sched: events.NewScheduler(),
		PIC:   pic.New(),
		DMA:   dma.New(),
		DSP:   chips.NewDSP(SampleRate, cfg.BufferLen),
		mix:   make([]int32, 2*cfg.BufferLen),
		out:   make([]int16, 2*cfg.BufferLen),
	}
	m.MIDI = midi.NewLogSink()

	switch cfg.Synth {
	case SynthPSG:
		m.Synth = chips.NewPSGSynth(SampleRate, cfg.BufferLen)
	default:
		m.Synth = chips.NewSilentSynth(cfg.BufferLen)
	}

	card, err := pas16.New(pas16.Config{
		MIDIInput: cfg.MIDIInput,
		BufferLen: cfg.BufferLen,
	}, pas16.Deps{
		Bus:           m.Bus,
		IRQ:           m.PIC,
		DMA:           m.DMA,
		Sound:         m,
		Clock:         m.Sched,
		UnitsPerClock: PITConst,
		Synth:         m.Synth,
		DSP:           m.DSP,
		MIDI:          m.MIDI,
	})
	if err != nil {
		return nil, fmt.Errorf("machine: %w", err)
	}
	m.Card = card
	m.soundTimer = m.Sched.NewTimer(m.period)

	slog.Debug("machine created", "irq", cfg.IRQ, "dma", cfg.DMA, "rate", cfg.Rate, "wide", cfg.Wide, "stereo", cfg.Stereo)
	return m, nil
}

// Config returns the effective configuration, defaults applied.
func (m *Machine) Config() Config {
	return m.cfg
}

// SetOutput installs the sink for mixed periods.
func (m *Machine) SetOutput(out Output) {
	m.output = out
}

// Load queues a decoded source on the card's DMA channel, laid out for the
// configured sample format.
func (m *Machine) Load(src *wavio.Source, loop bool) {
	m.Attach(src.DMABytes(m.cfg.Wide, m.cfg.Stereo), loop)
}

// Attach queues raw DMA bytes on the configured channel.
func (m *Machine) Attach(data []byte, loop bool) {
	m.DMA.Attach(m.cfg.DMA, data, loop)
}

// Start programs the board, which starts the sample rate timer, and begins
// pulling output periods.
func (m *Machine) Start() error {
	if err := m.program(); err != nil {
		return err
	}
	m.bufStart = m.Sched.Now()
	m.soundTimer.Set(m.periodUnits())
	return nil
}

// SoundPos returns how many output samples of the current period have
// elapsed, capped at the period length.
func (m *Machine) SoundPos() int {
	pos := int((m.Sched.Now() - m.bufStart) / SampleConst)
	return min(pos, m.cfg.BufferLen)
}

// RunFor advances virtual time by the given number of output samples,
// servicing board interrupts along the way. It stops at the first output
// error.
func (m *Machine) RunFor(samples int) error {
	for samples > 0 && m.outErr == nil {
		step := min(samples, isrSlice)
		m.Sched.RunUntil(m.Sched.Now() + uint64(step)*SampleConst)
		m.service()
		samples -= step
	}
	return m.outErr
}

// RunPeriods runs n whole output periods.
func (m *Machine) RunPeriods(n int) error {
	return m.RunFor(n * m.cfg.BufferLen)
}

// SendMIDI delivers a byte from the host MIDI input to the board.
func (m *Machine) SendMIDI(b byte) bool {
	return m.Card.ReceiveMIDI(b)
}

// Stats returns counters collected so far.
func (m *Machine) Stats() Stats {
	s := m.stats
	s.Transfers = m.DMA.Transfers(m.cfg.DMA)
	s.Underruns = m.DMA.Underruns(m.cfg.DMA)
	s.MIDISent = m.MIDI.Sent()
	return s
}

// Snapshot returns the board's register view.
func (m *Machine) Snapshot() pas16.State {
	return m.Card.Snapshot()
}

// Close stops time-driven activity and releases the board.
func (m *Machine) Close() error {
	m.soundTimer.Stop()
	return m.Card.Close()
}

func (m *Machine) periodUnits() uint64 {
	return uint64(m.cfg.BufferLen) * SampleConst
}

// period runs on the sound timer at the end of every output period.
func (m *Machine) period() {
	n := m.cfg.BufferLen
	clear(m.mix)
	m.Card.GetBuffer(m.mix, n)
	m.Card.GetMusicBuffer(m.mix, n)

	m.bufStart = m.Sched.Now()
	m.soundTimer.Advance(m.periodUnits())
	m.stats.Periods++

	if m.output == nil || m.outErr != nil {
		return
	}
	for i, v := range m.mix {
		m.out[i] = wavio.Clip(v)
	}
	if err := m.output(m.out); err != nil {
		m.outErr = fmt.Errorf("machine: output: %w", err)
		slog.Error("output failed, stopping", "error", err)
	}
}
