package pas16

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/valerio/go-pas16/pas16/addr"
	"github.com/valerio/go-pas16/pas16/iobus"
	"github.com/valerio/go-pas16/pas16/pit"
)

// Device is a Pro Audio Spectrum 16 sound card: the board registers, the
// interrupt logic, the MIDI UART, the timer-driven PCM sampler and the mix
// stage. The FM synth, the legacy DSP and the MIDI UART chip are
// collaborators the device routes to.
//
// A Device is driven from a single emulation goroutine and is not safe for
// concurrent use.
type Device struct {
	cfg Config

	base  uint16
	bound bool
	irq   int // translated IRQ line, 0 is unassigned
	dma   int // translated DMA channel

	mixer      byte
	filter     byte
	scsi       byte
	sysConf    [4]byte
	ioConf     [4]byte
	waitStates byte

	compat       byte
	compatBase   byte
	compatIRQDMA byte
	dspAddr      uint16
	mpuAddr      uint16

	irqStat byte
	irqMask byte

	pcmCtrl     byte
	pcmData     uint16
	pcmLeft     uint16
	pcmRight    uint16
	stereoRight bool // next stereo sample goes to the right latch

	uart uart

	pcmBuf [2][]int16
	pos    int

	timer *pit.PIT
	bus   PortBus
	pic   InterruptLine
	dmac  DMAChannel
	sound SoundClock
	synth Synth
	dsp   DSP
	mpu   MIDIPort

	regs     *iobus.Funcs
	basePort *iobus.Funcs
}

// New creates a board wired to deps. Only the base port is bound unless
// cfg.Base is set, in which case the register windows are bound there too.
func New(cfg Config, deps Deps) (*Device, error) {
	if err := deps.validate(); err != nil {
		return nil, fmt.Errorf("pas16: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("pas16: %w", err)
	}
	if cfg.BufferLen == 0 {
		cfg.BufferLen = DefaultBufferLen
	}
	units := deps.UnitsPerClock
	if units == 0 {
		units = 1
	}

	d := &Device{
		cfg:   cfg,
		bus:   deps.Bus,
		pic:   deps.IRQ,
		dmac:  deps.DMA,
		sound: deps.Sound,
		synth: deps.Synth,
		dsp:   deps.DSP,
		mpu:   deps.MIDI,
	}
	d.pcmBuf[0] = make([]int16, cfg.BufferLen)
	d.pcmBuf[1] = make([]int16, cfg.BufferLen)

	d.timer = pit.New(deps.Clock, units)
	d.timer.SetTickFunc(d.pcmTick)
	d.timer.SetOutFunc(0, d.prescalerOut)

	d.regs = &iobus.Funcs{In: d.ReadPort, Out: d.WritePort}
	d.basePort = &iobus.Funcs{Out: func(_ uint16, value byte) { d.WriteBase(value) }}
	d.bus.SetHandler(addr.BasePort, 1, d.basePort)

	if cfg.Base != 0 {
		d.relocate(cfg.Base)
	}
	d.Reset()

	slog.Debug("pas16 created", "base", fmt.Sprintf("0x%04X", cfg.Base), "bufferLen", cfg.BufferLen)
	return d, nil
}

// Reset returns the MIDI UART to its power-on state: status reads 0xFF,
// control is cleared, the receive FIFO is emptied and the MIDI interrupt
// is withdrawn.
func (d *Device) Reset() {
	d.resetUART()
}

// Close unbinds every port the board holds, stops the timer and closes
// any collaborator that needs it.
func (d *Device) Close() error {
	d.timer.Stop()
	d.unbind()
	d.bus.RemoveHandler(addr.BasePort, 1, d.basePort)

	var errs []error
	for _, c := range []any{d.synth, d.dsp, d.mpu} {
		if closer, ok := c.(io.Closer); ok {
			errs = append(errs, closer.Close())
		}
	}
	return errors.Join(errs...)
}

// ReadPort serves a guest read from any of the register windows.
func (d *Device) ReadPort(port uint16) byte {
	offset := addr.Offset(d.base, port)
	r, ok := registers[offset]
	if !ok || r.read == nil {
		return iobus.Floating
	}
	return r.read(d, offset)
}

// WritePort serves a guest write to any of the register windows.
func (d *Device) WritePort(port uint16, value byte) {
	offset := addr.Offset(d.base, port)
	r, ok := registers[offset]
	if !ok || r.write == nil {
		slog.Debug("pas16 write ignored", "port", fmt.Sprintf("0x%04X", port), "offset", fmt.Sprintf("0x%04X", offset), "value", fmt.Sprintf("0x%02X", value))
		return
	}
	r.write(d, offset, value)
}

// Base returns the current I/O base.
func (d *Device) Base() uint16 { return d.base }

// Bound reports whether the register windows are reachable.
func (d *Device) Bound() bool { return d.bound }

// IRQ returns the translated interrupt line, 0 when unassigned.
func (d *Device) IRQ() int { return d.irq }

// DMA returns the translated DMA channel.
func (d *Device) DMA() int { return d.dma }

// Timer exposes the owned interval timer.
func (d *Device) Timer() *pit.PIT { return d.timer }

// BufferLen returns the number of stereo samples per output period.
func (d *Device) BufferLen() int { return d.cfg.BufferLen }

// State is a read-only snapshot of the registers, for monitors and logs.
type State struct {
	Base       uint16
	Bound      bool
	IRQ        int
	DMA        int
	Mixer      byte
	Filter     byte
	IRQStatus  byte
	IRQMask    byte
	PCMControl byte
	PCMLeft    uint16
	PCMRight   uint16
	SysConf    [4]byte
	IOConf     [4]byte
	Compat     byte
	DSPAddr    uint16
	MPUAddr    uint16
	MIDIStatus byte
	MIDIFIFO   int
	Counters   [3]pit.Counter
}

// Snapshot returns the current register state.
func (d *Device) Snapshot() State {
	return State{
		Base:       d.base,
		Bound:      d.bound,
		IRQ:        d.irq,
		DMA:        d.dma,
		Mixer:      d.mixer,
		Filter:     d.filter,
		IRQStatus:  d.irqStat,
		IRQMask:    d.irqMask,
		PCMControl: d.pcmCtrl,
		PCMLeft:    d.pcmLeft,
		PCMRight:   d.pcmRight,
		SysConf:    d.sysConf,
		IOConf:     d.ioConf,
		Compat:     d.compat,
		DSPAddr:    d.dspAddr,
		MPUAddr:    d.mpuAddr,
		MIDIStatus: d.uartStatus(),
		MIDIFIFO:   d.uart.pending(),
		Counters:   d.timer.Counters,
	}
}
