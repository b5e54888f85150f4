package pas16

import (
	"errors"

	"github.com/valerio/go-pas16/pas16/pit"
)

// DefaultBufferLen is the number of stereo samples in one output period
// (20ms at 48kHz).
const DefaultBufferLen = 960

var (
	ErrNoBus       = errors.New("no port bus")
	ErrNoClock     = errors.New("no timer clock")
	ErrMissingDep  = errors.New("missing collaborator")
	ErrBufferLen   = errors.New("invalid buffer length")
	ErrBaseAligned = errors.New("base address must be a multiple of 4")
)

// Config holds the user-facing options of the board.
type Config struct {
	// MIDIInput enables receive on the MIDI UART. When false, bytes from
	// the host MIDI input are dropped.
	MIDIInput bool
	// Base is the I/O base to bind at construction. Zero leaves the board
	// unreachable until the guest programs it through the base port.
	Base uint16
	// BufferLen is the number of stereo samples per output period. Zero
	// selects DefaultBufferLen.
	BufferLen int
}

// Deps gathers the host services and chips the board is wired to.
type Deps struct {
	Bus   PortBus
	IRQ   InterruptLine
	DMA   DMAChannel
	Sound SoundClock

	// Clock and UnitsPerClock drive the owned interval timer: one input
	// clock of the timer lasts UnitsPerClock units of Clock.
	Clock         pit.Clock
	UnitsPerClock uint64

	Synth Synth
	DSP   DSP
	MIDI  MIDIPort
}

func (d Deps) validate() error {
	switch {
	case d.Bus == nil:
		return ErrNoBus
	case d.Clock == nil:
		return ErrNoClock
	case d.IRQ == nil, d.DMA == nil, d.Sound == nil:
		return ErrMissingDep
	case d.Synth == nil, d.DSP == nil, d.MIDI == nil:
		return ErrMissingDep
	}
	return nil
}

func (c Config) validate() error {
	if c.BufferLen < 0 {
		return ErrBufferLen
	}
	if c.Base&3 != 0 {
		return ErrBaseAligned
	}
	return nil
}
