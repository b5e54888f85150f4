package machine

import (
	"errors"
	"fmt"

	"github.com/valerio/go-pas16/pas16"
	"github.com/valerio/go-pas16/pas16/pit"
)

// Virtual time. One scheduler unit is 1/(SampleRate*pit.InputClock) s, so
// both the timer input clock and the output sample clock are whole numbers
// of units.
const (
	SampleRate  = 48000
	PITConst    = SampleRate     // units per timer input clock
	SampleConst = pit.InputClock // units per output sample
)

// SynthKind selects what renders the synthesizer ports.
type SynthKind string

const (
	SynthSilent SynthKind = "silent"
	SynthPSG    SynthKind = "psg"
)

// DefaultBase is the factory I/O base of the board.
const DefaultBase uint16 = 0x388

// Defaults
const (
	DefaultIRQ       = 10
	DefaultDMA       = 5
	DefaultRate      = 22050
	DefaultBlockSize = 4096
)

var (
	ErrIRQ   = errors.New("irq line not selectable on the board")
	ErrDMA   = errors.New("dma channel not selectable on the board")
	ErrRate  = errors.New("sample rate out of timer range")
	ErrBlock = errors.New("block size out of range")
	ErrSynth = errors.New("unknown synthesizer")
)

// Config describes the card setup and the stream the guest driver plays.
type Config struct {
	Base uint16
	IRQ  int
	DMA  int

	// Rate is the sample rate of the DMA stream in frames per second.
	Rate   int
	Wide   bool
	Stereo bool
	// BlockSize is the number of DMA bytes between PCM interrupts.
	BlockSize int

	BufferLen int
	MIDIInput bool
	// Compat enables the legacy DSP and MIDI UART addresses.
	Compat bool
	Synth  SynthKind
}

func (c *Config) setDefaults() {
	if c.Base == 0 {
		c.Base = DefaultBase
	}
	if c.IRQ == 0 {
		c.IRQ = DefaultIRQ
	}
	if c.DMA == 0 {
		c.DMA = DefaultDMA
	}
	if c.Rate == 0 {
		c.Rate = DefaultRate
	}
	if c.BlockSize == 0 {
		c.BlockSize = DefaultBlockSize
	}
	if c.BufferLen == 0 {
		c.BufferLen = pas16.DefaultBufferLen
	}
	if c.Synth == "" {
		c.Synth = SynthSilent
	}
}

func (c Config) validate() error {
	if _, ok := pas16.IRQSelect(c.IRQ); !ok {
		return fmt.Errorf("%w: %d", ErrIRQ, c.IRQ)
	}
	if _, ok := pas16.DMASelect(c.DMA); !ok {
		return fmt.Errorf("%w: %d", ErrDMA, c.DMA)
	}
	if c.Rate <= 0 {
		return fmt.Errorf("%w: %d", ErrRate, c.Rate)
	}
	if count := c.rateCount(); count < 1 || count > 0xFFFF {
		return fmt.Errorf("%w: %d", ErrRate, c.Rate)
	}
	if c.BlockSize < 1 || c.BlockSize > 0xFFFF {
		return fmt.Errorf("%w: %d", ErrBlock, c.BlockSize)
	}
	switch c.Synth {
	case SynthSilent, SynthPSG:
	default:
		return fmt.Errorf("%w: %q", ErrSynth, c.Synth)
	}
	return nil
}

func (c Config) channels() int {
	if c.Stereo {
		return 2
	}
	return 1
}

// rateCount is the sample rate timer reload. The timer ticks once per
// channel sample and each count lasts two input clocks.
func (c Config) rateCount() int {
	return pit.InputClock / (2 * c.Rate * c.channels())
}

// BytesPerFrame returns the DMA bytes consumed per stream frame.
func (c Config) BytesPerFrame() int {
	n := c.channels()
	if c.Wide {
		n *= 2
	}
	return n
}
