package pas16

import "github.com/valerio/go-pas16/pas16/iobus"

// Synth is the FM synthesizer chip behind the first register window.
type Synth interface {
	// Read and Write take the canonical offset (0x388-0x38B).
	Read(offset uint16) byte
	Write(offset uint16, value byte)
	// Update renders the current period and returns interleaved stereo
	// samples.
	Update() []int32
	ResetBuffer()
}

// DSP is the legacy sample-playback chip the board can expose at its
// classic address.
type DSP interface {
	// SetAddress moves the chip to a new base, 0 makes it unreachable.
	SetAddress(address uint16)
	SetIRQ(irq int)
	SetDMA8(channel int)
	// Update renders pending output up to the current time.
	Update()
	// Buffer returns the interleaved stereo samples rendered so far.
	Buffer() []int32
	// Filter runs one sample through the output filter of channel 0 or 1.
	Filter(channel int, sample float64) float64
	// ResetPos rewinds the output position after a buffer pull.
	ResetPos()
}

// MIDIPort is the MIDI UART chip the board can expose at its classic
// address.
type MIDIPort interface {
	SetAddress(address uint16)
	Send(b byte)
}

// InterruptLine is the system interrupt controller, addressed by line mask.
type InterruptLine interface {
	Raise(mask uint16)
	Lower(mask uint16)
}

// DMAChannel reads single bytes from a DMA channel.
type DMAChannel interface {
	ReadChannel(channel int) byte
}

// SoundClock reports how many output samples of the current buffer period
// have elapsed.
type SoundClock interface {
	SoundPos() int
}

// PortBus binds and unbinds I/O port handlers.
type PortBus interface {
	SetHandler(start uint16, size int, h iobus.Handler)
	RemoveHandler(start uint16, size int, h iobus.Handler)
}

var _ PortBus = (*iobus.Bus)(nil)
