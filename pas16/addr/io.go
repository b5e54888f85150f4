package addr

// Canonical register offsets. A guest port maps to a canonical offset with
// (port - base) + Origin, so the numbering below is independent of where the
// board has been relocated to.
const Origin uint16 = 0x388

// BasePort is the fixed port the base address is programmed through.
// The written value is the base shifted right by two.
const BasePort uint16 = 0x9A01

// FM synthesizer registers (pass-through).
const (
	SynthStart uint16 = 0x388
	SynthEnd   uint16 = 0x38B
)

// Mixer and interrupt registers
const (
	// Audio mixer control register.
	Mixer uint16 = 0xB88
	// Interrupt status. Writes clear the bits that are set in the value.
	IRQStatus uint16 = 0xB89
	// Audio filter control.
	Filter uint16 = 0xB8A
	// Interrupt mask. Reads return the board ID in bits 5-7.
	IRQMask uint16 = 0xB8B
)

// PCM registers
const (
	PCMDataLow  uint16 = 0xF88
	PCMDataHigh uint16 = 0xF89
	PCMControl  uint16 = 0xF8A
)

// Sample rate timer sub-window, owned by the timer module.
const TimerStart uint16 = 0x1388

// MIDI UART registers
const (
	MIDIControl  uint16 = 0x1789
	MIDIData     uint16 = 0x178A
	MIDIControl2 uint16 = 0x178B
	MIDIStatus   uint16 = 0x1B88
)

// Board configuration registers
const (
	BoardRevision uint16 = 0x2789
	SCSIFlags     uint16 = 0x7F89

	SysConf1 uint16 = 0x8388
	SysConf2 uint16 = 0x8389
	SysConf3 uint16 = 0x838A
	SysConf4 uint16 = 0x838B

	WaitStates uint16 = 0xBF88

	// Reads back the 16-bit capability flags.
	Capability uint16 = 0xEF8B

	IOConf1 uint16 = 0xF388
	IOConf2 uint16 = 0xF389 // bits 0-2: DMA channel select
	IOConf3 uint16 = 0xF38A // bits 0-3: IRQ line select
	IOConf4 uint16 = 0xF38B

	CompatEnable uint16 = 0xF788 // bit 0: MIDI UART, bit 1: DSP
	CompatBase   uint16 = 0xF789 // bits 0-3: DSP addr bits 4-7, bits 4-7: MIDI UART addr bits 4-7

	// Legacy DSP IRQ (bits 3-5) and DMA (bits 6-7).
	CompatIRQDMA uint16 = 0xFB8A

	BoardModel uint16 = 0xFF88
	MasterMode uint16 = 0xFF8B
)

// Windows lists the canonical start of every 4-port window the board answers
// on. Each is bound at (base - Origin) + window.
var Windows = [...]uint16{
	0x0388, 0x0788, 0x0B88, 0x0F88,
	TimerStart,
	0x1788, 0x1B88, 0x2788, 0x7F88, 0x8388, 0xBF88,
	0xE388, 0xE788, 0xEB88, 0xEF88,
	0xF388, 0xF788, 0xFB88, 0xFF88,
}

// WindowSize is the number of consecutive ports in each window.
const WindowSize = 4

// Port returns the guest port a canonical offset is reachable on for the
// given base address.
func Port(base, offset uint16) uint16 {
	return base - Origin + offset
}

// Offset returns the canonical offset for a guest port at the given base.
func Offset(base, port uint16) uint16 {
	return port - base + Origin
}
