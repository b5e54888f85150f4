package pas16

// Interrupt status and mask bits
const (
	IntSampleRate byte = 0x04 // sample-rate timer tick
	IntPCM        byte = 0x08 // sample buffer counter terminal count
	IntMIDI       byte = 0x10 // MIDI UART activity
)

// raise latches source in the status register and re-evaluates the line.
func (d *Device) raise(source byte) {
	d.irqStat |= source
	d.evaluate(source)
}

// evaluate asserts the line while source is both pending and unmasked and
// withdraws it otherwise.
func (d *Device) evaluate(source byte) {
	line := d.irqLine()
	if line == 0 {
		return
	}
	if d.irqStat&source != 0 && d.irqMask&source != 0 {
		d.pic.Raise(line)
	} else {
		d.pic.Lower(line)
	}
}

// clearInterrupts acknowledges the bits set in value. The line is left as
// is; the next producer event re-evaluates it.
func (d *Device) clearInterrupts(value byte) {
	d.irqStat &^= value
}

func (d *Device) irqLine() uint16 {
	if d.irq == 0 {
		return 0
	}
	return 1 << d.irq
}
