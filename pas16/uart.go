package pas16

import (
	"log/slog"

	"github.com/valerio/go-pas16/pas16/bit"
)

const fifoSize = 16

// MIDI UART control and status bits
const (
	uartTxReady byte = 0x18
	uartRxReady byte = 0x04
	uartReset   byte = 0x60
)

type fifoSlot struct {
	value byte
	valid bool
}

type uart struct {
	ctrl   byte
	status byte
	data   byte
	tx     bool
	rx     bool

	fifo     [fifoSize]fifoSlot
	readPos  uint8
	writePos uint8
}

func (u *uart) available() bool {
	return u.fifo[u.readPos].valid
}

func (u *uart) pending() int {
	n := 0
	for _, s := range u.fifo {
		if s.valid {
			n++
		}
	}
	return n
}

// push stores b, dropping the oldest unread byte when the FIFO is full.
func (u *uart) push(b byte) (dropped bool) {
	slot := &u.fifo[u.writePos]
	if slot.valid {
		u.readPos = (u.readPos + 1) % fifoSize
		dropped = true
	}
	*slot = fifoSlot{value: b, valid: true}
	u.writePos = (u.writePos + 1) % fifoSize
	return dropped
}

func (u *uart) pop() (byte, bool) {
	slot := &u.fifo[u.readPos]
	if !slot.valid {
		return 0, false
	}
	b := slot.value
	slot.valid = false
	u.readPos = (u.readPos + 1) % fifoSize
	return b, true
}

func (u *uart) clear() {
	u.fifo = [fifoSize]fifoSlot{}
	u.readPos = 0
	u.writePos = 0
}

// ReceiveMIDI feeds a byte from the host MIDI input into the receive FIFO.
// It returns false when MIDI input is disabled and the byte was dropped.
func (d *Device) ReceiveMIDI(b byte) bool {
	if !d.cfg.MIDIInput {
		return false
	}
	if d.uart.push(b) {
		slog.Debug("pas16 midi fifo overrun")
	}
	d.setRxReady(true)
	return true
}

// uartStatus is the stored status byte with the live ready bits merged in.
func (d *Device) uartStatus() byte {
	s := d.uart.status
	if d.uart.tx {
		s |= uartTxReady
	}
	if d.uart.rx {
		s |= uartRxReady
	}
	return s
}

// setTxReady and setRxReady only arm their bit when MIDI interrupts are
// unmasked and the matching control enables are set.
func (d *Device) setTxReady(ready bool) {
	d.uart.tx = ready && d.irqMask&IntMIDI != 0 && d.uart.ctrl&uartTxReady != 0
	d.updateUARTInterrupt()
}

func (d *Device) setRxReady(ready bool) {
	d.uart.rx = ready && d.irqMask&IntMIDI != 0 && d.uart.ctrl&uartRxReady != 0
	d.updateUARTInterrupt()
}

func (d *Device) updateUARTInterrupt() {
	if d.uart.tx || d.uart.rx {
		d.irqStat |= IntMIDI
	} else {
		d.irqStat &^= IntMIDI
	}
	d.evaluate(IntMIDI)
}

func (d *Device) writeUARTControl(value byte) {
	d.uart.ctrl = value
	d.setTxReady(true)
	if bit.All(uartReset, value) {
		d.uart.clear()
		d.setRxReady(false)
		return
	}
	d.setRxReady(d.uart.available())
}

func (d *Device) writeUARTData(value byte) {
	d.mpu.Send(value)
	d.setTxReady(true)
}

func (d *Device) readUARTData() byte {
	if b, ok := d.uart.pop(); ok {
		d.uart.data = b
	}
	d.setRxReady(d.uart.available())
	return d.uart.data
}

func (d *Device) resetUART() {
	d.uart.status = 0xFF
	d.uart.ctrl = 0
	d.uart.tx = false
	d.uart.rx = false
	d.uart.clear()
	d.updateUARTInterrupt()
}
