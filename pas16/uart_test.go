package pas16

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-pas16/pas16/addr"
)

// newUARTRig returns a board with MIDI input on, MIDI interrupts unmasked
// on IRQ 5 and both UART interrupt enables set.
func newUARTRig(t *testing.T) *rig {
	t.Helper()
	r := newRig(t, Config{Base: testBase, MIDIInput: true})
	r.out(addr.IOConf3, 0x04) // irq 5
	r.out(addr.IRQMask, IntMIDI)
	r.out(addr.MIDIStatus, 0x00)
	r.out(addr.MIDIControl, uartTxReady|uartRxReady)
	return r
}

func TestUART_ResetState(t *testing.T) {
	r := newRig(t, Config{Base: testBase})
	assert.Equal(t, byte(0xFF), r.in(addr.MIDIStatus))
	assert.Zero(t, r.in(addr.IRQStatus)&IntMIDI)
	assert.False(t, r.d.uart.available())
}

func TestUART_Send(t *testing.T) {
	r := newUARTRig(t)
	r.out(addr.IRQStatus, 0xFF)

	r.out(addr.MIDIData, 0x90)
	r.out(addr.MIDIData, 0x3C)
	assert.Equal(t, []byte{0x90, 0x3C}, r.mpu.sent)
	assert.Equal(t, IntMIDI, r.in(addr.IRQStatus)&IntMIDI, "send re-arms tx ready")
	assert.Equal(t, uartTxReady, r.in(addr.MIDIStatus)&uartTxReady)
}

func TestUART_ReadyBitsNeedEnables(t *testing.T) {
	tests := []struct {
		name   string
		mask   byte
		ctrl   byte
		wantTx bool
	}{
		{"masked", 0x00, uartTxReady, false},
		{"tx disabled", IntMIDI, 0x00, false},
		{"tx enabled", IntMIDI, uartTxReady, true},
		{"one tx enable bit", IntMIDI, 0x08, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t, Config{Base: testBase})
			r.out(addr.IOConf3, 0x04)
			r.out(addr.IRQMask, tt.mask)
			r.out(addr.MIDIStatus, 0x00)
			r.out(addr.MIDIControl, tt.ctrl)

			assert.Equal(t, tt.wantTx, r.d.uart.tx)
			assert.Equal(t, tt.wantTx, r.in(addr.IRQStatus)&IntMIDI != 0)
			assert.Equal(t, tt.wantTx, r.pic.Asserted(5))
		})
	}
}

func TestUART_Receive(t *testing.T) {
	r := newUARTRig(t)

	assert.True(t, r.d.ReceiveMIDI(0xF8))
	assert.True(t, r.d.ReceiveMIDI(0x90))
	assert.Equal(t, uartRxReady, r.in(addr.MIDIStatus)&uartRxReady)
	assert.True(t, r.pic.Asserted(5))

	assert.Equal(t, byte(0xF8), r.in(addr.MIDIData))
	assert.True(t, r.d.uart.rx, "more data pending")

	assert.Equal(t, byte(0x90), r.in(addr.MIDIData))
	assert.False(t, r.d.uart.rx)
	assert.Zero(t, r.in(addr.MIDIStatus)&uartRxReady)

	// an empty fifo returns the last byte again
	assert.Equal(t, byte(0x90), r.in(addr.MIDIData))
}

func TestUART_ReceiveDisabled(t *testing.T) {
	r := newRig(t, Config{Base: testBase})
	assert.False(t, r.d.ReceiveMIDI(0x90))
	assert.False(t, r.d.uart.available())
}

func TestUART_ControlResetClearsFIFO(t *testing.T) {
	for _, ctrl := range []byte{0x60, 0x78, 0x7C, 0xFF, 0xE0} {
		r := newUARTRig(t)
		for i := 0; i < 5; i++ {
			r.d.ReceiveMIDI(byte(i))
		}
		r.in(addr.MIDIData)
		require.True(t, r.d.uart.rx)

		r.out(addr.MIDIControl2, ctrl)
		assert.Equal(t, r.d.uart.readPos, r.d.uart.writePos, "ctrl 0x%02X", ctrl)
		assert.False(t, r.d.uart.rx, "ctrl 0x%02X", ctrl)
		assert.False(t, r.d.uart.available(), "ctrl 0x%02X", ctrl)
	}
}

func TestUART_ControlWithoutResetKeepsFIFO(t *testing.T) {
	r := newUARTRig(t)
	r.d.ReceiveMIDI(0x42)

	r.out(addr.MIDIControl, 0x00)
	assert.False(t, r.d.uart.rx, "rx interrupt disabled")
	assert.True(t, r.d.uart.available())

	r.out(addr.MIDIControl, uartRxReady)
	assert.True(t, r.d.uart.rx)
}

func TestUART_FIFOWraps(t *testing.T) {
	r := newUARTRig(t)

	for i := 0; i < fifoSize; i++ {
		r.d.ReceiveMIDI(byte(i))
	}
	assert.Equal(t, r.d.uart.readPos, r.d.uart.writePos)
	assert.Equal(t, fifoSize, r.d.uart.pending())

	// overflow drops the oldest byte
	r.d.ReceiveMIDI(0x10)
	assert.Equal(t, r.d.uart.readPos, r.d.uart.writePos)

	var got []byte
	for r.d.uart.available() {
		got = append(got, r.in(addr.MIDIData))
	}
	want := make([]byte, 0, fifoSize)
	for i := 1; i <= fifoSize; i++ {
		want = append(want, byte(i))
	}
	assert.Equal(t, want, got)
}

func TestUART_CursorsStayInRange(t *testing.T) {
	r := newUARTRig(t)
	for i := 0; i < 100; i++ {
		r.d.ReceiveMIDI(byte(i))
		if i%3 == 0 {
			r.in(addr.MIDIData)
		}
		assert.Less(t, r.d.uart.readPos, uint8(fifoSize))
		assert.Less(t, r.d.uart.writePos, uint8(fifoSize))
	}
}

func TestUART_StatusWrite(t *testing.T) {
	r := newRig(t, Config{Base: testBase})
	r.out(addr.MIDIStatus, 0x40)
	assert.Equal(t, byte(0x40), r.in(addr.MIDIStatus))
}
