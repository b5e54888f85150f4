package pas16

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/valerio/go-pas16/pas16/addr"
)

func TestRegisters_SynthPassThrough(t *testing.T) {
	r := newRig(t, Config{Base: testBase})

	r.out(0x388, 0xBD)
	r.out(0x389, 0x20)
	assert.Equal(t, []synthWrite{{0x388, 0xBD}, {0x389, 0x20}}, r.synth.writes)

	r.synth.regs[0x388] = 0x06
	assert.Equal(t, byte(0x06), r.in(0x388))
}

func TestRegisters_SynthPassThroughRelocated(t *testing.T) {
	r := newRig(t, Config{Base: 0x384})

	// canonical offsets reach the synth, not guest ports
	r.bus.Write(0x384, 0x01)
	r.bus.Write(0x385, 0x02)
	assert.Equal(t, []synthWrite{{0x388, 0x01}, {0x389, 0x02}}, r.synth.writes)
}

func TestRegisters_Constants(t *testing.T) {
	r := newRig(t, Config{Base: testBase})

	tests := []struct {
		name   string
		offset uint16
		want   byte
	}{
		{"board revision", addr.BoardRevision, 0x00},
		{"capabilities", addr.Capability, 0x0C},
		{"board model", addr.BoardModel, 0x04},
		{"master mode", addr.MasterMode, 0x31},
		{"midi control reads zero", addr.MIDIControl, 0x00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r.out(tt.offset, 0xAA)
			assert.Equal(t, tt.want, r.in(tt.offset))
		})
	}
}

func TestRegisters_ReadWrite(t *testing.T) {
	r := newRig(t, Config{Base: testBase})

	for _, offset := range []uint16{
		addr.Mixer, addr.Filter, addr.PCMControl,
		addr.SysConf2, addr.SysConf3, addr.SysConf4,
		addr.WaitStates,
		addr.IOConf1, addr.IOConf2, addr.IOConf3, addr.IOConf4,
		addr.CompatEnable, addr.CompatBase, addr.CompatIRQDMA,
	} {
		r.out(offset, 0x5A)
		assert.Equal(t, byte(0x5A), r.in(offset), "offset 0x%04X", offset)
	}
}

func TestRegisters_InterruptStatusClear(t *testing.T) {
	r := newRig(t, Config{Base: testBase})

	for status := 0; status < 256; status += 7 {
		for clear := 0; clear < 256; clear += 13 {
			r.d.irqStat = byte(status)
			r.out(addr.IRQStatus, byte(clear))
			assert.Equal(t, byte(status)&^byte(clear), r.in(addr.IRQStatus))
		}
	}
}

func TestRegisters_InterruptMaskRead(t *testing.T) {
	r := newRig(t, Config{Base: testBase})

	r.out(addr.IRQMask, 0xFF)
	assert.Equal(t, byte(0x1F), r.in(addr.IRQMask))
	assert.Equal(t, byte(0xFF), r.d.irqMask)

	r.out(addr.IRQMask, 0x00)
	assert.Equal(t, byte(0x01), r.in(addr.IRQMask))
}

func TestRegisters_SCSIFlags(t *testing.T) {
	r := newRig(t, Config{Base: testBase})
	r.out(addr.SCSIFlags, 0xFF)
	assert.Equal(t, byte(0xFE), r.in(addr.SCSIFlags))
}

func TestRegisters_IOConfTables(t *testing.T) {
	r := newRig(t, Config{Base: testBase})

	dmas := []int{4, 1, 2, 3, 0, 5, 6, 7}
	for v := 0; v < 256; v++ {
		r.out(addr.IOConf2, byte(v))
		assert.Equal(t, dmas[v&7], r.d.DMA(), "io conf 2 = 0x%02X", v)
	}

	irqs := []int{0, 2, 3, 4, 5, 6, 7, 10, 11, 12, 14, 15, 0, 0, 0, 0}
	for v := 0; v < 256; v++ {
		r.out(addr.IOConf3, byte(v))
		assert.Equal(t, irqs[v&15], r.d.IRQ(), "io conf 3 = 0x%02X", v)
	}
}

func TestRegisters_Compatibility(t *testing.T) {
	tests := []struct {
		name    string
		base    byte
		enable  byte
		wantDSP uint16
		wantMPU uint16
	}{
		{"both disabled", 0x32, 0x00, 0, 0},
		{"mpu only", 0x32, 0x01, 0, 0x330},
		{"dsp only", 0x32, 0x02, 0x220, 0},
		{"both", 0x04, 0x03, 0x240, 0x300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t, Config{Base: testBase})
			r.out(addr.CompatBase, tt.base)
			r.out(addr.CompatEnable, tt.enable)
			assert.Equal(t, tt.wantDSP, r.dsp.address)
			assert.Equal(t, tt.wantMPU, r.mpu.address)
		})
	}
}

func TestRegisters_CompatibilityBaseOnlyMovesEnabled(t *testing.T) {
	r := newRig(t, Config{Base: testBase})
	r.out(addr.CompatBase, 0x32)
	r.out(addr.CompatEnable, 0x02)
	r.mpu.address = 0xDEAD

	r.out(addr.CompatBase, 0x24)
	assert.Equal(t, uint16(0x240), r.dsp.address)
	assert.Equal(t, uint16(0xDEAD), r.mpu.address, "disabled uart is not touched")
}

func TestRegisters_CompatibilityIRQDMA(t *testing.T) {
	r := newRig(t, Config{Base: testBase})

	irqs := []int{0, 2, 3, 5, 7, 10, 11, 12}
	for v := 0; v < 256; v++ {
		r.out(addr.CompatIRQDMA, byte(v))
		assert.Equal(t, irqs[(v>>3)&7], r.dsp.irq)
		assert.Equal(t, (v>>6)&3, r.dsp.dma)
	}
}

func TestRegisters_SysConf1Reset(t *testing.T) {
	r := newRig(t, Config{Base: testBase})
	r.out(addr.IOConf3, 0x01) // irq 2
	r.out(addr.IRQMask, IntMIDI)
	r.out(addr.MIDIStatus, 0x00)
	r.out(addr.MIDIControl, 0x18)
	assert.Equal(t, IntMIDI, r.in(addr.IRQStatus)&IntMIDI)
	assert.True(t, r.pic.Asserted(2))

	r.out(addr.SysConf1, 0x80)
	assert.Equal(t, byte(0xFF), r.in(addr.MIDIStatus))
	assert.Zero(t, r.in(addr.IRQStatus)&IntMIDI)
	assert.False(t, r.pic.Asserted(2))

	// no reset while the bit stays set
	r.out(addr.MIDIStatus, 0x00)
	r.out(addr.SysConf1, 0x81)
	assert.Equal(t, byte(0x00), r.in(addr.MIDIStatus))
	assert.Equal(t, byte(0x81), r.in(addr.SysConf1))
}

func TestRegisters_FilterWriteFlushesFirst(t *testing.T) {
	r := newRig(t, Config{Base: testBase, BufferLen: 8})
	r.d.pcmLeft, r.d.pcmRight = 0x1000, 0x2000

	r.sound.pos = 3
	r.out(addr.Filter, filterMute)
	r.sound.pos = 6
	r.d.update()

	assert.Equal(t, []int16{0x1000, 0x1000, 0x1000, 0, 0, 0}, r.d.pcmBuf[0][:6])
	assert.Equal(t, []int16{0x2000, 0x2000, 0x2000, 0, 0, 0}, r.d.pcmBuf[1][:6])
}

func TestRegisters_PCMDataWriteFlushesFirst(t *testing.T) {
	r := newRig(t, Config{Base: testBase, BufferLen: 8})
	r.d.pcmLeft = 0x0100

	r.sound.pos = 2
	r.out(addr.PCMDataLow, 0x34)
	r.out(addr.PCMDataHigh, 0x12)
	assert.Equal(t, 2, r.d.pos)
	assert.Equal(t, uint16(0x1234), r.d.pcmData)
	assert.Equal(t, []int16{0x0100, 0x0100}, r.d.pcmBuf[0][:2])
}

func TestSelectEncoders(t *testing.T) {
	r := newRig(t, Config{Base: testBase})

	for _, line := range []int{2, 3, 4, 5, 6, 7, 10, 11, 12, 14, 15} {
		v, ok := IRQSelect(line)
		assert.True(t, ok, "irq %d", line)
		r.out(addr.IOConf3, v)
		assert.Equal(t, line, r.d.IRQ())
	}
	for _, line := range []int{0, 1, 8, 9, 13, 16} {
		_, ok := IRQSelect(line)
		assert.False(t, ok, "irq %d", line)
	}

	for ch := 0; ch < 8; ch++ {
		v, ok := DMASelect(ch)
		assert.True(t, ok)
		r.out(addr.IOConf2, v)
		assert.Equal(t, ch, r.d.DMA())
	}
	_, ok := DMASelect(8)
	assert.False(t, ok)

	v, ok := CompatIRQDMASelect(5, 1)
	assert.True(t, ok)
	r.out(addr.CompatIRQDMA, v)
	assert.Equal(t, 5, r.dsp.irq)
	assert.Equal(t, 1, r.dsp.dma)
	_, ok = CompatIRQDMASelect(4, 1)
	assert.False(t, ok)
	_, ok = CompatIRQDMASelect(5, 4)
	assert.False(t, ok)
}
