package pas16

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-pas16/pas16/addr"
	"github.com/valerio/go-pas16/pas16/bit"
)

// Constant reads
const (
	boardID       byte = 0x01 // low bit of the interrupt mask read
	boardIDMask   byte = 0xE0
	boardRevision byte = 0x00
	capabilities  byte = 0x0C // 16-bit sampling, stereo
	boardModel    byte = 0x04
	masterMode    byte = 0x31 // AT bus, XT/AT timing
	scsiReadMask  byte = 0x01
)

// sysConf1Reset in system config 1 resets the board on its rising edge.
const sysConf1Reset byte = 0x80

// Compatibility enable bits
const (
	compatMPU byte = 0x01
	compatDSP byte = 0x02
)

var (
	dmaTable    = [8]int{4, 1, 2, 3, 0, 5, 6, 7}
	irqTable    = [16]int{0, 2, 3, 4, 5, 6, 7, 10, 11, 12, 14, 15, 0, 0, 0, 0}
	dspIRQTable = [8]int{0, 2, 3, 5, 7, 10, 11, 12}
	dspDMATable = [4]int{0, 1, 2, 3}
)

type register struct {
	read  func(d *Device, offset uint16) byte
	write func(d *Device, offset uint16, value byte)
}

// registers maps canonical offsets to their handlers. Offsets missing from
// the table read as floating and ignore writes.
var registers = map[uint16]register{
	0x388: {readSynth, writeSynth},
	0x389: {readSynth, writeSynth},
	0x38A: {readSynth, writeSynth},
	0x38B: {readSynth, writeSynth},

	addr.Mixer: {
		read:  func(d *Device, _ uint16) byte { return d.mixer },
		write: func(d *Device, _ uint16, v byte) { d.mixer = v },
	},
	addr.IRQStatus: {
		read:  func(d *Device, _ uint16) byte { return d.irqStat },
		write: func(d *Device, _ uint16, v byte) { d.clearInterrupts(v) },
	},
	addr.Filter: {
		read: func(d *Device, _ uint16) byte { return d.filter },
		write: func(d *Device, _ uint16, v byte) {
			d.update()
			d.filter = v
		},
	},
	addr.IRQMask: {
		read:  func(d *Device, _ uint16) byte { return d.irqMask&^boardIDMask | boardID },
		write: func(d *Device, _ uint16, v byte) { d.irqMask = v },
	},

	addr.PCMDataLow: {
		write: func(d *Device, _ uint16, v byte) {
			d.update()
			d.pcmData = bit.SetLow(d.pcmData, v)
		},
	},
	addr.PCMDataHigh: {
		write: func(d *Device, _ uint16, v byte) {
			d.update()
			d.pcmData = bit.SetHigh(d.pcmData, v)
		},
	},
	addr.PCMControl: {
		read:  func(d *Device, _ uint16) byte { return d.pcmCtrl },
		write: func(d *Device, _ uint16, v byte) { d.writePCMControl(v) },
	},

	addr.MIDIControl: {
		read:  func(*Device, uint16) byte { return 0 },
		write: func(d *Device, _ uint16, v byte) { d.writeUARTControl(v) },
	},
	addr.MIDIData: {
		read:  func(d *Device, _ uint16) byte { return d.readUARTData() },
		write: func(d *Device, _ uint16, v byte) { d.writeUARTData(v) },
	},
	addr.MIDIControl2: {
		write: func(d *Device, _ uint16, v byte) { d.writeUARTControl(v) },
	},
	addr.MIDIStatus: {
		read:  func(d *Device, _ uint16) byte { return d.uartStatus() },
		write: func(d *Device, _ uint16, v byte) { d.uart.status = v },
	},

	addr.BoardRevision: {read: constant(boardRevision)},
	addr.SCSIFlags: {
		read:  func(d *Device, _ uint16) byte { return d.scsi &^ scsiReadMask },
		write: func(d *Device, _ uint16, v byte) { d.scsi = v },
	},

	addr.SysConf1: {readSysConf, writeSysConf},
	addr.SysConf2: {readSysConf, writeSysConf},
	addr.SysConf3: {readSysConf, writeSysConf},
	addr.SysConf4: {readSysConf, writeSysConf},

	addr.WaitStates: {
		read:  func(d *Device, _ uint16) byte { return d.waitStates },
		write: func(d *Device, _ uint16, v byte) { d.waitStates = v },
	},
	addr.Capability: {read: constant(capabilities)},

	addr.IOConf1: {readIOConf, writeIOConf},
	addr.IOConf2: {readIOConf, writeIOConf},
	addr.IOConf3: {readIOConf, writeIOConf},
	addr.IOConf4: {readIOConf, writeIOConf},

	addr.CompatEnable: {
		read:  func(d *Device, _ uint16) byte { return d.compat },
		write: func(d *Device, _ uint16, v byte) { d.writeCompat(v) },
	},
	addr.CompatBase: {
		read:  func(d *Device, _ uint16) byte { return d.compatBase },
		write: func(d *Device, _ uint16, v byte) { d.writeCompatBase(v) },
	},
	addr.CompatIRQDMA: {
		read:  func(d *Device, _ uint16) byte { return d.compatIRQDMA },
		write: func(d *Device, _ uint16, v byte) { d.writeCompatIRQDMA(v) },
	},

	addr.BoardModel: {read: constant(boardModel)},
	addr.MasterMode: {read: constant(masterMode)},
}

func constant(v byte) func(*Device, uint16) byte {
	return func(*Device, uint16) byte { return v }
}

func readSynth(d *Device, offset uint16) byte {
	return d.synth.Read(offset)
}

func writeSynth(d *Device, offset uint16, value byte) {
	d.synth.Write(offset, value)
}

func readSysConf(d *Device, offset uint16) byte {
	return d.sysConf[offset-addr.SysConf1]
}

func writeSysConf(d *Device, offset uint16, value byte) {
	d.setSysConf(int(offset-addr.SysConf1), value)
}

func readIOConf(d *Device, offset uint16) byte {
	return d.ioConf[offset-addr.IOConf1]
}

func writeIOConf(d *Device, offset uint16, value byte) {
	d.setIOConf(int(offset-addr.IOConf1), value)
}

func (d *Device) setSysConf(i int, value byte) {
	old := d.sysConf[i]
	d.sysConf[i] = value
	if i == 0 && bit.Rising(sysConf1Reset, old, value) {
		slog.Debug("pas16 board reset")
		d.Reset()
	}
}

func (d *Device) setIOConf(i int, value byte) {
	d.ioConf[i] = value
	switch i {
	case 1:
		d.dma = dmaTable[value&7]
		slog.Debug("pas16 dma channel", "dma", d.dma)
	case 2:
		d.irq = irqTable[value&15]
		slog.Debug("pas16 irq line", "irq", d.irq)
	}
}

func (d *Device) writeCompat(value byte) {
	d.compat = value
	d.dspAddr = 0
	if value&compatDSP != 0 {
		d.dspAddr = dspAddress(d.compatBase)
	}
	d.mpuAddr = 0
	if value&compatMPU != 0 {
		d.mpuAddr = mpuAddress(d.compatBase)
	}
	d.dsp.SetAddress(d.dspAddr)
	d.mpu.SetAddress(d.mpuAddr)
	slog.Debug("pas16 compatibility", "dsp", fmt.Sprintf("0x%03X", d.dspAddr), "mpu", fmt.Sprintf("0x%03X", d.mpuAddr))
}

func (d *Device) writeCompatBase(value byte) {
	d.compatBase = value
	if d.compat&compatDSP != 0 {
		d.dspAddr = dspAddress(value)
		d.dsp.SetAddress(d.dspAddr)
	}
	if d.compat&compatMPU != 0 {
		d.mpuAddr = mpuAddress(value)
		d.mpu.SetAddress(d.mpuAddr)
	}
}

func (d *Device) writeCompatIRQDMA(value byte) {
	d.compatIRQDMA = value
	irq := dspIRQTable[bit.ExtractBits(value, 5, 3)]
	dma := dspDMATable[bit.ExtractBits(value, 7, 6)]
	d.dsp.SetIRQ(irq)
	d.dsp.SetDMA8(dma)
	slog.Debug("pas16 dsp resources", "irq", irq, "dma", dma)
}

func dspAddress(compatBase byte) uint16 {
	return uint16(compatBase&0x0F)<<4 | 0x200
}

func mpuAddress(compatBase byte) uint16 {
	return uint16(compatBase&0xF0) | 0x300
}

// IRQSelect returns the I/O config 3 value that routes the board to line.
func IRQSelect(line int) (byte, bool) {
	if line == 0 {
		return 0, false
	}
	for i, v := range irqTable {
		if v == line {
			return byte(i), true
		}
	}
	return 0, false
}

// DMASelect returns the I/O config 2 value that selects DMA channel ch.
func DMASelect(ch int) (byte, bool) {
	for i, v := range dmaTable {
		if v == ch {
			return byte(i), true
		}
	}
	return 0, false
}

// CompatIRQDMASelect returns the legacy DSP IRQ/DMA byte for irq and an
// 8-bit channel.
func CompatIRQDMASelect(irq, ch int) (byte, bool) {
	var v byte
	found := false
	for i, line := range dspIRQTable {
		if line == irq && irq != 0 {
			v = byte(i) << 3
			found = true
		}
	}
	if !found || ch < 0 || ch >= len(dspDMATable) {
		return 0, false
	}
	return v | byte(dspDMATable[ch])<<6, true
}
