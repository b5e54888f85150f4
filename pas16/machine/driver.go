package machine

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-pas16/pas16"
	"github.com/valerio/go-pas16/pas16/addr"
	"github.com/valerio/go-pas16/pas16/pit"
)

// Register values the guest driver programs.
const (
	sysConf2Wide byte = 0x04
	filterOpen   byte = 0xC0 // both timer gates, output unmuted

	pcmEnable byte = 0x40
	pcmMono   byte = 0x20

	midiRxEnable byte = 0x04
	midiRxReady  byte = 0x04

	compatBoth byte = 0x03
	compatBase byte = 0x32 // DSP 0x220, MPU 0x330

	// 8254 control words: counter 0 square wave, counter 1 rate generator,
	// both loaded low byte then high byte.
	rateControl  byte = 0x36
	blockControl byte = 0x74
)

// Legacy DSP resources
const (
	compatDSPIRQ = 5
	compatDSPDMA = 1
)

// writeReg writes a canonical register at the programmed base.
func (m *Machine) writeReg(offset uint16, value byte) {
	m.Bus.Write(addr.Port(m.cfg.Base, offset), value)
}

func (m *Machine) readReg(offset uint16) byte {
	return m.Bus.Read(addr.Port(m.cfg.Base, offset))
}

// program sets the card up the way a DOS driver would: relocate, route
// IRQ and DMA, pick the sample format, then start both timer counters.
func (m *Machine) program() error {
	c := m.cfg
	irq, ok := pas16.IRQSelect(c.IRQ)
	if !ok {
		return fmt.Errorf("machine: %w: %d", ErrIRQ, c.IRQ)
	}
	dmaSel, ok := pas16.DMASelect(c.DMA)
	if !ok {
		return fmt.Errorf("machine: %w: %d", ErrDMA, c.DMA)
	}

	m.Bus.Write(addr.BasePort, byte(c.Base>>2))
	m.writeReg(addr.IOConf3, irq)
	m.writeReg(addr.IOConf2, dmaSel)

	if c.Compat {
		legacy, _ := pas16.CompatIRQDMASelect(compatDSPIRQ, compatDSPDMA)
		m.writeReg(addr.CompatBase, compatBase)
		m.writeReg(addr.CompatIRQDMA, legacy)
		m.writeReg(addr.CompatEnable, compatBoth)
	}

	var sc2 byte
	if c.Wide {
		sc2 |= sysConf2Wide
	}
	m.writeReg(addr.SysConf2, sc2)
	m.writeReg(addr.Filter, filterOpen)

	mask := pas16.IntPCM
	if c.MIDIInput {
		mask |= pas16.IntMIDI
	}
	m.writeReg(addr.IRQMask, mask)
	if c.MIDIInput {
		m.writeReg(addr.MIDIStatus, 0x00)
		m.writeReg(addr.MIDIControl2, midiRxEnable)
	}

	pcm := pcmEnable
	if !c.Stereo {
		pcm |= pcmMono
	}
	m.writeReg(addr.PCMControl, pcm)

	m.loadCounter(0, rateControl, uint16(c.rateCount()))
	m.loadCounter(1, blockControl, uint16(c.BlockSize))

	slog.Info("card programmed",
		"base", fmt.Sprintf("0x%03X", c.Base), "irq", c.IRQ, "dma", c.DMA,
		"rate", c.Rate, "count", c.rateCount(), "block", c.BlockSize)
	return nil
}

func (m *Machine) loadCounter(ch int, control byte, count uint16) {
	m.writeReg(addr.TimerStart+3, control)
	m.writeReg(addr.TimerStart+uint16(ch), byte(count))
	m.writeReg(addr.TimerStart+uint16(ch), byte(count>>8))
}

// service is the guest interrupt handler: acknowledge what the board
// reports, echo received MIDI back out, then end the interrupt. The
// controller is edge triggered, so a rising edge since the last call
// counts even if the board has already dropped the line again.
func (m *Machine) service() {
	line := m.Card.IRQ()
	if line == 0 {
		return
	}
	edges := m.PIC.Edges(line)
	pending := edges != m.edges
	m.edges = edges
	if !pending && !m.PIC.Asserted(line) {
		return
	}
	m.stats.Interrupts++

	status := m.readReg(addr.IRQStatus)
	if status&pas16.IntPCM != 0 {
		m.stats.Blocks++
	}
	if status&pas16.IntMIDI != 0 {
		m.echoMIDI()
	}
	m.writeReg(addr.IRQStatus, status)
	m.PIC.Lower(1 << line)
}

func (m *Machine) echoMIDI() {
	for i := 0; i < 16 && m.readReg(addr.MIDIStatus)&midiRxReady != 0; i++ {
		b := m.readReg(addr.MIDIData)
		m.writeReg(addr.MIDIData, b)
		m.stats.MIDIEchoed++
	}
}

// TimerInput returns the frequency the sample rate timer was programmed
// for, in ticks per second.
func (m *Machine) TimerInput() float64 {
	return float64(pit.InputClock) / float64(2*m.cfg.rateCount())
}
