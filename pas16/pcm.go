package pas16

import "github.com/valerio/go-pas16/pas16/bit"

// PCM control bits
const (
	pcmMono   byte = 0x20
	pcmEnable byte = 0x40
)

// System config 2 bits
const (
	sysConf2Wide      byte = 0x04 // 16-bit samples
	sysConf2InvertMSB byte = 0x10
)

// filterMute in the filter register silences the PCM output.
const filterMute byte = 0x20

// prescalerOut gates the sample buffer counter with the output of the
// sample-rate counter. A counter with no count loaded stays halted.
func (d *Device) prescalerOut(out, _ bool) {
	buf := &d.timer.Counters[1]
	buf.Enable = out && buf.Loaded
}

// pcmTick runs on every sample-rate counter expiry. It fetches the next
// sample over DMA into the output latches and counts the sample buffer
// counter down.
func (d *Device) pcmTick() {
	d.update()

	rate := &d.timer.Counters[0]
	if rate.Periodic() {
		d.timer.AdvanceTick(d.timer.TickPeriod())
	}
	d.raise(IntSampleRate)

	buf := &d.timer.Counters[1]
	if !buf.Enable {
		return
	}

	wide := d.sysConf[1]&sysConf2Wide != 0
	if bit.Any(pcmEnable, d.pcmCtrl) {
		d.latch(d.readSample(wide))
	}

	if wide {
		buf.Count -= 2
	} else {
		buf.Count--
	}
	if buf.Count > 0 {
		return
	}
	if buf.Periodic() {
		buf.Count = int(buf.Period())
	} else {
		buf.Enable = false
		buf.Loaded = false
		buf.Count = 0
	}
	d.raise(IntPCM)
}

// readSample pulls one sample from the DMA channel as a signed 16-bit
// value. Wide samples arrive high byte first; 8-bit samples are unsigned.
func (d *Device) readSample(wide bool) uint16 {
	var s uint16
	if wide {
		hi := d.dmac.ReadChannel(d.dma)
		lo := d.dmac.ReadChannel(d.dma)
		s = bit.Combine(hi, lo)
	} else {
		s = uint16(d.dmac.ReadChannel(d.dma)^0x80) << 8
	}
	if d.sysConf[1]&sysConf2InvertMSB != 0 {
		s ^= 0x8000
	}
	return s
}

func (d *Device) latch(s uint16) {
	if d.pcmCtrl&pcmMono != 0 {
		d.pcmLeft = s
		d.pcmRight = s
		return
	}
	if d.stereoRight {
		d.pcmRight = s
	} else {
		d.pcmLeft = s
	}
	d.stereoRight = !d.stereoRight
}

func (d *Device) writePCMControl(value byte) {
	if bit.Rising(pcmEnable, d.pcmCtrl, value) {
		d.stereoRight = false
	}
	d.pcmCtrl = value
}
