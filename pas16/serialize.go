package pas16

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/valerio/go-pas16/pas16/pit"
)

const (
	serializeVersion = 1
	// SerializeSize is the number of bytes Serialize writes.
	// version(1) + base(2) + bound(1) + irq(1) + dma(1) +
	// mixer/filter/scsi(3) + sysConf(4) + ioConf(4) + waitStates(1) +
	// compat/compatBase/compatIRQDMA(3) + irqStat/irqMask(2) +
	// pcmCtrl(1) + pcmData(2) + pcmLeft(2) + pcmRight(2) + stereoRight(1) +
	// uart ctrl/status/data/tx/rx/readPos/writePos(7) + fifo(32) +
	// pos(4) + timerRunning(1) + counters(3*9)
	SerializeSize = 102

	counterSerializeSize = 9 // mode(1) + reload(2) + count(4) + flags(1) + out(1)
)

// Counter flag bits
const (
	counterEnabled byte = 0x01
	counterLoaded  byte = 0x02
)

var (
	ErrStateSize    = errors.New("state buffer too small")
	ErrStateVersion = errors.New("unsupported state version")
)

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Serialize writes the board state to buf, which must hold at least
// SerializeSize bytes. Collaborator chips serialize themselves.
func (d *Device) Serialize(buf []byte) error {
	if len(buf) < SerializeSize {
		return fmt.Errorf("pas16: serialize: %w", ErrStateSize)
	}

	buf[0] = serializeVersion
	binary.LittleEndian.PutUint16(buf[1:], d.base)
	buf[3] = boolByte(d.bound)
	buf[4] = byte(d.irq)
	buf[5] = byte(d.dma)
	offset := 6

	for _, v := range []byte{d.mixer, d.filter, d.scsi} {
		buf[offset] = v
		offset++
	}
	offset += copy(buf[offset:], d.sysConf[:])
	offset += copy(buf[offset:], d.ioConf[:])
	buf[offset] = d.waitStates
	offset++

	for _, v := range []byte{d.compat, d.compatBase, d.compatIRQDMA, d.irqStat, d.irqMask, d.pcmCtrl} {
		buf[offset] = v
		offset++
	}

	// PCM latches
	binary.LittleEndian.PutUint16(buf[offset:], d.pcmData)
	offset += 2
	binary.LittleEndian.PutUint16(buf[offset:], d.pcmLeft)
	offset += 2
	binary.LittleEndian.PutUint16(buf[offset:], d.pcmRight)
	offset += 2
	buf[offset] = boolByte(d.stereoRight)
	offset++

	// MIDI UART
	u := &d.uart
	for _, v := range []byte{u.ctrl, u.status, u.data, boolByte(u.tx), boolByte(u.rx), u.readPos, u.writePos} {
		buf[offset] = v
		offset++
	}
	for _, s := range u.fifo {
		buf[offset] = s.value
		buf[offset+1] = boolByte(s.valid)
		offset += 2
	}

	binary.LittleEndian.PutUint32(buf[offset:], uint32(d.pos))
	offset += 4

	// Interval timer
	buf[offset] = boolByte(d.timer.Running())
	offset++
	for i := range d.timer.Counters {
		serializeCounter(buf[offset:], &d.timer.Counters[i])
		offset += counterSerializeSize
	}

	return nil
}

// Deserialize restores the board state from buf. Register windows are
// rebound at the restored base and the collaborators are reconfigured to
// the restored compatibility settings. A running sample-rate timer is
// re-armed for a full period.
func (d *Device) Deserialize(buf []byte) error {
	if len(buf) < SerializeSize {
		return fmt.Errorf("pas16: deserialize: %w", ErrStateSize)
	}
	if buf[0] != serializeVersion {
		return fmt.Errorf("pas16: deserialize version %d: %w", buf[0], ErrStateVersion)
	}
	base := binary.LittleEndian.Uint16(buf[1:])
	if base&3 != 0 {
		return fmt.Errorf("pas16: deserialize base 0x%04X: %w", base, ErrBaseAligned)
	}

	d.unbind()
	d.timer.Stop()

	d.base = base
	bound := buf[3] != 0
	// irq and dma are rebuilt from the I/O config registers below
	offset := 6

	d.mixer, d.filter, d.scsi = buf[offset], buf[offset+1], buf[offset+2]
	offset += 3
	offset += copy(d.sysConf[:], buf[offset:])
	offset += copy(d.ioConf[:], buf[offset:])
	d.waitStates = buf[offset]
	offset++
	d.dma = dmaTable[d.ioConf[1]&7]
	d.irq = irqTable[d.ioConf[2]&15]

	d.compat = buf[offset]
	d.compatBase = buf[offset+1]
	compatIRQDMA := buf[offset+2]
	d.irqStat = buf[offset+3]
	d.irqMask = buf[offset+4]
	d.pcmCtrl = buf[offset+5]
	offset += 6

	d.pcmData = binary.LittleEndian.Uint16(buf[offset:])
	d.pcmLeft = binary.LittleEndian.Uint16(buf[offset+2:])
	d.pcmRight = binary.LittleEndian.Uint16(buf[offset+4:])
	d.stereoRight = buf[offset+6] != 0
	offset += 7

	u := &d.uart
	u.ctrl, u.status, u.data = buf[offset], buf[offset+1], buf[offset+2]
	u.tx, u.rx = buf[offset+3] != 0, buf[offset+4] != 0
	u.readPos, u.writePos = buf[offset+5]%fifoSize, buf[offset+6]%fifoSize
	offset += 7
	for i := range u.fifo {
		u.fifo[i] = fifoSlot{value: buf[offset], valid: buf[offset+1] != 0}
		offset += 2
	}

	d.pos = min(int(binary.LittleEndian.Uint32(buf[offset:])), len(d.pcmBuf[0]))
	offset += 4

	running := buf[offset] != 0
	offset++
	for i := range d.timer.Counters {
		deserializeCounter(buf[offset:], &d.timer.Counters[i])
		offset += counterSerializeSize
	}

	if bound {
		d.bind()
	}
	d.writeCompat(d.compat)
	d.writeCompatIRQDMA(compatIRQDMA)
	if running {
		d.timer.AdvanceTick(d.timer.TickPeriod())
	}
	return nil
}

func serializeCounter(buf []byte, c *pit.Counter) {
	buf[0] = c.Mode
	binary.LittleEndian.PutUint16(buf[1:], c.Reload)
	binary.LittleEndian.PutUint32(buf[3:], uint32(int32(c.Count)))
	var flags byte
	if c.Enable {
		flags |= counterEnabled
	}
	if c.Loaded {
		flags |= counterLoaded
	}
	buf[7] = flags
	buf[8] = boolByte(c.Out)
}

func deserializeCounter(buf []byte, c *pit.Counter) {
	c.Mode = buf[0]
	c.Reload = binary.LittleEndian.Uint16(buf[1:])
	c.Count = int(int32(binary.LittleEndian.Uint32(buf[3:])))
	c.Enable = buf[7]&counterEnabled != 0
	c.Loaded = buf[7]&counterLoaded != 0
	c.Out = buf[8] != 0
}
