package pit

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-pas16/pas16/bit"
	"github.com/valerio/go-pas16/pas16/events"
)

// InputClock is the frequency of the counter input clock in Hz.
const InputClock = 1193182

// clocksPerCount is how many input clocks one count of counter 0 spans on
// the tick callback.
const clocksPerCount = 2

// Counter access modes, bits 5-4 of the control word.
const (
	accessLatch uint8 = 0
	accessLow   uint8 = 1
	accessHigh  uint8 = 2
	accessWord  uint8 = 3
)

// Counter holds the state of one of the three counters.
type Counter struct {
	Mode   uint8  // operating mode 0-5
	Reload uint16 // programmed count, 0 means 0x10000
	Count  int    // current countdown
	Enable bool   // counting is allowed
	Loaded bool   // a count has been written since the last control word
	Out    bool   // output pin level

	access  uint8
	writeHi bool // next data write is the high byte
	readHi  bool // next data read is the high byte
	lowByte uint8
	latched bool
	latch   uint16
}

// Periodic reports whether the counter reloads itself on terminal count
// (rate generator and square wave modes).
func (c *Counter) Periodic() bool {
	return c.Mode&2 != 0
}

// Period returns the programmed count with 0 standing for 0x10000.
func (c *Counter) Period() uint32 {
	if c.Reload == 0 {
		return 0x10000
	}
	return uint32(c.Reload)
}

// Clock abstracts the virtual time source the callback timer lives on.
type Clock interface {
	NewTimer(callback func()) *events.Timer
}

// PIT is an 8254 style interval timer whose counter 0 drives a callback on
// virtual time. The owner installs the callback with SetTickFunc and
// re-arms it from inside the callback with AdvanceTick.
type PIT struct {
	Counters [3]Counter

	timer         *events.Timer
	unitsPerClock uint64
	tick          func()
	outFuncs      [3]func(newOut, oldOut bool)
}

// New creates a timer whose input clock lasts unitsPerClock units of the
// given clock.
func New(clock Clock, unitsPerClock uint64) *PIT {
	p := &PIT{unitsPerClock: unitsPerClock}
	p.timer = clock.NewTimer(p.fire)
	p.Reset()
	return p
}

// SetTickFunc installs the callback run on every counter 0 expiry.
func (p *PIT) SetTickFunc(f func()) {
	p.tick = f
}

// SetOutFunc installs a callback run whenever the output of counter ch
// changes level.
func (p *PIT) SetOutFunc(ch int, f func(newOut, oldOut bool)) {
	p.outFuncs[ch] = f
}

// TickPeriod returns the counter 0 callback period in input clocks.
func (p *PIT) TickPeriod() uint64 {
	return uint64(p.Counters[0].Period()) * clocksPerCount
}

// AdvanceTick re-arms the callback clocks input clocks after its previous
// expiry, so time already consumed since then is accounted for.
func (p *PIT) AdvanceTick(clocks uint64) {
	p.timer.Advance(clocks * p.unitsPerClock)
}

// Running reports whether the counter 0 callback is armed.
func (p *PIT) Running() bool {
	return p.timer.Enabled()
}

// Stop disarms the callback timer.
func (p *PIT) Stop() {
	p.timer.Stop()
}

// Reset puts all counters back to their power-on state and stops the
// callback.
func (p *PIT) Reset() {
	p.timer.Stop()
	for i := range p.Counters {
		p.Counters[i] = Counter{access: accessWord}
	}
}

func (p *PIT) fire() {
	if p.tick != nil {
		p.tick()
		return
	}
	if p.Counters[0].Periodic() {
		p.AdvanceTick(p.TickPeriod())
	}
}

func (p *PIT) setOut(ch int, out bool) {
	c := &p.Counters[ch]
	old := c.Out
	c.Out = out
	if old != out && p.outFuncs[ch] != nil {
		p.outFuncs[ch](out, old)
	}
}

// ReadPort serves reads from the 4-port window: counters 0-2 and the
// control port, which reads as floating.
func (p *PIT) ReadPort(port uint16) byte {
	ch := int(port & 3)
	if ch == 3 {
		return 0xFF
	}
	c := &p.Counters[ch]

	value := uint16(c.Count)
	if c.latched {
		value = c.latch
	}

	var out byte
	switch c.access {
	case accessLow:
		out = bit.Low(value)
		c.latched = false
	case accessHigh:
		out = bit.High(value)
		c.latched = false
	default:
		if c.readHi {
			out = bit.High(value)
			c.latched = false
		} else {
			out = bit.Low(value)
		}
		c.readHi = !c.readHi
	}
	return out
}

// WritePort serves writes to the 4-port window.
func (p *PIT) WritePort(port uint16, value byte) {
	ch := int(port & 3)
	if ch == 3 {
		p.writeControl(value)
		return
	}
	c := &p.Counters[ch]

	switch c.access {
	case accessLow:
		p.load(ch, uint16(value))
	case accessHigh:
		p.load(ch, uint16(value)<<8)
	default:
		if !c.writeHi {
			c.lowByte = value
			c.writeHi = true
			return
		}
		c.writeHi = false
		p.load(ch, bit.Combine(value, c.lowByte))
	}
}

func (p *PIT) writeControl(value byte) {
	ch := int(value >> 6)
	if ch == 3 {
		// read-back command, not used by the board
		return
	}
	c := &p.Counters[ch]

	access := bit.ExtractBits(value, 5, 4)
	if access == accessLatch {
		c.latched = true
		c.latch = uint16(c.Count)
		c.readHi = false
		return
	}

	mode := bit.ExtractBits(value, 3, 1)
	if mode > 5 {
		mode -= 4
	}
	c.Mode = mode
	c.access = access
	c.writeHi = false
	c.readHi = false
	c.latched = false
	c.Enable = false
	c.Loaded = false

	// Programming a counter halts it until a new count is loaded.
	if ch == 0 {
		p.timer.Stop()
	}
	p.setOut(ch, false)

	slog.Debug("timer counter programmed", "counter", ch, "mode", mode, "access", access)
}

// load applies a complete count write. Reloading counter 0 while its
// callback is armed lets the current period finish; the new period takes
// effect on the next AdvanceTick.
func (p *PIT) load(ch int, count uint16) {
	c := &p.Counters[ch]
	c.Reload = count
	c.Count = int(c.Period())
	c.Enable = true
	c.Loaded = true

	if ch == 0 && !p.timer.Enabled() {
		p.timer.Set(p.TickPeriod() * p.unitsPerClock)
	}
	p.setOut(ch, true)

	slog.Debug("timer counter loaded", "counter", ch, "count", fmt.Sprintf("0x%04X", count))
}
