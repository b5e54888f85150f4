package pas16

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-pas16/pas16/addr"
	"github.com/valerio/go-pas16/pas16/dma"
	"github.com/valerio/go-pas16/pas16/events"
	"github.com/valerio/go-pas16/pas16/iobus"
	"github.com/valerio/go-pas16/pas16/pic"
)

type synthWrite struct {
	offset uint16
	value  byte
}

type fakeSynth struct {
	regs   map[uint16]byte
	writes []synthWrite
	out    []int32
	resets int
	closed bool
}

func (s *fakeSynth) Read(offset uint16) byte { return s.regs[offset] }
func (s *fakeSynth) Write(offset uint16, value byte) {
	s.writes = append(s.writes, synthWrite{offset, value})
}
func (s *fakeSynth) Update() []int32 { return s.out }
func (s *fakeSynth) ResetBuffer()    { s.resets++ }
func (s *fakeSynth) Close() error {
	s.closed = true
	return nil
}

type fakeDSP struct {
	address uint16
	irq     int
	dma     int
	out     []int32
	updates int
	resets  int
}

func (d *fakeDSP) SetAddress(address uint16)            { d.address = address }
func (d *fakeDSP) SetIRQ(irq int)                       { d.irq = irq }
func (d *fakeDSP) SetDMA8(channel int)                  { d.dma = channel }
func (d *fakeDSP) Update()                              { d.updates++ }
func (d *fakeDSP) Buffer() []int32                      { return d.out }
func (d *fakeDSP) Filter(_ int, sample float64) float64 { return sample }
func (d *fakeDSP) ResetPos()                            { d.resets++ }
func (d *fakeDSP) Close() error                         { return errors.New("dsp close") }

type fakeMPU struct {
	address uint16
	sent    []byte
}

func (m *fakeMPU) SetAddress(address uint16) { m.address = address }
func (m *fakeMPU) Send(b byte)               { m.sent = append(m.sent, b) }

type fakeSound struct{ pos int }

func (s *fakeSound) SoundPos() int { return s.pos }

type rig struct {
	d     *Device
	bus   *iobus.Bus
	sched *events.Scheduler
	pic   *pic.Controller
	dma   *dma.Controller
	synth *fakeSynth
	dsp   *fakeDSP
	mpu   *fakeMPU
	sound *fakeSound
}

const testBase = 0x388

func newRig(t *testing.T, cfg Config) *rig {
	t.Helper()
	r := &rig{
		bus:   iobus.New(),
		sched: events.NewScheduler(),
		pic:   pic.New(),
		dma:   dma.New(),
		synth: &fakeSynth{regs: map[uint16]byte{}},
		dsp:   &fakeDSP{},
		mpu:   &fakeMPU{},
		sound: &fakeSound{},
	}
	d, err := New(cfg, r.deps())
	require.NoError(t, err)
	r.d = d
	return r
}

func (r *rig) deps() Deps {
	return Deps{
		Bus:           r.bus,
		IRQ:           r.pic,
		DMA:           r.dma,
		Sound:         r.sound,
		Clock:         r.sched,
		UnitsPerClock: 1,
		Synth:         r.synth,
		DSP:           r.dsp,
		MIDI:          r.mpu,
	}
}

// out and in address registers by canonical offset at the current base.
func (r *rig) out(offset uint16, value byte) {
	r.bus.Write(addr.Port(r.d.Base(), offset), value)
}

func (r *rig) in(offset uint16) byte {
	return r.bus.Read(addr.Port(r.d.Base(), offset))
}

func TestNew_Validation(t *testing.T) {
	base := newRig(t, Config{})

	tests := []struct {
		name   string
		cfg    Config
		mutate func(*Deps)
		want   error
	}{
		{"no bus", Config{}, func(d *Deps) { d.Bus = nil }, ErrNoBus},
		{"no clock", Config{}, func(d *Deps) { d.Clock = nil }, ErrNoClock},
		{"no synth", Config{}, func(d *Deps) { d.Synth = nil }, ErrMissingDep},
		{"no irq", Config{}, func(d *Deps) { d.IRQ = nil }, ErrMissingDep},
		{"negative buffer", Config{BufferLen: -1}, func(*Deps) {}, ErrBufferLen},
		{"misaligned base", Config{Base: 0x389}, func(*Deps) {}, ErrBaseAligned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := iobus.New()
			deps := base.deps()
			deps.Bus = bus
			tt.mutate(&deps)

			d, err := New(tt.cfg, deps)
			assert.Nil(t, d)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, bus.Bound(), "failed construction leaves nothing bound")
		})
	}
}

func TestNew_Binding(t *testing.T) {
	t.Run("unbound by default", func(t *testing.T) {
		r := newRig(t, Config{})
		assert.False(t, r.d.Bound())
		assert.True(t, r.bus.Routed(addr.BasePort))
		assert.Equal(t, 1, r.bus.Bound())
		assert.Equal(t, DefaultBufferLen, r.d.BufferLen())
	})

	t.Run("configured base", func(t *testing.T) {
		r := newRig(t, Config{Base: testBase, BufferLen: 64})
		assert.True(t, r.d.Bound())
		assert.Equal(t, 1+len(addr.Windows)*addr.WindowSize, r.bus.Bound())
		assert.Equal(t, byte(0x04), r.in(addr.BoardModel))
		assert.Equal(t, 64, r.d.BufferLen())
	})
}

func TestDevice_Close(t *testing.T) {
	r := newRig(t, Config{Base: testBase})
	r.out(addr.TimerStart+3, 0x36)
	r.out(addr.TimerStart, 0x10)
	r.out(addr.TimerStart, 0x00)
	require.True(t, r.d.Timer().Running())

	err := r.d.Close()
	assert.EqualError(t, err, "dsp close")
	assert.True(t, r.synth.closed)
	assert.Zero(t, r.bus.Bound())
	assert.False(t, r.d.Timer().Running())
}

func TestDevice_UnmappedRegisters(t *testing.T) {
	r := newRig(t, Config{Base: testBase})

	for _, offset := range []uint16{0x0788, 0x0F88, 0x0F89, 0x178B, 0xE388, 0xFF89} {
		assert.Equal(t, iobus.Floating, r.in(offset), "offset 0x%04X", offset)
	}

	before := r.d.Snapshot()
	r.out(0xE388, 0x55)
	r.out(addr.BoardModel, 0x55)
	assert.Equal(t, before, r.d.Snapshot())
}

func TestDevice_Snapshot(t *testing.T) {
	r := newRig(t, Config{Base: testBase})
	r.out(addr.IOConf3, 0x05)
	r.out(addr.IOConf2, 0x01)
	r.out(addr.Mixer, 0x3C)

	s := r.d.Snapshot()
	assert.Equal(t, uint16(testBase), s.Base)
	assert.True(t, s.Bound)
	assert.Equal(t, 6, s.IRQ)
	assert.Equal(t, 1, s.DMA)
	assert.Equal(t, byte(0x3C), s.Mixer)
	assert.Equal(t, byte(0xFF), s.MIDIStatus)
}
