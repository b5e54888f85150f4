package chips

import (
	"fmt"
	"log/slog"
	"math"
)

// DSPCutoffHz is the corner frequency of the DSP output filter.
const DSPCutoffHz = 3200.0

// DSP stands in for the legacy sample-playback chip. It keeps its
// resource assignment and runs the shared mix through its output filter,
// but renders no samples of its own.
type DSP struct {
	address uint16
	irq     int
	dma     int

	alpha float64
	prev  [2]float64
	out   []int32
	pos   int
}

// NewDSP creates a DSP stand-in rendering bufferLen stereo samples per
// period at sampleRate.
func NewDSP(sampleRate, bufferLen int) *DSP {
	return &DSP{
		alpha: lowPassAlpha(float64(sampleRate), DSPCutoffHz),
		out:   make([]int32, 2*bufferLen),
	}
}

// lowPassAlpha returns the smoothing factor of a first-order RC low-pass:
// dt / (RC + dt) with RC = 1/(2*pi*fc).
func lowPassAlpha(sampleRate, cutoff float64) float64 {
	return 1.0 / (sampleRate/(2*math.Pi*cutoff) + 1)
}

func (d *DSP) SetAddress(address uint16) {
	if address == d.address {
		return
	}
	d.address = address
	slog.Debug("dsp address", "addr", fmt.Sprintf("0x%03X", address))
}

func (d *DSP) SetIRQ(irq int)      { d.irq = irq }
func (d *DSP) SetDMA8(channel int) { d.dma = channel }

// Address returns the current base, 0 when unreachable.
func (d *DSP) Address() uint16 { return d.address }

// Resources returns the assigned IRQ line and 8-bit DMA channel.
func (d *DSP) Resources() (irq, dma int) { return d.irq, d.dma }

// Update renders silence up to the end of the period.
func (d *DSP) Update() {
	for ; d.pos < len(d.out); d.pos++ {
		d.out[d.pos] = 0
	}
}

func (d *DSP) Buffer() []int32 { return d.out }

func (d *DSP) ResetPos() { d.pos = 0 }

// Filter runs sample through the low-pass of channel (0 left, 1 right).
// The filter state carries over between calls.
func (d *DSP) Filter(channel int, sample float64) float64 {
	p := &d.prev[channel&1]
	*p = d.alpha*sample + (1-d.alpha)*(*p)
	return *p
}
