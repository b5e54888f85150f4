package dma

// NoData is returned by a read from a channel with nothing to transfer.
const NoData byte = 0xFF

type channel struct {
	data      []byte
	pos       int
	loop      bool
	transfers uint64
	underruns uint64
}

// Controller models the eight ISA DMA channels as byte streams the device
// pulls from one byte at a time.
type Controller struct {
	channels [8]channel
}

// New creates a controller with all channels idle.
func New() *Controller {
	return &Controller{}
}

// Attach sets the memory a channel transfers from. With loop set the
// channel restarts at the beginning once it runs out (auto-init).
func (c *Controller) Attach(ch int, data []byte, loop bool) {
	c.channels[ch&7] = channel{data: data, loop: loop}
}

// ReadChannel performs a single-byte transfer on ch.
func (c *Controller) ReadChannel(ch int) byte {
	dc := &c.channels[ch&7]
	if dc.pos >= len(dc.data) {
		if !dc.loop || len(dc.data) == 0 {
			dc.underruns++
			return NoData
		}
		dc.pos = 0
	}
	b := dc.data[dc.pos]
	dc.pos++
	dc.transfers++
	return b
}

// Remaining returns the bytes left before the channel runs dry.
func (c *Controller) Remaining(ch int) int {
	dc := &c.channels[ch&7]
	return len(dc.data) - dc.pos
}

// Transfers returns the number of bytes read from ch.
func (c *Controller) Transfers(ch int) uint64 {
	return c.channels[ch&7].transfers
}

// Underruns returns the number of reads from ch that found no data.
func (c *Controller) Underruns(ch int) uint64 {
	return c.channels[ch&7].underruns
}
