package pas16

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-pas16/pas16/addr"
	"github.com/valerio/go-pas16/pas16/iobus"
)

// WriteBase handles a write to the base port: the board moves all of its
// register windows to value<<2.
func (d *Device) WriteBase(value byte) {
	d.relocate(uint16(value) << 2)
}

func (d *Device) relocate(base uint16) {
	old := d.base
	d.unbind()
	d.base = base
	d.bind()
	slog.Debug("pas16 relocated", "from", fmt.Sprintf("0x%04X", old), "to", fmt.Sprintf("0x%04X", base))
}

func (d *Device) bind() {
	for _, w := range addr.Windows {
		d.bus.SetHandler(addr.Port(d.base, w), addr.WindowSize, d.windowHandler(w))
	}
	d.bound = true
}

func (d *Device) unbind() {
	if !d.bound {
		return
	}
	for _, w := range addr.Windows {
		d.bus.RemoveHandler(addr.Port(d.base, w), addr.WindowSize, d.windowHandler(w))
	}
	d.bound = false
}

func (d *Device) windowHandler(window uint16) iobus.Handler {
	if window == addr.TimerStart {
		return d.timer
	}
	return d.regs
}
