package pic

import (
	"fmt"
	"log/slog"
	"math/bits"
)

// Controller is a minimal model of the system interrupt controller: a set
// of request lines that devices raise and lower by mask, with a count of
// rising edges per line.
type Controller struct {
	lines uint16
	edges [16]uint64
}

// New creates a controller with all lines low.
func New() *Controller {
	return &Controller{}
}

// Raise asserts every line set in mask.
func (c *Controller) Raise(mask uint16) {
	rising := mask &^ c.lines
	c.lines |= mask
	for rising != 0 {
		line := bits.TrailingZeros16(rising)
		c.edges[line]++
		rising &^= 1 << line
		slog.Debug("irq raised", "line", line)
	}
}

// Lower deasserts every line set in mask.
func (c *Controller) Lower(mask uint16) {
	c.lines &^= mask
}

// Lines returns the current level of all lines as a bitmask.
func (c *Controller) Lines() uint16 {
	return c.lines
}

// Asserted reports whether line is high.
func (c *Controller) Asserted(line int) bool {
	return c.lines&(1<<line) != 0
}

// Edges returns how many times line went from low to high.
func (c *Controller) Edges(line int) uint64 {
	return c.edges[line&15]
}

// String renders the line levels, handy in logs and the monitor.
func (c *Controller) String() string {
	return fmt.Sprintf("%016b", c.lines)
}
