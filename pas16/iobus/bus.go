package iobus

import (
	"fmt"
	"log/slog"
)

// Floating is the value read from a port nothing answers on.
const Floating byte = 0xFF

// Handler serves reads and writes for the ports it is bound to.
type Handler interface {
	ReadPort(port uint16) byte
	WritePort(port uint16, value byte)
}

// Funcs adapts a pair of functions to a Handler. Either may be nil: a nil
// In reads as Floating and a nil Out drops the write.
// Bind it by pointer so it can be found again on removal.
type Funcs struct {
	In  func(port uint16) byte
	Out func(port uint16, value byte)
}

func (f *Funcs) ReadPort(port uint16) byte {
	if f.In == nil {
		return Floating
	}
	return f.In(port)
}

func (f *Funcs) WritePort(port uint16, value byte) {
	if f.Out != nil {
		f.Out(port, value)
	}
}

// Bus is a 64K x86 style I/O space. A port may be shared by several
// handlers: writes reach all of them and reads are ANDed together, like
// open-collector lines on a real ISA bus.
type Bus struct {
	ports [0x10000][]Handler
	bound int
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{}
}

// SetHandler binds h to size consecutive ports starting at start.
// Binding the same handler twice to a port is a no-op.
func (b *Bus) SetHandler(start uint16, size int, h Handler) {
	for i := 0; i < size; i++ {
		port := start + uint16(i)
		if b.has(port, h) {
			continue
		}
		b.ports[port] = append(b.ports[port], h)
		b.bound++
	}
}

// RemoveHandler unbinds h from size consecutive ports starting at start.
// Ports h is not bound to are skipped.
func (b *Bus) RemoveHandler(start uint16, size int, h Handler) {
	for i := 0; i < size; i++ {
		port := start + uint16(i)
		list := b.ports[port]
		for j, other := range list {
			if other == h {
				b.ports[port] = append(list[:j:j], list[j+1:]...)
				b.bound--
				break
			}
		}
	}
}

// Read performs a guest port read.
func (b *Bus) Read(port uint16) byte {
	list := b.ports[port]
	if len(list) == 0 {
		return Floating
	}
	value := Floating
	for _, h := range list {
		value &= h.ReadPort(port)
	}
	return value
}

// Write performs a guest port write.
func (b *Bus) Write(port uint16, value byte) {
	list := b.ports[port]
	if len(list) == 0 {
		slog.Debug("write to unrouted port", "port", fmt.Sprintf("0x%04X", port), "value", fmt.Sprintf("0x%02X", value))
		return
	}
	for _, h := range list {
		h.WritePort(port, value)
	}
}

// Routed reports whether any handler answers on port.
func (b *Bus) Routed(port uint16) bool {
	return len(b.ports[port]) > 0
}

// Bound returns the number of (port, handler) bindings.
func (b *Bus) Bound() int {
	return b.bound
}

func (b *Bus) has(port uint16, h Handler) bool {
	for _, other := range b.ports[port] {
		if other == h {
			return true
		}
	}
	return false
}
