package midi

import (
	"fmt"
	"log/slog"
)

// LogSink implements a MIDI UART that just logs outgoing bytes, grouped into
// complete MIDI messages. Handy for checking what a guest plays without a
// synthesizer attached.
type LogSink struct {
	address uint16
	logger  *slog.Logger
	onMsg   func(msg []byte)

	running byte   // running status byte
	msg     []byte // message being assembled
	need    int    // data bytes still expected for msg, -1 inside sysex
	sent    uint64
}

type LogSinkOption func(*LogSink)

// WithLogger routes messages to the given logger instead of slog.Default.
func WithLogger(l *slog.Logger) LogSinkOption { return func(s *LogSink) { s.logger = l } }

// WithMessageFunc registers a callback run for every complete message.
// The slice is only valid for the duration of the call.
func WithMessageFunc(f func(msg []byte)) LogSinkOption { return func(s *LogSink) { s.onMsg = f } }

// NewLogSink creates a logging MIDI UART with no address assigned.
func NewLogSink(opts ...LogSinkOption) *LogSink {
	s := &LogSink{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()
	return s
}

// SetAddress records the legacy address the UART answers on; 0 disables it.
func (s *LogSink) SetAddress(address uint16) {
	if address == s.address {
		return
	}
	s.address = address
	if address == 0 {
		s.logger.Debug("midi uart disabled")
		return
	}
	s.logger.Debug("midi uart address", "addr", fmt.Sprintf("0x%03X", address))
}

// Address returns the current legacy address, 0 when disabled.
func (s *LogSink) Address() uint16 {
	return s.address
}

// Send transmits one raw byte.
func (s *LogSink) Send(b byte) {
	s.sent++

	switch {
	case b >= 0xF8:
		// realtime bytes may appear anywhere, even inside other messages
		s.emit([]byte{b})
		return
	case b == 0xF7 && s.need < 0:
		s.msg = append(s.msg, b)
		s.flush()
		return
	case b&0x80 != 0:
		s.msg = append(s.msg[:0], b)
		s.need = dataLength(b)
		if b < 0xF0 {
			s.running = b
		} else {
			s.running = 0
		}
		if s.need == 0 {
			s.flush()
		}
		return
	}

	// data byte
	if len(s.msg) == 0 {
		if s.running == 0 {
			return // stray data byte
		}
		s.msg = append(s.msg, s.running)
		s.need = dataLength(s.running)
	}
	s.msg = append(s.msg, b)
	if s.need > 0 {
		s.need--
		if s.need == 0 {
			s.flush()
		}
	}
}

// Sent returns the number of raw bytes transmitted.
func (s *LogSink) Sent() uint64 {
	return s.sent
}

// Reset drops any partial message and running status.
func (s *LogSink) Reset() {
	s.running = 0
	s.msg = s.msg[:0]
	s.need = 0
}

func (s *LogSink) flush() {
	s.emit(s.msg)
	s.msg = s.msg[:0]
	s.need = 0
}

func (s *LogSink) emit(msg []byte) {
	s.logger.Info("midi", "bytes", fmt.Sprintf("% X", msg))
	if s.onMsg != nil {
		s.onMsg(msg)
	}
}

// dataLength returns the number of data bytes following a status byte,
// or -1 for system exclusive.
func dataLength(status byte) int {
	switch {
	case status == 0xF0:
		return -1
	case status >= 0xF0:
		switch status {
		case 0xF1, 0xF3:
			return 1
		case 0xF2:
			return 2
		default:
			return 0
		}
	case status&0xF0 == 0xC0, status&0xF0 == 0xD0:
		return 1
	default:
		return 2
	}
}
