package wavio

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	outBitDepth   = 16
	outChannels   = 2
	formatPCM     = 1
	sampleMaximum = 32767
	sampleMinimum = -32768
)

// Writer captures interleaved stereo output to a 16-bit WAV stream.
type Writer struct {
	enc    *wav.Encoder
	buf    *audio.IntBuffer
	frames int
}

// NewWriter starts a WAV stream on w. Close must be called to finalize
// the header.
func NewWriter(w io.WriteSeeker, sampleRate int) *Writer {
	return &Writer{
		enc: wav.NewEncoder(w, sampleRate, outBitDepth, outChannels, formatPCM),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: outChannels, SampleRate: sampleRate},
			SourceBitDepth: outBitDepth,
		},
	}
}

// Write appends interleaved left/right samples.
func (w *Writer) Write(samples []int16) error {
	w.buf.Data = w.buf.Data[:0]
	for _, v := range samples {
		w.buf.Data = append(w.buf.Data, int(v))
	}
	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("wavio: write: %w", err)
	}
	w.frames += len(samples) / outChannels
	return nil
}

// Frames returns the number of stereo frames written.
func (w *Writer) Frames() int {
	return w.frames
}

// Close flushes the stream and writes the final header.
func (w *Writer) Close() error {
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("wavio: close: %w", err)
	}
	return nil
}

// Clip saturates a mixed sample to the signed 16-bit range.
func Clip(v int32) int16 {
	switch {
	case v > sampleMaximum:
		return sampleMaximum
	case v < sampleMinimum:
		return sampleMinimum
	}
	return int16(v)
}
