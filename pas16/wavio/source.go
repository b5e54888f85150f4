// Package wavio loads audio files to stream through the board's DMA channel
// and captures the mixed output to WAV.
package wavio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Source is decoded audio as signed 16-bit stereo frames.
type Source struct {
	SampleRate int
	Channels   int        // channels in the original file
	Frames     [][2]int16 // left, right
}

// Load decodes a .wav or .mp3 file.
func Load(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wavio: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return DecodeWAV(f)
	case ".mp3":
		return DecodeMP3(f)
	}
	return nil, fmt.Errorf("wavio: %s: %w", filepath.Ext(path), ErrUnsupportedFormat)
}

// DecodeWAV decodes a PCM WAV stream of 8, 16, 24 or 32 bits.
func DecodeWAV(r io.ReadSeeker) (*Source, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("wavio: not a valid wav file: %w", ErrUnsupportedFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wavio: wav: %w", err)
	}

	var to16 func(int) int16
	switch dec.BitDepth {
	case 8:
		to16 = func(v int) int16 { return int16((v - 0x80) << 8) }
	case 16:
		to16 = func(v int) int16 { return int16(v) }
	case 24:
		to16 = func(v int) int16 { return int16(v >> 8) }
	case 32:
		to16 = func(v int) int16 { return int16(v >> 16) }
	default:
		return nil, fmt.Errorf("wavio: %d-bit samples: %w", dec.BitDepth, ErrUnsupportedFormat)
	}

	chans := int(dec.NumChans)
	if chans < 1 {
		return nil, fmt.Errorf("wavio: no channels: %w", ErrUnsupportedFormat)
	}

	s := &Source{
		SampleRate: int(dec.SampleRate),
		Channels:   chans,
		Frames:     make([][2]int16, 0, len(buf.Data)/chans),
	}
	for i := 0; i+chans <= len(buf.Data); i += chans {
		left := to16(buf.Data[i])
		right := left
		if chans > 1 {
			right = to16(buf.Data[i+1])
		}
		s.Frames = append(s.Frames, [2]int16{left, right})
	}
	return s, nil
}

// DecodeMP3 decodes an MP3 stream. The decoder always produces 16-bit
// stereo.
func DecodeMP3(r io.Reader) (*Source, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("wavio: mp3: %w", err)
	}

	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("wavio: mp3: %w", err)
	}

	s := &Source{
		SampleRate: dec.SampleRate(),
		Channels:   2,
		Frames:     make([][2]int16, 0, len(data)/4),
	}
	for i := 0; i+4 <= len(data); i += 4 {
		left := int16(uint16(data[i]) | uint16(data[i+1])<<8)
		right := int16(uint16(data[i+2]) | uint16(data[i+3])<<8)
		s.Frames = append(s.Frames, [2]int16{left, right})
	}
	return s, nil
}

// Seconds returns the playing time.
func (s *Source) Seconds() float64 {
	if s.SampleRate == 0 {
		return 0
	}
	return float64(len(s.Frames)) / float64(s.SampleRate)
}

// DMABytes lays the frames out the way the board fetches them: stereo
// interleaves left then right, mono mixes both channels down. Wide samples
// are sent high byte first, 8-bit samples are unsigned.
func (s *Source) DMABytes(wide, stereo bool) []byte {
	per := 1
	if wide {
		per = 2
	}
	if stereo {
		per *= 2
	}

	out := make([]byte, 0, len(s.Frames)*per)
	put := func(v int16) {
		if wide {
			out = append(out, byte(uint16(v)>>8), byte(v))
			return
		}
		out = append(out, byte(v>>8)^0x80)
	}

	for _, f := range s.Frames {
		if stereo {
			put(f[0])
			put(f[1])
			continue
		}
		put(int16((int32(f[0]) + int32(f[1])) / 2))
	}
	return out
}
