package wavio

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestWAV(t *testing.T, path string, rate, bits, chans int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, rate, bits, chans, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: chans, SampleRate: rate},
		Data:           data,
		SourceBitDepth: bits,
	}))
	require.NoError(t, enc.Close())
}

func TestLoad_WAV(t *testing.T) {
	tests := []struct {
		name  string
		bits  int
		chans int
		data  []int
		want  [][2]int16
	}{
		{
			name:  "16-bit stereo",
			bits:  16,
			chans: 2,
			data:  []int{1000, -1000, 32767, -32768},
			want:  [][2]int16{{1000, -1000}, {32767, -32768}},
		},
		{
			name:  "16-bit mono",
			bits:  16,
			chans: 1,
			data:  []int{1234, -5},
			want:  [][2]int16{{1234, 1234}, {-5, -5}},
		},
		{
			name:  "8-bit mono",
			bits:  8,
			chans: 1,
			data:  []int{0x80, 0xFF, 0x00},
			want:  [][2]int16{{0, 0}, {0x7F00, 0x7F00}, {-0x8000, -0x8000}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "in.wav")
			writeTestWAV(t, path, 22050, tt.bits, tt.chans, tt.data)

			s, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, 22050, s.SampleRate)
			assert.Equal(t, tt.chans, s.Channels)
			assert.Equal(t, tt.want, s.Frames)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.wav"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	flac := filepath.Join(dir, "in.flac")
	require.NoError(t, os.WriteFile(flac, []byte("fLaC"), 0o644))
	_, err = Load(flac)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	junk := filepath.Join(dir, "junk.wav")
	require.NoError(t, os.WriteFile(junk, []byte("not a riff file at all"), 0o644))
	_, err = Load(junk)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecodeMP3_Invalid(t *testing.T) {
	_, err := DecodeMP3(bytes.NewReader([]byte{0x00, 0x01, 0x02}))
	assert.Error(t, err)
}

func TestSource_DMABytes(t *testing.T) {
	s := &Source{SampleRate: 8000, Frames: [][2]int16{{0x1234, 0x5678}, {-2, 0x0100}}}

	tests := []struct {
		name   string
		wide   bool
		stereo bool
		want   []byte
	}{
		{"16-bit stereo", true, true, []byte{0x12, 0x34, 0x56, 0x78, 0xFF, 0xFE, 0x01, 0x00}},
		{"16-bit mono", true, false, []byte{0x34, 0x56, 0x00, 0x7F}},
		{"8-bit stereo", false, true, []byte{0x92, 0xD6, 0x7F, 0x81}},
		{"8-bit mono", false, false, []byte{0xB4, 0x80}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.DMABytes(tt.wide, tt.stereo))
		})
	}
}

func TestSource_Seconds(t *testing.T) {
	s := &Source{SampleRate: 4, Frames: make([][2]int16, 10)}
	assert.InDelta(t, 2.5, s.Seconds(), 1e-9)
	assert.Zero(t, (&Source{}).Seconds())
}

func TestWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	w := NewWriter(f, 48000)
	require.NoError(t, w.Write([]int16{100, -100, Clip(40000), Clip(-40000)}))
	require.NoError(t, w.Write([]int16{7, 8}))
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	assert.Equal(t, 3, w.Frames())

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 48000, s.SampleRate)
	assert.Equal(t, [][2]int16{{100, -100}, {32767, -32768}, {7, 8}}, s.Frames)
}

func TestClip(t *testing.T) {
	assert.Equal(t, int16(32767), Clip(1<<20))
	assert.Equal(t, int16(-32768), Clip(-1<<20))
	assert.Equal(t, int16(-12), Clip(-12))
}
