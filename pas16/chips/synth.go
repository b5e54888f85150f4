// Package chips holds stand-ins for the sound chips the board routes to.
package chips

import sn76489 "github.com/user-none/go-chip-sn76489"

// Synthesizer port layout relative to the FM window: even offsets select
// a register, odd offsets write its data.
const (
	synthIndexMask = 0x01
	synthBanks     = 2
)

// registerFile latches index/data writes to a two-bank synthesizer port.
type registerFile struct {
	index [synthBanks]byte
	regs  [synthBanks][256]byte
}

func (f *registerFile) write(offset uint16, value byte) (bank int, isData bool) {
	bank = int(offset>>1) & (synthBanks - 1)
	if offset&synthIndexMask == 0 {
		f.index[bank] = value
		return bank, false
	}
	f.regs[bank][f.index[bank]] = value
	return bank, true
}

// SilentSynth accepts synthesizer register traffic and renders silence.
type SilentSynth struct {
	registerFile
	status byte
	out    []int32
}

// NewSilentSynth creates a silent synthesizer rendering bufferLen stereo
// samples per period.
func NewSilentSynth(bufferLen int) *SilentSynth {
	return &SilentSynth{out: make([]int32, 2*bufferLen)}
}

func (s *SilentSynth) Read(offset uint16) byte {
	if offset&synthIndexMask == 0 {
		return s.status
	}
	return 0xFF
}

func (s *SilentSynth) Write(offset uint16, value byte) {
	s.write(offset, value)
}

// Register returns the last value written to register index of bank.
func (s *SilentSynth) Register(bank int, index byte) byte {
	return s.regs[bank&(synthBanks-1)][index]
}

func (s *SilentSynth) Update() []int32 { return s.out }
func (s *SilentSynth) ResetBuffer()    {}

// PSGClock is the input clock of the tone generator voice.
const PSGClock = 3579545

// psgGain scales the tone generator's float output to 16-bit range.
const psgGain = 1898.0

// PSGSynth renders the synthesizer slot with an SN76489 tone generator.
// Data writes to either bank are fed to the tone generator as command
// bytes, so a guest can play square-wave tones through the FM ports.
type PSGSynth struct {
	registerFile
	psg       *sn76489.SN76489
	clocks    int // input clocks per period
	out       []int32
	generated bool
}

// NewPSGSynth creates a tone generator voice rendering bufferLen stereo
// samples per period at sampleRate.
func NewPSGSynth(sampleRate, bufferLen int) *PSGSynth {
	psg := sn76489.New(PSGClock, sampleRate, bufferLen, sn76489.TI)
	psg.SetGain(psgGain)
	return &PSGSynth{
		psg:    psg,
		clocks: int(float64(bufferLen) * psg.ClocksPerSample()),
		out:    make([]int32, 2*bufferLen),
	}
}

func (s *PSGSynth) Read(offset uint16) byte {
	if offset&synthIndexMask == 0 {
		return 0x00
	}
	return 0xFF
}

func (s *PSGSynth) Write(offset uint16, value byte) {
	if _, isData := s.write(offset, value); isData {
		s.psg.Write(value)
	}
}

// Update renders one period of tone generator output, duplicated to both
// channels. Repeated calls within a period return the same samples.
func (s *PSGSynth) Update() []int32 {
	if s.generated {
		return s.out
	}
	s.psg.GenerateSamples(s.clocks)
	buf, n := s.psg.GetBuffer()
	for i := range len(s.out) / 2 {
		var v int32
		if i < n {
			v = int32(buf[i])
		}
		s.out[2*i] = v
		s.out[2*i+1] = v
	}
	s.generated = true
	return s.out
}

func (s *PSGSynth) ResetBuffer() {
	s.psg.ResetBuffer()
	s.generated = false
}

// Reset silences the tone generator and clears the register file.
func (s *PSGSynth) Reset() {
	s.psg.Reset()
	s.registerFile = registerFile{}
	s.generated = false
}
