package pas16

// dspAttenuation scales the legacy DSP down before mixing.
const dspAttenuation = 1.3

// update fills the PCM output up to the current sound position with the
// latched samples, or silence while muted.
func (d *Device) update() {
	target := d.sound.SoundPos()
	if target > len(d.pcmBuf[0]) {
		target = len(d.pcmBuf[0])
	}

	left, right := int16(d.pcmLeft), int16(d.pcmRight)
	if d.filter&filterMute != 0 {
		left, right = 0, 0
	}
	for ; d.pos < target; d.pos++ {
		d.pcmBuf[0][d.pos] = left
		d.pcmBuf[1][d.pos] = right
	}
}

// GetBuffer mixes n stereo samples of DSP and PCM output into acc, which
// holds interleaved left/right pairs, and starts a new output period.
func (d *Device) GetBuffer(acc []int32, n int) {
	d.dsp.Update()
	d.update()

	dsp := d.dsp.Buffer()
	n = min(n, len(d.pcmBuf[0]))
	for c := 0; c < 2*n && c < len(acc); c++ {
		if c < len(dsp) {
			filtered := d.dsp.Filter(c&1, float64(dsp[c]))
			acc[c] += int32(int16(filtered/dspAttenuation)) / 2
		}
		acc[c] += int32(d.pcmBuf[c&1][c>>1]) / 2
	}

	d.pos = 0
	d.dsp.ResetPos()
}

// GetMusicBuffer mixes n stereo samples of synthesizer output into acc
// unchanged and resets the synthesizer's buffer.
func (d *Device) GetMusicBuffer(acc []int32, n int) {
	music := d.synth.Update()
	for c := 0; c < 2*n && c < len(acc) && c < len(music); c++ {
		acc[c] += music[c]
	}
	d.synth.ResetBuffer()
}
