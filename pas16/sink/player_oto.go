//go:build !headless

package sink

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// Player streams queued frames to the default audio device.
type Player struct {
	*Ring

	ctx    *oto.Context
	player *oto.Player
	mu     sync.Mutex
}

// Open starts playback at sampleRate with room for latency stereo frames
// of queued audio.
func Open(sampleRate, latency int) (*Player, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("sink: %w", err)
	}
	<-ready

	p := &Player{Ring: NewRing(latency), ctx: ctx}
	p.player = ctx.NewPlayer(p.Ring)
	p.player.Play()
	slog.Debug("audio playback started", "rate", sampleRate, "latency", latency)
	return p, nil
}

// Close stops playback.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.player == nil {
		return nil
	}
	err := p.player.Close()
	p.player = nil
	slog.Debug("audio playback stopped", "underruns", p.Underruns(), "dropped", p.Dropped())
	if err != nil {
		return fmt.Errorf("sink: %w", err)
	}
	return nil
}
