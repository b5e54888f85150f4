// Package sink plays the mixed output live.
package sink

import "sync"

// Ring is a stereo 16-bit frame queue between the emulation goroutine,
// which writes whole periods, and the audio device, which reads bytes.
type Ring struct {
	mu        sync.Mutex
	buf       []int16
	head      int // next sample to read
	size      int // samples queued
	underruns uint64
	dropped   uint64
}

// NewRing creates a queue holding up to frames stereo frames.
func NewRing(frames int) *Ring {
	return &Ring{buf: make([]int16, 2*frames)}
}

// Write queues interleaved samples. When the queue is full the oldest
// samples are dropped.
func (r *Ring) Write(samples []int16) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, v := range samples {
		if r.size == len(r.buf) {
			r.head = (r.head + 1) % len(r.buf)
			r.size--
			r.dropped++
		}
		r.buf[(r.head+r.size)%len(r.buf)] = v
		r.size++
	}
}

// Read fills p with signed 16-bit little-endian samples. Missing samples
// are zero, so the device always gets a full buffer.
func (r *Ring) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	short := false
	for i := 0; i+1 < len(p); i += 2 {
		var v int16
		if r.size > 0 {
			v = r.buf[r.head]
			r.head = (r.head + 1) % len(r.buf)
			r.size--
		} else {
			short = true
		}
		p[i] = byte(v)
		p[i+1] = byte(uint16(v) >> 8)
	}
	if short {
		r.underruns++
	}
	return len(p), nil
}

// Buffered returns the number of queued stereo frames.
func (r *Ring) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size / 2
}

// Underruns returns how many reads ran out of samples.
func (r *Ring) Underruns() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.underruns
}

// Dropped returns how many samples were discarded on overflow.
func (r *Ring) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
