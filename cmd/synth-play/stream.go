package main

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/cwbudde/algo-monosynth/synth"
)

// stream renders the synth on demand for the oto player as mono float32
// little-endian frames. mu guards the synth against the MIDI listener.
type stream struct {
	mu    sync.Mutex
	synth *synth.MonoSynth
	buf   []float32
}

func newStream(s *synth.MonoSynth) *stream {
	return &stream{synth: s, buf: make([]float32, 1024)}
}

func (st *stream) Read(p []byte) (int, error) {
	frames := len(p) / 4
	if frames == 0 {
		return 0, nil
	}
	if len(st.buf) < frames {
		st.buf = make([]float32, frames)
	}
	block := st.buf[:frames]

	st.mu.Lock()
	st.synth.ProcessInto(block)
	st.mu.Unlock()

	for i, v := range block {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	return frames * 4, nil
}
