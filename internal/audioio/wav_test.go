package audioio

import (
	"math"
	"path/filepath"
	"testing"
)

func TestWriteReadMonoRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sine.wav")
	const sr = 8000
	in := make([]float32, sr/10)
	for i := range in {
		in[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/sr))
	}
	if err := WriteMonoWAV(path, in, sr); err != nil {
		t.Fatalf("WriteMonoWAV: %v", err)
	}
	out, rate, err := ReadWAVMono(path)
	if err != nil {
		t.Fatalf("ReadWAVMono: %v", err)
	}
	if rate != sr {
		t.Fatalf("unexpected rate: got=%d want=%d", rate, sr)
	}
	if len(out) != len(in) {
		t.Fatalf("unexpected length: got=%d want=%d", len(out), len(in))
	}
	for i := range in {
		if math.Abs(out[i]-float64(in[i])) > 1e-3 {
			t.Fatalf("sample %d: got=%f want=%f", i, out[i], in[i])
		}
	}
}

func TestStereoWriteAveragesOnMonoRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	left := []float32{0.5, 0.5, 0.5, 0.5}
	right := []float32{-0.5, 0.25, 0, 0.5}
	if err := WriteStereoWAVLR(path, left, right, 8000); err != nil {
		t.Fatalf("WriteStereoWAVLR: %v", err)
	}
	chans, _, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV: %v", err)
	}
	if len(chans) != 2 {
		t.Fatalf("unexpected channel count: got=%d want=2", len(chans))
	}
	mono, _, err := ReadWAVMono(path)
	if err != nil {
		t.Fatalf("ReadWAVMono: %v", err)
	}
	for i := range mono {
		want := 0.5 * float64(left[i]+right[i])
		if math.Abs(mono[i]-want) > 1e-3 {
			t.Fatalf("frame %d: got=%f want=%f", i, mono[i], want)
		}
	}
}

func TestStats(t *testing.T) {
	peak, rms := Stats([]float32{1, -1, 1, -1})
	if peak != 1 || math.Abs(rms-1) > 1e-12 {
		t.Fatalf("unexpected stats: peak=%f rms=%f", peak, rms)
	}
	if p, r := Stats(nil); p != 0 || r != 0 {
		t.Fatalf("empty stats should be zero: peak=%f rms=%f", p, r)
	}
}

func TestResampleIdentity(t *testing.T) {
	in := []float64{1, 2, 3}
	out, err := ResampleIfNeeded(in, 48000, 48000)
	if err != nil {
		t.Fatalf("ResampleIfNeeded: %v", err)
	}
	if &out[0] != &in[0] {
		t.Fatalf("same-rate resample should return the input slice")
	}
}
