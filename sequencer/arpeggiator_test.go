package sequencer

import (
	"errors"
	"reflect"
	"testing"

	"github.com/cwbudde/algo-monosynth/dsp"
	"github.com/cwbudde/algo-monosynth/synth"
)

func TestArpeggiatorModes(t *testing.T) {
	cases := []struct {
		mode    Mode
		octaves int
		want    []int
	}{
		{ModeUp, 1, []int{60, 64, 67}},
		{ModeDown, 1, []int{67, 64, 60}},
		{ModeUpDown, 1, []int{60, 64, 67, 64}},
		{ModeUp, 2, []int{60, 64, 67, 72, 76, 79}},
	}
	for _, tc := range cases {
		t.Run(tc.mode.String(), func(t *testing.T) {
			a := NewArpeggiator(nil)
			a.SetMode(tc.mode)
			if err := a.SetOctaves(tc.octaves); err != nil {
				t.Fatal(err)
			}
			for _, k := range []int{67, 60, 64} {
				if err := a.NoteOn(k); err != nil {
					t.Fatal(err)
				}
			}
			if got := a.Notes(); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("notes: got=%v want=%v", got, tc.want)
			}
		})
	}
}

func TestArpeggiatorHeldKeys(t *testing.T) {
	a := NewArpeggiator(nil)
	for _, k := range []int{60, 62, 64, 65, 67} {
		_ = a.NoteOn(k)
	}
	if got := a.HeldKeys(); !reflect.DeepEqual(got, []int{62, 64, 65, 67}) {
		t.Fatalf("held keys: got=%v", got)
	}
	_ = a.NoteOn(64)
	a.NoteOff(65)
	if got := a.HeldKeys(); !reflect.DeepEqual(got, []int{62, 64, 67}) {
		t.Fatalf("held keys after off: got=%v", got)
	}
	if err := a.NoteOn(128); !errors.Is(err, synth.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestArpeggiatorRejectsOutOfRange(t *testing.T) {
	a := NewArpeggiator(nil)
	for _, err := range []error{
		a.SetTempo(10),
		a.SetTempo(301),
		a.SetOctaves(0),
		a.SetOctaves(5),
		a.SetMinKeys(5),
	} {
		if !errors.Is(err, synth.ErrOutOfRange) {
			t.Fatalf("expected ErrOutOfRange, got %v", err)
		}
	}
	if a.Tempo() != DefaultArpTempo || a.Octaves() != 1 || a.MinKeys() != 1 {
		t.Fatal("rejected setters changed the arpeggiator")
	}
}

func TestArpeggiatorPlaysOnSixteenths(t *testing.T) {
	ctx := dsp.NewContext(testRate, nil)
	rec := &recorder{ctx: ctx}
	a := NewArpeggiator(rec)
	_ = a.SetTempo(240)
	_ = a.SetMinKeys(2)

	_ = a.NoteOn(69)
	run(ctx, a, 1000)
	if len(rec.notes) != 0 {
		t.Fatal("played below the key threshold")
	}

	_ = a.NoteOn(57)
	start := ctx.Frame()
	run(ctx, a, 3*3000+1)
	want := []stepCall{
		{start, 3, 9, 0.0625},
		{start + 3000, 4, 9, 0.0625},
		{start + 6000, 3, 9, 0.0625},
		{start + 9000, 4, 9, 0.0625},
	}
	if !reflect.DeepEqual(rec.notes, want) {
		t.Fatalf("notes: got=%+v want=%+v", rec.notes, want)
	}

	a.NoteOff(57)
	n := len(rec.notes)
	run(ctx, a, 6000)
	if len(rec.notes) != n {
		t.Fatal("kept playing after keys were released")
	}
}

func TestParseMode(t *testing.T) {
	if m, ok := ParseMode("updown"); !ok || m != ModeUpDown {
		t.Fatal("parse updown")
	}
	if _, ok := ParseMode("random"); ok {
		t.Fatal("random accepted")
	}
}
