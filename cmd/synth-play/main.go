package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cwbudde/algo-monosynth/control"
	"github.com/cwbudde/algo-monosynth/dsp"
	"github.com/cwbudde/algo-monosynth/internal/cliutil"
	"github.com/cwbudde/algo-monosynth/preset"
	"github.com/cwbudde/algo-monosynth/synth"
	"github.com/ebitengine/oto/v3"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

func main() {
	sampleRate := flag.Int("sample-rate", 48000, "Output sample rate in Hz")
	presetPath := flag.String("preset", "", "Preset JSON file path (optional, defaults to the built-in patch)")
	port := flag.String("port", "", "MIDI input name prefix (empty takes the first input)")
	channel := flag.Int("channel", control.Omni, "MIDI channel 0-15 (-1 listens on all)")
	list := flag.Bool("list", false, "List MIDI inputs and exit")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn or error")
	flag.Parse()

	logger, err := cliutil.NewLogger(os.Stderr, *logLevel)
	if err != nil {
		die("invalid -log-level: %v", err)
	}
	if *channel < control.Omni || *channel > 15 {
		die("invalid -channel %d", *channel)
	}

	drv, err := rtmididrv.New()
	if err != nil {
		die("Error opening MIDI driver: %v", err)
	}
	defer drv.Close()

	ins, err := drv.Ins()
	if err != nil {
		die("Error listing MIDI inputs: %v", err)
	}
	if *list {
		for i, in := range ins {
			fmt.Printf("%d: %s\n", i, in.String())
		}
		return
	}
	in, err := pickInput(ins, *port)
	if err != nil {
		die("Error selecting MIDI input: %v", err)
	}

	params := synth.NewDefaultParams()
	if *presetPath != "" {
		params, err = preset.LoadJSON(*presetPath)
		if err != nil {
			die("Error loading preset %q: %v", *presetPath, err)
		}
	}
	s, err := synth.NewMonoSynth(dsp.NewContext(*sampleRate, logger), params)
	if err != nil {
		die("Error applying preset: %v", err)
	}
	st := newStream(s)

	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   *sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		die("Error opening audio device: %v", err)
	}
	<-ready
	player := otoCtx.NewPlayer(st)
	player.Play()
	defer player.Close()

	ctrl := control.NewMidiController(s, *channel, logger)
	if err := in.Open(); err != nil {
		die("Error opening MIDI input %s: %v", in, err)
	}
	defer in.Close()
	stop, err := midi.ListenTo(in, ctrl.Listener(&st.mu))
	if err != nil {
		die("Error listening on %s: %v", in, err)
	}
	defer stop()

	logger.Info("playing", "input", in.String(), "channel", *channel, "sample_rate", *sampleRate)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	st.mu.Lock()
	ctrl.AllOff()
	st.mu.Unlock()
	logger.Info("stopped")
}

// pickInput returns the first input whose name starts with prefix.
func pickInput(ins []drivers.In, prefix string) (drivers.In, error) {
	if len(ins) == 0 {
		return nil, fmt.Errorf("no MIDI inputs found")
	}
	if prefix == "" {
		return ins[0], nil
	}
	for _, in := range ins {
		if strings.HasPrefix(in.String(), prefix) {
			return in, nil
		}
	}
	return nil, fmt.Errorf("no MIDI input matches %q", prefix)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
