package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/mrdg/chordmaker/audio"
	"github.com/mrdg/chordmaker/playback"
	"github.com/mrdg/chordmaker/render"
)

func newTestEnv(t *testing.T) *env {
	t.Helper()
	cfg := defaultConfig()
	cfg.Export.Dir = t.TempDir()
	cfg.Export.Lame = ""
	cfg.SampleRate = 8000
	cfg.BPM = 200
	cfg.Bars = 4
	cfg.BeatsPerBar = 1
	a, err := newApp(cfg, log.New(io.Discard))
	if err != nil {
		t.Fatal(err)
	}
	return &env{ctx: context.Background(), app: a}
}

func run(t *testing.T, e *env, lines ...string) string {
	t.Helper()
	var out string
	for _, line := range lines {
		res, err := e.eval(line)
		if err != nil {
			t.Fatalf("%s: %v", line, err)
		}
		out = res
	}
	return out
}

func (e *env) names() []string {
	var names []string
	for _, slot := range e.sess().Snapshot() {
		names = append(names, slot.String())
	}
	return names
}

func TestPlaceCommands(t *testing.T) {
	e := newTestEnv(t)
	run(t, e, "place '* C", "place '2 Am7 1", "place '3,4 G7")
	if want, got := []string{"C", "Am7", "G7", "G7"}, e.names(); !reflect.DeepEqual(want, got) {
		t.Errorf("want %v, got %v", want, got)
	}
	slot, _ := e.sess().Get(1)
	if want, got := 1, slot.Chord.Inversion; want != got {
		t.Errorf("inversion: want %d, got %d", want, got)
	}

	run(t, e, "clear '1:2", "type '1:4 min")
	if want, got := []string{"-", "-", "Gm", "Gm"}, e.names(); !reflect.DeepEqual(want, got) {
		t.Errorf("after type: want %v, got %v", want, got)
	}

	run(t, e, "undo", "undo")
	if want, got := []string{"-", "-", "G7", "G7"}, e.names(); !reflect.DeepEqual(want, got) {
		t.Errorf("after undo: want %v, got %v", want, got)
	}
	run(t, e, "clearall")
	if want, got := []string{"-", "-", "-", "-"}, e.names(); !reflect.DeepEqual(want, got) {
		t.Errorf("after clearall: want %v, got %v", want, got)
	}
}

func TestCommandErrors(t *testing.T) {
	e := newTestEnv(t)
	for _, line := range []string{
		"nope",
		"place",
		"place '9 C",
		"place '1 H7",
		"place C '1",
		"type '1 min",
		"type '1 nope",
		"inv '1 -1",
		"key H",
		"mode dorian",
		"instrument kazoo",
		"preset nope",
		"preview C",
		"play",
		"export x ogg",
		"export x mp3",
		"export x wav 1000",
		"load /does/not/exist.yaml",
		"bars 4 5",
	} {
		if _, err := e.eval(line); err == nil {
			t.Errorf("%s: expected error", line)
		}
	}
}

func TestSettingsCommands(t *testing.T) {
	e := newTestEnv(t)
	run(t, e, "key F# minor", "instrument organ", "bpm 90.5")
	key, mode := e.sess().Key()
	if want, got := "F# Minor", key.String()+" "+mode.String(); want != got {
		t.Errorf("key: want %q, got %q", want, got)
	}
	if want, got := audio.Organ, e.sess().Instrument(); want != got {
		t.Errorf("instrument: want %v, got %v", want, got)
	}
	if want, got := 90.5, e.sess().Tempo().BPM; want != got {
		t.Errorf("bpm: want %v, got %v", want, got)
	}
	if out := run(t, e, "bpm 500"); !strings.HasPrefix(out, "tempo limited to 200") {
		t.Errorf("bpm clamp: got %q", out)
	}
	if out := run(t, e, "bars 2"); !strings.HasPrefix(out, "bar count limited to 4") {
		t.Errorf("bars clamp: got %q", out)
	}
	run(t, e, "bars 6")
	if want, got := 6, e.sess().Len(); want != got {
		t.Errorf("bars: want %d, got %d", want, got)
	}
}

func TestPresetCommand(t *testing.T) {
	e := newTestEnv(t)
	run(t, e, "key G", "preset I-V-vi-IV")
	if want, got := []string{"G", "D", "Em", "C"}, e.names(); !reflect.DeepEqual(want, got) {
		t.Errorf("want %v, got %v", want, got)
	}
	run(t, e, "preset 12-bar-blues")
	if want, got := 12, e.sess().Len(); want != got {
		t.Errorf("blues bars: want %d, got %d", want, got)
	}
	if out := run(t, e, "chords"); !strings.Contains(out, "vi Em") {
		t.Errorf("chords in G: got %q", out)
	}
}

func TestSaveLoadCommands(t *testing.T) {
	e := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "song.yaml")
	run(t, e, "place '1 Dm7", `save "`+path+`"`, "clearall", `load "`+path+`"`)
	if want, got := []string{"Dm7", "-", "-", "-"}, e.names(); !reflect.DeepEqual(want, got) {
		t.Errorf("want %v, got %v", want, got)
	}
}

func TestExportCommand(t *testing.T) {
	e := newTestEnv(t)
	run(t, e, "place '1 Em")
	out := run(t, e, "export groove.WAV wav 1")
	if !strings.HasPrefix(out, "wrote groove.wav") {
		t.Errorf("got %q", out)
	}
	data, err := os.ReadFile(filepath.Join(e.app.cfg.Export.Dir, "groove.wav"))
	if err != nil {
		t.Fatal(err)
	}
	h, err := render.ParseHeader(data)
	if err != nil {
		t.Fatal(err)
	}
	// 4 bars of 0.3s at 8000 Hz.
	if want, got := 9600, h.Frames(); want != got {
		t.Errorf("frames: want %d, got %d", want, got)
	}
}

func TestPlayCommands(t *testing.T) {
	e := newTestEnv(t)
	ctx := audio.NewRealtimeContext(8000)
	e.app.context = ctx
	e.app.sched = playback.NewScheduler(e.sess(), ctx, playback.NewTask(), nil)
	defer e.app.sched.Stop()

	run(t, e, "place '1 C")
	if want, got := "playing", run(t, e, "play"); want != got {
		t.Errorf("want %q, got %q", want, got)
	}
	if want, got := "already playing", run(t, e, "play"); want != got {
		t.Errorf("want %q, got %q", want, got)
	}
	if want, got := "stopped", run(t, e, "stop"); want != got {
		t.Errorf("want %q, got %q", want, got)
	}
	if want, got := "C E G", run(t, e, "preview C"); want != got {
		t.Errorf("preview: want %q, got %q", want, got)
	}
}

func TestHelpListsCommands(t *testing.T) {
	e := newTestEnv(t)
	out := run(t, e, "help")
	for _, cmd := range commands {
		if !strings.Contains(out, cmd.usage) {
			t.Errorf("help is missing %s", cmd.name)
		}
	}
}
