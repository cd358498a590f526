package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mrdg/chordmaker/audio"
	"github.com/mrdg/chordmaker/dub"
	"github.com/mrdg/chordmaker/export"
	"github.com/mrdg/chordmaker/playback"
	"github.com/mrdg/chordmaker/progression"
	"github.com/mrdg/chordmaker/session"
	"github.com/mrdg/chordmaker/theory"
)

var errNoAudio = errors.New("no audio output, start with a backend to play")

type env struct {
	ctx   context.Context
	app   *app
	color bool
}

func (e *env) sess() *session.Session { return e.app.session }

func (e *env) eval(input string) (string, error) {
	command, err := dub.Parse(input)
	if err != nil {
		return "", err
	}
	name := string(command.Name)
	cmd, ok := lookup(name)
	if !ok {
		return "", fmt.Errorf("unknown command: %s", name)
	}
	if n := len(command.Args); n < cmd.minArgs || n > cmd.maxArgs {
		return "", fmt.Errorf("%s: wrong number of arguments: usage: %s", cmd.name, cmd.usage)
	}
	result, err := cmd.run(e, command.Args)
	if err != nil {
		return result, fmt.Errorf("%s error: %w", cmd.name, err)
	}
	if cmd.show {
		result = strings.TrimLeft(result+"\n"+e.grid(), "\n")
	}
	return result, nil
}

func (e *env) grid() string {
	playing := playback.Inactive
	if e.app.sched != nil {
		playing = e.app.sched.Bar()
	}
	var b bytes.Buffer
	renderGrid(&b, view{state: e.sess().State(), playing: playing, color: e.color})
	return strings.TrimRight(b.String(), "\n")
}

func (e *env) preview(c theory.Chord) {
	if e.app.context != nil {
		audio.PreviewChord(e.app.context, c, e.sess().Instrument())
	}
}

type command struct {
	name    string
	usage   string
	help    string
	run     func(*env, []dub.Node) (string, error)
	minArgs int
	maxArgs int
	show    bool // print the grid after running
}

var commands []command

func init() {
	commands = []command{
		{"place", "place 'BARS CHORD [INVERSION]", "put a chord in bars", placeCommand, 2, 3, true},
		{"clear", "clear 'BARS", "empty bars", clearCommand, 1, 1, true},
		{"clearall", "clearall", "empty every bar", clearAllCommand, 0, 0, true},
		{"type", "type 'BARS TYPE", "change the chord type of bars", typeCommand, 2, 2, true},
		{"inv", "inv 'BARS N", "change the inversion of bars", inversionCommand, 2, 2, true},
		{"bpm", "bpm N", "set the tempo", bpmCommand, 1, 1, true},
		{"bars", "bars N", "set the number of bars", barsCommand, 1, 1, true},
		{"key", "key NOTE [MODE]", "set the key", keyCommand, 1, 2, true},
		{"mode", "mode major|minor", "set the mode", modeCommand, 1, 1, true},
		{"instrument", "instrument NAME", "select the instrument", instrumentCommand, 1, 1, true},
		{"preset", "preset ID", "load a preset progression", presetCommand, 1, 1, true},
		{"presets", "presets", "list preset progressions", presetsCommand, 0, 0, false},
		{"chords", "chords", "list the chords in the current key", chordsCommand, 0, 0, false},
		{"preview", "preview CHORD", "play a chord once", previewCommand, 1, 1, false},
		{"play", "play", "loop the progression", playCommand, 0, 0, false},
		{"stop", "stop", "stop playback", stopCommand, 0, 0, false},
		{"undo", "undo", "undo the last change", undoCommand, 0, 0, true},
		{"redo", "redo", "redo the last undone change", redoCommand, 0, 0, true},
		{"save", "save FILE", "save the session", saveCommand, 1, 1, false},
		{"load", "load FILE", "load a session", loadCommand, 1, 1, true},
		{"export", "export [NAME] [wav|mp3] [LOOPS]", "render the progression to a file", exportCommand, 0, 3, false},
		{"show", "show", "print the progression", showCommand, 0, 0, true},
		{"help", "help", "list commands", helpCommand, 0, 0, false},
	}
}

func lookup(name string) (command, bool) {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

// bars resolves a selector against the current progression.
func (e *env) bars(sel dub.Selector) ([]int, error) {
	return sel.Bars(e.sess().Len())
}

func placeCommand(env *env, args []dub.Node) (string, error) {
	var sel dub.Selector
	var chord theory.Chord
	var inversion int
	if err := readArgs(args, &sel, &chord, &inversion); err != nil {
		return "", err
	}
	if inversion < 0 {
		return "", fmt.Errorf("invalid inversion %d", inversion)
	}
	chord.Inversion = inversion
	bars, err := env.bars(sel)
	if err != nil {
		return "", err
	}
	for _, bar := range bars {
		if err := env.sess().Place(bar, chord); err != nil {
			return "", err
		}
	}
	env.preview(chord)
	return "", nil
}

func clearCommand(env *env, args []dub.Node) (string, error) {
	var sel dub.Selector
	if err := readArgs(args, &sel); err != nil {
		return "", err
	}
	bars, err := env.bars(sel)
	if err != nil {
		return "", err
	}
	for _, bar := range bars {
		if err := env.sess().Clear(bar); err != nil {
			return "", err
		}
	}
	return "", nil
}

func clearAllCommand(env *env, args []dub.Node) (string, error) {
	env.sess().ClearAll()
	return "", nil
}

// eachOccupied applies f to the selected bars, skipping rests. It fails if
// every selected bar is empty.
func (e *env) eachOccupied(sel dub.Selector, f func(bar int) error) error {
	bars, err := e.bars(sel)
	if err != nil {
		return err
	}
	changed := 0
	for _, bar := range bars {
		err := f(bar)
		if errors.Is(err, session.ErrEmptyBar) {
			continue
		}
		if err != nil {
			return err
		}
		changed++
	}
	if changed == 0 {
		return session.ErrEmptyBar
	}
	return nil
}

func typeCommand(env *env, args []dub.Node) (string, error) {
	var sel dub.Selector
	var symbol string
	if err := readArgs(args, &sel, &symbol); err != nil {
		return "", err
	}
	t, ok := theory.ParseChordType(symbol)
	if !ok {
		return "", fmt.Errorf("unknown chord type %q", symbol)
	}
	return "", env.eachOccupied(sel, func(bar int) error {
		return env.sess().SetType(bar, t)
	})
}

func inversionCommand(env *env, args []dub.Node) (string, error) {
	var sel dub.Selector
	var n int
	if err := readArgs(args, &sel, &n); err != nil {
		return "", err
	}
	if n < 0 {
		return "", fmt.Errorf("invalid inversion %d", n)
	}
	return "", env.eachOccupied(sel, func(bar int) error {
		return env.sess().SetInversion(bar, n)
	})
}

func bpmCommand(env *env, args []dub.Node) (string, error) {
	var bpm float64
	if err := readArgs(args, &bpm); err != nil {
		return "", err
	}
	if got := env.sess().SetBPM(bpm); got != bpm {
		return fmt.Sprintf("tempo limited to %v", got), nil
	}
	return "", nil
}

func barsCommand(env *env, args []dub.Node) (string, error) {
	var n int
	if err := readArgs(args, &n); err != nil {
		return "", err
	}
	if got := env.sess().SetBars(n); got != n {
		return fmt.Sprintf("bar count limited to %d", got), nil
	}
	return "", nil
}

func keyCommand(env *env, args []dub.Node) (string, error) {
	var key theory.Note
	var mode string
	if err := readArgs(args, &key, &mode); err != nil {
		return "", err
	}
	if mode != "" {
		m, ok := theory.ParseMode(mode)
		if !ok {
			return "", fmt.Errorf("unknown mode %q", mode)
		}
		env.sess().SetMode(m)
	}
	env.sess().SetKey(key)
	return "", nil
}

func modeCommand(env *env, args []dub.Node) (string, error) {
	var mode string
	if err := readArgs(args, &mode); err != nil {
		return "", err
	}
	m, ok := theory.ParseMode(mode)
	if !ok {
		return "", fmt.Errorf("unknown mode %q", mode)
	}
	env.sess().SetMode(m)
	return "", nil
}

func instrumentCommand(env *env, args []dub.Node) (string, error) {
	var name string
	if err := readArgs(args, &name); err != nil {
		return "", err
	}
	inst, ok := audio.ParseInstrument(name)
	if !ok {
		var names []string
		for _, i := range audio.Instruments() {
			names = append(names, i.String())
		}
		return "", fmt.Errorf("unknown instrument %q, choose one of %s", name, strings.Join(names, ", "))
	}
	env.sess().SetInstrument(inst)
	return "", nil
}

func presetCommand(env *env, args []dub.Node) (string, error) {
	var id string
	if err := readArgs(args, &id); err != nil {
		return "", err
	}
	p, err := env.sess().LoadPreset(id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("loaded %s", p.Name), nil
}

func presetsCommand(env *env, args []dub.Node) (string, error) {
	var lines []string
	for _, p := range progression.Presets() {
		lines = append(lines, fmt.Sprintf("%-14s %-22s %s", p.ID, p.Name, p.Description))
	}
	return strings.Join(lines, "\n"), nil
}

func chordsCommand(env *env, args []dub.Node) (string, error) {
	key, mode := env.sess().Key()
	var cells []string
	for _, c := range theory.ChordsInKey(key, mode) {
		cells = append(cells, fmt.Sprintf("%s %s", c.Numeral, theory.DisplayName(c.Root, c.Type)))
	}
	return fmt.Sprintf("%s %s: %s", key, mode, strings.Join(cells, "  ")), nil
}

func previewCommand(env *env, args []dub.Node) (string, error) {
	var chord theory.Chord
	if err := readArgs(args, &chord); err != nil {
		return "", err
	}
	if env.app.context == nil {
		return "", errNoAudio
	}
	env.preview(chord)
	return strings.Join(noteNames(chord.Notes()), " "), nil
}

func noteNames(notes []theory.Note) []string {
	names := make([]string, len(notes))
	for i, n := range notes {
		names[i] = n.String()
	}
	return names
}

func playCommand(env *env, args []dub.Node) (string, error) {
	if env.app.sched == nil {
		return "", errNoAudio
	}
	if !env.app.sched.Play() {
		return "already playing", nil
	}
	return "playing", nil
}

func stopCommand(env *env, args []dub.Node) (string, error) {
	if env.app.sched == nil {
		return "", errNoAudio
	}
	env.app.sched.Stop()
	return "stopped", nil
}

func undoCommand(env *env, args []dub.Node) (string, error) {
	action, ok := env.sess().Undo()
	if !ok {
		return "nothing to undo", nil
	}
	return "undid " + action, nil
}

func redoCommand(env *env, args []dub.Node) (string, error) {
	action, ok := env.sess().Redo()
	if !ok {
		return "nothing to redo", nil
	}
	return "redid " + action, nil
}

func saveCommand(env *env, args []dub.Node) (string, error) {
	var path string
	if err := readArgs(args, &path); err != nil {
		return "", err
	}
	if err := session.SaveFile(path, env.sess().State()); err != nil {
		return "", err
	}
	env.sess().MarkClean()
	return "saved " + path, nil
}

func loadCommand(env *env, args []dub.Node) (string, error) {
	var path string
	if err := readArgs(args, &path); err != nil {
		return "", err
	}
	st, err := session.LoadFile(path)
	if err != nil {
		return "", err
	}
	env.sess().Load(st)
	return "loaded " + path, nil
}

func exportCommand(env *env, args []dub.Node) (string, error) {
	var name, format string
	var loops int
	if err := readArgs(args, &name, &format, &loops); err != nil {
		return "", err
	}
	if name == "" {
		name = env.app.exporter.DefaultFilename()
	}
	if format == "" {
		format = env.app.cfg.Export.Format
	}
	if loops == 0 {
		loops = env.app.cfg.Export.Loops
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		return "", err
	}
	res, err := env.app.exportTo(env.ctx, name, f, loops)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("wrote %s (%d bytes, %s)", res.Filename, res.Size,
		progression.FormatDuration(res.Duration)), nil
}

func showCommand(env *env, args []dub.Node) (string, error) {
	return "", nil
}

func helpCommand(env *env, args []dub.Node) (string, error) {
	sorted := append([]command(nil), commands...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].name < sorted[j].name })
	var lines []string
	for _, cmd := range sorted {
		lines = append(lines, fmt.Sprintf("%-34s %s", cmd.usage, cmd.help))
	}
	lines = append(lines, "", "BARS selects bars by number: '3, '1:4, '1,3,5 or '* for all")
	return strings.Join(lines, "\n"), nil
}

// readArgs assigns args to slots in order. Trailing slots without an argument
// keep their values.
func readArgs(args []dub.Node, slots ...interface{}) error {
	if len(args) > len(slots) {
		return errors.New("too many arguments")
	}
	for n, arg := range args {
		dest := slots[n]
		switch p := dest.(type) {
		case *string:
			switch s := arg.(type) {
			case dub.String:
				*p = string(s)
			case dub.Identifier:
				*p = string(s)
			default:
				return fmt.Errorf("argument error: expected a string or identifier")
			}
		case *float64:
			switch v := arg.(type) {
			case dub.Float:
				*p = float64(v)
			case dub.Int:
				*p = float64(v)
			default:
				return fmt.Errorf("argument error: expected a number")
			}
		case *int:
			n, ok := arg.(dub.Int)
			if !ok {
				return fmt.Errorf("argument error: expected an integer")
			}
			*p = int(n)
		case *dub.Selector:
			sel, ok := arg.(dub.Selector)
			if !ok {
				return fmt.Errorf("argument error: expected bars, e.g. '1 or '1:4")
			}
			*p = sel
		case *theory.Chord:
			id, ok := arg.(dub.Identifier)
			if !ok {
				return fmt.Errorf("argument error: expected a chord, e.g. Am7")
			}
			c, ok := theory.ParseChord(string(id))
			if !ok {
				return fmt.Errorf("unknown chord %q", id)
			}
			*p = c
		case *theory.Note:
			id, ok := arg.(dub.Identifier)
			if !ok {
				return fmt.Errorf("argument error: expected a note, e.g. F#")
			}
			note, ok := theory.ParseNote(string(id))
			if !ok {
				return fmt.Errorf("unknown note %q", id)
			}
			*p = note
		default:
			panic("readArgs: unhandled destination type: " + fmt.Sprint(p))
		}
	}
	return nil
}
