package session

import (
	"bytes"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mrdg/chordmaker/audio"
	"github.com/mrdg/chordmaker/theory"
)

var am = theory.Chord{Root: theory.A, Type: theory.Min}

func TestUndoRedo(t *testing.T) {
	s := New(DefaultOptions())
	before := s.State()

	if err := s.Place(0, am); err != nil {
		t.Fatal(err)
	}
	after := s.State()
	if !s.Dirty() {
		t.Errorf("expected session to be dirty")
	}

	action, ok := s.Undo()
	if !ok || action != "Place Chord" {
		t.Errorf("want Place Chord true, got %v %v", action, ok)
	}
	if !reflect.DeepEqual(before, s.State()) {
		t.Errorf("undo: want %+v, got %+v", before, s.State())
	}

	if _, ok := s.Redo(); !ok {
		t.Fatalf("nothing to redo")
	}
	if !reflect.DeepEqual(after, s.State()) {
		t.Errorf("redo: want %+v, got %+v", after, s.State())
	}
	if _, ok := s.Redo(); ok {
		t.Errorf("redo stack should be empty")
	}
}

func TestNewActionClearsRedo(t *testing.T) {
	s := New(DefaultOptions())
	s.Place(0, am)
	s.Undo()
	if !s.CanRedo() {
		t.Fatalf("expected redo")
	}
	s.Clear(1)
	if s.CanRedo() {
		t.Errorf("new action should clear redo")
	}
}

func TestHistoryIsBounded(t *testing.T) {
	s := New(DefaultOptions())
	for i := 0; i < maxHistory+10; i++ {
		s.Place(i%s.Len(), am)
	}
	n := 0
	for s.CanUndo() {
		s.Undo()
		n++
	}
	if want, got := maxHistory, n; want != got {
		t.Errorf("want %v undo steps, got %v", want, got)
	}
}

func TestFailedChangeLeavesNoHistory(t *testing.T) {
	s := New(DefaultOptions())
	if err := s.Place(99, am); err == nil {
		t.Errorf("expected error")
	}
	if err := s.SetType(0, theory.Min7); err != ErrEmptyBar {
		t.Errorf("want ErrEmptyBar, got %v", err)
	}
	if s.CanUndo() || s.Dirty() {
		t.Errorf("failed changes should not be recorded")
	}
}

func TestClamping(t *testing.T) {
	s := New(DefaultOptions())
	if want, got := 200.0, s.SetBPM(500); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
	if want, got := 4, s.SetBars(1); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
	if want, got := 32, s.SetBars(64); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
	if want, got := 32, s.Len(); want != got {
		t.Errorf("want %v bars, got %v", want, got)
	}
}

func TestStateRoundTrip(t *testing.T) {
	s := New(DefaultOptions())
	s.SetKey(theory.D)
	s.SetMode(theory.Minor)
	s.SetInstrument(audio.Strings)
	s.SetBPM(120)
	if _, err := s.LoadPreset("i-VI-III-VII"); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteState(&buf, s.State()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `version: "1.0"`) {
		t.Errorf("missing version:\n%s", buf.String())
	}
	st, err := ReadState(&buf)
	if err != nil {
		t.Fatal(err)
	}
	loaded := FromState(st)
	if !reflect.DeepEqual(s.State(), loaded.State()) {
		t.Errorf("want %+v, got %+v", s.State(), loaded.State())
	}
	if loaded.Dirty() {
		t.Errorf("loaded session should be clean")
	}
}

func TestReadStatePartial(t *testing.T) {
	doc := `
bpm: 90
key: E
progression:
  - {chord: E, type: min, inversion: 0, duration: 4}
  - {chord: null, type: null, inversion: 0, duration: 4}
  - {chord: B, type: "7", inversion: 1, duration: 4}
  - {chord: C, type: maj, inversion: 0, duration: 4}
`
	st, err := ReadState(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	s := FromState(st)
	if want, got := 90.0, s.Tempo().BPM; want != got {
		t.Errorf("want %v, got %v", want, got)
	}
	if want, got := 4, s.Tempo().BeatsPerBar; want != got {
		t.Errorf("want %v, got %v", want, got)
	}
	var names []string
	for _, slot := range s.Snapshot() {
		names = append(names, slot.String())
	}
	if want := []string{"Em", "-", "B7", "C"}; !reflect.DeepEqual(want, names) {
		t.Errorf("want %v, got %v", want, names)
	}
	if want, got := audio.Piano, s.Instrument(); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
}

func TestAutosave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	s := New(DefaultOptions())
	a := NewAutosave(s, path, 10*time.Millisecond, nil)

	s.Place(0, am)
	s.Place(1, am)

	select {
	case <-a.Saved():
	case <-time.After(2 * time.Second):
		t.Fatal("autosave did not run")
	}
	if s.Dirty() {
		t.Errorf("session should be clean after save")
	}
	st, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want, got := "Am", st.Progression[1].String(); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
	if tmp, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp")); len(tmp) > 0 {
		t.Errorf("temporary files left behind: %v", tmp)
	}
}

func TestTakeDirtyState(t *testing.T) {
	s := New(DefaultOptions())
	if _, ok := s.TakeDirtyState(); ok {
		t.Errorf("new session should not be dirty")
	}
	s.Place(2, am)
	st, ok := s.TakeDirtyState()
	if !ok {
		t.Fatal("expected unsaved changes")
	}
	if want, got := "Am", st.Progression[2].String(); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
	if s.Dirty() {
		t.Errorf("session should be clean after taking its state")
	}
	if _, ok := s.TakeDirtyState(); ok {
		t.Errorf("state should only be taken once per change")
	}
}

func TestAutosaveFailureKeepsChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "session.yaml")
	s := New(DefaultOptions())
	a := NewAutosave(s, path, time.Hour, nil)

	s.Place(0, am)
	if err := a.Flush(); err == nil {
		t.Fatal("expected error writing to a missing directory")
	}
	if !s.Dirty() {
		t.Errorf("failed save should leave the session dirty")
	}
}

func TestAutosaveConcurrentFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	s := New(DefaultOptions())
	a := NewAutosave(s, path, time.Hour, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Place(i%s.Len(), am)
			if err := a.Flush(); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()
	if err := a.Flush(); err != nil {
		t.Fatal(err)
	}
	if s.Dirty() {
		t.Errorf("session should be clean after the last flush")
	}
	st, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want, got := s.State(), FromState(st).State(); !reflect.DeepEqual(want, got) {
		t.Errorf("saved state differs from session:\nwant %+v\ngot  %+v", want, got)
	}
}
