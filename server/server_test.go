package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/mrdg/chordmaker/audio"
	"github.com/mrdg/chordmaker/export"
	"github.com/mrdg/chordmaker/render"
	"github.com/mrdg/chordmaker/session"
	"github.com/mrdg/chordmaker/theory"
)

type recordTarget struct {
	ctx  *audio.OfflineContext
	jobs int
}

func (t *recordTarget) CurrentTime() float64 { return t.ctx.CurrentTime() }

func (t *recordTarget) Schedule(fn func(audio.Context)) {
	t.jobs++
	fn(t.ctx)
}

func newTestServer(t *testing.T, target audio.Target) (*Server, *session.Session) {
	t.Helper()
	opts := session.DefaultOptions()
	opts.BPM = 200
	opts.Bars = 4
	opts.BeatsPerBar = 1
	sess := session.New(opts)
	exp, err := export.New(sess, nil, export.Options{SampleRate: 8000})
	if err != nil {
		t.Fatal(err)
	}
	return New(Config{Session: sess, Exporter: exp, Target: target}), sess
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestChordInfo(t *testing.T) {
	s, _ := newTestServer(t, nil)
	w := do(t, s, "GET", "/api/chords/A/min?inversion=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: want %d, got %d", http.StatusOK, w.Code)
	}
	var info chordInfo
	decodeBody(t, w, &info)

	if want, got := "Am", info.Name; want != got {
		t.Errorf("name: want %q, got %q", want, got)
	}
	if want, got := "vi", info.Numeral; want != got {
		t.Errorf("numeral: want %q, got %q", want, got)
	}
	if want, got := "1st Inv", info.Inversion; want != got {
		t.Errorf("inversion: want %q, got %q", want, got)
	}
	want := []theory.Note{theory.C, theory.E, theory.A}
	if !reflect.DeepEqual(want, info.Notes) {
		t.Errorf("notes: want %v, got %v", want, info.Notes)
	}
	if want, got := 3, len(info.Frequencies); want != got {
		t.Errorf("frequencies: want %d, got %d", want, got)
	}
}

func TestChordInfoErrors(t *testing.T) {
	s, _ := newTestServer(t, nil)
	for _, path := range []string{
		"/api/chords/H/min",
		"/api/chords/C/minor",
		"/api/chords/C/min?inversion=-1",
		"/api/chords/C/min?inversion=x",
	} {
		if w := do(t, s, "GET", path, ""); w.Code != http.StatusBadRequest {
			t.Errorf("%s: want %d, got %d", path, http.StatusBadRequest, w.Code)
		}
	}
}

func TestPlaceAndClear(t *testing.T) {
	target := &recordTarget{ctx: audio.NewOfflineContext(1, 8000, 8000)}
	s, sess := newTestServer(t, target)

	w := do(t, s, "PUT", "/api/session/bars/2", `{"root":"G","type":"7"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("place: want %d, got %d: %s", http.StatusOK, w.Code, w.Body)
	}
	var st session.State
	decodeBody(t, w, &st)
	if want, got := "G7", st.Progression[2].String(); want != got {
		t.Errorf("bar 2: want %q, got %q", want, got)
	}
	if want, got := 1, target.jobs; want != got {
		t.Errorf("previews: want %d, got %d", want, got)
	}

	if w := do(t, s, "PUT", "/api/session/bars/9", `{"root":"G","type":"7"}`); w.Code != http.StatusNotFound {
		t.Errorf("out of range: want %d, got %d", http.StatusNotFound, w.Code)
	}
	if w := do(t, s, "PUT", "/api/session/bars/1", `{"root":"G","type":"nope"}`); w.Code != http.StatusBadRequest {
		t.Errorf("bad type: want %d, got %d", http.StatusBadRequest, w.Code)
	}

	if w := do(t, s, "DELETE", "/api/session/bars/2", ""); w.Code != http.StatusOK {
		t.Fatalf("clear: want %d, got %d", http.StatusOK, w.Code)
	}
	slot, _ := sess.Get(2)
	if !slot.Empty() {
		t.Errorf("bar 2 not cleared: %v", slot)
	}

	w = do(t, s, "POST", "/api/session/undo", "")
	var res historyResult
	decodeBody(t, w, &res)
	if want, got := "Clear Bar", res.Action; want != got {
		t.Errorf("undo: want %q, got %q", want, got)
	}
	if want, got := "G7", res.State.Progression[2].String(); want != got {
		t.Errorf("after undo: want %q, got %q", want, got)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	s, sess := newTestServer(t, nil)
	doc := `{"bpm":90,"key":"E","mode":"Minor","bars":4,"beatsPerBar":4,
		"progression":[{"chord":"E","type":"min","inversion":0,"duration":4},
		{"chord":null,"type":null,"inversion":0,"duration":4},
		{"chord":"B","type":"7","inversion":0,"duration":4},
		{"chord":"C","type":"maj","inversion":0,"duration":4}]}`
	if w := do(t, s, "PUT", "/api/session", doc); w.Code != http.StatusOK {
		t.Fatalf("put: want %d, got %d: %s", http.StatusOK, w.Code, w.Body)
	}
	if want, got := 90.0, sess.Tempo().BPM; want != got {
		t.Errorf("bpm: want %v, got %v", want, got)
	}

	var st session.State
	decodeBody(t, do(t, s, "GET", "/api/session", ""), &st)
	var names []string
	for _, slot := range st.Progression {
		names = append(names, slot.String())
	}
	if want := []string{"Em", "-", "B7", "C"}; !reflect.DeepEqual(want, names) {
		t.Errorf("progression: want %v, got %v", want, names)
	}
	if want, got := theory.E, st.Key; want != got {
		t.Errorf("key: want %v, got %v", want, got)
	}

	if w := do(t, s, "PUT", "/api/session", "{"); w.Code != http.StatusBadRequest {
		t.Errorf("malformed: want %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestPresets(t *testing.T) {
	s, sess := newTestServer(t, nil)
	if w := do(t, s, "POST", "/api/presets/nope", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown preset: want %d, got %d", http.StatusNotFound, w.Code)
	}
	if w := do(t, s, "POST", "/api/presets/I-V-vi-IV", ""); w.Code != http.StatusOK {
		t.Fatalf("preset: want %d, got %d: %s", http.StatusOK, w.Code, w.Body)
	}
	slot, _ := sess.Get(0)
	if want, got := "C", slot.String(); want != got {
		t.Errorf("bar 0: want %q, got %q", want, got)
	}
}

func TestRender(t *testing.T) {
	s, sess := newTestServer(t, nil)
	sess.Place(0, theory.Chord{Root: theory.C, Type: theory.Maj})

	w := do(t, s, "POST", "/api/render?loops=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("render: want %d, got %d: %s", http.StatusOK, w.Code, w.Body)
	}
	if want, got := "audio/wav", w.Header().Get("Content-Type"); want != got {
		t.Errorf("content type: want %q, got %q", want, got)
	}
	h, err := render.ParseHeader(w.Body.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	// 4 bars at 200 BPM and 1 beat per bar, rendered at the exporter's rate.
	if want, got := 9600, h.Frames(); want != got {
		t.Errorf("frames: want %d, got %d", want, got)
	}

	doc := `{"bpm":120,"bars":4,"beatsPerBar":4,"instrument":"Organ",
		"progression":[{"chord":"D","type":"min","inversion":0,"duration":4}]}`
	w = do(t, s, "POST", "/api/render?loops=1", doc)
	if w.Code != http.StatusOK {
		t.Fatalf("render body: want %d, got %d: %s", http.StatusOK, w.Code, w.Body)
	}
	h, err = render.ParseHeader(w.Body.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	// 4 bars of 4 beats at 120 BPM.
	if want, got := 64000, h.Frames(); want != got {
		t.Errorf("body frames: want %d, got %d", want, got)
	}
	if want, got := 200.0, sess.Tempo().BPM; want != got {
		t.Errorf("live session changed: want bpm %v, got %v", want, got)
	}

	for _, loops := range []string{"0", "65", "1073741824", "x"} {
		if w := do(t, s, "POST", "/api/render?loops="+loops, ""); w.Code != http.StatusBadRequest {
			t.Errorf("loops=%s: want %d, got %d", loops, http.StatusBadRequest, w.Code)
		}
	}
	long := `{"bpm":40,"bars":32,"beatsPerBar":4,"progression":[{"chord":"D","type":"min","inversion":0,"duration":4}]}`
	if w := do(t, s, "POST", "/api/render?loops=64", long); w.Code != http.StatusBadRequest {
		t.Errorf("too long: want %d, got %d: %s", http.StatusBadRequest, w.Code, w.Body)
	}
}

func TestRenderDuringExport(t *testing.T) {
	s, sess := newTestServer(t, nil)
	sess.Place(0, theory.Chord{Root: theory.C, Type: theory.Maj})

	release := make(chan struct{})
	done := make(chan error)
	go func() {
		_, err := s.exporter.Export(context.Background(), export.Request{
			Filename: "slow",
			Sink: export.SinkFunc(func(string, string, []byte) error {
				<-release
				return nil
			}),
		})
		done <- err
	}()
	for !s.exporter.Busy() {
		time.Sleep(time.Millisecond)
	}

	if w := do(t, s, "POST", "/api/render?loops=1", ""); w.Code != http.StatusConflict {
		t.Errorf("render: want %d, got %d", http.StatusConflict, w.Code)
	}
	if w := do(t, s, "POST", "/api/exports", `{"filename":"second"}`); w.Code != http.StatusConflict {
		t.Errorf("export: want %d, got %d", http.StatusConflict, w.Code)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if w := do(t, s, "POST", "/api/render?loops=1", ""); w.Code != http.StatusOK {
		t.Errorf("render after export: want %d, got %d", http.StatusOK, w.Code)
	}
}

func TestExportAndDownload(t *testing.T) {
	s, sess := newTestServer(t, nil)
	sess.Place(0, theory.Chord{Root: theory.E, Type: theory.Min})

	w := do(t, s, "POST", "/api/exports", `{"filename":"groove.wav","loops":1}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("export: want %d, got %d: %s", http.StatusCreated, w.Code, w.Body)
	}
	var res struct {
		ID       string  `json:"id"`
		Filename string  `json:"filename"`
		Size     int     `json:"size"`
		Duration float64 `json:"duration"`
		URL      string  `json:"url"`
	}
	decodeBody(t, w, &res)
	if want, got := "groove.wav", res.Filename; want != got {
		t.Errorf("filename: want %q, got %q", want, got)
	}
	if want, got := 1.2, res.Duration; want != got {
		t.Errorf("duration: want %v, got %v", want, got)
	}

	w = do(t, s, "GET", res.URL, "")
	if w.Code != http.StatusOK {
		t.Fatalf("download: want %d, got %d", http.StatusOK, w.Code)
	}
	if want, got := `attachment; filename="groove.wav"`, w.Header().Get("Content-Disposition"); want != got {
		t.Errorf("disposition: want %q, got %q", want, got)
	}
	if want, got := res.Size, w.Body.Len(); want != got {
		t.Errorf("size: want %d, got %d", want, got)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("RIFF")) {
		t.Errorf("download is not a wav file")
	}

	if w := do(t, s, "GET", "/api/exports/missing", ""); w.Code != http.StatusNotFound {
		t.Errorf("missing: want %d, got %d", http.StatusNotFound, w.Code)
	}
	if w := do(t, s, "POST", "/api/exports", `{"filename":"x","format":"mp3"}`); w.Code != http.StatusInternalServerError {
		t.Errorf("mp3 without encoder: want %d, got %d", http.StatusInternalServerError, w.Code)
	}
	if w := do(t, s, "POST", "/api/exports", `{"filename":"x","format":"ogg"}`); w.Code != http.StatusBadRequest {
		t.Errorf("unknown format: want %d, got %d", http.StatusBadRequest, w.Code)
	}
	if w := do(t, s, "POST", "/api/exports", `{"filename":"x","loops":1073741824}`); w.Code != http.StatusBadRequest {
		t.Errorf("too many loops: want %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestNoAudio(t *testing.T) {
	s, _ := newTestServer(t, nil)
	for _, path := range []string{"/api/preview", "/api/play", "/api/stop"} {
		if w := do(t, s, "POST", path, `{"root":"C","type":"maj"}`); w.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: want %d, got %d", path, http.StatusServiceUnavailable, w.Code)
		}
	}
}

func TestCORS(t *testing.T) {
	opts := session.DefaultOptions()
	sess := session.New(opts)
	exp, _ := export.New(sess, nil, export.Options{})
	s := New(Config{Session: sess, Exporter: exp, AllowedOrigins: []string{"http://localhost:3000"}})

	r := httptest.NewRequest("GET", "/api/presets", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)
	if want, got := "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"); want != got {
		t.Errorf("allowed origin: want %q, got %q", want, got)
	}

	r = httptest.NewRequest("GET", "/api/presets", nil)
	r.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	s.ServeHTTP(w, r)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got header %q", got)
	}
}
