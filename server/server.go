// Package server exposes the document, previews and exports over HTTP for a
// browser front end.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/mrdg/chordmaker/audio"
	"github.com/mrdg/chordmaker/export"
	"github.com/mrdg/chordmaker/playback"
	"github.com/mrdg/chordmaker/progression"
	"github.com/mrdg/chordmaker/render"
	"github.com/mrdg/chordmaker/session"
	"github.com/mrdg/chordmaker/theory"
	"github.com/rs/cors"
)

const maxStoredExports = 16

type Config struct {
	Session  *session.Session
	Exporter *export.Exporter

	// Target and Scheduler are optional. Without them preview and playback
	// requests fail with 503.
	Target    audio.Target
	Scheduler *playback.Scheduler

	AllowedOrigins []string
	Logger         *log.Logger
}

type Server struct {
	sess     *session.Session
	exporter *export.Exporter
	target   audio.Target
	sched    *playback.Scheduler
	exports  *store
	logger   *log.Logger
	handler  http.Handler
}

func New(cfg Config) *Server {
	s := &Server{
		sess:     cfg.Session,
		exporter: cfg.Exporter,
		target:   cfg.Target,
		sched:    cfg.Scheduler,
		exports:  newStore(maxStoredExports),
		logger:   cfg.Logger,
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}

	router := mux.NewRouter().StrictSlash(true)
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/catalog", s.handleCatalog).Methods("GET")
	api.HandleFunc("/chords/{root}/{type}", s.handleChord).Methods("GET")
	api.HandleFunc("/presets", s.handlePresets).Methods("GET")
	api.HandleFunc("/presets/{id}", s.handleLoadPreset).Methods("POST")
	api.HandleFunc("/session", s.handleGetSession).Methods("GET")
	api.HandleFunc("/session", s.handlePutSession).Methods("PUT")
	api.HandleFunc("/session/bars/{bar:[0-9]+}", s.handlePlace).Methods("PUT")
	api.HandleFunc("/session/bars/{bar:[0-9]+}", s.handleClear).Methods("DELETE")
	api.HandleFunc("/session/undo", s.handleUndo).Methods("POST")
	api.HandleFunc("/session/redo", s.handleRedo).Methods("POST")
	api.HandleFunc("/preview", s.handlePreview).Methods("POST")
	api.HandleFunc("/play", s.handlePlay).Methods("POST")
	api.HandleFunc("/stop", s.handleStop).Methods("POST")
	api.HandleFunc("/render", s.handleRender).Methods("POST")
	api.HandleFunc("/exports", s.handleExport).Methods("POST")
	api.HandleFunc("/exports/{id}", s.handleDownload).Methods("GET")

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.handler = cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		ExposedHeaders: []string{"Content-Disposition"},
	}).Handler(router)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{err.Error()})
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

type chordInfo struct {
	Name        string        `json:"name"`
	Root        theory.Note   `json:"root"`
	Type        string        `json:"type"`
	TypeName    string        `json:"typeName"`
	Inversion   string        `json:"inversion"`
	Notes       []theory.Note `json:"notes"`
	Frequencies []float64     `json:"frequencies"`
	Numeral     string        `json:"numeral,omitempty"`
}

func (s *Server) describe(c theory.Chord) chordInfo {
	key, mode := s.sess.Key()
	return chordInfo{
		Name:        c.String(),
		Root:        c.Root,
		Type:        c.Type.Symbol(),
		TypeName:    c.Type.Name(),
		Inversion:   theory.InversionName(c.Inversion),
		Notes:       c.Notes(),
		Frequencies: c.Frequencies(audio.BaseOctave),
		Numeral:     theory.Numeral(c.Root, c.Type, key, mode),
	}
}

type catalog struct {
	Notes       []theory.Note          `json:"notes"`
	ChordTypes  []theory.ChordType     `json:"chordTypes"`
	Instruments []audio.Instrument     `json:"instruments"`
	Diatonic    []theory.DiatonicChord `json:"diatonic"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	key, mode := s.sess.Key()
	writeJSON(w, http.StatusOK, catalog{
		Notes:       theory.AllNotes(),
		ChordTypes:  theory.ChordTypes(),
		Instruments: audio.Instruments(),
		Diatonic:    theory.ChordsInKey(key, mode),
	})
}

// parseChord reads a chord from route variables and the inversion query
// parameter.
func parseChord(r *http.Request) (theory.Chord, error) {
	vars := mux.Vars(r)
	root, ok := theory.ParseNote(vars["root"])
	if !ok {
		return theory.Chord{}, fmt.Errorf("unknown root %q", vars["root"])
	}
	typ, ok := theory.ParseChordType(vars["type"])
	if !ok {
		return theory.Chord{}, fmt.Errorf("unknown chord type %q", vars["type"])
	}
	c := theory.Chord{Root: root, Type: typ}
	if inv := r.URL.Query().Get("inversion"); inv != "" {
		n, err := strconv.Atoi(inv)
		if err != nil || n < 0 {
			return theory.Chord{}, fmt.Errorf("invalid inversion %q", inv)
		}
		c.Inversion = n
	}
	return c, nil
}

func (s *Server) handleChord(w http.ResponseWriter, r *http.Request) {
	c, err := parseChord(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.describe(c))
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, progression.Presets())
}

func (s *Server) handleLoadPreset(w http.ResponseWriter, r *http.Request) {
	if _, err := s.sess.LoadPreset(mux.Vars(r)["id"]); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.State())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.State())
}

func (s *Server) handlePutSession(w http.ResponseWriter, r *http.Request) {
	var st session.State
	if err := decode(r, &st); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.sess.Load(st)
	writeJSON(w, http.StatusOK, s.sess.State())
}

func barIndex(r *http.Request) int {
	// The route only matches digits.
	n, _ := strconv.Atoi(mux.Vars(r)["bar"])
	return n
}

type chordBody struct {
	Root      theory.Note      `json:"root"`
	Type      theory.ChordType `json:"type"`
	Inversion int              `json:"inversion"`
}

func (b chordBody) chord() (theory.Chord, error) {
	if !b.Root.Valid() {
		return theory.Chord{}, errors.New("unknown root")
	}
	return theory.Chord{Root: b.Root, Type: b.Type, Inversion: max(b.Inversion, 0)}, nil
}

func (s *Server) readChord(w http.ResponseWriter, r *http.Request) (theory.Chord, bool) {
	var body chordBody
	err := decode(r, &body)
	var c theory.Chord
	if err == nil {
		c, err = body.chord()
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return c, false
	}
	return c, true
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	c, ok := s.readChord(w, r)
	if !ok {
		return
	}
	if err := s.sess.Place(barIndex(r), c); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if s.target != nil {
		audio.PreviewChord(s.target, c, s.sess.Instrument())
	}
	writeJSON(w, http.StatusOK, s.sess.State())
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.sess.Clear(barIndex(r)); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.State())
}

type historyResult struct {
	Action string        `json:"action,omitempty"`
	State  session.State `json:"state"`
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	action, _ := s.sess.Undo()
	writeJSON(w, http.StatusOK, historyResult{action, s.sess.State()})
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	action, _ := s.sess.Redo()
	writeJSON(w, http.StatusOK, historyResult{action, s.sess.State()})
}

var errNoAudio = errors.New("no audio output")

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if s.target == nil {
		writeError(w, http.StatusServiceUnavailable, errNoAudio)
		return
	}
	c, ok := s.readChord(w, r)
	if !ok {
		return
	}
	audio.PreviewChord(s.target, c, s.sess.Instrument())
	writeJSON(w, http.StatusOK, s.describe(c))
}

type playState struct {
	State string `json:"state"`
	Bar   int    `json:"bar"`
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	if s.sched == nil {
		writeError(w, http.StatusServiceUnavailable, errNoAudio)
		return
	}
	s.sched.Play()
	writeJSON(w, http.StatusOK, playState{s.sched.State().String(), s.sched.Bar()})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if s.sched == nil {
		writeError(w, http.StatusServiceUnavailable, errNoAudio)
		return
	}
	s.sched.Stop()
	writeJSON(w, http.StatusOK, playState{s.sched.State().String(), s.sched.Bar()})
}

func loops(r *http.Request) (int, error) {
	v := r.URL.Query().Get("loops")
	if v == "" {
		return export.DefaultLoops, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > render.MaxLoops {
		return 0, fmt.Errorf("invalid loop count %q, want 1-%d", v, render.MaxLoops)
	}
	return n, nil
}

// handleRender returns a document as a wav file without storing it. The
// document is read from the request body, or is the live one if the body is
// empty. It is rejected while an export is running.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	n, err := loops(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	doc := s.sess
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(bytes.TrimSpace(body)) > 0 {
		var st session.State
		if err := json.Unmarshal(body, &st); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
		doc = session.FromState(st)
	}
	buf, err := s.exporter.Render(r.Context(), doc, n)
	switch {
	case errors.Is(err, export.ErrInProgress):
		writeError(w, http.StatusConflict, err)
		return
	case errors.Is(err, render.ErrTooLong):
		writeError(w, http.StatusBadRequest, err)
		return
	case errors.Is(err, render.ErrEmptyRender):
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	data := render.EncodeWAV(buf)
	w.Header().Set("Content-Type", export.WAV.MIMEType())
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

type exportBody struct {
	Filename string `json:"filename"`
	Format   string `json:"format"`
	Loops    int    `json:"loops"`
}

type exportResult struct {
	*file
	Duration float64 `json:"duration"`
	URL      string  `json:"url"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var body exportBody
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	format, err := export.ParseFormat(body.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.Filename == "" {
		body.Filename = s.exporter.DefaultFilename()
	}

	var stored *file
	res, err := s.exporter.Export(r.Context(), export.Request{
		Filename: body.Filename,
		Format:   format,
		Loops:    body.Loops,
		Sink: export.SinkFunc(func(name, mimeType string, data []byte) error {
			stored = s.exports.put(name, mimeType, data)
			return nil
		}),
	})
	switch {
	case errors.Is(err, export.ErrInProgress):
		writeError(w, http.StatusConflict, err)
		return
	case errors.Is(err, render.ErrTooLong):
		writeError(w, http.StatusBadRequest, err)
		return
	case errors.Is(err, export.ErrEmptyFilename), errors.Is(err, render.ErrEmptyRender):
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, exportResult{
		file:     stored,
		Duration: res.Duration,
		URL:      "/api/exports/" + stored.ID,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	f, ok := s.exports.get(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("export not found"))
		return
	}
	w.Header().Set("Content-Type", f.MIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(len(f.data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Name))
	w.Write(f.data)
}
