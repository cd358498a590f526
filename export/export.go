// Package export renders the current progression to a file, one export at a
// time.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"text/template"
	"time"

	"github.com/Masterminds/sprig"
	"github.com/charmbracelet/log"
	"github.com/mrdg/chordmaker/audio"
	"github.com/mrdg/chordmaker/progression"
	"github.com/mrdg/chordmaker/render"
	"github.com/mrdg/chordmaker/theory"
)

const (
	DefaultLoops            = 2
	DefaultFilenameTemplate = "Chords_{{.Key}}_{{.Mode}}_{{.Unix}}"
)

var (
	ErrInProgress    = errors.New("export already in progress")
	ErrEmptyFilename = errors.New("empty filename")
	ErrNoEncoder     = errors.New("no mp3 encoder configured")
	errNoSink        = errors.New("no export destination")
)

// Source is the document being exported.
type Source interface {
	Snapshot() []progression.Slot
	Tempo() progression.Tempo
	Instrument() audio.Instrument
	Key() (theory.Note, theory.Mode)
}

type Level int

const (
	Info Level = iota
	Success
	Error
)

func (l Level) String() string {
	switch l {
	case Success:
		return "success"
	case Error:
		return "error"
	}
	return "info"
}

// Notice is a message for the user about the progress of an export.
type Notice struct {
	Level   Level
	Message string
}

type Request struct {
	Filename string
	Format   Format
	Loops    int

	// Sink overrides the exporter's sink for this request.
	Sink Sink
}

type Result struct {
	Filename string
	Format   Format
	Size     int
	Duration float64
}

type Options struct {
	// Encoder produces mp3 output. Without it mp3 exports fail.
	Encoder          render.EncoderFactory
	FilenameTemplate string
	SampleRate       float64
	Notify           func(Notice)
	Logger           *log.Logger
}

type Exporter struct {
	src     Source
	sink    Sink
	encoder render.EncoderFactory
	name    *template.Template
	rate    float64
	notify  func(Notice)
	logger  *log.Logger
	busy    atomic.Bool
	now     func() time.Time
}

func New(src Source, sink Sink, opts Options) (*Exporter, error) {
	tpl := opts.FilenameTemplate
	if tpl == "" {
		tpl = DefaultFilenameTemplate
	}
	name, err := template.New("filename").Funcs(sprig.TxtFuncMap()).Parse(tpl)
	if err != nil {
		return nil, fmt.Errorf("invalid filename template: %w", err)
	}
	e := &Exporter{
		src:     src,
		sink:    sink,
		encoder: opts.Encoder,
		name:    name,
		rate:    opts.SampleRate,
		notify:  opts.Notify,
		logger:  opts.Logger,
		now:     time.Now,
	}
	if e.notify == nil {
		e.notify = func(Notice) {}
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard)
	}
	return e, nil
}

type filenameData struct {
	Key        string
	Mode       string
	Instrument string
	BPM        float64
	Unix       int64 // milliseconds
	Time       time.Time
}

// DefaultFilename suggests a filename for the current document.
func (e *Exporter) DefaultFilename() string {
	key, mode := e.src.Key()
	now := e.now()
	data := filenameData{
		Key:        key.String(),
		Mode:       mode.String(),
		Instrument: e.src.Instrument().String(),
		BPM:        e.src.Tempo().BPM,
		Unix:       now.UnixMilli(),
		Time:       now,
	}
	var b strings.Builder
	if err := e.name.Execute(&b, data); err != nil {
		e.logger.Warn("filename template", "err", err)
		return fmt.Sprintf("Chords_%s_%s_%d", data.Key, data.Mode, data.Unix)
	}
	return b.String()
}

// Busy reports whether an export is running.
func (e *Exporter) Busy() bool { return e.busy.Load() }

// Export renders a snapshot of the document and delivers it to the sink.
// A second export while one is running is rejected with ErrInProgress.
func (e *Exporter) Export(ctx context.Context, req Request) (Result, error) {
	if !e.busy.CompareAndSwap(false, true) {
		e.notify(Notice{Info, "Export already in progress..."})
		return Result{}, ErrInProgress
	}
	defer e.busy.Store(false)

	name := strings.TrimSpace(req.Filename)
	if name == "" {
		e.notify(Notice{Error, "Please enter a filename"})
		return Result{}, ErrEmptyFilename
	}
	format := req.Format
	if format == "" {
		format = WAV
	}
	loops := req.Loops
	if loops <= 0 {
		loops = DefaultLoops
	}

	sink := req.Sink
	if sink == nil {
		sink = e.sink
	}
	res, err := e.export(ctx, sink, name, format, loops)
	if err != nil {
		e.logger.Error("export failed", "file", name, "err", err)
		e.notify(Notice{Error, "Export failed: " + err.Error()})
		return Result{}, err
	}
	e.logger.Info("exported", "file", res.Filename, "bytes", res.Size, "duration", res.Duration)
	e.notify(Notice{Success, fmt.Sprintf("Progression exported as %s!", strings.ToUpper(string(format)))})
	return res, nil
}

// Render renders src without encoding or delivering it. It shares the
// guard with Export, so it fails with ErrInProgress while either is running.
func (e *Exporter) Render(ctx context.Context, src Source, loops int) (*audio.Buffer, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return nil, ErrInProgress
	}
	defer e.busy.Store(false)
	if loops <= 0 {
		loops = DefaultLoops
	}
	return e.render(ctx, src, loops)
}

func (e *Exporter) render(ctx context.Context, src Source, loops int) (*audio.Buffer, error) {
	job := render.Job{
		Slots:      src.Snapshot(),
		Tempo:      src.Tempo(),
		Loops:      loops,
		Instrument: src.Instrument(),
		SampleRate: e.rate,
	}
	start := time.Now()
	buf, err := render.Render(ctx, job)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("rendered", "frames", buf.Len(), "peak", render.Peak(buf), "took", time.Since(start))
	return buf, nil
}

func (e *Exporter) export(ctx context.Context, sink Sink, name string, format Format, loops int) (Result, error) {
	if sink == nil {
		return Result{}, errNoSink
	}
	if format == MP3 && e.encoder == nil {
		return Result{}, ErrNoEncoder
	}
	if loops > render.MaxLoops {
		return Result{}, render.ErrTooLong
	}

	e.notify(Notice{Info, "Rendering audio..."})
	buf, err := e.render(ctx, e.src, loops)
	if err != nil {
		return Result{}, err
	}

	data := render.EncodeWAV(buf)
	if format == MP3 {
		e.notify(Notice{Info, "Converting to MP3..."})
		if data, err = render.EncodeLossy(data, e.encoder); err != nil {
			return Result{}, err
		}
	}

	filename := format.Filename(name)
	if err := sink.Deliver(filename, format.MIMEType(), data); err != nil {
		return Result{}, err
	}
	return Result{
		Filename: filename,
		Format:   format,
		Size:     len(data),
		Duration: buf.Duration(),
	}, nil
}
