package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/mrdg/chordmaker/audio"
	"github.com/mrdg/chordmaker/export"
	"github.com/mrdg/chordmaker/playback"
	"github.com/mrdg/chordmaker/render"
	"github.com/mrdg/chordmaker/session"
)

// app holds the live document and everything that acts on it.
type app struct {
	cfg      Config
	logger   *log.Logger
	session  *session.Session
	exporter *export.Exporter
	autosave *session.Autosave

	// Realtime parts, nil when running without audio output.
	context *audio.RealtimeContext
	sink    audio.Sink
	sched   *playback.Scheduler

	notices chan export.Notice
}

// newApp builds the document from the config, loading the autosave file if
// one exists.
func newApp(cfg Config, logger *log.Logger) (*app, error) {
	opts, err := cfg.sessionOptions()
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:     cfg,
		logger:  logger,
		session: session.New(opts),
		notices: make(chan export.Notice, 16),
	}

	if path := cfg.Autosave.File; path != "" {
		st, err := session.LoadFile(path)
		switch {
		case err == nil:
			a.session = session.FromState(st)
			logger.Info("restored session", "file", path)
		case !os.IsNotExist(err):
			logger.Warn("could not restore session", "file", path, "err", err)
		}
		a.autosave = session.NewAutosave(a.session, path, cfg.Autosave.Interval, logger.WithPrefix("autosave"))
	}

	var encoder render.EncoderFactory
	if cfg.Export.Lame != "" {
		encoder = render.Lame(cfg.Export.Lame, cfg.Export.Bitrate)
	}
	a.exporter, err = export.New(a.session, export.DirSink{Dir: cfg.Export.Dir}, export.Options{
		Encoder:          encoder,
		FilenameTemplate: cfg.Export.FilenameTemplate,
		SampleRate:       cfg.SampleRate,
		Notify:           a.notify,
		Logger:           logger.WithPrefix("export"),
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) notify(n export.Notice) {
	select {
	case a.notices <- n:
	default:
	}
}

// startAudio opens the output device and the playback scheduler.
func (a *app) startAudio() error {
	ctx := audio.NewRealtimeContext(a.cfg.SampleRate)
	sink, err := audio.NewSink(a.cfg.Backend, ctx, a.cfg.SampleRate, a.cfg.BufferSize)
	if err != nil {
		return fmt.Errorf("audio output: %w", err)
	}
	if err := sink.Start(); err != nil {
		return fmt.Errorf("audio output: %w", err)
	}
	a.context = ctx
	a.sink = sink
	a.sched = playback.NewScheduler(a.session, a.context, playback.NewTask(), a.logger.WithPrefix("scheduler"))
	a.logger.Debug("audio started", "backend", a.cfg.Backend, "rate", a.cfg.SampleRate, "buffer", a.cfg.BufferSize)
	return nil
}

func (a *app) exportTo(ctx context.Context, name string, format export.Format, loops int) (export.Result, error) {
	return a.exporter.Export(ctx, export.Request{Filename: name, Format: format, Loops: loops})
}

// close stops playback and the output device and saves pending edits.
func (a *app) close() {
	if a.sched != nil {
		a.sched.Stop()
	}
	if a.sink != nil {
		if err := a.sink.Stop(); err != nil {
			a.logger.Error("stopping audio", "err", err)
		}
	}
	if a.autosave != nil {
		if err := a.autosave.Flush(); err != nil {
			a.logger.Error("saving session", "err", err)
		}
	}
}
