package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mrdg/chordmaker/audio"
	"github.com/mrdg/chordmaker/export"
	"github.com/mrdg/chordmaker/progression"
	"github.com/mrdg/chordmaker/session"
	"github.com/mrdg/chordmaker/theory"
	"gopkg.in/yaml.v3"
)

type Config struct {
	SampleRate  float64 `yaml:"sample_rate"`
	BPM         float64 `yaml:"bpm"`
	BeatsPerBar int     `yaml:"beats_per_bar"`
	Bars        int     `yaml:"bars"`
	Instrument  string  `yaml:"instrument"`
	Key         string  `yaml:"key"`
	Mode        string  `yaml:"mode"`
	Backend     string  `yaml:"backend"`
	BufferSize  int     `yaml:"buffer_size"`
	LogLevel    string  `yaml:"log_level"`

	Export   ExportConfig   `yaml:"export"`
	Server   ServerConfig   `yaml:"server"`
	Autosave AutosaveConfig `yaml:"autosave"`
}

type ExportConfig struct {
	Loops            int    `yaml:"loops"`
	Format           string `yaml:"format"`
	Dir              string `yaml:"dir"`
	FilenameTemplate string `yaml:"filename_template"`
	Lame             string `yaml:"lame"`
	Bitrate          int    `yaml:"bitrate"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// AutosaveConfig enables saving the document after edits settle. An empty
// file disables it.
type AutosaveConfig struct {
	File     string        `yaml:"file"`
	Interval time.Duration `yaml:"interval"`
}

func defaultConfig() Config {
	return Config{
		SampleRate:  audio.SampleRate,
		BPM:         progression.DefaultBPM,
		BeatsPerBar: progression.DefaultBeatsPerBar,
		Bars:        progression.DefaultBars,
		Instrument:  audio.Piano.String(),
		Key:         theory.C.String(),
		Mode:        theory.Major.String(),
		Backend:     "portaudio",
		BufferSize:  512,
		LogLevel:    "info",
		Export: ExportConfig{
			Loops:            export.DefaultLoops,
			Format:           "wav",
			Dir:              ".",
			FilenameTemplate: export.DefaultFilenameTemplate,
			Lame:             "lame",
			Bitrate:          128,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Autosave: AutosaveConfig{
			Interval: 2 * time.Second,
		},
	}
}

// loadConfig reads a YAML file over the defaults. A missing file is only an
// error if it was asked for by name.
func loadConfig(path string, required bool) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) && !required {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil && err != io.EOF {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) sessionOptions() (session.Options, error) {
	opts := session.DefaultOptions()
	key, ok := theory.ParseNote(c.Key)
	if !ok {
		return opts, fmt.Errorf("unknown key %q", c.Key)
	}
	mode, ok := theory.ParseMode(c.Mode)
	if !ok {
		return opts, fmt.Errorf("unknown mode %q", c.Mode)
	}
	opts.Key = key
	opts.Mode = mode
	opts.Instrument, _ = audio.ParseInstrument(c.Instrument)
	opts.BPM = c.BPM
	opts.Bars = c.Bars
	if c.BeatsPerBar > 0 {
		opts.BeatsPerBar = c.BeatsPerBar
	}
	return opts, nil
}

func newLogger(w io.Writer, level, prefix string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          prefix,
	})
}
