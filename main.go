package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/mrdg/chordmaker/export"
	"github.com/mrdg/chordmaker/playback"
	"github.com/mrdg/chordmaker/progression"
	"github.com/mrdg/chordmaker/server"
	"github.com/mrdg/chordmaker/session"
	"github.com/spf13/cobra"
)

var flags struct {
	config     string
	backend    string
	bpm        float64
	key        string
	mode       string
	instrument string
	bars       int
	logLevel   string
	noColor    bool

	session string
	loops   int
	format  string
	addr    string
}

var rootCmd = &cobra.Command{
	Use:   "chordmaker",
	Short: "Compose and play chord progressions",
	Long: `chordmaker arranges chords into bars, plays them back in a loop and
renders them to wav or mp3 files.`,
	SilenceUsage: true,
	RunE:         runREPL,
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Edit a progression interactively",
	Args:  cobra.NoArgs,
	RunE:  runREPL,
}

var playCmd = &cobra.Command{
	Use:   "play [SESSION]",
	Short: "Loop a saved progression until interrupted",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPlay,
}

var renderCmd = &cobra.Command{
	Use:   "render [NAME]",
	Short: "Render a progression to a file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRender,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List preset progressions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, p := range progression.Presets() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-14s %-22s %s\n", p.ID, p.Name, p.Description)
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "chordmaker.yaml", "config file")
	pf.StringVar(&flags.backend, "backend", "", "audio output: portaudio, oto or null")
	pf.Float64Var(&flags.bpm, "bpm", 0, "tempo in beats per minute")
	pf.StringVar(&flags.key, "key", "", "key, e.g. C or F#")
	pf.StringVar(&flags.mode, "mode", "", "major or minor")
	pf.StringVar(&flags.instrument, "instrument", "", "Piano, Guitar, Synth, Organ or Strings")
	pf.IntVar(&flags.bars, "bars", 0, "number of bars")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")
	pf.BoolVar(&flags.noColor, "no-color", false, "disable colors")

	for _, cmd := range []*cobra.Command{playCmd, renderCmd} {
		cmd.Flags().StringVarP(&flags.session, "session", "s", "", "session file to load")
	}
	renderCmd.Flags().IntVarP(&flags.loops, "loops", "l", 0, "number of times to play the progression")
	renderCmd.Flags().StringVarP(&flags.format, "format", "f", "", "wav or mp3")
	serveCmd.Flags().StringVar(&flags.addr, "addr", "", "listen address")

	rootCmd.AddCommand(replCmd, playCmd, renderCmd, serveCmd, presetsCmd)
}

func main() {
	cobra.CheckErr(rootCmd.Execute())
}

// setup reads the config, applies flags that were set and builds the app.
func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(flags.config, cmd.Flags().Changed("config"))
	if err != nil {
		return nil, err
	}
	set := cmd.Flags().Changed
	if set("backend") {
		cfg.Backend = flags.backend
	}
	if set("bpm") {
		cfg.BPM = flags.bpm
	}
	if set("key") {
		cfg.Key = flags.key
	}
	if set("mode") {
		cfg.Mode = flags.mode
	}
	if set("instrument") {
		cfg.Instrument = flags.instrument
	}
	if set("bars") {
		cfg.Bars = flags.bars
	}
	if set("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if set("loops") {
		cfg.Export.Loops = flags.loops
	}
	if set("format") {
		cfg.Export.Format = flags.format
	}
	if set("addr") {
		cfg.Server.Addr = flags.addr
	}

	logger := newLogger(os.Stderr, cfg.LogLevel, "")
	a, err := newApp(cfg, logger)
	if err != nil {
		return nil, err
	}
	if flags.session != "" {
		st, err := session.LoadFile(flags.session)
		if err != nil {
			return nil, err
		}
		a.session.Load(st)
	}
	return a, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func color() bool {
	return !flags.noColor && os.Getenv("NO_COLOR") == ""
}

func runREPL(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.startAudio(); err != nil {
		a.logger.Warn("continuing without sound", "err", err)
	}
	history := filepath.Join(os.TempDir(), "chordmaker_history")
	return repl(&env{ctx: context.Background(), app: a, color: color()}, history)
}

func runPlay(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		flags.session = args[0]
	}
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.startAudio(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	out := cmd.OutOrStdout()
	a.sched.OnBar(func(bar int) {
		if bar == playback.Inactive {
			return
		}
		// Clear the screen and redraw.
		fmt.Fprint(out, "\033[H\033[2J")
		renderGrid(out, view{state: a.session.State(), playing: bar, color: color()})
	})
	if !a.sched.Play() {
		return fmt.Errorf("nothing to play")
	}
	<-ctx.Done()
	return nil
}

func runRender(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	name := a.exporter.DefaultFilename()
	if len(args) == 1 {
		name = args[0]
	}
	format, err := export.ParseFormat(strings.ToLower(a.cfg.Export.Format))
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	res, err := a.exportTo(ctx, name, format, a.cfg.Export.Loops)
	if err != nil {
		return err
	}
	a.logger.Info("rendered", "file", filepath.Join(a.cfg.Export.Dir, res.Filename),
		"duration", progression.FormatDuration(res.Duration), "bytes", res.Size)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	cfg := server.Config{
		Session:        a.session,
		Exporter:       a.exporter,
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		Logger:         a.logger.WithPrefix("server"),
	}
	if err := a.startAudio(); err != nil {
		a.logger.Warn("serving without sound", "err", err)
	} else {
		cfg.Target = a.context
		cfg.Scheduler = a.sched
	}

	ctx, cancel := signalContext()
	defer cancel()
	return server.New(cfg).ListenAndServe(ctx, a.cfg.Server.Addr)
}
