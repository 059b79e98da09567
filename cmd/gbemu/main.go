package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cespare/xxhash"
	"github.com/sirupsen/logrus"

	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/apu"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/battery"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/config"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/debugserver"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/emu"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/record"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/romfile"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/shot"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/ui"
)

type CLIFlags struct {
	ROMPath    string
	BootROM    string
	ConfigPath string
	Palette    string
	Scale      int
	Trace      bool
	SaveRAM    bool // persist battery RAM next to ROM (.sav)
	LogLevel   string
	WAVOut     string
	DebugAddr  string

	// headless
	Frames int // >0 runs without a window
	PNGOut string
	Expect string // expected framebuffer xxhash (hex)
}

func parseFlags() CLIFlags {
	var f CLIFlags
	flag.StringVar(&f.ROMPath, "rom", "", "path to ROM (.gb, .gbc, .gz, .zip, .7z)")
	flag.StringVar(&f.BootROM, "boot", "", "optional 256-byte DMG boot ROM")
	flag.StringVar(&f.ConfigPath, "config", "", "YAML settings file")
	flag.StringVar(&f.Palette, "palette", "", "shade palette: "+strings.Join(emu.PaletteNames(), ", "))
	flag.IntVar(&f.Scale, "scale", 0, "window scale (overrides config)")
	flag.BoolVar(&f.Trace, "trace", false, "log every instruction at debug level")
	flag.BoolVar(&f.SaveRAM, "save", true, "persist battery RAM to ROM.sav")
	flag.StringVar(&f.LogLevel, "log-level", "info", "panic, fatal, error, warn, info, debug, trace")
	flag.StringVar(&f.WAVOut, "wav", "", "record audio to this WAV file")
	flag.StringVar(&f.DebugAddr, "debug-addr", "", "serve the WebSocket debugger on this address (e.g. :8123)")

	flag.IntVar(&f.Frames, "headless", 0, "run N frames without a window, then print the frame hash")
	flag.StringVar(&f.PNGOut, "png", "", "headless: write the last frame to this PNG")
	flag.StringVar(&f.Expect, "expect", "", "headless: fail unless the frame hash matches (hex)")
	flag.Parse()
	if f.ROMPath == "" && flag.NArg() > 0 {
		f.ROMPath = flag.Arg(0)
	}
	return f
}

func newLogger(level string) (*logrus.Logger, error) {
	log := logrus.New()
	log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	log.SetLevel(lvl)
	return log, nil
}

func main() {
	f := parseFlags()
	log, err := newLogger(f.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := run(f, log); err != nil {
		log.WithError(err).Fatal("gbemu")
	}
}

func run(f CLIFlags, log *logrus.Logger) error {
	if f.ROMPath == "" {
		return fmt.Errorf("no ROM given (use -rom or pass a path)")
	}
	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return err
	}
	if err := cfg.Override(f.Palette, f.Scale); err != nil {
		return fmt.Errorf("flags: %w", err)
	}

	rom, err := romfile.Load(f.ROMPath)
	if err != nil {
		return err
	}
	var boot []byte
	if f.BootROM != "" {
		if boot, err = os.ReadFile(f.BootROM); err != nil {
			return err
		}
	}

	m := emu.New(emu.Config{
		Logger:     log,
		SampleRate: cfg.SampleRate,
		Palette:    cfg.Palette,
		Trace:      f.Trace,
	})
	if err := m.LoadCartridge(rom, boot); err != nil {
		return fmt.Errorf("load cart: %w", err)
	}

	var save *battery.File
	if f.SaveRAM && m.HasBattery() {
		path := romfile.SavePath(f.ROMPath)
		if save, err = battery.Open(path, len(m.RAM())); err != nil {
			return err
		}
		defer save.Close()
		if err := battery.Attach(save, m); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"path": path, "fresh": save.Fresh()}).Info("battery RAM attached")
	}

	var sinks []apu.Sink
	if f.WAVOut != "" {
		rec, err := record.Create(f.WAVOut, cfg.SampleRate)
		if err != nil {
			return err
		}
		defer func() {
			if err := rec.Close(); err != nil {
				log.WithError(err).Warn("wav close")
				return
			}
			log.WithFields(logrus.Fields{"path": f.WAVOut, "frames": rec.Frames()}).Info("wav written")
		}()
		sinks = append(sinks, rec)
	}

	var dbg *debugserver.Server
	if f.DebugAddr != "" {
		dbg = debugserver.New(log)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			if err := dbg.ListenAndServe(ctx, f.DebugAddr); err != nil {
				log.WithError(err).Error("debug server stopped")
			}
		}()
	}

	if f.Frames > 0 {
		if len(sinks) > 0 {
			m.SetAudioSink(apu.MultiSink(sinks...))
		}
		err := runHeadless(m, f, cfg.Scale, dbg, log)
		m.FlushAudio()
		if save != nil {
			if _, serr := battery.Sync(save, m); serr != nil && err == nil {
				err = serr
			}
		}
		return err
	}

	app, err := ui.NewApp(cfg, m, ui.Options{Log: log, Battery: save, Debug: dbg, Sinks: sinks})
	if err != nil {
		return err
	}
	err = app.Run()
	m.FlushAudio()
	return err
}

func runHeadless(m *emu.Machine, f CLIFlags, scale int, dbg *debugserver.Server, log logrus.FieldLogger) error {
	start := time.Now()
	for i := 0; i < f.Frames; {
		if dbg != nil {
			dbg.Poll(m)
			if dbg.Paused() {
				time.Sleep(10 * time.Millisecond)
				continue
			}
		}
		if err := m.StepFrame(); err != nil {
			var bp *emu.BreakpointError
			if errors.As(err, &bp) && dbg != nil {
				dbg.BreakpointHit(m, bp.PC)
				continue
			}
			return fmt.Errorf("frame %d: %w", i, err)
		}
		i++
	}
	dur := time.Since(start)

	hash := fmt.Sprintf("%016x", xxhash.Sum64(m.Frame()))
	log.WithFields(logrus.Fields{
		"frames":  f.Frames,
		"elapsed": dur.Truncate(time.Millisecond),
		"fps":     fmt.Sprintf("%.2f", float64(f.Frames)/dur.Seconds()),
		"cycles":  m.Cycles(),
	}).Info("headless run complete")
	fmt.Println(hash)

	if f.PNGOut != "" {
		if err := shot.Save(f.PNGOut, m.Frame(), scale); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		log.WithField("path", f.PNGOut).Info("frame written")
	}
	if f.Expect != "" {
		want := strings.TrimPrefix(strings.ToLower(f.Expect), "0x")
		if hash != want {
			return fmt.Errorf("frame hash mismatch: got %s, want %s", hash, want)
		}
	}
	return nil
}
