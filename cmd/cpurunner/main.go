package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/emu"
	"github.com/FabianRolfMatthiasNoll/gbcycle/internal/romfile"
)

// traceEntry is one retired instruction for the failure dump.
type traceEntry struct {
	st  emu.DebugState
	cyc int
}

func (te traceEntry) String() string {
	r := te.st.CPU
	return fmt.Sprintf("PC=%04X %-18s cyc=%d A=%02X F=%02X B=%02X C=%02X D=%02X E=%02X H=%02X L=%02X SP=%04X IME=%t IF=%02X IE=%02X",
		r.PC, te.st.Next, te.cyc, r.A, r.F, r.B, r.C, r.D, r.E, r.H, r.L, r.SP, te.st.IME, te.st.IF, te.st.IE)
}

func main() {
	romPath := flag.String("rom", "", "path to ROM (.gb, .gz, .zip, .7z)")
	bootPath := flag.String("boot", "", "optional DMG boot ROM to run from 0x0000 until FF50 disables it")
	steps := flag.Int("steps", 50_000_000, "max CPU instructions to run")
	trace := flag.Bool("trace", false, "log every instruction")
	until := flag.String("until", "Passed", "stop when serial output contains this substring (case-insensitive); empty to disable")
	auto := flag.Bool("auto", false, "detect 'Passed' or 'Failed' in serial output and exit with code 0/1")
	timeout := flag.Duration("timeout", 0, "optional wall-clock timeout (e.g. 30s, 2m); 0 disables")
	traceOnFail := flag.Bool("traceOnFail", false, "when -auto detects failure, print a recent trace window (slows down)")
	traceWindow := flag.Int("traceWindow", 200, "number of recent instructions to include in the failure dump")
	serialWindow := flag.Int("serialWindow", 8192, "number of recent serial bytes to retain for diagnostics on fail")
	flag.Parse()

	log := logrus.New()
	log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	if *trace {
		log.SetLevel(logrus.DebugLevel)
	}

	if *romPath == "" {
		log.Fatal("-rom is required")
	}
	rom, err := romfile.Load(*romPath)
	if err != nil {
		log.WithError(err).Fatal("read rom")
	}
	var boot []byte
	if *bootPath != "" {
		if boot, err = os.ReadFile(*bootPath); err != nil {
			log.WithError(err).Fatal("read boot rom")
		}
	}

	m := emu.New(emu.Config{Logger: log, Trace: *trace})
	ser := newSerialLog(*serialWindow)
	m.SetSerialWriter(io.MultiWriter(os.Stdout, ser))
	if err := m.LoadCartridge(rom, boot); err != nil {
		log.WithError(err).Fatal("load cart")
	}

	start := time.Now()
	var deadline time.Time
	if *timeout > 0 {
		deadline = start.Add(*timeout)
	}
	done := func(n int) {
		fmt.Printf("\nDone: steps=%d cycles=%d elapsed=%s\n", n, m.Cycles(), time.Since(start).Truncate(time.Millisecond))
	}

	var ring []traceEntry
	if *traceOnFail && *traceWindow > 0 {
		ring = make([]traceEntry, 0, *traceWindow)
	}
	for i := 0; i < *steps; i++ {
		var before emu.DebugState
		if ring != nil {
			before, _ = m.Snapshot()
		}
		cyc, err := m.Step()
		if err != nil {
			fmt.Printf("\n%v\n", err)
			done(i + 1)
			os.Exit(3)
		}
		if ring != nil {
			if len(ring) == cap(ring) {
				copy(ring, ring[1:])
				ring = ring[:len(ring)-1]
			}
			ring = append(ring, traceEntry{st: before, cyc: cyc})
		}

		if ser.takeChanged() {
			out := ser.String()
			switch v, what := judge(out, *until, *auto); v {
			case passed:
				fmt.Printf("\nDetected '%s' in serial output.\n", what)
				if s := lastStage(out); s != "" {
					fmt.Printf("Last stage seen: %s\n", s)
				}
				done(i + 1)
				os.Exit(0)
			case failed:
				fmt.Printf("\nDetected '%s' in serial output.\n", what)
				if s := lastStage(out); s != "" {
					fmt.Printf("Last stage seen: %s\n", s)
				}
				if len(ring) > 0 {
					fmt.Printf("\n--- recent trace (last %d instructions) ---\n", len(ring))
					for _, te := range ring {
						fmt.Println(te)
					}
					fmt.Printf("--- end trace ---\n")
				}
				fmt.Printf("\n--- recent serial ---\n%s\n--- end serial ---\n", ser.tail())
				done(i + 1)
				os.Exit(1)
			}
		}
		if !deadline.IsZero() && i%4096 == 0 && time.Now().After(deadline) {
			fmt.Printf("\nTimeout after %s.\n", time.Since(start).Truncate(time.Millisecond))
			done(i + 1)
			os.Exit(2)
		}
	}
	done(*steps)
}
