package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli"
	"golang.org/x/term"

	"github.com/valerio/go-pas16/pas16/machine"
	"github.com/valerio/go-pas16/pas16/monitor"
	"github.com/valerio/go-pas16/pas16/sink"
	"github.com/valerio/go-pas16/pas16/timing"
	"github.com/valerio/go-pas16/pas16/wavio"
)

// playLatency is how many output frames the live player may queue.
const playLatency = 4 * 960

func main() {
	app := cli.NewApp()
	app.Name = "pas16"
	app.Description = "Pro AudioSpectrum 16 sound card emulator"
	app.Usage = "pas16 [options] <WAV or MP3 file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "input",
			Usage: "Path to the WAV or MP3 file streamed over DMA",
		},
		cli.StringFlag{
			Name:  "output",
			Usage: "Capture the mixed output to this WAV file",
		},
		cli.StringFlag{
			Name:  "base",
			Usage: "Board I/O base address",
			Value: "0x388",
		},
		cli.IntFlag{
			Name:  "irq",
			Usage: "IRQ line (2-7, 10-12, 14, 15)",
			Value: machine.DefaultIRQ,
		},
		cli.IntFlag{
			Name:  "dma",
			Usage: "DMA channel (0-7)",
			Value: machine.DefaultDMA,
		},
		cli.IntFlag{
			Name:  "rate",
			Usage: "Stream sample rate (0 = rate of the input file)",
		},
		cli.BoolFlag{
			Name:  "16bit",
			Usage: "Stream 16-bit samples instead of 8-bit",
		},
		cli.BoolFlag{
			Name:  "stereo",
			Usage: "Stream stereo instead of mono",
		},
		cli.IntFlag{
			Name:  "block",
			Usage: "DMA bytes between PCM interrupts",
			Value: machine.DefaultBlockSize,
		},
		cli.BoolFlag{
			Name:  "compat",
			Usage: "Enable the legacy DSP and MIDI UART addresses",
		},
		cli.BoolFlag{
			Name:  "midi-input",
			Usage: "Enable MIDI receive; received bytes are echoed to the MIDI output",
		},
		cli.StringFlag{
			Name:  "midi-bytes",
			Usage: "Comma separated hex bytes fed to MIDI input at start, e.g. 90,3c,40",
		},
		cli.StringFlag{
			Name:  "synth",
			Usage: "Synthesizer on the FM ports: silent or psg",
			Value: string(machine.SynthSilent),
		},
		cli.Float64Flag{
			Name:  "seconds",
			Usage: "Seconds to run (0 = length of the input)",
		},
		cli.BoolFlag{
			Name:  "loop",
			Usage: "Restart the input when it runs out",
		},
		cli.BoolFlag{
			Name:  "play",
			Usage: "Play the output on the default audio device",
		},
		cli.BoolFlag{
			Name:  "realtime",
			Usage: "Run at wall-clock speed (implied by --monitor)",
		},
		cli.BoolFlag{
			Name:  "monitor",
			Usage: "Show the register monitor while running",
		},
		cli.StringFlag{
			Name:  "load-state",
			Usage: "Restore the board from a save state after programming it",
		},
		cli.StringFlag{
			Name:  "save-state",
			Usage: "Write the board save state here when the run ends",
		},
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
	}
	app.Action = runEmulator

	err := app.Run(os.Args)
	if err != nil {
		slog.Error("Error running emulator", "error", err)
		os.Exit(1)
	}
}

func runEmulator(c *cli.Context) error {
	level := slog.LevelInfo
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	path := c.String("input")
	if path == "" && c.NArg() > 0 {
		path = c.Args().Get(0)
	}
	seconds := c.Float64("seconds")
	if path == "" && seconds <= 0 {
		cli.ShowAppHelp(c)
		return errors.New("no input file provided and no --seconds to run")
	}

	base, err := parseBase(c.String("base"))
	if err != nil {
		return err
	}
	midiBytes, err := parseMIDIBytes(c.String("midi-bytes"))
	if err != nil {
		return err
	}

	cfg := machine.Config{
		Base:      base,
		IRQ:       c.Int("irq"),
		DMA:       c.Int("dma"),
		Rate:      c.Int("rate"),
		Wide:      c.Bool("16bit"),
		Stereo:    c.Bool("stereo"),
		BlockSize: c.Int("block"),
		MIDIInput: c.Bool("midi-input") || len(midiBytes) > 0,
		Compat:    c.Bool("compat"),
		Synth:     machine.SynthKind(c.String("synth")),
	}

	var src *wavio.Source
	if path != "" {
		src, err = wavio.Load(path)
		if err != nil {
			return err
		}
		if cfg.Rate == 0 {
			cfg.Rate = src.SampleRate
		}
		if seconds <= 0 {
			seconds = src.Seconds()
		}
		slog.Info("Loaded input", "path", path, "rate", src.SampleRate, "channels", src.Channels, "seconds", src.Seconds())
	}

	m, err := machine.New(cfg)
	if err != nil {
		return err
	}
	defer m.Close()
	if src != nil {
		m.Load(src, c.Bool("loop"))
	}

	sinks, closeOutputs, err := openOutputs(c.String("output"), c.Bool("play"))
	if err != nil {
		return err
	}
	defer closeOutputs()
	m.SetOutput(sinks.write)

	var mon *monitor.Monitor
	if c.Bool("monitor") {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("--monitor needs a terminal on stdout")
		}
		mon, err = monitor.Open(m)
		if err != nil {
			return err
		}
		// the monitor captures logging while it owns the terminal
		defer func() {
			if mon != nil {
				mon.Close()
				slog.SetDefault(logger)
			}
		}()
	}

	if err := m.Start(); err != nil {
		return err
	}
	if path := c.String("load-state"); path != "" {
		if err := m.LoadStateFile(path); err != nil {
			return err
		}
		slog.Info("Loaded state", "path", path)
	}
	for _, b := range midiBytes {
		m.SendMIDI(b)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	periods := int(seconds * machine.SampleRate / float64(m.Config().BufferLen))
	slog.Info("Running", "periods", periods, "seconds", seconds)
	limiter := timing.NewNoOpLimiter()
	if sinks.player == nil && (mon != nil || c.Bool("realtime")) {
		limiter = timing.NewAdaptiveLimiter(timing.PeriodDuration(m.Config().BufferLen, machine.SampleRate))
	}
	err = run(ctx, m, periods, mon, sinks.player, limiter)
	if mon != nil {
		mon.Close()
		slog.SetDefault(logger)
		mon = nil
	}
	if err != nil {
		return err
	}

	if path := c.String("save-state"); path != "" {
		if err := m.SaveStateFile(path); err != nil {
			return err
		}
		slog.Info("Saved state", "path", path)
	}

	stats := m.Stats()
	slog.Info("Run completed",
		"periods", stats.Periods, "interrupts", stats.Interrupts, "blocks", stats.Blocks,
		"dmaBytes", stats.Transfers, "underruns", stats.Underruns,
		"midiEchoed", stats.MIDIEchoed, "midiSent", stats.MIDISent)
	return nil
}

// run drives the machine one output period at a time. With a live player
// it is paced by the player's queue, otherwise by the limiter.
func run(ctx context.Context, m *machine.Machine, periods int, mon *monitor.Monitor, player *sink.Player, limiter timing.Limiter) error {
	for i := 0; i < periods; {
		if ctx.Err() != nil {
			slog.Info("Interrupted", "period", i)
			return nil
		}
		if mon != nil {
			mon.Update()
			if !mon.Running() {
				return nil
			}
			if mon.Paused() {
				time.Sleep(20 * time.Millisecond)
				limiter.Reset()
				continue
			}
		}
		for player != nil && player.Buffered() > playLatency/2 {
			time.Sleep(5 * time.Millisecond)
		}
		limiter.WaitForNextPeriod()

		if err := m.RunPeriods(1); err != nil {
			return err
		}
		i++
		if mon == nil && i%50 == 0 {
			slog.Debug("Period progress", "completed", i, "total", periods)
		}
	}
	return nil
}

type outputs struct {
	wav    *wavio.Writer
	player *sink.Player
}

func (o *outputs) write(samples []int16) error {
	if o.player != nil {
		o.player.Write(samples)
	}
	if o.wav != nil {
		return o.wav.Write(samples)
	}
	return nil
}

func openOutputs(path string, play bool) (*outputs, func(), error) {
	o := &outputs{}
	var file *os.File

	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create output: %w", err)
		}
		file = f
		o.wav = wavio.NewWriter(f, machine.SampleRate)
	}
	if play {
		p, err := sink.Open(machine.SampleRate, playLatency)
		if err != nil {
			if file != nil {
				file.Close()
			}
			return nil, nil, err
		}
		o.player = p
	}

	closeAll := func() {
		if o.player != nil {
			if err := o.player.Close(); err != nil {
				slog.Error("Failed to close player", "error", err)
			}
		}
		if o.wav != nil {
			if err := o.wav.Close(); err != nil {
				slog.Error("Failed to finish output", "error", err)
			}
			slog.Info("Wrote output", "path", path, "frames", o.wav.Frames())
		}
		if file != nil {
			file.Close()
		}
	}
	return o, closeAll, nil
}

// parseBase accepts a base address in decimal or 0x-prefixed hex.
func parseBase(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid base address %q: %w", s, err)
	}
	if v&3 != 0 {
		return 0, fmt.Errorf("invalid base address %q: must be a multiple of 4", s)
	}
	return uint16(v), nil
}

// parseMIDIBytes parses a comma separated list of hex bytes.
func parseMIDIBytes(s string) ([]byte, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []byte
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimPrefix(strings.TrimSpace(field), "0x")
		v, err := strconv.ParseUint(field, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid MIDI byte %q: %w", field, err)
		}
		out = append(out, byte(v))
	}
	return out, nil
}
