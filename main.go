package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"golang.org/x/sync/errgroup"
)

// logger is the package-wide structured logger. Safe to use before initLogger
// is called; defaults to slog.Default().
var logger = slog.Default()

// initLogger configures the shared slog logger and calls slog.SetDefault so
// the stdlib log package also routes through the same handler.
func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug, // include file:line in debug mode
	})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

// openSink builds the output sink selected by the config.
func openSink(cfg OutputConfig) (Sink, error) {
	switch cfg.Driver {
	case "serial":
		return OpenSerialSink(cfg.SerialPort, cfg.BaudRate)
	default:
		return OpenMIDISink(cfg.PortMatch)
	}
}

func main() {
	var (
		cfgPath    = flag.String("config", "", "path to YAML config file")
		listenAddr = flag.String("listen", "", "override OSC listen address")
		portMatch  = flag.String("port", "", "override MIDI output port substring")
		debug      = flag.Bool("debug", false, "enable debug logging (adds source location)")
	)
	flag.Parse()

	cfg, err := LoadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *listenAddr != "" {
		cfg.Listen.Addr = *listenAddr
	}
	if *portMatch != "" {
		cfg.Output.PortMatch = *portMatch
	}
	if *debug {
		cfg.Logging.Debug = true
	}

	initLogger(cfg.Logging.Debug)
	logger.Info("motionmidi starting",
		"listen", cfg.Listen.Addr,
		"driver", cfg.Output.Driver,
		"port_match", cfg.Output.PortMatch,
		"hold_ms", cfg.Mapping.HoldMS,
		"feed", cfg.Feed.Enabled,
	)

	// No usable output device is fatal: the listener must not come up if
	// events have nowhere to go.
	sink, err := openSink(cfg.Output)
	if err != nil {
		logger.Error("output device unavailable", "err", err)
		os.Exit(1)
	}

	store := NewStore()
	mapper := NewMapper(cfg.Mapping)
	sched := NewScheduler(sink)
	listener := NewListener(store, mapper, sched)
	feed := NewFeed(store, cfg.Feed)

	g, _ := errgroup.WithContext(context.Background())
	g.Go(func() error { return listener.Serve(cfg.Listen.Addr) })
	if cfg.Feed.Enabled {
		g.Go(func() error { return feed.ListenAndServe(cfg.Feed.Addr) })
	}
	go func() {
		if err := g.Wait(); err != nil {
			logger.Error("fatal", "err", err)
			os.Exit(1)
		}
	}()

	runPrompt(store, sched, listener)

	// Shutdown order matters: stop ingestion, let every pending note-off
	// fire, silence the channel, then release the device.
	listener.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = feed.Shutdown(ctx)
	sched.Drain()
	sched.Silence(noteChannel)
	if err := sink.Close(); err != nil {
		logger.Warn("closing output", "err", err)
	}
	logger.Info("motionmidi stopped")
}

// runPrompt reads runtime commands until quit/EOF. When no terminal is
// available it falls back to waiting for SIGINT/SIGTERM.
func runPrompt(store *Store, sched *Scheduler, listener *Listener) {
	rl, err := readline.New("motionmidi> ")
	if err != nil {
		logger.Warn("prompt unavailable, running headless", "err", err)
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		<-ch
		return
	}
	defer func() { _ = rl.Close() }()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt || err == io.EOF {
			return
		}
		if err != nil {
			logger.Warn("prompt read failed", "err", err)
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "mode":
			if len(fields) != 2 {
				fmt.Println("usage: mode <n>")
				continue
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Println("usage: mode <n>")
				continue
			}
			store.SetMode(n)
			fmt.Println(ModeLabel(n))
		case "panic":
			sched.Silence(noteChannel)
			fmt.Println("all notes off")
		case "stats":
			packets, dropped, unknowns := listener.Stats()
			fmt.Printf("packets=%d dropped=%d unknown_modes=%d\n", packets, dropped, unknowns)
		case "quit", "exit":
			return
		default:
			fmt.Println("commands: mode <n> | panic | stats | quit")
		}
	}
}
