// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ezrec/hypo/emulator"
	device "github.com/ezrec/hypo/io"
	"github.com/ezrec/hypo/machine"
	"github.com/ezrec/hypo/monitor"
)

func assemble(emu *emulator.Emulator, source string, output string) (err error) {
	inf, err := os.Open(source)
	if err != nil {
		return
	}
	defer inf.Close()

	prog, err := emu.Assembler.Parse(inf)
	if err != nil {
		return
	}

	var w io.Writer = os.Stdout
	if output != "-" {
		ouf, err := os.Create(output)
		if err != nil {
			return err
		}
		defer ouf.Close()
		w = ouf
	}

	_, err = prog.WriteTo(w)
	return
}

// send posts the interrupt described by args, in console syntax, to a
// running monitor.
func send(ctx context.Context, client *monitor.Client, args []string, priority machine.Word) (err error) {
	intr, err := emulator.ParseInterrupt(strings.Join(args, " "), priority)
	if err != nil {
		return
	}

	return client.Send(ctx, intr)
}

func main() {
	var compile string
	var configPath string
	var dir string
	var terminal string
	var input string
	var output string
	var listen string
	var sendTo string
	var console bool
	var verbose bool
	var timeSlice int
	var stackSize int
	var priority int

	flag.StringVar(&compile, "c", "", "Assembly file to compile to -o, do not execute")
	flag.StringVar(&configPath, "config", "", "JSON configuration file")
	flag.StringVar(&dir, "dir", ".", "Directory of program files")
	flag.StringVar(&terminal, "t", "", "Terminal device for process I/O")
	flag.StringVar(&input, "i", "-", "Tape input")
	flag.StringVar(&output, "o", "-", "Tape output")
	flag.StringVar(&listen, "http", "", "Listen address for the interrupt monitor")
	flag.StringVar(&sendTo, "send", "", "Post the interrupt given as arguments to the monitor at this URL")
	flag.BoolVar(&console, "console", false, "Read interrupts from standard input")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.IntVar(&timeSlice, "slice", 0, "Clock ticks per dispatch (overrides config)")
	flag.IntVar(&stackSize, "stack", 0, "Stack words per process (overrides config)")
	flag.IntVar(&priority, "priority", 0, "Default process priority (overrides config)")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %v [options] [program...]\n", os.Args[0])
		fmt.Fprintf(flag.CommandLine.Output(), "       %v -send URL interrupt...\n", os.Args[0])
		flag.PrintDefaults()
	}

	flag.Parse()

	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	cfg := emulator.DefaultConfig()
	if len(configPath) != 0 {
		var err error
		cfg, err = emulator.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("%v: %v", configPath, err)
		}
	}

	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "slice":
			cfg.TimeSlice = timeSlice
		case "stack":
			cfg.StackSize = stackSize
		case "priority":
			cfg.DefaultPriority = machine.Word(priority)
		}
	})

	if len(sendTo) != 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		client := &monitor.Client{BaseURL: sendTo}
		err := send(ctx, client, flag.Args(), cfg.DefaultPriority)
		if err != nil {
			log.Fatalf("%v: %v", sendTo, err)
		}
		return
	}

	emu, err := emulator.NewEmulator(os.DirFS(dir), cfg)
	if err != nil {
		log.Fatal(err)
	}
	emu.SetVerbose(verbose)

	if len(compile) != 0 {
		if flag.NArg() != 0 {
			log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
		}
		err = assemble(emu, compile, output)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		return
	}

	emu.Output = os.Stdout

	if len(terminal) != 0 {
		term, err := device.OpenTerminal(terminal)
		if err != nil {
			log.Fatalf("%v: %v", terminal, err)
		}
		defer term.Close()
		emu.Channel = term
	} else {
		tape := &device.Tape{}
		if input == "-" {
			if !console {
				tape.Input = os.Stdin
			}
		} else {
			inf, err := os.Open(input)
			if err != nil {
				log.Fatalf("%v: %v", input, err)
			}
			defer inf.Close()
			tape.Input = inf
		}

		if output == "-" {
			tape.Output = os.Stdout
		} else {
			ouf, err := os.Create(output)
			if err != nil {
				log.Fatalf("%v: %v", output, err)
			}
			defer ouf.Close()
			tape.Output = ouf
		}
		emu.Channel = tape
	}

	for _, name := range flag.Args() {
		_, err := emu.RunProgram(name, cfg.DefaultPriority)
		if err != nil {
			log.Fatalf("%v: %v", name, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	emu.Batch = !console && len(listen) == 0

	if console {
		go func() {
			err := emu.Console(ctx, os.Stdin)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Warnf("console: %v", err)
			}
		}()
	}

	if len(listen) != 0 {
		handler := monitor.NewHandler(emu, cfg.DefaultPriority)
		handler.Verbose = verbose

		server := &http.Server{
			Addr:        listen,
			Handler:     handler,
			BaseContext: func(net.Listener) context.Context { return ctx },
		}
		go func() {
			err := server.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warnf("monitor: %v", err)
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = server.Shutdown(sctx)
		}()
		log.WithField("addr", listen).Info("monitor listening")
	}

	err = emu.Run(ctx)
	if err != nil {
		log.Fatal(err)
	}

	if emu.Faults() > 0 {
		os.Exit(1)
	}
}
