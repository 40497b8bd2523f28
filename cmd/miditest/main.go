package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"time"

	"go.bug.st/serial"

	"go-chords/config"
	"go-chords/debug"
	"go-chords/instruments"
	"go-chords/instruments/chords"
	"go-chords/midi"
)

const initTimeout = 5 * time.Second

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = listOutputs()
	case "send":
		err = sendBytes(os.Args[2:])
	case "watch":
		err = watch()
	case "catalog":
		err = dumpCatalog()
	case "serial":
		err = listSerial()
	default:
		usage()
		return
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                  - Show provider, status and MIDI outputs")
	fmt.Println("  send <key> <byte>...  - Send raw bytes (decimal or 0x..) to an output")
	fmt.Println("  watch                 - Print status/output changes (hot-plug) until Ctrl+C")
	fmt.Println("  catalog               - Dump the instrument catalog as YAML")
	fmt.Println("  serial                - List serial ports usable as bridge.serial_port")
}

// setup builds a System from the user's config and waits for Init
func setup(ctx context.Context, cancel context.CancelFunc) (*midi.System, *midi.Session, midi.AccessProvider, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, nil, nil, err
	}
	cfg, err := config.Load("")
	if err != nil {
		return nil, nil, nil, err
	}

	logger, err := debug.NewLogger(cfg.Log.Path, true)
	if err != nil {
		return nil, nil, nil, err
	}
	debug.Enable(logger)

	provider := midi.Detect(midi.ProvidersFromConfig(cfg, logger)...)
	session := midi.NewSession()
	sys := midi.NewSystem(provider, session, midi.NewDesktopAlerter("go-chords", logger), logger)

	if !initWithin(ctx, cancel, sys, initTimeout) {
		fmt.Println("TIMEOUT! MIDI access request did not resolve.")
		fmt.Println("Fix (macOS): sudo killall coreaudiod midiserver")
	}

	return sys, session, provider, nil
}

// initWithin runs sys.Init and waits up to timeout. On timeout it cancels
// ctx and waits for the pending request to give up, so the session is never
// touched after it returns.
func initWithin(ctx context.Context, cancel context.CancelFunc, sys *midi.System, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		sys.Init(ctx)
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		cancel()
		<-done
		return false
	}
}

func listOutputs() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sys, session, provider, err := setup(ctx, cancel)
	if err != nil {
		return err
	}
	defer session.Close()

	fmt.Printf("Provider: %s\n", provider.Kind())
	fmt.Printf("Status:   %s\n", sys.Status())
	fmt.Println("\n=== MIDI Outputs ===")
	for i, p := range sys.Outputs() {
		mark := " "
		if sys.IsSelected(p.Key) {
			mark = "*"
		}
		fmt.Printf(" %s %d: %s (%s)\n", mark, i, p.Name, p.Key)
	}
	return nil
}

func sendBytes(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: miditest send <key> <byte>...")
	}

	data := make([]byte, 0, len(args)-1)
	for _, a := range args[1:] {
		v, err := strconv.ParseUint(a, 0, 8)
		if err != nil {
			return fmt.Errorf("bad byte %q: %w", a, err)
		}
		data = append(data, byte(v))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sys, session, _, err := setup(ctx, cancel)
	if err != nil {
		return err
	}
	defer session.Close()

	sys.SelectOutput(args[0])
	if !sys.IsSelected(args[0]) {
		return fmt.Errorf("output %q not available (%s)", args[0], sys.Status())
	}

	fmt.Printf("%s -> %s\n", sys.Status(), midi.JoinBytes(data))
	sys.Send(data)
	return nil
}

func watch() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	sys, session, _, err := setup(ctx, cancel)
	if err != nil {
		return err
	}
	defer session.Close()

	updates, unsubscribe := sys.Subscribe()
	defer unsubscribe()

	fmt.Println("Watching MIDI outputs. Connect/disconnect devices to test. Ctrl+C to exit.")
	printState(sys.Snapshot())

	last := sys.Snapshot()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-updates:
			st := sys.Snapshot()
			if st.Status == last.Status && st.Selected == last.Selected && slices.Equal(st.Outputs, last.Outputs) {
				continue
			}
			printState(st)
			last = st
		}
	}
}

func printState(st midi.State) {
	fmt.Printf("\n[%s] %s\n", time.Now().Format("15:04:05"), st.Status)
	for _, p := range st.Outputs {
		mark := " "
		if p.Key == st.Selected {
			mark = "*"
		}
		fmt.Printf("  %s %s\n", mark, p.Name)
	}
}

func dumpCatalog() error {
	var catalog instruments.Catalog
	if err := catalog.Register(chords.Descriptor); err != nil {
		return err
	}
	return catalog.WriteYAML(os.Stdout)
}

func listSerial() error {
	ports, err := serial.GetPortsList()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Println(p)
	}
	return nil
}
