package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	ryderserial "github.com/chazkiker2/ryderserial-go"
	"github.com/chazkiker2/ryderserial-go/internal/logging"
)

func main() {
	var (
		port    = flag.String("port", "", "serial device path, e.g. /dev/ttyUSB0 (omit to use the in-process simulator)")
		baud    = flag.Int("baud", ryderserial.DefaultBaudRate, "baud rate")
		verbose = flag.Bool("v", false, "verbose output")
		reject  = flag.Bool("reject-on-locked", ryderserial.DefaultRejectOnLocked, "fail all queued commands when the device reports LOCKED")
	)
	flag.Parse()

	logger := logging.NewLogger(nil)
	logging.SetDefault(logger)

	driver := ryderserial.New(
		ryderserial.WithBaudRate(*baud),
		ryderserial.WithRejectOnLocked(*reject),
		ryderserial.WithLogger(logger),
		ryderserial.WithLogLevel(logging.LevelInfo),
		ryderserial.WithDebug(*verbose),
	)
	defer driver.Shutdown()

	var openErr error
	target := *port
	if target == "" {
		target = "simulator"
		logger.Info("no -port given, driving the in-process simulator instead")
		openErr = driver.OpenSimulator(newWakeableSimulator())
	} else {
		openErr = driver.Open(target)
	}
	if openErr != nil {
		logger.Error("failed to open port", "error", openErr)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resp, err := driver.SendByte(ctx, ryderserial.WAKE.Byte())
	if err != nil {
		logger.Error("WAKE failed", "error", err)
	} else {
		logger.Info("WAKE acknowledged", "byte", fmt.Sprintf("%#x", resp.Byte))
	}

	fmt.Printf("Connected to %s at %d baud\n", target, *baud)
	fmt.Printf("Press Ctrl+C to stop...\n")
	fmt.Printf("Send SIGUSR1 (kill -USR1 %d) to dump goroutine stacks\n", os.Getpid())

	stackDumpCh := make(chan os.Signal, 1)
	signal.Notify(stackDumpCh, syscall.SIGUSR1)
	go func() {
		for range stackDumpCh {
			buf := make([]byte, 1<<20)
			n := runtime.Stack(buf, true)
			fmt.Fprintf(os.Stderr, "\n=== GOROUTINE STACK DUMP ===\n%s\n", buf[:n])
			pprof.Lookup("goroutine").WriteTo(os.Stderr, 2)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")
	cancel()

	done := make(chan struct{})
	go func() {
		driver.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		logger.Info("cleanup timeout, forcing exit")
	}
}

// newWakeableSimulator builds a Simulator that answers WAKE and INFO with
// OK and a canned identity payload respectively, enough to exercise the
// CLI end to end without a physical device attached.
func newWakeableSimulator() *ryderserial.Simulator {
	sim := ryderserial.NewSimulator()
	sim.SetHandler(func(cmd []byte) []byte {
		if len(cmd) == 0 {
			return nil
		}
		switch ryderserial.Opcode(cmd[0]) {
		case ryderserial.WAKE:
			return []byte{0x01}
		case ryderserial.INFO:
			return append([]byte{0x04}, append([]byte("sim-device"), 0x05)...)
		default:
			return []byte{0x01}
		}
	})
	return sim
}
