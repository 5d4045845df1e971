// dronerx reads Spektrum remote-receiver frames and publishes the
// normalized stick positions to the flight bus.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"dronedeck/internal/bus"
	"dronedeck/internal/spektrum"
)

func main() {
	log.SetPrefix("dronerx: ")

	port := flag.String("port", spektrum.DefaultPort, "serial port of the remote receiver")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: dronerx [flags]")
		flag.PrintDefaults()
	}
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *port); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, port string) error {
	b, err := bus.Connect(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	rx, err := spektrum.Open(port)
	if err != nil {
		return err
	}
	defer rx.Close()

	if err := rx.Align(); err != nil {
		return err
	}
	log.Printf("reading receiver on %s, Ctrl-C to stop", port)

	frames := 0
	for ctx.Err() == nil {
		frame, err := rx.ReadFrame()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			// Lost framing; wait out a gap and resync.
			log.Printf("frame read: %v", err)
			if err := rx.Align(); err != nil {
				return err
			}
			continue
		}

		n := rx.Normalized()
		err = b.SetRC(ctx, bus.Axes{
			Roll:     n[spektrum.ChanAileron],
			Pitch:    n[spektrum.ChanElevator],
			Yaw:      n[spektrum.ChanRudder],
			Throttle: n[spektrum.ChanThrottle],
		})
		if err != nil {
			log.Printf("publish rc: %v", err)
		}

		frames++
		if frames%500 == 0 {
			log.Printf("%d frames, %d fades", frames, frame.Fades)
		}
	}
	return nil
}
