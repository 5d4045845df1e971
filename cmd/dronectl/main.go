// dronectl forwards receiver axes to the command axes: each update is
// clipped to [-1, 1], written back to the flight bus, and recorded to
// the local flight log alongside the latest attitude.
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
	"dronedeck/internal/flightlog"
)

// headerEvery is how many value rows are printed between column headers.
const headerEvery = 20

func main() {
	log.SetPrefix("dronectl: ")

	logPath := flag.String("flight-log", "", "flight log database path (default $XDG_STATE_HOME/dronedeck/flight.db)")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: dronectl [flags]")
		flag.PrintDefaults()
	}
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *logPath); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, logPath string) error {
	b, err := bus.Connect(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	store, err := flightlog.Open(logPath)
	if err != nil {
		return err
	}
	defer store.Close()

	sub := b.SubscribeRC(ctx)
	defer sub.Close()

	log.Print("forwarding rc to command, Ctrl-C to stop")
	printHeader()

	rows := 0
	for {
		rc, err := sub.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		command := rc.Clip()
		if err := b.SetCommand(ctx, command); err != nil {
			log.Printf("publish command: %v", err)
			continue
		}

		if err := store.Record(flightlog.KindCommand, command.Roll, command.Pitch, command.Yaw); err != nil {
			log.Printf("flight log: %v", err)
		}
		if att, err := b.Attitude(ctx); err == nil {
			if err := store.Record(flightlog.KindAttitude, att.Roll, att.Pitch, att.Heading); err != nil {
				log.Printf("flight log: %v", err)
			}
		}

		printRow(rc, command)
		rows++
		if rows%headerEvery == 0 {
			printHeader()
		}
	}
}

func printHeader() {
	fmt.Printf("%24s | %24s\n", "rc (roll pitch yaw thr)", "cmd (roll pitch yaw)")
}

func printRow(rc, command bus.Axes) {
	fmt.Printf("%5.2f %5.2f %5.2f %5.2f   | %5.2f %5.2f %5.2f\n",
		rc.Roll, rc.Pitch, rc.Yaw, rc.Throttle,
		command.Roll, command.Pitch, command.Yaw)
}
