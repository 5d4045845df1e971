// dronecomm bridges the flight control board and the PWM generator.
// Attitude telemetry read over MSP is published to the flight bus;
// command axes read from the bus are written out as PWM pulse widths.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dronedeck/internal/bus"
	"dronedeck/internal/drone"
	"dronedeck/internal/msp"
	"dronedeck/internal/pwm"
)

// config holds the parsed CLI configuration for the bridge.
type config struct {
	port      string
	baud      int
	noBoard   bool
	period    time.Duration
	rollTrim  float64
	pitchTrim float64
	yawTrim   float64
}

func parseFlags() config {
	var cfg config

	flag.StringVar(&cfg.port, "port", msp.DefaultPort, "serial port of the flight control board")
	flag.IntVar(&cfg.baud, "baud", msp.DefaultBaud, "serial baud rate")
	flag.BoolVar(&cfg.noBoard, "no-board", false, "run without a flight control board (PWM out only)")
	flag.DurationVar(&cfg.period, "period", 22*time.Millisecond, "bridge loop period")
	flag.Float64Var(&cfg.rollTrim, "trim-roll", 0, "roll channel trim (us)")
	flag.Float64Var(&cfg.pitchTrim, "trim-pitch", 0, "pitch channel trim (us)")
	flag.Float64Var(&cfg.yawTrim, "trim-yaw", 0, "yaw channel trim (us)")

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: dronecomm [flags]")
		flag.PrintDefaults()
	}
	flag.Parse()
	return cfg
}

func main() {
	log.SetPrefix("dronecomm: ")
	cfg := parseFlags()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg config) error {
	b, err := bus.Connect(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	gen, err := pwm.Open(0)
	if err != nil {
		return err
	}
	defer gen.Close()

	var tel drone.Telemetry
	if !cfg.noBoard {
		conn, err := msp.Open(cfg.port, cfg.baud)
		if err != nil {
			return err
		}
		defer conn.Close()
		tel = conn
	}

	comm, err := drone.NewComm(gen, tel, drone.Config{
		RollTrimUS:  cfg.rollTrim,
		PitchTrimUS: cfg.pitchTrim,
		YawTrimUS:   cfg.yawTrim,
	})
	if err != nil {
		return err
	}
	// Center the outputs before the process goes away.
	defer func() {
		if err := comm.ResetChannels(); err != nil {
			log.Printf("reset channels: %v", err)
		}
	}()

	log.Printf("bridging on %s, Ctrl-C to stop", cfg.port)

	ticker := time.NewTicker(cfg.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if tel != nil {
			att, err := comm.Attitude()
			if err != nil {
				log.Printf("attitude read: %v", err)
			} else if err := b.SetAttitude(ctx, bus.Attitude{
				Roll:    att.Roll,
				Pitch:   att.Pitch,
				Heading: att.Heading,
			}); err != nil {
				log.Printf("publish attitude: %v", err)
			}
		}

		command, err := b.Command(ctx)
		if err != nil {
			log.Printf("read command: %v", err)
			continue
		}
		if err := comm.SetCommand(command.Roll, command.Pitch, command.Yaw); err != nil {
			log.Printf("set command: %v", err)
		}
	}
}
