// Package pwm drives a PCA9685 16-channel PWM generator over I2C.
// The chip divides each PWM cycle into 4096 ticks; a channel's output
// is set by the tick at which it switches on and off.
package pwm

import (
	"fmt"
	"math"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Ticks is the PCA9685's per-cycle time resolution.
const Ticks = 4096

// DefaultAddr is the chip's default I2C address.
const DefaultAddr = 0x40

// PCA9685 registers.
const (
	regMode1    = 0x00
	regPrescale = 0xfe
	regLed0OnL  = 0x06 // 4 registers per channel from here

	mode1Sleep   = 0x10
	mode1AutoInc = 0x20
	mode1Restart = 0x80
)

// oscHz is the chip's internal oscillator frequency.
const oscHz = 25e6

// Dev is a PCA9685 on an I2C bus.
type Dev struct {
	dev i2c.Dev
	bus i2c.BusCloser
}

// Open initializes the host, opens the default I2C bus, and prepares
// the PCA9685 at addr (DefaultAddr when zero).
func Open(addr uint16) (*Dev, error) {
	if addr == 0 {
		addr = DefaultAddr
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	bus, err := i2creg.Open("")
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w", err)
	}
	d := &Dev{dev: i2c.Dev{Bus: bus, Addr: addr}, bus: bus}
	// Auto-increment lets one write cover a channel's four registers.
	if err := d.write(regMode1, mode1AutoInc); err != nil {
		bus.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying bus.
func (d *Dev) Close() error {
	return d.bus.Close()
}

// Prescale computes the register value for a target PWM frequency.
func Prescale(hz float64) byte {
	return byte(math.Round(oscHz/(Ticks*hz)) - 1)
}

// SetFreq programs the PWM frequency. The chip must sleep while the
// prescaler is written, then restart.
func (d *Dev) SetFreq(hz float64) error {
	if err := d.write(regMode1, mode1AutoInc|mode1Sleep); err != nil {
		return err
	}
	if err := d.write(regPrescale, Prescale(hz)); err != nil {
		return err
	}
	if err := d.write(regMode1, mode1AutoInc); err != nil {
		return err
	}
	time.Sleep(500 * time.Microsecond)
	return d.write(regMode1, mode1AutoInc|mode1Restart)
}

// SetPWM sets a channel's on and off ticks within the 4096-tick cycle.
func (d *Dev) SetPWM(channel int, on, off uint16) error {
	if channel < 0 || channel > 15 {
		return fmt.Errorf("pca9685 channel %d out of range", channel)
	}
	reg := byte(regLed0OnL + 4*channel)
	w := []byte{reg,
		byte(on), byte(on >> 8),
		byte(off), byte(off >> 8),
	}
	if err := d.dev.Tx(w, nil); err != nil {
		return fmt.Errorf("pca9685 set channel %d: %w", channel, err)
	}
	return nil
}

func (d *Dev) write(reg, val byte) error {
	if err := d.dev.Tx([]byte{reg, val}, nil); err != nil {
		return fmt.Errorf("pca9685 write reg %#x: %w", reg, err)
	}
	return nil
}
