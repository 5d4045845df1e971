// Package drone bridges the flight control board and the PWM generator.
// Attitude telemetry comes in over MSP; attitude commands go out as PWM
// pulse widths on a PCA9685.
package drone

import (
	"fmt"
	"log"
	"math"

	"dronedeck/internal/msp"
)

// Pulse width range accepted by the flight controller, in seconds.
const (
	MinWidth = 0.0011
	MidWidth = 0.0015
	MaxWidth = 0.0019
)

// Ticks per PWM cycle on the generator.
const Ticks = 4096

// DefaultPeriod is the PWM period in seconds.
const DefaultPeriod = 0.022

// DefaultKPeriod compensates for the mismatch between the requested
// period and the frequency the generator actually produces:
// requested_period = KPeriod * target_period.
const DefaultKPeriod = 0.023 / 0.022

// Generator channel map.
const (
	RollChannel  = 3
	PitchChannel = 2
	YawChannel   = 1
)

// resetChannels is how many generator channels are centered on startup
// and shutdown.
const resetChannels = 6

// Generator abstracts the PWM chip so tests can record writes.
type Generator interface {
	SetFreq(hz float64) error
	SetPWM(channel int, on, off uint16) error
}

// Telemetry abstracts the MSP connection.
type Telemetry interface {
	Attitude() (msp.Attitude, error)
}

// Config tunes the bridge. Zero values take defaults; trims are in
// microseconds and shift an axis's center pulse width.
type Config struct {
	Period      float64
	KPeriod     float64
	RollTrimUS  float64
	PitchTrimUS float64
	YawTrimUS   float64
}

// Comm is the bridge between the flight controller and the generator.
type Comm struct {
	gen    Generator
	tel    Telemetry // nil when no board is connected
	period float64

	rollTrim  float64 // seconds
	pitchTrim float64
	yawTrim   float64
}

// NewComm programs the generator frequency and centers all channels.
func NewComm(gen Generator, tel Telemetry, cfg Config) (*Comm, error) {
	period := cfg.Period
	if period == 0 {
		period = DefaultPeriod
	}
	kPeriod := cfg.KPeriod
	if kPeriod == 0 {
		kPeriod = DefaultKPeriod
	}
	c := &Comm{
		gen:       gen,
		tel:       tel,
		period:    period,
		rollTrim:  cfg.RollTrimUS * 1e-6,
		pitchTrim: cfg.PitchTrimUS * 1e-6,
		yawTrim:   cfg.YawTrimUS * 1e-6,
	}
	if err := gen.SetFreq(1 / (kPeriod * period)); err != nil {
		return nil, fmt.Errorf("program pwm frequency: %w", err)
	}
	if err := c.ResetChannels(); err != nil {
		return nil, err
	}
	return c, nil
}

// ResetChannels centers channels 0-5, applying trim on roll/pitch/yaw.
func (c *Comm) ResetChannels() error {
	for ch := 0; ch < resetChannels; ch++ {
		if err := c.setWidth(ch, MidWidth); err != nil {
			return err
		}
	}
	if err := c.setWidth(RollChannel, MidWidth+c.rollTrim); err != nil {
		return err
	}
	if err := c.setWidth(PitchChannel, MidWidth+c.pitchTrim); err != nil {
		return err
	}
	return c.setWidth(YawChannel, MidWidth+c.yawTrim)
}

// SetRollWidth applies trim and sets the roll pulse width, in seconds.
func (c *Comm) SetRollWidth(w float64) error {
	return c.setTrimmed("roll", RollChannel, w+c.rollTrim)
}

// SetPitchWidth applies trim and sets the pitch pulse width, in seconds.
func (c *Comm) SetPitchWidth(w float64) error {
	return c.setTrimmed("pitch", PitchChannel, w+c.pitchTrim)
}

// SetYawWidth applies trim and sets the yaw pulse width, in seconds.
func (c *Comm) SetYawWidth(w float64) error {
	return c.setTrimmed("yaw", YawChannel, w+c.yawTrim)
}

// SetCommand maps normalized roll/pitch/yaw commands in [-1, 1] to
// pulse widths and writes all three axes.
func (c *Comm) SetCommand(roll, pitch, yaw float64) error {
	if err := c.SetRollWidth(WidthForCommand(roll)); err != nil {
		return err
	}
	if err := c.SetPitchWidth(WidthForCommand(pitch)); err != nil {
		return err
	}
	return c.SetYawWidth(WidthForCommand(yaw))
}

// Attitude reads the board's attitude telemetry.
func (c *Comm) Attitude() (msp.Attitude, error) {
	if c.tel == nil {
		return msp.Attitude{}, fmt.Errorf("no flight controller connected")
	}
	return c.tel.Attitude()
}

// setTrimmed clamps the width into range, warns on clipping, and sets it.
func (c *Comm) setTrimmed(axis string, channel int, w float64) error {
	clamped, ok := ValidateWidth(w)
	if !ok {
		log.Printf("WARNING: %s pulse width out of range, clamped to %.4fms", axis, clamped*1000)
	}
	return c.setWidth(channel, clamped)
}

// setWidth converts a positive pulse width in seconds to ticks.
func (c *Comm) setWidth(channel int, w float64) error {
	ticks := uint16(math.Round(w / c.period * Ticks))
	return c.gen.SetPWM(channel, 0, ticks)
}

// ValidateWidth clamps a pulse width to [MinWidth, MaxWidth]. The
// second return is false when clamping occurred.
func ValidateWidth(w float64) (float64, bool) {
	switch {
	case w > MaxWidth:
		return MaxWidth, false
	case w < MinWidth:
		return MinWidth, false
	default:
		return w, true
	}
}

// WidthForCommand maps a normalized command in [-1, 1] to a pulse
// width centered on MidWidth, clipping the command first.
func WidthForCommand(norm float64) float64 {
	if norm > 1 {
		norm = 1
	}
	if norm < -1 {
		norm = -1
	}
	return MidWidth + norm*(MaxWidth-MidWidth)
}
