package drone

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGen records PWM writes per channel.
type fakeGen struct {
	freq  float64
	ticks map[int]uint16
}

func newFakeGen() *fakeGen {
	return &fakeGen{ticks: make(map[int]uint16)}
}

func (g *fakeGen) SetFreq(hz float64) error { g.freq = hz; return nil }
func (g *fakeGen) SetPWM(channel int, on, off uint16) error {
	g.ticks[channel] = off
	return nil
}

func midTicks() uint16 {
	return uint16(math.Round(MidWidth / DefaultPeriod * Ticks))
}

func TestNewComm_ProgramsFreqAndCenters(t *testing.T) {
	g := newFakeGen()
	_, err := NewComm(g, nil, Config{})
	require.NoError(t, err)

	assert.InDelta(t, 1/(DefaultKPeriod*DefaultPeriod), g.freq, 1e-9)
	for ch := 0; ch < resetChannels; ch++ {
		assert.Equal(t, midTicks(), g.ticks[ch], "channel %d not centered", ch)
	}
}

func TestNewComm_AppliesTrim(t *testing.T) {
	g := newFakeGen()
	_, err := NewComm(g, nil, Config{YawTrimUS: 40})
	require.NoError(t, err)

	want := uint16(math.Round((MidWidth + 40e-6) / DefaultPeriod * Ticks))
	assert.Equal(t, want, g.ticks[YawChannel])
	assert.Equal(t, midTicks(), g.ticks[RollChannel])
}

func TestSetYawWidth_Clamps(t *testing.T) {
	g := newFakeGen()
	c, err := NewComm(g, nil, Config{})
	require.NoError(t, err)

	require.NoError(t, c.SetYawWidth(0.0030))
	want := uint16(math.Round(MaxWidth / DefaultPeriod * Ticks))
	assert.Equal(t, want, g.ticks[YawChannel])
}

func TestValidateWidth(t *testing.T) {
	w, ok := ValidateWidth(MidWidth)
	assert.True(t, ok)
	assert.Equal(t, MidWidth, w)

	w, ok = ValidateWidth(MaxWidth + 1e-4)
	assert.False(t, ok)
	assert.Equal(t, MaxWidth, w)

	w, ok = ValidateWidth(MinWidth - 1e-4)
	assert.False(t, ok)
	assert.Equal(t, MinWidth, w)
}

func TestWidthForCommand(t *testing.T) {
	assert.InDelta(t, MidWidth, WidthForCommand(0), 1e-12)
	assert.InDelta(t, MaxWidth, WidthForCommand(1), 1e-12)
	assert.InDelta(t, MinWidth, WidthForCommand(-1), 1e-12)
	// Commands beyond full deflection are clipped, not extrapolated.
	assert.InDelta(t, MaxWidth, WidthForCommand(2.5), 1e-12)
}

func TestSetCommand(t *testing.T) {
	g := newFakeGen()
	c, err := NewComm(g, nil, Config{})
	require.NoError(t, err)

	require.NoError(t, c.SetCommand(1, 0, -1))
	maxTicks := uint16(math.Round(MaxWidth / DefaultPeriod * Ticks))
	minTicks := uint16(math.Round(MinWidth / DefaultPeriod * Ticks))
	assert.Equal(t, maxTicks, g.ticks[RollChannel])
	assert.Equal(t, midTicks(), g.ticks[PitchChannel])
	assert.Equal(t, minTicks, g.ticks[YawChannel])
}

func TestAttitude_NoBoard(t *testing.T) {
	g := newFakeGen()
	c, err := NewComm(g, nil, Config{})
	require.NoError(t, err)
	_, err = c.Attitude()
	require.Error(t, err)
}
