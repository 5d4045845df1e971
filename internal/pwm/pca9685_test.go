package pwm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrescale(t *testing.T) {
	// Datasheet example: 200 Hz -> round(25MHz / (4096 * 200)) - 1 = 30.
	assert.Equal(t, byte(30), Prescale(200))
	// Update rate used by the flight bridge: ~43.5 Hz
	// (22 ms period with the 23/22 calibration factor).
	assert.Equal(t, byte(139), Prescale(1/(0.022*23.0/22.0)))
}
