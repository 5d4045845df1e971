package spektrum

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frame builds a wire frame from channel/value pairs, zero-filling the
// remaining fields with channel 15 (discarded by Decode).
func frame(fades, system byte, fields map[int]uint16) []byte {
	buf := []byte{fades, system}
	written := 0
	for ch, v := range fields {
		buf = binary.BigEndian.AppendUint16(buf, uint16(ch)<<11|v&0x7ff)
		written++
	}
	for ; written < FieldsPerFrame; written++ {
		buf = binary.BigEndian.AppendUint16(buf, 15<<11)
	}
	return buf
}

func TestDecode(t *testing.T) {
	buf := frame(2, 0xa2, map[int]uint16{
		ChanThrottle: 342,
		ChanAileron:  1024,
		ChanRudder:   1707,
	})
	f, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, byte(2), f.Fades)
	assert.Equal(t, byte(0xa2), f.System)
	assert.True(t, f.Seen[ChanThrottle])
	assert.Equal(t, uint16(342), f.Values[ChanThrottle])
	assert.Equal(t, uint16(1024), f.Values[ChanAileron])
	assert.Equal(t, uint16(1707), f.Values[ChanRudder])
	assert.False(t, f.Seen[ChanElevator])
}

func TestDecode_WrongSize(t *testing.T) {
	_, err := Decode(make([]byte, FrameSize-1))
	require.Error(t, err)
}

func TestNormalize(t *testing.T) {
	assert.InDelta(t, 0, Normalize(Center), 1e-9)
	assert.InDelta(t, 1, Normalize(Center+Span), 1e-9)
	assert.InDelta(t, -1, Normalize(Center-Span), 1e-9)
	// Clipped at full deflection.
	assert.Equal(t, 1.0, Normalize(2047))
	assert.Equal(t, -1.0, Normalize(0))
}

func TestReceiver_AccumulatesAcrossFrames(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(frame(0, 0xa2, map[int]uint16{ChanAileron: 1500}))
	stream.Write(frame(0, 0xa2, map[int]uint16{ChanRudder: 600}))

	rx := NewReceiver(&stream)
	_, err := rx.ReadFrame()
	require.NoError(t, err)
	_, err = rx.ReadFrame()
	require.NoError(t, err)

	ch := rx.Channels()
	assert.Equal(t, uint16(1500), ch[ChanAileron])
	assert.Equal(t, uint16(600), ch[ChanRudder])
	// Channels never seen stay centered.
	assert.Equal(t, uint16(Center), ch[ChanElevator])
}

func TestReceiver_ShortRead(t *testing.T) {
	rx := NewReceiver(bytes.NewReader(make([]byte, FrameSize/2)))
	_, err := rx.ReadFrame()
	require.Error(t, err)
}

func TestNormalized(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(frame(0, 0xa2, map[int]uint16{ChanAileron: Center + Span/2}))
	rx := NewReceiver(&stream)
	_, err := rx.ReadFrame()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, rx.Normalized()[ChanAileron], 0.01)
}
