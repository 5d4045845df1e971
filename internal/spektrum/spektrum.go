// Package spektrum reads Spektrum remote-receiver (satellite) frames.
// A frame is 16 bytes: fades, system id, then seven big-endian 16-bit
// fields, each carrying a 4-bit channel id and an 11-bit servo value.
package spektrum

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

const (
	// FrameSize is the fixed size of a remote receiver frame.
	FrameSize = 16

	// FieldsPerFrame is the number of channel fields in one frame.
	FieldsPerFrame = 7

	// NumChannels is the number of channels tracked across frames.
	NumChannels = 8

	// Center is the 11-bit midpoint: stick at rest.
	Center = 1024

	// Span is the 11-bit units corresponding to full stick deflection.
	Span = 683
)

// Channel assignments in DSM channel order.
const (
	ChanThrottle = 0
	ChanAileron  = 1 // roll
	ChanElevator = 2 // pitch
	ChanRudder   = 3 // yaw
	ChanGear     = 4
	ChanAux1     = 5
)

// DefaultPort is the usb port the remote receiver shows up on.
const DefaultPort = "/dev/ttyUSB1"

// DefaultBaud is the remote receiver's serial rate.
const DefaultBaud = 115200

// Frame is one decoded remote receiver frame. Only the channels present
// in this frame have Seen set; a frame carries seven of the channels.
type Frame struct {
	Fades  byte // missed-frame count reported by the receiver
	System byte // protocol id (e.g. 0xa2 for DSMX 11ms)
	Values [NumChannels]uint16
	Seen   [NumChannels]bool
}

// Decode unpacks a 16-byte frame buffer.
func Decode(buf []byte) (Frame, error) {
	if len(buf) != FrameSize {
		return Frame{}, fmt.Errorf("spektrum frame is %d bytes, want %d", len(buf), FrameSize)
	}
	f := Frame{Fades: buf[0], System: buf[1]}
	for i := 0; i < FieldsPerFrame; i++ {
		field := binary.BigEndian.Uint16(buf[2+2*i:])
		ch := int(field>>11) & 0x0f
		if ch >= NumChannels {
			continue
		}
		f.Values[ch] = field & 0x7ff
		f.Seen[ch] = true
	}
	return f, nil
}

// Normalize maps an 11-bit servo value to [-1, 1] around Center,
// clipping at full deflection.
func Normalize(v uint16) float64 {
	n := (float64(v) - Center) / Span
	if n > 1 {
		return 1
	}
	if n < -1 {
		return -1
	}
	return n
}

// Receiver reads frames from a byte stream and accumulates the latest
// value of every channel across frames.
type Receiver struct {
	r      io.Reader
	port   serial.Port // nil when wrapping a plain reader
	values [NumChannels]uint16
}

// NewReceiver wraps an existing byte stream (tests use in-memory data).
func NewReceiver(r io.Reader) *Receiver {
	rx := &Receiver{r: r}
	for i := range rx.values {
		rx.values[i] = Center
	}
	return rx
}

// Open opens the serial port the remote receiver is attached to.
func Open(portName string) (*Receiver, error) {
	if portName == "" {
		portName = DefaultPort
	}
	p, err := serial.Open(portName, &serial.Mode{BaudRate: DefaultBaud})
	if err != nil {
		return nil, fmt.Errorf("open spektrum port %s: %w", portName, err)
	}
	rx := NewReceiver(p)
	rx.port = p
	return rx, nil
}

// Close closes the underlying port, if owned.
func (rx *Receiver) Close() error {
	if rx.port == nil {
		return nil
	}
	return rx.port.Close()
}

// Align synchronizes to a frame boundary by waiting out the inter-frame
// gap: frames arrive every 11 or 22 ms, so a short read timeout that
// returns no data means the next bytes start a fresh frame.
func (rx *Receiver) Align() error {
	if rx.port == nil {
		return nil // in-memory streams are assumed aligned
	}
	if err := rx.port.SetReadTimeout(5 * time.Millisecond); err != nil {
		return fmt.Errorf("spektrum align: %w", err)
	}
	buf := make([]byte, FrameSize)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		n, err := rx.port.Read(buf)
		if err != nil {
			return fmt.Errorf("spektrum align read: %w", err)
		}
		if n == 0 {
			// Gap found; switch back to blocking reads.
			if err := rx.port.SetReadTimeout(serial.NoTimeout); err != nil {
				return fmt.Errorf("spektrum align: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("spektrum align: no inter-frame gap within 2s")
}

// ReadFrame reads and decodes the next frame, folding its channel
// values into the receiver's accumulated state.
func (rx *Receiver) ReadFrame() (Frame, error) {
	buf := make([]byte, FrameSize)
	if _, err := io.ReadFull(rx.r, buf); err != nil {
		return Frame{}, fmt.Errorf("spektrum read: %w", err)
	}
	f, err := Decode(buf)
	if err != nil {
		return Frame{}, err
	}
	for ch, seen := range f.Seen {
		if seen {
			rx.values[ch] = f.Values[ch]
		}
	}
	return f, nil
}

// Channels returns the latest raw value of every channel.
func (rx *Receiver) Channels() [NumChannels]uint16 {
	return rx.values
}

// Normalized returns every channel mapped to [-1, 1].
func (rx *Receiver) Normalized() [NumChannels]float64 {
	var out [NumChannels]float64
	for i, v := range rx.values {
		out[i] = Normalize(v)
	}
	return out
}
