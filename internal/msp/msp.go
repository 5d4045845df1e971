// Package msp speaks MultiWii Serial Protocol v1 to a flight control
// board (e.g. Naze32). Requests go out as "$M<", replies come back as
// "$M>", both with an XOR checksum over size, command, and payload.
package msp

import (
	"encoding/binary"
	"fmt"
	"io"

	"go.bug.st/serial"
)

// MSP command codes used by the bridge.
const (
	CmdRC       = 105 // channel values as received by the board
	CmdAttitude = 108 // roll, pitch, heading
	CmdSetRawRC = 200 // inject raw RC channel values
)

// DefaultPort is the usb port the flight control board shows up on.
const DefaultPort = "/dev/ttyUSB0"

// DefaultBaud is the Naze32's serial rate.
const DefaultBaud = 115200

// Attitude is the board's attitude telemetry. Roll and pitch in degrees
// (the wire carries tenths of a degree), heading in degrees [-180, 180].
type Attitude struct {
	Roll    float64
	Pitch   float64
	Heading float64
}

// Conn is an MSP connection over any byte stream.
type Conn struct {
	rw io.ReadWriter
	c  io.Closer // nil when the stream is not ours to close
}

// NewConn wraps an existing byte stream (tests use in-memory pipes).
func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{rw: rw}
}

// Open opens a serial MSP connection to the flight control board.
func Open(port string, baud int) (*Conn, error) {
	if port == "" {
		port = DefaultPort
	}
	if baud == 0 {
		baud = DefaultBaud
	}
	p, err := serial.Open(port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open msp port %s: %w", port, err)
	}
	return &Conn{rw: p, c: p}, nil
}

// Close closes the underlying port, if owned.
func (c *Conn) Close() error {
	if c.c == nil {
		return nil
	}
	return c.c.Close()
}

// Attitude requests MSP_ATTITUDE and decodes the three int16 fields.
func (c *Conn) Attitude() (Attitude, error) {
	payload, err := c.Request(CmdAttitude, nil)
	if err != nil {
		return Attitude{}, err
	}
	if len(payload) < 6 {
		return Attitude{}, fmt.Errorf("attitude payload too short: %d bytes", len(payload))
	}
	return Attitude{
		Roll:    float64(int16(binary.LittleEndian.Uint16(payload[0:2]))) / 10,
		Pitch:   float64(int16(binary.LittleEndian.Uint16(payload[2:4]))) / 10,
		Heading: float64(int16(binary.LittleEndian.Uint16(payload[4:6]))),
	}, nil
}

// SetRawRC sends MSP_SET_RAW_RC with eight channel pulse widths in µs.
func (c *Conn) SetRawRC(channels [8]uint16) error {
	payload := make([]byte, 16)
	for i, v := range channels {
		binary.LittleEndian.PutUint16(payload[2*i:], v)
	}
	_, err := c.Request(CmdSetRawRC, payload)
	return err
}

// Request writes one MSP request and reads the matching reply payload.
func (c *Conn) Request(cmd byte, payload []byte) ([]byte, error) {
	if _, err := c.rw.Write(encodeFrame('<', cmd, payload)); err != nil {
		return nil, fmt.Errorf("msp write cmd %d: %w", cmd, err)
	}
	replyCmd, reply, err := readFrame(c.rw)
	if err != nil {
		return nil, err
	}
	if replyCmd != cmd {
		return nil, fmt.Errorf("msp reply cmd %d, want %d", replyCmd, cmd)
	}
	return reply, nil
}

// encodeFrame builds "$M" + direction + size + cmd + payload + checksum.
func encodeFrame(direction, cmd byte, payload []byte) []byte {
	frame := make([]byte, 0, 6+len(payload))
	frame = append(frame, '$', 'M', direction, byte(len(payload)), cmd)
	frame = append(frame, payload...)
	frame = append(frame, checksum(byte(len(payload)), cmd, payload))
	return frame
}

// checksum XORs size, command, and every payload byte.
func checksum(size, cmd byte, payload []byte) byte {
	ck := size ^ cmd
	for _, b := range payload {
		ck ^= b
	}
	return ck
}

// readFrame scans for the "$M" preamble, then reads one reply frame.
// A '!' direction byte is the board's error marker for the request.
func readFrame(r io.Reader) (cmd byte, payload []byte, err error) {
	if err := sync(r); err != nil {
		return 0, nil, err
	}
	header := make([]byte, 3) // direction, size, cmd
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, fmt.Errorf("msp read header: %w", err)
	}
	direction, size, cmd := header[0], header[1], header[2]

	payload = make([]byte, int(size)+1) // payload + checksum
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("msp read payload: %w", err)
	}
	ck := payload[size]
	payload = payload[:size]

	if want := checksum(size, cmd, payload); ck != want {
		return 0, nil, fmt.Errorf("msp checksum mismatch on cmd %d: got %#x want %#x", cmd, ck, want)
	}
	if direction == '!' {
		return 0, nil, fmt.Errorf("msp board rejected cmd %d", cmd)
	}
	if direction != '>' {
		return 0, nil, fmt.Errorf("msp unexpected direction byte %q", direction)
	}
	return cmd, payload, nil
}

// sync consumes bytes until the "$M" preamble.
func sync(r io.Reader) error {
	b := make([]byte, 1)
	sawDollar := false
	for i := 0; i < 4096; i++ {
		if _, err := io.ReadFull(r, b); err != nil {
			return fmt.Errorf("msp sync: %w", err)
		}
		switch {
		case b[0] == '$':
			sawDollar = true
		case sawDollar && b[0] == 'M':
			return nil
		default:
			sawDollar = false
		}
	}
	return fmt.Errorf("msp sync: no preamble in 4096 bytes")
}
